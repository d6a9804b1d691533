package summarizer

import "fmt"

const promptTemplate = `You are building the knowledge base for a company's website assistant.

Website URL: %s
Page content:
%s

Read the content carefully and look for:
- what the company does and who it serves
- services or products with their descriptions
- how working with the company goes (process steps)
- opening hours and availability
- contact details (phone, email, address)
- pricing, if published
- frequently asked questions

Write the knowledge summary in the first person plural ("we", "our", "us"), as
the company speaking about itself. Only state facts present in the content.
If something is not in the content, leave it out entirely; never write
"unknown", "not specified" or invent details.

Respond with a single JSON object and nothing else:
{
  "companyName": "exact company name",
  "industry": "specific niche",
  "knowledgeBaseSummary": "factual first-person summary, about 150 words",
  "openingGreeting": "short greeting the assistant opens the conversation with"
}`

// BuildPrompt renders the summarization prompt for a page.
func BuildPrompt(text, sourceURL string) string {
	return fmt.Sprintf(promptTemplate, sourceURL, text)
}
