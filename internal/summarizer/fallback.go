package summarizer

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	defaultCompanyName = "The Company"
	defaultDescription = "a leading provider."

	// placeholderTitle matches the title the fetcher emits when a page could
	// not be retrieved.
	placeholderTitle = "Error Scraping"
)

var (
	titleRe       = regexp.MustCompile(`(?i)Title:[ \t]*([^\n]+)`)
	descriptionRe = regexp.MustCompile(`(?i)Description:[ \t]*([^\n]+)`)
	separatorRe   = regexp.MustCompile(`[-|:]`)
)

// Fallback builds a summary from the Title and Description lines of the
// fetched text without any external call. Equal input gives equal output.
func Fallback(text, sourceURL string) KnowledgeSummary {
	title := firstMatch(titleRe, text)
	description := firstMatch(descriptionRe, text)

	name := defaultCompanyName
	switch {
	case strings.EqualFold(title, placeholderTitle):
		if host := hostName(sourceURL); host != "" {
			name = host
		}
		description = ""
	case title != "":
		if cut := strings.TrimSpace(separatorRe.Split(title, 2)[0]); cut != "" {
			name = cut
		}
	}
	if description == "" {
		description = defaultDescription
	}

	summary := fmt.Sprintf(`You are the AI Assistant for %s.

About Us:
%s

Your Mission:
Assist visitors on our website (%s). Answer questions based on the content context provided.
Always use 'we' and 'us' to represent the brand. Be professional, concise, and helpful.`, name, description, sourceURL)

	return KnowledgeSummary{
		CompanyName:     name,
		Industry:        defaultIndustry,
		SummaryText:     summary,
		OpeningGreeting: greeting(name),
		Source:          SourceFallback,
	}
}

func firstMatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// hostName returns the site host without a leading www.
func hostName(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
