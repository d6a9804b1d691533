// Package fetcher retrieves a web page and reduces it to a compact text blob
// for the summarizer.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.0.0 Safari/537.36"
	DefaultTimeout   = 10 * time.Second
	DefaultMaxChars  = 100000

	FormatHTML     = "html"
	FormatMarkdown = "markdown"

	// Placeholder is returned in place of page content when the page cannot
	// be retrieved.
	Placeholder = "Title: Error Scraping\nDescription: Could not access site.\n\nContent:\n"

	maxBodyBytes = 8 << 20
)

// strippedSelectors are removed before extraction.
const strippedSelectors = "script, style, noscript, iframe, svg, link, object, embed, picture, input, button"

var whitespaceRe = regexp.MustCompile(`\s+`)

type Config struct {
	Timeout   time.Duration
	UserAgent string
	Format    string
	MaxChars  int
}

type Fetcher struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultMaxChars
	}
	if cfg.Format == "" {
		cfg.Format = FormatHTML
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.Named("fetcher"),
	}
}

// NormalizeURL trims the input and prefixes https:// when no scheme is given.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return trimmed
	}
	return "https://" + strings.TrimPrefix(trimmed, "//")
}

// Fetch never fails. Network errors, timeouts and non-2xx responses yield
// Placeholder so generation can continue on the fallback path.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) string {
	target := NormalizeURL(rawURL)
	text, err := f.fetch(ctx, target)
	if err != nil {
		f.logger.Warn("page fetch failed, using placeholder", zap.String("url", target), zap.Error(err))
		return Placeholder
	}
	return text
}

func (f *Fetcher) fetch(ctx context.Context, target string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return f.Extract(io.LimitReader(resp.Body, maxBodyBytes), target)
}

// Extract builds the text blob from an HTML document.
func (f *Fetcher) Extract(r io.Reader, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	title := collapse(doc.Find("title").First().Text())
	description, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	description = collapse(description)

	doc.Find(strippedSelectors).Remove()
	removeComments(doc.Selection)

	body := doc.Find("body").First()
	if body.Length() == 0 {
		body = doc.Selection
	}

	label := "HTML Content"
	var content string
	if f.cfg.Format == FormatMarkdown {
		label = "Markdown Content"
		content = f.markdown(body, pageURL)
	} else {
		content, err = body.Html()
		if err != nil {
			return "", fmt.Errorf("render body: %w", err)
		}
	}

	text := fmt.Sprintf("Title: %s\nDescription: %s\n\n%s:\n%s", title, description, label, collapse(content))
	return truncate(text, f.cfg.MaxChars), nil
}

func (f *Fetcher) markdown(body *goquery.Selection, pageURL string) string {
	domain := ""
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		domain = u.Scheme + "://" + u.Host
	}
	converter := md.NewConverter(domain, true, nil)
	return converter.Convert(body)
}

func removeComments(sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		if len(child.Nodes) == 0 {
			return
		}
		if child.Nodes[0].Type == html.CommentNode {
			child.Remove()
			return
		}
		removeComments(child)
	})
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
