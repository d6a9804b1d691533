package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const samplePage = `<!doctype html>
<html>
<head>
  <title>Acme Plumbing | Fast Repairs</title>
  <meta name="description" content="Family-owned   plumbing since 1982.">
  <style>body { color: red; }</style>
  <script>window.tracking = true;</script>
</head>
<body>
  <!-- hero banner -->
  <h1>Welcome   to Acme</h1>
  <p>Call us at 555-0100.</p>
  <iframe src="https://maps.example.com"></iframe>
  <button>Book now</button>
  <svg><circle r="4"></circle></svg>
</body>
</html>`

func TestNormalizeURL(t *testing.T) {
	cases := map[string]string{
		"example.com":              "https://example.com",
		"  example.com/about  ":    "https://example.com/about",
		"https://example.com":      "https://example.com",
		"http://example.com":       "http://example.com",
		"HTTPS://Example.com/Path": "HTTPS://Example.com/Path",
		"//cdn.example.com":        "https://cdn.example.com",
		"":                         "",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeURL(in), "input %q", in)
	}
}

func TestFetchExtractsAndStrips(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	f := New(Config{}, zap.NewNop())
	text := f.Fetch(context.Background(), srv.URL)

	require.Equal(t, DefaultUserAgent, gotUA)
	require.True(t, strings.HasPrefix(text, "Title: Acme Plumbing | Fast Repairs\nDescription: Family-owned plumbing since 1982.\n\nHTML Content:\n"), text)
	require.Contains(t, text, "Welcome to Acme")
	require.Contains(t, text, "555-0100")
	for _, stripped := range []string{"<script", "<style", "<iframe", "<button", "<svg", "hero banner", "tracking"} {
		require.NotContains(t, text, stripped)
	}
}

func TestFetchMarkdownFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	f := New(Config{Format: FormatMarkdown}, zap.NewNop())
	text := f.Fetch(context.Background(), srv.URL)

	require.Contains(t, text, "Markdown Content:\n")
	require.Contains(t, text, "# Welcome to Acme")
	require.NotContains(t, text, "<p>")
}

func TestFetchFailuresReturnPlaceholder(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer notFound.Close()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	f := New(Config{Timeout: 50 * time.Millisecond}, zap.NewNop())

	require.Equal(t, Placeholder, f.Fetch(context.Background(), notFound.URL))
	require.Equal(t, Placeholder, f.Fetch(context.Background(), slow.URL))
	require.Equal(t, Placeholder, f.Fetch(context.Background(), "http://127.0.0.1:1"))
}

func TestFetchTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><head><title>Big</title></head><body><p>" + strings.Repeat("é", 500) + "</p></body></html>"))
	}))
	defer srv.Close()

	f := New(Config{MaxChars: 120}, zap.NewNop())
	text := f.Fetch(context.Background(), srv.URL)
	require.Equal(t, 120, len([]rune(text)))
}
