// Package ingest fetches specification documents by URL and converts them to
// plain text. Block-level HTML elements are joined with blank lines so the
// chunker downstream can split the result on paragraph boundaries.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; riscv-consensus/1.0)"

// blockSelector matches the HTML elements treated as paragraph units.
const blockSelector = "p, h1, h2, h3, h4, h5, h6, li, pre, td, blockquote"

// Document holds a fetched specification page reduced to plain text.
type Document struct {
	URL         string
	Title       string
	Text        string
	ContentType string
	StatusCode  int
}

// Error represents a failure to fetch or parse a document.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ingest error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("ingest error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures document fetching.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// FromURL retrieves a specification page and extracts its text. Plain-text
// responses are used as-is; HTML is reduced to paragraph-joined block text.
func FromURL(ctx context.Context, urlStr string, opts *Options) (*Document, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	client := &http.Client{Timeout: opts.Timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	doc := &Document{
		URL:         urlStr,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	if strings.Contains(doc.ContentType, "text/plain") {
		doc.Text = strings.TrimSpace(string(body))
		return doc, nil
	}

	title, text, err := ExtractText(string(body))
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to parse HTML", Cause: err}
	}
	doc.Title = title
	doc.Text = text
	return doc, nil
}

// ExtractText parses HTML and returns the page title and its main text with
// block elements joined by blank lines. Navigation, scripts and other noise
// elements are removed first; the deepest matching block element wins so
// nested structures are not emitted twice.
func ExtractText(html string) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", err
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("nav, footer, header, script, style, noscript, aside, .sidebar, .toc, #toc, .cookie-banner").Remove()

	root := doc.Find("body")
	for _, selector := range contentSelectors() {
		if selection := doc.Find(selector); selection.Length() > 0 {
			root = selection.First()
			break
		}
	}

	var paragraphs []string
	root.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		if s.Find(blockSelector).Length() > 0 {
			// A nested block will be visited on its own.
			return
		}
		if para := collapseSpaces(s.Text()); para != "" {
			paragraphs = append(paragraphs, para)
		}
	})

	if len(paragraphs) == 0 {
		// No block markup at all: treat each non-empty line as a paragraph.
		for _, line := range strings.Split(root.Text(), "\n") {
			if para := collapseSpaces(line); para != "" {
				paragraphs = append(paragraphs, para)
			}
		}
	}

	return title, strings.Join(paragraphs, "\n\n"), nil
}

// contentSelectors returns the selectors tried, in order, to locate the main
// content of a specification page before falling back to body.
func contentSelectors() []string {
	return []string{
		"main",
		"article",
		"#content",
		".content",
		"#main-content",
		".main-content",
	}
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
