package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// WebExtractor fetches a page and reduces it to readable article text,
// splitting it into paragraph sections so sectionIndex metadata survives
// into the derived chunks.
type WebExtractor struct {
	client *http.Client
}

func NewWebExtractor(timeout time.Duration) *WebExtractor {
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &WebExtractor{
		client: &http.Client{Timeout: timeout},
	}
}

func (e *WebExtractor) ExtractURL(ctx context.Context, rawURL string) (*Result, error) {
	pageURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		return nil, fmt.Errorf("extract readable content from %s: %w", rawURL, err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return nil, fmt.Errorf("no readable text found at %s", rawURL)
	}

	// Split into paragraph sections; each gets its own sectionIndex.
	var units []Unit
	section := 0
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		units = append(units, Unit{Text: para, SectionIndex: section})
		section++
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = pageURL.Hostname()
	}

	return &Result{
		Units:       units,
		ContentType: "web",
		Title:       title,
		Words:       CountWords(text),
	}, nil
}
