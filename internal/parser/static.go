package parser

import (
	"context"
	"errors"
	"regexp"

	"github.com/JakeFAU/wordcount-crawler/internal/crawler"
)

// ErrPageNotFound is wrapped in the FetchError returned for unknown URLs.
var ErrPageNotFound = errors.New("page not found")

// Page is one node of a Static graph.
type Page struct {
	Text  string
	Links []string
}

// Static serves pages from an in-memory link graph. It is safe for
// concurrent use once built; the graph is never mutated after NewStatic.
type Static struct {
	pages   map[string]Page
	ignored []*regexp.Regexp
}

// NewStatic copies pages into a Static parser. Words are counted from each
// page's Text with ignored applied.
func NewStatic(pages map[string]Page, ignored []*regexp.Regexp) *Static {
	cp := make(map[string]Page, len(pages))
	for url, p := range pages {
		cp[url] = Page{Text: p.Text, Links: append([]string(nil), p.Links...)}
	}
	return &Static{pages: cp, ignored: ignored}
}

// Parse implements crawler.PageParser.
func (s *Static) Parse(ctx context.Context, url string) (crawler.PageResult, error) {
	if err := ctx.Err(); err != nil {
		return crawler.PageResult{}, &crawler.FetchError{URL: url, Err: err}
	}
	page, ok := s.pages[url]
	if !ok {
		return crawler.PageResult{}, &crawler.FetchError{URL: url, Err: ErrPageNotFound}
	}
	return crawler.PageResult{
		WordCounts: CountWords(page.Text, s.ignored),
		Links:      append([]string(nil), page.Links...),
	}, nil
}
