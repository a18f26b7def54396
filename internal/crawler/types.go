package crawler

import (
	"fmt"
	"time"
)

// PageResult is what a PageParser extracts from a single page.
type PageResult struct {
	WordCounts map[string]int
	Links      []string
}

// Request captures the immutable inputs of one crawl invocation.
type Request struct {
	SeedURLs []string
	MaxDepth int
	Deadline time.Time
	// IgnorePatterns are regular expressions that must match the whole URL.
	IgnorePatterns []string
}

// Result is the outcome of a crawl invocation.
type Result struct {
	ID          string
	WordCounts  map[string]int
	URLsVisited int
	Failures    []*FetchError
}

// FailedURLs lists the URLs whose fetch failed, in failure order.
func (r Result) FailedURLs() []string {
	out := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.URL)
	}
	return out
}

// FetchError reports a page-parsing failure for a single URL.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
