package crawler

import (
	"context"
	"time"
)

// PageParser fetches a URL and returns its word counts and outbound links.
// Failures should be reported as *FetchError.
type PageParser interface {
	Parse(ctx context.Context, url string) (PageResult, error)
}

// Crawler runs a complete crawl invocation.
type Crawler interface {
	Crawl(ctx context.Context, req Request) (Result, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces crawl IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
