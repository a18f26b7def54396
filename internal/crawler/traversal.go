package crawler

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/JakeFAU/wordcount-crawler/internal/metrics"
)

// crawlEnv is shared, read-only, by every traversal of one crawl. Only state
// is mutated, and only through its own methods.
type crawlEnv struct {
	deadline time.Time
	ignore   []*regexp.Regexp
	state    *State
	parser   PageParser
	clock    Clock
	slots    *semaphore.Weighted
	logger   *zap.Logger
}

// traversal is one node of the crawl recursion. Its fields are fixed at
// construction.
type traversal struct {
	url   string
	depth int
	env   *crawlEnv
}

// run processes t.url and every link reachable from it within the remaining
// depth, returning once all descendants have finished. Fetch failures from the
// whole subtree are returned; they never stop sibling branches.
func (t traversal) run(ctx context.Context) []*FetchError {
	if outcome, skip := t.precheck(); skip {
		t.skip(outcome)
		return nil
	}

	page, outcome, err := t.fetch(ctx)
	switch {
	case err != nil:
		metrics.ObserveTraversal(metrics.OutcomeFailed)
		t.env.logger.Warn("fetch failed", zap.String("url", t.url), zap.Error(err))
		return []*FetchError{err}
	case outcome != metrics.OutcomeProcessed:
		t.skip(outcome)
		return nil
	}

	t.env.state.MergeWordCounts(page.WordCounts)
	metrics.ObserveWordsMerged(page.WordCounts)
	metrics.ObserveTraversal(metrics.OutcomeProcessed)
	t.env.logger.Debug("page processed",
		zap.String("url", t.url),
		zap.Int("depth", t.depth),
		zap.Int("words", len(page.WordCounts)),
		zap.Int("links", len(page.Links)),
	)

	return t.fork(ctx, page.Links)
}

func (t traversal) precheck() (string, bool) {
	switch {
	case t.depth <= 0:
		return metrics.OutcomeDepth, true
	case t.expired():
		return metrics.OutcomeDeadline, true
	case matchesAny(t.env.ignore, t.url):
		return metrics.OutcomeIgnored, true
	case t.env.state.Visited(t.url):
		return metrics.OutcomeVisited, true
	}
	return "", false
}

// fetch waits for a fetch slot, admits t.url and calls the parser. Admission
// happens only once the slot is held and the crawl is still live, so every
// admitted URL is fetched. The slot is released before the caller forks, so a
// parent never holds one while joining.
func (t traversal) fetch(ctx context.Context) (PageResult, string, *FetchError) {
	if ctx.Err() != nil {
		return PageResult{}, metrics.OutcomeCanceled, nil
	}
	if err := t.env.slots.Acquire(ctx, 1); err != nil {
		return PageResult{}, metrics.OutcomeCanceled, nil
	}
	defer t.env.slots.Release(1)

	switch {
	case ctx.Err() != nil:
		return PageResult{}, metrics.OutcomeCanceled, nil
	case t.expired():
		// Queueing for a slot may have carried us past the deadline.
		return PageResult{}, metrics.OutcomeDeadline, nil
	case !t.env.state.TryVisit(t.url):
		return PageResult{}, metrics.OutcomeVisited, nil
	}

	page, err := t.env.parser.Parse(ctx, t.url)
	if err != nil {
		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			fetchErr = &FetchError{URL: t.url, Err: err}
		}
		return PageResult{}, metrics.OutcomeFailed, fetchErr
	}
	return page, metrics.OutcomeProcessed, nil
}

// fork runs one child per link concurrently and joins on all of them. Each
// child reports into its own slot so no state is shared between siblings.
func (t traversal) fork(ctx context.Context, links []string) []*FetchError {
	// Children at depth zero would return immediately.
	if len(links) == 0 || t.depth <= 1 {
		return nil
	}
	failures := make([][]*FetchError, len(links))
	var wg sync.WaitGroup
	wg.Add(len(links))
	for i, link := range links {
		child := traversal{url: link, depth: t.depth - 1, env: t.env}
		go func() {
			defer wg.Done()
			failures[i] = child.run(ctx)
		}()
	}
	wg.Wait()
	return flatten(failures)
}

// expired reports whether the deadline has been reached. A deadline equal to
// the current time counts as reached.
func (t traversal) expired() bool {
	return !t.env.clock.Now().Before(t.env.deadline)
}

func (t traversal) skip(outcome string) {
	metrics.ObserveTraversal(outcome)
	t.env.logger.Debug("traversal skipped",
		zap.String("url", t.url),
		zap.Int("depth", t.depth),
		zap.String("reason", outcome),
	)
}

func flatten(groups [][]*FetchError) []*FetchError {
	var out []*FetchError
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
