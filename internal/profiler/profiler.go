// Package profiler records how long crawler calls take. Components are wrapped
// in timing decorators; totals accumulate per method and are written out as a
// plain-text report after the run.
package profiler

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/JakeFAU/wordcount-crawler/internal/crawler"
	"github.com/JakeFAU/wordcount-crawler/internal/metrics"
)

// Profiler accumulates call durations keyed by "<type>#<method>".
type Profiler struct {
	clock     crawler.Clock
	startedAt time.Time

	mu        sync.Mutex
	durations map[string]time.Duration
}

// New returns a Profiler whose report is stamped with clock's current time.
func New(clock crawler.Clock) *Profiler {
	return &Profiler{
		clock:     clock,
		startedAt: clock.Now(),
		durations: make(map[string]time.Duration),
	}
}

// Record adds d to the running total for key.
func (p *Profiler) Record(key string, d time.Duration) {
	p.mu.Lock()
	p.durations[key] += d
	p.mu.Unlock()
	metrics.ObserveProfiledCall(key, d)
}

// Durations returns a copy of the totals recorded so far.
func (p *Profiler) Durations() map[string]time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]time.Duration, len(p.durations))
	for k, v := range p.durations {
		out[k] = v
	}
	return out
}

// measure starts a timer for key. The returned func stops it.
func (p *Profiler) measure(key string) func() {
	start := p.clock.Now()
	return func() {
		p.Record(key, p.clock.Now().Sub(start))
	}
}

// WrapParser times every Parse call of next, including failed ones.
func (p *Profiler) WrapParser(next crawler.PageParser) crawler.PageParser {
	return &profiledParser{next: next, key: fmt.Sprintf("%T#Parse", next), p: p}
}

// WrapCrawler times every Crawl call of next, including failed ones.
func (p *Profiler) WrapCrawler(next crawler.Crawler) crawler.Crawler {
	return &profiledCrawler{next: next, key: fmt.Sprintf("%T#Crawl", next), p: p}
}

type profiledParser struct {
	next crawler.PageParser
	key  string
	p    *Profiler
}

func (w *profiledParser) Parse(ctx context.Context, url string) (crawler.PageResult, error) {
	defer w.p.measure(w.key)()
	return w.next.Parse(ctx, url)
}

type profiledCrawler struct {
	next crawler.Crawler
	key  string
	p    *Profiler
}

func (w *profiledCrawler) Crawl(ctx context.Context, req crawler.Request) (crawler.Result, error) {
	defer w.p.measure(w.key)()
	return w.next.Crawl(ctx, req)
}

// WriteData writes the report: a "Run at" header, one line per method in key
// order and a trailing blank line.
func (p *Profiler) WriteData(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Run at %s\n", p.startedAt.Format(time.RFC1123)); err != nil {
		return fmt.Errorf("write profile header: %w", err)
	}
	durations := p.Durations()
	keys := make([]string, 0, len(durations))
	for k := range durations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s took %s\n", k, formatDuration(durations[k])); err != nil {
			return fmt.Errorf("write profile line: %w", err)
		}
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("write profile footer: %w", err)
	}
	return nil
}

// WriteFile appends the report to the file at path, creating it if needed.
func (p *Profiler) WriteFile(path string) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open profile output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close profile output: %w", cerr)
		}
	}()
	return p.WriteData(f)
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%dm %ds %dms",
		d/time.Minute,
		(d%time.Minute)/time.Second,
		(d%time.Second)/time.Millisecond,
	)
}
