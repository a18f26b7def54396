package crawler

import (
	"context"
	"errors"
	"sync"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// steppingClock returns its current time and then moves it forward by step.
type steppingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

type fakeIDGen struct{}

func (fakeIDGen) NewID() (string, error) {
	return "crawl-test", nil
}

var errPageMissing = errors.New("page missing")

// fakeParser serves a fixed link graph and records every Parse call.
type fakeParser struct {
	pages  map[string]PageResult
	errs   map[string]error
	delay  time.Duration
	onCall func(url string)

	mu       sync.Mutex
	calls    map[string]int
	inFlight int
	maxPar   int
}

func newFakeParser(pages map[string]PageResult) *fakeParser {
	return &fakeParser{
		pages: pages,
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (p *fakeParser) Parse(_ context.Context, url string) (PageResult, error) {
	p.mu.Lock()
	p.calls[url]++
	p.inFlight++
	if p.inFlight > p.maxPar {
		p.maxPar = p.inFlight
	}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	if p.onCall != nil {
		p.onCall(url)
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if err, ok := p.errs[url]; ok {
		return PageResult{}, err
	}
	page, ok := p.pages[url]
	if !ok {
		return PageResult{}, &FetchError{URL: url, Err: errPageMissing}
	}
	return page, nil
}

func (p *fakeParser) Calls(url string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[url]
}

func (p *fakeParser) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, n := range p.calls {
		total += n
	}
	return total
}

func (p *fakeParser) MaxParallel() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxPar
}
