package crawler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/JakeFAU/wordcount-crawler/internal/clock/system"
	"github.com/JakeFAU/wordcount-crawler/internal/id/uuid"
	"github.com/JakeFAU/wordcount-crawler/internal/metrics"
)

// ErrInvalidRequest is returned, wrapped, for requests rejected before any
// traversal starts.
var ErrInvalidRequest = errors.New("invalid crawl request")

// Engine runs crawl invocations. One Engine may run many crawls, concurrently
// or not; each crawl gets its own State.
type Engine struct {
	parser      PageParser
	clock       Clock
	ids         IDGenerator
	parallelism int
	logger      *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for deadline checks.
func WithClock(clock Clock) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithParallelism bounds how many fetches run at once. Values <= 0 keep the
// default of runtime.NumCPU().
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithIDGenerator sets the generator for crawl IDs.
func WithIDGenerator(ids IDGenerator) Option {
	return func(e *Engine) {
		if ids != nil {
			e.ids = ids
		}
	}
}

// NewEngine builds an Engine around parser.
func NewEngine(parser PageParser, opts ...Option) *Engine {
	e := &Engine{
		parser:      parser,
		clock:       system.New(),
		ids:         uuid.NewUUIDGenerator(),
		parallelism: runtime.NumCPU(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Crawl visits every page reachable from req.SeedURLs within req.MaxDepth
// hops before req.Deadline and returns the summed word counts. Invalid
// requests fail before any page is fetched. When ctx is canceled the partial
// result is returned together with the context error.
func (e *Engine) Crawl(ctx context.Context, req Request) (Result, error) {
	env, err := e.prepare(req)
	if err != nil {
		return Result{}, err
	}

	crawlID, err := e.ids.NewID()
	if err != nil {
		return Result{}, fmt.Errorf("crawl id: %w", err)
	}
	env.logger = e.logger.With(zap.String("crawl_id", crawlID))

	start := e.clock.Now()
	env.logger.Info("crawl started",
		zap.Int("seeds", len(req.SeedURLs)),
		zap.Int("max_depth", req.MaxDepth),
		zap.Time("deadline", req.Deadline),
		zap.Int("parallelism", e.parallelism),
	)

	failures := make([][]*FetchError, len(req.SeedURLs))
	var wg sync.WaitGroup
	wg.Add(len(req.SeedURLs))
	for i, seed := range req.SeedURLs {
		root := traversal{url: seed, depth: req.MaxDepth, env: env}
		go func() {
			defer wg.Done()
			failures[i] = root.run(ctx)
		}()
	}
	wg.Wait()

	result := Result{
		ID:          crawlID,
		WordCounts:  env.state.Snapshot(),
		URLsVisited: env.state.VisitedCount(),
		Failures:    flatten(failures),
	}

	status := "succeeded"
	if ctx.Err() != nil {
		status = "canceled"
	}
	elapsed := e.clock.Now().Sub(start)
	metrics.ObserveCrawl(status, elapsed)
	env.logger.Info("crawl finished",
		zap.String("status", status),
		zap.Int("urls_visited", result.URLsVisited),
		zap.Int("distinct_words", len(result.WordCounts)),
		zap.Int("failures", len(result.Failures)),
		zap.Duration("elapsed", elapsed),
	)

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("crawl %s interrupted: %w", crawlID, err)
	}
	return result, nil
}

func (e *Engine) prepare(req Request) (*crawlEnv, error) {
	if e.parser == nil {
		return nil, fmt.Errorf("%w: page parser is required", ErrInvalidRequest)
	}
	if req.MaxDepth < 0 {
		return nil, fmt.Errorf("%w: max depth must be >= 0, got %d", ErrInvalidRequest, req.MaxDepth)
	}
	if req.Deadline.IsZero() {
		return nil, fmt.Errorf("%w: deadline is required", ErrInvalidRequest)
	}
	ignore, err := CompileIgnorePatterns(req.IgnorePatterns)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return &crawlEnv{
		deadline: req.Deadline,
		ignore:   ignore,
		state:    NewState(),
		parser:   e.parser,
		clock:    e.clock,
		slots:    semaphore.NewWeighted(int64(e.parallelism)),
		logger:   e.logger,
	}, nil
}
