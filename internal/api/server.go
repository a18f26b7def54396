package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/wordcount-crawler/internal/config"
	"github.com/JakeFAU/wordcount-crawler/internal/crawler"
	"github.com/JakeFAU/wordcount-crawler/internal/metrics"
	"github.com/JakeFAU/wordcount-crawler/internal/result"
)

// requestGrace is added to the crawl timeout so in-flight fetches can finish
// and the response can be written before the handler times out.
const requestGrace = 30 * time.Second

// Server wires HTTP handlers to the crawl engine.
type Server struct {
	router  chi.Router
	crawler crawler.Crawler
	clock   crawler.Clock
	cfg     config.Config
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes. cfg supplies the
// per-request defaults; its crawler.timeout_seconds is also the longest crawl
// a request may ask for.
func NewServer(
	c crawler.Crawler,
	clock crawler.Clock,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		crawler: c,
		clock:   clock,
		cfg:     cfg,
		logger:  logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(cfg.Timeout() + requestGrace))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/crawls", s.runCrawl)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type crawlRequest struct {
	StartPages       []string `json:"start_pages"`
	MaxDepth         *int     `json:"max_depth"`
	TimeoutSeconds   *int     `json:"timeout_seconds"`
	IgnoredURLs      []string `json:"ignored_urls"`
	PopularWordCount *int     `json:"popular_word_count"`
}

type crawlResponse struct {
	CrawlID     string            `json:"crawl_id"`
	WordCounts  result.WordCounts `json:"wordCounts"`
	URLsVisited int               `json:"urlsVisited"`
	FailedURLs  []string          `json:"failedUrls"`
}

func (s *Server) runCrawl(w http.ResponseWriter, r *http.Request) {
	var body crawlRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req, popular, err := s.toCrawlRequest(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.crawler.Crawl(r.Context(), req)
	switch {
	case errors.Is(err, crawler.ErrInvalidRequest):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, crawlResponse{
		CrawlID:     res.ID,
		WordCounts:  result.Sort(res.WordCounts, popular),
		URLsVisited: res.URLsVisited,
		FailedURLs:  res.FailedURLs(),
	})
}

func (s *Server) toCrawlRequest(body crawlRequest) (crawler.Request, int, error) {
	if len(body.StartPages) == 0 {
		return crawler.Request{}, 0, errors.New("start_pages required")
	}
	limit := s.cfg.Crawler.TimeoutSeconds
	timeout := valueOrDefault(body.TimeoutSeconds, limit)
	if timeout <= 0 || timeout > limit {
		return crawler.Request{}, 0, fmt.Errorf("timeout_seconds must be between 1 and %d", limit)
	}
	popular := valueOrDefault(body.PopularWordCount, s.cfg.Crawler.PopularWordCount)
	if popular < 0 {
		return crawler.Request{}, 0, errors.New("popular_word_count must be >= 0")
	}
	ignored := body.IgnoredURLs
	if ignored == nil {
		ignored = s.cfg.Crawler.IgnoredURLs
	}
	return crawler.Request{
		SeedURLs:       body.StartPages,
		MaxDepth:       valueOrDefault(body.MaxDepth, s.cfg.Crawler.MaxDepth),
		Deadline:       s.clock.Now().Add(time.Duration(timeout) * time.Second),
		IgnorePatterns: ignored,
	}, popular, nil
}

func valueOrDefault[T any](ptr *T, def T) T {
	if ptr == nil {
		return def
	}
	return *ptr
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("request_id", requestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						zap.String("request_id", requestID(r.Context())),
						zap.Any("error", rec),
					)
					writeJSON(logger, w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

type requestIDKey struct{}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	writeJSON(s.logger, w, status, payload)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(logger *zap.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}
