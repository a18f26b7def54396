package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/wordcount-crawler/internal/api"
	"github.com/JakeFAU/wordcount-crawler/internal/clock/system"
	"github.com/JakeFAU/wordcount-crawler/internal/crawler"
	"github.com/JakeFAU/wordcount-crawler/internal/metrics"
	"github.com/JakeFAU/wordcount-crawler/internal/profiler"
)

const shutdownTimeout = 10 * time.Second

// newServeCmd creates the 'serve' subcommand, which exposes crawls over HTTP.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Starts the HTTP API",
		Long: `Serves POST /v1/crawls, /healthz and /metrics on server.port. Crawl
settings from the config file act as request defaults.`,
		RunE: runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	env, err := resolveEnv(cmd.Context())
	if err != nil {
		return err
	}
	cfg := env.cfg
	logger := env.logger
	metrics.Init()

	clock := system.New()
	pageParser, err := buildPageParser(cfg, logger)
	if err != nil {
		return err
	}
	engine := crawler.NewEngine(
		profiler.New(clock).WrapParser(pageParser),
		crawler.WithClock(clock),
		crawler.WithParallelism(cfg.Crawler.Parallelism),
		crawler.WithLogger(logger.Named("crawler")),
	)
	apiServer := api.NewServer(engine, clock, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return serve(cmd.Context(), srv, logger)
}

// serve runs srv until ctx is canceled or the listener fails.
func serve(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
