package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/wordcount-crawler/internal/clock/system"
	"github.com/JakeFAU/wordcount-crawler/internal/config"
	"github.com/JakeFAU/wordcount-crawler/internal/crawler"
	"github.com/JakeFAU/wordcount-crawler/internal/parser"
	collyparser "github.com/JakeFAU/wordcount-crawler/internal/parser/colly"
	"github.com/JakeFAU/wordcount-crawler/internal/profiler"
	"github.com/JakeFAU/wordcount-crawler/internal/result"
)

// newCrawlCmd creates the 'crawl' subcommand, which runs one crawl from the
// configured start pages and writes the result and profile.
func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Runs a single crawl",
		Long: `Crawls from crawler.start_pages until crawler.max_depth or
crawler.timeout_seconds is reached, then writes the popular word counts to
crawler.result_path and the method timings to crawler.profile_output_path.
Either path may be empty to write to stdout.`,
		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	env, err := resolveEnv(cmd.Context())
	if err != nil {
		return err
	}
	cfg := env.cfg
	if err := cfg.ValidateCrawl(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	clock := system.New()
	prof := profiler.New(clock)
	pageParser, err := buildPageParser(cfg, env.logger)
	if err != nil {
		return err
	}
	engine := crawler.NewEngine(
		prof.WrapParser(pageParser),
		crawler.WithClock(clock),
		crawler.WithParallelism(cfg.Crawler.Parallelism),
		crawler.WithLogger(env.logger.Named("crawler")),
	)

	res, err := prof.WrapCrawler(engine).Crawl(cmd.Context(), cfg.CrawlRequest(clock.Now()))
	switch {
	case errors.Is(err, context.Canceled):
		env.logger.Warn("crawl interrupted; writing partial result", zap.Error(err))
	case err != nil:
		return fmt.Errorf("run crawl: %w", err)
	}

	return writeOutputs(cmd.OutOrStdout(), cfg.Crawler, result.FromCrawl(res, cfg.Crawler.PopularWordCount), prof)
}

func buildPageParser(cfg config.Config, logger *zap.Logger) (*collyparser.Parser, error) {
	ignoredWords, err := parser.CompileIgnoredWords(cfg.Crawler.IgnoredWords)
	if err != nil {
		return nil, fmt.Errorf("init parser: %w", err)
	}
	return collyparser.New(collyparser.Config{
		UserAgent:    cfg.Crawler.UserAgent,
		Timeout:      cfg.Crawler.RequestTimeout,
		IgnoredWords: ignoredWords,
	}, logger.Named("parser")), nil
}

// writeOutputs writes the result and then the profile. The result replaces
// its file and the profile appends, so both may share one path.
func writeOutputs(stdout io.Writer, cfg config.CrawlerConfig, res result.CrawlResult, prof *profiler.Profiler) error {
	if cfg.ResultPath == "" {
		if err := result.Write(stdout, res); err != nil {
			return err
		}
	} else if err := result.WriteFile(cfg.ResultPath, res); err != nil {
		return err
	}

	if cfg.ProfileOutputPath == "" {
		return prof.WriteData(stdout)
	}
	return prof.WriteFile(cfg.ProfileOutputPath)
}
