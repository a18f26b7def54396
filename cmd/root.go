// Package cmd defines and implements the CLI commands for the wordcrawler executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/wordcount-crawler/internal/config"
	"github.com/JakeFAU/wordcount-crawler/internal/logging"
)

// envKey is the context key for the loaded appEnv.
type envKey struct{}

// appEnv is what PersistentPreRunE hands to every subcommand.
type appEnv struct {
	cfg    config.Config
	logger *zap.Logger
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "wordcrawler",
		Short: "A parallel web crawler that counts words.",
		Long: `wordcrawler follows links from a set of start pages, bounded by a
maximum depth and a wall-clock timeout, and reports the most popular words
across every page it visited.`,
		SilenceUsage: true,

		// Loads config and builds the logger before any subcommand runs.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(logging.Config{
				Development: cfg.Logging.Development,
				Level:       cfg.Logging.Level,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), envKey{}, &appEnv{cfg: cfg, logger: logger})
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if env, ok := cmd.Context().Value(envKey{}).(*appEnv); ok && env != nil {
				_ = env.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (JSON or YAML)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

func resolveEnv(ctx context.Context) (*appEnv, error) {
	env, ok := ctx.Value(envKey{}).(*appEnv)
	if !ok || env == nil {
		return nil, errors.New("application environment not initialized")
	}
	return env, nil
}

// Execute is the main entry point. SIGINT and SIGTERM cancel the command's
// context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "wordcrawler: %v\n", err)
		stop()
		os.Exit(1)
	}
}
