// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/wordcount-crawler/internal/crawler"
	"github.com/JakeFAU/wordcount-crawler/internal/parser"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CrawlerConfig governs a crawl and where its output goes.
type CrawlerConfig struct {
	StartPages        []string      `mapstructure:"start_pages"`
	IgnoredURLs       []string      `mapstructure:"ignored_urls"`
	IgnoredWords      []string      `mapstructure:"ignored_words"`
	Parallelism       int           `mapstructure:"parallelism"`
	MaxDepth          int           `mapstructure:"max_depth"`
	TimeoutSeconds    int           `mapstructure:"timeout_seconds"`
	PopularWordCount  int           `mapstructure:"popular_word_count"`
	ResultPath        string        `mapstructure:"result_path"`
	ProfileOutputPath string        `mapstructure:"profile_output_path"`
	UserAgent         string        `mapstructure:"user_agent"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	// Unknown keys are rejected so a misspelled or camelCase key fails
	// instead of silently falling back to defaults.
	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawler.start_pages", []string{})
	v.SetDefault("crawler.ignored_urls", []string{})
	v.SetDefault("crawler.ignored_words", []string{})
	v.SetDefault("crawler.parallelism", 0)
	v.SetDefault("crawler.max_depth", 2)
	v.SetDefault("crawler.timeout_seconds", 60)
	v.SetDefault("crawler.popular_word_count", 100)
	v.SetDefault("crawler.result_path", "")
	v.SetDefault("crawler.profile_output_path", "")
	v.SetDefault("crawler.user_agent", "wordcount-crawler/1.0")
	v.SetDefault("crawler.request_timeout", 15*time.Second)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits. Start pages are
// not required here because the HTTP server takes them per request.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.Parallelism < 0 {
		return fmt.Errorf("crawler.parallelism must be >= 0")
	}
	if c.Crawler.MaxDepth < 0 {
		return fmt.Errorf("crawler.max_depth must be >= 0")
	}
	if c.Crawler.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.timeout_seconds must be > 0")
	}
	if c.Crawler.PopularWordCount < 0 {
		return fmt.Errorf("crawler.popular_word_count must be >= 0")
	}
	if c.Crawler.RequestTimeout < 0 {
		return fmt.Errorf("crawler.request_timeout must be >= 0")
	}
	if _, err := crawler.CompileIgnorePatterns(c.Crawler.IgnoredURLs); err != nil {
		return fmt.Errorf("crawler.ignored_urls: %w", err)
	}
	if _, err := parser.CompileIgnoredWords(c.Crawler.IgnoredWords); err != nil {
		return fmt.Errorf("crawler.ignored_words: %w", err)
	}
	return nil
}

// ValidateCrawl checks the extra requirements of a one-shot crawl run.
func (c Config) ValidateCrawl() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Crawler.StartPages) == 0 {
		return fmt.Errorf("crawler.start_pages must not be empty")
	}
	return nil
}

// Timeout converts crawler.timeout_seconds into a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Crawler.TimeoutSeconds) * time.Second
}

// CrawlRequest builds the engine request for a crawl starting at now.
func (c Config) CrawlRequest(now time.Time) crawler.Request {
	return crawler.Request{
		SeedURLs:       append([]string(nil), c.Crawler.StartPages...),
		MaxDepth:       c.Crawler.MaxDepth,
		Deadline:       now.Add(c.Timeout()),
		IgnorePatterns: append([]string(nil), c.Crawler.IgnoredURLs...),
	}
}
