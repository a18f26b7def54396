// Package collyparser implements crawler.PageParser using gocolly.
package collyparser

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/wordcount-crawler/internal/crawler"
	"github.com/JakeFAU/wordcount-crawler/internal/parser"
)

const (
	defaultUserAgent = "wordcount-crawler/1.0"
	defaultTimeout   = 15 * time.Second
)

// Config controls collector behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	IgnoredWords []*regexp.Regexp
}

// Parser fetches pages with a Colly collector and extracts body text and
// links. It is safe for concurrent use; every Parse call runs on its own clone
// of the base collector.
type Parser struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

type collectorHooks interface {
	OnHTML(string, colly.HTMLCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Parser.
func New(cfg Config, logger *zap.Logger) *Parser {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := colly.NewCollector(
		colly.Async(false),
		colly.UserAgent(cfg.UserAgent),
	)
	// Deduplication belongs to the crawl engine; clones share the visited
	// store, so colly's own check has to stay off.
	c.AllowURLRevisit = true
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)

	return &Parser{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger,
	}
}

// pageCapture accumulates what the hooks of one Parse call observe.
type pageCapture struct {
	text     strings.Builder
	links    []string
	seen     map[string]struct{}
	fetchErr error
}

// Parse implements crawler.PageParser.
func (p *Parser) Parse(ctx context.Context, rawURL string) (crawler.PageResult, error) {
	collector := p.baseCollector.Clone()
	collector.Context = ctx

	capture := &pageCapture{seen: make(map[string]struct{})}
	p.configureCollectorHooks(collector, capture)

	if err := p.runCollector(ctx, collector, rawURL, capture); err != nil {
		return crawler.PageResult{}, &crawler.FetchError{URL: rawURL, Err: err}
	}

	return crawler.PageResult{
		WordCounts: parser.CountWords(capture.text.String(), p.cfg.IgnoredWords),
		Links:      capture.links,
	}, nil
}

func (p *Parser) configureCollectorHooks(hooks collectorHooks, capture *pageCapture) {
	hooks.OnHTML("body", func(e *colly.HTMLElement) {
		appendVisibleText(&capture.text, e.DOM)
	})

	hooks.OnHTML("a[href]", func(e *colly.HTMLElement) {
		link := e.Request.AbsoluteURL(e.Attr("href"))
		if link == "" {
			return
		}
		normalized, err := NormalizeURL(link)
		if err != nil {
			p.logger.Debug("dropping link", zap.String("href", link), zap.Error(err))
			return
		}
		if _, dup := capture.seen[normalized]; dup {
			return
		}
		capture.seen[normalized] = struct{}{}
		capture.links = append(capture.links, normalized)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		if r != nil && r.StatusCode != 0 {
			err = fmt.Errorf("status %d: %w", r.StatusCode, err)
		}
		capture.fetchErr = err
	})
}

// hiddenTags hold text that is never rendered as page content.
var hiddenTags = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
}

// appendVisibleText writes every text node under sel to b, each followed by a
// space so words in adjacent elements stay apart.
func appendVisibleText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		name := goquery.NodeName(node)
		switch {
		case name == "#text":
			b.WriteString(node.Text())
			b.WriteByte(' ')
		case strings.HasPrefix(name, "#"):
			// comments and doctype
		default:
			if _, hidden := hiddenTags[name]; !hidden {
				appendVisibleText(b, node)
			}
		}
	})
}

func (p *Parser) runCollector(ctx context.Context, collector *colly.Collector, url string, capture *pageCapture) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if capture.fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", capture.fetchErr)
		}
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
