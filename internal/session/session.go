// Package session owns outbound request identity for the harvester: the
// browser-like header set, a shared cookie jar, per-host pacing, retries and a
// lazily created headless-browser driver. Static, rendered and feed
// acquisition all go through a Session.
package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/shaileshms05/learnXAI/internal/policy/ratelimit"
)

// DefaultUserAgent mimics a current desktop Chrome build.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const (
	defaultStaticTimeout = 20 * time.Second
	defaultFeedTimeout   = 15 * time.Second
	defaultRenderTimeout = 30 * time.Second
)

// Config controls a Session.
type Config struct {
	UserAgent     string
	StaticTimeout time.Duration
	FeedTimeout   time.Duration
	RenderTimeout time.Duration
	RespectRobots bool
	PerHostRPS    float64
	PerHostBurst  int
	Retry         RetryPolicy
	// DriverFactory builds the headless driver on first rendered fetch. A nil
	// factory disables rendering.
	DriverFactory DriverFactory
	// Sleep waits between render steps and retries; nil uses a timer.
	Sleep  func(ctx context.Context, d time.Duration) error
	Logger *zap.Logger
}

// Document is a fetched page.
type Document struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Session is safe for concurrent static and feed fetches. Rendered fetches
// are serialized internally because the browser driver is single-tab.
type Session struct {
	cfg       Config
	base      *colly.Collector
	limiter   *ratelimit.Limiter
	logger    *zap.Logger
	sleepFunc func(ctx context.Context, d time.Duration) error

	renderMu sync.Mutex
	driver   Driver
	closed   bool
}

// New builds a Session.
func New(cfg Config) *Session {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.StaticTimeout <= 0 {
		cfg.StaticTimeout = defaultStaticTimeout
	}
	if cfg.FeedTimeout <= 0 {
		cfg.FeedTimeout = defaultFeedTimeout
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = defaultRenderTimeout
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	c := colly.NewCollector(colly.Async(false))
	c.AllowURLRevisit = true
	c.ParseHTTPErrorResponse = true
	c.IgnoreRobotsTxt = !cfg.RespectRobots
	c.UserAgent = cfg.UserAgent
	c.WithTransport(newHTTPTransport())

	return &Session{
		cfg:  cfg,
		base: c,
		limiter: ratelimit.New(ratelimit.Config{
			DefaultRPS:   cfg.PerHostRPS,
			DefaultBurst: cfg.PerHostBurst,
		}),
		logger:    logger,
		sleepFunc: sleep,
	}
}

// Close releases the browser driver, if one was created.
func (s *Session) Close() error {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	s.closed = true
	if s.driver == nil {
		return nil
	}
	err := s.driver.Close()
	s.driver = nil
	if err != nil {
		return fmt.Errorf("close browser driver: %w", err)
	}
	return nil
}

func (s *Session) sleep(ctx context.Context, d time.Duration) error {
	return s.sleepFunc(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("sleep interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// browserHeaders is the header set sent with every static request.
func browserHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("DNT", "1")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Cache-Control", "max-age=0")
	return h
}
