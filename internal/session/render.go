package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shaileshms05/learnXAI/internal/metrics"
)

// MinRenderedLength is the smallest markup accepted from a partial render.
const MinRenderedLength = 1000

const (
	navigationAttempts  = 2
	navigationRetryWait = 2 * time.Second
	maxReadyWait        = 10 * time.Second
	maxSelectorWait     = 15 * time.Second
	settleWait          = 3 * time.Second
	scrollWait          = time.Second
)

// ErrRenderDisabled is returned when no driver factory was configured.
var ErrRenderDisabled = errors.New("headless rendering is disabled")

// ScrollPosition selects the scroll target used to trigger lazy content.
type ScrollPosition int

// Scroll targets.
const (
	ScrollTop ScrollPosition = iota
	ScrollBottom
)

// Driver is the minimal browser surface FetchRendered needs. Implementations
// are single-tab and are not safe for concurrent use.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	WaitReady(ctx context.Context) error
	WaitVisible(ctx context.Context, selector string) error
	Scroll(ctx context.Context, pos ScrollPosition) error
	HTML(ctx context.Context) (string, error)
	Close() error
}

// DriverFactory creates a Driver on first use.
type DriverFactory func(ctx context.Context) (Driver, error)

// RenderOptions tunes one rendered fetch.
type RenderOptions struct {
	// ReadySelectors are tried one at a time; the first visible one ends the wait.
	ReadySelectors []string
	// Timeout is the page-load budget; zero uses the session default.
	Timeout time.Duration
}

// FetchRendered drives the headless browser to rawURL and returns the
// rendered markup. Waits that time out are tolerated as long as the markup
// reaches MinRenderedLength. One relaxed retry without selectors is made
// before returning *RenderError.
func (s *Session) FetchRendered(ctx context.Context, rawURL string, opts RenderOptions) (Document, error) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.cfg.RenderTimeout
	}
	driver, err := s.driverLocked(ctx)
	if err != nil {
		return Document{}, &RenderError{URL: rawURL, Err: err}
	}

	start := time.Now()
	html, firstErr := s.render(ctx, driver, rawURL, opts.ReadySelectors, timeout)
	if firstErr == nil {
		return renderedDocument(rawURL, html, start), nil
	}
	if ctx.Err() != nil {
		return Document{}, &RenderError{URL: rawURL, Err: ctx.Err()}
	}
	s.logger.Info("render produced no usable markup, retrying with relaxed wait",
		zap.String("url", rawURL),
		zap.Error(firstErr),
	)
	html, retryErr := s.render(ctx, driver, rawURL, nil, timeout*3/4)
	if retryErr == nil {
		return renderedDocument(rawURL, html, start), nil
	}
	return Document{}, &RenderError{URL: rawURL, Err: errors.Join(firstErr, retryErr)}
}

func (s *Session) driverLocked(ctx context.Context) (Driver, error) {
	if s.closed {
		return nil, errors.New("session closed")
	}
	if s.driver != nil {
		return s.driver, nil
	}
	if s.cfg.DriverFactory == nil {
		return nil, ErrRenderDisabled
	}
	driver, err := s.cfg.DriverFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("create browser driver: %w", err)
	}
	s.driver = driver
	return driver, nil
}

func (s *Session) render(
	ctx context.Context,
	driver Driver,
	rawURL string,
	selectors []string,
	timeout time.Duration,
) (string, error) {
	if err := s.navigate(ctx, driver, rawURL, timeout); err != nil {
		html, htmlErr := driver.HTML(ctx)
		if htmlErr == nil && len(html) >= MinRenderedLength {
			metrics.ObserveRenderSalvage()
			s.logger.Warn("page load failed, salvaging partial markup",
				zap.String("url", rawURL),
				zap.Int("bytes", len(html)),
				zap.Error(err),
			)
			return html, nil
		}
		return "", err
	}

	readyCtx, cancel := context.WithTimeout(ctx, minDuration(maxReadyWait, timeout/3))
	if err := driver.WaitReady(readyCtx); err != nil {
		s.logger.Debug("document ready wait expired", zap.String("url", rawURL), zap.Error(err))
	}
	cancel()

	for _, selector := range selectors {
		selCtx, cancel := context.WithTimeout(ctx, minDuration(maxSelectorWait, timeout/2))
		err := driver.WaitVisible(selCtx, selector)
		cancel()
		if err == nil {
			s.logger.Debug("ready selector matched", zap.String("url", rawURL), zap.String("selector", selector))
			break
		}
	}

	if err := s.triggerLazyContent(ctx, driver); err != nil {
		return "", err
	}

	html, err := driver.HTML(ctx)
	if err != nil {
		return "", fmt.Errorf("read rendered markup: %w", err)
	}
	if len(html) < MinRenderedLength {
		return "", fmt.Errorf("%w: %d bytes", ErrInsufficientMarkup, len(html))
	}
	return html, nil
}

func (s *Session) navigate(ctx context.Context, driver Driver, rawURL string, timeout time.Duration) error {
	var err error
	for attempt := 1; attempt <= navigationAttempts; attempt++ {
		navCtx, cancel := context.WithTimeout(ctx, timeout)
		err = driver.Navigate(navCtx, rawURL)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || attempt == navigationAttempts {
			break
		}
		s.logger.Debug("navigation failed, retrying",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if sleepErr := s.sleep(ctx, navigationRetryWait); sleepErr != nil {
			return sleepErr
		}
	}
	return fmt.Errorf("navigate: %w", err)
}

// triggerLazyContent settles the page then scrolls down and back up.
func (s *Session) triggerLazyContent(ctx context.Context, driver Driver) error {
	if err := s.sleep(ctx, settleWait); err != nil {
		return err
	}
	if err := driver.Scroll(ctx, ScrollBottom); err != nil {
		s.logger.Debug("scroll to bottom failed", zap.Error(err))
	}
	if err := s.sleep(ctx, scrollWait); err != nil {
		return err
	}
	if err := driver.Scroll(ctx, ScrollTop); err != nil {
		s.logger.Debug("scroll to top failed", zap.Error(err))
	}
	return s.sleep(ctx, scrollWait)
}

func renderedDocument(rawURL, html string, start time.Time) Document {
	return Document{
		URL:        rawURL,
		FinalURL:   rawURL,
		StatusCode: 200,
		Body:       []byte(html),
		Duration:   time.Since(start),
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if b <= 0 || a < b {
		return a
	}
	return b
}
