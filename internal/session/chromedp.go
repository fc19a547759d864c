package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// ChromedpConfig controls the headless Chrome driver.
type ChromedpConfig struct {
	UserAgent    string
	ExecPath     string
	WindowWidth  int
	WindowHeight int
	Headers      http.Header
}

// ChromedpDriver implements Driver with a single chromedp tab.
type ChromedpDriver struct {
	allocCancel context.CancelFunc
	tab         context.Context
	tabCancel   context.CancelFunc
}

// NewChromedpFactory returns a DriverFactory that starts headless Chrome.
func NewChromedpFactory(cfg ChromedpConfig) DriverFactory {
	return func(ctx context.Context) (Driver, error) {
		return NewChromedpDriver(ctx, cfg)
	}
}

// NewChromedpDriver launches a browser and opens the tab used for every render.
func NewChromedpDriver(ctx context.Context, cfg ChromedpConfig) (*ChromedpDriver, error) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.WindowWidth <= 0 || cfg.WindowHeight <= 0 {
		cfg.WindowWidth, cfg.WindowHeight = 1920, 1080
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	// The browser outlives the request that triggered its creation.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	tab, tabCancel := chromedp.NewContext(allocCtx)

	d := &ChromedpDriver{allocCancel: allocCancel, tab: tab, tabCancel: tabCancel}
	if err := chromedp.Run(tab, setupAction(cfg)); err != nil {
		d.shutdown()
		return nil, fmt.Errorf("start headless browser: %w", err)
	}
	return d, nil
}

func setupAction(cfg ChromedpConfig) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if err := emulation.SetUserAgentOverride(cfg.UserAgent).Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		if len(cfg.Headers) > 0 {
			if err := network.SetExtraHTTPHeaders(toNetworkHeaders(cfg.Headers)).Do(ctx); err != nil {
				return fmt.Errorf("set extra headers: %w", err)
			}
		}
		return nil
	})
}

// Navigate loads url and waits for the load event.
func (d *ChromedpDriver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx, chromedp.Navigate(url))
}

// WaitReady polls document.readyState until it reports complete.
func (d *ChromedpDriver) WaitReady(ctx context.Context) error {
	var ready bool
	return d.run(ctx, chromedp.Poll(`document.readyState === "complete"`, &ready,
		chromedp.WithPollingInterval(200*time.Millisecond)))
}

// WaitVisible waits for selector to become visible.
func (d *ChromedpDriver) WaitVisible(ctx context.Context, selector string) error {
	return d.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// Scroll moves the viewport to the top or bottom of the page.
func (d *ChromedpDriver) Scroll(ctx context.Context, pos ScrollPosition) error {
	script := `window.scrollTo(0, 0)`
	if pos == ScrollBottom {
		script = `window.scrollTo(0, document.body.scrollHeight)`
	}
	return d.run(ctx, chromedp.Evaluate(script, nil))
}

// HTML returns the outer HTML of the current document.
func (d *ChromedpDriver) HTML(ctx context.Context) (string, error) {
	var html string
	if err := d.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Close shuts the tab and the browser process.
func (d *ChromedpDriver) Close() error {
	d.shutdown()
	return nil
}

func (d *ChromedpDriver) shutdown() {
	d.tabCancel()
	d.allocCancel()
}

// run executes actions on the tab while honoring the caller's deadline and
// cancellation. Cancelling the derived context aborts the actions without
// closing the tab.
func (d *ChromedpDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(d.tab)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return fmt.Errorf("chromedp run: %w", err)
	}
	return nil
}

func toNetworkHeaders(h http.Header) network.Headers {
	headers := network.Headers{}
	for key, values := range h {
		if len(values) == 0 {
			continue
		}
		headers[key] = values[0]
	}
	return headers
}
