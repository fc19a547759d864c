package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeDriver struct {
	mu          sync.Mutex
	navErrs     []error
	visible     map[string]bool
	html        []string
	navigations int
	waited      []string
	scrolls     []ScrollPosition
	closed      bool
}

func (d *fakeDriver) Navigate(context.Context, string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.navigations++
	if len(d.navErrs) == 0 {
		return nil
	}
	err := d.navErrs[0]
	d.navErrs = d.navErrs[1:]
	return err
}

func (d *fakeDriver) WaitReady(context.Context) error { return nil }

func (d *fakeDriver) WaitVisible(_ context.Context, selector string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.waited = append(d.waited, selector)
	if d.visible[selector] {
		return nil
	}
	return context.DeadlineExceeded
}

func (d *fakeDriver) Scroll(_ context.Context, pos ScrollPosition) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scrolls = append(d.scrolls, pos)
	return nil
}

func (d *fakeDriver) HTML(context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.html) == 0 {
		return "", errors.New("no document")
	}
	out := d.html[0]
	if len(d.html) > 1 {
		d.html = d.html[1:]
	}
	return out, nil
}

func (d *fakeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func bigPage(marker string) string {
	return "<html><body>" + marker + strings.Repeat("<p>filler</p>", 120) + "</body></html>"
}

func factoryFor(d *fakeDriver, created *int) DriverFactory {
	return func(context.Context) (Driver, error) {
		*created++
		return d, nil
	}
}

func TestFetchRenderedCreatesDriverOnceAndScrolls(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{
		visible: map[string]bool{"div.card": true},
		html:    []string{bigPage("first"), bigPage("second")},
	}
	created := 0
	s := newTestSession(t, Config{DriverFactory: factoryFor(driver, &created)})

	doc, err := s.FetchRendered(context.Background(), "https://example.com/a", RenderOptions{
		ReadySelectors: []string{"div.missing", "div.card", "div.never"},
		Timeout:        time.Second,
	})
	require.NoError(t, err)
	require.Contains(t, string(doc.Body), "first")
	require.Equal(t, []string{"div.missing", "div.card"}, driver.waited)
	require.Equal(t, []ScrollPosition{ScrollBottom, ScrollTop}, driver.scrolls)

	_, err = s.FetchRendered(context.Background(), "https://example.com/b", RenderOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, created)
}

func TestFetchRenderedSalvagesPartialLoad(t *testing.T) {
	t.Parallel()

	timeout := context.DeadlineExceeded
	driver := &fakeDriver{
		navErrs: []error{timeout, timeout},
		html:    []string{bigPage("partial")},
	}
	created := 0
	s := newTestSession(t, Config{DriverFactory: factoryFor(driver, &created)})

	doc, err := s.FetchRendered(context.Background(), "https://example.com", RenderOptions{Timeout: time.Second})
	require.NoError(t, err)
	require.Contains(t, string(doc.Body), "partial")
	require.Equal(t, 2, driver.navigations)
}

func TestFetchRenderedRetriesWithRelaxedWait(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{
		html: []string{"<html>tiny</html>", bigPage("relaxed")},
	}
	created := 0
	s := newTestSession(t, Config{DriverFactory: factoryFor(driver, &created)})

	doc, err := s.FetchRendered(context.Background(), "https://example.com", RenderOptions{
		ReadySelectors: []string{"mat-card"},
		Timeout:        time.Second,
	})
	require.NoError(t, err)
	require.Contains(t, string(doc.Body), "relaxed")
	require.Equal(t, []string{"mat-card"}, driver.waited, "relaxed retry skips selectors")
	require.Equal(t, 2, driver.navigations)
}

func TestFetchRenderedReturnsRenderErrorWhenNothingUsable(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{html: []string{"<html></html>"}}
	created := 0
	s := newTestSession(t, Config{DriverFactory: factoryFor(driver, &created)})

	_, err := s.FetchRendered(context.Background(), "https://example.com", RenderOptions{Timeout: time.Second})
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	require.ErrorIs(t, err, ErrInsufficientMarkup)
}

func TestFetchRenderedWithoutFactory(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, Config{})
	_, err := s.FetchRendered(context.Background(), "https://example.com", RenderOptions{})
	require.ErrorIs(t, err, ErrRenderDisabled)
}

func TestCloseReleasesDriver(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{html: []string{bigPage("x")}}
	created := 0
	s := New(Config{
		DriverFactory: factoryFor(driver, &created),
		Sleep:         func(context.Context, time.Duration) error { return nil },
	})
	_, err := s.FetchRendered(context.Background(), "https://example.com", RenderOptions{})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.True(t, driver.closed)

	_, err = s.FetchRendered(context.Background(), "https://example.com", RenderOptions{})
	require.Error(t, err)
}
