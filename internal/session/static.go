package session

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// blockScanLimit bounds how much of a body is inspected for challenge markers.
const blockScanLimit = 1000

var challengeMarkers = [][]byte{
	[]byte("unusual"),
	[]byte("are you a robot"),
	[]byte("verify you are human"),
}

// StaticOptions tunes a single static or feed request.
type StaticOptions struct {
	// Headers are merged over the browser header set.
	Headers http.Header
	// Timeout overrides the session default when positive.
	Timeout time.Duration
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// FetchStatic issues a GET and returns the body of any 2xx response.
// It returns *BlockedError for bot challenges and *HTTPError for other
// non-2xx or empty responses. Transient failures are retried.
func (s *Session) FetchStatic(ctx context.Context, rawURL string, opts StaticOptions) (Document, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = s.cfg.StaticTimeout
	}
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := s.limiter.Wait(ctx, rawURL); err != nil {
			return Document{}, err
		}
		doc, err := s.fetchOnce(ctx, rawURL, opts)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if !s.cfg.Retry.ShouldRetry(err, attempt+1) {
			break
		}
		backoff := s.cfg.Retry.Backoff(attempt)
		s.logger.Debug("retrying static fetch",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		if err := s.sleep(ctx, backoff); err != nil {
			return Document{}, err
		}
	}
	return Document{}, lastErr
}

func (s *Session) fetchOnce(ctx context.Context, rawURL string, opts StaticOptions) (Document, error) {
	var (
		doc      Document
		fetchErr error
	)
	start := time.Now()
	collector := s.base.Clone()
	collector.AllowURLRevisit = true
	collector.ParseHTTPErrorResponse = true
	collector.IgnoreRobotsTxt = !s.cfg.RespectRobots
	collector.UserAgent = s.cfg.UserAgent
	collector.SetRequestTimeout(opts.Timeout)
	s.configureCollectorHooks(collector, opts.Headers, start, &doc, &fetchErr)

	reqCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := runCollector(reqCtx, collector, rawURL, &fetchErr); err != nil {
		return Document{}, err
	}
	doc.URL = rawURL
	return doc, classifyResponse(doc)
}

func (s *Session) configureCollectorHooks(
	hooks collectorHooks,
	extra http.Header,
	start time.Time,
	doc *Document,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		for key, values := range browserHeaders() {
			r.Headers.Set(key, values[0])
		}
		for key, values := range extra {
			r.Headers.Del(key)
			for _, v := range values {
				r.Headers.Add(key, v)
			}
		}
	})

	hooks.OnResponse(func(r *colly.Response) {
		*doc = Document{
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			*doc = Document{
				StatusCode: r.StatusCode,
				Body:       append([]byte(nil), r.Body...),
				Duration:   time.Since(start),
			}
			if r.Request != nil && r.Request.URL != nil {
				doc.FinalURL = r.Request.URL.String()
			}
		}
		*fetchErr = err
	})
}

func runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("static fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("static visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("static response failed: %w", *fetchErr)
		}
		return nil
	}
}

// classifyResponse maps a completed response onto the session error taxonomy.
func classifyResponse(doc Document) error {
	if reason, blocked := detectChallenge(doc.FinalURL, doc.Body); blocked {
		return &BlockedError{URL: doc.URL, Reason: reason}
	}
	if doc.StatusCode < 200 || doc.StatusCode >= 300 {
		return &HTTPError{URL: doc.URL, Status: doc.StatusCode}
	}
	if len(bytes.TrimSpace(doc.Body)) == 0 {
		return &HTTPError{URL: doc.URL}
	}
	return nil
}

func detectChallenge(finalURL string, body []byte) (string, bool) {
	if strings.Contains(strings.ToLower(finalURL), "captcha") {
		return "redirected to captcha", true
	}
	head := body
	if len(head) > blockScanLimit {
		head = head[:blockScanLimit]
	}
	head = bytes.ToLower(head)
	for _, marker := range challengeMarkers {
		if bytes.Contains(head, marker) {
			return fmt.Sprintf("challenge marker %q", marker), true
		}
	}
	return "", false
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
