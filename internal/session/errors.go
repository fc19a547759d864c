package session

import (
	"errors"
	"fmt"
)

// ErrInsufficientMarkup reports a render whose markup is below the salvage threshold.
var ErrInsufficientMarkup = errors.New("rendered markup below minimum length")

// BlockedError signals that the target answered with a bot challenge.
type BlockedError struct {
	URL    string
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("blocked by %s: %s", e.URL, e.Reason)
}

// HTTPError reports a non-2xx or empty static response.
type HTTPError struct {
	URL    string
	Status int
}

func (e *HTTPError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("empty response from %s", e.URL)
	}
	return fmt.Sprintf("unexpected status %d from %s", e.Status, e.URL)
}

// RenderError reports that the headless browser produced no usable markup.
type RenderError struct {
	URL string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.URL, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// FeedError reports unparseable or non-feed content.
type FeedError struct {
	URL string
	Err error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("feed %s: %v", e.URL, e.Err)
}

func (e *FeedError) Unwrap() error { return e.Err }
