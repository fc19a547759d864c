package fetchchain

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaileshms05/learnXAI/internal/session"
)

// ErrNoResults is returned by a Parser for pages that state the search
// matched nothing.
var ErrNoResults = errors.New("page reports no results")

// ExtractionEmpty reports a document that was fetched but held no candidates.
// NoResults is set when the page itself said so.
type ExtractionEmpty struct {
	Source    string
	Strategy  Strategy
	NoResults bool
}

func (e *ExtractionEmpty) Error() string {
	if e.NoResults {
		return fmt.Sprintf("%s: %s page reports no results", e.Source, e.Strategy)
	}
	return fmt.Sprintf("%s: %s document contained no listings", e.Source, e.Strategy)
}

// SourceUnavailable reports that every strategy of a source failed.
type SourceUnavailable struct {
	Source   string
	Attempts []Attempt
	Err      error
}

func (e *SourceUnavailable) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("source %s unavailable", e.Source)
	}
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailable) Unwrap() error { return e.Err }

// Error classes used as metric labels and diagnostics.
const (
	ClassBlocked     = "blocked"
	ClassHTTP        = "http"
	ClassRender      = "render"
	ClassFeed        = "feed"
	ClassEmpty       = "empty"
	ClassUnavailable = "unavailable"
	ClassCanceled    = "canceled"
	ClassUnknown     = "unknown"
)

// Classify maps an error to a short label.
func Classify(err error) string {
	var (
		unavailable *SourceUnavailable
		blocked     *session.BlockedError
		httpErr     *session.HTTPError
		renderErr   *session.RenderError
		feedErr     *session.FeedError
		empty       *ExtractionEmpty
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return ClassCanceled
	case errors.As(err, &unavailable):
		return ClassUnavailable
	case errors.As(err, &blocked):
		return ClassBlocked
	case errors.As(err, &httpErr):
		return ClassHTTP
	case errors.As(err, &renderErr):
		return ClassRender
	case errors.As(err, &feedErr):
		return ClassFeed
	case errors.As(err, &empty):
		return ClassEmpty
	case errors.Is(err, context.DeadlineExceeded):
		return ClassCanceled
	default:
		return ClassUnknown
	}
}
