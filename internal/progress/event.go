package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shaileshms05/learnXAI/internal/opportunity"
)

// Type names the kind of harvest event.
type Type string

// Event types in the order a harvest emits them.
const (
	TypeStatus         Type = "status"
	TypeQueryOptimized Type = "query_optimized"
	TypeScraping       Type = "scraping"
	TypeSourceComplete Type = "source_complete"
	TypeSourceError    Type = "source_error"
	TypeComplete       Type = "complete"
	TypeError          Type = "error"
)

// Progress checkpoints, in percent.
const (
	ProgressStart     = 0
	ProgressOptimize  = 10
	ProgressOptimized = 20
	ProgressRanking   = 90
	ProgressDone      = 100

	sourceProgressSpan = 60
)

// Event is one step of a harvest. Fields that do not apply to Type are left
// zero and omitted from the wire form.
type Event struct {
	RunID    uuid.UUID `json:"run_id"`
	TS       time.Time `json:"ts"`
	Type     Type      `json:"type"`
	Progress int       `json:"progress"`
	Message  string    `json:"message,omitempty"`

	// Source events.
	Source     string `json:"source,omitempty"`
	SourceName string `json:"source_name,omitempty"`
	Strategy   string `json:"strategy,omitempty"`
	Count      int    `json:"count,omitempty"`
	Error      string `json:"error,omitempty"`

	// query_optimized.
	OriginalQuery     string `json:"original,omitempty"`
	OptimizedQuery    string `json:"optimized,omitempty"`
	OptimizedLocation string `json:"optimized_location,omitempty"`
	Degraded          bool   `json:"degraded,omitempty"`

	// complete.
	Result *opportunity.AggregatedResult `json:"result,omitempty"`

	// Dur is the source elapsed time on source events and the run time on
	// terminal events.
	Dur time.Duration `json:"-"`
}

// Terminal reports whether the event ends a stream.
func (e Event) Terminal() bool {
	return e.Type == TypeComplete || e.Type == TypeError
}

// IsStart reports whether the event opens a run.
func (e Event) IsStart() bool {
	return e.Type == TypeStatus && e.Progress == ProgressStart
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == uuid.Nil {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	if e.Progress < 0 || e.Progress > ProgressDone {
		return fmt.Errorf("progress %d out of range", e.Progress)
	}
	switch e.Type {
	case TypeStatus, TypeQueryOptimized:
	case TypeScraping, TypeSourceComplete:
		if e.Source == "" {
			return fmt.Errorf("%s requires source", e.Type)
		}
	case TypeSourceError:
		if e.Source == "" || e.Error == "" {
			return errors.New("source_error requires source and error")
		}
	case TypeComplete:
		if e.Result == nil {
			return errors.New("complete requires result")
		}
	case TypeError:
		if e.Message == "" {
			return errors.New("error requires message")
		}
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// SourceProgress spreads sources evenly between the optimized and ranking
// checkpoints: done of total sources finished gives 20 + 60*done/total.
func SourceProgress(done, total int) int {
	if total <= 0 {
		return ProgressOptimized
	}
	if done > total {
		done = total
	}
	return ProgressOptimized + sourceProgressSpan*done/total
}

// Status builds a status event.
func Status(progress int, message string) Event {
	return Event{Type: TypeStatus, Progress: progress, Message: message}
}

// QueryOptimized reports the normalized query.
func QueryOptimized(original string, q opportunity.NormalizedQuery, degraded bool) Event {
	return Event{
		Type:              TypeQueryOptimized,
		Progress:          ProgressOptimized,
		OriginalQuery:     original,
		OptimizedQuery:    q.OptimizedQuery,
		OptimizedLocation: q.CanonicalLocation,
		Degraded:          degraded,
	}
}

// Scraping announces that a source is about to be harvested.
func Scraping(source, name string, progress int) Event {
	return Event{
		Type:       TypeScraping,
		Progress:   progress,
		Source:     source,
		SourceName: name,
		Message:    fmt.Sprintf("Scraping %s...", name),
	}
}

// SourceComplete reports the listings a source contributed.
func SourceComplete(source, name, strategy string, count, progress int, elapsed time.Duration) Event {
	return Event{
		Type:       TypeSourceComplete,
		Progress:   progress,
		Source:     source,
		SourceName: name,
		Strategy:   strategy,
		Count:      count,
		Dur:        elapsed,
	}
}

// SourceError reports a source that produced nothing.
func SourceError(source, name, reason string, progress int, elapsed time.Duration) Event {
	return Event{
		Type:       TypeSourceError,
		Progress:   progress,
		Source:     source,
		SourceName: name,
		Error:      reason,
		Dur:        elapsed,
	}
}

// Complete carries the final result.
func Complete(result *opportunity.AggregatedResult, elapsed time.Duration) Event {
	return Event{Type: TypeComplete, Progress: ProgressDone, Result: result, Dur: elapsed}
}

// Failure ends a stream with an error message.
func Failure(message string, elapsed time.Duration) Event {
	return Event{Type: TypeError, Message: message, Dur: elapsed}
}
