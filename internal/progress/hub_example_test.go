package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type countingSink struct {
	sources int
}

func (s *countingSink) Consume(_ context.Context, batch []Event) error {
	for _, evt := range batch {
		if evt.Type == TypeSourceComplete {
			s.sources++
		}
	}
	return nil
}

func (s *countingSink) Close(context.Context) error { return nil }

// ExampleStream shows a stream forwarding into a Hub whose sink counts
// completed sources.
func ExampleStream() {
	sink := &countingSink{}
	hub := NewHub(HubConfig{MaxBatch: 1, MaxWait: time.Second}, sink)

	stream := NewStream(uuid.MustParse("00000000-0000-0000-0000-000000000001"), nil, hub)
	_ = stream.Emit(Scraping("indeed", "Indeed", SourceProgress(0, 1)))
	_ = stream.Emit(SourceComplete("indeed", "Indeed", "static", 4, SourceProgress(1, 1), time.Second))
	if err := hub.Close(context.Background()); err != nil {
		panic(err)
	}

	fmt.Printf("sources completed: %d\n", sink.sources)
	// Output:
	// sources completed: 1
}
