package session

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRetryPolicyShouldRetry(t *testing.T) {
	t.Parallel()

	p := DefaultRetryPolicy()
	tests := []struct {
		name    string
		err     error
		attempt int
		want    bool
	}{
		{name: "nil", err: nil, attempt: 1, want: false},
		{name: "blocked", err: &BlockedError{URL: "u"}, attempt: 1, want: false},
		{name: "forbidden", err: &HTTPError{Status: http.StatusForbidden}, attempt: 1, want: false},
		{name: "throttled", err: &HTTPError{Status: http.StatusTooManyRequests}, attempt: 1, want: true},
		{name: "server error", err: &HTTPError{Status: http.StatusBadGateway}, attempt: 2, want: true},
		{name: "exhausted", err: &HTTPError{Status: http.StatusBadGateway}, attempt: 3, want: false},
		{name: "canceled", err: context.Canceled, attempt: 1, want: false},
		{name: "net timeout", err: timeoutErr{}, attempt: 1, want: true},
		{name: "other", err: errors.New("connection reset"), attempt: 1, want: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, p.ShouldRetry(tc.err, tc.attempt))
		})
	}
}

func TestRetryPolicyBackoffBounded(t *testing.T) {
	t.Parallel()

	p := DefaultRetryPolicy()
	for attempt := 0; attempt < 8; attempt++ {
		d := p.Backoff(attempt)
		require.GreaterOrEqual(t, d, time.Duration(0))
		require.LessOrEqual(t, d, p.MaxDelay)
	}
}
