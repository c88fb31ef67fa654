package cortex

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// fastRetry keeps backoff out of test runtime.
func fastRetry(attempts int) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		Multiplier:   1.0,
		MaxDelay:     time.Millisecond,
	}
}

func TestRetryableClassification(t *testing.T) {
	p := DefaultRetryPolicy()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"throttled", &StatusError{Code: 429}, true},
		{"bad gateway", &StatusError{Code: 502}, true},
		{"unavailable", &StatusError{Code: 503}, true},
		{"bad request", &StatusError{Code: 400}, false},
		{"unauthorized", &StatusError{Code: 401}, false},
		{"not found", &StatusError{Code: 404}, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"transport", errors.New("connection reset by peer"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.retryable(tt.err); got != tt.want {
				t.Errorf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestNextDelayCapped(t *testing.T) {
	p := &RetryPolicy{InitialDelay: time.Second, Multiplier: 2.0, MaxDelay: 3 * time.Second}
	if got := p.NextDelay(1); got != time.Second {
		t.Errorf("attempt 1 delay = %s", got)
	}
	if got := p.NextDelay(2); got != 2*time.Second {
		t.Errorf("attempt 2 delay = %s", got)
	}
	if got := p.NextDelay(5); got != 3*time.Second {
		t.Errorf("attempt 5 delay = %s, want cap", got)
	}
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := fastRetry(3).Execute(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &StatusError{Code: 503, Body: "warming up"}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestExecuteStopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := &StatusError{Code: 401, Body: "bad token"}
	err := fastRetry(3).Execute(context.Background(), func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestExecuteExhaustsAttempts(t *testing.T) {
	calls := 0
	err := fastRetry(3).Execute(context.Background(), func() error {
		calls++
		return &StatusError{Code: 503}
	})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != 503 {
		t.Fatalf("got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestExecuteStopsWaitingOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &RetryPolicy{MaxAttempts: 3, InitialDelay: time.Hour, Multiplier: 1.0, MaxDelay: time.Hour}
	calls := 0
	start := time.Now()
	err := p.Execute(ctx, func() error {
		calls++
		return &StatusError{Code: 503}
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if time.Since(start) > time.Second {
		t.Error("Execute slept despite canceled context")
	}
}

func TestClientRetriesTransientFailures(t *testing.T) {
	requests := 0
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"thread_id": 42}`))
	}), WithRetryPolicy(fastRetry(2)))

	id, err := client.CreateThread(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if id != 42 || requests != 2 {
		t.Errorf("id = %d after %d requests", id, requests)
	}
}

func TestClientRetryDisabled(t *testing.T) {
	requests := 0
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}), WithRetryPolicy(nil))

	_, err := client.CreateThread(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %v", err)
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1", requests)
	}
}
