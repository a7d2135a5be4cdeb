package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestExponentialBackoffDelays(t *testing.T) {
	b := NewExponentialBackoff(5,
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(time.Second),
		WithJitter(0),
	)
	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
	}
	for attempt, expected := range want {
		if got := b.NextDelay(attempt); got != expected {
			t.Fatalf("NextDelay(%d) = %v, want %v", attempt, got, expected)
		}
	}
	if b.MaxRetries() != 5 {
		t.Fatalf("MaxRetries = %d, want 5", b.MaxRetries())
	}
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	b := NewExponentialBackoff(1,
		WithInitialDelay(time.Second),
		WithJitter(0.1),
		WithJitterFunc(func() float64 { return 0.999999 }),
	)
	if got := b.NextDelay(0); got < 1099*time.Millisecond || got > 1100*time.Millisecond {
		t.Fatalf("jittered delay out of range: %v", got)
	}
	if NewExponentialBackoff(-3).MaxRetries() != 0 {
		t.Fatal("negative retries should clamp to zero")
	}
}

func TestHTTPClassifier(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"server error", &StatusError{URL: "u", StatusCode: http.StatusBadGateway}, true},
		{"rate limited", &StatusError{URL: "u", StatusCode: http.StatusTooManyRequests}, true},
		{"not found", &StatusError{URL: "u", StatusCode: http.StatusNotFound}, false},
		{"wrapped status", fmt.Errorf("fetch: %w", &StatusError{StatusCode: 503}), true},
		{"truncated body", fmt.Errorf("copy: %w", io.ErrUnexpectedEOF), true},
		{"canceled", context.Canceled, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (HTTPClassifier{}).IsTransient(tt.err); got != tt.want {
				t.Fatalf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestExecutorRetriesTransientFailures(t *testing.T) {
	executor := NewExecutor(HTTPClassifier{}, NewExponentialBackoff(3, WithInitialDelay(time.Millisecond), WithJitter(0)))
	var retries []int
	executor = executor.WithOnRetry(func(attempt int, _ error, _ time.Duration) {
		retries = append(retries, attempt)
	})

	calls := 0
	err := executor.Execute(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return &StatusError{StatusCode: http.StatusServiceUnavailable}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if len(retries) != 2 || retries[0] != 0 || retries[1] != 1 {
		t.Fatalf("unexpected retry callbacks: %v", retries)
	}
}

func TestExecutorStopsOnFatalError(t *testing.T) {
	executor := NewExecutor(HTTPClassifier{}, NewExponentialBackoff(5, WithInitialDelay(time.Millisecond)))
	calls := 0
	fatal := &StatusError{StatusCode: http.StatusForbidden}
	err := executor.Execute(context.Background(), func(context.Context) error {
		calls++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestExecutorExhaustsBudget(t *testing.T) {
	executor := NewExecutor(HTTPClassifier{}, NewExponentialBackoff(2, WithInitialDelay(time.Millisecond), WithJitter(0)))
	calls := 0
	err := executor.Execute(context.Background(), func(context.Context) error {
		calls++
		return io.ErrUnexpectedEOF
	})
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestExecutorHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	executor := NewExecutor(HTTPClassifier{}, NewExponentialBackoff(3, WithInitialDelay(time.Hour)))
	executor = executor.WithOnRetry(func(int, error, time.Duration) { cancel() })

	err := executor.Execute(ctx, func(context.Context) error {
		return io.ErrUnexpectedEOF
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
