package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	base := errors.New("boom")
	err := Retryable(base)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should unwrap to the cause")
	}
	if err.Error() != "boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if IsRetryable(base) {
		t.Error("plain errors are not retryable")
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()
	fatal := errors.New("fatal")

	tests := []struct {
		name      string
		attempts  int
		failures  int // retryable failures before success
		permanent bool
		wantCalls int
		wantErr   bool
	}{
		{"success first try", 3, 0, false, 1, false},
		{"success after retry", 3, 2, false, 3, false},
		{"exhausted", 2, 5, false, 2, true},
		{"permanent error", 3, 0, true, 1, true},
		{"zero attempts runs once", 0, 0, false, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(ctx, tt.attempts, time.Millisecond, func() error {
				calls++
				if tt.permanent {
					return fatal
				}
				if calls <= tt.failures {
					return Retryable(errors.New("transient"))
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, time.Hour, func() error {
		return Retryable(errors.New("transient"))
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
