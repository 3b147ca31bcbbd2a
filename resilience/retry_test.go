package resilience

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/fluxkit/errors"
)

func fastConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts: attempts,
		Backoff:     Backoff{Initial: time.Millisecond, Factor: 2.0},
	}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	callCount := 0

	result, err := Retry(context.Background(), DefaultRetryConfig(), func() (string, error) {
		callCount++
		return "success", nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got %s", result)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetry_SucceedsAfterRetry(t *testing.T) {
	callCount := 0

	result, err := Retry(context.Background(), fastConfig(3), func() (int, error) {
		callCount++
		if callCount < 3 {
			return 0, stderrors.New("temporary error")
		}
		return 7, nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != 7 || callCount != 3 {
		t.Errorf("got result %d after %d calls", result, callCount)
	}
}

func TestRetry_Exhausted(t *testing.T) {
	callCount := 0
	testErr := stderrors.New("persistent error")

	_, err := Retry(context.Background(), fastConfig(3), func() (string, error) {
		callCount++
		return "", testErr
	})

	if !errors.HasCode(err, errors.ErrCodeRetryExhausted) {
		t.Errorf("expected RETRY_EXHAUSTED, got %v", err)
	}
	if !stderrors.Is(err, testErr) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestRetry_RespectsContext(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts: 10,
		Backoff:     Backoff{Initial: 100 * time.Millisecond, Factor: 2.0},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	callCount := 0
	_, err := Retry(ctx, cfg, func() (string, error) {
		callCount++
		return "", stderrors.New("error")
	})

	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
	if callCount >= 10 {
		t.Errorf("expected fewer than 10 calls, got %d", callCount)
	}
}

func TestRetry_NonRetryableAppError(t *testing.T) {
	callCount := 0
	_, err := Retry(context.Background(), fastConfig(3), func() (string, error) {
		callCount++
		return "", errors.InvalidInput("port", "out of range")
	})
	if callCount != 1 {
		t.Errorf("expected 1 call for non-retryable error, got %d", callCount)
	}
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestRetry_OnRetryCallback(t *testing.T) {
	var retries []int
	var mu sync.Mutex

	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		mu.Lock()
		retries = append(retries, attempt)
		mu.Unlock()
	}

	_, _ = Retry(context.Background(), cfg, func() (string, error) {
		return "", stderrors.New("error")
	})

	mu.Lock()
	defer mu.Unlock()
	if len(retries) != 2 || retries[0] != 1 || retries[1] != 2 {
		t.Errorf("expected attempts [1 2], got %v", retries)
	}
}

func TestRetryFunc(t *testing.T) {
	callCount := 0
	err := RetryFunc(context.Background(), fastConfig(3), func() error {
		callCount++
		if callCount < 2 {
			return stderrors.New("error")
		}
		return nil
	})
	if err != nil || callCount != 2 {
		t.Errorf("err = %v, calls = %d", err, callCount)
	}
}

func TestBackoff_Next(t *testing.T) {
	b := Backoff{Initial: 100 * time.Millisecond, Max: time.Second, Factor: 2.0}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{6, time.Second},
	}
	for _, tt := range tests {
		if got := b.Next(tt.attempt); got != tt.expected {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.expected, got)
		}
	}
}

func TestBackoff_JitterBounds(t *testing.T) {
	b := Backoff{Initial: 100 * time.Millisecond, Max: time.Second, Factor: 1, Jitter: 0.5}
	for i := 0; i < 50; i++ {
		d := b.Next(1)
		if d < 50*time.Millisecond || d > 150*time.Millisecond {
			t.Fatalf("jittered delay %v out of bounds", d)
		}
	}
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"plain", stderrors.New("x"), true},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"upstream", errors.Upstream(stderrors.New("x")), true},
		{"invalid demand", errors.InvalidDemand(0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultRetryIf(tt.err); got != tt.want {
				t.Errorf("DefaultRetryIf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
