package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   10 * time.Millisecond,
	}
}

func TestDoRetriesTransientUntilExhausted(t *testing.T) {
	attempts := 0
	_, err := Do(context.Background(), testConfig(), func(ctx context.Context) (int, error) {
		attempts++
		return 0, errors.New("dial tcp: connection refused")
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != 4 {
		t.Fatalf("expected 4 attempts (1 initial + 3 retries), got %d", attempts)
	}
}

func TestDoWaitsGrowAndCap(t *testing.T) {
	cfg := Config{MaxRetries: 3, BaseDelay: 5 * time.Millisecond, MaxDelay: 15 * time.Millisecond}

	var stamps []time.Time
	_, err := Do(context.Background(), cfg, func(ctx context.Context) (int, error) {
		stamps = append(stamps, time.Now())
		return 0, errors.New("dial tcp: connection refused")
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if len(stamps) != 4 {
		t.Fatalf("expected 4 attempts, got %d", len(stamps))
	}

	// Waits follow 2*base*2^n capped at MaxDelay: 10ms, 15ms, 15ms.
	// Sleeps never undershoot, so each gap is at least its scheduled wait
	// and the schedule never decreases.
	minWaits := []time.Duration{10 * time.Millisecond, 15 * time.Millisecond, 15 * time.Millisecond}
	for i, want := range minWaits {
		got := stamps[i+1].Sub(stamps[i])
		if got < want {
			t.Errorf("wait before attempt %d = %v, want at least %v", i+2, got, want)
		}
	}
}

func TestDoTerminalErrorNotRetried(t *testing.T) {
	terminal := errors.New("permission denied")
	attempts := 0
	_, err := Do(context.Background(), testConfig(), func(ctx context.Context) (int, error) {
		attempts++
		return 0, terminal
	})
	if !errors.Is(err, terminal) {
		t.Fatalf("expected terminal error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected single attempt for terminal error, got %d", attempts)
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	value, err := Do(context.Background(), testConfig(), func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("read: connection reset by peer")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if value != "ok" {
		t.Fatalf("expected value %q, got %q", "ok", value)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoCancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	cfg := Config{MaxRetries: 3, BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second}

	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, cfg, func(ctx context.Context) (int, error) {
			attempts++
			return 0, errors.New("i/o timeout")
		})
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected error from cancelled retry")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not abort after cancellation")
	}
	if attempts >= 4 {
		t.Fatalf("expected cancellation to cut retries short, got %d attempts", attempts)
	}
}

func TestIsTransientClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"refused", errors.New("dial tcp 127.0.0.1:5432: connection refused"), true},
		{"fetch failed", errors.New("fetch failed"), true},
		{"deadline", context.DeadlineExceeded, true},
		{"cancelled", context.Canceled, false},
		{"validation", errors.New("invalid_name"), false},
	}
	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Errorf("%s: IsTransient = %v, want %v", tc.name, got, tc.want)
		}
	}
}
