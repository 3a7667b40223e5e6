package initialization

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/agentboard/api/internal/logging"
)

func quietLogger() *logging.Logger {
	return logging.New("error", "text", io.Discard)
}

func TestRetry(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), quietLogger(), cfg, "connect", func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("not yet")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("gives up", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		err := Retry(context.Background(), quietLogger(), cfg, "connect", func(ctx context.Context) error {
			calls++
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected wrapped boom, got %v", err)
		}
		if calls != cfg.MaxAttempts {
			t.Errorf("calls = %d, want %d", calls, cfg.MaxAttempts)
		}
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		slow := RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1}
		err := Retry(ctx, quietLogger(), slow, "connect", func(ctx context.Context) error {
			return errors.New("down")
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}
