package connection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
)

func TestBackoff(t *testing.T) {
	t.Run("DefaultSequence", func(t *testing.T) {
		b := NewBackoff()

		expected := []time.Duration{
			500 * time.Millisecond,
			1 * time.Second,
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
			8 * time.Second, // Should stay at max
		}
		for i, exp := range expected {
			assert.Equal(t, exp, b.Current(), "attempt %d", i)
			b.Next()
		}
		assert.Equal(t, len(expected), b.Attempts())
	})

	t.Run("Jitter", func(t *testing.T) {
		b := NewBackoff()

		allSame := true
		first := b.Peek()
		for range 20 {
			s := b.Peek()
			assert.GreaterOrEqual(t, s, InitialBackoff)
			assert.LessOrEqual(t, s, time.Duration(float64(InitialBackoff)*1.25))
			if s != first {
				allSame = false
			}
		}
		assert.False(t, allSame, "jitter should vary")
	})

	t.Run("Reset", func(t *testing.T) {
		b := NewBackoff()
		for range 4 {
			b.Next()
		}
		require.Greater(t, b.Current(), InitialBackoff)

		b.Reset()
		assert.Equal(t, InitialBackoff, b.Current())
		assert.Zero(t, b.Attempts())
	})

	t.Run("Config", func(t *testing.T) {
		b := NewBackoffWithConfig(BackoffConfig{Initial: time.Millisecond, Max: 3 * time.Millisecond, Multiplier: 3})
		assert.Equal(t, time.Millisecond, b.Next())
		assert.Equal(t, 3*time.Millisecond, b.Next())
		assert.Equal(t, 3*time.Millisecond, b.Next())
	})
}

func fastBackoff() *Backoff {
	return NewBackoffWithConfig(BackoffConfig{Initial: time.Millisecond, Max: 2 * time.Millisecond})
}

func TestRetry(t *testing.T) {
	ctx := context.Background()
	netErr := errs.New(errs.KindNetwork, "handshake", errors.New("connection refused"))

	t.Run("RetriesNetworkErrors", func(t *testing.T) {
		calls := 0
		err := Retry(ctx, fastBackoff(), 3, func(context.Context) error {
			calls++
			if calls < 3 {
				return netErr
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("GivesUp", func(t *testing.T) {
		calls := 0
		err := Retry(ctx, fastBackoff(), 2, func(context.Context) error {
			calls++
			return netErr
		})
		assert.ErrorIs(t, err, errs.ErrNetwork)
		assert.Equal(t, 2, calls)
	})

	t.Run("AuthIsFinal", func(t *testing.T) {
		calls := 0
		err := Retry(ctx, fastBackoff(), 5, func(context.Context) error {
			calls++
			return errs.New(errs.KindAuth, "handshake", nil)
		})
		assert.ErrorIs(t, err, errs.ErrAuth)
		assert.Equal(t, 1, calls)
	})

	t.Run("ZeroAttemptsRunsOnce", func(t *testing.T) {
		calls := 0
		_ = Retry(ctx, nil, 0, func(context.Context) error {
			calls++
			return netErr
		})
		assert.Equal(t, 1, calls)
	})

	t.Run("ContextEndsDelay", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		slow := NewBackoffWithConfig(BackoffConfig{Initial: time.Hour})
		err := Retry(cctx, slow, 3, func(context.Context) error {
			cancel()
			return netErr
		})
		assert.ErrorIs(t, err, errs.ErrNetwork)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, errs.KindNetwork, errs.KindOf(err))
	})
}
