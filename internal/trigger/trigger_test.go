package trigger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTrigger_FireOnce(t *testing.T) {
	tr := New()
	require.False(t, tr.HasFired())

	tr.Fire()
	require.True(t, tr.HasFired())

	// Second fire is a no-op, not a panic.
	require.NotPanics(t, func() { tr.Fire() })
	require.True(t, tr.HasFired())
}

func TestTrigger_FiredWithin(t *testing.T) {
	t.Run("already fired returns immediately", func(t *testing.T) {
		tr := New()
		tr.Fire()

		start := time.Now()
		require.True(t, tr.FiredWithin(5*time.Second))
		require.Less(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("fires while waiting", func(t *testing.T) {
		tr := New()

		go func() {
			time.Sleep(50 * time.Millisecond)
			tr.Fire()
		}()

		require.True(t, tr.FiredWithin(5*time.Second))
	})

	t.Run("times out when never fired", func(t *testing.T) {
		tr := New()

		start := time.Now()
		require.False(t, tr.FiredWithin(100*time.Millisecond))
		require.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	})
}

func TestTrigger_Wait(t *testing.T) {
	t.Run("returns nil when fired", func(t *testing.T) {
		tr := New()
		tr.Fire()
		require.NoError(t, tr.Wait(t.Context()))
	})

	t.Run("returns context error when cancelled", func(t *testing.T) {
		tr := New()
		ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
		defer cancel()

		err := tr.Wait(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestTrigger_ConcurrentFire(t *testing.T) {
	tr := New()

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(tr.Fire)
	}
	wg.Wait()

	require.True(t, tr.HasFired())

	// C is usable in select statements after firing.
	select {
	case <-tr.C():
	default:
		t.Fatal("channel not closed after fire")
	}
}
