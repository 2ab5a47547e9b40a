package leadersvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLeaderService_WaitState_AlreadyInState(t *testing.T) {
	s := &LeaderService{}
	s.state.Store(int32(StateContending))

	// Should return immediately if already in expected state
	start := time.Now()
	errCh := s.WaitState(StateContending, 5*time.Second)
	err := <-errCh

	elapsed := time.Since(start)
	require.NoError(t, err)
	require.Less(t, elapsed, 100*time.Millisecond, "Should return immediately when already in state")
}

func TestLeaderService_WaitState_StateTransition(t *testing.T) {
	s := &LeaderService{}
	s.state.Store(int32(StateIdle))

	errCh := s.WaitState(StateLeading, 2*time.Second)

	// Transition to target state after a delay
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.state.Store(int32(StateLeading))
	}()

	require.NoError(t, <-errCh)
}

func TestLeaderService_WaitState_Timeout(t *testing.T) {
	s := &LeaderService{}
	s.state.Store(int32(StateIdle))

	// Wait for a state that never happens
	start := time.Now()
	errCh := s.WaitState(StateLeading, 300*time.Millisecond)
	err := <-errCh

	elapsed := time.Since(start)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.GreaterOrEqual(t, elapsed, 300*time.Millisecond, "Should wait for full timeout")
	require.Less(t, elapsed, 500*time.Millisecond, "Should not wait significantly longer than timeout")
}

func TestLeaderService_WaitState_MultipleWaiters(t *testing.T) {
	s := &LeaderService{}
	s.state.Store(int32(StateIdle))

	numWaiters := 5
	results := make(chan error, numWaiters)

	for range numWaiters {
		go func() {
			errCh := s.WaitState(StateStopped, 2*time.Second)
			results <- <-errCh
		}()
	}

	time.Sleep(100 * time.Millisecond)
	s.state.Store(int32(StateStopped))

	for range numWaiters {
		require.NoError(t, <-results)
	}
}

func TestLeaderService_Subscribe(t *testing.T) {
	svc, elector, recorder := newFakeService(t, fakeServiceConfig())
	ctx := t.Context()

	ch, unsubscribe := svc.Subscribe()
	defer unsubscribe()

	// Current state arrives immediately on subscription.
	require.Equal(t, StateIdle, <-ch)

	require.NoError(t, svc.Start(ctx))
	require.Equal(t, StateContending, <-ch)

	elector.grant()
	require.Equal(t, StateLeading, <-ch)

	recorder.last().stoppedCh <- nil
	require.Equal(t, StateContending, <-ch)

	require.NoError(t, svc.Stop(ctx))
	require.Equal(t, StateStopping, <-ch)
	require.Equal(t, StateStopped, <-ch)

	// Channel is closed once the service reaches its terminal state.
	_, ok := <-ch
	require.False(t, ok)
}

func TestLeaderService_SubscribeUnsubscribe(t *testing.T) {
	svc, _, _ := newFakeService(t, fakeServiceConfig())

	ch, unsubscribe := svc.Subscribe()
	require.Equal(t, StateIdle, <-ch)

	unsubscribe()
	_, ok := <-ch
	require.False(t, ok)

	// Unsubscribing twice is harmless.
	require.NotPanics(t, unsubscribe)
}
