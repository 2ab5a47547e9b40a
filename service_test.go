package leadersvc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/leadersvc/internal/logger"
)

// fakeElector is a fully controllable in-process elector for deterministic
// state machine tests.
type fakeElector struct {
	mu            sync.Mutex
	participating bool
	leader        bool
	startErr      error
	starts        int

	grantedCh chan struct{}
	revokedCh chan RevokeCause
}

func newFakeElector() *fakeElector {
	return &fakeElector{
		grantedCh: make(chan struct{}, 1),
		revokedCh: make(chan RevokeCause, 1),
	}
}

func (f *fakeElector) StartParticipating(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.startErr != nil {
		return f.startErr
	}

	f.participating = true
	f.starts++

	return nil
}

func (f *fakeElector) StopParticipating(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.participating = false
	f.leader = false

	return nil
}

func (f *fakeElector) IsLeader() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.leader
}

func (f *fakeElector) Leader(_ context.Context) (Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.leader {
		return Participant{ID: "fake", IsLeader: true}, nil
	}

	return NoLeader, nil
}

func (f *fakeElector) Participants(_ context.Context) ([]Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.participating {
		return []Participant{}, nil
	}

	return []Participant{{ID: "fake", IsLeader: f.leader}}, nil
}

func (f *fakeElector) Granted() <-chan struct{} {
	return f.grantedCh
}

func (f *fakeElector) Revoked() <-chan RevokeCause {
	return f.revokedCh
}

// grant simulates winning the election.
func (f *fakeElector) grant() {
	f.mu.Lock()
	f.leader = true
	f.mu.Unlock()

	f.grantedCh <- struct{}{}
}

// revoke simulates losing leadership.
func (f *fakeElector) revoke(cause RevokeCause) {
	f.mu.Lock()
	f.leader = false
	f.mu.Unlock()

	f.revokedCh <- cause
}

// participationCount returns how many times StartParticipating succeeded.
func (f *fakeElector) participationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.starts
}

// testDelegate is a controllable delegate for service tests.
type testDelegate struct {
	mu         sync.Mutex
	startErr   error
	stopErr    error
	startCalls int
	stopCalls  int
	stoppedCh  chan error
}

func (d *testDelegate) Start(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.startCalls++

	return d.startErr
}

func (d *testDelegate) Stop(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopCalls++

	return d.stopErr
}

func (d *testDelegate) Stopped() <-chan error {
	return d.stoppedCh
}

func (d *testDelegate) stops() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.stopCalls
}

// delegateRecorder is a factory that remembers every instance it produced.
type delegateRecorder struct {
	mu        sync.Mutex
	startErr  error
	instances []*testDelegate
}

func (r *delegateRecorder) factory() Delegate {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := &testDelegate{startErr: r.startErr, stoppedCh: make(chan error, 1)}
	r.instances = append(r.instances, d)

	return d
}

func (r *delegateRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.instances)
}

func (r *delegateRecorder) last() *testDelegate {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.instances) == 0 {
		return nil
	}

	return r.instances[len(r.instances)-1]
}

func fakeServiceConfig() Config {
	cfg := TestConfig()
	cfg.ID = "test-worker:9001"
	cfg.ReacquireDelay = 100 * time.Millisecond

	return cfg
}

func newFakeService(t *testing.T, cfg Config, opts ...Option) (*LeaderService, *fakeElector, *delegateRecorder) {
	t.Helper()

	elector := newFakeElector()
	recorder := &delegateRecorder{}

	opts = append(opts,
		WithElector(elector),
		WithLogger(logger.NewTest(t)),
	)

	svc, err := New(&cfg, nil, recorder.factory, opts...)
	require.NoError(t, err)

	return svc, elector, recorder
}

func waitState(t *testing.T, svc *LeaderService, state State) {
	t.Helper()

	require.NoError(t, <-svc.WaitState(state, 5*time.Second), "waiting for state %s", state)
}

func TestNew_Validation(t *testing.T) {
	factory := func() Delegate { return &testDelegate{} }

	t.Run("nil config", func(t *testing.T) {
		_, err := New(nil, nil, factory)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("nil factory", func(t *testing.T) {
		cfg := fakeServiceConfig()
		_, err := New(&cfg, nil, nil)
		require.ErrorIs(t, err, ErrFactoryRequired)
	})

	t.Run("nil connection without custom elector", func(t *testing.T) {
		cfg := fakeServiceConfig()
		_, err := New(&cfg, nil, factory)
		require.ErrorIs(t, err, ErrConnectionRequired)
	})

	t.Run("nil connection with custom elector", func(t *testing.T) {
		cfg := fakeServiceConfig()
		svc, err := New(&cfg, nil, factory, WithElector(newFakeElector()))
		require.NoError(t, err)
		require.Equal(t, "test-worker:9001", svc.ID())
		require.Equal(t, StateIdle, svc.State())
	})

	t.Run("missing ID", func(t *testing.T) {
		cfg := fakeServiceConfig()
		cfg.ID = ""
		_, err := New(&cfg, nil, factory, WithElector(newFakeElector()))
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("renew interval above lease TTL", func(t *testing.T) {
		cfg := fakeServiceConfig()
		cfg.RenewInterval = cfg.LeaseTTL * 2
		_, err := New(&cfg, nil, factory, WithElector(newFakeElector()))
		require.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestLeaderService_StartStop(t *testing.T) {
	svc, _, recorder := newFakeService(t, fakeServiceConfig())
	ctx := t.Context()

	require.ErrorIs(t, svc.Stop(ctx), ErrNotStarted)

	require.NoError(t, svc.Start(ctx))
	require.Equal(t, StateContending, svc.State())
	require.ErrorIs(t, svc.Start(ctx), ErrAlreadyStarted)

	// Stop while contending: no delegate was ever produced.
	require.NoError(t, svc.Stop(ctx))
	require.Equal(t, StateStopped, svc.State())
	require.Zero(t, recorder.count())

	require.ErrorIs(t, svc.Stop(ctx), ErrNotStarted)
	require.ErrorIs(t, svc.Start(ctx), ErrAlreadyStarted)
}

func TestLeaderService_GrantRunsDelegate(t *testing.T) {
	svc, elector, recorder := newFakeService(t, fakeServiceConfig())
	ctx := t.Context()

	require.NoError(t, svc.Start(ctx))
	require.False(t, svc.HasLeadership())
	_, ok := svc.DelegateService()
	require.False(t, ok)

	elector.grant()
	waitState(t, svc, StateLeading)

	require.True(t, svc.HasLeadership())
	require.Equal(t, 1, recorder.count())

	delegate, ok := svc.DelegateService()
	require.True(t, ok)
	require.Same(t, recorder.last(), delegate)

	require.NoError(t, svc.Stop(ctx))
	require.Equal(t, StateStopped, svc.State())
	require.False(t, svc.HasLeadership())
	require.Equal(t, 1, recorder.last().stops())

	_, ok = svc.DelegateService()
	require.False(t, ok)
}

func TestLeaderService_DelegateExitTriggersReacquireDelay(t *testing.T) {
	cfg := fakeServiceConfig()
	cfg.ReacquireDelay = 150 * time.Millisecond
	svc, elector, recorder := newFakeService(t, cfg)
	ctx := t.Context()

	require.NoError(t, svc.Start(ctx))
	require.Equal(t, 1, elector.participationCount())

	elector.grant()
	waitState(t, svc, StateLeading)

	// Delegate ends its own acquisition.
	exitedAt := time.Now()
	recorder.last().stoppedCh <- nil
	waitState(t, svc, StateContending)

	// Service re-enters the election only after the full delay.
	require.Eventually(t, func() bool {
		return elector.participationCount() == 2
	}, 5*time.Second, 10*time.Millisecond)
	require.GreaterOrEqual(t, time.Since(exitedAt), cfg.ReacquireDelay)

	// The next acquisition gets a fresh delegate instance.
	first := recorder.last()
	elector.grant()
	waitState(t, svc, StateLeading)
	require.Equal(t, 2, recorder.count())
	require.NotSame(t, first, recorder.last())

	require.NoError(t, svc.Stop(ctx))
}

func TestLeaderService_RevokeStopsDelegate(t *testing.T) {
	svc, elector, recorder := newFakeService(t, fakeServiceConfig())
	ctx := t.Context()

	require.NoError(t, svc.Start(ctx))
	elector.grant()
	waitState(t, svc, StateLeading)

	elector.revoke(CauseSessionLost)
	waitState(t, svc, StateContending)

	// The live delegate was shut down before re-contention.
	require.Equal(t, 1, recorder.last().stops())
	require.False(t, svc.HasLeadership())

	// The service keeps contending and can lead again.
	require.Eventually(t, func() bool {
		return elector.participationCount() == 2
	}, 5*time.Second, 10*time.Millisecond)

	elector.grant()
	waitState(t, svc, StateLeading)
	require.Equal(t, 2, recorder.count())

	require.NoError(t, svc.Stop(ctx))
}

func TestLeaderService_StartupFailureAbsorbed(t *testing.T) {
	svc, elector, recorder := newFakeService(t, fakeServiceConfig())
	recorder.startErr = errors.New("bind: address already in use")
	ctx := t.Context()

	require.NoError(t, svc.Start(ctx))
	elector.grant()

	// The failed acquisition ends back in Contending without crashing the
	// service, and the reacquire cycle continues.
	waitState(t, svc, StateContending)
	require.Eventually(t, func() bool {
		return elector.participationCount() == 2
	}, 5*time.Second, 10*time.Millisecond)

	require.Equal(t, 1, recorder.count())
	require.False(t, svc.HasLeadership())

	// A later acquisition with a healthy delegate succeeds.
	recorder.mu.Lock()
	recorder.startErr = nil
	recorder.mu.Unlock()

	elector.grant()
	waitState(t, svc, StateLeading)

	require.NoError(t, svc.Stop(ctx))
}

func TestLeaderService_StopInterruptsReacquireWait(t *testing.T) {
	cfg := fakeServiceConfig()
	cfg.ReacquireDelay = time.Minute
	svc, elector, recorder := newFakeService(t, cfg)
	ctx := t.Context()

	require.NoError(t, svc.Start(ctx))
	elector.grant()
	waitState(t, svc, StateLeading)

	recorder.last().stoppedCh <- nil
	waitState(t, svc, StateContending)

	// Stop returns promptly instead of waiting out the minute-long delay.
	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, svc.Stop(stopCtx))
	require.Less(t, time.Since(start), 2*time.Second)
	require.Equal(t, StateStopped, svc.State())
}

func TestLeaderService_Hooks(t *testing.T) {
	var (
		mu     sync.Mutex
		gains  int
		losses []RevokeCause
	)

	hooks := &Hooks{
		OnLeadershipChanged: func(_ context.Context, isLeader bool, cause RevokeCause) error {
			mu.Lock()
			defer mu.Unlock()
			if isLeader {
				gains++
			} else {
				losses = append(losses, cause)
			}

			return nil
		},
	}

	svc, elector, recorder := newFakeService(t, fakeServiceConfig(), WithHooks(hooks))
	ctx := t.Context()

	require.NoError(t, svc.Start(ctx))
	elector.grant()
	waitState(t, svc, StateLeading)

	recorder.last().stoppedCh <- nil
	waitState(t, svc, StateContending)

	require.NoError(t, svc.Stop(ctx))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return gains == 1 && len(losses) == 1 && losses[0] == CauseRelinquished
	}, 5*time.Second, 10*time.Millisecond)
}

func TestLeaderService_QueriesBeforeStart(t *testing.T) {
	cfg := fakeServiceConfig()
	recorder := &delegateRecorder{}
	svc, err := New(&cfg, nil, recorder.factory, WithElector(newFakeElector()))
	require.NoError(t, err)

	leader, err := svc.Leader(t.Context())
	require.NoError(t, err)
	require.Equal(t, NoLeader, leader)

	participants, err := svc.Participants(t.Context())
	require.NoError(t, err)
	require.Empty(t, participants)
}
