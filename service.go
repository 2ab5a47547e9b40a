package leadersvc

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/leadersvc/internal/election"
	"github.com/arloliu/leadersvc/internal/hooks"
	"github.com/arloliu/leadersvc/internal/kvutil"
	"github.com/arloliu/leadersvc/internal/lifecycle"
	"github.com/arloliu/leadersvc/internal/logger"
	"github.com/arloliu/leadersvc/internal/metrics"
)

// LeaderService ties leader election to the lifecycle of a delegate worker.
//
// The service contends for a mutually exclusive leadership token and runs a
// fresh delegate instance for exactly as long as it holds leadership:
//   - On every acquisition the factory produces a new delegate, which is
//     started and supervised.
//   - When the delegate reaches a terminal state, or leadership is revoked,
//     the acquisition ends, leadership is relinquished, and the service
//     pauses for ReacquireDelay before contending again.
//   - Delegate failures are absorbed: they end the acquisition but never
//     crash the service.
//
// Thread Safety:
//   - All public methods are safe for concurrent use
//   - State transitions are atomic and emitted in order to subscribers
//
// Lifecycle:
//   - Create with New()
//   - Call Start() to begin contending for leadership
//   - Use hooks or Subscribe to react to leadership changes
//   - Call Stop() for graceful shutdown; a stopped service cannot be
//     restarted
type LeaderService struct {
	cfg     Config
	conn    *nats.Conn
	factory DelegateFactory

	// Optional dependencies
	elector Elector
	hooks   *Hooks
	metrics MetricsCollector
	logger  Logger

	// State management
	state   atomic.Int32                      // State
	monitor atomic.Pointer[lifecycle.Monitor] // non-nil only while leading

	// State change subscriptions
	subscribers      *xsync.Map[uint64, *stateSubscriber]
	nextSubscriberID atomic.Uint64

	// Lifecycle management
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// New creates a new LeaderService instance with the provided configuration.
//
// Returns a concrete *LeaderService struct following the "accept interfaces,
// return structs" principle. Consumers can define their own interfaces for
// testing if needed.
//
// Parameters:
//   - cfg: Runtime configuration with parsed durations
//   - conn: NATS connection for coordination (may be nil with WithElector)
//   - factory: Produces a fresh delegate for each leadership acquisition
//   - opts: Optional configuration (hooks, metrics, logger, elector)
//
// Returns:
//   - *LeaderService: Initialized service instance
//   - error: Validation error if configuration is invalid
//
// Example:
//
//	cfg := leadersvc.DefaultConfig()
//	cfg.ID = "host-a:9001"
//	svc, err := leadersvc.New(&cfg, natsConn, func() leadersvc.Delegate {
//	    return newWorker()
//	})
func New(cfg *Config, conn *nats.Conn, factory DelegateFactory, opts ...Option) (*LeaderService, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if factory == nil {
		return nil, ErrFactoryRequired
	}

	// Fill in missing configuration values with defaults
	SetDefaults(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Apply options
	options := &serviceOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if conn == nil && options.elector == nil {
		return nil, ErrConnectionRequired
	}

	// Provide safe defaults for optional dependencies to avoid nil checks everywhere
	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logger.NewNop()
	}

	// Validate with warnings after logger is available
	cfg.ValidateWithWarnings(loggerInstance)

	hooksInstance := options.hooks
	if hooksInstance == nil {
		nopHooks := hooks.NewNop()
		hooksInstance = &nopHooks
	}

	s := &LeaderService{
		cfg:         *cfg,
		conn:        conn,
		factory:     factory,
		elector:     options.elector,
		hooks:       hooksInstance,
		metrics:     metricsCollector,
		logger:      loggerInstance,
		subscribers: xsync.NewMap[uint64, *stateSubscriber](),
	}

	s.state.Store(int32(StateIdle))

	return s, nil
}

// Start begins contending for leadership.
//
// Returns once the service participates in the election; leadership itself
// is acquired asynchronously and surfaced through hooks, Subscribe, and
// HasLeadership. Start never blocks waiting for leadership.
//
// Parameters:
//   - ctx: Context bounding election setup (bucket creation, announcement)
//
// Returns:
//   - error: ErrAlreadyStarted, or a coordination error during setup
func (s *LeaderService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}

	startupCtx := ctx
	if s.cfg.StartupTimeout > 0 {
		var cancel context.CancelFunc
		startupCtx, cancel = context.WithTimeout(ctx, s.cfg.StartupTimeout)
		defer cancel()
	}

	if s.elector == nil {
		elector, err := s.buildElector(startupCtx)
		if err != nil {
			return err
		}
		s.elector = elector
	}

	if err := s.elector.StartParticipating(startupCtx); err != nil {
		return fmt.Errorf("%w: %w", ErrCoordinationUnavailable, err)
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.started = true

	s.transitionState(StateIdle, StateContending)

	s.wg.Go(s.run)

	return nil
}

// Stop gracefully shuts down the service.
//
// If a delegate is live it is stopped and its terminal event awaited before
// leadership is relinquished. A pending reacquire wait is interrupted
// immediately. Stop is terminal: the service cannot be restarted.
//
// Parameters:
//   - ctx: Context for shutdown timeout
//
// Returns:
//   - error: ErrNotStarted if never started or already stopped, or the
//     context error if the timeout expires first
func (s *LeaderService) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()

		return ErrNotStarted
	}

	currentState := s.State()
	if currentState == StateStopping || currentState == StateStopped {
		s.mu.Unlock()

		return ErrNotStarted
	}

	// Cancel the lifecycle context; the run goroutine performs the ordered
	// shutdown (delegate stop, withdrawal, state transitions).
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("leader service stopped gracefully", "id", s.cfg.ID)
		return nil
	case <-ctx.Done():
		s.logger.Error("shutdown timeout exceeded", "id", s.cfg.ID)
		return ctx.Err()
	}
}

// ID returns this participant's identity.
func (s *LeaderService) ID() string {
	return s.cfg.ID
}

// HasLeadership reports whether this service currently holds leadership and
// supervises a live delegate.
func (s *LeaderService) HasLeadership() bool {
	return s.State() == StateLeading
}

// DelegateService returns the currently supervised delegate instance.
//
// Returns:
//   - Delegate: The live delegate, or nil
//   - bool: true if a delegate is live (service is leading)
func (s *LeaderService) DelegateService() (Delegate, bool) {
	mon := s.monitor.Load()
	if mon == nil {
		return nil, false
	}

	return mon.Delegate(), true
}

// Leader returns the current leader across all participants, or NoLeader if
// none holds leadership or the service was never started.
func (s *LeaderService) Leader(ctx context.Context) (Participant, error) {
	s.mu.Lock()
	elector := s.elector
	s.mu.Unlock()

	if elector == nil {
		return NoLeader, nil
	}

	return elector.Leader(ctx)
}

// Participants returns a fresh snapshot of the election candidates, leader
// first when one exists. Empty if the service was never started or has
// withdrawn.
func (s *LeaderService) Participants(ctx context.Context) ([]Participant, error) {
	s.mu.Lock()
	elector := s.elector
	s.mu.Unlock()

	if elector == nil {
		return []Participant{}, nil
	}

	return elector.Participants(ctx)
}

// State returns the current service state.
func (s *LeaderService) State() State {
	return State(s.state.Load())
}

// WaitState waits for the service to reach the expected state within the
// timeout period.
//
// The method returns a read-only channel that will receive exactly one value:
//   - nil if the expected state is reached within the timeout
//   - context.DeadlineExceeded if the timeout expires before reaching the state
//
// The channel is closed after sending the result, allowing safe use in
// select statements.
//
// Parameters:
//   - expectedState: The state to wait for
//   - timeout: Maximum duration to wait for the state
//
// Returns:
//   - <-chan error: A channel that receives the result (nil on success, error on timeout)
//
// Example:
//
//	errCh := svc.WaitState(leadersvc.StateLeading, 10*time.Second)
//	if err := <-errCh; err != nil {
//	    log.Printf("failed to reach Leading state: %v", err)
//	}
func (s *LeaderService) WaitState(expectedState State, timeout time.Duration) <-chan error {
	ch := make(chan error, 1) // Buffered to prevent goroutine leak

	go func() {
		defer close(ch)

		// Check if already in expected state
		if s.State() == expectedState {
			ch <- nil
			return
		}

		// Poll for state changes
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()

		timeoutTimer := time.NewTimer(timeout)
		defer timeoutTimer.Stop()

		for {
			select {
			case <-ticker.C:
				if s.State() == expectedState {
					ch <- nil
					return
				}
			case <-timeoutTimer.C:
				ch <- context.DeadlineExceeded
				return
			}
		}
	}()

	return ch
}

// buildElector constructs the default NATS KV elector.
func (s *LeaderService) buildElector(ctx context.Context) (Elector, error) {
	js, err := jetstream.New(s.conn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create jetstream context: %w", ErrCoordinationUnavailable, err)
	}

	const maxRetries = 5
	kv, err := kvutil.EnsureBucketWithRetry(ctx, js, jetstream.KeyValueConfig{
		Bucket:  s.cfg.ElectionBucket,
		History: 1, // Keep only latest value
		TTL:     s.cfg.LeaseTTL,
	}, maxRetries)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCoordinationUnavailable, err)
	}

	elector := election.New(kv, election.Config{
		ID:            s.cfg.ID,
		Key:           s.cfg.ElectionKey,
		RenewInterval: s.cfg.RenewInterval,
		OpTimeout:     s.cfg.OperationTimeout,
	}, s.logger)
	elector.SetMetrics(s.metrics)

	return elector, nil
}

// run is the controller loop: wait for leadership, supervise one delegate
// per acquisition, pause, repeat. Runs until Stop cancels the lifecycle
// context.
func (s *LeaderService) run() {
	s.logger.Debug("controller loop started", "worker", s.cfg.WorkerName, "id", s.cfg.ID)

	for {
		select {
		case <-s.ctx.Done():
			s.shutdown(StateContending)
			return

		case <-s.elector.Granted():
			if stopped := s.lead(); stopped {
				return
			}

			if !s.reacquire() {
				s.shutdown(StateContending)
				return
			}
		}
	}
}

// lead supervises a single leadership acquisition from grant to the
// delegate's terminal event.
//
// Returns:
//   - bool: true if service shutdown was requested and performed
func (s *LeaderService) lead() bool {
	mon := lifecycle.NewMonitor(s.factory(), s.logger, s.cfg.StartupTimeout, s.cfg.ShutdownTimeout)
	s.monitor.Store(mon)

	s.transitionState(StateContending, StateLeading)
	s.logger.Info("leadership acquired, starting delegate", "id", s.cfg.ID)
	// The cause argument is meaningful only for losses.
	s.notifyLeadershipChanged(true, RevokeCause(0))

	if err := mon.Start(); err != nil {
		// Monitors are single-use and freshly constructed, so this cannot
		// happen; log rather than crash if it ever does.
		s.logger.Error("failed to start delegate monitor", "error", err)
	}

	var (
		stopped     bool
		revoked     bool
		revokeCause RevokeCause
		prevState   DelegateState = DelegateNew
	)

	events := mon.Events()
	revokedCh := s.elector.Revoked()
	ctxDone := s.ctx.Done()

	for events != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.handleDelegateEvent(prevState, ev)
			prevState = ev.State

		case cause := <-revokedCh:
			s.logger.Warn("leadership revoked, stopping delegate", "id", s.cfg.ID, "cause", cause.String())
			revoked, revokeCause = true, cause
			revokedCh = nil
			mon.Stop()

		case <-ctxDone:
			// Shutdown wins over everything else in flight, including a
			// delegate startup failure racing with it.
			stopped = true
			ctxDone = nil
			mon.Stop()
		}
	}

	s.monitor.Store(nil)

	if stopped {
		s.notifyLeadershipChanged(false, CauseStopped)
		s.shutdown(StateLeading)

		return true
	}

	cause := CauseRelinquished
	if revoked {
		cause = revokeCause
	}

	s.transitionState(StateLeading, StateContending)
	s.notifyLeadershipChanged(false, cause)

	// Withdraw before the reacquire pause so the elector cannot win the
	// election early on a renewal tick.
	withdrawCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	if err := s.elector.StopParticipating(withdrawCtx); err != nil {
		s.logger.Warn("failed to withdraw from election", "id", s.cfg.ID, "error", err)
	}
	cancel()

	s.drainElectorEvents()

	return false
}

// reacquire waits out the reacquire delay and re-enters the election.
//
// Returns:
//   - bool: false if shutdown was requested during the wait or re-entry
func (s *LeaderService) reacquire() bool {
	if s.cfg.ReacquireDelay > 0 {
		s.logger.Info("pausing before re-contending for leadership",
			"id", s.cfg.ID,
			"delay", s.cfg.ReacquireDelay,
		)

		start := time.Now()
		timer := time.NewTimer(s.cfg.ReacquireDelay)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}

		s.metrics.RecordReacquireWait(time.Since(start).Seconds())
	}

	for {
		err := s.elector.StartParticipating(s.ctx)
		if err == nil {
			return true
		}

		s.logger.Warn("failed to re-enter election, retrying", "id", s.cfg.ID, "error", err)
		s.notifyError(fmt.Errorf("%w: %w", ErrCoordinationUnavailable, err))

		select {
		case <-s.ctx.Done():
			return false
		case <-time.After(s.cfg.RenewInterval):
		}
	}
}

// shutdown performs the ordered shutdown sequence from the given state.
func (s *LeaderService) shutdown(from State) {
	s.transitionState(from, StateStopping)

	withdrawCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.elector.StopParticipating(withdrawCtx); err != nil {
		s.logger.Warn("failed to withdraw from election during shutdown", "id", s.cfg.ID, "error", err)
	}

	s.transitionState(StateStopping, StateStopped)
	s.closeSubscribers()
	s.logger.Debug("controller loop stopped", "worker", s.cfg.WorkerName, "id", s.cfg.ID)
}

// handleDelegateEvent records and fans out one delegate lifecycle event.
//
// The OnDelegateEvent hook is invoked synchronously so consumers observe
// events in emission order.
func (s *LeaderService) handleDelegateEvent(prev DelegateState, ev DelegateEvent) {
	s.logger.Debug("delegate event", "id", s.cfg.ID, "state", ev.State.String())
	s.metrics.RecordDelegateEvent(ev.State.String())

	if ev.State == DelegateFailed {
		stage := "shutdown"
		if prev == DelegateNew || prev == DelegateStarting {
			stage = "startup"
		}

		s.logger.Error("delegate failed", "id", s.cfg.ID, "stage", stage, "error", ev.Err)
		s.metrics.RecordDelegateFailure(stage)
		s.notifyError(ev.Err)
	}

	if s.hooks.OnDelegateEvent != nil {
		if err := s.hooks.OnDelegateEvent(s.ctx, ev); err != nil {
			s.logger.Error("delegate event hook error", "state", ev.State.String(), "error", err)
		}
	}
}

// drainElectorEvents discards stale grant/revoke events left over from the
// previous acquisition, such as the revoke produced by our own withdrawal.
func (s *LeaderService) drainElectorEvents() {
	for {
		select {
		case <-s.elector.Granted():
		case <-s.elector.Revoked():
		default:
			return
		}
	}
}

// transitionState transitions to a new state and triggers hooks.
func (s *LeaderService) transitionState(from, to State) {
	// Validate state transition
	if !s.isValidTransition(from, to) {
		s.logger.Error("invalid state transition attempted",
			"from", from.String(),
			"to", to.String(),
		)

		return
	}

	s.state.Store(int32(to)) //nolint:gosec // State values are controlled enum

	s.logger.Info("state transition",
		"from", from.String(),
		"to", to.String(),
		"id", s.cfg.ID,
	)

	s.notifySubscribers(to)

	// Trigger state change hook
	if s.hooks.OnStateChanged != nil {
		// Run hook in background to avoid blocking the state machine
		go func() {
			if err := s.hooks.OnStateChanged(s.ctx, from, to); err != nil {
				s.logger.Error("state change hook error", "from", from, "to", to, "error", err)
			}
		}()
	}

	// Record metrics (always non-nil, defaults to nop)
	s.metrics.RecordStateTransition(from, to)
}

// isValidTransition validates that a state transition is allowed.
func (s *LeaderService) isValidTransition(from, to State) bool {
	validTransitions := map[State][]State{
		StateIdle:       {StateContending},
		StateContending: {StateLeading, StateStopping},
		StateLeading:    {StateContending, StateStopping},
		StateStopping:   {StateStopped},
		StateStopped:    {}, // Terminal state - no transitions allowed
	}

	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// notifyLeadershipChanged triggers the leadership change hook.
func (s *LeaderService) notifyLeadershipChanged(isLeader bool, cause RevokeCause) {
	if s.hooks.OnLeadershipChanged == nil {
		return
	}

	go func() {
		if err := s.hooks.OnLeadershipChanged(s.ctx, isLeader, cause); err != nil {
			s.logger.Error("leadership change hook error", "isLeader", isLeader, "error", err)
		}
	}()
}

// notifyError triggers the error hook for an absorbed error.
func (s *LeaderService) notifyError(err error) {
	if err == nil || s.hooks.OnError == nil {
		return
	}

	go func() {
		if hookErr := s.hooks.OnError(s.ctx, err); hookErr != nil {
			s.logger.Error("error hook error", "error", hookErr)
		}
	}()
}
