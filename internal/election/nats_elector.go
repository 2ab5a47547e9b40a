// Package election implements leader election over a NATS JetStream KV
// bucket.
package election

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/leadersvc/internal/kvutil"
	"github.com/arloliu/leadersvc/types"
)

// Common errors for election operations.
var (
	ErrNotLeader      = errors.New("not the leader")
	ErrLeadershipLost = errors.New("leadership was lost")
)

// cleanupTimeout bounds best-effort KV cleanup during withdrawal so that
// StopParticipating never blocks indefinitely on an unreachable server.
const cleanupTimeout = 2 * time.Second

// Config configures a NATSElector.
type Config struct {
	// ID is this participant's identity, conventionally host:port.
	ID string

	// Key is the lease key contended for within the bucket (e.g. "leader").
	Key string

	// RosterPrefix is the key prefix for participant roster entries.
	RosterPrefix string

	// RenewInterval is how often the lease is renewed (leader) or claimed
	// (follower). Must be well below the bucket TTL.
	RenewInterval time.Duration

	// OpTimeout bounds individual KV operations issued by the renewal loop.
	OpTimeout time.Duration
}

// NATSElector implements types.Elector using atomic NATS KV operations:
//
//   - Create (atomic): acquire leadership if the lease key doesn't exist
//   - Update (with revision): renew leadership while still holding the lease
//   - Delete: release leadership
//
// The lease key holds this participant's ID and expires with the bucket TTL,
// so a crashed leader fails over automatically. Each candidate additionally
// maintains a TTL-refreshed roster entry so Participants can report present
// contenders.
//
// Grant and revoke events are produced from the single renewal goroutine,
// which serializes them per acquisition by construction.
type NATSElector struct {
	kv      jetstream.KeyValue
	cfg     Config
	logger  types.Logger
	metrics types.ElectionMetrics

	grantedCh chan struct{}
	revokedCh chan types.RevokeCause

	mu            sync.Mutex
	participating bool
	isLeader      bool
	revision      uint64
	stopCh        chan struct{}
	doneCh        chan struct{}
}

// Compile-time assertion that NATSElector implements Elector.
var _ types.Elector = (*NATSElector)(nil)

// New creates a NATS KV-based elector.
//
// The KV bucket should be configured with a short TTL (e.g. 10-30s) for
// automatic failover when a leader crashes.
//
// Parameters:
//   - kv: JetStream KV bucket for election coordination
//   - cfg: Elector configuration
//   - logger: Logger for election events
//
// Returns:
//   - *NATSElector: New elector instance, not yet participating
func New(kv jetstream.KeyValue, cfg Config, logger types.Logger) *NATSElector {
	if cfg.Key == "" {
		cfg.Key = "leader"
	}
	if cfg.RosterPrefix == "" {
		cfg.RosterPrefix = "participant"
	}

	return &NATSElector{
		kv:        kv,
		cfg:       cfg,
		logger:    logger,
		grantedCh: make(chan struct{}, 1),
		revokedCh: make(chan types.RevokeCause, 1),
	}
}

// SetMetrics sets an optional metrics collector for election events.
//
// Must be called before StartParticipating.
func (e *NATSElector) SetMetrics(metrics types.ElectionMetrics) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.metrics = metrics
}

// StartParticipating begins advertising this participant and contending for
// the lease. Idempotent.
//
// An immediate claim attempt is made before the background renewal loop
// starts, so an uncontested elector usually wins leadership synchronously.
func (e *NATSElector) StartParticipating(ctx context.Context) error {
	e.mu.Lock()
	if e.participating {
		e.mu.Unlock()
		return nil
	}
	e.participating = true
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	stopCh, doneCh := e.stopCh, e.doneCh
	e.mu.Unlock()

	if err := e.announce(ctx); err != nil {
		e.mu.Lock()
		e.participating = false
		e.mu.Unlock()

		return fmt.Errorf("failed to announce participant: %w", err)
	}

	acquired, err := e.tryAcquire(ctx)
	if err != nil {
		e.logger.Warn("initial leadership claim failed", "id", e.cfg.ID, "error", err)
	} else if acquired {
		e.sendGranted()
	}

	go e.renewLoop(stopCh, doneCh)

	return nil
}

// StopParticipating withdraws this participant's candidacy, releasing the
// lease if held and removing the roster entry. Best-effort with a bounded
// attempt; idempotent.
func (e *NATSElector) StopParticipating(ctx context.Context) error {
	e.mu.Lock()
	if !e.participating {
		e.mu.Unlock()
		return nil
	}
	e.participating = false
	close(e.stopCh)
	doneCh := e.doneCh
	e.mu.Unlock()

	<-doneCh

	wasLeader := e.IsLeader()

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	var cleanupErr error

	if wasLeader {
		if err := e.kv.Delete(cleanupCtx, e.cfg.Key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			cleanupErr = fmt.Errorf("failed to delete lease key: %w", err)
		}
		e.clearLeadership()
		e.sendRevoked(types.CauseRelinquished)
	}

	if err := e.kv.Delete(cleanupCtx, e.rosterKey()); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		if cleanupErr == nil {
			cleanupErr = fmt.Errorf("failed to delete roster entry: %w", err)
		}
	}

	return cleanupErr
}

// IsLeader reports whether this participant currently holds the lease.
func (e *NATSElector) IsLeader() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.isLeader
}

// Leader returns the current leader, or types.NoLeader if the lease key is
// absent.
func (e *NATSElector) Leader(ctx context.Context) (types.Participant, error) {
	entry, err := e.kv.Get(ctx, e.cfg.Key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return types.NoLeader, nil
		}

		return types.NoLeader, fmt.Errorf("failed to get lease key: %w", err)
	}

	return types.Participant{ID: string(entry.Value()), IsLeader: true}, nil
}

// Participants returns a fresh roster snapshot, leader first when present.
func (e *NATSElector) Participants(ctx context.Context) ([]types.Participant, error) {
	leader, err := e.Leader(ctx)
	if err != nil {
		return nil, err
	}

	keys, err := e.kv.Keys(ctx)
	if err != nil {
		if kvutil.IsNoKeysFound(err) {
			return []types.Participant{}, nil
		}

		return nil, fmt.Errorf("failed to list roster keys: %w", err)
	}

	prefix := e.cfg.RosterPrefix + "."
	participants := make([]types.Participant, 0, len(keys))
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		entry, err := e.kv.Get(ctx, key)
		if err != nil {
			// Entry expired between listing and read.
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				continue
			}

			return nil, fmt.Errorf("failed to read roster entry %s: %w", key, err)
		}

		id := string(entry.Value())
		participants = append(participants, types.Participant{
			ID:       id,
			IsLeader: id == leader.ID && leader.IsLeader,
		})
	}

	// Leader first, remaining candidates in stable order.
	sort.Slice(participants, func(i, j int) bool {
		if participants[i].IsLeader != participants[j].IsLeader {
			return participants[i].IsLeader
		}

		return participants[i].ID < participants[j].ID
	})

	if e.metrics != nil {
		e.metrics.SetParticipants(len(participants))
	}

	return participants, nil
}

// Granted returns the leadership-acquired event channel.
func (e *NATSElector) Granted() <-chan struct{} {
	return e.grantedCh
}

// Revoked returns the leadership-lost event channel.
func (e *NATSElector) Revoked() <-chan types.RevokeCause {
	return e.revokedCh
}

// renewLoop renews the lease while leading and attempts to claim it while
// following, refreshing the roster entry on every tick.
func (e *NATSElector) renewLoop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(e.cfg.RenewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			ctx, cancel := e.opContext()
			e.tick(ctx)
			cancel()
		}
	}
}

// tick performs one renewal-loop iteration.
func (e *NATSElector) tick(ctx context.Context) {
	if err := e.announce(ctx); err != nil {
		e.logger.Warn("failed to refresh roster entry", "id", e.cfg.ID, "error", err)
	}

	if e.IsLeader() {
		if err := e.renew(ctx); err != nil {
			e.logger.Warn("lost leadership", "id", e.cfg.ID, "error", err)
			e.clearLeadership()
			e.sendRevoked(types.CauseSessionLost)
		}

		return
	}

	acquired, err := e.tryAcquire(ctx)
	if err != nil {
		e.logger.Warn("leadership claim failed", "id", e.cfg.ID, "error", err)

		return
	}

	if acquired {
		e.sendGranted()
	}
}

// tryAcquire attempts to atomically create the lease key.
//
// Returns:
//   - bool: true if leadership was acquired
//   - error: KV error other than "key exists"
func (e *NATSElector) tryAcquire(ctx context.Context) (bool, error) {
	revision, err := e.kv.Create(ctx, e.cfg.Key, []byte(e.cfg.ID))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return false, nil
		}

		return false, fmt.Errorf("failed to create lease key: %w", err)
	}

	e.mu.Lock()
	e.isLeader = true
	e.revision = revision
	e.mu.Unlock()

	e.logger.Info("leadership acquired", "id", e.cfg.ID)
	if e.metrics != nil {
		e.metrics.RecordLeadershipAcquired(e.cfg.ID)
	}

	return true, nil
}

// renew extends the lease using a revision-checked update, failing if another
// participant has taken over.
func (e *NATSElector) renew(ctx context.Context) error {
	e.mu.Lock()
	isLeader, revision := e.isLeader, e.revision
	e.mu.Unlock()

	if !isLeader {
		return ErrNotLeader
	}

	newRevision, err := e.kv.Update(ctx, e.cfg.Key, []byte(e.cfg.ID), revision)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLeadershipLost, err)
	}

	e.mu.Lock()
	e.revision = newRevision
	e.mu.Unlock()

	return nil
}

// announce writes or refreshes this participant's roster entry.
func (e *NATSElector) announce(ctx context.Context) error {
	_, err := e.kv.Put(ctx, e.rosterKey(), []byte(e.cfg.ID))
	if err != nil {
		return fmt.Errorf("failed to put roster entry: %w", err)
	}

	return nil
}

// clearLeadership drops the local leadership flag.
func (e *NATSElector) clearLeadership() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.isLeader = false
	e.revision = 0
}

// sendGranted delivers a grant event without blocking. The channel has
// capacity one and the consumer drains it before a new acquisition can
// happen, so a full buffer means the event is already pending.
func (e *NATSElector) sendGranted() {
	select {
	case e.grantedCh <- struct{}{}:
	default:
	}
}

// sendRevoked delivers a revoke event without blocking.
func (e *NATSElector) sendRevoked(cause types.RevokeCause) {
	if e.metrics != nil {
		e.metrics.RecordLeadershipLost(cause.String())
	}

	select {
	case e.revokedCh <- cause:
	default:
	}
}

// rosterKey returns the KV key for this participant's roster entry. The raw
// ID may contain characters NATS KV keys forbid (such as ':'), so it is
// sanitized; the authoritative ID always lives in the entry value.
func (e *NATSElector) rosterKey() string {
	return e.cfg.RosterPrefix + "." + sanitizeKey(e.cfg.ID)
}

// sanitizeKey maps an arbitrary participant ID onto the NATS KV key alphabet.
func sanitizeKey(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	return b.String()
}

// opContext builds the bounded context for one renewal-loop iteration.
func (e *NATSElector) opContext() (context.Context, context.CancelFunc) {
	if e.cfg.OpTimeout <= 0 {
		return context.WithCancel(context.Background())
	}

	return context.WithTimeout(context.Background(), e.cfg.OpTimeout)
}
