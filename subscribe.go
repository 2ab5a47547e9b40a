package leadersvc

import (
	"sync"
)

// stateSubscriber is a helper for managing state change subscriptions.
type stateSubscriber struct {
	ch     chan State
	mu     sync.Mutex
	closed bool
}

// trySend sends a state update to the subscriber's channel without blocking.
func (s *stateSubscriber) trySend(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	select {
	case s.ch <- state:
	default:
		// Subscriber is slow or not ready; they will get the next update.
	}
}

// close safely closes the subscriber's channel.
func (s *stateSubscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Subscribe returns a channel that receives state change notifications.
//
// The returned channel is buffered (size 4) so the full Contending → Leading
// → Contending cycle of a short acquisition can be queued without blocking
// the state machine. The subscriber receives the current state immediately
// upon subscription. Updates are dropped, not queued, for subscribers that
// fall further behind.
//
// All subscriber channels are closed when the service reaches StateStopped.
//
// Returns:
//   - <-chan State: Channel that receives state updates
//   - func(): Unsubscribe function to clean up resources
//
// Example:
//
//	ch, unsubscribe := svc.Subscribe()
//	defer unsubscribe()
//	for state := range ch {
//	    fmt.Printf("state changed to: %s\n", state)
//	}
func (s *LeaderService) Subscribe() (<-chan State, func()) {
	id := s.nextSubscriberID.Add(1)

	sub := &stateSubscriber{ch: make(chan State, 4)}
	s.subscribers.Store(id, sub)

	// Immediately send the current state
	sub.trySend(s.State())

	unsubscribe := func() {
		s.removeSubscriber(id)
	}

	return sub.ch, unsubscribe
}

// removeSubscriber removes a subscriber and closes its channel.
func (s *LeaderService) removeSubscriber(id uint64) {
	if sub, ok := s.subscribers.LoadAndDelete(id); ok {
		sub.close()
	}
}

// notifySubscribers fans a state change out to all subscribers.
func (s *LeaderService) notifySubscribers(state State) {
	s.subscribers.Range(func(_ uint64, sub *stateSubscriber) bool {
		sub.trySend(state)

		return true
	})
}

// closeSubscribers closes every subscriber channel. Called once the service
// reaches its terminal state so range-based consumers terminate.
func (s *LeaderService) closeSubscribers() {
	s.subscribers.Range(func(id uint64, _ *stateSubscriber) bool {
		s.removeSubscriber(id)

		return true
	})
}
