// Package hooks provides default hook implementations.
package hooks

import (
	"context"

	"github.com/arloliu/leadersvc/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default used when no custom hooks are provided, eliminating
// the need for nil checks throughout the codebase.
type NopHooks struct{}

// NewNop creates a new no-op hooks implementation.
//
// Returns:
//   - types.Hooks: Hooks with no-op implementations
func NewNop() types.Hooks {
	h := &NopHooks{}
	return types.Hooks{
		OnStateChanged:      h.OnStateChanged,
		OnLeadershipChanged: h.OnLeadershipChanged,
		OnDelegateEvent:     h.OnDelegateEvent,
		OnError:             h.OnError,
	}
}

// OnStateChanged is a no-op implementation.
func (h *NopHooks) OnStateChanged(_ context.Context, _, _ types.State) error {
	return nil
}

// OnLeadershipChanged is a no-op implementation.
func (h *NopHooks) OnLeadershipChanged(_ context.Context, _ bool, _ types.RevokeCause) error {
	return nil
}

// OnDelegateEvent is a no-op implementation.
func (h *NopHooks) OnDelegateEvent(_ context.Context, _ types.DelegateEvent) error {
	return nil
}

// OnError is a no-op implementation.
func (h *NopHooks) OnError(_ context.Context, _ error) error {
	return nil
}
