package realtime

import (
	"context"
	"errors"

	"github.com/yeremiapane/dinein-lifecycle/store"
)

// BindingRegistry keeps the single current endpoint of a logical role, such as
// the kitchen display, in the durable store so every instance agrees on it.
type BindingRegistry struct {
	store      *store.Store
	instanceID string
}

func NewBindingRegistry(st *store.Store, instanceID string) *BindingRegistry {
	return &BindingRegistry{store: st, instanceID: instanceID}
}

// Register makes endpointID the endpoint for role, superseding any other.
func (b *BindingRegistry) Register(ctx context.Context, role, endpointID string) error {
	return b.store.UpsertBinding(ctx, role, endpointID, b.instanceID)
}

// Release clears the binding if endpointID is still the current one.
func (b *BindingRegistry) Release(ctx context.Context, role, endpointID string) error {
	return b.store.ClearBinding(ctx, role, endpointID)
}

// Current returns the endpoint bound to role, or false if none is.
func (b *BindingRegistry) Current(ctx context.Context, role string) (string, bool, error) {
	binding, err := b.store.FindBinding(ctx, role)
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return binding.EndpointID, true, nil
}
