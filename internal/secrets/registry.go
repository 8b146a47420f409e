package secrets

import (
	"context"
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/reclaim/internal/errors"
)

// DescriptorStore persists storage key descriptors and tracks the default one.
type DescriptorStore interface {
	// DefaultDescriptor returns ErrDescriptorNotFound when no default exists.
	DefaultDescriptor(ctx context.Context) (*StorageKeyDescriptor, error)
	PutDescriptor(ctx context.Context, desc *StorageKeyDescriptor, makeDefault bool) error
}

// Registry creates, publishes, and verifies storage keys against a DescriptorStore.
type Registry struct {
	store      DescriptorStore
	iterations int
}

// NewRegistry creates a Registry. iterations < 1 selects DefaultIterations.
func NewRegistry(store DescriptorStore, iterations int) *Registry {
	if iterations < 1 {
		iterations = DefaultIterations
	}
	return &Registry{store: store, iterations: iterations}
}

// Create generates a new storage key. Nothing is published.
func (r *Registry) Create(passphrase string) (*StorageKeyDescriptor, []byte, string, error) {
	return CreateStorageKey(passphrase, WithIterations(r.iterations))
}

// Verify reports whether candidate matches desc.
func (r *Registry) Verify(candidate []byte, desc *StorageKeyDescriptor) bool {
	return VerifyStorageKey(candidate, desc)
}

// Default returns the current default descriptor, or nil when there is none.
func (r *Registry) Default(ctx context.Context) (*StorageKeyDescriptor, error) {
	desc, err := r.store.DefaultDescriptor(ctx)
	if errors.Is(err, kerrors.ErrDescriptorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	desc.Default = true
	return desc, nil
}

// Publish stores desc, optionally superseding the current default.
// The superseded descriptor is left in place.
func (r *Registry) Publish(ctx context.Context, desc *StorageKeyDescriptor, makeDefault bool) error {
	if desc == nil || desc.ID == "" {
		return fmt.Errorf("cannot publish a descriptor without an ID")
	}
	if err := r.store.PutDescriptor(ctx, desc, makeDefault); err != nil {
		return err
	}
	if makeDefault {
		desc.Default = true
	}
	return nil
}
