// Package store defines the remote encrypted secret store used by recovery.
//
// A store holds storage key descriptors, a pointer to the default
// descriptor, and encrypted secret blobs. Each blob is addressed by the
// pair (secret ID, descriptor ID). Stores only ever see ciphertext.
package store

import (
	"context"

	"github.com/PolarWolf314/reclaim/internal/secrets"
)

// Store is the remote encrypted store.
type Store interface {
	// DefaultDescriptor returns the current default descriptor.
	// ErrDescriptorNotFound is returned if none is set.
	DefaultDescriptor(ctx context.Context) (*secrets.StorageKeyDescriptor, error)

	// Descriptor returns the descriptor with id.
	// ErrDescriptorNotFound is returned if it does not exist.
	Descriptor(ctx context.Context, id string) (*secrets.StorageKeyDescriptor, error)

	// PutDescriptor stores desc, replacing any descriptor with the same ID.
	// If makeDefault is true desc becomes the default descriptor. The
	// previous default, if any, is kept but is no longer the default.
	PutDescriptor(ctx context.Context, desc *secrets.StorageKeyDescriptor, makeDefault bool) error

	// ClearDefault unsets the default descriptor. Descriptors are kept.
	ClearDefault(ctx context.Context) error

	// PutEncryptedSecret stores enc for secretID under descriptorID.
	// ErrDescriptorNotFound is returned if descriptorID is unknown.
	PutEncryptedSecret(ctx context.Context, secretID, descriptorID string, enc *secrets.EncryptedSecret) error

	// EncryptedSecret retrieves the blob for secretID under descriptorID.
	// ErrSecretNotFound is returned if it does not exist.
	EncryptedSecret(ctx context.Context, secretID, descriptorID string) (*secrets.EncryptedSecret, error)

	// SecretIDs lists the secret IDs stored under descriptorID.
	SecretIDs(ctx context.Context, descriptorID string) ([]string, error)

	// DeleteEncryptedSecret removes a blob. Deleting a missing blob is not an error.
	DeleteEncryptedSecret(ctx context.Context, secretID, descriptorID string) error
}
