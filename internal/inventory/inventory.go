// Package inventory holds the plaintext secrets known to this device.
//
// The inventory is the local side of recovery: secrets are backed up from
// it and restored into it. Values are opaque byte strings keyed by secret ID.
package inventory

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	kerrors "github.com/PolarWolf314/reclaim/internal/errors"
	"github.com/PolarWolf314/reclaim/internal/kv"
	"github.com/PolarWolf314/reclaim/internal/kv/kvdiskv"
	"github.com/PolarWolf314/reclaim/internal/kv/kvmap"
)

// Inventory is the set of locally held secrets.
type Inventory interface {
	// SecretIDs returns the IDs of all secrets held locally.
	SecretIDs(ctx context.Context) ([]string, error)

	// Secret returns the value for id.
	// ErrSecretNotFound is returned if it is not held.
	Secret(ctx context.Context, id string) ([]byte, error)

	// SetSecret stores value for id, replacing any previous value.
	SetSecret(ctx context.Context, id string, value []byte) error
}

// KV is an inventory backed by a key-value bucket.
// Each secret is one bucket value, so a write replaces it as a whole.
type KV struct {
	b kv.TraversingBucket
}

func New(b kv.TraversingBucket) *KV {
	return &KV{b: b}
}

// NewInMem creates an inventory that lives only in memory.
func NewInMem() *KV {
	return New(kvmap.NewBucket())
}

// NewDiskv creates an inventory stored in the directory at path.
// The inventory belongs to this device, so reads are cached.
func NewDiskv(path string) *KV {
	return New(kvdiskv.New(filepath.Clean(path), kvdiskv.WithCache(1024*1024)))
}

func encodeID(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

func (s *KV) SecretIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for _, k := range kv.KeysWithPrefix(ctx, s.b, "") {
		id, err := base64.RawURLEncoding.DecodeString(k)
		if err != nil {
			// not one of ours
			continue
		}
		ids = append(ids, string(id))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *KV) Secret(ctx context.Context, id string) ([]byte, error) {
	v, err := s.b.Get(ctx, encodeID(id))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrSecretNotFound, id)
	}
	return v, err
}

func (s *KV) SetSecret(ctx context.Context, id string, value []byte) error {
	if id == "" {
		return errors.New("empty secret ID")
	}
	return s.b.Set(ctx, encodeID(id), value)
}
