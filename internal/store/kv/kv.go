// Package kv implements a recovery store on top of a key-value bucket.
package kv

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	kerrors "github.com/PolarWolf314/reclaim/internal/errors"
	"github.com/PolarWolf314/reclaim/internal/kv"
	"github.com/PolarWolf314/reclaim/internal/secrets"
)

const (
	keyDefault          = "default"
	keyDescriptorPrefix = "key."
	keySecretPrefix     = "secret."
)

// KV is a recovery store backed by a traversing key-value bucket.
// Descriptors and secrets are stored as JSON documents.
type KV struct {
	mu sync.RWMutex
	b  kv.TraversingBucket
}

func New(b kv.TraversingBucket) *KV {
	return &KV{b: b}
}

func descriptorKey(id string) string {
	return keyDescriptorPrefix + id
}

func secretPrefix(descriptorID string) string {
	return keySecretPrefix + descriptorID + "."
}

// secretKey encodes secretID so that any ID is a safe bucket key.
func secretKey(secretID, descriptorID string) string {
	return secretPrefix(descriptorID) + base64.RawURLEncoding.EncodeToString([]byte(secretID))
}

func (s *KV) descriptor(ctx context.Context, id string) (*secrets.StorageKeyDescriptor, error) {
	raw, err := s.b.Get(ctx, descriptorKey(id))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrDescriptorNotFound, id)
	} else if err != nil {
		return nil, fmt.Errorf("getting descriptor %s: %w", id, err)
	}
	desc := new(secrets.StorageKeyDescriptor)
	if err = json.Unmarshal(raw, desc); err != nil {
		return nil, fmt.Errorf("unmarshal descriptor %s: %w", id, err)
	}
	return desc, nil
}

func (s *KV) defaultID(ctx context.Context) (string, error) {
	raw, err := s.b.Get(ctx, keyDefault)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return "", nil
	}
	return string(raw), err
}

func (s *KV) DefaultDescriptor(ctx context.Context) (*secrets.StorageKeyDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, err := s.defaultID(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting default: %w", err)
	}
	if id == "" {
		return nil, kerrors.ErrDescriptorNotFound
	}
	desc, err := s.descriptor(ctx, id)
	if err != nil {
		return nil, err
	}
	desc.Default = true
	return desc, nil
}

func (s *KV) Descriptor(ctx context.Context, id string) (*secrets.StorageKeyDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	desc, err := s.descriptor(ctx, id)
	if err != nil {
		return nil, err
	}
	defID, err := s.defaultID(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting default: %w", err)
	}
	desc.Default = defID == id
	return desc, nil
}

func (s *KV) PutDescriptor(ctx context.Context, desc *secrets.StorageKeyDescriptor, makeDefault bool) error {
	if desc == nil || desc.ID == "" {
		return errors.New("descriptor has no ID")
	}
	raw, err := json.Marshal(desc)
	if err != nil {
		return fmt.Errorf("marshal descriptor: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err = s.b.Set(ctx, descriptorKey(desc.ID), raw); err != nil {
		return fmt.Errorf("setting descriptor %s: %w", desc.ID, err)
	}
	if makeDefault {
		if err = s.b.Set(ctx, keyDefault, []byte(desc.ID)); err != nil {
			return fmt.Errorf("setting default: %w", err)
		}
	}
	return nil
}

func (s *KV) ClearDefault(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Delete(ctx, keyDefault)
}

func (s *KV) PutEncryptedSecret(ctx context.Context, secretID, descriptorID string, enc *secrets.EncryptedSecret) error {
	if enc == nil {
		return errors.New("nil encrypted secret")
	}
	raw, err := json.Marshal(enc)
	if err != nil {
		return fmt.Errorf("marshal secret: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	found, err := s.b.Has(ctx, descriptorKey(descriptorID))
	if err != nil {
		return fmt.Errorf("checking descriptor %s: %w", descriptorID, err)
	}
	if !found {
		return fmt.Errorf("%w: %s", kerrors.ErrDescriptorNotFound, descriptorID)
	}
	return s.b.Set(ctx, secretKey(secretID, descriptorID), raw)
}

func (s *KV) EncryptedSecret(ctx context.Context, secretID, descriptorID string) (*secrets.EncryptedSecret, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, err := s.b.Get(ctx, secretKey(secretID, descriptorID))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrSecretNotFound, secretID)
	} else if err != nil {
		return nil, fmt.Errorf("getting secret %s: %w", secretID, err)
	}
	enc := new(secrets.EncryptedSecret)
	if err = json.Unmarshal(raw, enc); err != nil {
		return nil, fmt.Errorf("unmarshal secret %s: %w", secretID, err)
	}
	return enc, nil
}

func (s *KV) SecretIDs(ctx context.Context, descriptorID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefix := secretPrefix(descriptorID)
	var ids []string
	for _, k := range kv.KeysWithPrefix(ctx, s.b, prefix) {
		id, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(k, prefix))
		if err != nil {
			return nil, fmt.Errorf("decoding secret key %s: %w", k, err)
		}
		ids = append(ids, string(id))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *KV) DeleteEncryptedSecret(ctx context.Context, secretID, descriptorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Delete(ctx, secretKey(secretID, descriptorID))
}
