package recovery

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/reclaim/internal/errors"
	"github.com/PolarWolf314/reclaim/internal/secrets"
)

// PrivateKeyFromPassphrase derives the private key of the default recovery.
//
// Returns ErrNoRecovery if there is no default descriptor.
// Returns ErrNotAPassphraseRecovery if it was not created from a passphrase.
func (s *Service) PrivateKeyFromPassphrase(ctx context.Context, passphrase string) ([]byte, error) {
	s.stateMu.RLock()
	desc, err := s.defaultDescriptor(ctx)
	s.stateMu.RUnlock()
	if err != nil {
		return nil, err
	}
	if desc == nil {
		return nil, kerrors.ErrNoRecovery
	}
	if !desc.UsePassphrase() {
		return nil, kerrors.ErrNotAPassphraseRecovery
	}
	return secrets.KeyFromPassphrase(passphrase, desc)
}

// PrivateKeyFromRecoveryKey decodes a recovery key string. It does no I/O.
func (s *Service) PrivateKeyFromRecoveryKey(text string) ([]byte, error) {
	return secrets.DecodeRecoveryKey(text)
}

// IsValidPrivateKey reports whether key unlocks the default recovery.
func (s *Service) IsValidPrivateKey(ctx context.Context, key []byte) (bool, error) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	desc, err := s.defaultDescriptor(ctx)
	if err != nil {
		return false, err
	}
	if desc == nil {
		return false, kerrors.ErrNoRecovery
	}
	return s.registry.Verify(key, desc), nil
}

// RecoverSecrets decrypts secretIDs from the default recovery and writes
// new or changed values to the inventory. A nil secretIDs recovers every
// stored secret; IDs not stored remotely are skipped.
//
// Returns ErrNoRecovery if there is no default descriptor.
// Returns ErrInvalidPrivateKey if key does not match it.
// Returns ErrRecoveryStoreUnavailable if fetching fails; no outcome is
// returned in that case.
func (s *Service) RecoverSecrets(ctx context.Context, secretIDs []string, key []byte) (*Outcome, error) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	desc, err := s.defaultDescriptor(ctx)
	if err != nil {
		return nil, err
	}
	if desc == nil {
		return nil, kerrors.ErrNoRecovery
	}
	if !s.registry.Verify(key, desc) {
		return nil, kerrors.ErrInvalidPrivateKey
	}

	ids := secretIDs
	if ids == nil {
		if ids, err = s.storedSecrets(ctx, desc); err != nil {
			return nil, err
		}
	}
	ids = dedupe(ids)

	// fetch everything before touching local state
	blobs := make(map[string]*secrets.EncryptedSecret, len(ids))
	for _, id := range ids {
		enc, err := s.remote.EncryptedSecret(ctx, id, desc.ID)
		if errors.Is(err, kerrors.ErrSecretNotFound) {
			s.log.Warnf("Secret %s is not in the recovery, skipping", id)
			continue
		} else if err != nil {
			return nil, unavailable(fmt.Errorf("fetching %s: %w", id, err))
		}
		blobs[id] = enc
	}

	outcome := &Outcome{KeyID: desc.ID, Secrets: make(map[string][]byte, len(blobs))}
	for _, id := range ids {
		enc, ok := blobs[id]
		if !ok {
			continue
		}
		plaintext, err := secrets.DecryptSecret(enc, key, id)
		if err != nil {
			s.log.Warnf("Secret %s failed to decrypt: %v", id, err)
			outcome.InvalidSecrets = append(outcome.InvalidSecrets, id)
			continue
		}
		if !s.isValid(ctx, id, plaintext) {
			s.log.Warnf("Secret %s failed validation", id)
			outcome.InvalidSecrets = append(outcome.InvalidSecrets, id)
			continue
		}

		updated, err := s.reconcile(ctx, id, plaintext)
		if err != nil {
			return nil, err
		}
		if updated {
			outcome.UpdatedSecrets = append(outcome.UpdatedSecrets, id)
		}
		outcome.Secrets[id] = plaintext
	}

	s.log.Infof("Recovered %d secrets (%d updated, %d invalid)",
		len(outcome.Secrets), len(outcome.UpdatedSecrets), len(outcome.InvalidSecrets))
	return outcome, nil
}

// reconcile writes plaintext locally unless the inventory already holds it.
func (s *Service) reconcile(ctx context.Context, id string, plaintext []byte) (bool, error) {
	current, err := s.inv.Secret(ctx, id)
	if err != nil && !errors.Is(err, kerrors.ErrSecretNotFound) {
		return false, fmt.Errorf("reading local secret %s: %w", id, err)
	}
	if err == nil && bytes.Equal(current, plaintext) {
		return false, nil
	}
	if err = s.inv.SetSecret(ctx, id, plaintext); err != nil {
		return false, fmt.Errorf("writing local secret %s: %w", id, err)
	}
	return true, nil
}
