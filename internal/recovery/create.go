package recovery

import (
	"context"
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/reclaim/internal/errors"
	"github.com/PolarWolf314/reclaim/internal/secrets"
)

type stagedSecret struct {
	id  string
	enc *secrets.EncryptedSecret
}

// CreateRecoveryForSecrets backs up secretIDs under a new storage key and
// makes it the default. A nil secretIDs backs up every local secret; IDs
// not held locally are skipped. An empty passphrase creates a random key.
//
// Returns ErrNoSecretsToBackUp if nothing is left to back up.
// Returns ErrRecoveryOperationInProgress if another mutation is running.
// Returns ErrRecoveryStoreUnavailable if publishing fails, in which case
// the previous recovery, if any, is still the default.
func (s *Service) CreateRecoveryForSecrets(ctx context.Context, secretIDs []string, passphrase string) (*CreationInfo, error) {
	if !s.createMu.TryLock() {
		return nil, kerrors.ErrRecoveryOperationInProgress
	}
	defer s.createMu.Unlock()

	targets, err := s.resolveLocal(ctx, secretIDs)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, kerrors.ErrNoSecretsToBackUp
	}

	desc, key, recoveryKey, err := s.registry.Create(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating storage key: %w", err)
	}
	s.log.Debugf("Created storage key %s (passphrase: %t)", desc.ID, desc.UsePassphrase())

	staged := make([]stagedSecret, 0, len(targets))
	for _, id := range targets {
		plaintext, err := s.inv.Secret(ctx, id)
		if err != nil {
			secrets.Zero(key)
			return nil, fmt.Errorf("reading local secret %s: %w", id, err)
		}
		enc, err := secrets.EncryptSecret(plaintext, key, id)
		secrets.Zero(plaintext)
		if err != nil {
			secrets.Zero(key)
			return nil, fmt.Errorf("encrypting %s: %w", id, err)
		}
		enc.KeyID = desc.ID
		staged = append(staged, stagedSecret{id: id, enc: enc})
	}

	replaced, err := s.publish(ctx, desc, staged)
	if err != nil {
		secrets.Zero(key)
		return nil, err
	}
	s.log.Infof("Backed up %d secrets under storage key %s", len(staged), desc.ID)

	return &CreationInfo{
		Descriptor:  desc,
		PrivateKey:  key,
		RecoveryKey: recoveryKey,
		SecretIDs:   targets,
		Replaced:    replaced,
	}, nil
}

// resolveLocal narrows ids to the secrets held locally.
func (s *Service) resolveLocal(ctx context.Context, ids []string) ([]string, error) {
	local, err := s.inv.SecretIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing local secrets: %w", err)
	}
	if ids == nil {
		return local, nil
	}
	held := make(map[string]struct{}, len(local))
	for _, id := range local {
		held[id] = struct{}{}
	}
	var targets []string
	for _, id := range dedupe(ids) {
		if _, ok := held[id]; ok {
			targets = append(targets, id)
		} else {
			s.log.Warnf("Secret %s is not stored locally, skipping", id)
		}
	}
	return targets, nil
}

// publish makes desc and staged visible and returns the ID of the default
// it replaced. desc only becomes the default once every secret is stored.
func (s *Service) publish(ctx context.Context, desc *secrets.StorageKeyDescriptor, staged []stagedSecret) (string, error) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	var replaced string
	prev, err := s.defaultDescriptor(ctx)
	if err != nil {
		return "", err
	}
	if prev != nil {
		replaced = prev.ID
	}

	if err := s.registry.Publish(ctx, desc, false); err != nil {
		return "", unavailable(fmt.Errorf("publishing storage key: %w", err))
	}
	for _, st := range staged {
		if err := s.remote.PutEncryptedSecret(ctx, st.id, desc.ID, st.enc); err != nil {
			if errors.Is(err, kerrors.ErrDescriptorNotFound) {
				return "", unavailable(fmt.Errorf("storage key %s vanished while publishing: %w", desc.ID, err))
			}
			return "", unavailable(fmt.Errorf("storing %s: %w", st.id, err))
		}
	}
	if err := s.registry.Publish(ctx, desc, true); err != nil {
		return "", unavailable(fmt.Errorf("making storage key default: %w", err))
	}
	return replaced, nil
}
