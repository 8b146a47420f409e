package recovery

import (
	"context"
	"fmt"

	kerrors "github.com/PolarWolf314/reclaim/internal/errors"
)

// DeleteRecovery removes the default recovery. The descriptor itself is
// kept so older backups stay inspectable; with deleteSecrets the secrets
// stored under it are removed too. It returns the ID of the removed key.
//
// Returns ErrNoRecovery if there is no default descriptor.
func (s *Service) DeleteRecovery(ctx context.Context, deleteSecrets bool) (string, error) {
	if !s.createMu.TryLock() {
		return "", kerrors.ErrRecoveryOperationInProgress
	}
	defer s.createMu.Unlock()

	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	desc, err := s.defaultDescriptor(ctx)
	if err != nil {
		return "", err
	}
	if desc == nil {
		return "", kerrors.ErrNoRecovery
	}

	if err = s.remote.ClearDefault(ctx); err != nil {
		return "", unavailable(fmt.Errorf("clearing default storage key: %w", err))
	}
	s.log.Infof("Removed default storage key %s", desc.ID)

	if !deleteSecrets {
		return desc.ID, nil
	}
	ids, err := s.storedSecrets(ctx, desc)
	if err != nil {
		return desc.ID, err
	}
	for _, id := range ids {
		if err = s.remote.DeleteEncryptedSecret(ctx, id, desc.ID); err != nil {
			return desc.ID, unavailable(fmt.Errorf("deleting %s: %w", id, err))
		}
	}
	s.log.Debugf("Deleted %d secrets under %s", len(ids), desc.ID)
	return desc.ID, nil
}
