package workflows

import (
	"context"
	"errors"

	"github.com/PolarWolf314/reclaim/internal/audit"
	"github.com/PolarWolf314/reclaim/internal/recovery"
	"github.com/PolarWolf314/reclaim/internal/secrets"
)

// RestoreOptions configures the restore workflow.
// Exactly one of RecoveryKey and Passphrase must be set.
type RestoreOptions struct {
	// SecretIDs limits the restore. If nil, every stored secret is restored.
	SecretIDs []string

	RecoveryKey string
	Passphrase  string
}

// RestoreResult contains the outcome of a restore operation.
type RestoreResult struct {
	Outcome *recovery.Outcome
	KeyID   string
}

// Restore recovers secrets into the local inventory.
//
// Returns ErrInvalidRecoveryKey if the recovery key is malformed.
// Returns ErrNoRecovery if no recovery exists.
// Returns ErrNotAPassphraseRecovery if a passphrase is given for a random key.
// Returns ErrInvalidPrivateKey if the key does not unlock the recovery.
func Restore(ctx context.Context, env *Environment, opts RestoreOptions) (*RestoreResult, error) {
	var key []byte
	var err error
	switch {
	case opts.RecoveryKey != "" && opts.Passphrase != "":
		return nil, errors.New("use either a recovery key or a passphrase, not both")
	case opts.RecoveryKey != "":
		key, err = env.Service.PrivateKeyFromRecoveryKey(opts.RecoveryKey)
	case opts.Passphrase != "":
		key, err = env.Service.PrivateKeyFromPassphrase(ctx, opts.Passphrase)
	default:
		return nil, errors.New("a recovery key or passphrase is required")
	}
	if err != nil {
		return nil, err
	}
	defer secrets.Zero(key)

	outcome, err := env.Service.RecoverSecrets(ctx, opts.SecretIDs, key)
	if err != nil {
		return nil, err
	}

	env.Audit.Log(audit.Entry{
		Operation:    audit.OpRestore,
		KeyID:        outcome.KeyID,
		Backend:      env.Config.Store.Backend,
		Secrets:      outcome.UpdatedSecrets,
		SecretsCount: len(outcome.Secrets),
		UpdatedCount: len(outcome.UpdatedSecrets),
		InvalidCount: len(outcome.InvalidSecrets),
	})

	return &RestoreResult{Outcome: outcome, KeyID: outcome.KeyID}, nil
}
