package workflows

import (
	"context"

	"github.com/PolarWolf314/reclaim/internal/audit"
	"github.com/PolarWolf314/reclaim/internal/recovery"
)

// CreateOptions configures the create workflow.
type CreateOptions struct {
	// SecretIDs limits the backup. If nil, all local secrets are backed up.
	SecretIDs []string

	// Passphrase protects the recovery. If empty, a random key is generated
	// and only the recovery key can unlock it.
	Passphrase string
}

// CreateResult contains the outcome of a create operation.
type CreateResult struct {
	Info *recovery.CreationInfo

	// Replaced is the key ID of the recovery this one superseded, if any.
	Replaced string
}

// Create backs up local secrets to a new recovery.
//
// Returns ErrNoSecretsToBackUp if there is nothing to back up.
// Returns ErrRecoveryOperationInProgress if another mutation is running.
// Returns ErrRecoveryStoreUnavailable if the remote store fails; the
// previous recovery is then left in place.
func Create(ctx context.Context, env *Environment, opts CreateOptions) (*CreateResult, error) {
	info, err := env.Service.CreateRecoveryForSecrets(ctx, opts.SecretIDs, opts.Passphrase)
	if err != nil {
		return nil, err
	}

	env.Audit.Log(audit.Entry{
		Operation:    audit.OpCreate,
		KeyID:        info.Descriptor.ID,
		Backend:      env.Config.Store.Backend,
		Passphrase:   info.Descriptor.UsePassphrase(),
		Secrets:      info.SecretIDs,
		SecretsCount: len(info.SecretIDs),
	})

	return &CreateResult{Info: info, Replaced: info.Replaced}, nil
}
