package workflows

import (
	"context"

	"github.com/PolarWolf314/reclaim/internal/audit"
)

// DeleteOptions configures the delete workflow.
type DeleteOptions struct {
	// KeepSecrets leaves the encrypted secrets in the store.
	KeepSecrets bool
}

// DeleteResult contains the outcome of a delete operation.
type DeleteResult struct {
	KeyID string
}

// Delete removes the current recovery.
//
// Returns ErrNoRecovery if no recovery exists.
func Delete(ctx context.Context, env *Environment, opts DeleteOptions) (*DeleteResult, error) {
	keyID, err := env.Service.DeleteRecovery(ctx, !opts.KeepSecrets)
	if keyID != "" {
		// the default is gone even if deleting secrets failed
		env.Audit.Log(audit.Entry{
			Operation:   audit.OpDelete,
			KeyID:       keyID,
			Backend:     env.Config.Store.Backend,
			SecretsKept: opts.KeepSecrets,
		})
	}
	if err != nil {
		return nil, err
	}
	return &DeleteResult{KeyID: keyID}, nil
}
