package workflows

import (
	"context"

	"github.com/PolarWolf314/reclaim/internal/recovery"
)

// SecretStatus describes where one secret is held.
type SecretStatus struct {
	ID       string
	Local    bool
	BackedUp bool
}

// StatusResult contains the recovery state of this device.
type StatusResult struct {
	State   *recovery.State
	Backend string

	// Secrets is the union of local and stored secrets, sorted by ID.
	Secrets []SecretStatus
}

// Status reports whether a recovery exists and which secrets it covers.
//
// Returns ErrRecoveryStoreUnavailable if the remote store cannot be queried.
func Status(ctx context.Context, env *Environment) (*StatusResult, error) {
	state, err := env.Service.State(ctx)
	if err != nil {
		return nil, err
	}

	return &StatusResult{
		State:   state,
		Backend: env.Config.Store.Backend,
		Secrets: mergeSecretStatus(state.LocallyStoredSecrets, state.StoredSecrets),
	}, nil
}

// mergeSecretStatus merges two sorted ID lists.
func mergeSecretStatus(local, stored []string) []SecretStatus {
	var out []SecretStatus
	i, j := 0, 0
	for i < len(local) || j < len(stored) {
		switch {
		case j >= len(stored) || (i < len(local) && local[i] < stored[j]):
			out = append(out, SecretStatus{ID: local[i], Local: true})
			i++
		case i >= len(local) || stored[j] < local[i]:
			out = append(out, SecretStatus{ID: stored[j], BackedUp: true})
			j++
		default:
			out = append(out, SecretStatus{ID: local[i], Local: true, BackedUp: true})
			i++
			j++
		}
	}
	return out
}
