package workflows

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/PolarWolf314/reclaim/internal/audit"
	kerrors "github.com/PolarWolf314/reclaim/internal/errors"
)

// ImportOptions configures the import workflow.
type ImportOptions struct {
	ID    string
	Value []byte

	// TrimSpace removes surrounding whitespace from Value. Use it for typed
	// or piped text; file contents are stored byte for byte.
	TrimSpace bool

	// Force overwrites an existing local secret.
	Force bool
}

// ImportResult contains the outcome of an import operation.
type ImportResult struct {
	ID       string
	Replaced bool
}

// Import stores a secret in the local inventory so it can be backed up.
// Returns ErrSecretExists if the secret is held locally and Force is not set.
func Import(ctx context.Context, env *Environment, opts ImportOptions) (*ImportResult, error) {
	if opts.ID == "" {
		return nil, errors.New("secret ID is required")
	}
	value := opts.Value
	if opts.TrimSpace {
		value = bytes.TrimSpace(value)
	}
	if len(value) == 0 {
		return nil, errors.New("secret value is empty")
	}

	_, err := env.Inventory.Secret(ctx, opts.ID)
	exists := err == nil
	if err != nil && !errors.Is(err, kerrors.ErrSecretNotFound) {
		return nil, fmt.Errorf("reading local secret: %w", err)
	}
	if exists && !opts.Force {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrSecretExists, opts.ID)
	}

	if err = env.Inventory.SetSecret(ctx, opts.ID, value); err != nil {
		return nil, fmt.Errorf("writing local secret: %w", err)
	}

	env.Audit.Log(audit.Entry{
		Operation:     audit.OpImport,
		Secrets:       []string{opts.ID},
		ImportedBytes: len(value),
	})

	return &ImportResult{ID: opts.ID, Replaced: exists}, nil
}
