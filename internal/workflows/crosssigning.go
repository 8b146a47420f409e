package workflows

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/PolarWolf314/reclaim/internal/audit"
	"github.com/PolarWolf314/reclaim/internal/configs"
	"github.com/PolarWolf314/reclaim/internal/crosssigning"
	kerrors "github.com/PolarWolf314/reclaim/internal/errors"
)

// GenerateCrossSigningOptions configures the generate-cross-signing workflow.
type GenerateCrossSigningOptions struct {
	// Force replaces cross-signing secrets that are already held locally.
	Force bool
}

// GenerateCrossSigningResult contains the new public keys by secret ID.
type GenerateCrossSigningResult struct {
	PublicKeys map[string]string
}

// GenerateCrossSigning creates new cross-signing keys, stores the secrets
// locally, and records their public keys as trusted in the config.
//
// Returns ErrSecretExists if any cross-signing secret is present and Force is not set.
func GenerateCrossSigning(ctx context.Context, env *Environment, opts GenerateCrossSigningOptions) (*GenerateCrossSigningResult, error) {
	if !opts.Force {
		for _, id := range crosssigning.IDs() {
			_, err := env.Inventory.Secret(ctx, id)
			if err == nil {
				return nil, fmt.Errorf("%w: %s", kerrors.ErrSecretExists, id)
			}
			if !errors.Is(err, kerrors.ErrSecretNotFound) {
				return nil, fmt.Errorf("reading local secret: %w", err)
			}
		}
	}

	keys, err := crosssigning.GenerateKeys()
	if err != nil {
		return nil, err
	}

	result := &GenerateCrossSigningResult{PublicKeys: make(map[string]string)}
	for _, id := range crosssigning.IDs() {
		if err = env.Inventory.SetSecret(ctx, id, keys.Secrets[id]); err != nil {
			return nil, fmt.Errorf("writing local secret %s: %w", id, err)
		}
		result.PublicKeys[id] = base64.RawStdEncoding.EncodeToString(keys.Trust[id])
	}

	env.Config.CrossSigning = configs.CrossSigningConfig{
		MasterKey:      result.PublicKeys[crosssigning.MasterKey],
		SelfSigningKey: result.PublicKeys[crosssigning.SelfSigningKey],
		UserSigningKey: result.PublicKeys[crosssigning.UserSigningKey],
	}
	if err = configs.SaveConfig(env.Settings.ConfigPath, env.Config); err != nil {
		return nil, err
	}
	if env.Trust != nil {
		env.Trust.Replace(keys.Trust)
	}

	env.Audit.Log(audit.Entry{
		Operation: audit.OpImport,
		Secrets:   crosssigning.IDs(),
	})

	return result, nil
}
