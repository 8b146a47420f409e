package workflows

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"github.com/PolarWolf314/reclaim/internal/audit"
	"github.com/PolarWolf314/reclaim/internal/configs"
	"github.com/PolarWolf314/reclaim/internal/crosssigning"
	kerrors "github.com/PolarWolf314/reclaim/internal/errors"
	"github.com/PolarWolf314/reclaim/internal/inventory"
	logger "github.com/PolarWolf314/reclaim/internal/logging"
	"github.com/PolarWolf314/reclaim/internal/recovery"
	"github.com/PolarWolf314/reclaim/internal/store"
	storediskv "github.com/PolarWolf314/reclaim/internal/store/diskv"
	storeinmem "github.com/PolarWolf314/reclaim/internal/store/inmem"
	storemysql "github.com/PolarWolf314/reclaim/internal/store/mysql"

	_ "github.com/go-sql-driver/mysql"
)

// Environment is everything a workflow needs.
type Environment struct {
	Settings  *configs.Settings
	Config    *configs.Config
	Inventory inventory.Inventory
	Store     store.Store
	Service   *recovery.Service
	Trust     *crosssigning.MutableTrust
	Audit     *audit.Logger
	Log       logger.Logger
}

// OpenOptions configures Open.
type OpenOptions struct {
	// Settings overrides the locations from ResolveSettings.
	Settings *configs.Settings

	// Store overrides the configured remote store.
	Store store.Store

	Log logger.Logger
}

// Open loads the config, creating a default one on first use, and wires
// the configured stores into a recovery service.
func Open(ctx context.Context, opts OpenOptions) (*Environment, error) {
	settings := opts.Settings
	if settings == nil {
		var err error
		if settings, err = configs.ResolveSettings(); err != nil {
			return nil, err
		}
	}

	cfg, created, err := configs.EnsureConfig(settings.ConfigPath)
	if err != nil {
		return nil, err
	}
	if created {
		opts.Log.Infof("Created config at %s", settings.ConfigPath)
	}

	return NewEnvironment(settings, cfg, opts)
}

// NewEnvironment wires an Environment from an already loaded config.
func NewEnvironment(settings *configs.Settings, cfg *configs.Config, opts OpenOptions) (*Environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	remote := opts.Store
	if remote == nil {
		var err error
		if remote, err = openStore(cfg, settings); err != nil {
			return nil, err
		}
	}
	opts.Log.Debugf("Using %s store", cfg.Store.Backend)

	keys, err := trustFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	trust := crosssigning.NewMutableTrust(keys)

	inv := inventory.NewDiskv(cfg.LocalPath(settings))
	svc := recovery.New(
		inv,
		remote,
		recovery.WithIterations(cfg.KDF.Iterations),
		recovery.WithValidator(crosssigning.NewValidator(trust), crosssigning.IDs()...),
		recovery.WithLogger(opts.Log),
	)

	return &Environment{
		Settings:  settings,
		Config:    cfg,
		Inventory: inv,
		Store:     remote,
		Service:   svc,
		Trust:     trust,
		Audit:     audit.New(settings.DataDir, cfg.Account.UserID, cfg.Account.DeviceID),
		Log:       opts.Log,
	}, nil
}

func openStore(cfg *configs.Config, settings *configs.Settings) (store.Store, error) {
	switch cfg.Store.Backend {
	case configs.BackendInMem:
		return storeinmem.New(), nil
	case configs.BackendDiskv:
		return storediskv.New(cfg.StorePath(settings)), nil
	case configs.BackendMySQL:
		s, err := storemysql.New(storemysql.WithDSN(cfg.Store.DSN))
		if err != nil {
			return nil, fmt.Errorf("%w: opening mysql store: %v", kerrors.ErrRecoveryStoreUnavailable, err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s", kerrors.ErrUnknownBackend, cfg.Store.Backend)
}

func trustFromConfig(cfg *configs.Config) (crosssigning.StaticTrust, error) {
	trust := make(crosssigning.StaticTrust)
	keys := map[string]string{
		crosssigning.MasterKey:      cfg.CrossSigning.MasterKey,
		crosssigning.SelfSigningKey: cfg.CrossSigning.SelfSigningKey,
		crosssigning.UserSigningKey: cfg.CrossSigning.UserSigningKey,
	}
	for id, encoded := range keys {
		if encoded == "" {
			continue
		}
		pub, err := base64.RawStdEncoding.DecodeString(encoded)
		if err != nil || len(pub) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("%w: cross_signing public key for %s is malformed", kerrors.ErrInvalidConfig, id)
		}
		trust[id] = ed25519.PublicKey(pub)
	}
	return trust, nil
}
