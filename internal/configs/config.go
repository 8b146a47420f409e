package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	kerrors "github.com/PolarWolf314/reclaim/internal/errors"
	"github.com/PolarWolf314/reclaim/internal/secrets"
	"github.com/PolarWolf314/reclaim/internal/utils"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

// Storage backends.
const (
	BackendInMem = "inmem"
	BackendDiskv = "diskv"
	BackendMySQL = "mysql"
)

type Config struct {
	Account Account     `toml:"account" json:"account"`
	Store   StoreConfig `toml:"store" json:"store"`
	Local   LocalConfig `toml:"local" json:"local"`
	KDF     KDFConfig   `toml:"kdf" json:"kdf"`

	CrossSigning CrossSigningConfig `toml:"cross_signing" json:"cross_signing"`
}

type Account struct {
	UserID     string `toml:"user_id" json:"user_id"`
	DeviceID   string `toml:"device_id" json:"device_id"`
	DeviceName string `toml:"device_name,omitempty" json:"device_name,omitempty"`
}

// StoreConfig selects the remote encrypted store.
type StoreConfig struct {
	Backend string `toml:"backend" json:"backend"`
	// Path is the diskv directory. Defaults to <data dir>/store.
	Path string `toml:"path,omitempty" json:"path,omitempty"`
	// DSN is the MySQL data source name.
	DSN string `toml:"dsn,omitempty" json:"dsn,omitempty"`
}

// LocalConfig locates the local secret inventory.
type LocalConfig struct {
	// Path defaults to <data dir>/secrets.
	Path string `toml:"path,omitempty" json:"path,omitempty"`
}

type KDFConfig struct {
	Iterations int `toml:"iterations" json:"iterations"`
}

// CrossSigningConfig holds the trusted cross-signing public keys as
// unpadded standard base64. Recovered cross-signing secrets must match them.
type CrossSigningConfig struct {
	MasterKey      string `toml:"master_key,omitempty" json:"master_key,omitempty"`
	SelfSigningKey string `toml:"self_signing_key,omitempty" json:"self_signing_key,omitempty"`
	UserSigningKey string `toml:"user_signing_key,omitempty" json:"user_signing_key,omitempty"`
}

// GenerateID generates a new account or device ID.
func GenerateID() string {
	return uuid.New().String()
}

// Default returns a config with fresh IDs and a diskv store.
func Default() *Config {
	deviceName, err := utils.GenerateDeviceName(nil)
	if err != nil {
		deviceName = ""
	}
	return &Config{
		Account: Account{
			UserID:     GenerateID(),
			DeviceID:   GenerateID(),
			DeviceName: deviceName,
		},
		Store: StoreConfig{Backend: BackendDiskv},
		KDF:   KDFConfig{Iterations: secrets.DefaultIterations},
	}
}

// Validate checks that the config is usable.
func (c *Config) Validate() error {
	if c.Account.UserID == "" {
		return fmt.Errorf("%w: account.user_id is empty", kerrors.ErrInvalidConfig)
	}
	if _, err := uuid.Parse(c.Account.DeviceID); err != nil {
		return fmt.Errorf("%w: account.device_id: %v", kerrors.ErrInvalidConfig, err)
	}
	if c.Account.DeviceName != "" && !utils.IsValidDeviceName(c.Account.DeviceName) {
		return fmt.Errorf("%w: account.device_name %q", kerrors.ErrInvalidConfig, c.Account.DeviceName)
	}
	switch c.Store.Backend {
	case BackendInMem, BackendDiskv:
	case BackendMySQL:
		if c.Store.DSN == "" {
			return fmt.Errorf("%w: store.dsn is required for the mysql backend", kerrors.ErrInvalidConfig)
		}
		if _, err := mysql.ParseDSN(c.Store.DSN); err != nil {
			return fmt.Errorf("%w: store.dsn: %v", kerrors.ErrInvalidConfig, err)
		}
	default:
		return fmt.Errorf("%w: %q", kerrors.ErrUnknownBackend, c.Store.Backend)
	}
	if c.KDF.Iterations < 1 {
		return fmt.Errorf("%w: kdf.iterations must be at least 1", kerrors.ErrInvalidConfig)
	}
	return nil
}

// RedactedDSN returns the DSN with its password masked, for display.
func (c StoreConfig) RedactedDSN() string {
	if c.DSN == "" {
		return ""
	}
	cfg, err := mysql.ParseDSN(c.DSN)
	if err != nil {
		return "<invalid>"
	}
	if cfg.Passwd != "" {
		cfg.Passwd = "xxxxx"
	}
	return cfg.FormatDSN()
}

// StorePath returns the diskv store directory.
func (c *Config) StorePath(s *Settings) string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(s.DataDir, "store")
}

// LocalPath returns the local inventory directory.
func (c *Config) LocalPath(s *Settings) string {
	if c.Local.Path != "" {
		return c.Local.Path
	}
	return filepath.Join(s.DataDir, "secrets")
}

// LoadConfig loads the config file at path.
// Missing sections take their default values.
func LoadConfig(path string) (*Config, error) {
	config := &Config{
		Store: StoreConfig{Backend: BackendDiskv},
		KDF:   KDFConfig{Iterations: secrets.DefaultIterations},
	}

	if err := LoadTOML(path, config); err != nil {
		var unknown *UnknownKeysError
		if errors.As(err, &unknown) {
			return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidConfig, err)
		}
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return config, nil
}

// SaveConfig saves config to path.
func SaveConfig(path string, config *Config) error {
	if err := SaveTOML(path, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// EnsureConfig loads the config at path, creating a default one if there is none.
// The returned bool reports whether a new file was written.
func EnsureConfig(path string) (*Config, bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		config := Default()
		if err := SaveConfig(path, config); err != nil {
			return nil, false, err
		}
		return config, true, nil
	}

	config, err := LoadConfig(path)
	if err != nil {
		return nil, false, err
	}

	// older files may predate device IDs
	if config.Account.DeviceID == "" {
		config.Account.DeviceID = GenerateID()
		if err := SaveConfig(path, config); err != nil {
			return nil, false, err
		}
	}

	return config, false, nil
}
