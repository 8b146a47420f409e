package configs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	kerrors "github.com/PolarWolf314/reclaim/internal/errors"
	"github.com/PolarWolf314/reclaim/internal/secrets"
)

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	if id == "" {
		t.Fatal("GenerateID returned empty string")
	}

	if len(id) != 36 {
		t.Fatalf("Expected UUID length 36, got %d", len(id))
	}

	if id == GenerateID() {
		t.Fatal("GenerateID returned the same ID twice")
	}
}

func TestDefaultIsValid(t *testing.T) {
	config := Default()
	if err := config.Validate(); err != nil {
		t.Fatalf("Default config failed validation: %v", err)
	}
	if config.Store.Backend != BackendDiskv {
		t.Errorf("Expected diskv backend, got %q", config.Store.Backend)
	}
	if config.KDF.Iterations != secrets.DefaultIterations {
		t.Errorf("Expected %d iterations, got %d", secrets.DefaultIterations, config.KDF.Iterations)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"valid", func(*Config) {}, nil},
		{"inmem", func(c *Config) { c.Store.Backend = BackendInMem }, nil},
		{"mysql with dsn", func(c *Config) { c.Store.Backend = BackendMySQL; c.Store.DSN = "u:p@/db" }, nil},
		{"mysql without dsn", func(c *Config) { c.Store.Backend = BackendMySQL }, kerrors.ErrInvalidConfig},
		{"mysql malformed dsn", func(c *Config) { c.Store.Backend = BackendMySQL; c.Store.DSN = "localhost" }, kerrors.ErrInvalidConfig},
		{"unknown backend", func(c *Config) { c.Store.Backend = "s3" }, kerrors.ErrUnknownBackend},
		{"no user", func(c *Config) { c.Account.UserID = "" }, kerrors.ErrInvalidConfig},
		{"bad device", func(c *Config) { c.Account.DeviceID = "laptop" }, kerrors.ErrInvalidConfig},
		{"bad device name", func(c *Config) { c.Account.DeviceName = "my laptop" }, kerrors.ErrInvalidConfig},
		{"no iterations", func(c *Config) { c.KDF.Iterations = 0 }, kerrors.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.modify(config)
			err := config.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reclaim", "config.toml")

	config := Default()
	config.Store = StoreConfig{Backend: BackendMySQL, DSN: "reclaim:secret@tcp(localhost:3306)/reclaim"}
	config.Local.Path = "/var/lib/reclaim/secrets"
	config.KDF.Iterations = 1000

	if err := SaveConfig(path, config); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if *loaded != *config {
		t.Errorf("Loaded config differs:\nhave %+v\nwant %+v", loaded, config)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[account]\nuser_id = \"@alice:example.org\"\ndevice_id = \"" + GenerateID() + "\"\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Store.Backend != BackendDiskv {
		t.Errorf("Expected default backend, got %q", config.Store.Backend)
	}
	if config.KDF.Iterations != secrets.DefaultIterations {
		t.Errorf("Expected default iterations, got %d", config.KDF.Iterations)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[store]\nbackedn = \"mysql\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); !errors.Is(err, kerrors.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestEnsureConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	created, isNew, err := EnsureConfig(path)
	if err != nil {
		t.Fatalf("EnsureConfig failed: %v", err)
	}
	if !isNew {
		t.Error("Expected a new config to be written")
	}

	loaded, isNew, err := EnsureConfig(path)
	if err != nil {
		t.Fatalf("EnsureConfig failed: %v", err)
	}
	if isNew {
		t.Error("Expected existing config to be reused")
	}
	if loaded.Account != created.Account {
		t.Errorf("Account changed between loads: %+v vs %+v", loaded.Account, created.Account)
	}
}

func TestEnsureConfigAddsDeviceID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[account]\nuser_id = \"u\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	config, _, err := EnsureConfig(path)
	if err != nil {
		t.Fatalf("EnsureConfig failed: %v", err)
	}
	if config.Account.DeviceID == "" {
		t.Fatal("Expected a device ID to be generated")
	}

	reloaded, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Account.DeviceID != config.Account.DeviceID {
		t.Error("Generated device ID was not saved")
	}
}

func TestResolveSettings(t *testing.T) {
	t.Setenv("RECLAIM_CONFIG", "/etc/reclaim.toml")
	t.Setenv("RECLAIM_DATA_DIR", "/srv/reclaim")

	s, err := ResolveSettings()
	if err != nil {
		t.Fatal(err)
	}
	if s.ConfigPath != "/etc/reclaim.toml" || s.DataDir != "/srv/reclaim" {
		t.Errorf("Unexpected settings: %+v", s)
	}

	config := Default()
	if got := config.StorePath(s); got != filepath.Join("/srv/reclaim", "store") {
		t.Errorf("StorePath = %q", got)
	}
	config.Local.Path = "/elsewhere"
	if got := config.LocalPath(s); got != "/elsewhere" {
		t.Errorf("LocalPath = %q", got)
	}

	t.Setenv("RECLAIM_DATA_DIR", "")
	t.Setenv("XDG_DATA_HOME", "/xdg")
	s, err = ResolveSettings()
	if err != nil {
		t.Fatal(err)
	}
	if s.DataDir != filepath.Join("/xdg", "reclaim") {
		t.Errorf("Expected XDG data dir, got %q", s.DataDir)
	}
}

func TestRedactedDSN(t *testing.T) {
	store := StoreConfig{Backend: BackendMySQL, DSN: "reclaim:secret@tcp(localhost:3306)/reclaim"}
	got := store.RedactedDSN()
	if strings.Contains(got, "secret") {
		t.Errorf("Password not redacted: %s", got)
	}
	if !strings.Contains(got, "reclaim:xxxxx@tcp(localhost:3306)/reclaim") {
		t.Errorf("Unexpected redacted DSN: %s", got)
	}

	if got := (StoreConfig{}).RedactedDSN(); got != "" {
		t.Errorf("Expected empty DSN, got %q", got)
	}
}
