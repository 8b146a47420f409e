package workflows

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/reclaim/internal/audit"
	"github.com/PolarWolf314/reclaim/internal/configs"
	"github.com/PolarWolf314/reclaim/internal/crosssigning"
	kerrors "github.com/PolarWolf314/reclaim/internal/errors"
	"github.com/PolarWolf314/reclaim/internal/store"
	storeinmem "github.com/PolarWolf314/reclaim/internal/store/inmem"
)

const testIterations = 1000

func newTestEnvironment(t *testing.T, remote store.Store) *Environment {
	t.Helper()
	dir := t.TempDir()
	settings := &configs.Settings{
		ConfigPath: filepath.Join(dir, "config.toml"),
		DataDir:    filepath.Join(dir, "data"),
	}
	cfg := configs.Default()
	cfg.KDF.Iterations = testIterations
	if err := configs.SaveConfig(settings.ConfigPath, cfg); err != nil {
		t.Fatal(err)
	}
	if remote == nil {
		remote = storeinmem.New()
	}
	env, err := NewEnvironment(settings, cfg, OpenOptions{Store: remote})
	if err != nil {
		t.Fatalf("NewEnvironment failed: %v", err)
	}
	return env
}

func importSecret(t *testing.T, env *Environment, id, value string) {
	t.Helper()
	if _, err := Import(context.Background(), env, ImportOptions{ID: id, Value: []byte(value), TrimSpace: true}); err != nil {
		t.Fatalf("Import %s failed: %v", id, err)
	}
}

func TestCreateAndRestoreWithPassphrase(t *testing.T) {
	ctx := context.Background()
	remote := storeinmem.New()
	env := newTestEnvironment(t, remote)
	importSecret(t, env, "api.token", "hunter2")

	created, err := Create(ctx, env, CreateOptions{Passphrase: "correct horse"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Replaced != "" {
		t.Errorf("Expected nothing replaced, got %s", created.Replaced)
	}
	if created.Info.RecoveryKey == "" {
		t.Error("Expected a recovery key")
	}

	// a second device sharing the remote store
	other := newTestEnvironment(t, remote)
	restored, err := Restore(ctx, other, RestoreOptions{Passphrase: "correct horse"})
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored.KeyID != created.Info.Descriptor.ID {
		t.Errorf("Expected key %s, got %s", created.Info.Descriptor.ID, restored.KeyID)
	}
	if len(restored.Outcome.UpdatedSecrets) != 1 || restored.Outcome.UpdatedSecrets[0] != "api.token" {
		t.Errorf("Unexpected updated secrets: %v", restored.Outcome.UpdatedSecrets)
	}

	v, err := other.Inventory.Secret(ctx, "api.token")
	if err != nil {
		t.Fatal(err)
	}
	if string(v) != "hunter2" {
		t.Errorf("Restored value %q", v)
	}
}

func TestRestoreWithRecoveryKey(t *testing.T) {
	ctx := context.Background()
	env := newTestEnvironment(t, nil)
	importSecret(t, env, "a", "1")

	created, err := Create(ctx, env, CreateOptions{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := Restore(ctx, env, RestoreOptions{Passphrase: "nope"}); !errors.Is(err, kerrors.ErrNotAPassphraseRecovery) {
		t.Errorf("Expected ErrNotAPassphraseRecovery, got %v", err)
	}
	if _, err := Restore(ctx, env, RestoreOptions{RecoveryKey: "not a key"}); !errors.Is(err, kerrors.ErrInvalidRecoveryKey) {
		t.Errorf("Expected ErrInvalidRecoveryKey, got %v", err)
	}
	if _, err := Restore(ctx, env, RestoreOptions{}); err == nil {
		t.Error("Expected error without key or passphrase")
	}
	if _, err := Restore(ctx, env, RestoreOptions{RecoveryKey: created.Info.RecoveryKey, Passphrase: "x"}); err == nil {
		t.Error("Expected error with both key and passphrase")
	}

	restored, err := Restore(ctx, env, RestoreOptions{RecoveryKey: created.Info.RecoveryKey})
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if len(restored.Outcome.Secrets) != 1 || len(restored.Outcome.UpdatedSecrets) != 0 {
		t.Errorf("Unexpected outcome: %+v", restored.Outcome)
	}
}

func TestCreateWithoutSecrets(t *testing.T) {
	env := newTestEnvironment(t, nil)
	if _, err := Create(context.Background(), env, CreateOptions{}); !errors.Is(err, kerrors.ErrNoSecretsToBackUp) {
		t.Fatalf("Expected ErrNoSecretsToBackUp, got %v", err)
	}
}

func TestCreateReportsReplacedRecovery(t *testing.T) {
	ctx := context.Background()
	env := newTestEnvironment(t, nil)
	importSecret(t, env, "a", "1")

	first, err := Create(ctx, env, CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Create(ctx, env, CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if second.Replaced != first.Info.Descriptor.ID {
		t.Errorf("Expected replaced %s, got %s", first.Info.Descriptor.ID, second.Replaced)
	}
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnvironment(t, nil)
	importSecret(t, env, "b", "2")

	result, err := Status(ctx, env)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if result.State.HasRecovery {
		t.Error("Expected no recovery")
	}
	if result.Backend != configs.BackendDiskv {
		t.Errorf("Expected diskv backend, got %s", result.Backend)
	}

	if _, err := Create(ctx, env, CreateOptions{Passphrase: "pw"}); err != nil {
		t.Fatal(err)
	}
	importSecret(t, env, "a", "1")

	result, err = Status(ctx, env)
	if err != nil {
		t.Fatal(err)
	}
	if !result.State.HasRecovery || !result.State.UsePassphrase {
		t.Errorf("Unexpected state: %+v", result.State)
	}
	want := []SecretStatus{
		{ID: "a", Local: true},
		{ID: "b", Local: true, BackedUp: true},
	}
	if len(result.Secrets) != len(want) {
		t.Fatalf("Expected %v, got %v", want, result.Secrets)
	}
	for i := range want {
		if result.Secrets[i] != want[i] {
			t.Errorf("Secret %d: expected %+v, got %+v", i, want[i], result.Secrets[i])
		}
	}
}

func TestMergeSecretStatus(t *testing.T) {
	got := mergeSecretStatus([]string{"a", "c"}, []string{"b", "c", "d"})
	want := []SecretStatus{
		{ID: "a", Local: true},
		{ID: "b", BackedUp: true},
		{ID: "c", Local: true, BackedUp: true},
		{ID: "d", BackedUp: true},
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Entry %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnvironment(t, nil)

	if _, err := Delete(ctx, env, DeleteOptions{}); !errors.Is(err, kerrors.ErrNoRecovery) {
		t.Errorf("Expected ErrNoRecovery, got %v", err)
	}

	importSecret(t, env, "a", "1")
	created, err := Create(ctx, env, CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}

	result, err := Delete(ctx, env, DeleteOptions{})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if result.KeyID != created.Info.Descriptor.ID {
		t.Errorf("Expected deleted key %s, got %s", created.Info.Descriptor.ID, result.KeyID)
	}

	status, err := Status(ctx, env)
	if err != nil {
		t.Fatal(err)
	}
	if status.State.HasRecovery {
		t.Error("Expected recovery to be gone")
	}
	ids, err := env.Store.SecretIDs(ctx, created.Info.Descriptor.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("Expected stored secrets deleted, got %v", ids)
	}
}

func TestDeleteKeepSecrets(t *testing.T) {
	ctx := context.Background()
	env := newTestEnvironment(t, nil)
	importSecret(t, env, "a", "1")
	created, err := Create(ctx, env, CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Delete(ctx, env, DeleteOptions{KeepSecrets: true}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	ids, err := env.Store.SecretIDs(ctx, created.Info.Descriptor.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 {
		t.Errorf("Expected stored secret kept, got %v", ids)
	}
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	env := newTestEnvironment(t, nil)

	result, err := Import(ctx, env, ImportOptions{ID: "a", Value: []byte("  value\n"), TrimSpace: true})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Replaced {
		t.Error("Expected new secret")
	}
	v, err := env.Inventory.Secret(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if string(v) != "value" {
		t.Errorf("Expected trimmed value, got %q", v)
	}

	if _, err := Import(ctx, env, ImportOptions{ID: "a", Value: []byte("other")}); !errors.Is(err, kerrors.ErrSecretExists) {
		t.Errorf("Expected ErrSecretExists, got %v", err)
	}
	result, err = Import(ctx, env, ImportOptions{ID: "a", Value: []byte("other"), Force: true})
	if err != nil {
		t.Fatalf("Forced import failed: %v", err)
	}
	if !result.Replaced {
		t.Error("Expected replaced secret")
	}

	if _, err := Import(ctx, env, ImportOptions{ID: "", Value: []byte("x")}); err == nil {
		t.Error("Expected error for empty ID")
	}
	if _, err := Import(ctx, env, ImportOptions{ID: "b", Value: []byte(" \n"), TrimSpace: true}); err == nil {
		t.Error("Expected error for empty value")
	}
}

func TestImportKeepsBytesWithoutTrim(t *testing.T) {
	ctx := context.Background()
	env := newTestEnvironment(t, nil)
	raw := []byte{'\n', 0x00, 'k', 'e', 'y', ' ', '\t', '\n'}

	if _, err := Import(ctx, env, ImportOptions{ID: "ssh.deploy", Value: raw}); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	v, err := env.Inventory.Secret(ctx, "ssh.deploy")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(v, raw) {
		t.Errorf("Expected value stored verbatim, got %q", v)
	}
}

func TestGenerateCrossSigning(t *testing.T) {
	ctx := context.Background()
	env := newTestEnvironment(t, nil)

	result, err := GenerateCrossSigning(ctx, env, GenerateCrossSigningOptions{})
	if err != nil {
		t.Fatalf("GenerateCrossSigning failed: %v", err)
	}
	if len(result.PublicKeys) != len(crosssigning.IDs()) {
		t.Fatalf("Expected %d public keys, got %d", len(crosssigning.IDs()), len(result.PublicKeys))
	}

	saved, err := configs.LoadConfig(env.Settings.ConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if saved.CrossSigning.MasterKey != result.PublicKeys[crosssigning.MasterKey] {
		t.Error("Master public key not saved to config")
	}

	if _, err := GenerateCrossSigning(ctx, env, GenerateCrossSigningOptions{}); !errors.Is(err, kerrors.ErrSecretExists) {
		t.Errorf("Expected ErrSecretExists, got %v", err)
	}
	if _, err := GenerateCrossSigning(ctx, env, GenerateCrossSigningOptions{Force: true}); err != nil {
		t.Errorf("Forced GenerateCrossSigning failed: %v", err)
	}
}

func TestCrossSigningTrustFiltersRestore(t *testing.T) {
	ctx := context.Background()
	remote := storeinmem.New()
	env := newTestEnvironment(t, remote)
	if _, err := GenerateCrossSigning(ctx, env, GenerateCrossSigningOptions{}); err != nil {
		t.Fatal(err)
	}
	created, err := Create(ctx, env, CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}

	// trust a different set of keys on the second device
	other := newTestEnvironment(t, remote)
	otherKeys, err := GenerateCrossSigning(ctx, other, GenerateCrossSigningOptions{})
	if err != nil {
		t.Fatal(err)
	}
	reopened, err := NewEnvironment(other.Settings, other.Config, OpenOptions{Store: remote})
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Config.CrossSigning.MasterKey != otherKeys.PublicKeys[crosssigning.MasterKey] {
		t.Fatal("Expected reopened environment to use the new trust")
	}

	restored, err := Restore(ctx, reopened, RestoreOptions{RecoveryKey: created.Info.RecoveryKey})
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if len(restored.Outcome.InvalidSecrets) != len(crosssigning.IDs()) {
		t.Errorf("Expected all cross-signing secrets invalid, got %v", restored.Outcome.InvalidSecrets)
	}
	if len(restored.Outcome.UpdatedSecrets) != 0 {
		t.Errorf("Expected no updates, got %v", restored.Outcome.UpdatedSecrets)
	}
}

func TestGenerateCrossSigningUpdatesLiveTrust(t *testing.T) {
	ctx := context.Background()
	remote := storeinmem.New()
	env := newTestEnvironment(t, remote)
	if _, err := GenerateCrossSigning(ctx, env, GenerateCrossSigningOptions{}); err != nil {
		t.Fatal(err)
	}
	created, err := Create(ctx, env, CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}

	// same environment before and after generating its own keys
	other := newTestEnvironment(t, remote)
	if _, err := GenerateCrossSigning(ctx, other, GenerateCrossSigningOptions{}); err != nil {
		t.Fatal(err)
	}

	restored, err := Restore(ctx, other, RestoreOptions{RecoveryKey: created.Info.RecoveryKey})
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if len(restored.Outcome.InvalidSecrets) != len(crosssigning.IDs()) {
		t.Errorf("Expected all cross-signing secrets invalid, got %v", restored.Outcome.InvalidSecrets)
	}
	if restored.KeyID != created.Info.Descriptor.ID {
		t.Errorf("Expected key %s, got %s", created.Info.Descriptor.ID, restored.KeyID)
	}
}

func TestNewEnvironmentRejectsMalformedTrust(t *testing.T) {
	dir := t.TempDir()
	settings := &configs.Settings{ConfigPath: filepath.Join(dir, "config.toml"), DataDir: dir}
	cfg := configs.Default()
	cfg.CrossSigning.MasterKey = "!!!"

	if _, err := NewEnvironment(settings, cfg, OpenOptions{Store: storeinmem.New()}); !errors.Is(err, kerrors.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestNewEnvironmentUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	settings := &configs.Settings{ConfigPath: filepath.Join(dir, "config.toml"), DataDir: dir}
	cfg := configs.Default()
	cfg.Store.Backend = "tape"

	if _, err := NewEnvironment(settings, cfg, OpenOptions{}); !errors.Is(err, kerrors.ErrUnknownBackend) {
		t.Fatalf("Expected ErrUnknownBackend, got %v", err)
	}
}

func TestOpenCreatesConfig(t *testing.T) {
	dir := t.TempDir()
	settings := &configs.Settings{ConfigPath: filepath.Join(dir, "config.toml"), DataDir: filepath.Join(dir, "data")}

	env, err := Open(context.Background(), OpenOptions{Settings: settings})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if env.Config.Store.Backend != configs.BackendDiskv {
		t.Errorf("Expected diskv backend, got %s", env.Config.Store.Backend)
	}

	again, err := Open(context.Background(), OpenOptions{Settings: settings})
	if err != nil {
		t.Fatal(err)
	}
	if again.Config.Account.DeviceID != env.Config.Account.DeviceID {
		t.Error("Expected the saved config to be reused")
	}
}

func TestLog(t *testing.T) {
	ctx := context.Background()
	env := newTestEnvironment(t, nil)

	result, err := Log(ctx, env, LogOptions{})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if result.Total != 0 {
		t.Errorf("Expected empty log, got %d entries", result.Total)
	}

	importSecret(t, env, "a", "1")
	if _, err := Create(ctx, env, CreateOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := Delete(ctx, env, DeleteOptions{}); err != nil {
		t.Fatal(err)
	}

	result, err = Log(ctx, env, LogOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Total != 3 || len(result.Entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(result.Entries))
	}
	if result.Entries[0].Operation != audit.OpImport || result.Entries[2].Operation != audit.OpDelete {
		t.Errorf("Unexpected order: %+v", result.Entries)
	}

	result, err = Log(ctx, env, LogOptions{Operations: "create, delete"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 2 {
		t.Errorf("Expected 2 filtered entries, got %d", len(result.Entries))
	}

	result, err = Log(ctx, env, LogOptions{Limit: 1, Reverse: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 1 || result.Entries[0].Operation != audit.OpDelete {
		t.Errorf("Expected latest entry only, got %+v", result.Entries)
	}

	result, err = Log(ctx, env, LogOptions{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 1 || result.Entries[0].Operation != audit.OpDelete {
		t.Errorf("Expected latest entry only, got %+v", result.Entries)
	}

	result, err = Log(ctx, env, LogOptions{Since: "2999-01-01"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 0 {
		t.Errorf("Expected no future entries, got %d", len(result.Entries))
	}

	if _, err := Log(ctx, env, LogOptions{Since: "yesterday"}); !errors.Is(err, kerrors.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
