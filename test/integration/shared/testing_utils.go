// Package shared contains testing utilities shared between integration tests.
// This file provides common functions for setting up isolated devices,
// capturing output, and running the CLI in-process.
package shared

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PolarWolf314/reclaim/cmd"
	"github.com/PolarWolf314/reclaim/internal/configs"
	kerrors "github.com/PolarWolf314/reclaim/internal/errors"
	"github.com/PolarWolf314/reclaim/internal/inventory"
	"github.com/spf13/cobra"
)

// TestIterations keeps passphrase derivation fast in tests.
const TestIterations = 1000

// Device is one simulated installation of reclaim.
type Device struct {
	Settings *configs.Settings
	Config   *configs.Config
}

// NewDevice creates a config and data directory for a device whose diskv
// store lives at storePath. Devices of the same account share userID and
// storePath; pass an empty userID to start a new account.
func NewDevice(t *testing.T, storePath, userID string) *Device {
	t.Helper()
	dir := t.TempDir()
	d := &Device{
		Settings: &configs.Settings{
			ConfigPath: filepath.Join(dir, "config.toml"),
			DataDir:    filepath.Join(dir, "data"),
		},
		Config: configs.Default(),
	}
	d.Config.KDF.Iterations = TestIterations
	d.Config.Store.Path = storePath
	if userID != "" {
		d.Config.Account.UserID = userID
	}
	if err := configs.SaveConfig(d.Settings.ConfigPath, d.Config); err != nil {
		t.Fatalf("Failed to write device config: %v", err)
	}
	return d
}

// Use makes d the active device for the following CLI runs.
func (d *Device) Use(t *testing.T) {
	t.Helper()
	t.Setenv("RECLAIM_CONFIG", d.Settings.ConfigPath)
	t.Setenv("RECLAIM_DATA_DIR", d.Settings.DataDir)
	t.Setenv("NO_COLOR", "1")
}

// Run runs the CLI as d and returns its combined output.
func (d *Device) Run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	d.Use(t)
	return CaptureOutput(func() error {
		return CreateTestCLI(stdin, args...).Execute()
	})
}

// MustRun is Run that fails the test on error.
func (d *Device) MustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	output, err := d.Run(t, stdin, args...)
	if err != nil {
		t.Fatalf("reclaim %s failed: %v\nOutput: %s", strings.Join(args, " "), err, output)
	}
	return output
}

// CaptureOutput captures both stdout and stderr during function execution.
func CaptureOutput(fn func() error) (string, error) {
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	stdoutChan := make(chan string, 1)
	stderrChan := make(chan string, 1)

	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stdoutReader); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		stdoutChan <- buf.String()
	}()

	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stderrReader); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		stderrChan <- buf.String()
	}()

	err := fn()

	// Close writers to signal EOF
	stdoutWriter.Close()
	stderrWriter.Close()

	os.Stdout = originalStdout
	os.Stderr = originalStderr

	return <-stdoutChan + <-stderrChan, err
}

// CreateTestCLI creates a complete CLI instance for testing with the given arguments.
func CreateTestCLI(stdin string, args ...string) *cobra.Command {
	cmd.ResetGlobalState()

	rootCmd := &cobra.Command{
		Use:           "reclaim",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(cmd.GetRecoveryCmd())
	rootCmd.AddCommand(cmd.GetSecretsCmd())
	rootCmd.AddCommand(cmd.GetConfigCmd())

	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	return rootCmd
}

// ParseRecoveryKey extracts the recovery key printed by recovery create.
func ParseRecoveryKey(t *testing.T, output string) string {
	t.Helper()
	_, rest, found := strings.Cut(output, "Your recovery key:")
	if !found {
		t.Fatalf("No recovery key in output: %s", output)
	}
	var groups []string
	for _, line := range strings.Split(rest, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(groups) > 0 {
				break
			}
			continue
		}
		groups = append(groups, line)
	}
	return strings.Join(groups, " ")
}

// ReadSecret reads a secret straight from d's local inventory.
func (d *Device) ReadSecret(t *testing.T, id string) (string, bool) {
	t.Helper()
	v, err := inventory.NewDiskv(d.Config.LocalPath(d.Settings)).Secret(context.Background(), id)
	if errors.Is(err, kerrors.ErrSecretNotFound) {
		return "", false
	}
	if err != nil {
		t.Fatalf("Failed to read secret %s: %v", id, err)
	}
	return string(v), true
}
