// Package cmd contains testing utilities shared between command tests.
// This file provides common functions for setting up test environments,
// capturing output, and running the CLI in-process.
package cmd

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PolarWolf314/reclaim/internal/configs"
	"github.com/spf13/cobra"
)

// testIterations keeps passphrase derivation fast in tests.
const testIterations = 1000

// setupTestEnvironment points reclaim at a fresh config and data directory
// and returns their locations. storePath is shared between devices that
// should see the same recovery; empty means a private store.
func setupTestEnvironment(t *testing.T, storePath string) *configs.Settings {
	t.Helper()
	dir := t.TempDir()
	settings := &configs.Settings{
		ConfigPath: filepath.Join(dir, "config", "config.toml"),
		DataDir:    filepath.Join(dir, "data"),
	}
	useSettings(t, settings)

	config := configs.Default()
	config.KDF.Iterations = testIterations
	config.Store.Path = storePath
	if err := configs.SaveConfig(settings.ConfigPath, config); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	return settings
}

// useSettings switches the environment to settings for the rest of the test.
func useSettings(t *testing.T, settings *configs.Settings) {
	t.Helper()
	t.Setenv("RECLAIM_CONFIG", settings.ConfigPath)
	t.Setenv("RECLAIM_DATA_DIR", settings.DataDir)
	t.Setenv("NO_COLOR", "1")

	ResetGlobalState()
	t.Cleanup(func() {
		ResetGlobalState()
		SetPassphraseReaders(nil, nil)
	})
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
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

// createTestCLI creates a complete CLI instance for testing with the given arguments.
// stdin may be empty, in which case the command reads nothing.
func createTestCLI(stdin string, args ...string) *cobra.Command {
	ResetGlobalState()

	rootCmd := &cobra.Command{
		Use:           "reclaim",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(RecoveryCmd)
	rootCmd.AddCommand(SecretsCmd)
	rootCmd.AddCommand(ConfigCmd)

	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	return rootCmd
}

// runCLI runs the CLI with args and returns its combined output.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return captureOutput(func() error {
		return createTestCLI(stdin, args...).Execute()
	})
}

// mustRunCLI is runCLI that fails the test on error.
func mustRunCLI(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	output, err := runCLI(t, stdin, args...)
	if err != nil {
		t.Fatalf("reclaim %s failed: %v\nOutput: %s", strings.Join(args, " "), err, output)
	}
	return output
}

// parseRecoveryKey extracts the recovery key printed by recovery create.
func parseRecoveryKey(t *testing.T, output string) string {
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
