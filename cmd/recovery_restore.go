package cmd

import (
	"context"
	"fmt"
	"strings"

	kerrors "github.com/PolarWolf314/reclaim/internal/errors"
	"github.com/PolarWolf314/reclaim/internal/ui"
	"github.com/PolarWolf314/reclaim/internal/utils"
	"github.com/PolarWolf314/reclaim/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	restoreSecretIDs        []string
	restorePassphraseStdin  bool
	restoreRecoveryKeyStdin bool
	restoreUseRecoveryKey   bool
)

func init() {
	recoveryRestoreCmd.Flags().StringSliceVarP(&restoreSecretIDs, "secret", "s", nil, "restore only these secret IDs (repeatable)")
	recoveryRestoreCmd.Flags().BoolVar(&restorePassphraseStdin, "passphrase-stdin", false, "read the passphrase from stdin")
	recoveryRestoreCmd.Flags().BoolVar(&restoreRecoveryKeyStdin, "recovery-key-stdin", false, "read the recovery key from stdin")
	recoveryRestoreCmd.Flags().BoolVar(&restoreUseRecoveryKey, "recovery-key", false, "prompt for the recovery key even if a passphrase is set")
	recoveryRestoreCmd.MarkFlagsMutuallyExclusive("passphrase-stdin", "recovery-key-stdin", "recovery-key")
}

func resetRecoveryRestoreState() {
	restoreSecretIDs = nil
	restorePassphraseStdin = false
	restoreRecoveryKeyStdin = false
	restoreUseRecoveryKey = false
}

var recoveryRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore backed up secrets to this device",
	Long: `Unlocks the recovery with its passphrase or recovery key and writes
every backed up secret that is missing or different on this device.

Secrets that fail to decrypt or do not match this account's trusted
cross-signing keys are reported and left untouched.

Examples:
  # Prompt for the passphrase (or the recovery key if there is none)
  reclaim recovery restore

  # Use the recovery key
  reclaim recovery restore --recovery-key

  # Non-interactive
  cat recovery-key.txt | reclaim recovery restore --recovery-key-stdin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting restore command")
		Logger.Debugf("Flags: secrets=%v, passphrase-stdin=%t, recovery-key-stdin=%t, recovery-key=%t",
			restoreSecretIDs, restorePassphraseStdin, restoreRecoveryKeyStdin, restoreUseRecoveryKey)
		ctx := context.Background()

		env, err := openEnvironment(ctx)
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}

		opts, err := restoreCredentials(ctx, cmd, env)
		if err != nil {
			fmt.Println(formatError(err))
			if isUnexpectedError(err) {
				return &reportedError{err: err}
			}
			return nil
		}
		opts.SecretIDs = restoreSecretIDs

		spinner, cleanup := startSpinner("Restoring secrets...", verbose)
		defer cleanup()

		result, err := workflows.Restore(ctx, env, opts)
		if err != nil {
			return finish(spinner, err)
		}

		spinner.FinalMSG = formatRestoreResult(result)
		return nil
	},
}

// restoreCredentials works out which credential to ask for and reads it.
func restoreCredentials(ctx context.Context, cmd *cobra.Command, env *workflows.Environment) (workflows.RestoreOptions, error) {
	var opts workflows.RestoreOptions
	var err error
	switch {
	case restorePassphraseStdin:
		opts.Passphrase, err = readLine(cmd)
		return opts, err
	case restoreRecoveryKeyStdin:
		opts.RecoveryKey, err = readLine(cmd)
		return opts, err
	}

	usePassphrase, err := env.Service.UsePassphrase(ctx)
	if err != nil {
		return opts, err
	}
	hasRecovery, err := env.Service.HasRecovery(ctx)
	if err != nil {
		return opts, err
	}
	if !hasRecovery {
		return opts, kerrors.ErrNoRecovery
	}

	if usePassphrase && !restoreUseRecoveryKey {
		p, err := readPassphrase("Enter the recovery passphrase: ")
		if err != nil {
			return opts, err
		}
		opts.Passphrase = string(p)
		return opts, nil
	}

	k, err := readPassphrase("Enter the recovery key: ")
	if err != nil {
		return opts, err
	}
	opts.RecoveryKey = string(k)
	return opts, nil
}

func formatRestoreResult(result *workflows.RestoreResult) string {
	outcome := result.Outcome
	var b strings.Builder

	b.WriteString(ui.Check(fmt.Sprintf("Recovered %d %s from recovery %s",
		len(outcome.Secrets), utils.Plural(len(outcome.Secrets), "secret"), ui.Highlight.Sprint(result.KeyID))))
	b.WriteString("\n")

	if len(outcome.UpdatedSecrets) > 0 {
		b.WriteString(fmt.Sprintf("Updated %d on this device:", len(outcome.UpdatedSecrets)))
		b.WriteString(utils.FormatList(outcome.UpdatedSecrets))
	} else {
		b.WriteString(ui.Muted.Sprint("this device was already up to date"))
		b.WriteString("\n")
	}

	if len(outcome.InvalidSecrets) > 0 {
		n := len(outcome.InvalidSecrets)
		b.WriteString(ui.Warning.Sprint("!") + fmt.Sprintf(" %d %s could not be verified and left untouched:",
			n, utils.Plural(n, "secret")))
		b.WriteString(utils.FormatList(outcome.InvalidSecrets))
	}
	return b.String()
}
