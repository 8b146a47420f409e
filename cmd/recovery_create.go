package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/PolarWolf314/reclaim/internal/secrets"
	"github.com/PolarWolf314/reclaim/internal/ui"
	"github.com/PolarWolf314/reclaim/internal/utils"
	"github.com/PolarWolf314/reclaim/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	createSecretIDs       []string
	createNoPassphrase    bool
	createPassphraseStdin bool
	createClear           bool
)

func init() {
	recoveryCreateCmd.Flags().StringSliceVarP(&createSecretIDs, "secret", "s", nil, "back up only these secret IDs (repeatable)")
	recoveryCreateCmd.Flags().BoolVar(&createNoPassphrase, "no-passphrase", false, "protect the recovery with a random key only")
	recoveryCreateCmd.Flags().BoolVar(&createPassphraseStdin, "passphrase-stdin", false, "read the passphrase from stdin")
	recoveryCreateCmd.Flags().BoolVar(&createClear, "clear", false, "show the recovery key on the terminal and clear it after Enter")
	recoveryCreateCmd.MarkFlagsMutuallyExclusive("no-passphrase", "passphrase-stdin")
}

func resetRecoveryCreateState() {
	createSecretIDs = nil
	createNoPassphrase = false
	createPassphraseStdin = false
	createClear = false
}

var recoveryCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Back up local secrets to a new recovery",
	Long: `Encrypts the secrets held on this device under a new private key and
publishes them as the account's recovery. Any previous recovery is replaced.

The private key is derived from a passphrase you choose. A recovery key
is printed in either case; store it somewhere safe. With --no-passphrase
the recovery key is the only way back in.

Examples:
  # Back up everything, prompting for a passphrase
  reclaim recovery create

  # Back up two secrets only
  reclaim recovery create -s m.cross_signing.master -s api.token

  # Random key, shown once on the terminal and then cleared
  reclaim recovery create --no-passphrase --clear

  # Non-interactive
  echo "$PASSPHRASE" | reclaim recovery create --passphrase-stdin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting create command")
		Logger.Debugf("Flags: secrets=%v, no-passphrase=%t, passphrase-stdin=%t, clear=%t",
			createSecretIDs, createNoPassphrase, createPassphraseStdin, createClear)
		ctx := context.Background()

		if createClear && !utils.IsTTYAvailable() {
			fmt.Println(ui.Cross("--clear needs a terminal"))
			return nil
		}

		passphrase, err := createPassphrase(cmd)
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}

		spinner, cleanup := startSpinner("Creating recovery...", verbose)
		defer cleanup()

		env, err := openEnvironment(ctx)
		if err != nil {
			return finish(spinner, err)
		}

		result, err := workflows.Create(ctx, env, workflows.CreateOptions{
			SecretIDs:  createSecretIDs,
			Passphrase: passphrase,
		})
		if err != nil {
			return finish(spinner, err)
		}
		info := result.Info
		defer secrets.Zero(info.PrivateKey)

		var b strings.Builder
		b.WriteString(ui.Check(fmt.Sprintf("Backed up %d %s to recovery %s",
			len(info.SecretIDs), utils.Plural(len(info.SecretIDs), "secret"), ui.Highlight.Sprint(info.Descriptor.ID))))
		b.WriteString(utils.FormatList(info.SecretIDs))
		if result.Replaced != "" {
			b.WriteString(ui.Muted.Sprint("replaced " + result.Replaced))
			b.WriteString("\n")
		}
		spinner.FinalMSG = b.String()

		if createClear {
			cleanup()
			return showRecoveryKeyOnTTY(info.RecoveryKey)
		}
		spinner.FinalMSG += "\n" + formatRecoveryKey(info.RecoveryKey)
		return nil
	},
}

func createPassphrase(cmd *cobra.Command) (string, error) {
	switch {
	case createNoPassphrase:
		return "", nil
	case createPassphraseStdin:
		return readLine(cmd)
	}
	passphrase, err := readNewPassphrase("Enter a passphrase for the recovery: ", "Confirm passphrase: ")
	if err != nil {
		return "", err
	}
	return string(passphrase), nil
}

func formatRecoveryKey(key string) string {
	var b strings.Builder
	b.WriteString("Your recovery key:\n\n")
	for _, line := range ui.RecoveryKeyLines(key, 4) {
		b.WriteString("    " + ui.Secret.Sprint(line) + "\n")
	}
	b.WriteString("\n" + ui.Warning.Sprint("!") + " Store it somewhere safe. It will not be shown again.")
	return b.String()
}

// showRecoveryKeyOnTTY writes the key to the terminal only, so it stays
// out of scrollback and redirected output once cleared.
func showRecoveryKeyOnTTY(key string) error {
	if err := utils.WriteToTTY("\n" + formatRecoveryKey(key) + "\n\nPress Enter once you have saved it..."); err != nil {
		return err
	}
	if err := utils.WaitForEnterFromTTY(); err != nil {
		return err
	}
	return utils.ClearScreen()
}
