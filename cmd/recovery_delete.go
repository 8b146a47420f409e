package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/PolarWolf314/reclaim/internal/ui"
	"github.com/PolarWolf314/reclaim/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	deleteKeepSecrets bool
	deleteYes         bool
)

func init() {
	recoveryDeleteCmd.Flags().BoolVar(&deleteKeepSecrets, "keep-secrets", false, "leave the encrypted secrets in the store")
	recoveryDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "do not ask for confirmation")
}

func resetRecoveryDeleteState() {
	deleteKeepSecrets = false
	deleteYes = false
}

var recoveryDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the current recovery",
	Long: `Removes the account's recovery so its key can no longer restore
anything. Secrets on this device are not touched.

By default the encrypted secrets are deleted from the store as well.
Use --keep-secrets to leave them in place.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting delete command")
		Logger.Debugf("Flags: keep-secrets=%t, yes=%t", deleteKeepSecrets, deleteYes)
		ctx := context.Background()

		if !deleteYes {
			ok, err := confirm(cmd, "Delete the recovery? Secrets backed up in it can no longer be restored. [y/N]: ")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted.")
				return nil
			}
		}

		spinner, cleanup := startSpinner("Deleting recovery...", verbose)
		defer cleanup()

		env, err := openEnvironment(ctx)
		if err != nil {
			return finish(spinner, err)
		}

		result, err := workflows.Delete(ctx, env, workflows.DeleteOptions{KeepSecrets: deleteKeepSecrets})
		if err != nil {
			return finish(spinner, err)
		}

		msg := ui.Check("Deleted recovery " + ui.Highlight.Sprint(result.KeyID))
		if deleteKeepSecrets {
			msg += "\n" + ui.Muted.Sprint("encrypted secrets were kept in the store")
		}
		spinner.FinalMSG = msg
		return nil
	},
}

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	fmt.Print(prompt)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && answer == "" {
		return false, fmt.Errorf("failed to read input: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
