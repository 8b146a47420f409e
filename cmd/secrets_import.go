package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/PolarWolf314/reclaim/internal/ui"
	"github.com/PolarWolf314/reclaim/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	importFile  string
	importForce bool
)

func init() {
	secretsImportCmd.Flags().StringVarP(&importFile, "file", "f", "", "read the secret from a file instead of stdin")
	secretsImportCmd.Flags().BoolVar(&importForce, "force", false, "overwrite an existing secret")
}

// resetSecretsImportState resets the import command's global state for testing.
func resetSecretsImportState() {
	importFile = ""
	importForce = false
}

var secretsImportCmd = &cobra.Command{
	Use:   "import <secret-id>",
	Short: "Store a secret on this device",
	Long: `Stores a secret value in this device's local inventory so it can be
included in the next recovery. The value is read from stdin or --file.
Surrounding whitespace is removed from stdin input; files are stored
byte for byte.

Examples:
  # From a pipe
  echo "$TOKEN" | reclaim secrets import api.token

  # From a file, replacing the current value
  reclaim secrets import ssh.deploy --file ./deploy_key --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting import command")
		Logger.Debugf("Flags: file=%q, force=%t", importFile, importForce)
		ctx := context.Background()
		id := args[0]

		var value []byte
		var err error
		if importFile != "" {
			value, err = os.ReadFile(importFile)
		} else {
			value, err = readInput(cmd)
		}
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}

		env, err := openEnvironment(ctx)
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}

		result, err := workflows.Import(ctx, env, workflows.ImportOptions{
			ID:        id,
			Value:     value,
			TrimSpace: importFile == "",
			Force:     importForce,
		})
		if err != nil {
			fmt.Println(formatError(err))
			if isUnexpectedError(err) {
				return &reportedError{err: err}
			}
			return nil
		}

		if result.Replaced {
			fmt.Println(ui.Check("Replaced " + ui.Highlight.Sprint(result.ID)))
		} else {
			fmt.Println(ui.Check("Imported " + ui.Highlight.Sprint(result.ID)))
		}
		fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("reclaim recovery create") + " to back it up")
		return nil
	},
}
