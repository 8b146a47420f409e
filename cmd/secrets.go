package cmd

import (
	"github.com/spf13/cobra"
)

// SecretsCmd groups the commands that manage the local secret inventory.
var SecretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage the secrets held on this device",
	Long: `Lists, imports, and generates the secrets this device holds locally.
Only locally held secrets can be backed up by "reclaim recovery create".`,
	PersistentPreRun: initLogger,
}

func init() {
	SecretsCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	SecretsCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	SecretsCmd.AddCommand(secretsListCmd)
	SecretsCmd.AddCommand(secretsImportCmd)
	SecretsCmd.AddCommand(generateCrossSigningCmd)
}

// GetSecretsCmd returns the SecretsCmd for testing.
func GetSecretsCmd() *cobra.Command {
	return SecretsCmd
}
