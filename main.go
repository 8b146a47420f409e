package main

import (
	"fmt"
	"os"

	"github.com/PolarWolf314/reclaim/cmd"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "reclaim",
	Short: "Reclaim - back up and restore account secrets with a recovery key.",
	Long: `Reclaim keeps an encrypted backup of your account secrets in a storage
backend of your choice, so a new device can get them back with a
passphrase or a recovery key.

Usage:
  reclaim <command> [flags]

Available Commands:
  recovery   Create, restore, inspect, and delete the recovery
  secrets    Manage the secrets held on this device
  config     Manage reclaim configuration

Run 'reclaim help <command>' for more details on a specific command.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(c *cobra.Command, args []string) {
		fmt.Println("Welcome to reclaim! Run 'reclaim --help' to see available commands.")
	},
}

func init() {
	rootCmd.AddCommand(cmd.RecoveryCmd)
	rootCmd.AddCommand(cmd.SecretsCmd)
	rootCmd.AddCommand(cmd.ConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !cmd.IsReported(err) {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
