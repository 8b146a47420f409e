package cmd

import (
	logger "github.com/PolarWolf314/reclaim/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	// RecoveryCmd groups the commands that manage the remote recovery.
	RecoveryCmd = &cobra.Command{
		Use:   "recovery",
		Short: "Back up and restore secrets with a recovery key",
		Long: `Provides creation, restoration, inspection, and deletion of the
encrypted recovery that holds this account's secrets.

A recovery is protected by a single private key. You either derive it
from a passphrase or keep the generated recovery key somewhere safe.
Either one restores the backed up secrets on a new device.`,
		PersistentPreRun: initLogger,
	}
)

func initLogger(cmd *cobra.Command, args []string) {
	Logger = logger.Logger{
		Verbose: verbose,
		Debug:   debug,
	}
	Logger.Debugf("Initializing %s command with verbose=%t, debug=%t", cmd.CommandPath(), verbose, debug)
}

func init() {
	RecoveryCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RecoveryCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	RecoveryCmd.AddCommand(recoveryStatusCmd)
	RecoveryCmd.AddCommand(recoveryCreateCmd)
	RecoveryCmd.AddCommand(recoveryRestoreCmd)
	RecoveryCmd.AddCommand(recoveryDeleteCmd)
	RecoveryCmd.AddCommand(logCmd)
}

// Helper functions for testing

// GetRecoveryCmd returns the RecoveryCmd for testing.
func GetRecoveryCmd() *cobra.Command {
	return RecoveryCmd
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	resetRecoveryStatusState()
	resetRecoveryCreateState()
	resetRecoveryRestoreState()
	resetRecoveryDeleteState()
	resetLogCommandState()
	resetSecretsListState()
	resetSecretsImportState()
	resetGenerateCrossSigningState()
	ResetConfigState()
	resetCobraFlagState(RecoveryCmd)
	resetCobraFlagState(SecretsCmd)
}

// resetCobraFlagState clears the Changed marks on every flag under c so
// a reused command tree parses each run from scratch.
func resetCobraFlagState(c *cobra.Command) {
	reset := func(flag *pflag.Flag) { flag.Changed = false }
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetCobraFlagState(sub)
	}
}

// SetVerbose sets the verbose flag for testing.
func SetVerbose(v bool) {
	verbose = v
}

// SetDebug sets the debug flag for testing.
func SetDebug(d bool) {
	debug = d
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}
