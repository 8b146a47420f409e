package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/PolarWolf314/reclaim/internal/configs"
	"github.com/PolarWolf314/reclaim/internal/utils"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	configInitBackend    string
	configInitStorePath  string
	configInitDSN        string
	configInitDeviceName string
	configInitIterations int
	configInitForce      bool
)

func init() {
	configInitCmd.Flags().StringVar(&configInitBackend, "backend", configs.BackendDiskv, "store backend: diskv, mysql or inmem")
	configInitCmd.Flags().StringVar(&configInitStorePath, "store-path", "", "directory for the diskv store")
	configInitCmd.Flags().StringVar(&configInitDSN, "dsn", "", "MySQL data source name")
	configInitCmd.Flags().StringVar(&configInitDeviceName, "device", "", "device name (defaults to hostname)")
	configInitCmd.Flags().IntVar(&configInitIterations, "iterations", 0, "PBKDF2 iterations for new passphrase recoveries")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config")
}

// resetConfigInitState resets the config init command's global state for testing.
func resetConfigInitState() {
	configInitBackend = configs.BackendDiskv
	configInitStorePath = ""
	configInitDSN = ""
	configInitDeviceName = ""
	configInitIterations = 0
	configInitForce = false
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the reclaim config file",
	Long: `Creates the config file with a new account and device ID.

Every other command creates a default config on first use; run this
first to choose a different backend or KDF cost. Existing configs are
only replaced with --force, which also generates new IDs.

Examples:
  reclaim config init
  reclaim config init --backend mysql --dsn 'reclaim:pw@tcp(db:3306)/reclaim'
  reclaim config init --device workstation --iterations 1000000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ConfigLogger.Infof("Starting config init command")

		settings, err := configs.ResolveSettings()
		if err != nil {
			return ConfigLogger.ErrorfAndReturn("Failed to resolve settings: %v", err)
		}
		ConfigLogger.Debugf("Config path: %s", settings.ConfigPath)

		if _, err := os.Stat(settings.ConfigPath); err == nil && !configInitForce {
			fmt.Println(color.YellowString("⚠") + " Config already exists at " + color.YellowString(settings.ConfigPath))
			fmt.Println(color.CyanString("→") + " Use " + color.YellowString("--force") + " to replace it")
			return nil
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return ConfigLogger.ErrorfAndReturn("Failed to check config: %v", err)
		}

		config := configs.Default()
		config.Store.Backend = configInitBackend
		config.Store.Path = configInitStorePath
		config.Store.DSN = configInitDSN
		if configInitDeviceName != "" {
			config.Account.DeviceName = utils.SanitizeDeviceName(configInitDeviceName)
		}
		if configInitIterations != 0 {
			config.KDF.Iterations = configInitIterations
		}

		if err := config.Validate(); err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}

		if err := configs.SaveConfig(settings.ConfigPath, config); err != nil {
			return ConfigLogger.ErrorfAndReturn("Failed to save config: %v", err)
		}
		ConfigLogger.Infof("Saved config for user %s", config.Account.UserID)

		fmt.Println(color.GreenString("✓") + " Configuration saved to " + color.YellowString(settings.ConfigPath))
		fmt.Println()
		printConfigSummary(config, settings)
		return nil
	},
}
