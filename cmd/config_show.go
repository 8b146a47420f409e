package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/PolarWolf314/reclaim/internal/configs"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var configShowJSON bool

func init() {
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output in JSON format")
}

// resetConfigShowState resets the config show command's global state for testing.
func resetConfigShowState() {
	configShowJSON = false
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Displays the active reclaim configuration. Passwords in the MySQL
DSN are masked.

Examples:
  reclaim config show
  reclaim config show --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ConfigLogger.Infof("Starting config show command")

		settings, err := configs.ResolveSettings()
		if err != nil {
			return ConfigLogger.ErrorfAndReturn("Failed to resolve settings: %v", err)
		}

		ConfigLogger.Debugf("Loading config from %s", settings.ConfigPath)
		config, created, err := configs.EnsureConfig(settings.ConfigPath)
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}
		if created {
			ConfigLogger.Infof("Created default config at %s", settings.ConfigPath)
		}

		shown := *config
		shown.Store.DSN = config.Store.RedactedDSN()

		if configShowJSON {
			output, err := json.MarshalIndent(&shown, "", "  ")
			if err != nil {
				return ConfigLogger.ErrorfAndReturn("Failed to marshal config to JSON: %v", err)
			}
			fmt.Println(string(output))
			return nil
		}

		fmt.Println(color.CyanString("Configuration") + " (" + settings.ConfigPath + "):")
		fmt.Println()
		printConfigSummary(&shown, settings)
		return nil
	},
}

// printConfigSummary prints the settings a user usually needs to check.
func printConfigSummary(config *configs.Config, settings *configs.Settings) {
	fmt.Printf("  %-16s %s\n", "User ID:", color.YellowString(config.Account.UserID))
	fmt.Printf("  %-16s %s\n", "Device ID:", color.YellowString(config.Account.DeviceID))
	if config.Account.DeviceName != "" {
		fmt.Printf("  %-16s %s\n", "Device:", color.GreenString(config.Account.DeviceName))
	}
	fmt.Printf("  %-16s %s\n", "Backend:", color.GreenString(config.Store.Backend))
	switch config.Store.Backend {
	case configs.BackendDiskv:
		fmt.Printf("  %-16s %s\n", "Store path:", config.StorePath(settings))
	case configs.BackendMySQL:
		fmt.Printf("  %-16s %s\n", "DSN:", config.Store.RedactedDSN())
	}
	fmt.Printf("  %-16s %s\n", "Local secrets:", config.LocalPath(settings))
	fmt.Printf("  %-16s %d\n", "KDF iterations:", config.KDF.Iterations)

	trusted := 0
	for _, k := range []string{config.CrossSigning.MasterKey, config.CrossSigning.SelfSigningKey, config.CrossSigning.UserSigningKey} {
		if k != "" {
			trusted++
		}
	}
	fmt.Printf("  %-16s %d of 3 keys trusted\n", "Cross-signing:", trusted)
}
