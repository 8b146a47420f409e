package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PolarWolf314/reclaim/internal/ui"
	"github.com/PolarWolf314/reclaim/internal/workflows"

	"github.com/spf13/cobra"
)

var secretsListJSON bool

func init() {
	secretsListCmd.Flags().BoolVar(&secretsListJSON, "json", false, "output in JSON format")
}

func resetSecretsListState() {
	secretsListJSON = false
}

var secretsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the secrets held on this device",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting list command")
		ctx := context.Background()

		env, err := openEnvironment(ctx)
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}

		result, err := workflows.Status(ctx, env)
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}

		var local []workflows.SecretStatus
		for _, s := range result.Secrets {
			if s.Local {
				local = append(local, s)
			}
		}

		if secretsListJSON {
			rows := make([]secretStatusRow, 0, len(local))
			for _, s := range local {
				rows = append(rows, secretStatusRow{ID: s.ID, Local: true, BackedUp: s.BackedUp})
			}
			data, err := json.MarshalIndent(rows, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal secrets to JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(local) == 0 {
			fmt.Println("No secrets on this device.")
			return nil
		}
		for _, s := range local {
			mark := ui.Success.Sprint("✓")
			if !s.BackedUp {
				mark = ui.Warning.Sprint("!")
			}
			fmt.Println(mark + " " + s.ID)
		}
		return nil
	},
}
