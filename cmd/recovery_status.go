package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PolarWolf314/reclaim/internal/ui"
	"github.com/PolarWolf314/reclaim/internal/workflows"

	"github.com/spf13/cobra"
)

var statusJSONOutput bool

func init() {
	recoveryStatusCmd.Flags().BoolVar(&statusJSONOutput, "json", false, "output in JSON format")
}

func resetRecoveryStatusState() {
	statusJSONOutput = false
}

// statusOutput is the JSON form of the status command.
type statusOutput struct {
	HasRecovery   bool              `json:"has_recovery"`
	KeyID         string            `json:"key_id,omitempty"`
	UsePassphrase bool              `json:"use_passphrase"`
	Backend       string            `json:"backend"`
	Secrets       []secretStatusRow `json:"secrets"`
}

type secretStatusRow struct {
	ID       string `json:"id"`
	Local    bool   `json:"local"`
	BackedUp bool   `json:"backed_up"`
}

var recoveryStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a recovery exists and what it covers",
	Long: `Shows the current recovery of this account and, for every secret
known locally or in the store, whether it is held on this device and
whether it is backed up.

Use --json for machine-readable output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting status command")
		ctx := context.Background()

		spinner, cleanup := startSpinner("Checking recovery...", verbose)
		defer cleanup()

		env, err := openEnvironment(ctx)
		if err != nil {
			return finish(spinner, err)
		}

		result, err := workflows.Status(ctx, env)
		if err != nil {
			return finish(spinner, err)
		}
		Logger.Debugf("Status: recovery=%t, %d secrets", result.State.HasRecovery, len(result.Secrets))

		spinner.FinalMSG = ""
		if statusJSONOutput {
			return outputStatusJSON(result)
		}
		printStatus(result)
		return nil
	},
}

func outputStatusJSON(result *workflows.StatusResult) error {
	out := statusOutput{
		HasRecovery:   result.State.HasRecovery,
		KeyID:         result.State.KeyID,
		UsePassphrase: result.State.UsePassphrase,
		Backend:       result.Backend,
		Secrets:       make([]secretStatusRow, 0, len(result.Secrets)),
	}
	for _, s := range result.Secrets {
		out.Secrets = append(out.Secrets, secretStatusRow{ID: s.ID, Local: s.Local, BackedUp: s.BackedUp})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status to JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printStatus(result *workflows.StatusResult) {
	state := result.State
	if !state.HasRecovery {
		fmt.Println(ui.Warning.Sprint("!") + " No recovery exists for this account")
	} else {
		method := "recovery key only"
		if state.UsePassphrase {
			method = "passphrase or recovery key"
		}
		fmt.Println(ui.Check("Recovery " + ui.Highlight.Sprint(state.KeyID)))
		fmt.Println("  Unlocked by: " + method)
	}
	fmt.Println("  Backend:     " + result.Backend)
	fmt.Println()

	if len(result.Secrets) == 0 {
		fmt.Println("No secrets found.")
		return
	}

	fmt.Printf("  %-32s %-7s %s\n", "SECRET", "LOCAL", "BACKED UP")
	for _, s := range result.Secrets {
		fmt.Printf("  %-32s %-7s %s\n", s.ID, plainYesNo(s.Local), plainYesNo(s.BackedUp))
	}

	var unprotected int
	for _, s := range result.Secrets {
		if s.Local && !s.BackedUp {
			unprotected++
		}
	}
	if unprotected > 0 {
		fmt.Println()
		fmt.Println(ui.Info.Sprint("→") + fmt.Sprintf(" %d local secret(s) not backed up. Run ", unprotected) +
			ui.Code.Sprint("reclaim recovery create") + " to include them")
	}
}

// plainYesNo keeps table columns aligned; colour codes would widen them.
func plainYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
