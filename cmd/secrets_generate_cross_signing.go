package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/PolarWolf314/reclaim/internal/crosssigning"
	"github.com/PolarWolf314/reclaim/internal/ui"
	"github.com/PolarWolf314/reclaim/internal/workflows"

	"github.com/spf13/cobra"
)

var generateCrossSigningForce bool

func init() {
	generateCrossSigningCmd.Flags().BoolVar(&generateCrossSigningForce, "force", false, "replace existing cross-signing keys")
}

func resetGenerateCrossSigningState() {
	generateCrossSigningForce = false
}

var generateCrossSigningCmd = &cobra.Command{
	Use:   "generate-cross-signing",
	Short: "Generate cross-signing keys for this account",
	Long: `Generates the master, self-signing and user-signing keys, stores their
private halves on this device, and records the public halves in the
config as trusted. Restored cross-signing secrets must match them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting generate-cross-signing command")
		ctx := context.Background()

		spinner, cleanup := startSpinner("Generating cross-signing keys...", verbose)
		defer cleanup()

		env, err := openEnvironment(ctx)
		if err != nil {
			return finish(spinner, err)
		}

		result, err := workflows.GenerateCrossSigning(ctx, env, workflows.GenerateCrossSigningOptions{Force: generateCrossSigningForce})
		if err != nil {
			return finish(spinner, err)
		}

		var b strings.Builder
		b.WriteString(ui.Check("Generated cross-signing keys\n"))
		for _, id := range crosssigning.IDs() {
			b.WriteString(fmt.Sprintf("    %-28s %s\n", id, ui.Muted.Sprint(result.PublicKeys[id])))
		}
		b.WriteString(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("reclaim recovery create") + " to back them up")
		spinner.FinalMSG = b.String()
		return nil
	},
}
