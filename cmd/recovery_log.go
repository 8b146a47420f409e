package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PolarWolf314/reclaim/internal/audit"
	"github.com/PolarWolf314/reclaim/internal/ui"
	"github.com/PolarWolf314/reclaim/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	logLimit     int
	logReverse   bool
	logOperation string
	logSince     string
	logOneline   bool
	logJSON      bool
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of entries shown")
	logCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent entries first")
	logCmd.Flags().StringVar(&logOperation, "operation", "", "filter by operation type (comma-separated)")
	logCmd.Flags().StringVar(&logSince, "since", "", "show entries after date (YYYY-MM-DD)")
	logCmd.Flags().BoolVar(&logOneline, "oneline", false, "compact one-line format")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")
}

// resetLogCommandState resets the log command's global state for testing.
func resetLogCommandState() {
	logLimit = 0
	logReverse = false
	logOperation = ""
	logSince = ""
	logOneline = false
	logJSON = false
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the audit log",
	Long: `Displays the audit log of recovery operations on this device.

Entries never contain secret values, only their IDs.

Examples:
  reclaim recovery log                          # View full log
  reclaim recovery log -n 10                    # Last 10 entries
  reclaim recovery log --reverse                # Most recent first
  reclaim recovery log --operation create,restore
  reclaim recovery log --since 2024-01-01       # Filter by date
  reclaim recovery log --json                   # JSON output`,
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting log command")
	ctx := context.Background()

	spinner, cleanup := startSpinner("Loading audit log...", verbose)
	defer cleanup()

	env, err := openEnvironment(ctx)
	if err != nil {
		return finish(spinner, err)
	}

	result, err := workflows.Log(ctx, env, workflows.LogOptions{
		Limit:      logLimit,
		Reverse:    logReverse,
		Operations: logOperation,
		Since:      logSince,
	})
	if err != nil {
		return finish(spinner, err)
	}

	Logger.Debugf("Parsed %d entries from audit log", result.Total)
	Logger.Debugf("After filtering: %d entries", len(result.Entries))

	spinner.FinalMSG = ""
	if len(result.Entries) == 0 {
		if result.Total == 0 {
			fmt.Println("No audit log entries found.")
		} else {
			fmt.Println("No audit log entries found matching the filters.")
		}
		return nil
	}

	switch {
	case logJSON:
		return outputLogJSON(result.Entries)
	case logOneline:
		outputLogOneline(result.Entries)
	default:
		outputLogDefault(result.Entries)
	}
	return nil
}

func outputLogJSON(entries []audit.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries to JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func outputLogOneline(entries []audit.Entry) {
	for _, e := range entries {
		date := e.Timestamp
		if len(date) >= 10 {
			date = date[:10]
		}
		fmt.Printf("%s %s %s\n", date, ui.Highlight.Sprint(e.Operation), formatLogDetails(e))
	}
}

func outputLogDefault(entries []audit.Entry) {
	for _, e := range entries {
		ts := e.Timestamp
		if len(ts) >= 19 {
			ts = strings.Replace(ts[:19], "T", " ", 1)
		}
		fmt.Printf("%-19s  %-8s  %s\n", ts, e.Operation, formatLogDetails(e))
	}
}

// formatLogDetails summarises the operation-specific fields of e.
func formatLogDetails(e audit.Entry) string {
	switch e.Operation {
	case audit.OpCreate:
		method := "recovery key"
		if e.Passphrase {
			method = "passphrase"
		}
		return fmt.Sprintf("%s, %d secrets, %s", short(e.KeyID), e.SecretsCount, method)
	case audit.OpRestore:
		return fmt.Sprintf("%s, %d recovered, %d updated, %d invalid", short(e.KeyID), e.SecretsCount, e.UpdatedCount, e.InvalidCount)
	case audit.OpDelete:
		if e.SecretsKept {
			return short(e.KeyID) + ", secrets kept"
		}
		return short(e.KeyID)
	case audit.OpImport:
		return strings.Join(e.Secrets, ", ")
	}
	return ""
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
