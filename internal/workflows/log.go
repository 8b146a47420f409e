package workflows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PolarWolf314/reclaim/internal/audit"
	kerrors "github.com/PolarWolf314/reclaim/internal/errors"
)

// LogOptions configures the log workflow.
type LogOptions struct {
	// Limit is the maximum number of entries to return. 0 means no limit.
	Limit int

	// Reverse orders entries from most recent to oldest when true.
	Reverse bool

	// Operations filters entries by operation types (comma-separated).
	Operations string

	// Since filters entries on or after this date (YYYY-MM-DD format).
	Since string
}

// LogResult contains the outcome of a log operation.
type LogResult struct {
	Entries []audit.Entry

	// Total is the number of entries before filtering.
	Total int
}

// Log reads and filters the audit log.
//
// Returns ErrInvalidConfig if Since is not a valid date.
func Log(_ context.Context, env *Environment, opts LogOptions) (*LogResult, error) {
	entries, err := audit.ReadEntries(env.Audit.Path)
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}
	result := &LogResult{Total: len(entries)}

	if opts.Operations != "" {
		ops := make(map[string]bool)
		for _, op := range strings.Split(opts.Operations, ",") {
			ops[strings.TrimSpace(op)] = true
		}
		entries = filterEntries(entries, func(e audit.Entry) bool { return ops[e.Operation] })
	}

	if opts.Since != "" {
		since, err := time.Parse("2006-01-02", opts.Since)
		if err != nil {
			return nil, fmt.Errorf("%w: --since date format invalid, use YYYY-MM-DD", kerrors.ErrInvalidConfig)
		}
		entries = filterEntries(entries, func(e audit.Entry) bool {
			ts, err := time.Parse(time.RFC3339Nano, e.Timestamp)
			return err == nil && !ts.Before(since)
		})
	}

	if opts.Reverse {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}

	if opts.Limit > 0 && len(entries) > opts.Limit {
		if opts.Reverse {
			entries = entries[:opts.Limit]
		} else {
			entries = entries[len(entries)-opts.Limit:]
		}
	}

	result.Entries = entries
	return result, nil
}

func filterEntries(entries []audit.Entry, keep func(audit.Entry) bool) []audit.Entry {
	var out []audit.Entry
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
