// Package workflows provides high-level orchestration for reclaim commands.
//
// Workflows open the configured stores, call into the recovery service, and
// record audit entries. They are independent of CLI concerns like flag
// parsing, prompts, spinners, and output formatting: the cmd package parses
// flags, calls a workflow, and formats the result.
//
// # Environment
//
// Open resolves settings, loads (or creates) the config, and wires the
// local inventory, the remote store selected by store.backend, and the
// recovery service:
//
//	env, err := workflows.Open(ctx, workflows.OpenOptions{})
//	result, err := workflows.Create(ctx, env, workflows.CreateOptions{Passphrase: p})
//
// # Error Handling
//
// Workflows return sentinel errors from internal/errors so callers can use
// errors.Is without string matching:
//
//	if errors.Is(err, kerrors.ErrNoRecovery) {
//	    // suggest running `reclaim recovery create`
//	}
package workflows
