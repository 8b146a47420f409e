package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/reclaim/internal/errors"
	"github.com/PolarWolf314/reclaim/internal/ui"
	"github.com/PolarWolf314/reclaim/internal/utils"
	"github.com/PolarWolf314/reclaim/internal/workflows"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

var (
	// Prompts are variables so tests can answer them.
	readPassphrase    = utils.ReadPassphrase
	readNewPassphrase = utils.ReadNewPassphrase
)

// SetPassphraseReaders replaces the interactive prompts for testing.
// Passing nil restores the terminal readers.
func SetPassphraseReaders(read func(string) ([]byte, error), readNew func(string, string) ([]byte, error)) {
	if read == nil {
		read = utils.ReadPassphrase
	}
	if readNew == nil {
		readNew = utils.ReadNewPassphrase
	}
	readPassphrase = read
	readNewPassphrase = readNew
}

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// spinner.FinalMSG values do not need trailing newlines; the cleanup
// function adds one before printing.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	quiet := !verbose && !debug
	if quiet {
		s.Start()
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		if quiet {
			log.SetOutput(os.Stdout)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// s.Stop() would print it otherwise
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// openEnvironment loads the config and wires the stores for a command.
func openEnvironment(ctx context.Context) (*workflows.Environment, error) {
	return workflows.Open(ctx, workflows.OpenOptions{Log: Logger})
}

// readInput reads a value from the command's input. When that is the
// process stdin it must be piped.
func readInput(cmd *cobra.Command) ([]byte, error) {
	in := cmd.InOrStdin()
	if in == os.Stdin {
		return utils.ReadStdin()
	}
	return utils.ReadAllNonEmpty(in)
}

// readLine reads one trimmed line, as used for passphrases given with a
// --*-stdin flag.
func readLine(cmd *cobra.Command) (string, error) {
	data, err := readInput(cmd)
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(data), "\n")
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return "", utils.ErrNoInput
	}
	return line, nil
}

// formatError turns a workflow error into a message for the user.
func formatError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrNoRecovery):
		return ui.Cross("No recovery exists for this account\n") +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("reclaim recovery create") + " first"

	case errors.Is(err, kerrors.ErrNoSecretsToBackUp):
		return ui.Cross("There are no local secrets to back up\n") +
			ui.Info.Sprint("→") + " Add one with " + ui.Code.Sprint("reclaim secrets import")

	case errors.Is(err, kerrors.ErrInvalidRecoveryKey):
		return ui.Cross("That is not a valid recovery key\n") +
			ui.Info.Sprint("→") + " Check it for typos; spaces are ignored"

	case errors.Is(err, kerrors.ErrInvalidPrivateKey):
		return ui.Cross("The key does not unlock this recovery\n") +
			ui.Info.Sprint("→") + " It may belong to an older recovery, or the passphrase is wrong"

	case errors.Is(err, kerrors.ErrNotAPassphraseRecovery):
		return ui.Cross("This recovery was created without a passphrase\n") +
			ui.Info.Sprint("→") + " Use your recovery key instead"

	case errors.Is(err, kerrors.ErrRecoveryOperationInProgress):
		return ui.Cross("Another recovery operation is in progress, try again shortly")

	case errors.Is(err, kerrors.ErrSecretExists):
		return ui.Cross(err.Error()+"\n") +
			ui.Info.Sprint("→") + " Use " + ui.Flag.Sprint("--force") + " to overwrite it"

	case errors.Is(err, kerrors.ErrRecoveryStoreUnavailable):
		return ui.Cross("The recovery store is unavailable: " + err.Error())

	case errors.Is(err, kerrors.ErrInvalidConfig), errors.Is(err, kerrors.ErrUnknownBackend):
		return ui.Cross("Invalid configuration: "+err.Error()+"\n") +
			ui.Info.Sprint("→") + " Check " + ui.Code.Sprint("reclaim config show")

	case errors.Is(err, utils.ErrPassphraseMismatch):
		return ui.Cross("Passphrases do not match")

	case errors.Is(err, utils.ErrNoInput):
		return ui.Cross(err.Error())

	default:
		return ui.Cross(err.Error())
	}
}

// isUnexpectedError returns true if the error is unexpected and should cause a non-zero exit.
func isUnexpectedError(err error) bool {
	switch {
	case errors.Is(err, kerrors.ErrNoRecovery),
		errors.Is(err, kerrors.ErrNoSecretsToBackUp),
		errors.Is(err, kerrors.ErrSecretExists):
		return false
	default:
		return true
	}
}

// reportedError marks an error whose message was already shown.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// IsReported reports whether err was already printed to the user.
func IsReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

// finish reports err through the spinner and decides the exit status.
func finish(s *spinner.Spinner, err error) error {
	s.FinalMSG = formatError(err)
	if isUnexpectedError(err) {
		Logger.Errorf("%v", err)
		return &reportedError{err: err}
	}
	return nil
}
