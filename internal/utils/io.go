package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoInput is returned by ReadStdin when nothing was piped in.
var ErrNoInput = errors.New("no data provided on stdin")

// ReadStdin reads all content from stdin.
// Returns ErrNoInput if stdin is a terminal or empty.
func ReadStdin() ([]byte, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat stdin: %w", err)
	}

	// ModeCharDevice means stdin is a terminal and nothing was piped.
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return nil, fmt.Errorf("%w (hint: pipe the secret to this command or use --file)", ErrNoInput)
	}

	return ReadAllNonEmpty(os.Stdin)
}

// ReadAllNonEmpty reads r to the end and fails if nothing was read.
func ReadAllNonEmpty(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoInput
	}
	return data, nil
}
