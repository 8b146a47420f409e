package utils

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/term"
)

// ErrPassphraseMismatch is returned when a confirmation does not match.
var ErrPassphraseMismatch = errors.New("passphrases do not match")

func ttyPath() string {
	if runtime.GOOS == "windows" {
		return "CON"
	}
	return "/dev/tty"
}

func readHidden(fd int, prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	passphrase, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) // Add newline after hidden input

	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	return passphrase, nil
}

// ReadPassphrase prompts for a passphrase without echoing input.
// It reads from stdin when that is a terminal and from /dev/tty (CON on
// Windows) otherwise, so stdin stays free for piped data.
func ReadPassphrase(prompt string) ([]byte, error) {
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		return readHidden(fd, prompt)
	}

	tty, err := os.Open(ttyPath())
	if err != nil {
		return nil, fmt.Errorf("cannot read passphrase: no terminal available: %w", err)
	}
	defer tty.Close()

	fd := int(tty.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("cannot read passphrase: %s is not a terminal", ttyPath())
	}
	return readHidden(fd, prompt)
}

// ReadNewPassphrase prompts for a passphrase twice and returns it if both match.
func ReadNewPassphrase(prompt, confirmPrompt string) ([]byte, error) {
	first, err := ReadPassphrase(prompt)
	if err != nil {
		return nil, err
	}
	if len(first) == 0 {
		return nil, errors.New("passphrase must not be empty")
	}
	second, err := ReadPassphrase(confirmPrompt)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(first, second) {
		return nil, ErrPassphraseMismatch
	}
	return first, nil
}

// IsTerminal returns true if stdin is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsTTYAvailable returns true if /dev/tty (or CON on Windows) is available for reading.
func IsTTYAvailable() bool {
	tty, err := os.Open(ttyPath())
	if err != nil {
		return false
	}
	defer tty.Close()

	return term.IsTerminal(int(tty.Fd()))
}

// WriteToTTY writes content directly to the terminal, bypassing stdout and stderr.
func WriteToTTY(content string) error {
	tty, err := os.OpenFile(ttyPath(), os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("cannot open %s for writing: %w", ttyPath(), err)
	}
	defer tty.Close()

	if _, err = tty.WriteString(content); err != nil {
		return fmt.Errorf("failed to write to TTY: %w", err)
	}
	return nil
}

// ClearScreen clears the terminal and moves the cursor to the top left.
func ClearScreen() error {
	return WriteToTTY("\033[2J\033[H")
}

// WaitForEnterFromTTY blocks until the user presses Enter on the TTY.
func WaitForEnterFromTTY() error {
	tty, err := os.Open(ttyPath())
	if err != nil {
		return fmt.Errorf("cannot open %s for reading: %w", ttyPath(), err)
	}
	defer tty.Close()

	buf := make([]byte, 1)
	for {
		if _, err := tty.Read(buf); err != nil {
			return fmt.Errorf("failed to read from TTY: %w", err)
		}
		if buf[0] == '\n' || buf[0] == '\r' {
			return nil
		}
	}
}
