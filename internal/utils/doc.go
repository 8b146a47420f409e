// Package utils provides shared helpers for the reclaim CLI.
//
// # Terminal
//
// ReadPassphrase and ReadNewPassphrase read hidden input from the terminal,
// falling back to /dev/tty when stdin is redirected. WaitForEnterFromTTY and
// ClearScreen are used to take a recovery key off the screen once the user
// has written it down.
//
// # Input
//
// ReadStdin reads piped secret material.
//
// # Devices
//
// GenerateDeviceName and SanitizeDeviceName produce the default device name
// stored in the config.
package utils
