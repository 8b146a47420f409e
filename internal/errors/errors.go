package errors

import "errors"

// Recovery key errors indicate a candidate key could not be used.
var (
	// ErrInvalidRecoveryKey indicates the recovery key text is malformed or fails its checksum.
	ErrInvalidRecoveryKey = errors.New("invalid recovery key")

	// ErrInvalidPrivateKey indicates a private key does not match the storage key descriptor.
	ErrInvalidPrivateKey = errors.New("private key does not match the recovery")

	// ErrInvalidKeyLength indicates a private key has an unexpected length.
	ErrInvalidKeyLength = errors.New("invalid private key length")
)

// Cryptographic errors indicate failures while encrypting or decrypting a secret.
var (
	// ErrAuthenticationFailed indicates a secret's MAC did not verify.
	ErrAuthenticationFailed = errors.New("secret authentication failed")

	// ErrInvalidPassphrase indicates passphrase derivation parameters are unusable.
	ErrInvalidPassphrase = errors.New("invalid passphrase parameters")
)

// Recovery state errors indicate the account is not in the state an operation requires.
var (
	// ErrNoRecovery indicates no default storage key exists remotely.
	ErrNoRecovery = errors.New("no recovery exists")

	// ErrNotAPassphraseRecovery indicates the default storage key was not derived from a passphrase.
	ErrNotAPassphraseRecovery = errors.New("recovery is not protected by a passphrase")

	// ErrNoSecretsToBackUp indicates the set of secrets to back up is empty.
	ErrNoSecretsToBackUp = errors.New("no secrets to back up")

	// ErrRecoveryOperationInProgress indicates another recovery mutation is already running.
	ErrRecoveryOperationInProgress = errors.New("a recovery operation is already in progress")
)

// Storage errors indicate issues with the remote store or local inventory.
var (
	// ErrRecoveryStoreUnavailable indicates the remote encrypted store could not be reached or failed.
	// It is the only error kind worth retrying.
	ErrRecoveryStoreUnavailable = errors.New("recovery store unavailable")

	// ErrDescriptorNotFound indicates a storage key descriptor does not exist.
	ErrDescriptorNotFound = errors.New("storage key not found")

	// ErrSecretNotFound indicates a secret does not exist in the queried store.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrSecretExists indicates a local secret would be overwritten without --force.
	ErrSecretExists = errors.New("secret already exists")
)

// Configuration errors indicate an unusable configuration file or flag combination.
var (
	// ErrInvalidConfig indicates the configuration is malformed.
	ErrInvalidConfig = errors.New("configuration is invalid")

	// ErrUnknownBackend indicates the configured storage backend is not supported.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// IsTransient reports whether err is a remote store failure a caller may retry.
// Authentication and validation failures are permanent.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRecoveryStoreUnavailable)
}
