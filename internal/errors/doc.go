// Package errors provides typed error values for reclaim.
//
// Sentinel errors let callers handle specific conditions with errors.Is()
// rather than string matching.
//
// # Error Categories
//
//   - Recovery key errors: ErrInvalidRecoveryKey, ErrInvalidPrivateKey
//   - Crypto errors: ErrAuthenticationFailed
//   - Recovery state errors: ErrNoRecovery, ErrNotAPassphraseRecovery,
//     ErrNoSecretsToBackUp, ErrRecoveryOperationInProgress
//   - Storage errors: ErrRecoveryStoreUnavailable, ErrDescriptorNotFound,
//     ErrSecretNotFound, ErrSecretExists
//   - Configuration errors: ErrInvalidConfig, ErrUnknownBackend
//
// # Usage
//
// Attach a kind to a foreign error:
//
//	if err := remote.PutDescriptor(ctx, desc, true); err != nil {
//	    return nil, fmt.Errorf("%w: %v", errors.ErrRecoveryStoreUnavailable, err)
//	}
//
// Handle errors in the CLI layer:
//
//	outcome, err := svc.RecoverSecrets(ctx, nil, key)
//	if errors.Is(err, kerrors.ErrInvalidPrivateKey) {
//	    // Show user-friendly message
//	}
//
// Only ErrRecoveryStoreUnavailable is transient; see IsTransient.
package errors
