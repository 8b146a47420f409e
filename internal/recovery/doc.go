// Package recovery backs up local secrets to a remote encrypted store and
// restores them on another device.
//
// A recovery is the default storage key descriptor in the remote store
// together with the secrets encrypted under it. The key is either derived
// from a passphrase or generated at random; in both cases the caller gets a
// recovery key string once, at creation.
//
// # Creating a recovery
//
//	svc := recovery.New(inv, remote)
//	info, err := svc.CreateRecoveryForSecrets(ctx, nil, "A passphrase")
//
// All secrets are encrypted before anything is published. The descriptor is
// published first, then the secrets, and only then is the descriptor made
// the default. A failure partway leaves the previous recovery in place.
//
// # Recovering secrets
//
//	key, err := svc.PrivateKeyFromPassphrase(ctx, "A passphrase")
//	outcome, err := svc.RecoverSecrets(ctx, nil, key)
//
// A key that does not match the default descriptor fails with
// ErrInvalidPrivateKey before any secret is decrypted. Secrets that fail
// authentication or validation are reported in Outcome.InvalidSecrets and
// are never written locally.
//
// # Concurrency
//
// Creation and deletion are serialized per Service and fail fast with
// ErrRecoveryOperationInProgress. Recoveries may run concurrently with each
// other but wait for an in-flight publish to finish.
package recovery
