// Package secrets provides the cryptographic core of reclaim.
//
// # Storage Keys
//
// A storage key is a 32-byte private key that protects every backed-up secret.
// It is either generated at random or derived from a passphrase with
// PBKDF2-HMAC-SHA-512 (DefaultIterations rounds, random 32-character salt).
// Its public StorageKeyDescriptor records the derivation parameters and a
// verification datum so a candidate key can be checked without decrypting
// any secret.
//
// # Secret Encryption
//
// Each secret is encrypted with AES-256-CTR under a subkey expanded from the
// storage key with HKDF-SHA-256, using the secret's name as HKDF info. An
// HMAC-SHA-256 over IV and ciphertext, keyed by a second subkey, authenticates
// the result. Because both subkeys depend on the name, a blob cannot be moved
// from one secret to another.
//
// # Recovery Keys
//
// The raw storage key is shown to users as a recovery key: a two-byte prefix,
// the key, and an XOR parity byte, base58 encoded and split into groups of
// four characters.
//
//	EsTc 5rr1 4Jhp Uc18 hwCn 2b9T LSvj 5h4T TkP8 bdeS JriG fyzY 8Gp6
//
// # Security Considerations
//
// Private keys are only ever held in memory. Callers should Zero them once
// an operation completes.
package secrets
