package secrets

import (
	"crypto/hmac"
	"fmt"

	"github.com/google/uuid"
)

// PassphraseInfo records how a storage key was derived from a passphrase.
type PassphraseInfo struct {
	Algorithm  string `json:"algorithm"`
	Salt       []byte `json:"salt"`
	Iterations int    `json:"iterations"`
	Bits       int    `json:"bits,omitempty"`
}

// StorageKeyDescriptor is the public metadata of one storage key generation.
// It carries enough to verify a candidate private key but never the key itself.
type StorageKeyDescriptor struct {
	ID         string          `json:"id"`
	Name       string          `json:"name,omitempty"`
	Algorithm  string          `json:"algorithm"`
	Passphrase *PassphraseInfo `json:"passphrase,omitempty"`

	// IV and MAC form the verification datum: the MAC of a zero-filled
	// secret encrypted under the key with an empty name.
	IV  []byte `json:"iv"`
	MAC []byte `json:"mac"`

	// Default is reported by stores and not part of the stored document.
	Default bool `json:"-"`
}

// UsePassphrase reports whether the key was derived from a passphrase.
func (d *StorageKeyDescriptor) UsePassphrase() bool {
	return d != nil && d.Passphrase != nil
}

type keyConfig struct {
	iterations int
	name       string
}

// KeyOption configures CreateStorageKey.
type KeyOption func(*keyConfig)

// WithIterations overrides the PBKDF2 work factor.
func WithIterations(n int) KeyOption {
	return func(c *keyConfig) {
		c.iterations = n
	}
}

// WithName sets a human-readable descriptor name.
func WithName(name string) KeyOption {
	return func(c *keyConfig) {
		c.name = name
	}
}

// CreateStorageKey creates a new storage key and its descriptor.
// An empty passphrase generates a random key; otherwise the key is derived
// from the passphrase with a fresh salt.
func CreateStorageKey(passphrase string, opts ...KeyOption) (*StorageKeyDescriptor, []byte, string, error) {
	cfg := &keyConfig{iterations: DefaultIterations}
	for _, opt := range opts {
		opt(cfg)
	}

	desc := &StorageKeyDescriptor{
		ID:        uuid.New().String(),
		Name:      cfg.name,
		Algorithm: Algorithm,
	}

	var key []byte
	var err error
	if passphrase == "" {
		if key, err = CreatePrivateKey(); err != nil {
			return nil, nil, "", err
		}
	} else {
		salt, err := GenerateSalt()
		if err != nil {
			return nil, nil, "", err
		}
		if key, err = DeriveKey(passphrase, salt, cfg.iterations); err != nil {
			return nil, nil, "", err
		}
		desc.Passphrase = &PassphraseInfo{
			Algorithm:  PassphraseAlgorithm,
			Salt:       salt,
			Iterations: cfg.iterations,
			Bits:       KeySize * 8,
		}
	}

	check, err := EncryptSecret(make([]byte, KeySize), key, "")
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to compute key check: %w", err)
	}
	desc.IV = check.IV
	desc.MAC = check.MAC

	recoveryKey, err := EncodeRecoveryKey(key)
	if err != nil {
		return nil, nil, "", err
	}

	return desc, key, recoveryKey, nil
}

// VerifyStorageKey reports whether candidate is the private key described by desc.
func VerifyStorageKey(candidate []byte, desc *StorageKeyDescriptor) bool {
	if desc == nil || len(candidate) != KeySize || len(desc.IV) != ivSize {
		return false
	}
	check, err := encryptWithIV(make([]byte, KeySize), candidate, "", desc.IV)
	if err != nil {
		return false
	}
	return hmac.Equal(check.MAC, desc.MAC)
}

// KeyFromPassphrase derives the private key for a passphrase-protected descriptor.
func KeyFromPassphrase(passphrase string, desc *StorageKeyDescriptor) ([]byte, error) {
	if desc == nil {
		return nil, fmt.Errorf("no storage key descriptor")
	}
	if !desc.UsePassphrase() {
		return nil, fmt.Errorf("storage key %s has no passphrase parameters", desc.ID)
	}
	return DeriveKey(passphrase, desc.Passphrase.Salt, desc.Passphrase.Iterations)
}
