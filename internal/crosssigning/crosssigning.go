// Package crosssigning validates recovered cross-signing private keys.
//
// A cross-signing secret is the unpadded standard base64 encoding of an
// ed25519 seed. A recovered seed is trusted only if the public key it
// derives matches the public key this account already trusts.
package crosssigning

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
)

// Secret IDs of the cross-signing keys.
const (
	MasterKey      = "m.cross_signing.master"
	SelfSigningKey = "m.cross_signing.self_signing"
	UserSigningKey = "m.cross_signing.user_signing"
)

// IDs returns the three cross-signing secret IDs.
func IDs() []string {
	return []string{MasterKey, SelfSigningKey, UserSigningKey}
}

// TrustedKeys looks up the trusted public key for a cross-signing secret.
type TrustedKeys interface {
	// PublicKey returns the trusted key for id, or false if none is known.
	PublicKey(ctx context.Context, id string) (ed25519.PublicKey, bool)
}

// StaticTrust is a fixed map of secret ID to trusted public key.
type StaticTrust map[string]ed25519.PublicKey

func (s StaticTrust) PublicKey(_ context.Context, id string) (ed25519.PublicKey, bool) {
	pk, ok := s[id]
	return pk, ok
}

// MutableTrust is a set of trusted keys that can be replaced while a
// Validator is using it.
type MutableTrust struct {
	mu   sync.RWMutex
	keys StaticTrust
}

func NewMutableTrust(keys StaticTrust) *MutableTrust {
	return &MutableTrust{keys: keys}
}

// Replace swaps in keys. Later lookups see only keys.
func (m *MutableTrust) Replace(keys StaticTrust) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = keys
}

func (m *MutableTrust) PublicKey(ctx context.Context, id string) (ed25519.PublicKey, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.keys.PublicKey(ctx, id)
}

// Validator checks recovered cross-signing secrets against TrustedKeys.
type Validator struct {
	trust TrustedKeys
}

func NewValidator(trust TrustedKeys) *Validator {
	return &Validator{trust: trust}
}

// DecodeSeed parses a cross-signing secret into its ed25519 seed.
func DecodeSeed(plaintext []byte) ([]byte, error) {
	seed, err := base64.RawStdEncoding.DecodeString(string(bytes.TrimSpace(plaintext)))
	if err != nil {
		return nil, fmt.Errorf("decoding seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed has %d bytes, expected %d", len(seed), ed25519.SeedSize)
	}
	return seed, nil
}

// EncodeSeed formats seed as a cross-signing secret.
func EncodeSeed(seed []byte) []byte {
	return []byte(base64.RawStdEncoding.EncodeToString(seed))
}

// IsValid reports whether plaintext is a well formed seed whose public key
// matches the trusted key for id. With no trusted key there is nothing to
// contradict the secret and it is accepted.
func (v *Validator) IsValid(ctx context.Context, id string, plaintext []byte) bool {
	seed, err := DecodeSeed(plaintext)
	if err != nil {
		return false
	}
	if v.trust == nil {
		return true
	}
	trusted, ok := v.trust.PublicKey(ctx, id)
	if !ok {
		return true
	}
	pub := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
	return pub.Equal(trusted)
}

// Keys is a freshly generated set of cross-signing secrets.
type Keys struct {
	// Secrets maps secret ID to the encoded seed.
	Secrets map[string][]byte
	// Trust holds the matching public keys.
	Trust StaticTrust
}

// GenerateKeys creates master, self-signing and user-signing keys.
func GenerateKeys() (*Keys, error) {
	keys := &Keys{
		Secrets: make(map[string][]byte),
		Trust:   make(StaticTrust),
	}
	for _, id := range IDs() {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", id, err)
		}
		keys.Secrets[id] = EncodeSeed(priv.Seed())
		keys.Trust[id] = pub
	}
	return keys, nil
}

// PublicKeyOf derives the public key of an encoded seed.
func PublicKeyOf(plaintext []byte) (ed25519.PublicKey, error) {
	seed, err := DecodeSeed(plaintext)
	if err != nil {
		return nil, err
	}
	return ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey), nil
}
