package secrets

import (
	"crypto/rand"
	"crypto/sha512"
	"fmt"
	"math/big"

	kerrors "github.com/PolarWolf314/reclaim/internal/errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// PassphraseAlgorithm identifies PBKDF2-HMAC-SHA-512 derivation in descriptors.
	PassphraseAlgorithm = "m.pbkdf2"

	// DefaultIterations is the PBKDF2 work factor used when none is configured.
	DefaultIterations = 500000

	saltLength   = 32
	saltAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// DeriveKey derives a private recovery key from a passphrase.
// Identical inputs always produce the identical key.
func DeriveKey(passphrase string, salt []byte, iterations int) ([]byte, error) {
	if iterations < 1 {
		return nil, fmt.Errorf("%w: iterations must be at least 1, got %d", kerrors.ErrInvalidPassphrase, iterations)
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", kerrors.ErrInvalidPassphrase)
	}
	return pbkdf2.Key([]byte(passphrase), salt, iterations, KeySize, sha512.New), nil
}

// GenerateSalt returns a random alphanumeric salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltLength)
	max := big.NewInt(int64(len(saltAlphabet)))
	for i := range salt {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
		salt[i] = saltAlphabet[n.Int64()]
	}
	return salt, nil
}
