package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/reclaim/internal/errors"

	"golang.org/x/crypto/hkdf"
)

// Algorithm identifies the AES-CTR + HMAC-SHA-256 construction in descriptors.
const Algorithm = "m.secret_storage.v1.aes-hmac-sha2"

const ivSize = aes.BlockSize

// EncryptedSecret is one secret encrypted under a storage key.
type EncryptedSecret struct {
	Ciphertext []byte `json:"ciphertext"`
	IV         []byte `json:"iv"`
	MAC        []byte `json:"mac"`

	// KeyID is the ID of the storage key descriptor the secret was encrypted under.
	KeyID string `json:"key_id,omitempty"`
}

// deriveSubkeys expands the private key into an AES key and a MAC key bound to name.
func deriveSubkeys(key []byte, name string) (aesKey, macKey []byte, err error) {
	if len(key) != KeySize {
		return nil, nil, fmt.Errorf("%w: expected %d bytes, got %d", kerrors.ErrInvalidKeyLength, KeySize, len(key))
	}
	zeroSalt := make([]byte, sha256.Size)
	r := hkdf.New(sha256.New, key, zeroSalt, []byte(name))

	out := make([]byte, 64)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, nil, fmt.Errorf("failed to derive subkeys: %w", err)
	}
	return out[:32], out[32:], nil
}

func computeMAC(macKey, iv, ciphertext []byte) []byte {
	h := hmac.New(sha256.New, macKey)
	h.Write(iv)
	h.Write(ciphertext)
	return h.Sum(nil)
}

// EncryptSecret encrypts plaintext under key, binding the result to name.
// Each call uses a fresh random IV.
func EncryptSecret(plaintext, key []byte, name string) (*EncryptedSecret, error) {
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("failed to generate IV: %w", err)
	}
	// Clear bit 63 so the counter half never carries into the nonce half.
	iv[8] &= 0x7f

	return encryptWithIV(plaintext, key, name, iv)
}

func encryptWithIV(plaintext, key []byte, name string, iv []byte) (*EncryptedSecret, error) {
	aesKey, macKey, err := deriveSubkeys(key, name)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCTR(block, iv).XORKeyStream(ciphertext, plaintext)

	return &EncryptedSecret{
		Ciphertext: ciphertext,
		IV:         append([]byte(nil), iv...),
		MAC:        computeMAC(macKey, iv, ciphertext),
	}, nil
}

// DecryptSecret verifies and decrypts enc with key.
// A MAC mismatch returns ErrAuthenticationFailed and no plaintext.
func DecryptSecret(enc *EncryptedSecret, key []byte, name string) ([]byte, error) {
	if enc == nil || len(enc.IV) != ivSize {
		return nil, fmt.Errorf("%w: malformed encrypted secret", kerrors.ErrAuthenticationFailed)
	}

	aesKey, macKey, err := deriveSubkeys(key, name)
	if err != nil {
		return nil, err
	}

	if !hmac.Equal(computeMAC(macKey, enc.IV, enc.Ciphertext), enc.MAC) {
		return nil, kerrors.ErrAuthenticationFailed
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	plaintext := make([]byte, len(enc.Ciphertext))
	cipher.NewCTR(block, enc.IV).XORKeyStream(plaintext, enc.Ciphertext)

	return plaintext, nil
}

// CreatePrivateKey generates a new random private recovery key.
func CreatePrivateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return key, nil
}

// Zero overwrites b, for key material that should not outlive an operation.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
