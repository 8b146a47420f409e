package secrets

import (
	"bytes"
	"errors"
	"testing"

	kerrors "github.com/PolarWolf314/reclaim/internal/errors"
)

const testSecretName = "m.cross_signing.master"

func TestEncryptDecryptSecret(t *testing.T) {
	key := mustCreatePrivateKey(t)

	plaintexts := [][]byte{
		{},
		[]byte("a"),
		[]byte("nB3ZbYIlJmIeZtXDQ6uCu6VvSnbA5fWnFf3xyD2bl2M"),
		bytes.Repeat([]byte("x"), 1000),
	}

	for _, plaintext := range plaintexts {
		enc, err := EncryptSecret(plaintext, key, testSecretName)
		if err != nil {
			t.Fatalf("EncryptSecret failed: %v", err)
		}
		if len(plaintext) > 0 && bytes.Equal(enc.Ciphertext, plaintext) {
			t.Fatal("Ciphertext equals plaintext")
		}
		got, err := DecryptSecret(enc, key, testSecretName)
		if err != nil {
			t.Fatalf("DecryptSecret failed: %v", err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Fatalf("DecryptSecret = %q, want %q", got, plaintext)
		}
	}
}

func TestDecryptSecretWrongKey(t *testing.T) {
	key := mustCreatePrivateKey(t)
	enc, err := EncryptSecret([]byte("secret"), key, testSecretName)
	if err != nil {
		t.Fatalf("EncryptSecret failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		other := mustCreatePrivateKey(t)
		plaintext, err := DecryptSecret(enc, other, testSecretName)
		if !errors.Is(err, kerrors.ErrAuthenticationFailed) {
			t.Fatalf("Expected ErrAuthenticationFailed, got %v", err)
		}
		if plaintext != nil {
			t.Fatal("Plaintext returned on authentication failure")
		}
	}
}

func TestDecryptSecretWrongName(t *testing.T) {
	key := mustCreatePrivateKey(t)
	enc, err := EncryptSecret([]byte("secret"), key, "m.cross_signing.master")
	if err != nil {
		t.Fatalf("EncryptSecret failed: %v", err)
	}

	if _, err := DecryptSecret(enc, key, "m.cross_signing.self_signing"); !errors.Is(err, kerrors.ErrAuthenticationFailed) {
		t.Fatalf("Expected ErrAuthenticationFailed when moving a blob between secrets, got %v", err)
	}
}

func TestDecryptSecretDetectsTampering(t *testing.T) {
	key := mustCreatePrivateKey(t)
	enc, err := EncryptSecret([]byte("a secret worth protecting"), key, testSecretName)
	if err != nil {
		t.Fatalf("EncryptSecret failed: %v", err)
	}

	fields := map[string][]byte{
		"ciphertext": enc.Ciphertext,
		"mac":        enc.MAC,
		"iv":         enc.IV,
	}

	for name, field := range fields {
		for i := range field {
			field[i] ^= 0x01
			if _, err := DecryptSecret(enc, key, testSecretName); !errors.Is(err, kerrors.ErrAuthenticationFailed) {
				t.Fatalf("Flipping %s byte %d: expected ErrAuthenticationFailed, got %v", name, i, err)
			}
			field[i] ^= 0x01
		}
	}

	if _, err := DecryptSecret(enc, key, testSecretName); err != nil {
		t.Fatalf("Restored secret failed to decrypt: %v", err)
	}
}

func TestDecryptSecretMalformed(t *testing.T) {
	key := mustCreatePrivateKey(t)

	tests := []struct {
		name string
		enc  *EncryptedSecret
	}{
		{"nil", nil},
		{"short iv", &EncryptedSecret{IV: []byte{1, 2, 3}}},
		{"empty", &EncryptedSecret{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecryptSecret(tt.enc, key, testSecretName); !errors.Is(err, kerrors.ErrAuthenticationFailed) {
				t.Errorf("Expected ErrAuthenticationFailed, got %v", err)
			}
		})
	}
}

func TestEncryptSecretFreshIV(t *testing.T) {
	key := mustCreatePrivateKey(t)
	seen := make(map[string]bool)

	for i := 0; i < 200; i++ {
		enc, err := EncryptSecret([]byte("same plaintext"), key, testSecretName)
		if err != nil {
			t.Fatalf("EncryptSecret failed: %v", err)
		}
		if len(enc.IV) != 16 {
			t.Fatalf("Expected 16-byte IV, got %d", len(enc.IV))
		}
		if enc.IV[8]&0x80 != 0 {
			t.Fatalf("IV bit 63 is set: %x", enc.IV)
		}
		if seen[string(enc.IV)] {
			t.Fatal("IV reused")
		}
		seen[string(enc.IV)] = true
	}
}

func TestEncryptSecretRejectsBadKey(t *testing.T) {
	for _, n := range []int{0, 16, 64} {
		if _, err := EncryptSecret([]byte("x"), make([]byte, n), testSecretName); !errors.Is(err, kerrors.ErrInvalidKeyLength) {
			t.Errorf("key of %d bytes: error = %v, want ErrInvalidKeyLength", n, err)
		}
	}
}

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3}
	Zero(b)
	if !bytes.Equal(b, []byte{0, 0, 0}) {
		t.Errorf("Zero left %v", b)
	}
}
