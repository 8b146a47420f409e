package secrets

import (
	"fmt"
	"strings"
	"unicode"

	kerrors "github.com/PolarWolf314/reclaim/internal/errors"

	"github.com/mr-tron/base58"
)

// KeySize is the length in bytes of a private recovery key.
const KeySize = 32

// recoveryKeyPrefix marks the encoded value as a secret storage recovery key.
var recoveryKeyPrefix = [2]byte{0x8B, 0x01}

const (
	recoveryKeyLength    = len(recoveryKeyPrefix) + KeySize + 1
	recoveryKeyGroupSize = 4
)

// EncodeRecoveryKey renders a raw private key as a checksummed, human-copyable string.
func EncodeRecoveryKey(key []byte) (string, error) {
	if len(key) != KeySize {
		return "", fmt.Errorf("%w: expected %d bytes, got %d", kerrors.ErrInvalidKeyLength, KeySize, len(key))
	}

	buf := make([]byte, 0, recoveryKeyLength)
	buf = append(buf, recoveryKeyPrefix[:]...)
	buf = append(buf, key...)
	buf = append(buf, parity(buf))

	encoded := base58.Encode(buf)

	var b strings.Builder
	for i, r := range encoded {
		if i > 0 && i%recoveryKeyGroupSize == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

// DecodeRecoveryKey parses a recovery key string back into the raw private key.
// Whitespace anywhere in the input is ignored.
func DecodeRecoveryKey(text string) ([]byte, error) {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	if stripped == "" {
		return nil, fmt.Errorf("%w: empty input", kerrors.ErrInvalidRecoveryKey)
	}

	raw, err := base58.Decode(stripped)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidRecoveryKey, err)
	}
	if len(raw) != recoveryKeyLength {
		return nil, fmt.Errorf("%w: unexpected length %d", kerrors.ErrInvalidRecoveryKey, len(raw))
	}
	if parity(raw[:len(raw)-1]) != raw[len(raw)-1] {
		return nil, fmt.Errorf("%w: checksum mismatch", kerrors.ErrInvalidRecoveryKey)
	}
	if raw[0] != recoveryKeyPrefix[0] || raw[1] != recoveryKeyPrefix[1] {
		return nil, fmt.Errorf("%w: unexpected prefix", kerrors.ErrInvalidRecoveryKey)
	}

	key := make([]byte, KeySize)
	copy(key, raw[len(recoveryKeyPrefix):len(raw)-1])
	return key, nil
}

func parity(b []byte) byte {
	var p byte
	for _, c := range b {
		p ^= c
	}
	return p
}
