package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"

	"agentlink/internal/domain"
)

const (
	// KeyBytes is the default derived key length.
	KeyBytes = 32
	// SaltBytes is the salt length used for key-encryption keys.
	SaltBytes = 16

	maxHKDFLength = 255 * sha256.Size
)

// DeriveKey expands secret into a length-byte key using HKDF-SHA256 with an
// empty salt and info as the domain-separation label.
//
// It is a pure function: identical inputs always produce identical keys,
// which is what lets a responder reproduce the initiator's key.
func DeriveKey(secret, info []byte, length int) ([]byte, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("derive key: empty secret: %w", domain.ErrCrypto)
	}
	if length <= 0 || length > maxHKDFLength {
		return nil, fmt.Errorf("derive key: invalid length %d: %w", length, domain.ErrCrypto)
	}
	r := hkdf.New(sha256.New, secret, nil, info)
	out := make([]byte, length)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("derive key: %v: %w", err, domain.ErrCrypto)
	}
	return out, nil
}

// Argon2id cost parameters for DeriveKEK.
const (
	argonTime    = 1
	argonMemory  = 1 << 16
	argonThreads = 4
)

// DeriveKEK derives a key-encryption key from a passphrase and salt using Argon2id.
func DeriveKEK(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, KeyBytes)
}
