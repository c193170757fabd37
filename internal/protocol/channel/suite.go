package channel

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"agentlink/internal/domain"
)

// Suite names an AEAD construction. Both suites use 32-byte keys and
// 12-byte nonces.
type Suite string

const (
	// AES256GCM is the default suite.
	AES256GCM Suite = "aes256gcm"
	// ChaCha20Poly1305 is preferred on hardware without AES instructions.
	ChaCha20Poly1305 Suite = "chacha20poly1305"
)

// DefaultSuite is used when no suite is configured.
const DefaultSuite = AES256GCM

const (
	// KeySize is the AEAD key length for every suite.
	KeySize = 32
	// NonceSize is the length of the sequence prefix on every sealed frame.
	NonceSize = 12
	// Overhead is the authentication tag length for every suite.
	Overhead = 16
)

// ParseSuite maps a configuration string onto a Suite. The empty string
// selects DefaultSuite.
func ParseSuite(s string) (Suite, error) {
	switch Suite(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultSuite, nil
	case AES256GCM:
		return AES256GCM, nil
	case ChaCha20Poly1305:
		return ChaCha20Poly1305, nil
	default:
		return "", fmt.Errorf("unknown AEAD suite %q: %w", s, domain.ErrCrypto)
	}
}

func (s Suite) String() string { return string(s) }

func (s Suite) aead(key []byte) (cipher.AEAD, error) {
	switch s {
	case AES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case ChaCha20Poly1305:
		return chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("unknown AEAD suite %q", string(s))
	}
}
