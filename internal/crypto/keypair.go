package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"agentlink/internal/domain"
	"agentlink/internal/util/memzero"
)

// random is the entropy source for key generation.
var random = rand.Reader

// GenerateKeyPair produces a fresh key pair of the requested kind.
func GenerateKeyPair(kind domain.KeyType) (domain.KeyPair, error) {
	switch kind {
	case domain.KeyTypeEd25519:
		return GenerateEd25519()
	case domain.KeyTypeX25519:
		return GenerateX25519()
	default:
		return domain.KeyPair{}, fmt.Errorf("keygen: unsupported key type %q: %w", kind, domain.ErrCrypto)
	}
}

// NewKeyPair builds a KeyPair from raw bytes supplied by the caller.
//
// Both halves must be 32 bytes and pub must be the public key of priv; a
// pair is never accepted half-supplied or mismatched.
func NewKeyPair(kind domain.KeyType, priv, pub []byte) (domain.KeyPair, error) {
	if len(priv) != domain.KeySize || len(pub) != domain.KeySize {
		return domain.KeyPair{}, fmt.Errorf("key pair %s: want %d-byte keys, got %d/%d: %w",
			kind, domain.KeySize, len(priv), len(pub), domain.ErrCrypto)
	}
	want, err := PublicFromPrivate(kind, priv)
	if err != nil {
		return domain.KeyPair{}, err
	}
	if subtle.ConstantTimeCompare(want[:], pub) != 1 {
		return domain.KeyPair{}, fmt.Errorf("key pair %s: public key does not match private key: %w",
			kind, domain.ErrCrypto)
	}
	kp := domain.KeyPair{Type: kind, Public: want}
	copy(kp.Private[:], priv)
	return kp, nil
}

// PublicFromPrivate recomputes the public half of a raw private key.
func PublicFromPrivate(kind domain.KeyType, priv []byte) (domain.PublicKey, error) {
	if len(priv) != domain.KeySize {
		return domain.PublicKey{}, fmt.Errorf("public key %s: want %d-byte private key, got %d: %w",
			kind, domain.KeySize, len(priv), domain.ErrCrypto)
	}
	switch kind {
	case domain.KeyTypeEd25519:
		return ed25519Public(priv), nil
	case domain.KeyTypeX25519:
		return x25519Public(priv)
	default:
		return domain.PublicKey{}, fmt.Errorf("public key: unsupported key type %q: %w", kind, domain.ErrCrypto)
	}
}

// Wipe zeroes secret material in place.
func Wipe(b []byte) { memzero.Zero(b) }
