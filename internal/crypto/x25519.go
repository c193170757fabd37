package crypto

import (
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"

	"agentlink/internal/domain"
)

// GenerateX25519 returns a fresh Curve25519 key pair.
// The private key is clamped per RFC 7748.
func GenerateX25519() (domain.KeyPair, error) {
	var priv domain.PrivateKey
	if _, err := io.ReadFull(random, priv[:]); err != nil {
		return domain.KeyPair{}, fmt.Errorf("x25519 keygen: %v: %w", err, domain.ErrCrypto)
	}
	clamp(&priv)
	pub, err := x25519Public(priv[:])
	if err != nil {
		return domain.KeyPair{}, err
	}
	return domain.KeyPair{Type: domain.KeyTypeX25519, Private: priv, Public: pub}, nil
}

// DH computes the X25519 shared secret between priv and peerPub.
//
// Both inputs must be exactly 32 bytes. A peer key of low order (which
// yields the all-zero secret) is rejected.
func DH(priv, peerPub []byte) (out [32]byte, err error) {
	if len(priv) != domain.KeySize {
		return out, fmt.Errorf("dh: private key: want %d bytes, got %d: %w",
			domain.KeySize, len(priv), domain.ErrCrypto)
	}
	if len(peerPub) != domain.KeySize {
		return out, fmt.Errorf("dh: peer key: want %d bytes, got %d: %w",
			domain.KeySize, len(peerPub), domain.ErrCrypto)
	}
	secret, err := curve25519.X25519(priv, peerPub)
	if err != nil {
		return out, fmt.Errorf("dh: %v: %w", err, domain.ErrCrypto)
	}
	copy(out[:], secret)
	return out, nil
}

func x25519Public(priv []byte) (domain.PublicKey, error) {
	var pub domain.PublicKey
	pb, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return pub, fmt.Errorf("x25519 public: %v: %w", err, domain.ErrCrypto)
	}
	copy(pub[:], pb)
	return pub, nil
}

func clamp(k *domain.PrivateKey) {
	kb := k[:]
	kb[0] &= 248
	kb[31] &= 127
	kb[31] |= 64
}
