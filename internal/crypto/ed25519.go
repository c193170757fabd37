package crypto

import (
	"crypto/ed25519"
	"fmt"
	"io"

	"agentlink/internal/domain"
)

// GenerateEd25519 returns a new Ed25519 signing key pair. The private half
// is the 32-byte RFC 8032 seed.
func GenerateEd25519() (domain.KeyPair, error) {
	var seed domain.PrivateKey
	if _, err := io.ReadFull(random, seed[:]); err != nil {
		return domain.KeyPair{}, fmt.Errorf("ed25519 keygen: %v: %w", err, domain.ErrCrypto)
	}
	return domain.KeyPair{
		Type:    domain.KeyTypeEd25519,
		Private: seed,
		Public:  ed25519Public(seed[:]),
	}, nil
}

// Sign signs msg with the Ed25519 key derived from seed.
func Sign(seed, msg []byte) ([]byte, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("sign: seed: want %d bytes, got %d: %w",
			ed25519.SeedSize, len(seed), domain.ErrCrypto)
	}
	sk := ed25519.NewKeyFromSeed(seed)
	defer Wipe(sk)
	return ed25519.Sign(sk, msg), nil
}

// Verify checks sig over msg with pub. It never reports failure as a bare
// bool: any mismatch or malformed input is an ErrSignature error.
func Verify(pub, msg, sig []byte) error {
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("verify: public key: want %d bytes, got %d: %w",
			ed25519.PublicKeySize, len(pub), domain.ErrSignature)
	}
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("verify: signature: want %d bytes, got %d: %w",
			ed25519.SignatureSize, len(sig), domain.ErrSignature)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), msg, sig) {
		return fmt.Errorf("verify: signature mismatch: %w", domain.ErrSignature)
	}
	return nil
}

func ed25519Public(seed []byte) domain.PublicKey {
	sk := ed25519.NewKeyFromSeed(seed)
	defer Wipe(sk)
	var pub domain.PublicKey
	copy(pub[:], sk[ed25519.SeedSize:])
	return pub
}
