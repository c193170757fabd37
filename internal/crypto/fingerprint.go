package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/mr-tron/base58"

	"agentlink/internal/domain"
)

// Fingerprint returns a short hex fingerprint of a public key.
//
// It hashes with SHA-256 and truncates to 10 bytes (20 hex chars).
func Fingerprint(pub []byte) domain.Fingerprint {
	sum := sha256.Sum256(pub)
	return domain.Fingerprint(hex.EncodeToString(sum[:10]))
}

// Address returns the base58 DID address for a signing public key: the
// first 20 bytes of its SHA-256 digest.
func Address(pub domain.PublicKey) string {
	sum := sha256.Sum256(pub[:])
	return base58.Encode(sum[:20])
}

// DIDForKey builds did:<namespace>:<network>:<address> from a signing key.
func DIDForKey(namespace, network string, pub domain.PublicKey) (domain.DID, error) {
	return domain.NewDID(namespace, network, Address(pub))
}
