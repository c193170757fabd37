// Package crypto exposes the primitives agentlink is built on.
//
// Contents
//
//   - Key pair generation and raw-byte validation for Ed25519 identity keys
//     and X25519 KEM keys (GenerateKeyPair, NewKeyPair)
//   - X25519 Diffie–Hellman (DH) and HKDF-SHA256 key derivation (DeriveKey)
//   - Ed25519 signing and verification over raw 32-byte seeds (Sign, Verify)
//   - Argon2id key-encryption-key derivation for keys at rest (DeriveKEK)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Every failure wraps domain.ErrCrypto, except Verify which wraps
// domain.ErrSignature. Key pairs are returned by value; callers should wipe
// derived secrets with memzero.Zero once they are no longer needed.
package crypto
