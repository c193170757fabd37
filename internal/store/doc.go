// Package store provides file-based persistence for agentlink.
//
// It contains:
//   - Keystore: the local identity, sealed with a passphrase-derived key
//     (Argon2id by default, scrypt for older files) and ChaCha20-Poly1305.
//   - DIDFile: a YAML list of identity records used as a resolution source.
//
// Every write goes through a temp file and rename so a crash never leaves a
// half-written file behind. Methods are safe for concurrent use.
package store
