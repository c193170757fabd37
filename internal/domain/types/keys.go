package types

import (
	"encoding/base64"
	"fmt"
)

// KeyType names the algorithm a KeyPair belongs to.
type KeyType string

const (
	// KeyTypeEd25519 is used for identity (signing) keys.
	KeyTypeEd25519 KeyType = "Ed25519"
	// KeyTypeX25519 is used for key agreement (KEM) keys.
	KeyTypeX25519 KeyType = "X25519"
)

// KeySize is the raw size of every private and public key handled here.
const KeySize = 32

// PublicKey is a raw 32-byte public key. It encodes as base64 text.
type PublicKey [KeySize]byte

// Slice returns the key as a []byte.
func (p PublicKey) Slice() []byte { return p[:] }

// IsZero reports whether the key is unset.
func (p PublicKey) IsZero() bool { return p == PublicKey{} }

// MarshalText encodes the key as standard base64.
func (p PublicKey) MarshalText() ([]byte, error) {
	return []byte(base64.StdEncoding.EncodeToString(p[:])), nil
}

// UnmarshalText decodes a standard base64 key of exactly KeySize bytes.
func (p *PublicKey) UnmarshalText(text []byte) error {
	return decodeKey(p[:], text)
}

// PrivateKey is a raw 32-byte private key: an X25519 scalar or an Ed25519 seed.
type PrivateKey [KeySize]byte

// Slice returns the key as a []byte.
func (k PrivateKey) Slice() []byte { return k[:] }

// MarshalText encodes the key as standard base64.
func (k PrivateKey) MarshalText() ([]byte, error) {
	return []byte(base64.StdEncoding.EncodeToString(k[:])), nil
}

// UnmarshalText decodes a standard base64 key of exactly KeySize bytes.
func (k *PrivateKey) UnmarshalText(text []byte) error {
	return decodeKey(k[:], text)
}

func decodeKey(dst, text []byte) error {
	raw, err := base64.StdEncoding.Strict().DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("decode key: %v: %w", err, ErrCrypto)
	}
	if base64.StdEncoding.EncodeToString(raw) != string(text) {
		return fmt.Errorf("decode key: non-canonical encoding: %w", ErrCrypto)
	}
	if len(raw) != KeySize {
		return fmt.Errorf("key: want %d bytes, got %d: %w", KeySize, len(raw), ErrCrypto)
	}
	copy(dst, raw)
	return nil
}

// KeyPair is an immutable private/public pair. Values are copied, never
// shared, so holders cannot mutate each other's keys.
type KeyPair struct {
	Type    KeyType    `json:"key_type"`
	Private PrivateKey `json:"private_key"`
	Public  PublicKey  `json:"public_key"`
}
