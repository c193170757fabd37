package store

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"agentlink/internal/crypto"
	"agentlink/internal/domain"
	"agentlink/internal/util/memzero"
)

// KDF names the passphrase key-derivation function of a sealed blob.
type KDF string

const (
	// KDFArgon2id is written by default.
	KDFArgon2id KDF = "argon2id"
	// KDFScrypt is the format-1 derivation, still readable and writable.
	KDFScrypt KDF = "scrypt"
)

const (
	blobVersionScrypt = 1
	blobVersionArgon  = 2
)

var (
	// ErrWrongPassphrase is returned when the passphrase is incorrect or the
	// blob has been modified.
	ErrWrongPassphrase = fmt.Errorf("wrong passphrase or corrupted keystore: %w", domain.ErrCrypto)
)

// blob is the on-disk JSON structure holding the ciphertext and KDF parameters.
type blob struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	Nonce  []byte `json:"nonce,omitempty"`
	N      int    `json:"scrypt_N,omitempty"`
	R      int    `json:"scrypt_r,omitempty"`
	P      int    `json:"scrypt_p,omitempty"`
	Cipher []byte `json:"cipher"`
}

// seal derives a key from passphrase and seals raw into a JSON blob.
func seal(kdf KDF, passphrase string, raw []byte) ([]byte, error) {
	bl := blob{Salt: make([]byte, crypto.SaltBytes), Nonce: make([]byte, chacha20poly1305.NonceSize)}
	if _, err := rand.Read(bl.Salt); err != nil {
		return nil, fmt.Errorf("keystore salt: %v: %w", err, domain.ErrCrypto)
	}
	if _, err := rand.Read(bl.Nonce); err != nil {
		return nil, fmt.Errorf("keystore nonce: %v: %w", err, domain.ErrCrypto)
	}
	switch kdf {
	case KDFArgon2id, "":
		bl.V = blobVersionArgon
	case KDFScrypt:
		bl.V = blobVersionScrypt
		bl.N, bl.R, bl.P = scryptParamsDefault()
	default:
		return nil, fmt.Errorf("keystore: unknown kdf %q: %w", kdf, domain.ErrCrypto)
	}

	key, err := bl.key(passphrase)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("keystore: %v: %w", err, domain.ErrCrypto)
	}
	bl.Cipher = aead.Seal(nil, bl.Nonce, raw, bl.Salt)
	return json.Marshal(bl)
}

// open decrypts a JSON blob produced by seal.
func open(passphrase string, b []byte) ([]byte, error) {
	var bl blob
	if err := json.Unmarshal(b, &bl); err != nil {
		return nil, fmt.Errorf("keystore: %v: %w", err, ErrWrongPassphrase)
	}
	if bl.V < blobVersionScrypt || bl.V > blobVersionArgon {
		return nil, fmt.Errorf("unsupported keystore version %d: %w", bl.V, domain.ErrCrypto)
	}
	key, err := bl.key(passphrase)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("keystore: %v: %w", err, domain.ErrCrypto)
	}
	nonce := bl.Nonce
	if nonce == nil {
		// Format-1 files were sealed under a zero nonce with a fresh salt.
		nonce = make([]byte, chacha20poly1305.NonceSize)
	}
	if len(nonce) != chacha20poly1305.NonceSize {
		return nil, ErrWrongPassphrase
	}
	pt, err := aead.Open(nil, nonce, bl.Cipher, bl.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

func (bl blob) key(passphrase string) ([]byte, error) {
	if bl.V == blobVersionArgon {
		return crypto.DeriveKEK(passphrase, bl.Salt), nil
	}
	key, err := scrypt.Key([]byte(passphrase), bl.Salt, bl.N, bl.R, bl.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("keystore scrypt: %v: %w", err, domain.ErrCrypto)
	}
	return key, nil
}

// Tunables for scrypt key derivation.
func scryptParamsDefault() (N, r, p int) { return 1 << 15, 8, 1 }
