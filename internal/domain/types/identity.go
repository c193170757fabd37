package types

import (
	"fmt"
	"maps"
)

// Identity holds the local agent's long-term keys.
type Identity struct {
	DID     DID     `json:"did"`
	Signing KeyPair `json:"signing"`
	KEM     KeyPair `json:"kem"`
}

// IdentityRecord is a resolved DID document.
//
// A record is usable for cryptographic operations only while it is active
// and not revoked.
type IdentityRecord struct {
	DID          DID            `json:"did"`
	SigningKey   PublicKey      `json:"public_key"`
	KEMKey       PublicKey      `json:"public_kem_key"`
	OwnerAddress string         `json:"owner_address"`
	Active       bool           `json:"is_active"`
	Revoked      bool           `json:"revoked"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// NewIdentityRecord builds an active record whose owner is the DID address.
func NewIdentityRecord(did DID, signing, kem PublicKey) (IdentityRecord, error) {
	r := IdentityRecord{
		DID:          did,
		SigningKey:   signing,
		KEMKey:       kem,
		OwnerAddress: did.Address(),
		Active:       true,
	}
	if err := r.Validate(); err != nil {
		return IdentityRecord{}, err
	}
	return r, nil
}

// Validate checks the required fields.
func (r IdentityRecord) Validate() error {
	if _, err := ParseDID(string(r.DID)); err != nil {
		return err
	}
	if r.SigningKey.IsZero() {
		return fmt.Errorf("record %s: missing signing key: %w", r.DID, ErrIdentity)
	}
	if r.KEMKey.IsZero() {
		return fmt.Errorf("record %s: missing KEM key: %w", r.DID, ErrIdentity)
	}
	return nil
}

// Usable reports whether the record may be used for crypto operations.
func (r IdentityRecord) Usable() bool { return r.Active && !r.Revoked }

// Clone returns a deep copy so cached records cannot be mutated by callers.
func (r IdentityRecord) Clone() IdentityRecord {
	out := r
	if r.Metadata != nil {
		out.Metadata = maps.Clone(r.Metadata)
	}
	return out
}
