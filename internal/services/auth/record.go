package auth

import (
	"encoding/json"
	"fmt"

	"agentlink/internal/crypto"
	"agentlink/internal/domain"
)

const recordContext = "agentlink-record|"

// RecordClaim is a self-signed statement publishing an identity record.
// The proof covers the exact encoded claim, so every record field and the
// issue time are bound to the signature.
type RecordClaim struct {
	Record   domain.IdentityRecord `json:"record"`
	IssuedAt int64                 `json:"issued_at"`
}

// SignRecord encodes rec with its issue time and signs the encoding with
// the record's signing seed. It returns the base64 payload and proof.
func SignRecord(rec domain.IdentityRecord, issuedAt int64, seed []byte) (payload, proof string, err error) {
	raw, err := json.Marshal(RecordClaim{Record: rec, IssuedAt: issuedAt})
	if err != nil {
		return "", "", fmt.Errorf("encode record %s: %w", rec.DID, err)
	}
	sig, err := crypto.Sign(seed, append([]byte(recordContext), raw...))
	if err != nil {
		return "", "", fmt.Errorf("sign record %s: %w", rec.DID, err)
	}
	return crypto.B64(raw), crypto.B64(sig), nil
}

// OpenRecord verifies proof over payload against the signing key carried
// in the claim itself and returns the claim. Any mismatch is ErrSignature.
func OpenRecord(payload, proof string) (RecordClaim, []byte, error) {
	raw, err := crypto.FromB64(payload)
	if err != nil {
		return RecordClaim{}, nil, fmt.Errorf("record payload: %v: %w", err, domain.ErrSignature)
	}
	var claim RecordClaim
	if err := json.Unmarshal(raw, &claim); err != nil {
		return RecordClaim{}, nil, fmt.Errorf("record payload: %v: %w", err, domain.ErrSignature)
	}
	if err := claim.Record.Validate(); err != nil {
		return RecordClaim{}, nil, err
	}
	sig, err := crypto.FromB64(proof)
	if err != nil {
		return RecordClaim{}, nil, fmt.Errorf("record %s proof: %v: %w", claim.Record.DID, err, domain.ErrSignature)
	}
	if err := crypto.Verify(claim.Record.SigningKey.Slice(), append([]byte(recordContext), raw...), sig); err != nil {
		return RecordClaim{}, nil, fmt.Errorf("record %s proof: %w", claim.Record.DID, err)
	}
	return claim, sig, nil
}
