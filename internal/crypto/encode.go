package crypto

import (
	"encoding/base64"
	"fmt"

	"agentlink/internal/domain"
)

// B64 returns standard base64 encoding without newlines.
func B64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// FromB64 decodes standard base64, wrapping failures as ErrCrypto. Only the
// canonical form B64 produces is accepted: embedded CR/LF and non-zero
// padding bits are rejected so every byte string has one text form.
func FromB64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.Strict().DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %v: %w", err, domain.ErrCrypto)
	}
	if B64(b) != s {
		return nil, fmt.Errorf("decode base64: non-canonical encoding: %w", domain.ErrCrypto)
	}
	return b, nil
}
