package domain

import (
	"errors"

	types "agentlink/internal/domain/types"
)

// Error kinds shared by every package. Wrap with %w, test with errors.Is.
var (
	ErrCrypto           = types.ErrCrypto
	ErrDecryption       = types.ErrDecryption
	ErrSignature        = types.ErrSignature
	ErrSessionExpired   = types.ErrSessionExpired
	ErrSessionNotFound  = types.ErrSessionNotFound
	ErrCapacityExceeded = types.ErrCapacityExceeded
	ErrIdentity         = types.ErrIdentity
	ErrReplay           = types.ErrReplay
	ErrTransport        = types.ErrTransport
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrCrypto, "crypto"},
	{ErrDecryption, "decryption"},
	{ErrSignature, "signature"},
	{ErrSessionExpired, "session_expired"},
	{ErrSessionNotFound, "session_not_found"},
	{ErrCapacityExceeded, "capacity_exceeded"},
	{ErrIdentity, "identity"},
	{ErrReplay, "replay"},
	{ErrTransport, "transport"},
}

// Kind returns a short label for the error kind wrapped by err, "none" for
// nil and "other" for errors outside the taxonomy. Used for metric labels.
func Kind(err error) string {
	if err == nil {
		return "none"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "other"
}

// ForKind is the inverse of Kind: it returns the sentinel for a label, or
// nil for "none", "other" and unknown labels. Transports use it to carry
// error kinds across the wire.
func ForKind(name string) error {
	for _, k := range kinds {
		if k.name == name {
			return k.err
		}
	}
	return nil
}
