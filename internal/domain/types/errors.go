package types

import "errors"

// Error kinds. Every failure in agentlink wraps exactly one of these so
// callers can branch with errors.Is.
var (
	// ErrCrypto covers key generation, DH and KDF failures.
	ErrCrypto = errors.New("crypto fault")
	// ErrDecryption means AEAD authentication failed or a frame was out of sequence.
	ErrDecryption = errors.New("decryption fault")
	// ErrSignature means an envelope signature did not verify.
	ErrSignature = errors.New("signature fault")
	// ErrSessionExpired means the session is past its hard TTL.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionNotFound means no live session exists for the id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrCapacityExceeded means the session store is full.
	ErrCapacityExceeded = errors.New("session capacity exceeded")
	// ErrIdentity covers malformed DIDs and unusable identity records.
	ErrIdentity = errors.New("identity fault")
	// ErrReplay means an envelope timestamp is outside the skew window or was seen before.
	ErrReplay = errors.New("replay fault")
	// ErrTransport covers failures of the external transport.
	ErrTransport = errors.New("transport fault")
)
