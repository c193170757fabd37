package interfaces

import (
	"context"

	domaintypes "agentlink/internal/domain/types"
)

// IdentityService creates, retrieves, and inspects the local agent identity.
type IdentityService interface {
	GenerateIdentity(passphrase string, did domaintypes.DID) (
		domaintypes.Identity,
		domaintypes.Fingerprint,
		error,
	)
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
	FingerprintIdentity(passphrase string) (domaintypes.Fingerprint, error)
}

// IdentityResolver resolves a peer DID to a usable identity record.
// ok is false when the DID is unknown, revoked or inactive.
type IdentityResolver interface {
	ResolveContext(
		ctx context.Context,
		did domaintypes.DID,
	) (record domaintypes.IdentityRecord, ok bool, err error)
}
