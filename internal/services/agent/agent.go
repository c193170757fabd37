package agent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"agentlink/internal/domain"
	"agentlink/internal/protocol/handshake"
	"agentlink/internal/services/auth"
	"agentlink/internal/services/session"
)

// Deps are the collaborators shared by Initiator and Responder.
type Deps struct {
	Identity         domain.Identity
	Resolver         domain.IdentityResolver
	Sessions         *session.Store
	Auth             *auth.Authenticator
	HandshakeOptions handshake.Options
	Log              zerolog.Logger
}

// handshakeAAD binds the handshake frames to the DID pair.
func handshakeAAD(client, server domain.DID) []byte {
	return []byte(client.String() + "|" + server.String())
}

// resolve returns the usable record for did or an ErrIdentity error.
func resolve(ctx context.Context, r domain.IdentityResolver, did domain.DID) (domain.IdentityRecord, error) {
	rec, ok, err := r.ResolveContext(ctx, did)
	if err != nil {
		return domain.IdentityRecord{}, err
	}
	if !ok {
		return domain.IdentityRecord{}, fmt.Errorf("%s has no usable identity record: %w", did, domain.ErrIdentity)
	}
	return rec, nil
}
