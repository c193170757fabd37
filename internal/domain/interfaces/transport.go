package interfaces

//go:generate mockgen -destination=../mocks/mock_transport.go -package=mocks agentlink/internal/domain/interfaces Transport,IdentitySource

import (
	"context"

	domaintypes "agentlink/internal/domain/types"
)

// Transport delivers a signed envelope to the peer and returns its answer.
// sessionID is empty for handshakes.
type Transport interface {
	Send(
		ctx context.Context,
		envelope domaintypes.Envelope,
		sessionID domaintypes.SessionID,
	) (domaintypes.Response, error)
}

// IdentitySource is the external DID resolution backend consulted on a
// registry cache miss. An unknown DID is reported as an ErrIdentity error.
type IdentitySource interface {
	Resolve(ctx context.Context, did domaintypes.DID) (domaintypes.IdentityRecord, error)
}

// IdentityPublisher publishes the local identity record to a directory.
type IdentityPublisher interface {
	Publish(ctx context.Context, record domaintypes.IdentityRecord) error
}
