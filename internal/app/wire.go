package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/rs/zerolog"

	"agentlink/internal/domain"
	"agentlink/internal/protocol/handshake"
	"agentlink/internal/services/agent"
	"agentlink/internal/services/auth"
	"agentlink/internal/services/identity"
	"agentlink/internal/services/registry"
	"agentlink/internal/services/session"
	"agentlink/internal/store"
	"agentlink/internal/transport"
)

// Wire bundles the stores, services and clients built from a Config.
type Wire struct {
	Config    Config
	Log       zerolog.Logger
	Keystore  *store.Keystore
	IDs       *identity.Service
	Registry  *registry.Registry
	Sessions  *session.Store
	Auth      *auth.Authenticator
	Handshake handshake.Options

	DIDFile *store.DIDFile  // nil without did-file
	Remote  *transport.HTTP // nil without server
}

// NewWire constructs the dependency graph from cfg. Records in the DID
// file are loaded eagerly; the file and the remote directory are also
// consulted on registry misses, in that order.
func NewWire(cfg Config, log zerolog.Logger) (w *Wire, err error) {
	defer err2.Handle(&err, "wire")

	try.To(cfg.Validate())
	w = &Wire{
		Config:    cfg,
		Log:       log,
		Keystore:  store.NewKeystore(cfg.Home),
		Handshake: try.To1(cfg.HandshakeOptions()),
	}
	w.IDs = identity.New(w.Keystore)

	var sources chain
	if cfg.DIDFile != "" {
		w.DIDFile = store.NewDIDFile(cfg.DIDFile)
		sources = append(sources, w.DIDFile)
	}
	if cfg.Server != "" {
		w.Remote = transport.NewHTTP(cfg.Server)
		sources = append(sources, w.Remote)
	}
	regOpts := []registry.Option{registry.WithLogger(log.With().Str("component", "registry").Logger())}
	if len(sources) > 0 {
		regOpts = append(regOpts, registry.WithSource(sources))
	}
	w.Registry = registry.New(regOpts...)
	if w.DIDFile != nil {
		n := try.To1(w.Registry.Load(w.DIDFile))
		log.Debug().Int("records", n).Str("path", w.DIDFile.Path()).Msg("loaded DID file")
	}

	w.Sessions = session.NewStore(
		session.WithMaxSessions(cfg.MaxSessions),
		session.WithMaxAge(cfg.SessionMaxAge),
		session.WithLogger(log.With().Str("component", "sessions").Logger()),
	)
	w.Auth = auth.NewAuthenticator(
		auth.WithSkew(cfg.ClockSkew),
		auth.WithLogger(log.With().Str("component", "auth").Logger()),
	)
	return w, nil
}

// Unlock decrypts the local identity with the configured passphrase.
func (w *Wire) Unlock() (domain.Identity, error) {
	return w.IDs.LoadIdentity(w.Config.Passphrase)
}

// Deps returns the agent collaborators acting as id.
func (w *Wire) Deps(id domain.Identity) agent.Deps {
	return agent.Deps{
		Identity:         id,
		Resolver:         w.Registry,
		Sessions:         w.Sessions,
		Auth:             w.Auth,
		HandshakeOptions: w.Handshake,
		Log:              w.Log.With().Str("component", "agent").Logger(),
	}
}

// Initiator returns a client agent talking to the configured server.
func (w *Wire) Initiator(id domain.Identity) (*agent.Initiator, error) {
	if w.Remote == nil {
		return nil, fmt.Errorf("no server configured, use --%s: %w", KeyServer, domain.ErrTransport)
	}
	return agent.NewInitiator(w.Deps(id), w.Remote), nil
}

// Responder returns a server agent answering with h.
func (w *Wire) Responder(id domain.Identity, h agent.Handler) *agent.Responder {
	return agent.NewResponder(w.Deps(id), h)
}

// Publish writes id's public record to every configured directory.
func (w *Wire) Publish(ctx context.Context, id domain.Identity) (err error) {
	defer err2.Handle(&err, "publish %s", id.DID)

	rec := try.To1(domain.NewIdentityRecord(id.DID, id.Signing.Public, id.KEM.Public))
	var pubs []domain.IdentityPublisher
	if w.DIDFile != nil {
		pubs = append(pubs, w.DIDFile)
	}
	if w.Remote != nil {
		pubs = append(pubs, transport.NewHTTP(w.Config.Server,
			transport.WithHTTPClient(w.Remote.HTTP),
			transport.WithSigner(id.Signing.Private.Slice())))
	}
	if len(pubs) == 0 {
		return fmt.Errorf("nowhere to publish, set --%s or --%s: %w", KeyDIDFile, KeyServer, domain.ErrIdentity)
	}
	for _, p := range pubs {
		try.To(p.Publish(ctx, rec))
	}
	return w.Registry.Register(rec)
}

// chain asks each source in turn; ErrIdentity from one source moves on to
// the next, any other error stops the walk.
type chain []domain.IdentitySource

func (c chain) Resolve(ctx context.Context, did domain.DID) (domain.IdentityRecord, error) {
	for _, src := range c {
		rec, err := src.Resolve(ctx, did)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, domain.ErrIdentity) {
			return domain.IdentityRecord{}, err
		}
	}
	return domain.IdentityRecord{}, fmt.Errorf("%s not found in any directory: %w", did, domain.ErrIdentity)
}
