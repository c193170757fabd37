package agent_test

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"agentlink/internal/crypto"
	"agentlink/internal/domain"
	"agentlink/internal/domain/mocks"
	"agentlink/internal/protocol/channel"
	"agentlink/internal/protocol/handshake"
	"agentlink/internal/services/agent"
	"agentlink/internal/services/auth"
	"agentlink/internal/services/registry"
	"agentlink/internal/services/session"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newIdentity(t *testing.T, name string) domain.Identity {
	t.Helper()
	sig, err := crypto.GenerateKeyPair(domain.KeyTypeEd25519)
	require.NoError(t, err)
	kem, err := crypto.GenerateKeyPair(domain.KeyTypeX25519)
	require.NoError(t, err)
	return domain.Identity{DID: domain.DID("did:agent:local:" + name), Signing: sig, KEM: kem}
}

func publicRecord(t *testing.T, id domain.Identity) domain.IdentityRecord {
	t.Helper()
	rec, err := domain.NewIdentityRecord(id.DID, id.Signing.Public, id.KEM.Public)
	require.NoError(t, err)
	return rec
}

type pair struct {
	clk        *clock
	client     domain.Identity
	server     domain.Identity
	clientReg  *registry.Registry
	serverReg  *registry.Registry
	clientSess *session.Store
	serverSess *session.Store
	transport  *mocks.MockTransport
	initiator  *agent.Initiator
	responder  *agent.Responder
}

func newPair(t *testing.T, h agent.Handler, serverOpts ...session.Option) *pair {
	t.Helper()
	p := &pair{
		clk:       &clock{now: time.Unix(1_700_000_000, 0)},
		client:    newIdentity(t, "client"),
		server:    newIdentity(t, "server"),
		clientReg: registry.New(),
		serverReg: registry.New(),
	}
	require.NoError(t, p.clientReg.Register(publicRecord(t, p.server)))
	require.NoError(t, p.serverReg.Register(publicRecord(t, p.client)))

	p.clientSess = session.NewStore(session.WithClock(p.clk.Now), session.WithMaxAge(time.Minute))
	p.serverSess = session.NewStore(append([]session.Option{session.WithClock(p.clk.Now)}, serverOpts...)...)

	p.responder = agent.NewResponder(agent.Deps{
		Identity: p.server,
		Resolver: p.serverReg,
		Sessions: p.serverSess,
		Auth:     auth.NewAuthenticator(auth.WithClock(p.clk.Now)),
	}, h)

	p.transport = mocks.NewMockTransport(gomock.NewController(t))
	p.initiator = agent.NewInitiator(agent.Deps{
		Identity: p.client,
		Resolver: p.clientReg,
		Sessions: p.clientSess,
		Auth:     auth.NewAuthenticator(auth.WithClock(p.clk.Now)),
	}, p.transport)
	return p
}

// forward routes every Send to the in-process responder.
func (p *pair) forward() {
	p.transport.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(p.responder.Handle).AnyTimes()
}

func TestHandshakeAndEcho(t *testing.T) {
	p := newPair(t, nil)
	p.forward()
	ctx := context.Background()

	id, err := p.initiator.Handshake(ctx, p.server.DID)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, ok := p.serverSess.Get(id)
	require.True(t, ok, "server registers the same session id")

	for _, msg := range []string{"ping", "second", ""} {
		reply, err := p.initiator.Send(ctx, id, []byte(msg))
		require.NoError(t, err)
		require.Equal(t, msg, string(reply))
	}

	info := p.clientSess.ListActive()[0]
	require.Equal(t, p.client.DID, info.ClientDID)
	require.Equal(t, p.server.DID, info.ServerDID)
	require.EqualValues(t, 3, info.MessageCount)
}

func TestCustomHandler(t *testing.T) {
	p := newPair(t, func(_ context.Context, from domain.DID, msg []byte) ([]byte, error) {
		return append([]byte(from.String()+":"), bytes.ToUpper(msg)...), nil
	})
	p.forward()
	ctx := context.Background()

	id, err := p.initiator.Handshake(ctx, p.server.DID)
	require.NoError(t, err)
	reply, err := p.initiator.Send(ctx, id, []byte("ping"))
	require.NoError(t, err)
	require.Equal(t, "did:agent:local:client:PING", string(reply))
}

func TestHandshake_UnknownServer(t *testing.T) {
	p := newPair(t, nil)
	p.transport.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := p.initiator.Handshake(context.Background(), "did:agent:local:nobody")
	require.ErrorIs(t, err, domain.ErrIdentity)
	require.Zero(t, p.clientSess.Count())
}

func TestHandshake_RevokedClient(t *testing.T) {
	p := newPair(t, nil)
	p.forward()
	p.serverReg.Revoke(p.client.DID)

	_, err := p.initiator.Handshake(context.Background(), p.server.DID)
	require.ErrorIs(t, err, domain.ErrIdentity)
	require.Zero(t, p.clientSess.Count())
	require.Zero(t, p.serverSess.Count())
}

func TestSend_ClientRevokedMidSession(t *testing.T) {
	p := newPair(t, nil)
	p.forward()
	ctx := context.Background()

	id, err := p.initiator.Handshake(ctx, p.server.DID)
	require.NoError(t, err)

	p.serverReg.Revoke(p.client.DID)
	_, err = p.initiator.Send(ctx, id, []byte("ping"))
	require.ErrorIs(t, err, domain.ErrIdentity)
}

func TestHandshake_WrongKEMKey(t *testing.T) {
	p := newPair(t, nil)
	p.forward()

	// The client believes in a stale KEM key for the server.
	stale := publicRecord(t, p.server)
	stale.KEMKey = newIdentity(t, "x").KEM.Public
	p.clientReg.Clear()
	require.NoError(t, p.clientReg.Register(stale))

	_, err := p.initiator.Handshake(context.Background(), p.server.DID)
	require.ErrorIs(t, err, domain.ErrDecryption)
	require.Zero(t, p.clientSess.Count())
	require.Zero(t, p.serverSess.Count())
}

func TestReplayedEnvelope(t *testing.T) {
	p := newPair(t, nil)
	ctx := context.Background()

	var captured []domain.Envelope
	p.transport.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, env domain.Envelope, id domain.SessionID) (domain.Response, error) {
			captured = append(captured, env)
			return p.responder.Handle(ctx, env, id)
		}).AnyTimes()

	id, err := p.initiator.Handshake(ctx, p.server.DID)
	require.NoError(t, err)
	_, err = p.initiator.Send(ctx, id, []byte("ping"))
	require.NoError(t, err)
	require.Len(t, captured, 2)

	_, err = p.responder.Handle(ctx, captured[0], "")
	require.ErrorIs(t, err, domain.ErrReplay)
	_, err = p.responder.Handle(ctx, captured[1], id)
	require.ErrorIs(t, err, domain.ErrReplay)

	// Re-encoding the signature text does not make a handshake fresh.
	reencoded := captured[0]
	reencoded.Signature += "\n"
	_, err = p.responder.Handle(ctx, reencoded, "")
	require.Error(t, err)
	require.Equal(t, 1, p.serverSess.Count())
}

func TestTamperedEnvelope(t *testing.T) {
	p := newPair(t, nil)
	ctx := context.Background()

	p.transport.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, env domain.Envelope, id domain.SessionID) (domain.Response, error) {
			raw, _ := crypto.FromB64(env.Message)
			raw[len(raw)-1] ^= 1
			env.Message = crypto.B64(raw)
			return p.responder.Handle(ctx, env, id)
		})

	_, err := p.initiator.Handshake(ctx, p.server.DID)
	require.ErrorIs(t, err, domain.ErrSignature)
	require.Zero(t, p.serverSess.Count())
}

func TestHandshake_ServerAtCapacity(t *testing.T) {
	p := newPair(t, nil, session.WithMaxSessions(1))
	p.forward()
	ctx := context.Background()

	_, err := p.initiator.Handshake(ctx, p.server.DID)
	require.NoError(t, err)
	_, err = p.initiator.Handshake(ctx, p.server.DID)
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)
	require.Equal(t, 1, p.clientSess.Count())
}

func TestSend_Expired(t *testing.T) {
	p := newPair(t, nil)
	p.forward()
	ctx := context.Background()

	id, err := p.initiator.Handshake(ctx, p.server.DID)
	require.NoError(t, err)

	p.clk.Advance(time.Minute + time.Second)
	_, err = p.initiator.Send(ctx, id, []byte("late"))
	require.ErrorIs(t, err, domain.ErrSessionExpired)

	_, err = p.initiator.Send(ctx, id, []byte("later"))
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestHandshake_TransportFailure(t *testing.T) {
	p := newPair(t, nil)
	p.transport.EXPECT().Send(gomock.Any(), gomock.Any(), domain.SessionID("")).
		Return(domain.Response{}, fmt.Errorf("connection refused: %w", domain.ErrTransport))

	_, err := p.initiator.Handshake(context.Background(), p.server.DID)
	require.ErrorIs(t, err, domain.ErrTransport)
	require.Zero(t, p.clientSess.Count())
}

func TestMessage_WrongSender(t *testing.T) {
	p := newPair(t, nil)
	p.forward()
	ctx := context.Background()

	id, err := p.initiator.Handshake(ctx, p.server.DID)
	require.NoError(t, err)

	mallory := newIdentity(t, "mallory")
	require.NoError(t, p.serverReg.Register(publicRecord(t, mallory)))
	env := auth.NewEnvelope(mallory.DID, p.server.DID, []byte("frame"))
	require.NoError(t, auth.NewAuthenticator(auth.WithClock(p.clk.Now)).Seal(&env, mallory.Signing.Private.Slice()))

	_, err = p.responder.Handle(ctx, env, id)
	require.ErrorIs(t, err, domain.ErrIdentity)
}

func withOptions(t *testing.T, p *pair, client, server handshake.Options) {
	t.Helper()
	p.responder = agent.NewResponder(agent.Deps{
		Identity:         p.server,
		Resolver:         p.serverReg,
		Sessions:         p.serverSess,
		Auth:             auth.NewAuthenticator(auth.WithClock(p.clk.Now)),
		HandshakeOptions: server,
	}, nil)
	p.initiator = agent.NewInitiator(agent.Deps{
		Identity:         p.client,
		Resolver:         p.clientReg,
		Sessions:         p.clientSess,
		Auth:             auth.NewAuthenticator(auth.WithClock(p.clk.Now)),
		HandshakeOptions: client,
	}, p.transport)
	p.forward()
}

func TestHandshakeOptions(t *testing.T) {
	ctx := context.Background()
	custom := handshake.Options{Label: "agentlink test label", Suite: channel.ChaCha20Poly1305}

	p := newPair(t, nil)
	withOptions(t, p, custom, custom)
	id, err := p.initiator.Handshake(ctx, p.server.DID)
	require.NoError(t, err)
	reply, err := p.initiator.Send(ctx, id, []byte("ping"))
	require.NoError(t, err)
	require.Equal(t, "ping", string(reply))

	// Peers disagreeing on the derivation cannot open each other's frames.
	mismatch := newPair(t, nil)
	withOptions(t, mismatch, custom, handshake.Options{})
	_, err = mismatch.initiator.Handshake(ctx, mismatch.server.DID)
	require.ErrorIs(t, err, domain.ErrDecryption)
	require.Zero(t, mismatch.serverSess.Count())
	require.Zero(t, mismatch.clientSess.Count())
}
