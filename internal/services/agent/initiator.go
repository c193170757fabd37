package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"agentlink/internal/crypto"
	"agentlink/internal/domain"
	"agentlink/internal/metrics"
	"agentlink/internal/protocol/handshake"
	"agentlink/internal/services/auth"
)

// Initiator is the client side: it opens sessions and sends messages.
type Initiator struct {
	Deps
	transport domain.Transport
}

// NewInitiator returns an Initiator that reaches servers through t.
func NewInitiator(d Deps, t domain.Transport) *Initiator {
	return &Initiator{Deps: d, transport: t}
}

// Handshake establishes a session with server and returns its id.
func (in *Initiator) Handshake(ctx context.Context, server domain.DID) (id domain.SessionID, err error) {
	defer func() { metrics.RecordHandshake(metrics.Initiator, err) }()

	rec, err := resolve(ctx, in.Resolver, server)
	if err != nil {
		return "", err
	}

	ch, ephPub, err := handshake.Encapsulate(rec.KEMKey.Slice(), nil, in.HandshakeOptions)
	if err != nil {
		return "", err
	}
	registered := false
	defer func() {
		if !registered {
			ch.Close()
		}
	}()

	self := in.Identity.DID
	aad := handshakeAAD(self, server)
	payload, err := json.Marshal(domain.HandshakePayload{
		Type:      domain.PayloadHandshake,
		ClientDID: self,
		Timestamp: in.Auth.Now().Unix(),
	})
	if err != nil {
		return "", err
	}
	sealed, err := ch.Seal(payload, aad)
	if err != nil {
		return "", err
	}

	env := auth.NewEnvelope(self, server, handshake.Pack(ephPub, sealed))
	if err := in.Auth.Seal(&env, in.Identity.Signing.Private.Slice()); err != nil {
		return "", err
	}
	resp, err := in.transport.Send(ctx, env, "")
	if err != nil {
		return "", fmt.Errorf("handshake with %s: %w", server, err)
	}
	if resp.SessionID == "" {
		return "", fmt.Errorf("handshake with %s: response carries no session id: %w", server, domain.ErrTransport)
	}

	ackFrame, err := crypto.FromB64(resp.Response)
	if err != nil {
		return "", fmt.Errorf("handshake ack: %v: %w", err, domain.ErrDecryption)
	}
	raw, err := ch.Open(ackFrame, aad)
	if err != nil {
		return "", fmt.Errorf("handshake ack: %w", err)
	}
	var ack domain.HandshakeAck
	if err := json.Unmarshal(raw, &ack); err != nil {
		return "", fmt.Errorf("handshake ack: %v: %w", err, domain.ErrDecryption)
	}
	if ack.Type != domain.PayloadHandshakeAck || ack.SessionID != resp.SessionID || ack.ServerDID != server {
		return "", fmt.Errorf("handshake ack does not match response from %s: %w", server, domain.ErrIdentity)
	}

	// The store owns the channel from here and closes it if Create fails.
	registered = true
	if _, err := in.Sessions.Create(resp.SessionID, self, server, ch); err != nil {
		return "", err
	}
	in.Log.Info().Str("session", resp.SessionID.String()).Str("server", server.String()).Msg("session established")
	return resp.SessionID, nil
}

// Send seals msg on the session, delivers it and opens the reply.
func (in *Initiator) Send(ctx context.Context, id domain.SessionID, msg []byte) ([]byte, error) {
	sess, err := in.Sessions.Lookup(id)
	if err != nil {
		return nil, err
	}
	server := sess.Info().ServerDID

	frame, err := in.Sessions.Encrypt(id, msg)
	if err != nil {
		return nil, err
	}
	env := auth.NewEnvelope(in.Identity.DID, server, frame)
	if err := in.Auth.Seal(&env, in.Identity.Signing.Private.Slice()); err != nil {
		return nil, err
	}
	resp, err := in.transport.Send(ctx, env, id)
	if err != nil {
		return nil, fmt.Errorf("send on %s: %w", id, err)
	}
	reply, err := crypto.FromB64(resp.Response)
	if err != nil {
		return nil, fmt.Errorf("reply on %s: %v: %w", id, err, domain.ErrDecryption)
	}
	return in.Sessions.Decrypt(id, reply)
}

// Close drops the session locally.
func (in *Initiator) Close(id domain.SessionID) { in.Sessions.Remove(id) }
