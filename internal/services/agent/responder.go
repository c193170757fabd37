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
	"agentlink/internal/services/session"
)

// Handler produces the application reply to a decrypted message.
type Handler func(ctx context.Context, from domain.DID, msg []byte) ([]byte, error)

// Echo replies with the message itself.
func Echo(_ context.Context, _ domain.DID, msg []byte) ([]byte, error) { return msg, nil }

// Responder is the server side: it accepts handshakes and answers messages.
type Responder struct {
	Deps
	handler Handler
}

// NewResponder returns a Responder that answers with h, or Echo if h is nil.
func NewResponder(d Deps, h Handler) *Responder {
	if h == nil {
		h = Echo
	}
	return &Responder{Deps: d, handler: h}
}

// Handle dispatches env: an empty session id is a handshake.
func (r *Responder) Handle(ctx context.Context, env domain.Envelope, id domain.SessionID) (domain.Response, error) {
	if id == "" {
		return r.HandleHandshake(ctx, env)
	}
	return r.HandleMessage(ctx, id, env)
}

// authenticate checks addressing, resolves the sender and runs the
// freshness, signature and replay policy.
func (r *Responder) authenticate(ctx context.Context, env domain.Envelope) error {
	if env.ReceiverDID != r.Identity.DID {
		return fmt.Errorf("envelope addressed to %s, not %s: %w", env.ReceiverDID, r.Identity.DID, domain.ErrIdentity)
	}
	rec, err := resolve(ctx, r.Resolver, env.SenderDID)
	if err != nil {
		return err
	}
	return r.Auth.Authenticate(env, rec.SigningKey.Slice())
}

// HandleHandshake accepts a new session from an authenticated client.
func (r *Responder) HandleHandshake(ctx context.Context, env domain.Envelope) (resp domain.Response, err error) {
	defer func() {
		metrics.RecordHandshake(metrics.Responder, err)
		if err != nil {
			r.Log.Warn().Str("sender", env.SenderDID.String()).Str("kind", domain.Kind(err)).Err(err).Msg("handshake rejected")
		}
	}()

	if err := r.authenticate(ctx, env); err != nil {
		return domain.Response{}, err
	}
	msg, err := auth.Payload(env)
	if err != nil {
		return domain.Response{}, err
	}
	ephPub, sealed, err := handshake.Unpack(msg)
	if err != nil {
		return domain.Response{}, err
	}
	ch, err := handshake.Decapsulate(ephPub.Slice(), r.Identity.KEM.Private.Slice(), r.HandshakeOptions)
	if err != nil {
		return domain.Response{}, err
	}
	registered := false
	defer func() {
		if !registered {
			ch.Close()
		}
	}()

	aad := handshakeAAD(env.SenderDID, r.Identity.DID)
	raw, err := ch.Open(sealed, aad)
	if err != nil {
		return domain.Response{}, err
	}
	var hello domain.HandshakePayload
	if err := json.Unmarshal(raw, &hello); err != nil {
		return domain.Response{}, fmt.Errorf("handshake payload: %v: %w", err, domain.ErrDecryption)
	}
	if hello.Type != domain.PayloadHandshake || hello.ClientDID != env.SenderDID {
		return domain.Response{}, fmt.Errorf("handshake payload does not match envelope from %s: %w", env.SenderDID, domain.ErrIdentity)
	}
	if err := r.Auth.CheckFresh(hello.Timestamp); err != nil {
		return domain.Response{}, err
	}

	id := session.NewID()
	ack, err := json.Marshal(domain.HandshakeAck{
		Type:      domain.PayloadHandshakeAck,
		SessionID: id,
		ServerDID: r.Identity.DID,
		Timestamp: r.Auth.Now().Unix(),
	})
	if err != nil {
		return domain.Response{}, err
	}
	sealedAck, err := ch.Seal(ack, aad)
	if err != nil {
		return domain.Response{}, err
	}

	registered = true
	if _, err := r.Sessions.Create(id, env.SenderDID, r.Identity.DID, ch); err != nil {
		return domain.Response{}, err
	}
	r.Log.Info().Str("session", id.String()).Str("client", env.SenderDID.String()).Msg("session accepted")
	return domain.Response{SessionID: id, Response: crypto.B64(sealedAck)}, nil
}

// HandleMessage opens env on session id, runs the handler and seals the reply.
func (r *Responder) HandleMessage(ctx context.Context, id domain.SessionID, env domain.Envelope) (domain.Response, error) {
	sess, err := r.Sessions.Lookup(id)
	if err != nil {
		return domain.Response{}, err
	}
	if client := sess.Info().ClientDID; env.SenderDID != client {
		return domain.Response{}, fmt.Errorf("session %s belongs to %s, not %s: %w", id, client, env.SenderDID, domain.ErrIdentity)
	}
	if err := r.authenticate(ctx, env); err != nil {
		return domain.Response{}, err
	}
	frame, err := auth.Payload(env)
	if err != nil {
		return domain.Response{}, err
	}
	msg, err := r.Sessions.Decrypt(id, frame)
	if err != nil {
		return domain.Response{}, err
	}
	reply, err := r.handler(ctx, env.SenderDID, msg)
	if err != nil {
		return domain.Response{}, err
	}
	out, err := r.Sessions.Encrypt(id, reply)
	if err != nil {
		return domain.Response{}, err
	}
	return domain.Response{SessionID: id, Response: crypto.B64(out)}, nil
}
