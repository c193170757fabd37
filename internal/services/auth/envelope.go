package auth

import (
	"fmt"
	"strconv"
	"strings"

	"agentlink/internal/crypto"
	"agentlink/internal/domain"
)

// CanonicalString is the exact byte string an envelope signature covers.
func CanonicalString(sender, receiver domain.DID, payloadB64 string, timestamp int64) string {
	return strings.Join([]string{
		sender.String(),
		receiver.String(),
		payloadB64,
		strconv.FormatInt(timestamp, 10),
	}, "|")
}

// NewEnvelope wraps payload for delivery from sender to receiver. The
// timestamp and signature are filled in by SignEnvelope or Authenticator.Seal.
func NewEnvelope(sender, receiver domain.DID, payload []byte) domain.Envelope {
	return domain.Envelope{
		SenderDID:   sender,
		ReceiverDID: receiver,
		Message:     crypto.B64(payload),
	}
}

// SignEnvelope signs env in place with the sender's Ed25519 seed, using
// the timestamp already set on env.
func SignEnvelope(env *domain.Envelope, seed []byte) error {
	msg := CanonicalString(env.SenderDID, env.ReceiverDID, env.Message, env.Timestamp)
	sig, err := crypto.Sign(seed, []byte(msg))
	if err != nil {
		return fmt.Errorf("sign envelope: %w", err)
	}
	env.Signature = crypto.B64(sig)
	return nil
}

// VerifyEnvelope checks env's signature against the sender's public signing
// key. A missing, malformed or mismatched signature is an ErrSignature.
func VerifyEnvelope(env domain.Envelope, pub []byte) error {
	if env.Signature == "" {
		return fmt.Errorf("verify envelope from %s: missing signature: %w", env.SenderDID, domain.ErrSignature)
	}
	sig, err := crypto.FromB64(env.Signature)
	if err != nil {
		return fmt.Errorf("verify envelope from %s: %v: %w", env.SenderDID, err, domain.ErrSignature)
	}
	msg := CanonicalString(env.SenderDID, env.ReceiverDID, env.Message, env.Timestamp)
	if err := crypto.Verify(pub, []byte(msg), sig); err != nil {
		return fmt.Errorf("verify envelope from %s: %w", env.SenderDID, err)
	}
	return nil
}

// Payload decodes the envelope message.
func Payload(env domain.Envelope) ([]byte, error) {
	b, err := crypto.FromB64(env.Message)
	if err != nil {
		return nil, fmt.Errorf("envelope payload: %w", err)
	}
	return b, nil
}
