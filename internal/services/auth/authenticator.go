package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"agentlink/internal/crypto"
	"agentlink/internal/domain"
)

// DefaultSkew is the accepted distance between an envelope timestamp and
// the local clock.
const DefaultSkew = 5 * time.Minute

// Authenticator applies signing and the receive-side freshness policy.
type Authenticator struct {
	skew   time.Duration
	clock  func() time.Time
	replay *ReplayCache
	log    zerolog.Logger
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithSkew sets the accepted clock skew.
func WithSkew(d time.Duration) Option { return func(a *Authenticator) { a.skew = d } }

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option { return func(a *Authenticator) { a.clock = clock } }

// WithReplayCache shares an existing replay cache, e.g. one swept by a scheduler.
func WithReplayCache(c *ReplayCache) Option { return func(a *Authenticator) { a.replay = c } }

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option { return func(a *Authenticator) { a.log = l } }

// NewAuthenticator returns an Authenticator with DefaultSkew, time.Now and
// a private replay cache holding signatures for twice the skew.
func NewAuthenticator(opts ...Option) *Authenticator {
	a := &Authenticator{skew: DefaultSkew, clock: time.Now, log: zerolog.Nop()}
	for _, o := range opts {
		o(a)
	}
	if a.replay == nil {
		a.replay = NewReplayCache(2*a.skew, a.clock)
	}
	return a
}

// Replay exposes the replay cache so it can be swept.
func (a *Authenticator) Replay() *ReplayCache { return a.replay }

// Now is the authenticator's current time.
func (a *Authenticator) Now() time.Time { return a.clock() }

// Seal stamps env with the current time and signs it.
func (a *Authenticator) Seal(env *domain.Envelope, seed []byte) error {
	env.Timestamp = a.clock().Unix()
	return SignEnvelope(env, seed)
}

// CheckFresh rejects timestamps outside the skew window.
func (a *Authenticator) CheckFresh(ts int64) error {
	now := a.clock()
	t := time.Unix(ts, 0)
	if t.Before(now.Add(-a.skew)) || t.After(now.Add(a.skew)) {
		return fmt.Errorf("timestamp %d outside ±%s of %d: %w", ts, a.skew, now.Unix(), domain.ErrReplay)
	}
	return nil
}

// Authenticate runs the full receive policy on env: freshness, signature,
// then one-time use of the signature. A signature is only remembered once
// it has verified, so forged envelopes cannot poison the cache.
func (a *Authenticator) Authenticate(env domain.Envelope, pub []byte) error {
	if err := a.CheckFresh(env.Timestamp); err != nil {
		a.log.Debug().Str("sender", env.SenderDID.String()).Err(err).Msg("stale envelope")
		return err
	}
	if err := VerifyEnvelope(env, pub); err != nil {
		a.log.Debug().Str("sender", env.SenderDID.String()).Err(err).Msg("bad signature")
		return err
	}
	sig, err := crypto.FromB64(env.Signature)
	if err != nil {
		return fmt.Errorf("envelope from %s: %v: %w", env.SenderDID, err, domain.ErrSignature)
	}
	if a.replay.Seen(replayKey(env.SenderDID, sig)) {
		a.log.Warn().Str("sender", env.SenderDID.String()).Int64("ts", env.Timestamp).Msg("replayed envelope")
		return fmt.Errorf("envelope from %s already accepted: %w", env.SenderDID, domain.ErrReplay)
	}
	return nil
}

// AuthenticateRecord opens a published record claim and applies the same
// freshness and one-time-use policy as envelopes.
func (a *Authenticator) AuthenticateRecord(payload, proof string) (domain.IdentityRecord, error) {
	claim, sig, err := OpenRecord(payload, proof)
	if err != nil {
		return domain.IdentityRecord{}, err
	}
	did := claim.Record.DID
	if err := a.CheckFresh(claim.IssuedAt); err != nil {
		return domain.IdentityRecord{}, fmt.Errorf("record %s: %w", did, err)
	}
	if a.replay.Seen(replayKey(did, sig)) {
		a.log.Warn().Str("did", did.String()).Int64("ts", claim.IssuedAt).Msg("replayed record")
		return domain.IdentityRecord{}, fmt.Errorf("record %s already published: %w", did, domain.ErrReplay)
	}
	return claim.Record, nil
}

// replayKey digests the decoded signature bytes, never their text form.
func replayKey(sender domain.DID, sig []byte) string {
	h := sha256.New()
	h.Write([]byte(sender.String()))
	h.Write([]byte{'|'})
	h.Write(sig)
	return hex.EncodeToString(h.Sum(nil))
}
