package auth_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"agentlink/internal/crypto"
	"agentlink/internal/domain"
	"agentlink/internal/services/auth"
)

const (
	alice = domain.DID("did:agent:local:alice")
	bob   = domain.DID("did:agent:local:bob")
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func signingKey(t *testing.T) domain.KeyPair {
	t.Helper()
	kp, err := crypto.GenerateKeyPair(domain.KeyTypeEd25519)
	require.NoError(t, err)
	return kp
}

func TestCanonicalString(t *testing.T) {
	got := auth.CanonicalString(alice, bob, "cGluZw==", 1700000000)
	require.Equal(t, "did:agent:local:alice|did:agent:local:bob|cGluZw==|1700000000", got)
}

func TestSignVerifyEnvelope(t *testing.T) {
	kp := signingKey(t)
	env := auth.NewEnvelope(alice, bob, []byte("ping"))
	env.Timestamp = 42
	require.NoError(t, auth.SignEnvelope(&env, kp.Private.Slice()))
	require.NoError(t, auth.VerifyEnvelope(env, kp.Public.Slice()))

	payload, err := auth.Payload(env)
	require.NoError(t, err)
	require.Equal(t, []byte("ping"), payload)

	for name, mutate := range map[string]func(*domain.Envelope){
		"sender":    func(e *domain.Envelope) { e.SenderDID = "did:agent:local:mallory" },
		"receiver":  func(e *domain.Envelope) { e.ReceiverDID = alice },
		"payload":   func(e *domain.Envelope) { e.Message = crypto.B64([]byte("pong")) },
		"timestamp": func(e *domain.Envelope) { e.Timestamp++ },
		"missing":   func(e *domain.Envelope) { e.Signature = "" },
		"garbage":   func(e *domain.Envelope) { e.Signature = "!!" },
	} {
		bad := env
		mutate(&bad)
		require.ErrorIs(t, auth.VerifyEnvelope(bad, kp.Public.Slice()), domain.ErrSignature, name)
	}

	other := signingKey(t)
	require.ErrorIs(t, auth.VerifyEnvelope(env, other.Public.Slice()), domain.ErrSignature)
}

func TestCheckFresh(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	a := auth.NewAuthenticator(auth.WithClock(clk.Now), auth.WithSkew(time.Minute))

	require.NoError(t, a.CheckFresh(clk.now.Unix()))
	require.NoError(t, a.CheckFresh(clk.now.Add(-time.Minute).Unix()))
	require.NoError(t, a.CheckFresh(clk.now.Add(time.Minute).Unix()))
	require.ErrorIs(t, a.CheckFresh(clk.now.Add(-61*time.Second).Unix()), domain.ErrReplay)
	require.ErrorIs(t, a.CheckFresh(clk.now.Add(61*time.Second).Unix()), domain.ErrReplay)
}

func TestAuthenticate(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	a := auth.NewAuthenticator(auth.WithClock(clk.Now), auth.WithSkew(time.Minute))
	kp := signingKey(t)

	env := auth.NewEnvelope(alice, bob, []byte("ping"))
	require.NoError(t, a.Seal(&env, kp.Private.Slice()))
	require.Equal(t, clk.now.Unix(), env.Timestamp)

	require.NoError(t, a.Authenticate(env, kp.Public.Slice()))
	require.ErrorIs(t, a.Authenticate(env, kp.Public.Slice()), domain.ErrReplay)

	clk.Advance(2 * time.Minute)
	require.ErrorIs(t, a.Authenticate(env, kp.Public.Slice()), domain.ErrReplay, "stale")
}

func TestAuthenticate_ForgeryDoesNotPoisonCache(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	a := auth.NewAuthenticator(auth.WithClock(clk.Now))
	kp := signingKey(t)
	wrong := signingKey(t)

	env := auth.NewEnvelope(alice, bob, []byte("ping"))
	require.NoError(t, a.Seal(&env, kp.Private.Slice()))

	require.ErrorIs(t, a.Authenticate(env, wrong.Public.Slice()), domain.ErrSignature)
	require.NoError(t, a.Authenticate(env, kp.Public.Slice()))
}

func TestAuthenticate_ReencodedSignature(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	a := auth.NewAuthenticator(auth.WithClock(clk.Now))
	kp := signingKey(t)

	env := auth.NewEnvelope(alice, bob, []byte("ping"))
	require.NoError(t, a.Seal(&env, kp.Private.Slice()))
	require.NoError(t, a.Authenticate(env, kp.Public.Slice()))

	// Alternative text forms of the same signature bytes are not fresh
	// signatures.
	for name, sig := range map[string]string{
		"trailing LF":   env.Signature + "\n",
		"trailing CRLF": env.Signature + "\r\n",
		"embedded LF":   env.Signature[:8] + "\n" + env.Signature[8:],
	} {
		replay := env
		replay.Signature = sig
		require.Error(t, a.Authenticate(replay, kp.Public.Slice()), name)
		require.ErrorIs(t, auth.VerifyEnvelope(replay, kp.Public.Slice()), domain.ErrSignature, name)
	}
	require.ErrorIs(t, a.Authenticate(env, kp.Public.Slice()), domain.ErrReplay)
}

func TestReplayCache(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	c := auth.NewReplayCache(time.Minute, clk.Now)

	require.False(t, c.Seen("a"))
	require.True(t, c.Seen("a"))
	require.False(t, c.Seen("b"))
	require.Equal(t, 2, c.Len())

	clk.Advance(time.Minute + time.Second)
	require.Equal(t, 2, c.Sweep())
	require.Zero(t, c.Len())
	require.False(t, c.Seen("a"))
}

func TestRecordProof(t *testing.T) {
	sig := signingKey(t)
	kem, err := crypto.GenerateKeyPair(domain.KeyTypeX25519)
	require.NoError(t, err)
	rec, err := domain.NewIdentityRecord(alice, sig.Public, kem.Public)
	require.NoError(t, err)
	rec.Metadata = map[string]any{"role": "worker"}

	payload, proof, err := auth.SignRecord(rec, 1700000000, sig.Private.Slice())
	require.NoError(t, err)
	claim, _, err := auth.OpenRecord(payload, proof)
	require.NoError(t, err)
	require.Equal(t, rec, claim.Record)
	require.Equal(t, int64(1700000000), claim.IssuedAt)

	// Every field of the claim is covered by the proof.
	for name, mutate := range map[string]func(*auth.RecordClaim){
		"kem key":  func(c *auth.RecordClaim) { c.Record.KEMKey[0] ^= 1 },
		"active":   func(c *auth.RecordClaim) { c.Record.Active = false },
		"revoked":  func(c *auth.RecordClaim) { c.Record.Revoked = true },
		"metadata": func(c *auth.RecordClaim) { c.Record.Metadata = map[string]any{"role": "admin"} },
		"owner":    func(c *auth.RecordClaim) { c.Record.OwnerAddress = "elsewhere" },
		"issued":   func(c *auth.RecordClaim) { c.IssuedAt++ },
	} {
		tampered := claim
		tampered.Record = claim.Record.Clone()
		mutate(&tampered)
		raw, err := json.Marshal(tampered)
		require.NoError(t, err)
		_, _, err = auth.OpenRecord(crypto.B64(raw), proof)
		require.ErrorIs(t, err, domain.ErrSignature, name)
	}

	_, _, err = auth.OpenRecord(payload, "%%")
	require.ErrorIs(t, err, domain.ErrSignature)
	_, _, err = auth.OpenRecord(payload+"\n", proof)
	require.ErrorIs(t, err, domain.ErrSignature)

	other := signingKey(t)
	_, forged, err := auth.SignRecord(rec, 1700000000, other.Private.Slice())
	require.NoError(t, err)
	_, _, err = auth.OpenRecord(payload, forged)
	require.ErrorIs(t, err, domain.ErrSignature)
}

func TestAuthenticateRecord(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	a := auth.NewAuthenticator(auth.WithClock(clock.Now))

	sig := signingKey(t)
	kem, err := crypto.GenerateKeyPair(domain.KeyTypeX25519)
	require.NoError(t, err)
	rec, err := domain.NewIdentityRecord(alice, sig.Public, kem.Public)
	require.NoError(t, err)

	payload, proof, err := auth.SignRecord(rec, clock.now.Unix(), sig.Private.Slice())
	require.NoError(t, err)
	got, err := a.AuthenticateRecord(payload, proof)
	require.NoError(t, err)
	require.Equal(t, rec, got)

	// The same publication is accepted once.
	_, err = a.AuthenticateRecord(payload, proof)
	require.ErrorIs(t, err, domain.ErrReplay)

	stale, staleProof, err := auth.SignRecord(rec, clock.now.Add(-time.Hour).Unix(), sig.Private.Slice())
	require.NoError(t, err)
	_, err = a.AuthenticateRecord(stale, staleProof)
	require.ErrorIs(t, err, domain.ErrReplay)

	// A forged publication does not consume the replay slot of a later real one.
	fresh, freshProof, err := auth.SignRecord(rec, clock.now.Unix()+1, sig.Private.Slice())
	require.NoError(t, err)
	_, err = a.AuthenticateRecord(fresh, proof)
	require.ErrorIs(t, err, domain.ErrSignature)
	_, err = a.AuthenticateRecord(fresh, freshProof)
	require.NoError(t, err)
}
