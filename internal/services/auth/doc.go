// Package auth signs outbound envelopes and authenticates inbound ones.
//
// The signature covers the canonical string
//
//	sender_did|receiver_did|payload_b64|timestamp
//
// so both ends must rebuild it byte for byte. Authenticator layers the
// receive policy on top: the timestamp must lie within the clock-skew
// window and each signature is accepted at most once while it is fresh.
package auth
