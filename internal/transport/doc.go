// Package transport carries envelopes and identity records over HTTP.
//
// HTTP is the client half: it implements domain.Transport for the
// initiator and domain.IdentitySource / domain.IdentityPublisher against a
// remote directory. Handler is the server half, a chi router that feeds
// envelopes to a responder and serves the local registry.
//
// Error kinds cross the wire as a "kind" field in the error body and are
// mapped back to the domain sentinels on the client.
package transport
