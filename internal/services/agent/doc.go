// Package agent drives the two sides of a secure session.
//
// Initiator (client):
//  1. Resolve the server DID to its KEM key through the registry.
//  2. Encapsulate against that key and seal the handshake payload.
//  3. Sign the envelope and send it through the Transport.
//  4. Open the sealed acknowledgement and register the session under the
//     id the server assigned.
//
// Only the holder of the server's KEM private key can produce a valid
// acknowledgement, which is what authenticates the server. Any failure
// closes the channel and registers nothing.
//
// Responder (server) authenticates every envelope against the sender's
// signing key, so a revoked client is refused even mid-session.
package agent
