// Package handshake derives the sealed channel for a new session from a
// single X25519 key agreement.
//
// # Flow
//
// Initiator (Encapsulate):
//  1. Generate an ephemeral X25519 pair, unless the caller supplies one.
//  2. DH(ephemeral private, responder KEM public).
//  3. HKDF the shared secret with the protocol label into a base key.
//  4. Expand the base key into one key per direction and build a Channel
//     that seals with the initiator key and opens with the responder key.
//  5. Return the Channel and the ephemeral public key (the encapsulated key).
//
// Responder (Decapsulate) repeats steps 2-4 with DH(KEM private, ephemeral
// public) and swaps the directions.
//
// The encapsulated key travels in the clear in front of the first sealed
// frame; Pack and Unpack handle that framing.
//
// Any malformed key aborts with domain.ErrCrypto before a Channel exists.
package handshake
