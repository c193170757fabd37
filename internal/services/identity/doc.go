// Package identity manages creation, encryption and loading of the local
// agent identity.
//
// It enforces passphrase policy, generates the Ed25519 signing pair and the
// X25519 KEM pair, binds them to a DID, and persists them via the
// domain.IdentityStore.
package identity
