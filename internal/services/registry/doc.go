// Package registry caches resolved DID documents.
//
// Lookup reports exactly why a DID did or did not resolve. Resolve is the
// narrow view used for crypto: it only fails for malformed DIDs and folds
// unknown, revoked and inactive DIDs into a single "not found" so callers
// cannot tell a revoked identity from one never seen.
//
// Revocation is one-way for the lifetime of the cache: neither Register nor
// the resolution source can bring a revoked DID back.
package registry
