// Package session owns the live sessions of a process.
//
// A Session pairs the DIDs of both peers with the sealed channel derived
// during the handshake. Its deadline is fixed at creation; activity never
// extends it. Expiry is detected lazily on access, and a Store purges
// expired entries before every capacity check and listing. A Sweeper can
// additionally run the purge on a schedule to bound memory.
//
// Session frames are sealed with the session id as associated data, so a
// frame cannot be replayed into another session.
package session
