package types

import (
	"fmt"
	"regexp"
	"strings"
)

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// SessionID is the opaque, server-assigned identifier of a session.
type SessionID string

// String returns the string form of the session identifier.
func (id SessionID) String() string { return string(id) }

// DID is a decentralised identifier of the form
// did:<namespace>:<network>:<address>.
type DID string

var didPattern = regexp.MustCompile(`^did:([a-z0-9]+):([a-z0-9]+):(\S+)$`)

// ParseDID validates s and returns it as a DID.
func ParseDID(s string) (DID, error) {
	if !didPattern.MatchString(s) {
		return "", fmt.Errorf("invalid DID format %q: %w", s, ErrIdentity)
	}
	return DID(s), nil
}

// NewDID assembles a DID from its components and validates the result.
func NewDID(namespace, network, address string) (DID, error) {
	return ParseDID("did:" + namespace + ":" + network + ":" + address)
}

// String returns the string form of the DID.
func (d DID) String() string { return string(d) }

// Valid reports whether d matches the DID pattern.
func (d DID) Valid() bool { return didPattern.MatchString(string(d)) }

// Namespace returns the method namespace, or "" if d is malformed.
func (d DID) Namespace() string { return d.part(1) }

// Network returns the network component, or "" if d is malformed.
func (d DID) Network() string { return d.part(2) }

// Address returns the address component, or "" if d is malformed.
func (d DID) Address() string { return d.part(3) }

func (d DID) part(i int) string {
	m := didPattern.FindStringSubmatch(string(d))
	if m == nil {
		return ""
	}
	return m[i]
}

// Equal compares two DIDs ignoring surrounding whitespace.
func (d DID) Equal(other DID) bool {
	return strings.TrimSpace(string(d)) == strings.TrimSpace(string(other))
}
