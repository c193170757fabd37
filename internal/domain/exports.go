package domain

import (
	interfaces "agentlink/internal/domain/interfaces"
	types "agentlink/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	DID              = types.DID
	SessionID        = types.SessionID
	Fingerprint      = types.Fingerprint
	KeyType          = types.KeyType
	PublicKey        = types.PublicKey
	PrivateKey       = types.PrivateKey
	KeyPair          = types.KeyPair
	Identity         = types.Identity
	IdentityRecord   = types.IdentityRecord
	Envelope         = types.Envelope
	Response         = types.Response
	HandshakePayload = types.HandshakePayload
	HandshakeAck     = types.HandshakeAck
	SessionInfo      = types.SessionInfo
	SessionStats     = types.SessionStats
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	IdentityService   = interfaces.IdentityService
	IdentityResolver  = interfaces.IdentityResolver
	IdentityStore     = interfaces.IdentityStore
	RecordSource      = interfaces.RecordSource
	Transport         = interfaces.Transport
	IdentitySource    = interfaces.IdentitySource
	IdentityPublisher = interfaces.IdentityPublisher
)

// Constants re-exported from the types subpackage.
const (
	KeyTypeEd25519      = types.KeyTypeEd25519
	KeyTypeX25519       = types.KeyTypeX25519
	KeySize             = types.KeySize
	PayloadHandshake    = types.PayloadHandshake
	PayloadHandshakeAck = types.PayloadHandshakeAck
)

// Constructors re-exported from the types subpackage.
var (
	ParseDID          = types.ParseDID
	NewDID            = types.NewDID
	NewIdentityRecord = types.NewIdentityRecord
)
