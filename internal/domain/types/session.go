package types

import "time"

// SessionInfo is a read-only snapshot of a live session.
type SessionInfo struct {
	ID           SessionID `json:"session_id"`
	ClientDID    DID       `json:"client_did"`
	ServerDID    DID       `json:"server_did"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity"`
	MessageCount uint64    `json:"message_count"`
}

// SessionStats counts sessions held by a store at one instant.
type SessionStats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
}
