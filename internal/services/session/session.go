package session

import (
	"fmt"
	"sync"
	"time"

	"agentlink/internal/domain"
	"agentlink/internal/protocol/channel"
)

// Session is one live secure session. It exclusively owns its channel.
// All methods are safe for concurrent use; channel operations on one
// session are serialised. id, the DIDs, clock and the timestamps fixed at
// creation are immutable and read without mu.
type Session struct {
	mu    sync.Mutex
	clock func() time.Time

	id        domain.SessionID
	clientDID domain.DID
	serverDID domain.DID
	ch        *channel.Channel

	createdAt    time.Time
	expiresAt    time.Time
	lastActivity time.Time
	messageCount uint64
	closed       bool
}

// NewSession wraps ch in a session that expires maxAge after now. A nil
// clock means time.Now.
func NewSession(
	id domain.SessionID,
	client, server domain.DID,
	ch *channel.Channel,
	maxAge time.Duration,
	clock func() time.Time,
) *Session {
	if clock == nil {
		clock = time.Now
	}
	now := clock()
	return &Session{
		clock:        clock,
		id:           id,
		clientDID:    client,
		serverDID:    server,
		ch:           ch,
		createdAt:    now,
		expiresAt:    now.Add(maxAge),
		lastActivity: now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() domain.SessionID { return s.id }

// Expired reports whether the deadline has passed. It never waits on an
// in-flight channel operation.
func (s *Session) Expired() bool { return s.expiredLocked(s.clock()) }

func (s *Session) expiredLocked(now time.Time) bool { return now.After(s.expiresAt) }

// Info returns a snapshot of the session metadata.
func (s *Session) Info() domain.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.SessionInfo{
		ID:           s.id,
		ClientDID:    s.clientDID,
		ServerDID:    s.serverDID,
		CreatedAt:    s.createdAt,
		ExpiresAt:    s.expiresAt,
		LastActivity: s.lastActivity,
		MessageCount: s.messageCount,
	}
}

// Encrypt seals plaintext for the peer.
func (s *Session) Encrypt(plaintext []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now, err := s.usableLocked()
	if err != nil {
		return nil, err
	}
	out, err := s.ch.Seal(plaintext, []byte(s.id))
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", s.id, err)
	}
	s.lastActivity = now
	s.messageCount++
	return out, nil
}

// Decrypt opens a frame sealed by the peer.
func (s *Session) Decrypt(sealed []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now, err := s.usableLocked()
	if err != nil {
		return nil, err
	}
	out, err := s.ch.Open(sealed, []byte(s.id))
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", s.id, err)
	}
	s.lastActivity = now
	return out, nil
}

func (s *Session) usableLocked() (time.Time, error) {
	if s.closed {
		return time.Time{}, fmt.Errorf("session %s closed: %w", s.id, domain.ErrSessionNotFound)
	}
	now := s.clock()
	if s.expiredLocked(now) {
		return time.Time{}, fmt.Errorf("session %s expired at %s: %w",
			s.id, s.expiresAt.Format(time.RFC3339), domain.ErrSessionExpired)
	}
	return now, nil
}

// Close wipes the channel keys. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.ch.Close()
}
