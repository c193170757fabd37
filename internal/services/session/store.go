package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"agentlink/internal/domain"
	"agentlink/internal/metrics"
	"agentlink/internal/protocol/channel"
)

// Defaults for a Store built without options.
const (
	DefaultMaxSessions = 100
	DefaultMaxAge      = time.Hour
)

// Store maps session ids to live sessions under a single lock.
type Store struct {
	mu       sync.Mutex
	sessions map[domain.SessionID]*Session

	max    int
	maxAge time.Duration
	clock  func() time.Time
	log    zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithMaxSessions bounds the number of live sessions.
func WithMaxSessions(n int) Option { return func(s *Store) { s.max = n } }

// WithMaxAge sets the hard TTL of sessions created by the store.
func WithMaxAge(d time.Duration) Option { return func(s *Store) { s.maxAge = d } }

// WithClock replaces time.Now for the store and its sessions.
func WithClock(clock func() time.Time) Option { return func(s *Store) { s.clock = clock } }

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option { return func(s *Store) { s.log = l } }

// NewStore returns an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[domain.SessionID]*Session),
		max:      DefaultMaxSessions,
		maxAge:   DefaultMaxAge,
		clock:    time.Now,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// MaxAge returns the TTL given to sessions created by the store.
func (s *Store) MaxAge() time.Duration { return s.maxAge }

// NewID returns a fresh random session id.
func NewID() domain.SessionID { return domain.SessionID(uuid.NewString()) }

// Create builds a session around ch and adds it. An empty id is replaced
// with NewID(). On failure the channel is closed.
func (s *Store) Create(id domain.SessionID, client, server domain.DID, ch *channel.Channel) (*Session, error) {
	if id == "" {
		id = NewID()
	}
	sess := NewSession(id, client, server, ch, s.maxAge, s.clock)
	if err := s.Add(sess); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}

// Add inserts sess, replacing any session with the same id. Expired
// entries are purged first; if the store is still full the add fails with
// ErrCapacityExceeded, whether or not the id is already present.
func (s *Store) Add(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupLocked()
	if len(s.sessions) >= s.max {
		err := fmt.Errorf("store holds %d of %d sessions: %w", len(s.sessions), s.max, domain.ErrCapacityExceeded)
		metrics.RecordSessionCreated(err)
		s.log.Warn().Int("max", s.max).Msg("session capacity reached")
		return err
	}
	if prev, ok := s.sessions[sess.ID()]; ok && prev != sess {
		prev.Close()
	}
	s.sessions[sess.ID()] = sess
	metrics.RecordSessionCreated(nil)
	metrics.SetActiveSessions(len(s.sessions))
	s.log.Debug().Str("session", sess.ID().String()).Int("count", len(s.sessions)).Msg("session added")
	return nil
}

// Get returns the live session for id. Absent and expired sessions are
// both reported as not found; an expired one is purged.
func (s *Store) Get(id domain.SessionID) (*Session, bool) {
	sess, err := s.Lookup(id)
	return sess, err == nil
}

// Lookup is Get with a typed error: ErrSessionNotFound when absent and
// ErrSessionExpired (after purging) when past its deadline.
func (s *Store) Lookup(id domain.SessionID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	if sess.Expired() {
		s.dropLocked(id, sess)
		metrics.RecordSessionsExpired(1)
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrSessionExpired)
	}
	return sess, nil
}

// Encrypt seals plaintext on the session with id.
func (s *Store) Encrypt(id domain.SessionID, plaintext []byte) ([]byte, error) {
	sess, err := s.Lookup(id)
	if err != nil {
		metrics.RecordMessage(metrics.Outbound, 0, err)
		return nil, err
	}
	out, err := sess.Encrypt(plaintext)
	s.afterUse(id, sess, err)
	metrics.RecordMessage(metrics.Outbound, len(plaintext), err)
	return out, err
}

// Decrypt opens a frame on the session with id.
func (s *Store) Decrypt(id domain.SessionID, sealed []byte) ([]byte, error) {
	sess, err := s.Lookup(id)
	if err != nil {
		metrics.RecordMessage(metrics.Inbound, 0, err)
		return nil, err
	}
	out, err := sess.Decrypt(sealed)
	s.afterUse(id, sess, err)
	metrics.RecordMessage(metrics.Inbound, len(out), err)
	return out, err
}

// afterUse purges a session that expired between lookup and use.
func (s *Store) afterUse(id domain.SessionID, sess *Session, err error) {
	if err == nil || !isExpired(err) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.sessions[id]; ok && cur == sess {
		s.dropLocked(id, sess)
		metrics.RecordSessionsExpired(1)
	}
}

// Remove closes and drops the session. Removing an unknown id is a no-op.
func (s *Store) Remove(id domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		s.dropLocked(id, sess)
		metrics.RecordSessionClosed()
		s.log.Debug().Str("session", id.String()).Msg("session removed")
	}
}

// CleanupExpired purges every expired session and returns the count.
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanupLocked()
}

func (s *Store) cleanupLocked() int {
	n := 0
	for id, sess := range s.sessions {
		if sess.Expired() {
			s.dropLocked(id, sess)
			n++
		}
	}
	if n > 0 {
		metrics.RecordSessionsExpired(n)
		s.log.Debug().Int("expired", n).Int("count", len(s.sessions)).Msg("expired sessions purged")
	}
	return n
}

func (s *Store) dropLocked(id domain.SessionID, sess *Session) {
	delete(s.sessions, id)
	sess.Close()
	metrics.SetActiveSessions(len(s.sessions))
}

// ListActive purges expired sessions and returns snapshots of the rest,
// oldest first.
func (s *Store) ListActive() []domain.SessionInfo {
	s.mu.Lock()
	s.cleanupLocked()
	live := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.Unlock()

	out := make([]domain.SessionInfo, 0, len(live))
	for _, sess := range live {
		out = append(out, sess.Info())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Count purges expired sessions and returns how many remain.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupLocked()
	return len(s.sessions)
}

// Stats counts live and expired sessions without purging anything.
func (s *Store) Stats() domain.SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := domain.SessionStats{Total: len(s.sessions)}
	for _, sess := range s.sessions {
		if sess.Expired() {
			st.Expired++
		} else {
			st.Active++
		}
	}
	return st
}

// Clear closes and drops every session.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		s.dropLocked(id, sess)
	}
}

func isExpired(err error) bool { return errors.Is(err, domain.ErrSessionExpired) }
