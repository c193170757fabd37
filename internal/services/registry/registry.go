package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"agentlink/internal/domain"
)

// Status is the outcome of a Lookup.
type Status int

const (
	Found Status = iota
	NotFound
	Invalid
	Revoked
	Inactive
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Invalid:
		return "invalid"
	case Revoked:
		return "revoked"
	case Inactive:
		return "inactive"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Resolution is the explicit result of a Lookup. Record is set for every
// cached status; only Found records are usable.
type Resolution struct {
	Status Status
	Record domain.IdentityRecord
}

// Registry is an in-memory DID cache, optionally backed by a source that
// is consulted on a miss.
type Registry struct {
	mu      sync.RWMutex
	records map[domain.DID]domain.IdentityRecord
	source  domain.IdentitySource
	log     zerolog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithSource sets the backend consulted by ResolveContext on a cache miss.
func WithSource(src domain.IdentitySource) Option { return func(r *Registry) { r.source = src } }

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option { return func(r *Registry) { r.log = l } }

// New returns an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		records: make(map[domain.DID]domain.IdentityRecord),
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Lookup classifies did against the cache.
func (r *Registry) Lookup(did domain.DID) Resolution {
	if !did.Valid() {
		return Resolution{Status: Invalid}
	}
	r.mu.RLock()
	rec, ok := r.records[did]
	r.mu.RUnlock()

	switch {
	case !ok:
		return Resolution{Status: NotFound}
	case rec.Revoked:
		return Resolution{Status: Revoked, Record: rec.Clone()}
	case !rec.Active:
		return Resolution{Status: Inactive, Record: rec.Clone()}
	default:
		return Resolution{Status: Found, Record: rec.Clone()}
	}
}

// Resolve returns the usable record for did. A malformed DID is an
// ErrIdentity error; unknown, revoked and inactive DIDs all yield ok=false.
func (r *Registry) Resolve(did domain.DID) (domain.IdentityRecord, bool, error) {
	return fromResolution(did, r.Lookup(did))
}

// ResolveContext is Resolve with a fallback to the configured source when
// the DID has never been cached. Revoked and inactive cache entries are
// answered locally.
func (r *Registry) ResolveContext(ctx context.Context, did domain.DID) (domain.IdentityRecord, bool, error) {
	res := r.Lookup(did)
	if res.Status != NotFound || r.source == nil {
		return fromResolution(did, res)
	}

	rec, err := r.source.Resolve(ctx, did)
	if errors.Is(err, domain.ErrIdentity) {
		r.log.Debug().Str("did", did.String()).Err(err).Msg("source has no record")
		return domain.IdentityRecord{}, false, nil
	}
	if err != nil {
		return domain.IdentityRecord{}, false, fmt.Errorf("resolve %s: %w", did, err)
	}
	if rec.DID != did {
		return domain.IdentityRecord{}, false, fmt.Errorf("resolve %s: source returned %s: %w", did, rec.DID, domain.ErrIdentity)
	}
	if err := r.Register(rec); err != nil {
		return domain.IdentityRecord{}, false, err
	}
	r.log.Debug().Str("did", did.String()).Msg("cached record from source")
	return fromResolution(did, r.Lookup(did))
}

func fromResolution(did domain.DID, res Resolution) (domain.IdentityRecord, bool, error) {
	switch res.Status {
	case Found:
		return res.Record, true, nil
	case Invalid:
		return domain.IdentityRecord{}, false, fmt.Errorf("resolve %q: malformed DID: %w", did, domain.ErrIdentity)
	default:
		return domain.IdentityRecord{}, false, nil
	}
}

// Register validates rec and upserts it. A DID that was revoked stays revoked.
func (r *Registry) Register(rec domain.IdentityRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	rec = rec.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.records[rec.DID]; ok && prev.Revoked {
		rec.Revoked = true
	}
	r.records[rec.DID] = rec
	return nil
}

// Load registers every record from src and returns how many were added.
func (r *Registry) Load(src domain.RecordSource) (int, error) {
	recs, err := src.LoadRecords()
	if err != nil {
		return 0, err
	}
	for i, rec := range recs {
		if err := r.Register(rec); err != nil {
			return i, err
		}
	}
	return len(recs), nil
}

// Revoke marks did revoked. Unknown DIDs are ignored.
func (r *Registry) Revoke(did domain.DID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[did]
	if !ok {
		return
	}
	rec.Revoked = true
	r.records[did] = rec
	r.log.Info().Str("did", did.String()).Msg("identity revoked")
}

// Clear drops every cached record, revocations included.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = make(map[domain.DID]domain.IdentityRecord)
}

// SigningKey returns the signing key of a usable record.
func (r *Registry) SigningKey(did domain.DID) (domain.PublicKey, error) {
	rec, err := r.usable(did)
	return rec.SigningKey, err
}

// KEMKey returns the KEM key of a usable record.
func (r *Registry) KEMKey(did domain.DID) (domain.PublicKey, error) {
	rec, err := r.usable(did)
	return rec.KEMKey, err
}

func (r *Registry) usable(did domain.DID) (domain.IdentityRecord, error) {
	rec, ok, err := r.Resolve(did)
	if err != nil {
		return domain.IdentityRecord{}, err
	}
	if !ok {
		return domain.IdentityRecord{}, fmt.Errorf("%s has no usable record: %w", did, domain.ErrIdentity)
	}
	return rec, nil
}

// List returns every cached record, usable or not, ordered by DID.
func (r *Registry) List() []domain.IdentityRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.IdentityRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DID < out[j].DID })
	return out
}

var _ domain.IdentityResolver = (*Registry)(nil)
