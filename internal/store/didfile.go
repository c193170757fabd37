package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"gopkg.in/yaml.v3"

	"agentlink/internal/crypto"
	"agentlink/internal/domain"
)

// DIDFile is a YAML file of identity records:
//
//	identities:
//	  - did: did:agent:local:3J98t1Wp
//	    public_key: <base64 Ed25519>
//	    public_kem_key: <base64 X25519>
//	    active: true
//	    metadata: {name: billing}
//
// owner_address defaults to the DID address and active defaults to true.
type DIDFile struct {
	path string
	mu   sync.Mutex
}

type didDocument struct {
	Identities []didEntry `yaml:"identities"`
}

type didEntry struct {
	DID          string         `yaml:"did"`
	PublicKey    string         `yaml:"public_key"`
	PublicKEMKey string         `yaml:"public_kem_key"`
	OwnerAddress string         `yaml:"owner_address,omitempty"`
	Active       *bool          `yaml:"active,omitempty"`
	Revoked      bool           `yaml:"revoked,omitempty"`
	Metadata     map[string]any `yaml:"metadata,omitempty"`
}

// NewDIDFile returns a DIDFile for path. The file need not exist yet.
func NewDIDFile(path string) *DIDFile { return &DIDFile{path: path} }

// Path returns the file location.
func (f *DIDFile) Path() string { return f.path }

// LoadRecords parses every record in the file. A missing file holds none.
func (f *DIDFile) LoadRecords() (recs []domain.IdentityRecord, err error) {
	defer err2.Handle(&err, "load %s", f.path)

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked()
}

func (f *DIDFile) loadLocked() ([]domain.IdentityRecord, error) {
	b, err := readFile(f.path)
	if err != nil || b == nil {
		return nil, err
	}
	var doc didDocument
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrIdentity)
	}
	recs := make([]domain.IdentityRecord, 0, len(doc.Identities))
	for i, e := range doc.Identities {
		rec, err := e.record()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Resolve returns the record for did from the file. A DID that is not in
// the file is an ErrIdentity error.
func (f *DIDFile) Resolve(_ context.Context, did domain.DID) (domain.IdentityRecord, error) {
	recs, err := f.LoadRecords()
	if err != nil {
		return domain.IdentityRecord{}, err
	}
	for _, rec := range recs {
		if rec.DID == did {
			return rec, nil
		}
	}
	return domain.IdentityRecord{}, fmt.Errorf("%s not in %s: %w", did, f.path, domain.ErrIdentity)
}

// Publish upserts rec into the file.
func (f *DIDFile) Publish(_ context.Context, rec domain.IdentityRecord) (err error) {
	defer err2.Handle(&err, "publish %s", rec.DID)

	try.To(rec.Validate())

	f.mu.Lock()
	defer f.mu.Unlock()

	recs := try.To1(f.loadLocked())
	replaced := false
	for i := range recs {
		if recs[i].DID == rec.DID {
			recs[i], replaced = rec, true
		}
	}
	if !replaced {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].DID < recs[j].DID })

	doc := didDocument{Identities: make([]didEntry, 0, len(recs))}
	for _, r := range recs {
		doc.Identities = append(doc.Identities, entryFor(r))
	}
	out := try.To1(yaml.Marshal(doc))
	return writeFile(f.path, out, 0o644)
}

func (e didEntry) record() (domain.IdentityRecord, error) {
	did, err := domain.ParseDID(e.DID)
	if err != nil {
		return domain.IdentityRecord{}, err
	}
	var sig, kem domain.PublicKey
	if err := decodePublic(&sig, e.PublicKey); err != nil {
		return domain.IdentityRecord{}, fmt.Errorf("%s public_key: %w", did, err)
	}
	if err := decodePublic(&kem, e.PublicKEMKey); err != nil {
		return domain.IdentityRecord{}, fmt.Errorf("%s public_kem_key: %w", did, err)
	}
	rec, err := domain.NewIdentityRecord(did, sig, kem)
	if err != nil {
		return domain.IdentityRecord{}, err
	}
	if e.OwnerAddress != "" {
		rec.OwnerAddress = e.OwnerAddress
	}
	if e.Active != nil {
		rec.Active = *e.Active
	}
	rec.Revoked = e.Revoked
	rec.Metadata = e.Metadata
	return rec, nil
}

func entryFor(r domain.IdentityRecord) didEntry {
	active := r.Active
	return didEntry{
		DID:          r.DID.String(),
		PublicKey:    crypto.B64(r.SigningKey.Slice()),
		PublicKEMKey: crypto.B64(r.KEMKey.Slice()),
		OwnerAddress: r.OwnerAddress,
		Active:       &active,
		Revoked:      r.Revoked,
		Metadata:     r.Metadata,
	}
}

func decodePublic(dst *domain.PublicKey, s string) error {
	raw, err := crypto.FromB64(s)
	if err != nil {
		return err
	}
	if len(raw) != domain.KeySize {
		return fmt.Errorf("want %d bytes, got %d: %w", domain.KeySize, len(raw), domain.ErrIdentity)
	}
	copy(dst[:], raw)
	return nil
}

var (
	_ domain.RecordSource      = (*DIDFile)(nil)
	_ domain.IdentitySource    = (*DIDFile)(nil)
	_ domain.IdentityPublisher = (*DIDFile)(nil)
)
