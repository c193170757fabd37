package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/lainio/err2"
	"github.com/lainio/err2/try"

	"agentlink/internal/crypto"
	"agentlink/internal/domain"
)

const idFilename = "identity.json.enc"

// ErrNoIdentity is returned by LoadIdentity before an identity was saved.
var ErrNoIdentity = fmt.Errorf("no local identity, run init first: %w", domain.ErrIdentity)

// Keystore persists the local identity to disk, sealed under a passphrase.
type Keystore struct {
	dir string
	kdf KDF
	mu  sync.Mutex
}

// NewKeystore returns a Keystore rooted at dir that writes Argon2id blobs.
func NewKeystore(dir string) *Keystore {
	return &Keystore{dir: dir, kdf: KDFArgon2id}
}

// WithKDF switches the derivation used for future writes. Reads accept both.
func (s *Keystore) WithKDF(kdf KDF) *Keystore {
	s.kdf = kdf
	return s
}

// Path is the location of the sealed identity file.
func (s *Keystore) Path() string { return filepath.Join(s.dir, idFilename) }

// SaveIdentity validates id's key pairs and writes them sealed to disk.
func (s *Keystore) SaveIdentity(passphrase string, id domain.Identity) (err error) {
	defer err2.Handle(&err, "save identity")

	try.To1(domain.ParseDID(id.DID.String()))
	try.To1(crypto.NewKeyPair(domain.KeyTypeEd25519, id.Signing.Private.Slice(), id.Signing.Public.Slice()))
	try.To1(crypto.NewKeyPair(domain.KeyTypeX25519, id.KEM.Private.Slice(), id.KEM.Public.Slice()))

	s.mu.Lock()
	defer s.mu.Unlock()

	raw := try.To1(json.Marshal(id))
	defer crypto.Wipe(raw)
	ct := try.To1(seal(s.kdf, passphrase, raw))
	return writeFile(s.Path(), ct, 0o600)
}

// LoadIdentity reads and decrypts the identity.
func (s *Keystore) LoadIdentity(passphrase string) (id domain.Identity, err error) {
	defer err2.Handle(&err, "load identity")

	s.mu.Lock()
	defer s.mu.Unlock()

	b := try.To1(readFile(s.Path()))
	if b == nil {
		return domain.Identity{}, ErrNoIdentity
	}
	pt := try.To1(open(passphrase, b))
	defer crypto.Wipe(pt)
	try.To(json.Unmarshal(pt, &id))
	return id, nil
}

// Compile-time assertion that Keystore implements domain.IdentityStore.
var _ domain.IdentityStore = (*Keystore)(nil)
