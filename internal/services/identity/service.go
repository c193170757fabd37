package identity

import (
	"fmt"
	"unicode"

	"agentlink/internal/crypto"
	"agentlink/internal/domain"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12

	// DefaultNamespace and DefaultNetwork name DIDs derived from a signing key.
	DefaultNamespace = "agent"
	DefaultNetwork   = "local"
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
)

// Service manages identity key creation and access using a backing store.
//
// The identity contains:
//   - Ed25519 key pair for signing envelopes.
//   - X25519 key pair that peers encapsulate handshakes against.
type Service struct {
	store     domain.IdentityStore
	namespace string
	network   string
}

// New returns an identity service backed by the given store. Derived DIDs
// use DefaultNamespace and DefaultNetwork.
func New(s domain.IdentityStore) *Service {
	return &Service{store: s, namespace: DefaultNamespace, network: DefaultNetwork}
}

// WithNetwork sets the namespace and network of derived DIDs.
func (s *Service) WithNetwork(namespace, network string) *Service {
	s.namespace, s.network = namespace, network
	return s
}

// GenerateIdentity creates a new identity, saves it encrypted with the
// passphrase, and returns it with a fingerprint of the signing key. An empty
// did is derived from the signing key.
func (s *Service) GenerateIdentity(
	passphrase string,
	did domain.DID,
) (domain.Identity, domain.Fingerprint, error) {
	if !isSecurePassphrase(passphrase) {
		return domain.Identity{}, "", ErrWeakPassphrase
	}

	signing, err := crypto.GenerateKeyPair(domain.KeyTypeEd25519)
	if err != nil {
		return domain.Identity{}, "", err
	}
	kem, err := crypto.GenerateKeyPair(domain.KeyTypeX25519)
	if err != nil {
		return domain.Identity{}, "", err
	}

	if did == "" {
		did, err = crypto.DIDForKey(s.namespace, s.network, signing.Public)
	} else {
		did, err = domain.ParseDID(did.String())
	}
	if err != nil {
		return domain.Identity{}, "", err
	}

	id := domain.Identity{DID: did, Signing: signing, KEM: kem}
	if err := s.store.SaveIdentity(passphrase, id); err != nil {
		return domain.Identity{}, "", err
	}
	return id, crypto.Fingerprint(id.Signing.Public.Slice()), nil
}

// LoadIdentity decrypts and returns the local identity.
func (s *Service) LoadIdentity(passphrase string) (domain.Identity, error) {
	return s.store.LoadIdentity(passphrase)
}

// FingerprintIdentity returns a short fingerprint of the local signing key.
func (s *Service) FingerprintIdentity(passphrase string) (domain.Fingerprint, error) {
	id, err := s.store.LoadIdentity(passphrase)
	if err != nil {
		return "", err
	}
	return crypto.Fingerprint(id.Signing.Public.Slice()), nil
}

// PublicRecord returns the publishable DID document of the local identity.
func (s *Service) PublicRecord(passphrase string) (domain.IdentityRecord, error) {
	id, err := s.store.LoadIdentity(passphrase)
	if err != nil {
		return domain.IdentityRecord{}, err
	}
	return domain.NewIdentityRecord(id.DID, id.Signing.Public, id.KEM.Public)
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
