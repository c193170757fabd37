package crypto_test

import (
	"errors"
	"testing"

	"agentlink/internal/crypto"
	"agentlink/internal/domain"
)

func TestNewKeyPair(t *testing.T) {
	for _, kind := range []domain.KeyType{domain.KeyTypeEd25519, domain.KeyTypeX25519} {
		kp, err := crypto.GenerateKeyPair(kind)
		if err != nil {
			t.Fatalf("%s: GenerateKeyPair: %v", kind, err)
		}
		got, err := crypto.NewKeyPair(kind, kp.Private.Slice(), kp.Public.Slice())
		if err != nil {
			t.Fatalf("%s: NewKeyPair: %v", kind, err)
		}
		if got != kp {
			t.Fatalf("%s: round trip mismatch", kind)
		}

		other, err := crypto.GenerateKeyPair(kind)
		if err != nil {
			t.Fatalf("%s: GenerateKeyPair: %v", kind, err)
		}
		if _, err := crypto.NewKeyPair(kind, kp.Private.Slice(), other.Public.Slice()); !errors.Is(err, domain.ErrCrypto) {
			t.Fatalf("%s: mismatched pair: got %v, want ErrCrypto", kind, err)
		}
		if _, err := crypto.NewKeyPair(kind, kp.Private.Slice()[:16], kp.Public.Slice()); !errors.Is(err, domain.ErrCrypto) {
			t.Fatalf("%s: short key: got %v, want ErrCrypto", kind, err)
		}
	}
}

func TestGenerateKeyPair_Unsupported(t *testing.T) {
	if _, err := crypto.GenerateKeyPair("RSA"); !errors.Is(err, domain.ErrCrypto) {
		t.Fatalf("got %v, want ErrCrypto", err)
	}
}

func TestFingerprintAndDID(t *testing.T) {
	kp, err := crypto.GenerateEd25519()
	if err != nil {
		t.Fatalf("GenerateEd25519: %v", err)
	}
	fp := crypto.Fingerprint(kp.Public.Slice())
	if len(fp) != 20 {
		t.Fatalf("fingerprint length = %d, want 20", len(fp))
	}
	did, err := crypto.DIDForKey("agent", "local", kp.Public)
	if err != nil {
		t.Fatalf("DIDForKey: %v", err)
	}
	if did.Address() != crypto.Address(kp.Public) {
		t.Fatalf("address = %q", did.Address())
	}
}
