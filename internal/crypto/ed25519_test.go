package crypto_test

import (
	"errors"
	"testing"

	"agentlink/internal/crypto"
	"agentlink/internal/domain"
)

func TestSignVerify(t *testing.T) {
	kp, err := crypto.GenerateKeyPair(domain.KeyTypeEd25519)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	msg := []byte("a|b|c|1")
	sig, err := crypto.Sign(kp.Private.Slice(), msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := crypto.Verify(kp.Public.Slice(), msg, sig); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	msg[0] ^= 1
	if err := crypto.Verify(kp.Public.Slice(), msg, sig); !errors.Is(err, domain.ErrSignature) {
		t.Fatalf("tampered message: got %v, want ErrSignature", err)
	}
	if err := crypto.Verify(kp.Public.Slice(), msg, sig[:10]); !errors.Is(err, domain.ErrSignature) {
		t.Fatalf("short signature: got %v, want ErrSignature", err)
	}
}

func TestSign_BadSeed(t *testing.T) {
	if _, err := crypto.Sign(make([]byte, 31), []byte("x")); !errors.Is(err, domain.ErrCrypto) {
		t.Fatalf("got %v, want ErrCrypto", err)
	}
}
