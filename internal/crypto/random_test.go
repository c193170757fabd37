package crypto

import (
	"errors"
	"testing"
	"testing/iotest"

	"agentlink/internal/domain"
)

func TestGenerate_RNGFailure(t *testing.T) {
	orig := random
	random = iotest.ErrReader(errors.New("entropy exhausted"))
	defer func() { random = orig }()

	for _, kind := range []domain.KeyType{domain.KeyTypeEd25519, domain.KeyTypeX25519} {
		if _, err := GenerateKeyPair(kind); !errors.Is(err, domain.ErrCrypto) {
			t.Fatalf("%s: got %v, want ErrCrypto", kind, err)
		}
	}
}
