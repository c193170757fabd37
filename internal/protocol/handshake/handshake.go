package handshake

import (
	"fmt"

	"agentlink/internal/crypto"
	"agentlink/internal/domain"
	"agentlink/internal/protocol/channel"
	"agentlink/internal/util/memzero"
)

// DefaultLabel is the HKDF domain-separation label shared by both sides.
const DefaultLabel = "agentlink hpke v1"

// Options tunes key derivation. Both peers must use identical values or
// every Open will fail with ErrDecryption.
type Options struct {
	Label string
	Suite channel.Suite
}

func (o Options) withDefaults() Options {
	if o.Label == "" {
		o.Label = DefaultLabel
	}
	if o.Suite == "" {
		o.Suite = channel.DefaultSuite
	}
	return o
}

// Encapsulate runs the initiator side against the responder's KEM public
// key. eph may be nil, in which case a fresh ephemeral pair is generated
// and wiped before returning.
func Encapsulate(receiverKEMPub []byte, eph *domain.KeyPair, opts Options) (*channel.Channel, domain.PublicKey, error) {
	opts = opts.withDefaults()

	var kp domain.KeyPair
	if eph == nil {
		var err error
		if kp, err = crypto.GenerateX25519(); err != nil {
			return nil, domain.PublicKey{}, err
		}
		defer memzero.Zero(kp.Private[:])
	} else {
		if eph.Type != domain.KeyTypeX25519 {
			return nil, domain.PublicKey{}, fmt.Errorf("encapsulate: ephemeral key is %s, want %s: %w",
				eph.Type, domain.KeyTypeX25519, domain.ErrCrypto)
		}
		kp = *eph
	}

	shared, err := crypto.DH(kp.Private.Slice(), receiverKEMPub)
	if err != nil {
		return nil, domain.PublicKey{}, fmt.Errorf("encapsulate: %w", err)
	}
	defer memzero.Zero(shared[:])

	ch, err := newChannel(shared[:], opts, true)
	if err != nil {
		return nil, domain.PublicKey{}, fmt.Errorf("encapsulate: %w", err)
	}
	return ch, kp.Public, nil
}

// Decapsulate runs the responder side given the initiator's encapsulated
// key and the responder's own KEM private key.
func Decapsulate(encapKey, receiverKEMPriv []byte, opts Options) (*channel.Channel, error) {
	opts = opts.withDefaults()

	shared, err := crypto.DH(receiverKEMPriv, encapKey)
	if err != nil {
		return nil, fmt.Errorf("decapsulate: %w", err)
	}
	defer memzero.Zero(shared[:])

	ch, err := newChannel(shared[:], opts, false)
	if err != nil {
		return nil, fmt.Errorf("decapsulate: %w", err)
	}
	return ch, nil
}

// BaseKey is the key both peers derive from the DH shared secret.
func BaseKey(shared []byte, label string) ([]byte, error) {
	if label == "" {
		label = DefaultLabel
	}
	return crypto.DeriveKey(shared, []byte(label), channel.KeySize)
}

func newChannel(shared []byte, opts Options, initiator bool) (*channel.Channel, error) {
	base, err := BaseKey(shared, opts.Label)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(base)

	i2r, err := crypto.DeriveKey(base, []byte(opts.Label+"|initiator"), channel.KeySize)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(i2r)
	r2i, err := crypto.DeriveKey(base, []byte(opts.Label+"|responder"), channel.KeySize)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(r2i)

	if initiator {
		return channel.New(opts.Suite, i2r, r2i)
	}
	return channel.New(opts.Suite, r2i, i2r)
}

// Pack prefixes a sealed frame with the encapsulated key.
func Pack(encapKey domain.PublicKey, sealed []byte) []byte {
	out := make([]byte, 0, domain.KeySize+len(sealed))
	out = append(out, encapKey[:]...)
	return append(out, sealed...)
}

// Unpack splits a handshake message into the encapsulated key and the
// sealed frame that follows it.
func Unpack(message []byte) (domain.PublicKey, []byte, error) {
	var pub domain.PublicKey
	if len(message) < domain.KeySize+channel.NonceSize+channel.Overhead {
		return pub, nil, fmt.Errorf("handshake message too short (%d bytes): %w", len(message), domain.ErrCrypto)
	}
	copy(pub[:], message[:domain.KeySize])
	return pub, message[domain.KeySize:], nil
}
