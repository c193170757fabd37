package channel

import (
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"agentlink/internal/domain"
	"agentlink/internal/util/memzero"
)

// Channel seals outbound frames and opens inbound frames for one session.
type Channel struct {
	mu     sync.Mutex
	suite  Suite
	send   []byte
	recv   []byte
	sealer cipher.AEAD
	opener cipher.AEAD

	sendSeq uint64
	recvSeq uint64
	closed  bool
}

// New returns a Channel that seals with sendKey and opens with recvKey.
// Both counters start at zero. The keys are copied.
func New(suite Suite, sendKey, recvKey []byte) (*Channel, error) {
	if len(sendKey) != KeySize || len(recvKey) != KeySize {
		return nil, fmt.Errorf("channel: want %d-byte keys, got %d/%d: %w",
			KeySize, len(sendKey), len(recvKey), domain.ErrCrypto)
	}
	c := &Channel{
		suite: suite,
		send:  append([]byte(nil), sendKey...),
		recv:  append([]byte(nil), recvKey...),
	}
	var err error
	if c.sealer, err = suite.aead(c.send); err != nil {
		c.wipe()
		return nil, fmt.Errorf("channel: %v: %w", err, domain.ErrCrypto)
	}
	if c.opener, err = suite.aead(c.recv); err != nil {
		c.wipe()
		return nil, fmt.Errorf("channel: %v: %w", err, domain.ErrCrypto)
	}
	return c, nil
}

// Seal encrypts plaintext under the next send sequence and returns
// nonce ‖ ciphertext. Every call consumes a sequence number, so a sealed
// frame must not be re-sealed on retry.
func (c *Channel) Seal(plaintext, aad []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("seal: channel closed: %w", domain.ErrCrypto)
	}
	if c.sendSeq == math.MaxUint64 {
		return nil, fmt.Errorf("seal: send sequence exhausted: %w", domain.ErrCrypto)
	}
	nonce := make([]byte, NonceSize, NonceSize+len(plaintext)+Overhead)
	encodeSequence(nonce, c.sendSeq)
	out := c.sealer.Seal(nonce, nonce, plaintext, aad)
	c.sendSeq++
	return out, nil
}

// Open authenticates and decrypts a frame produced by the peer's Seal.
// The receive sequence advances only when the frame is accepted.
func (c *Channel) Open(sealed, aad []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("open: channel closed: %w", domain.ErrDecryption)
	}
	if len(sealed) < NonceSize+Overhead {
		return nil, fmt.Errorf("open: frame too short (%d bytes): %w", len(sealed), domain.ErrDecryption)
	}
	nonce, ct := sealed[:NonceSize], sealed[NonceSize:]
	seq, ok := decodeSequence(nonce)
	if !ok || seq != c.recvSeq {
		return nil, fmt.Errorf("open: unexpected sequence, want %d: %w", c.recvSeq, domain.ErrDecryption)
	}
	pt, err := c.opener.Open(nil, nonce, ct, aad)
	if err != nil {
		return nil, fmt.Errorf("open: %v: %w", err, domain.ErrDecryption)
	}
	c.recvSeq++
	return pt, nil
}

// SendSequence is the sequence number the next Seal will use.
func (c *Channel) SendSequence() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendSeq
}

// ReceiveSequence is the sequence number Open expects next.
func (c *Channel) ReceiveSequence() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recvSeq
}

// Suite returns the AEAD suite of the channel.
func (c *Channel) Suite() Suite { return c.suite }

// Close wipes both keys. Further Seal and Open calls fail.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.wipe()
}

func (c *Channel) wipe() {
	memzero.ZeroAll(c.send, c.recv)
	c.sealer, c.opener = nil, nil
}

// Nonce returns the 12-byte big-endian encoding of seq.
func Nonce(seq uint64) []byte {
	n := make([]byte, NonceSize)
	encodeSequence(n, seq)
	return n
}

// Sequence extracts the sequence number embedded in a sealed frame.
func Sequence(sealed []byte) (uint64, bool) {
	if len(sealed) < NonceSize {
		return 0, false
	}
	return decodeSequence(sealed[:NonceSize])
}

func encodeSequence(nonce []byte, seq uint64) {
	binary.BigEndian.PutUint64(nonce[NonceSize-8:], seq)
}

// decodeSequence rejects nonces with non-zero high bytes, which a u64
// counter can never produce.
func decodeSequence(nonce []byte) (uint64, bool) {
	if binary.BigEndian.Uint32(nonce[:NonceSize-8]) != 0 {
		return 0, false
	}
	return binary.BigEndian.Uint64(nonce[NonceSize-8:]), true
}
