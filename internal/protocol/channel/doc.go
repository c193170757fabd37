// Package channel implements the sealed channel used by every session.
//
// A Channel holds one AEAD key per direction and a monotonic counter per
// direction. Message n in a direction is sealed under the 12-byte big-endian
// encoding of n, and that nonce is prepended to the ciphertext.
//
// The receiver does not trust the embedded nonce: Open rejects any frame
// whose sequence differs from the next expected one, so duplicated,
// reordered and replayed frames fail even when their tag is valid.
//
// Concurrency: Seal and Open each take the channel's lock, so one Channel
// may be shared, but frames must still be delivered to Open in seal order.
package channel
