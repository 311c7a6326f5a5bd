package hashvault

import (
	"bytes"
	"encoding/binary"
)

// Record sizes. HashSize must be at least as large as the biggest prefix
// length (difficulty) the search engine accepts; NonceSize bounds the
// largest representable nonce at 2^(8*NonceSize).
const (
	// HashSize is the number of leading BLAKE3 digest bytes stored per record.
	HashSize = 10

	// NonceSize is the number of bytes of little-endian nonce stored per record.
	NonceSize = 6

	// RecordSize is the packed on-disk size of a record: hash bytes
	// followed by nonce bytes, no padding or framing.
	RecordSize = HashSize + NonceSize
)

// Record is a fixed-width (hash, nonce) tuple in its serialized layout.
// The first HashSize bytes are the truncated digest, the remaining
// NonceSize bytes are the little-endian nonce.
type Record [RecordSize]byte

// Hash returns the record's hash field.
func (r *Record) Hash() []byte {
	return r[:HashSize]
}

// Nonce returns the record's nonce field as raw little-endian bytes.
func (r *Record) Nonce() []byte {
	return r[HashSize:]
}

// NonceValue decodes the nonce field as an unsigned little-endian integer.
func (r *Record) NonceValue() uint64 {
	var buf [8]byte
	copy(buf[:], r[HashSize:])
	return binary.LittleEndian.Uint64(buf[:])
}

// PutNonce encodes v little-endian into the record's nonce field.
// Bits above 8*NonceSize are discarded.
func (r *Record) PutNonce(v uint64) {
	for i := 0; i < NonceSize; i++ {
		r[HashSize+i] = byte(v)
		v >>= 8
	}
}

// compareHash orders two records by unsigned lexicographic comparison of
// their hash fields. The nonce is never a tiebreaker.
func compareHash(a, b *Record) int {
	return bytes.Compare(a[:HashSize], b[:HashSize])
}
