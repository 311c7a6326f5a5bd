package hashvault

import "github.com/zeebo/blake3"

// HashRecord builds the record for a nonce: the nonce is encoded
// little-endian into the nonce field, and the hash field receives the
// first HashSize bytes of the BLAKE3 digest of those nonce bytes.
//
// Pure and deterministic; safe to call from any number of goroutines.
func HashRecord(nonce uint64) Record {
	var r Record
	r.PutNonce(nonce)
	digest := blake3.Sum256(r[HashSize:])
	copy(r[:HashSize], digest[:HashSize])
	return r
}

// fillRecords writes records for nonces [base+start, base+end) into
// out[start:end]. Workers call it over disjoint index ranges of a shared
// buffer, so no synchronization is needed during the fill.
func fillRecords(out []Record, base uint64, start, end int) {
	for i := start; i < end; i++ {
		out[i] = HashRecord(base + uint64(i))
	}
}
