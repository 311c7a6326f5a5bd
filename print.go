package hashvault

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// PrintRecords writes the first n records of path to w, one per line, as
//
//	[byte_offset] hex_hash nonce=decimal
//
// with the nonce rendered as its little-endian integer value. It stops
// quietly at end of file.
func PrintRecords(w io.Writer, path string, n uint64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rd := bufio.NewReader(f)
	var rec Record
	for i := uint64(0); i < n; i++ {
		if _, err := io.ReadFull(rd, rec[:]); err != nil {
			break
		}
		fmt.Fprintf(w, "[%d] %s nonce=%d\n",
			i*RecordSize, hex.EncodeToString(rec.Hash()), rec.NonceValue())
	}
	return nil
}
