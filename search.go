package hashvault

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
	hverrors "github.com/tamirms/hashvault/errors"
)

// Probes counts the I/O work of binary searches. Seeks and Comps advance
// together (one comparison is charged per probe issued, even when the
// read behind it fails); ReadsOK counts only full-width positional reads.
type Probes struct {
	Seeks   uint64
	Comps   uint64
	ReadsOK uint64
}

// add accumulates other into p.
func (p *Probes) add(other Probes) {
	p.Seeks += other.Seeks
	p.Comps += other.Comps
	p.ReadsOK += other.ReadsOK
}

// BytesRead is the positional-read volume: ReadsOK whole records.
func (p *Probes) BytesRead() uint64 {
	return p.ReadsOK * RecordSize
}

// recordSource reads the hash field of the record at an index. Both
// backends report failure instead of returning an error so the bisection
// can degrade into a counter gap rather than aborting.
type recordSource interface {
	readHash(idx uint64, dst []byte) bool
	close() error
}

// fileSource probes with positional reads, one whole record per probe.
type fileSource struct {
	f *os.File
}

func (s *fileSource) readHash(idx uint64, dst []byte) bool {
	var buf [RecordSize]byte
	n, _ := s.f.ReadAt(buf[:], int64(idx)*RecordSize)
	if n != RecordSize {
		return false
	}
	copy(dst, buf[:HashSize])
	return true
}

func (s *fileSource) close() error {
	return s.f.Close()
}

// mmapSource serves probes from a read-only memory map. Probe counters
// are synthesized identically to the positional-read backend; a mapped
// read inside the file bounds cannot fail short.
type mmapSource struct {
	m    mmap.MMap
	data []byte
}

func (s *mmapSource) readHash(idx uint64, dst []byte) bool {
	off := idx * RecordSize
	if off+RecordSize > uint64(len(s.data)) {
		return false
	}
	copy(dst, s.data[off:off+HashSize])
	return true
}

func (s *mmapSource) close() error {
	if s.m == nil {
		return nil
	}
	return s.m.Unmap()
}

// OpenOption is a functional option for Open.
type OpenOption func(*openConfig)

type openConfig struct {
	useMmap bool
}

// WithMmap serves probes from a read-only memory map of the table instead
// of positional reads. Probe counters are synthesized so instrumentation
// stays comparable across backends.
func WithMmap() OpenOption {
	return func(c *openConfig) {
		c.useMmap = true
	}
}

// Table is an immutable sorted record file opened for searching. The
// record count always derives from the file size.
//
// Methods are single-threaded: a Table and its Probes counters must not
// be shared across goroutines without external synchronization.
type Table struct {
	src        recordSource
	numRecords uint64
	fileSize   int64
	closed     bool
}

// Open opens a record file for searching. Files whose size is not an
// exact multiple of RecordSize are refused with ErrSizeMismatch.
func Open(path string, opts ...OpenOption) (*Table, error) {
	var cfg openConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		primaryErr := fmt.Errorf("stat %s: %w", path, err)
		return nil, errors.Join(primaryErr, f.Close())
	}
	if st.Size()%RecordSize != 0 {
		primaryErr := fmt.Errorf("%w: %s is %d bytes, record size %d",
			hverrors.ErrSizeMismatch, path, st.Size(), RecordSize)
		return nil, errors.Join(primaryErr, f.Close())
	}

	t := &Table{
		numRecords: uint64(st.Size()) / RecordSize,
		fileSize:   st.Size(),
	}

	if cfg.useMmap && st.Size() > 0 {
		m, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			primaryErr := fmt.Errorf("mmap %s: %w", path, err)
			return nil, errors.Join(primaryErr, f.Close())
		}
		// Per POSIX mmap(2), the descriptor may be closed once mapped.
		if err := f.Close(); err != nil {
			return nil, errors.Join(fmt.Errorf("close %s: %w", path, err), m.Unmap())
		}
		t.src = &mmapSource{m: m, data: []byte(m)}
		return t, nil
	}
	if cfg.useMmap {
		// Zero-length file: nothing to map, and no probe can succeed.
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("close %s: %w", path, err)
		}
		t.src = &mmapSource{}
		return t, nil
	}

	t.src = &fileSource{f: f}
	return t, nil
}

// NumRecords returns the record count, derived from the file size.
func (t *Table) NumRecords() uint64 {
	return t.numRecords
}

// Size returns the file size in bytes.
func (t *Table) Size() int64 {
	return t.fileSize
}

// Close releases the table's file descriptor or memory map.
func (t *Table) Close() error {
	if t.closed {
		return hverrors.ErrTableClosed
	}
	t.closed = true
	return t.src.close()
}

// LowerBound returns the smallest index i in [0, NumRecords] whose hash
// compares >= key, or NumRecords if none. key must be HashSize bytes.
// Each bisection step charges one seek and one comparison to p; a short
// positional read terminates the search returning the current lower
// estimate, visible only as ReadsOK lagging Seeks.
func (t *Table) LowerBound(key []byte, p *Probes) uint64 {
	return t.bisect(key, p, false)
}

// UpperBound returns the smallest index i in [0, NumRecords] whose hash
// compares > key, or NumRecords if none. Counter semantics match
// LowerBound.
func (t *Table) UpperBound(key []byte, p *Probes) uint64 {
	return t.bisect(key, p, true)
}

func (t *Table) bisect(key []byte, p *Probes, upper bool) uint64 {
	if p == nil {
		p = new(Probes)
	}
	lo, hi := uint64(0), t.numRecords
	var h [HashSize]byte
	for lo < hi {
		mid := lo + (hi-lo)/2
		p.Seeks++
		p.Comps++
		if !t.src.readHash(mid, h[:]) {
			break
		}
		p.ReadsOK++
		c := bytes.Compare(h[:], key)
		if c < 0 || (upper && c == 0) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// PrefixRange counts records whose hash starts with prefix. The range is
// [LowerBound(prefix padded with 0x00), UpperBound(prefix padded with
// 0xFF)); lo and hi are those bounds and matches is their clamped
// difference. Prefixes longer than HashSize are truncated.
func (t *Table) PrefixRange(prefix []byte, p *Probes) (matches, lo, hi uint64) {
	var low, high [HashSize]byte
	for i := range high {
		high[i] = 0xFF
	}
	copy(low[:], prefix)
	copy(high[:], prefix)

	lo = t.LowerBound(low[:], p)
	hi = t.UpperBound(high[:], p)
	if hi > lo {
		matches = hi - lo
	}
	return matches, lo, hi
}
