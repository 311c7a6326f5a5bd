package hashvault

import (
	"errors"
	"fmt"
	"io"
	"os"

	hverrors "github.com/tamirms/hashvault/errors"
)

// runReader streams a run file through an in-memory window of up to
// capRecords records, refilled on exhaustion. The reader is eof once a
// refill returns zero records; its file descriptor is released at that
// point rather than at merge end.
type runReader struct {
	f    *os.File
	path string
	buf  []byte // window of whole records
	pos  int    // byte offset of the next record in buf
	eof  bool
}

func openRunReader(path string, capRecords int) (*runReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open run %s: %w", path, err)
	}
	fadviseSequential(int(f.Fd()), 0, 0)

	r := &runReader{
		f:    f,
		path: path,
		buf:  make([]byte, 0, capRecords*RecordSize),
	}
	if err := r.refill(); err != nil {
		return nil, errors.Join(err, f.Close())
	}
	return r, nil
}

func (r *runReader) refill() error {
	if r.eof {
		return nil
	}
	r.buf = r.buf[:cap(r.buf)]
	n, err := io.ReadFull(r.f, r.buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("read run %s: %w", r.path, err)
	}
	recs := n / RecordSize
	r.buf = r.buf[:recs*RecordSize]
	r.pos = 0
	if recs == 0 {
		r.eof = true
		err := r.f.Close()
		r.f = nil
		if err != nil {
			return fmt.Errorf("close run %s: %w", r.path, err)
		}
	}
	return nil
}

func (r *runReader) has() bool {
	return !r.eof && r.pos < len(r.buf)
}

// peek returns the record at the window head. Only valid when has() is true.
func (r *runReader) peek() Record {
	var rec Record
	copy(rec[:], r.buf[r.pos:])
	return rec
}

func (r *runReader) pop() error {
	r.pos += RecordSize
	if r.pos >= len(r.buf) {
		return r.refill()
	}
	return nil
}

func (r *runReader) close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}

// mergeRuns merges sorted run files into a single sorted file at output.
// bufRecords sets both the per-reader window and the output buffer size;
// values below 1 select DefaultMergeBuffer. The output is preallocated to
// the sum of the run sizes before writing. On failure a partial final file
// may remain; it is not cleaned up here.
func mergeRuns(runs []string, output string, bufRecords int) error {
	if len(runs) == 0 {
		return hverrors.ErrNoRuns
	}
	if bufRecords < 1 {
		bufRecords = DefaultMergeBuffer
	}

	var totalSize int64
	for _, run := range runs {
		st, err := os.Stat(run)
		if err != nil {
			return fmt.Errorf("stat run %s: %w", run, err)
		}
		totalSize += st.Size()
	}

	readers := make([]*runReader, 0, len(runs))
	closeReaders := func() error {
		var errs []error
		for _, r := range readers {
			if err := r.close(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	for _, run := range runs {
		r, err := openRunReader(run, bufRecords)
		if err != nil {
			return errors.Join(err, closeReaders())
		}
		readers = append(readers, r)
	}

	out, err := os.Create(output)
	if err != nil {
		primaryErr := fmt.Errorf("open final file %s: %w", output, err)
		return errors.Join(primaryErr, closeReaders())
	}
	if err := fallocateFile(out, totalSize); err != nil {
		primaryErr := fmt.Errorf("preallocate final file %s: %w", output, err)
		return errors.Join(primaryErr, out.Close(), closeReaders())
	}

	mergeErr := mergeInto(readers, out, bufRecords)
	if mergeErr != nil {
		return errors.Join(mergeErr, out.Close(), closeReaders())
	}
	if err := out.Close(); err != nil {
		primaryErr := fmt.Errorf("close final file %s: %w", output, err)
		return errors.Join(primaryErr, closeReaders())
	}
	return closeReaders()
}

// mergeInto drains the readers through a min-heap into out, flushing the
// output buffer every bufRecords records.
func mergeInto(readers []*runReader, out *os.File, bufRecords int) error {
	h := newRecordHeap(len(readers))
	for i, r := range readers {
		if r.has() {
			h.push(r.peek(), i)
			if err := r.pop(); err != nil {
				return err
			}
		}
	}

	outBuf := make([]byte, 0, bufRecords*RecordSize)
	flush := func() error {
		if len(outBuf) == 0 {
			return nil
		}
		n, err := out.Write(outBuf)
		if err != nil {
			return fmt.Errorf("write final file: %w", err)
		}
		if n != len(outBuf) {
			return hverrors.ErrShortWrite
		}
		outBuf = outBuf[:0]
		return nil
	}

	for h.len() > 0 {
		rec, run := h.pop()
		outBuf = append(outBuf, rec[:]...)
		if len(outBuf) == cap(outBuf) {
			if err := flush(); err != nil {
				return err
			}
		}
		r := readers[run]
		if r.has() {
			h.push(r.peek(), run)
			if err := r.pop(); err != nil {
				return err
			}
		}
	}
	return flush()
}
