// build_test.go tests run production and the end-to-end Build path:
// memory-capped slicing, parallel fill, run cleanup, and the invariants
// of the final file (size, order, nonce coverage, determinism).
package hashvault

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	hverrors "github.com/tamirms/hashvault/errors"
)

// withRunRecords caps the run size in records, bypassing the megabyte
// granularity of the public option.
func withRunRecords(n int) BuildOption {
	return func(c *buildConfig) {
		c.runRecords = n
	}
}

func buildTable(t *testing.T, exponent int, opts ...BuildOption) (string, *BuildStats) {
	t.Helper()
	dir := t.TempDir()
	out := filepath.Join(dir, "output.bin")
	opts = append([]BuildOption{WithTempPrefix(filepath.Join(dir, "temp"))}, opts...)
	stats, err := Build(context.Background(), out, exponent, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return out, stats
}

func TestBuildBadConfig(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.bin")

	if _, err := Build(context.Background(), out, 0); !errors.Is(err, hverrors.ErrBadExponent) {
		t.Errorf("exponent 0: expected ErrBadExponent, got %v", err)
	}
	if _, err := Build(context.Background(), out, 63); !errors.Is(err, hverrors.ErrBadExponent) {
		t.Errorf("exponent 63: expected ErrBadExponent, got %v", err)
	}
	if _, err := Build(context.Background(), out, 8, WithMemoryBudget(0)); !errors.Is(err, hverrors.ErrBadMemory) {
		t.Errorf("memory 0: expected ErrBadMemory, got %v", err)
	}
}

func TestBuildSingleRun(t *testing.T) {
	// K=8, one run, one thread: file is 256 records exactly.
	out, stats := buildTable(t, 8, WithMemoryBudget(1), WithThreads(1))

	if stats.TotalRecords != 256 {
		t.Errorf("expected 256 records, got %d", stats.TotalRecords)
	}
	if stats.Runs != 1 {
		t.Errorf("expected 1 run, got %d", stats.Runs)
	}
	st, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if st.Size() != 256*RecordSize {
		t.Errorf("expected %d bytes, got %d", 256*RecordSize, st.Size())
	}

	assertTableInvariants(t, out, 8)
}

func TestBuildMultiRun(t *testing.T) {
	// K=12 with 1000-record runs forces 5 runs and a real merge.
	dir := t.TempDir()
	out := filepath.Join(dir, "output.bin")
	prefix := filepath.Join(dir, "temp")
	stats, err := Build(context.Background(), out, 12,
		WithTempPrefix(prefix), WithThreads(4), withRunRecords(1000))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Runs < 2 {
		t.Fatalf("expected at least 2 runs, got %d", stats.Runs)
	}

	// No intermediate run files remain.
	matches, err := filepath.Glob(prefix + ".run*")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("run files left behind: %v", matches)
	}

	assertTableInvariants(t, out, 12)
}

func TestBuildKeepRuns(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "output.bin")
	prefix := filepath.Join(dir, "temp")
	stats, err := Build(context.Background(), out, 10,
		WithTempPrefix(prefix), withRunRecords(300), WithKeepRuns())
	if err != nil {
		t.Fatal(err)
	}

	matches, err := filepath.Glob(prefix + ".run*")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != stats.Runs {
		t.Errorf("expected %d kept runs, got %v", stats.Runs, matches)
	}

	// Run sizes must sum to the final size.
	var runBytes int64
	for _, m := range matches {
		st, err := os.Stat(m)
		if err != nil {
			t.Fatal(err)
		}
		runBytes += st.Size()
	}
	if runBytes != int64(stats.TotalRecords)*RecordSize {
		t.Errorf("run sizes sum to %d bytes, expected %d", runBytes, stats.TotalRecords*RecordSize)
	}
}

func TestBuildProgressLines(t *testing.T) {
	dir := t.TempDir()
	var progress strings.Builder
	_, err := Build(context.Background(), filepath.Join(dir, "out.bin"), 10,
		WithTempPrefix(filepath.Join(dir, "temp")), withRunRecords(512),
		WithProgress(&progress))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(progress.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 progress lines, got %q", progress.String())
	}
	if !strings.HasPrefix(lines[0], "[run 0] wrote 512 recs") {
		t.Errorf("unexpected first progress line %q", lines[0])
	}
}

func TestBuildCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dir := t.TempDir()
	_, err := Build(ctx, filepath.Join(dir, "out.bin"), 18,
		WithTempPrefix(filepath.Join(dir, "temp")))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBuildDeterministic(t *testing.T) {
	// Two independent builds of the same K, different run slicing:
	// identical record multisets (and, with a deterministic tie-break,
	// identical bytes).
	outA, _ := buildTable(t, 9, WithThreads(1), withRunRecords(512))
	outB, _ := buildTable(t, 9, WithThreads(4), withRunRecords(100))

	a, err := os.ReadFile(outA)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(outB)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("independent builds of the same exponent differ")
	}

	resA, err := VerifySorted(outA)
	if err != nil {
		t.Fatal(err)
	}
	resB, err := VerifySorted(outB)
	if err != nil {
		t.Fatal(err)
	}
	if resA.Fingerprint != resB.Fingerprint {
		t.Error("record-set fingerprints differ across builds")
	}
}

// assertTableInvariants checks the final-file invariants for exponent k:
// exact size, non-decreasing hash order, every nonce in [0, 2^k) exactly
// once, and each hash matching its nonce.
func assertTableInvariants(t *testing.T, path string, k int) {
	t.Helper()
	recs := readRecordFile(t, path)
	total := 1 << k
	if len(recs) != total {
		t.Fatalf("expected %d records, got %d", total, len(recs))
	}

	seen := make([]bool, total)
	for i := range recs {
		if i > 0 && compareHash(&recs[i-1], &recs[i]) > 0 {
			t.Fatalf("records %d,%d out of order", i-1, i)
		}
		nonce := recs[i].NonceValue()
		if nonce >= uint64(total) {
			t.Fatalf("record %d: nonce %d out of range", i, nonce)
		}
		if seen[nonce] {
			t.Fatalf("nonce %d appears twice", nonce)
		}
		seen[nonce] = true

		if recs[i] != HashRecord(nonce) {
			t.Fatalf("record %d: hash does not match its nonce", i)
		}
	}

	sorted := slices.Clone(recs)
	slices.SortFunc(sorted, func(a, b Record) int { return compareHash(&a, &b) })
	if !slices.Equal(recs, sorted) {
		t.Fatal("file is not in sorted order")
	}
}
