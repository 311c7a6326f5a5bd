package hashvault

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"golang.org/x/sync/errgroup"
)

// produceCheckInterval is how many records a generator goroutine fills
// between context cancellation checks.
const produceCheckInterval = 65536

// runWriterBufSize is the bufio buffer for run file writes.
const runWriterBufSize = 1 << 20

// runName returns the path of run idx for a temp prefix.
func runName(prefix string, idx int) string {
	return fmt.Sprintf("%s.run%d", prefix, idx)
}

// produceRuns materializes records for nonces [0, total) in memory-bounded
// slices and writes each slice, sorted by hash, to its own run file.
// It returns the run paths in production order; the concatenated record
// counts equal total.
func produceRuns(ctx context.Context, cfg *buildConfig, total uint64, threads int) ([]string, error) {
	maxRecs := cfg.memoryMB * 1024 * 1024 / RecordSize
	if cfg.runRecords > 0 {
		maxRecs = cfg.runRecords
	}
	if maxRecs < 1 {
		maxRecs = 1
	}

	// One run-sized buffer, reused across slices.
	allocRecs := maxRecs
	if uint64(allocRecs) > total {
		allocRecs = int(total)
	}
	buf := make([]Record, allocRecs)

	var runs []string
	produced := uint64(0)
	for runIdx := 0; produced < total; runIdx++ {
		todo := maxRecs
		if rem := total - produced; rem < uint64(maxRecs) {
			todo = int(rem)
		}
		slice := buf[:todo]

		if err := fillParallel(ctx, slice, produced, threads); err != nil {
			return nil, err
		}

		slices.SortFunc(slice, func(a, b Record) int {
			return compareHash(&a, &b)
		})

		name := runName(cfg.tempPrefix, runIdx)
		if err := writeRun(name, slice); err != nil {
			return nil, err
		}
		runs = append(runs, name)
		produced += uint64(todo)

		if cfg.progress != nil {
			pct := 100 * float64(produced) / float64(total)
			fmt.Fprintf(cfg.progress, "[run %d] wrote %d recs (%g%%)\n", runIdx, todo, pct)
		}
	}
	return runs, nil
}

// fillParallel generates records for nonces [base, base+len(out)) into out
// using up to threads goroutines. Each worker owns a disjoint contiguous
// region of out, so the only synchronization is the join.
func fillParallel(ctx context.Context, out []Record, base uint64, threads int) error {
	todo := len(out)
	chunk := (todo + threads - 1) / threads

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < threads; w++ {
		start := w * chunk
		if start >= todo {
			break
		}
		end := min(todo, start+chunk)
		g.Go(func() error {
			for i := start; i < end; i += produceCheckInterval {
				if err := gctx.Err(); err != nil {
					return err
				}
				fillRecords(out, base, i, min(end, i+produceCheckInterval))
			}
			return nil
		})
	}
	return g.Wait()
}

// writeRun writes the sorted slice to path as packed records.
func writeRun(path string, recs []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create run %s: %w", path, err)
	}

	w := bufio.NewWriterSize(f, runWriterBufSize)
	for i := range recs {
		if _, err := w.Write(recs[i][:]); err != nil {
			primaryErr := fmt.Errorf("write run %s: %w", path, err)
			return errors.Join(primaryErr, f.Close())
		}
	}
	if err := w.Flush(); err != nil {
		primaryErr := fmt.Errorf("flush run %s: %w", path, err)
		return errors.Join(primaryErr, f.Close())
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close run %s: %w", path, err)
	}
	return nil
}
