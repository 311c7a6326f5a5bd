package hashvault

import (
	"context"
	"os"
	"runtime"
	"time"

	hverrors "github.com/tamirms/hashvault/errors"
)

// maxExponent keeps 1<<exponent inside uint64 range. Nonces above
// 2^(8*NonceSize) would wrap in the nonce field anyway, so practical
// exponents are far below this.
const maxExponent = 62

// BuildStats reports what a completed build produced.
type BuildStats struct {
	TotalRecords uint64
	Runs         int
	Elapsed      time.Duration
}

// Build generates 2^exponent records, externally sorts them by hash, and
// writes the final table to output.
//
// Records are produced in memory-bounded slices: each slice is filled by
// parallel goroutines, sorted in place, and written to an intermediate run
// file named <prefix>.run<idx>. The runs are then k-way merged into the
// final file and deleted. A failure at any stage aborts the build; partial
// run or output files may be left behind.
func Build(ctx context.Context, output string, exponent int, opts ...BuildOption) (*BuildStats, error) {
	if exponent < 1 || exponent > maxExponent {
		return nil, hverrors.ErrBadExponent
	}

	cfg := defaultBuildConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.memoryMB < 1 {
		return nil, hverrors.ErrBadMemory
	}

	threads := cfg.threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if threads < 1 {
		threads = 1
	}

	total := uint64(1) << exponent
	start := time.Now()

	runs, err := produceRuns(ctx, cfg, total, threads)
	if err != nil {
		return nil, err
	}

	if err := mergeRuns(runs, output, cfg.mergeBuf); err != nil {
		return nil, err
	}

	// Runs are only removed after the merge fully succeeds.
	if !cfg.keepRuns {
		for _, run := range runs {
			_ = os.Remove(run)
		}
	}

	return &BuildStats{
		TotalRecords: total,
		Runs:         len(runs),
		Elapsed:      time.Since(start),
	}, nil
}
