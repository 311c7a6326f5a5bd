package hashvault

import "io"

const (
	// DefaultMemoryBudgetMB is the default run-buffer budget in megabytes.
	DefaultMemoryBudgetMB = 256

	// DefaultMergeBuffer is the default per-reader window and output buffer
	// size of the k-way merge, in records.
	DefaultMergeBuffer = 65536

	// DefaultTempPrefix names intermediate runs <prefix>.run<idx>.
	DefaultTempPrefix = "temp"
)

// BuildOption is a functional option for configuring builds.
type BuildOption func(*buildConfig)

type buildConfig struct {
	memoryMB   int
	threads    int
	tempPrefix string
	mergeBuf   int
	progress   io.Writer
	keepRuns   bool

	// runRecords overrides the memory-derived run size when > 0.
	// Test hook; the public surface only speaks megabytes.
	runRecords int
}

func defaultBuildConfig() *buildConfig {
	return &buildConfig{
		memoryMB:   DefaultMemoryBudgetMB,
		threads:    0, // 0 resolves to the logical CPU count
		tempPrefix: DefaultTempPrefix,
		mergeBuf:   DefaultMergeBuffer,
	}
}

// WithMemoryBudget caps the in-memory run buffer at mb megabytes.
// The buffer holds at most max(1, mb*2^20/RecordSize) records.
func WithMemoryBudget(mb int) BuildOption {
	return func(c *buildConfig) {
		c.memoryMB = mb
	}
}

// WithThreads sets the number of parallel generator goroutines.
// Zero or negative selects the logical CPU count.
func WithThreads(n int) BuildOption {
	return func(c *buildConfig) {
		c.threads = n
	}
}

// WithTempPrefix sets the prefix for intermediate run files.
func WithTempPrefix(prefix string) BuildOption {
	return func(c *buildConfig) {
		c.tempPrefix = prefix
	}
}

// WithMergeBuffer sets the merge reader window and output buffer size in
// records. Values below 1 select DefaultMergeBuffer.
func WithMergeBuffer(records int) BuildOption {
	return func(c *buildConfig) {
		c.mergeBuf = records
	}
}

// WithProgress emits a one-line progress report to w after each run is
// written.
func WithProgress(w io.Writer) BuildOption {
	return func(c *buildConfig) {
		c.progress = w
	}
}

// WithKeepRuns leaves the intermediate run files on disk after a
// successful merge instead of deleting them.
func WithKeepRuns() BuildOption {
	return func(c *buildConfig) {
		c.keepRuns = true
	}
}
