// Package errors defines all exported error sentinels for the hashvault library.
//
// This is the single source of truth for error values. The top-level
// hashvault package returns these values (wrapped where context is added),
// so callers in other packages can match them with errors.Is.
package errors

import "errors"

// Build errors
var (
	ErrBadExponent = errors.New("hashvault: exponent outside [1, 62]")
	ErrBadMemory   = errors.New("hashvault: memory budget must be at least 1 MB")
	ErrNoRuns      = errors.New("hashvault: no run files to merge")
	ErrShortWrite  = errors.New("hashvault: short write to final file")
)

// Search errors
var (
	ErrSizeMismatch  = errors.New("hashvault: file size is not a multiple of the record size")
	ErrTableClosed   = errors.New("hashvault: table is closed")
	ErrBadDifficulty = errors.New("hashvault: difficulty outside [1, HashSize]")
)
