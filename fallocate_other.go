//go:build !linux && !darwin

package hashvault

import "os"

// fallocateFile reserves disk space for the final file before the merge
// starts writing, so a full disk fails up front rather than mid-merge.
// On platforms without native fallocate, uses Truncate as a fallback.
// Note: This sets file size but may not reserve actual disk blocks on all filesystems.
func fallocateFile(file *os.File, size int64) error {
	return file.Truncate(size)
}
