package archive

import (
	"fmt"
	"os"
	"path/filepath"
)

// RelocateDir moves every entry of oldPath into newPath and removes the
// emptied oldPath. It is a no-op when oldPath does not exist as a directory,
// and it tolerates a newPath that already holds files from an earlier rename
// in the same run, so repeated rename events compose safely.
//
// Failures (permissions, disk) surface to the caller; no rollback is
// attempted.
func RelocateDir(oldPath, newPath string) error {
	info, err := os.Stat(oldPath)
	if err != nil || !info.IsDir() {
		return nil
	}

	if err := os.MkdirAll(newPath, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", newPath, err)
	}

	entries, err := os.ReadDir(oldPath)
	if err != nil {
		return fmt.Errorf("read directory %s: %w", oldPath, err)
	}

	for _, entry := range entries {
		src := filepath.Join(oldPath, entry.Name())
		dst := filepath.Join(newPath, entry.Name())
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("move %s: %w", src, err)
		}
	}

	if err := os.Remove(oldPath); err != nil {
		return fmt.Errorf("remove directory %s: %w", oldPath, err)
	}

	return nil
}
