package utils

import (
	"io/fs"
	"os"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
)

// DirSize calculates the total size of all regular files in a directory
// tree. Symlinks are not followed and unreadable entries are skipped.
func DirSize(path string) (int64, error) {
	var size atomic.Int64
	conf := &fastwalk.Config{Follow: false}
	err := fastwalk.Walk(conf, path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible files
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return nil
			}
			size.Add(info.Size())
		}
		return nil
	})
	return size.Load(), err
}

// PathSize returns the size of a file, or the recursive size of a
// directory. A symlink counts as its own (tiny) size, not its target's.
func PathSize(path string) (int64, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return DirSize(path)
	}
	return info.Size(), nil
}
