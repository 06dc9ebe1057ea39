// Package trash moves files to the platform's trash instead of unlinking
// them.
package trash

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Trasher moves a path to a recoverable location.
type Trasher interface {
	MoveToTrash(path string) error
}

// Freedesktop implements the XDG trash layout: the item goes under
// Root/files and a matching .trashinfo is written under Root/info.
type Freedesktop struct {
	Root string
	now  func() time.Time
}

// NewFreedesktop returns a trasher rooted at $XDG_DATA_HOME/Trash, or
// ~/.local/share/Trash when XDG_DATA_HOME is unset.
func NewFreedesktop() *Freedesktop {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		base = filepath.Join(home, ".local", "share")
	}
	return &Freedesktop{Root: filepath.Join(base, "Trash")}
}

func (f *Freedesktop) MoveToTrash(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	filesDir := filepath.Join(f.Root, "files")
	infoDir := filepath.Join(f.Root, "info")
	for _, dir := range []string{filesDir, infoDir} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create trash directory: %w", err)
		}
	}

	name, info, err := f.reserve(infoDir, filepath.Base(absPath))
	if err != nil {
		return err
	}

	deletedAt := time.Now()
	if f.now != nil {
		deletedAt = f.now()
	}
	body := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		(&url.URL{Path: absPath}).EscapedPath(),
		deletedAt.Format("2006-01-02T15:04:05"))
	if _, err := info.WriteString(body); err != nil {
		info.Close()
		os.Remove(info.Name())
		return fmt.Errorf("failed to write trash info: %w", err)
	}
	info.Close()

	if err := os.Rename(absPath, filepath.Join(filesDir, name)); err != nil {
		os.Remove(info.Name())
		return fmt.Errorf("failed to trash %s: %w", path, err)
	}
	return nil
}

// reserve claims a unique name by exclusively creating its .trashinfo
// file. On a collision a short random suffix is appended.
func (f *Freedesktop) reserve(infoDir, base string) (string, *os.File, error) {
	name := base
	for attempt := 0; attempt < 5; attempt++ {
		file, err := os.OpenFile(filepath.Join(infoDir, name+".trashinfo"), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			return name, file, nil
		}
		if !os.IsExist(err) {
			return "", nil, fmt.Errorf("failed to create trash info: %w", err)
		}
		name = fmt.Sprintf("%s.%s", base, uuid.NewString()[:8])
	}
	return "", nil, fmt.Errorf("failed to find a free trash name for %s", base)
}
