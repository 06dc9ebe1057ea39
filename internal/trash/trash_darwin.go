package trash

import (
	"fmt"
	"os/exec"
	"path/filepath"
)

// Finder moves items to the user's Trash through Finder, so they can be
// put back from there.
type Finder struct{}

func Default() Trasher { return Finder{} }

func (Finder) MoveToTrash(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	script := fmt.Sprintf(
		`tell application "Finder" to delete POSIX file %q`,
		absPath,
	)

	cmd := exec.Command("osascript", "-e", script)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to trash %s: %w (%s)", path, err, string(out))
	}
	return nil
}
