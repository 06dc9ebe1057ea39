package trash

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// RecycleBin sends items to the Recycle Bin through the VisualBasic
// FileIO helpers, which are present on every Windows install.
type RecycleBin struct{}

func Default() Trasher { return RecycleBin{} }

func (RecycleBin) MoveToTrash(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	info, err := os.Lstat(absPath)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	method := "DeleteFile"
	if info.IsDir() {
		method = "DeleteDirectory"
	}
	quoted := "'" + strings.ReplaceAll(absPath, "'", "''") + "'"
	script := fmt.Sprintf(
		"Add-Type -AssemblyName Microsoft.VisualBasic; [Microsoft.VisualBasic.FileIO.FileSystem]::%s(%s, 'OnlyErrorDialogs', 'SendToRecycleBin')",
		method, quoted,
	)

	cmd := exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to recycle %s: %w (%s)", path, err, strings.TrimSpace(string(out)))
	}
	return nil
}
