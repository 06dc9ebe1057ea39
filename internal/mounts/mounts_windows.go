//go:build windows

package mounts

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows"
)

// driveInspector treats UNC paths and mapped network drives as remote.
type driveInspector struct{}

// Default returns the Windows inspector.
func Default() Inspector {
	return driveInspector{}
}

func (driveInspector) Inspect(path string) (Info, error) {
	if isUNC(path) {
		return Info{MountPoint: filepath.VolumeName(path), FSType: "unc", Network: true}, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	root := filepath.VolumeName(abs) + `\`

	p, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return Info{}, fmt.Errorf("invalid drive root %q: %w", root, err)
	}
	if windows.GetDriveType(p) == windows.DRIVE_REMOTE {
		return Info{MountPoint: root, FSType: "remote", Network: true}, nil
	}
	return Info{MountPoint: root}, nil
}

func isUNC(path string) bool {
	return strings.HasPrefix(path, `\\`) || strings.HasPrefix(path, "//")
}
