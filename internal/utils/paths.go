package utils

import (
	"os"
	"path/filepath"
	"strings"
)

func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

// DataDir returns ~/.local/share/reclaim, the home of the audit log and
// other state files.
func DataDir() string {
	home := HomeDir()
	if home == "" {
		return filepath.Join(".local", "share", "reclaim")
	}
	return filepath.Join(home, ".local", "share", "reclaim")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) string {
	home := HomeDir()
	switch {
	case p == "~":
		return home
	case strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`):
		return filepath.Join(home, p[2:])
	default:
		return p
	}
}

// ExpandPaths applies ExpandPath to every element.
func ExpandPaths(paths []string) []string {
	result := make([]string, 0, len(paths))
	for _, p := range paths {
		result = append(result, ExpandPath(p))
	}
	return result
}

func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// Exists reports whether anything, including a dangling symlink, is
// present at path.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
