package mounts

import (
	"bufio"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// mountEntry is one row of a mount table.
type mountEntry struct {
	device     string
	mountPoint string
	fsType     string
}

// parseMountTable reads the /proc/mounts format: device, mount point and
// type separated by spaces, with octal escapes for spaces in paths.
func parseMountTable(r io.Reader) ([]mountEntry, error) {
	var entries []mountEntry
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		entries = append(entries, mountEntry{
			device:     unescapeOctal(fields[0]),
			mountPoint: unescapeOctal(fields[1]),
			fsType:     fields[2],
		})
	}
	return entries, sc.Err()
}

// longestMatch returns the entry whose mount point is the longest prefix
// of path. When a mount point is listed twice the later row wins, since
// it is mounted over the earlier one.
func longestMatch(path string, entries []mountEntry) (mountEntry, bool) {
	path = filepath.Clean(path)
	var best mountEntry
	found := false
	for _, e := range entries {
		mp := filepath.Clean(e.mountPoint)
		if !underMount(path, mp) {
			continue
		}
		if !found || len(mp) >= len(filepath.Clean(best.mountPoint)) {
			best = e
			found = true
		}
	}
	return best, found
}

func underMount(path, mountPoint string) bool {
	if mountPoint == "/" || path == mountPoint {
		return true
	}
	return strings.HasPrefix(path, mountPoint+string(filepath.Separator))
}

// unescapeOctal decodes the \040-style escapes the kernel uses for
// whitespace in mount table fields.
func unescapeOctal(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) {
			if n, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(n))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
