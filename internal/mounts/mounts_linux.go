//go:build linux

package mounts

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Filesystem magic numbers not exported by x/sys/unix under stable names.
const (
	cifsMagic = 0xff534d42
	smb2Magic = 0xfe534d42
	afsMagic  = 0x5346414f
	v9fsMagic = 0x01021997
)

// procInspector reads the kernel mount table and falls back to statfs
// magic numbers when the table is unreadable.
type procInspector struct {
	mountsFile string
}

// Default returns the Linux inspector.
func Default() Inspector {
	return &procInspector{mountsFile: "/proc/mounts"}
}

func (p *procInspector) Inspect(path string) (Info, error) {
	if f, err := os.Open(p.mountsFile); err == nil {
		entries, perr := parseMountTable(f)
		f.Close()
		if perr == nil {
			if e, ok := longestMatch(path, entries); ok {
				return Info{
					MountPoint: e.mountPoint,
					FSType:     e.fsType,
					Network:    IsNetworkFSType(e.fsType),
				}, nil
			}
		}
	}
	return statfsInfo(path)
}

func statfsInfo(path string) (Info, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Info{}, fmt.Errorf("failed to stat filesystem for %s: %w", path, err)
	}

	switch uint32(st.Type) {
	case unix.NFS_SUPER_MAGIC:
		return Info{FSType: "nfs", Network: true}, nil
	case unix.SMB_SUPER_MAGIC:
		return Info{FSType: "smbfs", Network: true}, nil
	case cifsMagic, smb2Magic:
		return Info{FSType: "cifs", Network: true}, nil
	case afsMagic:
		return Info{FSType: "afs", Network: true}, nil
	case v9fsMagic:
		return Info{FSType: "9p", Network: true}, nil
	default:
		return Info{FSType: fmt.Sprintf("0x%x", uint32(st.Type))}, nil
	}
}
