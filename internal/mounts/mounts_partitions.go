//go:build !linux && !windows

package mounts

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/disk"
)

// partitionInspector asks the OS for its mount list (getfsstat on macOS
// and the BSDs), the same data `mount` and `df` print.
type partitionInspector struct{}

// Default returns the partition-table inspector.
func Default() Inspector {
	return partitionInspector{}
}

func (partitionInspector) Inspect(path string) (Info, error) {
	parts, err := disk.Partitions(true)
	if err != nil {
		return Info{}, fmt.Errorf("failed to list partitions: %w", err)
	}

	entries := make([]mountEntry, 0, len(parts))
	for _, p := range parts {
		entries = append(entries, mountEntry{
			device:     p.Device,
			mountPoint: p.Mountpoint,
			fsType:     p.Fstype,
		})
	}

	e, ok := longestMatch(path, entries)
	if !ok {
		return Info{}, nil
	}
	return Info{
		MountPoint: e.mountPoint,
		FSType:     e.fsType,
		Network:    IsNetworkFSType(e.fsType),
	}, nil
}
