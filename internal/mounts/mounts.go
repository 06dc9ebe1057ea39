// Package mounts detects whether a path lives on a network filesystem.
// The answer is advisory: callers log it, they never change behaviour
// based on it.
package mounts

import "strings"

// Info describes the mount that contains a path.
type Info struct {
	MountPoint string
	FSType     string
	Network    bool
}

// Inspector answers mount questions for one platform.
type Inspector interface {
	Inspect(path string) (Info, error)
}

// networkFSTypes holds filesystem type names reported by mount tables
// on Linux, macOS and the BSDs for remote filesystems.
var networkFSTypes = map[string]bool{
	"nfs":         true,
	"nfs4":        true,
	"smbfs":       true,
	"smb3":        true,
	"cifs":        true,
	"afpfs":       true,
	"webdav":      true,
	"davfs":       true,
	"fuse.sshfs":  true,
	"fuse.rclone": true,
	"sshfs":       true,
	"9p":          true,
	"afs":         true,
	"ceph":        true,
	"glusterfs":   true,
	"lustre":      true,
}

// IsNetworkFSType reports whether fsType names a remote filesystem.
func IsNetworkFSType(fsType string) bool {
	return networkFSTypes[strings.ToLower(fsType)]
}

// Static is an Inspector that always returns the same Info. It is used
// where mount detection is unavailable or unwanted.
type Static struct {
	Info Info
}

func (s Static) Inspect(string) (Info, error) { return s.Info, nil }
