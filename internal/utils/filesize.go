package utils

import "github.com/dustin/go-humanize"

const (
	KB = 1024
	MB = 1024 * KB
	GB = 1024 * MB
	TB = 1024 * GB
)

// FormatSize renders a byte count with binary units ("1.5 KiB").
// Negative counts are shown as zero.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
