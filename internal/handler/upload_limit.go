package handler

import (
	"github.com/dustin/go-humanize"
)

// formatUploadLimit states the configured upload cap in binary units, e.g.
// "512 B", "1.5 KiB", "10 MiB".
func formatUploadLimit(limit int64) string {
	if limit <= 0 {
		return "unlimited"
	}
	return humanize.IBytes(uint64(limit))
}
