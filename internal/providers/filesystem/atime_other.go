//go:build !linux && !darwin && !windows

package filesystem

import (
	"io/fs"
	"time"
)

// accessTime falls back to the modification time where the platform stat
// layout is not known.
func accessTime(info fs.FileInfo) time.Time {
	return info.ModTime()
}
