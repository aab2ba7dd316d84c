//go:build linux

package filesystem

import (
	"io/fs"
	"syscall"
	"time"
)

// statTimes reports status-change and access times. Linux exposes no
// birth time through Stat_t, so ctime stands in for creation.
func statTimes(info fs.FileInfo) (created, accessed *time.Time) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil, nil
	}
	c := time.Unix(int64(stat.Ctim.Sec), int64(stat.Ctim.Nsec)).UTC()
	a := time.Unix(int64(stat.Atim.Sec), int64(stat.Atim.Nsec)).UTC()
	return &c, &a
}
