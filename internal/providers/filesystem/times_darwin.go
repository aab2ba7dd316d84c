//go:build darwin

package filesystem

import (
	"io/fs"
	"syscall"
	"time"
)

func statTimes(info fs.FileInfo) (created, accessed *time.Time) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil, nil
	}
	a := time.Unix(stat.Atimespec.Sec, stat.Atimespec.Nsec).UTC()
	if stat.Birthtimespec.Sec == 0 {
		return nil, &a
	}
	c := time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec).UTC()
	return &c, &a
}
