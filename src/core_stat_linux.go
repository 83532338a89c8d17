//go:build linux

package main

import (
	"os"
	"syscall"
	"time"
)

// createdTime returns the inode change time, the closest thing Linux
// exposes to a creation timestamp via plain stat.
func createdTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}
	return info.ModTime()
}
