//go:build !linux

package main

import (
	"os"
	"time"
)

// createdTime falls back to the modification time on platforms where
// stat does not carry a usable change/creation timestamp.
func createdTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
