package main

import (
	"fmt"
	"path/filepath"
)

// matchesTimestamp reports whether name is already a canonical name for
// base+ext, either exactly or with a previously applied "-N" counter
// suffix. Recognizing old suffixes keeps repeat runs from re-renaming
// files endlessly.
func matchesTimestamp(name, base, ext string) bool {
	if name == base+ext {
		return true
	}
	if len(name) <= len(base)+len(ext) {
		return false
	}
	if name[:len(base)] != base || name[len(name)-len(ext):] != ext {
		return false
	}

	// The middle must be exactly "-" followed by decimal digits.
	middle := name[len(base) : len(name)-len(ext)]
	if len(middle) < 2 || middle[0] != '-' {
		return false
	}
	for _, c := range middle[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// findUniqueName returns the first available path in dir for base+ext,
// trying base.ext, base-1.ext, base-2.ext, ... under the caller's
// existence check.
func findUniqueName(dir, base, ext string, exists func(string) bool) string {
	candidate := filepath.Join(dir, base+ext)
	for i := 1; exists(candidate); i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, i, ext))
	}
	return candidate
}
