package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
	"github.com/rwcarlsen/goexif/exif"
)

// EXIF stores timestamps as "YYYY:MM:DD HH:MM:SS"
var exifTimestampPattern = regexp.MustCompile(`^\d{4}:\d{2}:\d{2} \d{2}:\d{2}:\d{2}$`)

const exifTimestampLayout = "2006:01:02 15:04:05"

// Resolver tries date sources in priority order and returns the first hit.
type Resolver struct {
	Sources        []DateSource
	FilenameFormat string

	// ReadExif overrides the goexif-backed reader, for tests
	ReadExif func(path string) (time.Time, error)

	// Cache, when set, avoids re-decoding EXIF for unchanged files
	Cache *TimestampCache
}

// Resolve returns the first successful (source, timestamp) pair for path.
// A *TimestampError means every configured source failed; an
// *UnknownSourceError is a configuration defect and aborts immediately.
func (r *Resolver) Resolve(path string) (TimestampResult, error) {
	var reasons []string

	for _, src := range r.Sources {
		switch src {
		case SourceExif:
			ts, err := r.exifTimestamp(path)
			if err != nil {
				reasons = append(reasons, err.Error())
				continue
			}
			return TimestampResult{Source: src, Time: ts}, nil

		case SourceFileName:
			ts, err := filenameTimestamp(path, r.FilenameFormat)
			if err != nil {
				reasons = append(reasons, err.Error())
				continue
			}
			return TimestampResult{Source: src, Time: ts}, nil

		case SourceFileCreated:
			info, err := os.Stat(path)
			if err != nil {
				reasons = append(reasons, fmt.Sprintf("file-created: %v", err))
				continue
			}
			return TimestampResult{Source: src, Time: createdTime(info)}, nil

		case SourceFileModified:
			info, err := os.Stat(path)
			if err != nil {
				reasons = append(reasons, fmt.Sprintf("file-modified: %v", err))
				continue
			}
			return TimestampResult{Source: src, Time: info.ModTime()}, nil

		default:
			return TimestampResult{}, &UnknownSourceError{Name: src.String()}
		}
	}

	return TimestampResult{}, &TimestampError{Reasons: reasons}
}

// exifTimestamp reads the EXIF timestamp, going through the cache when
// one is attached and the file is unchanged since the cached entry.
func (r *Resolver) exifTimestamp(path string) (time.Time, error) {
	read := r.ReadExif
	if read == nil {
		read = readExifTimestamp
	}

	if r.Cache != nil {
		if info, err := os.Stat(path); err == nil {
			if ts, ok := r.Cache.Get(path, info.Size(), info.ModTime()); ok {
				return ts, nil
			}
			ts, err := read(path)
			if err == nil {
				r.Cache.Put(path, info.Size(), info.ModTime(), ts)
			}
			return ts, err
		}
	}

	return read(path)
}

// readExifTimestamp extracts the DateTimeDigitized timestamp from a file.
// Any decode problem, including corrupt EXIF structures, only eliminates
// this source; the error carries the reason for the skip report.
func readExifTimestamp(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("exif: %v", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, fmt.Errorf("exif: no usable EXIF data (%v)", err)
	}

	tag, err := x.Get(exif.DateTimeDigitized)
	if err != nil {
		return time.Time{}, errors.New("exif: no DateTimeDigitized timestamp")
	}

	s, err := tag.StringVal()
	if err != nil {
		return time.Time{}, errors.New("exif: DateTimeDigitized is not a string")
	}

	if !exifTimestampPattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("exif: malformed timestamp %q", s)
	}

	ts, err := time.ParseInLocation(exifTimestampLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("exif: malformed timestamp %q", s)
	}

	return ts, nil
}

// filenameTimestamp parses the base name (without extension) against the
// configured strftime pattern.
func filenameTimestamp(path, format string) (time.Time, error) {
	if format == "" {
		return time.Time{}, errors.New("file-name: no filename format configured")
	}

	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	ts, err := strftime.Parse(format, stem)
	if err != nil {
		return time.Time{}, fmt.Errorf("file-name: %q does not match format %q", stem, format)
	}
	return ts, nil
}
