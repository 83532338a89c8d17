package main

import (
	"fmt"
	"strings"
	"time"
)

// DateSource identifies a strategy for obtaining a file's reference timestamp
type DateSource int

const (
	SourceExif DateSource = iota
	SourceFileName
	SourceFileCreated
	SourceFileModified
)

func (ds DateSource) String() string {
	switch ds {
	case SourceExif:
		return "exif"
	case SourceFileName:
		return "file-name"
	case SourceFileCreated:
		return "file-created"
	case SourceFileModified:
		return "file-modified"
	}
	return fmt.Sprintf("DateSource(%d)", int(ds))
}

// ParseDateSource maps a config/flag string to its DateSource
func ParseDateSource(s string) (DateSource, error) {
	switch s {
	case "exif":
		return SourceExif, nil
	case "file-name":
		return SourceFileName, nil
	case "file-created":
		return SourceFileCreated, nil
	case "file-modified":
		return SourceFileModified, nil
	}
	return 0, &UnknownSourceError{Name: s}
}

// TimestampResult records which source succeeded and the timestamp it produced
type TimestampResult struct {
	Source DateSource
	Time   time.Time
}

// RenameRequest tracks one input path through the rename decision
type RenameRequest struct {
	Path string
	Ext  string // lower-cased, includes the leading dot
	Dest string // set once a destination has been chosen
}

// RenameState is the terminal state of one processed file
type RenameState int

const (
	StateSkipped RenameState = iota // unusable path or no usable date source
	StateMatched                    // name already canonical, nothing to do
	StateRenamed                    // destination chosen, rename executed
)

// RenameResult is the per-file decision reported through the sink
type RenameResult struct {
	Path   string
	Dest   string     // StateRenamed only
	Source DateSource // StateRenamed only
	State  RenameState
	Reason string // StateSkipped only
	Err    error  // resolution detail or rename failure
}

func (r RenameResult) String() string {
	switch r.State {
	case StateRenamed:
		return fmt.Sprintf("%s -(%s)-> %s", r.Path, r.Source, r.Dest)
	case StateMatched:
		return fmt.Sprintf("%s: unmodified (file name already matches)", r.Path)
	}
	return fmt.Sprintf("%s: unmodified (%s)", r.Path, r.Reason)
}

// Config holds the merged, validated runtime configuration
type Config struct {
	DateSources    []DateSource
	DateFormat     string // strftime pattern for the canonical name
	FilenameFormat string // strftime pattern for the file-name source
	MvCmd          []string
	Simulate       bool
	Pause          bool
	NoCache        bool
}

// TimestampError means every configured source failed for one file.
// The message is the per-source reasons in attempt order.
type TimestampError struct {
	Reasons []string
}

func (e *TimestampError) Error() string {
	return strings.Join(e.Reasons, "\n")
}

// UnknownSourceError is a configuration defect, not a per-file failure
type UnknownSourceError struct {
	Name string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown date source %q", e.Name)
}
