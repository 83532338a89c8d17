package main

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ncruces/go-strftime"
)

// renameStrategy is the pluggable half of the renamer: how to check
// whether a path exists and how to carry out a rename.
type renameStrategy interface {
	pathExists(path string) bool
	rename(src, dst string) error
}

// liveStrategy mutates the real filesystem, either directly or through
// a configured external move command.
type liveStrategy struct {
	mvCmd []string
}

// NewLiveStrategy returns a strategy that performs real renames. When
// mvCmd is non-empty its first element is the command and the rest are
// template arguments; source and destination are appended as the two
// trailing positional arguments.
func NewLiveStrategy(mvCmd []string) renameStrategy {
	return &liveStrategy{mvCmd: mvCmd}
}

func (s *liveStrategy) pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (s *liveStrategy) rename(src, dst string) error {
	if len(s.mvCmd) > 0 {
		args := append(append([]string{}, s.mvCmd[1:]...), src, dst)
		cmd := exec.Command(s.mvCmd[0], args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}
	return os.Rename(src, dst)
}

// simulatedStrategy never touches the filesystem. It layers two counting
// maps over real filesystem state so that later files in a batch observe
// the effects of earlier simulated renames.
type simulatedStrategy struct {
	added   map[string]int
	removed map[string]int
}

// NewSimulatedStrategy returns a strategy that only records renames.
func NewSimulatedStrategy() renameStrategy {
	return &simulatedStrategy{
		added:   make(map[string]int),
		removed: make(map[string]int),
	}
}

// pathExists treats a path as existing iff real existence plus the
// tentatively-added count minus the tentatively-removed count is positive.
func (s *simulatedStrategy) pathExists(path string) bool {
	n := s.added[path] - s.removed[path]
	if _, err := os.Stat(path); err == nil {
		n++
	}
	return n > 0
}

func (s *simulatedStrategy) rename(src, dst string) error {
	s.added[dst]++
	s.removed[src]++
	return nil
}

// Renamer applies the per-file rename algorithm to a batch of paths,
// reporting each decision through the injected sink. The strategy decides
// whether anything actually happens on disk.
type Renamer struct {
	config   *Config
	resolver *Resolver
	strategy renameStrategy
	cache    *TimestampCache
	report   func(RenameResult)
}

func NewRenamer(config *Config, cache *TimestampCache, strategy renameStrategy, report func(RenameResult)) *Renamer {
	if report == nil {
		report = func(RenameResult) {}
	}
	return &Renamer{
		config: config,
		resolver: &Resolver{
			Sources:        config.DateSources,
			FilenameFormat: config.FilenameFormat,
			Cache:          cache,
		},
		strategy: strategy,
		cache:    cache,
		report:   report,
	}
}

// Run processes every path in order. One file's failure never stops the
// batch; only a configuration defect (an unknown date source) aborts.
func (r *Renamer) Run(paths []string) error {
	for _, path := range paths {
		res, err := r.renameFile(path)
		if err != nil {
			return err
		}
		r.report(res)
	}
	return nil
}

func (r *Renamer) renameFile(path string) (RenameResult, error) {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return RenameResult{Path: path, State: StateSkipped, Reason: "is a directory"}, nil
	}
	if err != nil || !info.Mode().IsRegular() {
		return RenameResult{Path: path, State: StateSkipped, Reason: "could not find file"}, nil
	}

	ts, err := r.resolver.Resolve(path)
	if err != nil {
		var unavailable *TimestampError
		if errors.As(err, &unavailable) {
			return RenameResult{
				Path:   path,
				State:  StateSkipped,
				Reason: "no usable date source",
				Err:    err,
			}, nil
		}
		return RenameResult{}, err
	}

	req := RenameRequest{
		Path: path,
		Ext:  strings.ToLower(filepath.Ext(path)),
	}
	base := strftime.Format(r.config.DateFormat, ts.Time)

	if matchesTimestamp(filepath.Base(path), base, req.Ext) {
		return RenameResult{Path: path, State: StateMatched}, nil
	}

	req.Dest = findUniqueName(filepath.Dir(path), base, req.Ext, r.strategy.pathExists)

	res := RenameResult{
		Path:   path,
		Dest:   req.Dest,
		Source: ts.Source,
		State:  StateRenamed,
	}
	if err := r.strategy.rename(req.Path, req.Dest); err != nil {
		res.Err = err
		return res, nil
	}

	// Cache entries follow the file, but only when it really moved.
	if _, simulated := r.strategy.(*simulatedStrategy); r.cache != nil && !simulated {
		r.cache.UpdatePath(req.Path, req.Dest)
	}
	return res, nil
}
