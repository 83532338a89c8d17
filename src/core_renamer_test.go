package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		DateSources: []DateSource{SourceExif},
		DateFormat:  "%Y%m%d_%H%M%S",
	}
}

// fakeExif returns an EXIF reader backed by a map from base name to
// timestamp; paths not in the map behave like files without EXIF data.
func fakeExif(times map[string]time.Time) func(string) (time.Time, error) {
	return func(path string) (time.Time, error) {
		if ts, ok := times[filepath.Base(path)]; ok {
			return ts, nil
		}
		return time.Time{}, errors.New("exif: no usable EXIF data")
	}
}

func collectResults(results *[]RenameResult) func(RenameResult) {
	return func(res RenameResult) {
		*results = append(*results, res)
	}
}

func runBatch(t *testing.T, config *Config, strategy renameStrategy, exif func(string) (time.Time, error), files []string) []RenameResult {
	t.Helper()
	var results []RenameResult
	renamer := NewRenamer(config, nil, strategy, collectResults(&results))
	renamer.resolver.ReadExif = exif
	require.NoError(t, renamer.Run(files))
	require.Len(t, results, len(files))
	return results
}

func TestRenameBatchWithCollisions(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeTestFile(t, dir, "a.jpg"),
		writeTestFile(t, dir, "b.jpg"),
		writeTestFile(t, dir, "c.jpg"),
	}
	exif := fakeExif(map[string]time.Time{
		"a.jpg": time.Date(2019, 4, 17, 17, 45, 37, 0, time.Local),
		"b.jpg": time.Date(2019, 4, 17, 17, 45, 37, 0, time.Local),
		"c.jpg": time.Date(2019, 2, 7, 15, 37, 10, 0, time.Local),
	})

	results := runBatch(t, testConfig(), NewLiveStrategy(nil), exif, files)

	assert.Equal(t, filepath.Join(dir, "20190417_174537.jpg"), results[0].Dest)
	assert.Equal(t, filepath.Join(dir, "20190417_174537-1.jpg"), results[1].Dest)
	assert.Equal(t, filepath.Join(dir, "20190207_153710.jpg"), results[2].Dest)
	for _, res := range results {
		assert.Equal(t, StateRenamed, res.State)
		assert.Equal(t, SourceExif, res.Source)
		assert.NoError(t, res.Err)
		assert.FileExists(t, res.Dest)
	}
	assert.NoFileExists(t, files[0])
}

func TestSimulationMatchesLiveDecisions(t *testing.T) {
	exifTimes := map[string]time.Time{
		"a.jpg": time.Date(2019, 4, 17, 17, 45, 37, 0, time.Local),
		"b.jpg": time.Date(2019, 4, 17, 17, 45, 37, 0, time.Local),
		"c.jpg": time.Date(2019, 2, 7, 15, 37, 10, 0, time.Local),
	}

	setup := func(t *testing.T) (string, []string) {
		dir := t.TempDir()
		var files []string
		for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
			files = append(files, writeTestFile(t, dir, name))
		}
		return dir, files
	}

	simDir, simFiles := setup(t)
	simResults := runBatch(t, testConfig(), NewSimulatedStrategy(), fakeExif(exifTimes), simFiles)

	liveDir, liveFiles := setup(t)
	liveResults := runBatch(t, testConfig(), NewLiveStrategy(nil), fakeExif(exifTimes), liveFiles)

	require.Len(t, simResults, len(liveResults))
	for i := range simResults {
		simRel, err := filepath.Rel(simDir, simResults[i].Dest)
		require.NoError(t, err)
		liveRel, err := filepath.Rel(liveDir, liveResults[i].Dest)
		require.NoError(t, err)
		assert.Equal(t, liveRel, simRel)
		assert.Equal(t, liveResults[i].State, simResults[i].State)
	}

	// Simulation must not have touched the filesystem
	for _, f := range simFiles {
		assert.FileExists(t, f)
	}
	entries, err := os.ReadDir(simDir)
	require.NoError(t, err)
	assert.Len(t, entries, len(simFiles))
}

func TestSimulatedBatchSeesEarlierRenames(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeTestFile(t, dir, "a.jpg"),
		writeTestFile(t, dir, "b.jpg"),
	}
	ts := time.Date(2019, 4, 17, 17, 45, 37, 0, time.Local)
	exif := fakeExif(map[string]time.Time{"a.jpg": ts, "b.jpg": ts})

	results := runBatch(t, testConfig(), NewSimulatedStrategy(), exif, files)

	assert.Equal(t, filepath.Join(dir, "20190417_174537.jpg"), results[0].Dest)
	assert.Equal(t, filepath.Join(dir, "20190417_174537-1.jpg"), results[1].Dest)
}

func TestSimulatedRenameFreesSourceName(t *testing.T) {
	// After a simulated rename the old source name counts as gone, so a
	// later file may take it.
	strategy := NewSimulatedStrategy()
	dir := t.TempDir()
	path := writeTestFile(t, dir, "photo.jpg")

	require.True(t, strategy.pathExists(path))
	require.NoError(t, strategy.rename(path, filepath.Join(dir, "new.jpg")))
	assert.False(t, strategy.pathExists(path))
	assert.True(t, strategy.pathExists(filepath.Join(dir, "new.jpg")))
	assert.FileExists(t, path)
}

func TestRenameIdempotent(t *testing.T) {
	dir := t.TempDir()
	files := []string{writeTestFile(t, dir, "a.jpg")}
	ts := time.Date(2019, 4, 17, 17, 45, 37, 0, time.Local)
	exif := fakeExif(map[string]time.Time{
		"a.jpg":               ts,
		"20190417_174537.jpg": ts,
	})

	first := runBatch(t, testConfig(), NewLiveStrategy(nil), exif, files)
	require.Equal(t, StateRenamed, first[0].State)

	second := runBatch(t, testConfig(), NewLiveStrategy(nil), exif, []string{first[0].Dest})
	assert.Equal(t, StateMatched, second[0].State)
	assert.FileExists(t, first[0].Dest)
}

func TestAlreadySuffixedNameLeftAlone(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "20190417_174537-1.jpg")
	ts := time.Date(2019, 4, 17, 17, 45, 37, 0, time.Local)
	exif := fakeExif(map[string]time.Time{"20190417_174537-1.jpg": ts})

	results := runBatch(t, testConfig(), NewLiveStrategy(nil), exif, []string{path})
	assert.Equal(t, StateMatched, results[0].State)
	assert.FileExists(t, path)
}

func TestSkipDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "album")
	require.NoError(t, os.Mkdir(sub, 0755))

	results := runBatch(t, testConfig(), NewLiveStrategy(nil), fakeExif(nil), []string{sub})
	assert.Equal(t, StateSkipped, results[0].State)
	assert.Equal(t, "is a directory", results[0].Reason)
}

func TestSkipMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.jpg")

	results := runBatch(t, testConfig(), NewLiveStrategy(nil), fakeExif(nil), []string{missing})
	assert.Equal(t, StateSkipped, results[0].State)
	assert.Equal(t, "could not find file", results[0].Reason)
}

func TestBatchContinuesAfterResolutionFailure(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeTestFile(t, dir, "nodate.jpg"),
		writeTestFile(t, dir, "a.jpg"),
	}
	exif := fakeExif(map[string]time.Time{
		"a.jpg": time.Date(2019, 2, 7, 15, 37, 10, 0, time.Local),
	})

	results := runBatch(t, testConfig(), NewLiveStrategy(nil), exif, files)

	assert.Equal(t, StateSkipped, results[0].State)
	assert.Equal(t, "no usable date source", results[0].Reason)
	var unavailable *TimestampError
	require.ErrorAs(t, results[0].Err, &unavailable)

	assert.Equal(t, StateRenamed, results[1].State)
	assert.Equal(t, filepath.Join(dir, "20190207_153710.jpg"), results[1].Dest)
}

func TestUnknownSourceAbortsBatch(t *testing.T) {
	dir := t.TempDir()
	files := []string{writeTestFile(t, dir, "a.jpg")}

	config := testConfig()
	config.DateSources = []DateSource{DateSource(42)}

	renamer := NewRenamer(config, nil, NewLiveStrategy(nil), nil)
	err := renamer.Run(files)
	var unknown *UnknownSourceError
	require.ErrorAs(t, err, &unknown)
}

func TestExtensionLowerCased(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "a.JPG")
	ts := time.Date(2019, 2, 7, 15, 37, 10, 0, time.Local)
	exif := fakeExif(map[string]time.Time{"a.JPG": ts})

	results := runBatch(t, testConfig(), NewLiveStrategy(nil), exif, []string{path})
	assert.Equal(t, filepath.Join(dir, "20190207_153710.jpg"), results[0].Dest)
}

func TestLiveStrategyMvCmd(t *testing.T) {
	dir := t.TempDir()
	src := writeTestFile(t, dir, "a.jpg")
	dst := filepath.Join(dir, "b.jpg")

	// /bin/mv with a template argument, source and destination trailing
	strategy := NewLiveStrategy([]string{"mv", "-n"})
	require.NoError(t, strategy.rename(src, dst))
	assert.NoFileExists(t, src)
	assert.FileExists(t, dst)
}

func TestRenamedResultString(t *testing.T) {
	res := RenameResult{
		Path:   "a.jpg",
		Dest:   "20190207_153710.jpg",
		Source: SourceExif,
		State:  StateRenamed,
	}
	assert.Equal(t, "a.jpg -(exif)-> 20190207_153710.jpg", res.String())

	skip := RenameResult{Path: "d", State: StateSkipped, Reason: "is a directory"}
	assert.Equal(t, "d: unmodified (is a directory)", skip.String())

	match := RenameResult{Path: "m.jpg", State: StateMatched}
	assert.Equal(t, "m.jpg: unmodified (file name already matches)", match.String())
}
