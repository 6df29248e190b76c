// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scan_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/grailbio/dupescan/data"
	"github.com/grailbio/dupescan/fsentry"
	"github.com/grailbio/dupescan/scan"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func entriesFor(root fsentry.Root, paths ...string) []*fsentry.Entry {
	entries := make([]*fsentry.Entry, len(paths))
	for i, p := range paths {
		entries[i] = fsentry.New(p, root)
	}
	return entries
}

func runFind(t *testing.T, cfg scan.Config, entries []*fsentry.Entry) []scan.Set {
	t.Helper()
	finder, err := scan.New(cfg)
	require.NoError(t, err)
	var sets []scan.Set
	for set := range finder.Find(context.Background(), slices.Values(entries)) {
		sets = append(sets, set)
	}
	return sets
}

func setPaths(set scan.Set) []string {
	var paths []string
	for _, e := range set.Entries() {
		paths = append(paths, e.Path())
	}
	return paths
}

// S1: two small files with equal content form one set of two
// instances.
func TestSimplePair(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	root := fsentry.Root{Path: tempDir}

	a := writeFile(t, tempDir, "a", []byte("HELLO\n"))
	b := writeFile(t, tempDir, "b", []byte("HELLO\n"))

	sets := runFind(t, scan.Config{}, entriesFor(root, a, b))
	require.Len(t, sets, 1)
	assert.Len(t, sets[0], 2)
	assert.Equal(t, int64(6), sets[0].InstanceSize())
	assert.Equal(t, int64(12), sets[0].TotalSize())
	assert.ElementsMatch(t, []string{a, b}, setPaths(sets[0]))
}

// S2: files that diverge mid-file produce no set, even though many
// leading buffers match.
func TestDivergeMidFile(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	root := fsentry.Root{Path: tempDir}

	content := bytes.Repeat([]byte{0x5a}, 64*1024+5)
	a := writeFile(t, tempDir, "a", content)
	flipped := slices.Clone(content)
	flipped[len(flipped)/2] ^= 1
	b := writeFile(t, tempDir, "b", flipped)

	cfg := scan.Config{
		MaxMemory:     64 * data.KiB,
		MaxBufferSize: 8 * data.KiB,
		MinBufferSize: 1 * data.KiB,
	}
	sets := runFind(t, cfg, entriesFor(root, a, b))
	assert.Empty(t, sets)
}

// S3: files that differ only in the final byte are read to the end
// and produce no set.
func TestDivergeAtTail(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	root := fsentry.Root{Path: tempDir}

	content := bytes.Repeat([]byte{0x33}, 64*1024+5)
	a := writeFile(t, tempDir, "a", content)
	flipped := slices.Clone(content)
	flipped[len(flipped)-1] ^= 1
	b := writeFile(t, tempDir, "b", flipped)

	cfg := scan.Config{
		MaxMemory:     64 * data.KiB,
		MaxBufferSize: 8 * data.KiB,
		MinBufferSize: 1 * data.KiB,
	}
	sets := runFind(t, cfg, entriesFor(root, a, b))
	assert.Empty(t, sets)
}

// S4: far more identical files than the descriptor budget; the pool
// rotates and the whole population lands in one set.
func TestOpenFileStress(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	root := fsentry.Root{Path: tempDir}

	content := bytes.Repeat([]byte("stress"), 4096) // 24 KiB
	const nfiles = 321
	paths := make([]string, nfiles)
	for i := range paths {
		paths[i] = writeFile(t, tempDir, fmt.Sprintf("f%03d", i), content)
	}

	var errs []error
	cfg := scan.Config{
		MaxOpenFiles:  64,
		MaxMemory:     256 * data.KiB,
		MaxBufferSize: 16 * data.KiB,
		MinBufferSize: 4 * data.KiB,
		OnError:       func(err error, path string) { errs = append(errs, err) },
	}
	sets := runFind(t, cfg, entriesFor(root, paths...))
	require.Empty(t, errs)
	require.Len(t, sets, 1)
	assert.Len(t, sets[0], nfiles)
}

// S5: zero-length files are all equal by definition.
func TestZeroLength(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	root := fsentry.Root{Path: tempDir}

	var paths []string
	for i := 0; i < 5; i++ {
		paths = append(paths, writeFile(t, tempDir, fmt.Sprintf("z%d", i), nil))
	}
	sets := runFind(t, scan.Config{}, entriesFor(root, paths...))
	require.Len(t, sets, 1)
	assert.Len(t, sets[0], 5)
	assert.Equal(t, int64(0), sets[0].InstanceSize())
}

// A single zero-length file is not reportable.
func TestZeroLengthSingleton(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	root := fsentry.Root{Path: tempDir}

	only := writeFile(t, tempDir, "z", nil)
	sets := runFind(t, scan.Config{}, entriesFor(root, only))
	assert.Empty(t, sets)
}

// S6: hardlink collapse. With identity enabled the two links merge
// into one instance with two aliases; without it they compare as
// four instances.
func TestHardlinkCollapse(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	root := fsentry.Root{Path: tempDir}

	x := writeFile(t, tempDir, "x", []byte("shared-content"))
	link := filepath.Join(tempDir, "x-link")
	require.NoError(t, os.Link(x, link))
	c1 := writeFile(t, tempDir, "c1", []byte("shared-content"))
	c2 := writeFile(t, tempDir, "c2", []byte("shared-content"))

	paths := []string{x, link, c1, c2}

	sets := runFind(t, scan.Config{StorageID: fsentry.PosixID}, entriesFor(root, paths...))
	require.Len(t, sets, 1)
	require.Len(t, sets[0], 3)
	assert.Equal(t, 4, sets[0].EntryCount())
	aliased := 0
	for _, inst := range sets[0] {
		if len(inst.Entries) == 2 {
			aliased++
		}
	}
	assert.Equal(t, 1, aliased)

	sets = runFind(t, scan.Config{}, entriesFor(root, paths...))
	require.Len(t, sets, 1)
	assert.Len(t, sets[0], 4)
	assert.Equal(t, 4, sets[0].EntryCount())
}

// Two names for one storage object and no copies: reportable only as
// an alias set, and only when identity collapse is on.
func TestAliasOnlySet(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	root := fsentry.Root{Path: tempDir}

	x := writeFile(t, tempDir, "x", []byte("alias-me"))
	link := filepath.Join(tempDir, "y")
	require.NoError(t, os.Link(x, link))

	sets := runFind(t, scan.Config{StorageID: fsentry.PosixID}, entriesFor(root, x, link))
	require.Len(t, sets, 1)
	require.Len(t, sets[0], 1)
	assert.Len(t, sets[0][0].Entries, 2)
}

// S7: the only-mixed-roots cancel predicate suppresses sets confined
// to one root.
func TestOnlyMixedRootsCancel(t *testing.T) {
	dirA, cleanupA := testutil.TempDir(t, "", "")
	defer cleanupA()
	dirB, cleanupB := testutil.TempDir(t, "", "")
	defer cleanupB()
	rootA := fsentry.Root{Path: dirA, Index: 0}
	rootB := fsentry.Root{Path: dirB, Index: 1}

	// Three duplicates confined to A.
	confined := [][]byte{[]byte("only-in-a")}
	var entries []*fsentry.Entry
	for i := 0; i < 3; i++ {
		p := writeFile(t, dirA, fmt.Sprintf("a%d", i), confined[0])
		entries = append(entries, fsentry.New(p, rootA))
	}
	// One pair split across A and B. Same length as the confined
	// trio so both share a bucket.
	crossA := writeFile(t, dirA, "cross", []byte("crosses-x"))
	crossB := writeFile(t, dirB, "cross", []byte("crosses-x"))
	entries = append(entries, fsentry.New(crossA, rootA), fsentry.New(crossB, rootB))

	cancel := func(set scan.Set) bool {
		index := -1
		for _, e := range set.Entries() {
			if index == -1 {
				index = e.Root().Index
			} else if index != e.Root().Index {
				return false
			}
		}
		return true
	}

	sets := runFind(t, scan.Config{Cancel: cancel}, entries)
	require.Len(t, sets, 1)
	assert.ElementsMatch(t, []string{crossA, crossB}, setPaths(sets[0]))
}

// Buckets are visited in descending size order.
func TestBucketOrder(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	root := fsentry.Root{Path: tempDir}

	small1 := writeFile(t, tempDir, "s1", []byte("abc"))
	small2 := writeFile(t, tempDir, "s2", []byte("abc"))
	big1 := writeFile(t, tempDir, "b1", []byte("0123456789"))
	big2 := writeFile(t, tempDir, "b2", []byte("0123456789"))

	sets := runFind(t, scan.Config{}, entriesFor(root, small1, small2, big1, big2))
	require.Len(t, sets, 2)
	assert.Equal(t, int64(10), sets[0].InstanceSize())
	assert.Equal(t, int64(3), sets[1].InstanceSize())
}

// A vanished file is dropped with an error; its siblings still
// compare.
func TestVanishedFile(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	root := fsentry.Root{Path: tempDir}

	a := writeFile(t, tempDir, "a", []byte("survivors"))
	b := writeFile(t, tempDir, "b", []byte("survivors"))
	doomed := writeFile(t, tempDir, "doomed", []byte("survivorz"))

	entries := entriesFor(root, a, b, doomed)
	// Force the stat now, then delete the file so the open fails
	// during comparison.
	for _, e := range entries {
		_, err := e.Size()
		require.NoError(t, err)
	}
	require.NoError(t, os.Remove(doomed))

	var errPaths []string
	cfg := scan.Config{
		OnError: func(err error, path string) { errPaths = append(errPaths, path) },
	}
	sets := runFind(t, cfg, entries)
	require.Len(t, sets, 1)
	assert.ElementsMatch(t, []string{a, b}, setPaths(sets[0]))
	assert.Equal(t, []string{doomed}, errPaths)
}

// Identical runs produce identical output.
func TestIdempotence(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	root := fsentry.Root{Path: tempDir}

	var paths []string
	for i := 0; i < 4; i++ {
		paths = append(paths, writeFile(t, tempDir, fmt.Sprintf("d%d", i), []byte("same-bytes")))
	}
	paths = append(paths,
		writeFile(t, tempDir, "u1", []byte("unique-one")),
		writeFile(t, tempDir, "o1", []byte("odd")),
		writeFile(t, tempDir, "o2", []byte("odd")),
	)

	flatten := func(sets []scan.Set) [][]string {
		var out [][]string
		for _, s := range sets {
			out = append(out, setPaths(s))
		}
		return out
	}
	first := flatten(runFind(t, scan.Config{}, entriesFor(root, paths...)))
	second := flatten(runFind(t, scan.Config{}, entriesFor(root, paths...)))
	assert.Equal(t, first, second)
}

// Empty and singleton inputs produce nothing.
func TestTrivialInputs(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	root := fsentry.Root{Path: tempDir}

	assert.Empty(t, runFind(t, scan.Config{}, nil))

	only := writeFile(t, tempDir, "only", []byte("lonely"))
	assert.Empty(t, runFind(t, scan.Config{}, entriesFor(root, only)))
}

// Dropping the iterator early terminates the run cleanly.
func TestEarlyStop(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	root := fsentry.Root{Path: tempDir}

	var paths []string
	for i := 0; i < 3; i++ {
		paths = append(paths, writeFile(t, tempDir, fmt.Sprintf("p%d", i), []byte("pair-one")))
	}
	for i := 0; i < 3; i++ {
		paths = append(paths, writeFile(t, tempDir, fmt.Sprintf("q%d", i), []byte("pair-2")))
	}

	finder, err := scan.New(scan.Config{})
	require.NoError(t, err)
	count := 0
	for range finder.Find(context.Background(), slices.Values(entriesFor(root, paths...))) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

// A canceled context stops the run.
func TestContextCancel(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	root := fsentry.Root{Path: tempDir}

	a := writeFile(t, tempDir, "a", []byte("content"))
	b := writeFile(t, tempDir, "b", []byte("content"))

	finder, err := scan.New(scan.Config{})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for range finder.Find(ctx, slices.Values(entriesFor(root, a, b))) {
		t.Fatal("no sets expected under a canceled context")
	}
}

// Progress sinks observe the run and are cleared before sets are
// yielded.
func TestProgressSinks(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	root := fsentry.Root{Path: tempDir}

	content := bytes.Repeat([]byte("pp"), 4096)
	a := writeFile(t, tempDir, "a", content)
	b := writeFile(t, tempDir, "b", content)

	walk := &recordingWalkSink{}
	compare := &recordingCompareSink{}
	cfg := scan.Config{
		MaxMemory:       8 * data.KiB,
		MaxBufferSize:   2 * data.KiB,
		MinBufferSize:   1 * data.KiB,
		WalkProgress:    walk,
		CompareProgress: compare,
	}
	sets := runFind(t, cfg, entriesFor(root, a, b))
	require.Len(t, sets, 1)
	assert.Equal(t, []string{a, b}, walk.paths)
	assert.True(t, walk.completed)
	assert.Greater(t, compare.clears, 0)
	assert.Greater(t, compare.calls, 0)
}

type recordingWalkSink struct {
	paths     []string
	completed bool
}

func (s *recordingWalkSink) Progress(path string) { s.paths = append(s.paths, path) }
func (s *recordingWalkSink) Complete()            { s.completed = true }

type recordingCompareSink struct {
	calls  int
	clears int
}

func (s *recordingCompareSink) Progress(sets []scan.Set, pos, size int64) { s.calls++ }
func (s *recordingCompareSink) Clear()                                    { s.clears++ }
