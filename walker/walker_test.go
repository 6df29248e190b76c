// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package walker_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/dupescan/fsentry"
	"github.com/grailbio/dupescan/walker"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustWrite(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func walk(t *testing.T, cfg walker.Config, paths ...string) []string {
	t.Helper()
	w, err := walker.New(cfg)
	require.NoError(t, err)
	var out []string
	for e := range w.Entries(paths) {
		out = append(out, e.Path())
	}
	return out
}

func TestRecurse(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	mustWrite(t, filepath.Join(tempDir, "top"), "1")
	mustWrite(t, filepath.Join(tempDir, "sub", "mid"), "22")
	mustWrite(t, filepath.Join(tempDir, "sub", "deep", "leaf"), "333")

	got := walk(t, walker.Config{Recurse: true}, tempDir)
	assert.ElementsMatch(t, []string{
		filepath.Join(tempDir, "top"),
		filepath.Join(tempDir, "sub", "mid"),
		filepath.Join(tempDir, "sub", "deep", "leaf"),
	}, got)
}

func TestFlatIgnoresDirectories(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	f := filepath.Join(tempDir, "file")
	mustWrite(t, f, "x")
	mustWrite(t, filepath.Join(tempDir, "sub", "nested"), "y")

	got := walk(t, walker.Config{}, f, tempDir)
	assert.Equal(t, []string{f}, got)
}

func TestExcludeGlobs(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	mustWrite(t, filepath.Join(tempDir, "keep.txt"), "k")
	mustWrite(t, filepath.Join(tempDir, "skip.bak"), "s")
	mustWrite(t, filepath.Join(tempDir, ".git", "object"), "o")

	got := walk(t, walker.Config{Recurse: true, Exclude: []string{"*.bak", ".git"}}, tempDir)
	assert.Equal(t, []string{filepath.Join(tempDir, "keep.txt")}, got)
}

func TestBadExcludeIsConfigError(t *testing.T) {
	_, err := walker.New(walker.Config{Exclude: []string{"[unclosed"}})
	assert.Error(t, err)
}

func TestMinSize(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	mustWrite(t, filepath.Join(tempDir, "big"), "0123456789")
	mustWrite(t, filepath.Join(tempDir, "small"), "x")
	mustWrite(t, filepath.Join(tempDir, "empty"), "")

	got := walk(t, walker.Config{Recurse: true, MinSize: 2}, tempDir)
	assert.Equal(t, []string{filepath.Join(tempDir, "big")}, got)

	got = walk(t, walker.Config{Recurse: true, MinSize: 0}, tempDir)
	assert.Len(t, got, 3)
}

func TestSymlinkFilter(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	target := filepath.Join(tempDir, "target")
	link := filepath.Join(tempDir, "link")
	mustWrite(t, target, "content")
	require.NoError(t, os.Symlink(target, link))

	got := walk(t, walker.Config{Recurse: true}, tempDir)
	assert.Equal(t, []string{target}, got)

	got = walk(t, walker.Config{Recurse: true, IncludeSymlinks: true}, tempDir)
	assert.ElementsMatch(t, []string{target, link}, got)
}

func TestRepeatedPathsYieldOnce(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	f := filepath.Join(tempDir, "file")
	mustWrite(t, f, "x")

	got := walk(t, walker.Config{}, f, f, f)
	assert.Equal(t, []string{f}, got)
}

func TestRootTagging(t *testing.T) {
	dirA, cleanupA := testutil.TempDir(t, "", "")
	defer cleanupA()
	dirB, cleanupB := testutil.TempDir(t, "", "")
	defer cleanupB()

	mustWrite(t, filepath.Join(dirA, "a"), "x")
	mustWrite(t, filepath.Join(dirB, "b"), "y")

	w, err := walker.New(walker.Config{Recurse: true})
	require.NoError(t, err)
	roots := make(map[string]fsentry.Root)
	for e := range w.Entries([]string{dirA, dirB}) {
		roots[e.Basename()] = e.Root()
	}
	assert.Equal(t, fsentry.Root{Path: dirA, Index: 0}, roots["a"])
	assert.Equal(t, fsentry.Root{Path: dirB, Index: 1}, roots["b"])
}

func TestMissingRootReported(t *testing.T) {
	var paths []string
	cfg := walker.Config{OnError: func(err error, path string) { paths = append(paths, path) }}
	got := walk(t, cfg, "/no/such/root")
	assert.Empty(t, got)
	assert.Equal(t, []string{"/no/such/root"}, paths)
}
