// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package criteria_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grailbio/dupescan/criteria"
	"github.com/grailbio/dupescan/fsentry"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(paths ...string) []*fsentry.Entry {
	out := make([]*fsentry.Entry, len(paths))
	for i, p := range paths {
		out[i] = fsentry.New(p, fsentry.Root{Path: filepath.Dir(p), Index: i % 2})
	}
	return out
}

func pick(t *testing.T, expr string, candidates []*fsentry.Entry) []string {
	t.Helper()
	sel, err := criteria.Parse(expr)
	require.NoError(t, err)
	picked, err := sel.Pick(candidates)
	require.NoError(t, err)
	var paths []string
	for _, e := range picked {
		paths = append(paths, e.Path())
	}
	return paths
}

func TestComparatives(t *testing.T) {
	cands := entries("/deep/nested/dir/file", "/short/file", "/also/short/x")

	assert.Equal(t, []string{"/short/file"}, pick(t, "shorter path", cands))
	assert.Equal(t, []string{"/deep/nested/dir/file"}, pick(t, "longer path", cands))
	assert.Equal(t, []string{"/short/file"}, pick(t, "shallower path", cands))
	assert.Equal(t, []string{"/deep/nested/dir/file"}, pick(t, "deeper path", cands))
}

func TestBooleanStatements(t *testing.T) {
	cands := entries("/a/keep.txt", "/a/trash.bak", "/b/other.txt")

	assert.Equal(t,
		[]string{"/a/keep.txt", "/b/other.txt"},
		pick(t, "ext is .txt", cands))
	assert.Equal(t,
		[]string{"/a/trash.bak"},
		pick(t, "name ends with .bak", cands))
	assert.Equal(t,
		[]string{"/a/keep.txt", "/b/other.txt"},
		pick(t, "name not ends with .bak", cands))
	assert.Equal(t,
		[]string{"/a/keep.txt"},
		pick(t, "name starts with KEEP ignoring case", cands))
	assert.Equal(t,
		[]string{"/a/keep.txt", "/a/trash.bak"},
		pick(t, "dir name is a", cands))
	assert.Equal(t,
		[]string{"/a/trash.bak"},
		pick(t, "name matches regex 'tr.sh'", cands))
}

func TestRootIndexProperty(t *testing.T) {
	cands := entries("/r0/a", "/r1/b", "/r0/c", "/r1/d")
	// Roots alternate 0/1; the index property is one-based.
	assert.Equal(t, []string{"/r0/a", "/r0/c"}, pick(t, "index is 1", cands))
	assert.Equal(t, []string{"/r1/b", "/r1/d"}, pick(t, "lower index", cands))
}

func TestSuccessiveTieBreakers(t *testing.T) {
	cands := entries("/x/b.txt", "/x/a.txt", "/longer/a.txt")
	// First round keeps the two .txt files named a; the second
	// breaks the tie by path length.
	assert.Equal(t,
		[]string{"/x/a.txt"},
		pick(t, "name starts with a, shorter path", cands))
}

func TestMtimeCriterion(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	older := filepath.Join(tempDir, "older")
	newer := filepath.Join(tempDir, "newer")
	require.NoError(t, os.WriteFile(older, []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(newer, []byte("x"), 0o600))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	cands := entries(older, newer)
	assert.Equal(t, []string{older}, pick(t, "earlier mtime", cands))
	assert.Equal(t, []string{newer}, pick(t, "later modification time", cands))
}

func TestQuotedArguments(t *testing.T) {
	cands := entries("/a/with space.txt", "/a/plain.txt")
	assert.Equal(t,
		[]string{"/a/with space.txt"},
		pick(t, `name contains "with space"`, cands))
	assert.Equal(t,
		[]string{"/a/with space.txt"},
		pick(t, `name contains 'with\x20space'`, cands))
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		expr string
	}{
		{""},
		{"bogus thing"},
		{"name frobs x"},
		{"shorter"},
		{"name is"},
		{"name is 'unterminated"},
		{"name is x,"},
	} {
		_, err := criteria.Parse(tc.expr)
		require.Error(t, err, "expr %q", tc.expr)
	}

	_, err := criteria.Parse("name grobs x")
	var perr *criteria.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 5, perr.Position)
}
