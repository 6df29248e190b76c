// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/dupescan/fsentry"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addFile(t *testing.T, x Index, dir, name, content string, root fsentry.Root) *fsentry.Entry {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	e := fsentry.New(path, root)
	require.NoError(t, x.Add(e))
	return e
}

func collectBuckets(t *testing.T, x Index) (sizes []int64, buckets [][]*fsentry.Instance) {
	t.Helper()
	err := x.Buckets(func(size int64, instances []*fsentry.Instance) bool {
		sizes = append(sizes, size)
		buckets = append(buckets, instances)
		return true
	})
	require.NoError(t, err)
	return sizes, buckets
}

func TestMemIndexBucketing(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	root := fsentry.Root{Path: tempDir}

	x := newMemIndex(nil)
	addFile(t, x, tempDir, "a", "12345", root)
	addFile(t, x, tempDir, "b", "abcde", root)
	addFile(t, x, tempDir, "c", "zz", root)          // lone size, dropped
	addFile(t, x, tempDir, "d", "0123456789", root)  // lone size, dropped
	addFile(t, x, tempDir, "e", "wwwww", root)       // third five-byte file
	addFile(t, x, tempDir, "z1", "", root)           // zero bucket
	addFile(t, x, tempDir, "z2", "", root)

	sizes, buckets := collectBuckets(t, x)
	require.Equal(t, []int64{5, 0}, sizes)
	assert.Len(t, buckets[0], 3)
	assert.Len(t, buckets[1], 2)
}

func TestMemIndexZeroBucketSingleton(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	root := fsentry.Root{Path: tempDir}

	x := newMemIndex(nil)
	addFile(t, x, tempDir, "only", "", root)
	sizes, buckets := collectBuckets(t, x)
	// A zero-size bucket is emitted with any membership; the engine
	// decides whether it is reportable.
	require.Equal(t, []int64{0}, sizes)
	assert.Len(t, buckets[0], 1)
}

func TestMemIndexDeduplicatesPaths(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	root := fsentry.Root{Path: tempDir}

	x := newMemIndex(nil)
	e := addFile(t, x, tempDir, "a", "12345", root)
	require.NoError(t, x.Add(fsentry.New(e.Path(), root)))
	addFile(t, x, tempDir, "b", "abcde", root)

	_, buckets := collectBuckets(t, x)
	require.Len(t, buckets, 1)
	assert.Len(t, buckets[0], 2)
}

func TestMemIndexCollapsesAliases(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	root := fsentry.Root{Path: tempDir}

	orig := filepath.Join(tempDir, "orig")
	link := filepath.Join(tempDir, "link")
	require.NoError(t, os.WriteFile(orig, []byte("content"), 0o600))
	require.NoError(t, os.Link(orig, link))

	x := newMemIndex(fsentry.PosixID)
	require.NoError(t, x.Add(fsentry.New(orig, root)))
	require.NoError(t, x.Add(fsentry.New(link, root)))

	sizes, buckets := collectBuckets(t, x)
	// One instance with two aliases qualifies on its own.
	require.Equal(t, []int64{7}, sizes)
	require.Len(t, buckets[0], 1)
	assert.Len(t, buckets[0][0].Entries, 2)
	assert.Equal(t, orig, buckets[0][0].Entry().Path())
}

func TestMemIndexAnonymousNeverCollapses(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	root := fsentry.Root{Path: tempDir}

	orig := filepath.Join(tempDir, "orig")
	link := filepath.Join(tempDir, "link")
	require.NoError(t, os.WriteFile(orig, []byte("content"), 0o600))
	require.NoError(t, os.Link(orig, link))

	x := newMemIndex(nil)
	require.NoError(t, x.Add(fsentry.New(orig, root)))
	require.NoError(t, x.Add(fsentry.New(link, root)))

	_, buckets := collectBuckets(t, x)
	require.Len(t, buckets, 1)
	assert.Len(t, buckets[0], 2)
}

func TestMemIndexStatError(t *testing.T) {
	x := newMemIndex(nil)
	err := x.Add(fsentry.New("/no/such/file", fsentry.Root{}))
	assert.Error(t, err)
}
