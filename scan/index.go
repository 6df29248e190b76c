// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scan

import (
	"sort"
	"strconv"

	"github.com/grailbio/dupescan/errors"
	"github.com/grailbio/dupescan/fsentry"
)

// An Index accumulates entries, groups them by size (and, when
// identity collapse is enabled, by storage identity), and yields the
// buckets worth comparing. Implementations may keep the index in
// memory or spill it to disk; behavior is otherwise identical.
//
// A bucket is yielded iff its size is zero and it holds any
// instance, or it holds at least two instances, or it holds one
// instance with at least two aliasing entries. Buckets are yielded
// in descending size order. Adding the same path under the same root
// twice is a silent no-op.
type Index interface {
	// Add records one entry.
	Add(e *fsentry.Entry) error

	// Buckets calls yield for each qualifying bucket, largest size
	// first, until yield returns false. It returns the first error
	// encountered reading the index.
	Buckets(yield func(size int64, instances []*fsentry.Instance) bool) error

	// Close releases any resources held by the index.
	Close() error
}

// entryKey uniquely identifies an entry for deduplication: same path
// string under the same root.
func entryKey(e *fsentry.Entry) string {
	return strconv.Itoa(e.Root().Index) + "\x00" + e.Path()
}

// bucketQualifies applies the Index emission rule.
func bucketQualifies(size int64, instances []*fsentry.Instance) bool {
	if len(instances) == 0 {
		return false
	}
	if size == 0 || len(instances) >= 2 {
		return true
	}
	return len(instances[0].Entries) >= 2
}

// memIndex is the in-memory Index.
type memIndex struct {
	idFunc fsentry.IDFunc
	seen   map[string]struct{}
	sizes  map[int64]*memBucket
}

type memBucket struct {
	instances []*fsentry.Instance
	byID      map[fsentry.StorageID]int
}

// newMemIndex returns an in-memory index. A nil idFunc disables
// identity collapse: every entry becomes its own instance.
func newMemIndex(idFunc fsentry.IDFunc) *memIndex {
	return &memIndex{
		idFunc: idFunc,
		seen:   make(map[string]struct{}),
		sizes:  make(map[int64]*memBucket),
	}
}

// Add implements Index.
func (x *memIndex) Add(e *fsentry.Entry) error {
	key := entryKey(e)
	if _, ok := x.seen[key]; ok {
		return nil
	}
	x.seen[key] = struct{}{}

	size, err := e.Size()
	if err != nil {
		return errors.E(errors.Walk, err, errors.Path(e.Path()))
	}
	b := x.sizes[size]
	if b == nil {
		b = &memBucket{}
		x.sizes[size] = b
	}
	if x.idFunc == nil {
		b.instances = append(b.instances, &fsentry.Instance{Entries: []*fsentry.Entry{e}})
		return nil
	}
	id, err := x.idFunc(e)
	if err != nil {
		return errors.E(errors.Walk, err, errors.Path(e.Path()))
	}
	if id == nil {
		b.instances = append(b.instances, &fsentry.Instance{Entries: []*fsentry.Entry{e}})
		return nil
	}
	if b.byID == nil {
		b.byID = make(map[fsentry.StorageID]int)
	}
	if i, ok := b.byID[id]; ok {
		inst := b.instances[i]
		inst.Entries = append(inst.Entries, e)
		return nil
	}
	b.byID[id] = len(b.instances)
	b.instances = append(b.instances, &fsentry.Instance{ID: id, Entries: []*fsentry.Entry{e}})
	return nil
}

// Buckets implements Index.
func (x *memIndex) Buckets(yield func(int64, []*fsentry.Instance) bool) error {
	sizes := make([]int64, 0, len(x.sizes))
	for size := range x.sizes {
		sizes = append(sizes, size)
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] > sizes[j] })
	for _, size := range sizes {
		b := x.sizes[size]
		if !bucketQualifies(size, b.instances) {
			continue
		}
		if !yield(size, b.instances) {
			return nil
		}
	}
	return nil
}

// Close implements Index.
func (x *memIndex) Close() error { return nil }
