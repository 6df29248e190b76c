// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package diskindex provides a scan.Index that spills the size index
// to an embedded ordered store, keeping memory bounded while
// enumerating very large trees. Externally it behaves exactly like
// the in-memory index: the same buckets qualify and buckets are
// yielded in descending size order, with instances in first-seen
// order.
package diskindex

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"os"

	"github.com/cockroachdb/pebble/v2"
	"github.com/grailbio/dupescan/errors"
	"github.com/grailbio/dupescan/fsentry"
	"github.com/grailbio/dupescan/scan"
)

func init() {
	gob.Register(fsentry.DevIno{})
}

// record is the persisted form of one added entry.
type record struct {
	Path      string
	RootPath  string
	RootIndex int
	ID        fsentry.StorageID
	HasID     bool
}

// Index is a disk-backed scan.Index.
type Index struct {
	idFunc  fsentry.IDFunc
	db      *pebble.DB
	dir     string
	ownsDir bool
	seq     uint64
}

var _ scan.Index = (*Index)(nil)

// New returns an index rooted at dir. If dir is empty a temporary
// directory is created and removed on Close. A nil idFunc disables
// identity collapse, as with the in-memory index.
func New(dir string, idFunc fsentry.IDFunc) (*Index, error) {
	ownsDir := false
	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "dupescan-index-")
		if err != nil {
			return nil, errors.E(errors.Other, "creating index directory", err)
		}
		ownsDir = true
	}
	db, err := pebble.Open(dir, &pebble.Options{DisableWAL: true})
	if err != nil {
		if ownsDir {
			_ = os.RemoveAll(dir)
		}
		return nil, errors.E(errors.Other, "opening index store", err)
	}
	return &Index{idFunc: idFunc, db: db, dir: dir, ownsDir: ownsDir}, nil
}

// Key layout. Entry keys order by inverted size so a forward scan
// visits buckets largest first, then by insertion sequence so
// decoded records preserve add order. Seen keys implement path
// deduplication.
const (
	prefixEntry = 'e'
	prefixSeen  = 'p'
)

func entryDBKey(size int64, seq uint64) []byte {
	k := make([]byte, 1+8+8)
	k[0] = prefixEntry
	binary.BigEndian.PutUint64(k[1:], ^uint64(size))
	binary.BigEndian.PutUint64(k[9:], seq)
	return k
}

func seenDBKey(e *fsentry.Entry) []byte {
	var b bytes.Buffer
	b.WriteByte(prefixSeen)
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(e.Root().Index))
	b.Write(n[:])
	b.WriteString(e.Path())
	return b.Bytes()
}

// Add implements scan.Index.
func (x *Index) Add(e *fsentry.Entry) error {
	seenKey := seenDBKey(e)
	_, closer, err := x.db.Get(seenKey)
	if err == nil {
		_ = closer.Close()
		return nil
	}
	if err != pebble.ErrNotFound {
		return errors.E(errors.Other, "reading index store", err)
	}

	size, err := e.Size()
	if err != nil {
		return errors.E(errors.Walk, err, errors.Path(e.Path()))
	}
	rec := record{
		Path:      e.Path(),
		RootPath:  e.Root().Path,
		RootIndex: e.Root().Index,
	}
	if x.idFunc != nil {
		id, err := x.idFunc(e)
		if err != nil {
			return errors.E(errors.Walk, err, errors.Path(e.Path()))
		}
		rec.ID, rec.HasID = id, id != nil
	}
	var val bytes.Buffer
	if err := gob.NewEncoder(&val).Encode(rec); err != nil {
		return errors.E(errors.Other, "encoding index record", err)
	}
	batch := x.db.NewBatch()
	_ = batch.Set(seenKey, nil, nil)
	_ = batch.Set(entryDBKey(size, x.seq), val.Bytes(), nil)
	x.seq++
	if err := x.db.Apply(batch, pebble.NoSync); err != nil {
		return errors.E(errors.Other, "writing index store", err)
	}
	return nil
}

// Buckets implements scan.Index.
func (x *Index) Buckets(yield func(size int64, instances []*fsentry.Instance) bool) error {
	iter, err := x.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{prefixEntry},
		UpperBound: []byte{prefixEntry + 1},
	})
	if err != nil {
		return errors.E(errors.Other, "reading index store", err)
	}
	defer func() { _ = iter.Close() }()

	var (
		haveBucket bool
		bucketSize int64
		instances  []*fsentry.Instance
		byID       map[fsentry.StorageID]int
	)
	flush := func() bool {
		if !haveBucket {
			return true
		}
		ok := true
		if qualifies(bucketSize, instances) {
			ok = yield(bucketSize, instances)
		}
		haveBucket = false
		instances = nil
		byID = nil
		return ok
	}

	for iter.First(); iter.Valid(); iter.Next() {
		size := int64(^binary.BigEndian.Uint64(iter.Key()[1:9]))
		if !haveBucket || size != bucketSize {
			if !flush() {
				return nil
			}
			haveBucket = true
			bucketSize = size
			byID = make(map[fsentry.StorageID]int)
		}
		var rec record
		if err := gob.NewDecoder(bytes.NewReader(iter.Value())).Decode(&rec); err != nil {
			return errors.E(errors.Other, "decoding index record", err)
		}
		entry := fsentry.New(rec.Path, fsentry.Root{Path: rec.RootPath, Index: rec.RootIndex})
		if rec.HasID {
			if i, ok := byID[rec.ID]; ok {
				instances[i].Entries = append(instances[i].Entries, entry)
				continue
			}
			byID[rec.ID] = len(instances)
			instances = append(instances, &fsentry.Instance{ID: rec.ID, Entries: []*fsentry.Entry{entry}})
			continue
		}
		instances = append(instances, &fsentry.Instance{Entries: []*fsentry.Entry{entry}})
	}
	if err := iter.Error(); err != nil {
		return errors.E(errors.Other, "reading index store", err)
	}
	flush()
	return nil
}

func qualifies(size int64, instances []*fsentry.Instance) bool {
	if len(instances) == 0 {
		return false
	}
	if size == 0 || len(instances) >= 2 {
		return true
	}
	return len(instances[0].Entries) >= 2
}

// Close implements scan.Index.
func (x *Index) Close() error {
	err := x.db.Close()
	if x.ownsDir {
		if rerr := os.RemoveAll(x.dir); err == nil && rerr != nil {
			err = rerr
		}
	}
	if err != nil {
		return errors.E(errors.Other, "closing index store", err)
	}
	return nil
}
