// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package fsentry defines the filesystem data model used by the
// duplicate scanner: entries (one name in the filesystem), storage
// identities (one underlying storage object), and instances (one
// storage object with all of the names that alias it).
package fsentry

import (
	"os"
	"path/filepath"
	"time"
)

// A Root describes one top-level path handed to the scanner, tagged
// with its zero-based position in the argument list.
type Root struct {
	Path  string
	Index int
}

// An Entry is one name in the filesystem with cached metadata and a
// root tag. Entries are created by walkers and are immutable
// thereafter; metadata is stated lazily and cached, including any
// stat error. Two entries are equal iff their path and root match.
type Entry struct {
	path string
	root Root

	statted bool
	info    os.FileInfo
	statErr error
}

// New returns an entry for path discovered under the given root.
// Metadata is stated on first use.
func New(path string, root Root) *Entry {
	return &Entry{path: path, root: root}
}

// NewWithInfo returns an entry whose metadata is already known, so
// no stat call is ever made on its behalf.
func NewWithInfo(path string, root Root, info os.FileInfo) *Entry {
	return &Entry{path: path, root: root, statted: true, info: info}
}

// Path returns the entry's path as given.
func (e *Entry) Path() string { return e.path }

// Root returns the root the entry was discovered under.
func (e *Entry) Root() Root { return e.root }

// Basename returns the final element of the entry's path.
func (e *Entry) Basename() string { return filepath.Base(e.path) }

// Extension returns the entry's path extension, including the
// leading dot, or "".
func (e *Entry) Extension() string { return filepath.Ext(e.path) }

// Dirname returns the entry's path with the final element removed.
func (e *Entry) Dirname() string { return filepath.Dir(e.path) }

// Parent returns an entry for the entry's parent directory, tagged
// with the same root.
func (e *Entry) Parent() *Entry { return New(e.Dirname(), e.root) }

// Equal tells whether the two entries name the same path under the
// same root.
func (e *Entry) Equal(other *Entry) bool {
	return other != nil && e.path == other.path && e.root == other.root
}

func (e *Entry) String() string { return e.path }

// Stat returns the entry's metadata, stating it on first call. The
// result (or error) is cached. Symlinks are followed, so metadata
// describes the content that a read of the entry would see.
func (e *Entry) Stat() (os.FileInfo, error) {
	if !e.statted {
		e.info, e.statErr = os.Stat(e.path)
		e.statted = true
	}
	return e.info, e.statErr
}

// Size returns the entry's length in bytes.
func (e *Entry) Size() (int64, error) {
	info, err := e.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ModTime returns the entry's modification time.
func (e *Entry) ModTime() (time.Time, error) {
	info, err := e.Stat()
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// IsFile tells whether the entry is a regular file.
func (e *Entry) IsFile() (bool, error) {
	info, err := e.Stat()
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// IsSymlink tells whether the entry's path itself is a symbolic
// link. Unlike the other accessors this consults the link, not its
// target, and is not cached.
func (e *Entry) IsSymlink() (bool, error) {
	info, err := os.Lstat(e.path)
	if err != nil {
		return false, err
	}
	return info.Mode()&os.ModeSymlink != 0, nil
}

// A StorageID uniquely names one underlying storage object. Values
// must be comparable: two entries whose paths are hardlinked to the
// same object must produce equal IDs, and entries backed by
// different objects must not. The zero interface means the identity
// is unknown; such entries never collapse.
type StorageID interface{}

// An IDFunc derives a storage identity from an entry. It is a
// capability: POSIX systems use device and inode numbers, other
// platforms plug in their own.
type IDFunc func(e *Entry) (StorageID, error)

// An Instance is one storage object together with every entry that
// aliases it. All entries in an instance have the same size; the
// scanner opens at most one stream per instance, through the first
// entry.
type Instance struct {
	ID      StorageID
	Entries []*Entry
}

// Entry returns the canonical entry used for opening the instance.
func (i *Instance) Entry() *Entry {
	if len(i.Entries) == 0 {
		return nil
	}
	return i.Entries[0]
}

func (i *Instance) String() string {
	if e := i.Entry(); e != nil {
		return e.Path()
	}
	return ""
}
