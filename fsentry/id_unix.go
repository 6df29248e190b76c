// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

//go:build unix

package fsentry

import (
	"syscall"

	"github.com/grailbio/dupescan/errors"
)

// A DevIno identifies a storage object by device and inode number.
type DevIno struct {
	Dev uint64
	Ino uint64
}

// PosixID derives a storage identity from the entry's device and
// inode numbers.
func PosixID(e *Entry) (StorageID, error) {
	info, err := e.Stat()
	if err != nil {
		return nil, err
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil, errors.E(errors.Invalid, "no stat_t available", errors.Path(e.Path()))
	}
	return DevIno{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}, nil
}
