// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

//go:build !unix

package fsentry

import "sync/atomic"

var nextAnonID atomic.Uint64

// PosixID has no device/inode identity to consult on this platform;
// it assigns a fresh identity per entry, so entries never collapse.
func PosixID(e *Entry) (StorageID, error) {
	return nextAnonID.Add(1), nil
}
