// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

//go:build !unix

package main

import "os"

func linkKey(info os.FileInfo) interface{} {
	return info.Size()
}
