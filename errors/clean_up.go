// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package errors

// CleanUp is defer-able syntactic sugar that calls cleanUp and
// reports an error, if any, to *dst. Pass the caller's named return
// error. Example usage:
//
//	func processFile(filename string) (_ int, err error) {
//		f, err := os.Open(filename)
//		if err != nil { ... }
//		defer errors.CleanUp(f.Close, &err)
//		...
//	}
//
// If the caller returns with its own error, any error from cleanUp
// is chained.
func CleanUp(cleanUp func() error, dst *error) {
	err2 := cleanUp()
	if err2 == nil {
		return
	}
	if *dst == nil {
		*dst = err2
		return
	}
	// *dst may already have a meaningful cause; err2 is recorded as a
	// secondary failure rather than as the cause.
	*dst = E(*dst, "second error in clean up: "+err2.Error())
}
