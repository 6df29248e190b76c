// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package errors implements an error type that carries an
// interpretable kind for the failure classes that occur while
// scanning filesystems for duplicate content. Errors can be chained,
// attributing one error to another, and annotated with the path
// involved so that sinks and reports can surface it.
package errors

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Separator defines the separation string inserted between
// chained errors in error messages.
var Separator = ":\n\t"

// Kind defines the type of error. Kinds are semantically
// meaningful, and may be interpreted by the receiver of an error
// (e.g., to decide whether a run should continue).
type Kind int

const (
	// Other indicates an unknown error.
	Other Kind = iota
	// Walk indicates a failure while enumerating directory entries
	// or stating a candidate file.
	Walk
	// Open indicates a failure to acquire a file descriptor for a
	// stream.
	Open
	// Read indicates a failure while reading file content
	// mid-comparison.
	Read
	// Close indicates a failure releasing a file descriptor.
	Close
	// Config indicates invalid or conflicting configuration. Config
	// errors abort a run before any work starts.
	Config
	// Parse indicates a malformed report or selection expression.
	Parse
	// NotExist indicates a nonexistent file or directory.
	NotExist
	// Invalid indicates that the caller supplied invalid parameters.
	Invalid

	maxKind
)

var kinds = map[Kind]string{
	Other:    "unknown error",
	Walk:     "walk error",
	Open:     "open error",
	Read:     "read error",
	Close:    "close error",
	Config:   "configuration error",
	Parse:    "parse error",
	NotExist: "file does not exist",
	Invalid:  "invalid argument",
}

// String returns a human-readable explanation of the error kind k.
func (k Kind) String() string {
	return kinds[k]
}

// Error is the error type used throughout this repository. It
// carries a Kind, an optional path, an optional descriptive message,
// and an optional underlying cause.
type Error struct {
	// Kind is the class of the error.
	Kind Kind
	// Path is the filesystem path involved, if any.
	Path string
	// Message is a descriptive message, if any.
	Message string
	// Err is this error's cause, if any.
	Err error
}

// E constructs a new *Error from the given arguments, interpreted by
// type:
//
//	Kind          the error's kind
//	string        the first string is the message; a second is appended
//	error         the error's cause
//	*Error        as error, but kind and path are inherited if unset
//
// A path is supplied via Path. If no kind is given, the kind is
// inherited from a chained *Error, or derived from well-known causes
// (e.g. os.ErrNotExist becomes NotExist).
func E(args ...interface{}) error {
	e := new(Error)
	var msg strings.Builder
	for _, arg := range args {
		switch arg := arg.(type) {
		case Kind:
			e.Kind = arg
		case Path:
			e.Path = string(arg)
		case *Error:
			e.Err = arg
		case error:
			e.Err = arg
		case string:
			if msg.Len() > 0 {
				msg.WriteString(" ")
			}
			msg.WriteString(arg)
		default:
			msg.WriteString(fmt.Sprint(arg))
		}
	}
	e.Message = msg.String()
	if e.Kind == Other {
		switch {
		case errors.Is(e.Err, os.ErrNotExist):
			e.Kind = NotExist
		case errors.Is(e.Err, os.ErrInvalid):
			e.Kind = Invalid
		default:
			var chained *Error
			if errors.As(e.Err, &chained) {
				e.Kind = chained.Kind
			}
		}
	}
	if e.Path == "" {
		var chained *Error
		if errors.As(e.Err, &chained) {
			e.Path = chained.Path
		}
	}
	return e
}

// Path tags a string argument to E as the path involved in the
// error.
type Path string

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Message != "" {
		b.WriteString(e.Message)
	}
	if e.Path != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(e.Path)
	}
	if e.Kind != Other {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		if b.Len() > 0 {
			b.WriteString(Separator)
		}
		b.WriteString(e.Err.Error())
	}
	if b.Len() == 0 {
		return kinds[Other]
	}
	return b.String()
}

// Unwrap returns the cause of this error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is tells whether an error is of the given kind.
func Is(kind Kind, err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	if e.Kind == Other && e.Err != nil {
		return Is(kind, e.Err)
	}
	return e.Kind == kind
}

// Recover recovers any error from a panicking function that failed a
// must-style assertion. Recover is intended to be used in a deferred
// function in mains that prefer an error return over a crash.
func Recover(err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*err = e
			return
		}
		*err = E(fmt.Sprint(r))
	}
}

// New is a convenience wrapper over the standard library's
// errors.New.
func New(text string) error {
	return errors.New(text)
}
