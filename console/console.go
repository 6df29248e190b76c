// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package console renders transient single-line status displays on
// a terminal. A StatusLine redraws in place with carriage returns
// and must be cleared before any other output is written to the
// same terminal.
package console

import (
	"io"
	"strings"
)

// A StatusLine owns one redrawable line on w.
type StatusLine struct {
	w          io.Writer
	width      int
	lastLen    int
	elide      string
	elidePoint float64
}

// NewStatusLine returns a status line of the given width. Texts
// longer than the width are elided around elideString.
func NewStatusLine(w io.Writer, width int, elideString string) *StatusLine {
	if width <= 0 {
		width = 78
	}
	if elideString == "" {
		elideString = "..."
	}
	return &StatusLine{w: w, width: width, elide: elideString, elidePoint: 0.33}
}

// Width returns the line width.
func (s *StatusLine) Width() int { return s.width }

// Set replaces the line's text, redrawing in place and blanking any
// excess from the previous draw.
func (s *StatusLine) Set(text string) {
	text = s.prepare(text)
	_, _ = io.WriteString(s.w, "\r"+text)
	if n := s.lastLen - len(text); n > 0 {
		_, _ = io.WriteString(s.w, strings.Repeat(" ", n)+"\r"+text)
	}
	s.lastLen = len(text)
}

// Clear blanks the line.
func (s *StatusLine) Clear() {
	if s.lastLen == 0 {
		return
	}
	_, _ = io.WriteString(s.w, "\r"+strings.Repeat(" ", s.lastLen)+"\r")
	s.lastLen = 0
}

// prepare flattens the text to one line and elides the middle if it
// exceeds the width, keeping the head and the tail visible.
func (s *StatusLine) prepare(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = strings.ReplaceAll(text, "\t", "    ")
	if len(text) <= s.width {
		return text
	}
	lead := int(0.5 + s.elidePoint*float64(s.width) - float64(len(s.elide)))
	if lead < 0 {
		lead = 0
	}
	tail := s.width - lead - len(s.elide)
	if tail < 0 {
		tail = 0
	}
	return text[:lead] + s.elide + text[len(text)-tail:]
}
