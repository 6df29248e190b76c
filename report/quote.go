// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package report

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/grailbio/dupescan/errors"
)

// FormatPath renders a path as a quoted literal. Paths that are
// valid UTF-8 become double-quoted string literals; others become
// b-prefixed byte literals with every non-printable byte escaped.
// Leading and trailing spaces are escaped so the literal survives
// whitespace-mangling editors.
func FormatPath(path []byte) string {
	var b strings.Builder
	if utf8.Valid(path) {
		b.WriteByte('"')
		escapeString(&b, string(path))
		b.WriteByte('"')
	} else {
		b.WriteString(`b"`)
		escapeBytes(&b, path)
		b.WriteByte('"')
	}
	return b.String()
}

func escapeString(b *strings.Builder, s string) {
	for i, r := range s {
		atEdge := i == 0 || i+utf8.RuneLen(r) == len(s)
		escapeRune(b, r, atEdge)
	}
}

func escapeRune(b *strings.Builder, r rune, atEdge bool) {
	switch r {
	case '\t':
		b.WriteString(`\t`)
		return
	case '\n':
		b.WriteString(`\n`)
		return
	case '\r':
		b.WriteString(`\r`)
		return
	case '\\':
		b.WriteString(`\\`)
		return
	case '"':
		b.WriteString(`\"`)
		return
	case ' ':
		if atEdge {
			b.WriteString(`\x20`)
		} else {
			b.WriteByte(' ')
		}
		return
	}
	if unicode.IsControl(r) || !unicode.IsPrint(r) {
		hexEscape(b, uint32(r))
		return
	}
	b.WriteRune(r)
}

func escapeBytes(b *strings.Builder, p []byte) {
	for i, c := range p {
		switch {
		case c == '\t':
			b.WriteString(`\t`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\\':
			b.WriteString(`\\`)
		case c == '"':
			b.WriteString(`\"`)
		case c == ' ' && (i == 0 || i == len(p)-1):
			b.WriteString(`\x20`)
		case c < 0x20 || c > 0x7e:
			fmt.Fprintf(b, `\x%02X`, c)
		default:
			b.WriteByte(c)
		}
	}
}

func hexEscape(b *strings.Builder, n uint32) {
	switch {
	case n <= 0x7f:
		fmt.Fprintf(b, `\x%02X`, n)
	case n <= 0xffff:
		fmt.Fprintf(b, `\u%04X`, n)
	default:
		fmt.Fprintf(b, `\U%08X`, n)
	}
}

// ParsePath parses a quoted path literal: single or double quotes,
// an optional b prefix for byte paths, and C-style escapes including
// \xNN, \uNNNN, and \UNNNNNNNN. The returned path is an opaque byte
// string.
func ParsePath(literal string) ([]byte, error) {
	s := literal
	if strings.HasPrefix(s, "b") {
		s = s[1:]
	}
	if len(s) < 2 || (s[0] != '\'' && s[0] != '"') {
		return nil, errors.E(errors.Parse, "missing quote in path literal "+literal)
	}
	quote := s[0]
	if s[len(s)-1] != quote {
		return nil, errors.E(errors.Parse, "unterminated path literal "+literal)
	}
	s = s[1 : len(s)-1]

	var out []byte
	for i := 0; i < len(s); {
		c := s[i]
		if c == quote {
			return nil, errors.E(errors.Parse, "stray quote in path literal "+literal)
		}
		if c != '\\' {
			out = append(out, c)
			i++
			continue
		}
		i++
		if i >= len(s) {
			return nil, errors.E(errors.Parse, "incomplete escape in path literal "+literal)
		}
		e := s[i]
		i++
		switch e {
		case '0':
			out = append(out, 0)
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case '\\', '\'', '"':
			out = append(out, e)
		case 'x', 'u', 'U':
			digits := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if i+digits > len(s) {
				return nil, errors.E(errors.Parse, "incomplete hex escape in path literal "+literal)
			}
			var n uint32
			for _, d := range []byte(s[i : i+digits]) {
				v, ok := hexDigit(d)
				if !ok {
					return nil, errors.E(errors.Parse, "invalid hex escape in path literal "+literal)
				}
				n = n<<4 | uint32(v)
			}
			i += digits
			if e == 'x' {
				out = append(out, byte(n))
			} else {
				if n > unicode.MaxRune {
					return nil, errors.E(errors.Parse, "escape out of range in path literal "+literal)
				}
				out = utf8.AppendRune(out, rune(n))
			}
		default:
			return nil, errors.E(errors.Parse, "invalid escape in path literal "+literal)
		}
	}
	return out, nil
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
