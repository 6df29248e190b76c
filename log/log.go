// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package log provides simple level logging. Output goes through a
// pluggable outputter, by default Go's standard logging package;
// tools that render transient terminal status install their own so
// that log lines and status lines do not corrupt each other.
//
// Call log.AddFlags before flag.Parse to let users pick the level
// with -log_level.
package log

import (
	"fmt"
	"os"
)

// A Level is a log verbosity level. Levels decrease in priority and
// increase in verbosity as they grow: an outputter accepting level L
// outputs every message whose level M satisfies M <= L.
type Level int

// The levels, from silent to chatty. Info is the standard level for
// user-facing messages.
const (
	Off   Level = -3
	Error Level = -2
	Info  Level = 0
	Debug Level = 1
)

// String returns the string representation of the level l.
func (l Level) String() string {
	switch l {
	case Off:
		return "off"
	case Error:
		return "error"
	case Info:
		return "info"
	case Debug:
		return "debug"
	default:
		if l < 0 {
			return "off"
		}
		return fmt.Sprintf("debug%d", int(l))
	}
}

// Set implements flag.Value.
func (l *Level) Set(s string) error {
	switch s {
	case "off":
		*l = Off
	case "error":
		*l = Error
	case "info":
		*l = Info
	case "debug":
		*l = Debug
	default:
		var d int
		if n, _ := fmt.Sscanf(s, "debug%d", &d); n == 1 && d > 0 {
			*l = Level(d)
			break
		}
		return fmt.Errorf("invalid log level %q", s)
	}
	return nil
}

// An Outputter renders leveled log messages. Level reports the most
// verbose level the outputter currently accepts; Output renders one
// message, dropping it if level is below the acceptance threshold.
// calldepth counts call frames back to the original log site, as in
// the standard library's log.Output.
type Outputter interface {
	Level() Level
	Output(calldepth int, level Level, s string) error
}

var outputter Outputter = gologOutputter{}

// SetOutputter installs a new outputter and returns the previous
// one. It must not be called concurrently with log output; installing
// an outputter at program initialization, or bracketing a terminal
// status display, are the intended uses.
func SetOutputter(o Outputter) Outputter {
	old := outputter
	outputter = o
	return old
}

// GetOutputter returns the outputter currently installed.
func GetOutputter() Outputter {
	return outputter
}

// At tells whether a message at the given level would currently be
// output.
func At(level Level) bool {
	return level <= outputter.Level()
}

// Output hands a preformatted message to the current outputter.
func Output(calldepth int, level Level, s string) error {
	return outputter.Output(calldepth+1, level, s)
}

// Print formats a message in the manner of fmt.Sprint and outputs it
// at level to the current outputter.
func Print(level Level, v ...interface{}) {
	if At(level) {
		_ = Output(2, level, fmt.Sprint(v...))
	}
}

// Printf formats a message in the manner of fmt.Sprintf and outputs
// it at level to the current outputter.
func Printf(level Level, format string, v ...interface{}) {
	if At(level) {
		_ = Output(2, level, fmt.Sprintf(format, v...))
	}
}

// Errorf formats a message in the manner of fmt.Sprintf and outputs
// it at the Error level.
func Errorf(format string, v ...interface{}) {
	if At(Error) {
		_ = Output(2, Error, fmt.Sprintf(format, v...))
	}
}

// Debugf formats a message in the manner of fmt.Sprintf and outputs
// it at the Debug level.
func Debugf(format string, v ...interface{}) {
	if At(Debug) {
		_ = Output(2, Debug, fmt.Sprintf(format, v...))
	}
}

// Fatal formats a message in the manner of fmt.Sprint, outputs it at
// the Error level, and then calls os.Exit(1).
func Fatal(v ...interface{}) {
	_ = Output(2, Error, fmt.Sprint(v...))
	os.Exit(1)
}

// Fatalf formats a message in the manner of fmt.Sprintf, outputs it at
// the Error level, and then calls os.Exit(1).
func Fatalf(format string, v ...interface{}) {
	_ = Output(2, Error, fmt.Sprintf(format, v...))
	os.Exit(1)
}
