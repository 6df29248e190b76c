// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Command finddupes finds files with identical content and writes a
// report of the duplicate sets it proves. A generated report can be
// fed back through -x/--delete to remove unmarked copies, or through
// -c/--coalesce to replace copies with hard links.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/grailbio/dupescan/data"
	"github.com/grailbio/dupescan/log"
)

const version = "2.0.0"

func main() {
	log.AddFlags()
	log.SetFlags(0)
	log.SetPrefix("finddupes: ")
	os.Exit(run(context.Background(), os.Args[1:]))
}

type args struct {
	paths          []string
	symlinks       bool
	zero           bool
	aliases        bool
	recurse        bool
	onlyMixedRoots bool
	minSize        data.Size
	minSizeSet     bool
	prefer         string
	exclude        multiFlag
	logTime        bool
	verbose        bool
	progress       bool
	noProgress     bool
	maxMemory      data.Size
	maxBufferSize  data.Size
	deletePath     string
	coalescePath   string
	dryRun         bool
	helpPrefer     bool
	printVersion   bool
}

type multiFlag []string

func (m *multiFlag) String() string { return fmt.Sprint([]string(*m)) }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func run(ctx context.Context, argv []string) int {
	var a args
	fl := flag.NewFlagSet("finddupes", flag.ContinueOnError)
	fl.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: finddupes [options] PATH...")
		fl.PrintDefaults()
	}

	for _, name := range []string{"s", "symlinks"} {
		fl.BoolVar(&a.symlinks, name, false, "include symlinks")
	}
	for _, name := range []string{"z", "zero"} {
		fl.BoolVar(&a.zero, name, false, "include zero-length files; they all have identical content")
	}
	for _, name := range []string{"a", "aliases"} {
		fl.BoolVar(&a.aliases, name, false, "collapse hardlinks into one instance and report aliasing")
	}
	for _, name := range []string{"r", "recurse"} {
		fl.BoolVar(&a.recurse, name, false, "recursively examine directories")
	}
	for _, name := range []string{"o", "only-mixed-roots"} {
		fl.BoolVar(&a.onlyMixedRoots, name, false, "only report sets that span more than one root path")
	}
	for _, name := range []string{"m", "min-size"} {
		fl.Var(&a.minSize, name, "ignore files smaller than `SIZE` bytes")
	}
	for _, name := range []string{"p", "prefer"} {
		fl.StringVar(&a.prefer, name, "", "mark one file per set for preservation by `CRITERIA`; see --help-prefer")
	}
	fl.Var(&a.exclude, "exclude", "exclude files and directories whose `NAME` matches; repeatable glob")
	fl.BoolVar(&a.logTime, "time", false, "append elapsed time to the report")
	for _, name := range []string{"v", "verbose"} {
		fl.BoolVar(&a.verbose, name, false, "log detailed information to stderr")
	}
	fl.BoolVar(&a.progress, "progress", false, "show progress on stderr even when it is not a terminal")
	fl.BoolVar(&a.noProgress, "no-progress", false, "never show progress")
	fl.Var(&a.maxMemory, "max-memory", "bound comparison buffers to `SIZE` bytes in total")
	fl.Var(&a.maxBufferSize, "max-buffer-size", "bound any single comparison buffer to `SIZE` bytes")
	for _, name := range []string{"x", "delete"} {
		fl.StringVar(&a.deletePath, name, "", "delete unmarked files in the report at `PATH`")
	}
	for _, name := range []string{"c", "coalesce"} {
		fl.StringVar(&a.coalescePath, name, "", "replace duplicates with hard links using the report at `PATH`")
	}
	for _, name := range []string{"n", "dry-run"} {
		fl.BoolVar(&a.dryRun, name, false, "with -x or -c, list actions without performing them")
	}
	fl.BoolVar(&a.helpPrefer, "help-prefer", false, "display detailed help on the --prefer criteria language")
	fl.BoolVar(&a.printVersion, "version", false, "print the version and exit")

	if err := fl.Parse(argv); err != nil {
		return 1
	}
	a.paths = fl.Args()
	fl.Visit(func(f *flag.Flag) {
		if f.Name == "m" || f.Name == "min-size" {
			a.minSizeSet = true
		}
	})

	switch {
	case a.printVersion:
		fmt.Println("finddupes " + version)
		return 0
	case a.helpPrefer:
		fmt.Print(preferHelp)
		return 0
	}

	if a.verbose {
		log.SetLevel(log.Debug)
	}

	if a.deletePath != "" || a.coalescePath != "" {
		if a.deletePath != "" && a.coalescePath != "" {
			fmt.Fprintln(os.Stderr, "conflicting arguments: -x/--delete and -c/--coalesce are mutually exclusive")
			return 1
		}
		if len(a.paths) > 0 || a.symlinks || a.zero || a.aliases || a.recurse ||
			a.onlyMixedRoots || a.minSizeSet || a.prefer != "" || a.logTime || len(a.exclude) > 0 {
			fmt.Fprintln(os.Stderr, "only -n/--dry-run can be used with -x/--delete or -c/--coalesce")
			return 1
		}
		if a.deletePath != "" {
			return deleteUnmarked(a.deletePath, a.dryRun, a.verbose)
		}
		return coalesce(ctx, a.coalescePath, a.dryRun, a.verbose)
	}

	if a.zero && a.minSizeSet && a.minSize > 0 {
		fmt.Fprintln(os.Stderr, "conflicting arguments: --zero implies --min-size 0, but --min-size was also specified")
		return 1
	}
	if a.dryRun {
		fmt.Fprintln(os.Stderr, "warning: -n/--dry-run has no effect without -x/--delete or -c/--coalesce")
	}
	if len(a.paths) == 0 {
		fmt.Fprintln(os.Stderr, "no paths specified")
		return 1
	}
	if a.onlyMixedRoots && len(a.paths) <= 1 {
		fmt.Fprintln(os.Stderr, "warning: -o/--only-mixed-roots with a single path will not produce any results")
	}

	start := time.Now()
	if err := scanAndReport(ctx, &a); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if a.logTime {
		fmt.Printf("# Elapsed time: %s\n", time.Since(start).Round(time.Millisecond))
	}
	return 0
}
