// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/grailbio/dupescan/report"
)

// deleteUnmarked removes every unmarked path of every set that has
// at least one marked path. Sets with no marks are skipped. Any
// removal error yields exit code 2.
func deleteUnmarked(reportPath string, dryRun, verbose bool) int {
	verbose = verbose || dryRun
	sets, ok := parseReportFile(reportPath)
	if !ok {
		return 1
	}
	hadErrors := false
	for _, set := range sets {
		if !set.Marked() {
			continue
		}
		for _, p := range set.Paths() {
			if p.Marked() {
				continue
			}
			path := string(p.Path)
			if verbose {
				fmt.Print(path)
			}
			var err error
			if !dryRun {
				err = os.Remove(path)
			}
			if err != nil {
				if !verbose {
					fmt.Print(path)
				}
				fmt.Printf(": %v\n", err)
				hadErrors = true
				continue
			}
			if verbose {
				fmt.Println()
			}
		}
	}
	if hadErrors {
		return 2
	}
	return 0
}

// coalesce replaces same-content copies with hard links, set by set.
// Marks are ignored; every filename is preserved. Sets are
// independent, so they are processed with bounded parallelism.
func coalesce(ctx context.Context, reportPath string, dryRun, verbose bool) int {
	sets, ok := parseReportFile(reportPath)
	if !ok {
		return 1
	}
	linker := &hardLinker{verbose: verbose || dryRun, commit: !dryRun}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, set := range sets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			linker.linkSet(set)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return 0
}

func parseReportFile(path string) ([]report.Set, bool) {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, false
	}
	defer func() { _ = f.Close() }()
	sets, err := report.Parse(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, false
	}
	return sets, true
}

type hardLinker struct {
	verbose bool
	commit  bool

	mu sync.Mutex // serializes output
}

type linkable struct {
	path string
	info os.FileInfo
}

func (l *hardLinker) printf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(os.Stderr, format, args...)
}

// linkSet coalesces one set. Only regular non-symlink files take
// part; files must agree on size (a disagreement means the report is
// stale) and only files with compatible ownership and permissions
// are linked together.
func (l *hardLinker) linkSet(set report.Set) {
	var (
		linkables      = make(map[interface{}][]linkable)
		sizes          = make(map[int64]bool)
		candidates     int
		linked         int
		representative string
	)
	for _, p := range set.Paths() {
		path := string(p.Path)
		info, err := os.Lstat(path)
		if err != nil {
			l.printf("could not index %q: %v\n", path, err)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if representative == "" {
			representative = path
		}
		key := linkKey(info)
		linkables[key] = append(linkables[key], linkable{path, info})
		sizes[info.Size()] = true
		candidates++
	}
	if len(sizes) > 1 {
		l.printf("in group containing %q: not proceeding because file sizes are inconsistent; the report is probably out of date\n",
			representative)
		return
	}

	for _, group := range linkables {
		if len(group) < 2 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].info.ModTime().Before(group[j].info.ModTime())
		})
		prototype := group[len(group)-1]
		group = group[:len(group)-1]
		successes := 0
		for _, victim := range group {
			if l.verbose {
				l.printf("%q = %q\n", victim.path, prototype.path)
			}
			if os.SameFile(prototype.info, victim.info) {
				successes++
				continue
			}
			if !l.commit {
				successes++
				continue
			}
			if err := replaceWithLink(prototype.path, victim.path); err != nil {
				l.printf("could not replace %q with link to %q: %v\n", victim.path, prototype.path, err)
				continue
			}
			successes++
		}
		if successes > 0 {
			linked += successes + 1
		}
	}

	if linked < candidates || len(linkables) > 1 {
		l.printf("in group containing %q: failed to coalesce all instances: linked %d of %d, compatible groups %d\n",
			representative, linked, candidates, len(linkables))
	}
}

// replaceWithLink replaces victim with a hard link to prototype,
// keeping safety links so that the victim's name is never lost even
// if a step fails mid-way.
func replaceWithLink(prototype, victim string) (err error) {
	safetyNew, err := uniqueName(victim, "new")
	if err != nil {
		return err
	}
	safetyOld, err := uniqueName(victim, "old")
	if err != nil {
		return err
	}

	if err := os.Link(prototype, safetyNew); err != nil {
		return err
	}
	danger := false
	defer func() {
		if !danger {
			_ = os.Remove(safetyOld)
		}
		_ = os.Remove(safetyNew)
	}()

	if err := os.Link(victim, safetyOld); err != nil {
		return err
	}
	if err := os.Remove(victim); err != nil {
		return err
	}
	danger = true
	if err := os.Link(safetyNew, victim); err != nil {
		if rerr := os.Link(safetyOld, victim); rerr == nil {
			danger = false
		}
		return err
	}
	danger = false
	return nil
}

// uniqueName derives an unused sibling name for safety links.
func uniqueName(path, namespace string) (string, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for counter := 0; ; counter++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s^%s^%d%s", stem, namespace, counter, ext))
		if _, err := os.Lstat(candidate); err != nil {
			if os.IsNotExist(err) {
				return candidate, nil
			}
			return "", err
		}
	}
}
