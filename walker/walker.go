// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package walker enumerates candidate file entries for the scanner:
// it recurses into directories, filters symlinks, small files, and
// excluded names, deduplicates repeated paths, and forwards
// filesystem errors without stopping the walk.
package walker

import (
	"iter"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/grailbio/dupescan/errors"
	"github.com/grailbio/dupescan/fsentry"
)

// Config configures a Walker.
type Config struct {
	// Recurse descends into named directories. Without it, named
	// directories are ignored and only named files are considered.
	Recurse bool

	// IncludeSymlinks admits symlinked files; entry metadata and
	// content then refer to the link target. Without it symlinks are
	// filtered out.
	IncludeSymlinks bool

	// MinSize skips files smaller than this many bytes. A value of
	// zero or less admits zero-length files.
	MinSize int64

	// Exclude lists glob patterns matched against basenames of both
	// files and directories; matches are pruned.
	Exclude []string

	// OnError receives walk errors together with the path involved.
	// The walk continues past them.
	OnError func(err error, path string)
}

// A Walker turns a list of root paths into a lazy sequence of file
// entries.
type Walker struct {
	cfg     Config
	exclude []glob.Glob
}

// New validates cfg and returns a Walker. Malformed exclude patterns
// are configuration errors.
func New(cfg Config) (*Walker, error) {
	w := &Walker{cfg: cfg}
	for _, pat := range cfg.Exclude {
		g, err := glob.Compile(pat)
		if err != nil {
			return nil, errors.E(errors.Config, "bad exclude pattern "+pat, err)
		}
		w.exclude = append(w.exclude, g)
	}
	return w, nil
}

func (w *Walker) excluded(basename string) bool {
	for _, g := range w.exclude {
		if g.Match(basename) {
			return true
		}
	}
	return false
}

func (w *Walker) report(err error, path string) {
	if w.cfg.OnError != nil {
		w.cfg.OnError(errors.E(errors.Walk, err, errors.Path(path)), path)
	}
}

// Entries returns a lazy sequence of entries discovered under paths.
// Each path is tagged as a root with its position in the list.
// Exact repeated paths are yielded once.
func (w *Walker) Entries(paths []string) iter.Seq[*fsentry.Entry] {
	return func(yield func(*fsentry.Entry) bool) {
		seen := make(map[string]struct{})
		for index, path := range paths {
			root := fsentry.Root{Path: path, Index: index}
			info, err := os.Stat(path)
			if err != nil {
				w.report(err, path)
				continue
			}
			if info.IsDir() {
				if !w.cfg.Recurse {
					continue
				}
				if !w.walkDir(path, root, seen, yield) {
					return
				}
				continue
			}
			if !w.yieldFile(path, root, info, seen, yield) {
				return
			}
		}
	}
}

// walkDir recurses into dir, pruning excluded names. It reports
// false when the consumer stopped the iteration.
func (w *Walker) walkDir(dir string, root fsentry.Root, seen map[string]struct{}, yield func(*fsentry.Entry) bool) bool {
	ents, err := os.ReadDir(dir)
	if err != nil {
		w.report(err, dir)
		return true
	}
	for _, d := range ents {
		name := d.Name()
		if w.excluded(name) {
			continue
		}
		path := filepath.Join(dir, name)
		if d.IsDir() {
			if !w.walkDir(path, root, seen, yield) {
				return false
			}
			continue
		}
		if d.Type()&os.ModeSymlink != 0 {
			if !w.cfg.IncludeSymlinks {
				continue
			}
			// Follow the link; directories behind links are not
			// recursed into.
			info, err := os.Stat(path)
			if err != nil {
				w.report(err, path)
				continue
			}
			if info.IsDir() {
				continue
			}
			if !w.yieldInfo(path, root, info, seen, yield) {
				return false
			}
			continue
		}
		if !d.Type().IsRegular() {
			continue
		}
		info, err := d.Info()
		if err != nil {
			w.report(err, path)
			continue
		}
		if !w.yieldInfo(path, root, info, seen, yield) {
			return false
		}
	}
	return true
}

// yieldFile handles a root path that names a file directly.
func (w *Walker) yieldFile(path string, root fsentry.Root, info os.FileInfo, seen map[string]struct{}, yield func(*fsentry.Entry) bool) bool {
	if w.excluded(filepath.Base(path)) {
		return true
	}
	if !w.cfg.IncludeSymlinks {
		if li, err := os.Lstat(path); err == nil && li.Mode()&os.ModeSymlink != 0 {
			return true
		}
	}
	if !info.Mode().IsRegular() {
		return true
	}
	return w.yieldInfo(path, root, info, seen, yield)
}

func (w *Walker) yieldInfo(path string, root fsentry.Root, info os.FileInfo, seen map[string]struct{}, yield func(*fsentry.Entry) bool) bool {
	if w.cfg.MinSize > 0 && info.Size() < w.cfg.MinSize {
		return true
	}
	if _, ok := seen[path]; ok {
		return true
	}
	seen[path] = struct{}{}
	return yield(fsentry.NewWithInfo(path, root, info))
}
