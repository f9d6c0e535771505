// Package crawler walks root directories in parallel and yields the
// file system entries found under them.
//
// The walk never descends through symlinks, skips hidden entries, stops at a
// per-root depth bound and prunes blacklisted directory names before
// descending. Access errors skip the affected entry or subtree.
package crawler

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 8

// blacklist holds directory names never descended into, compared
// case-insensitively
var blacklist = map[string]bool{
	// version control and IDE metadata
	".git": true, ".svn": true, ".hg": true, ".idea": true, ".vscode": true, ".settings": true,
	// package manager and language caches
	"node_modules": true, "bower_components": true, "vendor": true,
	"__pycache__": true, "site-packages": true, "gems": true, "cargo": true, ".cargo": true,
	// build output
	"target": true, "build": true, "dist": true, "obj": true,
	// OS system and cache directories
	"$recycle.bin": true, "system volume information": true, "msocache": true, "config.msi": true,
	"windows": true, "programdata": true, "perflogs": true, "lost+found": true, "proc": true,
	// generic temp and cache names
	"temp": true, "tmp": true, "cache": true, "caches": true, ".cache": true,
}

// Blacklisted reports whether a directory called name is pruned
func Blacklisted(name string) bool {
	return blacklist[strings.ToLower(name)]
}

// Target is a root directory and the depth it may be walked to. The root
// itself is depth 0; entries directly inside it are depth 1.
type Target struct {
	Path     string
	MaxDepth int
}

// Entry is a file system object found by the crawler
type Entry struct {
	Path string
	Name string
	// Bundle is set for directories yielded as a single item
	Bundle bool
}

// Crawler walks targets concurrently
type Crawler struct {
	// Workers bounds the number of directories read at once
	Workers int
	// IsBundle marks directories that are yielded instead of descended
	IsBundle func(name string) bool

	Logger *log.Logger
}

// New returns a Crawler with the given parallelism
func New(workers int, isBundle func(string) bool, logger *log.Logger) *Crawler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Crawler{
		Workers:  workers,
		IsBundle: isBundle,
		Logger:   logger,
	}
}

// Crawl walks every target and sends the entries it finds to out. It
// closes out when all targets are done. Each call reads the file system
// afresh.
func (c *Crawler) Crawl(ctx context.Context, targets []Target, out chan<- Entry) error {
	defer close(out)

	workers := c.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for _, t := range targets {
		if t.MaxDepth <= 0 {
			continue
		}
		g.Go(func() error {
			c.walk(ctx, &g, t.Path, 0, t.MaxDepth, out)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Collect crawls targets and returns every entry found
func (c *Crawler) Collect(ctx context.Context, targets []Target) ([]Entry, error) {
	out := make(chan Entry, 256)
	errc := make(chan error, 1)
	go func() {
		errc <- c.Crawl(ctx, targets, out)
	}()

	var entries []Entry
	for e := range out {
		entries = append(entries, e)
	}
	return entries, <-errc
}

// walk reads dir, which sits at depth, and hands its subdirectories to
// free workers or walks them inline
func (c *Crawler) walk(ctx context.Context, g *errgroup.Group, dir string, depth, maxDepth int, out chan<- Entry) {
	if ctx.Err() != nil {
		return
	}

	children, err := os.ReadDir(dir)
	if err != nil {
		// ReadDir returns what it read before the failure
		c.logger().Debug("skipping unreadable directory", "dir", dir, "err", err)
	}

	children = prune(children)

	for _, child := range children {
		name := child.Name()
		if isHidden(child) {
			continue
		}

		path := filepath.Join(dir, name)
		mode := child.Type()

		switch {
		case mode&fs.ModeSymlink != 0:
			e, ok := c.link(path, name)
			if ok && !c.emit(ctx, out, e) {
				return
			}
		case child.IsDir():
			if c.IsBundle != nil && c.IsBundle(name) {
				if !c.emit(ctx, out, Entry{Path: path, Name: name, Bundle: true}) {
					return
				}
				continue
			}
			if depth+1 >= maxDepth {
				continue
			}
			sub := func() error {
				c.walk(ctx, g, path, depth+1, maxDepth, out)
				return nil
			}
			if !g.TryGo(sub) {
				_ = sub()
			}
		case mode.IsRegular():
			if !c.emit(ctx, out, Entry{Path: path, Name: name}) {
				return
			}
		}
	}
}

// link resolves a symlink without descending into it. Only links to
// regular files and to bundles are kept.
func (c *Crawler) link(path, name string) (Entry, bool) {
	info, err := os.Stat(path)
	if err != nil {
		c.logger().Debug("skipping broken symlink", "path", path, "err", err)
		return Entry{}, false
	}
	switch {
	case info.Mode().IsRegular():
		return Entry{Path: path, Name: name}, true
	case info.IsDir() && c.IsBundle != nil && c.IsBundle(name):
		return Entry{Path: path, Name: name, Bundle: true}, true
	}
	return Entry{}, false
}

func (c *Crawler) emit(ctx context.Context, out chan<- Entry, e Entry) bool {
	select {
	case out <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Crawler) logger() *log.Logger {
	if c.Logger == nil {
		return log.New(io.Discard)
	}
	return c.Logger
}

// prune drops blacklisted directories from children. It runs on the
// listing before any child is descended into.
func prune(children []os.DirEntry) []os.DirEntry {
	kept := children[:0]
	for _, child := range children {
		if child.IsDir() && Blacklisted(child.Name()) {
			continue
		}
		kept = append(kept, child)
	}
	return kept
}
