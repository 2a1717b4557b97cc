// Package sweep removes Maven resolver bookkeeping from a repository tree.
//
// A repository that served as a local Maven cache accumulates tracking
// files (_remote.repositories, *.lastUpdated, resolver-status.properties)
// and resolver directories (.cache, .meta). None of them are artifacts; a
// repository meant for offline distribution is smaller and cleaner without
// them. The sweep removes these leftovers and, unless told otherwise,
// prunes directories the removal emptied.
package sweep

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/mvnmirror/pkg/errors"
)

// parallelThreshold is the candidate count above which removal fans out
// over a worker pool.
const parallelThreshold = 50

// DefaultWorkers is the pool size used when Options.Workers is zero.
const DefaultWorkers = 8

// filePatterns match resolver bookkeeping files by base name.
var filePatterns = []string{
	"_remote.repositories",
	"resolver-status.properties",
	"*.lastUpdated",
	"*.repositories",
}

// junkDirs are resolver-owned directories removed wholesale.
var junkDirs = map[string]bool{
	".cache": true,
	".meta":  true,
}

// Options configures a sweep run.
type Options struct {
	// DryRun reports what would be removed without touching anything.
	DryRun bool
	// Workers sets the pool size for large candidate sets.
	Workers int
	// KeepEmptyDirs disables the bottom-up pruning of emptied directories.
	KeepEmptyDirs bool
	// ExtraPatterns are additional base-name globs to remove, on top of
	// the built-in resolver patterns.
	ExtraPatterns []string
	Logger        func(msg string, args ...any)
}

// Result tallies one sweep run.
type Result struct {
	FilesRemoved int
	DirsRemoved  int
	EmptyPruned  int
	BytesFreed   int64
	// Removed lists the repository-relative paths, sorted. In a dry run
	// these are the paths that would have been removed.
	Removed []string
	// Errs collects per-path removal failures; the sweep continues past
	// them.
	Errs []error
}

// Summary renders the result as a short text report.
func (r Result) Summary(dryRun bool) string {
	verb := "removed"
	if dryRun {
		verb = "would remove"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d files and %d directories (%s)\n",
		verb, r.FilesRemoved, r.DirsRemoved, humanBytes(r.BytesFreed))
	if r.EmptyPruned > 0 {
		fmt.Fprintf(&b, "pruned %d empty directories\n", r.EmptyPruned)
	}
	if len(r.Errs) > 0 {
		fmt.Fprintf(&b, "%d paths could not be removed\n", len(r.Errs))
	}
	return b.String()
}

// ReportName is the text report written into the swept repository.
const ReportName = "sweep-report.txt"

// WriteReport writes the sweep result as a plain-text report in the
// repository root and returns its path.
func (r Result) WriteReport(root string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "maven repository sweep, %s\n\n", time.Now().Format(time.RFC3339))
	b.WriteString(r.Summary(false))
	if len(r.Removed) > 0 {
		b.WriteString("\nremoved paths:\n")
		for _, rel := range r.Removed {
			fmt.Fprintf(&b, "  %s\n", rel)
		}
	}
	path := filepath.Join(root, ReportName)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

type candidate struct {
	path  string
	isDir bool
	size  int64
}

// Clean sweeps the repository rooted at root.
func Clean(ctx context.Context, root string, opts Options) (Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "repository %s", root)
	}
	if !info.IsDir() {
		return Result{}, errors.New(errors.ErrCodeInvalidPath, "repository %s is not a directory", root)
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}

	patterns := append(append([]string{}, filePatterns...), opts.ExtraPatterns...)
	candidates, err := collect(root, patterns)
	if err != nil {
		return Result{}, err
	}
	opts.Logger("found %d removal candidates", len(candidates))

	var res Result
	remove := func(c candidate) (int64, error) {
		if opts.DryRun {
			return c.size, nil
		}
		if c.isDir {
			return c.size, os.RemoveAll(c.path)
		}
		return c.size, os.Remove(c.path)
	}

	apply := func(c candidate) {
		freed, err := remove(c)
		res.record(root, c, freed, err)
	}

	if len(candidates) < parallelThreshold {
		for _, c := range candidates {
			if ctx.Err() != nil {
				break
			}
			apply(c)
		}
	} else {
		workers := opts.Workers
		if workers > len(candidates) {
			workers = len(candidates)
		}
		jobs := make(chan candidate, workers*2)
		var wg sync.WaitGroup
		var mu sync.Mutex
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for c := range jobs {
					freed, err := remove(c)
					mu.Lock()
					res.record(root, c, freed, err)
					mu.Unlock()
				}
			}()
		}
		for _, c := range candidates {
			if ctx.Err() != nil {
				break
			}
			jobs <- c
		}
		close(jobs)
		wg.Wait()
	}

	sort.Strings(res.Removed)

	if !opts.KeepEmptyDirs && !opts.DryRun {
		res.EmptyPruned = pruneEmptyDirs(root)
	}
	return res, ctx.Err()
}

func (r *Result) record(root string, c candidate, freed int64, err error) {
	if err != nil {
		r.Errs = append(r.Errs, fmt.Errorf("%s: %w", c.path, err))
		return
	}
	if c.isDir {
		r.DirsRemoved++
	} else {
		r.FilesRemoved++
	}
	r.BytesFreed += freed
	if rel, relErr := filepath.Rel(root, c.path); relErr == nil {
		r.Removed = append(r.Removed, rel)
	}
}

// collect walks the tree once, gathering matching files and junk
// directories. Junk directories are not descended into: they are removed
// as a unit, with their recursive size attributed to the directory.
func collect(root string, patterns []string) ([]candidate, error) {
	var out []candidate
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if d.IsDir() {
			if junkDirs[d.Name()] {
				out = append(out, candidate{path: path, isDir: true, size: dirSize(path)})
				return filepath.SkipDir
			}
			return nil
		}
		if matchesPattern(d.Name(), patterns) {
			var size int64
			if info, err := d.Info(); err == nil {
				size = info.Size()
			}
			out = append(out, candidate{path: path, size: size})
		}
		return nil
	})
	return out, err
}

func matchesPattern(name string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, _ := filepath.Match(pat, name); ok {
			return true
		}
	}
	return false
}

func dirSize(dir string) int64 {
	var total int64
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

// pruneEmptyDirs removes directories left empty by the sweep, deepest
// first so a chain of empty parents collapses in one pass. The root itself
// is never removed.
func pruneEmptyDirs(root string) int {
	var dirs []string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})

	pruned := 0
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		if os.Remove(dir) == nil {
			pruned++
		}
	}
	return pruned
}
