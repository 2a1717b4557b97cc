// Package mirror copies artifacts between Maven repository trees on the
// local filesystem.
//
// A Maven repository lays artifacts out as group/artifact/version
// directories, with repository metadata (maven-metadata*.xml) one level up
// at the artifact directory. The copier replicates both: all regular files
// in the version directory, plus the metadata siblings, so the target
// repository stays resolvable without a remote round trip.
package mirror

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/matzehuels/mvnmirror/pkg/artifact"
	"github.com/matzehuels/mvnmirror/pkg/errors"
)

// sequentialThreshold is the batch size below which copying runs inline.
// Worker fan-out only pays off once the batch is big enough to hide the
// per-goroutine overhead.
const sequentialThreshold = 10

// DefaultWorkers is the pool size used when Options.Workers is zero.
const DefaultWorkers = 8

// metadataPrefix marks repository metadata files kept at the artifact
// directory level.
const metadataPrefix = "maven-metadata"

// Status describes the fate of one artifact in a copy batch.
type Status string

const (
	// StatusCopied means the version directory was replicated.
	StatusCopied Status = "copied"
	// StatusSkipped means the target already held the version and
	// SkipExisting was set.
	StatusSkipped Status = "skipped"
	// StatusFailed means the artifact could not be copied; Err says why.
	StatusFailed Status = "failed"
)

// Outcome records the result of copying one artifact.
type Outcome struct {
	Key     artifact.Key
	Version string
	Status  Status
	// Files lists the target-relative paths of the copied files, metadata
	// included. Empty on failure.
	Files []string
	Err   error
}

// Summary aggregates a whole copy batch. Outcomes are sorted by
// coordinate so output and reports are stable across runs.
type Summary struct {
	Outcomes []Outcome
	Copied   int
	Skipped  int
	Failed   int
}

// Failures returns the failed outcomes in order.
func (s Summary) Failures() []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}

// Options configures a Copier.
type Options struct {
	// Workers sets the pool size for large batches.
	Workers int
	// SkipExisting treats a populated target version directory as done.
	// Used by resume runs so interrupted mirrors pick up where they left.
	SkipExisting bool
	Logger       func(msg string, args ...any)
}

// Copier copies artifact directories from one repository root to another.
type Copier struct {
	source string
	target string
	opts   Options
}

// New creates a Copier. The source root must exist; the target root is
// created on demand.
func New(source, target string, opts Options) (*Copier, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "source repository %s", source)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "source repository %s is not a directory", source)
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return &Copier{source: source, target: target, opts: opts}, nil
}

// Copy replicates every record in the batch and returns the summary.
// Small batches run inline; larger ones fan out over a worker pool. The
// operation is idempotent: recopying an artifact overwrites its files.
func (c *Copier) Copy(ctx context.Context, recs []artifact.Record) Summary {
	outcomes := make([]Outcome, len(recs))

	if len(recs) < sequentialThreshold {
		for i, rec := range recs {
			outcomes[i] = c.copyOne(ctx, rec)
		}
	} else {
		workers := c.opts.Workers
		if workers > len(recs) {
			workers = len(recs)
		}
		jobs := make(chan int, workers*2)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					outcomes[i] = c.copyOne(ctx, recs[i])
				}
			}()
		}
		for i := range recs {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}

	sort.Slice(outcomes, func(i, j int) bool {
		if outcomes[i].Key != outcomes[j].Key {
			return outcomes[i].Key.String() < outcomes[j].Key.String()
		}
		return outcomes[i].Version < outcomes[j].Version
	})

	var s Summary
	s.Outcomes = outcomes
	for _, o := range outcomes {
		switch o.Status {
		case StatusCopied:
			s.Copied++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}

func (c *Copier) copyOne(ctx context.Context, rec artifact.Record) Outcome {
	out := Outcome{Key: rec.Key, Version: rec.Version}

	if ctx.Err() != nil {
		out.Status = StatusFailed
		out.Err = ctx.Err()
		return out
	}

	if !rec.Resolved() || rec.Version == artifact.VersionLatest {
		out.Status = StatusFailed
		out.Err = errors.New(errors.ErrCodeUnresolvedVersion,
			"version %q for %s cannot be located in a repository", rec.Version, rec.Key)
		return out
	}

	relPath := rec.RepoPath()
	srcDir := filepath.Join(c.source, relPath)
	if info, err := os.Stat(srcDir); err != nil || !info.IsDir() {
		out.Status = StatusFailed
		out.Err = errors.New(errors.ErrCodeSourceMissing, "%s not present in source repository", rec.Key)
		return out
	}

	dstDir := filepath.Join(c.target, relPath)
	if c.opts.SkipExisting && dirPopulated(dstDir) {
		out.Status = StatusSkipped
		return out
	}

	files, err := copyDirFiles(srcDir, dstDir, relPath)
	if err != nil {
		out.Status = StatusFailed
		out.Err = errors.Wrap(errors.ErrCodeCopyIO, err, "copying %s", rec.Key)
		return out
	}
	out.Files = files

	// Repository metadata lives beside the version directories.
	meta, err := copyMetadata(filepath.Dir(srcDir), filepath.Dir(dstDir), filepath.Dir(relPath))
	if err != nil {
		c.opts.Logger("metadata copy for %s: %v", rec.Key, err)
	}
	out.Files = append(out.Files, meta...)

	out.Status = StatusCopied
	return out
}

func dirPopulated(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}

// copyDirFiles copies the regular files of src into dst, creating dst as
// needed, and returns their target-relative paths. Subdirectories are
// ignored: a version directory is flat.
func copyDirFiles(src, dst, rel string) ([]string, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return nil, err
	}
	var copied []string
	for _, e := range entries {
		if e.IsDir() || !e.Type().IsRegular() {
			continue
		}
		if err := copyFile(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return copied, err
		}
		copied = append(copied, filepath.ToSlash(filepath.Join(rel, e.Name())))
	}
	return copied, nil
}

// copyMetadata copies maven-metadata* files from the source artifact
// directory into the target one and returns their target-relative paths.
func copyMetadata(src, dst, rel string) ([]string, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, err
	}
	var copied []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), metadataPrefix) {
			continue
		}
		if err := os.MkdirAll(dst, 0755); err != nil {
			return copied, err
		}
		if err := copyFile(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return copied, err
		}
		copied = append(copied, filepath.ToSlash(filepath.Join(rel, e.Name())))
	}
	return copied, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// AvailableVersions lists the versions of an artifact present in a
// repository root, newest first, with numeric segments compared
// numerically. Used to suggest near misses when a pinned version is
// absent.
func AvailableVersions(repo string, key artifact.Key) []string {
	dir := filepath.Join(repo, filepath.FromSlash(strings.ReplaceAll(key.GroupID, ".", "/")), key.ArtifactID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	sort.Slice(versions, func(i, j int) bool {
		return versionLess(versions[j], versions[i])
	})
	return versions
}

// versionLess orders versions segment by segment, numerically where both
// segments are numbers, lexically otherwise.
func versionLess(a, b string) bool {
	as := strings.FieldsFunc(a, func(r rune) bool { return r == '.' || r == '-' })
	bs := strings.FieldsFunc(b, func(r rune) bool { return r == '.' || r == '-' })
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		switch {
		case aerr == nil && berr == nil:
			if an != bn {
				return an < bn
			}
		case aerr == nil:
			return true // numeric sorts before qualifier
		case berr == nil:
			return false
		default:
			if as[i] != bs[i] {
				return as[i] < bs[i]
			}
		}
	}
	return len(as) < len(bs)
}
