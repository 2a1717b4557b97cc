// Package maven invokes the external Maven build tool and captures its
// output for analysis.
//
// Maven is a collaborator, not a library: the tracer shells out for the
// dependency tree, the effective POM, and build verification, and treats
// the textual output as the source of truth. Invocations are slow, so tree
// and effective-POM output is memoized through a cache keyed by the
// project's pom.xml content hash; editing the POM invalidates the cache
// naturally.
package maven

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"time"

	"github.com/matzehuels/mvnmirror/pkg/cache"
	"github.com/matzehuels/mvnmirror/pkg/errors"
	"github.com/matzehuels/mvnmirror/pkg/observability"
)

// DefaultTimeout bounds a single Maven invocation. Tree dumps and
// verification builds on large projects are slow but not unbounded.
const DefaultTimeout = 5 * time.Minute

// probeTimeout bounds the initial "mvn -version" probe.
const probeTimeout = 10 * time.Second

// runner executes one external command and returns combined output.
// Tests substitute this to avoid requiring a Maven installation.
type runner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.Bytes(), err
}

// Options configures a Tool.
type Options struct {
	Cache    cache.Cache   // nil disables memoization
	CacheTTL time.Duration // expiry for memoized output
	Refresh  bool          // bypass cached output
	Timeout  time.Duration // per-invocation limit, DefaultTimeout if zero
	Logger   func(msg string, args ...any)
}

func (o Options) withDefaults() Options {
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = func(string, ...any) {}
	}
	return o
}

// Tool is a handle on the Maven installation, bound to one project
// directory.
type Tool struct {
	cmd     string
	dir     string
	pomHash string
	opts    Options
	run     runner
}

// Find locates the Maven command. On Windows the launcher is a batch
// script, so mvn.cmd and mvn.bat are probed before the bare name. Each
// candidate is verified by running "-version".
func Find(ctx context.Context) (string, error) {
	candidates := []string{"mvn"}
	if runtime.GOOS == "windows" {
		candidates = []string{"mvn.cmd", "mvn.bat", "mvn"}
	}

	for _, cmd := range candidates {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		_, err := execRunner(probeCtx, "", cmd, "-version")
		cancel()
		if err == nil {
			return cmd, nil
		}
	}
	return "", errors.New(errors.ErrCodeToolNotFound, "maven command not found on PATH")
}

// New binds a Tool to a project directory. The directory must contain a
// pom.xml; its content hash becomes part of every cache key.
func New(ctx context.Context, projectDir string, opts Options) (*Tool, error) {
	cmd, err := Find(ctx)
	if err != nil {
		return nil, err
	}
	return newWithRunner(projectDir, cmd, opts, execRunner)
}

func newWithRunner(projectDir, cmd string, opts Options, run runner) (*Tool, error) {
	pomData, err := os.ReadFile(filepath.Join(projectDir, "pom.xml"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "no pom.xml in %s", projectDir)
	}
	return &Tool{
		cmd:     cmd,
		dir:     projectDir,
		pomHash: cache.Hash(pomData),
		opts:    opts.withDefaults(),
		run:     run,
	}, nil
}

// DependencyTree runs "mvn dependency:tree" and returns the raw text.
// With verbose=true the tree includes optionality and conflict
// annotations. Output is memoized per POM hash and flag set.
func (t *Tool) DependencyTree(ctx context.Context, verbose bool) (string, error) {
	args := []string{"dependency:tree", "-DoutputType=text"}
	if verbose {
		args = append(args, "-Dverbose=true")
	}
	out, err := t.invoke(ctx, "dependency:tree", args, verbose)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// EffectivePOM runs "mvn help:effective-pom" and returns the resolved POM
// document. Output is memoized per POM hash.
func (t *Tool) EffectivePOM(ctx context.Context) ([]byte, error) {
	key := cache.InvocationKey("help:effective-pom", t.pomHash)
	if !t.opts.Refresh {
		if data, hit, _ := t.opts.Cache.Get(ctx, key); hit {
			observability.Cache().OnHit(ctx, "help:effective-pom")
			t.opts.Logger("effective-pom: cache hit")
			return data, nil
		}
		observability.Cache().OnMiss(ctx, "help:effective-pom")
	}

	tmp, err := os.CreateTemp("", "effective-pom-*.xml")
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	runCtx, cancel := context.WithTimeout(ctx, t.opts.Timeout)
	defer cancel()
	if _, err := t.run(runCtx, t.dir, t.cmd, "help:effective-pom", "-Doutput="+tmpPath); err != nil {
		return nil, wrapTimeout(runCtx, err, "help:effective-pom")
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, err
	}
	_ = t.opts.Cache.Set(ctx, key, data, t.opts.CacheTTL)
	return data, nil
}

// invoke runs a memoized Maven goal and returns its combined output.
func (t *Tool) invoke(ctx context.Context, goal string, args []string, keyParts ...any) ([]byte, error) {
	key := cache.InvocationKey(goal, t.pomHash, keyParts...)
	if !t.opts.Refresh {
		if data, hit, _ := t.opts.Cache.Get(ctx, key); hit {
			observability.Cache().OnHit(ctx, goal)
			t.opts.Logger("%s: cache hit", goal)
			return data, nil
		}
		observability.Cache().OnMiss(ctx, goal)
	}

	runCtx, cancel := context.WithTimeout(ctx, t.opts.Timeout)
	defer cancel()
	out, err := t.run(runCtx, t.dir, t.cmd, args...)
	if err != nil {
		return nil, wrapTimeout(runCtx, err, goal)
	}

	_ = t.opts.Cache.Set(ctx, key, out, t.opts.CacheTTL)
	return out, nil
}

func wrapTimeout(ctx context.Context, err error, goal string) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.Wrap(errors.ErrCodeTimeout, err, "%s timed out", goal)
	}
	return fmt.Errorf("%s: %w", goal, err)
}

// Verification is the outcome of the build-verification pass. It is
// evidence for classification confidence only: a failed verification never
// blocks reporting.
type Verification struct {
	CompileOK bool
	PackageOK bool
	// Missing lists artifact coordinates Maven complained about, merged
	// across both phases and deduplicated.
	Missing []string
	// Err carries the BUILD_VERIFY-coded failure of whichever phase broke.
	Err error
}

// VerifyBuild compiles and, if that succeeds, packages the project to
// corroborate the missing-artifact classification. Never memoized: the
// point is to exercise the repository as it currently stands.
func (t *Tool) VerifyBuild(ctx context.Context) Verification {
	var v Verification

	runCtx, cancel := context.WithTimeout(ctx, t.opts.Timeout)
	out, err := t.run(runCtx, t.dir, t.cmd, "compile", "-q")
	cancel()
	v.CompileOK = err == nil
	if err != nil {
		t.opts.Logger("compile failed: %v", err)
		v.Missing = ExtractMissing(string(out))
		v.Err = errors.Wrap(errors.ErrCodeBuildVerify, err, "compile failed with %d unresolved artifacts", len(v.Missing))
		return v
	}

	runCtx, cancel = context.WithTimeout(ctx, t.opts.Timeout)
	out, err = t.run(runCtx, t.dir, t.cmd, "package", "-DskipTests", "-q")
	cancel()
	v.PackageOK = err == nil
	if err != nil {
		t.opts.Logger("package failed: %v", err)
		v.Missing = ExtractMissing(string(out))
		v.Err = errors.Wrap(errors.ErrCodeBuildVerify, err, "package failed with %d unresolved artifacts", len(v.Missing))
	}
	return v
}

// missingPatterns are the resolution-failure messages Maven emits.
var missingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Could not find artifact ([^:\s]+:[^:\s]+:[^:\s]+:[^:\s]+)`),
	regexp.MustCompile(`Failure to find ([^:\s]+:[^:\s]+:[^:\s]+:[^:\s]+)`),
	regexp.MustCompile(`The following artifacts could not be resolved: ([^:\s]+:[^:\s]+:[^:\s]+:[^:\s]+)`),
	regexp.MustCompile(`Missing artifact ([^:\s]+:[^:\s]+:[^:\s]+:[^:\s]+)`),
}

// ExtractMissing pulls missing-artifact coordinates out of Maven error
// output, deduplicated and sorted.
func ExtractMissing(output string) []string {
	seen := make(map[string]bool)
	for _, re := range missingPatterns {
		for _, m := range re.FindAllStringSubmatch(output, -1) {
			seen[m[1]] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for coord := range seen {
		out = append(out, coord)
	}
	sort.Strings(out)
	return out
}
