package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnmirror/pkg/analysis"
	"github.com/matzehuels/mvnmirror/pkg/artifact"
	"github.com/matzehuels/mvnmirror/pkg/cache"
	"github.com/matzehuels/mvnmirror/pkg/chain"
	"github.com/matzehuels/mvnmirror/pkg/chaindot"
	"github.com/matzehuels/mvnmirror/pkg/config"
	"github.com/matzehuels/mvnmirror/pkg/errors"
	"github.com/matzehuels/mvnmirror/pkg/maven"
	"github.com/matzehuels/mvnmirror/pkg/mirror"
	"github.com/matzehuels/mvnmirror/pkg/observability"
	"github.com/matzehuels/mvnmirror/pkg/pom"
	"github.com/matzehuels/mvnmirror/pkg/report"
	"github.com/matzehuels/mvnmirror/pkg/treeparse"
)

type traceOptions struct {
	projectDir string
	sourceRepo string
	targetRepo string

	analyzeOnly  bool
	retryMissing bool
	verify       bool
	refresh      bool
	workers      int
	reportPath   string
	dotPath      string
	svgPath      string
	settingsPath string
}

func newTraceCmd() *cobra.Command {
	var opts traceOptions

	cmd := &cobra.Command{
		Use:   "trace <project-dir> <source-repo> <target-repo>",
		Short: "Trace a project's dependencies and mirror them into a repository",
		Long: `Trace resolves the full dependency tree of a Maven project, reconstructs
the provenance chain of every artifact, and copies the required artifacts
from the source repository into the target repository. Artifacts that
cannot be copied are classified by how much their absence matters
(essential, optional, provided, plugin, conflict).`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.projectDir = args[0]
			opts.sourceRepo = args[1]
			opts.targetRepo = args[2]
			return runTrace(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.analyzeOnly, "analyze-only", false, "analyze and report without copying anything")
	cmd.Flags().BoolVar(&opts.retryMissing, "retry-missing", false, "only reattempt the failed copies of the previous run")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "verify the build (compile and package) after mirroring")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached Maven output")
	cmd.Flags().IntVarP(&opts.workers, "jobs", "j", 0, "parallel copy workers (0 = config default)")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "report output path (default: <target-repo>/"+report.DefaultName+")")
	cmd.Flags().StringVar(&opts.dotPath, "dot", "", "write the provenance graph as Graphviz DOT to this path")
	cmd.Flags().StringVar(&opts.svgPath, "svg", "", "render the provenance graph as SVG to this path")
	cmd.Flags().StringVar(&opts.settingsPath, "offline-settings", "", "write a settings.xml pinned to the mirrored repository")

	return cmd
}

func runTrace(ctx context.Context, opts traceOptions) error {
	logger := loggerFromContext(ctx)

	cfg, err := config.Load(opts.projectDir)
	if err != nil {
		return err
	}
	if opts.workers == 0 {
		opts.workers = cfg.Mirror.Workers
	}
	if opts.reportPath == "" {
		opts.reportPath = filepath.Join(opts.targetRepo, report.DefaultName)
	}

	store, err := openCache(cfg)
	if err != nil {
		logger.Warn("cache unavailable, continuing without", "err", err)
		store = cache.NewNullCache()
	}
	defer store.Close()

	if opts.retryMissing {
		return runRetry(ctx, opts, logger)
	}

	tool, err := maven.New(ctx, opts.projectDir, maven.Options{
		Cache:    store,
		CacheTTL: cfg.Cache.TTL.Duration(),
		Refresh:  opts.refresh,
		Timeout:  cfg.Maven.Timeout.Duration(),
		Logger:   logger.Debugf,
	})
	if err != nil {
		return err
	}

	actx, err := resolveTree(ctx, tool, logger)
	if err != nil {
		return err
	}

	projInfo := report.ProjectInfo{
		Path:       opts.projectDir,
		SourceRepo: opts.sourceRepo,
		TargetRepo: opts.targetRepo,
	}
	harvestPOMs(ctx, tool, opts.projectDir, actx, &projInfo, logger)

	if !actx.HasChains() {
		logger.Debug("no chains from primary pass, reconstructing from a fresh plain tree")
		if err := rebuildChains(ctx, tool.DependencyTree, actx); err != nil {
			logger.Warn("chain reconstruction failed", "err", err)
		}
	}

	candidates := sortedCandidates(actx)
	printInfo("%d artifacts eligible for mirroring", len(candidates))

	var summary mirror.Summary
	var missing []artifact.Key
	if opts.analyzeOnly {
		missing = missingInSource(opts.sourceRepo, candidates)
	} else {
		copier, err := mirror.New(opts.sourceRepo, opts.targetRepo, mirror.Options{
			Workers: opts.workers,
			Logger:  logger.Debugf,
		})
		if err != nil {
			return err
		}
		prog := newProgress(logger)
		summary = copier.Copy(ctx, candidates)
		observability.Trace().OnCopyBatch(ctx, summary.Copied, summary.Skipped, summary.Failed, time.Since(prog.start))
		prog.done(fmt.Sprintf("Copied %d artifacts, %d failed", summary.Copied, summary.Failed))
		missing = missingFromSummary(summary)
	}

	part := analysis.Classify(actx.Artifacts, missing)

	var check *report.BuildCheck
	if opts.verify {
		sp := newSpinner(ctx, "Verifying build against mirrored repository")
		sp.Start()
		v := tool.VerifyBuild(ctx)
		check = &report.BuildCheck{
			Performed: true,
			CompileOK: v.CompileOK,
			PackageOK: v.PackageOK,
			Missing:   v.Missing,
		}
		if v.CompileOK && v.PackageOK {
			sp.StopWithSuccess("Build verification passed")
		} else {
			sp.StopWithError(fmt.Sprintf("Build verification failed (%d unresolved artifacts)", len(v.Missing)))
			logger.Warn("build verification failed", "err", v.Err)
		}
	}

	rep := report.Build(report.Params{
		Project:      projInfo,
		Analysis:     actx,
		Partition:    part,
		Copies:       summary,
		Verification: check,
		SimilarVersions: func(k artifact.Key) []string {
			return mirror.AvailableVersions(opts.sourceRepo, k)
		},
	})
	if err := rep.Save(opts.reportPath); err != nil {
		return err
	}

	if err := writeGraphs(ctx, actx, missing, opts); err != nil {
		return err
	}
	if opts.settingsPath != "" {
		if err := report.WriteOfflineSettings(opts.settingsPath, opts.targetRepo); err != nil {
			return err
		}
		printFile(opts.settingsPath)
	}

	printTraceSummary(rep, opts)

	if critical := part.Critical(); len(critical) > 0 {
		return errors.New(errors.ErrCodeSourceMissing,
			"%d essential or plugin artifacts could not be mirrored", len(critical))
	}
	return nil
}

// resolveTree fetches and parses the dependency tree, falling back from
// the verbose to the plain dialect when the verbose invocation fails.
func resolveTree(ctx context.Context, tool *maven.Tool, logger *log.Logger) (*analysis.Context, error) {
	sp := newSpinner(ctx, "Resolving dependency tree")
	sp.Start()

	actx := analysis.NewContext()
	mode := treeparse.Verbose
	modeName := "verbose"

	text, err := tool.DependencyTree(ctx, true)
	if err != nil {
		logger.Warn("verbose dependency tree failed, retrying without -Dverbose",
			"err", errors.Wrap(errors.ErrCodeParseDegraded, err, "verbose tree unavailable"))
		text, err = tool.DependencyTree(ctx, false)
		if err != nil {
			sp.StopWithError("Maven could not produce a dependency tree")
			return nil, err
		}
		mode = treeparse.Plain
		modeName = "plain"
		actx.Degraded = true
	}

	nodes := treeparse.Parse(text, mode)
	actx.AddTree(nodes)
	observability.Trace().OnTreePass(ctx, modeName, len(nodes), nil)

	sp.StopWithSuccess(fmt.Sprintf("Parsed %d dependency entries (%s tree)", len(nodes), modeName))
	if actx.Degraded {
		printWarning("verbose tree unavailable: optional and conflict markers are missing from this run")
	}
	return actx, nil
}

// rebuildChains fetches the plain dependency tree again and reconstructs
// ancestry with shifted depths. Only called when the primary pass yielded
// no chains at all, which means its output parsed to nothing.
func rebuildChains(ctx context.Context, fetch func(context.Context, bool) (string, error), actx *analysis.Context) error {
	text, err := fetch(ctx, false)
	if err != nil {
		return err
	}
	nodes := treeparse.Parse(text, treeparse.Plain)
	actx.RebuildChains(chain.BuildShifted(nodes))
	return nil
}

// harvestPOMs merges the effective POM (managed dependencies, build
// plugins) and the raw pom.xml (direct dependencies) into the analysis.
// Both passes are best-effort: a failure degrades coverage, not the run.
func harvestPOMs(ctx context.Context, tool *maven.Tool, projectDir string, actx *analysis.Context, info *report.ProjectInfo, logger *log.Logger) {
	if data, err := tool.EffectivePOM(ctx); err != nil {
		logger.Warn("effective POM unavailable", "err", err)
		observability.Trace().OnPOMPass(ctx, "effective", 0, err)
	} else if proj, err := pom.Parse(data); err != nil {
		logger.Warn("effective POM unparsable", "err", err)
		observability.Trace().OnPOMPass(ctx, "effective", 0, err)
	} else {
		info.GroupID = proj.GroupID
		info.ArtifactID = proj.ArtifactID
		info.Version = proj.Version
		n := 0
		for _, rec := range proj.ManagedRecords() {
			actx.Fill(rec)
			n++
		}
		for _, rec := range proj.PluginRecords() {
			actx.Fill(rec)
			n++
		}
		observability.Trace().OnPOMPass(ctx, "effective", n, nil)
	}

	if proj, err := pom.ParseFile(filepath.Join(projectDir, "pom.xml")); err != nil {
		logger.Warn("project pom.xml unparsable", "err", err)
		observability.Trace().OnPOMPass(ctx, "direct", 0, err)
	} else {
		recs := proj.DirectRecords()
		for _, rec := range recs {
			actx.Fill(rec)
		}
		observability.Trace().OnPOMPass(ctx, "direct", len(recs), nil)
	}
}

// runRetry reloads the previous report and reattempts only its failed
// copies. The rest of the target repository is left untouched.
func runRetry(ctx context.Context, opts traceOptions, logger *log.Logger) error {
	prev, err := report.Load(opts.reportPath)
	if err != nil {
		return err
	}
	recs := prev.RetryRecords()
	if len(recs) == 0 {
		printSuccess("Previous run has no failed copies to retry")
		return nil
	}
	printInfo("Retrying %d failed copies from run %s", len(recs), prev.RunID)

	copier, err := mirror.New(opts.sourceRepo, opts.targetRepo, mirror.Options{
		Workers:      opts.workers,
		SkipExisting: true,
		Logger:       logger.Debugf,
	})
	if err != nil {
		return err
	}
	summary := copier.Copy(ctx, recs)
	printSuccess("Copied %d, skipped %d, still failing %d", summary.Copied, summary.Skipped, summary.Failed)
	for _, o := range summary.Failures() {
		printDetail("%s:%s: %s", o.Key, o.Version, errors.UserMessage(o.Err))
	}
	if summary.Failed > 0 {
		return errors.New(errors.ErrCodeSourceMissing, "%d copies still failing", summary.Failed)
	}
	return nil
}

func openCache(cfg config.Config) (cache.Cache, error) {
	if cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	dir, err := cfg.CacheDir()
	if err != nil {
		return nil, err
	}
	return cache.NewFileCache(dir)
}

// sortedCandidates returns the mirrorable records in stable coordinate
// order.
func sortedCandidates(actx *analysis.Context) []artifact.Record {
	recs := actx.Candidates()
	out := make([]artifact.Record, 0, len(recs))
	for _, rec := range recs {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}

// missingInSource determines absence by stat alone, for analyze-only runs
// where nothing is copied.
func missingInSource(sourceRepo string, recs []artifact.Record) []artifact.Key {
	var missing []artifact.Key
	for _, rec := range recs {
		if !rec.Resolved() {
			missing = append(missing, rec.Key)
			continue
		}
		if info, err := os.Stat(filepath.Join(sourceRepo, rec.RepoPath())); err != nil || !info.IsDir() {
			missing = append(missing, rec.Key)
		}
	}
	return missing
}

// missingFromSummary extracts the keys whose copy failed because the
// artifact is absent or unresolvable. Plain IO failures are copy errors,
// not missing artifacts.
func missingFromSummary(s mirror.Summary) []artifact.Key {
	var missing []artifact.Key
	for _, o := range s.Failures() {
		switch errors.GetCode(o.Err) {
		case errors.ErrCodeSourceMissing, errors.ErrCodeUnresolvedVersion:
			missing = append(missing, o.Key)
		}
	}
	return missing
}

func writeGraphs(ctx context.Context, actx *analysis.Context, missing []artifact.Key, opts traceOptions) error {
	if opts.dotPath == "" && opts.svgPath == "" {
		return nil
	}
	dot := chaindot.ToDOT(actx.Chains, chaindot.Options{Highlight: missing})
	if opts.dotPath != "" {
		if err := os.WriteFile(opts.dotPath, []byte(dot), 0644); err != nil {
			return err
		}
		printFile(opts.dotPath)
	}
	if opts.svgPath != "" {
		svg, err := chaindot.RenderSVG(ctx, dot)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.svgPath, svg, 0644); err != nil {
			return err
		}
		printFile(opts.svgPath)
	}
	return nil
}

func printTraceSummary(rep *report.Report, opts traceOptions) {
	printNewline()
	fmt.Println(StyleTitle.Render("Trace summary"))
	if rep.Project.ArtifactID != "" {
		printKeyValue("Project", fmt.Sprintf("%s:%s:%s", rep.Project.GroupID, rep.Project.ArtifactID, rep.Project.Version))
	}
	printKeyValue("Artifacts", fmt.Sprintf("%d total, %d active, %d excluded",
		rep.Statistics.Total, rep.Statistics.Active, rep.Statistics.Excluded))
	if !opts.analyzeOnly {
		printKeyValue("Copied", fmt.Sprintf("%d ok, %d skipped, %d failed",
			rep.Statistics.Copied, rep.Statistics.Skipped, rep.Statistics.Failed))
	}

	if rep.MissingAnalysis.Size() > 0 {
		printNewline()
		fmt.Println(StyleWarning.Render(fmt.Sprintf("%d artifacts missing from the source repository:", rep.MissingAnalysis.Size())))
		for _, bucket := range rep.MissingAnalysis.Buckets() {
			if len(bucket.Keys) == 0 {
				continue
			}
			style := StyleDim
			if bucket.Name == analysis.BucketEssential || bucket.Name == analysis.BucketPlugin {
				style = StyleError
			}
			printDetail("%s", style.Render(fmt.Sprintf("%-9s %d", bucket.Name, len(bucket.Keys))))
		}
	}

	for _, fc := range rep.FailedCopies {
		if len(fc.SimilarVersions) == 0 {
			continue
		}
		printDetail("%s:%s not found; source has %v", fc.Coordinate, fc.Version, fc.SimilarVersions)
	}

	printNewline()
	printFile(opts.reportPath)
}
