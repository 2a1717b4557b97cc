package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnmirror/pkg/config"
	"github.com/matzehuels/mvnmirror/pkg/observability"
	"github.com/matzehuels/mvnmirror/pkg/sweep"
)

func newSweepCmd() *cobra.Command {
	var (
		dryRun        bool
		workers       int
		keepEmptyDirs bool
	)

	cmd := &cobra.Command{
		Use:   "sweep <repository>",
		Short: "Remove Maven resolver bookkeeping from a repository",
		Long: `Sweep deletes resolver tracking files (_remote.repositories,
*.lastUpdated, *.repositories, resolver-status.properties) and resolver
directories (.cache, .meta) from a repository tree, then prunes the
directories the removal emptied. Artifacts themselves are never touched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := config.Load("")
			if err != nil {
				return err
			}
			if workers == 0 {
				workers = cfg.Sweep.Workers
			}

			prog := newProgress(logger)
			res, err := sweep.Clean(ctx, args[0], sweep.Options{
				DryRun:        dryRun,
				Workers:       workers,
				KeepEmptyDirs: keepEmptyDirs,
				ExtraPatterns: cfg.Sweep.ExtraPatterns,
				Logger:        logger.Debugf,
			})
			if err != nil {
				return err
			}
			observability.Sweep().OnSweep(ctx, res.FilesRemoved, res.DirsRemoved, res.BytesFreed, time.Since(prog.start))

			if dryRun {
				for _, rel := range res.Removed {
					printDetail("%s", rel)
				}
			}
			fmt.Print(res.Summary(dryRun))
			for _, e := range res.Errs {
				printWarning("%v", e)
			}
			if !dryRun {
				if path, err := res.WriteReport(args[0]); err != nil {
					printWarning("sweep report: %v", err)
				} else {
					printFile(path)
				}
			}
			prog.done(fmt.Sprintf("Swept %s", args[0]))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "list what would be removed without removing it")
	cmd.Flags().IntVarP(&workers, "jobs", "j", 0, "parallel removal workers (0 = config default)")
	cmd.Flags().BoolVar(&keepEmptyDirs, "keep-empty-dirs", false, "do not prune directories emptied by the sweep")

	return cmd
}
