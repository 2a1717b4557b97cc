package cli

import (
	"fmt"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnmirror/pkg/artifact"
	"github.com/matzehuels/mvnmirror/pkg/report"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect a saved trace report",
	}
	cmd.AddCommand(newReportShowCmd())
	cmd.AddCommand(newReportMissingCmd())
	return cmd
}

func newReportShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <report.json>",
		Short: "Print the summary of a trace report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := report.Load(args[0])
			if err != nil {
				return err
			}

			fmt.Println(StyleTitle.Render("Trace report " + rep.RunID))
			printKeyValue("Created", rep.Timestamp.Format("2006-01-02 15:04:05 MST"))
			if rep.Project.ArtifactID != "" {
				printKeyValue("Project", fmt.Sprintf("%s:%s:%s",
					rep.Project.GroupID, rep.Project.ArtifactID, rep.Project.Version))
			}
			printKeyValue("Source", rep.Project.SourceRepo)
			printKeyValue("Target", rep.Project.TargetRepo)
			printKeyValue("Artifacts", fmt.Sprintf("%d total, %d active, %d excluded",
				rep.Statistics.Total, rep.Statistics.Active, rep.Statistics.Excluded))
			printKeyValue("Copies", fmt.Sprintf("%d ok, %d skipped, %d failed",
				rep.Statistics.Copied, rep.Statistics.Skipped, rep.Statistics.Failed))

			if len(rep.ScopeDistribution) > 0 {
				printNewline()
				fmt.Println(StyleTitle.Render("Scope distribution"))
				scopes := make([]string, 0, len(rep.ScopeDistribution))
				for scope := range rep.ScopeDistribution {
					scopes = append(scopes, string(scope))
				}
				sort.Strings(scopes)
				for _, scope := range scopes {
					printDetail("%-10s %d", scope, rep.ScopeDistribution[artifact.Scope(scope)])
				}
			}

			if rep.Verification != nil && rep.Verification.Performed {
				printNewline()
				if rep.Verification.CompileOK && rep.Verification.PackageOK {
					printSuccess("Build verification passed")
				} else {
					printError("Build verification failed (%d unresolved)", len(rep.Verification.Missing))
				}
			}
			if rep.DegradedParse {
				printWarning("report was produced from a plain (non-verbose) tree")
			}
			return nil
		},
	}
}

func newReportMissingCmd() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "missing <report.json>",
		Short: "Browse the missing artifacts of a trace report",
		Long: `Missing lists every artifact the trace could not mirror, grouped by how
much its absence matters. Without --plain, an interactive browser shows
the provenance chains that explain why each artifact is needed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := report.Load(args[0])
			if err != nil {
				return err
			}
			items := missingItems(rep)
			if len(items) == 0 {
				printSuccess("No missing artifacts")
				return nil
			}

			if plain {
				for _, it := range items {
					fmt.Printf("%-9s %s\n", it.Bucket, it.Coordinate)
					for _, c := range it.Chains {
						printDetail("%s", c)
					}
				}
				return nil
			}

			model := newMissingListModel(items)
			_, err = tea.NewProgram(model).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print a static list instead of the interactive browser")
	return cmd
}
