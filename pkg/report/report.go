// Package report assembles the trace result into a persistent JSON
// document.
//
// The report is the run's durable artifact: it records every dependency
// with its provenance chains, the missing-artifact classification, and the
// per-copy outcomes, so a failed mirror can be diagnosed (and resumed)
// without rerunning Maven.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/mvnmirror/pkg/analysis"
	"github.com/matzehuels/mvnmirror/pkg/artifact"
	"github.com/matzehuels/mvnmirror/pkg/errors"
	"github.com/matzehuels/mvnmirror/pkg/mirror"
)

// DefaultName is the report filename written next to the target repository
// when no explicit path is given.
const DefaultName = "mirror-report.json"

// Copy statuses beyond the mirror package's own, used for artifacts no
// copy was attempted for.
const (
	StatusExcluded = "excluded"
	StatusAnalyzed = "analyzed"
)

// ProjectInfo identifies the traced project and the repositories involved.
type ProjectInfo struct {
	Path       string `json:"path"`
	GroupID    string `json:"group_id,omitempty"`
	ArtifactID string `json:"artifact_id,omitempty"`
	Version    string `json:"version,omitempty"`
	SourceRepo string `json:"source_repo,omitempty"`
	TargetRepo string `json:"target_repo,omitempty"`
}

// Statistics are the run totals.
type Statistics struct {
	Total    int `json:"total_dependencies"`
	Active   int `json:"active_dependencies"`
	Excluded int `json:"excluded_dependencies"`
	Copied   int `json:"copied_dependencies"`
	Missing  int `json:"missing_dependencies"`
	Skipped  int `json:"skipped_dependencies"`
	Failed   int `json:"failed_dependencies"`
}

// Entry is one dependency in the report: its resolution attributes, the
// ancestry chains that pulled it in, and what happened to it.
type Entry struct {
	Info   *artifact.Record `json:"info"`
	Chains [][]string       `json:"chains,omitempty"`
	Status string           `json:"status"`
}

// FailedCopy explains one copy failure: the provenance chains that pulled
// the artifact in, and near-miss version suggestions when the source
// repository holds other versions of it.
type FailedCopy struct {
	Coordinate      string     `json:"coordinate"`
	Version         string     `json:"version"`
	Reason          string     `json:"reason"`
	Chains          [][]string `json:"chains,omitempty"`
	SimilarVersions []string   `json:"similar_versions,omitempty"`
}

// BuildCheck records the optional build-verification pass.
type BuildCheck struct {
	Performed bool     `json:"performed"`
	CompileOK bool     `json:"compile_ok"`
	PackageOK bool     `json:"package_ok"`
	Missing   []string `json:"missing,omitempty"`
}

// Report is the complete trace result.
type Report struct {
	RunID             string                    `json:"run_id"`
	Timestamp         time.Time                 `json:"timestamp"`
	Project           ProjectInfo               `json:"project_info"`
	Statistics        Statistics                `json:"statistics"`
	ScopeDistribution map[artifact.Scope]int    `json:"scope_distribution"`
	MissingAnalysis   analysis.Partition        `json:"missing_analysis"`
	Dependencies      map[artifact.Key]Entry    `json:"all_dependencies"`
	FailedCopies      []FailedCopy              `json:"failed_copies_detail,omitempty"`
	Verification      *BuildCheck               `json:"build_verification,omitempty"`
	DegradedParse     bool                      `json:"degraded_parse,omitempty"`
}

// Params carries everything Build needs. SimilarVersions may be nil; when
// set it is consulted for each failed copy.
type Params struct {
	Project         ProjectInfo
	Analysis        *analysis.Context
	Partition       analysis.Partition
	Copies          mirror.Summary
	Verification    *BuildCheck
	SimilarVersions func(artifact.Key) []string
}

// Build assembles a Report from the run's intermediate results.
func Build(p Params) *Report {
	stats := p.Analysis.ComputeStats()
	r := &Report{
		RunID:     uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Project:   p.Project,
		Statistics: Statistics{
			Total:    stats.Total,
			Active:   stats.Active,
			Excluded: stats.Excluded,
			Copied:   p.Copies.Copied,
			Missing:  p.Partition.Size(),
			Skipped:  p.Copies.Skipped,
			Failed:   p.Copies.Failed,
		},
		ScopeDistribution: stats.ByScope,
		MissingAnalysis:   p.Partition,
		Dependencies:      make(map[artifact.Key]Entry, stats.Total),
		Verification:      p.Verification,
		DegradedParse:     p.Analysis.Degraded,
	}

	outcomeByKey := make(map[artifact.Key]mirror.Outcome, len(p.Copies.Outcomes))
	for _, o := range p.Copies.Outcomes {
		outcomeByKey[o.Key] = o
	}

	for key, rec := range p.Analysis.Artifacts {
		entry := Entry{Info: rec, Status: StatusAnalyzed}
		for _, c := range p.Analysis.ChainsFor(key) {
			entry.Chains = append(entry.Chains, c.Strings())
		}
		switch {
		case rec.Excluded:
			entry.Status = StatusExcluded
		default:
			if o, ok := outcomeByKey[key]; ok {
				entry.Status = string(o.Status)
			}
		}
		r.Dependencies[key] = entry
	}

	for _, o := range p.Copies.Failures() {
		fc := FailedCopy{
			Coordinate: o.Key.String(),
			Version:    o.Version,
			Reason:     errors.UserMessage(o.Err),
		}
		for _, c := range p.Analysis.ChainsFor(o.Key) {
			fc.Chains = append(fc.Chains, c.Strings())
		}
		if p.SimilarVersions != nil {
			fc.SimilarVersions = p.SimilarVersions(o.Key)
		}
		r.FailedCopies = append(r.FailedCopies, fc)
	}

	return r
}

// CriticalMissing returns the coordinates whose absence makes the mirror
// unusable for an offline build.
func (r *Report) CriticalMissing() []artifact.Key {
	return r.MissingAnalysis.Critical()
}

// RetryRecords rebuilds mirrorable records for the failed copies whose
// absence is critical (essential and plugin artifacts). Resume runs only
// reattempt those: optional, provided, and conflict losers stay failed
// without blocking an offline build.
func (r *Report) RetryRecords() []artifact.Record {
	critical := make(map[artifact.Key]bool)
	for _, key := range r.MissingAnalysis.Critical() {
		critical[key] = true
	}
	var out []artifact.Record
	for _, fc := range r.FailedCopies {
		key, err := artifact.ParseKey(fc.Coordinate)
		if err != nil || !critical[key] {
			continue
		}
		rec := artifact.NewRecord(key)
		rec.Version = fc.Version
		if entry, ok := r.Dependencies[key]; ok && entry.Info != nil {
			rec = entry.Info
		}
		out = append(out, *rec)
	}
	return out
}

// Save writes the report as indented JSON, creating parent directories as
// needed.
func (r *Report) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Load reads a previously saved report.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "reading report %s", path)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parsing report %s", path)
	}
	return &r, nil
}
