// Package analysis aggregates the artifact table and chain index produced
// by the individual analysis passes, and classifies missing artifacts.
//
// A trace run performs up to four passes: the verbose (or plain) dependency
// tree, the effective-POM dependency management section, the effective-POM
// plugin declarations, and the project's own pom.xml. Each pass feeds a
// shared Context value. The merge policy across passes is explicit: the
// first pass to see a coordinate owns its identity-defining fields; later
// passes may only insert new records or fill a previously empty version.
// Within a single tree pass, re-sighting a coordinate overwrites the
// earlier record (last write wins), which mirrors how Maven repeats
// coordinates across subtrees.
package analysis

import (
	"github.com/matzehuels/mvnmirror/pkg/artifact"
	"github.com/matzehuels/mvnmirror/pkg/chain"
	"github.com/matzehuels/mvnmirror/pkg/treeparse"
)

// Context is the accumulated result of all analysis passes. It is a plain
// value passed through the pipeline stages, not shared mutable state: each
// stage receives it, adds to it, and hands it on.
type Context struct {
	Artifacts map[artifact.Key]*artifact.Record
	Chains    chain.Index

	// Degraded is set when verbose tree retrieval failed and the run fell
	// back to plain parsing. Optional/conflict flags are unavailable then.
	Degraded bool
}

// NewContext creates an empty analysis context.
func NewContext() *Context {
	return &Context{
		Artifacts: make(map[artifact.Key]*artifact.Record),
		Chains:    make(chain.Index),
	}
}

// AddTree ingests parsed tree nodes in stream order: records are created or
// overwritten (last write wins within the pass, first-sighting depth kept),
// and ancestry chains are reconstructed with the stack builder.
func (c *Context) AddTree(nodes []treeparse.Node) {
	b := chain.NewBuilder()
	for _, n := range nodes {
		rec := artifact.NewRecord(n.Key)
		rec.Version = n.Version
		rec.Packaging = n.Packaging
		rec.Scope = n.Scope
		rec.Optional = n.Optional
		rec.Excluded = n.Excluded
		rec.ConflictVersion = n.ConflictVersion
		rec.Depth = n.Depth
		rec.Source = artifact.SourceTree

		if prev, ok := c.Artifacts[n.Key]; ok {
			rec.Depth = prev.Depth
		}
		c.Artifacts[n.Key] = rec

		b.Observe(n.Key, n.Depth)
	}
	c.Chains.Merge(b.Index())
}

// Fill merges a record from a later pass (effective POM, pom.xml). If the
// coordinate is unknown it is inserted as-is; if it is already known, only
// a previously empty version is filled. Identity-defining fields from the
// earlier pass are never overwritten.
func (c *Context) Fill(rec *artifact.Record) {
	existing, ok := c.Artifacts[rec.Key]
	if !ok {
		c.Artifacts[rec.Key] = rec
		return
	}
	if existing.Version == "" && rec.Version != "" {
		existing.Version = rec.Version
	}
}

// RebuildChains installs chains from a secondary reconstruction. It is only
// meant to be called when the primary pass yielded none; chains for
// coordinates the context does not know are dropped, matching the
// tree-less origin of those records.
func (c *Context) RebuildChains(ix chain.Index) {
	for key, chains := range ix {
		if _, ok := c.Artifacts[key]; ok {
			c.Chains[key] = append(c.Chains[key], chains...)
		}
	}
}

// HasChains reports whether any coordinate has at least one recorded chain.
func (c *Context) HasChains() bool {
	return c.Chains.Total() > 0
}

// ChainsFor returns the chains reaching key. A nil result means no ancestry
// was recorded: the artifact is treated as a direct dependency.
func (c *Context) ChainsFor(key artifact.Key) []chain.Chain {
	return c.Chains[key]
}

// Candidates returns every record eligible for mirroring, i.e. everything
// not excluded by the resolver.
func (c *Context) Candidates() []*artifact.Record {
	var out []*artifact.Record
	for _, rec := range c.Artifacts {
		if rec.MirrorCandidate() {
			out = append(out, rec)
		}
	}
	return out
}

// Stats summarizes the artifact table for reporting.
type Stats struct {
	Total    int
	Active   int
	Excluded int
	ByScope  map[artifact.Scope]int
}

// ComputeStats tallies totals and the scope distribution. Excluded
// artifacts are counted separately and omitted from the scope distribution,
// since they are never mirrored.
func (c *Context) ComputeStats() Stats {
	s := Stats{ByScope: make(map[artifact.Scope]int)}
	for _, rec := range c.Artifacts {
		s.Total++
		if rec.Excluded {
			s.Excluded++
			continue
		}
		s.Active++
		s.ByScope[rec.Scope]++
	}
	return s
}
