// Package pom parses Maven project object model documents.
//
// Two inputs use it: the project's own pom.xml (direct dependencies) and
// the effective POM emitted by "mvn help:effective-pom" (managed
// dependencies and build plugins). Effective POMs of multi-module builds
// wrap several <project> elements in a <projects> root; Parse flattens
// those into one combined view, since the analysis works per coordinate,
// not per module.
package pom

import (
	"encoding/xml"
	"os"
	"strings"

	"github.com/matzehuels/mvnmirror/pkg/artifact"
)

// Project is the subset of the POM the tracer cares about.
type Project struct {
	GroupID      string       `xml:"groupId"`
	ArtifactID   string       `xml:"artifactId"`
	Version      string       `xml:"version"`
	Parent       *Parent      `xml:"parent"`
	Dependencies []Dependency `xml:"dependencies>dependency"`

	DependencyManagement struct {
		Dependencies []Dependency `xml:"dependencies>dependency"`
	} `xml:"dependencyManagement"`

	Build struct {
		Plugins          []Plugin `xml:"plugins>plugin"`
		PluginManagement struct {
			Plugins []Plugin `xml:"plugins>plugin"`
		} `xml:"pluginManagement"`
	} `xml:"build"`
}

// Parent identifies the parent POM.
type Parent struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

// Dependency is one POM dependency declaration.
type Dependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope"`
	Optional   string `xml:"optional"`
}

// Plugin is one build plugin declaration.
type Plugin struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

// multiModule matches the <projects> wrapper of a multi-module
// effective POM.
type multiModule struct {
	Projects []Project `xml:"project"`
}

// Parse parses POM XML. Multi-module effective POMs are flattened into a
// single combined project; the first module provides the identity fields.
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := xml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if !p.empty() {
		return &p, nil
	}

	var mm multiModule
	if err := xml.Unmarshal(data, &mm); err != nil || len(mm.Projects) == 0 {
		return &p, nil
	}

	combined := mm.Projects[0]
	for _, sub := range mm.Projects[1:] {
		combined.Dependencies = append(combined.Dependencies, sub.Dependencies...)
		combined.DependencyManagement.Dependencies = append(
			combined.DependencyManagement.Dependencies, sub.DependencyManagement.Dependencies...)
		combined.Build.Plugins = append(combined.Build.Plugins, sub.Build.Plugins...)
		combined.Build.PluginManagement.Plugins = append(
			combined.Build.PluginManagement.Plugins, sub.Build.PluginManagement.Plugins...)
	}
	return &combined, nil
}

// ParseFile reads and parses a POM from disk.
func ParseFile(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (p *Project) empty() bool {
	return p.ArtifactID == "" &&
		len(p.Dependencies) == 0 &&
		len(p.DependencyManagement.Dependencies) == 0 &&
		len(p.Build.Plugins) == 0
}

// Coordinate returns the project's own groupId:artifactId, falling back to
// the parent's groupId when the module inherits it.
func (p *Project) Coordinate() string {
	group := p.GroupID
	if group == "" && p.Parent != nil {
		group = p.Parent.GroupID
	}
	return group + ":" + p.ArtifactID
}

// ManagedRecords converts the dependencyManagement section into artifact
// records with source "managed".
func (p *Project) ManagedRecords() []*artifact.Record {
	return dependencyRecords(p.DependencyManagement.Dependencies, artifact.SourceManaged)
}

// DirectRecords converts the project's dependency declarations into
// artifact records with source "direct".
func (p *Project) DirectRecords() []*artifact.Record {
	return dependencyRecords(p.Dependencies, artifact.SourceDirect)
}

// PluginRecords converts build plugin declarations (including managed ones)
// into artifact records: maven-plugin packaging, plugin scope, and the
// LATEST sentinel when no version is pinned. Unpinned plugins are exactly
// the records the mirror later reports as unresolvable.
func (p *Project) PluginRecords() []*artifact.Record {
	plugins := append([]Plugin{}, p.Build.Plugins...)
	plugins = append(plugins, p.Build.PluginManagement.Plugins...)

	var out []*artifact.Record
	seen := make(map[artifact.Key]bool)
	for _, pl := range plugins {
		group := pl.GroupID
		if group == "" {
			// Maven's default plugin group.
			group = "org.apache.maven.plugins"
		}
		if pl.ArtifactID == "" || unresolvedProperty(group) || unresolvedProperty(pl.ArtifactID) {
			continue
		}
		key := artifact.Key{GroupID: group, ArtifactID: pl.ArtifactID}
		if seen[key] {
			continue
		}
		seen[key] = true

		rec := artifact.NewRecord(key)
		rec.Packaging = artifact.PackagingPlugin
		rec.Scope = artifact.ScopePlugin
		rec.Source = artifact.SourcePlugin
		rec.Version = pl.Version
		if rec.Version == "" {
			rec.Version = artifact.VersionLatest
		}
		out = append(out, rec)
	}
	return out
}

func dependencyRecords(deps []Dependency, source artifact.Source) []*artifact.Record {
	var out []*artifact.Record
	seen := make(map[artifact.Key]bool)
	for _, d := range deps {
		if d.GroupID == "" || d.ArtifactID == "" {
			continue
		}
		// Skip declarations with unresolved Maven properties; the
		// effective POM has them interpolated, raw pom.xml may not.
		if unresolvedProperty(d.GroupID) || unresolvedProperty(d.ArtifactID) {
			continue
		}
		key := artifact.Key{GroupID: d.GroupID, ArtifactID: d.ArtifactID}
		if seen[key] {
			continue
		}
		seen[key] = true

		rec := artifact.NewRecord(key)
		rec.Version = d.Version
		if unresolvedProperty(rec.Version) {
			rec.Version = ""
		}
		if d.Scope != "" {
			rec.Scope = artifact.Scope(d.Scope)
		}
		rec.Optional = strings.EqualFold(d.Optional, "true")
		rec.Source = source
		out = append(out, rec)
	}
	return out
}

func unresolvedProperty(s string) bool {
	return strings.HasPrefix(s, "${")
}
