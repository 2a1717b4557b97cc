// Package artifact defines the identity model for Maven artifacts.
//
// An artifact is identified by its Maven coordinate (groupId:artifactId).
// Versions are deliberately not part of the identity: the analysis keeps a
// single Record per coordinate, and the resolver (Maven itself) decides which
// version wins. Records carry the resolution attributes observed in the
// dependency tree (scope, optionality, conflict status) that downstream
// classification and mirroring depend on.
package artifact

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Key is the canonical identity of an artifact: groupId:artifactId.
// It is comparable and used as a map key throughout the analysis.
type Key struct {
	GroupID    string
	ArtifactID string
}

// String returns the coordinate in "groupId:artifactId" form.
func (k Key) String() string {
	return k.GroupID + ":" + k.ArtifactID
}

// IsZero reports whether the key is empty.
func (k Key) IsZero() bool {
	return k.GroupID == "" && k.ArtifactID == ""
}

// MarshalText implements encoding.TextMarshaler so Key can be used as a
// JSON map key in reports.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKey parses a "groupId:artifactId" coordinate.
// Trailing segments (version, scope) are rejected: a Key is identity only.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Key{}, fmt.Errorf("invalid artifact coordinate %q (want groupId:artifactId)", s)
	}
	return Key{GroupID: parts[0], ArtifactID: parts[1]}, nil
}

// Scope is the Maven dependency scope.
type Scope string

// Dependency scopes. ScopePlugin is synthetic: it marks build-plugin
// declarations harvested from the effective POM, which Maven itself does not
// report as a dependency scope.
const (
	ScopeCompile  Scope = "compile"
	ScopeRuntime  Scope = "runtime"
	ScopeProvided Scope = "provided"
	ScopeTest     Scope = "test"
	ScopePlugin   Scope = "plugin"
)

// Source records which analysis pass first produced a record.
type Source string

// Record sources, in the order the passes run.
const (
	SourceTree    Source = "tree"    // dependency:tree output
	SourceManaged Source = "managed" // effective-POM dependencyManagement
	SourceDirect  Source = "direct"  // project pom.xml dependencies
	SourcePlugin  Source = "plugin"  // effective-POM build plugins
)

// Packaging kinds that the classifier distinguishes.
const (
	PackagingJar    = "jar"
	PackagingPlugin = "maven-plugin"
)

// VersionLatest is the sentinel Maven uses for an unpinned version. Records
// carrying it (or no version at all) cannot be mapped to a repository path.
const VersionLatest = "LATEST"

// Record holds everything the analysis knows about one artifact coordinate.
type Record struct {
	Key             Key    `json:"-"`
	GroupID         string `json:"group_id"`
	ArtifactID      string `json:"artifact_id"`
	Version         string `json:"version,omitempty"`
	Packaging       string `json:"packaging"`
	Scope           Scope  `json:"scope"`
	Optional        bool   `json:"optional"`
	Excluded        bool   `json:"excluded"`
	ConflictVersion string `json:"conflict_version,omitempty"`
	Depth           int    `json:"depth"`
	Source          Source `json:"source"`
}

// NewRecord creates a record with the defaults Maven assumes when a tree
// line omits them: jar packaging and compile scope.
func NewRecord(key Key) *Record {
	return &Record{
		Key:        key,
		GroupID:    key.GroupID,
		ArtifactID: key.ArtifactID,
		Packaging:  PackagingJar,
		Scope:      ScopeCompile,
	}
}

// Resolved reports whether the record carries a concrete version that can be
// mapped to a repository directory.
func (r *Record) Resolved() bool {
	return r.Version != "" && r.Version != VersionLatest
}

// MirrorCandidate reports whether the artifact should be mirrored at all.
// Excluded artifacts (conflict losers, duplicates) never are.
func (r *Record) MirrorCandidate() bool {
	return !r.Excluded
}

// RepoPath returns the repository-relative directory for this record's
// resolved version: groupId (dots to separators) / artifactId / version.
// It returns "" for unresolved records; callers must check Resolved first.
func (r *Record) RepoPath() string {
	if !r.Resolved() {
		return ""
	}
	group := strings.ReplaceAll(r.GroupID, ".", string(filepath.Separator))
	return filepath.Join(group, r.ArtifactID, r.Version)
}
