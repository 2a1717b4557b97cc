// Package treeparse converts the line-oriented text emitted by
// "mvn dependency:tree" into structured nodes.
//
// The tree text has no formal grammar: indentation is drawn with ASCII-art
// connectors whose width varies between Maven versions, and the
// coordinate format is ambiguous between its four- and five-segment forms.
// The parser is therefore deliberately tolerant: depth is a heuristic over
// leading connector characters, and a correction step disambiguates
// packaging from version.
//
// Two dialects exist. Verbose output (-Dverbose=true) annotates nodes with
// optionality and conflict/duplicate omissions; plain output carries
// coordinates only. A run uses exactly one dialect: verbose is attempted
// first and plain is a whole-run fallback, never mixed line by line.
package treeparse

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/matzehuels/mvnmirror/pkg/artifact"
)

// Mode selects the tree dialect being parsed.
type Mode int

const (
	// Verbose parses -Dverbose=true output, including optional markers
	// and "omitted for conflict/duplicate" annotations.
	Verbose Mode = iota
	// Plain parses default dependency:tree output. No flag detection:
	// the markers simply are not present in this dialect.
	Plain
)

// Node is one parsed dependency line.
type Node struct {
	Key             artifact.Key
	Version         string
	Packaging       string
	Scope           artifact.Scope
	Optional        bool
	Excluded        bool
	ConflictVersion string
	Depth           int
}

// indentWidth is the assumed character width of one tree level.
// Maven draws connectors as "+- " / "|  " / "\- ", all three characters wide.
const indentWidth = 3

var (
	// coordinate matches groupId:artifactId:packaging:version[:scope].
	// The four-segment form (no scope) and the five-segment form are
	// disambiguated afterwards by versionLike.
	coordinate = regexp.MustCompile(`([a-zA-Z0-9._-]+):([a-zA-Z0-9._-]+):([a-zA-Z0-9._-]+):([a-zA-Z0-9._.-]+)(?::([a-zA-Z0-9._-]+))?`)

	// versionLike recognizes a field that starts with a numeric version
	// token, which means the regex captured the version in the packaging
	// slot (the coordinate had no packaging segment).
	versionLike = regexp.MustCompile(`^\d+\.\d+`)

	// conflictWinner captures the version that won a conflict this node lost.
	conflictWinner = regexp.MustCompile(`omitted for conflict with ([0-9.]+)`)
)

// logPrefix is Maven's line prefix on tree output.
const logPrefix = "[INFO]"

// Depth computes the tree depth of a line by counting leading connector
// characters (space, '|', '+', '\', '-') after the log prefix, stopping at
// the first character outside that set, then dividing by the per-level
// width. The heuristic ignores exact connector alignment on purpose: glyph
// width is implementation-defined upstream.
func Depth(line string) int {
	return indent(line) / indentWidth
}

// indent returns the raw connector-character count of a line.
func indent(line string) int {
	s := stripPrefix(line)
	n := 0
	for _, r := range s {
		switch r {
		case ' ', '|', '+', '\\', '-':
			n++
		default:
			return n
		}
	}
	return n
}

// stripPrefix removes the "[INFO]" log prefix if present.
func stripPrefix(line string) string {
	if rest, ok := strings.CutPrefix(line, logPrefix); ok {
		return rest
	}
	return line
}

// ParseLine parses one line of tree text. It returns nil when the line is
// not a dependency line (blank, log banner, download progress, etc.).
func ParseLine(line string, mode Mode) *Node {
	trimmed := strings.TrimSpace(stripPrefix(line))
	if trimmed == "" {
		return nil
	}

	m := coordinate.FindStringSubmatch(trimmed)
	if m == nil {
		return nil
	}

	node := &Node{
		Key:       artifact.Key{GroupID: m[1], ArtifactID: m[2]},
		Packaging: m[3],
		Version:   m[4],
		Scope:     artifact.ScopeCompile,
		Depth:     Depth(line),
	}
	if m[5] != "" {
		node.Scope = artifact.Scope(m[5])
	}

	// Four-segment correction: if the "packaging" field looks like a
	// version, the coordinate had no packaging segment and the fields are
	// shifted one to the left. The slot that captured the version then
	// actually held the scope.
	if versionLike.MatchString(node.Packaging) {
		if m[5] == "" && node.Version != "" {
			node.Scope = artifact.Scope(node.Version)
		}
		node.Version = node.Packaging
		node.Packaging = artifact.PackagingJar
	}

	if mode == Verbose {
		lower := strings.ToLower(trimmed)
		node.Optional = strings.Contains(lower, "optional")
		node.Excluded = strings.Contains(trimmed, "omitted for conflict") ||
			strings.Contains(trimmed, "omitted for duplicate")
		if w := conflictWinner.FindStringSubmatch(trimmed); w != nil {
			node.ConflictVersion = w[1]
			node.Excluded = true
		}
	}

	return node
}

// Parse parses a whole tree dump, preserving line order. Non-dependency
// lines are skipped. Order is significant: the chain reconstructor depends
// on the depth-first pre-order that Maven prints.
func Parse(text string, mode Mode) []Node {
	var nodes []Node
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if n := ParseLine(sc.Text(), mode); n != nil {
			nodes = append(nodes, *n)
		}
	}
	return nodes
}
