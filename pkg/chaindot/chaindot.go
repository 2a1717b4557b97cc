// Package chaindot renders provenance chains as Graphviz diagrams.
//
// The chain index maps each artifact to the dependency paths that pulled
// it in. Flattened into a graph, those paths form a subtree of the full
// dependency graph rooted at the project's direct dependencies, which is
// usually the fastest way to answer "why is this artifact here".
package chaindot

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/mvnmirror/pkg/artifact"
	"github.com/matzehuels/mvnmirror/pkg/chain"
)

// Options configures chain rendering.
type Options struct {
	// Highlight marks these coordinates (typically the missing set) with a
	// distinct fill.
	Highlight []artifact.Key
}

type edge struct {
	from, to string
}

// ToDOT flattens a chain index into Graphviz DOT. Nodes and edges are
// deduplicated and emitted in sorted order so the output is stable.
func ToDOT(ix chain.Index, opts Options) string {
	nodes := make(map[string]bool)
	edges := make(map[edge]bool)
	for _, chains := range ix {
		for _, c := range chains {
			prev := ""
			for _, key := range c {
				id := key.String()
				nodes[id] = true
				if prev != "" {
					edges[edge{from: prev, to: id}] = true
				}
				prev = id
			}
		}
	}

	highlighted := make(map[string]bool, len(opts.Highlight))
	for _, key := range opts.Highlight {
		highlighted[key.String()] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph deps {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	for _, id := range sortedKeys(nodes) {
		attrs := fmt.Sprintf("label=%q", id)
		if highlighted[id] {
			attrs += `, fillcolor=lightcoral`
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", id, attrs)
	}

	buf.WriteString("\n")
	sortedEdges := make([]edge, 0, len(edges))
	for e := range edges {
		sortedEdges = append(sortedEdges, e)
	}
	sort.Slice(sortedEdges, func(i, j int) bool {
		if sortedEdges[i].from != sortedEdges[j].from {
			return sortedEdges[i].from < sortedEdges[j].from
		}
		return sortedEdges[i].to < sortedEdges[j].to
	})
	for _, e := range sortedEdges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.from, e.to)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatChain renders one chain as a readable arrow path.
func FormatChain(c chain.Chain) string {
	return strings.Join(c.Strings(), " -> ")
}
