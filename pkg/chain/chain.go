// Package chain reconstructs dependency provenance chains from a stream of
// (depth, key) observations.
//
// Maven prints its dependency tree depth-first in pre-order, so a single
// mutable ancestry stack is enough to recover every root-to-node path
// without building an explicit tree: truncate the stack to the node's
// depth, append the node, and the stack is the node's full ancestry. The
// trade-off is fragility against misjudged depths (a single bad estimate
// corrupts chains until the next depth-0 node) in exchange for one pass and
// O(depth) working memory over arbitrarily large dumps.
package chain

import (
	"slices"

	"github.com/matzehuels/mvnmirror/pkg/artifact"
	"github.com/matzehuels/mvnmirror/pkg/treeparse"
)

// Chain is an ordered ancestry from a root artifact down to and including
// the target artifact.
type Chain []artifact.Key

// Target returns the final element, the artifact the chain reaches.
func (c Chain) Target() artifact.Key {
	if len(c) == 0 {
		return artifact.Key{}
	}
	return c[len(c)-1]
}

// Strings returns the chain as printable coordinates.
func (c Chain) Strings() []string {
	out := make([]string, len(c))
	for i, k := range c {
		out[i] = k.String()
	}
	return out
}

// Index maps each artifact to every chain observed to reach it. Chains are
// append-only observations: parsing the same text twice legitimately yields
// duplicate chains, and they are never deduplicated by content. A key
// absent from the index simply has no recorded ancestry (a direct
// dependency for reporting purposes, not an error).
type Index map[artifact.Key][]Chain

// Add appends a chain for its target key.
func (ix Index) Add(c Chain) {
	if len(c) == 0 {
		return
	}
	ix[c.Target()] = append(ix[c.Target()], c)
}

// Merge appends all chains from other into ix.
func (ix Index) Merge(other Index) {
	for key, chains := range other {
		ix[key] = append(ix[key], chains...)
	}
}

// Total returns the number of chains across all keys.
func (ix Index) Total() int {
	n := 0
	for _, chains := range ix {
		n += len(chains)
	}
	return n
}

// Builder maintains the ancestry stack. It is strictly sequential: feeding
// nodes out of order, or from multiple goroutines, breaks the ancestry
// invariant.
type Builder struct {
	stack []artifact.Key
	index Index
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{index: make(Index)}
}

// Observe records one node at the given depth and returns the chain that
// reaches it. The stack is truncated to depth (discarding leftovers from a
// sibling subtree), the key appended, and a copy of the resulting stack
// recorded as the chain. The chain is never longer than depth+1.
func (b *Builder) Observe(key artifact.Key, depth int) Chain {
	if depth < 0 {
		depth = 0
	}
	if depth < len(b.stack) {
		b.stack = b.stack[:depth]
	}
	b.stack = append(b.stack, key)

	c := Chain(slices.Clone(b.stack))
	b.index.Add(c)
	return c
}

// Index returns the accumulated chain index.
func (b *Builder) Index() Index {
	return b.index
}

// Build reconstructs chains from parsed tree nodes in stream order.
func Build(nodes []treeparse.Node) Index {
	b := NewBuilder()
	for _, n := range nodes {
		b.Observe(n.Key, n.Depth)
	}
	return b.Index()
}

// BuildShifted is the secondary reconstruction used when the primary pass
// produced no chains at all (artifacts were populated from the effective
// POM without tree context). The plain tree fetched for this pass nests one
// connector level deeper at the root, so the depth estimate is offset by
// one, floored at zero.
func BuildShifted(nodes []treeparse.Node) Index {
	b := NewBuilder()
	for _, n := range nodes {
		d := n.Depth - 1
		if d < 0 {
			d = 0
		}
		b.Observe(n.Key, d)
	}
	return b.Index()
}
