package chaindot

import (
	"strings"
	"testing"

	"github.com/matzehuels/mvnmirror/pkg/artifact"
	"github.com/matzehuels/mvnmirror/pkg/chain"
)

func key(group, art string) artifact.Key {
	return artifact.Key{GroupID: group, ArtifactID: art}
}

func testIndex() chain.Index {
	ix := make(chain.Index)
	ix.Add(chain.Chain{key("com.acme", "app"), key("com.acme", "core")})
	ix.Add(chain.Chain{key("com.acme", "app"), key("com.acme", "core"), key("org.dep", "util")})
	// A second path to util via a different intermediate.
	ix.Add(chain.Chain{key("com.acme", "app"), key("org.dep", "util")})
	return ix
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testIndex(), Options{})

	for _, want := range []string{
		`"com.acme:app"`,
		`"com.acme:core"`,
		`"org.dep:util"`,
		`"com.acme:app" -> "com.acme:core";`,
		`"com.acme:core" -> "org.dep:util";`,
		`"com.acme:app" -> "org.dep:util";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s:\n%s", want, dot)
		}
	}

	// Shared edges across chains are emitted once.
	if n := strings.Count(dot, `"com.acme:app" -> "com.acme:core";`); n != 1 {
		t.Errorf("duplicate edge emitted %d times", n)
	}
}

func TestToDOTDeterministic(t *testing.T) {
	a := ToDOT(testIndex(), Options{})
	b := ToDOT(testIndex(), Options{})
	if a != b {
		t.Error("DOT output differs between identical inputs")
	}
}

func TestToDOTHighlight(t *testing.T) {
	dot := ToDOT(testIndex(), Options{Highlight: []artifact.Key{key("org.dep", "util")}})
	if !strings.Contains(dot, "lightcoral") {
		t.Errorf("highlighted node missing fill:\n%s", dot)
	}
	// Only the highlighted node gets the fill.
	if n := strings.Count(dot, "lightcoral"); n != 1 {
		t.Errorf("highlight fill emitted %d times, want 1", n)
	}
}

func TestToDOTEmptyIndex(t *testing.T) {
	dot := ToDOT(make(chain.Index), Options{})
	if !strings.HasPrefix(dot, "digraph deps {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("empty index should still be a valid digraph:\n%s", dot)
	}
}

func TestFormatChain(t *testing.T) {
	c := chain.Chain{key("com.acme", "app"), key("org.dep", "util")}
	if got := FormatChain(c); got != "com.acme:app -> org.dep:util" {
		t.Errorf("FormatChain = %q", got)
	}
}
