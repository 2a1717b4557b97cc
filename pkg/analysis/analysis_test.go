package analysis

import (
	"testing"

	"github.com/matzehuels/mvnmirror/pkg/artifact"
	"github.com/matzehuels/mvnmirror/pkg/chain"
	"github.com/matzehuels/mvnmirror/pkg/treeparse"
)

func key(s string) artifact.Key {
	k, err := artifact.ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

func TestAddTree(t *testing.T) {
	text := `[INFO] com.example:app:jar:1.0.0
[INFO] +- com.foo:bar:jar:1.2.3:compile
[INFO] |  \- (com.baz:qux:jar:1.0.0:compile - omitted for conflict with 2.0.0)
[INFO] \- junit:junit:jar:4.13.2:test`

	ctx := NewContext()
	ctx.AddTree(treeparse.Parse(text, treeparse.Verbose))

	if len(ctx.Artifacts) != 4 {
		t.Fatalf("got %d artifacts", len(ctx.Artifacts))
	}

	bar := ctx.Artifacts[key("com.foo:bar")]
	if bar.Version != "1.2.3" || bar.Scope != artifact.ScopeCompile || bar.Source != artifact.SourceTree {
		t.Errorf("bar record = %+v", bar)
	}

	qux := ctx.Artifacts[key("com.baz:qux")]
	if !qux.Excluded || qux.ConflictVersion != "2.0.0" {
		t.Errorf("qux record = %+v", qux)
	}

	// Chains were reconstructed alongside.
	chains := ctx.ChainsFor(key("com.baz:qux"))
	if len(chains) != 1 || len(chains[0]) != 3 {
		t.Errorf("qux chains = %v", chains)
	}
}

func TestAddTreeLastWriteWinsKeepsDepth(t *testing.T) {
	nodes := []treeparse.Node{
		{Key: key("a:a"), Depth: 0, Version: "1.0", Scope: artifact.ScopeCompile},
		{Key: key("b:b"), Depth: 1, Version: "1.0", Scope: artifact.ScopeCompile},
		{Key: key("a:a"), Depth: 2, Version: "2.0", Scope: artifact.ScopeRuntime},
	}
	ctx := NewContext()
	ctx.AddTree(nodes)

	a := ctx.Artifacts[key("a:a")]
	if a.Version != "2.0" || a.Scope != artifact.ScopeRuntime {
		t.Errorf("last write should win within a pass: %+v", a)
	}
	if a.Depth != 0 {
		t.Errorf("first-sighting depth should be kept, got %d", a.Depth)
	}
}

func TestFillFirstPassWins(t *testing.T) {
	ctx := NewContext()
	ctx.AddTree([]treeparse.Node{
		{Key: key("a:a"), Depth: 0, Version: "1.0", Scope: artifact.ScopeCompile},
	})

	later := artifact.NewRecord(key("a:a"))
	later.Version = "9.9"
	later.Scope = artifact.ScopeProvided
	later.Source = artifact.SourceManaged
	ctx.Fill(later)

	a := ctx.Artifacts[key("a:a")]
	if a.Version != "1.0" || a.Scope != artifact.ScopeCompile || a.Source != artifact.SourceTree {
		t.Errorf("first pass should win identity fields: %+v", a)
	}
}

func TestFillInsertsAndCompletes(t *testing.T) {
	ctx := NewContext()

	// Unknown coordinate is inserted as-is.
	managed := artifact.NewRecord(key("m:m"))
	managed.Version = "3.0"
	managed.Source = artifact.SourceManaged
	ctx.Fill(managed)
	if got := ctx.Artifacts[key("m:m")]; got == nil || got.Version != "3.0" {
		t.Fatalf("managed record not inserted: %+v", got)
	}

	// A later pass fills a previously empty version only.
	ctx.AddTree([]treeparse.Node{{Key: key("v:v"), Depth: 0}})
	fill := artifact.NewRecord(key("v:v"))
	fill.Version = "5.5"
	ctx.Fill(fill)
	if got := ctx.Artifacts[key("v:v")].Version; got != "5.5" {
		t.Errorf("empty version not filled: %q", got)
	}
}

func TestRebuildChains(t *testing.T) {
	ctx := NewContext()
	ctx.Fill(artifact.NewRecord(key("a:a")))
	if ctx.HasChains() {
		t.Fatal("fresh context should have no chains")
	}

	ix := make(chain.Index)
	ix.Add(chain.Chain{key("root:app"), key("a:a")})
	ix.Add(chain.Chain{key("unknown:unknown")})
	ctx.RebuildChains(ix)

	if !ctx.HasChains() {
		t.Error("rebuild should install chains")
	}
	if len(ctx.ChainsFor(key("a:a"))) != 1 {
		t.Errorf("a:a chains = %v", ctx.ChainsFor(key("a:a")))
	}
	if ctx.ChainsFor(key("unknown:unknown")) != nil {
		t.Error("chains for unknown coordinates must be dropped")
	}
}

func TestCandidatesExcludesExcluded(t *testing.T) {
	ctx := NewContext()
	ok := artifact.NewRecord(key("a:a"))
	excluded := artifact.NewRecord(key("b:b"))
	excluded.Excluded = true
	ctx.Fill(ok)
	ctx.Fill(excluded)

	cands := ctx.Candidates()
	if len(cands) != 1 || cands[0].Key != key("a:a") {
		t.Errorf("candidates = %v", cands)
	}
}

func TestComputeStats(t *testing.T) {
	ctx := NewContext()
	for _, tc := range []struct {
		k        string
		scope    artifact.Scope
		excluded bool
	}{
		{"a:a", artifact.ScopeCompile, false},
		{"b:b", artifact.ScopeCompile, false},
		{"c:c", artifact.ScopeTest, false},
		{"d:d", artifact.ScopeCompile, true},
	} {
		rec := artifact.NewRecord(key(tc.k))
		rec.Scope = tc.scope
		rec.Excluded = tc.excluded
		ctx.Fill(rec)
	}

	s := ctx.ComputeStats()
	if s.Total != 4 || s.Active != 3 || s.Excluded != 1 {
		t.Errorf("stats = %+v", s)
	}
	if s.ByScope[artifact.ScopeCompile] != 2 || s.ByScope[artifact.ScopeTest] != 1 {
		t.Errorf("scope distribution = %v", s.ByScope)
	}
}

func TestClassifyPrecedence(t *testing.T) {
	table := map[artifact.Key]*artifact.Record{}
	add := func(k string, mut func(*artifact.Record)) artifact.Key {
		rec := artifact.NewRecord(key(k))
		mut(rec)
		table[rec.Key] = rec
		return rec.Key
	}

	// An artifact that is excluded AND provided AND optional AND a plugin
	// must land in conflict: precedence is strict.
	all := add("x:all", func(r *artifact.Record) {
		r.Excluded = true
		r.Scope = artifact.ScopeProvided
		r.Optional = true
		r.Packaging = artifact.PackagingPlugin
	})
	prov := add("x:prov", func(r *artifact.Record) {
		r.Scope = artifact.ScopeProvided
		r.Optional = true
	})
	opt := add("x:opt", func(r *artifact.Record) {
		r.Optional = true
		r.Packaging = artifact.PackagingPlugin
	})
	plug := add("x:plug", func(r *artifact.Record) {
		r.Packaging = artifact.PackagingPlugin
	})
	ess := add("x:ess", func(r *artifact.Record) {})

	p := Classify(table, []artifact.Key{all, prov, opt, plug, ess})

	if len(p.Conflict) != 1 || p.Conflict[0] != all {
		t.Errorf("conflict = %v", p.Conflict)
	}
	if len(p.Provided) != 1 || p.Provided[0] != prov {
		t.Errorf("provided = %v", p.Provided)
	}
	if len(p.Optional) != 1 || p.Optional[0] != opt {
		t.Errorf("optional = %v", p.Optional)
	}
	if len(p.Plugin) != 1 || p.Plugin[0] != plug {
		t.Errorf("plugin = %v", p.Plugin)
	}
	if len(p.Essential) != 1 || p.Essential[0] != ess {
		t.Errorf("essential = %v", p.Essential)
	}
}

func TestClassifyPartitionTotalAndDisjoint(t *testing.T) {
	table := map[artifact.Key]*artifact.Record{}
	var missing []artifact.Key
	specs := []struct {
		k   string
		mut func(*artifact.Record)
	}{
		{"g:conflict", func(r *artifact.Record) { r.Excluded = true }},
		{"g:provided", func(r *artifact.Record) { r.Scope = artifact.ScopeProvided }},
		{"g:optional", func(r *artifact.Record) { r.Optional = true }},
		{"g:plugin", func(r *artifact.Record) { r.Packaging = artifact.PackagingPlugin }},
		{"g:plain", func(r *artifact.Record) {}},
	}
	for _, s := range specs {
		rec := artifact.NewRecord(key(s.k))
		s.mut(rec)
		table[rec.Key] = rec
		missing = append(missing, rec.Key)
	}
	// A key with no record at all.
	missing = append(missing, key("g:unknown"))

	p := Classify(table, missing)

	if p.Size() != len(missing) {
		t.Fatalf("partition size %d != input size %d", p.Size(), len(missing))
	}
	seen := map[artifact.Key]int{}
	for _, b := range p.Buckets() {
		for _, k := range b.Keys {
			seen[k]++
		}
	}
	for _, k := range missing {
		if seen[k] != 1 {
			t.Errorf("key %s appears %d times", k, seen[k])
		}
	}
	// Unknown keys default to essential.
	found := false
	for _, k := range p.Essential {
		if k == key("g:unknown") {
			found = true
		}
	}
	if !found {
		t.Error("unknown key should classify as essential")
	}
}
