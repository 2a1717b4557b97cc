package analysis

import (
	"sort"

	"github.com/matzehuels/mvnmirror/pkg/artifact"
)

// Bucket names the necessity category of a missing artifact.
type Bucket string

// Classification buckets, from least to most concerning.
const (
	BucketConflict  Bucket = "conflict"  // lost a version conflict, already excluded
	BucketProvided  Bucket = "provided"  // supplied by the runtime container
	BucketOptional  Bucket = "optional"  // declared optional upstream
	BucketPlugin    Bucket = "plugin"    // Maven build plugin
	BucketEssential Bucket = "essential" // everything else: likely breaks the build
)

// Partition is a total, disjoint five-way split of a missing key set.
// Every input key lands in exactly one bucket.
type Partition struct {
	Essential []artifact.Key `json:"essential"`
	Optional  []artifact.Key `json:"optional"`
	Provided  []artifact.Key `json:"provided"`
	Plugin    []artifact.Key `json:"plugin"`
	Conflict  []artifact.Key `json:"conflict"`
}

// Classify assigns each missing key to exactly one bucket. Precedence is
// fixed, first match wins: excluded → conflict, provided scope → provided,
// optional → optional, maven-plugin packaging → plugin, else essential.
//
// A key with no record in the table defaults to essential: an unknown
// missing artifact is the worst case, not a safe one.
func Classify(table map[artifact.Key]*artifact.Record, missing []artifact.Key) Partition {
	var p Partition
	for _, key := range missing {
		rec, ok := table[key]
		switch {
		case ok && rec.Excluded:
			p.Conflict = append(p.Conflict, key)
		case ok && rec.Scope == artifact.ScopeProvided:
			p.Provided = append(p.Provided, key)
		case ok && rec.Optional:
			p.Optional = append(p.Optional, key)
		case ok && rec.Packaging == artifact.PackagingPlugin:
			p.Plugin = append(p.Plugin, key)
		default:
			p.Essential = append(p.Essential, key)
		}
	}
	p.sort()
	return p
}

func (p *Partition) sort() {
	for _, bucket := range [][]artifact.Key{p.Essential, p.Optional, p.Provided, p.Plugin, p.Conflict} {
		sort.Slice(bucket, func(i, j int) bool {
			return bucket[i].String() < bucket[j].String()
		})
	}
}

// Critical returns the keys that make an offline build unviable:
// essential artifacts and build plugins.
func (p Partition) Critical() []artifact.Key {
	out := make([]artifact.Key, 0, len(p.Essential)+len(p.Plugin))
	out = append(out, p.Essential...)
	out = append(out, p.Plugin...)
	return out
}

// Size returns the total number of classified keys.
func (p Partition) Size() int {
	return len(p.Essential) + len(p.Optional) + len(p.Provided) + len(p.Plugin) + len(p.Conflict)
}

// Buckets returns the partition as named slices, in display order.
func (p Partition) Buckets() []struct {
	Name Bucket
	Keys []artifact.Key
} {
	return []struct {
		Name Bucket
		Keys []artifact.Key
	}{
		{BucketEssential, p.Essential},
		{BucketOptional, p.Optional},
		{BucketProvided, p.Provided},
		{BucketPlugin, p.Plugin},
		{BucketConflict, p.Conflict},
	}
}
