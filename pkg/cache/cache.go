// Package cache provides a small byte-oriented cache used to memoize
// expensive Maven invocations.
//
// Running "mvn dependency:tree -Dverbose=true" against a large project can
// take minutes; its output is fully determined by the project's POM files.
// The tracer therefore caches invocation output keyed by a hash of the
// pom.xml contents plus the goal and flags, so repeated analysis of an
// unchanged project skips the Maven round trip entirely.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache stores opaque byte values with optional expiry.
type Cache interface {
	// Get retrieves a value. The bool reports a hit; a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// InvocationKey builds the cache key for one Maven invocation: a stable
// prefix plus a hash over the goal, its flags, and the POM content hash.
func InvocationKey(goal string, pomHash string, parts ...any) string {
	all := append([]any{goal, pomHash}, parts...)
	data, _ := json.Marshal(all)
	return fmt.Sprintf("mvn:%s", Hash(data))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
