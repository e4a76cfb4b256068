// Package idgen provides ports.IDGenerator implementations.
package idgen

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/artpar/plancart/ports"
	"github.com/google/uuid"
)

// UUID generates random (v4) UUIDs.
type UUID struct{}

// New returns a new UUID string.
func (UUID) New() string {
	return uuid.NewString()
}

// Token generates opaque, cookie-safe identifiers: a prefix followed by 32
// hex characters of a random UUID, e.g. "vs_9f1c...".
type Token struct {
	Prefix string
}

// New returns a new token.
func (g Token) New() string {
	return g.Prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Sequential generates predictable IDs for tests.
type Sequential struct {
	prefix  string
	counter atomic.Uint64
}

// NewSequential creates a sequential ID generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New returns prefix + the next counter value, starting at 1.
func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(s.counter.Add(1), 10)
}

// Ensure interface compliance.
var (
	_ ports.IDGenerator = UUID{}
	_ ports.IDGenerator = Token{}
	_ ports.IDGenerator = (*Sequential)(nil)
)
