package testutil

import (
	"fmt"
	"sync"
)

// FixedRunIDGenerator returns the same run ID on every call, so golden
// traces do not depend on UUID generation.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a generator for id.
// An empty id selects "test-run-default".
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run ID.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}

// SequentialRunIDGenerator returns test-run-0001, test-run-0002, ...
// Useful when several runs share one store.
type SequentialRunIDGenerator struct {
	mu sync.Mutex
	n  int
}

// Generate returns the next run ID in sequence.
func (g *SequentialRunIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("test-run-%04d", g.n)
}
