package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/clumsy/internal/trace"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun writes a run row so events can reference it.
func createTestRun(t *testing.T, s *Store, id string) {
	t.Helper()
	if err := s.WriteRun(context.Background(), Run{ID: id, Scenario: "test"}); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
}

// testTrace is a small trace: an object added to a collection, then torn down.
func testTrace() []trace.Event {
	return []trace.Event{
		{Seq: 1, Kind: trace.KindOp, Op: "new", Object: "o1", Result: "o1"},
		{Seq: 2, Kind: trace.KindOp, Op: "add", Target: "c", Object: "o1", Result: "0"},
		{Seq: 3, Kind: trace.KindViolation, Op: "pop", Detail: "NO_POOL: no autorelease pool open"},
		{Seq: 4, Kind: trace.KindOp, Op: "release", Object: "c"},
		{Seq: 5, Kind: trace.KindDestroyed, Object: "o1"},
		{Seq: 6, Kind: trace.KindDestroyed, Object: "c"},
	}
}
