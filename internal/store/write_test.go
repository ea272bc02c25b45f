package store

import (
	"context"
	"testing"

	"github.com/roach88/clumsy/internal/trace"
)

func TestWriteRun_InsertThenUpdate(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.WriteRun(ctx, Run{ID: "run-1", Scenario: "array"}); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	if err := s.WriteRun(ctx, Run{ID: "run-1", Scenario: "ignored", Passed: true, Failures: 0}); err != nil {
		t.Fatalf("second WriteRun() failed: %v", err)
	}

	run, err := s.ReadRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	want := Run{ID: "run-1", Scenario: "array", Passed: true}
	if run != want {
		t.Errorf("ReadRun() = %+v, want %+v", run, want)
	}
}

func TestWriteRun_EmptyID(t *testing.T) {
	s := createTestStore(t)

	if err := s.WriteRun(context.Background(), Run{Scenario: "x"}); err == nil {
		t.Error("expected error for empty run id")
	}
}

func TestWriteEvent_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-1")

	e := trace.Event{Seq: 1, Kind: trace.KindDestroyed, Object: "o1"}
	for i := 0; i < 2; i++ {
		if err := s.WriteEvent(ctx, "run-1", e); err != nil {
			t.Fatalf("WriteEvent() #%d failed: %v", i, err)
		}
	}

	n, err := s.CountEvents(ctx, "run-1", trace.KindDestroyed, "o1")
	if err != nil {
		t.Fatalf("CountEvents() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("CountEvents() = %d, want 1", n)
	}
}

func TestWriteEvent_StoresCanonicalPayload(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-1")

	e := trace.Event{Seq: 7, Kind: trace.KindOp, Op: "add", Target: "c", Object: "o1", Result: "0"}
	if err := s.WriteEvent(ctx, "run-1", e); err != nil {
		t.Fatalf("WriteEvent() failed: %v", err)
	}

	var payload string
	if err := s.db.QueryRow(`SELECT payload FROM events WHERE run_id = 'run-1' AND seq = 7`).Scan(&payload); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	want := `{"kind":"op","object":"o1","op":"add","result":"0","seq":7,"target":"c"}`
	if payload != want {
		t.Errorf("payload = %s, want %s", payload, want)
	}
}

func TestWriteEvent_UnknownRun(t *testing.T) {
	s := createTestStore(t)

	err := s.WriteEvent(context.Background(), "missing", trace.Event{Seq: 1, Kind: trace.KindOp})
	if err == nil {
		t.Error("expected foreign key error")
	}
}

func TestWriteEvents_Atomic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-1")

	events := testTrace()
	events = append(events, trace.Event{Seq: 99, Kind: trace.Kind("bogus")})

	if err := s.WriteEvents(ctx, "run-1", events); err == nil {
		t.Fatal("expected error for invalid kind")
	}

	got, err := s.ReadEvents(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadEvents() failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ReadEvents() returned %d events after rollback, want 0", len(got))
	}
}
