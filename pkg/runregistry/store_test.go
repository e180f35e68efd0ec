package runregistry

import (
	"testing"
	"time"
)

func TestStore_WriteGetRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	rec := &RunRecord{
		RunID:        "run-1",
		State:        RunStateCompleted,
		ManifestPath: "/tmp/run.yaml",
		Sources:      []string{"worker-1.log", "worker-2.log"},
		JobsTotal:    12,
		Successes:    9,
		Errors:       2,
		Incompletes:  1,
		ReportPath:   "/tmp/report.csv",
		CreatedAt:    now,
		EndedAt:      &now,
	}

	if err := s.Write(rec); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	got, err := s.Get("run-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.RunID != rec.RunID {
		t.Fatalf("run_id mismatch: got=%q want=%q", got.RunID, rec.RunID)
	}
	if got.State != RunStateCompleted {
		t.Fatalf("state mismatch: got=%q", got.State)
	}
	if got.JobsTotal != 12 || got.Successes != 9 {
		t.Fatalf("counters not persisted: %+v", got)
	}
	if len(got.Sources) != 2 {
		t.Fatalf("sources not persisted: %+v", got.Sources)
	}
}

func TestStore_WriteRequiresRunID(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.Write(&RunRecord{}); err == nil {
		t.Fatal("expected error for empty run_id")
	}
	if err := s.Write(nil); err == nil {
		t.Fatal("expected error for nil record")
	}
}

func TestStore_ListSortsNewestFirst(t *testing.T) {
	s := NewStore(t.TempDir())

	t1 := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 8, 30, 13, 0, 0, 0, time.UTC)

	if err := s.Write(&RunRecord{RunID: "run-1", State: RunStateCompleted, CreatedAt: t1}); err != nil {
		t.Fatalf("Write run-1: %v", err)
	}
	if err := s.Write(&RunRecord{RunID: "run-2", State: RunStateRunning, CreatedAt: t2}); err != nil {
		t.Fatalf("Write run-2: %v", err)
	}

	got, err := s.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected run count: %d", len(got))
	}
	if got[0].RunID != "run-2" {
		t.Fatalf("expected newest first, got[0]=%q", got[0].RunID)
	}
}

func TestStore_ListEmptyRoot(t *testing.T) {
	s := NewStore(t.TempDir())
	got, err := s.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %d", len(got))
	}
}
