package history

import (
	"context"
	"path/filepath"
	"testing"
)

func TestRecordAndRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	j, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = j.Close() }()

	if err := j.Record(ctx, "ollama", 100, EventStart); err != nil {
		t.Fatalf("Record start: %v", err)
	}
	if err := j.Record(ctx, "transcribe", 101, EventStart); err != nil {
		t.Fatalf("Record start: %v", err)
	}
	if err := j.Record(ctx, "ollama", 100, EventStop); err != nil {
		t.Fatalf("Record stop: %v", err)
	}

	recs, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if recs[0].Service != "ollama" || recs[0].Event != EventStop {
		t.Fatalf("newest record = %+v", recs[0])
	}
	if recs[2].Service != "ollama" || recs[2].Event != EventStart {
		t.Fatalf("oldest record = %+v", recs[2])
	}
	if recs[0].OccurredAt.IsZero() {
		t.Fatalf("OccurredAt not populated: %+v", recs[0])
	}
}

func TestRecentLimit(t *testing.T) {
	ctx := context.Background()
	j, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = j.Close() }()

	for i := 0; i < 5; i++ {
		if err := j.Record(ctx, "svc", i, EventStart); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	recs, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].PID != 4 || recs[1].PID != 3 {
		t.Fatalf("limit returned wrong tail: %+v", recs)
	}
}

func TestOpenCreatesParentDir(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	j, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = j.Close() }()
	if err := j.Record(ctx, "svc", 1, EventStart); err != nil {
		t.Fatalf("Record on fresh file: %v", err)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
