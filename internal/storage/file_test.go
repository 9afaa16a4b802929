package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pillbot/internal/course"
	logx "pillbot/pkg/logx"
)

func testRecords() map[int64]course.Record {
	start := time.Date(2024, 5, 1, 8, 30, 0, 0, time.Local)
	return map[int64]course.Record{
		101: {
			StartedAt: start,
			Active:    true,
			DoseLog: []time.Time{
				start.Add(1 * time.Hour),
				start.Add(3 * time.Hour),
				start.Add(5 * time.Hour),
			},
		},
		102: {}, // touched but never started
	}
}

func assertRoundTrip(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	want := testRecords()

	if err := st.SaveAll(ctx, want); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	got, err := st.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("loaded %d records, want %d", len(got), len(want))
	}
	for id, w := range want {
		g, ok := got[id]
		if !ok {
			t.Fatalf("user %d missing after round trip", id)
		}
		if g.Active != w.Active {
			t.Fatalf("user %d: active = %v, want %v", id, g.Active, w.Active)
		}
		if !g.StartedAt.Equal(w.StartedAt) {
			t.Fatalf("user %d: started = %v, want %v", id, g.StartedAt, w.StartedAt)
		}
		if len(g.DoseLog) != len(w.DoseLog) {
			t.Fatalf("user %d: %d doses, want %d", id, len(g.DoseLog), len(w.DoseLog))
		}
		for i := range w.DoseLog {
			if !g.DoseLog[i].Equal(w.DoseLog[i]) {
				t.Fatalf("user %d: dose #%d = %v, want %v", id, i, g.DoseLog[i], w.DoseLog[i])
			}
		}
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(dir, "state.json")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()
	assertRoundTrip(t, st)
}

func TestFileStoreLoadMissingFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(dir, "state.json")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	got, err := st.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll on missing file: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty state, got %d records", len(got))
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	if _, err := st.LoadAll(context.Background()); err == nil {
		t.Fatal("expected error for corrupt state file")
	}
}

func TestOpenDisabledAndUnknown(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{}, logx.Nop())
	if err != nil || st != nil {
		t.Fatalf("disabled storage: got (%v, %v)", st, err)
	}
	if _, err := Open(Config{Driver: "bolt"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
