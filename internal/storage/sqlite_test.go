package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	logx "pillbot/pkg/logx"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	st, err := Open(Config{
		Driver:      "sqlite",
		Path:        filepath.Join(dir, "state.db"),
		BusyTimeout: 2 * time.Second,
	}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()
	assertRoundTrip(t, st)
}

func TestSQLiteSaveReplacesState(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	st, err := Open(Config{Driver: "sqlite", Path: filepath.Join(dir, "state.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()
	ctx := context.Background()

	if err := st.SaveAll(ctx, testRecords()); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	// Saving a smaller map must drop rows, not merge.
	want := testRecords()
	delete(want, 102)
	if err := st.SaveAll(ctx, want); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	got, err := st.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("loaded %d records, want 1", len(got))
	}
	if _, ok := got[101]; !ok {
		t.Fatal("user 101 missing")
	}
}
