package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/me/sheetify/internal/logging"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := Open(context.Background(), ":memory:", logging.Discard())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	st := testStore(t)
	value, ok, err := st.Get(context.Background(), KeyAuth)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok || value != nil {
		t.Errorf("expected missing key, got ok=%v value=%q", ok, value)
	}
}

func TestSQLiteStore_PutOverwrites(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.Put(ctx, KeyAuth, []byte(`{"email":"a@example.com"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := st.Put(ctx, KeyAuth, []byte(`{"email":"b@example.com"}`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}

	value, ok, err := st.Get(ctx, KeyAuth)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected key to be present")
	}
	if string(value) != `{"email":"b@example.com"}` {
		t.Errorf("value = %s, want second write", value)
	}
}

func TestSQLiteStore_Delete(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.Put(ctx, KeySession, []byte("{}")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := st.Delete(ctx, KeySession); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := st.Get(ctx, KeySession); ok {
		t.Error("expected key to be gone after Delete")
	}
	// Deleting a missing key is not an error.
	if err := st.Delete(ctx, KeySession); err != nil {
		t.Errorf("Delete missing: %v", err)
	}
}

func TestSQLiteStore_MigrateIdempotent(t *testing.T) {
	st := testStore(t)
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestSQLiteStore_FilePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "sheetify.db")

	st, err := Open(ctx, path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.Put(ctx, KeyAuth, []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	st.Close()

	reopened, err := Open(ctx, path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	value, ok, err := reopened.Get(ctx, KeyAuth)
	if err != nil || !ok || string(value) != "x" {
		t.Errorf("Get after reopen = %q, %v, %v", value, ok, err)
	}
}
