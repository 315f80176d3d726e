package session

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"torn_tools/internal/app"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nested", "kv.sqlite"))
	if err != nil {
		t.Fatalf("Expected sqlite store to open, got %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, &app.Config{StoreDialect: "postgres"})
	if err == nil || !strings.Contains(err.Error(), "requires STORE_POSTGRES_DSN or DATABASE_URL") {
		t.Errorf("Expected postgres DSN error, got %v", err)
	}

	_, err = Open(ctx, &app.Config{StoreDialect: "bogus"})
	if err == nil || !strings.Contains(err.Error(), "unsupported STORE_DIALECT") {
		t.Errorf("Expected unsupported dialect error, got %v", err)
	}
}

func TestOpen_SQLiteFromConfig(t *testing.T) {
	cfg := &app.Config{
		StoreDialect:    "sqlite",
		StoreSQLitePath: filepath.Join(t.TempDir(), "config.sqlite"),
	}

	store, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer store.Close()

	if store.dialect != DialectSQLite {
		t.Errorf("Expected sqlite dialect, got %s", store.dialect)
	}
}

func TestStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "color", "red"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := store.Set(ctx, "color", "blue"); err != nil {
		t.Fatalf("Expected overwrite to succeed, got %v", err)
	}

	value, ok, err := store.Get(ctx, "color")
	if err != nil || !ok {
		t.Fatalf("Expected stored key, got ok=%v err=%v", ok, err)
	}
	if value != "blue" {
		t.Errorf("Expected 'blue', got '%s'", value)
	}

	if err := store.Delete(ctx, "color", "never-set"); err != nil {
		t.Fatalf("Expected delete to succeed, got %v", err)
	}
	if _, ok, _ := store.Get(ctx, "color"); ok {
		t.Error("Expected key to be removed")
	}
}

func TestStore_EmptyValueIsStored(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Set(ctx, KeyAPIKey, ""); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	value, ok, err := store.Get(ctx, KeyAPIKey)
	if err != nil || !ok || value != "" {
		t.Errorf("Expected empty stored value, got value=%q ok=%v err=%v", value, ok, err)
	}
}

func TestStore_APIKeyAndUsername(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if key, err := store.GetAPIKey(ctx); err != nil || key != "" {
		t.Fatalf("Expected no key, got '%s' (%v)", key, err)
	}

	if err := store.SaveAPIKey(ctx, "abc123"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := store.SaveUsername(ctx, "Tester"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if key, _ := store.GetAPIKey(ctx); key != "abc123" {
		t.Errorf("Expected 'abc123', got '%s'", key)
	}
	if name, _ := store.GetUsername(ctx); name != "Tester" {
		t.Errorf("Expected 'Tester', got '%s'", name)
	}

	// Removing the key clears the cached username too
	if err := store.RemoveAPIKey(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if key, _ := store.GetAPIKey(ctx); key != "" {
		t.Errorf("Expected key removed, got '%s'", key)
	}
	if name, _ := store.GetUsername(ctx); name != "" {
		t.Errorf("Expected username removed, got '%s'", name)
	}
}

func TestStore_MigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.sqlite")

	first, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := first.SaveAPIKey(ctx, "persisted"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	first.Close()

	second, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("Expected reopen to succeed, got %v", err)
	}
	defer second.Close()

	if key, _ := second.GetAPIKey(ctx); key != "persisted" {
		t.Errorf("Expected 'persisted', got '%s'", key)
	}
}
