package pastesvc

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.mau.fi/util/dbutil"
)

func newSQLiteTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	raw, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// The in-memory database lives per connection.
	raw.SetMaxOpenConns(1)
	t.Cleanup(func() { raw.Close() })
	db, err := dbutil.NewWithDB(raw, "sqlite3")
	if err != nil {
		t.Fatalf("wrap db: %v", err)
	}
	return NewSQLiteStore(db)
}

func storeBackends(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"sqlite": newSQLiteTestStore(t),
		"memory": NewMemoryStore(),
	}
}

func TestStorePutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Now()
			entry := &Entry{
				ID:          "abc123",
				ContentType: "text/markdown; charset=utf-8",
				Content:     []byte("# notes\n\nsome text"),
				CreatedAt:   now,
				ExpiresAt:   now.Add(time.Hour),
			}
			if err := store.Put(ctx, entry); err != nil {
				t.Fatalf("put: %v", err)
			}

			got, err := store.Get(ctx, "abc123")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.ContentType != entry.ContentType {
				t.Fatalf("content type not preserved: %q", got.ContentType)
			}
			if !bytes.Equal(got.Content, entry.Content) {
				t.Fatalf("content not preserved: %q", got.Content)
			}
			if got.CreatedAt.UnixMilli() != now.UnixMilli() {
				t.Fatalf("created_at not preserved: %v vs %v", got.CreatedAt, now)
			}
			if got.ExpiresAt.UnixMilli() != entry.ExpiresAt.UnixMilli() {
				t.Fatalf("expires_at not preserved: %v vs %v", got.ExpiresAt, entry.ExpiresAt)
			}
		})
	}
}

func TestStorePutOverwrites(t *testing.T) {
	ctx := context.Background()
	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Now()
			first := &Entry{ID: "dup", ContentType: "text/plain", Content: []byte("one"), CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
			second := &Entry{ID: "dup", ContentType: "application/json", Content: []byte(`{"v":2}`), CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
			if err := store.Put(ctx, first); err != nil {
				t.Fatalf("first put: %v", err)
			}
			if err := store.Put(ctx, second); err != nil {
				t.Fatalf("second put: %v", err)
			}
			got, err := store.Get(ctx, "dup")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.ContentType != "application/json" || string(got.Content) != `{"v":2}` {
				t.Fatalf("expected second put to win, got %q %q", got.ContentType, got.Content)
			}
		})
	}
}

func TestStoreGetUnknownID(t *testing.T) {
	ctx := context.Background()
	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestStoreExpiredEntryIsGoneBeforeSweep(t *testing.T) {
	ctx := context.Background()
	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Now()
			expired := &Entry{
				ID:          "old",
				ContentType: "text/plain",
				Content:     []byte("stale"),
				CreatedAt:   now.Add(-time.Hour),
				ExpiresAt:   now.Add(-time.Minute),
			}
			if err := store.Put(ctx, expired); err != nil {
				t.Fatalf("put: %v", err)
			}
			if _, err := store.Get(ctx, "old"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected expired entry to be hidden, got %v", err)
			}
		})
	}
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Now()
			entry := &Entry{ID: "gone", ContentType: "text/plain", Content: []byte("x"), CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
			if err := store.Put(ctx, entry); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := store.Delete(ctx, "gone"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := store.Get(ctx, "gone"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
			if err := store.Delete(ctx, "gone"); err != nil {
				t.Fatalf("deleting a missing id should not fail: %v", err)
			}
		})
	}
}

func TestStorePurgeExpired(t *testing.T) {
	ctx := context.Background()
	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Now()
			entries := []*Entry{
				{ID: "live", ContentType: "text/plain", Content: []byte("keep"), CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
				{ID: "dead1", ContentType: "text/plain", Content: []byte("a"), CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)},
				{ID: "dead2", ContentType: "text/plain", Content: []byte("b"), CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Minute)},
				{ID: "forever", ContentType: "text/plain", Content: []byte("pin")},
			}
			for _, entry := range entries {
				if err := store.Put(ctx, entry); err != nil {
					t.Fatalf("put %s: %v", entry.ID, err)
				}
			}

			purged, err := store.PurgeExpired(ctx)
			if err != nil {
				t.Fatalf("purge: %v", err)
			}
			if purged != 2 {
				t.Fatalf("expected 2 purged entries, got %d", purged)
			}
			if _, err := store.Get(ctx, "live"); err != nil {
				t.Fatalf("live entry should survive the purge: %v", err)
			}
			if _, err := store.Get(ctx, "forever"); err != nil {
				t.Fatalf("entry without expiry should survive the purge: %v", err)
			}

			purged, err = store.PurgeExpired(ctx)
			if err != nil {
				t.Fatalf("second purge: %v", err)
			}
			if purged != 0 {
				t.Fatalf("second purge should find nothing, got %d", purged)
			}
		})
	}
}

func TestOpenStoreSQLite(t *testing.T) {
	ctx := context.Background()
	store, closeStore, err := OpenStore(Config{
		Backend: "sqlite",
		SQLite:  SQLiteConfig{Path: filepath.Join(t.TempDir(), "pastes.db")},
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer closeStore()

	now := time.Now()
	entry := &Entry{ID: "file1", ContentType: "text/plain", Content: []byte("on disk"), CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := store.Put(ctx, entry); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, "file1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Content) != "on disk" {
		t.Fatalf("unexpected content: %q", got.Content)
	}
}

func TestOpenStoreMemory(t *testing.T) {
	store, closeStore, err := OpenStore(Config{Backend: "memory"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer closeStore()
	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("expected a MemoryStore, got %T", store)
	}
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	_, _, err := OpenStore(Config{Backend: "floppy"})
	if err == nil || !strings.Contains(err.Error(), "unknown paste backend") {
		t.Fatalf("expected unknown backend error, got %v", err)
	}
}

func TestNewS3StoreValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  S3Config
	}{
		{"missing endpoint", S3Config{AccessKey: "a", SecretKey: "s", Bucket: "b"}},
		{"missing credentials", S3Config{Endpoint: "minio.local:9000", Bucket: "b"}},
		{"missing bucket", S3Config{Endpoint: "minio.local:9000", AccessKey: "a", SecretKey: "s"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewS3Store(tc.cfg); err == nil {
				t.Fatal("expected a config validation error")
			}
		})
	}

	store, err := NewS3Store(S3Config{Endpoint: "minio.local:9000", AccessKey: "a", SecretKey: "s", Bucket: "pastes"})
	if err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if store == nil {
		t.Fatal("expected a store")
	}
}
