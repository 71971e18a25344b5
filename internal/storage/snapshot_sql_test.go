package storage

import (
	"database/sql"
	"testing"

	"promptstudio/internal/config"
	"promptstudio/internal/models"
	"promptstudio/internal/store"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.Config{Databases: map[string]config.DatabaseConfig{
		"sqlite3": {DSN: ":memory:"},
	}}
	db, err := Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return db
}

func TestSQLStoreMissingSnapshot(t *testing.T) {
	s := NewSQLStore(newTestDB(t))
	snap, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Sessions) != 0 {
		t.Fatalf("expected empty snapshot, got %d sessions", len(snap.Sessions))
	}
}

func TestSQLStoreRoundTrip(t *testing.T) {
	s := NewSQLStore(newTestDB(t))

	session := models.NewChatSession("Persisted", models.ModelGeminiPro)
	session.Messages = append(session.Messages,
		models.NewChatMessage(models.RoleUser, []models.Part{models.TextPart("hello")}))
	if err := s.Save(store.Snapshot{Sessions: []*models.ChatSession{session}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	snap, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Sessions) != 1 {
		t.Fatalf("expected one session, got %d", len(snap.Sessions))
	}
	got := snap.Sessions[0]
	if got.ID != session.ID || got.Title != "Persisted" || len(got.Messages) != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	// A second save overwrites the same key.
	if err := s.Save(store.Snapshot{}); err != nil {
		t.Fatalf("resave: %v", err)
	}
	snap, err = s.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(snap.Sessions) != 0 {
		t.Fatalf("overwrite failed, got %d sessions", len(snap.Sessions))
	}
}

func TestSQLStoreCorruptSnapshot(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.Exec("REPLACE INTO snapshots (`key`, data, updated_at) VALUES (?, 'not-json', datetime('now'))", SnapshotKey); err != nil {
		t.Fatalf("seed corrupt row: %v", err)
	}
	if _, err := NewSQLStore(db).Load(); err == nil {
		t.Fatalf("expected a decode error for a corrupt snapshot")
	}
}
