package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/platform-eight/commute-engine/pkg/game"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupTestStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	return NewRedisStorage(mr.Addr(), t.TempDir(), testLogger()), mr
}

func newTestSession(t *testing.T) *game.Session {
	t.Helper()
	s, err := game.NewSession(game.SessionConfig{
		Scene: "terrace_line.json",
		CommuterTypes: game.TypeCatalog{
			"commuter1": {"red_coat", "blue_coat"},
		},
		SetDressingTypes: game.TypeCatalog{
			"bench": {"wood", "metal"},
		},
		OpeningCommuters: []string{"commuter1"},
		OpeningProps:     []string{"bench"},
	})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return s
}

func TestRedisStorage_SessionRoundTrip(t *testing.T) {
	store, _ := setupTestStorage(t)
	defer store.Close()
	ctx := context.Background()

	s := newTestSession(t)
	s.Day = 5
	s.Awareness = game.Awareness{Level: 3, XP: 40}

	if err := store.SaveSession(ctx, s.ID, s); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	loaded, err := store.LoadSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}
	if loaded == nil {
		t.Fatal("Saved session not found")
	}
	if loaded.Day != 5 {
		t.Errorf("Expected day 5, got %d", loaded.Day)
	}
	if loaded.Awareness.Level != 3 || loaded.Awareness.XP != 40 {
		t.Errorf("Awareness not round-tripped: %+v", loaded.Awareness)
	}
	if loaded.Registry.Count(game.KindCommuter) != 1 {
		t.Errorf("Registry not round-tripped: %d commuters", loaded.Registry.Count(game.KindCommuter))
	}
}

func TestRedisStorage_SessionNotFound(t *testing.T) {
	store, _ := setupTestStorage(t)
	defer store.Close()

	loaded, err := store.LoadSession(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Load of missing session errored: %v", err)
	}
	if loaded != nil {
		t.Error("Expected nil for a missing session")
	}
}

func TestRedisStorage_DeleteSession(t *testing.T) {
	store, _ := setupTestStorage(t)
	defer store.Close()
	ctx := context.Background()

	s := newTestSession(t)
	if err := store.SaveSession(ctx, s.ID, s); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}
	if err := store.DeleteSession(ctx, s.ID); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}

	loaded, err := store.LoadSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("Load after delete errored: %v", err)
	}
	if loaded != nil {
		t.Error("Session still present after delete")
	}
}

func TestRedisStorage_CorruptSessionRepaired(t *testing.T) {
	store, mr := setupTestStorage(t)
	defer store.Close()
	ctx := context.Background()

	// A truncated save: only the day survived.
	id := uuid.New()
	mr.Set("session:"+id.String(), `{"day": 7}`)

	loaded, err := store.LoadSession(ctx, id)
	if err != nil {
		t.Fatalf("Load of partial session errored: %v", err)
	}
	if loaded.Day != 7 {
		t.Errorf("Valid field discarded: day %d", loaded.Day)
	}
	if loaded.Awareness.Level != 1 {
		t.Errorf("Defaults not applied to missing fields: level %d", loaded.Awareness.Level)
	}
	if loaded.State != game.StateRiding {
		t.Errorf("Defaults not applied to state: %s", loaded.State)
	}
}

func TestRedisStorage_Scenes(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	dataDir := t.TempDir()
	scenesDir := filepath.Join(dataDir, "scenes")
	if err := os.MkdirAll(scenesDir, 0o755); err != nil {
		t.Fatalf("Failed to create scenes dir: %v", err)
	}

	content := `{
		"name": "Terrace Line",
		"commuter_types": {"commuter1": ["red_coat", "blue_coat"]},
		"set_dressing_types": {"bench": ["wood"]},
		"opening_commuters": ["commuter1"],
		"opening_props": ["bench"]
	}`
	if err := os.WriteFile(filepath.Join(scenesDir, "terrace_line.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write scene file: %v", err)
	}

	store := NewRedisStorage(mr.Addr(), dataDir, testLogger())
	defer store.Close()
	ctx := context.Background()

	scenes, err := store.ListScenes(ctx)
	if err != nil {
		t.Fatalf("Failed to list scenes: %v", err)
	}
	if scenes["Terrace Line"] != "terrace_line.json" {
		t.Errorf("Expected 'Terrace Line' -> 'terrace_line.json', got %v", scenes)
	}

	s, err := store.GetScene(ctx, "terrace_line.json")
	if err != nil {
		t.Fatalf("Failed to get scene: %v", err)
	}
	if s.Name != "Terrace Line" {
		t.Errorf("Expected scene name 'Terrace Line', got %q", s.Name)
	}
	if s.FileName != "terrace_line.json" {
		t.Errorf("FileName not set from path, got %q", s.FileName)
	}

	if _, err := store.GetScene(ctx, "nonexistent.json"); err == nil {
		t.Error("Expected error for a missing scene")
	}
}
