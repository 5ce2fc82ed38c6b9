package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/platform-eight/commute-engine/pkg/game"
	"github.com/platform-eight/commute-engine/pkg/scene"
)

// Storage defines a unified interface for all storage operations.
// Sessions live in Redis; scene content is filesystem-backed.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Session operations (Redis-backed)
	SaveSession(ctx context.Context, id uuid.UUID, s *game.Session) error
	LoadSession(ctx context.Context, id uuid.UUID) (*game.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// Scene content operations (filesystem-backed)
	ListScenes(ctx context.Context) (map[string]string, error)
	GetScene(ctx context.Context, filename string) (*scene.Scene, error)
}
