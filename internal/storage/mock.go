package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/platform-eight/commute-engine/pkg/game"
	"github.com/platform-eight/commute-engine/pkg/scene"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*game.Session
	scenes    map[string]*scene.Scene
	pingError error
	saveError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions: make(map[uuid.UUID]*game.Session),
		scenes:   make(map[string]*scene.Scene),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail session saves
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// AddScene registers a scene under a filename
func (m *MockStorage) AddScene(filename string, s *scene.Scene) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenes[filename] = s
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveSession mocks saving a session
func (m *MockStorage) SaveSession(ctx context.Context, id uuid.UUID, s *game.Session) error {
	if s == nil {
		return errors.New("session cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.sessions[id] = s
	return nil
}

// LoadSession mocks loading a session
func (m *MockStorage) LoadSession(ctx context.Context, id uuid.UUID) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, exists := m.sessions[id]
	if !exists {
		return nil, nil // Return nil for not found
	}
	return s, nil
}

// DeleteSession mocks deleting a session
func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// ListScenes mocks listing scenes
func (m *MockStorage) ListScenes(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	scenes := make(map[string]string, len(m.scenes))
	for filename, s := range m.scenes {
		scenes[s.Name] = filename
	}
	return scenes, nil
}

// GetScene mocks loading a scene
func (m *MockStorage) GetScene(ctx context.Context, filename string) (*scene.Scene, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, exists := m.scenes[filename]
	if !exists {
		return nil, errors.New("scene not found")
	}
	return s, nil
}
