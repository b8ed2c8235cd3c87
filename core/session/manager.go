package session

import (
	"context"
	"sync"

	"Shelfwave/core/player"
	"Shelfwave/logger"
	"Shelfwave/repository"
)

// Manager hands out one coordinator per profile, building it lazily on first
// use. The first build runs the cold-start restore so the profile's session
// reappears exactly where it left off.
type Manager struct {
	mu           sync.Mutex
	coordinators map[int64]*Coordinator

	library    repository.LibraryRepository
	settings   SettingsStore
	queueStore QueueStore
	handle     *player.Handle
	bookEngine func() player.Engine
}

// NewManager creates a manager over the shared collaborators.
func NewManager(library repository.LibraryRepository, settings SettingsStore, queueStore QueueStore, handle *player.Handle, bookEngine func() player.Engine) *Manager {
	return &Manager{
		coordinators: make(map[int64]*Coordinator),
		library:      library,
		settings:     settings,
		queueStore:   queueStore,
		handle:       handle,
		bookEngine:   bookEngine,
	}
}

// ForProfile returns the profile's coordinator, creating and restoring it on
// first access.
func (m *Manager) ForProfile(ctx context.Context, profileID int64) *Coordinator {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.coordinators[profileID]; ok {
		return c
	}

	c := NewCoordinator(Config{
		ProfileID:  profileID,
		Library:    m.library,
		Settings:   m.settings,
		Queue:      m.queueStore,
		Handle:     m.handle,
		BookEngine: m.bookEngine,
	})
	if err := c.RestoreOnColdStart(ctx); err != nil {
		logger.Warn("cold start restore failed",
			logger.Int64("profileId", profileID),
			logger.ErrorField(err))
	}
	m.coordinators[profileID] = c
	return c
}

// CloseAll checkpoints and closes every coordinator.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, c := range m.coordinators {
		c.Close()
		delete(m.coordinators, id)
	}
}
