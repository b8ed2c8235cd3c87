package transport

import (
	"context"
	"sync"
	"time"

	"Shelfwave/core/player"
	"Shelfwave/core/session"
	"Shelfwave/logger"
	"Shelfwave/model"
)

// Seek step sizes for the remote transport controls. Back is short for
// replaying a missed moment, forward is long for skipping audiobook filler.
const (
	SeekBackStep    = 10 * time.Second
	SeekForwardStep = 30 * time.Second
)

// Service is the remote-control boundary. It accepts kind-agnostic commands
// (play/pause, seek steps, stop) and applies them to whatever the session
// currently considers active, then pushes the refreshed snapshot to every
// connected client. Chapter navigation is signal-only: the service does not
// know chapter offsets, clients resolve them locally.
//
// While running it holds its own reference on the shared player handle, so
// the engine outlives any individual coordinator teardown for as long as
// remote controls are live.
type Service struct {
	mu      sync.Mutex
	handle  *player.Handle
	hub     *Hub
	manager *session.Manager
	running bool
}

// NewService creates the transport service over the shared handle and hub.
func NewService(handle *player.Handle, hub *Hub, manager *session.Manager) *Service {
	return &Service{
		handle:  handle,
		hub:     hub,
		manager: manager,
	}
}

// Start takes a reference on the shared handle and begins accepting
// commands. Idempotent.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.handle.Acquire()
	s.running = true
	logger.Info("transport service started")
}

// Stop drops the handle reference. Idempotent.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.handle.Release()
	s.running = false
	logger.Info("transport service stopped")
}

// TogglePlayPause flips play/pause on the active kind.
func (s *Service) TogglePlayPause(ctx context.Context, profileID int64) *model.PlaybackSnapshot {
	c := s.manager.ForProfile(ctx, profileID)
	c.TogglePlayPause(ctx)
	return s.push(profileID, c)
}

// SeekBack steps the active kind back by the fixed step.
func (s *Service) SeekBack(ctx context.Context, profileID int64) *model.PlaybackSnapshot {
	c := s.manager.ForProfile(ctx, profileID)
	c.SeekBy(ctx, -SeekBackStep)
	return s.push(profileID, c)
}

// SeekForward steps the active kind forward by the fixed step.
func (s *Service) SeekForward(ctx context.Context, profileID int64) *model.PlaybackSnapshot {
	c := s.manager.ForProfile(ctx, profileID)
	c.SeekBy(ctx, SeekForwardStep)
	return s.push(profileID, c)
}

// Next advances music to the next queue entry.
func (s *Service) Next(ctx context.Context, profileID int64) *model.PlaybackSnapshot {
	c := s.manager.ForProfile(ctx, profileID)
	c.Next(ctx)
	return s.push(profileID, c)
}

// Previous steps music back to the previous queue entry.
func (s *Service) Previous(ctx context.Context, profileID int64) *model.PlaybackSnapshot {
	c := s.manager.ForProfile(ctx, profileID)
	c.Previous(ctx)
	return s.push(profileID, c)
}

// StopPlayback pauses the active kind and checkpoints its progress.
func (s *Service) StopPlayback(ctx context.Context, profileID int64) *model.PlaybackSnapshot {
	c := s.manager.ForProfile(ctx, profileID)
	c.StopActive(ctx)
	return s.push(profileID, c)
}

// PreviousChapter broadcasts an audiobook chapter-back signal.
func (s *Service) PreviousChapter(ctx context.Context, profileID int64) {
	s.hub.Broadcast(profileID, SignalPreviousChapter, nil)
}

// NextChapter broadcasts an audiobook chapter-forward signal.
func (s *Service) NextChapter(ctx context.Context, profileID int64) {
	s.hub.Broadcast(profileID, SignalNextChapter, nil)
}

// push broadcasts the fresh snapshot and returns it for the HTTP response.
func (s *Service) push(profileID int64, c *session.Coordinator) *model.PlaybackSnapshot {
	snap := c.Snapshot()
	if snap == nil {
		s.hub.Broadcast(profileID, SignalDismissed, nil)
	} else {
		s.hub.Broadcast(profileID, SignalNowPlaying, snap)
	}
	return snap
}
