package player

import (
	"errors"
	"time"

	"Shelfwave/model"
)

// State represents an engine's playback state.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Errors returned by engine operations.
var (
	// ErrEngineClosed is returned when a command reaches an engine that has
	// already been released. Callers in the session layer swallow it: a
	// stale-engine command simply does not take effect.
	ErrEngineClosed = errors.New("engine is closed")
	// ErrNoMedia is returned when a transport command arrives before any
	// media item has been loaded.
	ErrNoMedia = errors.New("no media item loaded")
)

// Engine is an audio playback engine: it loads one media item at a time,
// plays/pauses/seeks, and reports position and duration. All commands are
// non-blocking; completion of the current item is signalled on FinishedChan.
type Engine interface {
	Load(item *model.MediaItem) error
	Play() error
	Pause() error
	Stop() error
	SeekTo(pos time.Duration) error
	Position() time.Duration
	Duration() time.Duration
	State() State
	// AudioSessionID identifies the engine's current audio session. A new
	// session is allocated per loaded media; the effects chain re-binds
	// whenever it changes.
	AudioSessionID() int
	FinishedChan() <-chan struct{}
	Close() error
}
