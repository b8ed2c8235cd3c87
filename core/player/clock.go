package player

import (
	"sync"
	"sync/atomic"
	"time"

	"Shelfwave/model"
)

// sessionCounter allocates audio session ids across all engines.
var sessionCounter int64

func nextSessionID() int {
	return int(atomic.AddInt64(&sessionCounter, 1))
}

// ClockEngine is the service-side playback engine. It advances the playback
// position against the wall clock while playing and fires the finished
// channel at natural end-of-media. Connected clients mirror this timeline;
// the server never touches audio samples itself.
type ClockEngine struct {
	mu sync.Mutex

	item      *model.MediaItem
	state     State
	base      time.Duration // position accumulated up to startedAt
	startedAt time.Time     // wall-clock anchor while playing
	duration  time.Duration
	sessionID int
	closed    bool

	endTimer   *time.Timer
	finishedCh chan struct{}
}

// NewClockEngine creates a stopped engine with no media loaded.
func NewClockEngine() *ClockEngine {
	return &ClockEngine{
		finishedCh: make(chan struct{}, 1), // buffered to avoid blocking
	}
}

// Load replaces the current media item and allocates a fresh audio session.
func (e *ClockEngine) Load(item *model.MediaItem) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	if item == nil {
		return ErrNoMedia
	}
	e.stopTimerLocked()
	e.item = item
	e.state = StateStopped
	e.base = 0
	e.duration = time.Duration(item.DurationMs) * time.Millisecond
	e.sessionID = nextSessionID()
	return nil
}

// Play starts or resumes playback.
func (e *ClockEngine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	if e.item == nil {
		return ErrNoMedia
	}
	if e.state == StatePlaying {
		return nil
	}
	e.startedAt = time.Now()
	e.state = StatePlaying
	e.armTimerLocked()
	return nil
}

// Pause suspends playback, folding elapsed time into the base position.
func (e *ClockEngine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	if e.state != StatePlaying {
		return nil
	}
	e.base = e.positionLocked()
	e.state = StatePaused
	e.stopTimerLocked()
	return nil
}

// Stop halts playback. The position is kept so a later persist checkpoint
// still sees the last authoritative value.
func (e *ClockEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	e.base = e.positionLocked()
	e.state = StateStopped
	e.stopTimerLocked()
	return nil
}

// SeekTo moves the position, clamped to [0, duration].
func (e *ClockEngine) SeekTo(pos time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	if e.item == nil {
		return ErrNoMedia
	}
	if pos < 0 {
		pos = 0
	}
	if e.duration > 0 && pos > e.duration {
		pos = e.duration
	}
	e.base = pos
	if e.state == StatePlaying {
		e.startedAt = time.Now()
		e.armTimerLocked()
	}
	return nil
}

// Position returns the current playback position.
func (e *ClockEngine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked()
}

func (e *ClockEngine) positionLocked() time.Duration {
	pos := e.base
	if e.state == StatePlaying {
		pos += time.Since(e.startedAt)
	}
	if e.duration > 0 && pos > e.duration {
		pos = e.duration
	}
	return pos
}

// Duration returns the loaded item's duration (0 when unknown).
func (e *ClockEngine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

// State returns the current playback state.
func (e *ClockEngine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// AudioSessionID returns the id of the current audio session.
func (e *ClockEngine) AudioSessionID() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

// FinishedChan returns the channel signalled on natural end-of-media.
func (e *ClockEngine) FinishedChan() <-chan struct{} {
	return e.finishedCh
}

// Close releases the engine. Further commands return ErrEngineClosed.
func (e *ClockEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.state = StateStopped
	e.stopTimerLocked()
	return nil
}

// armTimerLocked schedules the end-of-media signal. Items with unknown
// duration never finish on their own.
func (e *ClockEngine) armTimerLocked() {
	e.stopTimerLocked()
	if e.duration <= 0 {
		return
	}
	remaining := e.duration - e.positionLocked()
	if remaining < 0 {
		remaining = 0
	}
	e.endTimer = time.AfterFunc(remaining, e.onMediaEnd)
}

func (e *ClockEngine) stopTimerLocked() {
	if e.endTimer != nil {
		e.endTimer.Stop()
		e.endTimer = nil
	}
}

func (e *ClockEngine) onMediaEnd() {
	e.mu.Lock()
	if e.closed || e.state != StatePlaying {
		e.mu.Unlock()
		return
	}
	e.base = e.duration
	e.state = StateStopped
	e.endTimer = nil
	e.mu.Unlock()

	select {
	case e.finishedCh <- struct{}{}:
	default:
	}
}

// Verify ClockEngine implements Engine at compile time.
var _ Engine = (*ClockEngine)(nil)
