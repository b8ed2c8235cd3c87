package player

import (
	"sync"
	"time"

	"Shelfwave/model"
)

// MockEngine is a controllable Engine for tests.
type MockEngine struct {
	mu sync.Mutex

	item      *model.MediaItem
	state     State
	position  time.Duration
	duration  time.Duration
	sessionID int
	closed    bool

	finishedCh chan struct{}

	// Call counters for assertions.
	LoadCalls  int
	PlayCalls  int
	PauseCalls int
	StopCalls  int
	SeekCalls  int
	LastSeek   time.Duration
}

// NewMock creates a mock engine.
func NewMock() *MockEngine {
	return &MockEngine{
		finishedCh: make(chan struct{}, 1),
	}
}

func (m *MockEngine) Load(item *model.MediaItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrEngineClosed
	}
	if item == nil {
		return ErrNoMedia
	}
	m.LoadCalls++
	m.item = item
	m.state = StateStopped
	m.position = 0
	m.duration = time.Duration(item.DurationMs) * time.Millisecond
	m.sessionID++
	return nil
}

func (m *MockEngine) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrEngineClosed
	}
	if m.item == nil {
		return ErrNoMedia
	}
	m.PlayCalls++
	m.state = StatePlaying
	return nil
}

func (m *MockEngine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrEngineClosed
	}
	m.PauseCalls++
	if m.state == StatePlaying {
		m.state = StatePaused
	}
	return nil
}

func (m *MockEngine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrEngineClosed
	}
	m.StopCalls++
	m.state = StateStopped
	return nil
}

func (m *MockEngine) SeekTo(pos time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrEngineClosed
	}
	m.SeekCalls++
	m.LastSeek = pos
	m.position = pos
	return nil
}

func (m *MockEngine) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *MockEngine) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *MockEngine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *MockEngine) AudioSessionID() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

func (m *MockEngine) FinishedChan() <-chan struct{} {
	return m.finishedCh
}

func (m *MockEngine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.state = StateStopped
	return nil
}

// Test helpers.

// SetPosition overrides the reported position.
func (m *MockEngine) SetPosition(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = pos
}

// SetDuration overrides the reported duration.
func (m *MockEngine) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

// Item returns the currently loaded item.
func (m *MockEngine) Item() *model.MediaItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.item
}

// Closed reports whether Close was called.
func (m *MockEngine) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// FireFinished simulates natural end-of-media.
func (m *MockEngine) FireFinished() {
	m.mu.Lock()
	m.state = StateStopped
	m.position = m.duration
	m.mu.Unlock()
	select {
	case m.finishedCh <- struct{}{}:
	default:
	}
}

// Verify MockEngine implements Engine at compile time.
var _ Engine = (*MockEngine)(nil)
