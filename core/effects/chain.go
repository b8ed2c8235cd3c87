package effects

import (
	"sync"

	"Shelfwave/logger"
)

// Chain owns the effects bound to one audio session. Whenever the session id
// changes the prior effects are torn down and rebuilt against the new id.
type Chain struct {
	mu        sync.Mutex
	cons      Constructors
	sessionID int
	bound     []Effect
}

// NewChain creates an empty chain using the given constructors.
func NewChain(cons Constructors) *Chain {
	return &Chain{cons: cons}
}

// Rebuild tears down the current effects and constructs the chain against
// the given session id. Each effect is attempted independently; a failed
// construction leaves that effect unavailable and the rest applied.
func (c *Chain) Rebuild(sessionID int, s Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardownLocked()
	c.sessionID = sessionID
	if sessionID == 0 {
		return // no audio session yet
	}

	if eq, err := c.cons.Equalizer(sessionID, s.EqualizerPreset); err != nil {
		logger.Warn("equalizer unavailable",
			logger.Int("sessionId", sessionID),
			logger.String("preset", string(s.EqualizerPreset)),
			logger.ErrorField(err))
	} else {
		c.bound = append(c.bound, eq)
	}

	// The preset's own bass curve wins over the dedicated effect.
	if s.BassBoost > 0 && !s.EqualizerPreset.BassHeavy() {
		if bb, err := c.cons.BassBoost(sessionID, s.BassBoost); err != nil {
			logger.Warn("bass boost unavailable",
				logger.Int("sessionId", sessionID),
				logger.ErrorField(err))
		} else {
			c.bound = append(c.bound, bb)
		}
	}

	if s.VolumeBoost > 0 || s.Normalize {
		if le, err := c.cons.Loudness(sessionID, s.VolumeBoost, s.Normalize); err != nil {
			logger.Warn("loudness enhancer unavailable",
				logger.Int("sessionId", sessionID),
				logger.ErrorField(err))
		} else {
			c.bound = append(c.bound, le)
		}
	}
}

// Teardown releases all bound effects.
func (c *Chain) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	c.sessionID = 0
}

func (c *Chain) teardownLocked() {
	for _, e := range c.bound {
		e.Release()
	}
	c.bound = nil
}

// SessionID returns the session the chain is currently bound to.
func (c *Chain) SessionID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Active returns the names of the currently bound effects.
func (c *Chain) Active() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, len(c.bound))
	for i, e := range c.bound {
		names[i] = e.Name()
	}
	return names
}
