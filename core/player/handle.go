package player

import (
	"sync"

	"Shelfwave/core/effects"
	"Shelfwave/logger"
)

// Handle is the reference-counted owner of the single shared engine used for
// music playback. Every surface that shows or drives music (API session,
// transport service) acquires the handle and releases it on teardown; the
// engine is constructed on the 0->1 transition and disposed on 1->0.
//
// All operations are serialized by one mutex: the refCount/engine pair must
// change atomically because acquires and releases arrive from surfaces with
// different lifetimes.
type Handle struct {
	mu sync.Mutex

	factory  func() Engine
	engine   Engine
	refCount int

	chain         *effects.Chain
	settings      effects.Settings
	lastSessionID int
}

// NewHandle creates a handle. The factory builds a fresh engine on demand;
// the chain and settings describe the audio-processing applied to it.
func NewHandle(factory func() Engine, chain *effects.Chain, settings effects.Settings) *Handle {
	return &Handle{
		factory:  factory,
		chain:    chain,
		settings: settings,
	}
}

// Acquire returns the shared engine, constructing it if no holder exists.
func (h *Handle) Acquire() Engine {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.refCount++
	if h.engine == nil {
		h.engine = h.factory()
		h.lastSessionID = h.engine.AudioSessionID()
		h.chain.Rebuild(h.lastSessionID, h.settings)
		logger.Debug("shared engine constructed", logger.Int("refCount", h.refCount))
	}
	return h.engine
}

// Release drops one reference. On the 1->0 transition the engine and its
// effects chain are disposed. A release with no outstanding reference is a
// no-op, guarding against double-release from overlapping teardown paths.
func (h *Handle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.refCount == 0 {
		logger.Warn("release of shared engine with no outstanding reference")
		return
	}
	h.refCount--
	if h.refCount > 0 {
		return
	}

	h.chain.Teardown()
	if err := h.engine.Close(); err != nil {
		logger.Warn("failed to close shared engine", logger.ErrorField(err))
	}
	h.engine = nil
	h.lastSessionID = 0
	logger.Debug("shared engine disposed")
}

// RefCount returns the current number of holders.
func (h *Handle) RefCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.refCount
}

// Engine returns the live engine, or nil when no holder exists.
func (h *Handle) Engine() Engine {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engine
}

// SyncEffects re-binds the effects chain when the engine's audio session has
// changed since the last bind. Called after loads and playback starts.
func (h *Handle) SyncEffects() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.engine == nil {
		return
	}
	sid := h.engine.AudioSessionID()
	if sid == h.lastSessionID {
		return
	}
	h.lastSessionID = sid
	h.chain.Rebuild(sid, h.settings)
}

// AudioSettings returns the retained audio-processing configuration.
func (h *Handle) AudioSettings() effects.Settings {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.settings
}

// UpdateAudioSettings replaces the configuration. It applies immediately to
// the live engine's session if one exists; otherwise it is retained and
// applied on the next acquire.
func (h *Handle) UpdateAudioSettings(s effects.Settings) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.settings = s
	h.applySettingsLocked()
}

// SetEqualizerPreset updates only the equalizer preset.
func (h *Handle) SetEqualizerPreset(p effects.Preset) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.settings.EqualizerPreset = p
	h.applySettingsLocked()
}

// SetBassBoost updates only the bass boost strength.
func (h *Handle) SetBassBoost(strength int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.settings.BassBoost = strength
	h.applySettingsLocked()
}

// SetVolumeBoost updates only the loudness gain.
func (h *Handle) SetVolumeBoost(gainMb int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.settings.VolumeBoost = gainMb
	h.applySettingsLocked()
}

// SetNormalize updates only the normalization flag.
func (h *Handle) SetNormalize(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.settings.Normalize = enabled
	h.applySettingsLocked()
}

func (h *Handle) applySettingsLocked() {
	if h.engine == nil {
		return
	}
	sid := h.engine.AudioSessionID()
	h.lastSessionID = sid
	h.chain.Rebuild(sid, h.settings)
}
