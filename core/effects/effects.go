package effects

import "fmt"

// Preset identifies an equalizer curve.
type Preset string

const (
	PresetFlat      Preset = "flat"
	PresetRock      Preset = "rock"
	PresetJazz      Preset = "jazz"
	PresetClassical Preset = "classical"
	PresetVocal     Preset = "vocal"
	PresetBassHeavy Preset = "bass_heavy"
	PresetDeepBass  Preset = "deep_bass"
)

// BassHeavy reports whether the preset already encodes a bass-increase
// curve. The dedicated bass-boost effect is suppressed for these presets to
// avoid double-boosting.
func (p Preset) BassHeavy() bool {
	return p == PresetBassHeavy || p == PresetDeepBass
}

// Valid reports whether the preset is known.
func (p Preset) Valid() bool {
	switch p {
	case PresetFlat, PresetRock, PresetJazz, PresetClassical, PresetVocal, PresetBassHeavy, PresetDeepBass:
		return true
	}
	return false
}

// Settings holds the audio-processing configuration applied to the shared
// engine. It is retained by the handle and re-applied whenever the engine's
// audio session changes.
type Settings struct {
	EqualizerPreset Preset
	BassBoost       int  // strength 0-1000, 0 disables the dedicated effect
	VolumeBoost     int  // millibels of loudness gain, 0 disables
	Normalize       bool // loudness normalization
}

// DefaultSettings returns the neutral configuration.
func DefaultSettings() Settings {
	return Settings{EqualizerPreset: PresetFlat}
}

// Effect is one bound audio effect. Each effect is independently optional:
// a construction failure for one must not prevent the others.
type Effect interface {
	Name() string
	Release()
}

// Constructors builds the individual effects against an audio session id.
// Injectable so tests can simulate per-effect construction failures.
type Constructors struct {
	Loudness  func(sessionID, gainMb int, normalize bool) (Effect, error)
	BassBoost func(sessionID, strength int) (Effect, error)
	Equalizer func(sessionID int, preset Preset) (Effect, error)
}

// DefaultConstructors returns the built-in effect implementations.
func DefaultConstructors() Constructors {
	return Constructors{
		Loudness:  newLoudnessEnhancer,
		BassBoost: newBassBoost,
		Equalizer: newEqualizer,
	}
}

type loudnessEnhancer struct {
	sessionID int
	gainMb    int
	normalize bool
}

func newLoudnessEnhancer(sessionID, gainMb int, normalize bool) (Effect, error) {
	if gainMb < 0 {
		return nil, fmt.Errorf("invalid loudness gain: %d", gainMb)
	}
	return &loudnessEnhancer{sessionID: sessionID, gainMb: gainMb, normalize: normalize}, nil
}

func (e *loudnessEnhancer) Name() string { return "loudness" }
func (e *loudnessEnhancer) Release()     {}

type bassBoost struct {
	sessionID int
	strength  int
}

func newBassBoost(sessionID, strength int) (Effect, error) {
	if strength < 0 || strength > 1000 {
		return nil, fmt.Errorf("bass boost strength out of range: %d", strength)
	}
	return &bassBoost{sessionID: sessionID, strength: strength}, nil
}

func (e *bassBoost) Name() string { return "bass_boost" }
func (e *bassBoost) Release()     {}

type equalizer struct {
	sessionID int
	preset    Preset
}

func newEqualizer(sessionID int, preset Preset) (Effect, error) {
	if !preset.Valid() {
		return nil, fmt.Errorf("unknown equalizer preset: %s", preset)
	}
	return &equalizer{sessionID: sessionID, preset: preset}, nil
}

func (e *equalizer) Name() string { return "equalizer" }
func (e *equalizer) Release()     {}
