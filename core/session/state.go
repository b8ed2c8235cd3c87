package session

import "Shelfwave/model"

// State is the single authoritative session state. The scattered "is music
// playing / is audiobook playing" flags of the UI are derived projections of
// this value, never independently mutated.
type State int

const (
	Idle State = iota
	PlayingMusic
	PausedMusic
	PlayingAudiobook
	PausedAudiobook
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case PlayingMusic:
		return "PlayingMusic"
	case PausedMusic:
		return "PausedMusic"
	case PlayingAudiobook:
		return "PlayingAudiobook"
	case PausedAudiobook:
		return "PausedAudiobook"
	default:
		return "Unknown"
	}
}

// ActiveKind returns the content kind the session currently considers "now
// playing", and whether there is one.
func (s State) ActiveKind() (model.MediaKind, bool) {
	switch s {
	case PlayingMusic, PausedMusic:
		return model.KindMusic, true
	case PlayingAudiobook, PausedAudiobook:
		return model.KindAudiobook, true
	}
	return "", false
}

// IsPlaying reports whether the active kind is actually playing.
func (s State) IsPlaying() bool {
	return s == PlayingMusic || s == PlayingAudiobook
}

// RepeatMode defines the repeat behavior for the music queue.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "off"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "off"
	}
}

// ParseRepeatMode parses a persisted repeat mode name; unknown values fall
// back to off.
func ParseRepeatMode(s string) RepeatMode {
	switch s {
	case "all":
		return RepeatAll
	case "one":
		return RepeatOne
	default:
		return RepeatOff
	}
}
