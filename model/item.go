package model

import "time"

// MediaKind identifies the content kind of a library item.
type MediaKind string

const (
	KindMusic     MediaKind = "music"
	KindAudiobook MediaKind = "audiobook"
	KindEbook     MediaKind = "ebook"
	KindComic     MediaKind = "comic"
	KindMovie     MediaKind = "movie"
)

// Playable reports whether the kind participates in audio playback.
// Ebooks, comics and movies are indexed but handled by their own viewers.
func (k MediaKind) Playable() bool {
	return k == KindMusic || k == KindAudiobook
}

// Valid reports whether the kind is one of the indexed kinds.
func (k MediaKind) Valid() bool {
	switch k {
	case KindMusic, KindAudiobook, KindEbook, KindComic, KindMovie:
		return true
	}
	return false
}

// MediaItem represents an item in the media library.
type MediaItem struct {
	ID           int64     `json:"id"`
	ProfileID    int64     `json:"profileId"`
	Kind         MediaKind `json:"kind"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist"`       // Artist for music, author/narrator for audiobooks
	Album        string    `json:"album"`        // Album for music, series for books/comics
	FilePath     string    `json:"-"`            // Path to the media file, not exposed in API directly
	CoverArtPath string    `json:"coverArtPath"` // Object key or relative path of the cover art
	DurationMs   int64     `json:"durationMs"`   // Duration in milliseconds (0 when unknown)
	PositionMs   int64     `json:"positionMs"`   // Last saved playback/reading position in milliseconds
	PlayCount    int64     `json:"playCount"`
	Missing      bool      `json:"missing"` // File no longer present on disk
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
