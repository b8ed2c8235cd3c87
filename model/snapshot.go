package model

// PlaybackSnapshot is a freshly derived, immutable view of the current
// playback state. It is rebuilt from the authoritative engine and catalog
// item on every read and never mutated in place.
type PlaybackSnapshot struct {
	Kind        MediaKind `json:"kind"`
	ItemID      int64     `json:"itemId"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle"`
	CoverArtURL string    `json:"coverArtUrl,omitempty"`
	DurationMs  int64     `json:"durationMs"`
	PositionMs  int64     `json:"positionMs"`
	IsPlaying   bool      `json:"isPlaying"`

	// Music only: queue navigation availability.
	HasNext     bool `json:"hasNext,omitempty"`
	HasPrevious bool `json:"hasPrevious,omitempty"`

	// Audiobook only: chapter context.
	Chapter      int `json:"chapter,omitempty"`
	ChapterCount int `json:"chapterCount,omitempty"`
}

// PersistedKindState is the durable per-kind playback triple.
type PersistedKindState struct {
	LastID       *int64 `json:"lastId"`
	LastPosition int64  `json:"lastPosition"` // milliseconds
	LastPlaying  bool   `json:"lastPlaying"`
}

// PersistedPlaybackState is the durable playback record for one profile.
// LastActiveType breaks ties when both kinds could be "last active"; it is
// nil only before first playback or after an explicit dismiss.
type PersistedPlaybackState struct {
	Music          PersistedKindState `json:"music"`
	Audiobook      PersistedKindState `json:"audiobook"`
	LastActiveType *MediaKind         `json:"lastActiveType"`
	Shuffle        bool               `json:"shuffle"`
	Repeat         string             `json:"repeat"` // off, all, one
}
