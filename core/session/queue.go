package session

import (
	"math/rand"

	"Shelfwave/model"
)

// Queue is the playlist context captured when a music track is selected.
// It is reused for next/previous navigation until the user selects from a
// different listing.
type Queue struct {
	items   []*model.MediaItem
	index   int
	shuffle bool
	repeat  RepeatMode
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{index: -1}
}

// Replace swaps in a new ordered item list and positions the queue at the
// item with the given id (index 0 if not found).
func (q *Queue) Replace(items []*model.MediaItem, currentID int64) {
	q.items = items
	q.index = 0
	for i, it := range items {
		if it.ID == currentID {
			q.index = i
			break
		}
	}
	if len(items) == 0 {
		q.index = -1
	}
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.items = nil
	q.index = -1
}

// Len returns the number of queued items.
func (q *Queue) Len() int { return len(q.items) }

// Index returns the current position (-1 when empty).
func (q *Queue) Index() int { return q.index }

// Current returns the item at the current position, or nil.
func (q *Queue) Current() *model.MediaItem {
	if q.index < 0 || q.index >= len(q.items) {
		return nil
	}
	return q.items[q.index]
}

// At returns the item at the given position, or nil.
func (q *Queue) At(i int) *model.MediaItem {
	if i < 0 || i >= len(q.items) {
		return nil
	}
	return q.items[i]
}

// IDs returns the queued item ids in order.
func (q *Queue) IDs() []int64 {
	ids := make([]int64, len(q.items))
	for i, it := range q.items {
		ids[i] = it.ID
	}
	return ids
}

// MoveTo sets the current position.
func (q *Queue) MoveTo(i int) {
	if i >= 0 && i < len(q.items) {
		q.index = i
	}
}

// Shuffle returns whether shuffle is enabled.
func (q *Queue) Shuffle() bool { return q.shuffle }

// SetShuffle enables or disables shuffle.
func (q *Queue) SetShuffle(enabled bool) { q.shuffle = enabled }

// RepeatMode returns the repeat mode.
func (q *Queue) RepeatMode() RepeatMode { return q.repeat }

// SetRepeatMode sets the repeat mode.
func (q *Queue) SetRepeatMode(m RepeatMode) { q.repeat = m }

// NextIndex resolves the index to play after natural end-of-track. The
// resolution order is a fixed priority chain:
//
//	repeat-one > shuffle > sequential next > repeat-all wrap > stop (-1)
//
// Shuffle picks uniformly among all entries except the current index and
// only applies when more than one entry exists.
func (q *Queue) NextIndex(rng *rand.Rand) int {
	n := len(q.items)
	if n == 0 || q.index < 0 {
		return -1
	}
	if q.repeat == RepeatOne {
		return q.index
	}
	if q.shuffle && n > 1 {
		pick := rng.Intn(n - 1)
		if pick >= q.index {
			pick++
		}
		return pick
	}
	if q.index+1 < n {
		return q.index + 1
	}
	if q.repeat == RepeatAll {
		return 0
	}
	return -1
}

// PrevIndex resolves the index for explicit previous navigation, or -1.
func (q *Queue) PrevIndex() int {
	if q.index > 0 {
		return q.index - 1
	}
	return -1
}

// HasNext reports whether end-of-track would resolve to another index under
// the current modes. Used for the snapshot's controls-enabled flags; it must
// not consume randomness, so shuffle availability is judged by entry count.
func (q *Queue) HasNext() bool {
	n := len(q.items)
	if n == 0 || q.index < 0 {
		return false
	}
	if q.repeat == RepeatOne || q.repeat == RepeatAll {
		return true
	}
	if q.shuffle && n > 1 {
		return true
	}
	return q.index+1 < n
}

// HasPrevious reports whether previous navigation is available.
func (q *Queue) HasPrevious() bool {
	return q.index > 0
}
