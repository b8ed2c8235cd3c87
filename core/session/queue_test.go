package session

import (
	"math/rand"
	"testing"

	"Shelfwave/model"
)

func musicItems(ids ...int64) []*model.MediaItem {
	items := make([]*model.MediaItem, len(ids))
	for i, id := range ids {
		items[i] = &model.MediaItem{ID: id, Kind: model.KindMusic}
	}
	return items
}

func TestReplacePositionsByID(t *testing.T) {
	q := NewQueue()
	q.Replace(musicItems(10, 20, 30), 20)

	if q.Index() != 1 {
		t.Fatalf("index = %d, want 1", q.Index())
	}
	if q.Current().ID != 20 {
		t.Fatalf("current = %d, want 20", q.Current().ID)
	}

	// Unknown id falls back to the head.
	q.Replace(musicItems(10, 20, 30), 99)
	if q.Index() != 0 {
		t.Fatalf("index = %d, want 0 for unknown id", q.Index())
	}
}

func TestNextIndexSequentialStopsAtEnd(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	q := NewQueue()
	q.Replace(musicItems(1, 2, 3), 1)

	if ni := q.NextIndex(rng); ni != 1 {
		t.Fatalf("next = %d, want 1", ni)
	}
	q.MoveTo(2)
	if ni := q.NextIndex(rng); ni != -1 {
		t.Fatalf("next at tail = %d, want -1", ni)
	}
}

func TestNextIndexRepeatAllWraps(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	q := NewQueue()
	q.Replace(musicItems(1, 2), 2)
	q.SetRepeatMode(RepeatAll)

	if ni := q.NextIndex(rng); ni != 0 {
		t.Fatalf("next = %d, want wrap to 0", ni)
	}
}

func TestNextIndexRepeatOneWinsOverShuffle(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	q := NewQueue()
	q.Replace(musicItems(1, 2, 3), 2)
	q.SetRepeatMode(RepeatOne)
	q.SetShuffle(true)

	for i := 0; i < 10; i++ {
		if ni := q.NextIndex(rng); ni != q.Index() {
			t.Fatalf("repeat-one next = %d, want current index %d", ni, q.Index())
		}
	}
}

func TestNextIndexShuffleExcludesCurrent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	q := NewQueue()
	q.Replace(musicItems(1, 2, 3, 4, 5), 3)
	q.SetShuffle(true)

	for i := 0; i < 200; i++ {
		ni := q.NextIndex(rng)
		if ni == q.Index() {
			t.Fatal("shuffle picked the current index")
		}
		if ni < 0 || ni >= q.Len() {
			t.Fatalf("shuffle picked out-of-range index %d", ni)
		}
	}
}

func TestNextIndexShuffleSingleEntryStops(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	q := NewQueue()
	q.Replace(musicItems(1), 1)
	q.SetShuffle(true)

	if ni := q.NextIndex(rng); ni != -1 {
		t.Fatalf("single-entry shuffle next = %d, want -1", ni)
	}
}

func TestHasNextDoesNotConsumeRandomness(t *testing.T) {
	q := NewQueue()
	q.Replace(musicItems(1, 2, 3), 3)

	if q.HasNext() {
		t.Fatal("tail with no repeat reports next available")
	}
	q.SetShuffle(true)
	if !q.HasNext() {
		t.Fatal("shuffle with multiple entries reports no next")
	}
	q.SetShuffle(false)
	q.SetRepeatMode(RepeatAll)
	if !q.HasNext() {
		t.Fatal("repeat-all reports no next")
	}
}

func TestPrevIndex(t *testing.T) {
	q := NewQueue()
	q.Replace(musicItems(1, 2, 3), 1)

	if q.HasPrevious() {
		t.Fatal("head reports previous available")
	}
	if pi := q.PrevIndex(); pi != -1 {
		t.Fatalf("prev at head = %d, want -1", pi)
	}

	q.MoveTo(2)
	if pi := q.PrevIndex(); pi != 1 {
		t.Fatalf("prev = %d, want 1", pi)
	}
}

func TestClear(t *testing.T) {
	q := NewQueue()
	q.Replace(musicItems(1, 2), 1)
	q.Clear()

	if q.Len() != 0 || q.Index() != -1 || q.Current() != nil {
		t.Fatalf("clear left state: len=%d index=%d", q.Len(), q.Index())
	}
	if q.NextIndex(rand.New(rand.NewSource(1))) != -1 {
		t.Fatal("empty queue resolved a next index")
	}
}
