package session

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"Shelfwave/cache"
	"Shelfwave/core/effects"
	"Shelfwave/core/player"
	"Shelfwave/model"
)

type fakeSettings struct {
	mu   sync.Mutex
	vals map[int64]map[string]string
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{vals: make(map[int64]map[string]string)}
}

func (s *fakeSettings) Get(ctx context.Context, profileID int64, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vals[profileID][key], nil
}

func (s *fakeSettings) Set(ctx context.Context, profileID int64, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vals[profileID] == nil {
		s.vals[profileID] = make(map[string]string)
	}
	if value == "" {
		delete(s.vals[profileID], key)
		return nil
	}
	s.vals[profileID][key] = value
	return nil
}

func (s *fakeSettings) ReloadAll(ctx context.Context, profileID int64) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.vals[profileID]))
	for k, v := range s.vals[profileID] {
		out[k] = v
	}
	return out, nil
}

type fakeQueueStore struct {
	mu      sync.Mutex
	ids     map[int64][]int64
	index   map[int64]int
	cleared int
}

func newFakeQueueStore() *fakeQueueStore {
	return &fakeQueueStore{ids: make(map[int64][]int64), index: make(map[int64]int)}
}

func (s *fakeQueueStore) SaveQueue(ctx context.Context, profileID int64, itemIDs []int64, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[profileID] = append([]int64(nil), itemIDs...)
	s.index[profileID] = index
	return nil
}

func (s *fakeQueueStore) LoadQueue(ctx context.Context, profileID int64) ([]int64, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.ids[profileID]
	if !ok {
		return nil, -1, nil
	}
	return append([]int64(nil), ids...), s.index[profileID], nil
}

func (s *fakeQueueStore) ClearQueue(ctx context.Context, profileID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, profileID)
	delete(s.index, profileID)
	s.cleared++
	return nil
}

type progressWrite struct {
	id    int64
	posMs int64
	durMs int64
}

type fakeLibrary struct {
	mu       sync.Mutex
	items    map[int64]*model.MediaItem
	progress []progressWrite
	plays    map[int64]int
}

func newFakeLibrary(items ...*model.MediaItem) *fakeLibrary {
	lib := &fakeLibrary{items: make(map[int64]*model.MediaItem), plays: make(map[int64]int)}
	for _, it := range items {
		lib.items[it.ID] = it
	}
	return lib
}

func (l *fakeLibrary) CreateItem(item *model.MediaItem) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := int64(len(l.items) + 1)
	item.ID = id
	l.items[id] = item
	return id, nil
}

func (l *fakeLibrary) FindByID(kind model.MediaKind, id int64) (*model.MediaItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	item, ok := l.items[id]
	if !ok || item.Kind != kind || item.Missing {
		return nil, nil
	}
	return item, nil
}

func (l *fakeLibrary) GetAllByProfileAndKind(profileID int64, kind model.MediaKind) ([]*model.MediaItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*model.MediaItem
	for _, it := range l.items {
		if it.ProfileID == profileID && it.Kind == kind {
			out = append(out, it)
		}
	}
	return out, nil
}

func (l *fakeLibrary) UpdateProgress(id int64, positionMs, durationMs int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.progress = append(l.progress, progressWrite{id: id, posMs: positionMs, durMs: durationMs})
	return nil
}

func (l *fakeLibrary) IncrementPlayCount(id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.plays[id]++
	return nil
}

func (l *fakeLibrary) SetMissingByFilePath(filePath string, missing bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, it := range l.items {
		if it.FilePath == filePath {
			it.Missing = missing
		}
	}
	return nil
}

func (l *fakeLibrary) progressWritesFor(id int64) []progressWrite {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []progressWrite
	for _, w := range l.progress {
		if w.id == id {
			out = append(out, w)
		}
	}
	return out
}

func track(id int64, durationMs int64) *model.MediaItem {
	return &model.MediaItem{ID: id, ProfileID: 1, Kind: model.KindMusic, Title: "track", DurationMs: durationMs}
}

func audiobook(id int64, durationMs, positionMs int64) *model.MediaItem {
	return &model.MediaItem{ID: id, ProfileID: 1, Kind: model.KindAudiobook, Title: "book", DurationMs: durationMs, PositionMs: positionMs}
}

type fixture struct {
	lib      *fakeLibrary
	settings *fakeSettings
	queue    *fakeQueueStore
	handle   *player.Handle
	music    *player.MockEngine
	book     *player.MockEngine
	c        *Coordinator
}

func newFixture(t *testing.T, items ...*model.MediaItem) *fixture {
	t.Helper()

	f := &fixture{
		lib:      newFakeLibrary(items...),
		settings: newFakeSettings(),
		queue:    newFakeQueueStore(),
		music:    player.NewMock(),
		book:     player.NewMock(),
	}
	chain := effects.NewChain(effects.DefaultConstructors())
	f.handle = player.NewHandle(func() player.Engine { return f.music }, chain, effects.DefaultSettings())

	f.c = NewCoordinator(Config{
		ProfileID:  1,
		Library:    f.lib,
		Settings:   f.settings,
		Queue:      f.queue,
		Handle:     f.handle,
		BookEngine: func() player.Engine { return f.book },
		Rand:       rand.New(rand.NewSource(1)),
	})
	t.Cleanup(f.c.Close)
	return f
}

func (f *fixture) setting(t *testing.T, key string) string {
	t.Helper()
	v, err := f.settings.Get(context.Background(), 1, key)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestSelectMusicStartsPlayback(t *testing.T) {
	f := newFixture(t, track(1, 180_000), track(2, 200_000), track(3, 150_000))
	ctx := context.Background()

	listing := []*model.MediaItem{f.lib.items[1], f.lib.items[2], f.lib.items[3]}
	if err := f.c.SelectMusic(ctx, f.lib.items[1], listing); err != nil {
		t.Fatal(err)
	}

	if f.c.State() != PlayingMusic {
		t.Fatalf("state = %v, want PlayingMusic", f.c.State())
	}
	if f.music.Item() == nil || f.music.Item().ID != 1 {
		t.Fatal("shared engine not loaded with the selected track")
	}
	if f.music.PlayCalls != 1 {
		t.Fatalf("PlayCalls = %d, want 1", f.music.PlayCalls)
	}
	if f.lib.plays[1] != 1 {
		t.Fatalf("play count = %d, want 1", f.lib.plays[1])
	}

	if got := f.setting(t, cache.KeyMusicLastID); got != "1" {
		t.Fatalf("music last id = %q, want 1", got)
	}
	if got := f.setting(t, cache.KeyMusicLastPlaying); got != "1" {
		t.Fatalf("music last playing = %q, want 1", got)
	}
	if got := f.setting(t, cache.KeyLastActiveType); got != "music" {
		t.Fatalf("active type = %q, want music", got)
	}

	ids, idx, _ := f.queue.LoadQueue(ctx, 1)
	if len(ids) != 3 || idx != 0 {
		t.Fatalf("saved queue = %v index %d", ids, idx)
	}
}

func TestSwitchToAudiobookPausesMusicOnce(t *testing.T) {
	f := newFixture(t, track(1, 180_000), audiobook(10, 3_600_000, 0))
	ctx := context.Background()

	if err := f.c.SelectMusic(ctx, f.lib.items[1], nil); err != nil {
		t.Fatal(err)
	}
	f.music.SetPosition(7 * time.Second)

	if err := f.c.SelectAudiobook(ctx, f.lib.items[10], false); err != nil {
		t.Fatal(err)
	}

	if f.music.PauseCalls != 1 {
		t.Fatalf("music PauseCalls = %d, want 1", f.music.PauseCalls)
	}
	writes := f.lib.progressWritesFor(1)
	if len(writes) != 1 {
		t.Fatalf("music progress writes = %d, want exactly 1", len(writes))
	}
	if writes[0].posMs != 7000 {
		t.Fatalf("music progress position = %d, want 7000", writes[0].posMs)
	}
	if got := f.setting(t, cache.KeyMusicLastPlaying); got != "0" {
		t.Fatalf("music last playing = %q, want 0", got)
	}

	if f.c.State() != PlayingAudiobook {
		t.Fatalf("state = %v, want PlayingAudiobook", f.c.State())
	}
	if got := f.setting(t, cache.KeyLastActiveType); got != "audiobook" {
		t.Fatalf("active type = %q, want audiobook", got)
	}

	snap := f.c.Snapshot()
	if snap == nil || snap.Kind != model.KindAudiobook || snap.ItemID != 10 {
		t.Fatalf("snapshot = %+v, want audiobook 10", snap)
	}
}

func TestSwitchToMusicPausesAudiobook(t *testing.T) {
	f := newFixture(t, track(1, 180_000), audiobook(10, 3_600_000, 0))
	ctx := context.Background()

	if err := f.c.SelectAudiobook(ctx, f.lib.items[10], false); err != nil {
		t.Fatal(err)
	}
	f.book.SetPosition(90 * time.Second)

	if err := f.c.SelectMusic(ctx, f.lib.items[1], nil); err != nil {
		t.Fatal(err)
	}

	if f.book.PauseCalls != 1 {
		t.Fatalf("book PauseCalls = %d, want 1", f.book.PauseCalls)
	}
	writes := f.lib.progressWritesFor(10)
	if len(writes) != 1 || writes[0].posMs != 90_000 {
		t.Fatalf("book progress writes = %+v, want one at 90000", writes)
	}
	if got := f.setting(t, cache.KeyBookLastPlaying); got != "0" {
		t.Fatalf("book last playing = %q, want 0", got)
	}
	if f.c.State() != PlayingMusic {
		t.Fatalf("state = %v, want PlayingMusic", f.c.State())
	}
}

func TestSelectAudiobookResume(t *testing.T) {
	f := newFixture(t, audiobook(10, 3_600_000, 123_000))
	ctx := context.Background()

	if err := f.c.SelectAudiobook(ctx, f.lib.items[10], true); err != nil {
		t.Fatal(err)
	}
	if f.book.LastSeek != 123*time.Second {
		t.Fatalf("resume seek = %v, want 123s", f.book.LastSeek)
	}
	if got := f.setting(t, cache.KeyBookLastPosition); got != "123000" {
		t.Fatalf("book last position = %q, want 123000", got)
	}

	// Selecting again without resume starts from the beginning.
	if err := f.c.SelectAudiobook(ctx, f.lib.items[10], false); err != nil {
		t.Fatal(err)
	}
	if f.book.LastSeek != 0 {
		t.Fatalf("fresh-start seek = %v, want 0", f.book.LastSeek)
	}
}

func TestSelectAudiobookLoadFailureKeepsMusic(t *testing.T) {
	f := newFixture(t, track(1, 180_000), audiobook(2, 900_000, 0))
	ctx := context.Background()

	if err := f.c.SelectMusic(ctx, f.lib.items[1], nil); err != nil {
		t.Fatal(err)
	}
	f.music.SetPosition(9 * time.Second)
	f.book.Close()

	if err := f.c.SelectAudiobook(ctx, f.lib.items[2], false); err != nil {
		t.Fatal(err)
	}

	if f.c.State() != PausedMusic {
		t.Fatalf("state = %v, want PausedMusic after failed load", f.c.State())
	}
	snap := f.c.Snapshot()
	if snap == nil || snap.Kind != model.KindMusic || snap.ItemID != 1 {
		t.Fatalf("snapshot = %+v, want the paused track still visible", snap)
	}
	if snap.IsPlaying {
		t.Fatal("snapshot reports playing while the engine is paused")
	}

	// The track survived the failed switch and can resume.
	f.c.TogglePlayPause(ctx)
	if f.c.State() != PlayingMusic {
		t.Fatalf("state = %v, want PlayingMusic after toggle", f.c.State())
	}
}

func TestAdvanceOnTrackEnd(t *testing.T) {
	f := newFixture(t, track(1, 100), track(2, 100))
	ctx := context.Background()

	listing := []*model.MediaItem{f.lib.items[1], f.lib.items[2]}
	if err := f.c.SelectMusic(ctx, f.lib.items[1], listing); err != nil {
		t.Fatal(err)
	}

	f.c.AdvanceOnTrackEnd(ctx)
	if f.music.Item().ID != 2 {
		t.Fatalf("loaded item = %d, want 2", f.music.Item().ID)
	}
	if f.c.State() != PlayingMusic {
		t.Fatalf("state = %v, want PlayingMusic", f.c.State())
	}
	if got := f.setting(t, cache.KeyMusicLastID); got != "2" {
		t.Fatalf("music last id = %q, want 2", got)
	}
	if f.lib.plays[2] != 1 {
		t.Fatalf("play count for track 2 = %d, want 1", f.lib.plays[2])
	}

	// End of the queue: playback stops but the track stays visible.
	f.c.AdvanceOnTrackEnd(ctx)
	if f.c.State() != PausedMusic {
		t.Fatalf("state = %v, want PausedMusic at queue end", f.c.State())
	}
	if got := f.setting(t, cache.KeyMusicLastPlaying); got != "0" {
		t.Fatalf("music last playing = %q, want 0", got)
	}
	if snap := f.c.Snapshot(); snap == nil || snap.ItemID != 2 {
		t.Fatal("track no longer visible after natural end")
	}
}

func TestAdvanceIgnoredWhenAudiobookActive(t *testing.T) {
	f := newFixture(t, track(1, 100), track(2, 100), audiobook(10, 3_600_000, 0))
	ctx := context.Background()

	listing := []*model.MediaItem{f.lib.items[1], f.lib.items[2]}
	if err := f.c.SelectMusic(ctx, f.lib.items[1], listing); err != nil {
		t.Fatal(err)
	}
	if err := f.c.SelectAudiobook(ctx, f.lib.items[10], false); err != nil {
		t.Fatal(err)
	}

	// A stale track-end arriving after the switch must not advance.
	loadsBefore := f.music.LoadCalls
	f.c.AdvanceOnTrackEnd(ctx)

	if f.music.LoadCalls != loadsBefore {
		t.Fatal("stale track end loaded a new track")
	}
	if f.c.State() != PlayingAudiobook {
		t.Fatalf("state = %v, want PlayingAudiobook", f.c.State())
	}
}

func TestRepeatOneRestartsTrack(t *testing.T) {
	f := newFixture(t, track(1, 100), track(2, 100))
	ctx := context.Background()

	listing := []*model.MediaItem{f.lib.items[1], f.lib.items[2]}
	if err := f.c.SelectMusic(ctx, f.lib.items[1], listing); err != nil {
		t.Fatal(err)
	}
	f.c.SetRepeatMode(ctx, RepeatOne)

	f.c.AdvanceOnTrackEnd(ctx)
	if f.music.Item().ID != 1 {
		t.Fatalf("loaded item = %d, want same track", f.music.Item().ID)
	}
	if f.music.LastSeek != 0 {
		t.Fatalf("restart seek = %v, want 0", f.music.LastSeek)
	}
	if f.c.State() != PlayingMusic {
		t.Fatalf("state = %v, want PlayingMusic", f.c.State())
	}
}

func TestPersistOnBackgroundCheckpoints(t *testing.T) {
	f := newFixture(t, track(1, 180_000))
	ctx := context.Background()

	if err := f.c.SelectMusic(ctx, f.lib.items[1], nil); err != nil {
		t.Fatal(err)
	}
	f.music.SetPosition(30 * time.Second)

	f.c.PersistOnBackground(ctx)
	f.c.PersistOnBackground(ctx)

	if got := f.setting(t, cache.KeyMusicLastPosition); got != "30000" {
		t.Fatalf("music last position = %q, want 30000", got)
	}
	if got := f.setting(t, cache.KeyShuffle); got != "0" {
		t.Fatalf("shuffle = %q, want 0", got)
	}
	if got := f.setting(t, cache.KeyRepeat); got != "off" {
		t.Fatalf("repeat = %q, want off", got)
	}

	// Each checkpoint re-derives the same values; racing or repeated
	// checkpoints converge rather than diverge.
	writes := f.lib.progressWritesFor(1)
	if len(writes) < 2 {
		t.Fatalf("progress writes = %d, want one per checkpoint", len(writes))
	}
	for _, w := range writes {
		if w.posMs != 30_000 {
			t.Fatalf("checkpoint wrote %d, want 30000", w.posMs)
		}
	}
}

func TestRestoreMusicSession(t *testing.T) {
	f := newFixture(t, track(1, 180_000), track(2, 200_000))
	ctx := context.Background()

	f.settings.Set(ctx, 1, cache.KeyMusicLastID, "1")
	f.settings.Set(ctx, 1, cache.KeyMusicLastPosition, "5000")
	f.settings.Set(ctx, 1, cache.KeyMusicLastPlaying, "1")
	f.settings.Set(ctx, 1, cache.KeyLastActiveType, "music")
	f.queue.SaveQueue(ctx, 1, []int64{1, 2}, 0)

	if err := f.c.RestoreOnColdStart(ctx); err != nil {
		t.Fatal(err)
	}

	if f.music.LoadCalls != 1 {
		t.Fatalf("LoadCalls = %d, want 1", f.music.LoadCalls)
	}
	if f.music.LastSeek != 5*time.Second {
		t.Fatalf("restore seek = %v, want 5s", f.music.LastSeek)
	}
	if f.c.State() != PlayingMusic {
		t.Fatalf("state = %v, want PlayingMusic", f.c.State())
	}

	snap := f.c.Snapshot()
	if snap == nil || !snap.HasNext {
		t.Fatalf("snapshot = %+v, want rehydrated queue with next", snap)
	}
}

func TestRestorePausedWhenNotPlaying(t *testing.T) {
	f := newFixture(t, track(1, 180_000))
	ctx := context.Background()

	f.settings.Set(ctx, 1, cache.KeyMusicLastID, "1")
	f.settings.Set(ctx, 1, cache.KeyMusicLastPosition, "42000")
	f.settings.Set(ctx, 1, cache.KeyLastActiveType, "music")

	if err := f.c.RestoreOnColdStart(ctx); err != nil {
		t.Fatal(err)
	}

	if f.c.State() != PausedMusic {
		t.Fatalf("state = %v, want PausedMusic", f.c.State())
	}
	if f.music.PlayCalls != 0 {
		t.Fatalf("PlayCalls = %d, want 0 for paused restore", f.music.PlayCalls)
	}
}

func TestRestoreFallbackWithoutTag(t *testing.T) {
	f := newFixture(t, audiobook(10, 3_600_000, 0))
	ctx := context.Background()

	// No active-type tag (pre-tag record): music was not playing, the
	// audiobook has a last id, so the audiobook wins.
	f.settings.Set(ctx, 1, cache.KeyBookLastID, "10")
	f.settings.Set(ctx, 1, cache.KeyBookLastPosition, "250000")

	if err := f.c.RestoreOnColdStart(ctx); err != nil {
		t.Fatal(err)
	}

	if f.c.State() != PausedAudiobook {
		t.Fatalf("state = %v, want PausedAudiobook", f.c.State())
	}
	if f.book.LastSeek != 250*time.Second {
		t.Fatalf("restore seek = %v, want 250s", f.book.LastSeek)
	}
}

func TestRestoreFallbackPrefersPlayingMusic(t *testing.T) {
	f := newFixture(t, track(1, 180_000), audiobook(10, 3_600_000, 0))
	ctx := context.Background()

	// No active-type tag, but music was playing at death: music wins even
	// though the audiobook also has a record.
	f.settings.Set(ctx, 1, cache.KeyMusicLastID, "1")
	f.settings.Set(ctx, 1, cache.KeyMusicLastPosition, "5000")
	f.settings.Set(ctx, 1, cache.KeyMusicLastPlaying, "1")
	f.settings.Set(ctx, 1, cache.KeyBookLastID, "10")
	f.settings.Set(ctx, 1, cache.KeyBookLastPosition, "250000")

	if err := f.c.RestoreOnColdStart(ctx); err != nil {
		t.Fatal(err)
	}

	if f.c.State() != PlayingMusic {
		t.Fatalf("state = %v, want music chosen over audiobook", f.c.State())
	}
	if f.music.Item() == nil || f.music.Item().ID != 1 {
		t.Fatal("shared engine not loaded with the restored track")
	}
	if f.music.LastSeek != 5*time.Second {
		t.Fatalf("restore seek = %v, want 5s", f.music.LastSeek)
	}
	if f.book.LoadCalls != 0 {
		t.Fatalf("book LoadCalls = %d, want 0", f.book.LoadCalls)
	}
}

func TestRestoreSkipsUnresolvableItem(t *testing.T) {
	f := newFixture(t, audiobook(10, 3_600_000, 0))
	ctx := context.Background()

	// The tagged music track is gone from the catalog; the restore falls
	// through to the audiobook instead of failing.
	f.settings.Set(ctx, 1, cache.KeyMusicLastID, "99")
	f.settings.Set(ctx, 1, cache.KeyMusicLastPlaying, "1")
	f.settings.Set(ctx, 1, cache.KeyLastActiveType, "music")
	f.settings.Set(ctx, 1, cache.KeyBookLastID, "10")

	if err := f.c.RestoreOnColdStart(ctx); err != nil {
		t.Fatal(err)
	}

	if f.c.State() != PausedAudiobook {
		t.Fatalf("state = %v, want fallback to PausedAudiobook", f.c.State())
	}
	if f.music.LoadCalls != 0 {
		t.Fatalf("music LoadCalls = %d, want 0", f.music.LoadCalls)
	}
}

func TestRestoreNothing(t *testing.T) {
	f := newFixture(t, track(1, 180_000))

	if err := f.c.RestoreOnColdStart(context.Background()); err != nil {
		t.Fatal(err)
	}

	if f.c.State() != Idle {
		t.Fatalf("state = %v, want Idle", f.c.State())
	}
	if f.music.LoadCalls != 0 || f.book.LoadCalls != 0 {
		t.Fatal("restore with no record loaded media")
	}
	if f.c.Snapshot() != nil {
		t.Fatal("snapshot not nil with nothing restored")
	}
}

func TestDismissMusicClearsDurableRecord(t *testing.T) {
	f := newFixture(t, track(1, 180_000))
	ctx := context.Background()

	if err := f.c.SelectMusic(ctx, f.lib.items[1], nil); err != nil {
		t.Fatal(err)
	}
	f.music.SetPosition(15 * time.Second)

	f.c.Dismiss(ctx, model.KindMusic)

	if f.c.State() != Idle {
		t.Fatalf("state = %v, want Idle", f.c.State())
	}
	if f.c.Snapshot() != nil {
		t.Fatal("snapshot survives dismiss")
	}
	for _, key := range []string{cache.KeyMusicLastID, cache.KeyMusicLastPosition, cache.KeyMusicLastPlaying, cache.KeyLastActiveType} {
		if got := f.setting(t, key); got != "" {
			t.Fatalf("setting %s = %q, want cleared", key, got)
		}
	}

	// Final progress is still written before the record clears.
	writes := f.lib.progressWritesFor(1)
	if len(writes) == 0 || writes[len(writes)-1].posMs != 15_000 {
		t.Fatalf("final progress writes = %+v", writes)
	}

	if _, idx, _ := f.queue.LoadQueue(ctx, 1); idx != -1 {
		t.Fatal("queue context not cleared on dismiss")
	}
}

func TestDismissAudiobookKeepsMusicRecord(t *testing.T) {
	f := newFixture(t, track(1, 180_000), audiobook(10, 3_600_000, 0))
	ctx := context.Background()

	if err := f.c.SelectMusic(ctx, f.lib.items[1], nil); err != nil {
		t.Fatal(err)
	}
	if err := f.c.SelectAudiobook(ctx, f.lib.items[10], false); err != nil {
		t.Fatal(err)
	}

	f.c.Dismiss(ctx, model.KindAudiobook)

	if f.c.State() != Idle {
		t.Fatalf("state = %v, want Idle", f.c.State())
	}
	if got := f.setting(t, cache.KeyBookLastID); got != "" {
		t.Fatalf("book last id = %q, want cleared", got)
	}
	// The paused music mirror stays restorable.
	if got := f.setting(t, cache.KeyMusicLastID); got != "1" {
		t.Fatalf("music last id = %q, want 1", got)
	}
}

func TestTogglePlayPause(t *testing.T) {
	f := newFixture(t, track(1, 180_000))
	ctx := context.Background()

	if err := f.c.SelectMusic(ctx, f.lib.items[1], nil); err != nil {
		t.Fatal(err)
	}

	f.c.TogglePlayPause(ctx)
	if f.c.State() != PausedMusic {
		t.Fatalf("state = %v, want PausedMusic", f.c.State())
	}
	if got := f.setting(t, cache.KeyMusicLastPlaying); got != "0" {
		t.Fatalf("music last playing = %q, want 0", got)
	}

	f.c.TogglePlayPause(ctx)
	if f.c.State() != PlayingMusic {
		t.Fatalf("state = %v, want PlayingMusic", f.c.State())
	}

	// Toggle with nothing active is a no-op.
	f.c.Dismiss(ctx, model.KindMusic)
	f.c.TogglePlayPause(ctx)
	if f.c.State() != Idle {
		t.Fatalf("state = %v, want Idle", f.c.State())
	}
}

func TestSeekByClampsToBounds(t *testing.T) {
	f := newFixture(t, track(1, 180_000))
	ctx := context.Background()

	if err := f.c.SelectMusic(ctx, f.lib.items[1], nil); err != nil {
		t.Fatal(err)
	}

	f.music.SetPosition(5 * time.Second)
	f.c.SeekBy(ctx, -10*time.Second)
	if f.music.LastSeek != 0 {
		t.Fatalf("seek = %v, want clamp at 0", f.music.LastSeek)
	}

	f.music.SetPosition(175 * time.Second)
	f.c.SeekBy(ctx, 30*time.Second)
	if f.music.LastSeek != 180*time.Second {
		t.Fatalf("seek = %v, want clamp at duration", f.music.LastSeek)
	}
}

func TestStopActivePersists(t *testing.T) {
	f := newFixture(t, track(1, 180_000))
	ctx := context.Background()

	if err := f.c.SelectMusic(ctx, f.lib.items[1], nil); err != nil {
		t.Fatal(err)
	}
	f.music.SetPosition(11 * time.Second)

	f.c.StopActive(ctx)

	if f.c.State() != PausedMusic {
		t.Fatalf("state = %v, want PausedMusic", f.c.State())
	}
	writes := f.lib.progressWritesFor(1)
	if len(writes) == 0 || writes[len(writes)-1].posMs != 11_000 {
		t.Fatalf("progress writes = %+v, want checkpoint at 11000", writes)
	}
}

func TestNextAndPrevious(t *testing.T) {
	f := newFixture(t, track(1, 100), track(2, 100), track(3, 100))
	ctx := context.Background()

	listing := []*model.MediaItem{f.lib.items[1], f.lib.items[2], f.lib.items[3]}
	if err := f.c.SelectMusic(ctx, f.lib.items[2], listing); err != nil {
		t.Fatal(err)
	}

	f.c.Next(ctx)
	if f.music.Item().ID != 3 {
		t.Fatalf("item after next = %d, want 3", f.music.Item().ID)
	}

	f.c.Previous(ctx)
	if f.music.Item().ID != 2 {
		t.Fatalf("item after previous = %d, want 2", f.music.Item().ID)
	}
	if f.c.State() != PlayingMusic {
		t.Fatalf("state = %v, want PlayingMusic", f.c.State())
	}
}

func TestCloseReleasesSharedEngine(t *testing.T) {
	f := newFixture(t, track(1, 180_000))

	f.c.Close()

	if f.handle.RefCount() != 0 {
		t.Fatalf("refCount = %d, want 0 after close", f.handle.RefCount())
	}
	if f.handle.Engine() != nil {
		t.Fatal("shared engine not disposed after close")
	}
	if !f.book.Closed() {
		t.Fatal("audiobook engine not closed")
	}
}
