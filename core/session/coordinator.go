package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"Shelfwave/cache"
	"Shelfwave/core/player"
	"Shelfwave/logger"
	"Shelfwave/model"
	"Shelfwave/repository"
)

// Errors returned by coordinator operations.
var (
	ErrNotPlayable = errors.New("item kind is not playable")
	ErrClosed      = errors.New("coordinator is closed")
)

// Config wires a coordinator's collaborators.
type Config struct {
	ProfileID int64
	Library   repository.LibraryRepository
	Settings  SettingsStore
	Queue     QueueStore
	Handle    *player.Handle
	// BookEngine builds the audiobook engine. Unlike the shared music
	// engine it is exclusively owned by this coordinator and closed with it.
	BookEngine func() player.Engine
	Rand       *rand.Rand
}

// Coordinator is the single source of truth for "what is this profile
// listening to right now". It reconciles the two independent engines with
// one persisted record: selecting one kind pauses and snapshots the other,
// lifecycle checkpoints mirror the active kind into the settings store, and
// a cold start rehydrates from that mirror.
//
// All operations are serialized by one mutex. Engine command failures are
// contained: a stale or released engine means the command simply does not
// take effect, and the previous visible state stands.
type Coordinator struct {
	mu sync.Mutex

	profileID  int64
	library    repository.LibraryRepository
	settings   SettingsStore
	queueStore QueueStore
	handle     *player.Handle

	music player.Engine
	book  player.Engine

	state      State
	musicItem  *model.MediaItem
	bookItem   *model.MediaItem
	queue      *Queue
	activeType *model.MediaKind

	rng    *rand.Rand
	done   chan struct{}
	closed bool
}

// NewCoordinator creates a coordinator, acquiring the shared handle and
// constructing the dedicated audiobook engine.
func NewCoordinator(cfg Config) *Coordinator {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	c := &Coordinator{
		profileID:  cfg.ProfileID,
		library:    cfg.Library,
		settings:   cfg.Settings,
		queueStore: cfg.Queue,
		handle:     cfg.Handle,
		music:      cfg.Handle.Acquire(),
		book:       cfg.BookEngine(),
		queue:      NewQueue(),
		rng:        rng,
		done:       make(chan struct{}),
	}
	go c.watchTrackEnd()
	return c
}

// watchTrackEnd reacts to natural end-of-media from the shared engine.
func (c *Coordinator) watchTrackEnd() {
	for {
		select {
		case <-c.done:
			return
		case <-c.music.FinishedChan():
			c.AdvanceOnTrackEnd(context.Background())
		}
	}
}

// swallow logs a failed engine command without surfacing it. Engines can be
// released behind the coordinator's back; the command not taking effect is
// the expected outcome, not a fault.
func swallow(op string, err error) {
	if err != nil {
		logger.Debug("engine command had no effect",
			logger.String("op", op),
			logger.ErrorField(err))
	}
}

// SelectMusic makes the given track the now-playing content. The listing it
// was selected from becomes the playlist context for next/previous
// navigation. A playing audiobook is paused and its progress persisted
// before the shared engine starts the new track.
func (c *Coordinator) SelectMusic(ctx context.Context, item *model.MediaItem, listing []*model.MediaItem) error {
	if item == nil || item.Kind != model.KindMusic {
		return ErrNotPlayable
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.pauseBookForSwitchLocked(ctx)

	if err := c.music.Load(item); err != nil {
		logger.Warn("failed to load track, keeping previous state",
			logger.Int64("itemId", item.ID),
			logger.ErrorField(err))
		return nil
	}
	swallow("seek", c.music.SeekTo(0))
	swallow("play", c.music.Play())
	c.handle.SyncEffects()

	c.musicItem = item
	c.state = PlayingMusic
	if len(listing) == 0 {
		listing = []*model.MediaItem{item}
	}
	c.queue.Replace(listing, item.ID)

	c.markActiveLocked(ctx, model.KindMusic)
	c.mirrorKindLocked(ctx, model.KindMusic, item.ID, 0, true)
	c.saveQueueLocked(ctx)
	if err := c.library.IncrementPlayCount(item.ID); err != nil {
		logger.Warn("failed to bump play count", logger.Int64("itemId", item.ID), logger.ErrorField(err))
	}

	logger.Info("music selected",
		logger.Int64("profileId", c.profileID),
		logger.Int64("itemId", item.ID),
		logger.String("title", item.Title))
	return nil
}

// SelectAudiobook makes the given audiobook the now-playing content. When
// resume is true playback continues from the item's last saved position,
// otherwise it starts from the beginning. Playing music is paused, its
// position recorded, and the local "last played music" pointer cleared.
func (c *Coordinator) SelectAudiobook(ctx context.Context, item *model.MediaItem, resume bool) error {
	if item == nil || item.Kind != model.KindAudiobook {
		return ErrNotPlayable
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.pauseMusicForSwitchLocked(ctx)

	if err := c.book.Load(item); err != nil {
		logger.Warn("failed to load audiobook, keeping previous content",
			logger.Int64("itemId", item.ID),
			logger.ErrorField(err))
		// The switch already paused the music engine; the state has to say so.
		if c.state == PlayingMusic {
			c.state = PausedMusic
		}
		return nil
	}
	c.musicItem = nil
	startAt := int64(0)
	if resume {
		startAt = item.PositionMs
	}
	swallow("seek", c.book.SeekTo(time.Duration(startAt)*time.Millisecond))
	swallow("play", c.book.Play())

	c.bookItem = item
	c.state = PlayingAudiobook

	c.markActiveLocked(ctx, model.KindAudiobook)
	c.mirrorKindLocked(ctx, model.KindAudiobook, item.ID, startAt, true)
	if err := c.library.IncrementPlayCount(item.ID); err != nil {
		logger.Warn("failed to bump play count", logger.Int64("itemId", item.ID), logger.ErrorField(err))
	}

	logger.Info("audiobook selected",
		logger.Int64("profileId", c.profileID),
		logger.Int64("itemId", item.ID),
		logger.String("title", item.Title),
		logger.Bool("resume", resume))
	return nil
}

// pauseMusicForSwitchLocked pauses the shared engine and records its
// position before the audiobook takes over. The progress write happens here,
// exactly once per switch.
func (c *Coordinator) pauseMusicForSwitchLocked(ctx context.Context) {
	if c.musicItem == nil {
		return
	}
	if k, ok := c.state.ActiveKind(); !ok || k != model.KindMusic {
		return
	}
	swallow("pause", c.music.Pause())
	posMs, durMs := c.authoritative(c.music, c.musicItem)
	if err := c.library.UpdateProgress(c.musicItem.ID, posMs, durMs); err != nil {
		logger.Warn("failed to persist music progress on switch", logger.ErrorField(err))
	}
	c.mirrorKindLocked(ctx, model.KindMusic, c.musicItem.ID, posMs, false)
}

// pauseBookForSwitchLocked is the symmetric path when music takes over.
func (c *Coordinator) pauseBookForSwitchLocked(ctx context.Context) {
	if c.bookItem == nil {
		return
	}
	if k, ok := c.state.ActiveKind(); !ok || k != model.KindAudiobook {
		return
	}
	swallow("pause", c.book.Pause())
	posMs, durMs := c.authoritative(c.book, c.bookItem)
	if err := c.library.UpdateProgress(c.bookItem.ID, posMs, durMs); err != nil {
		logger.Warn("failed to persist audiobook progress on switch", logger.ErrorField(err))
	}
	c.mirrorKindLocked(ctx, model.KindAudiobook, c.bookItem.ID, posMs, false)
}

// AdvanceOnTrackEnd handles natural end-of-media for the active music track.
// The resolution order is the queue's fixed priority chain; when nothing
// resolves, playback simply ends with the track still visible.
//
// A track-end arriving after the user switched to the audiobook is ignored:
// the state machine is no longer music-active.
func (c *Coordinator) AdvanceOnTrackEnd(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.state != PlayingMusic || c.musicItem == nil {
		return
	}

	ni := c.queue.NextIndex(c.rng)
	if ni == -1 {
		c.state = PausedMusic
		posMs, _ := c.authoritative(c.music, c.musicItem)
		c.mirrorKindLocked(ctx, model.KindMusic, c.musicItem.ID, posMs, false)
		logger.Info("end of queue reached", logger.Int64("profileId", c.profileID))
		return
	}

	if ni == c.queue.Index() {
		// Repeat-one: restart the same track.
		swallow("seek", c.music.SeekTo(0))
		swallow("play", c.music.Play())
		c.mirrorKindLocked(ctx, model.KindMusic, c.musicItem.ID, 0, true)
		return
	}

	next := c.queue.At(ni)
	if next == nil {
		return
	}
	if err := c.music.Load(next); err != nil {
		logger.Warn("failed to load next track", logger.Int64("itemId", next.ID), logger.ErrorField(err))
		c.state = PausedMusic
		return
	}
	swallow("seek", c.music.SeekTo(0))
	swallow("play", c.music.Play())
	c.handle.SyncEffects()

	c.queue.MoveTo(ni)
	c.musicItem = next
	c.mirrorKindLocked(ctx, model.KindMusic, next.ID, 0, true)
	c.saveQueueLocked(ctx)
	if err := c.library.IncrementPlayCount(next.ID); err != nil {
		logger.Warn("failed to bump play count", logger.Int64("itemId", next.ID), logger.ErrorField(err))
	}
}

// Next jumps to the next queue entry (explicit user navigation, same
// resolution as track end except it also works while paused).
func (c *Coordinator) Next(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.musicItem == nil {
		return
	}
	if k, ok := c.state.ActiveKind(); !ok || k != model.KindMusic {
		return
	}

	ni := c.queue.NextIndex(c.rng)
	if ni == -1 {
		return
	}
	if ni == c.queue.Index() {
		swallow("seek", c.music.SeekTo(0))
		swallow("play", c.music.Play())
		c.state = PlayingMusic
		c.mirrorKindLocked(ctx, model.KindMusic, c.musicItem.ID, 0, true)
		return
	}

	next := c.queue.At(ni)
	if next == nil {
		return
	}
	if err := c.music.Load(next); err != nil {
		logger.Warn("failed to load next track", logger.Int64("itemId", next.ID), logger.ErrorField(err))
		return
	}
	swallow("seek", c.music.SeekTo(0))
	swallow("play", c.music.Play())
	c.handle.SyncEffects()

	c.queue.MoveTo(ni)
	c.musicItem = next
	c.state = PlayingMusic
	c.mirrorKindLocked(ctx, model.KindMusic, next.ID, 0, true)
	c.saveQueueLocked(ctx)
	if err := c.library.IncrementPlayCount(next.ID); err != nil {
		logger.Warn("failed to bump play count", logger.Int64("itemId", next.ID), logger.ErrorField(err))
	}
}

// Previous jumps to the previous queue entry when one exists.
func (c *Coordinator) Previous(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if k, ok := c.state.ActiveKind(); !ok || k != model.KindMusic {
		return
	}
	pi := c.queue.PrevIndex()
	if pi == -1 {
		return
	}
	prev := c.queue.At(pi)
	if err := c.music.Load(prev); err != nil {
		logger.Warn("failed to load previous track", logger.Int64("itemId", prev.ID), logger.ErrorField(err))
		return
	}
	swallow("seek", c.music.SeekTo(0))
	swallow("play", c.music.Play())
	c.handle.SyncEffects()

	c.queue.MoveTo(pi)
	c.musicItem = prev
	c.state = PlayingMusic
	c.mirrorKindLocked(ctx, model.KindMusic, prev.ID, 0, true)
	c.saveQueueLocked(ctx)
}

// TogglePlayPause flips play/pause for the active kind. With nothing active
// it is a no-op; the previous visible state stands.
func (c *Coordinator) TogglePlayPause(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	switch c.state {
	case PlayingMusic:
		swallow("pause", c.music.Pause())
		c.state = PausedMusic
		posMs, _ := c.authoritative(c.music, c.musicItem)
		c.mirrorKindLocked(ctx, model.KindMusic, c.musicItem.ID, posMs, false)
	case PausedMusic:
		swallow("play", c.music.Play())
		c.state = PlayingMusic
		posMs, _ := c.authoritative(c.music, c.musicItem)
		c.mirrorKindLocked(ctx, model.KindMusic, c.musicItem.ID, posMs, true)
	case PlayingAudiobook:
		swallow("pause", c.book.Pause())
		c.state = PausedAudiobook
		posMs, _ := c.authoritative(c.book, c.bookItem)
		c.mirrorKindLocked(ctx, model.KindAudiobook, c.bookItem.ID, posMs, false)
	case PausedAudiobook:
		swallow("play", c.book.Play())
		c.state = PlayingAudiobook
		posMs, _ := c.authoritative(c.book, c.bookItem)
		c.mirrorKindLocked(ctx, model.KindAudiobook, c.bookItem.ID, posMs, true)
	}
}

// SeekBy steps the active kind's position by a signed delta, clamped to the
// media bounds.
func (c *Coordinator) SeekBy(ctx context.Context, delta time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	kind, ok := c.state.ActiveKind()
	if !ok {
		return
	}
	engine := c.music
	item := c.musicItem
	if kind == model.KindAudiobook {
		engine, item = c.book, c.bookItem
	}
	if item == nil {
		return
	}

	target := engine.Position() + delta
	if target < 0 {
		target = 0
	}
	if dur := engine.Duration(); dur > 0 && target > dur {
		target = dur
	}
	swallow("seek", engine.SeekTo(target))
	c.mirrorKindLocked(ctx, kind, item.ID, target.Milliseconds(), c.state.IsPlaying())
}

// StopActive pauses the active kind and checkpoints its progress. Unlike
// Dismiss the durable record stays, so the session restores on next start.
func (c *Coordinator) StopActive(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	switch c.state {
	case PlayingMusic:
		swallow("pause", c.music.Pause())
		c.state = PausedMusic
	case PlayingAudiobook:
		swallow("pause", c.book.Pause())
		c.state = PausedAudiobook
	default:
		return
	}
	c.persistLocked(ctx)
}

// RestoreOnColdStart rehydrates the session from the durable record. The
// explicit active-type tag wins when present; a null tag falls back to music
// if its playing flag was set, then to the audiobook if it has a last id.
// Both are consulted because the tag was introduced after a position-only
// scheme and older records may lack it. A candidate whose item no longer
// resolves in the catalog is skipped silently.
func (c *Coordinator) RestoreOnColdStart(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	vals, err := c.settings.ReloadAll(ctx, c.profileID)
	if err != nil {
		return err
	}
	ps := decodePersistedState(vals)

	c.queue.SetShuffle(ps.Shuffle)
	c.queue.SetRepeatMode(ParseRepeatMode(ps.Repeat))

	for _, kind := range restoreCandidates(ps) {
		if kind == model.KindMusic {
			if c.restoreMusicLocked(ctx, ps.Music) {
				return nil
			}
		} else {
			if c.restoreBookLocked(ps.Audiobook) {
				return nil
			}
		}
	}
	return nil
}

// restoreCandidates orders the kinds to attempt. The explicit tag leads when
// present; the legacy fallback chain fills in behind it.
func restoreCandidates(ps model.PersistedPlaybackState) []model.MediaKind {
	var out []model.MediaKind
	seen := map[model.MediaKind]bool{}
	add := func(k model.MediaKind) {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}

	if ps.LastActiveType != nil {
		add(*ps.LastActiveType)
	}
	if ps.Music.LastPlaying {
		add(model.KindMusic)
	}
	if ps.Audiobook.LastID != nil {
		add(model.KindAudiobook)
	}
	return out
}

func (c *Coordinator) restoreMusicLocked(ctx context.Context, ks model.PersistedKindState) bool {
	if ks.LastID == nil {
		return false
	}
	item, err := c.library.FindByID(model.KindMusic, *ks.LastID)
	if err != nil {
		logger.Warn("music restore lookup failed", logger.ErrorField(err))
		return false
	}
	if item == nil {
		return false // catalog entry gone, fall through
	}

	if err := c.music.Load(item); err != nil {
		logger.Warn("music restore load failed", logger.ErrorField(err))
		return false
	}
	swallow("seek", c.music.SeekTo(time.Duration(ks.LastPosition)*time.Millisecond))
	c.handle.SyncEffects()

	c.musicItem = item
	if ks.LastPlaying {
		swallow("play", c.music.Play())
		c.state = PlayingMusic
	} else {
		c.state = PausedMusic
	}
	k := model.KindMusic
	c.activeType = &k

	c.rehydrateQueueLocked(ctx, item)
	logger.Info("restored music session",
		logger.Int64("profileId", c.profileID),
		logger.Int64("itemId", item.ID),
		logger.Int64("positionMs", ks.LastPosition),
		logger.Bool("playing", ks.LastPlaying))
	return true
}

func (c *Coordinator) restoreBookLocked(ks model.PersistedKindState) bool {
	if ks.LastID == nil {
		return false
	}
	item, err := c.library.FindByID(model.KindAudiobook, *ks.LastID)
	if err != nil {
		logger.Warn("audiobook restore lookup failed", logger.ErrorField(err))
		return false
	}
	if item == nil {
		return false
	}

	if err := c.book.Load(item); err != nil {
		logger.Warn("audiobook restore load failed", logger.ErrorField(err))
		return false
	}
	swallow("seek", c.book.SeekTo(time.Duration(ks.LastPosition)*time.Millisecond))

	c.bookItem = item
	if ks.LastPlaying {
		swallow("play", c.book.Play())
		c.state = PlayingAudiobook
	} else {
		c.state = PausedAudiobook
	}
	k := model.KindAudiobook
	c.activeType = &k

	logger.Info("restored audiobook session",
		logger.Int64("profileId", c.profileID),
		logger.Int64("itemId", item.ID),
		logger.Int64("positionMs", ks.LastPosition),
		logger.Bool("playing", ks.LastPlaying))
	return true
}

// rehydrateQueueLocked rebuilds the playlist context from the queue store,
// dropping ids that no longer resolve. An unrecoverable queue degrades to a
// single-item context around the restored track.
func (c *Coordinator) rehydrateQueueLocked(ctx context.Context, current *model.MediaItem) {
	ids, _, err := c.queueStore.LoadQueue(ctx, c.profileID)
	if err != nil {
		logger.Warn("failed to load queue context", logger.ErrorField(err))
		ids = nil
	}

	items := make([]*model.MediaItem, 0, len(ids))
	for _, id := range ids {
		if id == current.ID {
			items = append(items, current)
			continue
		}
		item, err := c.library.FindByID(model.KindMusic, id)
		if err != nil || item == nil {
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		items = []*model.MediaItem{current}
	}
	c.queue.Replace(items, current.ID)
}

// PersistOnBackground is the lifecycle checkpoint: it re-derives the
// authoritative position/duration for the active kind, writes the item's
// progress to the catalog, and mirrors the playback record into the durable
// settings. It recomputes from current engine state on every call, so
// repeated or racing checkpoints converge on the same values.
func (c *Coordinator) PersistOnBackground(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.persistLocked(ctx)
}

func (c *Coordinator) persistLocked(ctx context.Context) {
	c.setSetting(ctx, cache.KeyShuffle, formatBool(c.queue.Shuffle()))
	c.setSetting(ctx, cache.KeyRepeat, c.queue.RepeatMode().String())

	kind, ok := c.state.ActiveKind()
	if !ok {
		return
	}

	var engine player.Engine
	var item *model.MediaItem
	if kind == model.KindMusic {
		engine, item = c.music, c.musicItem
	} else {
		engine, item = c.book, c.bookItem
	}
	if item == nil {
		return
	}

	posMs, durMs := c.authoritative(engine, item)
	if err := c.library.UpdateProgress(item.ID, posMs, durMs); err != nil {
		logger.Warn("failed to persist progress", logger.Int64("itemId", item.ID), logger.ErrorField(err))
	}
	c.mirrorKindLocked(ctx, kind, item.ID, posMs, c.state.IsPlaying())
	c.markActiveLocked(ctx, kind)
	if kind == model.KindMusic {
		c.saveQueueLocked(ctx)
	}
}

// Dismiss removes the now-playing surface for a kind: pause, persist final
// progress, clear the durable triple, and drop the active-type tag when it
// pointed at the dismissed kind.
func (c *Coordinator) Dismiss(ctx context.Context, kind model.MediaKind) {
	if !kind.Playable() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	var engine player.Engine
	var item *model.MediaItem
	if kind == model.KindMusic {
		engine, item = c.music, c.musicItem
	} else {
		engine, item = c.book, c.bookItem
	}

	if item != nil {
		swallow("pause", engine.Pause())
		posMs, durMs := c.authoritative(engine, item)
		if err := c.library.UpdateProgress(item.ID, posMs, durMs); err != nil {
			logger.Warn("failed to persist progress on dismiss", logger.ErrorField(err))
		}
	}

	idKey, posKey, playingKey := kindKeys(kind)
	c.setSetting(ctx, idKey, "")
	c.setSetting(ctx, posKey, "")
	c.setSetting(ctx, playingKey, "")

	if c.activeType != nil && *c.activeType == kind {
		c.activeType = nil
		c.setSetting(ctx, cache.KeyLastActiveType, "")
	}

	if kind == model.KindMusic {
		c.musicItem = nil
		c.queue.Clear()
		if err := c.queueStore.ClearQueue(ctx, c.profileID); err != nil {
			logger.Warn("failed to clear queue context", logger.ErrorField(err))
		}
	} else {
		c.bookItem = nil
	}

	if k, ok := c.state.ActiveKind(); ok && k == kind {
		c.state = Idle
	}
	logger.Info("now playing dismissed",
		logger.Int64("profileId", c.profileID),
		logger.String("kind", string(kind)))
}

// SetShuffle updates the shuffle flag and mirrors it durably.
func (c *Coordinator) SetShuffle(ctx context.Context, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.SetShuffle(enabled)
	c.setSetting(ctx, cache.KeyShuffle, formatBool(enabled))
}

// SetRepeatMode updates the repeat mode and mirrors it durably.
func (c *Coordinator) SetRepeatMode(ctx context.Context, mode RepeatMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.SetRepeatMode(mode)
	c.setSetting(ctx, cache.KeyRepeat, mode.String())
}

// State returns the current session state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot derives a fresh immutable view of the current playback state, or
// nil when nothing is active. It is rebuilt from the engine and catalog item
// on every call.
func (c *Coordinator) Snapshot() *model.PlaybackSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	kind, ok := c.state.ActiveKind()
	if !ok {
		return nil
	}

	var engine player.Engine
	var item *model.MediaItem
	if kind == model.KindMusic {
		engine, item = c.music, c.musicItem
	} else {
		engine, item = c.book, c.bookItem
	}
	if item == nil {
		return nil
	}

	posMs, durMs := c.authoritative(engine, item)
	snap := &model.PlaybackSnapshot{
		Kind:        kind,
		ItemID:      item.ID,
		Title:       item.Title,
		Subtitle:    item.Artist,
		CoverArtURL: item.CoverArtPath,
		DurationMs:  durMs,
		PositionMs:  posMs,
		IsPlaying:   c.state.IsPlaying(),
	}
	if kind == model.KindMusic {
		snap.HasNext = c.queue.HasNext()
		snap.HasPrevious = c.queue.HasPrevious()
	}
	return snap
}

// Close persists a final checkpoint, stops the track-end watcher, closes the
// audiobook engine and releases the shared handle.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.persistLocked(context.Background())
	c.closed = true
	close(c.done)
	if err := c.book.Close(); err != nil {
		logger.Warn("failed to close audiobook engine", logger.ErrorField(err))
	}
	c.mu.Unlock()

	c.handle.Release()
}

// authoritative returns the position/duration to persist: current engine
// values, falling back to the catalog's last-known duration while the engine
// has not reported one yet.
func (c *Coordinator) authoritative(engine player.Engine, item *model.MediaItem) (posMs, durMs int64) {
	posMs = engine.Position().Milliseconds()
	durMs = engine.Duration().Milliseconds()
	if durMs == 0 {
		durMs = item.DurationMs
	}
	return posMs, durMs
}

// mirrorKindLocked writes one kind's durable triple (last-write-wins).
func (c *Coordinator) mirrorKindLocked(ctx context.Context, kind model.MediaKind, id, posMs int64, playing bool) {
	idKey, posKey, playingKey := kindKeys(kind)
	c.setSetting(ctx, idKey, formatInt(id))
	c.setSetting(ctx, posKey, formatInt(posMs))
	c.setSetting(ctx, playingKey, formatBool(playing))
}

// markActiveLocked records the kind as the last active type.
func (c *Coordinator) markActiveLocked(ctx context.Context, kind model.MediaKind) {
	k := kind
	c.activeType = &k
	c.setSetting(ctx, cache.KeyLastActiveType, string(kind))
}

func (c *Coordinator) saveQueueLocked(ctx context.Context) {
	if err := c.queueStore.SaveQueue(ctx, c.profileID, c.queue.IDs(), c.queue.Index()); err != nil {
		logger.Warn("failed to save queue context", logger.ErrorField(err))
	}
}

// setSetting mirrors one key, logging rather than propagating failures; the
// next checkpoint rewrites every key from current state anyway.
func (c *Coordinator) setSetting(ctx context.Context, key, value string) {
	if err := c.settings.Set(ctx, c.profileID, key, value); err != nil {
		logger.Warn("failed to mirror setting",
			logger.String("key", key),
			logger.ErrorField(err))
	}
}
