package session

import (
	"strconv"

	"Shelfwave/cache"
	"Shelfwave/model"
)

// decodePersistedState rebuilds the durable playback record from the raw
// settings keys. Absent or malformed keys decode to their zero values; the
// restore path treats those as "nothing to restore" rather than errors.
func decodePersistedState(vals map[string]string) model.PersistedPlaybackState {
	ps := model.PersistedPlaybackState{
		Music:     decodeKindState(vals, cache.KeyMusicLastID, cache.KeyMusicLastPosition, cache.KeyMusicLastPlaying),
		Audiobook: decodeKindState(vals, cache.KeyBookLastID, cache.KeyBookLastPosition, cache.KeyBookLastPlaying),
		Shuffle:   vals[cache.KeyShuffle] == "1",
		Repeat:    vals[cache.KeyRepeat],
	}

	switch model.MediaKind(vals[cache.KeyLastActiveType]) {
	case model.KindMusic:
		k := model.KindMusic
		ps.LastActiveType = &k
	case model.KindAudiobook:
		k := model.KindAudiobook
		ps.LastActiveType = &k
	}
	return ps
}

func decodeKindState(vals map[string]string, idKey, posKey, playingKey string) model.PersistedKindState {
	ks := model.PersistedKindState{}
	if raw, ok := vals[idKey]; ok && raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			ks.LastID = &id
		}
	}
	if raw, ok := vals[posKey]; ok {
		if pos, err := strconv.ParseInt(raw, 10, 64); err == nil {
			ks.LastPosition = pos
		}
	}
	ks.LastPlaying = vals[playingKey] == "1"
	return ks
}

// kindKeys returns the settings key triple for a playable kind.
func kindKeys(kind model.MediaKind) (idKey, posKey, playingKey string) {
	if kind == model.KindAudiobook {
		return cache.KeyBookLastID, cache.KeyBookLastPosition, cache.KeyBookLastPlaying
	}
	return cache.KeyMusicLastID, cache.KeyMusicLastPosition, cache.KeyMusicLastPlaying
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
