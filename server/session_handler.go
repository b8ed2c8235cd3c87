package server

import (
	"encoding/json"
	"net/http"

	"Shelfwave/core/effects"
	"Shelfwave/core/session"
	"Shelfwave/core/transport"
	"Shelfwave/logger"
	"Shelfwave/model"

	"github.com/gorilla/mux"
)

// SelectMusicHandler makes a track the now-playing content.
// POST /api/session/music {"itemId": 1, "listing": [3,1,2]}
//
// The listing is the ordered id list the track was picked from and becomes
// the playlist context; when omitted the profile's whole music library is
// used.
func (h *APIHandler) SelectMusicHandler(w http.ResponseWriter, r *http.Request) {
	profileID, err := GetProfileIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		ItemID  int64   `json:"itemId"`
		Listing []int64 `json:"listing"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.libraryRepo.FindByID(model.KindMusic, req.ItemID)
	if err != nil {
		logger.Error("failed to look up track", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if item == nil || item.ProfileID != profileID {
		http.Error(w, "Track not found", http.StatusNotFound)
		return
	}

	listing := h.resolveListing(profileID, req.Listing, item)

	c := h.sessions.ForProfile(r.Context(), profileID)
	if err := c.SelectMusic(r.Context(), item, listing); err != nil {
		http.Error(w, "Item is not playable", http.StatusBadRequest)
		return
	}

	h.pushNowPlaying(profileID, c)
	writeJSON(w, http.StatusOK, c.Snapshot())
}

// SelectAudiobookHandler makes an audiobook the now-playing content.
// POST /api/session/audiobook {"itemId": 1, "resume": true}
func (h *APIHandler) SelectAudiobookHandler(w http.ResponseWriter, r *http.Request) {
	profileID, err := GetProfileIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		ItemID int64 `json:"itemId"`
		Resume bool  `json:"resume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.libraryRepo.FindByID(model.KindAudiobook, req.ItemID)
	if err != nil {
		logger.Error("failed to look up audiobook", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if item == nil || item.ProfileID != profileID {
		http.Error(w, "Audiobook not found", http.StatusNotFound)
		return
	}

	c := h.sessions.ForProfile(r.Context(), profileID)
	if err := c.SelectAudiobook(r.Context(), item, req.Resume); err != nil {
		http.Error(w, "Item is not playable", http.StatusBadRequest)
		return
	}

	h.pushNowPlaying(profileID, c)
	writeJSON(w, http.StatusOK, c.Snapshot())
}

// NowPlayingHandler returns the current snapshot, or 204 when idle.
// GET /api/session/now-playing
func (h *APIHandler) NowPlayingHandler(w http.ResponseWriter, r *http.Request) {
	profileID, err := GetProfileIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	c := h.sessions.ForProfile(r.Context(), profileID)
	snap := c.Snapshot()
	if snap == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// BackgroundHandler is the client lifecycle checkpoint: the app going to the
// background posts here so the durable record catches up.
// POST /api/session/background
func (h *APIHandler) BackgroundHandler(w http.ResponseWriter, r *http.Request) {
	profileID, err := GetProfileIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	c := h.sessions.ForProfile(r.Context(), profileID)
	c.PersistOnBackground(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// DismissHandler removes one kind's now-playing surface.
// DELETE /api/session/{kind}
func (h *APIHandler) DismissHandler(w http.ResponseWriter, r *http.Request) {
	profileID, err := GetProfileIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	kind := model.MediaKind(mux.Vars(r)["kind"])
	if !kind.Playable() {
		http.Error(w, "Invalid kind", http.StatusBadRequest)
		return
	}

	c := h.sessions.ForProfile(r.Context(), profileID)
	c.Dismiss(r.Context(), kind)
	h.pushNowPlaying(profileID, c)
	w.WriteHeader(http.StatusNoContent)
}

// ShuffleHandler sets the shuffle flag.
// PUT /api/session/shuffle {"enabled": true}
func (h *APIHandler) ShuffleHandler(w http.ResponseWriter, r *http.Request) {
	profileID, err := GetProfileIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	c := h.sessions.ForProfile(r.Context(), profileID)
	c.SetShuffle(r.Context(), req.Enabled)
	h.pushNowPlaying(profileID, c)
	w.WriteHeader(http.StatusNoContent)
}

// RepeatHandler sets the repeat mode.
// PUT /api/session/repeat {"mode": "one"}
func (h *APIHandler) RepeatHandler(w http.ResponseWriter, r *http.Request) {
	profileID, err := GetProfileIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	c := h.sessions.ForProfile(r.Context(), profileID)
	c.SetRepeatMode(r.Context(), session.ParseRepeatMode(req.Mode))
	h.pushNowPlaying(profileID, c)
	w.WriteHeader(http.StatusNoContent)
}

// GetAudioSettingsHandler returns the shared audio effects settings.
// GET /api/session/audio-settings
func (h *APIHandler) GetAudioSettingsHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := GetProfileIDFromContext(r.Context()); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	s := h.handle.AudioSettings()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"equalizerPreset": string(s.EqualizerPreset),
		"bassBoost":       s.BassBoost,
		"volumeBoost":     s.VolumeBoost,
		"normalize":       s.Normalize,
	})
}

// UpdateAudioSettingsHandler applies partial audio effects updates. Each
// present field is applied independently so one invalid value does not block
// the rest.
// PUT /api/session/audio-settings
func (h *APIHandler) UpdateAudioSettingsHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := GetProfileIDFromContext(r.Context()); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		EqualizerPreset *string `json:"equalizerPreset"`
		BassBoost       *int    `json:"bassBoost"`
		VolumeBoost     *int    `json:"volumeBoost"`
		Normalize       *bool   `json:"normalize"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.EqualizerPreset != nil {
		preset := effects.Preset(*req.EqualizerPreset)
		if !preset.Valid() {
			http.Error(w, "Unknown equalizer preset", http.StatusBadRequest)
			return
		}
		h.handle.SetEqualizerPreset(preset)
	}
	if req.BassBoost != nil {
		h.handle.SetBassBoost(*req.BassBoost)
	}
	if req.VolumeBoost != nil {
		h.handle.SetVolumeBoost(*req.VolumeBoost)
	}
	if req.Normalize != nil {
		h.handle.SetNormalize(*req.Normalize)
	}

	h.GetAudioSettingsHandler(w, r)
}

// resolveListing maps the requested id order onto catalog items, dropping
// ids that do not resolve. Empty input falls back to the whole music
// library.
func (h *APIHandler) resolveListing(profileID int64, ids []int64, selected *model.MediaItem) []*model.MediaItem {
	if len(ids) == 0 {
		items, err := h.libraryRepo.GetAllByProfileAndKind(profileID, model.KindMusic)
		if err != nil || len(items) == 0 {
			return []*model.MediaItem{selected}
		}
		return items
	}

	listing := make([]*model.MediaItem, 0, len(ids))
	for _, id := range ids {
		if id == selected.ID {
			listing = append(listing, selected)
			continue
		}
		item, err := h.libraryRepo.FindByID(model.KindMusic, id)
		if err != nil || item == nil || item.ProfileID != profileID {
			continue
		}
		listing = append(listing, item)
	}
	if len(listing) == 0 {
		listing = []*model.MediaItem{selected}
	}
	return listing
}

// pushNowPlaying broadcasts the fresh snapshot to the profile's connected
// transport clients.
func (h *APIHandler) pushNowPlaying(profileID int64, c *session.Coordinator) {
	snap := c.Snapshot()
	if snap == nil {
		h.hub.Broadcast(profileID, transport.SignalDismissed, nil)
		return
	}
	h.hub.Broadcast(profileID, transport.SignalNowPlaying, snap)
}
