package server

import (
	"net/http"

	"Shelfwave/logger"
	"Shelfwave/model"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// TransportCommandHandler applies a remote transport command to the active
// session and returns the refreshed snapshot (204 when nothing is active).
// POST /api/transport/{command}
func (h *APIHandler) TransportCommandHandler(w http.ResponseWriter, r *http.Request) {
	profileID, err := GetProfileIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var snap *model.PlaybackSnapshot
	switch mux.Vars(r)["command"] {
	case "toggle":
		snap = h.remote.TogglePlayPause(r.Context(), profileID)
	case "seek-back":
		snap = h.remote.SeekBack(r.Context(), profileID)
	case "seek-forward":
		snap = h.remote.SeekForward(r.Context(), profileID)
	case "next":
		snap = h.remote.Next(r.Context(), profileID)
	case "previous":
		snap = h.remote.Previous(r.Context(), profileID)
	case "stop":
		snap = h.remote.StopPlayback(r.Context(), profileID)
	case "previous-chapter":
		h.remote.PreviousChapter(r.Context(), profileID)
		w.WriteHeader(http.StatusAccepted)
		return
	case "next-chapter":
		h.remote.NextChapter(r.Context(), profileID)
		w.WriteHeader(http.StatusAccepted)
		return
	default:
		http.Error(w, "Unknown transport command", http.StatusBadRequest)
		return
	}

	if snap == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// TransportWSHandler upgrades the connection and registers it for transport
// signal pushes.
// GET /ws/transport
func (h *APIHandler) TransportWSHandler(w http.ResponseWriter, r *http.Request) {
	profileID, err := GetProfileIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	h.hub.Register(profileID, conn)
}
