package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"Shelfwave/logger"
	"Shelfwave/model"
	"Shelfwave/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// GetLibraryHandler lists the profile's items of one kind.
// GET /api/library?kind=music
func (h *APIHandler) GetLibraryHandler(w http.ResponseWriter, r *http.Request) {
	profileID, err := GetProfileIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	kind := model.MediaKind(r.URL.Query().Get("kind"))
	if !kind.Valid() {
		http.Error(w, "Invalid or missing 'kind'", http.StatusBadRequest)
		return
	}

	items, err := h.libraryRepo.GetAllByProfileAndKind(profileID, kind)
	if err != nil {
		logger.Error("failed to list library items", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateItemHandler registers a media item in the catalog.
// POST /api/library
func (h *APIHandler) CreateItemHandler(w http.ResponseWriter, r *http.Request) {
	profileID, err := GetProfileIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Kind         model.MediaKind `json:"kind"`
		Title        string          `json:"title"`
		Artist       string          `json:"artist"`
		Album        string          `json:"album"`
		FilePath     string          `json:"filePath"`
		CoverArtPath string          `json:"coverArtPath"`
		DurationMs   int64           `json:"durationMs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !req.Kind.Valid() || req.Title == "" || req.FilePath == "" {
		http.Error(w, "kind, title and filePath are required", http.StatusBadRequest)
		return
	}

	item := &model.MediaItem{
		ProfileID:    profileID,
		Kind:         req.Kind,
		Title:        req.Title,
		Artist:       req.Artist,
		Album:        req.Album,
		FilePath:     req.FilePath,
		CoverArtPath: req.CoverArtPath,
		DurationMs:   req.DurationMs,
	}
	id, err := h.libraryRepo.CreateItem(item)
	if err != nil {
		logger.Error("failed to create library item", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	item.ID = id

	writeJSON(w, http.StatusCreated, item)
}

// GetItemHandler fetches a single item.
// GET /api/library/{id}?kind=music
func (h *APIHandler) GetItemHandler(w http.ResponseWriter, r *http.Request) {
	profileID, err := GetProfileIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	item, status := h.lookupItem(r, profileID)
	if item == nil {
		http.Error(w, http.StatusText(status), status)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// UploadCoverHandler stores a cover art image and returns its object name
// and a presigned URL.
// POST /api/covers (multipart, field "coverFile")
func (h *APIHandler) UploadCoverHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := GetProfileIDFromContext(r.Context()); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse multipart form: %v", err), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("coverFile")
	if err != nil {
		http.Error(w, "Missing 'coverFile' in form", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	objectName := "covers/" + uuid.New().String() + ext

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	if _, err := storage.UploadCover(r.Context(), objectName, file, header.Size, contentType); err != nil {
		logger.Error("failed to upload cover", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	url, err := storage.CoverURL(r.Context(), objectName, 24*time.Hour)
	if err != nil {
		logger.Error("failed to presign cover url", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"coverArtPath": objectName,
		"url":          url,
	})
}

// CoverURLHandler redirects to a presigned URL for a stored cover.
// GET /api/covers/{object...}
func (h *APIHandler) CoverURLHandler(w http.ResponseWriter, r *http.Request) {
	objectName := strings.TrimPrefix(r.URL.Path, "/api/covers/")
	if objectName == "" {
		http.Error(w, "Missing object name", http.StatusBadRequest)
		return
	}

	url, err := storage.CoverURL(r.Context(), "covers/"+objectName, time.Hour)
	if err != nil {
		http.Error(w, "Cover not found", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// lookupItem resolves the {id} path variable plus kind query parameter into
// the profile's catalog item. Returns nil and an HTTP status on failure.
func (h *APIHandler) lookupItem(r *http.Request, profileID int64) (*model.MediaItem, int) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		return nil, http.StatusBadRequest
	}
	kind := model.MediaKind(r.URL.Query().Get("kind"))
	if !kind.Valid() {
		return nil, http.StatusBadRequest
	}

	item, err := h.libraryRepo.FindByID(kind, id)
	if err != nil {
		logger.Error("failed to look up library item", logger.ErrorField(err))
		return nil, http.StatusInternalServerError
	}
	if item == nil || item.ProfileID != profileID {
		return nil, http.StatusNotFound
	}
	return item, http.StatusOK
}
