package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"Shelfwave/config"
	"Shelfwave/core/auth"
	"Shelfwave/core/player"
	"Shelfwave/core/session"
	"Shelfwave/core/transport"
	"Shelfwave/repository"
)

// APIHandler handles all API requests.
type APIHandler struct {
	libraryRepo repository.LibraryRepository
	profileRepo repository.ProfileRepository
	sessions    *session.Manager
	remote      *transport.Service
	hub         *transport.Hub
	handle      *player.Handle
	cfg         *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	libraryRepo repository.LibraryRepository,
	profileRepo repository.ProfileRepository,
	sessions *session.Manager,
	remote *transport.Service,
	hub *transport.Hub,
	handle *player.Handle,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		libraryRepo: libraryRepo,
		profileRepo: profileRepo,
		sessions:    sessions,
		remote:      remote,
		hub:         hub,
		handle:      handle,
		cfg:         cfg,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// AuthMiddleware is a middleware function that checks for a valid JWT token.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "profileID", claims.ProfileID)
		ctx = context.WithValue(ctx, "username", claims.Username)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetProfileIDFromContext extracts the profile ID from the request context.
func GetProfileIDFromContext(ctx context.Context) (int64, error) {
	profileID, ok := ctx.Value("profileID").(int64)
	if !ok {
		return 0, fmt.Errorf("profile ID not found in context")
	}
	return profileID, nil
}
