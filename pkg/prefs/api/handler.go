package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/stepup-auth/pkg/prefs"
	"github.com/tendant/stepup-auth/pkg/stepflow"
)

// Handler handles HTTP requests for user authentication preferences
type Handler struct {
	service *prefs.Service
}

// NewHandler creates a new preference handler
func NewHandler(service *prefs.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the preference routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users/{userId}/auth-methods", func(r chi.Router) {
		r.Get("/", h.GetPreferences)
		r.Put("/{method}", h.UpdateMethod)
	})
}

// GetPreferences handles GET /users/{userId}/auth-methods
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	pref, err := h.service.GetPreference(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to get preferences", "userId", userID, "error", err)
		http.Error(w, "Failed to get preferences", http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, pref)
}

// UpdateMethod handles PUT /users/{userId}/auth-methods/{method} - set the
// enabled flag and optionally the method configuration. A null enabled clears
// the explicit preference so the default policy applies again.
func (h *Handler) UpdateMethod(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	method := stepflow.AuthMethod(chi.URLParam(r, "method"))

	var request struct {
		Enabled *bool   `json:"enabled"`
		Config  *string `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.SetMethodEnabled(r.Context(), userID, method, request.Enabled); err != nil {
		writePreferenceError(w, err)
		return
	}
	if request.Config != nil {
		if err := h.service.SetMethodConfig(r.Context(), userID, method, *request.Config); err != nil {
			writePreferenceError(w, err)
			return
		}
	}

	render.JSON(w, r, map[string]string{"message": "Preference updated"})
}

func writePreferenceError(w http.ResponseWriter, err error) {
	if errors.Is(err, prefs.ErrInvalidMethod) {
		http.Error(w, "Unknown authentication method", http.StatusBadRequest)
		return
	}
	slog.Error("Preference request failed", "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
