package profiles

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"species-catalog/internal/middleware"
	"species-catalog/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/profiles/{profileID}", getProfileHandler(svc))
	r.Put("/me/profile", putMyProfileHandler(svc))
}

type displayNameRequest struct {
	DisplayName string `json:"display_name"`
}

// getProfileHandler godoc
// @Summary Ver perfil
// @Tags profiles
// @Produce json
// @Param profileID path string true "ID del usuario"
// @Success 200 {object} Profile
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "profile not found"
// @Router /profiles/{profileID} [get]
func getProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.Get(r.Context(), chi.URLParam(r, "profileID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// putMyProfileHandler godoc
// @Summary Cambiar mi display name
// @Tags profiles
// @Accept json
// @Produce json
// @Param payload body displayNameRequest true "Nuevo display name"
// @Success 200 {object} Profile
// @Failure 400 {string} string "invalid input"
// @Failure 401 {string} string "unauthorized"
// @Router /me/profile [put]
func putMyProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req displayNameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.SetDisplayName(r.Context(), claims.UserID, req.DisplayName)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "profile not found", http.StatusNotFound)
	default:
		logger.FromContext(r.Context()).Error("profiles request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
