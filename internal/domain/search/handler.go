package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"species-catalog/internal/middleware"
	"species-catalog/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// lookupResponse es la respuesta del autocompletado de "add species".
type lookupResponse struct {
	Query    string      `json:"query"`
	Results  []Result    `json:"results"`
	Autofill []Selection `json:"autofill"`
}

func RegisterRoutes(r chi.Router, searcher Searcher, timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	r.Get("/search", lookupHandler(searcher, timeout))
}

// lookupHandler godoc
// @Summary Buscar en Wikipedia para autocompletar
// @Description Hace la búsqueda (limit=3) sin estado; cada resultado trae su par (description, thumbnail_url).
// @Tags search
// @Produce json
// @Param q query string false "Texto libre (vacío también busca)"
// @Success 200 {object} lookupResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 502 {string} string "search failed"
// @Failure 504 {string} string "search timed out"
// @Router /search [get]
func lookupHandler(searcher Searcher, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		q := r.URL.Query().Get("q")
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		results, err := searcher.Search(ctx, q, ResultLimit)
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				http.Error(w, ErrTimeout.Error(), http.StatusGatewayTimeout)
				return
			}
			logger.FromContext(r.Context()).Warn("search failed", "error", err)
			http.Error(w, "search failed", http.StatusBadGateway)
			return
		}

		out := lookupResponse{
			Query:    q,
			Results:  results,
			Autofill: make([]Selection, 0, len(results)),
		}
		if out.Results == nil {
			out.Results = []Result{}
		}
		for _, res := range results {
			out.Autofill = append(out.Autofill, res.Selection())
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
