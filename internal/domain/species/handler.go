package species

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"species-catalog/internal/middleware"
	"species-catalog/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/species", func(sr chi.Router) {
		sr.Get("/", listSpeciesHandler(svc))
		sr.Post("/", createSpeciesHandler(svc))

		sr.Get("/{speciesID}", getSpeciesHandler(svc))

		// Solo el autor (ver Service.authorize)
		sr.Put("/{speciesID}", updateSpeciesHandler(svc))
		sr.Delete("/{speciesID}", deleteSpeciesHandler(svc))
	})
}

// speciesRequest es el cuerpo para crear o reemplazar una especie.
// Los strings vacíos o solo espacios se guardan como null.
type speciesRequest struct {
	ScientificName  string       `json:"scientific_name"`
	CommonName      *string      `json:"common_name"`
	Kingdom         string       `json:"kingdom" enums:"Animalia,Plantae,Fungi,Protista,Archaea,Bacteria"`
	Endangered      *bool        `json:"endangered"`
	TotalPopulation *json.Number `json:"total_population" swaggertype:"integer"`
	Image           *string      `json:"image"`
	Description     *string      `json:"description"`
}

// Response representa una especie devuelta por la API.
type Response struct {
	ID              int64   `json:"id"`
	ScientificName  string  `json:"scientific_name"`
	CommonName      *string `json:"common_name"`
	Kingdom         Kingdom `json:"kingdom"`
	Endangered      *bool   `json:"endangered"`
	TotalPopulation *int64  `json:"total_population"`
	Image           *string `json:"image"`
	Description     *string `json:"description"`
	Author          string  `json:"author"`
}

type validationResponse struct {
	Error  string      `json:"error"`
	Fields FieldErrors `json:"fields"`
}

// values pasa el JSON tipado a los valores crudos que entiende el Schema,
// así API y formulario comparten exactamente las mismas reglas.
func (req speciesRequest) values() map[Field]string {
	out := map[Field]string{
		FieldScientificName: req.ScientificName,
		FieldCommonName:     deref(req.CommonName),
		FieldKingdom:        req.Kingdom,
		FieldImage:          deref(req.Image),
		FieldDescription:    deref(req.Description),
	}
	if req.Endangered != nil {
		out[FieldEndangered] = strconv.FormatBool(*req.Endangered)
	}
	if req.TotalPopulation != nil {
		out[FieldTotalPopulation] = req.TotalPopulation.String()
	}
	return out
}

// listSpeciesHandler godoc
// @Summary Listar especies
// @Description Lista las especies del catálogo. Permite filtrar por texto (nombre científico o común) y reino.
// @Tags species
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param q query string false "Texto libre"
// @Param kingdom query string false "Reino"
// @Param author query string false "ID del autor"
// @Param limit query int false "Máximo (1-200). Por defecto 50"
// @Success 200 {array} Response
// @Failure 400 {string} string "kingdom inválido"
// @Failure 401 {string} string "unauthorized"
// @Router /species [get]
func listSpeciesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}

		q := r.URL.Query()
		filter := ListFilter{
			Query:    q.Get("q"),
			Kingdom:  Kingdom(strings.TrimSpace(q.Get("kingdom"))),
			AuthorID: strings.TrimSpace(q.Get("author")),
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Limit = n
			}
		}

		items, err := svc.List(r.Context(), filter)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		out := make([]Response, 0, len(items))
		for _, s := range items {
			out = append(out, ToResponse(s))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// createSpeciesHandler godoc
// @Summary Agregar especie
// @Description Crea una especie; el usuario autenticado queda como autor.
// @Tags species
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body speciesRequest true "Datos de la especie"
// @Success 201 {object} Response
// @Failure 400 {object} validationResponse
// @Failure 401 {string} string "unauthorized"
// @Router /species [post]
func createSpeciesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req speciesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in, errs := svc.Schema().Normalize(req.values())
		if errs != nil {
			writeServiceError(w, r, errs)
			return
		}

		created, err := svc.Create(r.Context(), userID, in)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, ToResponse(created))
	}
}

// getSpeciesHandler godoc
// @Summary Ver especie
// @Tags species
// @Produce json
// @Param speciesID path int true "ID de la especie"
// @Success 200 {object} Response
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "species not found"
// @Router /species/{speciesID} [get]
func getSpeciesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}

		id, ok := speciesIDParam(w, r)
		if !ok {
			return
		}

		s, err := svc.GetByID(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(s))
	}
}

// updateSpeciesHandler godoc
// @Summary Reemplazar especie
// @Description Actualiza todos los campos editables. Solo el autor.
// @Tags species
// @Accept json
// @Produce json
// @Param speciesID path int true "ID de la especie"
// @Param payload body speciesRequest true "Registro completo"
// @Success 200 {object} Response
// @Failure 400 {object} validationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "species not found"
// @Router /species/{speciesID} [put]
func updateSpeciesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		id, ok := speciesIDParam(w, r)
		if !ok {
			return
		}

		var req speciesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in, errs := svc.Schema().Normalize(req.values())
		if errs != nil {
			writeServiceError(w, r, errs)
			return
		}

		updated, err := svc.Update(r.Context(), id, userID, in)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(updated))
	}
}

// deleteSpeciesHandler godoc
// @Summary Borrar especie
// @Description Solo el autor.
// @Tags species
// @Param speciesID path int true "ID de la especie"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "species not found"
// @Router /species/{speciesID} [delete]
func deleteSpeciesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		id, ok := speciesIDParam(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), id, userID); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ToResponse(s Species) Response {
	return Response{
		ID:              s.ID,
		ScientificName:  s.ScientificName,
		CommonName:      s.CommonName,
		Kingdom:         s.Kingdom,
		Endangered:      s.Endangered,
		TotalPopulation: s.TotalPopulation,
		Image:           s.Image,
		Description:     s.Description,
		Author:          s.AuthorID,
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return claims.UserID, true
}

func speciesIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "speciesID"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "species not found", http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ferrs FieldErrors
	switch {
	case errors.As(err, &ferrs):
		writeJSON(w, http.StatusBadRequest, validationResponse{Error: "validation failed", Fields: ferrs})
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "species not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		logger.FromContext(r.Context()).Error("species request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
