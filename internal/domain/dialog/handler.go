package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"species-catalog/internal/domain/search"
	"species-catalog/internal/domain/species"
	"species-catalog/internal/middleware"
	"species-catalog/internal/platform/logger"
	"species-catalog/internal/ports/notify"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, m *Manager) {
	r.Post("/species/{speciesID}/dialog", openDialogHandler(m))

	r.Route("/dialogs/{dialogID}", func(dr chi.Router) {
		dr.Get("/", viewDialogHandler(m))
		dr.Delete("/", closeDialogHandler(m))
		dr.Get("/state", stateHandler(m))
		dr.Get("/notifications", notificationsHandler(m))

		dr.Post("/edit", startEditHandler(m))
		dr.Patch("/fields", setFieldsHandler(m))
		dr.Post("/cancel", cancelHandler(m))
		dr.Post("/confirm", confirmHandler(m))
		dr.Post("/delete", deleteHandler(m))

		dr.Post("/search", searchHandler(m))
		dr.Post("/search/select", selectHandler(m))
	})
}

type openResponse struct {
	DialogID string `json:"dialog_id"`
	State    State  `json:"state"`
}

// actionResponse es la respuesta de todas las acciones sobre un dialog.
// Notifications trae (y vacía) los avisos generados por la acción.
type actionResponse struct {
	State         State                 `json:"state"`
	Notifications []notify.Notification `json:"notifications"`
	Prompt        string                `json:"prompt,omitempty"`
	Confirmed     *bool                 `json:"confirmed,omitempty"`
	Error         string                `json:"error,omitempty"`
}

type searchRequest struct {
	Q string `json:"q"`
}

type selectRequest struct {
	Index int `json:"index"`
	// Apply copia description e image al formulario (solo en Editing).
	Apply bool `json:"apply"`
}

type selectResponse struct {
	Selection search.Selection `json:"selection"`
	State     State            `json:"state"`
}

// openDialogHandler godoc
// @Summary Abrir el detail dialog de una especie
// @Description Crea un dialog con estado propio para el usuario. El autor se resuelve en background.
// @Tags dialogs
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param speciesID path int true "ID de la especie"
// @Success 201 {object} openResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "species not found"
// @Router /species/{speciesID}/dialog [post]
func openDialogHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		id, err := strconv.ParseInt(chi.URLParam(r, "speciesID"), 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "species not found", http.StatusNotFound)
			return
		}

		d, err := m.Open(r.Context(), id, userID)
		if err != nil {
			if errors.Is(err, species.ErrNotFound) {
				http.Error(w, "species not found", http.StatusNotFound)
				return
			}
			logger.FromContext(r.Context()).Error("open dialog failed", "species_id", id, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		logger.FromContext(r.Context()).Info("dialog opened", "dialog_id", d.ID, "species_id", id)
		writeJSON(w, http.StatusCreated, openResponse{DialogID: d.ID, State: d.State()})
	}
}

// viewDialogHandler godoc
// @Summary Ver el dialog (HTML)
// @Tags dialogs
// @Produce html
// @Param dialogID path string true "ID del dialog"
// @Success 200 {string} string "HTML"
// @Failure 404 {string} string "dialog not found"
// @Router /dialogs/{dialogID} [get]
func viewDialogHandler(m *Manager) http.HandlerFunc {
	return withDialog(m, func(w http.ResponseWriter, r *http.Request, d *Dialog) {
		templ.Handler(View(d.State())).ServeHTTP(w, r)
	})
}

// closeDialogHandler godoc
// @Summary Cerrar el dialog
// @Tags dialogs
// @Param dialogID path string true "ID del dialog"
// @Success 204
// @Failure 404 {string} string "dialog not found"
// @Router /dialogs/{dialogID} [delete]
func closeDialogHandler(m *Manager) http.HandlerFunc {
	return withDialog(m, func(w http.ResponseWriter, r *http.Request, d *Dialog) {
		_ = m.Close(d.ID, d.ViewerID)
		w.WriteHeader(http.StatusNoContent)
	})
}

// stateHandler godoc
// @Summary Estado del dialog (JSON)
// @Tags dialogs
// @Produce json
// @Param dialogID path string true "ID del dialog"
// @Success 200 {object} State
// @Failure 404 {string} string "dialog not found"
// @Router /dialogs/{dialogID}/state [get]
func stateHandler(m *Manager) http.HandlerFunc {
	return withDialog(m, func(w http.ResponseWriter, _ *http.Request, d *Dialog) {
		writeJSON(w, http.StatusOK, d.State())
	})
}

// notificationsHandler godoc
// @Summary Leer y vaciar las notificaciones del dialog
// @Tags dialogs
// @Produce json
// @Param dialogID path string true "ID del dialog"
// @Success 200 {array} notify.Notification
// @Router /dialogs/{dialogID}/notifications [get]
func notificationsHandler(m *Manager) http.HandlerFunc {
	return withDialog(m, func(w http.ResponseWriter, _ *http.Request, d *Dialog) {
		writeJSON(w, http.StatusOK, d.Notifications().Drain())
	})
}

// startEditHandler godoc
// @Summary Pasar a modo edición (solo el autor)
// @Tags dialogs
// @Produce json
// @Param dialogID path string true "ID del dialog"
// @Success 200 {object} actionResponse
// @Failure 403 {object} actionResponse
// @Router /dialogs/{dialogID}/edit [post]
func startEditHandler(m *Manager) http.HandlerFunc {
	return withDialog(m, func(w http.ResponseWriter, r *http.Request, d *Dialog) {
		if err := d.Session().StartEdit(); err != nil {
			writeAction(w, r, d, err, actionResponse{})
			return
		}
		writeAction(w, r, d, nil, actionResponse{})
	})
}

// setFieldsHandler godoc
// @Summary Cambiar valores del formulario
// @Description Valida cada campo al momento; los errores quedan en state.session.errors y Confirm se deshabilita.
// @Tags dialogs
// @Accept json
// @Produce json
// @Param dialogID path string true "ID del dialog"
// @Param payload body map[string]string true "campo => valor crudo"
// @Success 200 {object} actionResponse
// @Failure 400 {string} string "unknown field"
// @Failure 409 {object} actionResponse
// @Router /dialogs/{dialogID}/fields [patch]
func setFieldsHandler(m *Manager) http.HandlerFunc {
	return withDialog(m, func(w http.ResponseWriter, r *http.Request, d *Dialog) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		editable := map[species.Field]bool{}
		for _, f := range species.EditableFields() {
			editable[f] = true
		}
		for k := range req {
			if !editable[species.Field(k)] {
				http.Error(w, "unknown field: "+k, http.StatusBadRequest)
				return
			}
		}

		for _, f := range species.EditableFields() {
			raw, ok := req[string(f)]
			if !ok {
				continue
			}
			err := d.Session().SetField(f, raw)
			var fe *species.FieldError
			if err != nil && !errors.As(err, &fe) {
				writeAction(w, r, d, err, actionResponse{})
				return
			}
		}
		writeAction(w, r, d, nil, actionResponse{})
	})
}

// cancelHandler godoc
// @Summary Descartar cambios
// @Description Requiere confirm=true (respuesta al prompt "Revert all unsaved changes?").
// @Tags dialogs
// @Produce json
// @Param dialogID path string true "ID del dialog"
// @Param confirm query bool false "Respuesta del usuario al prompt"
// @Success 200 {object} actionResponse
// @Router /dialogs/{dialogID}/cancel [post]
func cancelHandler(m *Manager) http.HandlerFunc {
	return withDialog(m, func(w http.ResponseWriter, r *http.Request, d *Dialog) {
		c := confirmFromQuery(r)
		_, err := d.Session().Cancel(c)
		writeAction(w, r, d, err, actionResponse{Prompt: c.prompt, Confirmed: confirmed(c)})
	})
}

// confirmHandler godoc
// @Summary Guardar cambios
// @Description Normaliza todos los campos y actualiza el registro completo.
// @Tags dialogs
// @Produce json
// @Param dialogID path string true "ID del dialog"
// @Success 200 {object} actionResponse
// @Failure 409 {object} actionResponse
// @Failure 422 {object} actionResponse
// @Router /dialogs/{dialogID}/confirm [post]
func confirmHandler(m *Manager) http.HandlerFunc {
	return withDialog(m, func(w http.ResponseWriter, r *http.Request, d *Dialog) {
		_, err := d.Session().Confirm(r.Context())
		writeAction(w, r, d, err, actionResponse{})
	})
}

// deleteHandler godoc
// @Summary Borrar la especie del dialog
// @Description Requiere confirm=true (respuesta al prompt "Delete the X species?"). Si se borra, el dialog se cierra.
// @Tags dialogs
// @Produce json
// @Param dialogID path string true "ID del dialog"
// @Param confirm query bool false "Respuesta del usuario al prompt"
// @Success 200 {object} actionResponse
// @Router /dialogs/{dialogID}/delete [post]
func deleteHandler(m *Manager) http.HandlerFunc {
	return withDialog(m, func(w http.ResponseWriter, r *http.Request, d *Dialog) {
		c := confirmFromQuery(r)
		deleted, err := d.Session().Delete(r.Context(), c)
		resp := actionResponse{Prompt: c.prompt, Confirmed: confirmed(c)}
		writeAction(w, r, d, err, resp)
		if deleted {
			_ = m.Close(d.ID, d.ViewerID)
		}
	})
}

// searchHandler godoc
// @Summary Buscar en el panel del dialog
// @Tags dialogs
// @Accept json
// @Produce json
// @Param dialogID path string true "ID del dialog"
// @Param payload body searchRequest true "Texto"
// @Success 200 {object} actionResponse
// @Router /dialogs/{dialogID}/search [post]
func searchHandler(m *Manager) http.HandlerFunc {
	return withDialog(m, func(w http.ResponseWriter, r *http.Request, d *Dialog) {
		var req searchRequest
		if err := decodeOptional(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		// El estado del panel no depende de que el cliente siga conectado.
		d.Search().Submit(context.WithoutCancel(r.Context()), req.Q)
		writeAction(w, r, d, nil, actionResponse{})
	})
}

// selectHandler godoc
// @Summary Elegir un resultado de búsqueda
// @Description Devuelve (description, thumbnail_url). Con apply=true y en modo edición, los copia a description e image.
// @Tags dialogs
// @Accept json
// @Produce json
// @Param dialogID path string true "ID del dialog"
// @Param payload body selectRequest true "Índice"
// @Success 200 {object} selectResponse
// @Failure 404 {string} string "no such search result"
// @Router /dialogs/{dialogID}/search/select [post]
func selectHandler(m *Manager) http.HandlerFunc {
	return withDialog(m, func(w http.ResponseWriter, r *http.Request, d *Dialog) {
		var req selectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		sel, err := d.Search().Select(req.Index)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		if req.Apply {
			sess := d.Session()
			if sess.Snapshot().Mode != Editing {
				writeAction(w, r, d, ErrWrongMode, actionResponse{})
				return
			}
			// Los errores de campo quedan en el estado, igual que al tipear.
			for f, raw := range map[species.Field]string{
				species.FieldDescription: sel.Description,
				species.FieldImage:       sel.ThumbnailURL,
			} {
				err := sess.SetField(f, raw)
				var fe *species.FieldError
				if err != nil && !errors.As(err, &fe) {
					writeAction(w, r, d, err, actionResponse{})
					return
				}
			}
		}

		writeJSON(w, http.StatusOK, selectResponse{Selection: sel, State: d.State()})
	})
}

// queryConfirmer responde el prompt con el query param confirm.
type queryConfirmer struct {
	accept bool
	prompt string
}

func (c *queryConfirmer) Confirm(prompt string) bool {
	c.prompt = prompt
	return c.accept
}

func confirmFromQuery(r *http.Request) *queryConfirmer {
	v, _ := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get("confirm")))
	return &queryConfirmer{accept: v}
}

// confirmed solo se informa si el prompt llegó a mostrarse.
func confirmed(c *queryConfirmer) *bool {
	if c.prompt == "" {
		return nil
	}
	v := c.accept
	return &v
}

func withDialog(m *Manager, fn func(http.ResponseWriter, *http.Request, *Dialog)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		d, err := m.Get(chi.URLParam(r, "dialogID"), userID)
		if err != nil {
			http.Error(w, "dialog not found", http.StatusNotFound)
			return
		}
		fn(w, r, d)
	}
}

func writeAction(w http.ResponseWriter, r *http.Request, d *Dialog, err error, resp actionResponse) {
	status := http.StatusOK
	if err != nil {
		status = actionStatus(err)
		resp.Error = err.Error()
		if status == http.StatusInternalServerError {
			logger.FromContext(r.Context()).Error("dialog action failed", "dialog_id", d.ID, "error", err)
			resp.Error = "internal error"
		}
	}
	resp.State = d.State()
	resp.Notifications = d.Notifications().Drain()
	writeJSON(w, status, resp)
}

func actionStatus(err error) int {
	var ferrs species.FieldErrors
	switch {
	case errors.As(err, &ferrs):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotAuthor), errors.Is(err, species.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrBusy), errors.Is(err, ErrWrongMode), errors.Is(err, ErrClosed):
		return http.StatusConflict
	case errors.Is(err, species.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
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

// decodeOptional acepta body vacío.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
