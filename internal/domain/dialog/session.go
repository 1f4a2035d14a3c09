package dialog

import (
	"context"
	"errors"
	"sync"

	"species-catalog/internal/domain/species"
	"species-catalog/internal/ports/notify"
)

var (
	ErrNotAuthor = errors.New("only the author can edit this species")
	ErrWrongMode = errors.New("action not allowed in current mode")
	ErrBusy      = errors.New("another save or delete is in progress")
	ErrClosed    = errors.New("dialog closed")
)

// Prompts de confirmación interactiva.
const PromptCancel = "Revert all unsaved changes?"

func PromptDelete(scientificName string) string {
	return "Delete the " + scientificName + " species?"
}

// Confirmer pide confirmación al usuario; false = el usuario dijo que no.
type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Store es lo que la sesión necesita de la persistencia. species.Service lo cumple.
type Store interface {
	GetByID(ctx context.Context, id int64) (species.Species, error)
	Update(ctx context.Context, id int64, actorID string, in species.Fields) (species.Species, error)
	Delete(ctx context.Context, id int64, actorID string) error
}

// RefreshFunc corre después de cada mutación exitosa.
type RefreshFunc func(ctx context.Context)

type op int

const (
	opNone op = iota
	opConfirm
	opDelete
)

// SessionState es una copia del estado de la sesión para renderizar.
type SessionState struct {
	Mode    EditMode                 `json:"mode"`
	Values  map[species.Field]string `json:"values"`
	Errors  species.FieldErrors      `json:"errors"`
	CanEdit bool                     `json:"can_edit"`
	Valid   bool                     `json:"valid"`
	Busy    bool                     `json:"busy"`
	Closed  bool                     `json:"closed"`

	Record species.Species `json:"-"`
}

// EditSession guarda las ediciones en curso de un registro.
type EditSession struct {
	schema   *species.Schema
	store    Store
	notifier notify.Notifier
	refresh  RefreshFunc
	viewerID string

	mu        sync.Mutex
	persisted species.Species
	values    map[species.Field]string
	errs      species.FieldErrors
	mode      EditMode
	busy      op
	closed    bool
}

func NewEditSession(rec species.Species, viewerID string, schema *species.Schema, store Store, n notify.Notifier) *EditSession {
	if schema == nil {
		schema = species.NewSchema()
	}
	if n == nil {
		n = notify.Discard
	}
	return &EditSession{
		schema:    schema,
		store:     store,
		notifier:  n,
		viewerID:  viewerID,
		persisted: rec,
		values:    species.FormValues(rec.Fields),
		errs:      species.FieldErrors{},
		mode:      Viewing,
	}
}

// OnRefresh registra el refresh (opcional).
func (s *EditSession) OnRefresh(fn RefreshFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = fn
}

// CanEdit: los controles solo se muestran si quien mira es el autor.
func (s *EditSession) CanEdit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canEditLocked()
}

func (s *EditSession) canEditLocked() bool {
	return s.viewerID != "" && s.viewerID == s.persisted.AuthorID
}

func (s *EditSession) StartEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return ErrClosed
	case !s.canEditLocked():
		return ErrNotAuthor
	case s.busy != opNone:
		return ErrBusy
	}
	s.mode = Editing
	return nil
}

// SetField valida raw con la regla del campo y lo guarda (válido o no) para
// que el usuario vea lo que escribió junto al error.
func (s *EditSession) SetField(f species.Field, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.mode != Editing {
		return ErrWrongMode
	}
	// Confirm en curso: el reset posterior pisaría el cambio.
	if s.busy != opNone {
		return ErrBusy
	}
	if _, ok := s.values[f]; !ok {
		return &species.FieldError{Field: f, Message: "unknown field"}
	}

	s.values[f] = raw
	var scratch species.Fields
	if err := s.schema.Apply(&scratch, f, raw); err != nil {
		var fe *species.FieldError
		if errors.As(err, &fe) {
			s.errs[f] = fe.Message
		}
		return err
	}
	delete(s.errs, f)
	return nil
}

// Valid es false mientras algún campo tenga error (Confirm deshabilitado).
func (s *EditSession) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errs) == 0
}

// Cancel vuelve a los últimos valores guardados y a Viewing, si c confirma.
func (s *EditSession) Cancel(c Confirmer) (bool, error) {
	s.mu.Lock()
	if err := s.checkLocked(Editing); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.mu.Unlock()

	if !c.Confirm(PromptCancel) {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(Editing); err != nil {
		return false, err
	}
	s.resetLocked()
	return true, nil
}

// Confirm normaliza todos los campos y guarda el registro completo.
// Si hay errores de campo devuelve species.FieldErrors sin llamar al store.
func (s *EditSession) Confirm(ctx context.Context) (species.Species, error) {
	s.mu.Lock()
	if err := s.checkLocked(Editing); err != nil {
		s.mu.Unlock()
		return species.Species{}, err
	}
	in, errs := s.schema.Normalize(s.values)
	if errs != nil {
		s.errs = errs
		s.mu.Unlock()
		return species.Species{}, errs
	}
	s.busy = opConfirm
	id := s.persisted.ID
	s.mu.Unlock()

	saved, err := s.store.Update(ctx, id, s.viewerID, in)

	s.mu.Lock()
	s.busy = opNone
	if err != nil {
		s.mu.Unlock()
		s.notifier.Notify(notify.Notification{
			Title:       "Something went wrong.",
			Description: err.Error(),
			Severity:    notify.SeverityDestructive,
		})
		return species.Species{}, err
	}
	s.persisted = saved
	s.resetLocked()
	refresh := s.refresh
	s.mu.Unlock()

	s.notifier.Notify(notify.Notification{
		Title:       "Changes saved!",
		Description: "Saved your changes to " + saved.ScientificName + ".",
	})
	if refresh != nil {
		refresh(ctx)
	}
	return saved, nil
}

// Delete borra el registro si c confirma. Solo desde Viewing.
// Devuelve false sin llamar al store si el usuario no confirma.
func (s *EditSession) Delete(ctx context.Context, c Confirmer) (bool, error) {
	s.mu.Lock()
	if err := s.checkLocked(Viewing); err != nil {
		s.mu.Unlock()
		return false, err
	}
	name := s.persisted.ScientificName
	s.mu.Unlock()

	if !c.Confirm(PromptDelete(name)) {
		return false, nil
	}

	s.mu.Lock()
	if err := s.checkLocked(Viewing); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.busy = opDelete
	id := s.persisted.ID
	s.mu.Unlock()

	err := s.store.Delete(ctx, id, s.viewerID)

	s.mu.Lock()
	s.busy = opNone
	if err != nil {
		s.mu.Unlock()
		s.notifier.Notify(notify.Notification{
			Title:       "Something went wrong.",
			Description: err.Error(),
			Severity:    notify.SeverityDestructive,
		})
		return false, err
	}
	s.closed = true
	refresh := s.refresh
	s.mu.Unlock()

	s.notifier.Notify(notify.Notification{
		Title:       "Species deleted.",
		Description: "Deleted the " + name + " species.",
	})
	if refresh != nil {
		refresh(ctx)
	}
	return true, nil
}

// Sync reemplaza el registro guardado con datos frescos del store. En Editing
// solo actualiza la base del cancel; no pisa lo que el usuario está escribiendo.
func (s *EditSession) Sync(rec species.Species) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || rec.ID != s.persisted.ID {
		return
	}
	s.persisted = rec
	if s.mode == Viewing {
		s.values = species.FormValues(rec.Fields)
	}
}

func (s *EditSession) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := make(map[species.Field]string, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	errs := make(species.FieldErrors, len(s.errs))
	for k, v := range s.errs {
		errs[k] = v
	}
	return SessionState{
		Mode:    s.mode,
		Values:  values,
		Errors:  errs,
		CanEdit: s.canEditLocked(),
		Valid:   len(s.errs) == 0,
		Busy:    s.busy != opNone,
		Closed:  s.closed,
		Record:  s.persisted,
	}
}

func (s *EditSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// checkLocked valida lo común a cancel/confirm/delete.
func (s *EditSession) checkLocked(want EditMode) error {
	switch {
	case s.closed:
		return ErrClosed
	case !s.canEditLocked():
		return ErrNotAuthor
	case s.busy != opNone:
		return ErrBusy
	case s.mode != want:
		return ErrWrongMode
	}
	return nil
}

func (s *EditSession) resetLocked() {
	s.values = species.FormValues(s.persisted.Fields)
	s.errs = species.FieldErrors{}
	s.mode = Viewing
}
