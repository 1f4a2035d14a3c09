package species

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// MutationObserver recibe el resultado de cada create/update/delete (métricas).
type MutationObserver interface {
	ObserveMutation(op string, err error)
}

type Service struct {
	repo     Repository
	schema   *Schema
	observer MutationObserver
}

func NewService(repo Repository, schema *Schema) *Service {
	if schema == nil {
		schema = NewSchema()
	}
	return &Service{
		repo:   repo,
		schema: schema,
	}
}

// WithObserver registra un observer de mutaciones (opcional).
func (s *Service) WithObserver(o MutationObserver) *Service {
	s.observer = o
	return s
}

func (s *Service) Schema() *Schema {
	return s.schema
}

// Create guarda un registro nuevo con authorID como autor.
// in debe venir normalizado (ver Schema.Normalize).
func (s *Service) Create(ctx context.Context, authorID string, in Fields) (Species, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return Species{}, ErrInvalidInput
	}
	if err := s.schema.Check(in); err != nil {
		return Species{}, err
	}

	created, err := s.repo.Create(ctx, Species{
		AuthorID: authorID,
		Fields:   in,
	})
	s.observe("create", err)
	if err != nil {
		return Species{}, fmt.Errorf("create species: %w", err)
	}
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (Species, error) {
	if id <= 0 {
		return Species{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Species, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	if filter.Kingdom != "" && !filter.Kingdom.Valid() {
		return nil, ErrInvalidInput
	}
	if filter.Limit <= 0 || filter.Limit > MaxListLimit {
		filter.Limit = DefaultListLimit
	}
	return s.repo.List(ctx, filter)
}

// Update reemplaza todos los campos editables del registro id.
// Solo el autor puede actualizar; devuelve el registro guardado.
func (s *Service) Update(ctx context.Context, id int64, actorID string, in Fields) (Species, error) {
	current, err := s.authorize(ctx, id, actorID)
	if err != nil {
		return Species{}, err
	}
	if err := s.schema.Check(in); err != nil {
		return Species{}, err
	}

	updated := Species{
		ID:       current.ID,
		AuthorID: current.AuthorID,
		Fields:   in,
	}
	err = s.repo.Update(ctx, updated)
	s.observe("update", err)
	if err != nil {
		return Species{}, err
	}
	return updated, nil
}

// Delete borra el registro id. Solo el autor puede borrar.
func (s *Service) Delete(ctx context.Context, id int64, actorID string) error {
	if _, err := s.authorize(ctx, id, actorID); err != nil {
		return err
	}
	err := s.repo.Delete(ctx, id)
	s.observe("delete", err)
	return err
}

func (s *Service) authorize(ctx context.Context, id int64, actorID string) (Species, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return Species{}, ErrForbidden
	}
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return Species{}, err
	}
	// Solo el autor; el dialog esconde los controles pero acá es donde se hace cumplir.
	if current.AuthorID != actorID {
		return Species{}, ErrForbidden
	}
	return current, nil
}

func (s *Service) observe(op string, err error) {
	if s.observer != nil {
		s.observer.ObserveMutation(op, err)
	}
}
