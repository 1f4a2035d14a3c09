package species

import (
	"context"
	"errors"
)

// ErrNotFound lo devuelven los repos cuando no existe la fila.
var ErrNotFound = errors.New("species not found")

type Repository interface {
	// Create asigna el ID (serial) y devuelve la fila guardada.
	Create(ctx context.Context, s Species) (Species, error)
	GetByID(ctx context.Context, id int64) (Species, error)
	List(ctx context.Context, filter ListFilter) ([]Species, error)
	Update(ctx context.Context, s Species) error
	Delete(ctx context.Context, id int64) error
}

type ListFilter struct {
	// Query busca (case-insensitive) en scientific_name y common_name.
	Query    string
	Kingdom  Kingdom
	AuthorID string
	Limit    int
}
