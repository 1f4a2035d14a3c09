package profiles

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("profile not found")

type Repository interface {
	GetByID(ctx context.Context, id string) (Profile, error)
	// FindDisplayNames devuelve los display_name de los perfiles con ese id
	// (cero o más; sin error si no hay filas).
	FindDisplayNames(ctx context.Context, id string) ([]string, error)
	Upsert(ctx context.Context, p Profile) error
}
