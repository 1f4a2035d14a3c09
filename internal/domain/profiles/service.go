package profiles

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
)

var ErrInvalidInput = errors.New("invalid input")

const MaxDisplayNameLen = 80

type Service struct {
	repo     Repository
	onChange []func(id string)
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// OnChange registra un hook que corre después de cada Upsert exitoso
// (p.ej. invalidar el cache del Resolver).
func (s *Service) OnChange(fn func(id string)) {
	s.onChange = append(s.onChange, fn)
}

func (s *Service) Get(ctx context.Context, id string) (Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Profile{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// SetDisplayName crea o actualiza el perfil del usuario id.
func (s *Service) SetDisplayName(ctx context.Context, id, name string) (Profile, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" || name == "" || utf8.RuneCountInString(name) > MaxDisplayNameLen {
		return Profile{}, ErrInvalidInput
	}

	p := Profile{ID: id, DisplayName: name}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return Profile{}, err
	}
	for _, fn := range s.onChange {
		fn(id)
	}
	return p, nil
}
