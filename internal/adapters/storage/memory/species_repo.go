package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"species-catalog/internal/domain/species"
)

type speciesRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]species.Species
}

// NewSpeciesRepo se usa en dev/tests cuando no hay DB_DSN.
func NewSpeciesRepo() species.Repository {
	return &speciesRepo{
		byID: make(map[int64]species.Species),
	}
}

func (r *speciesRepo) Create(ctx context.Context, s species.Species) (species.Species, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(s.AuthorID) == "" {
		return species.Species{}, errors.New("species author required")
	}
	r.nextID++
	s.ID = r.nextID
	r.byID[s.ID] = clone(s)
	return clone(s), nil
}

func (r *speciesRepo) Update(ctx context.Context, s species.Species) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, exists := r.byID[s.ID]
	if !exists {
		return species.ErrNotFound
	}
	// author es inmutable, igual que en la tabla.
	s.AuthorID = cur.AuthorID
	r.byID[s.ID] = clone(s)
	return nil
}

func (r *speciesRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return species.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *speciesRepo) GetByID(ctx context.Context, id int64) (species.Species, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return species.Species{}, species.ErrNotFound
	}
	return clone(s), nil
}

func (r *speciesRepo) List(ctx context.Context, f species.ListFilter) ([]species.Species, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]species.Species, 0)
	for _, s := range r.byID {
		if f.Kingdom != "" && s.Kingdom != f.Kingdom {
			continue
		}
		if f.AuthorID != "" && s.AuthorID != f.AuthorID {
			continue
		}
		if q != "" && !matches(s, q) {
			continue
		}
		out = append(out, clone(s))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matches(s species.Species, q string) bool {
	if strings.Contains(strings.ToLower(s.ScientificName), q) {
		return true
	}
	return s.CommonName != nil && strings.Contains(strings.ToLower(*s.CommonName), q)
}

// clone copia los punteros para que nadie mute el estado del repo desde afuera.
func clone(s species.Species) species.Species {
	s.CommonName = clonePtr(s.CommonName)
	s.Endangered = clonePtr(s.Endangered)
	s.TotalPopulation = clonePtr(s.TotalPopulation)
	s.Image = clonePtr(s.Image)
	s.Description = clonePtr(s.Description)
	return s
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
