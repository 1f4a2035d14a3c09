package memory

import (
	"context"
	"sync"

	"species-catalog/internal/domain/profiles"
)

type profilesRepo struct {
	mu   sync.RWMutex
	byID map[string]profiles.Profile
}

func NewProfilesRepo() profiles.Repository {
	return &profilesRepo{
		byID: make(map[string]profiles.Profile),
	}
}

func (r *profilesRepo) GetByID(ctx context.Context, id string) (profiles.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return profiles.Profile{}, profiles.ErrNotFound
	}
	return p, nil
}

func (r *profilesRepo) FindDisplayNames(ctx context.Context, id string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.byID[id]; ok {
		return []string{p.DisplayName}, nil
	}
	return []string{}, nil
}

func (r *profilesRepo) Upsert(ctx context.Context, p profiles.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[p.ID] = p
	return nil
}
