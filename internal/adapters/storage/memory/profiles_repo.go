package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"shelter-medical/internal/domain/profiles"
)

type profileRepo struct {
	mu   sync.RWMutex
	byID map[string]profiles.Profile
}

func NewProfilesRepo() profiles.Repository {
	return &profileRepo{
		byID: make(map[string]profiles.Profile),
	}
}

func (r *profileRepo) Create(ctx context.Context, p profiles.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("profile id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return errors.New("profile already exists")
	}
	r.byID[p.ID] = p
	return nil
}

func (r *profileRepo) Update(ctx context.Context, p profiles.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[p.ID]; !exists {
		return profiles.ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *profileRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return profiles.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (profiles.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return profiles.Profile{}, profiles.ErrNotFound
	}
	return p, nil
}

// List no ordena: el servicio ordena por nombre.
func (r *profileRepo) List(ctx context.Context) ([]profiles.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]profiles.Profile, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out, nil
}
