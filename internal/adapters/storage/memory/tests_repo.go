package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"shelter-medical/internal/domain/labtests"
)

type TestsRepo struct {
	mu   sync.RWMutex
	byID map[string]labtests.Test
}

func NewTestsRepo() *TestsRepo {
	return &TestsRepo{byID: make(map[string]labtests.Test)}
}

func (r *TestsRepo) Create(ctx context.Context, t labtests.Test) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(t.ID) == "" {
		return errors.New("test id required")
	}
	if _, exists := r.byID[t.ID]; exists {
		return errors.New("test already exists")
	}
	r.byID[t.ID] = t
	return nil
}

func (r *TestsRepo) Update(ctx context.Context, t labtests.Test) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[t.ID]; !exists {
		return labtests.ErrNotFound
	}
	r.byID[t.ID] = t
	return nil
}

func (r *TestsRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return labtests.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *TestsRepo) GetByID(ctx context.Context, id string) (labtests.Test, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return labtests.Test{}, labtests.ErrNotFound
	}
	return t, nil
}

func (r *TestsRepo) ListByAnimal(ctx context.Context, animalID string) ([]labtests.Test, error) {
	out := make([]labtests.Test, 0)
	for _, t := range r.all() {
		if t.AnimalID == animalID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *TestsRepo) all() []labtests.Test {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]labtests.Test, 0, len(r.byID))
	for _, t := range r.byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
