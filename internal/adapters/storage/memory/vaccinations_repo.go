package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"shelter-medical/internal/domain/vaccinations"
)

type VaccinationsRepo struct {
	mu   sync.RWMutex
	byID map[string]vaccinations.Vaccination
	// seq reproduce el orden de inserción (equivalente al ID creciente).
	seq  map[string]int
	next int
}

func NewVaccinationsRepo() *VaccinationsRepo {
	return &VaccinationsRepo{
		byID: make(map[string]vaccinations.Vaccination),
		seq:  make(map[string]int),
	}
}

var _ vaccinations.Repository = (*VaccinationsRepo)(nil)

func (r *VaccinationsRepo) Create(ctx context.Context, v vaccinations.Vaccination) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(v.ID) == "" {
		return errors.New("vaccination id required")
	}
	if _, exists := r.byID[v.ID]; exists {
		return errors.New("vaccination already exists")
	}
	r.next++
	r.byID[v.ID] = v
	r.seq[v.ID] = r.next
	return nil
}

func (r *VaccinationsRepo) Update(ctx context.Context, v vaccinations.Vaccination) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[v.ID]; !exists {
		return vaccinations.ErrNotFound
	}
	r.byID[v.ID] = v
	return nil
}

func (r *VaccinationsRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return vaccinations.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.seq, id)
	return nil
}

func (r *VaccinationsRepo) GetByID(ctx context.Context, id string) (vaccinations.Vaccination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.byID[id]
	if !ok {
		return vaccinations.Vaccination{}, vaccinations.ErrNotFound
	}
	return v, nil
}

func (r *VaccinationsRepo) ListByAnimal(ctx context.Context, animalID string) ([]vaccinations.Vaccination, error) {
	out := r.all()
	n := 0
	for _, v := range out {
		if v.AnimalID == animalID {
			out[n] = v
			n++
		}
	}
	return out[:n], nil
}

func (r *VaccinationsRepo) LastBatches(ctx context.Context) ([]vaccinations.TypeBatch, error) {
	last := make(map[string]vaccinations.TypeBatch)
	for _, v := range r.all() {
		if !v.Given() || strings.TrimSpace(v.BatchNumber) == "" {
			continue
		}
		last[v.VaccinationTypeID] = vaccinations.TypeBatch{
			VaccinationTypeID: v.VaccinationTypeID,
			BatchNumber:       v.BatchNumber,
			Manufacturer:      v.Manufacturer,
		}
	}

	out := make([]vaccinations.TypeBatch, 0, len(last))
	for _, b := range last {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VaccinationTypeID < out[j].VaccinationTypeID })
	return out, nil
}

func (r *VaccinationsRepo) Manufacturers(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	for _, v := range r.all() {
		if m := strings.TrimSpace(v.Manufacturer); m != "" {
			seen[m] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// all devuelve una copia en orden de inserción.
func (r *VaccinationsRepo) all() []vaccinations.Vaccination {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]vaccinations.Vaccination, 0, len(r.byID))
	for _, v := range r.byID {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return r.seq[out[i].ID] < r.seq[out[j].ID] })
	return out
}
