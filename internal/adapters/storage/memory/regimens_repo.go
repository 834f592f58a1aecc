package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"shelter-medical/internal/domain/regimens"
)

// RegimensRepo guarda regímenes y tratamientos en memoria. WithRegimenLock
// serializa por régimen y deshace los cambios si fn devuelve error.
type RegimensRepo struct {
	mu         sync.RWMutex
	regimens   map[string]regimens.Regimen
	treatments map[string]regimens.Treatment

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewRegimensRepo() *RegimensRepo {
	return &RegimensRepo{
		regimens:   make(map[string]regimens.Regimen),
		treatments: make(map[string]regimens.Treatment),
		locks:      make(map[string]*sync.Mutex),
	}
}

var _ regimens.Repository = (*RegimensRepo)(nil)

func (r *RegimensRepo) lockFor(id string) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()

	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	return l
}

type regimenSnapshot struct {
	regimen    regimens.Regimen
	exists     bool
	treatments []regimens.Treatment
}

func (r *RegimensRepo) snapshot(id string) regimenSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.regimens[id]
	s := regimenSnapshot{regimen: reg, exists: ok}
	for _, t := range r.treatments {
		if t.RegimenID == id {
			s.treatments = append(s.treatments, t)
		}
	}
	return s
}

func (r *RegimensRepo) restore(id string, s regimenSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.exists {
		r.regimens[id] = s.regimen
	} else {
		delete(r.regimens, id)
	}
	for tid, t := range r.treatments {
		if t.RegimenID == id {
			delete(r.treatments, tid)
		}
	}
	for _, t := range s.treatments {
		r.treatments[t.ID] = t
	}
}

func (r *RegimensRepo) WithRegimenLock(ctx context.Context, regimenID string, fn func(ctx context.Context, st regimens.Store) error) error {
	l := r.lockFor(regimenID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snap := r.snapshot(regimenID)
	if err := fn(ctx, r); err != nil {
		r.restore(regimenID, snap)
		return err
	}
	return nil
}

func (r *RegimensRepo) CreateRegimen(ctx context.Context, reg regimens.Regimen) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(reg.ID) == "" {
		return errors.New("regimen id required")
	}
	if _, exists := r.regimens[reg.ID]; exists {
		return errors.New("regimen already exists")
	}
	r.regimens[reg.ID] = reg
	return nil
}

func (r *RegimensRepo) ReadRegimen(ctx context.Context, id string) (regimens.Regimen, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.regimens[id]
	if !ok {
		return regimens.Regimen{}, regimens.ErrNotFound
	}
	return reg, nil
}

func (r *RegimensRepo) UpdateRegimen(ctx context.Context, reg regimens.Regimen) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.regimens[reg.ID]; !ok {
		return regimens.ErrNotFound
	}
	r.regimens[reg.ID] = reg
	return nil
}

func (r *RegimensRepo) DeleteRegimen(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.regimens[id]; !ok {
		return regimens.ErrNotFound
	}
	delete(r.regimens, id)
	for tid, t := range r.treatments {
		if t.RegimenID == id {
			delete(r.treatments, tid)
		}
	}
	return nil
}

func (r *RegimensRepo) ListRegimensByAnimal(ctx context.Context, animalID string) ([]regimens.Regimen, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]regimens.Regimen, 0)
	for _, reg := range r.regimens {
		if reg.AnimalID == animalID {
			out = append(out, reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *RegimensRepo) UpdateRegimenStatus(ctx context.Context, id string, status regimens.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.regimens[id]
	if !ok {
		return regimens.ErrNotFound
	}
	reg.Status = status
	r.regimens[id] = reg
	return nil
}

func (r *RegimensRepo) UpdateRegimenCounters(ctx context.Context, id string, given, remaining int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.regimens[id]
	if !ok {
		return regimens.ErrNotFound
	}
	reg.TreatmentsGiven = given
	reg.TreatmentsRemaining = remaining
	r.regimens[id] = reg
	return nil
}

func (r *RegimensRepo) ReadTreatment(ctx context.Context, id string) (regimens.Treatment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.treatments[id]
	if !ok {
		return regimens.Treatment{}, regimens.ErrNotFound
	}
	return t, nil
}

func (r *RegimensRepo) ReadTreatments(ctx context.Context, regimenID string) ([]regimens.Treatment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filterTreatments(func(t regimens.Treatment) bool { return t.RegimenID == regimenID }), nil
}

func (r *RegimensRepo) ListTreatmentsByAnimal(ctx context.Context, animalID string) ([]regimens.Treatment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filterTreatments(func(t regimens.Treatment) bool { return t.AnimalID == animalID }), nil
}

// filterTreatments requiere r.mu tomado. Orden: fecha requerida, número.
func (r *RegimensRepo) filterTreatments(keep func(regimens.Treatment) bool) []regimens.Treatment {
	out := make([]regimens.Treatment, 0)
	for _, t := range r.treatments {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.RequiredDate.Equal(b.RequiredDate) {
			return a.RequiredDate.Before(b.RequiredDate)
		}
		if a.TreatmentNumber != b.TreatmentNumber {
			return a.TreatmentNumber < b.TreatmentNumber
		}
		return a.ID < b.ID
	})
	return out
}

func (r *RegimensRepo) CreateTreatmentBatch(ctx context.Context, rows []regimens.Treatment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range rows {
		if _, ok := r.regimens[t.RegimenID]; !ok {
			return regimens.ErrNotFound
		}
		if _, exists := r.treatments[t.ID]; exists {
			return errors.New("treatment already exists")
		}
	}
	for _, t := range rows {
		r.treatments[t.ID] = t
	}
	return nil
}

func (r *RegimensRepo) MarkTreatmentGiven(ctx context.Context, id string, g regimens.Given) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.treatments[id]
	if !ok {
		return regimens.ErrNotFound
	}
	d := g.Date
	t.GivenDate = &d
	t.GivenBy = g.By
	t.AdministeringVetID = g.VetID
	if g.Comments != "" {
		t.Comments = g.Comments
	}
	r.treatments[id] = t
	return nil
}

func (r *RegimensRepo) UpdateTreatmentRequired(ctx context.Context, id string, required time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.treatments[id]
	if !ok {
		return regimens.ErrNotFound
	}
	t.RequiredDate = required
	r.treatments[id] = t
	return nil
}

func (r *RegimensRepo) DeleteTreatment(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.treatments[id]; !ok {
		return regimens.ErrNotFound
	}
	delete(r.treatments, id)
	return nil
}

// pendingTreatments: sin aplicar, de regímenes activos, requeridos en [from, to].
func (r *RegimensRepo) pendingTreatments(from, to time.Time) []pendingTreatment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pendingTreatment, 0)
	for _, t := range r.treatments {
		if t.Given() || t.RequiredDate.Before(from) || t.RequiredDate.After(to) {
			continue
		}
		reg, ok := r.regimens[t.RegimenID]
		if !ok || reg.Status != regimens.StatusActive {
			continue
		}
		out = append(out, pendingTreatment{Treatment: t, name: reg.TreatmentName})
	}
	return out
}

type pendingTreatment struct {
	regimens.Treatment
	name string
}
