package memory

import (
	"context"
	"time"

	"shelter-medical/internal/domain/animals"
	"shelter-medical/internal/domain/duewindows"
	"shelter-medical/internal/platform/civil"
)

// DueSource arma las filas de reportes cruzando los repos en memoria.
// Los registros de animales inexistentes se omiten (como un INNER JOIN).
type DueSource struct {
	animals      *AnimalsRepo
	vaccinations *VaccinationsRepo
	tests        *TestsRepo
	regimens     *RegimensRepo
}

func NewDueSource(a *AnimalsRepo, v *VaccinationsRepo, t *TestsRepo, r *RegimensRepo) *DueSource {
	return &DueSource{animals: a, vaccinations: v, tests: t, regimens: r}
}

var _ duewindows.Source = (*DueSource)(nil)

func (s *DueSource) animal(id string) (animals.Animal, bool) {
	return s.animals.lookup(id)
}

func (s *DueSource) PendingVaccinations(ctx context.Context, from, to time.Time) ([]duewindows.Record, error) {
	out := make([]duewindows.Record, 0)
	for _, v := range s.vaccinations.all() {
		if v.Given() || !civil.Between(v.RequiredDate, from, to) {
			continue
		}
		a, ok := s.animal(v.AnimalID)
		if !ok {
			continue
		}
		out = append(out, duewindows.Record{
			Kind:         duewindows.KindVaccination,
			ID:           v.ID,
			Animal:       a,
			TypeID:       v.VaccinationTypeID,
			RequiredDate: v.RequiredDate,
			Comments:     v.Comments,
		})
	}
	return out, nil
}

func (s *DueSource) PendingTests(ctx context.Context, from, to time.Time) ([]duewindows.Record, error) {
	out := make([]duewindows.Record, 0)
	for _, t := range s.tests.all() {
		if t.Performed() || !civil.Between(t.RequiredDate, from, to) {
			continue
		}
		a, ok := s.animal(t.AnimalID)
		if !ok {
			continue
		}
		out = append(out, duewindows.Record{
			Kind:         duewindows.KindTest,
			ID:           t.ID,
			Animal:       a,
			TypeID:       t.TestTypeID,
			RequiredDate: t.RequiredDate,
			Comments:     t.Comments,
		})
	}
	return out, nil
}

func (s *DueSource) PendingTreatments(ctx context.Context, from, to time.Time) ([]duewindows.Record, error) {
	out := make([]duewindows.Record, 0)
	for _, t := range s.regimens.pendingTreatments(civil.Day(from), civil.Day(to)) {
		a, ok := s.animal(t.AnimalID)
		if !ok {
			continue
		}
		out = append(out, duewindows.Record{
			Kind:            duewindows.KindTreatment,
			ID:              t.ID,
			Animal:          a,
			TypeID:          t.name,
			RegimenID:       t.RegimenID,
			TreatmentNumber: t.TreatmentNumber,
			TotalTreatments: t.TotalTreatments,
			RequiredDate:    t.RequiredDate,
			Comments:        t.Comments,
		})
	}
	return out, nil
}

// ExpiringVaccinations: aplicadas, con vencimiento en [from, to] y sin
// reemplazo del mismo tipo.
func (s *DueSource) ExpiringVaccinations(ctx context.Context, from, to time.Time) ([]duewindows.Record, error) {
	all := s.vaccinations.all()
	ix := duewindows.NewSupersessionIndex(all)

	out := make([]duewindows.Record, 0)
	for _, v := range all {
		if !v.Given() || v.ExpiryDate == nil || !civil.Between(*v.ExpiryDate, from, to) {
			continue
		}
		if ix.Superseded(v) {
			continue
		}
		a, ok := s.animal(v.AnimalID)
		if !ok {
			continue
		}
		out = append(out, duewindows.Record{
			Kind:         duewindows.KindVaccination,
			ID:           v.ID,
			Animal:       a,
			TypeID:       v.VaccinationTypeID,
			RequiredDate: v.RequiredDate,
			GivenDate:    v.GivenDate,
			ExpiryDate:   v.ExpiryDate,
			Comments:     v.Comments,
		})
	}
	return out, nil
}
