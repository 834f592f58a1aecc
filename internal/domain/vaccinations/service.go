package vaccinations

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"shelter-medical/internal/domain/animals"
	"shelter-medical/internal/platform/civil"
	"shelter-medical/internal/platform/logger"
	"shelter-medical/internal/platform/metrics"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("vaccination not found")
)

type AnimalSource interface {
	GetByID(ctx context.Context, id string) (animals.Animal, error)
}

type Deps struct {
	Animals AnimalSource
	Logger  logger.Logger
	Metrics *metrics.Metrics
}

type Service struct {
	repo    Repository
	animals AnimalSource
	log     logger.Logger
	metrics *metrics.Metrics

	now   func() time.Time
	newID func() string
}

func NewService(repo Repository, deps Deps) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:    repo,
		animals: deps.Animals,
		log:     log.With(map[string]any{"module": "vaccinations"}),
		metrics: deps.Metrics,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

type Input struct {
	AnimalID          string
	VaccinationTypeID string
	RequiredDate      time.Time
	GivenDate         *time.Time
	ExpiryDate        *time.Time

	AdministeringVetID string
	BatchNumber        string
	Manufacturer       string

	Cost         int64
	CostPaidDate *time.Time
	Comments     string
}

func (in Input) validate() error {
	if strings.TrimSpace(in.AnimalID) == "" {
		return fmt.Errorf("%w: animal is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.VaccinationTypeID) == "" {
		return fmt.Errorf("%w: vaccination type is required", ErrInvalidInput)
	}
	if in.RequiredDate.IsZero() {
		return fmt.Errorf("%w: required date is required", ErrInvalidInput)
	}
	if in.Cost < 0 {
		return fmt.Errorf("%w: cost must be >= 0", ErrInvalidInput)
	}
	return nil
}

func (in Input) apply(v *Vaccination) {
	v.AnimalID = strings.TrimSpace(in.AnimalID)
	v.VaccinationTypeID = strings.TrimSpace(in.VaccinationTypeID)
	v.RequiredDate = civil.Day(in.RequiredDate)
	v.GivenDate = civil.DayPtr(in.GivenDate)
	v.ExpiryDate = civil.DayPtr(in.ExpiryDate)
	v.AdministeringVetID = strings.TrimSpace(in.AdministeringVetID)
	v.BatchNumber = strings.TrimSpace(in.BatchNumber)
	v.Manufacturer = strings.TrimSpace(in.Manufacturer)
	v.Cost = in.Cost
	v.CostPaidDate = civil.DayPtr(in.CostPaidDate)
	v.Comments = strings.TrimSpace(in.Comments)
}

func (s *Service) Create(ctx context.Context, actor string, in Input) (Vaccination, error) {
	if err := in.validate(); err != nil {
		return Vaccination{}, err
	}
	if err := s.checkAnimal(ctx, in.AnimalID); err != nil {
		return Vaccination{}, err
	}

	now := s.now()
	v := Vaccination{
		ID:        s.newID(),
		CreatedBy: actor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(&v)

	if err := s.repo.Create(ctx, v); err != nil {
		return Vaccination{}, err
	}
	if v.Given() {
		s.metrics.IncVaccinationGiven()
	}
	return v, nil
}

func (s *Service) checkAnimal(ctx context.Context, id string) error {
	if s.animals == nil {
		return nil
	}
	if _, err := s.animals.GetByID(ctx, strings.TrimSpace(id)); err != nil {
		if errors.Is(err, animals.ErrNotFound) {
			return fmt.Errorf("%w: animal %s", ErrNotFound, id)
		}
		return err
	}
	return nil
}

// Update reemplaza todos los campos editables.
func (s *Service) Update(ctx context.Context, id string, in Input) (Vaccination, error) {
	if err := in.validate(); err != nil {
		return Vaccination{}, err
	}

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Vaccination{}, err
	}
	wasGiven := v.Given()

	in.apply(&v)
	v.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, v); err != nil {
		return Vaccination{}, err
	}
	if !wasGiven && v.Given() {
		s.metrics.IncVaccinationGiven()
	}
	return v, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) GetByID(ctx context.Context, id string) (Vaccination, error) {
	if strings.TrimSpace(id) == "" {
		return Vaccination{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByAnimal(ctx context.Context, animalID string, onlyGiven bool, order SortOrder) ([]Vaccination, error) {
	items, err := s.repo.ListByAnimal(ctx, animalID)
	if err != nil {
		return nil, err
	}

	out := items[:0]
	for _, v := range items {
		if onlyGiven && !v.Given() {
			continue
		}
		out = append(out, v)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].RequiredDate, out[j].RequiredDate
		if a.Equal(b) {
			return out[i].ID < out[j].ID
		}
		if order == SortRequiredDesc {
			return a.After(b)
		}
		return a.Before(b)
	})
	return out, nil
}

type CompleteInput struct {
	Date         time.Time
	ExpiryDate   *time.Time
	VetID        string
	BatchNumber  string
	Manufacturer string
}

// Complete registra la aplicación con fecha, vencimiento, veterinario y lote.
// Completar un registro ya aplicado sobrescribe esos datos.
func (s *Service) Complete(ctx context.Context, id string, in CompleteInput) (Vaccination, error) {
	if in.Date.IsZero() {
		return Vaccination{}, fmt.Errorf("%w: given date is required", ErrInvalidInput)
	}

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Vaccination{}, err
	}
	wasGiven := v.Given()

	v.GivenDate = civil.DayPtr(&in.Date)
	v.ExpiryDate = civil.DayPtr(in.ExpiryDate)
	v.AdministeringVetID = strings.TrimSpace(in.VetID)
	v.BatchNumber = strings.TrimSpace(in.BatchNumber)
	v.Manufacturer = strings.TrimSpace(in.Manufacturer)
	v.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, v); err != nil {
		return Vaccination{}, err
	}
	if !wasGiven {
		s.metrics.IncVaccinationGiven()
	}
	s.log.Info("vaccination completed", map[string]any{
		"vaccination_id": v.ID,
		"animal_id":      v.AnimalID,
		"given_date":     v.GivenDate.Format(civil.Layout),
	})
	return v, nil
}

// MarkGivenToday fija la fecha de aplicación en hoy sin tocar el resto.
func (s *Service) MarkGivenToday(ctx context.Context, id string) (Vaccination, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Vaccination{}, err
	}
	wasGiven := v.Given()

	today := civil.Day(s.now())
	v.GivenDate = &today
	v.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, v); err != nil {
		return Vaccination{}, err
	}
	if !wasGiven {
		s.metrics.IncVaccinationGiven()
	}
	return v, nil
}

func (s *Service) UpdateRequired(ctx context.Context, id string, required time.Time) (Vaccination, error) {
	if required.IsZero() {
		return Vaccination{}, fmt.Errorf("%w: required date is required", ErrInvalidInput)
	}
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Vaccination{}, err
	}
	v.RequiredDate = civil.Day(required)
	v.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, v); err != nil {
		return Vaccination{}, err
	}
	return v, nil
}

// Reschedule cierra el registro (hoy, si seguía pendiente) y crea otro para
// el mismo animal y tipo en newDate, con el mismo costo y sin pago.
func (s *Service) Reschedule(ctx context.Context, actor, id string, newDate time.Time, comments string) (Vaccination, error) {
	if newDate.IsZero() {
		return Vaccination{}, fmt.Errorf("%w: new date is required", ErrInvalidInput)
	}

	old, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Vaccination{}, err
	}
	if !old.Given() {
		if _, err := s.MarkGivenToday(ctx, id); err != nil {
			return Vaccination{}, err
		}
	}

	now := s.now()
	next := Vaccination{
		ID:                s.newID(),
		AnimalID:          old.AnimalID,
		VaccinationTypeID: old.VaccinationTypeID,
		RequiredDate:      civil.Day(newDate),
		Cost:              old.Cost,
		Comments:          strings.TrimSpace(comments),
		CreatedBy:         actor,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Create(ctx, next); err != nil {
		return Vaccination{}, err
	}

	s.log.Info("vaccination rescheduled", map[string]any{
		"from_id":       old.ID,
		"to_id":         next.ID,
		"required_date": next.RequiredDate.Format(civil.Layout),
	})
	return next, nil
}

// IsVaccinated: al menos una aplicada y ninguna pendiente con fecha
// requerida anterior a hoy.
func (s *Service) IsVaccinated(ctx context.Context, animalID string) (bool, error) {
	items, err := s.repo.ListByAnimal(ctx, animalID)
	if err != nil {
		return false, err
	}
	today := civil.Day(s.now())
	given := 0
	for _, v := range items {
		if v.Given() {
			given++
			continue
		}
		if v.RequiredDate.Before(today) {
			return false, nil
		}
	}
	return given > 0, nil
}

func (s *Service) LastBatches(ctx context.Context) ([]TypeBatch, error) {
	return s.repo.LastBatches(ctx)
}

func (s *Service) Manufacturers(ctx context.Context) ([]string, error) {
	return s.repo.Manufacturers(ctx)
}
