package labtests

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"shelter-medical/internal/platform/civil"
	"shelter-medical/internal/platform/metrics"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("test not found")
)

type Service struct {
	repo    Repository
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(repo Repository, m *metrics.Metrics) *Service {
	return &Service{repo: repo, metrics: m, now: time.Now}
}

type Input struct {
	AnimalID           string
	TestTypeID         string
	ResultID           string
	RequiredDate       time.Time
	PerformedDate      *time.Time
	AdministeringVetID string
	Cost               int64
	CostPaidDate       *time.Time
	Comments           string
}

func (in Input) validate() error {
	if strings.TrimSpace(in.AnimalID) == "" {
		return fmt.Errorf("%w: animal is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.TestTypeID) == "" {
		return fmt.Errorf("%w: test type is required", ErrInvalidInput)
	}
	if in.RequiredDate.IsZero() {
		return fmt.Errorf("%w: required date is required", ErrInvalidInput)
	}
	if in.Cost < 0 {
		return fmt.Errorf("%w: cost must be >= 0", ErrInvalidInput)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, actor string, in Input) (Test, error) {
	if err := in.validate(); err != nil {
		return Test{}, err
	}

	now := s.now()
	t := Test{
		ID:                 uuid.NewString(),
		AnimalID:           strings.TrimSpace(in.AnimalID),
		TestTypeID:         strings.TrimSpace(in.TestTypeID),
		ResultID:           strings.TrimSpace(in.ResultID),
		RequiredDate:       civil.Day(in.RequiredDate),
		PerformedDate:      civil.DayPtr(in.PerformedDate),
		AdministeringVetID: strings.TrimSpace(in.AdministeringVetID),
		Cost:               in.Cost,
		CostPaidDate:       civil.DayPtr(in.CostPaidDate),
		Comments:           strings.TrimSpace(in.Comments),
		CreatedBy:          actor,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return Test{}, err
	}
	if t.Performed() {
		s.metrics.IncTestPerformed()
	}
	return t, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (Test, error) {
	if err := in.validate(); err != nil {
		return Test{}, err
	}
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Test{}, err
	}
	wasPerformed := t.Performed()

	t.AnimalID = strings.TrimSpace(in.AnimalID)
	t.TestTypeID = strings.TrimSpace(in.TestTypeID)
	t.ResultID = strings.TrimSpace(in.ResultID)
	t.RequiredDate = civil.Day(in.RequiredDate)
	t.PerformedDate = civil.DayPtr(in.PerformedDate)
	t.AdministeringVetID = strings.TrimSpace(in.AdministeringVetID)
	t.Cost = in.Cost
	t.CostPaidDate = civil.DayPtr(in.CostPaidDate)
	t.Comments = strings.TrimSpace(in.Comments)
	t.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, t); err != nil {
		return Test{}, err
	}
	if !wasPerformed && t.Performed() {
		s.metrics.IncTestPerformed()
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) GetByID(ctx context.Context, id string) (Test, error) {
	if strings.TrimSpace(id) == "" {
		return Test{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByAnimal(ctx context.Context, animalID string, onlyPerformed bool, order SortOrder) ([]Test, error) {
	items, err := s.repo.ListByAnimal(ctx, animalID)
	if err != nil {
		return nil, err
	}
	out := make([]Test, 0, len(items))
	for _, t := range items {
		if onlyPerformed && !t.Performed() {
			continue
		}
		out = append(out, t)
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

// Complete carga fecha de realización, resultado y veterinario.
func (s *Service) Complete(ctx context.Context, id string, date time.Time, resultID, vetID string) (Test, error) {
	if date.IsZero() {
		return Test{}, fmt.Errorf("%w: performed date is required", ErrInvalidInput)
	}
	return s.perform(ctx, id, civil.Day(date), resultID, &vetID)
}

// MarkPerformedToday: fecha de hoy y resultado; no toca el veterinario.
func (s *Service) MarkPerformedToday(ctx context.Context, id, resultID string) (Test, error) {
	return s.perform(ctx, id, civil.Day(s.now()), resultID, nil)
}

func (s *Service) perform(ctx context.Context, id string, date time.Time, resultID string, vetID *string) (Test, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Test{}, err
	}
	wasPerformed := t.Performed()

	t.PerformedDate = &date
	t.ResultID = strings.TrimSpace(resultID)
	if vetID != nil {
		t.AdministeringVetID = strings.TrimSpace(*vetID)
	}
	t.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, t); err != nil {
		return Test{}, err
	}
	if !wasPerformed {
		s.metrics.IncTestPerformed()
	}
	return t, nil
}
