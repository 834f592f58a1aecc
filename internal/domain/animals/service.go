package animals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shelter-medical/internal/platform/civil"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("animal not found")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name        string
	ShelterCode string
	Species     Species
	Archived    bool
	Fostered    bool
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Animal, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Animal{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Species == "" {
		in.Species = SpeciesOther
	}
	if !in.Species.Valid() {
		return Animal{}, fmt.Errorf("%w: unknown species %q", ErrInvalidInput, in.Species)
	}

	now := s.now()
	a := Animal{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		ShelterCode: strings.TrimSpace(in.ShelterCode),
		Species:     in.Species,
		Archived:    in.Archived,
		Fostered:    in.Fostered,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Animal{}, err
	}
	return a, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Animal, error) {
	if strings.TrimSpace(id) == "" {
		return Animal{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Animal, error) {
	return s.repo.List(ctx)
}

// UpdateInput: punteros nil = no tocar.
type UpdateInput struct {
	Name        *string
	ShelterCode *string
	Species     *Species
	Archived    *bool
	Fostered    *bool
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Animal, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return Animal{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Animal{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		a.Name = name
	}
	if in.ShelterCode != nil {
		a.ShelterCode = strings.TrimSpace(*in.ShelterCode)
	}
	if in.Species != nil {
		if !in.Species.Valid() {
			return Animal{}, fmt.Errorf("%w: unknown species %q", ErrInvalidInput, *in.Species)
		}
		a.Species = *in.Species
	}
	if in.Archived != nil {
		a.Archived = *in.Archived
	}
	if in.Fostered != nil {
		a.Fostered = *in.Fostered
	}
	a.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, a); err != nil {
		return Animal{}, err
	}
	return a, nil
}

// MarkDeceased registra la fecha de fallecimiento. Con date nil usa hoy.
func (s *Service) MarkDeceased(ctx context.Context, id string, date *time.Time) (Animal, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return Animal{}, err
	}

	d := civil.Day(s.now())
	if date != nil {
		d = civil.Day(*date)
	}
	a.DeceasedDate = &d
	a.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, a); err != nil {
		return Animal{}, err
	}
	return a, nil
}
