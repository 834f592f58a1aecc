package profiles

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"shelter-medical/internal/domain/schedule"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("profile not found")
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

type Input struct {
	ProfileName      string
	TreatmentName    string
	Dosage           string
	Cost             int64
	Rule             schedule.Rule
	SingleOccurrence bool
	Comments         string
}

func (in Input) build() (Profile, error) {
	if strings.TrimSpace(in.ProfileName) == "" {
		return Profile{}, fmt.Errorf("%w: profile name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.TreatmentName) == "" {
		return Profile{}, fmt.Errorf("%w: treatment name is required", ErrInvalidInput)
	}
	if in.Cost < 0 {
		return Profile{}, fmt.Errorf("%w: cost must be >= 0", ErrInvalidInput)
	}

	rule := in.Rule.Normalize(in.SingleOccurrence)
	if err := rule.Validate(); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return Profile{
		ProfileName:   strings.TrimSpace(in.ProfileName),
		TreatmentName: strings.TrimSpace(in.TreatmentName),
		Dosage:        strings.TrimSpace(in.Dosage),
		Cost:          in.Cost,
		Rule:          rule,
		Comments:      strings.TrimSpace(in.Comments),
	}, nil
}

func (s *Service) Create(ctx context.Context, actor string, in Input) (Profile, error) {
	p, err := in.build()
	if err != nil {
		return Profile{}, err
	}

	now := s.now()
	p.ID = uuid.NewString()
	p.CreatedBy = actor
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.repo.Create(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Update reemplaza todos los campos editables (mismas reglas que Create).
func (s *Service) Update(ctx context.Context, id string, in Input) (Profile, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}

	p, err := in.build()
	if err != nil {
		return Profile{}, err
	}
	p.ID = current.ID
	p.CreatedBy = current.CreatedBy
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) GetByID(ctx context.Context, id string) (Profile, error) {
	if strings.TrimSpace(id) == "" {
		return Profile{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, order SortOrder) ([]Profile, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := strings.ToLower(items[i].ProfileName), strings.ToLower(items[j].ProfileName)
		if a == b {
			return items[i].ID < items[j].ID
		}
		if order == SortNameDesc {
			return a > b
		}
		return a < b
	})
	return items, nil
}
