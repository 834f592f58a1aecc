package regimens

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"shelter-medical/internal/domain/animals"
	"shelter-medical/internal/domain/profiles"
	"shelter-medical/internal/domain/schedule"
	"shelter-medical/internal/platform/civil"
	"shelter-medical/internal/platform/logger"
	"shelter-medical/internal/platform/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrAlreadyGiven = errors.New("treatment already given")
)

var tracer = otel.Tracer("shelter-medical/regimens")

// ProfileSource resuelve perfiles para precargar un régimen (profiles.Service).
type ProfileSource interface {
	GetByID(ctx context.Context, id string) (profiles.Profile, error)
}

// AnimalSource valida que el animal exista (animals.Service).
type AnimalSource interface {
	GetByID(ctx context.Context, id string) (animals.Animal, error)
}

// Deps son colaboradores opcionales; cualquiera puede ser nil.
type Deps struct {
	Profiles ProfileSource
	Animals  AnimalSource
	Logger   logger.Logger
	Metrics  *metrics.Metrics
}

type Service struct {
	repo     Repository
	profiles ProfileSource
	animals  AnimalSource
	log      logger.Logger
	metrics  *metrics.Metrics

	now   func() time.Time
	newID func() string
}

func NewService(repo Repository, deps Deps) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		profiles: deps.Profiles,
		animals:  deps.Animals,
		log:      log.With(map[string]any{"module": "regimens"}),
		metrics:  deps.Metrics,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

type CreateInput struct {
	AnimalID  string
	ProfileID string

	TreatmentName string
	Dosage        string
	StartDate     time.Time
	// Status "" = active. completed/held generan igual el primer lote.
	Status Status

	Cost         int64
	CostPaidDate *time.Time

	Rule             schedule.Rule
	SingleOccurrence bool

	Comments string
}

func (s *Service) CreateRegimen(ctx context.Context, actor string, in CreateInput) (_ Regimen, err error) {
	ctx, span := tracer.Start(ctx, "regimens.CreateRegimen")
	defer func() { endSpan(span, err) }()

	in, err = s.applyProfile(ctx, in)
	if err != nil {
		return Regimen{}, err
	}

	r, err := s.build(actor, in)
	if err != nil {
		return Regimen{}, err
	}

	if s.animals != nil {
		if _, err := s.animals.GetByID(ctx, r.AnimalID); err != nil {
			if errors.Is(err, animals.ErrNotFound) {
				return Regimen{}, fmt.Errorf("%w: animal %s", ErrNotFound, r.AnimalID)
			}
			return Regimen{}, err
		}
	}

	span.SetAttributes(attribute.String("regimen.id", r.ID), attribute.String("animal.id", r.AnimalID))

	err = s.repo.WithRegimenLock(ctx, r.ID, func(ctx context.Context, st Store) error {
		if err := st.CreateRegimen(ctx, r); err != nil {
			return err
		}
		if _, err := s.advance(ctx, st, r.ID); err != nil {
			return err
		}

		switch in.Status {
		case StatusCompleted:
			return s.completeAll(ctx, st, r, actor)
		case StatusHeld:
			return st.UpdateRegimenStatus(ctx, r.ID, StatusHeld)
		}
		return nil
	})
	if err != nil {
		return Regimen{}, err
	}

	s.metrics.IncRegimenCreated()
	s.log.Info("regimen created", map[string]any{
		"regimen_id": r.ID,
		"animal_id":  r.AnimalID,
		"status":     string(in.Status),
	})

	return s.repo.ReadRegimen(ctx, r.ID)
}

func (s *Service) applyProfile(ctx context.Context, in CreateInput) (CreateInput, error) {
	if strings.TrimSpace(in.ProfileID) == "" || s.profiles == nil {
		return in, nil
	}

	p, err := s.profiles.GetByID(ctx, in.ProfileID)
	if err != nil {
		if errors.Is(err, profiles.ErrNotFound) {
			return in, fmt.Errorf("%w: profile %s", ErrNotFound, in.ProfileID)
		}
		return in, err
	}

	if strings.TrimSpace(in.TreatmentName) == "" {
		in.TreatmentName = p.TreatmentName
	}
	if strings.TrimSpace(in.Dosage) == "" {
		in.Dosage = p.Dosage
	}
	if in.Cost == 0 {
		in.Cost = p.Cost
	}
	if strings.TrimSpace(in.Comments) == "" {
		in.Comments = p.Comments
	}
	if in.Rule == (schedule.Rule{}) && !in.SingleOccurrence {
		in.Rule = p.Rule
	}
	return in, nil
}

func (s *Service) build(actor string, in CreateInput) (Regimen, error) {
	if strings.TrimSpace(in.AnimalID) == "" {
		return Regimen{}, fmt.Errorf("%w: animal is required", ErrInvalidInput)
	}
	if in.StartDate.IsZero() {
		return Regimen{}, fmt.Errorf("%w: start date is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.TreatmentName) == "" {
		return Regimen{}, fmt.Errorf("%w: treatment name is required", ErrInvalidInput)
	}
	if in.Status != "" && !in.Status.Valid() {
		return Regimen{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, in.Status)
	}
	if in.Cost < 0 {
		return Regimen{}, fmt.Errorf("%w: cost must be >= 0", ErrInvalidInput)
	}

	rule := in.Rule.Normalize(in.SingleOccurrence)
	if err := rule.Validate(); err != nil {
		return Regimen{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.now()
	r := Regimen{
		ID:            s.newID(),
		AnimalID:      strings.TrimSpace(in.AnimalID),
		ProfileID:     strings.TrimSpace(in.ProfileID),
		TreatmentName: strings.TrimSpace(in.TreatmentName),
		Dosage:        strings.TrimSpace(in.Dosage),
		StartDate:     civil.Day(in.StartDate),
		Status:        StatusActive,
		Cost:          in.Cost,
		CostPaidDate:  civil.DayPtr(in.CostPaidDate),
		Rule:          rule,
		Comments:      strings.TrimSpace(in.Comments),
		CreatedBy:     actor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.TreatmentsGiven, r.TreatmentsRemaining = Recompute(r, nil)
	return r, nil
}

// completeAll marca como aplicado todo lo pendiente en la fecha de inicio y
// cierra el régimen (alta directa como "completed").
func (s *Service) completeAll(ctx context.Context, st Store, r Regimen, actor string) error {
	ts, err := st.ReadTreatments(ctx, r.ID)
	if err != nil {
		return err
	}
	for i, t := range ts {
		if t.Given() {
			continue
		}
		g := Given{Date: r.StartDate, By: actor}
		if err := st.MarkTreatmentGiven(ctx, t.ID, g); err != nil {
			return err
		}
		d := g.Date
		ts[i].GivenDate = &d
		ts[i].GivenBy = actor
	}
	if err := st.UpdateRegimenStatus(ctx, r.ID, StatusCompleted); err != nil {
		return err
	}
	given, remaining := Recompute(r, ts)
	return st.UpdateRegimenCounters(ctx, r.ID, given, remaining)
}

// advance corre la transición sobre el Store recibido. Debe llamarse con el
// lock del régimen tomado. Un régimen inexistente es un no-op.
func (s *Service) advance(ctx context.Context, st Store, regimenID string) (Decision, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveAdvance(time.Since(start)) }()

	r, err := st.ReadRegimen(ctx, regimenID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Decision{Reason: "regimen not found"}, nil
		}
		return Decision{}, err
	}

	ts, err := st.ReadTreatments(ctx, regimenID)
	if err != nil {
		return Decision{}, err
	}

	d := Advance(r, ts)
	log := s.log.With(map[string]any{"regimen_id": regimenID, "action": d.Action.String()})

	switch d.Action {
	case ActionComplete:
		if err := st.UpdateRegimenStatus(ctx, regimenID, StatusCompleted); err != nil {
			return Decision{}, err
		}
		s.metrics.IncRegimenCompleted()
		log.Info("regimen completed", map[string]any{"reason": d.Reason})

	case ActionGenerate:
		batch := NewBatch(r, d.RequiredDate, s.now(), s.newID)
		if err := st.CreateTreatmentBatch(ctx, batch); err != nil {
			return Decision{}, err
		}
		ts = append(ts, batch...)
		s.metrics.IncBatchGenerated()
		log.Info("treatment batch generated", map[string]any{
			"required_date": d.RequiredDate.Format(civil.Layout),
			"count":         len(batch),
			"reason":        d.Reason,
		})

	default:
		log.Debug("regimen advance skipped", map[string]any{"reason": d.Reason})
	}

	given, remaining := Recompute(r, ts)
	if err := st.UpdateRegimenCounters(ctx, regimenID, given, remaining); err != nil {
		return Decision{}, err
	}
	return d, nil
}

// Advance reevalúa un régimen bajo lock. Si el régimen no existe no hace nada.
func (s *Service) Advance(ctx context.Context, regimenID string) (d Decision, err error) {
	ctx, span := tracer.Start(ctx, "regimens.Advance", trace.WithAttributes(attribute.String("regimen.id", regimenID)))
	defer func() { endSpan(span, err) }()

	err = s.repo.WithRegimenLock(ctx, regimenID, func(ctx context.Context, st Store) error {
		var err error
		d, err = s.advance(ctx, st, regimenID)
		return err
	})
	return d, err
}

// UpdateInput: punteros nil = no tocar.
type UpdateInput struct {
	TreatmentName     *string
	Dosage            *string
	StartDate         *time.Time
	Status            *Status
	Cost              *int64
	CostPaidDate      *time.Time
	ClearCostPaidDate bool
	Comments          *string
}

// UpdateRegimen edita datos del régimen (no la regla de tiempo) y vuelve a
// evaluar el ciclo de vida. Reactivar un régimen en pausa no genera las dosis
// perdidas: a lo sumo crea el lote siguiente.
func (s *Service) UpdateRegimen(ctx context.Context, id string, in UpdateInput) (out Regimen, err error) {
	ctx, span := tracer.Start(ctx, "regimens.UpdateRegimen", trace.WithAttributes(attribute.String("regimen.id", id)))
	defer func() { endSpan(span, err) }()

	if in.TreatmentName != nil && strings.TrimSpace(*in.TreatmentName) == "" {
		return Regimen{}, fmt.Errorf("%w: treatment name is required", ErrInvalidInput)
	}
	if in.StartDate != nil && in.StartDate.IsZero() {
		return Regimen{}, fmt.Errorf("%w: start date is required", ErrInvalidInput)
	}
	if in.Status != nil && !in.Status.Valid() {
		return Regimen{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *in.Status)
	}
	if in.Cost != nil && *in.Cost < 0 {
		return Regimen{}, fmt.Errorf("%w: cost must be >= 0", ErrInvalidInput)
	}

	err = s.repo.WithRegimenLock(ctx, id, func(ctx context.Context, st Store) error {
		r, err := st.ReadRegimen(ctx, id)
		if err != nil {
			return err
		}

		if in.TreatmentName != nil {
			r.TreatmentName = strings.TrimSpace(*in.TreatmentName)
		}
		if in.Dosage != nil {
			r.Dosage = strings.TrimSpace(*in.Dosage)
		}
		if in.StartDate != nil {
			r.StartDate = civil.Day(*in.StartDate)
		}
		if in.Status != nil {
			r.Status = *in.Status
		}
		if in.Cost != nil {
			r.Cost = *in.Cost
		}
		if in.ClearCostPaidDate {
			r.CostPaidDate = nil
		} else if in.CostPaidDate != nil {
			r.CostPaidDate = civil.DayPtr(in.CostPaidDate)
		}
		if in.Comments != nil {
			r.Comments = strings.TrimSpace(*in.Comments)
		}
		r.UpdatedAt = s.now()

		if err := st.UpdateRegimen(ctx, r); err != nil {
			return err
		}
		_, err = s.advance(ctx, st, id)
		return err
	})
	if err != nil {
		return Regimen{}, err
	}
	return s.repo.ReadRegimen(ctx, id)
}

// DeleteRegimen borra el régimen con todo su historial.
func (s *Service) DeleteRegimen(ctx context.Context, id string) (err error) {
	ctx, span := tracer.Start(ctx, "regimens.DeleteRegimen", trace.WithAttributes(attribute.String("regimen.id", id)))
	defer func() { endSpan(span, err) }()

	return s.repo.WithRegimenLock(ctx, id, func(ctx context.Context, st Store) error {
		return st.DeleteRegimen(ctx, id)
	})
}

func (s *Service) GetRegimen(ctx context.Context, id string) (Regimen, error) {
	if strings.TrimSpace(id) == "" {
		return Regimen{}, ErrNotFound
	}
	return s.repo.ReadRegimen(ctx, id)
}

// ListByAnimal devuelve los regímenes del animal con próxima dosis y última
// aplicación derivadas del historial.
func (s *Service) ListByAnimal(ctx context.Context, animalID string, f ListFilter) ([]Summary, error) {
	regs, err := s.repo.ListRegimensByAnimal(ctx, animalID)
	if err != nil {
		return nil, err
	}
	ts, err := s.repo.ListTreatmentsByAnimal(ctx, animalID)
	if err != nil {
		return nil, err
	}

	byRegimen := make(map[string][]Treatment, len(regs))
	for _, t := range ts {
		byRegimen[t.RegimenID] = append(byRegimen[t.RegimenID], t)
	}

	out := make([]Summary, 0, len(regs))
	for _, r := range regs {
		if f.OnlyCompleted && r.Status != StatusCompleted {
			continue
		}
		sum := Summary{Regimen: r}
		for _, t := range byRegimen[r.ID] {
			if t.Given() {
				if sum.LastTreatmentGiven == nil || t.GivenDate.After(*sum.LastTreatmentGiven) {
					d := *t.GivenDate
					sum.LastTreatmentGiven = &d
				}
				continue
			}
			if sum.NextTreatmentDue == nil || t.RequiredDate.After(*sum.NextTreatmentDue) {
				d := t.RequiredDate
				sum.NextTreatmentDue = &d
			}
		}
		out = append(out, sum)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].StartDate, out[j].StartDate
		if a.Equal(b) {
			return out[i].ID < out[j].ID
		}
		if f.Sort == SortStartAsc {
			return a.Before(b)
		}
		return a.After(b)
	})
	return out, nil
}

func (s *Service) ListTreatments(ctx context.Context, f TreatmentFilter) ([]Treatment, error) {
	var (
		ts  []Treatment
		err error
	)
	switch {
	case strings.TrimSpace(f.RegimenID) != "":
		if _, err := s.repo.ReadRegimen(ctx, f.RegimenID); err != nil {
			return nil, err
		}
		ts, err = s.repo.ReadTreatments(ctx, f.RegimenID)
	case strings.TrimSpace(f.AnimalID) != "":
		ts, err = s.repo.ListTreatmentsByAnimal(ctx, f.AnimalID)
	default:
		return nil, fmt.Errorf("%w: animal or regimen is required", ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}

	sortTreatments(ts, f.Sort)
	return ts, nil
}

func sortTreatments(ts []Treatment, order TreatmentSort) {
	sort.SliceStable(ts, func(i, j int) bool {
		a, b := ts[i], ts[j]
		switch order {
		case SortGivenDesc:
			if a.Given() != b.Given() {
				return a.Given()
			}
			if a.Given() && !a.GivenDate.Equal(*b.GivenDate) {
				return a.GivenDate.After(*b.GivenDate)
			}
		case SortRequiredDesc:
			if !a.RequiredDate.Equal(b.RequiredDate) {
				return a.RequiredDate.After(b.RequiredDate)
			}
		default:
			if !a.RequiredDate.Equal(b.RequiredDate) {
				return a.RequiredDate.Before(b.RequiredDate)
			}
		}
		if a.TreatmentNumber != b.TreatmentNumber {
			return a.TreatmentNumber < b.TreatmentNumber
		}
		return a.ID < b.ID
	})
}

type MarkGivenInput struct {
	Date     time.Time
	By       string // vacío = actor
	VetID    string
	Comments string
}

// MarkGiven registra la aplicación de un tratamiento y avanza el régimen.
// Un tratamiento ya aplicado devuelve ErrAlreadyGiven.
func (s *Service) MarkGiven(ctx context.Context, treatmentID, actor string, in MarkGivenInput) (out Treatment, err error) {
	ctx, span := tracer.Start(ctx, "regimens.MarkGiven", trace.WithAttributes(attribute.String("treatment.id", treatmentID)))
	defer func() { endSpan(span, err) }()

	if in.Date.IsZero() {
		return Treatment{}, fmt.Errorf("%w: given date is required", ErrInvalidInput)
	}
	by := strings.TrimSpace(in.By)
	if by == "" {
		by = actor
	}

	t, err := s.repo.ReadTreatment(ctx, treatmentID)
	if err != nil {
		return Treatment{}, err
	}

	err = s.repo.WithRegimenLock(ctx, t.RegimenID, func(ctx context.Context, st Store) error {
		cur, err := st.ReadTreatment(ctx, treatmentID)
		if err != nil {
			return err
		}
		if cur.Given() {
			return fmt.Errorf("%w: %s", ErrAlreadyGiven, cur.CompositeID())
		}

		g := Given{
			Date:     civil.Day(in.Date),
			By:       by,
			VetID:    strings.TrimSpace(in.VetID),
			Comments: strings.TrimSpace(in.Comments),
		}
		if err := st.MarkTreatmentGiven(ctx, treatmentID, g); err != nil {
			return err
		}
		if _, err := s.advance(ctx, st, cur.RegimenID); err != nil {
			return err
		}

		out, err = st.ReadTreatment(ctx, treatmentID)
		return err
	})
	if err != nil {
		return Treatment{}, err
	}

	s.metrics.IncTreatmentGiven()
	return out, nil
}

// MarkGivenToday es el atajo "dar hoy" con el actor como responsable.
func (s *Service) MarkGivenToday(ctx context.Context, treatmentID, actor string) (Treatment, error) {
	return s.MarkGiven(ctx, treatmentID, actor, MarkGivenInput{
		Date: civil.Day(s.now()),
		By:   actor,
	})
}

func (s *Service) UpdateTreatmentRequired(ctx context.Context, treatmentID string, required time.Time) (out Treatment, err error) {
	ctx, span := tracer.Start(ctx, "regimens.UpdateTreatmentRequired", trace.WithAttributes(attribute.String("treatment.id", treatmentID)))
	defer func() { endSpan(span, err) }()

	if required.IsZero() {
		return Treatment{}, fmt.Errorf("%w: required date is required", ErrInvalidInput)
	}

	t, err := s.repo.ReadTreatment(ctx, treatmentID)
	if err != nil {
		return Treatment{}, err
	}

	err = s.repo.WithRegimenLock(ctx, t.RegimenID, func(ctx context.Context, st Store) error {
		if err := st.UpdateTreatmentRequired(ctx, treatmentID, civil.Day(required)); err != nil {
			return err
		}
		out, err = st.ReadTreatment(ctx, treatmentID)
		return err
	})
	if err != nil {
		return Treatment{}, err
	}
	return out, nil
}

// DeleteTreatment borra un tratamiento. Si era el último, borra también el
// régimen (regimenDeleted=true); si no, recalcula contadores y avanza.
func (s *Service) DeleteTreatment(ctx context.Context, treatmentID string) (regimenDeleted bool, err error) {
	ctx, span := tracer.Start(ctx, "regimens.DeleteTreatment", trace.WithAttributes(attribute.String("treatment.id", treatmentID)))
	defer func() { endSpan(span, err) }()

	t, err := s.repo.ReadTreatment(ctx, treatmentID)
	if err != nil {
		return false, err
	}

	err = s.repo.WithRegimenLock(ctx, t.RegimenID, func(ctx context.Context, st Store) error {
		if err := st.DeleteTreatment(ctx, treatmentID); err != nil {
			return err
		}

		rest, err := st.ReadTreatments(ctx, t.RegimenID)
		if err != nil {
			return err
		}
		if len(rest) == 0 {
			regimenDeleted = true
			return st.DeleteRegimen(ctx, t.RegimenID)
		}

		_, err = s.advance(ctx, st, t.RegimenID)
		return err
	})
	if err != nil {
		return false, err
	}

	if regimenDeleted {
		s.log.Info("regimen deleted with its last treatment", map[string]any{"regimen_id": t.RegimenID})
	}
	return regimenDeleted, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
