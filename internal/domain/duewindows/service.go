package duewindows

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"shelter-medical/internal/platform/civil"
	"shelter-medical/internal/platform/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrInvalidInput = errors.New("invalid input")

var tracer = otel.Tracer("shelter-medical/duewindows")

// Source entrega las filas candidatas ya filtradas por rango de fechas.
// Los pendientes excluyen lo aplicado; los tratamientos solo de regímenes
// activos. ExpiringVaccinations ya descarta los registros reemplazados.
type Source interface {
	PendingVaccinations(ctx context.Context, from, to time.Time) ([]Record, error)
	PendingTests(ctx context.Context, from, to time.Time) ([]Record, error)
	PendingTreatments(ctx context.Context, from, to time.Time) ([]Record, error)
	ExpiringVaccinations(ctx context.Context, from, to time.Time) ([]Record, error)
}

type Options struct {
	// IncludeOffShelter incluye animales archivados que no están en tránsito.
	IncludeOffShelter bool
	Metrics           *metrics.Metrics
}

type Service struct {
	src  Source
	opts Options
}

func NewService(src Source, opts Options) *Service {
	return &Service{src: src, opts: opts}
}

// Outstanding resuelve una ventana relativa a asOf. Las ventanas de
// vencimiento (xm/xp) solo aplican a vacunas.
func (s *Service) Outstanding(ctx context.Context, kind Kind, window string, asOf time.Time) ([]Record, error) {
	w, err := ParseWindow(window, asOf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if w.Expiry {
		if kind != KindVaccination {
			return nil, fmt.Errorf("%w: expiry windows only apply to vaccinations", ErrInvalidInput)
		}
		return s.query(ctx, kind, "expiring", w)
	}
	return s.query(ctx, kind, "outstanding", w)
}

// DueBetween: pendientes con fecha requerida en [from, to].
func (s *Service) DueBetween(ctx context.Context, kind Kind, from, to time.Time) ([]Record, error) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, fmt.Errorf("%w: from and to are required and from <= to", ErrInvalidInput)
	}
	return s.query(ctx, kind, "between", Window{From: civil.Day(from), To: civil.Day(to)})
}

// Expiring: vacunas aplicadas que vencen en [from, to] y no fueron
// reemplazadas por otro registro del mismo tipo.
func (s *Service) Expiring(ctx context.Context, from, to time.Time) ([]Record, error) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, fmt.Errorf("%w: from and to are required and from <= to", ErrInvalidInput)
	}
	return s.query(ctx, KindVaccination, "expiring", Window{From: civil.Day(from), To: civil.Day(to), Expiry: true})
}

func (s *Service) query(ctx context.Context, kind Kind, name string, w Window) (_ []Record, err error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, kind)
	}

	ctx, span := tracer.Start(ctx, "duewindows."+name, trace.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("from", w.From.Format(civil.Layout)),
		attribute.String("to", w.To.Format(civil.Layout)),
	))
	defer span.End()

	start := time.Now()
	defer func() { s.opts.Metrics.ObserveDueQuery(string(kind), name, time.Since(start)) }()

	var rows []Record
	switch {
	case w.Expiry:
		rows, err = s.src.ExpiringVaccinations(ctx, w.From, w.To)
	case kind == KindVaccination:
		rows, err = s.src.PendingVaccinations(ctx, w.From, w.To)
	case kind == KindTest:
		rows, err = s.src.PendingTests(ctx, w.From, w.To)
	default:
		rows, err = s.src.PendingTreatments(ctx, w.From, w.To)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := s.filter(rows)
	sortRecords(out, w.Expiry)
	span.SetAttributes(attribute.Int("records", len(out)))
	return out, nil
}

func (s *Service) filter(rows []Record) []Record {
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		if r.Animal.Deceased() {
			continue
		}
		if !s.opts.IncludeOffShelter && !r.Animal.OnShelter() {
			continue
		}
		out = append(out, r)
	}
	return out
}

func sortRecords(rs []Record, expiry bool) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i].sortDate(expiry), rs[j].sortDate(expiry)
		if !a.Equal(b) {
			return a.Before(b)
		}
		an, bn := strings.ToLower(rs[i].Animal.Name), strings.ToLower(rs[j].Animal.Name)
		if an != bn {
			return an < bn
		}
		return rs[i].ID < rs[j].ID
	})
}
