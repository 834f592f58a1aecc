package regimens

import (
	"sort"
	"time"

	"shelter-medical/internal/domain/schedule"
	"shelter-medical/internal/platform/civil"
)

type Action int

const (
	ActionNone Action = iota
	ActionComplete
	ActionGenerate
)

func (a Action) String() string {
	switch a {
	case ActionComplete:
		return "complete"
	case ActionGenerate:
		return "generate"
	default:
		return "none"
	}
}

// Decision es el resultado de Advance. RequiredDate solo aplica a ActionGenerate.
type Decision struct {
	Action       Action
	RequiredDate time.Time
	Reason       string
}

// Advance decide el siguiente paso de un régimen a partir de su historial
// completo. Es pura: no lee contadores cacheados ni toca el Store.
func Advance(r Regimen, ts []Treatment) Decision {
	if r.Status != StatusActive {
		return Decision{Reason: "regimen not active"}
	}

	latest, hasRows := latestRequired(ts)

	if r.Rule.OneOff() && hasRows && latest.Given() {
		return Decision{Action: ActionComplete, Reason: "one-off treatment given"}
	}

	if r.Rule.TreatmentRule == schedule.TreatmentRuleFixed {
		given := 0
		for _, t := range ts {
			if !t.Given() {
				return Decision{Reason: "treatment outstanding"}
			}
			given++
		}
		target := r.Rule.Target()
		if target < 1 {
			target = 1
		}
		if given >= target {
			return Decision{Action: ActionComplete, Reason: "all treatments given"}
		}
	}

	if !hasRows {
		return Decision{
			Action:       ActionGenerate,
			RequiredDate: civil.Day(r.StartDate),
			Reason:       "first batch",
		}
	}

	if !latest.Given() {
		return Decision{Reason: "treatment outstanding"}
	}

	return Decision{
		Action:       ActionGenerate,
		RequiredDate: schedule.NextRequiredDate(r.Rule.Frequency, r.Rule.Interval, *latest.GivenDate),
		Reason:       "next batch",
	}
}

// latestRequired devuelve el tratamiento con fecha requerida más reciente.
// Empates: pendientes primero, luego el de aplicación más reciente, luego el
// número de tratamiento más alto.
func latestRequired(ts []Treatment) (Treatment, bool) {
	if len(ts) == 0 {
		return Treatment{}, false
	}
	ordered := make([]Treatment, len(ts))
	copy(ordered, ts)
	sortHistory(ordered)
	return ordered[0], true
}

func sortHistory(ts []Treatment) {
	sort.SliceStable(ts, func(i, j int) bool {
		a, b := ts[i], ts[j]
		if !a.RequiredDate.Equal(b.RequiredDate) {
			return a.RequiredDate.After(b.RequiredDate)
		}
		if a.Given() != b.Given() {
			return !a.Given()
		}
		if a.Given() && b.Given() && !a.GivenDate.Equal(*b.GivenDate) {
			return a.GivenDate.After(*b.GivenDate)
		}
		return a.TreatmentNumber > b.TreatmentNumber
	})
}

// NewBatch arma las filas de un lote: max(TimingRule, 1) tratamientos
// numerados 1..N con la misma fecha requerida. Los IDs los asigna newID.
func NewBatch(r Regimen, required time.Time, now time.Time, newID func() string) []Treatment {
	n := r.Rule.PerCycle()
	out := make([]Treatment, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, Treatment{
			ID:              newID(),
			RegimenID:       r.ID,
			AnimalID:        r.AnimalID,
			RequiredDate:    civil.Day(required),
			TreatmentNumber: i,
			TotalTreatments: n,
			CreatedAt:       now,
		})
	}
	return out
}
