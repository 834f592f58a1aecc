package regimens

import (
	"fmt"
	"testing"
	"time"

	"shelter-medical/internal/domain/schedule"
	"shelter-medical/internal/platform/civil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time { return civil.Date(y, m, d) }

func dayPtr(y int, m time.Month, d int) *time.Time {
	t := day(y, m, d)
	return &t
}

func weekly(perCycle, cycles int) Regimen {
	return Regimen{
		ID:        "r-1",
		AnimalID:  "a-1",
		StartDate: day(2024, time.January, 1),
		Status:    StatusActive,
		Rule: schedule.Rule{
			TimingRule:    perCycle,
			Frequency:     schedule.FrequencyWeekly,
			Interval:      1,
			TreatmentRule: schedule.TreatmentRuleFixed,
			TotalCycles:   cycles,
		},
	}
}

func TestAdvance_NotActiveIsFrozen(t *testing.T) {
	for _, st := range []Status{StatusHeld, StatusCompleted} {
		r := weekly(1, 3)
		r.Status = st
		d := Advance(r, nil)
		assert.Equal(t, ActionNone, d.Action, "status %s", st)
	}
}

func TestAdvance_FirstBatchUsesStartDateVerbatim(t *testing.T) {
	r := weekly(2, 3)
	r.StartDate = day(2024, time.March, 2) // sábado

	d := Advance(r, nil)
	require.Equal(t, ActionGenerate, d.Action)
	assert.Equal(t, day(2024, time.March, 2), d.RequiredDate)
}

func TestAdvance_OneOffGivenCompletes(t *testing.T) {
	r := weekly(0, 1)
	r.Rule = schedule.Rule{}.Normalize(true)

	ts := []Treatment{{ID: "t1", RequiredDate: r.StartDate, GivenDate: dayPtr(2024, time.January, 1), TreatmentNumber: 1}}
	assert.Equal(t, ActionComplete, Advance(r, ts).Action)

	ts[0].GivenDate = nil
	assert.Equal(t, ActionNone, Advance(r, ts).Action)
}

func TestAdvance_OneOffUnspecifiedLengthCompletes(t *testing.T) {
	r := weekly(0, 0)
	r.Rule = schedule.Rule{TreatmentRule: schedule.TreatmentRuleUnspecified}.Normalize(false)

	ts := []Treatment{{ID: "t1", RequiredDate: r.StartDate, GivenDate: dayPtr(2024, time.January, 3), TreatmentNumber: 1}}
	assert.Equal(t, ActionComplete, Advance(r, ts).Action)
}

func TestAdvance_FixedWaitsForWholeBatch(t *testing.T) {
	r := weekly(2, 3)
	ts := []Treatment{
		{ID: "t1", RequiredDate: r.StartDate, GivenDate: dayPtr(2024, time.January, 1), TreatmentNumber: 1},
		{ID: "t2", RequiredDate: r.StartDate, TreatmentNumber: 2},
	}
	assert.Equal(t, ActionNone, Advance(r, ts).Action)
}

func TestAdvance_NextBatchAnchoredAtGivenDate(t *testing.T) {
	r := weekly(1, 3)
	ts := []Treatment{
		{ID: "t1", RequiredDate: r.StartDate, GivenDate: dayPtr(2024, time.January, 4), TreatmentNumber: 1},
	}

	d := Advance(r, ts)
	require.Equal(t, ActionGenerate, d.Action)
	assert.Equal(t, day(2024, time.January, 11), d.RequiredDate)
}

func TestAdvance_FixedCompletesAtTarget(t *testing.T) {
	r := weekly(1, 2)
	ts := []Treatment{
		{ID: "t1", RequiredDate: day(2024, time.January, 1), GivenDate: dayPtr(2024, time.January, 1), TreatmentNumber: 1},
		{ID: "t2", RequiredDate: day(2024, time.January, 8), GivenDate: dayPtr(2024, time.January, 8), TreatmentNumber: 1},
	}
	assert.Equal(t, ActionComplete, Advance(r, ts).Action)
}

func TestAdvance_UnspecifiedNeverCompletes(t *testing.T) {
	r := weekly(1, 0)
	r.Rule.TreatmentRule = schedule.TreatmentRuleUnspecified

	ts := make([]Treatment, 0)
	for i := 0; i < 20; i++ {
		ref := civil.AddDays(r.StartDate, i*7)
		ts = append(ts, Treatment{ID: fmt.Sprintf("t%d", i), RequiredDate: ref, GivenDate: &ref, TreatmentNumber: 1})
	}
	d := Advance(r, ts)
	assert.Equal(t, ActionGenerate, d.Action)
}

func TestAdvance_TieOnRequiredDatePrefersOutstanding(t *testing.T) {
	r := weekly(2, 0)
	r.Rule.TreatmentRule = schedule.TreatmentRuleUnspecified

	ts := []Treatment{
		{ID: "t1", RequiredDate: r.StartDate, GivenDate: dayPtr(2024, time.January, 2), TreatmentNumber: 2},
		{ID: "t2", RequiredDate: r.StartDate, TreatmentNumber: 1},
	}
	assert.Equal(t, ActionNone, Advance(r, ts).Action)
}

func TestAdvance_TieOnRequiredDateUsesLatestGiven(t *testing.T) {
	r := weekly(2, 0)
	r.Rule.TreatmentRule = schedule.TreatmentRuleUnspecified

	ts := []Treatment{
		{ID: "t1", RequiredDate: r.StartDate, GivenDate: dayPtr(2024, time.January, 5), TreatmentNumber: 1},
		{ID: "t2", RequiredDate: r.StartDate, GivenDate: dayPtr(2024, time.January, 2), TreatmentNumber: 2},
	}
	d := Advance(r, ts)
	require.Equal(t, ActionGenerate, d.Action)
	assert.Equal(t, day(2024, time.January, 12), d.RequiredDate)
}

// Simula un régimen completo aplicando cada lote y verifica que
// given+remaining se mantenga igual al objetivo en cada paso.
func TestLifecycle_CountersConsistentOverFullRun(t *testing.T) {
	for _, tc := range []struct{ perCycle, cycles int }{{1, 1}, {1, 4}, {2, 3}, {3, 2}, {0, 1}} {
		t.Run(fmt.Sprintf("%dx%d", tc.perCycle, tc.cycles), func(t *testing.T) {
			r := weekly(tc.perCycle, tc.cycles)
			r.Rule = r.Rule.Normalize(tc.perCycle == 0)
			target := r.Rule.TotalCycles * r.Rule.PerCycle()

			var ts []Treatment
			seq := 0
			newID := func() string { seq++; return fmt.Sprintf("t%d", seq) }

			for step := 0; step < 50; step++ {
				d := Advance(r, ts)
				switch d.Action {
				case ActionComplete:
					r.Status = StatusCompleted
				case ActionGenerate:
					ts = append(ts, NewBatch(r, d.RequiredDate, time.Time{}, newID)...)
				}

				given, remaining := Recompute(r, ts)
				require.Equal(t, target, given+remaining)

				if r.Status == StatusCompleted {
					break
				}
				for i := range ts {
					if !ts[i].Given() {
						g := ts[i].RequiredDate
						ts[i].GivenDate = &g
					}
				}
			}

			require.Equal(t, StatusCompleted, r.Status)
			assert.Len(t, ts, target)
			assert.Equal(t, ActionNone, Advance(r, ts).Action)
		})
	}
}

func TestNewBatch(t *testing.T) {
	r := weekly(3, 2)
	n := 0
	batch := NewBatch(r, time.Date(2024, 2, 1, 13, 0, 0, 0, time.UTC), time.Time{}, func() string { n++; return fmt.Sprint(n) })

	require.Len(t, batch, 3)
	for i, tr := range batch {
		assert.Equal(t, i+1, tr.TreatmentNumber)
		assert.Equal(t, 3, tr.TotalTreatments)
		assert.Equal(t, day(2024, time.February, 1), tr.RequiredDate)
		assert.Equal(t, "r-1", tr.RegimenID)
		assert.Equal(t, "a-1", tr.AnimalID)
	}
	assert.Equal(t, "r-1_2", batch[1].CompositeID())

	one := NewBatch(weekly(0, 1), r.StartDate, time.Time{}, func() string { return "x" })
	require.Len(t, one, 1)
	assert.Equal(t, 1, one[0].TotalTreatments)
}

func TestRecompute(t *testing.T) {
	r := weekly(2, 3)
	ts := []Treatment{
		{ID: "a", GivenDate: dayPtr(2024, time.January, 1)},
		{ID: "b"},
	}
	given, remaining := Recompute(r, ts)
	assert.Equal(t, 1, given)
	assert.Equal(t, 5, remaining)

	r.Rule.TreatmentRule = schedule.TreatmentRuleUnspecified
	r.Rule.TotalCycles = 0
	given, remaining = Recompute(r, ts)
	assert.Equal(t, 1, given)
	assert.Equal(t, 0, remaining)
}

func TestProject(t *testing.T) {
	r := weekly(2, 3)
	r.Status = StatusHeld

	codes := Project(r)
	assert.Equal(t, schedule.FrequencyKindPeriodic, codes.Frequency.Kind)
	assert.Equal(t, 6, codes.Count.TotalTreatments)
	assert.Equal(t, StatusHeld, codes.Status)
}
