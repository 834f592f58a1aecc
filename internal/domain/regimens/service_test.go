package regimens

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"shelter-medical/internal/domain/animals"
	"shelter-medical/internal/domain/profiles"
	"shelter-medical/internal/domain/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	mu         sync.Mutex
	regimens   map[string]Regimen
	treatments map[string]Treatment
	writes     int
}

func newTestRepo() *testRepo {
	return &testRepo{
		regimens:   map[string]Regimen{},
		treatments: map[string]Treatment{},
	}
}

func (r *testRepo) WithRegimenLock(ctx context.Context, regimenID string, fn func(ctx context.Context, st Store) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx, r)
}

func (r *testRepo) CreateRegimen(ctx context.Context, reg Regimen) error {
	r.writes++
	r.regimens[reg.ID] = reg
	return nil
}

func (r *testRepo) ReadRegimen(ctx context.Context, id string) (Regimen, error) {
	reg, ok := r.regimens[id]
	if !ok {
		return Regimen{}, ErrNotFound
	}
	return reg, nil
}

func (r *testRepo) UpdateRegimen(ctx context.Context, reg Regimen) error {
	if _, ok := r.regimens[reg.ID]; !ok {
		return ErrNotFound
	}
	r.writes++
	r.regimens[reg.ID] = reg
	return nil
}

func (r *testRepo) DeleteRegimen(ctx context.Context, id string) error {
	if _, ok := r.regimens[id]; !ok {
		return ErrNotFound
	}
	r.writes++
	delete(r.regimens, id)
	for tid, t := range r.treatments {
		if t.RegimenID == id {
			delete(r.treatments, tid)
		}
	}
	return nil
}

func (r *testRepo) ListRegimensByAnimal(ctx context.Context, animalID string) ([]Regimen, error) {
	out := make([]Regimen, 0)
	for _, reg := range r.regimens {
		if reg.AnimalID == animalID {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (r *testRepo) UpdateRegimenStatus(ctx context.Context, id string, status Status) error {
	reg, ok := r.regimens[id]
	if !ok {
		return ErrNotFound
	}
	r.writes++
	reg.Status = status
	r.regimens[id] = reg
	return nil
}

func (r *testRepo) UpdateRegimenCounters(ctx context.Context, id string, given, remaining int) error {
	reg, ok := r.regimens[id]
	if !ok {
		return ErrNotFound
	}
	r.writes++
	reg.TreatmentsGiven = given
	reg.TreatmentsRemaining = remaining
	r.regimens[id] = reg
	return nil
}

func (r *testRepo) ReadTreatment(ctx context.Context, id string) (Treatment, error) {
	t, ok := r.treatments[id]
	if !ok {
		return Treatment{}, ErrNotFound
	}
	return t, nil
}

func (r *testRepo) ReadTreatments(ctx context.Context, regimenID string) ([]Treatment, error) {
	out := make([]Treatment, 0)
	for _, t := range r.treatments {
		if t.RegimenID == regimenID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *testRepo) ListTreatmentsByAnimal(ctx context.Context, animalID string) ([]Treatment, error) {
	out := make([]Treatment, 0)
	for _, t := range r.treatments {
		if t.AnimalID == animalID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *testRepo) CreateTreatmentBatch(ctx context.Context, rows []Treatment) error {
	r.writes++
	for _, t := range rows {
		r.treatments[t.ID] = t
	}
	return nil
}

func (r *testRepo) MarkTreatmentGiven(ctx context.Context, id string, g Given) error {
	t, ok := r.treatments[id]
	if !ok {
		return ErrNotFound
	}
	r.writes++
	d := g.Date
	t.GivenDate = &d
	t.GivenBy = g.By
	t.AdministeringVetID = g.VetID
	t.Comments = g.Comments
	r.treatments[id] = t
	return nil
}

func (r *testRepo) UpdateTreatmentRequired(ctx context.Context, id string, required time.Time) error {
	t, ok := r.treatments[id]
	if !ok {
		return ErrNotFound
	}
	r.writes++
	t.RequiredDate = required
	r.treatments[id] = t
	return nil
}

func (r *testRepo) DeleteTreatment(ctx context.Context, id string) error {
	if _, ok := r.treatments[id]; !ok {
		return ErrNotFound
	}
	r.writes++
	delete(r.treatments, id)
	return nil
}

type testProfiles map[string]profiles.Profile

func (p testProfiles) GetByID(ctx context.Context, id string) (profiles.Profile, error) {
	pr, ok := p[id]
	if !ok {
		return profiles.Profile{}, profiles.ErrNotFound
	}
	return pr, nil
}

type testAnimals map[string]animals.Animal

func (a testAnimals) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	an, ok := a[id]
	if !ok {
		return animals.Animal{}, animals.ErrNotFound
	}
	return an, nil
}

func newTestService(repo *testRepo) *Service {
	svc := NewService(repo, Deps{
		Animals: testAnimals{"a-1": {ID: "a-1", Name: "Milo"}},
		Profiles: testProfiles{"p-1": {
			ID:            "p-1",
			ProfileName:   "Puppy deworming",
			TreatmentName: "Dewormer",
			Dosage:        "1 tablet",
			Cost:          1500,
			Rule: schedule.Rule{
				TimingRule: 1, Frequency: schedule.FrequencyWeekly, Interval: 2,
				TreatmentRule: schedule.TreatmentRuleFixed, TotalCycles: 3,
			},
		}},
	})
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	seq := 0
	svc.newID = func() string { seq++; return fmt.Sprintf("id-%03d", seq) }
	return svc
}

func treatmentsOf(t *testing.T, repo *testRepo, regimenID string) []Treatment {
	t.Helper()
	ts, err := repo.ReadTreatments(context.Background(), regimenID)
	require.NoError(t, err)
	return ts
}

func TestCreateRegimen_ValidationWritesNothing(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	cases := []CreateInput{
		{AnimalID: "a-1", TreatmentName: "  ", StartDate: day(2024, time.March, 1)},
		{AnimalID: "a-1", TreatmentName: "X"},
		{TreatmentName: "X", StartDate: day(2024, time.March, 1)},
		{AnimalID: "a-1", TreatmentName: "X", StartDate: day(2024, time.March, 1), Rule: schedule.Rule{TimingRule: 1, Interval: -1, Frequency: schedule.FrequencyDaily}},
		{AnimalID: "a-1", TreatmentName: "X", StartDate: day(2024, time.March, 1), Rule: schedule.Rule{TimingRule: 2, Interval: 1}},
		{AnimalID: "a-1", TreatmentName: "X", StartDate: day(2024, time.March, 1), Status: "paused"},
	}
	for i, in := range cases {
		_, err := svc.CreateRegimen(ctx, "vet-1", in)
		require.ErrorIs(t, err, ErrInvalidInput, "case %d", i)
	}
	assert.Equal(t, 0, repo.writes)
}

func TestCreateRegimen_UnknownAnimalOrProfile(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.CreateRegimen(ctx, "vet-1", CreateInput{AnimalID: "nope", TreatmentName: "X", StartDate: day(2024, time.March, 1)})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CreateRegimen(ctx, "vet-1", CreateInput{AnimalID: "a-1", ProfileID: "nope", StartDate: day(2024, time.March, 1)})
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, repo.writes)
}

func TestCreateRegimen_SingleOccurrenceForcesOneTreatment(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	reg, err := svc.CreateRegimen(context.Background(), "vet-1", CreateInput{
		AnimalID:         "a-1",
		TreatmentName:    "Rabies",
		StartDate:        day(2024, time.March, 5),
		Rule:             schedule.Rule{TimingRule: 4, Frequency: schedule.FrequencyDaily, Interval: 2, TotalCycles: 7},
		SingleOccurrence: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, reg.Rule.TotalCycles)
	assert.Equal(t, 0, reg.Rule.TimingRule)
	assert.Equal(t, schedule.FrequencyNone, reg.Rule.Frequency)
	assert.Equal(t, 0, reg.TreatmentsGiven)
	assert.Equal(t, 1, reg.TreatmentsRemaining)

	ts := treatmentsOf(t, repo, reg.ID)
	require.Len(t, ts, 1)
	assert.Equal(t, day(2024, time.March, 5), ts[0].RequiredDate)
	assert.Equal(t, 1, ts[0].TotalTreatments)
}

func TestMarkGiven_OneOffCompletesWithoutMoreTreatments(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	reg, err := svc.CreateRegimen(ctx, "vet-1", CreateInput{
		AnimalID: "a-1", TreatmentName: "Microchip", StartDate: day(2024, time.March, 1), SingleOccurrence: true,
	})
	require.NoError(t, err)

	ts := treatmentsOf(t, repo, reg.ID)
	tr, err := svc.MarkGiven(ctx, ts[0].ID, "vet-2", MarkGivenInput{Date: day(2024, time.March, 2)})
	require.NoError(t, err)
	assert.Equal(t, "vet-2", tr.GivenBy)

	reg, err = svc.GetRegimen(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, reg.Status)
	assert.Equal(t, 1, reg.TreatmentsGiven)
	assert.Equal(t, 0, reg.TreatmentsRemaining)
	assert.Len(t, treatmentsOf(t, repo, reg.ID), 1)

	_, err = svc.MarkGiven(ctx, ts[0].ID, "vet-2", MarkGivenInput{Date: day(2024, time.March, 3)})
	require.ErrorIs(t, err, ErrAlreadyGiven)
}

func TestMarkGiven_GeneratesNextBatchFromGivenDate(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	reg, err := svc.CreateRegimen(ctx, "vet-1", CreateInput{
		AnimalID:      "a-1",
		TreatmentName: "Antibiotic",
		StartDate:     day(2024, time.March, 1),
		Rule: schedule.Rule{
			TimingRule: 2, Frequency: schedule.FrequencyDaily, Interval: 3,
			TreatmentRule: schedule.TreatmentRuleFixed, TotalCycles: 2,
		},
	})
	require.NoError(t, err)
	require.Equal(t, 4, reg.TreatmentsRemaining)

	first := treatmentsOf(t, repo, reg.ID)
	require.Len(t, first, 2)

	_, err = svc.MarkGiven(ctx, first[0].ID, "vet-1", MarkGivenInput{Date: day(2024, time.March, 1)})
	require.NoError(t, err)
	assert.Len(t, treatmentsOf(t, repo, reg.ID), 2, "batch still has an outstanding treatment")

	_, err = svc.MarkGiven(ctx, first[1].ID, "", MarkGivenInput{Date: day(2024, time.March, 2)})
	require.NoError(t, err)

	all := treatmentsOf(t, repo, reg.ID)
	require.Len(t, all, 4)
	for _, tr := range all[2:] {
		assert.Equal(t, day(2024, time.March, 5), tr.RequiredDate)
		assert.False(t, tr.Given())
	}

	reg, _ = svc.GetRegimen(ctx, reg.ID)
	assert.Equal(t, 2, reg.TreatmentsGiven)
	assert.Equal(t, 2, reg.TreatmentsRemaining)

	for _, tr := range all[2:] {
		_, err = svc.MarkGivenToday(ctx, tr.ID, "vet-3")
		require.NoError(t, err)
	}
	reg, _ = svc.GetRegimen(ctx, reg.ID)
	assert.Equal(t, StatusCompleted, reg.Status)
	assert.Equal(t, 4, reg.TreatmentsGiven)
	assert.Equal(t, 0, reg.TreatmentsRemaining)
	assert.Len(t, treatmentsOf(t, repo, reg.ID), 4)
}

func TestCreateRegimen_FromProfile(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	reg, err := svc.CreateRegimen(context.Background(), "vet-1", CreateInput{
		AnimalID:  "a-1",
		ProfileID: "p-1",
		StartDate: day(2024, time.March, 1),
		Dosage:    "half tablet",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dewormer", reg.TreatmentName)
	assert.Equal(t, "half tablet", reg.Dosage)
	assert.EqualValues(t, 1500, reg.Cost)
	assert.Equal(t, schedule.FrequencyWeekly, reg.Rule.Frequency)
	assert.Equal(t, 3, reg.TreatmentsRemaining)
}

func TestCreateRegimen_CompletedMarksFirstBatchGiven(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	reg, err := svc.CreateRegimen(context.Background(), "vet-1", CreateInput{
		AnimalID:      "a-1",
		TreatmentName: "Flea",
		StartDate:     day(2023, time.December, 1),
		Status:        StatusCompleted,
		Rule: schedule.Rule{
			TimingRule: 2, Frequency: schedule.FrequencyMonthly, Interval: 1,
			TreatmentRule: schedule.TreatmentRuleFixed, TotalCycles: 3,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, reg.Status)

	ts := treatmentsOf(t, repo, reg.ID)
	require.Len(t, ts, 2)
	for _, tr := range ts {
		require.True(t, tr.Given())
		assert.Equal(t, day(2023, time.December, 1), *tr.GivenDate)
		assert.Equal(t, "vet-1", tr.GivenBy)
	}
	assert.Equal(t, 2, reg.TreatmentsGiven)
	assert.Equal(t, 4, reg.TreatmentsRemaining)
}

func TestHeldRegimen_NoGenerationUntilReactivated(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	reg, err := svc.CreateRegimen(ctx, "vet-1", CreateInput{
		AnimalID:      "a-1",
		TreatmentName: "Insulin",
		StartDate:     day(2024, time.January, 1),
		Status:        StatusHeld,
		Rule: schedule.Rule{
			TimingRule: 1, Frequency: schedule.FrequencyWeekly, Interval: 1,
			TreatmentRule: schedule.TreatmentRuleUnspecified,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusHeld, reg.Status)

	ts := treatmentsOf(t, repo, reg.ID)
	require.Len(t, ts, 1)

	_, err = svc.MarkGiven(ctx, ts[0].ID, "vet-1", MarkGivenInput{Date: day(2024, time.January, 1)})
	require.NoError(t, err)
	assert.Len(t, treatmentsOf(t, repo, reg.ID), 1)

	active := StatusActive
	reg, err = svc.UpdateRegimen(ctx, reg.ID, UpdateInput{Status: &active})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, reg.Status)

	// Una sola dosis nueva, anclada a la última aplicación: no recupera semanas perdidas.
	ts = treatmentsOf(t, repo, reg.ID)
	require.Len(t, ts, 2)
	assert.Equal(t, day(2024, time.January, 8), ts[1].RequiredDate)
	assert.Equal(t, 0, reg.TreatmentsRemaining)
}

func TestDeleteTreatment_CascadesOnLast(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	reg, err := svc.CreateRegimen(ctx, "vet-1", CreateInput{
		AnimalID: "a-1", TreatmentName: "Once", StartDate: day(2024, time.March, 1), SingleOccurrence: true,
	})
	require.NoError(t, err)

	ts := treatmentsOf(t, repo, reg.ID)
	deleted, err := svc.DeleteTreatment(ctx, ts[0].ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = svc.GetRegimen(ctx, reg.ID)
	require.True(t, errors.Is(err, ErrNotFound))

	_, err = svc.DeleteTreatment(ctx, ts[0].ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTreatment_OneOfSeveralRecomputes(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	reg, err := svc.CreateRegimen(ctx, "vet-1", CreateInput{
		AnimalID:      "a-1",
		TreatmentName: "Drops",
		StartDate:     day(2024, time.March, 1),
		Rule: schedule.Rule{
			TimingRule: 3, Frequency: schedule.FrequencyDaily, Interval: 1,
			TreatmentRule: schedule.TreatmentRuleFixed, TotalCycles: 2,
		},
	})
	require.NoError(t, err)

	ts := treatmentsOf(t, repo, reg.ID)
	require.Len(t, ts, 3)
	_, err = svc.MarkGiven(ctx, ts[0].ID, "vet-1", MarkGivenInput{Date: day(2024, time.March, 1)})
	require.NoError(t, err)

	deleted, err := svc.DeleteTreatment(ctx, ts[1].ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	reg, err = svc.GetRegimen(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.TreatmentsGiven)
	assert.Equal(t, 5, reg.TreatmentsRemaining)
	assert.Len(t, treatmentsOf(t, repo, reg.ID), 2)
}

func TestAdvance_MissingRegimenIsNoop(t *testing.T) {
	svc := newTestService(newTestRepo())
	d, err := svc.Advance(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, ActionNone, d.Action)
}

func TestListByAnimal_DerivedDatesAndFilter(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	older, err := svc.CreateRegimen(ctx, "vet-1", CreateInput{
		AnimalID: "a-1", TreatmentName: "Old", StartDate: day(2023, time.June, 1), SingleOccurrence: true, Status: StatusCompleted,
	})
	require.NoError(t, err)

	newer, err := svc.CreateRegimen(ctx, "vet-1", CreateInput{
		AnimalID:      "a-1",
		TreatmentName: "New",
		StartDate:     day(2024, time.February, 1),
		Rule: schedule.Rule{
			TimingRule: 1, Frequency: schedule.FrequencyWeekly, Interval: 1,
			TreatmentRule: schedule.TreatmentRuleFixed, TotalCycles: 5,
		},
	})
	require.NoError(t, err)
	ts := treatmentsOf(t, repo, newer.ID)
	_, err = svc.MarkGiven(ctx, ts[0].ID, "vet-1", MarkGivenInput{Date: day(2024, time.February, 2)})
	require.NoError(t, err)

	all, err := svc.ListByAnimal(ctx, "a-1", ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	require.NotNil(t, all[0].NextTreatmentDue)
	assert.Equal(t, day(2024, time.February, 9), *all[0].NextTreatmentDue)
	require.NotNil(t, all[0].LastTreatmentGiven)
	assert.Equal(t, day(2024, time.February, 2), *all[0].LastTreatmentGiven)
	assert.Nil(t, all[1].NextTreatmentDue)

	asc, err := svc.ListByAnimal(ctx, "a-1", ListFilter{Sort: SortStartAsc})
	require.NoError(t, err)
	assert.Equal(t, older.ID, asc[0].ID)

	done, err := svc.ListByAnimal(ctx, "a-1", ListFilter{OnlyCompleted: true})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, older.ID, done[0].ID)
}

func TestUpdateTreatmentRequiredAndList(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	reg, err := svc.CreateRegimen(ctx, "vet-1", CreateInput{
		AnimalID: "a-1", TreatmentName: "Once", StartDate: day(2024, time.March, 1), SingleOccurrence: true,
	})
	require.NoError(t, err)
	ts := treatmentsOf(t, repo, reg.ID)

	_, err = svc.UpdateTreatmentRequired(ctx, ts[0].ID, time.Time{})
	require.ErrorIs(t, err, ErrInvalidInput)

	tr, err := svc.UpdateTreatmentRequired(ctx, ts[0].ID, day(2024, time.March, 9))
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.March, 9), tr.RequiredDate)

	_, err = svc.ListTreatments(ctx, TreatmentFilter{})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ListTreatments(ctx, TreatmentFilter{RegimenID: "ghost"})
	require.ErrorIs(t, err, ErrNotFound)

	list, err := svc.ListTreatments(ctx, TreatmentFilter{AnimalID: "a-1", Sort: SortRequiredDesc})
	require.NoError(t, err)
	require.Len(t, list, 1)
}
