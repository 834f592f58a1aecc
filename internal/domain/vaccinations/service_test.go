package vaccinations

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"shelter-medical/internal/platform/civil"
	"shelter-medical/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRepo struct {
	items map[string]Vaccination
	order []string
}

func newTestRepo() *testRepo { return &testRepo{items: map[string]Vaccination{}} }

func (r *testRepo) Create(_ context.Context, v Vaccination) error {
	r.items[v.ID] = v
	r.order = append(r.order, v.ID)
	return nil
}

func (r *testRepo) Update(_ context.Context, v Vaccination) error {
	if _, ok := r.items[v.ID]; !ok {
		return ErrNotFound
	}
	r.items[v.ID] = v
	return nil
}

func (r *testRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (Vaccination, error) {
	v, ok := r.items[id]
	if !ok {
		return Vaccination{}, ErrNotFound
	}
	return v, nil
}

func (r *testRepo) ListByAnimal(_ context.Context, animalID string) ([]Vaccination, error) {
	var out []Vaccination
	for _, id := range r.order {
		if v, ok := r.items[id]; ok && v.AnimalID == animalID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *testRepo) LastBatches(context.Context) ([]TypeBatch, error) {
	last := map[string]TypeBatch{}
	for _, id := range r.order {
		v, ok := r.items[id]
		if !ok || !v.Given() || v.BatchNumber == "" {
			continue
		}
		last[v.VaccinationTypeID] = TypeBatch{v.VaccinationTypeID, v.BatchNumber, v.Manufacturer}
	}
	out := make([]TypeBatch, 0, len(last))
	for _, b := range last {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VaccinationTypeID < out[j].VaccinationTypeID })
	return out, nil
}

func (r *testRepo) Manufacturers(context.Context) ([]string, error) { return nil, nil }

func newTestService(t *testing.T, today time.Time) (*Service, *testRepo, *metrics.Metrics) {
	t.Helper()
	repo := newTestRepo()
	m := metrics.New(nil)
	svc := NewService(repo, Deps{Metrics: m})
	svc.now = func() time.Time { return today.Add(9 * time.Hour) }
	n := 0
	svc.newID = func() string { n++; return "v" + string(rune('0'+n)) }
	return svc, repo, m
}

func TestCreate_Validation(t *testing.T) {
	svc, repo, _ := newTestService(t, civil.Date(2024, 3, 1))
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", Input{VaccinationTypeID: "rabies", RequiredDate: civil.Date(2024, 3, 1)})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = svc.Create(ctx, "u1", Input{AnimalID: "a1", VaccinationTypeID: "rabies"})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	assert.Empty(t, repo.items)
}

func TestCompleteAndMarkGivenToday(t *testing.T) {
	today := civil.Date(2024, 3, 1)
	svc, _, m := newTestService(t, today)
	ctx := context.Background()

	v, err := svc.Create(ctx, "u1", Input{AnimalID: "a1", VaccinationTypeID: "rabies", RequiredDate: today})
	require.NoError(t, err)
	assert.False(t, v.Given())

	exp := civil.Date(2025, 3, 1)
	v, err = svc.Complete(ctx, v.ID, CompleteInput{
		Date: civil.Date(2024, 3, 2), ExpiryDate: &exp, VetID: "vet-1", BatchNumber: " B-77 ", Manufacturer: "Zoetis",
	})
	require.NoError(t, err)
	require.NotNil(t, v.GivenDate)
	assert.Equal(t, civil.Date(2024, 3, 2), *v.GivenDate)
	assert.Equal(t, "B-77", v.BatchNumber)
	assert.Equal(t, "vet-1", v.AdministeringVetID)

	w, err := svc.Create(ctx, "u1", Input{AnimalID: "a1", VaccinationTypeID: "dhpp", RequiredDate: today})
	require.NoError(t, err)
	w, err = svc.MarkGivenToday(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, today, *w.GivenDate)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.VaccinationsGiven))
}

func TestReschedule_ClosesOutstandingAndCreatesNext(t *testing.T) {
	today := civil.Date(2024, 3, 1)
	svc, repo, _ := newTestService(t, today)
	ctx := context.Background()

	paid := civil.Date(2024, 2, 1)
	v, err := svc.Create(ctx, "u1", Input{
		AnimalID: "a1", VaccinationTypeID: "rabies", RequiredDate: civil.Date(2024, 2, 20), Cost: 1500, CostPaidDate: &paid,
	})
	require.NoError(t, err)

	next, err := svc.Reschedule(ctx, "u2", v.ID, civil.Date(2025, 2, 20), "booster")
	require.NoError(t, err)

	old := repo.items[v.ID]
	require.NotNil(t, old.GivenDate)
	assert.Equal(t, today, *old.GivenDate)

	assert.NotEqual(t, v.ID, next.ID)
	assert.Equal(t, "a1", next.AnimalID)
	assert.Equal(t, "rabies", next.VaccinationTypeID)
	assert.Equal(t, civil.Date(2025, 2, 20), next.RequiredDate)
	assert.Equal(t, int64(1500), next.Cost)
	assert.Nil(t, next.CostPaidDate)
	assert.Nil(t, next.GivenDate)
	assert.Equal(t, "booster", next.Comments)
	assert.Equal(t, "u2", next.CreatedBy)
}

func TestReschedule_KeepsGivenDateOfCompletedRecord(t *testing.T) {
	svc, repo, _ := newTestService(t, civil.Date(2024, 3, 1))
	ctx := context.Background()

	given := civil.Date(2024, 1, 10)
	v, err := svc.Create(ctx, "u1", Input{AnimalID: "a1", VaccinationTypeID: "rabies", RequiredDate: given, GivenDate: &given})
	require.NoError(t, err)

	_, err = svc.Reschedule(ctx, "u1", v.ID, civil.Date(2025, 1, 10), "")
	require.NoError(t, err)
	assert.Equal(t, given, *repo.items[v.ID].GivenDate)
	assert.Len(t, repo.items, 2)
}

func TestIsVaccinated(t *testing.T) {
	today := civil.Date(2024, 3, 1)
	svc, _, _ := newTestService(t, today)
	ctx := context.Background()

	ok, err := svc.IsVaccinated(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, ok, "sin registros")

	given := civil.Date(2024, 1, 1)
	_, err = svc.Create(ctx, "u1", Input{AnimalID: "a1", VaccinationTypeID: "rabies", RequiredDate: given, GivenDate: &given})
	require.NoError(t, err)

	// pendiente para hoy: todavía no está vencida
	_, err = svc.Create(ctx, "u1", Input{AnimalID: "a1", VaccinationTypeID: "dhpp", RequiredDate: today})
	require.NoError(t, err)
	ok, err = svc.IsVaccinated(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Create(ctx, "u1", Input{AnimalID: "a1", VaccinationTypeID: "fiv", RequiredDate: civil.Date(2024, 2, 29)})
	require.NoError(t, err)
	ok, err = svc.IsVaccinated(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListByAnimal_FilterAndSort(t *testing.T) {
	svc, _, _ := newTestService(t, civil.Date(2024, 3, 1))
	ctx := context.Background()

	g := civil.Date(2024, 1, 5)
	_, _ = svc.Create(ctx, "u1", Input{AnimalID: "a1", VaccinationTypeID: "x", RequiredDate: civil.Date(2024, 1, 5), GivenDate: &g})
	_, _ = svc.Create(ctx, "u1", Input{AnimalID: "a1", VaccinationTypeID: "x", RequiredDate: civil.Date(2024, 2, 5)})
	_, _ = svc.Create(ctx, "u1", Input{AnimalID: "a2", VaccinationTypeID: "x", RequiredDate: civil.Date(2024, 2, 5)})

	all, err := svc.ListByAnimal(ctx, "a1", false, SortRequiredDesc)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, civil.Date(2024, 2, 5), all[0].RequiredDate)

	given, err := svc.ListByAnimal(ctx, "a1", true, "")
	require.NoError(t, err)
	require.Len(t, given, 1)
	assert.True(t, given[0].Given())
}

func TestLastBatches(t *testing.T) {
	svc, _, _ := newTestService(t, civil.Date(2024, 3, 1))
	ctx := context.Background()

	g := civil.Date(2024, 1, 1)
	_, _ = svc.Create(ctx, "u1", Input{AnimalID: "a1", VaccinationTypeID: "rabies", RequiredDate: g, GivenDate: &g, BatchNumber: "R1", Manufacturer: "M1"})
	_, _ = svc.Create(ctx, "u1", Input{AnimalID: "a2", VaccinationTypeID: "rabies", RequiredDate: g, GivenDate: &g, BatchNumber: "R2", Manufacturer: "M2"})
	_, _ = svc.Create(ctx, "u1", Input{AnimalID: "a3", VaccinationTypeID: "rabies", RequiredDate: g, GivenDate: &g})

	out, err := svc.LastBatches(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, TypeBatch{VaccinationTypeID: "rabies", BatchNumber: "R2", Manufacturer: "M2"}, out[0])
}
