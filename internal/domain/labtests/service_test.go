package labtests_test

import (
	"context"
	"testing"
	"time"

	"shelter-medical/internal/adapters/storage/memory"
	"shelter-medical/internal/domain/labtests"
	"shelter-medical/internal/platform/civil"
	"shelter-medical/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_RequiresAnimalTypeAndDate(t *testing.T) {
	svc := labtests.NewService(memory.NewTestsRepo(), nil)
	ctx := context.Background()

	cases := []labtests.Input{
		{TestTypeID: "fiv", RequiredDate: civil.Date(2024, 1, 1)},
		{AnimalID: "a1", RequiredDate: civil.Date(2024, 1, 1)},
		{AnimalID: "a1", TestTypeID: "fiv"},
		{AnimalID: "a1", TestTypeID: "fiv", RequiredDate: civil.Date(2024, 1, 1), Cost: -1},
	}
	for _, in := range cases {
		_, err := svc.Create(ctx, "u1", in)
		assert.ErrorIs(t, err, labtests.ErrInvalidInput)
	}
}

func TestCompleteAndPerformedToday(t *testing.T) {
	m := metrics.New(nil)
	svc := labtests.NewService(memory.NewTestsRepo(), m)
	ctx := context.Background()

	a, err := svc.Create(ctx, "u1", labtests.Input{AnimalID: "a1", TestTypeID: "fiv", RequiredDate: civil.Date(2024, 1, 1)})
	require.NoError(t, err)
	assert.False(t, a.Performed())

	a, err = svc.Complete(ctx, a.ID, time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC), "negative", "vet-9")
	require.NoError(t, err)
	assert.Equal(t, civil.Date(2024, 1, 3), *a.PerformedDate)
	assert.Equal(t, "negative", a.ResultID)
	assert.Equal(t, "vet-9", a.AdministeringVetID)

	b, err := svc.Create(ctx, "u1", labtests.Input{AnimalID: "a1", TestTypeID: "leish", RequiredDate: civil.Date(2024, 1, 1), AdministeringVetID: "vet-1"})
	require.NoError(t, err)
	b, err = svc.MarkPerformedToday(ctx, b.ID, "positive")
	require.NoError(t, err)
	assert.True(t, b.Performed())
	assert.Equal(t, "positive", b.ResultID)
	assert.Equal(t, "vet-1", b.AdministeringVetID)

	// volver a completar no cuenta dos veces
	_, err = svc.Complete(ctx, b.ID, civil.Date(2024, 1, 4), "positive", "vet-1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TestsPerformed))
}

func TestListByAnimal(t *testing.T) {
	svc := labtests.NewService(memory.NewTestsRepo(), nil)
	ctx := context.Background()

	p := civil.Date(2024, 2, 1)
	_, _ = svc.Create(ctx, "u1", labtests.Input{AnimalID: "a1", TestTypeID: "fiv", RequiredDate: civil.Date(2024, 2, 1), PerformedDate: &p})
	_, _ = svc.Create(ctx, "u1", labtests.Input{AnimalID: "a1", TestTypeID: "fiv", RequiredDate: civil.Date(2024, 3, 1)})
	_, _ = svc.Create(ctx, "u1", labtests.Input{AnimalID: "a2", TestTypeID: "fiv", RequiredDate: civil.Date(2024, 3, 1)})

	all, err := svc.ListByAnimal(ctx, "a1", false, labtests.SortRequiredDesc)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, civil.Date(2024, 3, 1), all[0].RequiredDate)

	done, err := svc.ListByAnimal(ctx, "a1", true, "")
	require.NoError(t, err)
	require.Len(t, done, 1)

	_, err = svc.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, labtests.ErrNotFound)
}
