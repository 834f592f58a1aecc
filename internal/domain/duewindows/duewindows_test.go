package duewindows

import (
	"context"
	"testing"
	"time"

	"shelter-medical/internal/domain/animals"
	"shelter-medical/internal/domain/vaccinations"
	"shelter-medical/internal/platform/civil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := civil.Date(y, m, d)
	return &t
}

func TestParseWindow(t *testing.T) {
	asOf := civil.Date(2024, time.March, 1)

	w, err := ParseWindow("m31", asOf)
	require.NoError(t, err)
	assert.Equal(t, civil.Date(2024, time.January, 30), w.From)
	assert.Equal(t, asOf, w.To)
	assert.False(t, w.Expiry)

	w, err = ParseWindow("p7", asOf)
	require.NoError(t, err)
	assert.Equal(t, asOf, w.From)
	assert.Equal(t, civil.Date(2024, time.March, 8), w.To)

	w, err = ParseWindow("XP30", asOf)
	require.NoError(t, err)
	assert.True(t, w.Expiry)
	assert.Equal(t, civil.Date(2024, time.March, 31), w.To)

	for _, bad := range []string{"", "m", "q3", "m-1", "xx3", "mabc"} {
		_, err := ParseWindow(bad, asOf)
		assert.ErrorIs(t, err, ErrInvalidWindow, bad)
	}
}

func TestSupersession_NewerDoseExcludesExpiring(t *testing.T) {
	v1 := vaccinations.Vaccination{
		ID: "v1", AnimalID: "a1", VaccinationTypeID: "T",
		RequiredDate: civil.Date(2024, 1, 1),
		GivenDate:    datePtr(2024, 1, 1),
		ExpiryDate:   datePtr(2025, 1, 1),
	}
	v2 := vaccinations.Vaccination{
		ID: "v2", AnimalID: "a1", VaccinationTypeID: "T",
		RequiredDate: civil.Date(2024, 6, 1),
	}

	ix := NewSupersessionIndex([]vaccinations.Vaccination{v1, v2})
	assert.True(t, ix.Superseded(v1))
	assert.False(t, ix.Superseded(v2), "sin fecha de aplicación")
}

func TestSupersession_ComparesAgainstGivenDate(t *testing.T) {
	v1 := vaccinations.Vaccination{
		ID: "v1", AnimalID: "a1", VaccinationTypeID: "T",
		RequiredDate: civil.Date(2024, 1, 1),
		GivenDate:    datePtr(2024, 3, 1),
	}
	// requerida después de la fecha requerida de v1 pero antes de su aplicación
	earlier := vaccinations.Vaccination{ID: "v0", AnimalID: "a1", VaccinationTypeID: "T", RequiredDate: civil.Date(2024, 2, 1)}
	otherType := vaccinations.Vaccination{ID: "v3", AnimalID: "a1", VaccinationTypeID: "U", RequiredDate: civil.Date(2024, 6, 1)}
	otherAnimal := vaccinations.Vaccination{ID: "v4", AnimalID: "a2", VaccinationTypeID: "T", RequiredDate: civil.Date(2024, 6, 1)}

	ix := NewSupersessionIndex([]vaccinations.Vaccination{v1, earlier, otherType, otherAnimal})
	assert.False(t, ix.Superseded(v1))

	sameDay := vaccinations.Vaccination{ID: "v5", AnimalID: "a1", VaccinationTypeID: "T", RequiredDate: civil.Date(2024, 3, 1)}
	ix = NewSupersessionIndex([]vaccinations.Vaccination{v1, earlier, sameDay})
	assert.True(t, ix.Superseded(v1), "required == given cuenta como reemplazo")
}

func TestSupersession_IgnoresItself(t *testing.T) {
	v := vaccinations.Vaccination{
		ID: "v1", AnimalID: "a1", VaccinationTypeID: "T",
		RequiredDate: civil.Date(2024, 5, 1),
		GivenDate:    datePtr(2024, 4, 1),
	}
	assert.False(t, NewSupersessionIndex([]vaccinations.Vaccination{v}).Superseded(v))
}

type fakeSource struct {
	pending  []Record
	expiring []Record
	from, to time.Time
}

func (f *fakeSource) window(from, to time.Time, rows []Record) []Record {
	f.from, f.to = from, to
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		if civil.Between(r.RequiredDate, from, to) {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeSource) PendingVaccinations(_ context.Context, from, to time.Time) ([]Record, error) {
	return f.window(from, to, f.pending), nil
}

func (f *fakeSource) PendingTests(_ context.Context, from, to time.Time) ([]Record, error) {
	return f.window(from, to, f.pending), nil
}

func (f *fakeSource) PendingTreatments(_ context.Context, from, to time.Time) ([]Record, error) {
	return f.window(from, to, f.pending), nil
}

func (f *fakeSource) ExpiringVaccinations(_ context.Context, from, to time.Time) ([]Record, error) {
	f.from, f.to = from, to
	return f.expiring, nil
}

func TestOutstanding_FiltersAndOrders(t *testing.T) {
	rex := animals.Animal{ID: "a1", Name: "Rex"}
	bella := animals.Animal{ID: "a2", Name: "bella"}
	dead := animals.Animal{ID: "a3", Name: "Aaron", DeceasedDate: datePtr(2024, 2, 1)}
	adopted := animals.Animal{ID: "a4", Name: "Milo", Archived: true}
	foster := animals.Animal{ID: "a5", Name: "Zoe", Archived: true, Fostered: true}

	src := &fakeSource{pending: []Record{
		{Kind: KindVaccination, ID: "r1", Animal: rex, RequiredDate: civil.Date(2024, 2, 10)},
		{Kind: KindVaccination, ID: "r2", Animal: bella, RequiredDate: civil.Date(2024, 2, 10)},
		{Kind: KindVaccination, ID: "r3", Animal: rex, RequiredDate: civil.Date(2024, 1, 30)},
		{Kind: KindVaccination, ID: "r4", Animal: dead, RequiredDate: civil.Date(2024, 2, 5)},
		{Kind: KindVaccination, ID: "r5", Animal: adopted, RequiredDate: civil.Date(2024, 2, 5)},
		{Kind: KindVaccination, ID: "r6", Animal: foster, RequiredDate: civil.Date(2024, 2, 5)},
		{Kind: KindVaccination, ID: "r7", Animal: rex, RequiredDate: civil.Date(2024, 1, 29)},
	}}
	svc := NewService(src, Options{})

	out, err := svc.Outstanding(context.Background(), KindVaccination, "m31", civil.Date(2024, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, civil.Date(2024, 1, 30), src.from)
	assert.Equal(t, civil.Date(2024, 3, 1), src.to)

	ids := make([]string, 0, len(out))
	for _, r := range out {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"r3", "r6", "r2", "r1"}, ids)

	svc = NewService(src, Options{IncludeOffShelter: true})
	out, err = svc.Outstanding(context.Background(), KindVaccination, "m31", civil.Date(2024, 3, 1))
	require.NoError(t, err)
	assert.Len(t, out, 5, "el fallecido sigue excluido")
}

func TestOutstanding_ExpiryWindowOnlyForVaccinations(t *testing.T) {
	svc := NewService(&fakeSource{}, Options{})

	_, err := svc.Outstanding(context.Background(), KindTest, "xm30", civil.Date(2024, 3, 1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Outstanding(context.Background(), Kind("surgery"), "m30", civil.Date(2024, 3, 1))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExpiring_OrderedByExpiryDate(t *testing.T) {
	a := animals.Animal{ID: "a1", Name: "Luna"}
	src := &fakeSource{expiring: []Record{
		{Kind: KindVaccination, ID: "e1", Animal: a, RequiredDate: civil.Date(2023, 1, 1), ExpiryDate: datePtr(2024, 5, 1)},
		{Kind: KindVaccination, ID: "e2", Animal: a, RequiredDate: civil.Date(2023, 6, 1), ExpiryDate: datePtr(2024, 4, 1)},
	}}
	svc := NewService(src, Options{})

	out, err := svc.Outstanding(context.Background(), KindVaccination, "xp90", civil.Date(2024, 3, 1))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "e2", out[0].ID)

	_, err = svc.Expiring(context.Background(), civil.Date(2024, 5, 1), civil.Date(2024, 4, 1))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
