package postgres

import (
	"context"
	"database/sql"
	"time"

	"shelter-medical/internal/domain/animals"
	"shelter-medical/internal/domain/duewindows"
)

// DueSource resuelve las ventanas de reportes con un JOIN contra animals.
type DueSource struct {
	db *sql.DB
}

func NewDueSource(db *sql.DB) *DueSource {
	return &DueSource{db: db}
}

var _ duewindows.Source = (*DueSource)(nil)

const dueAnimalColumns = `a.id, a.name, a.shelter_code, a.species, a.deceased_date, a.archived, a.fostered`

func (s *DueSource) PendingVaccinations(ctx context.Context, from, to time.Time) ([]duewindows.Record, error) {
	return s.query(ctx, duewindows.KindVaccination, `
		SELECT `+dueAnimalColumns+`,
			v.id, v.vaccination_type_id, '', 0, 0,
			v.date_required, v.date_given, v.date_expires, v.comments
		FROM animal_vaccinations v
		JOIN animals a ON a.id = v.animal_id
		WHERE v.date_given IS NULL
			AND v.date_required BETWEEN $1 AND $2
	`, from, to)
}

func (s *DueSource) PendingTests(ctx context.Context, from, to time.Time) ([]duewindows.Record, error) {
	return s.query(ctx, duewindows.KindTest, `
		SELECT `+dueAnimalColumns+`,
			t.id, t.test_type_id, '', 0, 0,
			t.date_required, t.date_performed, NULL::date, t.comments
		FROM animal_tests t
		JOIN animals a ON a.id = t.animal_id
		WHERE t.date_performed IS NULL
			AND t.date_required BETWEEN $1 AND $2
	`, from, to)
}

func (s *DueSource) PendingTreatments(ctx context.Context, from, to time.Time) ([]duewindows.Record, error) {
	return s.query(ctx, duewindows.KindTreatment, `
		SELECT `+dueAnimalColumns+`,
			t.id, r.treatment_name, r.id, t.treatment_number, t.total_treatments,
			t.date_required, t.date_given, NULL::date, t.comments
		FROM medical_treatments t
		JOIN medical_regimens r ON r.id = t.regimen_id
		JOIN animals a ON a.id = t.animal_id
		WHERE t.date_given IS NULL
			AND r.status = 'active'
			AND t.date_required BETWEEN $1 AND $2
	`, from, to)
}

// ExpiringVaccinations excluye con NOT EXISTS los registros que ya tienen
// otra dosis del mismo tipo requerida en o después de su aplicación.
func (s *DueSource) ExpiringVaccinations(ctx context.Context, from, to time.Time) ([]duewindows.Record, error) {
	return s.query(ctx, duewindows.KindVaccination, `
		SELECT `+dueAnimalColumns+`,
			v.id, v.vaccination_type_id, '', 0, 0,
			v.date_required, v.date_given, v.date_expires, v.comments
		FROM animal_vaccinations v
		JOIN animals a ON a.id = v.animal_id
		WHERE v.date_given IS NOT NULL
			AND v.date_expires BETWEEN $1 AND $2
			AND NOT EXISTS (
				SELECT 1
				FROM animal_vaccinations v2
				WHERE v2.id <> v.id
					AND v2.animal_id = v.animal_id
					AND v2.vaccination_type_id = v.vaccination_type_id
					AND v2.date_required >= v.date_given
			)
	`, from, to)
}

func (s *DueSource) query(ctx context.Context, kind duewindows.Kind, query string, from, to time.Time) ([]duewindows.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]duewindows.Record, 0)
	for rows.Next() {
		var (
			rec            duewindows.Record
			species        string
			deceased       sql.NullTime
			given, expires sql.NullTime
			a              animals.Animal
		)
		if err := rows.Scan(
			&a.ID, &a.Name, &a.ShelterCode, &species, &deceased, &a.Archived, &a.Fostered,
			&rec.ID, &rec.TypeID, &rec.RegimenID, &rec.TreatmentNumber, &rec.TotalTreatments,
			&rec.RequiredDate, &given, &expires, &rec.Comments,
		); err != nil {
			return nil, err
		}
		a.Species = animals.Species(species)
		a.DeceasedDate = fromNullDate(deceased)

		rec.Kind = kind
		rec.Animal = a
		rec.GivenDate = fromNullDate(given)
		rec.ExpiryDate = fromNullDate(expires)
		out = append(out, rec)
	}
	return out, rows.Err()
}
