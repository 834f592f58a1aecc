package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"shelter-medical/internal/domain/vaccinations"
)

type VaccinationsRepo struct {
	db *sql.DB
}

func NewVaccinationsRepo(db *sql.DB) *VaccinationsRepo {
	return &VaccinationsRepo{db: db}
}

var _ vaccinations.Repository = (*VaccinationsRepo)(nil)

const vaccinationColumns = `id, animal_id, vaccination_type_id,
	date_required, date_given, date_expires,
	administering_vet_id, batch_number, manufacturer,
	cost, cost_paid_date, comments,
	created_by, created_at, updated_at`

func (r *VaccinationsRepo) Create(ctx context.Context, v vaccinations.Vaccination) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO animal_vaccinations (`+vaccinationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		v.ID,
		v.AnimalID,
		v.VaccinationTypeID,
		v.RequiredDate,
		toNullDate(v.GivenDate),
		toNullDate(v.ExpiryDate),
		v.AdministeringVetID,
		v.BatchNumber,
		v.Manufacturer,
		v.Cost,
		toNullDate(v.CostPaidDate),
		v.Comments,
		v.CreatedBy,
		v.CreatedAt,
		v.UpdatedAt,
	)
	return err
}

func (r *VaccinationsRepo) Update(ctx context.Context, v vaccinations.Vaccination) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE animal_vaccinations
		SET
			animal_id = $2,
			vaccination_type_id = $3,
			date_required = $4,
			date_given = $5,
			date_expires = $6,
			administering_vet_id = $7,
			batch_number = $8,
			manufacturer = $9,
			cost = $10,
			cost_paid_date = $11,
			comments = $12,
			updated_at = $13
		WHERE id = $1
	`,
		v.ID,
		v.AnimalID,
		v.VaccinationTypeID,
		v.RequiredDate,
		toNullDate(v.GivenDate),
		toNullDate(v.ExpiryDate),
		v.AdministeringVetID,
		v.BatchNumber,
		v.Manufacturer,
		v.Cost,
		toNullDate(v.CostPaidDate),
		v.Comments,
		v.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return affectedOne(res, vaccinations.ErrNotFound)
}

func (r *VaccinationsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM animal_vaccinations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affectedOne(res, vaccinations.ErrNotFound)
}

func (r *VaccinationsRepo) GetByID(ctx context.Context, id string) (vaccinations.Vaccination, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return vaccinations.Vaccination{}, vaccinations.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+vaccinationColumns+` FROM animal_vaccinations WHERE id = $1`, id)
	v, err := scanVaccination(row)
	if errors.Is(err, sql.ErrNoRows) {
		return vaccinations.Vaccination{}, vaccinations.ErrNotFound
	}
	return v, err
}

func (r *VaccinationsRepo) ListByAnimal(ctx context.Context, animalID string) ([]vaccinations.Vaccination, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+vaccinationColumns+`
		FROM animal_vaccinations
		WHERE animal_id = $1
		ORDER BY seq
	`, animalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]vaccinations.Vaccination, 0)
	for rows.Next() {
		v, err := scanVaccination(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// LastBatches toma, por tipo, el registro aplicado con lote de mayor seq
// (el último insertado).
func (r *VaccinationsRepo) LastBatches(ctx context.Context) ([]vaccinations.TypeBatch, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT ON (vaccination_type_id)
			vaccination_type_id, batch_number, manufacturer
		FROM animal_vaccinations
		WHERE date_given IS NOT NULL AND batch_number <> ''
		ORDER BY vaccination_type_id, seq DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]vaccinations.TypeBatch, 0)
	for rows.Next() {
		var b vaccinations.TypeBatch
		if err := rows.Scan(&b.VaccinationTypeID, &b.BatchNumber, &b.Manufacturer); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *VaccinationsRepo) Manufacturers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT manufacturer
		FROM animal_vaccinations
		WHERE manufacturer <> ''
		ORDER BY manufacturer
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanVaccination(s scanner) (vaccinations.Vaccination, error) {
	var (
		v                    vaccinations.Vaccination
		given, expires, paid sql.NullTime
	)
	if err := s.Scan(
		&v.ID,
		&v.AnimalID,
		&v.VaccinationTypeID,
		&v.RequiredDate,
		&given,
		&expires,
		&v.AdministeringVetID,
		&v.BatchNumber,
		&v.Manufacturer,
		&v.Cost,
		&paid,
		&v.Comments,
		&v.CreatedBy,
		&v.CreatedAt,
		&v.UpdatedAt,
	); err != nil {
		return vaccinations.Vaccination{}, err
	}
	v.GivenDate = fromNullDate(given)
	v.ExpiryDate = fromNullDate(expires)
	v.CostPaidDate = fromNullDate(paid)
	return v, nil
}
