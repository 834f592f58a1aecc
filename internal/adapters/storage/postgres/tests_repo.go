package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"shelter-medical/internal/domain/labtests"
)

type TestsRepo struct {
	db *sql.DB
}

func NewTestsRepo(db *sql.DB) *TestsRepo {
	return &TestsRepo{db: db}
}

const testColumns = `id, animal_id, test_type_id, result_id,
	date_required, date_performed, administering_vet_id,
	cost, cost_paid_date, comments,
	created_by, created_at, updated_at`

func (r *TestsRepo) Create(ctx context.Context, t labtests.Test) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO animal_tests (`+testColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		t.ID,
		t.AnimalID,
		t.TestTypeID,
		t.ResultID,
		t.RequiredDate,
		toNullDate(t.PerformedDate),
		t.AdministeringVetID,
		t.Cost,
		toNullDate(t.CostPaidDate),
		t.Comments,
		t.CreatedBy,
		t.CreatedAt,
		t.UpdatedAt,
	)
	return err
}

func (r *TestsRepo) Update(ctx context.Context, t labtests.Test) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE animal_tests
		SET
			animal_id = $2,
			test_type_id = $3,
			result_id = $4,
			date_required = $5,
			date_performed = $6,
			administering_vet_id = $7,
			cost = $8,
			cost_paid_date = $9,
			comments = $10,
			updated_at = $11
		WHERE id = $1
	`,
		t.ID,
		t.AnimalID,
		t.TestTypeID,
		t.ResultID,
		t.RequiredDate,
		toNullDate(t.PerformedDate),
		t.AdministeringVetID,
		t.Cost,
		toNullDate(t.CostPaidDate),
		t.Comments,
		t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return affectedOne(res, labtests.ErrNotFound)
}

func (r *TestsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM animal_tests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affectedOne(res, labtests.ErrNotFound)
}

func (r *TestsRepo) GetByID(ctx context.Context, id string) (labtests.Test, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return labtests.Test{}, labtests.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+testColumns+` FROM animal_tests WHERE id = $1`, id)
	t, err := scanTest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return labtests.Test{}, labtests.ErrNotFound
	}
	return t, err
}

func (r *TestsRepo) ListByAnimal(ctx context.Context, animalID string) ([]labtests.Test, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+testColumns+`
		FROM animal_tests
		WHERE animal_id = $1
		ORDER BY date_required, id
	`, animalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]labtests.Test, 0)
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTest(s scanner) (labtests.Test, error) {
	var (
		t               labtests.Test
		performed, paid sql.NullTime
	)
	if err := s.Scan(
		&t.ID,
		&t.AnimalID,
		&t.TestTypeID,
		&t.ResultID,
		&t.RequiredDate,
		&performed,
		&t.AdministeringVetID,
		&t.Cost,
		&paid,
		&t.Comments,
		&t.CreatedBy,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return labtests.Test{}, err
	}
	t.PerformedDate = fromNullDate(performed)
	t.CostPaidDate = fromNullDate(paid)
	return t, nil
}
