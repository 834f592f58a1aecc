package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"shelter-medical/internal/domain/regimens"
	"shelter-medical/internal/domain/schedule"
)

// RegimensRepo implementa regimens.Repository. Fuera del lock usa el pool;
// dentro, una transacción con pg_advisory_xact_lock sobre el ID del régimen,
// así dos avances del mismo régimen nunca se pisan.
type RegimensRepo struct {
	regimenStore
	db *sql.DB
}

func NewRegimensRepo(db *sql.DB) *RegimensRepo {
	return &RegimensRepo{regimenStore: regimenStore{q: db}, db: db}
}

var _ regimens.Repository = (*RegimensRepo)(nil)

func (r *RegimensRepo) WithRegimenLock(ctx context.Context, regimenID string, fn func(ctx context.Context, st regimens.Store) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, regimenID); err != nil {
		return err
	}
	if err := fn(ctx, regimenStore{q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

type regimenStore struct {
	q execer
}

const regimenColumns = `id, animal_id, profile_id, treatment_name, dosage, start_date, status,
	cost, cost_paid_date,
	timing_rule, frequency, interval_n, treatment_rule, total_cycles,
	treatments_given, treatments_remaining,
	comments, created_by, created_at, updated_at`

const treatmentColumns = `id, regimen_id, animal_id, date_required, date_given, given_by,
	treatment_number, total_treatments, administering_vet_id, comments, created_at`

func (s regimenStore) CreateRegimen(ctx context.Context, r regimens.Regimen) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO medical_regimens (`+regimenColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`,
		r.ID,
		r.AnimalID,
		r.ProfileID,
		r.TreatmentName,
		r.Dosage,
		r.StartDate,
		string(r.Status),
		r.Cost,
		toNullDate(r.CostPaidDate),
		r.Rule.TimingRule,
		string(r.Rule.Frequency),
		r.Rule.Interval,
		string(r.Rule.TreatmentRule),
		r.Rule.TotalCycles,
		r.TreatmentsGiven,
		r.TreatmentsRemaining,
		r.Comments,
		r.CreatedBy,
		r.CreatedAt,
		r.UpdatedAt,
	)
	return err
}

func (s regimenStore) ReadRegimen(ctx context.Context, id string) (regimens.Regimen, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+regimenColumns+` FROM medical_regimens WHERE id = $1`, id)
	r, err := scanRegimen(row)
	if errors.Is(err, sql.ErrNoRows) {
		return regimens.Regimen{}, regimens.ErrNotFound
	}
	return r, err
}

// UpdateRegimen no toca la regla ni los contadores.
func (s regimenStore) UpdateRegimen(ctx context.Context, r regimens.Regimen) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE medical_regimens
		SET
			treatment_name = $2,
			dosage = $3,
			start_date = $4,
			status = $5,
			cost = $6,
			cost_paid_date = $7,
			comments = $8,
			updated_at = $9
		WHERE id = $1
	`,
		r.ID,
		r.TreatmentName,
		r.Dosage,
		r.StartDate,
		string(r.Status),
		r.Cost,
		toNullDate(r.CostPaidDate),
		r.Comments,
		r.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return affectedOne(res, regimens.ErrNotFound)
}

// DeleteRegimen: los tratamientos se borran por ON DELETE CASCADE.
func (s regimenStore) DeleteRegimen(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM medical_regimens WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affectedOne(res, regimens.ErrNotFound)
}

func (s regimenStore) ListRegimensByAnimal(ctx context.Context, animalID string) ([]regimens.Regimen, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+regimenColumns+`
		FROM medical_regimens
		WHERE animal_id = $1
		ORDER BY id
	`, animalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]regimens.Regimen, 0)
	for rows.Next() {
		r, err := scanRegimen(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s regimenStore) UpdateRegimenStatus(ctx context.Context, id string, status regimens.Status) error {
	res, err := s.q.ExecContext(ctx, `UPDATE medical_regimens SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	return affectedOne(res, regimens.ErrNotFound)
}

func (s regimenStore) UpdateRegimenCounters(ctx context.Context, id string, given, remaining int) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE medical_regimens
		SET treatments_given = $2, treatments_remaining = $3
		WHERE id = $1
	`, id, given, remaining)
	if err != nil {
		return err
	}
	return affectedOne(res, regimens.ErrNotFound)
}

func (s regimenStore) ReadTreatment(ctx context.Context, id string) (regimens.Treatment, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+treatmentColumns+` FROM medical_treatments WHERE id = $1`, id)
	t, err := scanTreatment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return regimens.Treatment{}, regimens.ErrNotFound
	}
	return t, err
}

func (s regimenStore) ReadTreatments(ctx context.Context, regimenID string) ([]regimens.Treatment, error) {
	return s.queryTreatments(ctx, `
		SELECT `+treatmentColumns+`
		FROM medical_treatments
		WHERE regimen_id = $1
		ORDER BY date_required, treatment_number, id
	`, regimenID)
}

func (s regimenStore) ListTreatmentsByAnimal(ctx context.Context, animalID string) ([]regimens.Treatment, error) {
	return s.queryTreatments(ctx, `
		SELECT `+treatmentColumns+`
		FROM medical_treatments
		WHERE animal_id = $1
		ORDER BY date_required, treatment_number, id
	`, animalID)
}

func (s regimenStore) queryTreatments(ctx context.Context, query string, args ...any) ([]regimens.Treatment, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]regimens.Treatment, 0)
	for rows.Next() {
		t, err := scanTreatment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s regimenStore) CreateTreatmentBatch(ctx context.Context, batch []regimens.Treatment) error {
	for _, t := range batch {
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO medical_treatments (`+treatmentColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`,
			t.ID,
			t.RegimenID,
			t.AnimalID,
			t.RequiredDate,
			toNullDate(t.GivenDate),
			t.GivenBy,
			t.TreatmentNumber,
			t.TotalTreatments,
			t.AdministeringVetID,
			t.Comments,
			t.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s regimenStore) MarkTreatmentGiven(ctx context.Context, id string, g regimens.Given) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE medical_treatments
		SET
			date_given = $2,
			given_by = $3,
			administering_vet_id = $4,
			comments = CASE WHEN $5::text = '' THEN comments ELSE $5::text END
		WHERE id = $1
	`, id, g.Date, g.By, g.VetID, g.Comments)
	if err != nil {
		return err
	}
	return affectedOne(res, regimens.ErrNotFound)
}

func (s regimenStore) UpdateTreatmentRequired(ctx context.Context, id string, required time.Time) error {
	res, err := s.q.ExecContext(ctx, `UPDATE medical_treatments SET date_required = $2 WHERE id = $1`, id, required)
	if err != nil {
		return err
	}
	return affectedOne(res, regimens.ErrNotFound)
}

func (s regimenStore) DeleteTreatment(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM medical_treatments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affectedOne(res, regimens.ErrNotFound)
}

func scanRegimen(s scanner) (regimens.Regimen, error) {
	var (
		r             regimens.Regimen
		status        string
		paid          sql.NullTime
		frequency     string
		treatmentRule string
	)
	if err := s.Scan(
		&r.ID,
		&r.AnimalID,
		&r.ProfileID,
		&r.TreatmentName,
		&r.Dosage,
		&r.StartDate,
		&status,
		&r.Cost,
		&paid,
		&r.Rule.TimingRule,
		&frequency,
		&r.Rule.Interval,
		&treatmentRule,
		&r.Rule.TotalCycles,
		&r.TreatmentsGiven,
		&r.TreatmentsRemaining,
		&r.Comments,
		&r.CreatedBy,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		return regimens.Regimen{}, err
	}
	r.Status = regimens.Status(status)
	r.CostPaidDate = fromNullDate(paid)
	r.Rule.Frequency = schedule.Frequency(frequency)
	r.Rule.TreatmentRule = schedule.TreatmentRule(treatmentRule)
	return r, nil
}

func scanTreatment(s scanner) (regimens.Treatment, error) {
	var (
		t     regimens.Treatment
		given sql.NullTime
	)
	if err := s.Scan(
		&t.ID,
		&t.RegimenID,
		&t.AnimalID,
		&t.RequiredDate,
		&given,
		&t.GivenBy,
		&t.TreatmentNumber,
		&t.TotalTreatments,
		&t.AdministeringVetID,
		&t.Comments,
		&t.CreatedAt,
	); err != nil {
		return regimens.Treatment{}, err
	}
	t.GivenDate = fromNullDate(given)
	return t, nil
}
