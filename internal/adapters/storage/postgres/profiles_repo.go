package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"shelter-medical/internal/domain/profiles"
	"shelter-medical/internal/domain/schedule"
)

type ProfilesRepo struct {
	db *sql.DB
}

func NewProfilesRepo(db *sql.DB) *ProfilesRepo {
	return &ProfilesRepo{db: db}
}

const profileColumns = `id, profile_name, treatment_name, dosage, cost,
	timing_rule, frequency, interval_n, treatment_rule, total_cycles,
	comments, created_by, created_at, updated_at`

func (r *ProfilesRepo) Create(ctx context.Context, p profiles.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medical_profiles (`+profileColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		p.ID,
		p.ProfileName,
		p.TreatmentName,
		p.Dosage,
		p.Cost,
		p.Rule.TimingRule,
		string(p.Rule.Frequency),
		p.Rule.Interval,
		string(p.Rule.TreatmentRule),
		p.Rule.TotalCycles,
		p.Comments,
		p.CreatedBy,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *ProfilesRepo) Update(ctx context.Context, p profiles.Profile) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medical_profiles
		SET
			profile_name = $2,
			treatment_name = $3,
			dosage = $4,
			cost = $5,
			timing_rule = $6,
			frequency = $7,
			interval_n = $8,
			treatment_rule = $9,
			total_cycles = $10,
			comments = $11,
			updated_at = $12
		WHERE id = $1
	`,
		p.ID,
		p.ProfileName,
		p.TreatmentName,
		p.Dosage,
		p.Cost,
		p.Rule.TimingRule,
		string(p.Rule.Frequency),
		p.Rule.Interval,
		string(p.Rule.TreatmentRule),
		p.Rule.TotalCycles,
		p.Comments,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return affectedOne(res, profiles.ErrNotFound)
}

func (r *ProfilesRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medical_profiles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affectedOne(res, profiles.ErrNotFound)
}

func (r *ProfilesRepo) GetByID(ctx context.Context, id string) (profiles.Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return profiles.Profile{}, profiles.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM medical_profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return profiles.Profile{}, profiles.ErrNotFound
	}
	return p, err
}

func (r *ProfilesRepo) List(ctx context.Context) ([]profiles.Profile, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM medical_profiles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]profiles.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProfile(s scanner) (profiles.Profile, error) {
	var (
		p             profiles.Profile
		frequency     string
		treatmentRule string
	)
	if err := s.Scan(
		&p.ID,
		&p.ProfileName,
		&p.TreatmentName,
		&p.Dosage,
		&p.Cost,
		&p.Rule.TimingRule,
		&frequency,
		&p.Rule.Interval,
		&treatmentRule,
		&p.Rule.TotalCycles,
		&p.Comments,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return profiles.Profile{}, err
	}
	p.Rule.Frequency = schedule.Frequency(frequency)
	p.Rule.TreatmentRule = schedule.TreatmentRule(treatmentRule)
	return p, nil
}
