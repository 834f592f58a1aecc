package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"shelter-medical/internal/domain/animals"
)

type AnimalsRepo struct {
	db *sql.DB
}

func NewAnimalsRepo(db *sql.DB) *AnimalsRepo {
	return &AnimalsRepo{db: db}
}

const animalColumns = `id, name, shelter_code, species, deceased_date, archived, fostered, created_at, updated_at`

func (r *AnimalsRepo) Create(ctx context.Context, a animals.Animal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO animals (`+animalColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		a.ID,
		a.Name,
		a.ShelterCode,
		string(a.Species),
		toNullDate(a.DeceasedDate),
		a.Archived,
		a.Fostered,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

func (r *AnimalsRepo) Update(ctx context.Context, a animals.Animal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE animals
		SET
			name = $2,
			shelter_code = $3,
			species = $4,
			deceased_date = $5,
			archived = $6,
			fostered = $7,
			updated_at = $8
		WHERE id = $1
	`,
		a.ID,
		a.Name,
		a.ShelterCode,
		string(a.Species),
		toNullDate(a.DeceasedDate),
		a.Archived,
		a.Fostered,
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return affectedOne(res, animals.ErrNotFound)
}

func (r *AnimalsRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return animals.Animal{}, animals.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+animalColumns+` FROM animals WHERE id = $1`, id)
	a, err := scanAnimal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return animals.Animal{}, animals.ErrNotFound
	}
	return a, err
}

func (r *AnimalsRepo) List(ctx context.Context) ([]animals.Animal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+animalColumns+` FROM animals ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]animals.Animal, 0)
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAnimal(s scanner) (animals.Animal, error) {
	var (
		a        animals.Animal
		species  string
		deceased sql.NullTime
	)
	if err := s.Scan(
		&a.ID,
		&a.Name,
		&a.ShelterCode,
		&species,
		&deceased,
		&a.Archived,
		&a.Fostered,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return animals.Animal{}, err
	}
	a.Species = animals.Species(species)
	a.DeceasedDate = fromNullDate(deceased)
	return a, nil
}
