package vaccinations

import "context"

type Repository interface {
	Create(ctx context.Context, v Vaccination) error
	Update(ctx context.Context, v Vaccination) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Vaccination, error)
	ListByAnimal(ctx context.Context, animalID string) ([]Vaccination, error)

	// LastBatches: por tipo, el lote del registro aplicado más reciente con
	// BatchNumber no vacío.
	LastBatches(ctx context.Context) ([]TypeBatch, error)
	// Manufacturers: fabricantes distintos, no vacíos, ordenados.
	Manufacturers(ctx context.Context) ([]string, error)
}
