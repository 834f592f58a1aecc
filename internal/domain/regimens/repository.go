package regimens

import (
	"context"
	"time"
)

// Store es el contrato de persistencia de regímenes y tratamientos. Todas las
// operaciones por ID devuelven ErrNotFound si la fila no existe.
type Store interface {
	CreateRegimen(ctx context.Context, r Regimen) error
	ReadRegimen(ctx context.Context, id string) (Regimen, error)
	UpdateRegimen(ctx context.Context, r Regimen) error
	// DeleteRegimen borra el régimen y todos sus tratamientos.
	DeleteRegimen(ctx context.Context, id string) error
	ListRegimensByAnimal(ctx context.Context, animalID string) ([]Regimen, error)

	UpdateRegimenStatus(ctx context.Context, id string, status Status) error
	UpdateRegimenCounters(ctx context.Context, id string, given, remaining int) error

	ReadTreatment(ctx context.Context, id string) (Treatment, error)
	ReadTreatments(ctx context.Context, regimenID string) ([]Treatment, error)
	ListTreatmentsByAnimal(ctx context.Context, animalID string) ([]Treatment, error)
	CreateTreatmentBatch(ctx context.Context, rows []Treatment) error
	MarkTreatmentGiven(ctx context.Context, id string, g Given) error
	UpdateTreatmentRequired(ctx context.Context, id string, required time.Time) error
	DeleteTreatment(ctx context.Context, id string) error
}

// Repository agrega la sección crítica por régimen. Dentro de fn se debe usar
// el Store recibido (en Postgres es la transacción).
type Repository interface {
	Store
	WithRegimenLock(ctx context.Context, regimenID string, fn func(ctx context.Context, st Store) error) error
}
