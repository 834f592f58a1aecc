package labtests

import "context"

type Repository interface {
	Create(ctx context.Context, t Test) error
	Update(ctx context.Context, t Test) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Test, error)
	ListByAnimal(ctx context.Context, animalID string) ([]Test, error)
}
