package profiles

import "context"

type Repository interface {
	Create(ctx context.Context, p Profile) error
	Update(ctx context.Context, p Profile) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Profile, error)
	List(ctx context.Context) ([]Profile, error)
}
