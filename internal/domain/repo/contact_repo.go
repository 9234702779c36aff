package repo

import (
	"context"

	"github.com/contactbook/backend/internal/domain/model"
)

type ContactRepo interface {
	Create(ctx context.Context, c model.Contact) (model.Contact, error)

	GetByID(ctx context.Context, ownerID, id uint) (model.Contact, error)

	List(ctx context.Context, ownerID uint, limit, offset int) ([]model.Contact, error)

	// AllByOwner returns every contact of the owner, for queries that
	// filter in memory (birthday window).
	AllByOwner(ctx context.Context, ownerID uint) ([]model.Contact, error)

	Update(ctx context.Context, c model.Contact) (model.Contact, error)

	Delete(ctx context.Context, ownerID, id uint) error

	// Search matches q as a case-insensitive substring of name, lastname
	// or email, scoped to the owner.
	Search(ctx context.Context, ownerID uint, q string, limit, offset int) ([]model.Contact, error)
}
