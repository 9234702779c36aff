package repo

import (
	"context"

	"github.com/contactbook/backend/internal/domain/model"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u model.User) (model.User, error)

	GetUserByID(ctx context.Context, id uint) (model.User, error)

	GetUserByUsername(ctx context.Context, username string) (model.User, error)

	GetUserByEmail(ctx context.Context, email string) (model.User, error)

	// SetRefreshToken overwrites the single refresh-token slot of the user.
	SetRefreshToken(ctx context.Context, id uint, token string) error

	// SetPasswordHash replaces the credential in a single update.
	SetPasswordHash(ctx context.Context, id uint, hash string) error

	// ConfirmEmail flips the confirmed flag for the given address.
	ConfirmEmail(ctx context.Context, email string) error

	// SetAvatar stores a new avatar URL and returns the updated row.
	SetAvatar(ctx context.Context, email string, url string) (model.User, error)

	// UpdateIdentity rewrites username and/or email in one statement;
	// an empty value leaves the column untouched.
	UpdateIdentity(ctx context.Context, id uint, username, email string) (model.User, error)

	// SetRole changes the account role and returns the updated row.
	SetRole(ctx context.Context, id uint, role model.Role) (model.User, error)
}
