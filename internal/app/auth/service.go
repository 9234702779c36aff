package auth

import (
	"context"

	"github.com/contactbook/backend/internal/adapters/transport/http/dto"
	"github.com/contactbook/backend/internal/domain/model"
)

type Service interface {
	// Register creates an unconfirmed account and dispatches the
	// confirmation mail off the request path.
	Register(ctx context.Context, in dto.RegisterDTO) (model.Profile, error)

	// Login verifies credentials, issues an access+refresh pair and
	// overwrites the account's refresh-token slot, invalidating any
	// previously issued refresh token.
	Login(ctx context.Context, in dto.LoginDTO) (model.TokenPair, error)

	// Refresh exchanges a still-valid refresh token for a new access
	// token. The refresh token itself is echoed back unrotated.
	Refresh(ctx context.Context, in dto.RefreshDTO) (model.TokenPair, error)

	// CurrentUser resolves an access token to the cached profile,
	// falling back to persistence on any cache miss or cache failure.
	CurrentUser(ctx context.Context, accessToken string) (model.Profile, error)

	// RequireRole gates privileged operations.
	RequireRole(p model.Profile, role model.Role) error

	// ConfirmEmail redeems a confirmation token. The returned flag is
	// false when the account was already confirmed.
	ConfirmEmail(ctx context.Context, rawToken string) (bool, error)

	// ResendConfirmation re-issues the confirmation mail. Safe to call
	// repeatedly; never reveals whether the address is registered.
	ResendConfirmation(ctx context.Context, email string) error

	// RequestPasswordReset mails a one-hour reset token. Never reveals
	// whether the address is registered.
	RequestPasswordReset(ctx context.Context, email string) error

	// ResetPassword redeems a reset token and stores the new credential.
	ResetPassword(ctx context.Context, in dto.ResetPasswordDTO) error
}
