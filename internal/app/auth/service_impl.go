package auth

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/adapters/transport/http/dto"
	"github.com/contactbook/backend/internal/app/password"
	"github.com/contactbook/backend/internal/app/token"
	customErrors "github.com/contactbook/backend/internal/domain/errors"
	"github.com/contactbook/backend/internal/domain/model"
	"github.com/contactbook/backend/internal/domain/repo"
)

const (
	// cacheTTL bounds staleness of the session cache.
	cacheTTL = time.Hour

	// mailTimeout bounds the detached delivery goroutine.
	mailTimeout = 30 * time.Second

	tokenTypeBearer = "bearer"

	templateVerifyEmail = "verify_email"
	templateResetEmail  = "reset_email"
)

type authService struct {
	userRepo repo.UserRepo
	cache    repo.UserCache
	mailer   repo.Mailer
	codec    *token.Codec
	v        *validator.Validate
	log      *zap.Logger
	baseURL  string
}

func New(
	ur repo.UserRepo,
	cache repo.UserCache,
	mailer repo.Mailer,
	codec *token.Codec,
	v *validator.Validate,
	log *zap.Logger,
	baseURL string,
) Service {
	return &authService{
		userRepo: ur, cache: cache, mailer: mailer,
		codec: codec, v: v, log: log, baseURL: baseURL,
	}
}

func (a *authService) Register(ctx context.Context, in dto.RegisterDTO) (model.Profile, error) {
	if err := a.v.Struct(in); err != nil {
		return model.Profile{}, customErrors.NewInvalidArgument(err.Error())
	}

	if _, err := a.userRepo.GetUserByEmail(ctx, in.Email); err == nil {
		return model.Profile{}, fmt.Errorf("%w: user with this email", customErrors.ErrAlreadyExists)
	} else if !errors.Is(err, customErrors.ErrNotFound) {
		return model.Profile{}, customErrors.WrapInternal(err, "Register")
	}
	if _, err := a.userRepo.GetUserByUsername(ctx, in.Username); err == nil {
		return model.Profile{}, fmt.Errorf("%w: user with this username", customErrors.ErrAlreadyExists)
	} else if !errors.Is(err, customErrors.ErrNotFound) {
		return model.Profile{}, customErrors.WrapInternal(err, "Register")
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		return model.Profile{}, customErrors.WrapInternal(err, "Register")
	}

	user := model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Avatar:       gravatarURL(in.Email),
		Role:         model.RoleUser,
		Confirmed:    false,
	}
	created, err := a.userRepo.CreateUser(ctx, user)
	if err != nil {
		// two registrations can race past the lookups above
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return model.Profile{}, customErrors.ErrAlreadyExists
		}
		return model.Profile{}, customErrors.WrapInternal(err, "Register")
	}

	a.dispatchConfirmation(created.Email, created.Username)

	return created.Profile(), nil
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByUsername(ctx, in.Username)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	case err != nil:
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	if !password.Verify(in.Password, user.PasswordHash) {
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	}
	if !user.Confirmed {
		return model.TokenPair{}, customErrors.ErrEmailNotConfirmed
	}

	access, err := a.codec.Issue(user.Username, token.PurposeAccess)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}
	refresh, err := a.codec.Issue(user.Username, token.PurposeRefresh)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	// Overwriting the slot is the revocation mechanism: at most one
	// refresh token per account is ever redeemable. Last writer wins
	// under concurrent logins.
	if err := a.userRepo.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	return model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenTypeBearer,
	}, nil
}

func (a *authService) Refresh(ctx context.Context, in dto.RefreshDTO) (model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	claims, err := a.codec.Parse(in.RefreshToken, token.PurposeRefresh)
	if err != nil {
		// expired, malformed and mistyped all collapse to one answer:
		// the caller has to log in again
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	user, err := a.userRepo.GetUserByUsername(ctx, claims.Subject)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.TokenPair{}, customErrors.ErrInvalidToken
	case err != nil:
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}

	// A token that no longer matches the stored slot was superseded by a
	// later login.
	if user.RefreshToken == "" || user.RefreshToken != in.RefreshToken {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	access, err := a.codec.Issue(user.Username, token.PurposeAccess)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}

	// The refresh token is deliberately not rotated on use; it stays
	// valid until the next login overwrites it.
	return model.TokenPair{
		AccessToken:  access,
		RefreshToken: in.RefreshToken,
		TokenType:    tokenTypeBearer,
	}, nil
}

func (a *authService) CurrentUser(ctx context.Context, accessToken string) (model.Profile, error) {
	claims, err := a.codec.Parse(accessToken, token.PurposeAccess)
	switch {
	case errors.Is(err, customErrors.ErrExpiredToken):
		return model.Profile{}, customErrors.ErrExpiredToken
	case err != nil:
		return model.Profile{}, customErrors.ErrUnauthorized
	}

	username := claims.Subject

	// Cache-aside on the hot path: a broken cache degrades to the user
	// repo, it never fails the request.
	if p, ok, err := a.cache.Get(ctx, username); err != nil {
		a.log.Warn("session cache read failed, falling back to storage",
			zap.String("username", username), zap.Error(err))
	} else if ok {
		return p, nil
	}

	user, err := a.userRepo.GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.Profile{}, customErrors.ErrUnauthorized
	case err != nil:
		return model.Profile{}, customErrors.WrapInternal(err, "CurrentUser")
	}

	p := user.Profile()
	if err := a.cache.Set(ctx, p, cacheTTL); err != nil {
		a.log.Warn("session cache write failed",
			zap.String("username", username), zap.Error(err))
	}
	return p, nil
}

func (a *authService) RequireRole(p model.Profile, role model.Role) error {
	if p.Role != role {
		return customErrors.ErrForbidden
	}
	return nil
}

func (a *authService) ConfirmEmail(ctx context.Context, rawToken string) (bool, error) {
	claims, err := a.codec.Parse(rawToken, token.PurposeEmailConfirm)
	if err != nil {
		return false, customErrors.ErrUnprocessableToken
	}
	email := claims.Subject

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return false, customErrors.ErrNotFound
	case err != nil:
		return false, customErrors.WrapInternal(err, "ConfirmEmail")
	}

	if user.Confirmed {
		return false, nil
	}
	if err := a.userRepo.ConfirmEmail(ctx, email); err != nil {
		return false, customErrors.WrapInternal(err, "ConfirmEmail")
	}
	return true, nil
}

func (a *authService) ResendConfirmation(ctx context.Context, email string) error {
	if err := a.v.Var(email, "required,email"); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return nil // do not reveal whether the address is registered
	case err != nil:
		return customErrors.WrapInternal(err, "ResendConfirmation")
	}

	if user.Confirmed {
		return nil
	}
	a.dispatchConfirmation(user.Email, user.Username)
	return nil
}

func (a *authService) RequestPasswordReset(ctx context.Context, email string) error {
	if err := a.v.Var(email, "required,email"); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return nil
	case err != nil:
		return customErrors.WrapInternal(err, "RequestPasswordReset")
	}

	reset, err := a.codec.Issue(user.Email, token.PurposePasswordReset)
	if err != nil {
		return customErrors.WrapInternal(err, "RequestPasswordReset")
	}
	a.dispatch(user.Email, templateResetEmail, map[string]any{
		"username": user.Username,
		"token":    reset,
		"host":     a.baseURL,
	})
	return nil
}

func (a *authService) ResetPassword(ctx context.Context, in dto.ResetPasswordDTO) error {
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	claims, err := a.codec.Parse(in.Token, token.PurposePasswordReset)
	if err != nil {
		return customErrors.ErrInvalidToken
	}

	user, err := a.userRepo.GetUserByEmail(ctx, claims.Subject)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return customErrors.ErrNotFound
	case err != nil:
		return customErrors.WrapInternal(err, "ResetPassword")
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		return customErrors.WrapInternal(err, "ResetPassword")
	}
	if err := a.userRepo.SetPasswordHash(ctx, user.ID, hash); err != nil {
		return customErrors.WrapInternal(err, "ResetPassword")
	}
	return nil
}

func (a *authService) dispatchConfirmation(email, username string) {
	confirm, err := a.codec.Issue(email, token.PurposeEmailConfirm)
	if err != nil {
		a.log.Error("issue confirmation token", zap.Error(err))
		return
	}
	a.dispatch(email, templateVerifyEmail, map[string]any{
		"username": username,
		"token":    confirm,
		"host":     a.baseURL,
	})
}

// dispatch hands the message to the mailer in a detached goroutine so no
// request ever blocks on SMTP. Failures are logged, never surfaced.
func (a *authService) dispatch(to, templateName string, vars map[string]any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := a.mailer.Send(ctx, to, templateName, vars); err != nil {
			a.log.Warn("mail delivery failed",
				zap.String("template", templateName), zap.Error(err))
		}
	}()
}

func gravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?d=identicon", sum)
}
