package users

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/adapters/transport/http/dto"
	customErrors "github.com/contactbook/backend/internal/domain/errors"
	"github.com/contactbook/backend/internal/domain/model"
	"github.com/contactbook/backend/internal/domain/repo"
)

const cacheTTL = time.Hour

type Service interface {
	GetByUsername(ctx context.Context, username string) (model.Profile, error)

	// UpdateAvatar uploads the image to object storage and stores the
	// resulting URL on the user row.
	UpdateAvatar(ctx context.Context, email string, r io.Reader, size int64, contentType string) (model.Profile, error)

	// Update rewrites username and/or email of the target account.
	Update(ctx context.Context, id uint, in dto.UserUpdateDTO) (model.Profile, error)

	// AssignRole changes the target account's role.
	AssignRole(ctx context.Context, id uint, role model.Role) (model.Profile, error)
}

type userService struct {
	users   repo.UserRepo
	cache   repo.UserCache
	avatars repo.AvatarStore
	v       *validator.Validate
	log     *zap.Logger
}

func New(ur repo.UserRepo, cache repo.UserCache, avatars repo.AvatarStore, v *validator.Validate, log *zap.Logger) Service {
	return &userService{users: ur, cache: cache, avatars: avatars, v: v, log: log}
}

func (s *userService) GetByUsername(ctx context.Context, username string) (model.Profile, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, customErrors.ErrNotFound) {
			return model.Profile{}, customErrors.ErrNotFound
		}
		return model.Profile{}, customErrors.WrapInternal(err, "GetByUsername")
	}
	return u.Profile(), nil
}

func (s *userService) UpdateAvatar(ctx context.Context, email string, r io.Reader, size int64, contentType string) (model.Profile, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, customErrors.ErrNotFound) {
			return model.Profile{}, customErrors.ErrNotFound
		}
		return model.Profile{}, customErrors.WrapInternal(err, "UpdateAvatar")
	}

	url, err := s.avatars.Upload(ctx, u.Username, r, size, contentType)
	if err != nil {
		return model.Profile{}, customErrors.WrapInternal(err, "UpdateAvatar")
	}

	updated, err := s.users.SetAvatar(ctx, email, url)
	if err != nil {
		return model.Profile{}, customErrors.WrapInternal(err, "UpdateAvatar")
	}

	// write-through: refresh the session cache so the new URL is served
	// immediately instead of after TTL expiry
	p := updated.Profile()
	if err := s.cache.Set(ctx, p, cacheTTL); err != nil {
		s.log.Warn("session cache refresh failed after avatar update",
			zap.String("username", p.Username), zap.Error(err))
	}
	return p, nil
}

func (s *userService) Update(ctx context.Context, id uint, in dto.UserUpdateDTO) (model.Profile, error) {
	if err := s.v.Struct(in); err != nil {
		return model.Profile{}, customErrors.NewInvalidArgument(err.Error())
	}

	current, err := s.users.GetUserByID(ctx, id)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.Profile{}, customErrors.ErrNotFound
	case err != nil:
		return model.Profile{}, customErrors.WrapInternal(err, "Update")
	}

	var username, email string
	if in.Username != nil {
		username = *in.Username
	}
	if in.Email != nil {
		email = *in.Email
	}

	updated, err := s.users.UpdateIdentity(ctx, id, username, email)
	switch {
	case errors.Is(err, customErrors.ErrAlreadyExists):
		return model.Profile{}, customErrors.ErrAlreadyExists
	case errors.Is(err, customErrors.ErrNotFound):
		return model.Profile{}, customErrors.ErrNotFound
	case err != nil:
		return model.Profile{}, customErrors.WrapInternal(err, "Update")
	}

	// cache entries are keyed by username; drop the old key so a renamed
	// account cannot keep serving a stale profile until TTL expiry
	if current.Username != updated.Username {
		if err := s.cache.Delete(ctx, current.Username); err != nil {
			s.log.Warn("session cache eviction failed after rename",
				zap.String("username", current.Username), zap.Error(err))
		}
	}

	p := updated.Profile()
	if err := s.cache.Set(ctx, p, cacheTTL); err != nil {
		s.log.Warn("session cache refresh failed after user update",
			zap.String("username", p.Username), zap.Error(err))
	}
	return p, nil
}

func (s *userService) AssignRole(ctx context.Context, id uint, role model.Role) (model.Profile, error) {
	if role != model.RoleUser && role != model.RoleAdmin {
		return model.Profile{}, customErrors.NewInvalidArgument("unknown role " + string(role))
	}

	updated, err := s.users.SetRole(ctx, id, role)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.Profile{}, customErrors.ErrNotFound
	case err != nil:
		return model.Profile{}, customErrors.WrapInternal(err, "AssignRole")
	}

	p := updated.Profile()
	if err := s.cache.Set(ctx, p, cacheTTL); err != nil {
		s.log.Warn("session cache refresh failed after role change",
			zap.String("username", p.Username), zap.Error(err))
	}
	return p, nil
}
