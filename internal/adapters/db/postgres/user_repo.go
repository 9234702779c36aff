package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"

	customErrors "github.com/contactbook/backend/internal/domain/errors"
	"github.com/contactbook/backend/internal/domain/model"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (p *UserRepo) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	res := p.db.WithContext(ctx).Create(&user)
	if err := res.Error; err != nil {
		if isUniqueViolation(err) {
			return model.User{}, customErrors.ErrAlreadyExists
		}
		return model.User{}, customErrors.WrapInternal(err, "CreateUser")
	}
	return user, nil
}

func (p *UserRepo) GetUserByID(ctx context.Context, id uint) (model.User, error) {
	return p.first(ctx, "id = ?", id)
}

func (p *UserRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	return p.first(ctx, "username = ?", username)
}

func (p *UserRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return p.first(ctx, "email = ?", email)
}

func (p *UserRepo) SetRefreshToken(ctx context.Context, id uint, token string) error {
	return p.updateColumn(ctx, "id = ?", id, "refresh_token", token)
}

func (p *UserRepo) SetPasswordHash(ctx context.Context, id uint, hash string) error {
	return p.updateColumn(ctx, "id = ?", id, "password_hash", hash)
}

func (p *UserRepo) ConfirmEmail(ctx context.Context, email string) error {
	return p.updateColumn(ctx, "email = ?", email, "confirmed", true)
}

func (p *UserRepo) SetAvatar(ctx context.Context, email string, url string) (model.User, error) {
	if err := p.updateColumn(ctx, "email = ?", email, "avatar", url); err != nil {
		return model.User{}, err
	}
	return p.GetUserByEmail(ctx, email)
}

func (p *UserRepo) UpdateIdentity(ctx context.Context, id uint, username, email string) (model.User, error) {
	updates := map[string]any{}
	if username != "" {
		updates["username"] = username
	}
	if email != "" {
		updates["email"] = email
	}
	if len(updates) == 0 {
		return p.GetUserByID(ctx, id)
	}

	res := p.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(updates)
	if err := res.Error; err != nil {
		if isUniqueViolation(err) {
			return model.User{}, customErrors.ErrAlreadyExists
		}
		return model.User{}, customErrors.WrapInternal(err, "UpdateIdentity")
	}
	if res.RowsAffected == 0 {
		return model.User{}, customErrors.ErrNotFound
	}
	return p.GetUserByID(ctx, id)
}

func (p *UserRepo) SetRole(ctx context.Context, id uint, role model.Role) (model.User, error) {
	if err := p.updateColumn(ctx, "id = ?", id, "role", role); err != nil {
		return model.User{}, err
	}
	return p.GetUserByID(ctx, id)
}

func (p *UserRepo) first(ctx context.Context, query string, arg any) (model.User, error) {
	var u model.User
	res := p.db.WithContext(ctx).Where(query, arg).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, "GetUser")
	}
	return u, nil
}

// updateColumn writes a single column in one statement, so credential and
// token mutations stay atomic.
func (p *UserRepo) updateColumn(ctx context.Context, query string, arg any, column string, value any) error {
	res := p.db.WithContext(ctx).Model(&model.User{}).Where(query, arg).Update(column, value)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "update "+column)
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
