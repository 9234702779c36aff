package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	customErrors "github.com/contactbook/backend/internal/domain/errors"
	"github.com/contactbook/backend/internal/domain/model"
)

type ContactRepo struct {
	db *gorm.DB
}

func NewContactRepo(db *gorm.DB) *ContactRepo {
	return &ContactRepo{db: db}
}

func (p *ContactRepo) Create(ctx context.Context, c model.Contact) (model.Contact, error) {
	res := p.db.WithContext(ctx).Create(&c)
	if err := res.Error; err != nil {
		if isUniqueViolation(err) {
			return model.Contact{}, customErrors.ErrAlreadyExists
		}
		return model.Contact{}, customErrors.WrapInternal(err, "CreateContact")
	}
	return c, nil
}

func (p *ContactRepo) GetByID(ctx context.Context, ownerID, id uint) (model.Contact, error) {
	var c model.Contact
	res := p.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&c)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Contact{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Contact{}, customErrors.WrapInternal(err, "GetContact")
	}
	return c, nil
}

func (p *ContactRepo) List(ctx context.Context, ownerID uint, limit, offset int) ([]model.Contact, error) {
	var out []model.Contact
	res := p.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&out)
	if err := res.Error; err != nil {
		return nil, customErrors.WrapInternal(err, "ListContacts")
	}
	return out, nil
}

func (p *ContactRepo) AllByOwner(ctx context.Context, ownerID uint) ([]model.Contact, error) {
	var out []model.Contact
	res := p.db.WithContext(ctx).Where("user_id = ?", ownerID).Find(&out)
	if err := res.Error; err != nil {
		return nil, customErrors.WrapInternal(err, "AllByOwner")
	}
	return out, nil
}

func (p *ContactRepo) Update(ctx context.Context, c model.Contact) (model.Contact, error) {
	res := p.db.WithContext(ctx).
		Model(&model.Contact{}).
		Where("id = ? AND user_id = ?", c.ID, c.UserID).
		Select("name", "lastname", "email", "phone", "birthdate", "notes").
		Updates(&c)
	if err := res.Error; err != nil {
		return model.Contact{}, customErrors.WrapInternal(err, "UpdateContact")
	}
	if res.RowsAffected == 0 {
		return model.Contact{}, customErrors.ErrNotFound
	}
	return c, nil
}

func (p *ContactRepo) Delete(ctx context.Context, ownerID, id uint) error {
	res := p.db.WithContext(ctx).Where("user_id = ?", ownerID).Delete(&model.Contact{}, id)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "DeleteContact")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

func (p *ContactRepo) Search(ctx context.Context, ownerID uint, q string, limit, offset int) ([]model.Contact, error) {
	var out []model.Contact
	pattern := "%" + q + "%"
	res := p.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Where(
			p.db.Where("name LIKE ?", pattern).
				Or("lastname LIKE ?", pattern).
				Or("email LIKE ?", pattern),
		).
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&out)
	if err := res.Error; err != nil {
		return nil, customErrors.WrapInternal(err, "SearchContacts")
	}
	return out, nil
}
