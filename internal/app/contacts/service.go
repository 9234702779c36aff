package contacts

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/contactbook/backend/internal/adapters/transport/http/dto"
	customErrors "github.com/contactbook/backend/internal/domain/errors"
	"github.com/contactbook/backend/internal/domain/model"
	"github.com/contactbook/backend/internal/domain/repo"
)

const (
	dateLayout   = "2006-01-02"
	defaultLimit = 50
	maxLimit     = 500
)

type Service interface {
	Create(ctx context.Context, ownerID uint, in dto.ContactDTO) (model.Contact, error)
	Get(ctx context.Context, ownerID, id uint) (model.Contact, error)
	List(ctx context.Context, ownerID uint, limit, offset int) ([]model.Contact, error)
	Update(ctx context.Context, ownerID, id uint, in dto.ContactUpdateDTO) (model.Contact, error)
	Delete(ctx context.Context, ownerID, id uint) error
	Search(ctx context.Context, ownerID uint, q string, limit, offset int) ([]model.Contact, error)

	// UpcomingBirthdays lists contacts whose birthday falls within the
	// next days days, including today. Year wrap is handled.
	UpcomingBirthdays(ctx context.Context, ownerID uint, days int) ([]model.Contact, error)
}

type contactService struct {
	contacts repo.ContactRepo
	v        *validator.Validate
}

func New(cr repo.ContactRepo, v *validator.Validate) Service {
	return &contactService{contacts: cr, v: v}
}

func (s *contactService) Create(ctx context.Context, ownerID uint, in dto.ContactDTO) (model.Contact, error) {
	if err := s.v.Struct(in); err != nil {
		return model.Contact{}, customErrors.NewInvalidArgument(err.Error())
	}
	birthdate, err := time.Parse(dateLayout, in.Birthdate)
	if err != nil {
		return model.Contact{}, customErrors.NewInvalidArgument("birthdate must be YYYY-MM-DD")
	}

	c := model.Contact{
		Name:      in.Name,
		Lastname:  in.Lastname,
		Email:     in.Email,
		Phone:     in.Phone,
		Birthdate: birthdate,
		Notes:     in.Notes,
		UserID:    ownerID,
	}
	created, err := s.contacts.Create(ctx, c)
	if err != nil {
		if customErrors.IsAlreadyExists(err) {
			return model.Contact{}, err
		}
		return model.Contact{}, customErrors.WrapInternal(err, "Create")
	}
	return created, nil
}

func (s *contactService) Get(ctx context.Context, ownerID, id uint) (model.Contact, error) {
	return s.contacts.GetByID(ctx, ownerID, id)
}

func (s *contactService) List(ctx context.Context, ownerID uint, limit, offset int) ([]model.Contact, error) {
	return s.contacts.List(ctx, ownerID, clampLimit(limit), max(offset, 0))
}

func (s *contactService) Update(ctx context.Context, ownerID, id uint, in dto.ContactUpdateDTO) (model.Contact, error) {
	if err := s.v.Struct(in); err != nil {
		return model.Contact{}, customErrors.NewInvalidArgument(err.Error())
	}

	c, err := s.contacts.GetByID(ctx, ownerID, id)
	if err != nil {
		return model.Contact{}, err
	}

	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Lastname != nil {
		c.Lastname = *in.Lastname
	}
	if in.Email != nil {
		c.Email = *in.Email
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.Birthdate != nil {
		birthdate, err := time.Parse(dateLayout, *in.Birthdate)
		if err != nil {
			return model.Contact{}, customErrors.NewInvalidArgument("birthdate must be YYYY-MM-DD")
		}
		c.Birthdate = birthdate
	}
	if in.Notes != nil {
		c.Notes = *in.Notes
	}

	return s.contacts.Update(ctx, c)
}

func (s *contactService) Delete(ctx context.Context, ownerID, id uint) error {
	return s.contacts.Delete(ctx, ownerID, id)
}

func (s *contactService) Search(ctx context.Context, ownerID uint, q string, limit, offset int) ([]model.Contact, error) {
	if q == "" {
		return s.List(ctx, ownerID, limit, offset)
	}
	return s.contacts.Search(ctx, ownerID, q, clampLimit(limit), max(offset, 0))
}

func (s *contactService) UpcomingBirthdays(ctx context.Context, ownerID uint, days int) ([]model.Contact, error) {
	if days <= 0 {
		days = 7
	}
	all, err := s.contacts.AllByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	until := today.AddDate(0, 0, days)

	var out []model.Contact
	for _, c := range all {
		// next occurrence of the birthday; Feb 29 normalizes to Mar 1
		// in non-leap years via time.Date
		next := time.Date(today.Year(), c.Birthdate.Month(), c.Birthdate.Day(), 0, 0, 0, 0, time.UTC)
		if next.Before(today) {
			next = time.Date(today.Year()+1, c.Birthdate.Month(), c.Birthdate.Day(), 0, 0, 0, 0, time.UTC)
		}
		if !next.Before(today) && !next.After(until) {
			out = append(out, c)
		}
	}
	return out, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}
