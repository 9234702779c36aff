package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInternal           = errors.New("internal error")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrTokenTypeMismatch  = errors.New("token type mismatch")
	ErrUnprocessableToken = errors.New("unprocessable token")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
)

func NewInvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

func WrapInternal(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, context, err)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

func IsExpiredToken(err error) bool {
	return errors.Is(err, ErrExpiredToken)
}

func IsTokenTypeMismatch(err error) bool {
	return errors.Is(err, ErrTokenTypeMismatch)
}

func IsUnprocessableToken(err error) bool {
	return errors.Is(err, ErrUnprocessableToken)
}

func IsEmailNotConfirmed(err error) bool {
	return errors.Is(err, ErrEmailNotConfirmed)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}
