package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	customErrors "github.com/contactbook/backend/internal/domain/errors"
	"github.com/contactbook/backend/internal/infra/config"
)

// Purpose tags every token we issue. Verifiers reject a token whose
// purpose does not match the expected use, so an access token can never
// be replayed as a refresh token, nor a reset token as either.
type Purpose string

const (
	PurposeAccess        Purpose = "access"
	PurposeRefresh       Purpose = "refresh"
	PurposeEmailConfirm  Purpose = "email_confirm"
	PurposePasswordReset Purpose = "password_reset"
)

const (
	EmailConfirmTTL  = 7 * 24 * time.Hour
	PasswordResetTTL = time.Hour
)

type Claims struct {
	jwt.RegisteredClaims
	TokenType Purpose `json:"token_type,omitempty"`
}

type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCodec(cfg *config.Config) (*Codec, error) {
	if cfg.JWTSecret == "" {
		return nil, customErrors.NewInvalidArgument("JWT secret must not be empty")
	}
	if cfg.JWTAlgorithm != jwt.SigningMethodHS256.Alg() {
		return nil, customErrors.NewInvalidArgument("unsupported JWT algorithm " + cfg.JWTAlgorithm)
	}
	return &Codec{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

func (c *Codec) TTL(p Purpose) time.Duration {
	switch p {
	case PurposeAccess:
		return c.accessTTL
	case PurposeRefresh:
		return c.refreshTTL
	case PurposeEmailConfirm:
		return EmailConfirmTTL
	case PurposePasswordReset:
		return PasswordResetTTL
	default:
		return c.accessTTL
	}
}

// Issue signs a token for subject with the purpose's default TTL.
func (c *Codec) Issue(subject string, purpose Purpose) (string, error) {
	return c.IssueWithTTL(subject, purpose, c.TTL(purpose))
}

func (c *Codec) IssueWithTTL(subject string, purpose Purpose, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: purpose,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", customErrors.WrapInternal(err, "sign token")
	}
	return signed, nil
}

// Parse verifies signature, expiry and purpose. Expired tokens are
// reported as ErrExpiredToken so callers can prompt a refresh; any other
// defect is ErrInvalidToken; a valid token presented for the wrong use
// is ErrTokenTypeMismatch.
func (c *Codec) Parse(raw string, purpose Purpose) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, customErrors.ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithIssuedAt())

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, customErrors.ErrExpiredToken
	case err != nil, !parsed.Valid:
		return Claims{}, customErrors.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return Claims{}, customErrors.WrapInternal(errors.New("claims have unexpected type"), "Parse")
	}

	if claims.TokenType != purpose {
		return Claims{}, customErrors.ErrTokenTypeMismatch
	}
	if claims.Subject == "" {
		return Claims{}, customErrors.ErrInvalidToken
	}

	return *claims, nil
}
