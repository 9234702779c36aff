package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appauth "github.com/contactbook/backend/internal/app/auth"
	customErrors "github.com/contactbook/backend/internal/domain/errors"
	"github.com/contactbook/backend/internal/domain/model"
)

const profileKey = "auth_profile"

// AuthRequired resolves the bearer token to a profile and stores it in
// the request context. Expired tokens get a distinct message so clients
// know a refresh may still succeed.
func AuthRequired(svc appauth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		p, err := svc.CurrentUser(c.Request.Context(), raw)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			if customErrors.IsExpiredToken(err) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has expired, please log in again"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "could not validate credentials"})
			return
		}

		c.Set(profileKey, p)
		c.Next()
	}
}

// AdminOnly must run after AuthRequired.
func AdminOnly(svc appauth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := ProfileFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "could not validate credentials"})
			return
		}
		if err := svc.RequireRole(p, model.RoleAdmin); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "restricted, no access rights"})
			return
		}
		c.Next()
	}
}

func ProfileFrom(c *gin.Context) (model.Profile, bool) {
	v, ok := c.Get(profileKey)
	if !ok {
		return model.Profile{}, false
	}
	p, ok := v.(model.Profile)
	return p, ok
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}
