package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/adapters/transport/http/middleware"
	appauth "github.com/contactbook/backend/internal/app/auth"
	appcontacts "github.com/contactbook/backend/internal/app/contacts"
	appusers "github.com/contactbook/backend/internal/app/users"
	customErrors "github.com/contactbook/backend/internal/domain/errors"
	"github.com/contactbook/backend/internal/infra/config"
)

type Handler struct {
	auth     appauth.Service
	users    appusers.Service
	contacts appcontacts.Service
}

func NewHandler(auth appauth.Service, users appusers.Service, contacts appcontacts.Service) *Handler {
	return &Handler{auth: auth, users: users, contacts: contacts}
}

func NewRouter(h *Handler, cfg *config.Config, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.RateLimitPerIP(50, 100, 10_000, time.Hour))

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowedOrigins,
			AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders: []string{
				"Origin", "Content-Type", "Accept",
				"Authorization",
				"X-Requested-With",
			},
			ExposeHeaders:    []string{"Content-Length", "X-Request-Id"},
			AllowCredentials: cfg.AllowCredentials,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
		auth.POST("/refresh-token", h.refresh)
		auth.GET("/confirmed_email/:token", h.confirmEmail)
		auth.POST("/request_email", h.requestEmail)
		auth.POST("/request_reset", h.requestReset)
		auth.POST("/reset_password", h.resetPassword)
	}

	users := api.Group("/users", middleware.AuthRequired(h.auth))
	{
		users.GET("/me", h.me)
		users.PATCH("/avatar", middleware.AdminOnly(h.auth), h.updateAvatar)
		users.PATCH("/assign-role", middleware.AdminOnly(h.auth), h.assignRole)
		users.PATCH("/:id", middleware.AdminOnly(h.auth), h.updateUser)
	}

	contacts := api.Group("/contacts", middleware.AuthRequired(h.auth))
	{
		contacts.POST("", h.createContact)
		contacts.GET("", h.listContacts)
		contacts.GET("/birthdays", h.upcomingBirthdays)
		contacts.GET("/:id", h.getContact)
		contacts.PATCH("/:id", h.updateContact)
		contacts.DELETE("/:id", h.deleteContact)
	}

	return router
}

func handleError(c *gin.Context, err error) {
	switch {
	case customErrors.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case customErrors.IsInvalidCredentials(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong login or password"})
	case customErrors.IsEmailNotConfirmed(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "email is not confirmed"})
	case customErrors.IsExpiredToken(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token has expired, please log in again"})
	case customErrors.IsInvalidToken(err), customErrors.IsUnauthorized(err), customErrors.IsTokenTypeMismatch(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
	case customErrors.IsForbidden(err):
		c.JSON(http.StatusForbidden, gin.H{"error": "restricted, no access rights"})
	case customErrors.IsAlreadyExists(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case customErrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case customErrors.IsUnprocessableToken(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "wrong token for checking email"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
