package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contactbook/backend/internal/adapters/transport/http/dto"
	"github.com/contactbook/backend/internal/adapters/transport/http/middleware"
	"github.com/contactbook/backend/internal/domain/model"
)

const maxAvatarBytes = 5 << 20 // 5 MiB

func (h *Handler) me(c *gin.Context) {
	p, ok := middleware.ProfileFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "could not validate credentials"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) updateAvatar(c *gin.Context) {
	p, ok := middleware.ProfileFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "could not validate credentials"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}
	defer file.Close()

	if header.Size > maxAvatarBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar is too large"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	updated, err := h.users.UpdateAvatar(c.Request.Context(), p.Email, file, header.Size, contentType)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) updateUser(c *gin.Context) {
	id, ok := pathID(c, "user")
	if !ok {
		return
	}

	var body dto.UserUpdateDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.users.Update(c.Request.Context(), id, body)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) assignRole(c *gin.Context) {
	var body dto.AssignRoleDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.users.AssignRole(c.Request.Context(), body.UserID, model.Role(body.Role))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
