package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contactbook/backend/internal/adapters/transport/http/dto"
)

func (h *Handler) register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.auth.Register(c.Request.Context(), body)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), body)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *Handler) refresh(c *gin.Context) {
	var body dto.RefreshDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), body)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *Handler) confirmEmail(c *gin.Context) {
	flipped, err := h.auth.ConfirmEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		handleError(c, err)
		return
	}
	if !flipped {
		c.JSON(http.StatusOK, gin.H{"message": "your email is already confirmed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "your email has been confirmed"})
}

func (h *Handler) requestEmail(c *gin.Context) {
	var body dto.RequestEmailDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.auth.ResendConfirmation(c.Request.Context(), body.Email); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "check your email for the confirmation"})
}

func (h *Handler) requestReset(c *gin.Context) {
	var body dto.RequestEmailDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.auth.RequestPasswordReset(c.Request.Context(), body.Email); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "check your email for the reset token"})
}

func (h *Handler) resetPassword(c *gin.Context) {
	var body dto.ResetPasswordDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), body); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated successfully"})
}
