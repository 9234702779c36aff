package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/contactbook/backend/internal/adapters/transport/http/dto"
	"github.com/contactbook/backend/internal/adapters/transport/http/middleware"
	"github.com/contactbook/backend/internal/domain/model"
)

func (h *Handler) owner(c *gin.Context) (model.Profile, bool) {
	p, ok := middleware.ProfileFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "could not validate credentials"})
	}
	return p, ok
}

func pathID(c *gin.Context, what string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + what + " id"})
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func (h *Handler) createContact(c *gin.Context) {
	p, ok := h.owner(c)
	if !ok {
		return
	}

	var body dto.ContactDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.contacts.Create(c.Request.Context(), p.ID, body)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) listContacts(c *gin.Context) {
	p, ok := h.owner(c)
	if !ok {
		return
	}

	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	// ?q= switches listing into search
	list, err := h.contacts.Search(c.Request.Context(), p.ID, c.Query("q"), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) getContact(c *gin.Context) {
	p, ok := h.owner(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "contact")
	if !ok {
		return
	}

	contact, err := h.contacts.Get(c.Request.Context(), p.ID, id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *Handler) updateContact(c *gin.Context) {
	p, ok := h.owner(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "contact")
	if !ok {
		return
	}

	var body dto.ContactUpdateDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.contacts.Update(c.Request.Context(), p.ID, id, body)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteContact(c *gin.Context) {
	p, ok := h.owner(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "contact")
	if !ok {
		return
	}

	if err := h.contacts.Delete(c.Request.Context(), p.ID, id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) upcomingBirthdays(c *gin.Context) {
	p, ok := h.owner(c)
	if !ok {
		return
	}

	list, err := h.contacts.UpcomingBirthdays(c.Request.Context(), p.ID, queryInt(c, "days", 7))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
