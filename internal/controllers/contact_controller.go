package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bus_backoffice/internal/services"
)

// SubmitContact stores a support request from the public site.
func (h *Handler) SubmitContact(c *gin.Context) {
	var input struct {
		Name    string `json:"name" binding:"required,max=120"`
		Email   string `json:"email" binding:"required,email"`
		Subject string `json:"subject" binding:"max=200"`
		Message string `json:"message" binding:"required,max=5000"`
	}
	if !bindJSON(c, "SubmitContact", &input) {
		return
	}
	msg, err := h.svc.Contact.Submit(c.Request.Context(), services.ContactInput{
		Name:    input.Name,
		Email:   input.Email,
		Subject: input.Subject,
		Message: input.Message,
	})
	if err != nil {
		respondError(c, "SubmitContact", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Thanks, we will get back to you", "id": msg.ID})
}

func (h *Handler) ListContactMessages(c *gin.Context) {
	var q struct {
		pageQuery
		Open bool `form:"open"`
	}
	if !bindQuery(c, "ListContactMessages", &q) {
		return
	}
	msgs, total, err := h.svc.Contact.List(c.Request.Context(), q.Open, q.page())
	if err != nil {
		respondError(c, "ListContactMessages", err)
		return
	}
	listResponse(c, msgs, total, q.pageQuery)
}

func (h *Handler) ResolveContactMessage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	msg, err := h.svc.Contact.Resolve(c.Request.Context(), id)
	if err != nil {
		respondError(c, "ResolveContactMessage", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contact": msg})
}
