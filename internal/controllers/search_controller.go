package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bus_backoffice/internal/services"
)

// SearchBuses answers GET /search?from=1&to=2&date=2026-01-31.
func (h *Handler) SearchBuses(c *gin.Context) {
	var q struct {
		From uint   `form:"from" binding:"required"`
		To   uint   `form:"to" binding:"required"`
		Date string `form:"date" binding:"required,datetime=2006-01-02"`
	}
	if !bindQuery(c, "SearchBuses", &q) {
		return
	}
	date, err := services.ParseDate(q.Date)
	if err != nil {
		respondError(c, "SearchBuses", err)
		return
	}
	result, err := h.svc.Search.Search(c.Request.Context(), q.From, q.To, date)
	if err != nil {
		respondError(c, "SearchBuses", err)
		return
	}
	c.JSON(http.StatusOK, result)
}
