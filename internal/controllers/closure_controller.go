package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bus_backoffice/internal/services"
)

type closureInput struct {
	RouteID   uint   `json:"route_id" binding:"required"`
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"required,datetime=2006-01-02"`
	Reason    string `json:"reason" binding:"max=500"`
}

func (h *Handler) CreateClosure(c *gin.Context) {
	var input closureInput
	if !bindJSON(c, "CreateClosure", &input) {
		return
	}
	start, err := services.ParseDate(input.StartDate)
	if err != nil {
		respondError(c, "CreateClosure", err)
		return
	}
	end, err := services.ParseDate(input.EndDate)
	if err != nil {
		respondError(c, "CreateClosure", err)
		return
	}
	closure, err := h.svc.Closures.Create(c.Request.Context(), services.ClosureInput{
		RouteID:   input.RouteID,
		StartDate: start,
		EndDate:   end,
		Reason:    input.Reason,
	})
	if err != nil {
		respondError(c, "CreateClosure", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"closure": closure})
}

func (h *Handler) ListClosures(c *gin.Context) {
	var q struct {
		RouteID uint `form:"route_id"`
	}
	if !bindQuery(c, "ListClosures", &q) {
		return
	}
	closures, err := h.svc.Closures.List(c.Request.Context(), q.RouteID)
	if err != nil {
		respondError(c, "ListClosures", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": closures})
}

func (h *Handler) DeleteClosure(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Closures.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "DeleteClosure", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Closure deleted"})
}
