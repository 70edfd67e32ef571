package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bus_backoffice/internal/services"
)

type busInput struct {
	PlateNumber *string `json:"plate_number" binding:"omitempty,min=2,max=20"`
	Model       *string `json:"model"`
	Capacity    *int    `json:"capacity" binding:"omitempty,gt=0"`
	IsActive    *bool   `json:"is_active"`
}

func (in busInput) toService() services.BusInput {
	return services.BusInput{PlateNumber: in.PlateNumber, Model: in.Model, Capacity: in.Capacity, IsActive: in.IsActive}
}

// CreateBus adds a bus to the fleet; buses start in service.
func (h *Handler) CreateBus(c *gin.Context) {
	var input busInput
	if !bindJSON(c, "CreateBus", &input) {
		return
	}
	bus, err := h.svc.Buses.Create(c.Request.Context(), input.toService())
	if err != nil {
		respondError(c, "CreateBus", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bus": bus})
}

func (h *Handler) ListBuses(c *gin.Context) {
	var q pageQuery
	if !bindQuery(c, "ListBuses", &q) {
		return
	}
	buses, total, err := h.svc.Buses.List(c.Request.Context(), q.page())
	if err != nil {
		respondError(c, "ListBuses", err)
		return
	}
	listResponse(c, buses, total, q)
}

func (h *Handler) GetBus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	bus, err := h.svc.Buses.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "GetBus", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bus": bus})
}

func (h *Handler) UpdateBus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input busInput
	if !bindJSON(c, "UpdateBus", &input) {
		return
	}
	bus, err := h.svc.Buses.Update(c.Request.Context(), id, input.toService())
	if err != nil {
		respondError(c, "UpdateBus", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bus": bus})
}

func (h *Handler) DeleteBus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Buses.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "DeleteBus", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bus deleted"})
}
