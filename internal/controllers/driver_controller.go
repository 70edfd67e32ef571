package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bus_backoffice/internal/services"
)

type driverInput struct {
	Name          *string `json:"name" binding:"omitempty,min=1"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email" binding:"omitempty,email"`
	LicenseNumber *string `json:"license_number" binding:"omitempty,min=1"`
	IsActive      *bool   `json:"is_active"`
}

func (in driverInput) toService() services.DriverInput {
	return services.DriverInput{
		Name:          in.Name,
		Phone:         in.Phone,
		Email:         in.Email,
		LicenseNumber: in.LicenseNumber,
		IsActive:      in.IsActive,
	}
}

func (h *Handler) CreateDriver(c *gin.Context) {
	var input driverInput
	if !bindJSON(c, "CreateDriver", &input) {
		return
	}
	driver, err := h.svc.Drivers.Create(c.Request.Context(), input.toService())
	if err != nil {
		respondError(c, "CreateDriver", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"driver": driver})
}

func (h *Handler) ListDrivers(c *gin.Context) {
	var q pageQuery
	if !bindQuery(c, "ListDrivers", &q) {
		return
	}
	drivers, total, err := h.svc.Drivers.List(c.Request.Context(), q.page())
	if err != nil {
		respondError(c, "ListDrivers", err)
		return
	}
	listResponse(c, drivers, total, q)
}

func (h *Handler) GetDriver(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	driver, err := h.svc.Drivers.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "GetDriver", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"driver": driver})
}

func (h *Handler) UpdateDriver(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input driverInput
	if !bindJSON(c, "UpdateDriver", &input) {
		return
	}
	driver, err := h.svc.Drivers.Update(c.Request.Context(), id, input.toService())
	if err != nil {
		respondError(c, "UpdateDriver", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"driver": driver})
}

// DeleteDriver refuses while the driver is bound to a schedule.
func (h *Handler) DeleteDriver(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Drivers.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "DeleteDriver", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Driver deleted"})
}
