package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bus_backoffice/internal/services"
)

type scheduleInput struct {
	BusID             uint    `json:"bus_id" binding:"required"`
	RouteID           uint    `json:"route_id" binding:"required"`
	DriverID          uint    `json:"driver_id" binding:"required"`
	DepartureTime     string  `json:"departure_time" binding:"required,clock"`
	TotalRunningHours float64 `json:"total_running_hours" binding:"required,gt=0"`
	RecurrencePattern string  `json:"recurrence_pattern" binding:"required,oneof=Daily Weekly Custom"`
	DaysOfWeek        string  `json:"days_of_week" binding:"required_unless=RecurrencePattern Daily,weekdays"`
}

func (in scheduleInput) toService() services.ScheduleInput {
	return services.ScheduleInput{
		BusID:             in.BusID,
		RouteID:           in.RouteID,
		DriverID:          in.DriverID,
		DepartureTime:     in.DepartureTime,
		TotalRunningHours: in.TotalRunningHours,
		RecurrencePattern: in.RecurrencePattern,
		DaysOfWeek:        in.DaysOfWeek,
	}
}

func (h *Handler) CreateSchedule(c *gin.Context) {
	var input scheduleInput
	if !bindJSON(c, "CreateSchedule", &input) {
		return
	}
	sched, err := h.svc.Schedules.Create(c.Request.Context(), input.toService())
	if err != nil {
		respondError(c, "CreateSchedule", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"schedule": sched})
}

func (h *Handler) UpdateSchedule(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input scheduleInput
	if !bindJSON(c, "UpdateSchedule", &input) {
		return
	}
	sched, err := h.svc.Schedules.Update(c.Request.Context(), id, input.toService())
	if err != nil {
		respondError(c, "UpdateSchedule", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": sched})
}

func (h *Handler) GetSchedule(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	sched, err := h.svc.Schedules.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "GetSchedule", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": sched})
}

func (h *Handler) ListSchedules(c *gin.Context) {
	var q struct {
		pageQuery
		RouteID uint `form:"route_id"`
	}
	if !bindQuery(c, "ListSchedules", &q) {
		return
	}
	schedules, total, err := h.svc.Schedules.List(c.Request.Context(), q.RouteID, q.page())
	if err != nil {
		respondError(c, "ListSchedules", err)
		return
	}
	listResponse(c, schedules, total, q.pageQuery)
}

func (h *Handler) DeleteSchedule(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Schedules.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "DeleteSchedule", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Schedule deleted"})
}
