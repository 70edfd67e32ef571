package routes

import (
	"github.com/gin-gonic/gin"

	"bus_backoffice/internal/controllers"
)

// NetworkRoutes manage routes, their fares and their schedules.
func NetworkRoutes(admin *gin.RouterGroup, h *controllers.Handler) {
	routes := admin.Group("/routes")
	{
		routes.POST("", h.CreateRoute)
		routes.GET("", h.ListRoutes)
		routes.GET("/:id", h.GetRoute)
		routes.PUT("/:id", h.UpdateRoute)
		routes.DELETE("/:id", h.DeleteRoute)
		routes.POST("/:id/copy", h.CopyRoute)
		routes.PUT("/:id/stops/timing", h.UpdateStopTiming)
		routes.GET("/:id/fares", h.ListFares)
		routes.PUT("/:id/fares", h.PriceFares)
		routes.GET("/:id/fares/reconcile", h.ReconcileFares)
	}

	schedules := admin.Group("/schedules")
	{
		schedules.POST("", h.CreateSchedule)
		schedules.GET("", h.ListSchedules)
		schedules.GET("/:id", h.GetSchedule)
		schedules.PUT("/:id", h.UpdateSchedule)
		schedules.DELETE("/:id", h.DeleteSchedule)
	}
}
