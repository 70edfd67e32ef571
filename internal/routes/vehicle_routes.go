package routes

import (
	"github.com/gin-gonic/gin"

	"bus_backoffice/internal/controllers"
)

func VehicleRoutes(admin *gin.RouterGroup, h *controllers.Handler) {
	buses := admin.Group("/buses")
	{
		buses.POST("", h.CreateBus)
		buses.GET("", h.ListBuses)
		buses.GET("/:id", h.GetBus)
		buses.PUT("/:id", h.UpdateBus)
		buses.DELETE("/:id", h.DeleteBus)
	}
}
