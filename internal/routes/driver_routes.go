package routes

import (
	"github.com/gin-gonic/gin"

	"bus_backoffice/internal/controllers"
)

func DriverRoutes(admin *gin.RouterGroup, h *controllers.Handler) {
	drivers := admin.Group("/drivers")
	{
		drivers.POST("", h.CreateDriver)
		drivers.GET("", h.ListDrivers)
		drivers.GET("/:id", h.GetDriver)
		drivers.PUT("/:id", h.UpdateDriver)
		drivers.DELETE("/:id", h.DeleteDriver)
	}
}
