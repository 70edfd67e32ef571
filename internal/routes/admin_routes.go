package routes

import (
	"github.com/gin-gonic/gin"

	"bus_backoffice/internal/controllers"
	"bus_backoffice/internal/models"
)

func AdminRoutes(r *gin.Engine, h *controllers.Handler, opts Options) {
	admin := r.Group("/admin")
	admin.Use(opts.Auth.RequireAuthWithRole(models.RoleAdmin))
	{
		admin.POST("/cities", h.CreateCity)
		admin.GET("/cities", h.ListCities)
		admin.GET("/cities/:id", h.GetCity)
		admin.PUT("/cities/:id", h.UpdateCity)
		admin.DELETE("/cities/:id", h.DeleteCity)

		admin.POST("/closures", h.CreateClosure)
		admin.GET("/closures", h.ListClosures)
		admin.DELETE("/closures/:id", h.DeleteClosure)

		admin.GET("/bookings", h.ListBookings)
		admin.GET("/bookings/:id", h.GetBooking)
		admin.POST("/bookings/:id/confirm", h.ConfirmBooking)
		admin.POST("/bookings/:id/cancel", h.CancelBooking)

		admin.GET("/contact", h.ListContactMessages)
		admin.POST("/contact/:id/resolve", h.ResolveContactMessage)
	}

	NetworkRoutes(admin, h)
	VehicleRoutes(admin, h)
	DriverRoutes(admin, h)
}
