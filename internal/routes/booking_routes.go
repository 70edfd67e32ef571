package routes

import (
	"github.com/gin-gonic/gin"

	"bus_backoffice/internal/controllers"
)

func BookingRoutes(r *gin.Engine, h *controllers.Handler, opts Options) {
	bookings := r.Group("/bookings")
	bookings.Use(opts.Auth.RequireAuth())
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListMyBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}
}
