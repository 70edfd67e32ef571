package routes

import (
	"github.com/gin-gonic/gin"

	"bus_backoffice/internal/controllers"
)

// PublicRoutes need no token.
func PublicRoutes(r *gin.Engine, h *controllers.Handler, opts Options) {
	public := r.Group("/")
	{
		public.GET("/cities", h.ListActiveCities)
		public.GET("/search", h.SearchBuses)
	}

	contact := r.Group("/contact")
	if opts.PublicLimiter != nil {
		contact.Use(opts.PublicLimiter.Middleware())
	}
	contact.POST("", h.SubmitContact)
}
