package routes

import (
	"github.com/gin-gonic/gin"

	"bus_backoffice/internal/controllers"
)

func AuthRoutes(r *gin.Engine, h *controllers.Handler, opts Options) {
	auth := r.Group("/auth")
	if opts.PublicLimiter != nil {
		auth.Use(opts.PublicLimiter.Middleware())
	}
	{
		auth.POST("/signup", h.SignupUser)
		auth.POST("/login", h.LoginUser)
	}
}
