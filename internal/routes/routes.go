package routes

import (
	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bus_backoffice/internal/controllers"
	"bus_backoffice/internal/logger"
	"bus_backoffice/internal/middleware"
)

// Options carries what the router needs besides the handlers.
type Options struct {
	Auth *middleware.Auth
	// PublicLimiter throttles login, signup and the contact form.
	PublicLimiter *middleware.RateLimiter
}

// SetupRouter builds the engine. It does not start listening.
func SetupRouter(h *controllers.Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		ginlog.SetLogger(
			ginlog.WithWriter(logger.Writer()),
			ginlog.WithSkipPath([]string{"/health", "/metrics"}),
			ginlog.WithUTC(true),
		),
		middleware.CORS(),
		middleware.Metrics(),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	AuthRoutes(r, h, opts)
	PublicRoutes(r, h, opts)
	BookingRoutes(r, h, opts)
	AdminRoutes(r, h, opts)
	WebSocketRoutes(r, h)

	return r
}
