package routes

import (
	"github.com/gin-gonic/gin"

	"bus_backoffice/internal/controllers"
)

// WebSocketRoutes authenticate through the token query parameter inside
// the handler.
func WebSocketRoutes(r *gin.Engine, h *controllers.Handler) {
	ws := r.Group("/ws")
	{
		ws.GET("/events", h.HandleEventsWebSocket)
	}
}
