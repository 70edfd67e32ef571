package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bus_backoffice/internal/apperr"
	"bus_backoffice/internal/middleware"
	"bus_backoffice/internal/services"
)

// Handler serves the HTTP API on top of the services.
type Handler struct {
	svc  *services.Services
	auth *middleware.Auth
	hub  *EventHub
}

func NewHandler(svc *services.Services, auth *middleware.Auth, hub *EventHub) *Handler {
	return &Handler{svc: svc, auth: auth, hub: hub}
}

// respondError maps err to a status code. Internal causes are logged and
// never returned to the client.
func respondError(c *gin.Context, op string, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	entry := logrus.WithError(err).WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"kind":       kind.String(),
	})
	if status >= http.StatusInternalServerError {
		entry.Error(op + ": request failed")
	} else {
		entry.Warn(op + ": request rejected")
	}
	c.JSON(status, gin.H{"error": apperr.PublicMessage(err)})
}

// bindJSON binds the request body, answering 400 on failure.
func bindJSON(c *gin.Context, op string, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		logrus.WithError(err).Warn(op + ": invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return false
	}
	return true
}

// bindQuery binds query parameters, answering 400 on failure.
func bindQuery(c *gin.Context, op string, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		logrus.WithError(err).Warn(op + ": invalid query")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query: " + err.Error()})
		return false
	}
	return true
}

// paramID parses the :name path parameter as an id.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// pageQuery is embedded in list query structs.
type pageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (p pageQuery) page() services.Page {
	return services.Page{Page: p.Page, Limit: p.Limit}
}

func listResponse(c *gin.Context, data interface{}, total int64, p pageQuery) {
	page := p.page()
	if page.Page < 1 {
		page.Page = 1
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "total": total, "page": page.Page})
}
