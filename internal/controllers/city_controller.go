package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bus_backoffice/internal/models"
	"bus_backoffice/internal/services"
)

// CityResponse mirrors models.City with the geometry as GeoJSON.
type CityResponse struct {
	ID        uint      `json:"ID"`
	CreatedAt time.Time `json:"CreatedAt"`
	UpdatedAt time.Time `json:"UpdatedAt"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	IsActive  bool      `json:"is_active"`
	Geometry  string    `json:"geometry,omitempty"`
}

func toCityResponse(city models.City) CityResponse {
	jsonGeom, err := services.WKBToGeoJSON(city.Geometry)
	if err != nil {
		logrus.WithError(err).WithField("city_id", city.ID).Warn("toCityResponse: bad geometry")
	}
	return CityResponse{
		ID:        city.ID,
		CreatedAt: city.CreatedAt,
		UpdatedAt: city.UpdatedAt,
		Name:      city.Name,
		Address:   city.Address,
		Latitude:  city.Latitude,
		Longitude: city.Longitude,
		IsActive:  city.IsActive,
		Geometry:  jsonGeom,
	}
}

type cityInput struct {
	Name      *string  `json:"name" binding:"omitempty,min=1,max=120"`
	Address   *string  `json:"address"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" binding:"omitempty,longitude"`
	IsActive  *bool    `json:"is_active"`
}

func (in cityInput) toService() services.CityInput {
	return services.CityInput{
		Name:      in.Name,
		Address:   in.Address,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		IsActive:  in.IsActive,
	}
}

func (h *Handler) CreateCity(c *gin.Context) {
	var input cityInput
	if !bindJSON(c, "CreateCity", &input) {
		return
	}
	city, err := h.svc.Cities.Create(c.Request.Context(), input.toService())
	if err != nil {
		respondError(c, "CreateCity", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"city": toCityResponse(*city)})
}

func (h *Handler) UpdateCity(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input cityInput
	if !bindJSON(c, "UpdateCity", &input) {
		return
	}
	city, err := h.svc.Cities.Update(c.Request.Context(), id, input.toService())
	if err != nil {
		respondError(c, "UpdateCity", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"city": toCityResponse(*city)})
}

func (h *Handler) GetCity(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	city, err := h.svc.Cities.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "GetCity", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"city": toCityResponse(*city)})
}

type cityListQuery struct {
	pageQuery
	Search string `form:"search"`
	Active *bool  `form:"active"`
}

// ListCities is the admin listing; ListActiveCities is the public one.
func (h *Handler) ListCities(c *gin.Context) {
	var q cityListQuery
	if !bindQuery(c, "ListCities", &q) {
		return
	}
	h.listCities(c, q, q.Active != nil && *q.Active)
}

func (h *Handler) ListActiveCities(c *gin.Context) {
	var q cityListQuery
	if !bindQuery(c, "ListActiveCities", &q) {
		return
	}
	h.listCities(c, q, true)
}

func (h *Handler) listCities(c *gin.Context, q cityListQuery, activeOnly bool) {
	cities, total, err := h.svc.Cities.List(c.Request.Context(), services.CityQuery{
		ActiveOnly: activeOnly,
		Search:     q.Search,
		Page:       q.page(),
	})
	if err != nil {
		respondError(c, "ListCities", err)
		return
	}
	out := make([]CityResponse, 0, len(cities))
	for _, city := range cities {
		out = append(out, toCityResponse(city))
	}
	listResponse(c, out, total, q.pageQuery)
}

func (h *Handler) DeleteCity(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Cities.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "DeleteCity", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "City deleted"})
}
