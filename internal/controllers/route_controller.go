package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"

	"bus_backoffice/internal/models"
	"bus_backoffice/internal/services"
)

// RouteResponse is a route as returned by the admin API, with the stop
// polyline and the straight-line length of the route.
type RouteResponse struct {
	ID          uint                 `json:"ID"`
	CreatedAt   time.Time            `json:"CreatedAt"`
	UpdatedAt   time.Time            `json:"UpdatedAt"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	IsActive    bool                 `json:"is_active"`
	Polyline    string               `json:"polyline"`
	DistanceKm  float64              `json:"distance_km"`
	Stops       []models.Stop        `json:"stops"`
	TicketTypes []models.TicketType  `json:"ticket_types"`
	Schedules   []models.BusSchedule `json:"schedules"`
}

func toRouteResponse(route models.Route) RouteResponse {
	resp := RouteResponse{
		ID:          route.ID,
		CreatedAt:   route.CreatedAt,
		UpdatedAt:   route.UpdatedAt,
		Title:       route.Title,
		Description: route.Description,
		IsActive:    route.IsActive,
		Polyline:    services.RoutePolyline(route.Stops),
		DistanceKm:  services.RouteDistanceKm(route.Stops),
		Stops:       route.Stops,
		TicketTypes: route.TicketTypes,
		Schedules:   route.Schedules,
	}
	if resp.Stops == nil {
		resp.Stops = []models.Stop{}
	}
	if resp.TicketTypes == nil {
		resp.TicketTypes = []models.TicketType{}
	}
	if resp.Schedules == nil {
		resp.Schedules = []models.BusSchedule{}
	}
	return resp
}

// Stops arrive as an ordered JSON array of city ids.
type routeInput struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description"`
	Stops       []uint `json:"stops" binding:"omitempty,dive,gt=0"`
	IsActive    *bool  `json:"is_active"`
}

// CreateRoute creates a route with its stops and fare matrix.
func (h *Handler) CreateRoute(c *gin.Context) {
	var input routeInput
	if !bindJSON(c, "CreateRoute", &input) {
		return
	}
	route, err := h.svc.Routes.Create(c.Request.Context(), services.RouteInput{
		Title:       input.Title,
		Description: input.Description,
		CityIDs:     input.Stops,
		IsActive:    input.IsActive,
	})
	if err != nil {
		respondError(c, "CreateRoute", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"route": toRouteResponse(*route)})
}

// UpdateRoute edits a route. A non-empty stops array replaces every stop.
func (h *Handler) UpdateRoute(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input routeInput
	if !bindJSON(c, "UpdateRoute", &input) {
		return
	}
	res, err := h.svc.Routes.Update(c.Request.Context(), id, services.RouteUpdate{
		Title:       input.Title,
		Description: input.Description,
		CityIDs:     input.Stops,
		IsActive:    input.IsActive,
	})
	if err != nil {
		respondError(c, "UpdateRoute", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"route":         toRouteResponse(*res.Route),
		"core_changed":  res.CoreChanged,
		"stops_changed": res.StopsChanged,
		"fares_created": res.FaresCreated,
	})
}

func (h *Handler) GetRoute(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	route, err := h.svc.Routes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "GetRoute", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": toRouteResponse(*route)})
}

func (h *Handler) ListRoutes(c *gin.Context) {
	var q struct {
		pageQuery
		Search string `form:"search"`
		Active *bool  `form:"active"`
	}
	if !bindQuery(c, "ListRoutes", &q) {
		return
	}
	routes, total, err := h.svc.Routes.List(c.Request.Context(), services.RouteQuery{
		ActiveOnly: q.Active != nil && *q.Active,
		Search:     q.Search,
		Page:       q.page(),
	})
	if err != nil {
		respondError(c, "ListRoutes", err)
		return
	}
	out := make([]RouteResponse, 0, len(routes))
	for _, r := range routes {
		out = append(out, toRouteResponse(r))
	}
	listResponse(c, out, total, q.pageQuery)
}

func (h *Handler) DeleteRoute(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Routes.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "DeleteRoute", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Route deleted"})
}

// CopyRoute duplicates a route into a seasonal variant.
func (h *Handler) CopyRoute(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	route, err := h.svc.Copier.Copy(c.Request.Context(), id)
	if err != nil {
		respondError(c, "CopyRoute", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"route": toRouteResponse(*route)})
}

type stopTimingInput struct {
	StopID        uint    `json:"stop_id" binding:"required"`
	ArrivalTime   *string `json:"arrival_time"`
	DepartureTime *string `json:"departure_time"`
	DwellTime     *string `json:"dwell_time"`
}

// UpdateStopTiming applies per-stop timing. Stops of other routes and
// unknown ids are ignored.
func (h *Handler) UpdateStopTiming(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Stops []stopTimingInput `json:"stops" binding:"required,dive"`
	}
	if !bindJSON(c, "UpdateStopTiming", &input) {
		return
	}
	route, err := h.svc.Routes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "UpdateStopTiming", err)
		return
	}
	onRoute := make(map[uint]bool, len(route.Stops))
	for _, st := range route.Stops {
		onRoute[st.ID] = true
	}

	entries := make([]services.StopTiming, 0, len(input.Stops))
	for _, in := range input.Stops {
		if !onRoute[in.StopID] {
			logrus.WithFields(logrus.Fields{"route_id": id, "stop_id": in.StopID}).Debug("UpdateStopTiming: skipping stop")
			continue
		}
		entries = append(entries, services.StopTiming{
			StopID:        in.StopID,
			ArrivalTime:   in.ArrivalTime,
			DepartureTime: in.DepartureTime,
			DwellTime:     in.DwellTime,
		})
	}
	updated, err := h.svc.Routes.UpdateStopTiming(c.Request.Context(), entries)
	if err != nil {
		respondError(c, "UpdateStopTiming", err)
		return
	}
	route, err = h.svc.Routes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "UpdateStopTiming", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated, "route": toRouteResponse(*route)})
}

func (h *Handler) ListFares(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	fares, err := h.svc.Fares.List(c.Request.Context(), id)
	if err != nil {
		respondError(c, "ListFares", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": fares})
}

type farePriceInput struct {
	TicketTypeID uint     `json:"ticket_type_id" binding:"required"`
	BasePrice    *float64 `json:"base_price" binding:"required,gte=0"`
	IsActive     *bool    `json:"is_active"`
}

func (h *Handler) PriceFares(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Fares []farePriceInput `json:"fares" binding:"required,min=1,dive"`
	}
	if !bindJSON(c, "PriceFares", &input) {
		return
	}
	prices := make([]services.FarePrice, len(input.Fares))
	for i, f := range input.Fares {
		prices[i] = services.FarePrice{TicketTypeID: f.TicketTypeID, BasePrice: *f.BasePrice, IsActive: f.IsActive}
	}
	fares, err := h.svc.Fares.Price(c.Request.Context(), id, prices)
	if err != nil {
		respondError(c, "PriceFares", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": fares})
}

// ReconcileFares reports fare rows left behind by topology edits. With
// ?format=csv the stale rows are returned as CSV.
func (h *Handler) ReconcileFares(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	report, err := h.svc.Fares.Reconcile(c.Request.Context(), id)
	if err != nil {
		respondError(c, "ReconcileFares", err)
		return
	}
	if c.Query("format") != "csv" {
		c.JSON(http.StatusOK, gin.H{"report": report})
		return
	}

	out, err := gocsv.MarshalString(services.StaleFareRows([]services.FareReport{*report}))
	if err != nil {
		respondError(c, "ReconcileFares", err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=stale_fares.csv")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(out))
}
