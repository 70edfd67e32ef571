package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bus_backoffice/internal/middleware"
	"bus_backoffice/internal/models"
	"bus_backoffice/internal/services"
)

type passengerInput struct {
	Name         string `json:"name" binding:"required"`
	Age          int    `json:"age" binding:"gte=0,lte=130"`
	Gender       string `json:"gender" binding:"omitempty,oneof=male female other"`
	SeatNumber   int    `json:"seat_number" binding:"required,gt=0"`
	TicketTypeID uint   `json:"ticket_type_id" binding:"required"`
}

type bookingInput struct {
	RouteID           uint             `json:"route_id" binding:"required"`
	ScheduleID        uint             `json:"schedule_id" binding:"required"`
	OriginCityID      uint             `json:"origin_city_id" binding:"required"`
	DestinationCityID uint             `json:"destination_city_id" binding:"required,nefield=OriginCityID"`
	TravelDate        string           `json:"travel_date" binding:"required,datetime=2006-01-02"`
	ContactEmail      string           `json:"contact_email" binding:"required,email"`
	Passengers        []passengerInput `json:"passengers" binding:"required,min=1,max=10,dive"`
}

// CreateBooking books seats for the authenticated user.
func (h *Handler) CreateBooking(c *gin.Context) {
	var input bookingInput
	if !bindJSON(c, "CreateBooking", &input) {
		return
	}
	date, err := services.ParseDate(input.TravelDate)
	if err != nil {
		respondError(c, "CreateBooking", err)
		return
	}
	userID := middleware.UserID(c)
	in := services.BookingInput{
		UserID:            &userID,
		RouteID:           input.RouteID,
		ScheduleID:        input.ScheduleID,
		OriginCityID:      input.OriginCityID,
		DestinationCityID: input.DestinationCityID,
		TravelDate:        date,
		ContactEmail:      input.ContactEmail,
	}
	for _, p := range input.Passengers {
		in.Passengers = append(in.Passengers, services.PassengerInput{
			Name:         p.Name,
			Age:          p.Age,
			Gender:       p.Gender,
			SeatNumber:   p.SeatNumber,
			TicketTypeID: p.TicketTypeID,
		})
	}
	booking, err := h.svc.Bookings.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, "CreateBooking", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": booking})
}

// ownBooking loads a booking the caller may see: their own, or any for
// admins. Someone else's booking reads as not found.
func (h *Handler) ownBooking(c *gin.Context, op string) (*models.Booking, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	booking, err := h.svc.Bookings.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, op, err)
		return nil, false
	}
	if c.GetString(middleware.ContextRole) != models.RoleAdmin {
		if booking.UserID == nil || *booking.UserID != middleware.UserID(c) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return nil, false
		}
	}
	return booking, true
}

func (h *Handler) GetBooking(c *gin.Context) {
	booking, ok := h.ownBooking(c, "GetBooking")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// ListMyBookings lists the caller's bookings.
func (h *Handler) ListMyBookings(c *gin.Context) {
	var q pageQuery
	if !bindQuery(c, "ListMyBookings", &q) {
		return
	}
	userID := middleware.UserID(c)
	bookings, total, err := h.svc.Bookings.List(c.Request.Context(), services.BookingQuery{UserID: &userID, Page: q.page()})
	if err != nil {
		respondError(c, "ListMyBookings", err)
		return
	}
	listResponse(c, bookings, total, q)
}

func (h *Handler) CancelBooking(c *gin.Context) {
	booking, ok := h.ownBooking(c, "CancelBooking")
	if !ok {
		return
	}
	booking, err := h.svc.Bookings.Cancel(c.Request.Context(), booking.ID)
	if err != nil {
		respondError(c, "CancelBooking", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// ConfirmBooking stands in for the payment callback.
func (h *Handler) ConfirmBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	booking, err := h.svc.Bookings.Confirm(c.Request.Context(), id)
	if err != nil {
		respondError(c, "ConfirmBooking", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// ListBookings is the admin view with filters.
func (h *Handler) ListBookings(c *gin.Context) {
	var q struct {
		pageQuery
		RouteID    uint   `form:"route_id"`
		ScheduleID uint   `form:"schedule_id"`
		Status     string `form:"status" binding:"omitempty,oneof=Pending Confirmed Cancelled"`
	}
	if !bindQuery(c, "ListBookings", &q) {
		return
	}
	bookings, total, err := h.svc.Bookings.List(c.Request.Context(), services.BookingQuery{
		RouteID:    q.RouteID,
		ScheduleID: q.ScheduleID,
		Status:     q.Status,
		Page:       q.page(),
	})
	if err != nil {
		respondError(c, "ListBookings", err)
		return
	}
	listResponse(c, bookings, total, q.pageQuery)
}
