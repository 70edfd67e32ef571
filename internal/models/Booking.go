package models

import (
	"time"

	"gorm.io/gorm"
)

// Booking statuses.
const (
	BookingPending   = "Pending"
	BookingConfirmed = "Confirmed"
	BookingCancelled = "Cancelled"
)

// Booking is a reservation on a schedule for one travel date. Origin and
// destination are captured as booked, not looked up from live topology.
type Booking struct {
	gorm.Model

	Reference         string    `json:"reference" gorm:"uniqueIndex;not null"`
	UserID            *uint     `json:"user_id" gorm:"index"`
	RouteID           uint      `json:"route_id" gorm:"index;not null"`
	ScheduleID        uint      `json:"schedule_id" gorm:"index;not null"`
	OriginCityID      uint      `json:"origin_city_id"`
	DestinationCityID uint      `json:"destination_city_id"`
	OriginName        string    `json:"origin_name"`
	DestinationName   string    `json:"destination_name"`
	TravelDate        time.Time `json:"travel_date" gorm:"type:date"`
	ContactEmail      string    `json:"contact_email"`
	Status            string    `json:"status" gorm:"index"`
	TotalAmount       float64   `json:"total_amount"`

	Passengers []BookingPassenger `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;" json:"passengers"`
}

// BookingPassenger snapshots the fare it was sold at. SourceTicketTypeID is
// informational only; later fare edits never change a booked line.
type BookingPassenger struct {
	ID                 uint    `gorm:"primaryKey" json:"id"`
	BookingID          uint    `json:"booking_id" gorm:"index;not null"`
	Name               string  `json:"name"`
	Age                int     `json:"age"`
	Gender             string  `json:"gender"`
	SeatNumber         int     `json:"seat_number"`
	SourceTicketTypeID uint    `json:"ticket_type_id"`
	TicketTypeName     string  `json:"ticket_type_name"`
	Price              float64 `json:"price"`
}
