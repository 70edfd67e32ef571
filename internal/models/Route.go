package models

import (
	"gorm.io/gorm"
)

// Route is a directed path between two terminal cities, optionally via
// intermediate stops. Title is unique among routes that are not deleted.
type Route struct {
	gorm.Model

	Title       string `json:"title" gorm:"index;not null"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active" gorm:"not null"`

	// Associations
	Stops       []Stop        `gorm:"foreignKey:RouteID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"stops,omitempty"`
	TicketTypes []TicketType  `gorm:"foreignKey:RouteID" json:"ticket_types,omitempty"`
	Schedules   []BusSchedule `gorm:"foreignKey:RouteID" json:"schedules,omitempty"`
}
