package models

import (
	"gorm.io/gorm"
)

// TicketType is one entry of a route's fare matrix: a sellable
// origin→destination pair. BasePrice stays nil until an operator prices it.
type TicketType struct {
	gorm.Model

	RouteID     uint     `json:"route_id" gorm:"index;not null"`
	StartCityID uint     `json:"start_city_id" gorm:"not null"`
	EndCityID   uint     `json:"end_city_id" gorm:"not null"`
	StartCity   *City    `gorm:"foreignKey:StartCityID" json:"start_city,omitempty"`
	EndCity     *City    `gorm:"foreignKey:EndCityID" json:"end_city,omitempty"`
	Name        string   `json:"name"`
	BasePrice   *float64 `json:"base_price"`
	IsActive    bool     `json:"is_active" gorm:"not null"`
}
