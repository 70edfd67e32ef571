package models

import (
	"gorm.io/gorm"
)

// City is a place a route can start, end or stop at.
type City struct {
	gorm.Model

	Name      string   `json:"name" gorm:"index;not null"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	IsActive  bool     `json:"is_active" gorm:"not null"`

	// WKB point (SRID 4326), derived from Latitude/Longitude.
	Geometry []byte `json:"-" gorm:"type:bytea"`
}
