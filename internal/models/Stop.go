package models

import (
	"time"
)

// Stop places a city on a route at a 1-based StopOrder.
//
// The time fields distinguish nil (not applicable: no arrival at the first
// stop, no departure at the last) from "" (applicable but not yet scheduled).
// Stops are replaced wholesale on every topology edit and deleted physically.
type Stop struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	RouteID   uint `json:"route_id" gorm:"index;not null"`
	CityID    uint `json:"city_id" gorm:"not null"`
	City      City `gorm:"foreignKey:CityID" json:"city,omitempty"`
	StopOrder int  `json:"stop_order" gorm:"not null"`

	ArrivalTime   *string `json:"arrival_time"`
	DepartureTime *string `json:"departure_time"`
	DwellTime     *string `json:"dwell_time"`
}
