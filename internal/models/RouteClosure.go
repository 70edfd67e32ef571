package models

import (
	"time"

	"gorm.io/gorm"
)

// RouteClosure suspends a route for an inclusive date range.
type RouteClosure struct {
	gorm.Model
	RouteID   uint      `json:"route_id" gorm:"index;not null"`
	StartDate time.Time `json:"start_date" gorm:"type:date"`
	EndDate   time.Time `json:"end_date" gorm:"type:date"`
	Reason    string    `json:"reason"`
}
