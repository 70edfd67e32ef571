package models

import (
	"gorm.io/gorm"
)

// Recurrence patterns accepted for a schedule.
const (
	RecurrenceDaily  = "Daily"
	RecurrenceWeekly = "Weekly"
	RecurrenceCustom = "Custom"
)

// BusSchedule binds a bus and a driver to a route at a departure time.
type BusSchedule struct {
	gorm.Model

	RouteID  uint    `json:"route_id" gorm:"index;not null"`
	BusID    uint    `json:"bus_id" gorm:"index;not null"`
	DriverID uint    `json:"driver_id" gorm:"index;not null"`
	Bus      *Bus    `gorm:"foreignKey:BusID" json:"bus,omitempty"`
	Driver   *Driver `gorm:"foreignKey:DriverID" json:"driver,omitempty"`

	DepartureTime     string  `json:"departure_time"`
	ArrivalTime       string  `json:"arrival_time"`
	TotalRunningHours float64 `json:"total_running_hours"`
	DurationTime      string  `json:"duration_time"`
	NoOfDays          string  `json:"no_of_days"`
	RecurrencePattern string  `json:"recurrence_pattern"`
	DaysOfWeek        string  `json:"days_of_week"`
	IsActive          bool    `json:"is_active" gorm:"not null"`
}
