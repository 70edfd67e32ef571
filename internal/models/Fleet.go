package models

import (
	"gorm.io/gorm"
)

// Bus is a vehicle that can be bound to a schedule.
type Bus struct {
	gorm.Model
	PlateNumber string `json:"plate_number" gorm:"index;not null"`
	BusModel    string `json:"model"`
	Capacity    int    `json:"capacity"`
	IsActive    bool   `json:"is_active" gorm:"not null"`
}

// Driver operates at most one schedule at a time.
type Driver struct {
	gorm.Model
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	LicenseNumber string `json:"license_number" gorm:"index;not null"`
	IsActive      bool   `json:"is_active" gorm:"not null"`
}
