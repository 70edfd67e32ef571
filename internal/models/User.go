package models

import "gorm.io/gorm"

// Roles
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

type User struct {
	gorm.Model
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"unique"`
	Password string `json:"-"`
	Phone    string `json:"phone"`
	Role     string `json:"role"` // "admin", "customer"
}

// ContactMessage is a support request sent from the public site.
type ContactMessage struct {
	gorm.Model
	Name     string `json:"name"`
	Email    string `json:"email"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Resolved bool   `json:"resolved"`
}

// All lists every model for migration.
func All() []interface{} {
	return []interface{}{
		&User{}, &City{}, &Route{}, &Stop{}, &TicketType{}, &Bus{}, &Driver{},
		&BusSchedule{}, &RouteClosure{}, &Booking{}, &BookingPassenger{}, &ContactMessage{},
	}
}
