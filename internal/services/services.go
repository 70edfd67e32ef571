// Package services implements the back-office operations on top of gorm.
// Every service receives its *gorm.DB at construction; nothing reads a
// package-level handle.
package services

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bus_backoffice/internal/geocode"
	"bus_backoffice/internal/notify"
)

// Services bundles every service wired to one database.
type Services struct {
	Cities    *CityService
	Routes    *RouteService
	Fares     *FareMatrix
	Schedules *ScheduleService
	Copier    *RouteCopier
	Closures  *ClosureService
	Search    *SearchService
	Bookings  *BookingService
	Buses     *BusService
	Drivers   *DriverService
	Users     *UserService
	Contact   *ContactService
}

// New wires every service. notifier and geocoder may be nil.
func New(db *gorm.DB, notifier notify.Notifier, geocoder geocode.Geocoder, supportEmail string) *Services {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if geocoder == nil {
		geocoder = geocode.Disabled{}
	}
	fares := NewFareMatrix(db)
	return &Services{
		Cities:    NewCityService(db, geocoder),
		Routes:    NewRouteService(db, fares, notifier),
		Fares:     fares,
		Schedules: NewScheduleService(db),
		Copier:    NewRouteCopier(db),
		Closures:  NewClosureService(db),
		Search:    NewSearchService(db),
		Bookings:  NewBookingService(db, notifier),
		Buses:     NewBusService(db),
		Drivers:   NewDriverService(db),
		Users:     NewUserService(db),
		Contact:   NewContactService(db, notifier, supportEmail),
	}
}

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (p Page) normalized() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	return p
}

// paginate is a gorm scope applying p.
func paginate(p Page) func(*gorm.DB) *gorm.DB {
	p = p.normalized()
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((p.Page - 1) * p.Limit).Limit(p.Limit)
	}
}

// forUpdate locks selected rows until the transaction ends. The sqlite
// dialect drops the clause.
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func withTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

func exists(tx *gorm.DB, model interface{}, query string, args ...interface{}) (bool, error) {
	var n int64
	if err := tx.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func ptr[T any](v T) *T { return &v }
