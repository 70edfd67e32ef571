package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bus_backoffice/internal/models"
	"bus_backoffice/internal/notify"
)

// newTestDB opens an isolated in-memory database for t.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type recorder struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recorder) Notify(_ context.Context, msg notify.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) templates() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.msgs))
	for i, m := range r.msgs {
		out[i] = m.Template
	}
	return out
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	db    *gorm.DB
	svc   *Services
	notes *recorder
}

func newFixture(t *testing.T) *fixture {
	db := newTestDB(t)
	notes := &recorder{}
	return &fixture{
		t:     t,
		ctx:   context.Background(),
		db:    db,
		svc:   New(db, notes, nil, "support@example.com"),
		notes: notes,
	}
}

func (f *fixture) city(name string) uint {
	f.t.Helper()
	c, err := f.svc.Cities.Create(f.ctx, CityInput{Name: ptr(name)})
	require.NoError(f.t, err)
	return c.ID
}

func (f *fixture) route(title string, cityIDs ...uint) *models.Route {
	f.t.Helper()
	r, err := f.svc.Routes.Create(f.ctx, RouteInput{Title: title, CityIDs: cityIDs})
	require.NoError(f.t, err)
	return r
}

func (f *fixture) bus(plate string, capacity int) uint {
	f.t.Helper()
	b, err := f.svc.Buses.Create(f.ctx, BusInput{PlateNumber: ptr(plate), Capacity: ptr(capacity)})
	require.NoError(f.t, err)
	return b.ID
}

func (f *fixture) driver(license string) uint {
	f.t.Helper()
	d, err := f.svc.Drivers.Create(f.ctx, DriverInput{Name: ptr("Driver " + license), LicenseNumber: ptr(license)})
	require.NoError(f.t, err)
	return d.ID
}

func (f *fixture) priceAll(routeID uint, price float64) {
	f.t.Helper()
	fares, err := f.svc.Fares.List(f.ctx, routeID)
	require.NoError(f.t, err)
	prices := make([]FarePrice, len(fares))
	for i, fare := range fares {
		prices[i] = FarePrice{TicketTypeID: fare.ID, BasePrice: price}
	}
	_, err = f.svc.Fares.Price(f.ctx, routeID, prices)
	require.NoError(f.t, err)
}

// monday is a Monday; monday.AddDate(0, 0, 1) is a Tuesday.
var monday = time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
