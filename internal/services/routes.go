package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bus_backoffice/internal/apperr"
	"bus_backoffice/internal/models"
	"bus_backoffice/internal/notify"
)

// RouteService owns route topology: the route row and its ordered stops.
// Every topology change regenerates the fare matrix in the same
// transaction.
type RouteService struct {
	db       *gorm.DB
	fares    *FareMatrix
	notifier notify.Notifier
}

func NewRouteService(db *gorm.DB, fares *FareMatrix, notifier notify.Notifier) *RouteService {
	return &RouteService{db: db, fares: fares, notifier: notifier}
}

// RouteInput creates a route. CityIDs is the ordered stop sequence and may
// be empty for a route that is not configured yet. A nil IsActive creates an
// active route.
type RouteInput struct {
	Title       string
	Description string
	CityIDs     []uint
	IsActive    *bool
}

// RouteUpdate replaces a route's core fields. Stops are replaced only when
// CityIDs is non-empty.
type RouteUpdate struct {
	Title       string
	Description string
	CityIDs     []uint
	IsActive    *bool
}

// UpdateResult tells which parts of a route an update touched.
type UpdateResult struct {
	Route        *models.Route `json:"route"`
	CoreChanged  bool          `json:"core_changed"`
	StopsChanged bool          `json:"stops_changed"`
	FaresCreated int           `json:"fares_created"`
}

// Create inserts the route, its stops and its fare matrix.
func (s *RouteService) Create(ctx context.Context, in RouteInput) (*models.Route, error) {
	title := in.Title
	if strings.TrimSpace(title) == "" {
		return nil, apperr.Validation("title is required")
	}

	var route models.Route
	created := 0
	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := ensureTitleFree(tx, title, 0); err != nil {
			return err
		}
		if err := ensureCities(tx, in.CityIDs); err != nil {
			return err
		}

		route = models.Route{Title: title, Description: in.Description, IsActive: true}
		if in.IsActive != nil {
			route.IsActive = *in.IsActive
		}
		if err := tx.Create(&route).Error; err != nil {
			return apperr.FromDB(err, "route")
		}
		if err := insertStops(tx, route.ID, in.CityIDs); err != nil {
			return err
		}

		var err error
		created, err = s.fares.Regenerate(tx, route.ID, in.CityIDs)
		return err
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"route_id":      route.ID,
		"stops":         len(in.CityIDs),
		"fares_created": created,
	}).Info("route created")
	return s.Get(ctx, route.ID)
}

// Update edits a route. Stops are never patched: when CityIDs is given all
// existing stops are deleted and the full sequence is inserted again, then
// missing fares are generated.
func (s *RouteService) Update(ctx context.Context, routeID uint, in RouteUpdate) (*UpdateResult, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Validation("title is required")
	}

	result := &UpdateResult{}
	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		var route models.Route
		if err := forUpdate(tx).First(&route, routeID).Error; err != nil {
			return apperr.FromDB(err, fmt.Sprintf("route %d", routeID))
		}
		if err := ensureTitleFree(tx, in.Title, route.ID); err != nil {
			return err
		}

		active := route.IsActive
		if in.IsActive != nil {
			active = *in.IsActive
		}
		result.CoreChanged = route.Title != in.Title || route.Description != in.Description || route.IsActive != active
		if result.CoreChanged {
			route.Title = in.Title
			route.Description = in.Description
			route.IsActive = active
			if err := tx.Save(&route).Error; err != nil {
				return apperr.FromDB(err, "route")
			}
		}

		if len(in.CityIDs) == 0 {
			return nil
		}
		if err := ensureCities(tx, in.CityIDs); err != nil {
			return err
		}

		previous, err := stopCityIDs(tx, route.ID)
		if err != nil {
			return err
		}
		result.StopsChanged = !equalIDs(previous, in.CityIDs)

		if err := tx.Where("route_id = ?", route.ID).Delete(&models.Stop{}).Error; err != nil {
			return apperr.Internal(err, "delete stops")
		}
		if err := insertStops(tx, route.ID, in.CityIDs); err != nil {
			return err
		}
		result.FaresCreated, err = s.fares.Regenerate(tx, route.ID, in.CityIDs)
		return err
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"route_id":      routeID,
		"core_changed":  result.CoreChanged,
		"stops_changed": result.StopsChanged,
		"fares_created": result.FaresCreated,
	}).Info("route updated")

	if result.FaresCreated > 0 {
		s.notifyChange(ctx, routeID, in.Title, "updated", result.FaresCreated)
	}

	result.Route, err = s.Get(ctx, routeID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// StopTiming is a partial update of one stop. Nil fields are left alone.
type StopTiming struct {
	StopID        uint
	ArrivalTime   *string
	DepartureTime *string
	DwellTime     *string
}

// UpdateStopTiming applies each entry independently. Entries naming an
// unknown stop are skipped. It returns how many stops were updated.
func (s *RouteService) UpdateStopTiming(ctx context.Context, entries []StopTiming) (int, error) {
	updated := 0
	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		for _, e := range entries {
			fields := map[string]interface{}{}
			if e.ArrivalTime != nil {
				fields["arrival_time"] = *e.ArrivalTime
			}
			if e.DepartureTime != nil {
				fields["departure_time"] = *e.DepartureTime
			}
			if e.DwellTime != nil {
				fields["dwell_time"] = *e.DwellTime
			}
			if len(fields) == 0 {
				continue
			}

			res := tx.Model(&models.Stop{}).Where("id = ?", e.StopID).Updates(fields)
			if res.Error != nil {
				return apperr.Internal(res.Error, "update stop %d", e.StopID)
			}
			if res.RowsAffected > 0 {
				updated++
			}
		}
		return nil
	})
	return updated, err
}

// Get loads a route with ordered stops, fares and schedules.
func (s *RouteService) Get(ctx context.Context, routeID uint) (*models.Route, error) {
	var route models.Route
	err := s.db.WithContext(ctx).
		Preload("Stops", func(db *gorm.DB) *gorm.DB { return db.Order("stop_order ASC") }).
		Preload("Stops.City").
		Preload("TicketTypes", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Schedules", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&route, routeID).Error
	if err != nil {
		return nil, apperr.FromDB(err, fmt.Sprintf("route %d", routeID))
	}
	for i := range route.Schedules {
		FormatForRead(&route.Schedules[i])
	}
	return &route, nil
}

// RouteQuery filters List.
type RouteQuery struct {
	ActiveOnly bool
	Search     string
	Page       Page
}

// List returns one page of routes and the total match count.
func (s *RouteService) List(ctx context.Context, q RouteQuery) ([]models.Route, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Route{})
	if q.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if q.Search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(q.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err, "count routes")
	}
	var routes []models.Route
	err := query.Scopes(paginate(q.Page)).
		Preload("Stops", func(db *gorm.DB) *gorm.DB { return db.Order("stop_order ASC") }).
		Preload("Stops.City").
		Order("id ASC").
		Find(&routes).Error
	if err != nil {
		return nil, 0, apperr.Internal(err, "list routes")
	}
	return routes, total, nil
}

// Delete soft-deletes a route and physically removes its stops. Fares and
// schedules stay for the bookings that reference them.
func (s *RouteService) Delete(ctx context.Context, routeID uint) error {
	var title string
	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		route, err := loadRoute(forUpdate(tx), routeID)
		if err != nil {
			return err
		}
		title = route.Title
		if err := tx.Where("route_id = ?", route.ID).Delete(&models.Stop{}).Error; err != nil {
			return apperr.Internal(err, "delete stops")
		}
		if err := tx.Delete(route).Error; err != nil {
			return apperr.Internal(err, "delete route")
		}
		return nil
	})
	if err != nil {
		return err
	}
	logrus.WithField("route_id", routeID).Info("route deleted")
	s.notifyChange(ctx, routeID, title, "deleted", 0)
	return nil
}

func (s *RouteService) notifyChange(ctx context.Context, routeID uint, title, action string, faresCreated int) {
	s.notifier.Notify(ctx, notify.Message{
		Template: notify.RouteChanged,
		Data: map[string]interface{}{
			"route_id":      routeID,
			"title":         title,
			"action":        action,
			"fares_created": faresCreated,
		},
	})
}

// buildStops lays out stops for cityIDs. The first stop has no arrival and
// the last has no departure (nil); every other time is the empty
// "unscheduled" placeholder.
func buildStops(routeID uint, cityIDs []uint) []models.Stop {
	stops := make([]models.Stop, 0, len(cityIDs))
	last := len(cityIDs) - 1
	for i, cityID := range cityIDs {
		stop := models.Stop{
			RouteID:       routeID,
			CityID:        cityID,
			StopOrder:     i + 1,
			ArrivalTime:   ptr(""),
			DepartureTime: ptr(""),
		}
		if i == 0 {
			stop.ArrivalTime = nil
		}
		if i == last {
			stop.DepartureTime = nil
		}
		if i != 0 && i != last {
			stop.DwellTime = ptr("")
		}
		stops = append(stops, stop)
	}
	return stops
}

func insertStops(tx *gorm.DB, routeID uint, cityIDs []uint) error {
	if len(cityIDs) == 0 {
		return nil
	}
	stops := buildStops(routeID, cityIDs)
	if err := tx.Omit("City").Create(&stops).Error; err != nil {
		return apperr.Internal(err, "create stops")
	}
	return nil
}

// ensureTitleFree rejects title when another live route uses it. The match
// is exact and case-sensitive.
func ensureTitleFree(tx *gorm.DB, title string, exceptID uint) error {
	taken, err := exists(tx, &models.Route{}, "title = ? AND id <> ?", title, exceptID)
	if err != nil {
		return apperr.Internal(err, "check route title")
	}
	if taken {
		return apperr.Conflict("a route titled %q already exists", title)
	}
	return nil
}

// ensureCities checks that every id names a city that is not deleted.
func ensureCities(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	var found []uint
	if err := tx.Model(&models.City{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return apperr.Internal(err, "load cities")
	}
	have := make(map[uint]bool, len(found))
	for _, id := range found {
		have[id] = true
	}
	for _, id := range ids {
		if !have[id] {
			return apperr.NotFound("city %d not found", id)
		}
	}
	return nil
}

func equalIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
