package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bus_backoffice/internal/apperr"
	"bus_backoffice/internal/metrics"
	"bus_backoffice/internal/models"
)

// FarePair is an ordered origin→destination pair of cities on a route.
type FarePair struct {
	StartCityID uint `json:"start_city_id"`
	EndCityID   uint `json:"end_city_id"`
}

// FarePairs lists every (stops[i], stops[j]) with i < j, in stop order.
// Pairs of a city with itself are skipped and each pair appears once, so a
// city that is visited twice does not produce duplicates.
func FarePairs(cityIDs []uint) []FarePair {
	var pairs []FarePair
	seen := map[FarePair]bool{}
	for i := 0; i < len(cityIDs); i++ {
		for j := i + 1; j < len(cityIDs); j++ {
			p := FarePair{StartCityID: cityIDs[i], EndCityID: cityIDs[j]}
			if p.StartCityID == p.EndCityID || seen[p] {
				continue
			}
			seen[p] = true
			pairs = append(pairs, p)
		}
	}
	return pairs
}

// FareMatrix keeps a route's ticket types in step with its topology.
type FareMatrix struct {
	db *gorm.DB
}

func NewFareMatrix(db *gorm.DB) *FareMatrix {
	return &FareMatrix{db: db}
}

// Regenerate ensures one ticket type per stop pair of cityIDs on routeID,
// using tx so it joins the caller's transaction. Existing rows, including
// rows for pairs no longer on the route, are left untouched. New rows have
// no price.
func (f *FareMatrix) Regenerate(tx *gorm.DB, routeID uint, cityIDs []uint) (int, error) {
	pairs := FarePairs(cityIDs)
	if len(pairs) == 0 {
		return 0, nil
	}

	names, err := cityNames(tx, cityIDs)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, p := range pairs {
		found, err := exists(tx, &models.TicketType{},
			"route_id = ? AND start_city_id = ? AND end_city_id = ?", routeID, p.StartCityID, p.EndCityID)
		if err != nil {
			return created, apperr.Internal(err, "check fare %d→%d", p.StartCityID, p.EndCityID)
		}
		if found {
			continue
		}

		fare := models.TicketType{
			RouteID:     routeID,
			StartCityID: p.StartCityID,
			EndCityID:   p.EndCityID,
			Name:        fmt.Sprintf("%s - %s", names[p.StartCityID], names[p.EndCityID]),
			IsActive:    true,
		}
		if err := tx.Create(&fare).Error; err != nil {
			return created, apperr.Internal(err, "create fare %d→%d", p.StartCityID, p.EndCityID)
		}
		created++
	}

	metrics.FaresCreated.Add(float64(created))
	logrus.WithFields(logrus.Fields{
		"route_id": routeID,
		"pairs":    len(pairs),
		"created":  created,
	}).Debug("fare matrix regenerated")
	return created, nil
}

// RegenerateRoute runs Regenerate for the route's current stops in its own
// transaction.
func (f *FareMatrix) RegenerateRoute(ctx context.Context, routeID uint) (int, error) {
	created := 0
	err := withTx(ctx, f.db, func(tx *gorm.DB) error {
		var route models.Route
		if err := forUpdate(tx).First(&route, routeID).Error; err != nil {
			return apperr.FromDB(err, "route")
		}
		cityIDs, err := stopCityIDs(tx, routeID)
		if err != nil {
			return err
		}
		created, err = f.Regenerate(tx, routeID, cityIDs)
		return err
	})
	return created, err
}

// List returns a route's fare rows in creation order.
func (f *FareMatrix) List(ctx context.Context, routeID uint) ([]models.TicketType, error) {
	if _, err := loadRoute(f.db.WithContext(ctx), routeID); err != nil {
		return nil, err
	}
	var fares []models.TicketType
	err := f.db.WithContext(ctx).
		Preload("StartCity").Preload("EndCity").
		Where("route_id = ?", routeID).
		Order("id ASC").
		Find(&fares).Error
	if err != nil {
		return nil, apperr.Internal(err, "list fares")
	}
	return fares, nil
}

// FarePrice sets the price of one fare row.
type FarePrice struct {
	TicketTypeID uint
	BasePrice    float64
	IsActive     *bool
}

// Price applies prices to fare rows of routeID. A row that belongs to a
// different route is reported as not found.
func (f *FareMatrix) Price(ctx context.Context, routeID uint, prices []FarePrice) ([]models.TicketType, error) {
	for _, p := range prices {
		if p.BasePrice < 0 {
			return nil, apperr.Validation("base_price must not be negative")
		}
	}

	err := withTx(ctx, f.db, func(tx *gorm.DB) error {
		if _, err := loadRoute(tx, routeID); err != nil {
			return err
		}
		for _, p := range prices {
			var fare models.TicketType
			err := tx.Where("id = ? AND route_id = ?", p.TicketTypeID, routeID).First(&fare).Error
			if err != nil {
				return apperr.FromDB(err, fmt.Sprintf("ticket type %d", p.TicketTypeID))
			}
			updates := map[string]interface{}{"base_price": p.BasePrice}
			if p.IsActive != nil {
				updates["is_active"] = *p.IsActive
			}
			if err := tx.Model(&fare).Updates(updates).Error; err != nil {
				return apperr.Internal(err, "price ticket type %d", p.TicketTypeID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f.List(ctx, routeID)
}

// StaleFare is a fare row whose pair is no longer served by the route.
type StaleFare struct {
	TicketTypeID uint     `json:"ticket_type_id"`
	RouteID      uint     `json:"route_id"`
	Name         string   `json:"name"`
	StartCityID  uint     `json:"start_city_id"`
	EndCityID    uint     `json:"end_city_id"`
	BasePrice    *float64 `json:"base_price"`
}

// FareReport compares a route's fare rows with its current topology.
type FareReport struct {
	RouteID uint        `json:"route_id"`
	Title   string      `json:"title"`
	Stale   []StaleFare `json:"stale"`
	Missing []FarePair  `json:"missing"`
}

// Reconcile reports stale and missing fares for one route. Nothing is
// changed: stale rows may still price historical bookings.
func (f *FareMatrix) Reconcile(ctx context.Context, routeID uint) (*FareReport, error) {
	db := f.db.WithContext(ctx)
	route, err := loadRoute(db, routeID)
	if err != nil {
		return nil, err
	}
	cityIDs, err := stopCityIDs(db, routeID)
	if err != nil {
		return nil, err
	}
	var fares []models.TicketType
	if err := db.Where("route_id = ?", routeID).Order("id ASC").Find(&fares).Error; err != nil {
		return nil, apperr.Internal(err, "load fares")
	}

	report := &FareReport{RouteID: route.ID, Title: route.Title, Stale: []StaleFare{}, Missing: []FarePair{}}
	valid := map[FarePair]bool{}
	for _, p := range FarePairs(cityIDs) {
		valid[p] = true
	}
	have := map[FarePair]bool{}
	for _, fare := range fares {
		p := FarePair{StartCityID: fare.StartCityID, EndCityID: fare.EndCityID}
		have[p] = true
		if !valid[p] {
			report.Stale = append(report.Stale, StaleFare{
				TicketTypeID: fare.ID,
				RouteID:      fare.RouteID,
				Name:         fare.Name,
				StartCityID:  fare.StartCityID,
				EndCityID:    fare.EndCityID,
				BasePrice:    fare.BasePrice,
			})
		}
	}
	for _, p := range FarePairs(cityIDs) {
		if !have[p] {
			report.Missing = append(report.Missing, p)
		}
	}
	return report, nil
}

// ReconcileAll runs Reconcile for every route that is not deleted.
func (f *FareMatrix) ReconcileAll(ctx context.Context) ([]FareReport, error) {
	var ids []uint
	if err := f.db.WithContext(ctx).Model(&models.Route{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, apperr.Internal(err, "list routes")
	}
	reports := make([]FareReport, 0, len(ids))
	for _, id := range ids {
		r, err := f.Reconcile(ctx, id)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, nil
}

// StaleFareRow is one stale fare flattened for CSV export. An unpriced
// fare has an empty BasePrice.
type StaleFareRow struct {
	RouteID      uint   `csv:"route_id"`
	RouteTitle   string `csv:"route_title"`
	TicketTypeID uint   `csv:"ticket_type_id"`
	Name         string `csv:"name"`
	StartCityID  uint   `csv:"start_city_id"`
	EndCityID    uint   `csv:"end_city_id"`
	BasePrice    string `csv:"base_price"`
}

// StaleFareRows flattens the stale fares of reports.
func StaleFareRows(reports []FareReport) []StaleFareRow {
	rows := []StaleFareRow{}
	for _, r := range reports {
		for _, s := range r.Stale {
			price := ""
			if s.BasePrice != nil {
				price = strconv.FormatFloat(*s.BasePrice, 'f', 2, 64)
			}
			rows = append(rows, StaleFareRow{
				RouteID:      r.RouteID,
				RouteTitle:   r.Title,
				TicketTypeID: s.TicketTypeID,
				Name:         s.Name,
				StartCityID:  s.StartCityID,
				EndCityID:    s.EndCityID,
				BasePrice:    price,
			})
		}
	}
	return rows
}

func cityNames(tx *gorm.DB, ids []uint) (map[uint]string, error) {
	var cities []models.City
	if err := tx.Unscoped().Where("id IN ?", ids).Find(&cities).Error; err != nil {
		return nil, apperr.Internal(err, "load cities")
	}
	names := make(map[uint]string, len(cities))
	for _, c := range cities {
		names[c.ID] = c.Name
	}
	return names, nil
}

func stopCityIDs(tx *gorm.DB, routeID uint) ([]uint, error) {
	var ids []uint
	err := tx.Model(&models.Stop{}).
		Where("route_id = ?", routeID).
		Order("stop_order ASC").
		Pluck("city_id", &ids).Error
	if err != nil {
		return nil, apperr.Internal(err, "load stops")
	}
	return ids, nil
}

func loadRoute(tx *gorm.DB, routeID uint) (*models.Route, error) {
	var route models.Route
	if err := tx.First(&route, routeID).Error; err != nil {
		return nil, apperr.FromDB(err, fmt.Sprintf("route %d", routeID))
	}
	return &route, nil
}
