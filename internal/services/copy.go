package services

import (
	"context"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bus_backoffice/internal/apperr"
	"bus_backoffice/internal/metrics"
	"bus_backoffice/internal/models"
)

// RouteCopier clones a route into a seasonal variant.
type RouteCopier struct {
	db *gorm.DB
}

func NewRouteCopier(db *gorm.DB) *RouteCopier {
	return &RouteCopier{db: db}
}

// Copy creates "<title> (Summer<new id>)" with the source's stops (timings
// verbatim), a row-for-row copy of its fare matrix and a clone of its first
// schedule. The clone keeps the source's bus and driver; it does not go
// through the schedule exclusivity checks. Everything happens in one
// transaction, so a failure leaves no partial route behind.
func (c *RouteCopier) Copy(ctx context.Context, routeID uint) (*models.Route, error) {
	var newRoute models.Route
	var fareCount int
	err := withTx(ctx, c.db, func(tx *gorm.DB) error {
		src, err := loadRoute(tx, routeID)
		if err != nil {
			return err
		}

		var stops []models.Stop
		if err := tx.Where("route_id = ?", src.ID).Order("stop_order ASC").Find(&stops).Error; err != nil {
			return apperr.Internal(err, "load stops")
		}
		var fares []models.TicketType
		if err := tx.Where("route_id = ?", src.ID).Order("id ASC").Find(&fares).Error; err != nil {
			return apperr.Internal(err, "load fares")
		}
		var schedules []models.BusSchedule
		if err := tx.Where("route_id = ?", src.ID).Order("id ASC").Limit(1).Find(&schedules).Error; err != nil {
			return apperr.Internal(err, "load schedule")
		}

		// The suffix needs the new id, so the route is saved twice.
		newRoute = models.Route{Title: src.Title, Description: src.Description, IsActive: true}
		if err := tx.Create(&newRoute).Error; err != nil {
			return apperr.FromDB(err, "route")
		}
		newRoute.Title = fmt.Sprintf("%s (Summer%d)", src.Title, newRoute.ID)
		if err := tx.Model(&newRoute).Update("title", newRoute.Title).Error; err != nil {
			return apperr.Internal(err, "rename copied route")
		}

		if len(stops) > 0 {
			copied := make([]models.Stop, len(stops))
			for i, st := range stops {
				copied[i] = models.Stop{
					RouteID:       newRoute.ID,
					CityID:        st.CityID,
					StopOrder:     st.StopOrder,
					ArrivalTime:   st.ArrivalTime,
					DepartureTime: st.DepartureTime,
					DwellTime:     st.DwellTime,
				}
			}
			if err := tx.Omit("City").Create(&copied).Error; err != nil {
				return apperr.Internal(err, "copy stops")
			}
		}

		if len(fares) > 0 {
			copied := make([]models.TicketType, len(fares))
			for i := range fares {
				if err := copyRecord(&copied[i], &fares[i]); err != nil {
					return err
				}
				copied[i].Model = gorm.Model{}
				copied[i].RouteID = newRoute.ID
				copied[i].IsActive = true
				copied[i].StartCity = nil
				copied[i].EndCity = nil
			}
			if err := tx.Omit(clause.Associations).Create(&copied).Error; err != nil {
				return apperr.Internal(err, "copy fares")
			}
			fareCount = len(copied)
		}

		if len(schedules) > 0 {
			var sched models.BusSchedule
			if err := copyRecord(&sched, &schedules[0]); err != nil {
				return err
			}
			sched.Model = gorm.Model{}
			sched.RouteID = newRoute.ID
			sched.Bus = nil
			sched.Driver = nil
			if err := tx.Omit(clause.Associations).Create(&sched).Error; err != nil {
				return apperr.Internal(err, "copy schedule")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RoutesCopied.Inc()
	metrics.FaresCreated.Add(float64(fareCount))
	logrus.WithFields(logrus.Fields{
		"source_route_id": routeID,
		"route_id":        newRoute.ID,
		"fares":           fareCount,
	}).Info("route copied")

	var out models.Route
	err = c.db.WithContext(ctx).
		Preload("Stops", func(db *gorm.DB) *gorm.DB { return db.Order("stop_order ASC") }).
		Preload("TicketTypes", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Schedules").
		First(&out, newRoute.ID).Error
	if err != nil {
		return nil, apperr.FromDB(err, "copied route")
	}
	return &out, nil
}

func copyRecord(to, from interface{}) error {
	if err := copier.CopyWithOption(to, from, copier.Option{DeepCopy: true}); err != nil {
		return apperr.Internal(err, "copy record")
	}
	return nil
}
