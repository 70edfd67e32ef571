package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bus_backoffice/internal/apperr"
	"bus_backoffice/internal/models"
)

// ClosureService suspends routes for date ranges.
type ClosureService struct {
	db *gorm.DB
}

func NewClosureService(db *gorm.DB) *ClosureService {
	return &ClosureService{db: db}
}

// ClosureInput is an inclusive date range for one route.
type ClosureInput struct {
	RouteID   uint
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}

func (s *ClosureService) Create(ctx context.Context, in ClosureInput) (*models.RouteClosure, error) {
	start, end := DateOnly(in.StartDate), DateOnly(in.EndDate)
	if end.Before(start) {
		return nil, apperr.Validation("end_date must not be before start_date")
	}
	closure := models.RouteClosure{RouteID: in.RouteID, StartDate: start, EndDate: end, Reason: in.Reason}
	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		if _, err := loadRoute(tx, in.RouteID); err != nil {
			return err
		}
		return apperr.FromDB(tx.Create(&closure).Error, "closure")
	})
	if err != nil {
		return nil, err
	}
	return &closure, nil
}

// List returns closures ordered by start date, optionally for one route.
func (s *ClosureService) List(ctx context.Context, routeID uint) ([]models.RouteClosure, error) {
	query := s.db.WithContext(ctx).Order("start_date ASC").Order("id ASC")
	if routeID != 0 {
		query = query.Where("route_id = ?", routeID)
	}
	var closures []models.RouteClosure
	if err := query.Find(&closures).Error; err != nil {
		return nil, apperr.Internal(err, "list closures")
	}
	return closures, nil
}

func (s *ClosureService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.RouteClosure{}, id)
	if res.Error != nil {
		return apperr.Internal(res.Error, "delete closure")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("closure %d not found", id)
	}
	return nil
}

// IsClosed reports whether routeID is closed on date.
func (s *ClosureService) IsClosed(ctx context.Context, routeID uint, date time.Time) (bool, error) {
	return closedOn(s.db.WithContext(ctx), routeID, date)
}

// closedOn compares dates in Go so the stored column type does not matter.
func closedOn(tx *gorm.DB, routeID uint, date time.Time) (bool, error) {
	var closures []models.RouteClosure
	if err := tx.Where("route_id = ?", routeID).Find(&closures).Error; err != nil {
		return false, apperr.Internal(err, "load closures")
	}
	d := DateOnly(date)
	for _, c := range closures {
		if !d.Before(DateOnly(c.StartDate)) && !d.After(DateOnly(c.EndDate)) {
			return true, nil
		}
	}
	return false, nil
}
