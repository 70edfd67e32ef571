package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bus_backoffice/internal/apperr"
	"bus_backoffice/internal/metrics"
	"bus_backoffice/internal/models"
)

// ScheduleService binds buses and drivers to routes.
type ScheduleService struct {
	db *gorm.DB
}

func NewScheduleService(db *gorm.DB) *ScheduleService {
	return &ScheduleService{db: db}
}

// ScheduleInput describes a schedule to create or replace.
type ScheduleInput struct {
	BusID             uint
	RouteID           uint
	DriverID          uint
	DepartureTime     string
	TotalRunningHours float64
	RecurrencePattern string
	DaysOfWeek        string
}

// prepare validates the input shape and derives the timing fields.
func (in ScheduleInput) prepare() (ScheduleTiming, string, error) {
	if !ValidRecurrence(in.RecurrencePattern) {
		return ScheduleTiming{}, "", apperr.Validation("recurrence_pattern must be one of Daily, Weekly, Custom")
	}
	timing, err := ComputeTiming(in.DepartureTime, in.TotalRunningHours)
	if err != nil {
		return ScheduleTiming{}, "", err
	}
	days := ""
	if in.RecurrencePattern != models.RecurrenceDaily {
		days, err = NormalizeDaysOfWeek(in.DaysOfWeek)
		if err != nil {
			return ScheduleTiming{}, "", err
		}
	}
	return timing, days, nil
}

// Create binds a bus and driver to a route. A driver may appear on only one
// schedule system-wide, and (bus, route, departure_time) must be unique.
func (s *ScheduleService) Create(ctx context.Context, in ScheduleInput) (*models.BusSchedule, error) {
	timing, days, err := in.prepare()
	if err != nil {
		return nil, err
	}

	var sched models.BusSchedule
	err = withTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.checkBinding(tx, in, timing.DepartureTime, 0); err != nil {
			return err
		}
		sched = models.BusSchedule{
			RouteID:           in.RouteID,
			BusID:             in.BusID,
			DriverID:          in.DriverID,
			DepartureTime:     timing.DepartureTime,
			ArrivalTime:       timing.ArrivalTime,
			TotalRunningHours: in.TotalRunningHours,
			DurationTime:      timing.DurationTime,
			NoOfDays:          timing.NoOfDays,
			RecurrencePattern: in.RecurrencePattern,
			DaysOfWeek:        days,
			IsActive:          true,
		}
		if err := tx.Create(&sched).Error; err != nil {
			return apperr.FromDB(err, "schedule")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"schedule_id": sched.ID,
		"route_id":    sched.RouteID,
		"bus_id":      sched.BusID,
		"driver_id":   sched.DriverID,
	}).Info("schedule created")
	return s.Get(ctx, sched.ID)
}

// Update replaces a schedule's binding and timing, re-running every check
// with the schedule itself excluded.
func (s *ScheduleService) Update(ctx context.Context, id uint, in ScheduleInput) (*models.BusSchedule, error) {
	timing, days, err := in.prepare()
	if err != nil {
		return nil, err
	}

	err = withTx(ctx, s.db, func(tx *gorm.DB) error {
		var sched models.BusSchedule
		if err := forUpdate(tx).First(&sched, id).Error; err != nil {
			return apperr.FromDB(err, fmt.Sprintf("schedule %d", id))
		}
		if err := s.checkBinding(tx, in, timing.DepartureTime, sched.ID); err != nil {
			return err
		}
		sched.RouteID = in.RouteID
		sched.BusID = in.BusID
		sched.DriverID = in.DriverID
		sched.DepartureTime = timing.DepartureTime
		sched.ArrivalTime = timing.ArrivalTime
		sched.TotalRunningHours = in.TotalRunningHours
		sched.DurationTime = timing.DurationTime
		sched.NoOfDays = timing.NoOfDays
		sched.RecurrencePattern = in.RecurrencePattern
		sched.DaysOfWeek = days
		if err := tx.Save(&sched).Error; err != nil {
			return apperr.FromDB(err, "schedule")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// checkBinding runs the existence, duplicate and exclusivity checks inside
// tx. The driver row is locked so two concurrent writers cannot both pass.
func (s *ScheduleService) checkBinding(tx *gorm.DB, in ScheduleInput, departure string, exceptID uint) error {
	var driver models.Driver
	if err := forUpdate(tx).First(&driver, in.DriverID).Error; err != nil {
		return apperr.FromDB(err, fmt.Sprintf("driver %d", in.DriverID))
	}
	var bus models.Bus
	if err := tx.First(&bus, in.BusID).Error; err != nil {
		return apperr.FromDB(err, fmt.Sprintf("bus %d", in.BusID))
	}
	if _, err := loadRoute(tx, in.RouteID); err != nil {
		return err
	}

	dup, err := exists(tx, &models.BusSchedule{},
		"bus_id = ? AND route_id = ? AND departure_time = ? AND id <> ?", in.BusID, in.RouteID, departure, exceptID)
	if err != nil {
		return apperr.Internal(err, "check duplicate schedule")
	}
	if dup {
		metrics.ScheduleConflicts.WithLabelValues("duplicate").Inc()
		return apperr.Conflict("bus %d already departs on route %d at %s", in.BusID, in.RouteID, departure)
	}

	var other models.BusSchedule
	err = tx.Where("driver_id = ? AND id <> ?", in.DriverID, exceptID).Limit(1).Find(&other).Error
	if err != nil {
		return apperr.Internal(err, "check driver assignment")
	}
	if other.ID != 0 {
		metrics.ScheduleConflicts.WithLabelValues("driver_assigned").Inc()
		return apperr.Conflict("driver %d is already assigned to schedule %d", in.DriverID, other.ID)
	}
	return nil
}

// Get loads one schedule with bus and driver, times formatted for output.
func (s *ScheduleService) Get(ctx context.Context, id uint) (*models.BusSchedule, error) {
	var sched models.BusSchedule
	if err := s.db.WithContext(ctx).Preload("Bus").Preload("Driver").First(&sched, id).Error; err != nil {
		return nil, apperr.FromDB(err, fmt.Sprintf("schedule %d", id))
	}
	FormatForRead(&sched)
	return &sched, nil
}

// List returns schedules, optionally for one route.
func (s *ScheduleService) List(ctx context.Context, routeID uint, page Page) ([]models.BusSchedule, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.BusSchedule{})
	if routeID != 0 {
		query = query.Where("route_id = ?", routeID)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err, "count schedules")
	}
	var schedules []models.BusSchedule
	if err := query.Scopes(paginate(page)).Preload("Bus").Preload("Driver").Order("id ASC").Find(&schedules).Error; err != nil {
		return nil, 0, apperr.Internal(err, "list schedules")
	}
	for i := range schedules {
		FormatForRead(&schedules[i])
	}
	return schedules, total, nil
}

// Delete soft-deletes a schedule, which frees its driver.
func (s *ScheduleService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.BusSchedule{}, id)
	if res.Error != nil {
		return apperr.Internal(res.Error, "delete schedule")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("schedule %d not found", id)
	}
	return nil
}
