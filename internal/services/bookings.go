package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bus_backoffice/internal/apperr"
	"bus_backoffice/internal/metrics"
	"bus_backoffice/internal/models"
	"bus_backoffice/internal/notify"
)

// BookingService sells seats on scheduled departures.
type BookingService struct {
	db       *gorm.DB
	notifier notify.Notifier
}

func NewBookingService(db *gorm.DB, notifier notify.Notifier) *BookingService {
	return &BookingService{db: db, notifier: notifier}
}

// PassengerInput is one seat in a booking request.
type PassengerInput struct {
	Name         string
	Age          int
	Gender       string
	SeatNumber   int
	TicketTypeID uint
}

// BookingInput is a booking request. UserID is nil for guest bookings.
type BookingInput struct {
	UserID            *uint
	RouteID           uint
	ScheduleID        uint
	OriginCityID      uint
	DestinationCityID uint
	TravelDate        time.Time
	ContactEmail      string
	Passengers        []PassengerInput
}

// Create validates the request against live topology, snapshots each fare
// onto its passenger line and stores the booking as Pending.
func (s *BookingService) Create(ctx context.Context, in BookingInput) (*models.Booking, error) {
	if len(in.Passengers) == 0 {
		return nil, apperr.Validation("at least one passenger is required")
	}
	if strings.TrimSpace(in.ContactEmail) == "" {
		return nil, apperr.Validation("contact_email is required")
	}
	travelDate := DateOnly(in.TravelDate)

	var booking models.Booking
	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		route, err := loadRoute(tx, in.RouteID)
		if err != nil {
			return err
		}
		var sched models.BusSchedule
		if err := forUpdate(tx).First(&sched, in.ScheduleID).Error; err != nil {
			return apperr.FromDB(err, fmt.Sprintf("schedule %d", in.ScheduleID))
		}
		if sched.RouteID != route.ID {
			return apperr.Validation("schedule %d does not run on route %d", sched.ID, route.ID)
		}
		if !sched.IsActive || !AvailableOn(sched, travelDate) {
			return apperr.Validation("schedule %d does not run on %s", sched.ID, travelDate.Format("2006-01-02"))
		}
		closed, err := closedOn(tx, route.ID, travelDate)
		if err != nil {
			return err
		}
		if closed {
			return apperr.Conflict("route %d is closed on %s", route.ID, travelDate.Format("2006-01-02"))
		}
		var bus models.Bus
		if err := tx.First(&bus, sched.BusID).Error; err != nil {
			return apperr.FromDB(err, fmt.Sprintf("bus %d", sched.BusID))
		}

		var stops []models.Stop
		if err := tx.Where("route_id = ?", route.ID).Order("stop_order ASC").Find(&stops).Error; err != nil {
			return apperr.Internal(err, "load stops")
		}
		if _, _, ok := pickLeg(stops, in.OriginCityID, in.DestinationCityID); !ok {
			return apperr.Validation("route %d does not travel from city %d to city %d",
				route.ID, in.OriginCityID, in.DestinationCityID)
		}
		names, err := cityNames(tx, []uint{in.OriginCityID, in.DestinationCityID})
		if err != nil {
			return err
		}

		held, err := heldSeats(tx, sched.ID, travelDate)
		if err != nil {
			return err
		}
		passengers := make([]models.BookingPassenger, 0, len(in.Passengers))
		requested := make(map[int]bool, len(in.Passengers))
		total := 0.0
		for _, p := range in.Passengers {
			if strings.TrimSpace(p.Name) == "" {
				return apperr.Validation("passenger name is required")
			}
			if p.SeatNumber < 1 || p.SeatNumber > bus.Capacity {
				return apperr.Validation("seat %d is outside 1..%d", p.SeatNumber, bus.Capacity)
			}
			if requested[p.SeatNumber] {
				return apperr.Validation("seat %d is requested twice", p.SeatNumber)
			}
			requested[p.SeatNumber] = true
			if held[p.SeatNumber] {
				return apperr.Conflict("seat %d is already booked", p.SeatNumber)
			}

			var fare models.TicketType
			if err := tx.First(&fare, p.TicketTypeID).Error; err != nil {
				return apperr.FromDB(err, fmt.Sprintf("ticket type %d", p.TicketTypeID))
			}
			if fare.RouteID != route.ID {
				return apperr.Validation("ticket type %d does not belong to route %d", fare.ID, route.ID)
			}
			if fare.StartCityID != in.OriginCityID || fare.EndCityID != in.DestinationCityID {
				return apperr.Validation("ticket type %d is not sold for %d→%d", fare.ID, in.OriginCityID, in.DestinationCityID)
			}
			if !fare.IsActive || fare.BasePrice == nil {
				return apperr.Validation("ticket type %d is not on sale", fare.ID)
			}
			passengers = append(passengers, models.BookingPassenger{
				Name:               strings.TrimSpace(p.Name),
				Age:                p.Age,
				Gender:             p.Gender,
				SeatNumber:         p.SeatNumber,
				SourceTicketTypeID: fare.ID,
				TicketTypeName:     fare.Name,
				Price:              *fare.BasePrice,
			})
			total += *fare.BasePrice
		}

		booking = models.Booking{
			Reference:         uuid.NewString(),
			UserID:            in.UserID,
			RouteID:           route.ID,
			ScheduleID:        sched.ID,
			OriginCityID:      in.OriginCityID,
			DestinationCityID: in.DestinationCityID,
			OriginName:        names[in.OriginCityID],
			DestinationName:   names[in.DestinationCityID],
			TravelDate:        travelDate,
			ContactEmail:      strings.TrimSpace(in.ContactEmail),
			Status:            models.BookingPending,
			TotalAmount:       total,
			Passengers:        passengers,
		}
		return apperr.FromDB(tx.Create(&booking).Error, "booking")
	})
	if err != nil {
		return nil, err
	}

	metrics.Bookings.WithLabelValues(models.BookingPending).Inc()
	logrus.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"reference":   booking.Reference,
		"schedule_id": booking.ScheduleID,
		"seats":       len(booking.Passengers),
	}).Info("booking created")
	return &booking, nil
}

// heldSeats returns seats taken by non-cancelled bookings of a schedule on
// day.
func heldSeats(tx *gorm.DB, scheduleID uint, day time.Time) (map[int]bool, error) {
	var bookings []models.Booking
	err := tx.Preload("Passengers").
		Where("schedule_id = ? AND status <> ?", scheduleID, models.BookingCancelled).
		Find(&bookings).Error
	if err != nil {
		return nil, apperr.Internal(err, "load seat map")
	}
	held := make(map[int]bool)
	for _, b := range bookings {
		if !sameDay(b.TravelDate, day) {
			continue
		}
		for _, p := range b.Passengers {
			held[p.SeatNumber] = true
		}
	}
	return held, nil
}

// Confirm marks a pending booking paid.
func (s *BookingService) Confirm(ctx context.Context, id uint) (*models.Booking, error) {
	return s.transition(ctx, id, models.BookingConfirmed, notify.BookingConfirmed, func(b *models.Booking) error {
		if b.Status != models.BookingPending {
			return apperr.Conflict("booking %d is %s, only pending bookings can be confirmed", b.ID, b.Status)
		}
		return nil
	})
}

// Cancel releases the seats of a booking that is not already cancelled.
func (s *BookingService) Cancel(ctx context.Context, id uint) (*models.Booking, error) {
	return s.transition(ctx, id, models.BookingCancelled, notify.BookingCancelled, func(b *models.Booking) error {
		if b.Status == models.BookingCancelled {
			return apperr.Conflict("booking %d is already cancelled", b.ID)
		}
		return nil
	})
}

func (s *BookingService) transition(ctx context.Context, id uint, status, template string, allowed func(*models.Booking) error) (*models.Booking, error) {
	var booking models.Booking
	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&booking, id).Error; err != nil {
			return apperr.FromDB(err, fmt.Sprintf("booking %d", id))
		}
		if err := allowed(&booking); err != nil {
			return err
		}
		booking.Status = status
		return apperr.FromDB(tx.Model(&booking).Update("status", status).Error, "booking")
	})
	if err != nil {
		return nil, err
	}
	metrics.Bookings.WithLabelValues(status).Inc()
	logrus.WithFields(logrus.Fields{"booking_id": id, "status": status}).Info("booking status changed")

	full, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, notify.Message{
		Template: template,
		To:       full.ContactEmail,
		Data:     s.messageData(ctx, full),
	})
	return full, nil
}

func (s *BookingService) messageData(ctx context.Context, b *models.Booking) map[string]interface{} {
	departure := ""
	var sched models.BusSchedule
	if err := s.db.WithContext(ctx).Unscoped().Limit(1).Find(&sched, b.ScheduleID).Error; err == nil && sched.ID != 0 {
		departure = FormatClock(sched.DepartureTime)
	}
	return map[string]interface{}{
		"reference":      b.Reference,
		"origin":         b.OriginName,
		"destination":    b.DestinationName,
		"travel_date":    b.TravelDate.Format("2006-01-02"),
		"departure_time": departure,
		"passengers":     len(b.Passengers),
		"total":          b.TotalAmount,
	}
}

func (s *BookingService) Get(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).
		Preload("Passengers", func(db *gorm.DB) *gorm.DB { return db.Order("seat_number ASC") }).
		First(&booking, id).Error
	if err != nil {
		return nil, apperr.FromDB(err, fmt.Sprintf("booking %d", id))
	}
	return &booking, nil
}

// BookingQuery filters List. Zero values match everything.
type BookingQuery struct {
	UserID     *uint
	RouteID    uint
	ScheduleID uint
	Status     string
	Page       Page
}

func (s *BookingService) List(ctx context.Context, q BookingQuery) ([]models.Booking, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Booking{})
	if q.UserID != nil {
		query = query.Where("user_id = ?", *q.UserID)
	}
	if q.RouteID != 0 {
		query = query.Where("route_id = ?", q.RouteID)
	}
	if q.ScheduleID != 0 {
		query = query.Where("schedule_id = ?", q.ScheduleID)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err, "count bookings")
	}
	var bookings []models.Booking
	if err := query.Scopes(paginate(q.Page)).Preload("Passengers").Order("id DESC").Find(&bookings).Error; err != nil {
		return nil, 0, apperr.Internal(err, "list bookings")
	}
	return bookings, total, nil
}
