package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"bus_backoffice/internal/apperr"
	"bus_backoffice/internal/models"
)

// SearchService answers the public "buses from A to B on D" query.
type SearchService struct {
	db *gorm.DB
}

func NewSearchService(db *gorm.DB) *SearchService {
	return &SearchService{db: db}
}

// SearchHit is one bookable departure.
type SearchHit struct {
	Route           models.Route       `json:"route"`
	Schedule        models.BusSchedule `json:"schedule"`
	Fare            *models.TicketType `json:"fare"`
	OriginStop      models.Stop        `json:"origin_stop"`
	DestinationStop models.Stop        `json:"destination_stop"`
}

// SearchResult reports the date actually searched. EffectiveDate is the
// day after RequestedDate when nothing ran on the requested day.
type SearchResult struct {
	RequestedDate string      `json:"requested_date"`
	EffectiveDate string      `json:"effective_date"`
	Results       []SearchHit `json:"results"`
}

type routeLeg struct {
	route       models.Route
	origin      models.Stop
	destination models.Stop
}

// Search finds departures from one city to another on date, looking ahead
// one calendar day when nothing is available on the date itself.
func (s *SearchService) Search(ctx context.Context, fromCityID, toCityID uint, date time.Time) (*SearchResult, error) {
	if fromCityID == toCityID {
		return nil, apperr.Validation("origin and destination must differ")
	}
	db := s.db.WithContext(ctx)
	for _, id := range []uint{fromCityID, toCityID} {
		var city models.City
		if err := db.First(&city, id).Error; err != nil {
			return nil, apperr.FromDB(err, fmt.Sprintf("city %d", id))
		}
	}

	legs, err := s.legs(db, fromCityID, toCityID)
	if err != nil {
		return nil, err
	}

	day := DateOnly(date)
	result := &SearchResult{RequestedDate: day.Format("2006-01-02")}
	for attempt := 0; attempt < 2; attempt++ {
		hits, err := s.departures(db, legs, day)
		if err != nil {
			return nil, err
		}
		result.EffectiveDate = day.Format("2006-01-02")
		result.Results = hits
		if len(hits) > 0 {
			break
		}
		day = day.AddDate(0, 0, 1)
	}
	return result, nil
}

// legs returns active routes that visit from before to.
func (s *SearchService) legs(db *gorm.DB, from, to uint) ([]routeLeg, error) {
	var stops []models.Stop
	err := db.Where("city_id IN ?", []uint{from, to}).
		Order("route_id ASC").Order("stop_order ASC").
		Find(&stops).Error
	if err != nil {
		return nil, apperr.Internal(err, "load stops")
	}

	byRoute := make(map[uint][]models.Stop)
	var order []uint
	for _, st := range stops {
		if _, seen := byRoute[st.RouteID]; !seen {
			order = append(order, st.RouteID)
		}
		byRoute[st.RouteID] = append(byRoute[st.RouteID], st)
	}

	var legs []routeLeg
	for _, routeID := range order {
		origin, dest, ok := pickLeg(byRoute[routeID], from, to)
		if !ok {
			continue
		}
		var route models.Route
		err := db.Where("is_active = ?", true).Limit(1).Find(&route, routeID).Error
		if err != nil {
			return nil, apperr.Internal(err, "load route %d", routeID)
		}
		if route.ID == 0 {
			continue
		}
		legs = append(legs, routeLeg{route: route, origin: origin, destination: dest})
	}
	return legs, nil
}

// pickLeg finds the first stop at from followed later by a stop at to.
// stops must be ordered by stop_order.
func pickLeg(stops []models.Stop, from, to uint) (models.Stop, models.Stop, bool) {
	for i, a := range stops {
		if a.CityID != from {
			continue
		}
		for _, b := range stops[i+1:] {
			if b.CityID == to && b.StopOrder > a.StopOrder {
				return a, b, true
			}
		}
	}
	return models.Stop{}, models.Stop{}, false
}

func (s *SearchService) departures(db *gorm.DB, legs []routeLeg, day time.Time) ([]SearchHit, error) {
	hits := []SearchHit{}
	for _, leg := range legs {
		closed, err := closedOn(db, leg.route.ID, day)
		if err != nil {
			return nil, err
		}
		if closed {
			continue
		}

		var schedules []models.BusSchedule
		err = db.Where("route_id = ? AND is_active = ?", leg.route.ID, true).
			Order("departure_time ASC").Find(&schedules).Error
		if err != nil {
			return nil, apperr.Internal(err, "load schedules")
		}

		var fare *models.TicketType
		var found models.TicketType
		err = db.Where("route_id = ? AND start_city_id = ? AND end_city_id = ?",
			leg.route.ID, leg.origin.CityID, leg.destination.CityID).
			Order("id ASC").Limit(1).Find(&found).Error
		if err != nil {
			return nil, apperr.Internal(err, "load fare")
		}
		if found.ID != 0 {
			fare = &found
		}

		for _, sched := range schedules {
			if !AvailableOn(sched, day) {
				continue
			}
			FormatForRead(&sched)
			hits = append(hits, SearchHit{
				Route:           leg.route,
				Schedule:        sched,
				Fare:            fare,
				OriginStop:      leg.origin,
				DestinationStop: leg.destination,
			})
		}
	}
	return hits, nil
}
