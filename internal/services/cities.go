package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bus_backoffice/internal/apperr"
	"bus_backoffice/internal/geocode"
	"bus_backoffice/internal/models"
)

// CityService is the registry of cities usable as stops.
type CityService struct {
	db       *gorm.DB
	geocoder geocode.Geocoder
}

func NewCityService(db *gorm.DB, geocoder geocode.Geocoder) *CityService {
	return &CityService{db: db, geocoder: geocoder}
}

// CityInput creates or updates a city. Nil fields are left unchanged on
// update.
type CityInput struct {
	Name      *string
	Address   *string
	Latitude  *float64
	Longitude *float64
	IsActive  *bool
}

func (s *CityService) Create(ctx context.Context, in CityInput) (*models.City, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	city := models.City{Name: strings.TrimSpace(*in.Name), IsActive: true}
	if in.Address != nil {
		city.Address = *in.Address
	}
	if err := s.locate(ctx, &city, in, true); err != nil {
		return nil, err
	}

	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := ensureCityNameFree(tx, city.Name, 0); err != nil {
			return err
		}
		return apperr.FromDB(tx.Create(&city).Error, "city")
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"city_id": city.ID, "name": city.Name}).Info("city created")
	return &city, nil
}

func (s *CityService) Update(ctx context.Context, id uint, in CityInput) (*models.City, error) {
	var city models.City
	if err := s.db.WithContext(ctx).First(&city, id).Error; err != nil {
		return nil, apperr.FromDB(err, fmt.Sprintf("city %d", id))
	}

	addressChanged := false
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		city.Name = strings.TrimSpace(*in.Name)
	}
	if in.Address != nil && *in.Address != city.Address {
		city.Address = *in.Address
		addressChanged = true
	}
	if in.IsActive != nil {
		city.IsActive = *in.IsActive
	}
	if err := s.locate(ctx, &city, in, addressChanged); err != nil {
		return nil, err
	}

	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := ensureCityNameFree(tx, city.Name, city.ID); err != nil {
			return err
		}
		return apperr.FromDB(tx.Save(&city).Error, "city")
	})
	if err != nil {
		return nil, err
	}
	return &city, nil
}

// locate sets coordinates from explicit input, or geocodes the address when
// lookup is true and no coordinates were given.
func (s *CityService) locate(ctx context.Context, city *models.City, in CityInput, lookup bool) error {
	switch {
	case in.Latitude != nil && in.Longitude != nil:
		if *in.Latitude < -90 || *in.Latitude > 90 || *in.Longitude < -180 || *in.Longitude > 180 {
			return apperr.Validation("coordinates out of range")
		}
		city.Latitude, city.Longitude = in.Latitude, in.Longitude
	case in.Latitude != nil || in.Longitude != nil:
		return apperr.Validation("latitude and longitude must be given together")
	case lookup && city.Address != "":
		lat, lng, err := s.geocoder.Lookup(ctx, city.Address)
		if errors.Is(err, geocode.ErrNotFound) {
			return apperr.Validation("address %q could not be located", city.Address)
		}
		if err != nil {
			return apperr.Internal(err, "geocode address")
		}
		city.Latitude, city.Longitude = &lat, &lng
	default:
		return nil
	}

	g, err := PointWKB(*city.Latitude, *city.Longitude)
	if err != nil {
		return apperr.Internal(err, "encode city geometry")
	}
	city.Geometry = g
	return nil
}

func (s *CityService) Get(ctx context.Context, id uint) (*models.City, error) {
	var city models.City
	if err := s.db.WithContext(ctx).First(&city, id).Error; err != nil {
		return nil, apperr.FromDB(err, fmt.Sprintf("city %d", id))
	}
	return &city, nil
}

// CityQuery filters List.
type CityQuery struct {
	ActiveOnly bool
	Search     string
	Page       Page
}

func (s *CityService) List(ctx context.Context, q CityQuery) ([]models.City, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.City{})
	if q.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if q.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q.Search)+"%")
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err, "count cities")
	}
	var cities []models.City
	if err := query.Scopes(paginate(q.Page)).Order("name ASC").Find(&cities).Error; err != nil {
		return nil, 0, apperr.Internal(err, "list cities")
	}
	return cities, total, nil
}

// Delete soft-deletes a city that no live route stops at.
func (s *CityService) Delete(ctx context.Context, id uint) error {
	return withTx(ctx, s.db, func(tx *gorm.DB) error {
		var city models.City
		if err := tx.First(&city, id).Error; err != nil {
			return apperr.FromDB(err, fmt.Sprintf("city %d", id))
		}
		inUse, err := exists(tx, &models.Stop{}, "city_id = ?", id)
		if err != nil {
			return apperr.Internal(err, "check city usage")
		}
		if inUse {
			return apperr.Conflict("city %d is a stop on an active route", id)
		}
		return apperr.FromDB(tx.Delete(&city).Error, "city")
	})
}

func ensureCityNameFree(tx *gorm.DB, name string, exceptID uint) error {
	taken, err := exists(tx, &models.City{}, "name = ? AND id <> ?", name, exceptID)
	if err != nil {
		return apperr.Internal(err, "check city name")
	}
	if taken {
		return apperr.Conflict("a city named %q already exists", name)
	}
	return nil
}
