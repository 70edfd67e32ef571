package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"bus_backoffice/internal/apperr"
	"bus_backoffice/internal/models"
)

// BusService manages the bus fleet.
type BusService struct {
	db *gorm.DB
}

func NewBusService(db *gorm.DB) *BusService {
	return &BusService{db: db}
}

// BusInput creates or partially updates a bus.
type BusInput struct {
	PlateNumber *string
	Model       *string
	Capacity    *int
	IsActive    *bool
}

func (in BusInput) apply(bus *models.Bus) error {
	if in.PlateNumber != nil {
		bus.PlateNumber = strings.ToUpper(strings.TrimSpace(*in.PlateNumber))
	}
	if in.Model != nil {
		bus.BusModel = *in.Model
	}
	if in.Capacity != nil {
		bus.Capacity = *in.Capacity
	}
	if in.IsActive != nil {
		bus.IsActive = *in.IsActive
	}
	if bus.PlateNumber == "" {
		return apperr.Validation("plate_number is required")
	}
	if bus.Capacity <= 0 {
		return apperr.Validation("capacity must be greater than zero")
	}
	return nil
}

func (s *BusService) Create(ctx context.Context, in BusInput) (*models.Bus, error) {
	bus := models.Bus{IsActive: true}
	if err := in.apply(&bus); err != nil {
		return nil, err
	}
	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := ensurePlateFree(tx, bus.PlateNumber, 0); err != nil {
			return err
		}
		return apperr.FromDB(tx.Create(&bus).Error, "bus")
	})
	if err != nil {
		return nil, err
	}
	return &bus, nil
}

func (s *BusService) Update(ctx context.Context, id uint, in BusInput) (*models.Bus, error) {
	var bus models.Bus
	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&bus, id).Error; err != nil {
			return apperr.FromDB(err, fmt.Sprintf("bus %d", id))
		}
		if err := in.apply(&bus); err != nil {
			return err
		}
		if err := ensurePlateFree(tx, bus.PlateNumber, bus.ID); err != nil {
			return err
		}
		return apperr.FromDB(tx.Save(&bus).Error, "bus")
	})
	if err != nil {
		return nil, err
	}
	return &bus, nil
}

func (s *BusService) Get(ctx context.Context, id uint) (*models.Bus, error) {
	var bus models.Bus
	if err := s.db.WithContext(ctx).First(&bus, id).Error; err != nil {
		return nil, apperr.FromDB(err, fmt.Sprintf("bus %d", id))
	}
	return &bus, nil
}

func (s *BusService) List(ctx context.Context, page Page) ([]models.Bus, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Bus{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err, "count buses")
	}
	var buses []models.Bus
	if err := s.db.WithContext(ctx).Scopes(paginate(page)).Order("id ASC").Find(&buses).Error; err != nil {
		return nil, 0, apperr.Internal(err, "list buses")
	}
	return buses, total, nil
}

func (s *BusService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Bus{}, id)
	if res.Error != nil {
		return apperr.Internal(res.Error, "delete bus")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("bus %d not found", id)
	}
	return nil
}

func ensurePlateFree(tx *gorm.DB, plate string, exceptID uint) error {
	taken, err := exists(tx, &models.Bus{}, "plate_number = ? AND id <> ?", plate, exceptID)
	if err != nil {
		return apperr.Internal(err, "check plate number")
	}
	if taken {
		return apperr.Conflict("a bus with plate number %s already exists", plate)
	}
	return nil
}

// DriverService manages drivers.
type DriverService struct {
	db *gorm.DB
}

func NewDriverService(db *gorm.DB) *DriverService {
	return &DriverService{db: db}
}

// DriverInput creates or partially updates a driver.
type DriverInput struct {
	Name          *string
	Phone         *string
	Email         *string
	LicenseNumber *string
	IsActive      *bool
}

func (in DriverInput) apply(d *models.Driver) error {
	if in.Name != nil {
		d.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		d.Phone = *in.Phone
	}
	if in.Email != nil {
		d.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.LicenseNumber != nil {
		d.LicenseNumber = strings.TrimSpace(*in.LicenseNumber)
	}
	if in.IsActive != nil {
		d.IsActive = *in.IsActive
	}
	if d.Name == "" {
		return apperr.Validation("name is required")
	}
	if d.LicenseNumber == "" {
		return apperr.Validation("license_number is required")
	}
	return nil
}

func (s *DriverService) Create(ctx context.Context, in DriverInput) (*models.Driver, error) {
	driver := models.Driver{IsActive: true}
	if err := in.apply(&driver); err != nil {
		return nil, err
	}
	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := ensureLicenseFree(tx, driver.LicenseNumber, 0); err != nil {
			return err
		}
		return apperr.FromDB(tx.Create(&driver).Error, "driver")
	})
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

func (s *DriverService) Update(ctx context.Context, id uint, in DriverInput) (*models.Driver, error) {
	var driver models.Driver
	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&driver, id).Error; err != nil {
			return apperr.FromDB(err, fmt.Sprintf("driver %d", id))
		}
		if err := in.apply(&driver); err != nil {
			return err
		}
		if err := ensureLicenseFree(tx, driver.LicenseNumber, driver.ID); err != nil {
			return err
		}
		return apperr.FromDB(tx.Save(&driver).Error, "driver")
	})
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

func (s *DriverService) Get(ctx context.Context, id uint) (*models.Driver, error) {
	var driver models.Driver
	if err := s.db.WithContext(ctx).First(&driver, id).Error; err != nil {
		return nil, apperr.FromDB(err, fmt.Sprintf("driver %d", id))
	}
	return &driver, nil
}

func (s *DriverService) List(ctx context.Context, page Page) ([]models.Driver, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Driver{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err, "count drivers")
	}
	var drivers []models.Driver
	if err := s.db.WithContext(ctx).Scopes(paginate(page)).Order("id ASC").Find(&drivers).Error; err != nil {
		return nil, 0, apperr.Internal(err, "list drivers")
	}
	return drivers, total, nil
}

// Delete soft-deletes a driver who is not bound to any schedule.
func (s *DriverService) Delete(ctx context.Context, id uint) error {
	return withTx(ctx, s.db, func(tx *gorm.DB) error {
		var driver models.Driver
		if err := forUpdate(tx).First(&driver, id).Error; err != nil {
			return apperr.FromDB(err, fmt.Sprintf("driver %d", id))
		}
		bound, err := exists(tx, &models.BusSchedule{}, "driver_id = ?", id)
		if err != nil {
			return apperr.Internal(err, "check driver schedules")
		}
		if bound {
			return apperr.Conflict("driver %d is assigned to a schedule", id)
		}
		return apperr.FromDB(tx.Delete(&driver).Error, "driver")
	})
}

func ensureLicenseFree(tx *gorm.DB, license string, exceptID uint) error {
	taken, err := exists(tx, &models.Driver{}, "license_number = ? AND id <> ?", license, exceptID)
	if err != nil {
		return apperr.Internal(err, "check license number")
	}
	if taken {
		return apperr.Conflict("a driver with license number %s already exists", license)
	}
	return nil
}
