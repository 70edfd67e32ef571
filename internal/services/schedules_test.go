package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bus_backoffice/internal/apperr"
	"bus_backoffice/internal/models"
)

type scheduleFixture struct {
	*fixture
	routeID uint
	busID   uint
}

func newScheduleFixture(t *testing.T) *scheduleFixture {
	f := newFixture(t)
	a, b := f.city("A"), f.city("B")
	return &scheduleFixture{
		fixture: f,
		routeID: f.route("Scheduled", a, b).ID,
		busID:   f.bus("KAA 001", 30),
	}
}

func (f *scheduleFixture) input(driverID uint, departure string) ScheduleInput {
	return ScheduleInput{
		BusID:             f.busID,
		RouteID:           f.routeID,
		DriverID:          driverID,
		DepartureTime:     departure,
		TotalRunningHours: 2,
		RecurrencePattern: models.RecurrenceDaily,
	}
}

func TestScheduleDriverExclusivity(t *testing.T) {
	f := newScheduleFixture(t)
	driver := f.driver("D-1")
	_, err := f.svc.Schedules.Create(f.ctx, f.input(driver, "08:00"))
	require.NoError(t, err)

	a, c := f.city("X"), f.city("Y")
	otherRoute := f.route("Elsewhere", a, c)
	in := f.input(driver, "15:00")
	in.RouteID = otherRoute.ID
	in.BusID = f.bus("KAA 002", 30)

	_, err = f.svc.Schedules.Create(f.ctx, in)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "a driver holds one schedule system-wide")
}

func TestScheduleDuplicateTriple(t *testing.T) {
	f := newScheduleFixture(t)
	_, err := f.svc.Schedules.Create(f.ctx, f.input(f.driver("D-1"), "08:00"))
	require.NoError(t, err)

	_, err = f.svc.Schedules.Create(f.ctx, f.input(f.driver("D-2"), "08:00"))
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	second, err := f.svc.Schedules.Create(f.ctx, f.input(f.driver("D-3"), "17:30"))
	require.NoError(t, err, "same bus and route at another time is allowed")
	assert.Equal(t, "19:30", second.ArrivalTime)
}

func TestScheduleRequiresExistingReferences(t *testing.T) {
	f := newScheduleFixture(t)

	_, err := f.svc.Schedules.Create(f.ctx, f.input(555, "08:00"))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	in := f.input(f.driver("D-1"), "08:00")
	in.BusID = 777
	_, err = f.svc.Schedules.Create(f.ctx, in)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	in = f.input(f.driver("D-2"), "08:00")
	in.RouteID = 888
	_, err = f.svc.Schedules.Create(f.ctx, in)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestScheduleRecurrence(t *testing.T) {
	f := newScheduleFixture(t)

	in := f.input(f.driver("D-1"), "08:00")
	in.RecurrencePattern = models.RecurrenceWeekly
	_, err := f.svc.Schedules.Create(f.ctx, in)
	assert.True(t, apperr.Is(err, apperr.KindValidation), "weekly needs days_of_week")

	in.DaysOfWeek = "saturday, monday"
	sched, err := f.svc.Schedules.Create(f.ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Monday,Saturday", sched.DaysOfWeek)

	daily := f.input(f.driver("D-2"), "09:00")
	daily.DaysOfWeek = "Monday"
	sched, err = f.svc.Schedules.Create(f.ctx, daily)
	require.NoError(t, err)
	assert.Empty(t, sched.DaysOfWeek)

	bad := f.input(f.driver("D-3"), "10:00")
	bad.RecurrencePattern = "Hourly"
	_, err = f.svc.Schedules.Create(f.ctx, bad)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdateScheduleExcludesItself(t *testing.T) {
	f := newScheduleFixture(t)
	driver := f.driver("D-1")
	sched, err := f.svc.Schedules.Create(f.ctx, f.input(driver, "08:00"))
	require.NoError(t, err)

	in := f.input(driver, "08:00")
	in.TotalRunningHours = 26.5
	in.DepartureTime = "22:00"
	updated, err := f.svc.Schedules.Update(f.ctx, sched.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "00:30", updated.ArrivalTime)
	assert.Equal(t, "26:30", updated.DurationTime)
	assert.Equal(t, "+1 day", updated.NoOfDays)
	require.NotNil(t, updated.Driver)
	assert.Equal(t, driver, updated.Driver.ID)

	other, err := f.svc.Schedules.Create(f.ctx, f.input(f.driver("D-2"), "12:00"))
	require.NoError(t, err)
	_, err = f.svc.Schedules.Update(f.ctx, other.ID, f.input(driver, "12:00"))
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestDeleteScheduleFreesDriver(t *testing.T) {
	f := newScheduleFixture(t)
	driver := f.driver("D-1")
	sched, err := f.svc.Schedules.Create(f.ctx, f.input(driver, "08:00"))
	require.NoError(t, err)

	assert.True(t, apperr.Is(f.svc.Drivers.Delete(f.ctx, driver), apperr.KindConflict))

	require.NoError(t, f.svc.Schedules.Delete(f.ctx, sched.ID))
	assert.True(t, apperr.Is(f.svc.Schedules.Delete(f.ctx, sched.ID), apperr.KindNotFound))

	_, err = f.svc.Schedules.Create(f.ctx, f.input(driver, "09:00"))
	require.NoError(t, err)
}

func TestScheduleReadFormatting(t *testing.T) {
	f := newScheduleFixture(t)
	sched, err := f.svc.Schedules.Create(f.ctx, f.input(f.driver("D-1"), "07:05"))
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.BusSchedule{}).Where("id = ?", sched.ID).
		Updates(map[string]interface{}{"departure_time": "07:05:00", "arrival_time": "garbage"}).Error)

	list, total, err := f.svc.Schedules.List(f.ctx, f.routeID, Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "07:05", list[0].DepartureTime)
	assert.Equal(t, "00:00", list[0].ArrivalTime)
}
