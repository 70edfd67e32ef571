package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bus_backoffice/internal/apperr"
	"bus_backoffice/internal/models"
)

func TestCopyRoute(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.city("A"), f.city("B"), f.city("C")
	src := f.route("Mombasa Run", a, b, c)

	prices := make([]FarePrice, len(src.TicketTypes))
	for i, fare := range src.TicketTypes {
		prices[i] = FarePrice{TicketTypeID: fare.ID, BasePrice: float64(100 * (i + 1))}
	}
	_, err := f.svc.Fares.Price(f.ctx, src.ID, prices)
	require.NoError(t, err)
	_, err = f.svc.Routes.UpdateStopTiming(f.ctx, []StopTiming{{StopID: src.Stops[1].ID, ArrivalTime: ptr("09:10")}})
	require.NoError(t, err)

	busID, driverID := f.bus("KCA 123", 50), f.driver("DL-9")
	_, err = f.svc.Schedules.Create(f.ctx, ScheduleInput{
		BusID: busID, RouteID: src.ID, DriverID: driverID,
		DepartureTime: "06:00", TotalRunningHours: 8,
		RecurrencePattern: models.RecurrenceWeekly, DaysOfWeek: "Friday",
	})
	require.NoError(t, err)

	cp, err := f.svc.Copier.Copy(f.ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Mombasa Run (Summer%d)", cp.ID), cp.Title)

	require.Len(t, cp.Stops, 3)
	assert.Equal(t, "09:10", *cp.Stops[1].ArrivalTime)
	assert.Nil(t, cp.Stops[0].ArrivalTime)

	require.Len(t, cp.TicketTypes, len(src.TicketTypes))
	for i, fare := range cp.TicketTypes {
		assert.Equal(t, cp.ID, fare.RouteID)
		assert.Equal(t, src.TicketTypes[i].StartCityID, fare.StartCityID)
		assert.Equal(t, src.TicketTypes[i].EndCityID, fare.EndCityID)
		require.NotNil(t, fare.BasePrice)
		assert.Equal(t, float64(100*(i+1)), *fare.BasePrice)
		assert.NotEqual(t, src.TicketTypes[i].ID, fare.ID)
	}

	require.Len(t, cp.Schedules, 1)
	assert.Equal(t, busID, cp.Schedules[0].BusID)
	assert.Equal(t, driverID, cp.Schedules[0].DriverID)
	assert.Equal(t, "Friday", cp.Schedules[0].DaysOfWeek)

	original, err := f.svc.Routes.Get(f.ctx, src.ID)
	require.NoError(t, err)
	assert.Len(t, original.TicketTypes, 3)
}

func TestCopyRouteWithoutScheduleOrStops(t *testing.T) {
	f := newFixture(t)
	src := f.route("Bare")

	cp, err := f.svc.Copier.Copy(f.ctx, src.ID)
	require.NoError(t, err)
	assert.Empty(t, cp.Stops)
	assert.Empty(t, cp.TicketTypes)
	assert.Empty(t, cp.Schedules)

	_, err = f.svc.Copier.Copy(f.ctx, 31337)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCopyRouteKeepsScheduleInactive(t *testing.T) {
	f := newFixture(t)
	src := f.route("Night Run", f.city("A"), f.city("B"))
	sched, err := f.svc.Schedules.Create(f.ctx, ScheduleInput{
		BusID: f.bus("KCB 1", 40), RouteID: src.ID, DriverID: f.driver("DL-1"),
		DepartureTime: "22:00", TotalRunningHours: 6, RecurrencePattern: models.RecurrenceDaily,
	})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.BusSchedule{}).Where("id = ?", sched.ID).Update("is_active", false).Error)

	cp, err := f.svc.Copier.Copy(f.ctx, src.ID)
	require.NoError(t, err)
	require.Len(t, cp.Schedules, 1)
	assert.False(t, cp.Schedules[0].IsActive)
}
