package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bus_backoffice/internal/models"
)

func stopAt(lat, lng float64) models.Stop {
	return models.Stop{City: models.City{Latitude: &lat, Longitude: &lng}}
}

func TestRoutePolyline(t *testing.T) {
	stops := []models.Stop{stopAt(38.5, -120.2), stopAt(40.7, -120.95), stopAt(43.252, -126.453)}
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", RoutePolyline(stops))

	assert.Empty(t, RoutePolyline(stops[:1]))
	assert.Empty(t, RoutePolyline([]models.Stop{{}, {}}), "cities without coordinates are skipped")
}

func TestRouteDistanceKm(t *testing.T) {
	// Nairobi to Mombasa, roughly 440 km as the crow flies.
	stops := []models.Stop{stopAt(-1.2921, 36.8219), stopAt(-4.0435, 39.6682)}
	assert.InDelta(t, 440, RouteDistanceKm(stops), 10)
	assert.Zero(t, RouteDistanceKm(stops[:1]))
}
