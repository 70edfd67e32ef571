package services

import (
	"encoding/binary"
	"math"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-polyline"

	"bus_backoffice/internal/models"
)

// PointWKB encodes a lat/lng pair as a WKB point (x = longitude).
func PointWKB(lat, lng float64) ([]byte, error) {
	p := geom.NewPointFlat(geom.XY, []float64{lng, lat})
	return wkb.Marshal(p, binary.LittleEndian)
}

// WKBToGeoJSON converts WKB bytes into a GeoJSON string.
func WKBToGeoJSON(wkbBytes []byte) (string, error) {
	if len(wkbBytes) == 0 {
		return "", nil
	}
	g, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return "", err
	}
	b, err := gjson.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// stopCoords returns [lat, lng] for every stop whose city has coordinates.
func stopCoords(stops []models.Stop) [][]float64 {
	coords := make([][]float64, 0, len(stops))
	for _, st := range stops {
		if st.City.Latitude == nil || st.City.Longitude == nil {
			continue
		}
		coords = append(coords, []float64{*st.City.Latitude, *st.City.Longitude})
	}
	return coords
}

// RoutePolyline encodes the stop cities of a route (stops must have City
// loaded) as a Google encoded polyline. Cities without coordinates are
// skipped.
func RoutePolyline(stops []models.Stop) string {
	coords := stopCoords(stops)
	if len(coords) < 2 {
		return ""
	}
	return string(polyline.EncodeCoords(coords))
}

// RouteDistanceKm sums great-circle distances between consecutive stops
// that have coordinates.
func RouteDistanceKm(stops []models.Stop) float64 {
	coords := stopCoords(stops)
	total := 0.0
	for i := 1; i < len(coords); i++ {
		total += haversineMeters(coords[i-1][0], coords[i-1][1], coords[i][0], coords[i][1])
	}
	return math.Round(total/10) / 100
}

func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000 // Earth's radius in meters.
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
