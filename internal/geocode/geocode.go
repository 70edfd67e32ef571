// Package geocode resolves free-text addresses to coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNotFound means the address did not resolve to any place.
var ErrNotFound = errors.New("address not found")

// Geocoder looks up latitude and longitude for an address.
type Geocoder interface {
	Lookup(ctx context.Context, address string) (lat, lng float64, err error)
}

// Disabled never resolves anything.
type Disabled struct{}

func (Disabled) Lookup(context.Context, string) (float64, float64, error) {
	return 0, 0, ErrNotFound
}

// Nominatim queries an OpenStreetMap Nominatim compatible search endpoint.
type Nominatim struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

func NewNominatim(baseURL, userAgent string) *Nominatim {
	return &Nominatim{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (n *Nominatim) Lookup(ctx context.Context, address string) (float64, float64, error) {
	u, err := url.Parse(n.BaseURL)
	if err != nil {
		return 0, 0, fmt.Errorf("geocoder url: %w", err)
	}
	u.Path = "/search"
	q := u.Query()
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("User-Agent", n.UserAgent)

	resp, err := n.Client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("geocoder request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return 0, 0, fmt.Errorf("decode geocoder response: %w", err)
	}
	if len(places) == 0 {
		return 0, 0, ErrNotFound
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("geocoder latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("geocoder longitude: %w", err)
	}
	return lat, lng, nil
}
