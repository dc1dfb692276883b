// Package geocoding turns a free-text address into a trip start location.
package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"itinerary-router/internal/models"
)

const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Place is one geocoding match
type Place struct {
	Coordinates models.Coordinates `json:"coordinates"`
	DisplayName string             `json:"displayName"`
}

// Geocoder resolves addresses to coordinates
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Place, error)
	Search(ctx context.Context, query string, limit int) ([]Place, error)
}

// ErrNoMatch is returned when an address has no usable match
var ErrNoMatch = errors.New("address not found")

// GeocodeError carries the address that failed
type GeocodeError struct {
	Address string
	Reason  string
	Err     error
}

func (e *GeocodeError) Error() string {
	return fmt.Sprintf("geocoding failed for %q: %s", e.Address, e.Reason)
}

func (e *GeocodeError) Unwrap() error {
	return e.Err
}

// Nominatim queries an OpenStreetMap Nominatim server. Requests are spaced
// by the rate limiter to honour the public server's usage policy.
type Nominatim struct {
	baseURL     string
	userAgent   string
	httpClient  *http.Client
	rateLimiter *time.Ticker
	log         logrus.FieldLogger
}

var _ Geocoder = (*Nominatim)(nil)

// NewNominatim returns a geocoder issuing at most one request per interval
func NewNominatim(baseURL string, interval time.Duration, log logrus.FieldLogger) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if interval <= 0 {
		interval = time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Nominatim{
		baseURL:     strings.TrimRight(baseURL, "/"),
		userAgent:   "ItineraryRouter/1.0",
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		rateLimiter: time.NewTicker(interval),
		log:         log.WithField("component", "geocoding"),
	}
}

// Close stops the rate limiter
func (g *Nominatim) Close() {
	g.rateLimiter.Stop()
}

type nominatimResponse struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (r nominatimResponse) toPlace() (Place, bool) {
	lat, errLat := strconv.ParseFloat(r.Lat, 64)
	lng, errLng := strconv.ParseFloat(r.Lon, 64)
	c := models.Coordinates{Lat: lat, Lng: lng}
	if errLat != nil || errLng != nil || !c.Valid() {
		return Place{}, false
	}
	return Place{Coordinates: c, DisplayName: r.DisplayName}, true
}

// Geocode returns the best match for address
func (g *Nominatim) Geocode(ctx context.Context, address string) (*Place, error) {
	places, err := g.Search(ctx, address, 1)
	if err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, &GeocodeError{Address: address, Reason: "no results found", Err: ErrNoMatch}
	}
	return &places[0], nil
}

// Search returns up to limit matches; entries with unusable coordinates are skipped
func (g *Nominatim) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	select {
	case <-g.rateLimiter.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	queryURL := g.baseURL + "/search?" + params.Encode()

	log := g.log.WithField("query", query)
	log.Debug("geocoding request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, &GeocodeError{Address: query, Reason: err.Error(), Err: err}
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("geocoding request failed")
		return nil, &GeocodeError{Address: query, Reason: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.WithField("status", resp.StatusCode).Warn("geocoding API error")
		return nil, &GeocodeError{Address: query, Reason: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var results []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, &GeocodeError{Address: query, Reason: err.Error(), Err: err}
	}

	places := lo.FilterMap(results, func(r nominatimResponse, _ int) (Place, bool) {
		return r.toPlace()
	})
	log.WithField("results", len(places)).Debug("geocoding response")
	return places, nil
}
