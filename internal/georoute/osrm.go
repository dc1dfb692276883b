package georoute

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-polyline"

	"itinerary-router/internal/models"
)

// DefaultBaseURL is the public OSRM demo server
const DefaultBaseURL = "https://router.project-osrm.org"

// Config configures an OSRMClient
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Retry      RetryPolicy
	HTTPClient *http.Client
}

// OSRMClient implements RouteClient against the OSRM route and trip services
type OSRMClient struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
	log        logrus.FieldLogger
}

var _ RouteClient = (*OSRMClient)(nil)

// NewOSRMClient creates a routing client. Zero config values take defaults.
func NewOSRMClient(cfg Config, log logrus.FieldLogger) *OSRMClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.Factor == 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OSRMClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		retry:      cfg.Retry,
		log:        log.WithField("component", "georoute"),
	}
}

type osrmLeg struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Steps    []Step  `json:"steps"`
}

type osrmRoute struct {
	Distance float64   `json:"distance"`
	Duration float64   `json:"duration"`
	Geometry string    `json:"geometry"`
	Legs     []osrmLeg `json:"legs"`
}

type osrmWaypoint struct {
	WaypointIndex int `json:"waypoint_index"`
	TripsIndex    int `json:"trips_index"`
}

type osrmResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Routes    []osrmRoute    `json:"routes"`
	Trips     []osrmRoute    `json:"trips"`
	Waypoints []osrmWaypoint `json:"waypoints"`
}

// noRouteCodes are OSRM response codes meaning the query was understood but no path exists
var noRouteCodes = map[string]bool{
	"NoRoute":   true,
	"NoTrips":   true,
	"NoSegment": true,
}

func encodeCoords(coords []models.Coordinates) string {
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = fmt.Sprintf("%.6f,%.6f", c.Lng, c.Lat)
	}
	return strings.Join(parts, ";")
}

func (c *OSRMClient) ComputeOrderedRoute(ctx context.Context, coords []models.Coordinates, mode models.TravelMode) (*models.RouteResult, error) {
	if err := validateCoords(coords); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("steps", "true")
	q.Set("geometries", "polyline")
	q.Set("overview", "full")

	profile := Profile(mode)
	resp, err := c.query(ctx, "route", profile, coords, q)
	if err != nil {
		return nil, err
	}
	if len(resp.Routes) == 0 {
		return nil, &UpstreamError{Op: "route", Code: resp.Code, Message: "no routes returned", Kind: models.ErrNoRouteFound}
	}

	route := resp.Routes[0]
	geometry, err := decodeGeometry(route.Geometry)
	if err != nil {
		c.log.WithError(err).Error("failed to decode route geometry")
		return nil, &UpstreamError{Op: "route", Message: "undecodable geometry", Kind: models.ErrRoutingUnavailable, Cause: err}
	}

	result := &models.RouteResult{
		Order:              make([]int, len(coords)),
		TotalDistanceKm:    route.Distance / 1000,
		TotalDurationMin:   route.Duration / 60,
		Geometry:           geometry,
		PerLegDistanceKm:   make([]float64, 0, len(route.Legs)),
		PerLegDurationMin:  make([]float64, 0, len(route.Legs)),
		PerLegInstructions: make([][]string, 0, len(route.Legs)),
	}
	for i := range result.Order {
		result.Order[i] = i
	}
	for _, leg := range route.Legs {
		result.PerLegDistanceKm = append(result.PerLegDistanceKm, leg.Distance/1000)
		result.PerLegDurationMin = append(result.PerLegDurationMin, leg.Duration/60)
		result.PerLegInstructions = append(result.PerLegInstructions, RenderSteps(leg.Steps))
	}

	c.log.WithFields(logrus.Fields{
		"profile": profile,
		"points":  len(coords),
		"legs":    len(route.Legs),
		"km":      fmt.Sprintf("%.2f", result.TotalDistanceKm),
	}).Info("route computed")

	return result, nil
}

func (c *OSRMClient) OptimizeOrder(ctx context.Context, coords []models.Coordinates, mode models.TravelMode) (*models.TripOrder, error) {
	if err := validateCoords(coords); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("source", "first")
	q.Set("destination", "last")
	q.Set("roundtrip", "false")
	q.Set("overview", "false")

	profile := Profile(mode)
	resp, err := c.query(ctx, "trip", profile, coords, q)
	if err != nil {
		return nil, err
	}
	if len(resp.Trips) == 0 {
		return nil, &UpstreamError{Op: "trip", Code: resp.Code, Message: "no trips returned", Kind: models.ErrNoRouteFound}
	}
	if len(resp.Waypoints) != len(coords) {
		return nil, &UpstreamError{
			Op:      "trip",
			Message: fmt.Sprintf("expected %d waypoints, got %d", len(coords), len(resp.Waypoints)),
			Kind:    models.ErrRoutingUnavailable,
		}
	}

	if len(resp.Trips) > 1 || lo.SomeBy(resp.Waypoints, func(wp osrmWaypoint) bool { return wp.TripsIndex != 0 }) {
		return nil, &UpstreamError{
			Op:      "trip",
			Code:    resp.Code,
			Message: fmt.Sprintf("points split into %d disconnected trips", len(resp.Trips)),
			Kind:    models.ErrNoRouteFound,
		}
	}

	order, err := orderFromWaypoints(resp.Waypoints)
	if err != nil {
		return nil, &UpstreamError{Op: "trip", Message: err.Error(), Kind: models.ErrRoutingUnavailable}
	}

	trip := resp.Trips[0]
	c.log.WithFields(logrus.Fields{
		"profile": profile,
		"points":  len(coords),
		"order":   order,
	}).Info("trip order computed")

	return &models.TripOrder{
		Order:            order,
		TotalDistanceKm:  trip.Distance / 1000,
		TotalDurationMin: trip.Duration / 60,
	}, nil
}

// orderFromWaypoints inverts OSRM's input-indexed waypoint positions into
// a position-indexed permutation of input indices.
func orderFromWaypoints(wps []osrmWaypoint) ([]int, error) {
	order := make([]int, len(wps))
	seen := make([]bool, len(wps))
	for inputIdx, wp := range wps {
		pos := wp.WaypointIndex
		if pos < 0 || pos >= len(wps) || seen[pos] {
			return nil, fmt.Errorf("invalid waypoint index %d", pos)
		}
		seen[pos] = true
		order[pos] = inputIdx
	}
	return order, nil
}

func decodeGeometry(encoded string) ([]models.Coordinates, error) {
	if encoded == "" {
		return []models.Coordinates{}, nil
	}
	points, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}
	out := make([]models.Coordinates, len(points))
	for i, p := range points {
		out[i] = models.Coordinates{Lat: p[0], Lng: p[1]}
	}
	return out, nil
}

func (c *OSRMClient) query(ctx context.Context, service, profile string, coords []models.Coordinates, q url.Values) (*osrmResponse, error) {
	queryURL := fmt.Sprintf("%s/%s/v1/%s/%s?%s", c.baseURL, service, profile, encodeCoords(coords), q.Encode())
	log := c.log.WithFields(logrus.Fields{"service": service, "points": len(coords)})

	resp, err := c.doWithRetry(ctx, service, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, c.classify(log, service, err)
	}
	defer resp.Body.Close()

	var out osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.WithError(err).Error("failed to decode OSRM response")
		return nil, &UpstreamError{Op: service, Status: resp.StatusCode, Message: "undecodable response", Kind: models.ErrRoutingUnavailable, Cause: err}
	}
	if out.Code != "Ok" {
		kind := models.ErrRoutingUnavailable
		if noRouteCodes[out.Code] {
			kind = models.ErrNoRouteFound
		}
		log.WithField("code", out.Code).Warn("OSRM returned error code")
		return nil, &UpstreamError{Op: service, Status: resp.StatusCode, Code: out.Code, Message: out.Message, Kind: kind}
	}
	return &out, nil
}

// classify maps a transport or status failure onto the routing error taxonomy
func (c *OSRMClient) classify(log logrus.FieldLogger, service string, err error) error {
	var he *httpStatusError
	if errors.As(err, &he) {
		ue := &UpstreamError{Op: service, Status: he.Code, Kind: models.ErrRoutingUnavailable}
		var body osrmResponse
		if json.Unmarshal(he.Body, &body) == nil {
			ue.Code = body.Code
			ue.Message = body.Message
			if noRouteCodes[body.Code] {
				ue.Kind = models.ErrNoRouteFound
			}
		}
		log.WithFields(logrus.Fields{"status": he.Code, "code": ue.Code}).Error("OSRM request failed")
		return ue
	}
	log.WithError(err).Error("OSRM request failed")
	return &UpstreamError{Op: service, Message: err.Error(), Kind: models.ErrRoutingUnavailable, Cause: err}
}
