// Package handlers exposes itinerary planning and editing over HTTP.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"itinerary-router/internal/database"
	"itinerary-router/internal/geocoding"
	"itinerary-router/internal/itinerary"
	"itinerary-router/internal/models"
)

// Handler provides common handler utilities and dependencies
type Handler struct {
	DB           database.DataStore
	Planner      *itinerary.TripPlanner
	Orchestrator *itinerary.Orchestrator
	Geocoder     geocoding.Geocoder
	Sessions     *SessionLocks
	Log          logrus.FieldLogger
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (h *Handler) logger() logrus.FieldLogger {
	if h.Log == nil {
		return logrus.StandardLogger()
	}
	return h.Log
}

// writeError writes a JSON error response
func writeError(c *gin.Context, status int, code, message string, details any) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message, Details: details},
	})
}

func (h *Handler) handleValidationError(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", message, nil)
}

// handleError maps domain errors onto HTTP responses
func (h *Handler) handleError(c *gin.Context, err error) {
	var details any
	var opErr *itinerary.OperationError
	if errors.As(err, &opErr) {
		d := gin.H{"operation": opErr.Op}
		if opErr.Day > 0 {
			d["day"] = opErr.Day
		}
		details = d
	}

	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Itinerary not found", nil)
	case errors.Is(err, models.ErrRoutingUnavailable):
		writeError(c, http.StatusServiceUnavailable, "ROUTING_UNAVAILABLE", "The routing service is unavailable. Please try again.", details)
	case errors.Is(err, models.ErrNoRouteFound):
		writeError(c, http.StatusUnprocessableEntity, "NO_ROUTE_FOUND", "No route connects these stops for the selected mode.", details)
	case errors.Is(err, geocoding.ErrNoMatch):
		writeError(c, http.StatusUnprocessableEntity, "GEOCODING_FAILED", err.Error(), nil)
	case errors.Is(err, models.ErrInvalidCoordinates),
		errors.Is(err, models.ErrInsufficientStops),
		errors.Is(err, models.ErrDayOutOfRange),
		errors.Is(err, models.ErrStopOutOfRange),
		errors.Is(err, itinerary.ErrInvalidDirection),
		errors.Is(err, itinerary.ErrUnknownMeal),
		errors.Is(err, itinerary.ErrInvalidPatch):
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), details)
	default:
		h.logger().WithError(err).WithField("path", c.FullPath()).Error("internal error")
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An error occurred. Please try again.", details)
	}
}

// dayParam reads the 1-based :day path parameter as a 0-based index
func dayParam(c *gin.Context) (int, bool) {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil || day < 1 {
		return 0, false
	}
	return day - 1, true
}

// stopParam reads the 0-based :stop path parameter
func stopParam(c *gin.Context) (int, bool) {
	stop, err := strconv.Atoi(c.Param("stop"))
	if err != nil || stop < 0 {
		return 0, false
	}
	return stop, true
}

// HandleHealthCheck handles GET /api/v1/health
func (h *Handler) HandleHealthCheck(c *gin.Context) {
	if err := h.DB.HealthCheck(c.Request.Context()); err != nil {
		h.logger().WithError(err).Warn("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "ok"})
}
