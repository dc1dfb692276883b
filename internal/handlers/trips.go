package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"itinerary-router/internal/itinerary"
	"itinerary-router/internal/models"
)

type planTripRequest struct {
	Location    *models.Coordinates    `json:"location"`
	Address     string                 `json:"address"`
	Preferences models.TripPreferences `json:"preferences"`
	MultiDay    bool                   `json:"multiDay"`
	Days        int                    `json:"days"`
	Mode        models.TravelMode      `json:"mode"`
}

type buildTripRequest struct {
	Start models.Coordinates `json:"start"`
	Stops []models.Stop      `json:"stops"`
	Days  []models.Day       `json:"days"`
	Mode  models.TravelMode  `json:"mode"`
}

type tripResponse struct {
	SessionID string            `json:"sessionId"`
	Itinerary *models.Itinerary `json:"itinerary"`
}

// HandlePlanTrip handles POST /api/v1/trips
func (h *Handler) HandlePlanTrip(c *gin.Context) {
	var req planTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleValidationError(c, "Invalid request body")
		return
	}

	location := req.Location
	if location == nil {
		if req.Address == "" || h.Geocoder == nil {
			h.handleValidationError(c, "location or address is required")
			return
		}
		place, err := h.Geocoder.Geocode(c.Request.Context(), req.Address)
		if err != nil {
			h.handleError(c, err)
			return
		}
		location = &place.Coordinates
	}

	prefs := req.Preferences
	if req.MultiDay {
		prefs.MultiDay = true
	}
	if req.Days > 0 {
		prefs.Days = req.Days
	}

	it, err := h.Planner.PlanTrip(c.Request.Context(), itinerary.TripRequest{
		Location:    *location,
		Preferences: prefs,
		Mode:        req.Mode,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.create(c, it)
}

// HandleBuildTrip handles POST /api/v1/trips/build
func (h *Handler) HandleBuildTrip(c *gin.Context) {
	var req buildTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleValidationError(c, "Invalid request body")
		return
	}
	mode := req.Mode
	if mode == "" {
		mode = models.ModeWalking
	}

	var (
		it  *models.Itinerary
		err error
	)
	days := itinerary.GroupByDay(req.Days, req.Stops)
	if len(days) > 1 {
		it, err = h.Orchestrator.BuildDays(c.Request.Context(), req.Start, days, mode)
	} else {
		it, err = h.Orchestrator.Builder().Build(c.Request.Context(), req.Start, itinerary.Flatten(days), mode)
		if err != nil {
			err = &itinerary.OperationError{Op: itinerary.OpOptimizeRoute, Err: err}
		}
	}
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.create(c, it)
}

func (h *Handler) create(c *gin.Context, it *models.Itinerary) {
	it.SessionID = uuid.NewString()
	created, err := h.DB.Itineraries().Create(c.Request.Context(), it)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.logger().WithFields(logrus.Fields{
		"session_id": created.SessionID,
		"stops":      len(created.Stops),
		"days":       len(created.Days),
	}).Info("itinerary created")
	c.JSON(http.StatusCreated, tripResponse{SessionID: created.SessionID, Itinerary: created})
}

// HandleGetTrip handles GET /api/v1/trips/:id
func (h *Handler) HandleGetTrip(c *gin.Context) {
	it, err := h.DB.Itineraries().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

// HandleUpdateTrip handles PATCH /api/v1/trips/:id
func (h *Handler) HandleUpdateTrip(c *gin.Context) {
	var patch models.ItineraryPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.handleValidationError(c, "Invalid request body")
		return
	}
	if patch.Start != nil && !patch.Start.Valid() {
		h.handleValidationError(c, "start has invalid coordinates")
		return
	}

	h.edit(c, "update", func(_ context.Context, current *models.Itinerary) (models.ItineraryPatch, error) {
		return itinerary.NormalizePatch(current, patch)
	})
}

// HandleDeleteTrip handles DELETE /api/v1/trips/:id
func (h *Handler) HandleDeleteTrip(c *gin.Context) {
	id := c.Param("id")
	unlock := h.Sessions.Lock(id)
	defer unlock()

	if err := h.DB.Itineraries().Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
