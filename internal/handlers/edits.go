package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"itinerary-router/internal/itinerary"
	"itinerary-router/internal/models"
)

// editFunc computes the fields to replace on the current itinerary
type editFunc func(ctx context.Context, current *models.Itinerary) (models.ItineraryPatch, error)

// edit runs fn against the stored itinerary under the session lock and
// persists the patch. Nothing is written when fn fails.
func (h *Handler) edit(c *gin.Context, op string, fn editFunc) {
	id := c.Param("id")
	unlock := h.Sessions.Lock(id)
	defer unlock()

	ctx := c.Request.Context()
	current, err := h.DB.Itineraries().Get(ctx, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	patch, err := fn(ctx, current)
	if err != nil {
		h.handleError(c, err)
		return
	}

	updated, err := h.DB.Itineraries().Update(ctx, id, patch)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.logger().WithFields(logrus.Fields{"session_id": id, "op": op}).Info("itinerary edited")
	c.JSON(http.StatusOK, updated)
}

type modeRequest struct {
	Mode models.TravelMode `json:"mode"`
}

// bindOptional decodes a JSON body when one was sent
func bindOptional(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return c.ShouldBindJSON(dst) == nil
}

// HandleOptimizeTrip handles POST /api/v1/trips/:id/optimize
func (h *Handler) HandleOptimizeTrip(c *gin.Context) {
	var req modeRequest
	if !bindOptional(c, &req) {
		h.handleValidationError(c, "Invalid request body")
		return
	}
	h.edit(c, itinerary.OpOptimizeRoute, func(ctx context.Context, current *models.Itinerary) (models.ItineraryPatch, error) {
		return h.Orchestrator.ReoptimizeWholeTrip(ctx, current, req.Mode)
	})
}

// HandleOptimizeDay handles POST /api/v1/trips/:id/days/:day/optimize
func (h *Handler) HandleOptimizeDay(c *gin.Context) {
	day, ok := dayParam(c)
	if !ok {
		h.handleValidationError(c, "day must be a positive number")
		return
	}
	var req modeRequest
	if !bindOptional(c, &req) {
		h.handleValidationError(c, "Invalid request body")
		return
	}
	h.edit(c, itinerary.OpOptimizeDay, func(ctx context.Context, current *models.Itinerary) (models.ItineraryPatch, error) {
		return h.Orchestrator.ReoptimizeOneDay(ctx, current, day, req.Mode)
	})
}

// HandleMoveStop handles POST /api/v1/trips/:id/days/:day/stops/:stop/move
func (h *Handler) HandleMoveStop(c *gin.Context) {
	day, okDay := dayParam(c)
	stop, okStop := stopParam(c)
	if !okDay || !okStop {
		h.handleValidationError(c, "day must be positive and stop must not be negative")
		return
	}
	var req struct {
		Direction itinerary.Direction `json:"direction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleValidationError(c, "direction is required")
		return
	}
	h.edit(c, "reorder stop", func(_ context.Context, current *models.Itinerary) (models.ItineraryPatch, error) {
		return itinerary.ReorderStop(current, day, stop, req.Direction)
	})
}

// HandleTransferStop handles POST /api/v1/trips/:id/days/:day/stops/:stop/transfer
func (h *Handler) HandleTransferStop(c *gin.Context) {
	day, okDay := dayParam(c)
	stop, okStop := stopParam(c)
	if !okDay || !okStop {
		h.handleValidationError(c, "day must be positive and stop must not be negative")
		return
	}
	var req struct {
		ToDay int `json:"toDay" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleValidationError(c, "toDay must be a positive number")
		return
	}
	h.edit(c, "move stop", func(_ context.Context, current *models.Itinerary) (models.ItineraryPatch, error) {
		return itinerary.MoveStopAcrossDays(current, day, stop, req.ToDay-1)
	})
}

// HandleRemoveStop handles DELETE /api/v1/trips/:id/stops/:stop
func (h *Handler) HandleRemoveStop(c *gin.Context) {
	stop, ok := stopParam(c)
	if !ok {
		h.handleValidationError(c, "stop must not be negative")
		return
	}
	var dayIndex *int
	if raw := c.Query("day"); raw != "" {
		day, err := strconv.Atoi(raw)
		if err != nil || day < 1 {
			h.handleValidationError(c, "day must be a positive number")
			return
		}
		idx := day - 1
		dayIndex = &idx
	}
	h.edit(c, "remove stop", func(_ context.Context, current *models.Itinerary) (models.ItineraryPatch, error) {
		return itinerary.RemoveStop(current, dayIndex, stop)
	})
}

// HandleReorderDays handles POST /api/v1/trips/:id/days/reorder
func (h *Handler) HandleReorderDays(c *gin.Context) {
	var req struct {
		From int `json:"from" binding:"required,min=1"`
		To   int `json:"to" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleValidationError(c, "from and to must be positive day numbers")
		return
	}
	h.edit(c, "reorder days", func(_ context.Context, current *models.Itinerary) (models.ItineraryPatch, error) {
		return itinerary.MoveDay(current, req.From-1, req.To-1)
	})
}

// HandleUpdateMealTime handles PUT /api/v1/trips/:id/days/:day/meals/:meal
func (h *Handler) HandleUpdateMealTime(c *gin.Context) {
	day, ok := dayParam(c)
	if !ok {
		h.handleValidationError(c, "day must be a positive number")
		return
	}
	var req struct {
		ScheduledTime string `json:"scheduledTime" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleValidationError(c, "scheduledTime is required")
		return
	}
	role := models.MealRole(c.Param("meal"))
	h.edit(c, "update meal time", func(_ context.Context, current *models.Itinerary) (models.ItineraryPatch, error) {
		return itinerary.SetMealTime(current, day, role, req.ScheduledTime)
	})
}
