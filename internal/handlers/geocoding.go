package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"itinerary-router/internal/geocoding"
)

// HandleAddressSearch handles GET /api/v1/geocode?q=
func (h *Handler) HandleAddressSearch(c *gin.Context) {
	query := c.Query("q")
	if len(query) < 4 || h.Geocoder == nil {
		c.JSON(http.StatusOK, []geocoding.Place{})
		return
	}

	results, err := h.Geocoder.Search(c.Request.Context(), query, 5)
	if err != nil {
		h.logger().WithError(err).WithField("query", query).Warn("address search failed")
		c.JSON(http.StatusOK, []geocoding.Place{})
		return
	}
	c.JSON(http.StatusOK, results)
}
