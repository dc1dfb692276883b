package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts every API route under /api/v1
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	api := r.Group("/api/v1")
	api.GET("/health", h.HandleHealthCheck)
	api.GET("/geocode", h.HandleAddressSearch)

	trips := api.Group("/trips")
	trips.POST("", h.HandlePlanTrip)
	trips.POST("/build", h.HandleBuildTrip)
	trips.GET("/:id", h.HandleGetTrip)
	trips.PATCH("/:id", h.HandleUpdateTrip)
	trips.DELETE("/:id", h.HandleDeleteTrip)
	trips.POST("/:id/optimize", h.HandleOptimizeTrip)
	trips.DELETE("/:id/stops/:stop", h.HandleRemoveStop)
	trips.POST("/:id/days/reorder", h.HandleReorderDays)
	trips.POST("/:id/days/:day/optimize", h.HandleOptimizeDay)
	trips.POST("/:id/days/:day/stops/:stop/move", h.HandleMoveStop)
	trips.POST("/:id/days/:day/stops/:stop/transfer", h.HandleTransferStop)
	trips.PUT("/:id/days/:day/meals/:meal", h.HandleUpdateMealTime)
}
