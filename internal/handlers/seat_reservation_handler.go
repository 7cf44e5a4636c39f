package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tripmesh/reservation-backend/internal/middleware"
	"github.com/tripmesh/reservation-backend/internal/models"
	"github.com/tripmesh/reservation-backend/internal/services"
)

// SeatReservationHandler exposes the seat reservation manager over HTTP
type SeatReservationHandler struct {
	seatService *services.SeatReservationService
	logger      *logrus.Logger
}

// NewSeatReservationHandler creates a new SeatReservationHandler
func NewSeatReservationHandler(seatService *services.SeatReservationService, logger *logrus.Logger) *SeatReservationHandler {
	return &SeatReservationHandler{seatService: seatService, logger: logger}
}

// RegisterRoutes mounts the seat reservation endpoints under the given group
func (h *SeatReservationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	buses := rg.Group("/buses/:bus_id")
	buses.POST("/holds", h.HoldSeats)
	buses.POST("/holds/extend", h.ExtendHold)
	buses.POST("/holds/confirm", h.ConfirmSeats)
	buses.POST("/holds/release", h.ReleaseSeats)
	buses.GET("/seat-map", h.SeatMap)
}

func parseResourceID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "invalid " + param,
		})
		return uuid.Nil, false
	}
	return id, true
}

// HoldSeats places provisional claims on seats for a travel date
// POST /api/v1/buses/:bus_id/holds
func (h *SeatReservationHandler) HoldSeats(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	busID, ok := parseResourceID(c, "bus_id")
	if !ok {
		return
	}

	var req models.HoldSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	resp, err := h.seatService.HoldSeats(userCtx.UserID, userCtx.IsAdmin, busID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ExtendHold extends a live hold, optionally attaching a payment
// POST /api/v1/buses/:bus_id/holds/extend
func (h *SeatReservationHandler) ExtendHold(c *gin.Context) {
	if _, exists := middleware.GetUserContext(c); !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	busID, ok := parseResourceID(c, "bus_id")
	if !ok {
		return
	}

	var req models.ExtendHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	resp, err := h.seatService.ExtendSeatHold(busID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmSeats converts held seats into booking-linked claims
// POST /api/v1/buses/:bus_id/holds/confirm
func (h *SeatReservationHandler) ConfirmSeats(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	busID, ok := parseResourceID(c, "bus_id")
	if !ok {
		return
	}

	var req models.ConfirmSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	resp, err := h.seatService.ConfirmSeats(userCtx.UserID, userCtx.IsAdmin, busID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReleaseSeats releases held seats; always idempotent
// POST /api/v1/buses/:bus_id/holds/release
func (h *SeatReservationHandler) ReleaseSeats(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	busID, ok := parseResourceID(c, "bus_id")
	if !ok {
		return
	}

	var req models.ReleaseSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	released, err := h.seatService.ReleaseSeats(userCtx.UserID, userCtx.IsAdmin, busID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.ReleaseResponse{ReleasedCount: released})
}

// SeatMap returns the availability classification of every seat for a date
// GET /api/v1/buses/:bus_id/seat-map?travel_date=YYYY-MM-DD
func (h *SeatReservationHandler) SeatMap(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	busID, ok := parseResourceID(c, "bus_id")
	if !ok {
		return
	}

	travelDate := c.Query("travel_date")
	if travelDate == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "travel_date query parameter is required",
		})
		return
	}

	var knownToken *uuid.UUID
	if raw := c.Query("hold_token"); raw != "" {
		token, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"message": "invalid hold_token",
			})
			return
		}
		knownToken = &token
	}

	entries, err := h.seatService.SeatMap(busID, travelDate, userCtx.UserID, knownToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bus_id": busID, "travel_date": travelDate, "seats": entries})
}
