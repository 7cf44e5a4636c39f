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

// RoomReservationHandler exposes the room reservation manager over HTTP
type RoomReservationHandler struct {
	roomService *services.RoomReservationService
	logger      *logrus.Logger
}

// NewRoomReservationHandler creates a new RoomReservationHandler
func NewRoomReservationHandler(roomService *services.RoomReservationService, logger *logrus.Logger) *RoomReservationHandler {
	return &RoomReservationHandler{roomService: roomService, logger: logger}
}

// RegisterRoutes mounts the room reservation endpoints under the given group
func (h *RoomReservationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	hotels := rg.Group("/hotels/:hotel_id")
	hotels.POST("/holds", h.HoldRooms)
	hotels.POST("/holds/extend", h.ExtendHold)
	hotels.POST("/holds/confirm", h.ConfirmRooms)
	hotels.POST("/holds/release", h.ReleaseRooms)
	hotels.GET("/availability", h.Availability)
}

// HoldRooms places provisional claims on rooms for a stay interval
// POST /api/v1/hotels/:hotel_id/holds
func (h *RoomReservationHandler) HoldRooms(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	hotelID, ok := parseResourceID(c, "hotel_id")
	if !ok {
		return
	}

	var req models.HoldRoomsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	resp, err := h.roomService.HoldRooms(userCtx.UserID, userCtx.IsAdmin, hotelID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ExtendHold extends a live room hold, optionally attaching a payment
// POST /api/v1/hotels/:hotel_id/holds/extend
func (h *RoomReservationHandler) ExtendHold(c *gin.Context) {
	if _, exists := middleware.GetUserContext(c); !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	hotelID, ok := parseResourceID(c, "hotel_id")
	if !ok {
		return
	}

	var req models.ExtendHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	resp, err := h.roomService.ExtendRoomHold(hotelID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmRooms converts held rooms into booking-linked claims
// POST /api/v1/hotels/:hotel_id/holds/confirm
func (h *RoomReservationHandler) ConfirmRooms(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	hotelID, ok := parseResourceID(c, "hotel_id")
	if !ok {
		return
	}

	var req models.ConfirmRoomsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	resp, err := h.roomService.ConfirmRooms(userCtx.UserID, userCtx.IsAdmin, hotelID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReleaseRooms releases held rooms; always idempotent
// POST /api/v1/hotels/:hotel_id/holds/release
func (h *RoomReservationHandler) ReleaseRooms(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	hotelID, ok := parseResourceID(c, "hotel_id")
	if !ok {
		return
	}

	var req models.ReleaseRoomsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	released, err := h.roomService.ReleaseRooms(userCtx.UserID, userCtx.IsAdmin, hotelID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.ReleaseResponse{ReleasedCount: released})
}

// Availability classifies every room of the hotel for a stay interval
// GET /api/v1/hotels/:hotel_id/availability?check_in=...&check_out=...
func (h *RoomReservationHandler) Availability(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	hotelID, ok := parseResourceID(c, "hotel_id")
	if !ok {
		return
	}

	checkIn := c.Query("check_in")
	checkOut := c.Query("check_out")
	if checkIn == "" || checkOut == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "check_in and check_out query parameters are required",
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

	entries, err := h.roomService.RoomAvailability(hotelID, checkIn, checkOut, userCtx.UserID, knownToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"hotel_id":  hotelID,
		"check_in":  checkIn,
		"check_out": checkOut,
		"rooms":     entries,
	})
}
