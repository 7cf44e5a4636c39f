package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tripmesh/reservation-backend/internal/models"
)

// respondError maps service errors onto the HTTP error taxonomy: validation
// failures are 400, unknown resources 404, ownership failures 403, and any
// conflict carries its structured per-unit reason list on a 409.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var validationErr *models.ValidationError
	var seatConflict *models.SeatConflictError
	var roomConflict *models.RoomConflictError
	var seatConfirm *models.SeatConfirmError
	var roomConfirm *models.RoomConfirmError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": validationErr.Error(),
		})
	case errors.Is(err, models.ErrBusNotFound),
		errors.Is(err, models.ErrHotelNotFound),
		errors.Is(err, models.ErrTripNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": err.Error()})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": err.Error()})
	case errors.Is(err, models.ErrHoldNotFound):
		c.JSON(http.StatusConflict, gin.H{"error": "hold_not_found", "message": err.Error()})
	case errors.Is(err, models.ErrNotEnoughRooms):
		c.JSON(http.StatusConflict, gin.H{"error": "not_enough_rooms", "message": err.Error()})
	case errors.As(err, &seatConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":          "seats_unavailable",
			"message":        seatConflict.Error(),
			"rejected_seats": seatConflict.RejectedSeats,
		})
	case errors.As(err, &roomConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":          "rooms_unavailable",
			"message":        roomConflict.Error(),
			"rejected_rooms": roomConflict.RejectedRooms,
		})
	case errors.As(err, &seatConfirm):
		c.JSON(http.StatusConflict, gin.H{
			"error":           "confirmation_conflicts",
			"message":         seatConfirm.Error(),
			"confirmed_seats": seatConfirm.Response.ConfirmedSeats,
			"conflicts":       seatConfirm.Response.Conflicts,
		})
	case errors.As(err, &roomConfirm):
		c.JSON(http.StatusConflict, gin.H{
			"error":           "confirmation_conflicts",
			"message":         roomConfirm.Error(),
			"confirmed_rooms": roomConfirm.Response.ConfirmedRooms,
			"conflicts":       roomConfirm.Response.Conflicts,
		})
	default:
		logger.WithError(err).Error("Unhandled reservation error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
