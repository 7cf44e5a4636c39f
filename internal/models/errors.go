package models

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the reservation services. Handlers map these to
// HTTP statuses; everything else is treated as an internal error.
var (
	ErrBusNotFound    = errors.New("bus not found")
	ErrHotelNotFound  = errors.New("hotel not found")
	ErrTripNotFound   = errors.New("trip not found")
	ErrForbidden      = errors.New("caller is not the trip owner")
	ErrHoldNotFound   = errors.New("no live hold matches the given token")
	ErrNotEnoughRooms = errors.New("not enough rooms available")
)

// ValidationError rejects a malformed request before it touches the ledger
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a named request field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// SeatConflictError is returned when every requested seat was rejected. The
// per-seat reasons let the caller retry against the remaining inventory.
type SeatConflictError struct {
	RejectedSeats []SeatRejection
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("no seats could be held: %d seat(s) unavailable", len(e.RejectedSeats))
}

// RoomConflictError is returned when every requested room was rejected
type RoomConflictError struct {
	RejectedRooms []RoomRejection
}

func (e *RoomConflictError) Error() string {
	return fmt.Sprintf("no rooms could be held: %d room(s) unavailable", len(e.RejectedRooms))
}

// SeatConfirmError is returned when any leg/seat of a confirmation conflicted.
// The transaction still commits the confirmed subset, which is carried here
// for diagnostics.
type SeatConfirmError struct {
	Response *ConfirmSeatsResponse
}

func (e *SeatConfirmError) Error() string {
	return fmt.Sprintf("confirmation conflicts on %d seat(s)", len(e.Response.Conflicts))
}

// RoomConfirmError is the room-manager counterpart of SeatConfirmError
type RoomConfirmError struct {
	Response *ConfirmRoomsResponse
}

func (e *RoomConfirmError) Error() string {
	return fmt.Sprintf("confirmation conflicts on %d room(s)", len(e.Response.Conflicts))
}
