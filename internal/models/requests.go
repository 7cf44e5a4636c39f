package models

import (
	"time"

	"github.com/google/uuid"
)

// DateFormat is the wire format for travel dates and stay boundaries
const DateFormat = "2006-01-02"

// ============================================================================
// SEAT RESERVATION DTOs
// ============================================================================

// HoldSeatsRequest asks for provisional claims on one or more seats for a travel date
type HoldSeatsRequest struct {
	TripID      uuid.UUID  `json:"trip_id" binding:"required"`
	TravelDate  string     `json:"travel_date" binding:"required"`
	SeatNumbers []string   `json:"seat_numbers" binding:"required,min=1"`
	HoldToken   *uuid.UUID `json:"hold_token,omitempty"`
}

// SeatRejection reports one seat that could not be held
type SeatRejection struct {
	SeatNumber string          `json:"seat_number"`
	Reason     RejectionReason `json:"reason"`
}

// HoldSeatsResponse reports granted and rejected seats for a hold request
type HoldSeatsResponse struct {
	HoldToken     uuid.UUID       `json:"hold_token"`
	ExpiresAt     time.Time       `json:"expires_at"`
	HeldSeats     []string        `json:"held_seats"`
	RejectedSeats []SeatRejection `json:"rejected_seats"`
}

// SeatLeg groups the seats to confirm for a single travel date
type SeatLeg struct {
	TravelDate  string   `json:"travel_date" binding:"required"`
	SeatNumbers []string `json:"seat_numbers" binding:"required,min=1"`
}

// ConfirmSeatsRequest converts held seats into booking-linked claims
type ConfirmSeatsRequest struct {
	HoldToken uuid.UUID  `json:"hold_token" binding:"required"`
	TripID    uuid.UUID  `json:"trip_id" binding:"required"`
	Legs      []SeatLeg  `json:"legs" binding:"required,min=1,dive"`
	BookingID *uuid.UUID `json:"booking_id,omitempty"`
	PaymentID *uuid.UUID `json:"payment_id,omitempty"`
}

// ConfirmedSeat identifies one seat that was confirmed
type ConfirmedSeat struct {
	TravelDate string `json:"travel_date"`
	SeatNumber string `json:"seat_number"`
}

// SeatConflict reports one seat that could not be confirmed
type SeatConflict struct {
	TravelDate string         `json:"travel_date"`
	SeatNumber string         `json:"seat_number"`
	Reason     ConflictReason `json:"reason"`
}

// ConfirmSeatsResponse carries both the confirmed subset and any conflicts
type ConfirmSeatsResponse struct {
	ConfirmedSeats []ConfirmedSeat `json:"confirmed_seats"`
	Conflicts      []SeatConflict  `json:"conflicts"`
}

// ReleaseSeatsRequest releases held seats for a hold token, optionally narrowed
// to a travel date or a subset of seats
type ReleaseSeatsRequest struct {
	HoldToken   uuid.UUID `json:"hold_token" binding:"required"`
	TravelDate  *string   `json:"travel_date,omitempty"`
	SeatNumbers []string  `json:"seat_numbers,omitempty"`
}

// ReleaseResponse reports how many holds were released
type ReleaseResponse struct {
	ReleasedCount int `json:"released_count"`
}

// ExtendHoldRequest extends a hold's lifetime, optionally attaching a payment
type ExtendHoldRequest struct {
	HoldToken uuid.UUID  `json:"hold_token" binding:"required"`
	PaymentID *uuid.UUID `json:"payment_id,omitempty"`
}

// ExtendHoldResponse reports the new expiry of the extended hold
type ExtendHoldResponse struct {
	HoldToken uuid.UUID `json:"hold_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SeatMapEntry classifies one seat on the seat map
type SeatMapEntry struct {
	SeatNumber string    `json:"seat_number"`
	Status     UnitState `json:"status"`
	IsOwnHold  bool      `json:"is_own_hold"`
}

// ============================================================================
// ROOM RESERVATION DTOs
// ============================================================================

// HoldRoomsRequest asks for provisional claims on rooms for a stay. Either an
// explicit room list or a count of rooms to auto-assign must be given.
type HoldRoomsRequest struct {
	TripID      uuid.UUID  `json:"trip_id" binding:"required"`
	CheckIn     string     `json:"check_in" binding:"required"`
	CheckOut    string     `json:"check_out" binding:"required"`
	RoomNumbers []string   `json:"room_numbers,omitempty"`
	RoomsNeeded int        `json:"rooms_needed,omitempty"`
	HoldToken   *uuid.UUID `json:"hold_token,omitempty"`
}

// RoomRejection reports one room that could not be held
type RoomRejection struct {
	RoomNumber string          `json:"room_number"`
	Reason     RejectionReason `json:"reason"`
}

// HoldRoomsResponse reports granted and rejected rooms for a hold request
type HoldRoomsResponse struct {
	HoldToken     uuid.UUID       `json:"hold_token"`
	ExpiresAt     time.Time       `json:"expires_at"`
	HeldRooms     []string        `json:"held_rooms"`
	RejectedRooms []RoomRejection `json:"rejected_rooms"`
}

// RoomStay groups the rooms to confirm for a single stay interval
type RoomStay struct {
	CheckIn     string   `json:"check_in" binding:"required"`
	CheckOut    string   `json:"check_out" binding:"required"`
	RoomNumbers []string `json:"room_numbers" binding:"required,min=1"`
}

// ConfirmRoomsRequest converts held rooms into booking-linked claims
type ConfirmRoomsRequest struct {
	HoldToken uuid.UUID  `json:"hold_token" binding:"required"`
	TripID    uuid.UUID  `json:"trip_id" binding:"required"`
	Stays     []RoomStay `json:"stays" binding:"required,min=1,dive"`
	BookingID *uuid.UUID `json:"booking_id,omitempty"`
	PaymentID *uuid.UUID `json:"payment_id,omitempty"`
}

// ConfirmedRoom identifies one room stay that was confirmed
type ConfirmedRoom struct {
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	RoomNumber string `json:"room_number"`
}

// RoomConflict reports one room stay that could not be confirmed
type RoomConflict struct {
	CheckIn    string         `json:"check_in"`
	CheckOut   string         `json:"check_out"`
	RoomNumber string         `json:"room_number"`
	Reason     ConflictReason `json:"reason"`
}

// ConfirmRoomsResponse carries both the confirmed subset and any conflicts
type ConfirmRoomsResponse struct {
	ConfirmedRooms []ConfirmedRoom `json:"confirmed_rooms"`
	Conflicts      []RoomConflict  `json:"conflicts"`
}

// ReleaseRoomsRequest releases held rooms for a hold token, optionally narrowed
// to a subset of rooms
type ReleaseRoomsRequest struct {
	HoldToken   uuid.UUID `json:"hold_token" binding:"required"`
	RoomNumbers []string  `json:"room_numbers,omitempty"`
}

// RoomAvailabilityEntry classifies one room for a requested stay interval
type RoomAvailabilityEntry struct {
	RoomNumber string    `json:"room_number"`
	Floor      *int      `json:"floor,omitempty"`
	Sleeps     int       `json:"sleeps"`
	Status     UnitState `json:"status"`
	IsOwnHold  bool      `json:"is_own_hold"`
}
