package models

import (
	"time"

	"github.com/google/uuid"
)

// ReservationStatus represents the lifecycle state of a ledger row
type ReservationStatus string

const (
	ReservationStatusHeld     ReservationStatus = "held"
	ReservationStatusBooked   ReservationStatus = "booked"
	ReservationStatusReleased ReservationStatus = "released"
	ReservationStatusExpired  ReservationStatus = "expired"
)

// RejectionReason explains why a hold request for a single unit was rejected
type RejectionReason string

const (
	RejectionReasonNotFound      RejectionReason = "not_found"
	RejectionReasonAlreadyBooked RejectionReason = "already_booked"
	RejectionReasonHeldByOther   RejectionReason = "held_by_other"
)

// ConflictReason explains why a confirmation for a single unit failed
type ConflictReason string

const (
	ConflictReasonHoldExpired  ConflictReason = "hold_expired"
	ConflictReasonHoldMismatch ConflictReason = "hold_mismatch"
	ConflictReasonNotHeld      ConflictReason = "not_held"
)

// UnitState is the availability classification shown on seat maps and room availability views
type UnitState string

const (
	UnitStateAvailable UnitState = "available"
	UnitStateHeld      UnitState = "held"
	UnitStateBooked    UnitState = "booked"
)

// SeatReservation is a ledger row claiming one seat on one travel date
type SeatReservation struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	BusID         uuid.UUID         `json:"bus_id" db:"bus_id"`
	SeatNumber    string            `json:"seat_number" db:"seat_number"`
	TravelDate    time.Time         `json:"travel_date" db:"travel_date"`
	Status        ReservationStatus `json:"status" db:"status"`
	HoldToken     *uuid.UUID        `json:"hold_token,omitempty" db:"hold_token"`
	HoldExpiresAt *time.Time        `json:"hold_expires_at,omitempty" db:"hold_expires_at"`
	UserID        uuid.UUID         `json:"user_id" db:"user_id"`
	TripID        uuid.UUID         `json:"trip_id" db:"trip_id"`
	PaymentID     *uuid.UUID        `json:"payment_id,omitempty" db:"payment_id"`
	BookingID     *uuid.UUID        `json:"booking_id,omitempty" db:"booking_id"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}

// RoomReservation is a ledger row claiming one room for a half-open [check_in, check_out) stay
type RoomReservation struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	HotelID       uuid.UUID         `json:"hotel_id" db:"hotel_id"`
	RoomNumber    string            `json:"room_number" db:"room_number"`
	CheckIn       time.Time         `json:"check_in" db:"check_in"`
	CheckOut      time.Time         `json:"check_out" db:"check_out"`
	Status        ReservationStatus `json:"status" db:"status"`
	HoldToken     *uuid.UUID        `json:"hold_token,omitempty" db:"hold_token"`
	HoldExpiresAt *time.Time        `json:"hold_expires_at,omitempty" db:"hold_expires_at"`
	UserID        uuid.UUID         `json:"user_id" db:"user_id"`
	TripID        uuid.UUID         `json:"trip_id" db:"trip_id"`
	PaymentID     *uuid.UUID        `json:"payment_id,omitempty" db:"payment_id"`
	BookingID     *uuid.UUID        `json:"booking_id,omitempty" db:"booking_id"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}

// IsLive reports whether a held reservation is still within its hold window
func (r *SeatReservation) IsLive(now time.Time) bool {
	return r.Status == ReservationStatusHeld && r.HoldExpiresAt != nil && r.HoldExpiresAt.After(now)
}

// Overlaps tests the standard half-open interval intersection against another stay
func (r *RoomReservation) Overlaps(checkIn, checkOut time.Time) bool {
	return r.CheckIn.Before(checkOut) && r.CheckOut.After(checkIn)
}
