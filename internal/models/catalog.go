package models

import (
	"time"

	"github.com/google/uuid"
)

// Bus represents a vehicle with numbered seats 1..SeatCount.
// Catalog entities are read-only from the reservation engine's perspective;
// provisioning and capacity changes belong to the fleet CRUD layer.
type Bus struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	SeatCount int       `json:"seat_count" db:"seat_count"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Hotel represents a property whose rooms are individually reservable
type Hotel struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HotelRoom is one addressable room. Floor and Sleeps are display attributes
// only; the reservation algorithm keys on (hotel_id, room_number).
type HotelRoom struct {
	ID         uuid.UUID `json:"id" db:"id"`
	HotelID    uuid.UUID `json:"hotel_id" db:"hotel_id"`
	RoomNumber string    `json:"room_number" db:"room_number"`
	Floor      *int      `json:"floor,omitempty" db:"floor"`
	Sleeps     int       `json:"sleeps" db:"sleeps"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// TripStatus represents the state of a trip
type TripStatus string

const (
	TripStatusPlanning  TripStatus = "planning"
	TripStatusBooked    TripStatus = "booked"
	TripStatusCancelled TripStatus = "cancelled"
)

// Trip is the access-collaborator view of a trip: enough to authorize the
// caller before a hold, confirm, or release touches the ledger.
type Trip struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	Title     *string    `json:"title,omitempty" db:"title"`
	Status    TripStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}
