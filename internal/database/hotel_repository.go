package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/tripmesh/reservation-backend/internal/models"
)

// HotelRepository reads the hotel and room catalog
type HotelRepository struct {
	db *sqlx.DB
}

// NewHotelRepository creates a new HotelRepository
func NewHotelRepository(db *sqlx.DB) *HotelRepository {
	return &HotelRepository{db: db}
}

// GetByID retrieves a hotel by ID, or nil when it does not exist
func (r *HotelRepository) GetByID(hotelID uuid.UUID) (*models.Hotel, error) {
	query := `
		SELECT id, name, status, created_at, updated_at
		FROM hotels
		WHERE id = $1`

	var hotel models.Hotel
	err := r.db.Get(&hotel, query, hotelID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hotel: %w", err)
	}
	return &hotel, nil
}

// GetRoomsByHotelID retrieves all rooms of a hotel ordered by room number.
// The ordering here is textual; auto-assignment re-sorts numerically when
// every room number parses as an integer.
func (r *HotelRepository) GetRoomsByHotelID(hotelID uuid.UUID) ([]models.HotelRoom, error) {
	query := `
		SELECT id, hotel_id, room_number, floor, sleeps, created_at
		FROM hotel_rooms
		WHERE hotel_id = $1
		ORDER BY room_number`

	var rooms []models.HotelRoom
	if err := r.db.Select(&rooms, query, hotelID); err != nil {
		return nil, fmt.Errorf("failed to get hotel rooms: %w", err)
	}
	return rooms, nil
}
