package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/tripmesh/reservation-backend/internal/models"
)

// TripRepository reads trips for caller authorization. Trip CRUD itself lives
// in the trip-planning service; the engine only needs ownership and status.
type TripRepository struct {
	db *sqlx.DB
}

// NewTripRepository creates a new TripRepository
func NewTripRepository(db *sqlx.DB) *TripRepository {
	return &TripRepository{db: db}
}

// GetByID retrieves a trip by ID, or nil when it does not exist
func (r *TripRepository) GetByID(tripID uuid.UUID) (*models.Trip, error) {
	query := `
		SELECT id, user_id, title, status, created_at, updated_at
		FROM trips
		WHERE id = $1`

	var trip models.Trip
	err := r.db.Get(&trip, query, tripID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return &trip, nil
}
