package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/tripmesh/reservation-backend/internal/models"
)

// BusRepository reads the bus catalog. The reservation engine never mutates
// catalog rows; fleet provisioning owns them.
type BusRepository struct {
	db *sqlx.DB
}

// NewBusRepository creates a new BusRepository
func NewBusRepository(db *sqlx.DB) *BusRepository {
	return &BusRepository{db: db}
}

// GetByID retrieves a bus by ID, or nil when it does not exist
func (r *BusRepository) GetByID(busID uuid.UUID) (*models.Bus, error) {
	query := `
		SELECT id, name, seat_count, status, created_at, updated_at
		FROM buses
		WHERE id = $1`

	var bus models.Bus
	err := r.db.Get(&bus, query, busID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bus: %w", err)
	}
	return &bus, nil
}
