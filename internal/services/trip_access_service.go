package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tripmesh/reservation-backend/internal/database"
	"github.com/tripmesh/reservation-backend/internal/models"
)

// TripAccessService authorizes a caller against a trip before any hold,
// confirm, or release reaches the ledger. The reservation managers assume
// this check has already passed.
type TripAccessService struct {
	tripRepo *database.TripRepository
}

// NewTripAccessService creates a new TripAccessService
func NewTripAccessService(tripRepo *database.TripRepository) *TripAccessService {
	return &TripAccessService{tripRepo: tripRepo}
}

// Authorize verifies the trip exists, is not cancelled, and belongs to the
// caller (admins may act on any trip).
func (s *TripAccessService) Authorize(tripID, userID uuid.UUID, isAdmin bool) error {
	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return fmt.Errorf("failed to check trip access: %w", err)
	}
	if trip == nil {
		return models.ErrTripNotFound
	}
	if trip.Status == models.TripStatusCancelled {
		return models.NewValidationError("trip_id", "trip is cancelled")
	}
	if !isAdmin && trip.UserID != userID {
		return models.ErrForbidden
	}
	return nil
}
