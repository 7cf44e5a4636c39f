package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tripmesh/reservation-backend/internal/config"
	"github.com/tripmesh/reservation-backend/internal/database"
	"github.com/tripmesh/reservation-backend/internal/models"
)

// SeatReservationService holds, confirms, and releases seat claims for a bus
// on a single travel date. Each multi-seat operation runs in one ledger
// transaction with the expiry reap executed first.
type SeatReservationService struct {
	ledger  *database.Ledger
	busRepo *database.BusRepository
	access  *TripAccessService
	config  config.HoldConfig
	logger  *logrus.Logger
}

// NewSeatReservationService creates a new SeatReservationService
func NewSeatReservationService(
	ledger *database.Ledger,
	busRepo *database.BusRepository,
	access *TripAccessService,
	cfg config.HoldConfig,
	logger *logrus.Logger,
) *SeatReservationService {
	return &SeatReservationService{
		ledger:  ledger,
		busRepo: busRepo,
		access:  access,
		config:  cfg,
		logger:  logger,
	}
}

// canonicalSeat reduces a seat number to its canonical spelling, so "07" and
// "+7" share the ledger key of "7". Input that does not parse as a positive
// integer is returned unchanged; it can never match a held row.
func canonicalSeat(seat string) string {
	n, err := strconv.Atoi(seat)
	if err != nil || n < 1 {
		return seat
	}
	return strconv.Itoa(n)
}

// validSeatNumber reports whether a canonical seat number exists on the bus.
// Seats are numbered 1..seat_count.
func validSeatNumber(bus *models.Bus, seat string) bool {
	n, err := strconv.Atoi(seat)
	if err != nil {
		return false
	}
	return n >= 1 && n <= bus.SeatCount && seat == strconv.Itoa(n)
}

// canonicalSeats canonicalizes every seat number and collapses duplicate
// spellings, preserving first-occurrence order.
func canonicalSeats(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, canonicalSeat(v))
	}
	return dedupe(out)
}

// dedupe keeps the first occurrence of each value, preserving order
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// HoldSeats attempts to hold every requested seat for the travel date. Each
// seat is tried independently: seats already claimed by others are rejected
// with a reason without aborting the rest. If no seat can be held the call
// fails with a SeatConflictError carrying the full rejection list.
func (s *SeatReservationService) HoldSeats(
	userID uuid.UUID,
	isAdmin bool,
	busID uuid.UUID,
	req *models.HoldSeatsRequest,
) (*models.HoldSeatsResponse, error) {
	travelDate, err := time.Parse(models.DateFormat, req.TravelDate)
	if err != nil {
		return nil, models.NewValidationError("travel_date", "must be formatted as YYYY-MM-DD")
	}
	seats := canonicalSeats(req.SeatNumbers)
	if len(seats) == 0 {
		return nil, models.NewValidationError("seat_numbers", "at least one seat is required")
	}

	bus, err := s.busRepo.GetByID(busID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bus: %w", err)
	}
	if bus == nil {
		return nil, models.ErrBusNotFound
	}

	if err := s.access.Authorize(req.TripID, userID, isAdmin); err != nil {
		return nil, err
	}

	token := uuid.New()
	if req.HoldToken != nil {
		token = *req.HoldToken
	}
	expiresAt := time.Now().Add(s.config.TTL)
	key := database.DateKey{Date: travelDate}

	tx, err := s.ledger.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.ledger.ReapExpired(tx, busID); err != nil {
		return nil, err
	}

	held := make([]string, 0, len(seats))
	rejected := make([]models.SeatRejection, 0)

	for _, seat := range seats {
		if !validSeatNumber(bus, seat) {
			rejected = append(rejected, models.SeatRejection{
				SeatNumber: seat,
				Reason:     models.RejectionReasonNotFound,
			})
			continue
		}

		outcome, err := s.ledger.Claim(tx, busID, seat, key, token, userID, req.TripID, expiresAt)
		if err != nil {
			return nil, err
		}
		if outcome.Granted {
			held = append(held, seat)
		} else {
			rejected = append(rejected, models.SeatRejection{
				SeatNumber: seat,
				Reason:     outcome.Reason,
			})
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit seat holds: %w", err)
	}

	if len(held) == 0 {
		return nil, &models.SeatConflictError{RejectedSeats: rejected}
	}

	s.logger.WithFields(logrus.Fields{
		"bus_id":      busID,
		"travel_date": req.TravelDate,
		"trip_id":     req.TripID,
		"held":        len(held),
		"rejected":    len(rejected),
		"expires_at":  expiresAt,
	}).Info("Seat hold created")

	return &models.HoldSeatsResponse{
		HoldToken:     token,
		ExpiresAt:     expiresAt,
		HeldSeats:     held,
		RejectedSeats: rejected,
	}, nil
}

// ConfirmSeats converts held seats into booking-linked claims, one leg at a
// time. All legs are attempted; the transaction commits whatever confirmed.
// Any conflict surfaces as a SeatConfirmError wrapping the full response so
// the caller can see both the confirmed subset and the conflicts.
func (s *SeatReservationService) ConfirmSeats(
	userID uuid.UUID,
	isAdmin bool,
	busID uuid.UUID,
	req *models.ConfirmSeatsRequest,
) (*models.ConfirmSeatsResponse, error) {
	type parsedLeg struct {
		date  time.Time
		raw   string
		seats []string
	}
	legs := make([]parsedLeg, 0, len(req.Legs))
	for _, leg := range req.Legs {
		date, err := time.Parse(models.DateFormat, leg.TravelDate)
		if err != nil {
			return nil, models.NewValidationError("legs", "travel_date must be formatted as YYYY-MM-DD")
		}
		legs = append(legs, parsedLeg{date: date, raw: leg.TravelDate, seats: canonicalSeats(leg.SeatNumbers)})
	}

	if err := s.access.Authorize(req.TripID, userID, isAdmin); err != nil {
		return nil, err
	}

	tx, err := s.ledger.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.ledger.ReapExpired(tx, busID); err != nil {
		return nil, err
	}

	resp := &models.ConfirmSeatsResponse{
		ConfirmedSeats: make([]models.ConfirmedSeat, 0),
		Conflicts:      make([]models.SeatConflict, 0),
	}

	for _, leg := range legs {
		key := database.DateKey{Date: leg.date}
		for _, seat := range leg.seats {
			outcome, err := s.ledger.Confirm(tx, busID, seat, key, req.HoldToken, userID, req.BookingID, req.PaymentID)
			if err != nil {
				return nil, err
			}
			if outcome.Confirmed {
				resp.ConfirmedSeats = append(resp.ConfirmedSeats, models.ConfirmedSeat{
					TravelDate: leg.raw,
					SeatNumber: seat,
				})
			} else {
				resp.Conflicts = append(resp.Conflicts, models.SeatConflict{
					TravelDate: leg.raw,
					SeatNumber: seat,
					Reason:     outcome.Reason,
				})
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit seat confirmation: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"bus_id":    busID,
		"trip_id":   req.TripID,
		"confirmed": len(resp.ConfirmedSeats),
		"conflicts": len(resp.Conflicts),
	}).Info("Seat confirmation processed")

	if len(resp.Conflicts) > 0 {
		return resp, &models.SeatConfirmError{Response: resp}
	}
	return resp, nil
}

// ReleaseSeats releases held seats under the token, optionally narrowed to a
// date or seat subset. Only the hold's owner or an admin may release;
// releasing a token with no live holds is a no-op returning zero.
func (s *SeatReservationService) ReleaseSeats(
	userID uuid.UUID,
	isAdmin bool,
	busID uuid.UUID,
	req *models.ReleaseSeatsRequest,
) (int, error) {
	var key database.ValidityKey
	if req.TravelDate != nil {
		date, err := time.Parse(models.DateFormat, *req.TravelDate)
		if err != nil {
			return 0, models.NewValidationError("travel_date", "must be formatted as YYYY-MM-DD")
		}
		key = database.DateKey{Date: date}
	}

	owner, err := s.ledger.HoldOwner(busID, req.HoldToken)
	if err != nil {
		return 0, err
	}
	if owner != nil && *owner != userID && !isAdmin {
		return 0, models.ErrForbidden
	}

	tx, err := s.ledger.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Reap first so lapsed holds end as 'expired', not 'released'.
	if _, err := s.ledger.ReapExpired(tx, busID); err != nil {
		return 0, err
	}

	released, err := s.ledger.Release(tx, database.ReleaseFilter{
		ResourceID: busID,
		HoldToken:  req.HoldToken,
		Units:      canonicalSeats(req.SeatNumbers),
		Key:        key,
	})
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit seat release: %w", err)
	}

	if released > 0 {
		s.logger.WithFields(logrus.Fields{
			"bus_id":   busID,
			"released": released,
		}).Info("Seat holds released")
	}
	return released, nil
}

// SeatMap classifies every seat of the bus for a travel date. The expiry reap
// runs first, so a lapsed hold always reads as available.
func (s *SeatReservationService) SeatMap(
	busID uuid.UUID,
	travelDate string,
	viewerID uuid.UUID,
	knownToken *uuid.UUID,
) ([]models.SeatMapEntry, error) {
	date, err := time.Parse(models.DateFormat, travelDate)
	if err != nil {
		return nil, models.NewValidationError("travel_date", "must be formatted as YYYY-MM-DD")
	}

	bus, err := s.busRepo.GetByID(busID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bus: %w", err)
	}
	if bus == nil {
		return nil, models.ErrBusNotFound
	}

	tx, err := s.ledger.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.ledger.ReapExpired(tx, busID); err != nil {
		return nil, err
	}

	claims, err := s.ledger.ActiveClaims(tx, busID, database.DateKey{Date: date})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit seat map read: %w", err)
	}

	claimBySeat := make(map[string]database.Claim, len(claims))
	for _, c := range claims {
		claimBySeat[c.UnitNumber] = c
	}

	entries := make([]models.SeatMapEntry, 0, bus.SeatCount)
	for i := 1; i <= bus.SeatCount; i++ {
		seat := strconv.Itoa(i)
		entry := models.SeatMapEntry{SeatNumber: seat, Status: models.UnitStateAvailable}
		if c, ok := claimBySeat[seat]; ok {
			if c.Status == models.ReservationStatusBooked {
				entry.Status = models.UnitStateBooked
			} else {
				entry.Status = models.UnitStateHeld
				entry.IsOwnHold = c.UserID == viewerID ||
					(knownToken != nil && c.HoldToken != nil && *c.HoldToken == *knownToken)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ExtendSeatHold extends a live hold's lifetime on behalf of the payment
// flow, optionally attaching the payment. Fails when the token matches no
// live hold on the bus.
func (s *SeatReservationService) ExtendSeatHold(
	busID uuid.UUID,
	req *models.ExtendHoldRequest,
) (*models.ExtendHoldResponse, error) {
	expiresAt := time.Now().Add(s.config.PaymentExtension)

	renewed, err := s.ledger.Renew(busID, req.HoldToken, expiresAt, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if renewed == 0 {
		return nil, models.ErrHoldNotFound
	}

	s.logger.WithFields(logrus.Fields{
		"bus_id":     busID,
		"renewed":    renewed,
		"expires_at": expiresAt,
	}).Info("Seat hold extended")

	return &models.ExtendHoldResponse{HoldToken: req.HoldToken, ExpiresAt: expiresAt}, nil
}
