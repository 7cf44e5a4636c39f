package services

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tripmesh/reservation-backend/internal/config"
	"github.com/tripmesh/reservation-backend/internal/database"
	"github.com/tripmesh/reservation-backend/internal/models"
)

// RoomReservationService holds, confirms, and releases room claims for a
// hotel over half-open stay intervals. It mirrors the seat manager with
// interval-overlap semantics substituted for date equality, plus automatic
// room assignment when the caller asks for a count instead of room numbers.
type RoomReservationService struct {
	ledger    *database.Ledger
	hotelRepo *database.HotelRepository
	access    *TripAccessService
	config    config.HoldConfig
	logger    *logrus.Logger
}

// NewRoomReservationService creates a new RoomReservationService
func NewRoomReservationService(
	ledger *database.Ledger,
	hotelRepo *database.HotelRepository,
	access *TripAccessService,
	cfg config.HoldConfig,
	logger *logrus.Logger,
) *RoomReservationService {
	return &RoomReservationService{
		ledger:    ledger,
		hotelRepo: hotelRepo,
		access:    access,
		config:    cfg,
		logger:    logger,
	}
}

// sortRoomNumbers orders room numbers numerically when every number parses as
// an integer, falling back to lexicographic order otherwise.
func sortRoomNumbers(rooms []string) []string {
	sorted := make([]string, len(rooms))
	copy(sorted, rooms)

	numeric := make(map[string]int, len(rooms))
	allNumeric := true
	for _, room := range rooms {
		n, err := strconv.Atoi(room)
		if err != nil {
			allNumeric = false
			break
		}
		numeric[room] = n
	}

	if allNumeric {
		sort.Slice(sorted, func(i, j int) bool { return numeric[sorted[i]] < numeric[sorted[j]] })
	} else {
		sort.Strings(sorted)
	}
	return sorted
}

// pickRooms selects needed rooms from the free list, preferring an unbroken
// numeric run. When no fully contiguous block exists (or room numbers are not
// numeric), it falls back to the first needed rooms in sorted order. The
// caller guarantees len(free) >= needed.
func pickRooms(free []string, needed int) []string {
	sorted := sortRoomNumbers(free)
	if needed == 1 {
		return sorted[:1]
	}

	nums := make([]int, len(sorted))
	allNumeric := true
	for i, room := range sorted {
		n, err := strconv.Atoi(room)
		if err != nil {
			allNumeric = false
			break
		}
		nums[i] = n
	}

	if allNumeric {
		runStart := 0
		for i := 1; i < len(sorted); i++ {
			if nums[i] != nums[i-1]+1 {
				runStart = i
			}
			if i-runStart+1 == needed {
				return sorted[runStart : i+1]
			}
		}
	}

	return sorted[:needed]
}

func parseStay(checkIn, checkOut string) (database.RangeKey, error) {
	in, err := time.Parse(models.DateFormat, checkIn)
	if err != nil {
		return database.RangeKey{}, models.NewValidationError("check_in", "must be formatted as YYYY-MM-DD")
	}
	out, err := time.Parse(models.DateFormat, checkOut)
	if err != nil {
		return database.RangeKey{}, models.NewValidationError("check_out", "must be formatted as YYYY-MM-DD")
	}
	if !in.Before(out) {
		return database.RangeKey{}, models.NewValidationError("check_out", "must be after check_in")
	}
	return database.RangeKey{CheckIn: in, CheckOut: out}, nil
}

// HoldRooms attempts to hold rooms for a stay. With explicit room numbers,
// every room is tried independently (partial success, like seats). With only
// a count, the free rooms are computed inside the transaction and a
// contiguous numeric block is preferred; NOT enough free rooms fails the
// whole request with ErrNotEnoughRooms.
func (s *RoomReservationService) HoldRooms(
	userID uuid.UUID,
	isAdmin bool,
	hotelID uuid.UUID,
	req *models.HoldRoomsRequest,
) (*models.HoldRoomsResponse, error) {
	key, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	if len(req.RoomNumbers) == 0 && req.RoomsNeeded <= 0 {
		return nil, models.NewValidationError("room_numbers", "either room_numbers or rooms_needed is required")
	}

	hotel, err := s.hotelRepo.GetByID(hotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get hotel: %w", err)
	}
	if hotel == nil {
		return nil, models.ErrHotelNotFound
	}

	catalog, err := s.hotelRepo.GetRoomsByHotelID(hotelID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(catalog))
	for _, room := range catalog {
		known[room.RoomNumber] = struct{}{}
	}

	if err := s.access.Authorize(req.TripID, userID, isAdmin); err != nil {
		return nil, err
	}

	token := uuid.New()
	if req.HoldToken != nil {
		token = *req.HoldToken
	}
	expiresAt := time.Now().Add(s.config.TTL)

	tx, err := s.ledger.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.ledger.ReapExpired(tx, hotelID); err != nil {
		return nil, err
	}

	var wanted []string
	rejected := make([]models.RoomRejection, 0)

	if len(req.RoomNumbers) > 0 {
		for _, room := range dedupe(req.RoomNumbers) {
			if _, ok := known[room]; !ok {
				rejected = append(rejected, models.RoomRejection{
					RoomNumber: room,
					Reason:     models.RejectionReasonNotFound,
				})
				continue
			}
			wanted = append(wanted, room)
		}
	} else {
		claims, err := s.ledger.ActiveClaims(tx, hotelID, key)
		if err != nil {
			return nil, err
		}
		busy := make(map[string]struct{}, len(claims))
		for _, c := range claims {
			busy[c.UnitNumber] = struct{}{}
		}
		free := make([]string, 0, len(catalog))
		for _, room := range catalog {
			if _, taken := busy[room.RoomNumber]; !taken {
				free = append(free, room.RoomNumber)
			}
		}
		if len(free) < req.RoomsNeeded {
			return nil, models.ErrNotEnoughRooms
		}
		wanted = pickRooms(free, req.RoomsNeeded)
	}

	held := make([]string, 0, len(wanted))
	for _, room := range wanted {
		outcome, err := s.ledger.Claim(tx, hotelID, room, key, token, userID, req.TripID, expiresAt)
		if err != nil {
			return nil, err
		}
		if outcome.Granted {
			held = append(held, room)
		} else {
			rejected = append(rejected, models.RoomRejection{
				RoomNumber: room,
				Reason:     outcome.Reason,
			})
		}
	}

	// Auto-assign is all-or-nothing: a concurrent claim can steal a picked
	// room between the free-room scan and the claim, so a shortfall rolls
	// back the partial holds instead of reporting success.
	if len(req.RoomNumbers) == 0 && len(held) < req.RoomsNeeded {
		return nil, models.ErrNotEnoughRooms
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit room holds: %w", err)
	}

	if len(held) == 0 {
		return nil, &models.RoomConflictError{RejectedRooms: rejected}
	}

	s.logger.WithFields(logrus.Fields{
		"hotel_id":   hotelID,
		"check_in":   req.CheckIn,
		"check_out":  req.CheckOut,
		"trip_id":    req.TripID,
		"held":       len(held),
		"rejected":   len(rejected),
		"expires_at": expiresAt,
	}).Info("Room hold created")

	return &models.HoldRoomsResponse{
		HoldToken:     token,
		ExpiresAt:     expiresAt,
		HeldRooms:     held,
		RejectedRooms: rejected,
	}, nil
}

// ConfirmRooms converts held rooms into booking-linked claims stay by stay.
// All stays are attempted and the transaction commits whatever confirmed; any
// conflict surfaces as a RoomConfirmError wrapping the full response.
func (s *RoomReservationService) ConfirmRooms(
	userID uuid.UUID,
	isAdmin bool,
	hotelID uuid.UUID,
	req *models.ConfirmRoomsRequest,
) (*models.ConfirmRoomsResponse, error) {
	type parsedStay struct {
		key   database.RangeKey
		raw   models.RoomStay
		rooms []string
	}
	stays := make([]parsedStay, 0, len(req.Stays))
	for _, stay := range req.Stays {
		key, err := parseStay(stay.CheckIn, stay.CheckOut)
		if err != nil {
			return nil, err
		}
		stays = append(stays, parsedStay{key: key, raw: stay, rooms: dedupe(stay.RoomNumbers)})
	}

	if err := s.access.Authorize(req.TripID, userID, isAdmin); err != nil {
		return nil, err
	}

	tx, err := s.ledger.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.ledger.ReapExpired(tx, hotelID); err != nil {
		return nil, err
	}

	resp := &models.ConfirmRoomsResponse{
		ConfirmedRooms: make([]models.ConfirmedRoom, 0),
		Conflicts:      make([]models.RoomConflict, 0),
	}

	for _, stay := range stays {
		for _, room := range stay.rooms {
			outcome, err := s.ledger.Confirm(tx, hotelID, room, stay.key, req.HoldToken, userID, req.BookingID, req.PaymentID)
			if err != nil {
				return nil, err
			}
			if outcome.Confirmed {
				resp.ConfirmedRooms = append(resp.ConfirmedRooms, models.ConfirmedRoom{
					CheckIn:    stay.raw.CheckIn,
					CheckOut:   stay.raw.CheckOut,
					RoomNumber: room,
				})
			} else {
				resp.Conflicts = append(resp.Conflicts, models.RoomConflict{
					CheckIn:    stay.raw.CheckIn,
					CheckOut:   stay.raw.CheckOut,
					RoomNumber: room,
					Reason:     outcome.Reason,
				})
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit room confirmation: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"hotel_id":  hotelID,
		"trip_id":   req.TripID,
		"confirmed": len(resp.ConfirmedRooms),
		"conflicts": len(resp.Conflicts),
	}).Info("Room confirmation processed")

	if len(resp.Conflicts) > 0 {
		return resp, &models.RoomConfirmError{Response: resp}
	}
	return resp, nil
}

// ReleaseRooms releases held rooms under the token, optionally narrowed to a
// room subset. Only the hold's owner or an admin may release; a token with no
// live holds releases nothing and returns zero.
func (s *RoomReservationService) ReleaseRooms(
	userID uuid.UUID,
	isAdmin bool,
	hotelID uuid.UUID,
	req *models.ReleaseRoomsRequest,
) (int, error) {
	owner, err := s.ledger.HoldOwner(hotelID, req.HoldToken)
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

	if _, err := s.ledger.ReapExpired(tx, hotelID); err != nil {
		return 0, err
	}

	released, err := s.ledger.Release(tx, database.ReleaseFilter{
		ResourceID: hotelID,
		HoldToken:  req.HoldToken,
		Units:      req.RoomNumbers,
	})
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit room release: %w", err)
	}

	if released > 0 {
		s.logger.WithFields(logrus.Fields{
			"hotel_id": hotelID,
			"released": released,
		}).Info("Room holds released")
	}
	return released, nil
}

// RoomAvailability classifies every room of the hotel for the requested stay.
// A room is held or booked when any active claim overlaps the interval.
func (s *RoomReservationService) RoomAvailability(
	hotelID uuid.UUID,
	checkIn, checkOut string,
	viewerID uuid.UUID,
	knownToken *uuid.UUID,
) ([]models.RoomAvailabilityEntry, error) {
	key, err := parseStay(checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	hotel, err := s.hotelRepo.GetByID(hotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get hotel: %w", err)
	}
	if hotel == nil {
		return nil, models.ErrHotelNotFound
	}

	catalog, err := s.hotelRepo.GetRoomsByHotelID(hotelID)
	if err != nil {
		return nil, err
	}

	tx, err := s.ledger.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.ledger.ReapExpired(tx, hotelID); err != nil {
		return nil, err
	}

	claims, err := s.ledger.ActiveClaims(tx, hotelID, key)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit availability read: %w", err)
	}

	claimByRoom := make(map[string]database.Claim, len(claims))
	for _, c := range claims {
		// Booked claims win over held when a room has both kinds of overlap.
		if prev, ok := claimByRoom[c.UnitNumber]; ok && prev.Status == models.ReservationStatusBooked {
			continue
		}
		claimByRoom[c.UnitNumber] = c
	}

	entries := make([]models.RoomAvailabilityEntry, 0, len(catalog))
	for _, room := range catalog {
		entry := models.RoomAvailabilityEntry{
			RoomNumber: room.RoomNumber,
			Floor:      room.Floor,
			Sleeps:     room.Sleeps,
			Status:     models.UnitStateAvailable,
		}
		if c, ok := claimByRoom[room.RoomNumber]; ok {
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

// ExtendRoomHold extends a live hold's lifetime on behalf of the payment
// flow, optionally attaching the payment.
func (s *RoomReservationService) ExtendRoomHold(
	hotelID uuid.UUID,
	req *models.ExtendHoldRequest,
) (*models.ExtendHoldResponse, error) {
	expiresAt := time.Now().Add(s.config.PaymentExtension)

	renewed, err := s.ledger.Renew(hotelID, req.HoldToken, expiresAt, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if renewed == 0 {
		return nil, models.ErrHoldNotFound
	}

	s.logger.WithFields(logrus.Fields{
		"hotel_id":   hotelID,
		"renewed":    renewed,
		"expires_at": expiresAt,
	}).Info("Room hold extended")

	return &models.ExtendHoldResponse{HoldToken: req.HoldToken, ExpiresAt: expiresAt}, nil
}
