package services

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tripmesh/reservation-backend/internal/config"
	"github.com/tripmesh/reservation-backend/internal/database"
	"github.com/tripmesh/reservation-backend/internal/models"
)

func testHoldConfig() config.HoldConfig {
	return config.HoldConfig{
		TTL:              10 * time.Minute,
		PaymentExtension: 15 * time.Minute,
		SweepInterval:    time.Minute,
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newSeatServiceStack(t *testing.T) (*SeatReservationService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	ledger := database.NewSeatLedger(sqlxDB)
	busRepo := database.NewBusRepository(sqlxDB)
	access := NewTripAccessService(database.NewTripRepository(sqlxDB))

	svc := NewSeatReservationService(ledger, busRepo, access, testHoldConfig(), quietLogger())
	return svc, mock, func() { db.Close() }
}

func busRows(busID uuid.UUID, seatCount int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "name", "seat_count", "status", "created_at", "updated_at"}).
		AddRow(busID, "Coastal Express", seatCount, "active", now, now)
}

func tripRows(tripID, userID uuid.UUID, status models.TripStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "user_id", "title", "status", "created_at", "updated_at"}).
		AddRow(tripID, userID, "Summer trip", string(status), now, now)
}

func seatClaimColumns() []string {
	return []string{
		"id", "unit_number", "status", "hold_token", "hold_expires_at",
		"user_id", "trip_id", "payment_id", "booking_id",
	}
}

func TestHoldSeats(t *testing.T) {
	svc, mock, closeFn := newSeatServiceStack(t)
	defer closeFn()

	busID := uuid.New()
	userID := uuid.New()
	tripID := uuid.New()

	t.Run("Partial Success Keeps Free Seats", func(t *testing.T) {
		mock.ExpectQuery(`FROM buses`).
			WillReturnRows(busRows(busID, 40))
		mock.ExpectQuery(`FROM trips`).
			WillReturnRows(tripRows(tripID, userID, models.TripStatusPlanning))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		// Seat 1: free, granted.
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT id, seat_number AS unit_number`).
			WillReturnRows(sqlmock.NewRows(seatClaimColumns()))
		mock.ExpectQuery(`INSERT INTO seat_reservations`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))

		// Seat 2: already booked by someone else.
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT id, seat_number AS unit_number`).
			WillReturnRows(sqlmock.NewRows(seatClaimColumns()).AddRow(
				uuid.New(), "2", "booked", nil, nil,
				uuid.New(), uuid.New(), nil, uuid.New(),
			))

		// Seat 3: free, granted.
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT id, seat_number AS unit_number`).
			WillReturnRows(sqlmock.NewRows(seatClaimColumns()))
		mock.ExpectQuery(`INSERT INTO seat_reservations`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))

		mock.ExpectCommit()

		resp, err := svc.HoldSeats(userID, false, busID, &models.HoldSeatsRequest{
			TripID:      tripID,
			TravelDate:  "2025-12-05",
			SeatNumbers: []string{"1", "2", "3"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "3"}, resp.HeldSeats)
		require.Len(t, resp.RejectedSeats, 1)
		assert.Equal(t, "2", resp.RejectedSeats[0].SeatNumber)
		assert.Equal(t, models.RejectionReasonAlreadyBooked, resp.RejectedSeats[0].Reason)
		assert.NotEqual(t, uuid.Nil, resp.HoldToken)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("All Seats Taken Fails With Conflict", func(t *testing.T) {
		mock.ExpectQuery(`FROM buses`).
			WillReturnRows(busRows(busID, 40))
		mock.ExpectQuery(`FROM trips`).
			WillReturnRows(tripRows(tripID, userID, models.TripStatusPlanning))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT id, seat_number AS unit_number`).
			WillReturnRows(sqlmock.NewRows(seatClaimColumns()).AddRow(
				uuid.New(), "5", "held", uuid.New(), time.Now().Add(5*time.Minute),
				uuid.New(), uuid.New(), nil, nil,
			))

		mock.ExpectCommit()

		resp, err := svc.HoldSeats(userID, false, busID, &models.HoldSeatsRequest{
			TripID:      tripID,
			TravelDate:  "2025-12-05",
			SeatNumbers: []string{"5"},
		})
		assert.Nil(t, resp)

		var conflict *models.SeatConflictError
		require.ErrorAs(t, err, &conflict)
		require.Len(t, conflict.RejectedSeats, 1)
		assert.Equal(t, models.RejectionReasonHeldByOther, conflict.RejectedSeats[0].Reason)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Seat Rejected As Not Found", func(t *testing.T) {
		mock.ExpectQuery(`FROM buses`).
			WillReturnRows(busRows(busID, 40))
		mock.ExpectQuery(`FROM trips`).
			WillReturnRows(tripRows(tripID, userID, models.TripStatusPlanning))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		resp, err := svc.HoldSeats(userID, false, busID, &models.HoldSeatsRequest{
			TripID:      tripID,
			TravelDate:  "2025-12-05",
			SeatNumbers: []string{"99"},
		})
		assert.Nil(t, resp)

		var conflict *models.SeatConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, models.RejectionReasonNotFound, conflict.RejectedSeats[0].Reason)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Invalid Travel Date", func(t *testing.T) {
		_, err := svc.HoldSeats(userID, false, busID, &models.HoldSeatsRequest{
			TripID:      tripID,
			TravelDate:  "05/12/2025",
			SeatNumbers: []string{"1"},
		})

		var vErr *models.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("Bus Not Found", func(t *testing.T) {
		mock.ExpectQuery(`FROM buses`).
			WillReturnError(sql.ErrNoRows)

		_, err := svc.HoldSeats(userID, false, busID, &models.HoldSeatsRequest{
			TripID:      tripID,
			TravelDate:  "2025-12-05",
			SeatNumbers: []string{"1"},
		})
		assert.True(t, errors.Is(err, models.ErrBusNotFound))

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Foreign Trip Forbidden", func(t *testing.T) {
		mock.ExpectQuery(`FROM buses`).
			WillReturnRows(busRows(busID, 40))
		mock.ExpectQuery(`FROM trips`).
			WillReturnRows(tripRows(tripID, uuid.New(), models.TripStatusPlanning))

		_, err := svc.HoldSeats(userID, false, busID, &models.HoldSeatsRequest{
			TripID:      tripID,
			TravelDate:  "2025-12-05",
			SeatNumbers: []string{"1"},
		})
		assert.True(t, errors.Is(err, models.ErrForbidden))

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestConfirmSeats(t *testing.T) {
	svc, mock, closeFn := newSeatServiceStack(t)
	defer closeFn()

	busID := uuid.New()
	userID := uuid.New()
	tripID := uuid.New()
	token := uuid.New()
	bookingID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`FROM trips`).
			WillReturnRows(tripRows(tripID, userID, models.TripStatusPlanning))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectCommit()

		resp, err := svc.ConfirmSeats(userID, false, busID, &models.ConfirmSeatsRequest{
			HoldToken: token,
			TripID:    tripID,
			BookingID: &bookingID,
			Legs: []models.SeatLeg{
				{TravelDate: "2025-12-05", SeatNumbers: []string{"7"}},
			},
		})
		require.NoError(t, err)
		require.Len(t, resp.ConfirmedSeats, 1)
		assert.Equal(t, "7", resp.ConfirmedSeats[0].SeatNumber)
		assert.Empty(t, resp.Conflicts)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Expired Hold Surfaces Hold Expired", func(t *testing.T) {
		mock.ExpectQuery(`FROM trips`).
			WillReturnRows(tripRows(tripID, userID, models.TripStatusPlanning))
		mock.ExpectBegin()
		// The reap demotes the lapsed hold before the confirm sees it.
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT id, seat_number AS unit_number`).
			WillReturnRows(sqlmock.NewRows(seatClaimColumns()).AddRow(
				uuid.New(), "7", "expired", token, time.Now().Add(-time.Minute),
				userID, tripID, nil, nil,
			))

		mock.ExpectCommit()

		resp, err := svc.ConfirmSeats(userID, false, busID, &models.ConfirmSeatsRequest{
			HoldToken: token,
			TripID:    tripID,
			BookingID: &bookingID,
			Legs: []models.SeatLeg{
				{TravelDate: "2025-12-05", SeatNumbers: []string{"7"}},
			},
		})

		var confirmErr *models.SeatConfirmError
		require.ErrorAs(t, err, &confirmErr)
		require.NotNil(t, resp)
		assert.Empty(t, resp.ConfirmedSeats)
		require.Len(t, resp.Conflicts, 1)
		assert.Equal(t, models.ConflictReasonHoldExpired, resp.Conflicts[0].Reason)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Mixed Legs Commit Confirmed Subset", func(t *testing.T) {
		mock.ExpectQuery(`FROM trips`).
			WillReturnRows(tripRows(tripID, userID, models.TripStatusPlanning))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		// Seat 7 confirms.
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		// Seat 8 is held under someone else's token.
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT id, seat_number AS unit_number`).
			WillReturnRows(sqlmock.NewRows(seatClaimColumns()).AddRow(
				uuid.New(), "8", "held", uuid.New(), time.Now().Add(5*time.Minute),
				uuid.New(), tripID, nil, nil,
			))

		mock.ExpectCommit()

		resp, err := svc.ConfirmSeats(userID, false, busID, &models.ConfirmSeatsRequest{
			HoldToken: token,
			TripID:    tripID,
			BookingID: &bookingID,
			Legs: []models.SeatLeg{
				{TravelDate: "2025-12-05", SeatNumbers: []string{"7", "8"}},
			},
		})

		var confirmErr *models.SeatConfirmError
		require.ErrorAs(t, err, &confirmErr)
		require.Len(t, resp.ConfirmedSeats, 1)
		assert.Equal(t, "7", resp.ConfirmedSeats[0].SeatNumber)
		require.Len(t, resp.Conflicts, 1)
		assert.Equal(t, "8", resp.Conflicts[0].SeatNumber)
		assert.Equal(t, models.ConflictReasonHoldMismatch, resp.Conflicts[0].Reason)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReleaseSeats(t *testing.T) {
	svc, mock, closeFn := newSeatServiceStack(t)
	defer closeFn()

	busID := uuid.New()
	userID := uuid.New()
	token := uuid.New()

	t.Run("Unknown Token Releases Zero", func(t *testing.T) {
		mock.ExpectQuery(`SELECT user_id FROM seat_reservations`).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		released, err := svc.ReleaseSeats(userID, false, busID, &models.ReleaseSeatsRequest{
			HoldToken: token,
		})
		require.NoError(t, err)
		assert.Equal(t, 0, released)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Owner Releases Holds", func(t *testing.T) {
		mock.ExpectQuery(`SELECT user_id FROM seat_reservations`).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(userID))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		released, err := svc.ReleaseSeats(userID, false, busID, &models.ReleaseSeatsRequest{
			HoldToken: token,
		})
		require.NoError(t, err)
		assert.Equal(t, 2, released)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Non Owner Forbidden", func(t *testing.T) {
		mock.ExpectQuery(`SELECT user_id FROM seat_reservations`).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(uuid.New()))

		_, err := svc.ReleaseSeats(userID, false, busID, &models.ReleaseSeatsRequest{
			HoldToken: token,
		})
		assert.True(t, errors.Is(err, models.ErrForbidden))

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Admin Releases Foreign Hold", func(t *testing.T) {
		mock.ExpectQuery(`SELECT user_id FROM seat_reservations`).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(uuid.New()))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		released, err := svc.ReleaseSeats(userID, true, busID, &models.ReleaseSeatsRequest{
			HoldToken: token,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, released)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSeatMap(t *testing.T) {
	svc, mock, closeFn := newSeatServiceStack(t)
	defer closeFn()

	busID := uuid.New()
	viewerID := uuid.New()
	viewerToken := uuid.New()

	mock.ExpectQuery(`FROM buses`).
		WillReturnRows(busRows(busID, 4))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE seat_reservations`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT id, seat_number AS unit_number`).
		WillReturnRows(sqlmock.NewRows(seatClaimColumns()).
			AddRow(uuid.New(), "1", "booked", nil, nil, uuid.New(), uuid.New(), nil, uuid.New()).
			AddRow(uuid.New(), "2", "held", viewerToken, time.Now().Add(5*time.Minute), viewerID, uuid.New(), nil, nil).
			AddRow(uuid.New(), "3", "held", uuid.New(), time.Now().Add(5*time.Minute), uuid.New(), uuid.New(), nil, nil))
	mock.ExpectCommit()

	entries, err := svc.SeatMap(busID, "2025-12-05", viewerID, nil)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, models.UnitStateBooked, entries[0].Status)
	assert.Equal(t, models.UnitStateHeld, entries[1].Status)
	assert.True(t, entries[1].IsOwnHold)
	assert.Equal(t, models.UnitStateHeld, entries[2].Status)
	assert.False(t, entries[2].IsOwnHold)
	assert.Equal(t, models.UnitStateAvailable, entries[3].Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExtendSeatHold(t *testing.T) {
	svc, mock, closeFn := newSeatServiceStack(t)
	defer closeFn()

	busID := uuid.New()
	token := uuid.New()

	t.Run("Extends Live Hold", func(t *testing.T) {
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 2))

		resp, err := svc.ExtendSeatHold(busID, &models.ExtendHoldRequest{HoldToken: token})
		require.NoError(t, err)
		assert.Equal(t, token, resp.HoldToken)
		assert.True(t, resp.ExpiresAt.After(time.Now()))

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Live Hold", func(t *testing.T) {
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := svc.ExtendSeatHold(busID, &models.ExtendHoldRequest{HoldToken: token})
		assert.True(t, errors.Is(err, models.ErrHoldNotFound))

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSeatNumberCanonicalization(t *testing.T) {
	svc, mock, closeFn := newSeatServiceStack(t)
	defer closeFn()

	busID := uuid.New()
	userID := uuid.New()
	tripID := uuid.New()

	t.Run("Alternate Spellings Share One Canonical Form", func(t *testing.T) {
		assert.Equal(t, "7", canonicalSeat("7"))
		assert.Equal(t, "7", canonicalSeat("07"))
		assert.Equal(t, "7", canonicalSeat("+7"))
		assert.Equal(t, "12", canonicalSeat("012"))
		assert.Equal(t, "7A", canonicalSeat("7A"))
		assert.Equal(t, "-3", canonicalSeat("-3"))
	})

	t.Run("Duplicate Spellings Collapse To One Seat", func(t *testing.T) {
		assert.Equal(t, []string{"7", "8"}, canonicalSeats([]string{"7", "07", "+7", "8"}))
	})

	t.Run("Only Canonical Spellings Are Valid", func(t *testing.T) {
		bus := &models.Bus{SeatCount: 40}
		assert.True(t, validSeatNumber(bus, "7"))
		assert.False(t, validSeatNumber(bus, "07"))
		assert.False(t, validSeatNumber(bus, "0"))
		assert.False(t, validSeatNumber(bus, "41"))
	})

	t.Run("Padded Spelling Claims The Canonical Ledger Key", func(t *testing.T) {
		mock.ExpectQuery(`FROM buses`).
			WillReturnRows(busRows(busID, 40))
		mock.ExpectQuery(`FROM trips`).
			WillReturnRows(tripRows(tripID, userID, models.TripStatusPlanning))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		// "07" and "7" address the same physical seat, so the lock key,
		// the conflict read, and the insert must all use "7".
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WithArgs(fmt.Sprintf("seat_reservations/%s/7", busID)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT id, seat_number AS unit_number`).
			WithArgs(busID, "7", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(seatClaimColumns()))
		mock.ExpectQuery(`INSERT INTO seat_reservations`).
			WithArgs(
				sqlmock.AnyArg(), busID, "7", sqlmock.AnyArg(),
				sqlmock.AnyArg(), sqlmock.AnyArg(), userID, tripID,
			).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
		mock.ExpectCommit()

		resp, err := svc.HoldSeats(userID, false, busID, &models.HoldSeatsRequest{
			TripID:      tripID,
			TravelDate:  "2025-12-05",
			SeatNumbers: []string{"07"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"7"}, resp.HeldSeats)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Padded Spelling Cannot Bypass Another Users Hold", func(t *testing.T) {
		mock.ExpectQuery(`FROM buses`).
			WillReturnRows(busRows(busID, 40))
		mock.ExpectQuery(`FROM trips`).
			WillReturnRows(tripRows(tripID, userID, models.TripStatusPlanning))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WithArgs(fmt.Sprintf("seat_reservations/%s/7", busID)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT id, seat_number AS unit_number`).
			WithArgs(busID, "7", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(seatClaimColumns()).AddRow(
				uuid.New(), "7", "held", uuid.New(), time.Now().Add(5*time.Minute),
				uuid.New(), uuid.New(), nil, nil,
			))
		mock.ExpectCommit()

		resp, err := svc.HoldSeats(userID, false, busID, &models.HoldSeatsRequest{
			TripID:      tripID,
			TravelDate:  "2025-12-05",
			SeatNumbers: []string{"07"},
		})
		assert.Nil(t, resp)

		var conflict *models.SeatConflictError
		require.ErrorAs(t, err, &conflict)
		require.Len(t, conflict.RejectedSeats, 1)
		assert.Equal(t, "7", conflict.RejectedSeats[0].SeatNumber)
		assert.Equal(t, models.RejectionReasonHeldByOther, conflict.RejectedSeats[0].Reason)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Mixed Spellings In One Request Claim Once", func(t *testing.T) {
		mock.ExpectQuery(`FROM buses`).
			WillReturnRows(busRows(busID, 40))
		mock.ExpectQuery(`FROM trips`).
			WillReturnRows(tripRows(tripID, userID, models.TripStatusPlanning))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		// One claim sequence only: "7" and "07" collapse before the loop.
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT id, seat_number AS unit_number`).
			WillReturnRows(sqlmock.NewRows(seatClaimColumns()))
		mock.ExpectQuery(`INSERT INTO seat_reservations`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
		mock.ExpectCommit()

		resp, err := svc.HoldSeats(userID, false, busID, &models.HoldSeatsRequest{
			TripID:      tripID,
			TravelDate:  "2025-12-05",
			SeatNumbers: []string{"7", "07"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"7"}, resp.HeldSeats)
		assert.Empty(t, resp.RejectedSeats)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
