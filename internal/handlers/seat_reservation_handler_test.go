package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tripmesh/reservation-backend/internal/config"
	"github.com/tripmesh/reservation-backend/internal/database"
	"github.com/tripmesh/reservation-backend/internal/middleware"
	"github.com/tripmesh/reservation-backend/internal/services"
)

func setupSeatHandlerTest(t *testing.T, user middleware.UserContext) (*gin.Engine, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ledger := database.NewSeatLedger(sqlxDB)
	busRepo := database.NewBusRepository(sqlxDB)
	access := services.NewTripAccessService(database.NewTripRepository(sqlxDB))
	svc := services.NewSeatReservationService(ledger, busRepo, access, config.HoldConfig{
		TTL:              10 * time.Minute,
		PaymentExtension: 15 * time.Minute,
	}, logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.UserContextKey, user)
		c.Next()
	})

	handler := NewSeatReservationHandler(svc, logger)
	v1 := router.Group("/api/v1")
	handler.RegisterRoutes(v1)

	return router, mock, func() { db.Close() }
}

func TestHoldSeatsEndpoint(t *testing.T) {
	userID := uuid.New()
	user := middleware.UserContext{UserID: userID, Roles: []string{"traveler"}}

	t.Run("Created On Success", func(t *testing.T) {
		router, mock, closeFn := setupSeatHandlerTest(t, user)
		defer closeFn()

		busID := uuid.New()
		tripID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`FROM buses`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "seat_count", "status", "created_at", "updated_at"}).
				AddRow(busID, "Coastal Express", 40, "active", now, now))
		mock.ExpectQuery(`FROM trips`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "status", "created_at", "updated_at"}).
				AddRow(tripID, userID, "Summer trip", "planning", now, now))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT id, seat_number AS unit_number`).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "unit_number", "status", "hold_token", "hold_expires_at",
				"user_id", "trip_id", "payment_id", "booking_id",
			}))
		mock.ExpectQuery(`INSERT INTO seat_reservations`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
		mock.ExpectCommit()

		body, _ := json.Marshal(gin.H{
			"trip_id":      tripID,
			"travel_date":  "2025-12-05",
			"seat_numbers": []string{"12"},
		})
		req := httptest.NewRequest("POST", "/api/v1/buses/"+busID.String()+"/holds", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "hold_token")
		assert.Contains(t, w.Body.String(), `"held_seats":["12"]`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found For Unknown Bus", func(t *testing.T) {
		router, mock, closeFn := setupSeatHandlerTest(t, user)
		defer closeFn()

		mock.ExpectQuery(`FROM buses`).
			WillReturnError(sql.ErrNoRows)

		body, _ := json.Marshal(gin.H{
			"trip_id":      uuid.New(),
			"travel_date":  "2025-12-05",
			"seat_numbers": []string{"12"},
		})
		req := httptest.NewRequest("POST", "/api/v1/buses/"+uuid.NewString()+"/holds", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "not_found")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Conflict When Every Seat Is Taken", func(t *testing.T) {
		router, mock, closeFn := setupSeatHandlerTest(t, user)
		defer closeFn()

		busID := uuid.New()
		tripID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`FROM buses`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "seat_count", "status", "created_at", "updated_at"}).
				AddRow(busID, "Coastal Express", 40, "active", now, now))
		mock.ExpectQuery(`FROM trips`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "status", "created_at", "updated_at"}).
				AddRow(tripID, userID, "Summer trip", "planning", now, now))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE seat_reservations`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT id, seat_number AS unit_number`).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "unit_number", "status", "hold_token", "hold_expires_at",
				"user_id", "trip_id", "payment_id", "booking_id",
			}).AddRow(
				uuid.New(), "12", "booked", nil, nil,
				uuid.New(), uuid.New(), nil, uuid.New(),
			))
		mock.ExpectCommit()

		body, _ := json.Marshal(gin.H{
			"trip_id":      tripID,
			"travel_date":  "2025-12-05",
			"seat_numbers": []string{"12"},
		})
		req := httptest.NewRequest("POST", "/api/v1/buses/"+busID.String()+"/holds", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "seats_unavailable")
		assert.Contains(t, w.Body.String(), "already_booked")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Bad Request For Invalid Bus ID", func(t *testing.T) {
		router, _, closeFn := setupSeatHandlerTest(t, user)
		defer closeFn()

		body, _ := json.Marshal(gin.H{
			"trip_id":      uuid.New(),
			"travel_date":  "2025-12-05",
			"seat_numbers": []string{"12"},
		})
		req := httptest.NewRequest("POST", "/api/v1/buses/not-a-uuid/holds", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSeatMapEndpoint(t *testing.T) {
	user := middleware.UserContext{UserID: uuid.New(), Roles: []string{"traveler"}}

	t.Run("Requires Travel Date", func(t *testing.T) {
		router, _, closeFn := setupSeatHandlerTest(t, user)
		defer closeFn()

		req := httptest.NewRequest("GET", "/api/v1/buses/"+uuid.NewString()+"/seat-map", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "travel_date")
	})
}
