package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/tripmesh/reservation-backend/internal/database"
)

// HoldSweeperService periodically demotes lapsed holds across both ledgers.
// This is operational hygiene only: correctness is owned by the in-transaction
// reap that runs at the start of every ledger-touching operation, so a missed
// or delayed sweep never lets an expired hold block a unit.
type HoldSweeperService struct {
	seatLedger *database.Ledger
	roomLedger *database.Ledger
	cron       *cron.Cron
	interval   time.Duration
	logger     *logrus.Logger
}

// NewHoldSweeperService creates a new HoldSweeperService
func NewHoldSweeperService(
	seatLedger *database.Ledger,
	roomLedger *database.Ledger,
	interval time.Duration,
	logger *logrus.Logger,
) *HoldSweeperService {
	return &HoldSweeperService{
		seatLedger: seatLedger,
		roomLedger: roomLedger,
		cron:       cron.New(),
		interval:   interval,
		logger:     logger,
	}
}

// Start schedules the periodic sweep and runs one immediately
func (s *HoldSweeperService) Start() error {
	s.Sweep()

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.Sweep)
	if err != nil {
		return fmt.Errorf("failed to schedule hold sweep: %w", err)
	}
	s.cron.Start()

	s.logger.WithField("interval", s.interval.String()).Info("Hold sweeper started")
	return nil
}

// Stop stops the sweeper, waiting for a running sweep to finish
func (s *HoldSweeperService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Hold sweeper stopped")
}

// Sweep demotes every lapsed hold in both ledgers to expired
func (s *HoldSweeperService) Sweep() {
	seats, err := s.seatLedger.ReapAllExpired()
	if err != nil {
		s.logger.WithError(err).Error("Failed to sweep expired seat holds")
	}
	rooms, err := s.roomLedger.ReapAllExpired()
	if err != nil {
		s.logger.WithError(err).Error("Failed to sweep expired room holds")
	}

	if seats > 0 || rooms > 0 {
		s.logger.WithFields(logrus.Fields{
			"seat_holds": seats,
			"room_holds": rooms,
		}).Info("Expired holds swept")
	}
}
