package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/tripmesh/reservation-backend/internal/models"
)

// ValidityKey is the temporal scope a claim applies to: a single travel date
// for seats, a half-open [check_in, check_out) interval for rooms. The two
// implementations differ only in how a conflicting row is matched.
type ValidityKey interface {
	// columnValues returns the values stored in the ledger's validity columns,
	// in ledgerSpec.validityCols order.
	columnValues() []interface{}
	// overlapArgs returns the bind arguments for ledgerSpec.overlapExpr.
	overlapArgs() []interface{}
}

// DateKey scopes a claim to one travel date. Two claims conflict iff the dates are equal.
type DateKey struct {
	Date time.Time
}

func (k DateKey) columnValues() []interface{} { return []interface{}{k.Date} }
func (k DateKey) overlapArgs() []interface{}  { return []interface{}{k.Date} }

// RangeKey scopes a claim to a half-open stay interval. Two claims conflict iff
// existing.check_in < new.check_out AND existing.check_out > new.check_in.
type RangeKey struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func (k RangeKey) columnValues() []interface{} { return []interface{}{k.CheckIn, k.CheckOut} }
func (k RangeKey) overlapArgs() []interface{}  { return []interface{}{k.CheckOut, k.CheckIn} }

// ledgerSpec parameterizes the generic ledger over one reservation table
type ledgerSpec struct {
	table        string
	resourceCol  string
	unitCol      string
	validityCols []string
	// overlapExpr matches rows whose validity key conflicts with the bind
	// arguments produced by ValidityKey.overlapArgs, using ? placeholders.
	overlapExpr string
}

var seatLedgerSpec = ledgerSpec{
	table:        "seat_reservations",
	resourceCol:  "bus_id",
	unitCol:      "seat_number",
	validityCols: []string{"travel_date"},
	overlapExpr:  "travel_date = ?",
}

var roomLedgerSpec = ledgerSpec{
	table:        "room_reservations",
	resourceCol:  "hotel_id",
	unitCol:      "room_number",
	validityCols: []string{"check_in", "check_out"},
	overlapExpr:  "check_in < ? AND check_out > ?",
}

// Claim is a ledger row projected into key-agnostic form
type Claim struct {
	ID            uuid.UUID                `db:"id"`
	UnitNumber    string                   `db:"unit_number"`
	Status        models.ReservationStatus `db:"status"`
	HoldToken     *uuid.UUID               `db:"hold_token"`
	HoldExpiresAt *time.Time               `db:"hold_expires_at"`
	UserID        uuid.UUID                `db:"user_id"`
	TripID        uuid.UUID                `db:"trip_id"`
	PaymentID     *uuid.UUID               `db:"payment_id"`
	BookingID     *uuid.UUID               `db:"booking_id"`
}

// ClaimOutcome reports whether a claim was granted and, if not, why
type ClaimOutcome struct {
	Granted bool
	Reason  models.RejectionReason
}

// ConfirmOutcome reports whether a confirmation succeeded and, if not, why
type ConfirmOutcome struct {
	Confirmed bool
	Reason    models.ConflictReason
}

// ReleaseFilter selects the held rows a release applies to. ResourceID and
// HoldToken are required; Units and Key optionally narrow the set further.
type ReleaseFilter struct {
	ResourceID uuid.UUID
	HoldToken  uuid.UUID
	Units      []string
	Key        ValidityKey
}

// Ledger is the single source of truth mapping (resource, unit, validity key)
// to the current claim state. At most one held or booked claim may exist per
// key (or per overlapping interval for rooms); every mutation below preserves
// that invariant inside the caller's transaction.
type Ledger struct {
	db   *sqlx.DB
	spec ledgerSpec
}

// NewSeatLedger creates a Ledger over the seat reservation table
func NewSeatLedger(db *sqlx.DB) *Ledger {
	return &Ledger{db: db, spec: seatLedgerSpec}
}

// NewRoomLedger creates a Ledger over the room reservation table
func NewRoomLedger(db *sqlx.DB) *Ledger {
	return &Ledger{db: db, spec: roomLedgerSpec}
}

// Begin starts a transaction for a multi-unit hold/confirm/release operation
func (l *Ledger) Begin() (*sqlx.Tx, error) {
	return l.db.Beginx()
}

func (l *Ledger) claimColumns() string {
	return fmt.Sprintf(
		"id, %s AS unit_number, status, hold_token, hold_expires_at, user_id, trip_id, payment_id, booking_id",
		l.spec.unitCol,
	)
}

// ReapExpired demotes every held row in the resource's scope whose hold has
// lapsed to 'expired'. It must run at the start of any transaction that reads
// or mutates availability, so a logically expired hold is never observed as
// occupying a unit.
func (l *Ledger) ReapExpired(tx *sqlx.Tx, resourceID uuid.UUID) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = 'expired', updated_at = NOW()
		WHERE %s = $1 AND status = 'held' AND hold_expires_at < NOW()`,
		l.spec.table, l.spec.resourceCol)

	result, err := tx.Exec(query, resourceID)
	if err != nil {
		return 0, fmt.Errorf("failed to reap expired holds: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

// ReapAllExpired demotes lapsed holds across every resource. Used by the
// periodic sweeper for hygiene; correctness is owned by ReapExpired at
// read/write time.
func (l *Ledger) ReapAllExpired() (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'held' AND hold_expires_at < NOW()`, l.spec.table)

	result, err := l.db.Exec(query)
	if err != nil {
		return 0, fmt.Errorf("failed to reap expired holds: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

// lockUnit serializes claim transactions per (resource, unit) for the duration
// of the transaction. Interval keys cannot be guarded by a uniqueness
// constraint, so without this two transactions could both observe "no overlap"
// and race to insert conflicting stays.
func (l *Ledger) lockUnit(tx *sqlx.Tx, resourceID uuid.UUID, unit string) error {
	lockKey := fmt.Sprintf("%s/%s/%s", l.spec.table, resourceID, unit)
	if _, err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
		return fmt.Errorf("failed to lock unit %s: %w", unit, err)
	}
	return nil
}

// activeRow returns the held or booked row conflicting with the key, locked
// for update, or nil when the unit is free. Booked rows win when an
// inconsistent store ever yields more than one match.
func (l *Ledger) activeRow(tx *sqlx.Tx, resourceID uuid.UUID, unit string, key ValidityKey) (*Claim, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = ? AND %s = ? AND status IN ('held', 'booked') AND (%s)
		FOR UPDATE`,
		l.claimColumns(), l.spec.table, l.spec.resourceCol, l.spec.unitCol, l.spec.overlapExpr)

	args := append([]interface{}{resourceID, unit}, key.overlapArgs()...)

	var claims []Claim
	if err := tx.Select(&claims, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to read active claims: %w", err)
	}
	if len(claims) == 0 {
		return nil, nil
	}
	for i := range claims {
		if claims[i].Status == models.ReservationStatusBooked {
			return &claims[i], nil
		}
	}
	return &claims[0], nil
}

// latestRow returns the most recently updated row conflicting with the key
// regardless of status, locked for update. Used to classify confirm failures.
func (l *Ledger) latestRow(tx *sqlx.Tx, resourceID uuid.UUID, unit string, key ValidityKey) (*Claim, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = ? AND %s = ? AND (%s)
		ORDER BY updated_at DESC
		LIMIT 1
		FOR UPDATE`,
		l.claimColumns(), l.spec.table, l.spec.resourceCol, l.spec.unitCol, l.spec.overlapExpr)

	args := append([]interface{}{resourceID, unit}, key.overlapArgs()...)

	var claim Claim
	err := tx.Get(&claim, tx.Rebind(query), args...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read claim row: %w", err)
	}
	return &claim, nil
}

// Claim attempts to hold one unit for the given validity key. A live hold by
// the same token and user is re-claimed idempotently, extending its expiry.
// Terminal rows on the exact key are reused in place; the composite uniqueness
// constraint rejects the losing insert if two claims race past the lock.
func (l *Ledger) Claim(
	tx *sqlx.Tx,
	resourceID uuid.UUID,
	unit string,
	key ValidityKey,
	token uuid.UUID,
	userID, tripID uuid.UUID,
	expiresAt time.Time,
) (ClaimOutcome, error) {
	if err := l.lockUnit(tx, resourceID, unit); err != nil {
		return ClaimOutcome{}, err
	}

	existing, err := l.activeRow(tx, resourceID, unit, key)
	if err != nil {
		return ClaimOutcome{}, err
	}

	if existing != nil {
		switch {
		case existing.Status == models.ReservationStatusBooked:
			return ClaimOutcome{Reason: models.RejectionReasonAlreadyBooked}, nil
		case existing.HoldToken != nil && *existing.HoldToken == token && existing.UserID == userID:
			// Idempotent retry by the holder: extend the hold in place.
			query := fmt.Sprintf(`
				UPDATE %s SET hold_expires_at = $1, trip_id = $2, updated_at = NOW()
				WHERE id = $3`, l.spec.table)
			if _, err := tx.Exec(query, expiresAt, tripID, existing.ID); err != nil {
				return ClaimOutcome{}, fmt.Errorf("failed to extend hold: %w", err)
			}
			return ClaimOutcome{Granted: true}, nil
		case existing.HoldExpiresAt != nil && !existing.HoldExpiresAt.After(time.Now()):
			// Lapsed hold not yet reaped; the guarded upsert below takes it over.
		default:
			return ClaimOutcome{Reason: models.RejectionReasonHeldByOther}, nil
		}
	}

	valuePlaceholders := strings.TrimSuffix(strings.Repeat("?, ", len(l.spec.validityCols)), ", ")
	conflictTarget := strings.Join(
		append([]string{l.spec.resourceCol, l.spec.unitCol}, l.spec.validityCols...), ", ")

	query := fmt.Sprintf(`
		INSERT INTO %[1]s (id, %[2]s, %[3]s, %[4]s, status, hold_token, hold_expires_at, user_id, trip_id, created_at, updated_at)
		VALUES (?, ?, ?, %[5]s, 'held', ?, ?, ?, ?, NOW(), NOW())
		ON CONFLICT (%[6]s) DO UPDATE SET
			status = 'held',
			hold_token = EXCLUDED.hold_token,
			hold_expires_at = EXCLUDED.hold_expires_at,
			user_id = EXCLUDED.user_id,
			trip_id = EXCLUDED.trip_id,
			payment_id = NULL,
			booking_id = NULL,
			updated_at = NOW()
		WHERE %[1]s.status IN ('released', 'expired')
		   OR (%[1]s.status = 'held' AND %[1]s.hold_expires_at < NOW())
		RETURNING id`,
		l.spec.table,
		l.spec.resourceCol,
		l.spec.unitCol,
		strings.Join(l.spec.validityCols, ", "),
		valuePlaceholders,
		conflictTarget,
	)

	args := append([]interface{}{uuid.New(), resourceID, unit}, key.columnValues()...)
	args = append(args, token, expiresAt, userID, tripID)

	var claimID uuid.UUID
	err = tx.Get(&claimID, tx.Rebind(query), args...)
	if err == sql.ErrNoRows {
		// Lost the race despite the lock: the exact-key row is active.
		loser, lerr := l.activeRow(tx, resourceID, unit, key)
		if lerr != nil {
			return ClaimOutcome{}, lerr
		}
		if loser != nil && loser.Status == models.ReservationStatusBooked {
			return ClaimOutcome{Reason: models.RejectionReasonAlreadyBooked}, nil
		}
		return ClaimOutcome{Reason: models.RejectionReasonHeldByOther}, nil
	}
	if err != nil {
		return ClaimOutcome{}, fmt.Errorf("failed to claim unit %s: %w", unit, err)
	}

	return ClaimOutcome{Granted: true}, nil
}

// Confirm transitions a held claim to booked. The transition requires the
// token, owner, and a live (non-expired) hold all to match; failures are
// classified so the caller can report per-unit conflicts.
func (l *Ledger) Confirm(
	tx *sqlx.Tx,
	resourceID uuid.UUID,
	unit string,
	key ValidityKey,
	token, userID uuid.UUID,
	bookingID, paymentID *uuid.UUID,
) (ConfirmOutcome, error) {
	if err := l.lockUnit(tx, resourceID, unit); err != nil {
		return ConfirmOutcome{}, err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET status = 'booked',
		    booking_id = ?,
		    payment_id = COALESCE(?, payment_id),
		    updated_at = NOW()
		WHERE %s = ? AND %s = ? AND (%s)
		  AND status = 'held'
		  AND hold_token = ?
		  AND user_id = ?
		  AND hold_expires_at > NOW()`,
		l.spec.table, l.spec.resourceCol, l.spec.unitCol, l.spec.overlapExpr)

	args := append([]interface{}{bookingID, paymentID, resourceID, unit}, key.overlapArgs()...)
	args = append(args, token, userID)

	result, err := tx.Exec(tx.Rebind(query), args...)
	if err != nil {
		return ConfirmOutcome{}, fmt.Errorf("failed to confirm unit %s: %w", unit, err)
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		return ConfirmOutcome{Confirmed: true}, nil
	}

	row, err := l.latestRow(tx, resourceID, unit, key)
	if err != nil {
		return ConfirmOutcome{}, err
	}

	sameHolder := func(c *Claim) bool {
		return c.HoldToken != nil && *c.HoldToken == token && c.UserID == userID
	}

	switch {
	case row == nil:
		return ConfirmOutcome{Reason: models.ConflictReasonNotHeld}, nil
	case row.Status == models.ReservationStatusBooked && sameHolder(row):
		// Re-confirming an already booked claim is a no-op success.
		return ConfirmOutcome{Confirmed: true}, nil
	case row.Status == models.ReservationStatusBooked:
		return ConfirmOutcome{Reason: models.ConflictReasonHoldMismatch}, nil
	case row.Status == models.ReservationStatusExpired && sameHolder(row):
		return ConfirmOutcome{Reason: models.ConflictReasonHoldExpired}, nil
	case row.Status == models.ReservationStatusHeld && sameHolder(row):
		// Token and owner match but the expiry guard failed.
		return ConfirmOutcome{Reason: models.ConflictReasonHoldExpired}, nil
	case row.Status == models.ReservationStatusHeld:
		return ConfirmOutcome{Reason: models.ConflictReasonHoldMismatch}, nil
	default:
		return ConfirmOutcome{Reason: models.ConflictReasonNotHeld}, nil
	}
}

// Renew extends every live hold owned by the token within the resource's
// scope, optionally attaching a payment. Returns the number of rows extended;
// zero means no live hold matched.
func (l *Ledger) Renew(resourceID, token uuid.UUID, newExpiresAt time.Time, paymentID *uuid.UUID) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET hold_expires_at = $1,
		    payment_id = COALESCE($2, payment_id),
		    updated_at = NOW()
		WHERE %s = $3 AND hold_token = $4 AND status = 'held' AND hold_expires_at > NOW()`,
		l.spec.table, l.spec.resourceCol)

	result, err := l.db.Exec(query, newExpiresAt, paymentID, resourceID, token)
	if err != nil {
		return 0, fmt.Errorf("failed to renew hold: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

// Release transitions matching held rows to released, clearing token, expiry,
// and payment linkage. Releasing rows that do not exist or are no longer held
// is a no-op, never an error, so cleanup paths stay simple.
func (l *Ledger) Release(tx *sqlx.Tx, f ReleaseFilter) (int, error) {
	conds := []string{
		fmt.Sprintf("%s = ?", l.spec.resourceCol),
		"status = 'held'",
		"hold_token = ?",
	}
	args := []interface{}{f.ResourceID, f.HoldToken}

	if len(f.Units) > 0 {
		conds = append(conds, fmt.Sprintf("%s IN (?)", l.spec.unitCol))
		args = append(args, f.Units)
	}
	if f.Key != nil {
		conds = append(conds, fmt.Sprintf("(%s)", l.spec.overlapExpr))
		args = append(args, f.Key.overlapArgs()...)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET status = 'released',
		    hold_token = NULL,
		    hold_expires_at = NULL,
		    payment_id = NULL,
		    updated_at = NOW()
		WHERE %s`, l.spec.table, strings.Join(conds, " AND "))

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to build release query: %w", err)
	}

	result, err := tx.Exec(tx.Rebind(query), inArgs...)
	if err != nil {
		return 0, fmt.Errorf("failed to release holds: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

// ActiveClaims returns every held or booked claim conflicting with the key
// across the whole resource, for availability projections. The expiry guard
// repeats the reap condition so a lapsed hold never reads as occupying.
func (l *Ledger) ActiveClaims(tx *sqlx.Tx, resourceID uuid.UUID, key ValidityKey) ([]Claim, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = ? AND (%s)
		  AND (status = 'booked' OR (status = 'held' AND hold_expires_at > NOW()))
		ORDER BY %s`,
		l.claimColumns(), l.spec.table, l.spec.resourceCol, l.spec.overlapExpr, l.spec.unitCol)

	args := append([]interface{}{resourceID}, key.overlapArgs()...)

	var claims []Claim
	if err := tx.Select(&claims, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to read active claims: %w", err)
	}
	return claims, nil
}

// HoldOwner returns the user owning live holds under the token, or nil when
// the token matches nothing. Used to reject releases by non-owners.
func (l *Ledger) HoldOwner(resourceID, token uuid.UUID) (*uuid.UUID, error) {
	query := fmt.Sprintf(`
		SELECT user_id FROM %s
		WHERE %s = $1 AND hold_token = $2 AND status = 'held'
		ORDER BY updated_at DESC
		LIMIT 1`, l.spec.table, l.spec.resourceCol)

	var owner uuid.UUID
	err := l.db.Get(&owner, query, resourceID, token)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up hold owner: %w", err)
	}
	return &owner, nil
}
