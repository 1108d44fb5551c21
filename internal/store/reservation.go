package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/yogabook/internal/database"
	"github.com/dukerupert/yogabook/internal/model"
)

// Notifier is told about committed reservations. Implementations must not block.
type Notifier interface {
	ReservationCreated(sessionID int64, reserved, capacity int)
}

// ReservationStore is the reservation ledger. It owns reservation rows and
// reads users and sessions by id only.
type ReservationStore struct {
	db       *sql.DB
	locks    *keyedMutex
	notifier Notifier
}

func NewReservationStore(db *sql.DB) *ReservationStore {
	return &ReservationStore{db: db, locks: newKeyedMutex()}
}

// SetNotifier registers n to receive reservation events. Call before serving.
func (s *ReservationStore) SetNotifier(n Notifier) {
	s.notifier = n
}

func scanReservation(scanner interface{ Scan(...any) error }) (*model.Reservation, error) {
	var r model.Reservation
	if err := scanner.Scan(&r.ID, &r.SessionID, &r.UserID, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

const reservationCols = `id, session_id, user_id, created_at`

// Reserve books one seat in a session for a user.
//
// Checks run in order and the first failure is returned: ErrNotFound for a
// missing session or user, ErrNotVerified, ErrAlreadyReserved, ErrSessionFull.
// The duplicate and capacity checks and the insert run under the session's
// lock in a single transaction, and the insert itself is conditional on the
// count, so the seat count never exceeds capacity and a user never holds two
// rows for one session.
func (s *ReservationStore) Reserve(ctx context.Context, sessionID, userID int64) (*model.Reservation, error) {
	var capacity int
	err := s.db.QueryRowContext(ctx, `SELECT capacity FROM sessions WHERE id = ?`, sessionID).Scan(&capacity)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session capacity: %w", err)
	}

	var verified int
	err = s.db.QueryRowContext(ctx, `SELECT verified FROM users WHERE id = ?`, userID).Scan(&verified)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user verified: %w", err)
	}
	if verified == 0 {
		return nil, ErrNotVerified
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	var res *model.Reservation
	var reserved int
	err = database.WithTx(ctx, s.db, func(tx database.DBTX) error {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM reservations WHERE session_id = ? AND user_id = ?`,
			sessionID, userID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check existing reservation: %w", err)
		}
		if exists > 0 {
			return ErrAlreadyReserved
		}

		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM reservations WHERE session_id = ?`, sessionID,
		).Scan(&reserved); err != nil {
			return fmt.Errorf("count reservations: %w", err)
		}
		if reserved >= capacity {
			return ErrSessionFull
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO reservations (session_id, user_id)
			 SELECT ?, ?
			 WHERE (SELECT COUNT(*) FROM reservations WHERE session_id = ?)
			     < (SELECT capacity FROM sessions WHERE id = ?)`,
			sessionID, userID, sessionID, sessionID,
		)
		if isUniqueViolation(err) {
			return ErrAlreadyReserved
		}
		if err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return ErrSessionFull
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		row := tx.QueryRowContext(ctx, `SELECT `+reservationCols+` FROM reservations WHERE id = ?`, id)
		res, err = scanReservation(row)
		if err != nil {
			return fmt.Errorf("get reservation: %w", err)
		}
		reserved++
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.ReservationCreated(sessionID, reserved, capacity)
	}
	return res, nil
}

// ListForUser returns the ids of sessions the user holds a seat in. It reads
// outside the admission lock and may trail a concurrent Reserve.
func (s *ReservationStore) ListForUser(ctx context.Context, userID int64) (map[int64]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM reservations WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list reservations for user: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func (s *ReservationStore) CountForSession(ctx context.Context, sessionID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return n, nil
}

// Counts returns the number of reservations per session id. Sessions with
// no reservations are absent.
func (s *ReservationStore) Counts(ctx context.Context) (map[int64]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id, COUNT(*) FROM reservations GROUP BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("count reservations: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// Availability annotates sessions, in the given order, with seat counts and
// whether userID holds a seat.
func (s *ReservationStore) Availability(ctx context.Context, sessions []model.Session, userID int64) ([]model.SessionAvailability, error) {
	counts, err := s.Counts(ctx)
	if err != nil {
		return nil, err
	}
	mine, err := s.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]model.SessionAvailability, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, model.SessionAvailability{
			Session:      sess,
			Reserved:     counts[sess.ID],
			ReservedByMe: mine[sess.ID],
		})
	}
	return out, nil
}
