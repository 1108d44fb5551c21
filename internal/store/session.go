package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/yogabook/internal/model"
)

// SessionStore is the registry of bookable sessions.
type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	err := scanner.Scan(&s.ID, &s.Title, &s.ScheduledAt, &s.Capacity, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.ScheduledAt = s.ScheduledAt.UTC()
	return &s, nil
}

const sessionCols = `id, title, scheduled_at, capacity, created_at`

// Create adds a session. Capacity must be positive; nothing is written otherwise.
func (s *SessionStore) Create(ctx context.Context, title string, scheduledAt time.Time, capacity int) (*model.Session, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", ErrInvalidInput)
	}
	if scheduledAt.IsZero() {
		return nil, fmt.Errorf("scheduled time is required: %w", ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (title, scheduled_at, capacity) VALUES (?, ?, ?)`,
		title, scheduledAt.UTC(), capacity,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *SessionStore) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// List returns all sessions by scheduled time, earliest first. Sessions at
// the same time keep insertion order.
func (s *SessionStore) List(ctx context.Context) ([]model.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionCols+` FROM sessions ORDER BY scheduled_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

var scheduledAtLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	time.RFC3339,
}

// ParseScheduledAt parses the admin form's date field. Times without a zone
// are taken as UTC.
func ParseScheduledAt(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range scheduledAtLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q: %w", v, ErrInvalidInput)
}
