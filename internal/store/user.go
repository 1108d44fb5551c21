package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/yogabook/internal/model"
)

// UserStore holds user identities and their bcrypt password hashes.
type UserStore struct {
	db   *sql.DB
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewUserStore returns a store hashing passwords at the given bcrypt cost.
// Costs outside bcrypt's range fall back to bcrypt.DefaultCost.
func NewUserStore(db *sql.DB, cost int) *UserStore {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &UserStore{db: db, cost: cost}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var isAdmin, verified int
	err := scanner.Scan(&u.ID, &u.Email, &u.PasswordHash, &isAdmin, &verified, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.IsAdmin = isAdmin != 0
	u.Verified = verified != 0
	return &u, nil
}

const userCols = `id, email, password_hash, is_admin, verified, created_at`

func (s *UserStore) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("password too long: %w", ErrInvalidInput)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func (s *UserStore) insert(ctx context.Context, email, password string, isAdmin, verified bool) (*model.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", ErrInvalidInput)
	}
	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, is_admin, verified) VALUES (?, ?, ?, ?)`,
		email, hash, boolInt(isAdmin), boolInt(verified),
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Register creates an unverified, non-admin user.
func (s *UserStore) Register(ctx context.Context, email, password string) (*model.User, error) {
	return s.insert(ctx, email, password, false, false)
}

// EnsureAdmin creates a verified admin with the given email unless a user
// with that email already exists. The bool reports whether it was created.
func (s *UserStore) EnsureAdmin(ctx context.Context, email, password string) (*model.User, bool, error) {
	u, err := s.GetByEmail(ctx, email)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	u, err = s.insert(ctx, email, password, true, true)
	if errors.Is(err, ErrDuplicateEmail) {
		// Lost a race with another bootstrap.
		u, err = s.GetByEmail(ctx, email)
		return u, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

// Authenticate returns the user matching email and password. Unknown emails
// still pay for a bcrypt comparison so both failure paths take equal time.
func (s *UserStore) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *UserStore) dummy() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("yogabook-dummy-password"), s.cost)
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

// Verify marks the user verified. Verifying twice is not an error.
func (s *UserStore) Verify(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET verified = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("verify user: %w", err)
	}
	return requireRow(res)
}

func (s *UserStore) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET is_admin = ? WHERE id = ?`, boolInt(isAdmin), id)
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	return requireRow(res)
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// ListUnverified returns users awaiting verification, oldest first.
func (s *UserStore) ListUnverified(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userCols+` FROM users WHERE verified = 0 ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list unverified users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// requireRow maps an UPDATE that matched nothing to ErrNotFound. SQLite
// counts matched rows, so re-setting an unchanged value still reports one.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
