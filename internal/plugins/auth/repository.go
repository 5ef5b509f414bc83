package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/keyxmakerx/inkwell/internal/apperror"
)

// UserRepository defines the data access contract for user operations.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	CountUsers(ctx context.Context) (int, error)
	ListIDsByRole(ctx context.Context, role string) ([]string, error)
	UpdateLastLogin(ctx context.Context, id string) error

	// OTP state.
	SetOTP(ctx context.Context, userID, otpHash string, expiresAt time.Time) error
	ListPendingOTPs(ctx context.Context, now time.Time) ([]PendingOTP, error)
	ClearOTP(ctx context.Context, userID, otpHash string) (bool, error)

	// UpdatePassword writes a new hash and clears any OTP state.
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// userRepository implements UserRepository with hand-written MariaDB queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, email, role, password_hash, otp_hash,
	otp_expires_at, last_login_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	u := &User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Role, &u.PasswordHash, &u.OTPHash,
		&u.OTPExpiresAt, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

// Create inserts a new user row into the users table.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, username, email, role, password_hash, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.Role, user.PasswordHash,
		user.CreatedAt, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// FindByID retrieves a user by their UUID.
// Returns apperror.NotFound if no user exists with this ID.
func (r *userRepository) FindByID(ctx context.Context, id string) (*User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by id: %w", err)
	}
	return user, nil
}

// FindByEmail retrieves a user by email. Emails are stored lowercase, so
// callers normalize before calling.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by email: %w", err)
	}
	return user, nil
}

// FindByUsername retrieves a user by username.
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by username: %w", err)
	}
	return user, nil
}

// CountUsers returns the total number of accounts.
func (r *userRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// ListIDsByRole returns the IDs of every user with the given role. Used to
// fan out notifications to admins.
func (r *userRepository) ListIDsByRole(ctx context.Context, role string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users WHERE role = ? ORDER BY created_at`, role)
	if err != nil {
		return nil, fmt.Errorf("listing users by role: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateLastLogin sets the last_login_at timestamp to now for the given user.
func (r *userRepository) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = UTC_TIMESTAMP(6) WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}
	return nil
}

// --- OTP state ---

// SetOTP stores a fresh code hash and expiry, replacing any pending code.
func (r *userRepository) SetOTP(ctx context.Context, userID, otpHash string, expiresAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET otp_hash = ?, otp_expires_at = ? WHERE id = ?`,
		otpHash, expiresAt.UTC(), userID)
	if err != nil {
		return fmt.Errorf("setting otp: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}
	return nil
}

// ListPendingOTPs returns every user whose code has not yet expired.
func (r *userRepository) ListPendingOTPs(ctx context.Context, now time.Time) ([]PendingOTP, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, otp_hash, otp_expires_at FROM users
		 WHERE otp_hash IS NOT NULL AND otp_expires_at > ?`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("listing pending otps: %w", err)
	}
	defer rows.Close()

	var pending []PendingOTP
	for rows.Next() {
		var p PendingOTP
		if err := rows.Scan(&p.UserID, &p.Email, &p.OTPHash, &p.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scanning pending otp: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// ClearOTP clears the code only if it is still the one that was matched.
// Returns false when a concurrent Verify or a newer Issue got there first.
func (r *userRepository) ClearOTP(ctx context.Context, userID, otpHash string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET otp_hash = NULL, otp_expires_at = NULL
		 WHERE id = ? AND otp_hash = ?`, userID, otpHash)
	if err != nil {
		return false, fmt.Errorf("clearing otp: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return n == 1, nil
}

// UpdatePassword sets a new password hash and drops any residual OTP.
func (r *userRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, otp_hash = NULL, otp_expires_at = NULL
		 WHERE id = ?`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}
	return nil
}
