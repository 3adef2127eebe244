package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/walkonsongs/internal/apperror"
	"github.com/sakif/walkonsongs/internal/model"
	"github.com/sakif/walkonsongs/internal/repository"
)

// Compile-time check that *DB implements repository.UserRepository.
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, first_name, last_name, email, password_hash,
	email_verified, verification_token, verification_expires,
	created_at, updated_at`

// CreateUser inserts a new account row.
//
// The UNIQUE constraint on email is the real duplicate guard: the service
// checks for an existing account first, but two concurrent registrations
// with the same address both pass that check — the constraint then lets
// exactly one INSERT win and the loser comes back as a Conflict.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.EmailVerified,
		user.VerificationToken,
		user.VerificationExpires,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("User with this email already exists")
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	return nil
}

// GetUserByEmail fetches a user by normalized email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `email = ?`, email)
}

// GetUserByID fetches a user by internal id.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `id = ?`, id)
}

// GetUserByVerificationToken fetches the user holding a pending token.
// Verified accounts have a NULL token, so a consumed token can never
// match again.
func (db *DB) GetUserByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	return db.getUser(ctx, `verification_token = ?`, token)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg,
	).Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&u.EmailVerified,
		&u.VerificationToken,
		&u.VerificationExpires,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("User")
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	return &u, nil
}

// MarkEmailVerified flips the verified flag and clears the token columns
// in one UPDATE. Clearing the columns is what makes the token single-use.
func (db *DB) MarkEmailVerified(ctx context.Context, userID string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET email_verified = 1,
		     verification_token = NULL,
		     verification_expires = NULL,
		     updated_at = ?
		 WHERE id = ?`,
		time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: verifying user %s: %w", userID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("User")
	}

	return nil
}

// SetVerificationToken stores a fresh token and expiry for an account
// (resend flow).
func (db *DB) SetVerificationToken(ctx context.Context, userID, token string, expires time.Time) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET verification_token = ?, verification_expires = ?, updated_at = ?
		 WHERE id = ?`,
		token, expires, time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting verification token for %s: %w", userID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("User")
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. modernc.org/sqlite surfaces these as "constraint failed:
// UNIQUE constraint failed: ..." — matching on the message avoids
// importing the driver's internal error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
