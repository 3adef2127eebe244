// Package repository defines the storage interfaces the service layer
// depends on. Services program against these interfaces; the sqlite
// subpackage provides the real implementation and tests provide mocks.
package repository

import (
	"context"
	"time"

	"github.com/sakif/walkonsongs/internal/model"
)

// UserRepository persists user accounts and their verification state.
type UserRepository interface {
	// CreateUser inserts a new user. The implementation assigns ID,
	// CreatedAt, and UpdatedAt on the passed struct. A duplicate email
	// surfaces as apperror.ErrConflict.
	CreateUser(ctx context.Context, user *model.User) error

	// GetUserByEmail looks a user up by normalized email.
	// Returns apperror.ErrNotFound when no account exists.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// GetUserByID looks a user up by internal id.
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// GetUserByVerificationToken finds the user holding a pending
	// verification token. Exact match; consumed tokens never match
	// because verification NULLs the column.
	GetUserByVerificationToken(ctx context.Context, token string) (*model.User, error)

	// MarkEmailVerified sets email_verified and clears the token and its
	// expiry in one statement, making the token single-use.
	MarkEmailVerified(ctx context.Context, userID string) error

	// SetVerificationToken stores a fresh token and expiry for an
	// unverified account (resend flow).
	SetVerificationToken(ctx context.Context, userID, token string, expires time.Time) error
}

// SongRepository persists songs. Every method that touches existing rows
// takes the owner's user id and scopes the query with it — the repository
// itself enforces that foreign rows behave exactly like missing rows.
type SongRepository interface {
	// CreateSong inserts a song for song.UserID, assigning ID and
	// timestamps on the passed struct.
	CreateSong(ctx context.Context, song *model.Song) error

	// GetSong returns the song only when it exists and belongs to
	// userID; otherwise apperror.ErrNotFound.
	GetSong(ctx context.Context, userID, id string) (*model.Song, error)

	// ListSongs returns all of userID's songs, newest first.
	ListSongs(ctx context.Context, userID string) ([]model.Song, error)

	// UpdateSong writes the song's mutable columns, scoped by
	// song.UserID. apperror.ErrNotFound when no owned row matches.
	UpdateSong(ctx context.Context, song *model.Song) error

	// DeleteSong hard-deletes an owned song; apperror.ErrNotFound when
	// absent or foreign.
	DeleteSong(ctx context.Context, userID, id string) error
}
