package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/walkonsongs/internal/apperror"
	"github.com/sakif/walkonsongs/internal/model"
	"github.com/sakif/walkonsongs/internal/repository"
)

// Compile-time check that *DB implements repository.SongRepository.
var _ repository.SongRepository = (*DB)(nil)

const songColumns = `id, user_id, youtube_url, youtube_id, song_name,
	start_time_seconds, guest_name, created_at, updated_at`

// CreateSong inserts a song owned by song.UserID.
func (db *DB) CreateSong(ctx context.Context, song *model.Song) error {
	song.ID = xid.New().String()
	now := time.Now().UTC()
	song.CreatedAt = now
	song.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO songs (`+songColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		song.ID,
		song.UserID,
		song.YouTubeURL,
		song.YouTubeID,
		song.SongName,
		song.StartTimeSeconds,
		song.GuestName,
		song.CreatedAt,
		song.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating song: %w", err)
	}

	return nil
}

// GetSong fetches one song, scoped by owner.
//
// The WHERE clause carries both id and user_id, so a song owned by
// someone else scans as no rows at all — callers get the same NotFound
// they would for a nonexistent id, which is exactly the non-leak the
// API promises.
func (db *DB) GetSong(ctx context.Context, userID, id string) (*model.Song, error) {
	var s model.Song

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+songColumns+` FROM songs WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(
		&s.ID,
		&s.UserID,
		&s.YouTubeURL,
		&s.YouTubeID,
		&s.SongName,
		&s.StartTimeSeconds,
		&s.GuestName,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("Song")
		}
		return nil, fmt.Errorf("sqlite: getting song %s: %w", id, err)
	}

	return &s, nil
}

// ListSongs returns all of userID's songs, newest first.
func (db *DB) ListSongs(ctx context.Context, userID string) ([]model.Song, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+songColumns+` FROM songs
		 WHERE user_id = ?
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing songs: %w", err)
	}
	defer rows.Close()

	songs := []model.Song{}
	for rows.Next() {
		var s model.Song
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.YouTubeURL, &s.YouTubeID, &s.SongName,
			&s.StartTimeSeconds, &s.GuestName, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning song row: %w", err)
		}
		songs = append(songs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating songs: %w", err)
	}

	return songs, nil
}

// UpdateSong writes the mutable columns in one parameterized statement.
// The service applies the client's patch to a fetched copy first, so a
// single fixed UPDATE covers every partial-update combination — no
// query-string assembly.
func (db *DB) UpdateSong(ctx context.Context, song *model.Song) error {
	song.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE songs
		 SET youtube_url = ?, youtube_id = ?, song_name = ?,
		     start_time_seconds = ?, guest_name = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		song.YouTubeURL,
		song.YouTubeID,
		song.SongName,
		song.StartTimeSeconds,
		song.GuestName,
		song.UpdatedAt,
		song.ID,
		song.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating song %s: %w", song.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("Song")
	}

	return nil
}

// DeleteSong hard-deletes an owned song. RowsAffected distinguishes "gone"
// from "never yours/never existed" — both come back as NotFound.
func (db *DB) DeleteSong(ctx context.Context, userID, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM songs WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting song %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("Song")
	}

	return nil
}
