package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/sakif/walkonsongs/internal/apperror"
	"github.com/sakif/walkonsongs/internal/model"
	"github.com/sakif/walkonsongs/internal/repository"
	"github.com/sakif/walkonsongs/internal/youtube"
)

// Validation limits for song fields.
const (
	MaxSongNameLength  = 200
	MaxGuestNameLength = 100
)

// SongService handles playlist business logic. Every method takes the
// authenticated caller's userID and passes it down to the repository,
// which folds it into each WHERE clause — ownership is enforced at the
// query, not by after-the-fact comparison.
type SongService struct {
	repo   repository.SongRepository
	logger *slog.Logger
}

// NewSongService creates a SongService.
func NewSongService(repo repository.SongRepository, logger *slog.Logger) *SongService {
	return &SongService{repo: repo, logger: logger}
}

// CreateSongInput is the create request after JSON decoding.
type CreateSongInput struct {
	YouTubeURL       string
	SongName         string
	StartTimeSeconds int
	GuestName        string
}

// SongPatch is a partial update: nil means "leave unchanged".
//
// Pointer fields make the three-way distinction the JSON contract needs:
// field absent (nil), field present and empty, field present with a value.
// The patch is applied to a fetched copy of the song and written back with
// one fixed parameterized UPDATE.
type SongPatch struct {
	YouTubeURL       *string
	SongName         *string
	StartTimeSeconds *int
	GuestName        *string
}

// IsEmpty reports whether the patch changes nothing.
func (p SongPatch) IsEmpty() bool {
	return p.YouTubeURL == nil && p.SongName == nil &&
		p.StartTimeSeconds == nil && p.GuestName == nil
}

// Create validates the input, extracts the YouTube video id, and persists
// the song for userID.
func (s *SongService) Create(ctx context.Context, userID string, in CreateSongInput) (*model.Song, error) {
	var fields []apperror.FieldError

	name := strings.TrimSpace(in.SongName)
	if name == "" || len(name) > MaxSongNameLength {
		fields = append(fields, apperror.FieldError{
			Field: "songName", Message: "Song name is required and must be 200 characters or less"})
	}

	if !isValidURL(in.YouTubeURL) {
		fields = append(fields, apperror.FieldError{
			Field: "youtubeUrl", Message: "Valid YouTube URL is required"})
	}

	if in.StartTimeSeconds < 0 {
		fields = append(fields, apperror.FieldError{
			Field: "startTimeSeconds", Message: "Start time must be a positive integer"})
	}

	guest := strings.TrimSpace(in.GuestName)
	if len(guest) > MaxGuestNameLength {
		fields = append(fields, apperror.FieldError{
			Field: "guestName", Message: "Guest name must be 100 characters or less"})
	}

	if len(fields) > 0 {
		return nil, apperror.ValidationErrors(fields)
	}

	videoID, ok := youtube.ExtractVideoID(in.YouTubeURL)
	if !ok {
		return nil, apperror.ValidationFailed("youtubeUrl",
			"Invalid YouTube URL. Please provide a valid YouTube video URL.")
	}

	song := &model.Song{
		UserID:           userID,
		YouTubeURL:       in.YouTubeURL,
		YouTubeID:        videoID,
		SongName:         name,
		StartTimeSeconds: in.StartTimeSeconds,
		GuestName:        guest,
	}

	if err := s.repo.CreateSong(ctx, song); err != nil {
		s.logger.Error("failed to create song",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating song: %w", err)
	}

	s.logger.Info("song created",
		slog.String("id", song.ID),
		slog.String("userID", userID),
		slog.String("youtubeId", song.YouTubeID),
	)

	return song, nil
}

// Get returns one of the caller's songs. Foreign and missing ids are the
// same NotFound.
func (s *SongService) Get(ctx context.Context, userID, id string) (*model.Song, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("id", "Song ID is required")
	}
	return s.repo.GetSong(ctx, userID, id)
}

// List returns all of the caller's songs, newest first.
func (s *SongService) List(ctx context.Context, userID string) ([]model.Song, error) {
	songs, err := s.repo.ListSongs(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list songs",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing songs: %w", err)
	}
	return songs, nil
}

// Update applies a partial update to an owned song.
//
// Fetch-then-write: the ownership check happens on the fetch, the patch
// mutates the fetched copy, and the repository re-checks ownership in the
// UPDATE's WHERE clause. A URL change re-derives the video id with the
// same failure mode as Create. An empty patch is an error, matching the
// original contract.
func (s *SongService) Update(ctx context.Context, userID, id string, patch SongPatch) (*model.Song, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("id", "Song ID is required")
	}
	if patch.IsEmpty() {
		return nil, apperror.ValidationFailed("body", "No fields to update")
	}

	song, err := s.repo.GetSong(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.SongName != nil {
		name := strings.TrimSpace(*patch.SongName)
		if name == "" || len(name) > MaxSongNameLength {
			return nil, apperror.ValidationFailed("songName",
				"Song name must be 200 characters or less")
		}
		song.SongName = name
	}

	if patch.StartTimeSeconds != nil {
		if *patch.StartTimeSeconds < 0 {
			return nil, apperror.ValidationFailed("startTimeSeconds",
				"Start time must be a positive integer")
		}
		song.StartTimeSeconds = *patch.StartTimeSeconds
	}

	if patch.GuestName != nil {
		guest := strings.TrimSpace(*patch.GuestName)
		if len(guest) > MaxGuestNameLength {
			return nil, apperror.ValidationFailed("guestName",
				"Guest name must be 100 characters or less")
		}
		song.GuestName = guest
	}

	if patch.YouTubeURL != nil {
		if !isValidURL(*patch.YouTubeURL) {
			return nil, apperror.ValidationFailed("youtubeUrl", "Valid YouTube URL is required")
		}
		videoID, ok := youtube.ExtractVideoID(*patch.YouTubeURL)
		if !ok {
			return nil, apperror.ValidationFailed("youtubeUrl",
				"Invalid YouTube URL. Please provide a valid YouTube video URL.")
		}
		song.YouTubeURL = *patch.YouTubeURL
		song.YouTubeID = videoID
	}

	if err := s.repo.UpdateSong(ctx, song); err != nil {
		return nil, err
	}

	// Re-read so the caller gets exactly what the store now holds
	// (authoritative updated_at included).
	updated, err := s.repo.GetSong(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("song updated",
		slog.String("id", id),
		slog.String("userID", userID),
	)

	return updated, nil
}

// Delete removes an owned song. Absent or foreign ids are NotFound, never
// a server error.
func (s *SongService) Delete(ctx context.Context, userID, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperror.ValidationFailed("id", "Song ID is required")
	}

	if err := s.repo.DeleteSong(ctx, userID, id); err != nil {
		return err
	}

	s.logger.Info("song deleted",
		slog.String("id", id),
		slog.String("userID", userID),
	)
	return nil
}

// isValidURL checks that the string parses as an absolute http(s) URL.
func isValidURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
