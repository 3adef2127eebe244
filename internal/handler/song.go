package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/sakif/walkonsongs/internal/auth"
	"github.com/sakif/walkonsongs/internal/model"
	"github.com/sakif/walkonsongs/internal/service"
)

// SongHandler exposes the playlist CRUD endpoints. All routes sit behind
// auth.RequireAuth, so the identity is always in the context by the time
// these methods run; the authenticated user id is the ownership scope for
// every service call.
type SongHandler struct {
	songs    *service.SongService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewSongHandler creates a SongHandler.
func NewSongHandler(songs *service.SongService, logger *slog.Logger) *SongHandler {
	return &SongHandler{
		songs:    songs,
		validate: newValidator(),
		logger:   logger,
	}
}

type songListResponse struct {
	Response
	Songs []model.Song `json:"songs"`
}

type songResponse struct {
	Response
	Song *model.Song `json:"song"`
}

// HandleList returns the caller's songs, newest first.
//
// HTTP: GET /api/songs
func (h *SongHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	songs, err := h.songs.List(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, songListResponse{
		Response: Response{Success: true},
		Songs:    songs,
	})
}

// HandleGet returns a single owned song.
//
// HTTP: GET /api/songs/{id} → 200 | 404 (missing and foreign ids look
// identical)
func (h *SongHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	song, err := h.songs.Get(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, songResponse{
		Response: Response{Success: true},
		Song:     song,
	})
}

type createSongRequest struct {
	YouTubeURL       string `json:"youtubeUrl" validate:"required,url"`
	SongName         string `json:"songName" validate:"required,max=200"`
	StartTimeSeconds int    `json:"startTimeSeconds" validate:"gte=0"`
	GuestName        string `json:"guestName" validate:"max=100"`
}

// HandleCreate adds a song to the caller's playlist.
//
// HTTP: POST /api/songs → 201 {song} | 400 (validation or unrecognized
// YouTube URL)
func (h *SongHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	var req createSongRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.logger.Warn("create song: bad JSON", slog.String("error", err.Error()))
		writeError(w, r, validationError(err))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, validationError(err))
		return
	}

	song, err := h.songs.Create(r.Context(), id.UserID, service.CreateSongInput{
		YouTubeURL:       req.YouTubeURL,
		SongName:         req.SongName,
		StartTimeSeconds: req.StartTimeSeconds,
		GuestName:        req.GuestName,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, songResponse{
		Response: OK("Song added successfully"),
		Song:     song,
	})
}

// updateSongRequest mirrors createSongRequest with every field optional.
// Pointers preserve the absent-vs-present distinction that drives the
// partial update.
type updateSongRequest struct {
	YouTubeURL       *string `json:"youtubeUrl" validate:"omitempty,url"`
	SongName         *string `json:"songName" validate:"omitempty,max=200"`
	StartTimeSeconds *int    `json:"startTimeSeconds" validate:"omitempty,gte=0"`
	GuestName        *string `json:"guestName" validate:"omitempty,max=100"`
}

// HandleUpdate partially updates an owned song.
//
// HTTP: PUT /api/songs/{id} → 200 {song} | 400 (validation, bad URL, or
// empty patch) | 404
func (h *SongHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	var req updateSongRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.logger.Warn("update song: bad JSON", slog.String("error", err.Error()))
		writeError(w, r, validationError(err))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, validationError(err))
		return
	}

	song, err := h.songs.Update(r.Context(), id.UserID, chi.URLParam(r, "id"), service.SongPatch{
		YouTubeURL:       req.YouTubeURL,
		SongName:         req.SongName,
		StartTimeSeconds: req.StartTimeSeconds,
		GuestName:        req.GuestName,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, songResponse{
		Response: OK("Song updated successfully"),
		Song:     song,
	})
}

// HandleDelete removes an owned song.
//
// HTTP: DELETE /api/songs/{id} → 200 | 404
func (h *SongHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	if err := h.songs.Delete(r.Context(), id.UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, OK("Song deleted successfully"))
}

// writeUnauthenticated covers the should-not-happen case where a route
// behind RequireAuth has no identity in context.
func writeUnauthenticated(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusUnauthorized, Response{
		Success: false,
		Message: "Access denied. Valid authentication token required.",
	})
}
