package model

import "time"

// Song is one entry in a user's walk-on playlist.
//
// YouTubeID is derived from YouTubeURL (the 11-character video id) and is
// recomputed whenever the URL changes — it is never accepted from the
// client directly. UserID is set at creation and immutable; every query
// that touches songs filters on it, so one user can never see or modify
// another user's rows.
type Song struct {
	ID               string    `json:"id"`
	UserID           string    `json:"-"` // owner scope, not part of the API shape
	YouTubeURL       string    `json:"youtubeUrl"`
	YouTubeID        string    `json:"youtubeId"`
	SongName         string    `json:"songName"`
	StartTimeSeconds int       `json:"startTimeSeconds"`
	GuestName        string    `json:"guestName,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
