// Package handler implements the HTTP layer: request decoding, input
// shape validation, and rendering of the uniform response envelope.
package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/sakif/walkonsongs/internal/apperror"
)

// Response is the envelope every endpoint answers with. Success payloads
// embed it and add their own fields (token, user, song, songs, userId);
// error responses carry Message and, for validation failures, Errors.
//
//	{"success": false, "message": "Validation errors",
//	 "errors": [{"field": "email", "message": "Valid email is required"}]}
type Response struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Errors  []apperror.FieldError `json:"errors,omitempty"`
}

// OK builds a success envelope.
func OK(message string) Response {
	return Response{Success: true, Message: message}
}

// writeJSON renders v with the given status. render.Status stashes the
// code in the request context; render.JSON sets the header and encodes.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// writeError maps a domain error onto the HTTP contract:
//
//	validation, conflict, empty patch, bad URL → 400
//	bad credentials, unverified account        → 401
//	missing or not-owned resource              → 404
//	anything else                              → 500 (generic message —
//	internal detail never reaches the client)
//
// Conflict mapping to 400 (not 409) is deliberate: it is the contract the
// client was built against.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrConflict):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		}

		writeJSON(w, r, status, Response{
			Success: false,
			Message: appErr.Message,
			Errors:  appErr.Fields,
		})
		return
	}

	writeJSON(w, r, http.StatusInternalServerError, Response{
		Success: false,
		Message: "Internal server error",
	})
}

// validationError converts validator.v10 failures into the envelope's
// field-level error list. Messages come from a per-field table so the API
// keeps stable, human wording instead of validator's internal phrasing.
func validationError(err error) *apperror.AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.ValidationFailed("body", "Invalid request body")
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return apperror.ValidationErrors(fields)
}

// fieldMessage picks the client-facing message for one failed rule.
// The register/login/song DTOs name their json fields via the validator's
// tag-name function (see newValidator), so fe.Field() is the json name.
func fieldMessage(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()]; ok {
		return msg
	}
	// Unlisted field: fall back to something presentable.
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Valid email is required"
	case "url":
		return "Valid URL is required"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

var fieldMessages = map[string]string{
	"firstName":        "First name is required",
	"lastName":         "Last name is required",
	"email":            "Valid email is required",
	"password":         "Password is required",
	"youtubeUrl":       "Valid YouTube URL is required",
	"songName":         "Song name is required and must be 200 characters or less",
	"startTimeSeconds": "Start time must be a positive integer",
	"guestName":        "Guest name must be 100 characters or less",
}
