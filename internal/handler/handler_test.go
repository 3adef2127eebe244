package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/walkonsongs/internal/auth"
	sqliteRepo "github.com/sakif/walkonsongs/internal/repository/sqlite"
	"github.com/sakif/walkonsongs/internal/service"
)

// These tests exercise the full HTTP stack — router, middleware, handlers,
// services, and a real in-memory SQLite database — with only the SMTP
// dialer swapped for a recorder. What goes over the wire here is exactly
// what a client sees.

// recorderMailer captures the verification link instead of dialing SMTP.
type recorderMailer struct {
	lastTo  string
	lastURL string
}

func (m *recorderMailer) SendVerificationEmail(to, _, verifyURL string) error {
	m.lastTo = to
	m.lastURL = verifyURL
	return nil
}

type testApp struct {
	router http.Handler
	mailer *recorderMailer
}

// newTestApp wires the same graph as the server package, minus the real
// SMTP mailer and with the cheapest bcrypt cost.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mailer := &recorderMailer{}

	authService := service.NewAuthService(
		db, tokens, auth.NewPasswordServiceForTest(4), mailer,
		"http://localhost:4200", 24*time.Hour, logger,
	)
	songService := service.NewSongService(db, logger)

	authHandler := NewAuthHandler(authService, logger)
	songHandler := NewSongHandler(songService, logger)

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Get("/verify-email", authHandler.HandleVerifyEmail)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/resend-verification", authHandler.HandleResendVerification)
		})
		r.Route("/songs", func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/", songHandler.HandleList)
			r.Post("/", songHandler.HandleCreate)
			r.Get("/{id}", songHandler.HandleGet)
			r.Put("/{id}", songHandler.HandleUpdate)
			r.Delete("/{id}", songHandler.HandleDelete)
		})
	})

	return &testApp{router: router, mailer: mailer}
}

// do sends a request and decodes the JSON envelope into a generic map.
func (a *testApp) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope),
		"response body is not JSON: %s", rec.Body.String())
	return rec.Code, envelope
}

// registerAndLogin walks a user through register → verify → login and
// returns the bearer token.
func (a *testApp) registerAndLogin(t *testing.T, email string) string {
	t.Helper()

	code, _ := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"firstName": "Test",
		"lastName":  "User",
		"email":     email,
		"password":  "Abc123!",
	})
	require.Equal(t, http.StatusCreated, code)

	_, token, found := strings.Cut(a.mailer.lastURL, "token=")
	require.True(t, found, "verification URL %q has no token", a.mailer.lastURL)

	code, _ = a.do(t, http.MethodGet, "/api/auth/verify-email?token="+token, "", nil)
	require.Equal(t, http.StatusOK, code)

	code, body := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    email,
		"password": "Abc123!",
	})
	require.Equal(t, http.StatusOK, code)
	jwt, _ := body["token"].(string)
	require.NotEmpty(t, jwt)
	return jwt
}

// =========================================================================
// AUTH FLOW
// =========================================================================

func TestRegisterVerifyLoginFlow(t *testing.T) {
	app := newTestApp(t)

	// Register.
	code, body := app.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"firstName": "Grace",
		"lastName":  "Hopper",
		"email":     "grace@example.com",
		"password":  "Abc123!",
	})
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, true, body["success"])
	require.Contains(t, body["message"], "check your email")
	require.NotEmpty(t, body["userId"])
	require.Equal(t, "grace@example.com", app.mailer.lastTo)

	// Login before verification is refused with the explicit message.
	code, body = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "grace@example.com",
		"password": "Abc123!",
	})
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, false, body["success"])
	require.Contains(t, body["message"], "verify your email")

	// Verify via the emailed link.
	_, token, _ := strings.Cut(app.mailer.lastURL, "token=")
	code, body = app.do(t, http.MethodGet, "/api/auth/verify-email?token="+token, "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body["message"], "You can now login")

	// Revisiting the same link fails — the token is single-use.
	code, _ = app.do(t, http.MethodGet, "/api/auth/verify-email?token="+token, "", nil)
	require.Equal(t, http.StatusBadRequest, code)

	// Login now succeeds and returns token + public profile.
	code, body = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "grace@example.com",
		"password": "Abc123!",
	})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Login successful", body["message"])
	require.NotEmpty(t, body["token"])

	user, ok := body["user"].(map[string]any)
	require.True(t, ok, "login response has no user object")
	require.Equal(t, "Grace", user["firstName"])
	require.Equal(t, "grace@example.com", user["email"])
	require.NotContains(t, user, "passwordHash")
	require.NotContains(t, user, "password")
}

func TestRegister_ValidationEnvelope(t *testing.T) {
	app := newTestApp(t)

	code, body := app.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"firstName": "",
		"lastName":  "User",
		"email":     "not-an-email",
		"password":  "abc123",
	})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, false, body["success"])

	errs, ok := body["errors"].([]any)
	require.True(t, ok, "400 envelope missing errors array: %v", body)
	fields := map[string]bool{}
	for _, e := range errs {
		entry := e.(map[string]any)
		fields[entry["field"].(string)] = true
		require.NotEmpty(t, entry["message"])
	}
	require.True(t, fields["firstName"], "missing firstName error in %v", errs)
	require.True(t, fields["email"], "missing email error in %v", errs)
}

func TestRegister_DuplicateEmailIs400(t *testing.T) {
	app := newTestApp(t)
	app.registerAndLogin(t, "dup@example.com")

	code, body := app.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"firstName": "Second",
		"lastName":  "Person",
		"email":     "dup@example.com",
		"password":  "Abc123!",
	})
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, body["message"], "already exists")
}

func TestRegister_MalformedJSON(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), `"success":false`)
}

func TestLogin_UnknownAndWrongPasswordLookIdentical(t *testing.T) {
	app := newTestApp(t)
	app.registerAndLogin(t, "known@example.com")

	code1, body1 := app.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "unknown@example.com",
		"password": "Abc123!",
	})
	code2, body2 := app.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "known@example.com",
		"password": "Wrong-Pass1!",
	})

	require.Equal(t, http.StatusUnauthorized, code1)
	require.Equal(t, http.StatusUnauthorized, code2)
	require.Equal(t, body1["message"], body2["message"],
		"unknown-email and wrong-password responses must be indistinguishable")
}

func TestVerifyEmail_MissingToken(t *testing.T) {
	app := newTestApp(t)

	code, body := app.do(t, http.MethodGet, "/api/auth/verify-email", "", nil)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, false, body["success"])
}

func TestResendVerification_AlwaysGeneric(t *testing.T) {
	app := newTestApp(t)

	// Unknown address still gets 200 with the generic message.
	code, body := app.do(t, http.MethodPost, "/api/auth/resend-verification", "", map[string]any{
		"email": "nobody@example.com",
	})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])

	// Unverified account: the token in the new email differs from the first.
	app.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"firstName": "Re",
		"lastName":  "Send",
		"email":     "resend@example.com",
		"password":  "Abc123!",
	})
	firstURL := app.mailer.lastURL

	code, _ = app.do(t, http.MethodPost, "/api/auth/resend-verification", "", map[string]any{
		"email": "resend@example.com",
	})
	require.Equal(t, http.StatusOK, code)
	require.NotEqual(t, firstURL, app.mailer.lastURL, "resend should rotate the token")
}

// =========================================================================
// SONG CRUD OVER HTTP
// =========================================================================

func TestSongs_RequireAuthentication(t *testing.T) {
	app := newTestApp(t)

	code, body := app.do(t, http.MethodGet, "/api/songs/", "", nil)
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, false, body["success"])
	require.Contains(t, body["message"], "authentication token")

	code, _ = app.do(t, http.MethodPost, "/api/songs/", "garbage-token", map[string]any{
		"youtubeUrl": "https://youtu.be/dQw4w9WgXcQ",
		"songName":   "Nope",
	})
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestSongCRUDFlow(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t, "singer@example.com")

	// Empty playlist renders songs: [].
	code, body := app.do(t, http.MethodGet, "/api/songs/", token, nil)
	require.Equal(t, http.StatusOK, code)
	songs, ok := body["songs"].([]any)
	require.True(t, ok, "songs must be [] even when empty: %v", body)
	require.Empty(t, songs)

	// Create.
	code, body = app.do(t, http.MethodPost, "/api/songs/", token, map[string]any{
		"youtubeUrl":       "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"songName":         "Never Gonna Give You Up",
		"startTimeSeconds": 43,
		"guestName":        "Rick",
	})
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, "Song added successfully", body["message"])

	song := body["song"].(map[string]any)
	songID := song["id"].(string)
	require.NotEmpty(t, songID)
	require.Equal(t, "dQw4w9WgXcQ", song["youtubeId"])
	require.NotContains(t, song, "userId", "owner id must not leak into the JSON")

	// Read back, single and list.
	code, body = app.do(t, http.MethodGet, "/api/songs/"+songID, token, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Never Gonna Give You Up", body["song"].(map[string]any)["songName"])

	code, body = app.do(t, http.MethodGet, "/api/songs/", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["songs"].([]any), 1)

	// Partial update: only guestName; everything else must survive.
	code, body = app.do(t, http.MethodPut, "/api/songs/"+songID, token, map[string]any{
		"guestName": "Astley",
	})
	require.Equal(t, http.StatusOK, code)
	updated := body["song"].(map[string]any)
	require.Equal(t, "Astley", updated["guestName"])
	require.Equal(t, "Never Gonna Give You Up", updated["songName"])
	require.Equal(t, float64(43), updated["startTimeSeconds"])

	// Empty patch is a 400.
	code, _ = app.do(t, http.MethodPut, "/api/songs/"+songID, token, map[string]any{})
	require.Equal(t, http.StatusBadRequest, code)

	// Delete, then the id is gone.
	code, body = app.do(t, http.MethodDelete, "/api/songs/"+songID, token, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Song deleted successfully", body["message"])

	code, _ = app.do(t, http.MethodGet, "/api/songs/"+songID, token, nil)
	require.Equal(t, http.StatusNotFound, code)
}

func TestSongCreate_InvalidYouTubeURL(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t, "singer@example.com")

	code, body := app.do(t, http.MethodPost, "/api/songs/", token, map[string]any{
		"youtubeUrl": "https://vimeo.com/123456789",
		"songName":   "Not A YouTube Song",
	})
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, body["message"], "Invalid YouTube URL")
}

func TestSongs_CrossUserIsolation(t *testing.T) {
	app := newTestApp(t)
	aliceToken := app.registerAndLogin(t, "alice@example.com")
	bobToken := app.registerAndLogin(t, "bob@example.com")

	code, body := app.do(t, http.MethodPost, "/api/songs/", aliceToken, map[string]any{
		"youtubeUrl": "https://youtu.be/dQw4w9WgXcQ",
		"songName":   "Alice's Song",
	})
	require.Equal(t, http.StatusCreated, code)
	songID := body["song"].(map[string]any)["id"].(string)

	// Bob cannot see, list, modify, or delete Alice's song.
	code, _ = app.do(t, http.MethodGet, "/api/songs/"+songID, bobToken, nil)
	require.Equal(t, http.StatusNotFound, code)

	code, body = app.do(t, http.MethodGet, "/api/songs/", bobToken, nil)
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, body["songs"].([]any))

	code, _ = app.do(t, http.MethodPut, "/api/songs/"+songID, bobToken, map[string]any{
		"songName": "Bob's Now",
	})
	require.Equal(t, http.StatusNotFound, code)

	code, _ = app.do(t, http.MethodDelete, "/api/songs/"+songID, bobToken, nil)
	require.Equal(t, http.StatusNotFound, code)

	// Alice's song is untouched.
	code, body = app.do(t, http.MethodGet, "/api/songs/"+songID, aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Alice's Song", body["song"].(map[string]any)["songName"])
}
