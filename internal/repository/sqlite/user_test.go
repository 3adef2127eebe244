package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/walkonsongs/internal/apperror"
	"github.com/sakif/walkonsongs/internal/model"
)

// newTestDB opens a fresh in-memory database per test. No files, no
// cleanup beyond Close.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(\":memory:\"): %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	token := "token-for-" + email
	expires := time.Now().Add(24 * time.Hour)
	user := &model.User{
		FirstName:           "Test",
		LastName:            "User",
		Email:               email,
		PasswordHash:        "$2a$04$fakefakefakefakefakefakefakefakefakefakefakefakefake",
		VerificationToken:   &token,
		VerificationExpires: &expires,
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return user
}

func TestCreateUser_AssignsIDAndTimestamps(t *testing.T) {
	db := newTestDB(t)

	user := seedUser(t, db, "a@example.com")
	if user.ID == "" {
		t.Fatal("CreateUser did not assign an id")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("CreateUser did not set timestamps")
	}

	got, err := db.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.Email != "a@example.com" || got.FirstName != "Test" {
		t.Errorf("round-trip user = %+v", got)
	}
	if got.EmailVerified {
		t.Error("new row must start unverified")
	}
	if got.VerificationToken == nil || *got.VerificationToken != "token-for-a@example.com" {
		t.Errorf("VerificationToken = %v", got.VerificationToken)
	}
}

func TestCreateUser_DuplicateEmailIsConflict(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "dup@example.com")

	second := &model.User{
		FirstName:    "Other",
		LastName:     "Person",
		Email:        "dup@example.com",
		PasswordHash: "hash",
	}
	err := db.CreateUser(context.Background(), second)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("duplicate insert: error = %v, want ErrConflict", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	db := newTestDB(t)
	want := seedUser(t, db, "find-me@example.com")

	got, err := db.GetUserByEmail(context.Background(), "find-me@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != want.ID {
		t.Errorf("id = %q, want %q", got.ID, want.ID)
	}

	if _, err := db.GetUserByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown email: error = %v, want ErrNotFound", err)
	}
}

func TestMarkEmailVerified_ClearsToken(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "verify@example.com")
	token := *user.VerificationToken

	// The token resolves before verification...
	if _, err := db.GetUserByVerificationToken(context.Background(), token); err != nil {
		t.Fatalf("GetUserByVerificationToken before verify: %v", err)
	}

	if err := db.MarkEmailVerified(context.Background(), user.ID); err != nil {
		t.Fatalf("MarkEmailVerified: %v", err)
	}

	got, err := db.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !got.EmailVerified {
		t.Error("EmailVerified not set")
	}
	if got.VerificationToken != nil || got.VerificationExpires != nil {
		t.Error("token columns not cleared on verification")
	}

	// ...and never again after: the cleared column is the single-use guard.
	if _, err := db.GetUserByVerificationToken(context.Background(), token); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("consumed token lookup: error = %v, want ErrNotFound", err)
	}
}

func TestMarkEmailVerified_UnknownUser(t *testing.T) {
	db := newTestDB(t)

	err := db.MarkEmailVerified(context.Background(), "no-such-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSetVerificationToken_Rotates(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "rotate@example.com")
	oldToken := *user.VerificationToken

	newExpires := time.Now().Add(24 * time.Hour)
	if err := db.SetVerificationToken(context.Background(), user.ID, "fresh-token", newExpires); err != nil {
		t.Fatalf("SetVerificationToken: %v", err)
	}

	if _, err := db.GetUserByVerificationToken(context.Background(), oldToken); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("old token still resolves: %v", err)
	}
	got, err := db.GetUserByVerificationToken(context.Background(), "fresh-token")
	if err != nil {
		t.Fatalf("new token lookup: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("new token resolved to %q, want %q", got.ID, user.ID)
	}
}

func TestSetVerificationToken_UnknownUser(t *testing.T) {
	db := newTestDB(t)

	err := db.SetVerificationToken(context.Background(), "no-such-id", "t", time.Now())
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
