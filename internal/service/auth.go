// Package service contains the business logic layer.
//
// Handlers parse HTTP and render the envelope; services enforce the rules
// (validation, credential checks, ownership) and return domain errors from
// the apperror package; repositories do the SQL. Services depend on
// interfaces only, so every test here runs against in-memory fakes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/walkonsongs/internal/apperror"
	"github.com/sakif/walkonsongs/internal/auth"
	"github.com/sakif/walkonsongs/internal/model"
	"github.com/sakif/walkonsongs/internal/repository"
)

// Mailer is the outbound-email dependency. The real implementation is
// mail.SMTPMailer; tests inject a recorder.
type Mailer interface {
	SendVerificationEmail(to, firstName, verifyURL string) error
}

// AuthService implements registration, email verification, and login.
type AuthService struct {
	users           repository.UserRepository
	tokens          *auth.TokenService
	passwords       *auth.PasswordService
	mailer          Mailer
	clientURL       string        // base URL for links in emails
	verificationTTL time.Duration // how long a verification token lives
	logger          *slog.Logger
}

// NewAuthService wires an AuthService. clientURL is the client app's base
// URL; the verification link is {clientURL}/verify-email?token=...
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	mailer Mailer,
	clientURL string,
	verificationTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	if verificationTTL <= 0 {
		verificationTTL = 24 * time.Hour
	}
	return &AuthService{
		users:           users,
		tokens:          tokens,
		passwords:       passwords,
		mailer:          mailer,
		clientURL:       strings.TrimRight(clientURL, "/"),
		verificationTTL: verificationTTL,
		logger:          logger,
	}
}

// RegisterInput is the registration request after JSON decoding.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// LoginResult bundles the issued session token with the public profile.
type LoginResult struct {
	Token string
	User  model.PublicProfile
}

// Register creates an unverified account and sends the verification email.
//
// Every failing field is reported, not just the first — the client renders
// them next to the form inputs. The password is bcrypt-hashed before the
// row is written; the plaintext never leaves this function.
//
// If the email send fails the error still surfaces to the caller as a
// server error even though the row is committed; ResendVerification exists
// so such an account is not stranded.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	var fields []apperror.FieldError

	if strings.TrimSpace(in.FirstName) == "" {
		fields = append(fields, apperror.FieldError{Field: "firstName", Message: "First name is required"})
	}
	if strings.TrimSpace(in.LastName) == "" {
		fields = append(fields, apperror.FieldError{Field: "lastName", Message: "Last name is required"})
	}

	email, err := NormalizeEmail(in.Email)
	if err != nil {
		fields = append(fields, apperror.FieldError{Field: "email", Message: "Valid email is required"})
	}

	for _, problem := range auth.ValidatePolicy(in.Password) {
		fields = append(fields, apperror.FieldError{Field: "password", Message: problem})
	}

	if len(fields) > 0 {
		return "", apperror.ValidationErrors(fields)
	}

	// Fast-path duplicate check. The UNIQUE constraint still backstops
	// concurrent registrations (see sqlite.CreateUser).
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return "", apperror.Conflict("User with this email already exists")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return "", fmt.Errorf("service/auth: checking existing email: %w", err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}

	token := uuid.NewString()
	expires := time.Now().Add(s.verificationTTL)

	user := &model.User{
		FirstName:           strings.TrimSpace(in.FirstName),
		LastName:            strings.TrimSpace(in.LastName),
		Email:               email,
		PasswordHash:        hash,
		EmailVerified:       false,
		VerificationToken:   &token,
		VerificationExpires: &expires,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return "", err
		}
		return "", fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	if err := s.sendVerification(user, token); err != nil {
		// The row is committed; the caller sees a server error and the
		// account recovers through ResendVerification.
		s.logger.Error("verification email failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("service/auth: sending verification email: %w", err)
	}

	return user.ID, nil
}

// VerifyEmail consumes a verification token.
//
// The lookup is by exact token match; expiry is checked against the stored
// deadline; success clears the token, so a second visit with the same
// link fails the lookup.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return apperror.ValidationFailed("token", "Verification token is required")
	}

	user, err := s.users.GetUserByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.ValidationFailed("token", "Invalid verification token")
		}
		return fmt.Errorf("service/auth: looking up verification token: %w", err)
	}

	if user.VerificationExpires == nil || time.Now().After(*user.VerificationExpires) {
		return apperror.ValidationFailed("token", "Verification token has expired")
	}

	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("service/auth: marking user %s verified: %w", user.ID, err)
	}

	s.logger.Info("email verified", slog.String("userID", user.ID))
	return nil
}

// Login checks credentials and issues a session token.
//
// Unknown email and wrong password return the same generic message so the
// endpoint cannot be used to probe which addresses have accounts. The
// unverified case is the one deliberate exception — the user proved
// nothing yet, but they typed their own email.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, apperror.ValidationFailed("email", "Valid email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "Password is required")
	}

	user, err := s.users.GetUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("Invalid email or password")
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if !user.EmailVerified {
		return nil, apperror.Unauthorized("Please verify your email before logging in")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("Invalid email or password")
	}

	token, err := s.tokens.Generate(auth.Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating session token: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &LoginResult{Token: token, User: user.Public()}, nil
}

// ResendVerification issues a fresh token for an unverified account and
// re-sends the email.
//
// The method is intentionally quiet about outcomes: unknown addresses and
// already-verified accounts return nil just like a successful resend, so
// the endpoint leaks nothing about who has an account. Only infrastructure
// failures (store, SMTP) surface as errors.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return apperror.ValidationFailed("email", "Valid email is required")
	}

	user, err := s.users.GetUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("service/auth: looking up user: %w", err)
	}
	if user.EmailVerified {
		return nil
	}

	token := uuid.NewString()
	expires := time.Now().Add(s.verificationTTL)
	if err := s.users.SetVerificationToken(ctx, user.ID, token, expires); err != nil {
		return fmt.Errorf("service/auth: rotating verification token: %w", err)
	}

	if err := s.sendVerification(user, token); err != nil {
		return fmt.Errorf("service/auth: resending verification email: %w", err)
	}

	s.logger.Info("verification email resent", slog.String("userID", user.ID))
	return nil
}

func (s *AuthService) sendVerification(user *model.User, token string) error {
	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", s.clientURL, token)
	return s.mailer.SendVerificationEmail(user.Email, user.FirstName, verifyURL)
}

// NormalizeEmail lowercases and trims an email address and rejects
// syntactically invalid ones. All storage and lookups use the normalized
// form, which is what makes the email UNIQUE constraint case-insensitive
// in practice.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("empty email")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("invalid email %q", email)
	}
	return email, nil
}
