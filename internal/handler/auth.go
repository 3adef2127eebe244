package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/sakif/walkonsongs/internal/model"
	"github.com/sakif/walkonsongs/internal/service"
)

// AuthHandler exposes registration, email verification, login, and the
// resend-verification endpoint.
type AuthHandler struct {
	auth     *service.AuthService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		validate: newValidator(),
		logger:   logger,
	}
}

type registerRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
}

type registerResponse struct {
	Response
	UserID string `json:"userId"`
}

// HandleRegister creates a new, unverified account.
//
// HTTP: POST /api/auth/register
// 201 {userId} | 400 validation or duplicate email | 500 (store or SMTP)
//
// The validator catches missing/misshapen fields; the service re-checks
// and adds the password-policy complaints, so the client always gets the
// complete list of problems in one round trip.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.logger.Warn("register: bad JSON", slog.String("error", err.Error()))
		writeError(w, r, validationError(err))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, validationError(err))
		return
	}

	userID, err := h.auth.Register(r.Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, registerResponse{
		Response: OK("User registered successfully. Please check your email to verify your account."),
		UserID:   userID,
	})
}

// HandleVerifyEmail consumes a verification token.
//
// HTTP: GET /api/auth/verify-email?token=...
// 200 | 400 missing, unknown, or expired token
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	if err := h.auth.VerifyEmail(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK,
		OK("Email verified successfully. You can now login."))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Response
	Token string              `json:"token"`
	User  model.PublicProfile `json:"user"`
}

// HandleLogin checks credentials and issues the session token.
//
// HTTP: POST /api/auth/login
// 200 {token, user} | 400 validation | 401 bad credentials or unverified
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.logger.Warn("login: bad JSON", slog.String("error", err.Error()))
		writeError(w, r, validationError(err))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, validationError(err))
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, loginResponse{
		Response: OK("Login successful"),
		Token:    result.Token,
		User:     result.User,
	})
}

type resendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleResendVerification re-issues a verification email for an
// unverified account.
//
// HTTP: POST /api/auth/resend-verification
// Always 200 for well-formed requests — the response never reveals
// whether the address has an account or whether it is already verified.
func (h *AuthHandler) HandleResendVerification(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.logger.Warn("resend-verification: bad JSON", slog.String("error", err.Error()))
		writeError(w, r, validationError(err))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, validationError(err))
		return
	}

	if err := h.auth.ResendVerification(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK,
		OK("If an unverified account exists for this email, a new verification link has been sent."))
}
