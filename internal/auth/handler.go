package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/redmonkez12/accounts-api/internal/httputil"
	"github.com/redmonkez12/accounts-api/internal/logging"
)

// Handler contains HTTP handlers for the account endpoints
type Handler struct {
	service   *Service
	validator *Validator
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: NewValidator(),
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued bearer token
type LoginResponse struct {
	Token string `json:"token"`
}

// SendResetPasswordRequest represents the password reset link request
type SendResetPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

// ResetPasswordRequest represents the password reset confirmation
type ResetPasswordRequest struct {
	GUID     string `json:"guid" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register handles account registration
// @Summary      Register a new account
// @Description  Create an account and return its profile. Failures carry a plain-text code.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Account details"
// @Success      200 {object} user.Profile
// @Failure      400 {string} string "missing_fields, invalid_names, invalid_email, invalid_password or email_taken"
// @Failure      500 {string} string "internal_error"
// @Router       /users/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	profile, err := h.service.Register(r.Context(), RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		h.respondServiceError(w, r, "registration failed", err)
		return
	}

	httputil.RespondJSON(w, r, profile, http.StatusOK)
}

// Login handles user login
// @Summary      Log in
// @Description  Exchange email and password for a bearer token
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} LoginResponse
// @Failure      400 {string} string "missing_fields"
// @Failure      401 "Unknown account or wrong password"
// @Failure      500 {string} string "internal_error"
// @Router       /users/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondServiceError(w, r, "login failed", err)
		return
	}

	httputil.RespondJSON(w, r, LoginResponse{Token: token}, http.StatusOK)
}

// SendResetPassword handles password reset link requests
// @Summary      Request a password reset link
// @Description  Mail a link embedding the account's reset token
// @Tags         users
// @Accept       json
// @Param        request body SendResetPasswordRequest true "Email address"
// @Success      200
// @Failure      400 {string} string "missing_fields or user_not_found"
// @Failure      500 {string} string "internal_error"
// @Router       /users/send-reset-password [post]
func (h *Handler) SendResetPassword(w http.ResponseWriter, r *http.Request) {
	var req SendResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.respondServiceError(w, r, "password reset request failed", err)
		return
	}

	httputil.RespondStatus(w, http.StatusOK)
}

// ResetPassword handles password reset with a token
// @Summary      Reset password
// @Description  Set a new password using the token from the reset link
// @Tags         users
// @Accept       json
// @Param        request body ResetPasswordRequest true "Reset token and new password"
// @Success      200
// @Failure      400 {string} string "missing_fields or invalid_password"
// @Failure      404 "Unknown or consumed token"
// @Failure      500 {string} string "internal_error"
// @Router       /users/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.GUID, req.Password); err != nil {
		h.respondServiceError(w, r, "password reset failed", err)
		return
	}

	httputil.RespondStatus(w, http.StatusOK)
}

// Current returns the authenticated account
// @Summary      Current account
// @Description  Return the profile of the account the bearer token belongs to
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} user.Profile
// @Failure      401 "Missing or invalid token"
// @Router       /users/current [get]
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	profile, ok := GetProfileFromContext(r.Context())
	if !ok {
		httputil.RespondStatus(w, http.StatusUnauthorized)
		return
	}

	httputil.RespondJSON(w, r, profile, http.StatusOK)
}

// decode reads the JSON body into dst and checks its required fields,
// answering 400 missing_fields when either step fails.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	logger := logging.GetLoggerFromContext(r.Context())

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warn("invalid request body", "error", err.Error())
		httputil.RespondCode(w, CodeMissingFields, http.StatusBadRequest)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		logger.Warn("request is missing fields", "error", err.Error())
		httputil.RespondCode(w, CodeMissingFields, http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logger := logging.GetLoggerFromContext(r.Context())

	switch {
	case errors.Is(err, ErrInvalidNames):
		logger.Warn(msg, "code", CodeInvalidNames)
		httputil.RespondCode(w, CodeInvalidNames, http.StatusBadRequest)
	case errors.Is(err, ErrInvalidEmail):
		logger.Warn(msg, "code", CodeInvalidEmail)
		httputil.RespondCode(w, CodeInvalidEmail, http.StatusBadRequest)
	case errors.Is(err, ErrInvalidPassword):
		logger.Warn(msg, "code", CodeInvalidPassword)
		httputil.RespondCode(w, CodeInvalidPassword, http.StatusBadRequest)
	case errors.Is(err, ErrEmailTaken):
		logger.Warn(msg, "code", CodeEmailTaken)
		httputil.RespondCode(w, CodeEmailTaken, http.StatusBadRequest)
	case errors.Is(err, ErrUserNotFound):
		logger.Warn(msg, "code", CodeUserNotFound)
		httputil.RespondCode(w, CodeUserNotFound, http.StatusBadRequest)
	case errors.Is(err, ErrUnauthorized):
		logger.Warn(msg, "reason", "unauthorized")
		httputil.RespondStatus(w, http.StatusUnauthorized)
	case errors.Is(err, ErrResetTokenNotFound):
		logger.Warn(msg, "reason", "reset token not found")
		httputil.RespondStatus(w, http.StatusNotFound)
	default:
		logger.Error(msg, "error", err.Error())
		httputil.RespondCode(w, CodeInternalError, http.StatusInternalServerError)
	}
}
