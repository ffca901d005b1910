package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"portal-session-service/app/domain"
	"portal-session-service/app/port"
	"portal-session-service/app/utils/validator"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	auth      port.AuthOperations
	validator *validator.Validator
	logger    *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth port.AuthOperations, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:      auth,
		validator: validator.New(),
		logger:    logger,
	}
}

// Login signs in with email and password
// @Summary Sign in
// @Description Authenticate with email and password and establish a session
// @Tags authentication
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} port.LoginResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} port.LoginResult
// @Failure 429 {object} port.LoginResult
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error("failed to bind login request",
			"error", err,
			"content_type", c.Request().Header.Get("Content-Type"))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Details: err.Error(),
		})
	}

	result := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if !result.Success {
		return c.JSON(statusForAuthError(result.Error), result)
	}

	h.logger.Info("login succeeded", "role", result.Role, "ip", c.RealIP())
	return c.JSON(http.StatusOK, result)
}

// Logout ends the current session
// @Summary Sign out
// @Description Clear local session state and revoke the provider session
// @Tags authentication
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /v1/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.auth.Logout(c.Request().Context())

	// Local state is cleared unconditionally; there is no failure mode
	// worth surfacing to the caller.
	return c.JSON(http.StatusOK, SuccessResponse{
		Message: "signed out",
	})
}

// SignUp registers a new account
// @Summary Sign up
// @Description Register a new account; a confirmation email completes it
// @Tags authentication
// @Accept json
// @Produce json
// @Param body body SignUpRequest true "Registration details"
// @Success 201 {object} port.SignUpResult
// @Failure 400 {object} ErrorResponse
// @Router /v1/auth/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req SignUpRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error("failed to bind signup request",
			"error", err,
			"content_type", c.Request().Header.Get("Content-Type"))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Details: err.Error(),
		})
	}

	result := h.auth.SignUp(c.Request().Context(), req.Email, req.Password, req.DisplayName)
	if !result.Success {
		return c.JSON(statusForAuthError(result.Error), result)
	}

	h.logger.Info("signup accepted", "ip", c.RealIP())
	return c.JSON(http.StatusCreated, result)
}

// ResetPassword requests a password reset email
// @Summary Request password reset
// @Description Send a password reset email; the response never reveals
// @Description whether the account exists
// @Tags authentication
// @Accept json
// @Produce json
// @Param body body ResetPasswordRequest true "Account email"
// @Success 202 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /v1/auth/password-reset [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Details: err.Error(),
		})
	}

	message := h.auth.ResetPassword(c.Request().Context(), req.Email)
	return c.JSON(http.StatusAccepted, SuccessResponse{
		Message: message,
	})
}

// UpdateProfile updates the signed-in user's profile
// @Summary Update profile
// @Description Apply a partial update to the current profile
// @Tags profile
// @Accept json
// @Produce json
// @Param body body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} domain.Profile
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} domain.AuthError
// @Router /v1/profile [patch]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Details: err.Error(),
		})
	}

	profile, authErr := h.auth.UpdateProfile(c.Request().Context(), domain.ProfileUpdate{
		DisplayName:    req.DisplayName,
		Phone:          req.Phone,
		OrganizationID: req.OrganizationID,
	})
	if authErr != nil {
		return c.JSON(statusForAuthError(authErr), authErr)
	}

	return c.JSON(http.StatusOK, profile)
}

// Request/Response types
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignUpRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,max=200"`
}

type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type UpdateProfileRequest struct {
	DisplayName    *string    `json:"display_name,omitempty" validate:"omitempty,max=200"`
	Phone          *string    `json:"phone,omitempty" validate:"omitempty,phone"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// statusForAuthError maps normalized auth error codes to HTTP status.
func statusForAuthError(authErr *domain.AuthError) int {
	if authErr == nil {
		return http.StatusInternalServerError
	}
	switch authErr.Code {
	case domain.ErrCodeInvalidCredentials, domain.ErrCodeEmailNotConfirmed:
		return http.StatusUnauthorized
	case domain.ErrCodeIdentityRequired:
		return http.StatusUnauthorized
	case domain.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case domain.ErrCodeSignUpFailed:
		return http.StatusBadRequest
	case domain.ErrCodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
