package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/unihub/core/internal/application/services"
	"github.com/unihub/core/internal/infrastructure/logger"
	"github.com/unihub/core/internal/ports"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService *services.AuthService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register handles account registration
func (h *AuthHandler) Register(c echo.Context) error {
	var req ports.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	response, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Registration failed", "error", err, "email", req.Email)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusCreated, response)
}

// Login handles account login
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	response, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		h.logger.Warn("Login failed", "error", err, "email", req.Email)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, response)
}

// GoogleLogin handles sign-in with a Google ID token
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	var req ports.GoogleLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	response, err := h.authService.GoogleLogin(c.Request().Context(), req)
	if err != nil {
		h.logger.Warn("Google login failed", "error", err)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, response)
}

// RefreshToken handles token refresh
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	response, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		h.logger.Warn("Token refresh failed", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
	}

	return c.JSON(http.StatusOK, response)
}

// Logout revokes the requester's refresh tokens
func (h *AuthHandler) Logout(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	if err := h.authService.Logout(c.Request().Context(), accountID); err != nil {
		h.logger.Error("Logout failed", "error", err, "account_id", accountID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Logout failed")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// DeleteAccount removes the requester's account and everything it owns
func (h *AuthHandler) DeleteAccount(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	if err := h.authService.DeleteAccount(c.Request().Context(), accountID); err != nil {
		h.logger.Error("Account deletion failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
