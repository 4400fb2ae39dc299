package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/unihub/core/internal/domain/entities"
)

// getAccountIDFromContext returns the authenticated account id the auth
// middleware stored on the request.
func getAccountIDFromContext(c echo.Context) uuid.UUID {
	account := c.Get("account_id")
	if account == nil {
		return uuid.Nil
	}

	if accountStr, ok := account.(string); ok {
		accountID, _ := uuid.Parse(accountStr)
		return accountID
	}

	return uuid.Nil
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name+" parameter")
	}
	return id, nil
}

// domainHTTPError maps sentinel domain errors to HTTP status codes. Unmapped
// errors fall through as 500.
func domainHTTPError(err error) error {
	switch {
	case errors.Is(err, entities.ErrAccountNotFound),
		errors.Is(err, entities.ErrContactNotFound),
		errors.Is(err, entities.ErrGroupNotFound),
		errors.Is(err, entities.ErrBoardNotFound),
		errors.Is(err, entities.ErrColumnNotFound),
		errors.Is(err, entities.ErrTaskNotFound),
		errors.Is(err, entities.ErrNotificationNotFound),
		errors.Is(err, entities.ErrCourseNotFound),
		errors.Is(err, entities.ErrInstitutionNotFound),
		errors.Is(err, entities.ErrCategoryNotFound),
		errors.Is(err, entities.ErrAbsenceNotFound),
		errors.Is(err, entities.ErrAssessmentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, entities.ErrInvalidCredentials),
		errors.Is(err, entities.ErrPasswordNotSet):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, entities.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, entities.ErrEmailTaken),
		errors.Is(err, entities.ErrDuplicateContact),
		errors.Is(err, entities.ErrInvitationResolved),
		errors.Is(err, entities.ErrInvitationPending),
		errors.Is(err, entities.ErrNotGroupMember),
		errors.Is(err, entities.ErrBoardClosed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, entities.ErrSelfContact),
		errors.Is(err, entities.ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}

// Request/Response types

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
