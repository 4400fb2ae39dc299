package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/unihub/core/internal/application/services"
	"github.com/unihub/core/internal/infrastructure/logger"
	"github.com/unihub/core/internal/ports"
)

// CalendarHandler handles external calendar link requests
type CalendarHandler struct {
	calendarService *services.CalendarService
	logger          *logger.Logger
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(calendarService *services.CalendarService, logger *logger.Logger) *CalendarHandler {
	return &CalendarHandler{
		calendarService: calendarService,
		logger:          logger,
	}
}

// Status returns the requester's calendar connection state
func (h *CalendarHandler) Status(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	link, err := h.calendarService.Status(c.Request().Context(), accountID)
	if err != nil {
		h.logger.Error("Calendar status failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, link)
}

// Connect links the requester's external calendar
func (h *CalendarHandler) Connect(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	var req ports.ConnectCalendarRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	link, err := h.calendarService.Connect(c.Request().Context(), accountID, req)
	if err != nil {
		h.logger.Error("Calendar connect failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, link)
}

// Disconnect clears the requester's calendar link
func (h *CalendarHandler) Disconnect(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	if err := h.calendarService.Disconnect(c.Request().Context(), accountID); err != nil {
		h.logger.Error("Calendar disconnect failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
