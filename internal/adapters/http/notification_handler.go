package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/unihub/core/internal/application/services"
	"github.com/unihub/core/internal/infrastructure/logger"
	"github.com/unihub/core/internal/ports"
)

// NotificationHandler handles notification and preference requests
type NotificationHandler struct {
	notificationService *services.NotificationService
	logger              *logger.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService, logger *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// ListNotifications lists the requester's notifications
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	filter := ports.NotificationFilter{}
	if unread := c.QueryParam("unread"); unread != "" {
		v, err := strconv.ParseBool(unread)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid unread parameter")
		}
		filter.UnreadOnly = v
	}
	if pending := c.QueryParam("interaction_pending"); pending != "" {
		v, err := strconv.ParseBool(pending)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid interaction_pending parameter")
		}
		filter.InteractionPending = &v
	}

	notifications, err := h.notificationService.ListNotifications(c.Request().Context(), accountID, filter)
	if err != nil {
		h.logger.Error("List notifications failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, notifications)
}

// MarkRead marks one notification as read
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.notificationService.MarkRead(c.Request().Context(), accountID, id); err != nil {
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Notification marked as read"})
}

// GetPreferences returns the requester's reminder configuration
func (h *NotificationHandler) GetPreferences(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	prefs, err := h.notificationService.GetPreferences(c.Request().Context(), accountID)
	if err != nil {
		h.logger.Error("Get notification preferences failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, prefs)
}

// UpdatePreferences replaces reminder lead times per priority
func (h *NotificationHandler) UpdatePreferences(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	var req ports.UpdatePreferencesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	prefs, err := h.notificationService.UpdatePreferences(c.Request().Context(), accountID, req)
	if err != nil {
		h.logger.Error("Update notification preferences failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, prefs)
}
