package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/unihub/core/internal/application/services"
	"github.com/unihub/core/internal/infrastructure/logger"
	"github.com/unihub/core/internal/ports"
)

// ContactHandler handles contact and invitation requests
type ContactHandler struct {
	contactService *services.ContactService
	logger         *logger.Logger
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contactService *services.ContactService, logger *logger.Logger) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		logger:         logger,
	}
}

// CreateContact handles contact creation
func (h *ContactHandler) CreateContact(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	var req ports.CreateContactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	contact, err := h.contactService.CreateContact(c.Request().Context(), accountID, req)
	if err != nil {
		h.logger.Error("Create contact failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusCreated, contact)
}

// ListContacts handles listing the requester's contacts
func (h *ContactHandler) ListContacts(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	contacts, err := h.contactService.ListContacts(c.Request().Context(), accountID)
	if err != nil {
		h.logger.Error("List contacts failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, contacts)
}

// SearchContacts handles name search over the requester's contacts
func (h *ContactHandler) SearchContacts(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	contacts, err := h.contactService.SearchContacts(c.Request().Context(), accountID, c.QueryParam("nome"))
	if err != nil {
		h.logger.Error("Search contacts failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, contacts)
}

// UpdateContact handles contact update
func (h *ContactHandler) UpdateContact(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateContactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	contact, err := h.contactService.UpdateContact(c.Request().Context(), accountID, id, req)
	if err != nil {
		h.logger.Error("Update contact failed", "error", err, "contact_id", id)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, contact)
}

// DeleteContact handles contact deletion
func (h *ContactHandler) DeleteContact(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.contactService.DeleteContact(c.Request().Context(), accountID, id); err != nil {
		h.logger.Error("Delete contact failed", "error", err, "contact_id", id)
		return domainHTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListPendingInvitations lists invitations waiting on the requester
func (h *ContactHandler) ListPendingInvitations(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	contacts, err := h.contactService.ListPendingInvitations(c.Request().Context(), accountID, c.QueryParam("email"))
	if err != nil {
		h.logger.Error("List pending invitations failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, contacts)
}

// AcceptInvitation confirms a pending invitation
func (h *ContactHandler) AcceptInvitation(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	contact, err := h.contactService.AcceptInvitation(c.Request().Context(), accountID, id)
	if err != nil {
		h.logger.Warn("Accept invitation failed", "error", err, "contact_id", id, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, contact)
}

// RejectInvitation declines a pending invitation
func (h *ContactHandler) RejectInvitation(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.contactService.RejectInvitation(c.Request().Context(), accountID, id); err != nil {
		h.logger.Warn("Reject invitation failed", "error", err, "contact_id", id, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Invitation rejected"})
}
