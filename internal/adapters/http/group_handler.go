package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/unihub/core/internal/application/services"
	"github.com/unihub/core/internal/infrastructure/logger"
	"github.com/unihub/core/internal/ports"
)

// GroupHandler handles contact-group requests
type GroupHandler struct {
	groupService *services.GroupService
	logger       *logger.Logger
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groupService *services.GroupService, logger *logger.Logger) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
		logger:       logger,
	}
}

// CreateGroup handles group creation
func (h *GroupHandler) CreateGroup(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	var req ports.CreateGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	group, err := h.groupService.CreateGroup(c.Request().Context(), accountID, req)
	if err != nil {
		h.logger.Error("Create group failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusCreated, group)
}

// GetGroup handles fetching one group
func (h *GroupHandler) GetGroup(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	group, err := h.groupService.GetGroup(c.Request().Context(), accountID, id)
	if err != nil {
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, group)
}

// ListGroups handles listing the requester's groups
func (h *GroupHandler) ListGroups(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	groups, err := h.groupService.ListGroups(c.Request().Context(), accountID)
	if err != nil {
		h.logger.Error("List groups failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, groups)
}

// SearchGroups handles name search over the requester's groups
func (h *GroupHandler) SearchGroups(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	groups, err := h.groupService.SearchGroups(c.Request().Context(), accountID, c.QueryParam("nome"))
	if err != nil {
		h.logger.Error("Search groups failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, groups)
}

// UpdateGroup handles group update
func (h *GroupHandler) UpdateGroup(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	group, err := h.groupService.UpdateGroup(c.Request().Context(), accountID, id, req)
	if err != nil {
		h.logger.Error("Update group failed", "error", err, "group_id", id)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, group)
}

// DeleteGroup handles group deletion
func (h *GroupHandler) DeleteGroup(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.groupService.DeleteGroup(c.Request().Context(), accountID, id); err != nil {
		h.logger.Error("Delete group failed", "error", err, "group_id", id)
		return domainHTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// LeaveGroup removes the requester from a group they are a member of
func (h *GroupHandler) LeaveGroup(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.groupService.LeaveGroup(c.Request().Context(), accountID, id); err != nil {
		h.logger.Warn("Leave group failed", "error", err, "group_id", id, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
