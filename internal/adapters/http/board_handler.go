package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/unihub/core/internal/application/services"
	"github.com/unihub/core/internal/domain/entities"
	"github.com/unihub/core/internal/infrastructure/logger"
	"github.com/unihub/core/internal/ports"
)

// BoardHandler handles planning-board requests
type BoardHandler struct {
	boardService *services.BoardService
	logger       *logger.Logger
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(boardService *services.BoardService, logger *logger.Logger) *BoardHandler {
	return &BoardHandler{
		boardService: boardService,
		logger:       logger,
	}
}

// CreateBoard handles board creation with nested columns and tasks
func (h *BoardHandler) CreateBoard(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	var req ports.CreateBoardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	board, err := h.boardService.CreateBoard(c.Request().Context(), accountID, req)
	if err != nil {
		h.logger.Error("Create board failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusCreated, board)
}

// GetBoard handles fetching one visible board
func (h *BoardHandler) GetBoard(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	board, err := h.boardService.GetBoard(c.Request().Context(), accountID, id)
	if err != nil {
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, board)
}

// ListBoards handles listing boards visible to the requester, with optional
// status and titulo filters
func (h *BoardHandler) ListBoards(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	filter := ports.BoardFilter{}
	if status := c.QueryParam("status"); status != "" {
		boardStatus := entities.BoardStatus(status)
		if !boardStatus.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid status parameter")
		}
		filter.Status = &boardStatus
	}
	if title := c.QueryParam("titulo"); title != "" {
		filter.Title = &title
	}

	boards, err := h.boardService.ListBoards(c.Request().Context(), accountID, filter)
	if err != nil {
		h.logger.Error("List boards failed", "error", err, "account_id", accountID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, boards)
}

// UpdateBoard handles board metadata, status and column updates
func (h *BoardHandler) UpdateBoard(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateBoardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	board, err := h.boardService.UpdateBoard(c.Request().Context(), accountID, id, req)
	if err != nil {
		h.logger.Error("Update board failed", "error", err, "board_id", id)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, board)
}

// DeleteBoard handles board deletion
func (h *BoardHandler) DeleteBoard(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.boardService.DeleteBoard(c.Request().Context(), accountID, id); err != nil {
		h.logger.Error("Delete board failed", "error", err, "board_id", id)
		return domainHTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// UpdateTaskStatus moves one task between kanban states
func (h *BoardHandler) UpdateTaskStatus(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	boardID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	taskID, err := pathID(c, "taskId")
	if err != nil {
		return err
	}

	var req ports.UpdateTaskStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.boardService.UpdateTaskStatus(c.Request().Context(), accountID, boardID, taskID, req)
	if err != nil {
		h.logger.Warn("Update task status failed", "error", err, "board_id", boardID, "task_id", taskID)
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, task)
}
