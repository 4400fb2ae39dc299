package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/unihub/core/internal/domain/entities"
	"github.com/unihub/core/internal/infrastructure/logger"
	"github.com/unihub/core/internal/ports"
)

// BoardService handles planning-board operations. Reads go through the
// visibility resolver (owner, linked contact, group member, task assignee);
// structural writes stay owner-only, task status moves extend to assignees.
type BoardService struct {
	tx          ports.Transactor
	boardRepo   ports.BoardRepository
	contactRepo ports.ContactRepository
	groupRepo   ports.GroupRepository
	logger      *logger.Logger
}

// NewBoardService creates a new board service
func NewBoardService(tx ports.Transactor, boardRepo ports.BoardRepository, contactRepo ports.ContactRepository, groupRepo ports.GroupRepository, logger *logger.Logger) *BoardService {
	return &BoardService{
		tx:          tx,
		boardRepo:   boardRepo,
		contactRepo: contactRepo,
		groupRepo:   groupRepo,
		logger:      logger,
	}
}

// CreateBoard creates a board with its initial columns and tasks. A linked
// contact or group must belong to the owner; task assignees must be the
// owner's contacts.
func (s *BoardService) CreateBoard(ctx context.Context, ownerID uuid.UUID, req ports.CreateBoardRequest) (*entities.Board, error) {
	if err := s.validateLinks(ctx, ownerID, req.ContactID, req.GroupID); err != nil {
		return nil, err
	}
	if err := s.validateAssignees(ctx, ownerID, req.Columns); err != nil {
		return nil, err
	}

	board := &entities.Board{
		OwnerID:   ownerID,
		Title:     req.Title,
		Status:    entities.BoardStatusActive,
		DueAt:     req.DueAt,
		ContactID: req.ContactID,
		GroupID:   req.GroupID,
		Columns:   buildColumns(req.Columns),
	}

	if err := s.boardRepo.Create(ctx, board); err != nil {
		return nil, err
	}

	s.logger.Info("Board created", "board_id", board.ID, "owner_id", ownerID, "shared", board.IsShared())
	return board, nil
}

// GetBoard returns a board the requester can see. Invisible and missing
// boards are indistinguishable to the caller.
func (s *BoardService) GetBoard(ctx context.Context, accountID uuid.UUID, id int) (*entities.Board, error) {
	visible, err := s.boardRepo.IsVisible(ctx, id, accountID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, entities.ErrBoardNotFound
	}

	return s.boardRepo.GetByID(ctx, id)
}

// ListBoards returns all boards visible to the requester, filtered by status
// or title when asked.
func (s *BoardService) ListBoards(ctx context.Context, accountID uuid.UUID, filter ports.BoardFilter) ([]*entities.Board, error) {
	return s.boardRepo.ListVisible(ctx, accountID, filter)
}

// UpdateBoard changes board metadata, status and optionally its column set.
// Only the owner may update. Closing stamps closed_at once; a closed board
// rejects column changes unless the same request reopens it.
func (s *BoardService) UpdateBoard(ctx context.Context, accountID uuid.UUID, id int, req ports.UpdateBoardRequest) (*entities.Board, error) {
	board, err := s.boardRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if board.OwnerID != accountID {
		visible, verr := s.boardRepo.IsVisible(ctx, id, accountID)
		if verr != nil {
			return nil, verr
		}
		if !visible {
			return nil, entities.ErrBoardNotFound
		}
		return nil, entities.ErrForbidden
	}

	if req.Title != nil {
		board.Title = *req.Title
	}
	if req.DueAt != nil {
		board.DueAt = req.DueAt
	}
	if req.ContactID != nil || req.GroupID != nil {
		if err := s.validateLinks(ctx, accountID, req.ContactID, req.GroupID); err != nil {
			return nil, err
		}
		if req.ContactID != nil {
			board.ContactID = req.ContactID
		}
		if req.GroupID != nil {
			board.GroupID = req.GroupID
		}
	}

	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, entities.ErrInvalidStatus
		}
		switch *req.Status {
		case entities.BoardStatusClosed:
			board.Close(time.Now())
		case entities.BoardStatusActive:
			board.Status = entities.BoardStatusActive
			board.ClosedAt = nil
		}
	}

	if req.Columns != nil {
		if board.Status == entities.BoardStatusClosed {
			return nil, entities.ErrBoardClosed
		}
		if err := s.validateAssignees(ctx, accountID, *req.Columns); err != nil {
			return nil, err
		}
		board.Columns = buildColumns(*req.Columns)
	} else {
		// Signal the repository to leave columns alone.
		board.Columns = nil
	}

	if err := s.boardRepo.Update(ctx, board); err != nil {
		return nil, err
	}

	return s.boardRepo.GetByID(ctx, id)
}

// DeleteBoard removes a board. Only the owner may delete; visible
// non-owners get a forbidden, everyone else a not-found.
func (s *BoardService) DeleteBoard(ctx context.Context, accountID uuid.UUID, id int) error {
	board, err := s.boardRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if board.OwnerID != accountID {
		visible, verr := s.boardRepo.IsVisible(ctx, id, accountID)
		if verr != nil {
			return verr
		}
		if !visible {
			return entities.ErrBoardNotFound
		}
		return entities.ErrForbidden
	}

	if err := s.boardRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Board deleted", "board_id", id, "owner_id", accountID)
	return nil
}

// UpdateTaskStatus moves a task between kanban states. The board owner and
// the task's resolved assignees may move it; other viewers may not. Done
// stamps completed_at, leaving Done clears it.
func (s *BoardService) UpdateTaskStatus(ctx context.Context, accountID uuid.UUID, boardID, taskID int, req ports.UpdateTaskStatusRequest) (*entities.Task, error) {
	board, err := s.boardRepo.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}

	owner := board.OwnerID == accountID
	if !owner {
		visible, err := s.boardRepo.IsVisible(ctx, boardID, accountID)
		if err != nil {
			return nil, err
		}
		if !visible {
			return nil, entities.ErrBoardNotFound
		}
	}

	actualBoardID, err := s.boardRepo.GetTaskBoardID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if actualBoardID != boardID {
		return nil, entities.ErrTaskNotFound
	}

	if board.Status == entities.BoardStatusClosed {
		return nil, entities.ErrBoardClosed
	}

	if !owner {
		assignee, err := s.boardRepo.IsTaskAssignee(ctx, taskID, accountID)
		if err != nil {
			return nil, err
		}
		if !assignee {
			return nil, entities.ErrForbidden
		}
	}

	task, err := s.boardRepo.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := task.SetStatus(req.Status, time.Now()); err != nil {
		return nil, err
	}

	// Status-only move: keep the assignee set as-is.
	task.AssigneeIDs = nil
	if err := s.boardRepo.UpdateTask(ctx, task); err != nil {
		return nil, err
	}

	return s.boardRepo.GetTaskByID(ctx, taskID)
}

func (s *BoardService) validateLinks(ctx context.Context, ownerID uuid.UUID, contactID, groupID *int) error {
	if contactID != nil {
		contact, err := s.contactRepo.GetByID(ctx, *contactID)
		if err != nil {
			return err
		}
		if contact.OwnerID != ownerID {
			return entities.ErrContactNotFound
		}
	}
	if groupID != nil {
		group, err := s.groupRepo.GetByID(ctx, *groupID)
		if err != nil {
			return err
		}
		if group.OwnerID != ownerID {
			return entities.ErrGroupNotFound
		}
	}
	return nil
}

func (s *BoardService) validateAssignees(ctx context.Context, ownerID uuid.UUID, columns []ports.ColumnPayload) error {
	for _, col := range columns {
		for _, task := range col.Tasks {
			for _, contactID := range task.AssigneeIDs {
				contact, err := s.contactRepo.GetByID(ctx, contactID)
				if err != nil {
					return err
				}
				if contact.OwnerID != ownerID {
					return entities.ErrContactNotFound
				}
			}
		}
	}
	return nil
}

func buildColumns(payloads []ports.ColumnPayload) []entities.Column {
	columns := make([]entities.Column, 0, len(payloads))
	for _, cp := range payloads {
		col := entities.Column{
			Title: cp.Title,
			State: cp.State,
			Tasks: make([]entities.Task, 0, len(cp.Tasks)),
		}
		if cp.ID != nil {
			col.ID = *cp.ID
		}
		for _, tp := range cp.Tasks {
			task := entities.Task{
				Title:       tp.Title,
				Description: tp.Description,
				Status:      tp.Status,
				DueDate:     tp.DueDate,
				AssigneeIDs: dedupeInts(tp.AssigneeIDs),
			}
			if tp.ID != nil {
				task.ID = *tp.ID
			}
			if task.Status == "" {
				task.Status = entities.TaskStatusPending
			}
			col.Tasks = append(col.Tasks, task)
		}
		columns = append(columns, col)
	}
	return columns
}
