package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/unihub/core/internal/domain/entities"
	"github.com/unihub/core/internal/ports"
)

type boardFixture struct {
	contacts *fakeContactRepo
	groups   *fakeGroupRepo
	boards   *fakeBoardRepo
	service  *BoardService
}

func newBoardFixture(t *testing.T) *boardFixture {
	t.Helper()
	f := &boardFixture{
		contacts: newFakeContactRepo(),
		groups:   newFakeGroupRepo(),
	}
	f.boards = newFakeBoardRepo(f.contacts, f.groups)
	f.service = NewBoardService(fakeTransactor{}, f.boards, f.contacts, f.groups, testLogger(t))
	return f
}

// seedContact creates a confirmed contact owned by ownerID, resolved to
// accountID when non-nil.
func (f *boardFixture) seedContact(t *testing.T, ownerID uuid.UUID, accountID *uuid.UUID, email string) *entities.Contact {
	t.Helper()
	contact := &entities.Contact{
		OwnerID:   ownerID,
		Name:      email,
		Email:     email,
		AccountID: accountID,
	}
	if err := f.contacts.Create(context.Background(), contact); err != nil {
		t.Fatalf("seed contact %s: %v", email, err)
	}
	return contact
}

func TestBoardVisibility(t *testing.T) {
	f := newBoardFixture(t)
	ctx := context.Background()

	owner := uuid.New()
	linkedAcct := uuid.New()
	memberAcct := uuid.New()
	assigneeAcct := uuid.New()
	stranger := uuid.New()

	linked := f.seedContact(t, owner, &linkedAcct, "linked@example.com")
	member := f.seedContact(t, owner, &memberAcct, "member@example.com")
	assignee := f.seedContact(t, owner, &assigneeAcct, "assignee@example.com")

	group := &entities.Group{OwnerID: owner, Name: "Estudo", MemberIDs: []int{member.ID}}
	if err := f.groups.Create(ctx, group); err != nil {
		t.Fatalf("seed group: %v", err)
	}

	board, err := f.service.CreateBoard(ctx, owner, ports.CreateBoardRequest{
		Title:     "TCC",
		ContactID: &linked.ID,
		GroupID:   &group.ID,
		Columns: []ports.ColumnPayload{{
			Title: "A fazer",
			Tasks: []ports.TaskPayload{{Title: "Revisar capítulo", AssigneeIDs: []int{assignee.ID}}},
		}},
	})
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}

	tests := []struct {
		name    string
		account uuid.UUID
		visible bool
	}{
		{"owner", owner, true},
		{"linked contact", linkedAcct, true},
		{"group member", memberAcct, true},
		{"task assignee", assigneeAcct, true},
		{"stranger", stranger, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.GetBoard(ctx, tt.account, board.ID)
			if tt.visible && err != nil {
				t.Fatalf("expected board visible, got %v", err)
			}
			if !tt.visible && !errors.Is(err, entities.ErrBoardNotFound) {
				t.Fatalf("invisible board should be indistinguishable from a missing one, got %v", err)
			}
		})
	}
}

func TestBoardVisibilityDropsWithGroupMembership(t *testing.T) {
	f := newBoardFixture(t)
	ctx := context.Background()

	owner := uuid.New()
	memberAcct := uuid.New()

	member := f.seedContact(t, owner, &memberAcct, "member@example.com")
	group := &entities.Group{OwnerID: owner, Name: "Estudo", MemberIDs: []int{member.ID}}
	if err := f.groups.Create(ctx, group); err != nil {
		t.Fatalf("seed group: %v", err)
	}

	board, err := f.service.CreateBoard(ctx, owner, ports.CreateBoardRequest{
		Title:   "Compartilhado",
		GroupID: &group.ID,
	})
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}

	if _, err := f.service.GetBoard(ctx, memberAcct, board.ID); err != nil {
		t.Fatalf("group member should see the board: %v", err)
	}

	if err := f.groups.RemoveMember(ctx, group.ID, member.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}

	if _, err := f.service.GetBoard(ctx, memberAcct, board.ID); !errors.Is(err, entities.ErrBoardNotFound) {
		t.Fatalf("visibility should drop with the membership, got %v", err)
	}
	boards, err := f.service.ListBoards(ctx, memberAcct, ports.BoardFilter{})
	if err != nil {
		t.Fatalf("ListBoards: %v", err)
	}
	if len(boards) != 0 {
		t.Fatalf("list should exclude the board after removal, got %d", len(boards))
	}
}

func TestListBoardsFiltersByStatus(t *testing.T) {
	f := newBoardFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	active, err := f.service.CreateBoard(ctx, owner, ports.CreateBoardRequest{Title: "Ativo"})
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	closedBoard, err := f.service.CreateBoard(ctx, owner, ports.CreateBoardRequest{Title: "Fechado"})
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	closed := entities.BoardStatusClosed
	if _, err := f.service.UpdateBoard(ctx, owner, closedBoard.ID, ports.UpdateBoardRequest{Status: &closed}); err != nil {
		t.Fatalf("close board: %v", err)
	}

	activeStatus := entities.BoardStatusActive
	boards, err := f.service.ListBoards(ctx, owner, ports.BoardFilter{Status: &activeStatus})
	if err != nil {
		t.Fatalf("ListBoards: %v", err)
	}
	if len(boards) != 1 || boards[0].ID != active.ID {
		t.Fatalf("expected only the active board, got %d boards", len(boards))
	}
}

func TestUpdateBoardAuthorization(t *testing.T) {
	f := newBoardFixture(t)
	ctx := context.Background()

	owner := uuid.New()
	viewerAcct := uuid.New()
	stranger := uuid.New()

	viewer := f.seedContact(t, owner, &viewerAcct, "viewer@example.com")
	board, err := f.service.CreateBoard(ctx, owner, ports.CreateBoardRequest{
		Title:     "Compartilhado",
		ContactID: &viewer.ID,
	})
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}

	title := "Novo título"
	if _, err := f.service.UpdateBoard(ctx, viewerAcct, board.ID, ports.UpdateBoardRequest{Title: &title}); !errors.Is(err, entities.ErrForbidden) {
		t.Fatalf("visible non-owner should get forbidden, got %v", err)
	}
	if _, err := f.service.UpdateBoard(ctx, stranger, board.ID, ports.UpdateBoardRequest{Title: &title}); !errors.Is(err, entities.ErrBoardNotFound) {
		t.Fatalf("stranger should get not-found, got %v", err)
	}
	if err := f.service.DeleteBoard(ctx, viewerAcct, board.ID); !errors.Is(err, entities.ErrForbidden) {
		t.Fatalf("visible non-owner delete should get forbidden, got %v", err)
	}
}

func TestUpdateBoardCloseAndReopen(t *testing.T) {
	f := newBoardFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	board, err := f.service.CreateBoard(ctx, owner, ports.CreateBoardRequest{
		Title:   "Semestre",
		Columns: []ports.ColumnPayload{{Title: "A fazer"}},
	})
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}

	closed := entities.BoardStatusClosed
	updated, err := f.service.UpdateBoard(ctx, owner, board.ID, ports.UpdateBoardRequest{Status: &closed})
	if err != nil {
		t.Fatalf("close board: %v", err)
	}
	if updated.Status != entities.BoardStatusClosed || updated.ClosedAt == nil {
		t.Fatal("closing should set status and stamp closed_at")
	}

	columns := []ports.ColumnPayload{{Title: "Feito"}}
	if _, err := f.service.UpdateBoard(ctx, owner, board.ID, ports.UpdateBoardRequest{Columns: &columns}); !errors.Is(err, entities.ErrBoardClosed) {
		t.Fatalf("closed board should reject column changes, got %v", err)
	}

	active := entities.BoardStatusActive
	reopened, err := f.service.UpdateBoard(ctx, owner, board.ID, ports.UpdateBoardRequest{Status: &active})
	if err != nil {
		t.Fatalf("reopen board: %v", err)
	}
	if reopened.Status != entities.BoardStatusActive || reopened.ClosedAt != nil {
		t.Fatal("reopening should clear closed_at")
	}
}

func TestUpdateBoardOmittedColumnsLeftUntouched(t *testing.T) {
	f := newBoardFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	board, err := f.service.CreateBoard(ctx, owner, ports.CreateBoardRequest{
		Title: "Quadro",
		Columns: []ports.ColumnPayload{
			{Title: "A fazer", Tasks: []ports.TaskPayload{{Title: "Tarefa"}}},
			{Title: "Feito"},
		},
	})
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}

	title := "Renomeado"
	updated, err := f.service.UpdateBoard(ctx, owner, board.ID, ports.UpdateBoardRequest{Title: &title})
	if err != nil {
		t.Fatalf("UpdateBoard: %v", err)
	}
	if updated.Title != "Renomeado" {
		t.Fatalf("title not applied, got %q", updated.Title)
	}
	if len(updated.Columns) != 2 || len(updated.Columns[0].Tasks) != 1 {
		t.Fatal("metadata-only update must leave columns and tasks untouched")
	}
}

func TestCreateBoardRejectsForeignLinks(t *testing.T) {
	f := newBoardFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	other := uuid.New()

	foreign := f.seedContact(t, other, nil, "alheio@example.com")

	_, err := f.service.CreateBoard(ctx, owner, ports.CreateBoardRequest{
		Title:     "Inválido",
		ContactID: &foreign.ID,
	})
	if !errors.Is(err, entities.ErrContactNotFound) {
		t.Fatalf("linking another account's contact should fail, got %v", err)
	}

	_, err = f.service.CreateBoard(ctx, owner, ports.CreateBoardRequest{
		Title: "Inválido",
		Columns: []ports.ColumnPayload{{
			Title: "A fazer",
			Tasks: []ports.TaskPayload{{Title: "Tarefa", AssigneeIDs: []int{foreign.ID}}},
		}},
	})
	if !errors.Is(err, entities.ErrContactNotFound) {
		t.Fatalf("assigning another account's contact should fail, got %v", err)
	}
}

func TestUpdateTaskStatus(t *testing.T) {
	f := newBoardFixture(t)
	ctx := context.Background()

	owner := uuid.New()
	assigneeAcct := uuid.New()
	viewerAcct := uuid.New()

	assignee := f.seedContact(t, owner, &assigneeAcct, "assignee@example.com")
	viewer := f.seedContact(t, owner, &viewerAcct, "viewer@example.com")

	board, err := f.service.CreateBoard(ctx, owner, ports.CreateBoardRequest{
		Title:     "Projeto",
		ContactID: &viewer.ID,
		Columns: []ports.ColumnPayload{{
			Title: "A fazer",
			Tasks: []ports.TaskPayload{{Title: "Escrever resumo", AssigneeIDs: []int{assignee.ID}}},
		}},
	})
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	taskID := board.Columns[0].Tasks[0].ID

	// Owner moves the task to done; completion is stamped, assignees survive.
	task, err := f.service.UpdateTaskStatus(ctx, owner, board.ID, taskID, ports.UpdateTaskStatusRequest{Status: entities.TaskStatusDone})
	if err != nil {
		t.Fatalf("owner UpdateTaskStatus: %v", err)
	}
	if task.Status != entities.TaskStatusDone || task.CompletedAt == nil {
		t.Fatal("moving to DONE should stamp completed_at")
	}
	if len(task.AssigneeIDs) != 1 || task.AssigneeIDs[0] != assignee.ID {
		t.Fatalf("status move must preserve assignees, got %v", task.AssigneeIDs)
	}

	// Assignee moves it back; completion is cleared.
	task, err = f.service.UpdateTaskStatus(ctx, assigneeAcct, board.ID, taskID, ports.UpdateTaskStatusRequest{Status: entities.TaskStatusInProgress})
	if err != nil {
		t.Fatalf("assignee UpdateTaskStatus: %v", err)
	}
	if task.Status != entities.TaskStatusInProgress || task.CompletedAt != nil {
		t.Fatal("leaving DONE should clear completed_at")
	}

	// A viewer who is not an assignee may look but not move.
	_, err = f.service.UpdateTaskStatus(ctx, viewerAcct, board.ID, taskID, ports.UpdateTaskStatusRequest{Status: entities.TaskStatusDone})
	if !errors.Is(err, entities.ErrForbidden) {
		t.Fatalf("non-assignee viewer should get forbidden, got %v", err)
	}
}

func TestUpdateTaskStatusBoardMismatch(t *testing.T) {
	f := newBoardFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	first, err := f.service.CreateBoard(ctx, owner, ports.CreateBoardRequest{
		Title:   "Primeiro",
		Columns: []ports.ColumnPayload{{Title: "A fazer", Tasks: []ports.TaskPayload{{Title: "Tarefa"}}}},
	})
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	second, err := f.service.CreateBoard(ctx, owner, ports.CreateBoardRequest{Title: "Segundo"})
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}

	taskID := first.Columns[0].Tasks[0].ID
	_, err = f.service.UpdateTaskStatus(ctx, owner, second.ID, taskID, ports.UpdateTaskStatusRequest{Status: entities.TaskStatusDone})
	if !errors.Is(err, entities.ErrTaskNotFound) {
		t.Fatalf("task addressed through the wrong board should be not-found, got %v", err)
	}
}

func TestUpdateTaskStatusClosedBoard(t *testing.T) {
	f := newBoardFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	board, err := f.service.CreateBoard(ctx, owner, ports.CreateBoardRequest{
		Title:   "Encerrado",
		Columns: []ports.ColumnPayload{{Title: "A fazer", Tasks: []ports.TaskPayload{{Title: "Tarefa"}}}},
	})
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	closed := entities.BoardStatusClosed
	if _, err := f.service.UpdateBoard(ctx, owner, board.ID, ports.UpdateBoardRequest{Status: &closed}); err != nil {
		t.Fatalf("close board: %v", err)
	}

	taskID := board.Columns[0].Tasks[0].ID
	_, err = f.service.UpdateTaskStatus(ctx, owner, board.ID, taskID, ports.UpdateTaskStatusRequest{Status: entities.TaskStatusDone})
	if !errors.Is(err, entities.ErrBoardClosed) {
		t.Fatalf("closed board should reject task moves, got %v", err)
	}
}
