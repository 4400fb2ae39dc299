package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unihub/core/internal/domain/entities"
	"github.com/unihub/core/internal/infrastructure/database"
	"github.com/unihub/core/internal/ports"
)

// BoardRepositoryImpl implements the BoardRepository interface
type BoardRepositoryImpl struct {
	db *database.DB
}

// NewBoardRepository creates a new board repository
func NewBoardRepository(db *database.DB) ports.BoardRepository {
	return &BoardRepositoryImpl{db: db}
}

const boardColumns = `id, owner_id, title, status, due_at, contact_id, group_id, created_at, closed_at`

// visibilityPredicate matches boards the account may read: owned, shared with
// a contact resolving to it, shared with a group holding such a contact, or
// carrying a task assigned to such a contact.
const visibilityPredicate = `
	b.owner_id = $1
	OR EXISTS (
		SELECT 1 FROM contacts c
		WHERE c.id = b.contact_id AND c.account_id = $1
	)
	OR EXISTS (
		SELECT 1 FROM group_members gm
		JOIN contacts gc ON gc.id = gm.contact_id
		WHERE gm.group_id = b.group_id AND gc.account_id = $1
	)
	OR EXISTS (
		SELECT 1 FROM board_columns col
		JOIN tasks t ON t.column_id = col.id
		JOIN task_assignees ta ON ta.task_id = t.id
		JOIN contacts ac ON ac.id = ta.contact_id
		WHERE col.board_id = b.id AND ac.account_id = $1
	)`

func (r *BoardRepositoryImpl) Create(ctx context.Context, board *entities.Board) error {
	return r.db.WithinTx(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO boards (owner_id, title, status, due_at, contact_id, group_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at`

		err := r.db.Ext(ctx).QueryRowxContext(ctx, query,
			board.OwnerID, board.Title, board.Status, board.DueAt, board.ContactID, board.GroupID,
		).Scan(&board.ID, &board.CreatedAt)
		if err != nil {
			return fmt.Errorf("create board: %w", err)
		}

		for i := range board.Columns {
			col := &board.Columns[i]
			col.BoardID = board.ID
			if err := r.insertColumn(ctx, col); err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *BoardRepositoryImpl) GetByID(ctx context.Context, id int) (*entities.Board, error) {
	query := `SELECT ` + boardColumns + ` FROM boards WHERE id = $1`

	var board entities.Board
	err := sqlx.GetContext(ctx, r.db.Ext(ctx), &board, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrBoardNotFound
		}
		return nil, fmt.Errorf("get board by id: %w", err)
	}

	if err := r.loadColumns(ctx, &board); err != nil {
		return nil, err
	}

	return &board, nil
}

// Update rewrites the board row and, when Columns is non-nil, syncs the
// nested structure: existing columns and tasks are matched by id, new ones
// inserted, absent ones deleted. Column positions never change after
// creation; new columns take max+1.
func (r *BoardRepositoryImpl) Update(ctx context.Context, board *entities.Board) error {
	return r.db.WithinTx(ctx, func(ctx context.Context) error {
		query := `
			UPDATE boards
			SET title = $2, status = $3, due_at = $4, contact_id = $5, group_id = $6, closed_at = $7
			WHERE id = $1`

		result, err := r.db.Ext(ctx).ExecContext(ctx, query,
			board.ID, board.Title, board.Status, board.DueAt,
			board.ContactID, board.GroupID, board.ClosedAt,
		)
		if err != nil {
			return fmt.Errorf("update board: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return entities.ErrBoardNotFound
		}

		if board.Columns == nil {
			return nil
		}

		return r.syncColumns(ctx, board)
	})
}

func (r *BoardRepositoryImpl) Delete(ctx context.Context, id int) error {
	result, err := r.db.Ext(ctx).ExecContext(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrBoardNotFound
	}

	return nil
}

func (r *BoardRepositoryImpl) ListVisible(ctx context.Context, accountID uuid.UUID, filter ports.BoardFilter) ([]*entities.Board, error) {
	query := `SELECT DISTINCT b.id, b.owner_id, b.title, b.status, b.due_at, b.contact_id, b.group_id, b.created_at, b.closed_at
		FROM boards b
		WHERE (` + visibilityPredicate + `)`

	args := []interface{}{accountID}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND b.status = $%d", len(args))
	}
	if filter.Title != nil {
		args = append(args, *filter.Title)
		query += fmt.Sprintf(" AND b.title ILIKE '%%' || $%d || '%%'", len(args))
	}
	query += " ORDER BY b.created_at DESC, b.id DESC"

	var boards []*entities.Board
	err := sqlx.SelectContext(ctx, r.db.Ext(ctx), &boards, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list visible boards: %w", err)
	}

	for _, board := range boards {
		if err := r.loadColumns(ctx, board); err != nil {
			return nil, err
		}
	}

	return boards, nil
}

func (r *BoardRepositoryImpl) IsVisible(ctx context.Context, boardID int, accountID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM boards b WHERE b.id = $2 AND (` + visibilityPredicate + `))`

	var visible bool
	err := sqlx.GetContext(ctx, r.db.Ext(ctx), &visible, query, accountID, boardID)
	if err != nil {
		return false, fmt.Errorf("check board visibility: %w", err)
	}

	return visible, nil
}

func (r *BoardRepositoryImpl) GetTaskByID(ctx context.Context, id int) (*entities.Task, error) {
	query := `
		SELECT id, column_id, title, description, status, due_date, completed_at
		FROM tasks
		WHERE id = $1`

	var task entities.Task
	err := sqlx.GetContext(ctx, r.db.Ext(ctx), &task, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}

	if err := r.loadAssignees(ctx, &task); err != nil {
		return nil, err
	}

	return &task, nil
}

func (r *BoardRepositoryImpl) GetTaskBoardID(ctx context.Context, taskID int) (int, error) {
	query := `
		SELECT col.board_id
		FROM tasks t
		JOIN board_columns col ON col.id = t.column_id
		WHERE t.id = $1`

	var boardID int
	err := sqlx.GetContext(ctx, r.db.Ext(ctx), &boardID, query, taskID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, entities.ErrTaskNotFound
		}
		return 0, fmt.Errorf("get task board id: %w", err)
	}

	return boardID, nil
}

func (r *BoardRepositoryImpl) UpdateTask(ctx context.Context, task *entities.Task) error {
	return r.db.WithinTx(ctx, func(ctx context.Context) error {
		query := `
			UPDATE tasks
			SET title = $2, description = $3, status = $4, due_date = $5, completed_at = $6
			WHERE id = $1`

		result, err := r.db.Ext(ctx).ExecContext(ctx, query,
			task.ID, task.Title, task.Description, task.Status, task.DueDate, task.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return entities.ErrTaskNotFound
		}

		if task.AssigneeIDs != nil {
			if err := r.replaceAssignees(ctx, task.ID, task.AssigneeIDs); err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *BoardRepositoryImpl) IsTaskAssignee(ctx context.Context, taskID int, accountID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM task_assignees ta
			JOIN contacts c ON c.id = ta.contact_id
			WHERE ta.task_id = $1 AND c.account_id = $2
		)`

	var assigned bool
	err := sqlx.GetContext(ctx, r.db.Ext(ctx), &assigned, query, taskID, accountID)
	if err != nil {
		return false, fmt.Errorf("check task assignee: %w", err)
	}

	return assigned, nil
}

func (r *BoardRepositoryImpl) insertColumn(ctx context.Context, col *entities.Column) error {
	query := `
		INSERT INTO board_columns (board_id, title, position, state)
		VALUES ($1, $2, (SELECT COALESCE(MAX(position), 0) + 1 FROM board_columns WHERE board_id = $1), $3)
		RETURNING id, position`

	err := r.db.Ext(ctx).QueryRowxContext(ctx, query, col.BoardID, col.Title, col.State).
		Scan(&col.ID, &col.Position)
	if err != nil {
		return fmt.Errorf("insert board column: %w", err)
	}

	for i := range col.Tasks {
		task := &col.Tasks[i]
		task.ColumnID = col.ID
		if err := r.insertTask(ctx, task); err != nil {
			return err
		}
	}

	return nil
}

func (r *BoardRepositoryImpl) insertTask(ctx context.Context, task *entities.Task) error {
	if task.Status == "" {
		task.Status = entities.TaskStatusPending
	}

	query := `
		INSERT INTO tasks (column_id, title, description, status, due_date, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.db.Ext(ctx).QueryRowxContext(ctx, query,
		task.ColumnID, task.Title, task.Description, task.Status, task.DueDate, task.CompletedAt,
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	return r.replaceAssignees(ctx, task.ID, task.AssigneeIDs)
}

func (r *BoardRepositoryImpl) syncColumns(ctx context.Context, board *entities.Board) error {
	keep := make(map[int]bool, len(board.Columns))

	for i := range board.Columns {
		col := &board.Columns[i]
		col.BoardID = board.ID

		if col.ID == 0 {
			if err := r.insertColumn(ctx, col); err != nil {
				return err
			}
			keep[col.ID] = true
			continue
		}

		keep[col.ID] = true
		_, err := r.db.Ext(ctx).ExecContext(ctx,
			`UPDATE board_columns SET title = $2, state = $3 WHERE id = $1 AND board_id = $4`,
			col.ID, col.Title, col.State, board.ID,
		)
		if err != nil {
			return fmt.Errorf("update board column: %w", err)
		}

		if err := r.syncTasks(ctx, col); err != nil {
			return err
		}
	}

	query := `DELETE FROM board_columns WHERE board_id = $1`
	args := []interface{}{board.ID}
	if len(keep) > 0 {
		ids := make([]int, 0, len(keep))
		for id := range keep {
			ids = append(ids, id)
		}
		in, inArgs, err := sqlx.In(`DELETE FROM board_columns WHERE board_id = ? AND id NOT IN (?)`, board.ID, ids)
		if err != nil {
			return fmt.Errorf("build column delete: %w", err)
		}
		query = sqlx.Rebind(sqlx.DOLLAR, in)
		args = inArgs
	}

	if _, err := r.db.Ext(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete removed columns: %w", err)
	}

	return nil
}

func (r *BoardRepositoryImpl) syncTasks(ctx context.Context, col *entities.Column) error {
	keep := make([]int, 0, len(col.Tasks))

	for i := range col.Tasks {
		task := &col.Tasks[i]
		task.ColumnID = col.ID

		if task.ID == 0 {
			if err := r.insertTask(ctx, task); err != nil {
				return err
			}
			keep = append(keep, task.ID)
			continue
		}

		keep = append(keep, task.ID)
		if err := r.UpdateTask(ctx, task); err != nil {
			return err
		}
	}

	query := `DELETE FROM tasks WHERE column_id = $1`
	args := []interface{}{col.ID}
	if len(keep) > 0 {
		in, inArgs, err := sqlx.In(`DELETE FROM tasks WHERE column_id = ? AND id NOT IN (?)`, col.ID, keep)
		if err != nil {
			return fmt.Errorf("build task delete: %w", err)
		}
		query = sqlx.Rebind(sqlx.DOLLAR, in)
		args = inArgs
	}

	if _, err := r.db.Ext(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete removed tasks: %w", err)
	}

	return nil
}

func (r *BoardRepositoryImpl) replaceAssignees(ctx context.Context, taskID int, contactIDs []int) error {
	if _, err := r.db.Ext(ctx).ExecContext(ctx, `DELETE FROM task_assignees WHERE task_id = $1`, taskID); err != nil {
		return fmt.Errorf("clear task assignees: %w", err)
	}

	for _, contactID := range contactIDs {
		_, err := r.db.Ext(ctx).ExecContext(ctx,
			`INSERT INTO task_assignees (task_id, contact_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			taskID, contactID,
		)
		if err != nil {
			return fmt.Errorf("insert task assignee: %w", err)
		}
	}

	return nil
}

func (r *BoardRepositoryImpl) loadColumns(ctx context.Context, board *entities.Board) error {
	var columns []entities.Column
	err := sqlx.SelectContext(ctx, r.db.Ext(ctx), &columns,
		`SELECT id, board_id, title, position, state FROM board_columns WHERE board_id = $1 ORDER BY position`,
		board.ID,
	)
	if err != nil {
		return fmt.Errorf("load board columns: %w", err)
	}

	for i := range columns {
		col := &columns[i]
		var tasks []entities.Task
		err := sqlx.SelectContext(ctx, r.db.Ext(ctx), &tasks,
			`SELECT id, column_id, title, description, status, due_date, completed_at
			 FROM tasks WHERE column_id = $1 ORDER BY id`,
			col.ID,
		)
		if err != nil {
			return fmt.Errorf("load column tasks: %w", err)
		}

		for j := range tasks {
			if err := r.loadAssignees(ctx, &tasks[j]); err != nil {
				return err
			}
		}
		col.Tasks = tasks
	}

	board.Columns = columns
	return nil
}

func (r *BoardRepositoryImpl) loadAssignees(ctx context.Context, task *entities.Task) error {
	var ids []int
	err := sqlx.SelectContext(ctx, r.db.Ext(ctx), &ids,
		`SELECT contact_id FROM task_assignees WHERE task_id = $1 ORDER BY contact_id`, task.ID)
	if err != nil {
		return fmt.Errorf("load task assignees: %w", err)
	}

	task.AssigneeIDs = ids
	return nil
}
