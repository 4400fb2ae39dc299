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

// GroupRepositoryImpl implements the GroupRepository interface
type GroupRepositoryImpl struct {
	db *database.DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *database.DB) ports.GroupRepository {
	return &GroupRepositoryImpl{db: db}
}

func (r *GroupRepositoryImpl) Create(ctx context.Context, group *entities.Group) error {
	return r.db.WithinTx(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO groups (owner_id, name, admin_contact_id)
			VALUES ($1, $2, $3)
			RETURNING id, created_at`

		err := r.db.Ext(ctx).QueryRowxContext(ctx, query,
			group.OwnerID, group.Name, group.AdminContactID,
		).Scan(&group.ID, &group.CreatedAt)
		if err != nil {
			return fmt.Errorf("create group: %w", err)
		}

		return r.insertMembers(ctx, group.ID, group.MemberIDs)
	})
}

func (r *GroupRepositoryImpl) GetByID(ctx context.Context, id int) (*entities.Group, error) {
	query := `
		SELECT id, owner_id, name, admin_contact_id, created_at
		FROM groups
		WHERE id = $1`

	var group entities.Group
	err := sqlx.GetContext(ctx, r.db.Ext(ctx), &group, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group by id: %w", err)
	}

	if err := r.loadMembers(ctx, &group); err != nil {
		return nil, err
	}

	return &group, nil
}

func (r *GroupRepositoryImpl) Update(ctx context.Context, group *entities.Group) error {
	query := `
		UPDATE groups
		SET name = $2, admin_contact_id = $3
		WHERE id = $1`

	result, err := r.db.Ext(ctx).ExecContext(ctx, query, group.ID, group.Name, group.AdminContactID)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrGroupNotFound
	}

	return nil
}

func (r *GroupRepositoryImpl) Delete(ctx context.Context, id int) error {
	result, err := r.db.Ext(ctx).ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrGroupNotFound
	}

	return nil
}

func (r *GroupRepositoryImpl) List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Group, error) {
	query := `
		SELECT id, owner_id, name, admin_contact_id, created_at
		FROM groups
		WHERE owner_id = $1
		ORDER BY name, id`

	var groups []*entities.Group
	err := sqlx.SelectContext(ctx, r.db.Ext(ctx), &groups, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	for _, group := range groups {
		if err := r.loadMembers(ctx, group); err != nil {
			return nil, err
		}
	}

	return groups, nil
}

func (r *GroupRepositoryImpl) Search(ctx context.Context, ownerID uuid.UUID, name string) ([]*entities.Group, error) {
	query := `
		SELECT id, owner_id, name, admin_contact_id, created_at
		FROM groups
		WHERE owner_id = $1 AND name ILIKE '%' || $2 || '%'
		ORDER BY name, id`

	var groups []*entities.Group
	err := sqlx.SelectContext(ctx, r.db.Ext(ctx), &groups, query, ownerID, name)
	if err != nil {
		return nil, fmt.Errorf("search groups: %w", err)
	}

	for _, group := range groups {
		if err := r.loadMembers(ctx, group); err != nil {
			return nil, err
		}
	}

	return groups, nil
}

// SetMembers replaces the group's member set.
func (r *GroupRepositoryImpl) SetMembers(ctx context.Context, groupID int, contactIDs []int) error {
	return r.db.WithinTx(ctx, func(ctx context.Context) error {
		_, err := r.db.Ext(ctx).ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1`, groupID)
		if err != nil {
			return fmt.Errorf("clear group members: %w", err)
		}
		return r.insertMembers(ctx, groupID, contactIDs)
	})
}

func (r *GroupRepositoryImpl) RemoveMember(ctx context.Context, groupID, contactID int) error {
	query := `DELETE FROM group_members WHERE group_id = $1 AND contact_id = $2`

	result, err := r.db.Ext(ctx).ExecContext(ctx, query, groupID, contactID)
	if err != nil {
		return fmt.Errorf("remove group member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrNotGroupMember
	}

	return nil
}

func (r *GroupRepositoryImpl) insertMembers(ctx context.Context, groupID int, contactIDs []int) error {
	for _, contactID := range contactIDs {
		_, err := r.db.Ext(ctx).ExecContext(ctx,
			`INSERT INTO group_members (group_id, contact_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			groupID, contactID,
		)
		if err != nil {
			return fmt.Errorf("insert group member: %w", err)
		}
	}
	return nil
}

func (r *GroupRepositoryImpl) loadMembers(ctx context.Context, group *entities.Group) error {
	var memberIDs []int
	err := sqlx.SelectContext(ctx, r.db.Ext(ctx), &memberIDs,
		`SELECT contact_id FROM group_members WHERE group_id = $1 ORDER BY contact_id`, group.ID)
	if err != nil {
		return fmt.Errorf("load group members: %w", err)
	}

	group.MemberIDs = memberIDs
	return nil
}
