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

// NotificationRepositoryImpl implements the NotificationRepository interface
type NotificationRepositoryImpl struct {
	db *database.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) ports.NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

const notificationColumns = `id, account_id, title, message, type, category, reference_id,
	interaction_pending, read, metadata, created_at, updated_at`

// Upsert inserts the notification, or refreshes the existing row when one
// already exists for the same (account, type, category, reference). Duplicate
// concurrent invitations therefore never produce duplicate notifications.
func (r *NotificationRepositoryImpl) Upsert(ctx context.Context, notification *entities.Notification) error {
	query := `
		INSERT INTO notifications (account_id, title, message, type, category, reference_id,
			interaction_pending, read, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (account_id, type, category, reference_id) DO UPDATE
		SET title = EXCLUDED.title,
			message = EXCLUDED.message,
			interaction_pending = EXCLUDED.interaction_pending,
			metadata = EXCLUDED.metadata,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at`

	err := r.db.Ext(ctx).QueryRowxContext(ctx, query,
		notification.AccountID, notification.Title, notification.Message,
		notification.Type, notification.Category, notification.ReferenceID,
		notification.InteractionPending, notification.Read, notification.Metadata,
	).Scan(&notification.ID, &notification.CreatedAt, &notification.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upsert notification: %w", err)
	}

	return nil
}

func (r *NotificationRepositoryImpl) GetByID(ctx context.Context, id int) (*entities.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	var notification entities.Notification
	err := sqlx.GetContext(ctx, r.db.Ext(ctx), &notification, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("get notification by id: %w", err)
	}

	return &notification, nil
}

func (r *NotificationRepositoryImpl) List(ctx context.Context, accountID uuid.UUID, filter ports.NotificationFilter) ([]*entities.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE account_id = $1`

	args := []interface{}{accountID}
	if filter.UnreadOnly {
		query += ` AND NOT read`
	}
	if filter.InteractionPending != nil {
		args = append(args, *filter.InteractionPending)
		query += fmt.Sprintf(` AND interaction_pending = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	var notifications []*entities.Notification
	err := sqlx.SelectContext(ctx, r.db.Ext(ctx), &notifications, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return notifications, nil
}

func (r *NotificationRepositoryImpl) MarkRead(ctx context.Context, accountID uuid.UUID, id int) error {
	query := `
		UPDATE notifications
		SET read = TRUE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND account_id = $2`

	result, err := r.db.Ext(ctx).ExecContext(ctx, query, id, accountID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrNotificationNotFound
	}

	return nil
}

// ResolveByReference closes out the notification tied to a reference row,
// clearing the interaction flag. Missing rows are not an error: resolution is
// a side effect of the invitation state machine, not its source of truth.
func (r *NotificationRepositoryImpl) ResolveByReference(ctx context.Context, accountID uuid.UUID, typ, category string, referenceID int) error {
	query := `
		UPDATE notifications
		SET read = TRUE, interaction_pending = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE account_id = $1 AND type = $2 AND category = $3 AND reference_id = $4`

	_, err := r.db.Ext(ctx).ExecContext(ctx, query, accountID, typ, category, referenceID)
	if err != nil {
		return fmt.Errorf("resolve notification: %w", err)
	}

	return nil
}

func (r *NotificationRepositoryImpl) GetPreferences(ctx context.Context, accountID uuid.UUID) ([]entities.NotificationPreference, error) {
	query := `
		SELECT account_id, priority, lead_time
		FROM notification_preferences
		WHERE account_id = $1
		ORDER BY priority`

	var prefs []entities.NotificationPreference
	err := sqlx.SelectContext(ctx, r.db.Ext(ctx), &prefs, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("get notification preferences: %w", err)
	}

	return prefs, nil
}

func (r *NotificationRepositoryImpl) PutPreferences(ctx context.Context, accountID uuid.UUID, prefs []entities.NotificationPreference) error {
	return r.db.WithinTx(ctx, func(ctx context.Context) error {
		for _, pref := range prefs {
			query := `
				INSERT INTO notification_preferences (account_id, priority, lead_time)
				VALUES ($1, $2, $3)
				ON CONFLICT (account_id, priority) DO UPDATE SET lead_time = EXCLUDED.lead_time`

			_, err := r.db.Ext(ctx).ExecContext(ctx, query, accountID, pref.Priority, pref.LeadTime)
			if err != nil {
				return fmt.Errorf("put notification preference: %w", err)
			}
		}
		return nil
	})
}
