package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unihub/core/internal/domain/entities"
	"github.com/unihub/core/internal/infrastructure/database"
	"github.com/unihub/core/internal/ports"
)

// AuthRepositoryImpl implements the AuthRepository interface. Refresh tokens
// are persisted (hashed) so sessions survive restarts and multiple instances.
type AuthRepositoryImpl struct {
	db *database.DB
}

// NewAuthRepository creates a new auth repository
func NewAuthRepository(db *database.DB) ports.AuthRepository {
	return &AuthRepositoryImpl{db: db}
}

func (r *AuthRepositoryImpl) CreateRefreshToken(ctx context.Context, accountID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (account_id, token_hash, expires_at)
		VALUES ($1, $2, $3)`

	_, err := r.db.Ext(ctx).ExecContext(ctx, query, accountID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}

	return nil
}

func (r *AuthRepositoryImpl) GetRefreshToken(ctx context.Context, tokenHash string) (*ports.RefreshToken, error) {
	query := `
		SELECT id, account_id, token_hash, expires_at, created_at, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1`

	var token ports.RefreshToken
	err := sqlx.GetContext(ctx, r.db.Ext(ctx), &token, query, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("get refresh token: %w", err)
	}

	return &token, nil
}

func (r *AuthRepositoryImpl) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = CURRENT_TIMESTAMP
		WHERE token_hash = $1 AND revoked_at IS NULL`

	_, err := r.db.Ext(ctx).ExecContext(ctx, query, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	return nil
}

func (r *AuthRepositoryImpl) RevokeAllAccountTokens(ctx context.Context, accountID uuid.UUID) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = CURRENT_TIMESTAMP
		WHERE account_id = $1 AND revoked_at IS NULL`

	_, err := r.db.Ext(ctx).ExecContext(ctx, query, accountID)
	if err != nil {
		return fmt.Errorf("revoke all account tokens: %w", err)
	}

	return nil
}

func (r *AuthRepositoryImpl) CleanupExpiredTokens(ctx context.Context) error {
	query := `DELETE FROM refresh_tokens WHERE expires_at < CURRENT_TIMESTAMP`

	_, err := r.db.Ext(ctx).ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("cleanup expired tokens: %w", err)
	}

	return nil
}

// CalendarRepositoryImpl implements the CalendarRepository interface
type CalendarRepositoryImpl struct {
	db *database.DB
}

// NewCalendarRepository creates a new calendar repository
func NewCalendarRepository(db *database.DB) ports.CalendarRepository {
	return &CalendarRepositoryImpl{db: db}
}

func (r *CalendarRepositoryImpl) Get(ctx context.Context, accountID uuid.UUID) (*entities.CalendarLink, error) {
	query := `
		SELECT account_id, connected, calendar_id, sync_token, connected_at
		FROM calendar_links
		WHERE account_id = $1`

	var link entities.CalendarLink
	err := sqlx.GetContext(ctx, r.db.Ext(ctx), &link, query, accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			// No row means the account never connected a calendar.
			return &entities.CalendarLink{AccountID: accountID}, nil
		}
		return nil, fmt.Errorf("get calendar link: %w", err)
	}

	return &link, nil
}

func (r *CalendarRepositoryImpl) Put(ctx context.Context, link *entities.CalendarLink) error {
	query := `
		INSERT INTO calendar_links (account_id, connected, calendar_id, sync_token, connected_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id) DO UPDATE
		SET connected = EXCLUDED.connected,
			calendar_id = EXCLUDED.calendar_id,
			sync_token = EXCLUDED.sync_token,
			connected_at = EXCLUDED.connected_at`

	_, err := r.db.Ext(ctx).ExecContext(ctx, query,
		link.AccountID, link.Connected, link.CalendarID, link.SyncToken, link.ConnectedAt)
	if err != nil {
		return fmt.Errorf("put calendar link: %w", err)
	}

	return nil
}

func (r *CalendarRepositoryImpl) Delete(ctx context.Context, accountID uuid.UUID) error {
	_, err := r.db.Ext(ctx).ExecContext(ctx, `DELETE FROM calendar_links WHERE account_id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("delete calendar link: %w", err)
	}

	return nil
}
