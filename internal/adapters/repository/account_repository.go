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

// AccountRepositoryImpl implements the AccountRepository interface
type AccountRepositoryImpl struct {
	db *database.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) ports.AccountRepository {
	return &AccountRepositoryImpl{db: db}
}

func (r *AccountRepositoryImpl) Create(ctx context.Context, account *entities.Account) error {
	query := `
		INSERT INTO accounts (id, name, email, password_hash, google_id)
		VALUES ($1, $2, lower($3), $4, $5)
		RETURNING created_at`

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}

	err := r.db.Ext(ctx).QueryRowxContext(ctx, query,
		account.ID, account.Name, account.Email, account.PasswordHash, account.GoogleID,
	).Scan(&account.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return entities.ErrEmailTaken
		}
		return fmt.Errorf("create account: %w", err)
	}

	return nil
}

func (r *AccountRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	query := `
		SELECT id, name, email, password_hash, google_id, created_at, last_login_at
		FROM accounts
		WHERE id = $1`

	var account entities.Account
	err := sqlx.GetContext(ctx, r.db.Ext(ctx), &account, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account by id: %w", err)
	}

	return &account, nil
}

func (r *AccountRepositoryImpl) GetByEmail(ctx context.Context, email string) (*entities.Account, error) {
	query := `
		SELECT id, name, email, password_hash, google_id, created_at, last_login_at
		FROM accounts
		WHERE email = lower($1)`

	var account entities.Account
	err := sqlx.GetContext(ctx, r.db.Ext(ctx), &account, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account by email: %w", err)
	}

	return &account, nil
}

func (r *AccountRepositoryImpl) GetByGoogleID(ctx context.Context, googleID string) (*entities.Account, error) {
	query := `
		SELECT id, name, email, password_hash, google_id, created_at, last_login_at
		FROM accounts
		WHERE google_id = $1`

	var account entities.Account
	err := sqlx.GetContext(ctx, r.db.Ext(ctx), &account, query, googleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account by google id: %w", err)
	}

	return &account, nil
}

func (r *AccountRepositoryImpl) LinkGoogleID(ctx context.Context, id uuid.UUID, googleID string) error {
	query := `UPDATE accounts SET google_id = $2 WHERE id = $1`

	result, err := r.db.Ext(ctx).ExecContext(ctx, query, id, googleID)
	if err != nil {
		return fmt.Errorf("link google id: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("link google id: %w", err)
	}
	if rows == 0 {
		return entities.ErrAccountNotFound
	}

	return nil
}

func (r *AccountRepositoryImpl) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE accounts SET last_login_at = $2 WHERE id = $1`

	_, err := r.db.Ext(ctx).ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}

	return nil
}

// Delete removes the account. Owned boards, contacts, groups, notifications
// and study records go with it through ON DELETE CASCADE; contact rows other
// accounts hold toward this one are unresolved back to plain email contacts.
func (r *AccountRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithinTx(ctx, func(ctx context.Context) error {
		unlink := `UPDATE contacts SET account_id = NULL WHERE account_id = $1`
		if _, err := r.db.Ext(ctx).ExecContext(ctx, unlink, id); err != nil {
			return fmt.Errorf("unlink inbound contacts: %w", err)
		}

		result, err := r.db.Ext(ctx).ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete account: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return entities.ErrAccountNotFound
		}

		return nil
	})
}
