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

const contactColumns = `id, owner_id, name, email, account_id, pending, requested_at, confirmed_at`

// ContactRepositoryImpl implements the ContactRepository interface
type ContactRepositoryImpl struct {
	db *database.DB
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *database.DB) ports.ContactRepository {
	return &ContactRepositoryImpl{db: db}
}

func (r *ContactRepositoryImpl) Create(ctx context.Context, contact *entities.Contact) error {
	query := `
		INSERT INTO contacts (owner_id, name, email, account_id, pending, confirmed_at)
		VALUES ($1, $2, lower($3), $4, $5, $6)
		RETURNING id, requested_at`

	err := r.db.Ext(ctx).QueryRowxContext(ctx, query,
		contact.OwnerID, contact.Name, contact.Email, contact.AccountID,
		contact.Pending, contact.ConfirmedAt,
	).Scan(&contact.ID, &contact.RequestedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return entities.ErrDuplicateContact
		}
		return fmt.Errorf("create contact: %w", err)
	}

	return nil
}

func (r *ContactRepositoryImpl) GetByID(ctx context.Context, id int) (*entities.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`

	var contact entities.Contact
	err := sqlx.GetContext(ctx, r.db.Ext(ctx), &contact, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrContactNotFound
		}
		return nil, fmt.Errorf("get contact by id: %w", err)
	}

	return &contact, nil
}

func (r *ContactRepositoryImpl) Update(ctx context.Context, contact *entities.Contact) error {
	query := `
		UPDATE contacts
		SET name = $2, email = lower($3), account_id = $4, pending = $5, confirmed_at = $6
		WHERE id = $1`

	result, err := r.db.Ext(ctx).ExecContext(ctx, query,
		contact.ID, contact.Name, contact.Email, contact.AccountID,
		contact.Pending, contact.ConfirmedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entities.ErrDuplicateContact
		}
		return fmt.Errorf("update contact: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrContactNotFound
	}

	return nil
}

func (r *ContactRepositoryImpl) Delete(ctx context.Context, id int) error {
	result, err := r.db.Ext(ctx).ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrContactNotFound
	}

	return nil
}

func (r *ContactRepositoryImpl) List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE owner_id = $1 ORDER BY name, id`

	var contacts []*entities.Contact
	err := sqlx.SelectContext(ctx, r.db.Ext(ctx), &contacts, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	return contacts, nil
}

func (r *ContactRepositoryImpl) Search(ctx context.Context, ownerID uuid.UUID, name string) ([]*entities.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE owner_id = $1 AND name ILIKE '%' || $2 || '%'
		ORDER BY name, id`

	var contacts []*entities.Contact
	err := sqlx.SelectContext(ctx, r.db.Ext(ctx), &contacts, query, ownerID, name)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}

	return contacts, nil
}

func (r *ContactRepositoryImpl) FindByOwnerAndEmail(ctx context.Context, ownerID uuid.UUID, email string) (*entities.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE owner_id = $1 AND email = lower($2)`

	var contact entities.Contact
	err := sqlx.GetContext(ctx, r.db.Ext(ctx), &contact, query, ownerID, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrContactNotFound
		}
		return nil, fmt.Errorf("find contact by owner and email: %w", err)
	}

	return &contact, nil
}

func (r *ContactRepositoryImpl) FindByOwnerAndAccount(ctx context.Context, ownerID, accountID uuid.UUID) (*entities.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE owner_id = $1 AND account_id = $2`

	var contact entities.Contact
	err := sqlx.GetContext(ctx, r.db.Ext(ctx), &contact, query, ownerID, accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrContactNotFound
		}
		return nil, fmt.Errorf("find contact by owner and account: %w", err)
	}

	return &contact, nil
}

// ListPendingByEmail returns pending contact rows across ALL owners whose
// target email matches case-insensitively. This is the reconciliation input
// set when that email registers an account.
func (r *ContactRepositoryImpl) ListPendingByEmail(ctx context.Context, email string) ([]*entities.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE email = lower($1) AND pending
		ORDER BY id`

	var contacts []*entities.Contact
	err := sqlx.SelectContext(ctx, r.db.Ext(ctx), &contacts, query, email)
	if err != nil {
		return nil, fmt.Errorf("list pending contacts by email: %w", err)
	}

	return contacts, nil
}

// ListPendingFor returns pending invitations addressed to the given account:
// rows other owners hold that already resolve to it.
func (r *ContactRepositoryImpl) ListPendingFor(ctx context.Context, accountID uuid.UUID) ([]*entities.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE account_id = $1 AND pending
		ORDER BY requested_at, id`

	var contacts []*entities.Contact
	err := sqlx.SelectContext(ctx, r.db.Ext(ctx), &contacts, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list pending contacts for account: %w", err)
	}

	return contacts, nil
}
