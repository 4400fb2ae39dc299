package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unihub/core/internal/domain/entities"
	"github.com/unihub/core/internal/infrastructure/logger"
	"github.com/unihub/core/internal/ports"
)

// ContactService handles contact operations and the invitation state machine
type ContactService struct {
	tx               ports.Transactor
	contactRepo      ports.ContactRepository
	accountRepo      ports.AccountRepository
	notificationRepo ports.NotificationRepository
	logger           *logger.Logger
}

// NewContactService creates a new contact service
func NewContactService(tx ports.Transactor, contactRepo ports.ContactRepository, accountRepo ports.AccountRepository, notificationRepo ports.NotificationRepository, logger *logger.Logger) *ContactService {
	return &ContactService{
		tx:               tx,
		contactRepo:      contactRepo,
		accountRepo:      accountRepo,
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

// CreateContact creates a pending contact owned by the requester. When the
// target email already belongs to a registered account the row resolves
// immediately and the target is notified; otherwise it stays unresolved until
// that email registers.
func (s *ContactService) CreateContact(ctx context.Context, ownerID uuid.UUID, req ports.CreateContactRequest) (*entities.Contact, error) {
	owner, err := s.accountRepo.GetByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load owner account: %w", err)
	}

	if strings.EqualFold(owner.Email, req.Email) {
		return nil, entities.ErrSelfContact
	}

	contact := &entities.Contact{
		OwnerID: ownerID,
		Name:    req.Name,
		Email:   strings.ToLower(req.Email),
		Pending: true,
	}

	target, err := s.accountRepo.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		contact.AccountID = &target.ID
	case errors.Is(err, entities.ErrAccountNotFound):
		// Valid steady state: the row waits for the email to register.
	default:
		return nil, fmt.Errorf("resolve target account: %w", err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.contactRepo.Create(ctx, contact); err != nil {
			return err
		}

		if contact.AccountID != nil {
			return s.notifyInvitation(ctx, *contact.AccountID, owner, contact)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Contact created", "contact_id", contact.ID, "owner_id", ownerID, "resolved", contact.AccountID != nil)
	return contact, nil
}

// GetContact returns one of the requester's contacts.
func (s *ContactService) GetContact(ctx context.Context, ownerID uuid.UUID, id int) (*entities.Contact, error) {
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if contact.OwnerID != ownerID {
		return nil, entities.ErrContactNotFound
	}

	return contact, nil
}

// ListContacts returns the requester's contacts.
func (s *ContactService) ListContacts(ctx context.Context, ownerID uuid.UUID) ([]*entities.Contact, error) {
	return s.contactRepo.List(ctx, ownerID)
}

// SearchContacts filters the requester's contacts by display name.
func (s *ContactService) SearchContacts(ctx context.Context, ownerID uuid.UUID, name string) ([]*entities.Contact, error) {
	return s.contactRepo.Search(ctx, ownerID, name)
}

// UpdateContact changes a contact's display name or target email. Changing
// the email re-resolves the target and puts the row back into pending.
func (s *ContactService) UpdateContact(ctx context.Context, ownerID uuid.UUID, id int, req ports.UpdateContactRequest) (*entities.Contact, error) {
	contact, err := s.GetContact(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		contact.Name = *req.Name
	}

	if req.Email != nil && !contact.EmailMatches(*req.Email) {
		owner, err := s.accountRepo.GetByID(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("load owner account: %w", err)
		}
		if strings.EqualFold(owner.Email, *req.Email) {
			return nil, entities.ErrSelfContact
		}

		contact.Email = strings.ToLower(*req.Email)
		contact.AccountID = nil
		contact.Pending = true
		contact.ConfirmedAt = nil

		target, err := s.accountRepo.GetByEmail(ctx, *req.Email)
		if err == nil {
			contact.AccountID = &target.ID
		} else if !errors.Is(err, entities.ErrAccountNotFound) {
			return nil, fmt.Errorf("resolve target account: %w", err)
		}
	}

	if err := s.contactRepo.Update(ctx, contact); err != nil {
		return nil, err
	}

	return contact, nil
}

// DeleteContact removes the requester's contact row and, best effort, the
// reciprocal row on the target's side. The primary deletion commits even if
// the reciprocal lookup or delete fails.
func (s *ContactService) DeleteContact(ctx context.Context, ownerID uuid.UUID, id int) error {
	contact, err := s.GetContact(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := s.contactRepo.Delete(ctx, contact.ID); err != nil {
		return err
	}

	if contact.AccountID != nil {
		mirror, err := s.contactRepo.FindByOwnerAndAccount(ctx, *contact.AccountID, ownerID)
		switch {
		case err == nil:
			if err := s.contactRepo.Delete(ctx, mirror.ID); err != nil {
				s.logger.Warn("Failed to delete reciprocal contact", "error", err, "contact_id", mirror.ID)
			}
		case errors.Is(err, entities.ErrContactNotFound):
			// No mirror to clean up.
		default:
			s.logger.Warn("Reciprocal contact lookup failed", "error", err, "contact_id", contact.ID)
		}
	}

	s.logger.Info("Contact deleted", "contact_id", contact.ID, "owner_id", ownerID)
	return nil
}

// ListPendingInvitations returns invitations addressed to the requester. The
// email filter, when present, must match the requester's own email: pending
// rows for other mailboxes are not the requester's to see.
func (s *ContactService) ListPendingInvitations(ctx context.Context, accountID uuid.UUID, email string) ([]*entities.Contact, error) {
	if email != "" {
		account, err := s.accountRepo.GetByID(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("load account: %w", err)
		}
		if !strings.EqualFold(account.Email, email) {
			return nil, entities.ErrForbidden
		}
	}

	return s.contactRepo.ListPendingFor(ctx, accountID)
}

// AcceptInvitation confirms a pending invitation addressed to the requester:
// the inviter's row flips to confirmed and a mirror row appears on the
// requester's side, also confirmed. A second accept is a conflict, not a
// duplicate row.
func (s *ContactService) AcceptInvitation(ctx context.Context, accountID uuid.UUID, contactID int) (*entities.Contact, error) {
	var accepted *entities.Contact

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		contact, err := s.contactRepo.GetByID(ctx, contactID)
		if err != nil {
			return err
		}
		if !contact.ResolvesTo(accountID) {
			return entities.ErrContactNotFound
		}
		if !contact.Pending {
			return entities.ErrInvitationResolved
		}

		now := time.Now()
		contact.Pending = false
		contact.ConfirmedAt = &now
		if err := s.contactRepo.Update(ctx, contact); err != nil {
			return err
		}

		inviter, err := s.accountRepo.GetByID(ctx, contact.OwnerID)
		if err != nil {
			return fmt.Errorf("load inviter account: %w", err)
		}

		mirror, err := s.contactRepo.FindByOwnerAndAccount(ctx, accountID, contact.OwnerID)
		switch {
		case errors.Is(err, entities.ErrContactNotFound):
			mirror = &entities.Contact{
				OwnerID:     accountID,
				Name:        inviter.Name,
				Email:       inviter.Email,
				AccountID:   &inviter.ID,
				Pending:     false,
				ConfirmedAt: &now,
			}
			if err := s.contactRepo.Create(ctx, mirror); err != nil {
				return err
			}
		case err != nil:
			return fmt.Errorf("find reciprocal contact: %w", err)
		default:
			if mirror.Pending {
				mirror.Pending = false
				mirror.ConfirmedAt = &now
				if err := s.contactRepo.Update(ctx, mirror); err != nil {
					return err
				}
			}
		}

		if err := s.notificationRepo.ResolveByReference(ctx, accountID,
			entities.NotificationTypeContact, entities.NotificationCategoryInvitation, contact.ID); err != nil {
			return err
		}

		accepted = contact
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Invitation accepted", "contact_id", contactID, "account_id", accountID)
	return accepted, nil
}

// RejectInvitation declines a pending invitation: the inviter's row is
// deleted and the notification resolved. No mirror exists yet, so nothing
// else to undo.
func (s *ContactService) RejectInvitation(ctx context.Context, accountID uuid.UUID, contactID int) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		contact, err := s.contactRepo.GetByID(ctx, contactID)
		if err != nil {
			return err
		}
		if !contact.ResolvesTo(accountID) {
			return entities.ErrContactNotFound
		}
		if !contact.Pending {
			return entities.ErrInvitationResolved
		}

		if err := s.contactRepo.Delete(ctx, contact.ID); err != nil {
			return err
		}

		return s.notificationRepo.ResolveByReference(ctx, accountID,
			entities.NotificationTypeContact, entities.NotificationCategoryInvitation, contact.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Invitation rejected", "contact_id", contactID, "account_id", accountID)
	return nil
}

// ReconcileNewAccount binds every pending contact row targeting the new
// account's email to the account and notifies it about each waiting
// invitation. Runs in one transaction; a failure rolls the whole
// reconciliation back.
func (s *ContactService) ReconcileNewAccount(ctx context.Context, account *entities.Account) (int, error) {
	matched := 0

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		pending, err := s.contactRepo.ListPendingByEmail(ctx, account.Email)
		if err != nil {
			return err
		}

		for _, contact := range pending {
			if contact.OwnerID == account.ID {
				continue
			}

			contact.AccountID = &account.ID
			contact.Name = account.Name
			contact.Email = account.Email
			if err := s.contactRepo.Update(ctx, contact); err != nil {
				return err
			}

			inviter, err := s.accountRepo.GetByID(ctx, contact.OwnerID)
			if err != nil {
				return fmt.Errorf("load inviter account: %w", err)
			}

			if err := s.notifyInvitation(ctx, account.ID, inviter, contact); err != nil {
				return err
			}

			matched++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	if matched > 0 {
		s.logger.Info("Pending invitations reconciled", "account_id", account.ID, "matched", matched)
	}
	return matched, nil
}

func (s *ContactService) notifyInvitation(ctx context.Context, accountID uuid.UUID, inviter *entities.Account, contact *entities.Contact) error {
	referenceID := contact.ID
	return s.notificationRepo.Upsert(ctx, &entities.Notification{
		AccountID:          accountID,
		Title:              "Novo convite de contato",
		Message:            fmt.Sprintf("%s convidou você para ser contato", inviter.Name),
		Type:               entities.NotificationTypeContact,
		Category:           entities.NotificationCategoryInvitation,
		ReferenceID:        &referenceID,
		InteractionPending: true,
	})
}
