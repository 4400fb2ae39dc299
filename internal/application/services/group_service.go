package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/unihub/core/internal/domain/entities"
	"github.com/unihub/core/internal/infrastructure/logger"
	"github.com/unihub/core/internal/ports"
)

// GroupService handles contact-group operations
type GroupService struct {
	tx          ports.Transactor
	groupRepo   ports.GroupRepository
	contactRepo ports.ContactRepository
	logger      *logger.Logger
}

// NewGroupService creates a new group service
func NewGroupService(tx ports.Transactor, groupRepo ports.GroupRepository, contactRepo ports.ContactRepository, logger *logger.Logger) *GroupService {
	return &GroupService{
		tx:          tx,
		groupRepo:   groupRepo,
		contactRepo: contactRepo,
		logger:      logger,
	}
}

// CreateGroup creates a group over the owner's contacts. Every member, and
// the admin when set, must be a contact the owner holds.
func (s *GroupService) CreateGroup(ctx context.Context, ownerID uuid.UUID, req ports.CreateGroupRequest) (*entities.Group, error) {
	memberIDs := dedupeInts(req.MemberContactIDs)

	if err := s.verifyOwnedContacts(ctx, ownerID, memberIDs); err != nil {
		return nil, err
	}
	if req.AdminContactID != nil {
		if err := s.verifyOwnedContacts(ctx, ownerID, []int{*req.AdminContactID}); err != nil {
			return nil, err
		}
	}

	group := &entities.Group{
		OwnerID:        ownerID,
		Name:           req.Name,
		AdminContactID: req.AdminContactID,
		MemberIDs:      memberIDs,
	}

	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}

	s.logger.Info("Group created", "group_id", group.ID, "owner_id", ownerID, "members", len(memberIDs))
	return group, nil
}

// GetGroup returns one of the requester's groups.
func (s *GroupService) GetGroup(ctx context.Context, ownerID uuid.UUID, id int) (*entities.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if group.OwnerID != ownerID {
		return nil, entities.ErrGroupNotFound
	}

	return group, nil
}

// ListGroups returns the requester's groups.
func (s *GroupService) ListGroups(ctx context.Context, ownerID uuid.UUID) ([]*entities.Group, error) {
	return s.groupRepo.List(ctx, ownerID)
}

// SearchGroups filters the requester's groups by name.
func (s *GroupService) SearchGroups(ctx context.Context, ownerID uuid.UUID, name string) ([]*entities.Group, error) {
	return s.groupRepo.Search(ctx, ownerID, name)
}

// UpdateGroup changes a group's name, admin or membership. A nil member list
// leaves the membership untouched; an empty one clears it.
func (s *GroupService) UpdateGroup(ctx context.Context, ownerID uuid.UUID, id int, req ports.UpdateGroupRequest) (*entities.Group, error) {
	group, err := s.GetGroup(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		group.Name = *req.Name
	}
	if req.AdminContactID != nil {
		if err := s.verifyOwnedContacts(ctx, ownerID, []int{*req.AdminContactID}); err != nil {
			return nil, err
		}
		group.AdminContactID = req.AdminContactID
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.groupRepo.Update(ctx, group); err != nil {
			return err
		}

		if req.MemberContactIDs != nil {
			memberIDs := dedupeInts(*req.MemberContactIDs)
			if err := s.verifyOwnedContacts(ctx, ownerID, memberIDs); err != nil {
				return err
			}
			if err := s.groupRepo.SetMembers(ctx, group.ID, memberIDs); err != nil {
				return err
			}
			group.MemberIDs = memberIDs
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return group, nil
}

// DeleteGroup removes one of the requester's groups.
func (s *GroupService) DeleteGroup(ctx context.Context, ownerID uuid.UUID, id int) error {
	group, err := s.GetGroup(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := s.groupRepo.Delete(ctx, group.ID); err != nil {
		return err
	}

	s.logger.Info("Group deleted", "group_id", id, "owner_id", ownerID)
	return nil
}

// LeaveGroup removes the requester from a group they were added to through
// one of the owner's contacts. The requester is identified by whichever
// member contact resolves to their account.
func (s *GroupService) LeaveGroup(ctx context.Context, accountID uuid.UUID, groupID int) error {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}

	if group.OwnerID == accountID {
		// Owners delete groups, they do not leave them.
		return entities.ErrNotGroupMember
	}

	for _, contactID := range group.MemberIDs {
		contact, err := s.contactRepo.GetByID(ctx, contactID)
		if err != nil {
			continue
		}
		if contact.ResolvesTo(accountID) {
			if err := s.groupRepo.RemoveMember(ctx, groupID, contactID); err != nil {
				return err
			}
			s.logger.Info("Member left group", "group_id", groupID, "account_id", accountID, "contact_id", contactID)
			return nil
		}
	}

	return entities.ErrNotGroupMember
}

func (s *GroupService) verifyOwnedContacts(ctx context.Context, ownerID uuid.UUID, contactIDs []int) error {
	for _, id := range contactIDs {
		contact, err := s.contactRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if contact.OwnerID != ownerID {
			return entities.ErrContactNotFound
		}
	}
	return nil
}

func dedupeInts(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
