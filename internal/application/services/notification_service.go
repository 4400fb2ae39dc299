package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/unihub/core/internal/domain/entities"
	"github.com/unihub/core/internal/infrastructure/logger"
	"github.com/unihub/core/internal/ports"
)

// Defaults applied when an account never configured its reminder lead times.
var defaultPreferences = []entities.NotificationPreference{
	{Priority: entities.PriorityLow, LeadTime: entities.LeadTimeNone},
	{Priority: entities.PriorityMedium, LeadTime: entities.LeadTimeOneDay},
	{Priority: entities.PriorityHigh, LeadTime: entities.LeadTimeOneWeek},
}

// NotificationService handles notification listing and reminder preferences
type NotificationService struct {
	notificationRepo ports.NotificationRepository
	logger           *logger.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(notificationRepo ports.NotificationRepository, logger *logger.Logger) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

// ListNotifications returns the requester's notifications, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, accountID uuid.UUID, filter ports.NotificationFilter) ([]*entities.Notification, error) {
	return s.notificationRepo.List(ctx, accountID, filter)
}

// MarkRead marks one of the requester's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, accountID uuid.UUID, id int) error {
	return s.notificationRepo.MarkRead(ctx, accountID, id)
}

// GetPreferences returns the requester's reminder configuration, falling back
// to defaults for priorities never configured.
func (s *NotificationService) GetPreferences(ctx context.Context, accountID uuid.UUID) ([]entities.NotificationPreference, error) {
	stored, err := s.notificationRepo.GetPreferences(ctx, accountID)
	if err != nil {
		return nil, err
	}

	byPriority := make(map[entities.NotificationPriority]entities.NotificationPreference, len(stored))
	for _, p := range stored {
		byPriority[p.Priority] = p
	}

	prefs := make([]entities.NotificationPreference, 0, len(defaultPreferences))
	for _, def := range defaultPreferences {
		if p, ok := byPriority[def.Priority]; ok {
			prefs = append(prefs, p)
			continue
		}
		def.AccountID = accountID
		prefs = append(prefs, def)
	}

	return prefs, nil
}

// UpdatePreferences replaces the reminder lead time for each priority in the
// request. Priorities not mentioned keep their current value.
func (s *NotificationService) UpdatePreferences(ctx context.Context, accountID uuid.UUID, req ports.UpdatePreferencesRequest) ([]entities.NotificationPreference, error) {
	prefs := make([]entities.NotificationPreference, 0, len(req.Preferences))
	for _, item := range req.Preferences {
		if !item.Priority.IsValid() || !item.LeadTime.IsValid() {
			return nil, entities.ErrInvalidStatus
		}
		prefs = append(prefs, entities.NotificationPreference{
			AccountID: accountID,
			Priority:  item.Priority,
			LeadTime:  item.LeadTime,
		})
	}

	if err := s.notificationRepo.PutPreferences(ctx, accountID, prefs); err != nil {
		return nil, err
	}

	s.logger.Info("Notification preferences updated", "account_id", accountID, "count", len(prefs))
	return s.GetPreferences(ctx, accountID)
}
