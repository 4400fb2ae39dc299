package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/unihub/core/internal/domain/entities"
	"github.com/unihub/core/internal/infrastructure/logger"
	"github.com/unihub/core/internal/ports"
)

// CalendarService tracks the per-account external calendar connection. The
// actual event sync happens on the provider's side; this only holds the link
// state the API reports and toggles.
type CalendarService struct {
	calendarRepo ports.CalendarRepository
	logger       *logger.Logger
}

// NewCalendarService creates a new calendar service
func NewCalendarService(calendarRepo ports.CalendarRepository, logger *logger.Logger) *CalendarService {
	return &CalendarService{
		calendarRepo: calendarRepo,
		logger:       logger,
	}
}

// Status returns the account's calendar link state. Accounts that never
// connected get a disconnected state, not an error.
func (s *CalendarService) Status(ctx context.Context, accountID uuid.UUID) (*entities.CalendarLink, error) {
	return s.calendarRepo.Get(ctx, accountID)
}

// Connect marks the account's calendar as connected.
func (s *CalendarService) Connect(ctx context.Context, accountID uuid.UUID, req ports.ConnectCalendarRequest) (*entities.CalendarLink, error) {
	now := time.Now()
	link := &entities.CalendarLink{
		AccountID:   accountID,
		Connected:   true,
		CalendarID:  req.CalendarID,
		ConnectedAt: &now,
	}

	if err := s.calendarRepo.Put(ctx, link); err != nil {
		return nil, err
	}

	s.logger.Info("Calendar connected", "account_id", accountID)
	return link, nil
}

// Disconnect clears the account's calendar link.
func (s *CalendarService) Disconnect(ctx context.Context, accountID uuid.UUID) error {
	if err := s.calendarRepo.Delete(ctx, accountID); err != nil {
		return err
	}

	s.logger.Info("Calendar disconnected", "account_id", accountID)
	return nil
}
