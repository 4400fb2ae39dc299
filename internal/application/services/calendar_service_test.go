package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/unihub/core/internal/domain/entities"
	"github.com/unihub/core/internal/ports"
)

type fakeCalendarRepo struct {
	links map[uuid.UUID]*entities.CalendarLink
}

func (r *fakeCalendarRepo) Get(_ context.Context, accountID uuid.UUID) (*entities.CalendarLink, error) {
	link, ok := r.links[accountID]
	if !ok {
		return &entities.CalendarLink{AccountID: accountID}, nil
	}
	cp := *link
	return &cp, nil
}

func (r *fakeCalendarRepo) Put(_ context.Context, link *entities.CalendarLink) error {
	cp := *link
	r.links[link.AccountID] = &cp
	return nil
}

func (r *fakeCalendarRepo) Delete(_ context.Context, accountID uuid.UUID) error {
	delete(r.links, accountID)
	return nil
}

func TestCalendarLinkLifecycle(t *testing.T) {
	repo := &fakeCalendarRepo{links: make(map[uuid.UUID]*entities.CalendarLink)}
	service := NewCalendarService(repo, testLogger(t))
	ctx := context.Background()
	accountID := uuid.New()

	status, err := service.Status(ctx, accountID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Connected {
		t.Fatal("never-connected account should report disconnected, not error")
	}

	calendarID := "primary"
	link, err := service.Connect(ctx, accountID, ports.ConnectCalendarRequest{CalendarID: &calendarID})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !link.Connected || link.ConnectedAt == nil {
		t.Fatal("connect should mark the link connected and stamp the time")
	}

	status, err = service.Status(ctx, accountID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Connected || status.CalendarID == nil || *status.CalendarID != "primary" {
		t.Fatalf("status should reflect the stored link, got %+v", status)
	}

	if err := service.Disconnect(ctx, accountID); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	status, err = service.Status(ctx, accountID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Connected {
		t.Fatal("disconnect should clear the link")
	}
}
