package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/unihub/core/internal/domain/entities"
	"github.com/unihub/core/internal/ports"
)

type contactFixture struct {
	accounts      *fakeAccountRepo
	contacts      *fakeContactRepo
	notifications *fakeNotificationRepo
	service       *ContactService
}

func newContactFixture(t *testing.T) *contactFixture {
	t.Helper()
	f := &contactFixture{
		accounts:      newFakeAccountRepo(),
		contacts:      newFakeContactRepo(),
		notifications: newFakeNotificationRepo(),
	}
	f.service = NewContactService(fakeTransactor{}, f.contacts, f.accounts, f.notifications, testLogger(t))
	return f
}

func (f *contactFixture) seedAccount(t *testing.T, name, email string) *entities.Account {
	t.Helper()
	account := &entities.Account{Name: name, Email: email}
	if err := f.accounts.Create(context.Background(), account); err != nil {
		t.Fatalf("seed account %s: %v", email, err)
	}
	return account
}

func TestCreateContactResolvesRegisteredEmail(t *testing.T) {
	f := newContactFixture(t)
	ctx := context.Background()
	owner := f.seedAccount(t, "Ana", "ana@example.com")
	target := f.seedAccount(t, "Bruno", "bruno@example.com")

	contact, err := f.service.CreateContact(ctx, owner.ID, ports.CreateContactRequest{
		Name:  "Bruno",
		Email: "Bruno@Example.com",
	})
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}
	if contact.AccountID == nil || *contact.AccountID != target.ID {
		t.Fatalf("contact should resolve to %s, got %v", target.ID, contact.AccountID)
	}
	if !contact.Pending {
		t.Fatal("new contact should be pending until accepted")
	}
	if contact.Email != "bruno@example.com" {
		t.Fatalf("email should be stored lowercased, got %q", contact.Email)
	}

	notifications, err := f.notifications.List(ctx, target.ID, ports.NotificationFilter{})
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("expected 1 invitation notification, got %d", len(notifications))
	}
	n := notifications[0]
	if !n.InteractionPending {
		t.Error("invitation notification should demand interaction")
	}
	if n.ReferenceID == nil || *n.ReferenceID != contact.ID {
		t.Errorf("notification should reference contact %d, got %v", contact.ID, n.ReferenceID)
	}
}

func TestCreateContactUnregisteredEmailStaysUnresolved(t *testing.T) {
	f := newContactFixture(t)
	ctx := context.Background()
	owner := f.seedAccount(t, "Ana", "ana@example.com")

	contact, err := f.service.CreateContact(ctx, owner.ID, ports.CreateContactRequest{
		Name:  "Carla",
		Email: "carla@example.com",
	})
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}
	if contact.AccountID != nil {
		t.Fatalf("unregistered email should leave the contact unresolved, got %v", contact.AccountID)
	}
	if len(f.notifications.notifications) != 0 {
		t.Fatal("no account to notify, no notification expected")
	}
}

func TestCreateContactOwnEmailRejected(t *testing.T) {
	f := newContactFixture(t)
	owner := f.seedAccount(t, "Ana", "ana@example.com")

	_, err := f.service.CreateContact(context.Background(), owner.ID, ports.CreateContactRequest{
		Name:  "Eu",
		Email: "ANA@example.com",
	})
	if !errors.Is(err, entities.ErrSelfContact) {
		t.Fatalf("expected ErrSelfContact, got %v", err)
	}
}

func TestCreateContactDuplicateEmail(t *testing.T) {
	f := newContactFixture(t)
	ctx := context.Background()
	owner := f.seedAccount(t, "Ana", "ana@example.com")

	req := ports.CreateContactRequest{Name: "Carla", Email: "carla@example.com"}
	if _, err := f.service.CreateContact(ctx, owner.ID, req); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := f.service.CreateContact(ctx, owner.ID, req)
	if !errors.Is(err, entities.ErrDuplicateContact) {
		t.Fatalf("expected ErrDuplicateContact, got %v", err)
	}
}

func TestUpdateContactEmailChangeResetsResolution(t *testing.T) {
	f := newContactFixture(t)
	ctx := context.Background()
	owner := f.seedAccount(t, "Ana", "ana@example.com")
	f.seedAccount(t, "Bruno", "bruno@example.com")

	contact, err := f.service.CreateContact(ctx, owner.ID, ports.CreateContactRequest{
		Name:  "Bruno",
		Email: "bruno@example.com",
	})
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}

	newEmail := "outro@example.com"
	updated, err := f.service.UpdateContact(ctx, owner.ID, contact.ID, ports.UpdateContactRequest{Email: &newEmail})
	if err != nil {
		t.Fatalf("UpdateContact: %v", err)
	}
	if updated.AccountID != nil {
		t.Errorf("email change to an unregistered address should clear resolution, got %v", updated.AccountID)
	}
	if !updated.Pending || updated.ConfirmedAt != nil {
		t.Error("email change should put the contact back into pending")
	}
}

func TestDeleteContactRemovesReciprocalRow(t *testing.T) {
	f := newContactFixture(t)
	ctx := context.Background()
	ana := f.seedAccount(t, "Ana", "ana@example.com")
	bruno := f.seedAccount(t, "Bruno", "bruno@example.com")

	contact, err := f.service.CreateContact(ctx, ana.ID, ports.CreateContactRequest{
		Name:  "Bruno",
		Email: "bruno@example.com",
	})
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}
	if _, err := f.service.AcceptInvitation(ctx, bruno.ID, contact.ID); err != nil {
		t.Fatalf("AcceptInvitation: %v", err)
	}

	if err := f.service.DeleteContact(ctx, ana.ID, contact.ID); err != nil {
		t.Fatalf("DeleteContact: %v", err)
	}

	if len(f.contacts.contacts) != 0 {
		t.Fatalf("both sides of the edge should be gone, %d rows remain", len(f.contacts.contacts))
	}
}

func TestListPendingInvitationsEmailMustMatchRequester(t *testing.T) {
	f := newContactFixture(t)
	ctx := context.Background()
	bruno := f.seedAccount(t, "Bruno", "bruno@example.com")

	if _, err := f.service.ListPendingInvitations(ctx, bruno.ID, "BRUNO@example.com"); err != nil {
		t.Fatalf("own email, case-insensitive, should pass: %v", err)
	}

	_, err := f.service.ListPendingInvitations(ctx, bruno.ID, "outra@example.com")
	if !errors.Is(err, entities.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a foreign mailbox, got %v", err)
	}
}

func TestAcceptInvitation(t *testing.T) {
	f := newContactFixture(t)
	ctx := context.Background()
	ana := f.seedAccount(t, "Ana", "ana@example.com")
	bruno := f.seedAccount(t, "Bruno", "bruno@example.com")

	contact, err := f.service.CreateContact(ctx, ana.ID, ports.CreateContactRequest{
		Name:  "Bruno",
		Email: "bruno@example.com",
	})
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}

	accepted, err := f.service.AcceptInvitation(ctx, bruno.ID, contact.ID)
	if err != nil {
		t.Fatalf("AcceptInvitation: %v", err)
	}
	if accepted.Pending || accepted.ConfirmedAt == nil {
		t.Fatal("accepted invitation should be confirmed")
	}

	mirror, err := f.contacts.FindByOwnerAndAccount(ctx, bruno.ID, ana.ID)
	if err != nil {
		t.Fatalf("mirror row should exist on the acceptor's side: %v", err)
	}
	if mirror.Pending || mirror.ConfirmedAt == nil {
		t.Error("mirror row should be created already confirmed")
	}
	if mirror.Name != "Ana" || mirror.Email != "ana@example.com" {
		t.Errorf("mirror row should carry the inviter's identity, got %q %q", mirror.Name, mirror.Email)
	}

	notifications, err := f.notifications.List(ctx, bruno.ID, ports.NotificationFilter{})
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifications) != 1 || notifications[0].InteractionPending || !notifications[0].Read {
		t.Error("invitation notification should be resolved on accept")
	}

	// Second accept is a conflict, not a second mirror.
	if _, err := f.service.AcceptInvitation(ctx, bruno.ID, contact.ID); !errors.Is(err, entities.ErrInvitationResolved) {
		t.Fatalf("expected ErrInvitationResolved on repeat accept, got %v", err)
	}
	if len(f.contacts.contacts) != 2 {
		t.Fatalf("expected exactly 2 contact rows after accept, got %d", len(f.contacts.contacts))
	}
}

func TestAcceptInvitationNotAddressedToRequester(t *testing.T) {
	f := newContactFixture(t)
	ctx := context.Background()
	ana := f.seedAccount(t, "Ana", "ana@example.com")
	f.seedAccount(t, "Bruno", "bruno@example.com")
	intruder := f.seedAccount(t, "Carla", "carla@example.com")

	contact, err := f.service.CreateContact(ctx, ana.ID, ports.CreateContactRequest{
		Name:  "Bruno",
		Email: "bruno@example.com",
	})
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}

	_, err = f.service.AcceptInvitation(ctx, intruder.ID, contact.ID)
	if !errors.Is(err, entities.ErrContactNotFound) {
		t.Fatalf("foreign invitation should look nonexistent, got %v", err)
	}
}

func TestRejectInvitationDeletesInviterRow(t *testing.T) {
	f := newContactFixture(t)
	ctx := context.Background()
	ana := f.seedAccount(t, "Ana", "ana@example.com")
	bruno := f.seedAccount(t, "Bruno", "bruno@example.com")

	contact, err := f.service.CreateContact(ctx, ana.ID, ports.CreateContactRequest{
		Name:  "Bruno",
		Email: "bruno@example.com",
	})
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}

	if err := f.service.RejectInvitation(ctx, bruno.ID, contact.ID); err != nil {
		t.Fatalf("RejectInvitation: %v", err)
	}

	if _, err := f.contacts.GetByID(ctx, contact.ID); !errors.Is(err, entities.ErrContactNotFound) {
		t.Fatal("rejected invitation row should be deleted")
	}
	notifications, err := f.notifications.List(ctx, bruno.ID, ports.NotificationFilter{})
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifications) != 1 || notifications[0].InteractionPending {
		t.Error("invitation notification should be resolved on reject")
	}
}

func TestReconcileNewAccountBindsPendingRows(t *testing.T) {
	f := newContactFixture(t)
	ctx := context.Background()
	ana := f.seedAccount(t, "Ana", "ana@example.com")
	carla := f.seedAccount(t, "Carla", "carla@example.com")

	// Two owners invited the same unregistered address, spelled differently.
	for _, owner := range []uuid.UUID{ana.ID, carla.ID} {
		contact := &entities.Contact{
			OwnerID: owner,
			Name:    "Vanessa",
			Email:   "Vanessa.Lima@Example.com",
			Pending: true,
		}
		if err := f.contacts.Create(ctx, contact); err != nil {
			t.Fatalf("seed pending contact: %v", err)
		}
	}

	vanessa := f.seedAccount(t, "Vanessa Lima", "vanessa.lima@example.com")
	matched, err := f.service.ReconcileNewAccount(ctx, vanessa)
	if err != nil {
		t.Fatalf("ReconcileNewAccount: %v", err)
	}
	if matched != 2 {
		t.Fatalf("expected 2 reconciled rows, got %d", matched)
	}

	for _, c := range f.contacts.contacts {
		if !c.ResolvesTo(vanessa.ID) {
			t.Errorf("contact %d should resolve to the new account", c.ID)
		}
		if !c.Pending {
			t.Errorf("contact %d should stay pending until accepted", c.ID)
		}
		if c.Name != "Vanessa Lima" {
			t.Errorf("contact %d should take the registered name, got %q", c.ID, c.Name)
		}
	}

	notifications, err := f.notifications.List(ctx, vanessa.ID, ports.NotificationFilter{})
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifications) != 2 {
		t.Fatalf("expected one invitation notification per reconciled row, got %d", len(notifications))
	}
}

func TestReconcileNewAccountSkipsOwnRows(t *testing.T) {
	f := newContactFixture(t)
	ctx := context.Background()

	// A row the account itself created before registering would self-resolve;
	// reconciliation must leave it alone.
	id := uuid.New()
	contact := &entities.Contact{
		OwnerID: id,
		Name:    "Eu mesmo",
		Email:   "dup@example.com",
		Pending: true,
	}
	if err := f.contacts.Create(ctx, contact); err != nil {
		t.Fatalf("seed contact: %v", err)
	}

	account := &entities.Account{ID: id, Name: "Dup", Email: "dup@example.com"}
	if err := f.accounts.Create(ctx, account); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	matched, err := f.service.ReconcileNewAccount(ctx, account)
	if err != nil {
		t.Fatalf("ReconcileNewAccount: %v", err)
	}
	if matched != 0 {
		t.Fatalf("self-owned rows must not reconcile, matched %d", matched)
	}
	got, _ := f.contacts.GetByID(ctx, contact.ID)
	if got.AccountID != nil {
		t.Fatal("self-owned row must stay unresolved")
	}
}
