package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/unihub/core/internal/domain/entities"
	"github.com/unihub/core/internal/infrastructure/config"
	"github.com/unihub/core/internal/infrastructure/logger"
	"github.com/unihub/core/internal/ports"
)

// In-memory fakes of the ports interfaces. State is plain maps; the fake
// transactor runs the function directly since atomicity is the database's
// concern, not the services'.

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(config.LoggerConfig{Level: "error", Format: "json"})
	if err != nil {
		t.Fatalf("build test logger: %v", err)
	}
	return l
}

type fakeTransactor struct{}

func (fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeAccountRepo

type fakeAccountRepo struct {
	accounts map[uuid.UUID]*entities.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uuid.UUID]*entities.Account)}
}

func (r *fakeAccountRepo) Create(_ context.Context, account *entities.Account) error {
	for _, a := range r.accounts {
		if strings.EqualFold(a.Email, account.Email) {
			return entities.ErrEmailTaken
		}
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	account.Email = strings.ToLower(account.Email)
	account.CreatedAt = time.Now()
	cp := *account
	r.accounts[account.ID] = &cp
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, entities.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*entities.Account, error) {
	for _, a := range r.accounts {
		if strings.EqualFold(a.Email, email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, entities.ErrAccountNotFound
}

func (r *fakeAccountRepo) GetByGoogleID(_ context.Context, googleID string) (*entities.Account, error) {
	for _, a := range r.accounts {
		if a.GoogleID != nil && *a.GoogleID == googleID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, entities.ErrAccountNotFound
}

func (r *fakeAccountRepo) LinkGoogleID(_ context.Context, id uuid.UUID, googleID string) error {
	a, ok := r.accounts[id]
	if !ok {
		return entities.ErrAccountNotFound
	}
	a.GoogleID = &googleID
	return nil
}

func (r *fakeAccountRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	a, ok := r.accounts[id]
	if !ok {
		return entities.ErrAccountNotFound
	}
	a.LastLoginAt = &at
	return nil
}

func (r *fakeAccountRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.accounts[id]; !ok {
		return entities.ErrAccountNotFound
	}
	delete(r.accounts, id)
	return nil
}

// fakeContactRepo

type fakeContactRepo struct {
	contacts map[int]*entities.Contact
	nextID   int
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{contacts: make(map[int]*entities.Contact), nextID: 1}
}

func (r *fakeContactRepo) Create(_ context.Context, contact *entities.Contact) error {
	for _, c := range r.contacts {
		if c.OwnerID == contact.OwnerID && strings.EqualFold(c.Email, contact.Email) {
			return entities.ErrDuplicateContact
		}
	}
	contact.ID = r.nextID
	r.nextID++
	contact.Email = strings.ToLower(contact.Email)
	if contact.RequestedAt.IsZero() {
		contact.RequestedAt = time.Now()
	}
	cp := *contact
	r.contacts[contact.ID] = &cp
	return nil
}

func (r *fakeContactRepo) GetByID(_ context.Context, id int) (*entities.Contact, error) {
	c, ok := r.contacts[id]
	if !ok {
		return nil, entities.ErrContactNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeContactRepo) Update(_ context.Context, contact *entities.Contact) error {
	if _, ok := r.contacts[contact.ID]; !ok {
		return entities.ErrContactNotFound
	}
	cp := *contact
	cp.Email = strings.ToLower(cp.Email)
	r.contacts[contact.ID] = &cp
	return nil
}

func (r *fakeContactRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.contacts[id]; !ok {
		return entities.ErrContactNotFound
	}
	delete(r.contacts, id)
	return nil
}

func (r *fakeContactRepo) List(_ context.Context, ownerID uuid.UUID) ([]*entities.Contact, error) {
	var out []*entities.Contact
	for _, c := range r.contacts {
		if c.OwnerID == ownerID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeContactRepo) Search(_ context.Context, ownerID uuid.UUID, name string) ([]*entities.Contact, error) {
	var out []*entities.Contact
	for _, c := range r.contacts {
		if c.OwnerID == ownerID && strings.Contains(strings.ToLower(c.Name), strings.ToLower(name)) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeContactRepo) FindByOwnerAndEmail(_ context.Context, ownerID uuid.UUID, email string) (*entities.Contact, error) {
	for _, c := range r.contacts {
		if c.OwnerID == ownerID && strings.EqualFold(c.Email, email) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, entities.ErrContactNotFound
}

func (r *fakeContactRepo) FindByOwnerAndAccount(_ context.Context, ownerID, accountID uuid.UUID) (*entities.Contact, error) {
	for _, c := range r.contacts {
		if c.OwnerID == ownerID && c.ResolvesTo(accountID) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, entities.ErrContactNotFound
}

func (r *fakeContactRepo) ListPendingByEmail(_ context.Context, email string) ([]*entities.Contact, error) {
	var out []*entities.Contact
	for _, c := range r.contacts {
		if c.Pending && strings.EqualFold(c.Email, email) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeContactRepo) ListPendingFor(_ context.Context, accountID uuid.UUID) ([]*entities.Contact, error) {
	var out []*entities.Contact
	for _, c := range r.contacts {
		if c.Pending && c.ResolvesTo(accountID) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeNotificationRepo

type fakeNotificationRepo struct {
	notifications map[int]*entities.Notification
	prefs         map[uuid.UUID][]entities.NotificationPreference
	nextID        int
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{
		notifications: make(map[int]*entities.Notification),
		prefs:         make(map[uuid.UUID][]entities.NotificationPreference),
		nextID:        1,
	}
}

func (r *fakeNotificationRepo) Upsert(_ context.Context, n *entities.Notification) error {
	for _, existing := range r.notifications {
		if existing.AccountID == n.AccountID && existing.Type == n.Type &&
			existing.Category == n.Category && intPtrEq(existing.ReferenceID, n.ReferenceID) {
			existing.Title = n.Title
			existing.Message = n.Message
			existing.InteractionPending = n.InteractionPending
			existing.UpdatedAt = time.Now()
			n.ID = existing.ID
			return nil
		}
	}
	n.ID = r.nextID
	r.nextID++
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt
	cp := *n
	r.notifications[n.ID] = &cp
	return nil
}

func (r *fakeNotificationRepo) GetByID(_ context.Context, id int) (*entities.Notification, error) {
	n, ok := r.notifications[id]
	if !ok {
		return nil, entities.ErrNotificationNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *fakeNotificationRepo) List(_ context.Context, accountID uuid.UUID, filter ports.NotificationFilter) ([]*entities.Notification, error) {
	var out []*entities.Notification
	for _, n := range r.notifications {
		if n.AccountID != accountID {
			continue
		}
		if filter.UnreadOnly && n.Read {
			continue
		}
		if filter.InteractionPending != nil && n.InteractionPending != *filter.InteractionPending {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, accountID uuid.UUID, id int) error {
	n, ok := r.notifications[id]
	if !ok || n.AccountID != accountID {
		return entities.ErrNotificationNotFound
	}
	n.Read = true
	return nil
}

func (r *fakeNotificationRepo) ResolveByReference(_ context.Context, accountID uuid.UUID, typ, category string, referenceID int) error {
	for _, n := range r.notifications {
		if n.AccountID == accountID && n.Type == typ && n.Category == category &&
			n.ReferenceID != nil && *n.ReferenceID == referenceID {
			n.Read = true
			n.InteractionPending = false
		}
	}
	return nil
}

func (r *fakeNotificationRepo) GetPreferences(_ context.Context, accountID uuid.UUID) ([]entities.NotificationPreference, error) {
	return append([]entities.NotificationPreference(nil), r.prefs[accountID]...), nil
}

func (r *fakeNotificationRepo) PutPreferences(_ context.Context, accountID uuid.UUID, prefs []entities.NotificationPreference) error {
	stored := r.prefs[accountID]
	for _, p := range prefs {
		replaced := false
		for i := range stored {
			if stored[i].Priority == p.Priority {
				stored[i].LeadTime = p.LeadTime
				replaced = true
				break
			}
		}
		if !replaced {
			stored = append(stored, p)
		}
	}
	r.prefs[accountID] = stored
	return nil
}

// fakeGroupRepo

type fakeGroupRepo struct {
	groups map[int]*entities.Group
	nextID int
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{groups: make(map[int]*entities.Group), nextID: 1}
}

func (r *fakeGroupRepo) Create(_ context.Context, group *entities.Group) error {
	group.ID = r.nextID
	r.nextID++
	group.CreatedAt = time.Now()
	cp := *group
	cp.MemberIDs = append([]int(nil), group.MemberIDs...)
	r.groups[group.ID] = &cp
	return nil
}

func (r *fakeGroupRepo) GetByID(_ context.Context, id int) (*entities.Group, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, entities.ErrGroupNotFound
	}
	cp := *g
	cp.MemberIDs = append([]int(nil), g.MemberIDs...)
	return &cp, nil
}

func (r *fakeGroupRepo) Update(_ context.Context, group *entities.Group) error {
	g, ok := r.groups[group.ID]
	if !ok {
		return entities.ErrGroupNotFound
	}
	g.Name = group.Name
	g.AdminContactID = group.AdminContactID
	return nil
}

func (r *fakeGroupRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.groups[id]; !ok {
		return entities.ErrGroupNotFound
	}
	delete(r.groups, id)
	return nil
}

func (r *fakeGroupRepo) List(_ context.Context, ownerID uuid.UUID) ([]*entities.Group, error) {
	var out []*entities.Group
	for _, g := range r.groups {
		if g.OwnerID == ownerID {
			cp := *g
			cp.MemberIDs = append([]int(nil), g.MemberIDs...)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeGroupRepo) Search(_ context.Context, ownerID uuid.UUID, name string) ([]*entities.Group, error) {
	var out []*entities.Group
	for _, g := range r.groups {
		if g.OwnerID == ownerID && strings.Contains(strings.ToLower(g.Name), strings.ToLower(name)) {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeGroupRepo) SetMembers(_ context.Context, groupID int, contactIDs []int) error {
	g, ok := r.groups[groupID]
	if !ok {
		return entities.ErrGroupNotFound
	}
	g.MemberIDs = append([]int(nil), contactIDs...)
	return nil
}

func (r *fakeGroupRepo) RemoveMember(_ context.Context, groupID, contactID int) error {
	g, ok := r.groups[groupID]
	if !ok {
		return entities.ErrGroupNotFound
	}
	for i, id := range g.MemberIDs {
		if id == contactID {
			g.MemberIDs = append(g.MemberIDs[:i], g.MemberIDs[i+1:]...)
			return nil
		}
	}
	return entities.ErrNotGroupMember
}

// fakeBoardRepo evaluates the visibility predicates in memory against the
// contact and group fakes it shares state with.

type fakeBoardRepo struct {
	boards   map[int]*entities.Board
	contacts *fakeContactRepo
	groups   *fakeGroupRepo
	nextID   int
}

func newFakeBoardRepo(contacts *fakeContactRepo, groups *fakeGroupRepo) *fakeBoardRepo {
	return &fakeBoardRepo{
		boards:   make(map[int]*entities.Board),
		contacts: contacts,
		groups:   groups,
		nextID:   1,
	}
}

func copyBoard(b *entities.Board) *entities.Board {
	cp := *b
	cp.Columns = make([]entities.Column, len(b.Columns))
	for i, col := range b.Columns {
		cc := col
		cc.Tasks = make([]entities.Task, len(col.Tasks))
		for j, task := range col.Tasks {
			tc := task
			tc.AssigneeIDs = append([]int(nil), task.AssigneeIDs...)
			cc.Tasks[j] = tc
		}
		cp.Columns[i] = cc
	}
	return &cp
}

func (r *fakeBoardRepo) Create(_ context.Context, board *entities.Board) error {
	board.ID = r.nextID
	r.nextID++
	board.CreatedAt = time.Now()
	for i := range board.Columns {
		board.Columns[i].ID = r.nextID
		r.nextID++
		board.Columns[i].BoardID = board.ID
		board.Columns[i].Position = i + 1
		for j := range board.Columns[i].Tasks {
			board.Columns[i].Tasks[j].ID = r.nextID
			r.nextID++
			board.Columns[i].Tasks[j].ColumnID = board.Columns[i].ID
		}
	}
	r.boards[board.ID] = copyBoard(board)
	return nil
}

func (r *fakeBoardRepo) GetByID(_ context.Context, id int) (*entities.Board, error) {
	b, ok := r.boards[id]
	if !ok {
		return nil, entities.ErrBoardNotFound
	}
	return copyBoard(b), nil
}

func (r *fakeBoardRepo) Update(_ context.Context, board *entities.Board) error {
	stored, ok := r.boards[board.ID]
	if !ok {
		return entities.ErrBoardNotFound
	}
	keep := stored.Columns
	r.boards[board.ID] = copyBoard(board)
	if board.Columns == nil {
		r.boards[board.ID].Columns = keep
		return nil
	}
	for i := range r.boards[board.ID].Columns {
		col := &r.boards[board.ID].Columns[i]
		if col.ID == 0 {
			col.ID = r.nextID
			r.nextID++
		}
		col.BoardID = board.ID
		col.Position = i + 1
		for j := range col.Tasks {
			if col.Tasks[j].ID == 0 {
				col.Tasks[j].ID = r.nextID
				r.nextID++
			}
			col.Tasks[j].ColumnID = col.ID
		}
	}
	return nil
}

func (r *fakeBoardRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.boards[id]; !ok {
		return entities.ErrBoardNotFound
	}
	delete(r.boards, id)
	return nil
}

func (r *fakeBoardRepo) visible(b *entities.Board, accountID uuid.UUID) bool {
	if b.OwnerID == accountID {
		return true
	}
	if b.ContactID != nil {
		if c, ok := r.contacts.contacts[*b.ContactID]; ok && c.ResolvesTo(accountID) {
			return true
		}
	}
	if b.GroupID != nil {
		if g, ok := r.groups.groups[*b.GroupID]; ok {
			for _, memberID := range g.MemberIDs {
				if c, ok := r.contacts.contacts[memberID]; ok && c.ResolvesTo(accountID) {
					return true
				}
			}
		}
	}
	for _, col := range b.Columns {
		for _, task := range col.Tasks {
			for _, assigneeID := range task.AssigneeIDs {
				if c, ok := r.contacts.contacts[assigneeID]; ok && c.ResolvesTo(accountID) {
					return true
				}
			}
		}
	}
	return false
}

func (r *fakeBoardRepo) ListVisible(_ context.Context, accountID uuid.UUID, filter ports.BoardFilter) ([]*entities.Board, error) {
	var out []*entities.Board
	for _, b := range r.boards {
		if !r.visible(b, accountID) {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		if filter.Title != nil && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(*filter.Title)) {
			continue
		}
		out = append(out, copyBoard(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeBoardRepo) IsVisible(_ context.Context, boardID int, accountID uuid.UUID) (bool, error) {
	b, ok := r.boards[boardID]
	if !ok {
		return false, nil
	}
	return r.visible(b, accountID), nil
}

func (r *fakeBoardRepo) findTask(taskID int) (*entities.Board, *entities.Task) {
	for _, b := range r.boards {
		for i := range b.Columns {
			for j := range b.Columns[i].Tasks {
				if b.Columns[i].Tasks[j].ID == taskID {
					return b, &b.Columns[i].Tasks[j]
				}
			}
		}
	}
	return nil, nil
}

func (r *fakeBoardRepo) GetTaskByID(_ context.Context, id int) (*entities.Task, error) {
	_, task := r.findTask(id)
	if task == nil {
		return nil, entities.ErrTaskNotFound
	}
	cp := *task
	cp.AssigneeIDs = append([]int(nil), task.AssigneeIDs...)
	return &cp, nil
}

func (r *fakeBoardRepo) GetTaskBoardID(_ context.Context, taskID int) (int, error) {
	b, task := r.findTask(taskID)
	if task == nil {
		return 0, entities.ErrTaskNotFound
	}
	return b.ID, nil
}

func (r *fakeBoardRepo) UpdateTask(_ context.Context, task *entities.Task) error {
	_, stored := r.findTask(task.ID)
	if stored == nil {
		return entities.ErrTaskNotFound
	}
	assignees := stored.AssigneeIDs
	*stored = *task
	if task.AssigneeIDs == nil {
		stored.AssigneeIDs = assignees
	} else {
		stored.AssigneeIDs = append([]int(nil), task.AssigneeIDs...)
	}
	return nil
}

func (r *fakeBoardRepo) IsTaskAssignee(_ context.Context, taskID int, accountID uuid.UUID) (bool, error) {
	_, task := r.findTask(taskID)
	if task == nil {
		return false, entities.ErrTaskNotFound
	}
	for _, assigneeID := range task.AssigneeIDs {
		if c, ok := r.contacts.contacts[assigneeID]; ok && c.ResolvesTo(accountID) {
			return true, nil
		}
	}
	return false, nil
}

// fakeAuthRepo

type fakeAuthRepo struct {
	tokens map[string]*ports.RefreshToken
	nextID int
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{tokens: make(map[string]*ports.RefreshToken), nextID: 1}
}

func (r *fakeAuthRepo) CreateRefreshToken(_ context.Context, accountID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	r.tokens[tokenHash] = &ports.RefreshToken{
		ID:        r.nextID,
		AccountID: accountID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	r.nextID++
	return nil
}

func (r *fakeAuthRepo) GetRefreshToken(_ context.Context, tokenHash string) (*ports.RefreshToken, error) {
	t, ok := r.tokens[tokenHash]
	if !ok {
		return nil, fmt.Errorf("refresh token not found")
	}
	cp := *t
	return &cp, nil
}

func (r *fakeAuthRepo) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	t, ok := r.tokens[tokenHash]
	if !ok {
		return fmt.Errorf("refresh token not found")
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (r *fakeAuthRepo) RevokeAllAccountTokens(_ context.Context, accountID uuid.UUID) error {
	now := time.Now()
	for _, t := range r.tokens {
		if t.AccountID == accountID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeAuthRepo) CleanupExpiredTokens(_ context.Context) error {
	for hash, t := range r.tokens {
		if t.IsExpired() {
			delete(r.tokens, hash)
		}
	}
	return nil
}

// fakeGoogleVerifier

type fakeGoogleVerifier struct {
	identities map[string]*ports.GoogleIdentity
}

func (v *fakeGoogleVerifier) Verify(_ context.Context, idToken string) (*ports.GoogleIdentity, error) {
	identity, ok := v.identities[idToken]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return identity, nil
}

func intPtrEq(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
