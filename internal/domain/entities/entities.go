package entities

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrContactNotFound      = errors.New("contact not found")
	ErrGroupNotFound        = errors.New("group not found")
	ErrBoardNotFound        = errors.New("board not found")
	ErrColumnNotFound       = errors.New("column not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrCourseNotFound       = errors.New("course not found")
	ErrInstitutionNotFound  = errors.New("institution not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrAbsenceNotFound      = errors.New("absence not found")
	ErrAssessmentNotFound   = errors.New("assessment not found")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrPasswordNotSet       = errors.New("account has no password set")
	ErrSelfContact          = errors.New("contact cannot point at its own owner")
	ErrDuplicateContact     = errors.New("contact with this email already exists")
	ErrInvitationResolved   = errors.New("invitation already resolved")
	ErrInvitationPending    = errors.New("invitation still pending")
	ErrNotGroupMember       = errors.New("account is not a member of the group")
	ErrForbidden            = errors.New("operation not allowed for this account")
	ErrBoardClosed          = errors.New("board is closed")
	ErrInvalidStatus        = errors.New("invalid status")
)

// BoardStatus is the lifecycle state of a planning board.
type BoardStatus string

const (
	BoardStatusActive BoardStatus = "ACTIVE"
	BoardStatusClosed BoardStatus = "CLOSED"
)

func (bs BoardStatus) IsValid() bool {
	switch bs {
	case BoardStatusActive, BoardStatusClosed:
		return true
	default:
		return false
	}
}

// TaskStatus is the state of a board task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

func (ts TaskStatus) IsValid() bool {
	switch ts {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

// NotificationPriority keys per-account reminder preferences.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
)

func (p NotificationPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// LeadTime is how far ahead of a deadline a reminder fires.
type LeadTime string

const (
	LeadTimeNone    LeadTime = "none"
	LeadTimeOneHour LeadTime = "1h"
	LeadTimeOneDay  LeadTime = "1d"
	LeadTimeTwoDays LeadTime = "2d"
	LeadTimeOneWeek LeadTime = "1w"
)

func (lt LeadTime) IsValid() bool {
	switch lt {
	case LeadTimeNone, LeadTimeOneHour, LeadTimeOneDay, LeadTimeTwoDays, LeadTimeOneWeek:
		return true
	default:
		return false
	}
}

// Account represents a registered UniHub account.
type Account struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash *string    `json:"-" db:"password_hash"`
	GoogleID     *string    `json:"-" db:"google_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at" db:"last_login_at"`
}

// IsSocialOnly reports whether the account can only sign in through Google.
func (a *Account) IsSocialOnly() bool {
	return a.PasswordHash == nil && a.GoogleID != nil
}

// Contact is a directed, owner-scoped reference to another account (resolved)
// or to an external email (unresolved). Mutual contacts are two independent
// rows, one per direction. Wire names follow the published API contract.
type Contact struct {
	ID          int        `json:"id" db:"id"`
	OwnerID     uuid.UUID  `json:"-" db:"owner_id"`
	Name        string     `json:"nome" db:"name"`
	Email       string     `json:"email" db:"email"`
	AccountID   *uuid.UUID `json:"idContato" db:"account_id"`
	Pending     bool       `json:"pendente" db:"pending"`
	RequestedAt time.Time  `json:"solicitadoEm" db:"requested_at"`
	ConfirmedAt *time.Time `json:"confirmadoEm" db:"confirmed_at"`
}

// ResolvesTo reports whether the contact points at the given account.
func (c *Contact) ResolvesTo(accountID uuid.UUID) bool {
	return c.AccountID != nil && *c.AccountID == accountID
}

// EmailMatches compares the stored target email case-insensitively.
func (c *Contact) EmailMatches(email string) bool {
	return strings.EqualFold(c.Email, email)
}

// Group is a named collection of the owner's contacts.
type Group struct {
	ID             int       `json:"id" db:"id"`
	OwnerID        uuid.UUID `json:"-" db:"owner_id"`
	Name           string    `json:"nome" db:"name"`
	AdminContactID *int      `json:"admin_contact_id" db:"admin_contact_id"`
	MemberIDs      []int     `json:"member_contact_ids"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Board is a kanban-style planning container owned by one account, optionally
// shared with a single contact or a single group.
type Board struct {
	ID        int         `json:"id" db:"id"`
	OwnerID   uuid.UUID   `json:"owner_id" db:"owner_id"`
	Title     string      `json:"titulo" db:"title"`
	Status    BoardStatus `json:"status" db:"status"`
	DueAt     *time.Time  `json:"due_at" db:"due_at"`
	ContactID *int        `json:"contact_id" db:"contact_id"`
	GroupID   *int        `json:"group_id" db:"group_id"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	ClosedAt  *time.Time  `json:"closed_at" db:"closed_at"`
	Columns   []Column    `json:"columns"`
}

// Close transitions the board to CLOSED, stamping the closure time once.
func (b *Board) Close(now time.Time) {
	if b.Status == BoardStatusClosed {
		return
	}
	b.Status = BoardStatusClosed
	b.ClosedAt = &now
}

// IsShared reports whether the board is linked to a contact or a group.
func (b *Board) IsShared() bool {
	return b.ContactID != nil || b.GroupID != nil
}

// Column is an ordered lane inside a board. Position is unique per board and
// assigned monotonically on creation.
type Column struct {
	ID       int    `json:"id" db:"id"`
	BoardID  int    `json:"board_id" db:"board_id"`
	Title    string `json:"titulo" db:"title"`
	Position int    `json:"position" db:"position"`
	State    string `json:"state" db:"state"`
	Tasks    []Task `json:"tasks"`
}

// Task is a card inside a column, optionally assigned to contacts.
type Task struct {
	ID          int        `json:"id" db:"id"`
	ColumnID    int        `json:"column_id" db:"column_id"`
	Title       string     `json:"titulo" db:"title"`
	Description string     `json:"descricao" db:"description"`
	Status      TaskStatus `json:"status" db:"status"`
	DueDate     *time.Time `json:"due_date" db:"due_date"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	AssigneeIDs []int      `json:"assignee_contact_ids"`
}

// SetStatus applies a status transition, stamping or clearing completion.
func (t *Task) SetStatus(status TaskStatus, now time.Time) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}
	t.Status = status
	if status == TaskStatusDone {
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
	return nil
}

// Notification is a per-account message, optionally demanding interaction
// (e.g. a pending contact invitation).
type Notification struct {
	ID                 int       `json:"id" db:"id"`
	AccountID          uuid.UUID `json:"-" db:"account_id"`
	Title              string    `json:"title" db:"title"`
	Message            string    `json:"message" db:"message"`
	Type               string    `json:"type" db:"type"`
	Category           string    `json:"category" db:"category"`
	ReferenceID        *int      `json:"reference_id" db:"reference_id"`
	InteractionPending bool      `json:"interaction_pending" db:"interaction_pending"`
	Read               bool      `json:"read" db:"read"`
	Metadata           *string   `json:"metadata" db:"metadata"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// Notification type/category tags used by the invitation flow.
const (
	NotificationTypeContact        = "contact"
	NotificationCategoryInvitation = "invitation"
)

// NotificationPreference maps a priority to the reminder lead time an account
// wants for it.
type NotificationPreference struct {
	AccountID uuid.UUID            `json:"-" db:"account_id"`
	Priority  NotificationPriority `json:"priority" db:"priority"`
	LeadTime  LeadTime             `json:"lead_time" db:"lead_time"`
}

// Institution is a school or university an account studies at.
type Institution struct {
	ID        int       `json:"id" db:"id"`
	OwnerID   uuid.UUID `json:"-" db:"owner_id"`
	Name      string    `json:"nome" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Course is a tracked discipline, optionally tied to an institution.
type Course struct {
	ID            int       `json:"id" db:"id"`
	OwnerID       uuid.UUID `json:"-" db:"owner_id"`
	InstitutionID *int      `json:"institution_id" db:"institution_id"`
	Name          string    `json:"nome" db:"name"`
	Professor     *string   `json:"professor" db:"professor"`
	AbsenceLimit  *int      `json:"absence_limit" db:"absence_limit"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Category tags study records for filtering.
type Category struct {
	ID      int       `json:"id" db:"id"`
	OwnerID uuid.UUID `json:"-" db:"owner_id"`
	Name    string    `json:"nome" db:"name"`
	Color   *string   `json:"color" db:"color"`
}

// Absence records one or more missed sessions of a course.
type Absence struct {
	ID        int       `json:"id" db:"id"`
	OwnerID   uuid.UUID `json:"-" db:"owner_id"`
	CourseID  int       `json:"course_id" db:"course_id"`
	Date      time.Time `json:"data" db:"date"`
	Count     int       `json:"count" db:"count"`
	Justified bool      `json:"justified" db:"justified"`
}

// Assessment is a graded evaluation tied to a course.
type Assessment struct {
	ID          int        `json:"id" db:"id"`
	OwnerID     uuid.UUID  `json:"-" db:"owner_id"`
	CourseID    int        `json:"course_id" db:"course_id"`
	Description string     `json:"descricao" db:"description"`
	Date        *time.Time `json:"data" db:"date"`
	Grade       *float64   `json:"nota" db:"grade"`
	MaxGrade    *float64   `json:"nota_maxima" db:"max_grade"`
	Weight      *float64   `json:"peso" db:"weight"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// Percentage returns the grade as a fraction of the maximum, when both are set.
func (a *Assessment) Percentage() (float64, bool) {
	if a.Grade == nil || a.MaxGrade == nil || *a.MaxGrade == 0 {
		return 0, false
	}
	return *a.Grade / *a.MaxGrade * 100, true
}

// CalendarLink is the per-account external calendar connection state. The
// sync itself is delegated to the external calendar provider.
type CalendarLink struct {
	AccountID   uuid.UUID  `json:"-" db:"account_id"`
	Connected   bool       `json:"connected" db:"connected"`
	CalendarID  *string    `json:"calendar_id" db:"calendar_id"`
	SyncToken   *string    `json:"-" db:"sync_token"`
	ConnectedAt *time.Time `json:"connected_at" db:"connected_at"`
}
