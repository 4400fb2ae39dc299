package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/unihub/core/internal/domain/entities"
)

// Transactor runs a function inside a single database transaction. Repository
// calls made with the context it passes to fn join that transaction; the whole
// unit commits atomically or rolls back on error.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AccountRepository defines the interface for account data operations
type AccountRepository interface {
	Create(ctx context.Context, account *entities.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error)
	GetByEmail(ctx context.Context, email string) (*entities.Account, error)
	GetByGoogleID(ctx context.Context, googleID string) (*entities.Account, error)
	LinkGoogleID(ctx context.Context, id uuid.UUID, googleID string) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ContactRepository defines the interface for contact data operations.
// GetByID is deliberately unscoped: the invitation flow reads rows the
// requester does not own (the inviter's side of a pending edge); ownership
// checks live in the service layer.
type ContactRepository interface {
	Create(ctx context.Context, contact *entities.Contact) error
	GetByID(ctx context.Context, id int) (*entities.Contact, error)
	Update(ctx context.Context, contact *entities.Contact) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Contact, error)
	Search(ctx context.Context, ownerID uuid.UUID, name string) ([]*entities.Contact, error)
	FindByOwnerAndEmail(ctx context.Context, ownerID uuid.UUID, email string) (*entities.Contact, error)
	FindByOwnerAndAccount(ctx context.Context, ownerID, accountID uuid.UUID) (*entities.Contact, error)
	ListPendingByEmail(ctx context.Context, email string) ([]*entities.Contact, error)
	ListPendingFor(ctx context.Context, accountID uuid.UUID) ([]*entities.Contact, error)
}

// GroupRepository defines the interface for group data operations
type GroupRepository interface {
	Create(ctx context.Context, group *entities.Group) error
	GetByID(ctx context.Context, id int) (*entities.Group, error)
	Update(ctx context.Context, group *entities.Group) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Group, error)
	Search(ctx context.Context, ownerID uuid.UUID, name string) ([]*entities.Group, error)
	SetMembers(ctx context.Context, groupID int, contactIDs []int) error
	RemoveMember(ctx context.Context, groupID, contactID int) error
}

// BoardRepository defines the interface for planning-board data operations
type BoardRepository interface {
	Create(ctx context.Context, board *entities.Board) error
	GetByID(ctx context.Context, id int) (*entities.Board, error)
	Update(ctx context.Context, board *entities.Board) error
	Delete(ctx context.Context, id int) error
	ListVisible(ctx context.Context, accountID uuid.UUID, filter BoardFilter) ([]*entities.Board, error)
	IsVisible(ctx context.Context, boardID int, accountID uuid.UUID) (bool, error)
	GetTaskByID(ctx context.Context, id int) (*entities.Task, error)
	GetTaskBoardID(ctx context.Context, taskID int) (int, error)
	UpdateTask(ctx context.Context, task *entities.Task) error
	IsTaskAssignee(ctx context.Context, taskID int, accountID uuid.UUID) (bool, error)
}

// NotificationRepository defines the interface for notification data operations
type NotificationRepository interface {
	Upsert(ctx context.Context, notification *entities.Notification) error
	GetByID(ctx context.Context, id int) (*entities.Notification, error)
	List(ctx context.Context, accountID uuid.UUID, filter NotificationFilter) ([]*entities.Notification, error)
	MarkRead(ctx context.Context, accountID uuid.UUID, id int) error
	ResolveByReference(ctx context.Context, accountID uuid.UUID, typ, category string, referenceID int) error
	GetPreferences(ctx context.Context, accountID uuid.UUID) ([]entities.NotificationPreference, error)
	PutPreferences(ctx context.Context, accountID uuid.UUID, prefs []entities.NotificationPreference) error
}

// InstitutionRepository defines the interface for institution records
type InstitutionRepository interface {
	Create(ctx context.Context, institution *entities.Institution) error
	GetByID(ctx context.Context, ownerID uuid.UUID, id int) (*entities.Institution, error)
	Update(ctx context.Context, institution *entities.Institution) error
	Delete(ctx context.Context, ownerID uuid.UUID, id int) error
	List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Institution, error)
}

// CourseRepository defines the interface for course (discipline) records
type CourseRepository interface {
	Create(ctx context.Context, course *entities.Course) error
	GetByID(ctx context.Context, ownerID uuid.UUID, id int) (*entities.Course, error)
	Update(ctx context.Context, course *entities.Course) error
	Delete(ctx context.Context, ownerID uuid.UUID, id int) error
	List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Course, error)
}

// CategoryRepository defines the interface for category records
type CategoryRepository interface {
	Create(ctx context.Context, category *entities.Category) error
	GetByID(ctx context.Context, ownerID uuid.UUID, id int) (*entities.Category, error)
	Update(ctx context.Context, category *entities.Category) error
	Delete(ctx context.Context, ownerID uuid.UUID, id int) error
	List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Category, error)
}

// AbsenceRepository defines the interface for absence records
type AbsenceRepository interface {
	Create(ctx context.Context, absence *entities.Absence) error
	GetByID(ctx context.Context, ownerID uuid.UUID, id int) (*entities.Absence, error)
	Update(ctx context.Context, absence *entities.Absence) error
	Delete(ctx context.Context, ownerID uuid.UUID, id int) error
	List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Absence, error)
}

// AssessmentRepository defines the interface for assessment records
type AssessmentRepository interface {
	Create(ctx context.Context, assessment *entities.Assessment) error
	GetByID(ctx context.Context, ownerID uuid.UUID, id int) (*entities.Assessment, error)
	Update(ctx context.Context, assessment *entities.Assessment) error
	Delete(ctx context.Context, ownerID uuid.UUID, id int) error
	List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Assessment, error)
	Search(ctx context.Context, ownerID uuid.UUID, description string) ([]*entities.Assessment, error)
}

// CalendarRepository defines the interface for calendar link state
type CalendarRepository interface {
	Get(ctx context.Context, accountID uuid.UUID) (*entities.CalendarLink, error)
	Put(ctx context.Context, link *entities.CalendarLink) error
	Delete(ctx context.Context, accountID uuid.UUID) error
}

// AuthRepository defines the interface for refresh-token persistence
type AuthRepository interface {
	CreateRefreshToken(ctx context.Context, accountID uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllAccountTokens(ctx context.Context, accountID uuid.UUID) error
	CleanupExpiredTokens(ctx context.Context) error
}

// Filter types for repository queries

type BoardFilter struct {
	Status *entities.BoardStatus
	Title  *string
}

type NotificationFilter struct {
	UnreadOnly         bool
	InteractionPending *bool
}

// RefreshToken represents a persisted refresh token record
type RefreshToken struct {
	ID        int        `json:"id" db:"id"`
	AccountID uuid.UUID  `json:"account_id" db:"account_id"`
	TokenHash string     `json:"token_hash" db:"token_hash"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	RevokedAt *time.Time `json:"revoked_at" db:"revoked_at"`
}

// IsExpired checks if the refresh token is expired
func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// IsRevoked checks if the refresh token is revoked
func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

// IsValid checks if the refresh token is valid
func (rt *RefreshToken) IsValid() bool {
	return !rt.IsExpired() && !rt.IsRevoked()
}
