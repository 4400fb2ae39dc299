package ports

import (
	"context"
	"time"

	"github.com/unihub/core/internal/domain/entities"
)

// GoogleVerifier validates a Google ID token and returns the identity it
// asserts. The concrete implementation talks to Google; it is an external
// collaborator and everything behind this interface is out of scope here.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

// GoogleIdentity is the subset of a verified Google ID token UniHub uses.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
}

// Claims carries the authenticated principal through a request.
type Claims struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
}

// Auth related types

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

type AuthResponse struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	TokenType    string            `json:"token_type"`
	ExpiresIn    int64             `json:"expires_in"`
	Account      *entities.Account `json:"account"`
}

// Contact related types

type CreateContactRequest struct {
	Name  string `json:"nome" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email"`
}

type UpdateContactRequest struct {
	Name  *string `json:"nome" validate:"omitempty,max=120"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// Group related types

type CreateGroupRequest struct {
	Name             string `json:"nome" validate:"required,max=120"`
	AdminContactID   *int   `json:"admin_contact_id"`
	MemberContactIDs []int  `json:"member_contact_ids"`
}

type UpdateGroupRequest struct {
	Name             *string `json:"nome" validate:"omitempty,max=120"`
	AdminContactID   *int    `json:"admin_contact_id"`
	MemberContactIDs *[]int  `json:"member_contact_ids"`
}

// Board related types. Columns and tasks ride along as nested payloads on
// board create/update; an omitted Columns slice on update leaves the existing
// columns untouched.

type TaskPayload struct {
	ID          *int                `json:"id"`
	Title       string              `json:"titulo" validate:"required,max=200"`
	Description string              `json:"descricao" validate:"max=2000"`
	Status      entities.TaskStatus `json:"status" validate:"omitempty"`
	DueDate     *time.Time          `json:"due_date"`
	AssigneeIDs []int               `json:"assignee_contact_ids"`
}

type ColumnPayload struct {
	ID    *int          `json:"id"`
	Title string        `json:"titulo" validate:"required,max=120"`
	State string        `json:"state" validate:"max=40"`
	Tasks []TaskPayload `json:"tasks" validate:"dive"`
}

type CreateBoardRequest struct {
	Title     string          `json:"titulo" validate:"required,max=200"`
	DueAt     *time.Time      `json:"due_at"`
	ContactID *int            `json:"contact_id"`
	GroupID   *int            `json:"group_id"`
	Columns   []ColumnPayload `json:"columns" validate:"dive"`
}

type UpdateBoardRequest struct {
	Title     *string               `json:"titulo" validate:"omitempty,max=200"`
	Status    *entities.BoardStatus `json:"status"`
	DueAt     *time.Time            `json:"due_at"`
	ContactID *int                  `json:"contact_id"`
	GroupID   *int                  `json:"group_id"`
	Columns   *[]ColumnPayload      `json:"columns" validate:"omitempty,dive"`
}

type UpdateTaskStatusRequest struct {
	Status entities.TaskStatus `json:"status" validate:"required"`
}

// Study record types

type CreateInstitutionRequest struct {
	Name string `json:"nome" validate:"required,max=200"`
}

type UpdateInstitutionRequest struct {
	Name *string `json:"nome" validate:"omitempty,max=200"`
}

type CreateCourseRequest struct {
	Name          string  `json:"nome" validate:"required,max=200"`
	InstitutionID *int    `json:"institution_id"`
	Professor     *string `json:"professor" validate:"omitempty,max=120"`
	AbsenceLimit  *int    `json:"absence_limit" validate:"omitempty,min=0"`
}

type UpdateCourseRequest struct {
	Name          *string `json:"nome" validate:"omitempty,max=200"`
	InstitutionID *int    `json:"institution_id"`
	Professor     *string `json:"professor" validate:"omitempty,max=120"`
	AbsenceLimit  *int    `json:"absence_limit" validate:"omitempty,min=0"`
}

type CreateCategoryRequest struct {
	Name  string  `json:"nome" validate:"required,max=120"`
	Color *string `json:"color" validate:"omitempty,max=20"`
}

type UpdateCategoryRequest struct {
	Name  *string `json:"nome" validate:"omitempty,max=120"`
	Color *string `json:"color" validate:"omitempty,max=20"`
}

type CreateAbsenceRequest struct {
	CourseID  int       `json:"course_id" validate:"required"`
	Date      time.Time `json:"data" validate:"required"`
	Count     int       `json:"count" validate:"min=1"`
	Justified bool      `json:"justified"`
}

type UpdateAbsenceRequest struct {
	Date      *time.Time `json:"data"`
	Count     *int       `json:"count" validate:"omitempty,min=1"`
	Justified *bool      `json:"justified"`
}

type CreateAssessmentRequest struct {
	CourseID    int        `json:"course_id" validate:"required"`
	Description string     `json:"descricao" validate:"required,max=500"`
	Date        *time.Time `json:"data"`
	Grade       *float64   `json:"nota" validate:"omitempty,min=0"`
	MaxGrade    *float64   `json:"nota_maxima" validate:"omitempty,gt=0"`
	Weight      *float64   `json:"peso" validate:"omitempty,gt=0"`
}

type UpdateAssessmentRequest struct {
	Description *string    `json:"descricao" validate:"omitempty,max=500"`
	Date        *time.Time `json:"data"`
	Grade       *float64   `json:"nota" validate:"omitempty,min=0"`
	MaxGrade    *float64   `json:"nota_maxima" validate:"omitempty,gt=0"`
	Weight      *float64   `json:"peso" validate:"omitempty,gt=0"`
}

// Notification types

type PreferenceItem struct {
	Priority entities.NotificationPriority `json:"priority" validate:"required"`
	LeadTime entities.LeadTime             `json:"lead_time" validate:"required"`
}

type UpdatePreferencesRequest struct {
	Preferences []PreferenceItem `json:"preferences" validate:"required,dive"`
}

// Calendar types

type ConnectCalendarRequest struct {
	CalendarID *string `json:"calendar_id" validate:"omitempty,max=200"`
}
