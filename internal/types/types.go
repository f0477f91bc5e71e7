// Package types defines core data structures for the worktrack engine.
package types

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Tombstone carries soft-delete state. Every entity embeds it; read
// paths exclude rows where IsDeleted is true.
type Tombstone struct {
	IsDeleted bool       `json:"is_deleted,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy string     `json:"deleted_by,omitempty"`
}

// Delete marks the entity deleted by the given actor at the given time.
func (t *Tombstone) Delete(actor string, at time.Time) {
	t.IsDeleted = true
	t.DeletedAt = &at
	t.DeletedBy = actor
}

// Company is the tenancy boundary. Nothing crosses company lines.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Tombstone
}

// User is an account within a company.
type User struct {
	ID        string     `json:"id"`
	CompanyID string     `json:"company_id,omitempty"` // empty only pre-registration
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      SystemRole `json:"role"`
	ManagerID string     `json:"manager_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Tombstone
}

// Validate checks invariants that hold for every persisted user.
func (u *User) Validate() error {
	if u.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !u.Role.IsValid() {
		return fmt.Errorf("invalid system role: %s", u.Role)
	}
	if u.Role.RequiresManager() && u.ManagerID == "" {
		return fmt.Errorf("%s users must have a manager", u.Role)
	}
	return nil
}

var projectKeyRe = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,9}$`)

// Project owns everything beneath it: members, statuses, work items,
// sprints, boards, file tickets.
type Project struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	Key         string    `json:"key"` // short uppercase token, unique per company
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Tombstone
}

// Validate checks the project's field values.
func (p *Project) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !projectKeyRe.MatchString(p.Key) {
		return fmt.Errorf("invalid project key %q: must be 2-10 uppercase alphanumerics starting with a letter", p.Key)
	}
	return nil
}

// Membership links a user to a project with a project-scoped role.
type Membership struct {
	ProjectID string      `json:"project_id"`
	UserID    string      `json:"user_id"`
	Role      ProjectRole `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// WorkflowStatus is one column of a project's workflow. Core statuses
// are seeded at project creation and cannot be renamed or deleted.
type WorkflowStatus struct {
	ID          string         `json:"id"`
	ProjectID   string         `json:"project_id"`
	Name        string         `json:"name"` // unique per project
	Description string         `json:"description,omitempty"`
	Color       string         `json:"color,omitempty"`
	Order       int            `json:"order"`
	IsCore      bool           `json:"is_core,omitempty"`
	CoreType    CoreStatusType `json:"core_type,omitempty"` // set only when IsCore
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Tombstone
}

// WorkItem represents a trackable unit of work.
type WorkItem struct {
	ID          string       `json:"id"`
	ProjectID   string       `json:"project_id"`
	ItemNumber  int          `json:"item_number"` // monotonic per project, never reused
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Type        WorkItemType `json:"type"`
	Priority    int          `json:"priority"` // 0 is valid (critical)
	StatusID    string       `json:"status_id"`
	AssignedTo  string       `json:"assigned_to,omitempty"`
	SprintID    string       `json:"sprint_id,omitempty"`
	IsInBacklog bool         `json:"is_in_backlog"`
	ParentID    string       `json:"parent_id,omitempty"`
	CreatedBy   string       `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Tombstone
}

// DisplayKey builds the user-facing id, e.g. "ACM-42".
func (w *WorkItem) DisplayKey(projectKey string) string {
	return fmt.Sprintf("%s-%d", projectKey, w.ItemNumber)
}

// Validate checks the item's field values and the sprint/backlog
// exclusivity invariant.
func (w *WorkItem) Validate() error {
	if strings.TrimSpace(w.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(w.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(w.Title))
	}
	if w.Priority < 0 || w.Priority > 4 {
		return fmt.Errorf("priority must be between 0 and 4 (got %d)", w.Priority)
	}
	if !w.Type.IsValid() {
		return fmt.Errorf("invalid work item type: %s", w.Type)
	}
	if w.SprintID != "" && w.IsInBacklog {
		return fmt.Errorf("item cannot be in a sprint and in the backlog at once")
	}
	return nil
}

// Sprint is a time-boxed iteration within a project.
type Sprint struct {
	ID        string       `json:"id"`
	ProjectID string       `json:"project_id"`
	Name      string       `json:"name"`
	Goal      string       `json:"goal,omitempty"`
	Status    SprintStatus `json:"status"`
	StartDate time.Time    `json:"start_date"`
	EndDate   time.Time    `json:"end_date"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Tombstone
}

// FileTicket tracks custody of a physical or digital document.
type FileTicket struct {
	ID            string       `json:"id"`
	ProjectID     string       `json:"project_id"`
	TicketNumber  string       `json:"ticket_number"` // FT-{year}-{0001}
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Status        TicketStatus `json:"status"`
	CurrentHolder string       `json:"current_holder,omitempty"`
	CreatedBy     string       `json:"created_by"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	Tombstone
}

// FileTicketTransfer is one row of the custody ledger. Rows are
// append-only; the only mutation ever applied is stamping ReceivedAt.
type FileTicketTransfer struct {
	ID            int64      `json:"id"`
	FileTicketID  string     `json:"file_ticket_id"`
	FromUserID    string     `json:"from_user_id"`
	ToUserID      string     `json:"to_user_id"`
	TransferredAt time.Time  `json:"transferred_at"`
	ReceivedAt    *time.Time `json:"received_at,omitempty"`
}

// Board groups workflow statuses into ordered columns. Each project has
// exactly one default board (no owner); personal boards fork the
// default's columns at creation and evolve independently.
type Board struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"is_default,omitempty"`
	OwnerID   string    `json:"owner_id,omitempty"` // empty for the default board
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Tombstone
}

// BoardColumn maps a workflow status into a board at a position.
type BoardColumn struct {
	ID       string `json:"id"`
	BoardID  string `json:"board_id"`
	StatusID string `json:"status_id"`
	Order    int    `json:"order"`
}

// ActivityLog is one append-only audit trail entry.
type ActivityLog struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	Action       string    `json:"action"`
	EntityType   string    `json:"entity_type"`
	EntityID     string    `json:"entity_id"`
	OldValue     string    `json:"old_value,omitempty"`
	NewValue     string    `json:"new_value,omitempty"`
	Description  string    `json:"description,omitempty"`
	ProjectID    string    `json:"project_id,omitempty"`
	WorkItemID   string    `json:"work_item_id,omitempty"`
	FileTicketID string    `json:"file_ticket_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// WorkItemFilter is used to filter work item queries.
type WorkItemFilter struct {
	ProjectID  string
	StatusID   string
	SprintID   string
	Backlog    *bool
	Type       *WorkItemType
	Priority   *int
	AssignedTo string
	CreatedBy  string
	ParentID   string
	Limit      int
}

// TicketFilter is used to filter file ticket queries.
type TicketFilter struct {
	ProjectID string
	Status    *TicketStatus
	Holder    string
	Year      int
	Limit     int
}

// ActivityFilter scopes reads of the audit trail.
type ActivityFilter struct {
	ProjectID    string
	WorkItemID   string
	FileTicketID string
	UserID       string
	Limit        int
}
