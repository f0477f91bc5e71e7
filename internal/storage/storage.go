// Package storage provides shared types for engine storage.
//
// Concrete implementations live in the sqlite and memory sub-packages.
// This package holds the interface and sentinel errors referenced by
// both the implementations and their consumers.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/worktrack/worktrack/internal/types"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a write violates a unique constraint
// (company name, project key, status name, item number, ticket number,
// member pair, user email).
var ErrDuplicate = errors.New("duplicate value")

// Tx is the read-write surface available inside a transaction.
//
// Get methods return soft-deleted rows so callers can distinguish
// "deleted" from "never existed"; List methods exclude them.
type Tx interface {
	// Companies
	CreateCompany(ctx context.Context, c *types.Company) error
	GetCompany(ctx context.Context, id string) (*types.Company, error)
	GetCompanyByName(ctx context.Context, name string) (*types.Company, error)
	ListCompanies(ctx context.Context) ([]*types.Company, error)
	UpdateCompany(ctx context.Context, c *types.Company) error

	// Users
	CreateUser(ctx context.Context, u *types.User) error
	GetUser(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, companyID, email string) (*types.User, error)
	ListUsers(ctx context.Context, companyID string) ([]*types.User, error)
	ListDirectReports(ctx context.Context, managerID string) ([]*types.User, error)
	UpdateUser(ctx context.Context, u *types.User) error

	// Projects
	CreateProject(ctx context.Context, p *types.Project) error
	GetProject(ctx context.Context, id string) (*types.Project, error)
	GetProjectByKey(ctx context.Context, companyID, key string) (*types.Project, error)
	ListProjects(ctx context.Context, companyID string) ([]*types.Project, error)
	UpdateProject(ctx context.Context, p *types.Project) error

	// Project members
	AddMember(ctx context.Context, m *types.Membership) error
	GetMember(ctx context.Context, projectID, userID string) (*types.Membership, error)
	ListMembers(ctx context.Context, projectID string) ([]*types.Membership, error)
	ListMemberships(ctx context.Context, userID string) ([]*types.Membership, error)
	UpdateMember(ctx context.Context, m *types.Membership) error
	RemoveMember(ctx context.Context, projectID, userID string) error

	// Workflow statuses
	CreateStatus(ctx context.Context, s *types.WorkflowStatus) error
	GetStatus(ctx context.Context, id string) (*types.WorkflowStatus, error)
	GetStatusByName(ctx context.Context, projectID, name string) (*types.WorkflowStatus, error)
	ListStatuses(ctx context.Context, projectID string) ([]*types.WorkflowStatus, error)
	UpdateStatus(ctx context.Context, s *types.WorkflowStatus) error
	CountItemsWithStatus(ctx context.Context, statusID string) (int, error)

	// Work items
	CreateItem(ctx context.Context, w *types.WorkItem) error
	GetItem(ctx context.Context, id string) (*types.WorkItem, error)
	ListItems(ctx context.Context, filter types.WorkItemFilter) ([]*types.WorkItem, error)
	UpdateItem(ctx context.Context, w *types.WorkItem) error
	MaxItemNumber(ctx context.Context, projectID string) (int, error)

	// Sprints
	CreateSprint(ctx context.Context, s *types.Sprint) error
	GetSprint(ctx context.Context, id string) (*types.Sprint, error)
	ListSprints(ctx context.Context, projectID string) ([]*types.Sprint, error)
	UpdateSprint(ctx context.Context, s *types.Sprint) error

	// File tickets
	CreateTicket(ctx context.Context, t *types.FileTicket) error
	GetTicket(ctx context.Context, id string) (*types.FileTicket, error)
	ListTickets(ctx context.Context, filter types.TicketFilter) ([]*types.FileTicket, error)
	UpdateTicket(ctx context.Context, t *types.FileTicket) error
	MaxTicketSequence(ctx context.Context, year int) (int, error)

	// Custody ledger (append-only; only ReceivedAt is ever stamped)
	AddTransfer(ctx context.Context, tr *types.FileTicketTransfer) error
	ListTransfers(ctx context.Context, ticketID string) ([]*types.FileTicketTransfer, error)
	LatestOpenTransfer(ctx context.Context, ticketID, toUserID string) (*types.FileTicketTransfer, error)
	MarkTransferReceived(ctx context.Context, transferID int64, at time.Time) error

	// Boards
	CreateBoard(ctx context.Context, b *types.Board) error
	GetBoard(ctx context.Context, id string) (*types.Board, error)
	GetDefaultBoard(ctx context.Context, projectID string) (*types.Board, error)
	ListBoards(ctx context.Context, projectID string) ([]*types.Board, error)
	UpdateBoard(ctx context.Context, b *types.Board) error
	SetBoardColumns(ctx context.Context, boardID string, cols []*types.BoardColumn) error
	ListBoardColumns(ctx context.Context, boardID string) ([]*types.BoardColumn, error)

	// Audit trail (append-only)
	AppendActivity(ctx context.Context, entry *types.ActivityLog) error
	ListActivity(ctx context.Context, filter types.ActivityFilter) ([]*types.ActivityLog, error)
}

// Store is the interface satisfied by the sqlite and memory backends.
// Consumers depend on this interface rather than on a concrete type so
// that implementations can be substituted in tests.
type Store interface {
	Tx

	// RunInTransaction executes fn atomically. If fn returns an error
	// or panics, all writes made through tx are rolled back.
	RunInTransaction(ctx context.Context, fn func(tx Tx) error) error

	Close() error
}
