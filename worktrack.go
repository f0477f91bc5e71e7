// Package worktrack provides a minimal public API for embedding the
// work-tracking engine in other Go programs.
//
// The CLI under cmd/wt is the primary surface; this package exports
// only the types and constructors needed to drive the engine
// programmatically against a SQLite or in-memory store.
package worktrack

import (
	"context"

	"github.com/worktrack/worktrack/internal/service"
	"github.com/worktrack/worktrack/internal/storage"
	"github.com/worktrack/worktrack/internal/storage/memory"
	"github.com/worktrack/worktrack/internal/storage/sqlite"
	"github.com/worktrack/worktrack/internal/types"
)

// Core entity types
type (
	Company        = types.Company
	User           = types.User
	Project        = types.Project
	Membership     = types.Membership
	WorkflowStatus = types.WorkflowStatus
	WorkItem       = types.WorkItem
	Sprint         = types.Sprint
	FileTicket     = types.FileTicket
	Board          = types.Board
	ActivityLog    = types.ActivityLog
)

// Role and status enums
type (
	SystemRole   = types.SystemRole
	ProjectRole  = types.ProjectRole
	WorkItemType = types.WorkItemType
	SprintStatus = types.SprintStatus
	TicketStatus = types.TicketStatus
)

// System role constants
const (
	RoleMember     = types.RoleMember
	RoleQA         = types.RoleQA
	RoleManager    = types.RoleManager
	RoleAdmin      = types.RoleAdmin
	RoleSuperAdmin = types.RoleSuperAdmin
)

// Engine is the work-tracking core; see the service package for the
// full operation surface.
type Engine = service.Engine

// Operation inputs, re-exported so embedders can name them.
type (
	RegisterCompanyInput = service.RegisterCompanyInput
	UpdateCompanyInput   = service.UpdateCompanyInput
	RegisterUserInput    = service.RegisterUserInput
	CreateProjectInput   = service.CreateProjectInput
	UpdateProjectInput   = service.UpdateProjectInput
	CreateStatusInput    = service.CreateStatusInput
	UpdateStatusInput    = service.UpdateStatusInput
	CreateItemInput      = service.CreateItemInput
	UpdateItemInput      = service.UpdateItemInput
	CreateSprintInput    = service.CreateSprintInput
	UpdateSprintInput    = service.UpdateSprintInput
	CreateTicketInput    = service.CreateTicketInput
	BoardView            = service.BoardView
)

// Engine options.
var (
	WithClock       = service.WithClock
	WithIDGenerator = service.WithIDGenerator
	WithAuditSink   = service.WithAuditSink
)

// Store is the storage interface shared by the SQLite and in-memory
// backends.
type Store = storage.Store

// NewEngine builds an Engine over the given store.
func NewEngine(store Store, opts ...service.Option) *Engine {
	return service.New(store, opts...)
}

// OpenSQLite opens (creating if needed) a worktrack SQLite database.
func OpenSQLite(ctx context.Context, path string) (Store, error) {
	return sqlite.Open(ctx, path)
}

// NewMemoryStore returns an in-memory store, useful for tests.
func NewMemoryStore() Store {
	return memory.New()
}
