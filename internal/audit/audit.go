// Package audit emits the append-only activity trail. The sink is
// fire-and-forget: a failed append is reported to stderr and never
// fails or blocks the primary operation.
package audit

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/worktrack/worktrack/internal/storage"
	"github.com/worktrack/worktrack/internal/types"
)

// Action constants used in activity entries.
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionDeleted       = "deleted"
	ActionStatusChanged = "status_changed"
	ActionAssigned      = "assigned"
	ActionMoved         = "moved"
	ActionReordered     = "reordered"
	ActionMemberAdded   = "member_added"
	ActionMemberRemoved = "member_removed"
	ActionRoleChanged   = "role_changed"
	ActionTransferred   = "transferred"
	ActionReceived      = "received"
	ActionStarted       = "started"
	ActionCompleted     = "completed"
)

// Entry is one structured audit record.
type Entry struct {
	UserID       string
	Action       string
	EntityType   string
	EntityID     string
	OldValue     string
	NewValue     string
	Description  string
	ProjectID    string
	WorkItemID   string
	FileTicketID string
}

// Sink accepts audit entries.
type Sink interface {
	Record(ctx context.Context, e Entry)
}

// NewStoreSink returns a Sink that appends entries to the store's
// activity log.
func NewStoreSink(store storage.Store, clock func() time.Time) Sink {
	return &storeSink{store: store, clock: clock}
}

type storeSink struct {
	store storage.Store
	clock func() time.Time
}

func (s *storeSink) Record(ctx context.Context, e Entry) {
	entry := &types.ActivityLog{
		UserID:       e.UserID,
		Action:       e.Action,
		EntityType:   e.EntityType,
		EntityID:     e.EntityID,
		OldValue:     e.OldValue,
		NewValue:     e.NewValue,
		Description:  e.Description,
		ProjectID:    e.ProjectID,
		WorkItemID:   e.WorkItemID,
		FileTicketID: e.FileTicketID,
		CreatedAt:    s.clock().UTC(),
	}
	if err := s.store.AppendActivity(ctx, entry); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to append audit entry (%s %s %s): %v\n",
			e.Action, e.EntityType, e.EntityID, err)
	}
}

// Nop returns a Sink that discards all entries.
func Nop() Sink { return nopSink{} }

type nopSink struct{}

func (nopSink) Record(context.Context, Entry) {}
