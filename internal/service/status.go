package service

import (
	"context"
	"errors"
	"strings"

	"github.com/worktrack/worktrack/internal/audit"
	"github.com/worktrack/worktrack/internal/rbac"
	"github.com/worktrack/worktrack/internal/result"
	"github.com/worktrack/worktrack/internal/storage"
	"github.com/worktrack/worktrack/internal/types"
)

// CreateStatusInput creates a custom workflow status.
type CreateStatusInput struct {
	ProjectID   string
	Name        string
	Description string
	Color       string
	Order       int // 0 means append after the current highest order
}

// CreateStatus adds a custom status to a project's workflow. Status
// names are unique per project (case-insensitive).
func (e *Engine) CreateStatus(ctx context.Context, actorID string, in CreateStatusInput) (res result.Result[*types.WorkflowStatus]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return result.BadRequest[*types.WorkflowStatus]("status name is required")
	}

	var created *types.WorkflowStatus
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		p, err := getLiveProject(ctx, tx, in.ProjectID)
		if err != nil {
			return err
		}
		target, err := e.projectTarget(ctx, tx, actor, p, rbac.EntityStatus, "", "")
		if err != nil {
			return err
		}
		if d := rbac.Authorize(actor, rbac.ActionManage, target); !d.Allow {
			res = denied[*types.WorkflowStatus](d, "project")
			return errHandled
		}

		order := in.Order
		if order <= 0 {
			existing, err := tx.ListStatuses(ctx, in.ProjectID)
			if err != nil {
				return err
			}
			for _, s := range existing {
				if s.Order >= order {
					order = s.Order + 1
				}
			}
			if order == 0 {
				order = 1
			}
		}
		now := e.now()
		s := &types.WorkflowStatus{
			ID:          e.newID(),
			ProjectID:   in.ProjectID,
			Name:        name,
			Description: in.Description,
			Color:       in.Color,
			Order:       order,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.CreateStatus(ctx, s); err != nil {
			return err
		}
		created = s
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.WorkflowStatus]("project not found")
	case errors.Is(err, storage.ErrDuplicate):
		return result.BadRequest[*types.WorkflowStatus]("a status named %q already exists in the project", name)
	case err != nil:
		return result.Failure[*types.WorkflowStatus](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     audit.ActionCreated,
		EntityType: rbac.EntityStatus,
		EntityID:   created.ID,
		NewValue:   created.Name,
		ProjectID:  created.ProjectID,
	})
	return result.Created(created)
}

// UpdateStatusInput carries mutable status fields; nil means keep.
type UpdateStatusInput struct {
	Name        *string
	Description *string
	Color       *string
	Order       *int
}

// UpdateStatus edits a workflow status. Core statuses keep their names;
// description, color, and order stay editable on them.
func (e *Engine) UpdateStatus(ctx context.Context, actorID, statusID string, in UpdateStatusInput) (res result.Result[*types.WorkflowStatus]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	var updated *types.WorkflowStatus
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		s, err := tx.GetStatus(ctx, statusID)
		if err != nil {
			return err
		}
		if s.IsDeleted {
			return storage.ErrNotFound
		}
		p, err := getLiveProject(ctx, tx, s.ProjectID)
		if err != nil {
			return err
		}
		target, err := e.projectTarget(ctx, tx, actor, p, rbac.EntityStatus, "", "")
		if err != nil {
			return err
		}
		if d := rbac.Authorize(actor, rbac.ActionManage, target); !d.Allow {
			res = denied[*types.WorkflowStatus](d, "workflow status")
			return errHandled
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				res = result.BadRequest[*types.WorkflowStatus]("status name is required")
				return errHandled
			}
			if s.IsCore && !strings.EqualFold(name, s.Name) {
				res = result.BadRequest[*types.WorkflowStatus]("core status %q cannot be renamed", s.Name)
				return errHandled
			}
			s.Name = name
		}
		if in.Description != nil {
			s.Description = *in.Description
		}
		if in.Color != nil {
			s.Color = *in.Color
		}
		if in.Order != nil {
			s.Order = *in.Order
		}
		s.UpdatedAt = e.now()
		if err := tx.UpdateStatus(ctx, s); err != nil {
			return err
		}
		updated = s
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.WorkflowStatus]("workflow status not found")
	case errors.Is(err, storage.ErrDuplicate):
		return result.BadRequest[*types.WorkflowStatus]("a status with that name already exists in the project")
	case err != nil:
		return result.Failure[*types.WorkflowStatus](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     audit.ActionUpdated,
		EntityType: rbac.EntityStatus,
		EntityID:   updated.ID,
		ProjectID:  updated.ProjectID,
	})
	return result.OK(updated)
}

// DeleteStatus soft-deletes a custom status. Core statuses and statuses
// still referenced by live work items cannot be deleted.
func (e *Engine) DeleteStatus(ctx context.Context, actorID, statusID string) (res result.Result[*types.WorkflowStatus]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	var deleted *types.WorkflowStatus
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		s, err := tx.GetStatus(ctx, statusID)
		if err != nil {
			return err
		}
		if s.IsDeleted {
			return storage.ErrNotFound
		}
		p, err := getLiveProject(ctx, tx, s.ProjectID)
		if err != nil {
			return err
		}
		target, err := e.projectTarget(ctx, tx, actor, p, rbac.EntityStatus, "", "")
		if err != nil {
			return err
		}
		if d := rbac.Authorize(actor, rbac.ActionManage, target); !d.Allow {
			res = denied[*types.WorkflowStatus](d, "workflow status")
			return errHandled
		}
		if s.IsCore {
			res = result.BadRequest[*types.WorkflowStatus]("core status %q cannot be deleted", s.Name)
			return errHandled
		}
		n, err := tx.CountItemsWithStatus(ctx, s.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			res = result.BadRequest[*types.WorkflowStatus]("status %q is in use by %d work items", s.Name, n)
			return errHandled
		}
		now := e.now()
		s.Delete(actor.UserID, now)
		s.UpdatedAt = now
		if err := tx.UpdateStatus(ctx, s); err != nil {
			return err
		}
		deleted = s
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.WorkflowStatus]("workflow status not found")
	case err != nil:
		return result.Failure[*types.WorkflowStatus](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     audit.ActionDeleted,
		EntityType: rbac.EntityStatus,
		EntityID:   deleted.ID,
		OldValue:   deleted.Name,
		ProjectID:  deleted.ProjectID,
	})
	return result.OK(deleted)
}

// ReorderStatuses assigns orders 1..N to the listed statuses in the
// given sequence. Every id must belong to the project; statuses not
// listed keep their current order.
func (e *Engine) ReorderStatuses(ctx context.Context, actorID, projectID string, orderedIDs []string) (res result.Result[[]*types.WorkflowStatus]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	if len(orderedIDs) == 0 {
		return result.BadRequest[[]*types.WorkflowStatus]("no statuses given")
	}

	var reordered []*types.WorkflowStatus
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		p, err := getLiveProject(ctx, tx, projectID)
		if err != nil {
			return err
		}
		target, err := e.projectTarget(ctx, tx, actor, p, rbac.EntityStatus, "", "")
		if err != nil {
			return err
		}
		if d := rbac.Authorize(actor, rbac.ActionManage, target); !d.Allow {
			res = denied[[]*types.WorkflowStatus](d, "project")
			return errHandled
		}

		seen := map[string]bool{}
		now := e.now()
		for i, id := range orderedIDs {
			if seen[id] {
				res = result.BadRequest[[]*types.WorkflowStatus]("status %s listed twice", id)
				return errHandled
			}
			seen[id] = true
			s, err := tx.GetStatus(ctx, id)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					res = result.BadRequest[[]*types.WorkflowStatus]("status %s does not exist", id)
					return errHandled
				}
				return err
			}
			if s.IsDeleted || s.ProjectID != projectID {
				res = result.BadRequest[[]*types.WorkflowStatus]("status %s does not belong to the project", id)
				return errHandled
			}
			s.Order = i + 1
			s.UpdatedAt = now
			if err := tx.UpdateStatus(ctx, s); err != nil {
				return err
			}
			reordered = append(reordered, s)
		}
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[[]*types.WorkflowStatus]("project not found")
	case err != nil:
		return result.Failure[[]*types.WorkflowStatus](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     audit.ActionReordered,
		EntityType: rbac.EntityStatus,
		EntityID:   projectID,
		ProjectID:  projectID,
	})
	return result.OK(reordered)
}

// ListStatuses returns a project's live statuses in board order.
func (e *Engine) ListStatuses(ctx context.Context, actorID, projectID string) (res result.Result[[]*types.WorkflowStatus]) {
	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	p, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return result.NotFound[[]*types.WorkflowStatus]("project not found")
		}
		return result.Failure[[]*types.WorkflowStatus](err)
	}
	target, err := e.projectTarget(ctx, e.store, actor, p, rbac.EntityStatus, "", "")
	if err != nil {
		return result.Failure[[]*types.WorkflowStatus](err)
	}
	if d := rbac.Authorize(actor, rbac.ActionView, target); !d.Allow {
		return denied[[]*types.WorkflowStatus](d, "project")
	}
	if p.IsDeleted {
		return result.NotFound[[]*types.WorkflowStatus]("project not found")
	}
	statuses, err := e.store.ListStatuses(ctx, projectID)
	if err != nil {
		return result.Failure[[]*types.WorkflowStatus](err)
	}
	return result.OK(statuses)
}
