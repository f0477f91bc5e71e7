package service

import (
	"context"
	"errors"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/worktrack/worktrack/internal/audit"
	"github.com/worktrack/worktrack/internal/rbac"
	"github.com/worktrack/worktrack/internal/result"
	"github.com/worktrack/worktrack/internal/storage"
	"github.com/worktrack/worktrack/internal/types"
)

// numberRetries bounds the retry loop that resolves item-number races.
// Two concurrent creators can read the same max number; the unique
// constraint rejects the loser, who re-reads and re-inserts.
const numberRetries = 5

// CreateItemInput creates a work item.
type CreateItemInput struct {
	ProjectID   string
	Title       string
	Description string
	Type        types.WorkItemType
	Priority    int
	AssignedTo  string
	SprintID    string
	ParentID    string
}

// CreateItem creates a work item. The item number is the project's
// highest number plus one; numbers are never reused, even after
// deletion. The initial status is the project's core New status.
func (e *Engine) CreateItem(ctx context.Context, actorID string, in CreateItemInput) (res result.Result[*types.WorkItem]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}

	var created *types.WorkItem
	attempt := func() error {
		return e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
			p, err := getLiveProject(ctx, tx, in.ProjectID)
			if err != nil {
				return backoff.Permanent(err)
			}
			target, err := e.projectTarget(ctx, tx, actor, p, rbac.EntityWorkItem, "", "")
			if err != nil {
				return backoff.Permanent(err)
			}
			if d := rbac.Authorize(actor, rbac.ActionCreate, target); !d.Allow {
				res = denied[*types.WorkItem](d, "project")
				return backoff.Permanent(errHandled)
			}

			now := e.now()
			w := &types.WorkItem{
				ID:          e.newID(),
				ProjectID:   in.ProjectID,
				Title:       strings.TrimSpace(in.Title),
				Description: in.Description,
				Type:        in.Type,
				Priority:    in.Priority,
				AssignedTo:  in.AssignedTo,
				SprintID:    in.SprintID,
				IsInBacklog: in.SprintID == "",
				ParentID:    in.ParentID,
				CreatedBy:   actor.UserID,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := w.Validate(); err != nil {
				res = result.BadRequest[*types.WorkItem]("%v", err)
				return backoff.Permanent(errHandled)
			}
			if err := e.checkItemRefs(ctx, tx, w, p.CompanyID, &res); err != nil {
				return backoff.Permanent(err)
			}

			statusID, err := initialStatus(ctx, tx, in.ProjectID)
			if err != nil {
				return backoff.Permanent(err)
			}
			w.StatusID = statusID

			max, err := tx.MaxItemNumber(ctx, in.ProjectID)
			if err != nil {
				return backoff.Permanent(err)
			}
			w.ItemNumber = max + 1
			if err := tx.CreateItem(ctx, w); err != nil {
				if errors.Is(err, storage.ErrDuplicate) {
					return err // retryable: number race lost
				}
				return backoff.Permanent(err)
			}
			created = w
			return nil
		})
	}
	err := backoff.Retry(attempt, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), numberRetries), ctx))
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.WorkItem]("project not found")
	case err != nil:
		return result.Failure[*types.WorkItem](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     audit.ActionCreated,
		EntityType: rbac.EntityWorkItem,
		EntityID:   created.ID,
		NewValue:   created.Title,
		ProjectID:  created.ProjectID,
		WorkItemID: created.ID,
	})
	return result.Created(created)
}

// initialStatus picks the status for a new item: the core New status,
// falling back to the lowest-order live status.
func initialStatus(ctx context.Context, tx storage.Tx, projectID string) (string, error) {
	statuses, err := tx.ListStatuses(ctx, projectID)
	if err != nil {
		return "", err
	}
	if len(statuses) == 0 {
		return "", errors.New("project has no workflow statuses")
	}
	lowest := statuses[0]
	for _, s := range statuses {
		if s.IsCore && s.CoreType == types.CoreNew {
			return s.ID, nil
		}
		if s.Order < lowest.Order {
			lowest = s
		}
	}
	return lowest.ID, nil
}

// checkItemRefs validates the assignee, sprint, and parent references
// on w. On a user-facing problem it fills res and returns errHandled.
func (e *Engine) checkItemRefs(ctx context.Context, tx storage.Tx, w *types.WorkItem, companyID string, res *result.Result[*types.WorkItem]) error {
	if w.AssignedTo != "" {
		u, err := tx.GetUser(ctx, w.AssignedTo)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if err != nil || u.IsDeleted || u.CompanyID != companyID {
			*res = result.BadRequest[*types.WorkItem]("assignee %s does not exist", w.AssignedTo)
			return errHandled
		}
	}
	if w.SprintID != "" {
		s, err := tx.GetSprint(ctx, w.SprintID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if err != nil || s.IsDeleted || s.ProjectID != w.ProjectID {
			*res = result.BadRequest[*types.WorkItem]("sprint %s does not exist in the project", w.SprintID)
			return errHandled
		}
		if s.Status == types.SprintCompleted {
			*res = result.BadRequest[*types.WorkItem]("sprint %q is already completed", s.Name)
			return errHandled
		}
	}
	if w.ParentID != "" {
		parent, err := tx.GetItem(ctx, w.ParentID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if err != nil || parent.IsDeleted || parent.ProjectID != w.ProjectID {
			*res = result.BadRequest[*types.WorkItem]("parent item %s does not exist in the project", w.ParentID)
			return errHandled
		}
		if !types.CanParent(parent.Type, w.Type) {
			*res = result.BadRequest[*types.WorkItem]("a %s cannot be a child of a %s", w.Type, parent.Type)
			return errHandled
		}
	}
	return nil
}

// DetachParent is the sentinel ParentID value that removes an item's
// parent link on update.
const DetachParent = "0"

// UpdateItemInput carries mutable work item fields; nil means keep.
// ParentID accepts DetachParent ("0") to clear the parent link.
type UpdateItemInput struct {
	Title       *string
	Description *string
	Type        *types.WorkItemType
	Priority    *int
	StatusID    *string
	AssignedTo  *string
	SprintID    *string
	Backlog     *bool
	ParentID    *string
}

// UpdateItem edits a work item. Status changes are audited with the
// old and new status names. Setting a sprint pulls the item out of the
// backlog; sending it to the backlog clears the sprint.
func (e *Engine) UpdateItem(ctx context.Context, actorID, itemID string, in UpdateItemInput) (res result.Result[*types.WorkItem]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}

	var updated *types.WorkItem
	var oldStatusName, newStatusName string
	var oldAssignee, newAssignee string
	var assigneeChanged bool
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		w, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if w.IsDeleted {
			return storage.ErrNotFound
		}
		p, err := getLiveProject(ctx, tx, w.ProjectID)
		if err != nil {
			return err
		}
		target, err := e.projectTarget(ctx, tx, actor, p, rbac.EntityWorkItem, w.CreatedBy, w.AssignedTo)
		if err != nil {
			return err
		}
		if d := rbac.Authorize(actor, rbac.ActionUpdate, target); !d.Allow {
			res = denied[*types.WorkItem](d, "work item")
			return errHandled
		}

		if in.Title != nil {
			w.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			w.Description = *in.Description
		}
		typeChanged := in.Type != nil && *in.Type != w.Type
		if in.Type != nil {
			w.Type = *in.Type
		}
		if in.Priority != nil {
			w.Priority = *in.Priority
		}
		if in.StatusID != nil && *in.StatusID != w.StatusID {
			s, err := tx.GetStatus(ctx, *in.StatusID)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			if err != nil || s.IsDeleted || s.ProjectID != w.ProjectID {
				res = result.BadRequest[*types.WorkItem]("status %s does not exist in the project", *in.StatusID)
				return errHandled
			}
			old, err := tx.GetStatus(ctx, w.StatusID)
			if err == nil {
				oldStatusName = old.Name
			} else if !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			newStatusName = s.Name
			w.StatusID = s.ID
		}
		if in.AssignedTo != nil && *in.AssignedTo != w.AssignedTo {
			if *in.AssignedTo != "" {
				u, err := tx.GetUser(ctx, *in.AssignedTo)
				if err != nil && !errors.Is(err, storage.ErrNotFound) {
					return err
				}
				if err != nil || u.IsDeleted || u.CompanyID != p.CompanyID {
					res = result.BadRequest[*types.WorkItem]("assignee %s does not exist", *in.AssignedTo)
					return errHandled
				}
			}
			oldAssignee, newAssignee = w.AssignedTo, *in.AssignedTo
			assigneeChanged = true
			w.AssignedTo = *in.AssignedTo
		}
		if in.SprintID != nil {
			if *in.SprintID == "" {
				w.SprintID = ""
				w.IsInBacklog = true
			} else {
				s, err := tx.GetSprint(ctx, *in.SprintID)
				if err != nil && !errors.Is(err, storage.ErrNotFound) {
					return err
				}
				if err != nil || s.IsDeleted || s.ProjectID != w.ProjectID {
					res = result.BadRequest[*types.WorkItem]("sprint %s does not exist in the project", *in.SprintID)
					return errHandled
				}
				if s.Status == types.SprintCompleted {
					res = result.BadRequest[*types.WorkItem]("sprint %q is already completed", s.Name)
					return errHandled
				}
				w.SprintID = s.ID
				w.IsInBacklog = false
			}
		}
		if in.Backlog != nil && *in.Backlog {
			w.SprintID = ""
			w.IsInBacklog = true
		}
		if in.ParentID != nil {
			if *in.ParentID == DetachParent || *in.ParentID == "" {
				w.ParentID = ""
			} else {
				if *in.ParentID == w.ID {
					res = result.BadRequest[*types.WorkItem]("an item cannot be its own parent")
					return errHandled
				}
				parent, err := tx.GetItem(ctx, *in.ParentID)
				if err != nil && !errors.Is(err, storage.ErrNotFound) {
					return err
				}
				if err != nil || parent.IsDeleted || parent.ProjectID != w.ProjectID {
					res = result.BadRequest[*types.WorkItem]("parent item %s does not exist in the project", *in.ParentID)
					return errHandled
				}
				if !types.CanParent(parent.Type, w.Type) {
					res = result.BadRequest[*types.WorkItem]("a %s cannot be a child of a %s", w.Type, parent.Type)
					return errHandled
				}
				w.ParentID = parent.ID
			}
		}

		// A type change must keep the hierarchy legal on both sides:
		// against the (possibly unchanged) parent and against every
		// live child.
		if typeChanged {
			if w.ParentID != "" {
				parent, err := tx.GetItem(ctx, w.ParentID)
				if err != nil && !errors.Is(err, storage.ErrNotFound) {
					return err
				}
				// A dangling link to a deleted parent constrains nothing.
				if err == nil && !parent.IsDeleted && !types.CanParent(parent.Type, w.Type) {
					res = result.BadRequest[*types.WorkItem]("a %s cannot be a child of a %s", w.Type, parent.Type)
					return errHandled
				}
			}
			children, err := tx.ListItems(ctx, types.WorkItemFilter{ProjectID: w.ProjectID, ParentID: w.ID})
			if err != nil {
				return err
			}
			for _, c := range children {
				if !types.CanParent(w.Type, c.Type) {
					res = result.BadRequest[*types.WorkItem]("a %s cannot be a child of a %s", c.Type, w.Type)
					return errHandled
				}
			}
		}

		if err := w.Validate(); err != nil {
			res = result.BadRequest[*types.WorkItem]("%v", err)
			return errHandled
		}
		w.UpdatedAt = e.now()
		if err := tx.UpdateItem(ctx, w); err != nil {
			return err
		}
		updated = w
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.WorkItem]("work item not found")
	case err != nil:
		return result.Failure[*types.WorkItem](err)
	}

	if newStatusName != "" {
		e.audit.Record(ctx, audit.Entry{
			UserID:     actor.UserID,
			Action:     audit.ActionStatusChanged,
			EntityType: rbac.EntityWorkItem,
			EntityID:   updated.ID,
			OldValue:   oldStatusName,
			NewValue:   newStatusName,
			ProjectID:  updated.ProjectID,
			WorkItemID: updated.ID,
		})
	}
	if assigneeChanged {
		e.audit.Record(ctx, audit.Entry{
			UserID:     actor.UserID,
			Action:     audit.ActionAssigned,
			EntityType: rbac.EntityWorkItem,
			EntityID:   updated.ID,
			OldValue:   oldAssignee,
			NewValue:   newAssignee,
			ProjectID:  updated.ProjectID,
			WorkItemID: updated.ID,
		})
	}
	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     audit.ActionUpdated,
		EntityType: rbac.EntityWorkItem,
		EntityID:   updated.ID,
		ProjectID:  updated.ProjectID,
		WorkItemID: updated.ID,
	})
	return result.OK(updated)
}

// AssignItem hands a work item to assigneeID ("" unassigns).
func (e *Engine) AssignItem(ctx context.Context, actorID, itemID, assigneeID string) (res result.Result[*types.WorkItem]) {
	return e.UpdateItem(ctx, actorID, itemID, UpdateItemInput{AssignedTo: &assigneeID})
}

// MoveToSprint puts a work item into a sprint, leaving the backlog.
func (e *Engine) MoveToSprint(ctx context.Context, actorID, itemID, sprintID string) (res result.Result[*types.WorkItem]) {
	return e.UpdateItem(ctx, actorID, itemID, UpdateItemInput{SprintID: &sprintID})
}

// MoveToBacklog returns a work item to the backlog, clearing its sprint.
func (e *Engine) MoveToBacklog(ctx context.Context, actorID, itemID string) (res result.Result[*types.WorkItem]) {
	backlog := true
	return e.UpdateItem(ctx, actorID, itemID, UpdateItemInput{Backlog: &backlog})
}

// DeleteItem soft-deletes a work item. Members cannot delete items; QA
// users can delete only items they created. Children of a deleted item
// keep their parent link.
func (e *Engine) DeleteItem(ctx context.Context, actorID, itemID string) (res result.Result[*types.WorkItem]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	var deleted *types.WorkItem
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		w, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if w.IsDeleted {
			return storage.ErrNotFound
		}
		p, err := getLiveProject(ctx, tx, w.ProjectID)
		if err != nil {
			return err
		}
		target, err := e.projectTarget(ctx, tx, actor, p, rbac.EntityWorkItem, w.CreatedBy, w.AssignedTo)
		if err != nil {
			return err
		}
		if d := rbac.Authorize(actor, rbac.ActionDelete, target); !d.Allow {
			res = denied[*types.WorkItem](d, "work item")
			return errHandled
		}
		now := e.now()
		w.Delete(actor.UserID, now)
		w.UpdatedAt = now
		if err := tx.UpdateItem(ctx, w); err != nil {
			return err
		}
		deleted = w
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.WorkItem]("work item not found")
	case err != nil:
		return result.Failure[*types.WorkItem](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     audit.ActionDeleted,
		EntityType: rbac.EntityWorkItem,
		EntityID:   deleted.ID,
		OldValue:   deleted.Title,
		ProjectID:  deleted.ProjectID,
		WorkItemID: deleted.ID,
	})
	return result.OK(deleted)
}

// GetItem returns a work item visible to the actor.
func (e *Engine) GetItem(ctx context.Context, actorID, itemID string) (res result.Result[*types.WorkItem]) {
	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	w, err := e.store.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return result.NotFound[*types.WorkItem]("work item not found")
		}
		return result.Failure[*types.WorkItem](err)
	}
	p, err := e.store.GetProject(ctx, w.ProjectID)
	if err != nil {
		return result.Failure[*types.WorkItem](err)
	}
	target, err := e.projectTarget(ctx, e.store, actor, p, rbac.EntityWorkItem, w.CreatedBy, w.AssignedTo)
	if err != nil {
		return result.Failure[*types.WorkItem](err)
	}
	if d := rbac.Authorize(actor, rbac.ActionView, target); !d.Allow {
		return denied[*types.WorkItem](d, "work item")
	}
	if w.IsDeleted || p.IsDeleted {
		return result.NotFound[*types.WorkItem]("work item not found")
	}
	return result.OK(w)
}

// ListItems returns the work items matching the filter that the actor
// can see. Member/QA actors see only items they created or hold, plus
// items visible through a direct report.
func (e *Engine) ListItems(ctx context.Context, actorID string, filter types.WorkItemFilter) (res result.Result[[]*types.WorkItem]) {
	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	if filter.ProjectID == "" {
		return result.BadRequest[[]*types.WorkItem]("a project filter is required")
	}
	p, err := e.store.GetProject(ctx, filter.ProjectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return result.NotFound[[]*types.WorkItem]("project not found")
		}
		return result.Failure[[]*types.WorkItem](err)
	}
	target, err := e.projectTarget(ctx, e.store, actor, p, rbac.EntityProject, p.CreatedBy, "")
	if err != nil {
		return result.Failure[[]*types.WorkItem](err)
	}
	if d := rbac.Authorize(actor, rbac.ActionView, target); !d.Allow {
		return denied[[]*types.WorkItem](d, "project")
	}
	if p.IsDeleted {
		return result.NotFound[[]*types.WorkItem]("project not found")
	}

	items, err := e.store.ListItems(ctx, filter)
	if err != nil {
		return result.Failure[[]*types.WorkItem](err)
	}
	if actor.Role.AtLeast(types.RoleManager) {
		return result.OK(items)
	}

	reports, err := e.store.ListDirectReports(ctx, actor.UserID)
	if err != nil {
		return result.Failure[[]*types.WorkItem](err)
	}
	reportIDs := map[string]bool{}
	for _, r := range reports {
		reportIDs[r.ID] = true
	}
	var visible []*types.WorkItem
	for _, w := range items {
		switch {
		case w.CreatedBy == actor.UserID || w.AssignedTo == actor.UserID:
			visible = append(visible, w)
		case reportIDs[w.CreatedBy] || reportIDs[w.AssignedTo]:
			visible = append(visible, w)
		}
	}
	return result.OK(visible)
}
