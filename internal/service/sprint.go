package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/worktrack/worktrack/internal/audit"
	"github.com/worktrack/worktrack/internal/rbac"
	"github.com/worktrack/worktrack/internal/result"
	"github.com/worktrack/worktrack/internal/storage"
	"github.com/worktrack/worktrack/internal/types"
)

// CreateSprintInput creates a sprint in planning state.
type CreateSprintInput struct {
	ProjectID string
	Name      string
	Goal      string
	StartDate time.Time
	EndDate   time.Time
}

// CreateSprint creates a sprint. New sprints always start in planning.
func (e *Engine) CreateSprint(ctx context.Context, actorID string, in CreateSprintInput) (res result.Result[*types.Sprint]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return result.BadRequest[*types.Sprint]("sprint name is required")
	}
	if !in.EndDate.IsZero() && !in.StartDate.IsZero() && in.EndDate.Before(in.StartDate) {
		return result.BadRequest[*types.Sprint]("sprint end date is before its start date")
	}

	var created *types.Sprint
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		p, err := getLiveProject(ctx, tx, in.ProjectID)
		if err != nil {
			return err
		}
		target, err := e.projectTarget(ctx, tx, actor, p, rbac.EntitySprint, "", "")
		if err != nil {
			return err
		}
		if d := rbac.Authorize(actor, rbac.ActionManage, target); !d.Allow {
			res = denied[*types.Sprint](d, "project")
			return errHandled
		}
		now := e.now()
		s := &types.Sprint{
			ID:        e.newID(),
			ProjectID: in.ProjectID,
			Name:      name,
			Goal:      in.Goal,
			Status:    types.SprintPlanning,
			StartDate: in.StartDate,
			EndDate:   in.EndDate,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.CreateSprint(ctx, s); err != nil {
			return err
		}
		created = s
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.Sprint]("project not found")
	case err != nil:
		return result.Failure[*types.Sprint](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     audit.ActionCreated,
		EntityType: rbac.EntitySprint,
		EntityID:   created.ID,
		NewValue:   created.Name,
		ProjectID:  created.ProjectID,
	})
	return result.Created(created)
}

// StartSprint moves a sprint from planning to active.
func (e *Engine) StartSprint(ctx context.Context, actorID, sprintID string) (res result.Result[*types.Sprint]) {
	return e.transitionSprint(ctx, actorID, sprintID, types.SprintActive, audit.ActionStarted)
}

// CompleteSprint moves a sprint from active to completed.
func (e *Engine) CompleteSprint(ctx context.Context, actorID, sprintID string) (res result.Result[*types.Sprint]) {
	return e.transitionSprint(ctx, actorID, sprintID, types.SprintCompleted, audit.ActionCompleted)
}

func (e *Engine) transitionSprint(ctx context.Context, actorID, sprintID string, next types.SprintStatus, action string) (res result.Result[*types.Sprint]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	var updated *types.Sprint
	var oldStatus types.SprintStatus
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		s, err := tx.GetSprint(ctx, sprintID)
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
		target, err := e.projectTarget(ctx, tx, actor, p, rbac.EntitySprint, "", "")
		if err != nil {
			return err
		}
		if d := rbac.Authorize(actor, rbac.ActionManage, target); !d.Allow {
			res = denied[*types.Sprint](d, "sprint")
			return errHandled
		}
		if !s.Status.CanTransition(next) {
			res = result.BadRequest[*types.Sprint]("sprint cannot move from %s to %s", s.Status, next)
			return errHandled
		}
		oldStatus = s.Status
		s.Status = next
		s.UpdatedAt = e.now()
		if err := tx.UpdateSprint(ctx, s); err != nil {
			return err
		}
		updated = s
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.Sprint]("sprint not found")
	case err != nil:
		return result.Failure[*types.Sprint](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     action,
		EntityType: rbac.EntitySprint,
		EntityID:   updated.ID,
		OldValue:   string(oldStatus),
		NewValue:   string(updated.Status),
		ProjectID:  updated.ProjectID,
	})
	return result.OK(updated)
}

// UpdateSprintInput carries mutable sprint fields; nil means keep.
// Status moves only through StartSprint and CompleteSprint.
type UpdateSprintInput struct {
	Name      *string
	Goal      *string
	StartDate *time.Time
	EndDate   *time.Time
}

// UpdateSprint edits a sprint's name, goal, or dates.
func (e *Engine) UpdateSprint(ctx context.Context, actorID, sprintID string, in UpdateSprintInput) (res result.Result[*types.Sprint]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	var updated *types.Sprint
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		s, err := tx.GetSprint(ctx, sprintID)
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
		target, err := e.projectTarget(ctx, tx, actor, p, rbac.EntitySprint, "", "")
		if err != nil {
			return err
		}
		if d := rbac.Authorize(actor, rbac.ActionManage, target); !d.Allow {
			res = denied[*types.Sprint](d, "sprint")
			return errHandled
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				res = result.BadRequest[*types.Sprint]("sprint name is required")
				return errHandled
			}
			s.Name = name
		}
		if in.Goal != nil {
			s.Goal = *in.Goal
		}
		if in.StartDate != nil {
			s.StartDate = *in.StartDate
		}
		if in.EndDate != nil {
			s.EndDate = *in.EndDate
		}
		if !s.EndDate.IsZero() && !s.StartDate.IsZero() && s.EndDate.Before(s.StartDate) {
			res = result.BadRequest[*types.Sprint]("sprint end date is before its start date")
			return errHandled
		}
		s.UpdatedAt = e.now()
		if err := tx.UpdateSprint(ctx, s); err != nil {
			return err
		}
		updated = s
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.Sprint]("sprint not found")
	case err != nil:
		return result.Failure[*types.Sprint](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     audit.ActionUpdated,
		EntityType: rbac.EntitySprint,
		EntityID:   updated.ID,
		ProjectID:  updated.ProjectID,
	})
	return result.OK(updated)
}

// DeleteSprint soft-deletes a sprint and, in the same transaction,
// moves every item still in the sprint back to the backlog. Either all
// of it happens or none of it does.
func (e *Engine) DeleteSprint(ctx context.Context, actorID, sprintID string) (res result.Result[*types.Sprint]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	var deleted *types.Sprint
	var moved int
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		s, err := tx.GetSprint(ctx, sprintID)
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
		target, err := e.projectTarget(ctx, tx, actor, p, rbac.EntitySprint, "", "")
		if err != nil {
			return err
		}
		if d := rbac.Authorize(actor, rbac.ActionManage, target); !d.Allow {
			res = denied[*types.Sprint](d, "sprint")
			return errHandled
		}

		now := e.now()
		items, err := tx.ListItems(ctx, types.WorkItemFilter{ProjectID: s.ProjectID, SprintID: s.ID})
		if err != nil {
			return err
		}
		for _, w := range items {
			w.SprintID = ""
			w.IsInBacklog = true
			w.UpdatedAt = now
			if err := tx.UpdateItem(ctx, w); err != nil {
				return err
			}
		}
		moved = len(items)

		s.Delete(actor.UserID, now)
		s.UpdatedAt = now
		if err := tx.UpdateSprint(ctx, s); err != nil {
			return err
		}
		deleted = s
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.Sprint]("sprint not found")
	case err != nil:
		return result.Failure[*types.Sprint](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:      actor.UserID,
		Action:      audit.ActionDeleted,
		EntityType:  rbac.EntitySprint,
		EntityID:    deleted.ID,
		OldValue:    deleted.Name,
		Description: pluralItems(moved) + " moved to backlog",
		ProjectID:   deleted.ProjectID,
	})
	return result.OK(deleted)
}

// GetSprint returns a sprint visible to the actor.
func (e *Engine) GetSprint(ctx context.Context, actorID, sprintID string) (res result.Result[*types.Sprint]) {
	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	s, err := e.store.GetSprint(ctx, sprintID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return result.NotFound[*types.Sprint]("sprint not found")
		}
		return result.Failure[*types.Sprint](err)
	}
	p, err := e.store.GetProject(ctx, s.ProjectID)
	if err != nil {
		return result.Failure[*types.Sprint](err)
	}
	target, err := e.projectTarget(ctx, e.store, actor, p, rbac.EntitySprint, "", "")
	if err != nil {
		return result.Failure[*types.Sprint](err)
	}
	if d := rbac.Authorize(actor, rbac.ActionView, target); !d.Allow {
		return denied[*types.Sprint](d, "sprint")
	}
	if s.IsDeleted || p.IsDeleted {
		return result.NotFound[*types.Sprint]("sprint not found")
	}
	return result.OK(s)
}

// ListSprints returns a project's live sprints.
func (e *Engine) ListSprints(ctx context.Context, actorID, projectID string) (res result.Result[[]*types.Sprint]) {
	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	p, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return result.NotFound[[]*types.Sprint]("project not found")
		}
		return result.Failure[[]*types.Sprint](err)
	}
	target, err := e.projectTarget(ctx, e.store, actor, p, rbac.EntitySprint, "", "")
	if err != nil {
		return result.Failure[[]*types.Sprint](err)
	}
	if d := rbac.Authorize(actor, rbac.ActionView, target); !d.Allow {
		return denied[[]*types.Sprint](d, "project")
	}
	if p.IsDeleted {
		return result.NotFound[[]*types.Sprint]("project not found")
	}
	sprints, err := e.store.ListSprints(ctx, projectID)
	if err != nil {
		return result.Failure[[]*types.Sprint](err)
	}
	return result.OK(sprints)
}

func pluralItems(n int) string {
	if n == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", n)
}
