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

// CreateProjectInput creates a project in the actor's company.
type CreateProjectInput struct {
	Name        string
	Key         string
	Description string
	ManagerID   string // optional: a user added as project manager
}

// CreateProject creates a project and, in the same transaction, seeds
// the four core workflow statuses, the default board with one column
// per core status, and the initial memberships (the creator as project
// admin, the named manager as project manager).
func (e *Engine) CreateProject(ctx context.Context, actorID string, in CreateProjectInput) (res result.Result[*types.Project]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	d := rbac.Authorize(actor, rbac.ActionCreate, rbac.Target{
		Entity:    rbac.EntityProject,
		CompanyID: actor.CompanyID,
	})
	if !d.Allow {
		return denied[*types.Project](d, "project")
	}

	now := e.now()
	project := &types.Project{
		ID:          e.newID(),
		CompanyID:   actor.CompanyID,
		Key:         strings.ToUpper(strings.TrimSpace(in.Key)),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		IsActive:    true,
		CreatedBy:   actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := project.Validate(); err != nil {
		return result.BadRequest[*types.Project]("%v", err)
	}

	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if in.ManagerID != "" && in.ManagerID != actor.UserID {
			mgr, err := tx.GetUser(ctx, in.ManagerID)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					res = result.BadRequest[*types.Project]("manager %s does not exist", in.ManagerID)
					return errHandled
				}
				return err
			}
			if mgr.IsDeleted || mgr.CompanyID != actor.CompanyID {
				res = result.BadRequest[*types.Project]("manager %s does not exist", in.ManagerID)
				return errHandled
			}
		}
		if err := tx.CreateProject(ctx, project); err != nil {
			return err
		}

		if err := tx.AddMember(ctx, &types.Membership{
			ProjectID: project.ID,
			UserID:    actor.UserID,
			Role:      types.ProjectAdmin,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		if in.ManagerID != "" && in.ManagerID != actor.UserID {
			if err := tx.AddMember(ctx, &types.Membership{
				ProjectID: project.ID,
				UserID:    in.ManagerID,
				Role:      types.ProjectManager,
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}

		var columns []*types.BoardColumn
		board := &types.Board{
			ID:        e.newID(),
			ProjectID: project.ID,
			Name:      "Default Board",
			IsDefault: true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		for _, seed := range types.CoreStatusSeeds() {
			status := &types.WorkflowStatus{
				ID:        e.newID(),
				ProjectID: project.ID,
				Name:      seed.Name,
				Color:     seed.Color,
				Order:     seed.Order,
				IsCore:    true,
				CoreType:  seed.Type,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.CreateStatus(ctx, status); err != nil {
				return err
			}
			columns = append(columns, &types.BoardColumn{
				ID:       e.newID(),
				BoardID:  board.ID,
				StatusID: status.ID,
				Order:    seed.Order,
			})
		}
		if err := tx.CreateBoard(ctx, board); err != nil {
			return err
		}
		return tx.SetBoardColumns(ctx, board.ID, columns)
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrDuplicate):
		return result.BadRequest[*types.Project]("project key %q is already in use", project.Key)
	case err != nil:
		return result.Failure[*types.Project](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     audit.ActionCreated,
		EntityType: rbac.EntityProject,
		EntityID:   project.ID,
		NewValue:   project.Key,
		ProjectID:  project.ID,
	})
	return result.Created(project)
}

// GetProject returns a project visible to the actor.
func (e *Engine) GetProject(ctx context.Context, actorID, projectID string) (res result.Result[*types.Project]) {
	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	p, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return result.NotFound[*types.Project]("project not found")
		}
		return result.Failure[*types.Project](err)
	}
	target, err := e.projectTarget(ctx, e.store, actor, p, rbac.EntityProject, p.CreatedBy, "")
	if err != nil {
		return result.Failure[*types.Project](err)
	}
	if d := rbac.Authorize(actor, rbac.ActionView, target); !d.Allow {
		return denied[*types.Project](d, "project")
	}
	if p.IsDeleted {
		return result.NotFound[*types.Project]("project not found")
	}
	return result.OK(p)
}

// ListProjects returns the projects the actor can see. Manager and
// above see all company projects; Member/QA see projects they belong
// to, plus projects where one of their direct reports is a member.
func (e *Engine) ListProjects(ctx context.Context, actorID string) (res result.Result[[]*types.Project]) {
	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	all, err := e.store.ListProjects(ctx, actor.CompanyID)
	if err != nil {
		return result.Failure[[]*types.Project](err)
	}
	if actor.Role.AtLeast(types.RoleManager) {
		return result.OK(all)
	}

	visible := map[string]bool{}
	memberships, err := e.store.ListMemberships(ctx, actor.UserID)
	if err != nil {
		return result.Failure[[]*types.Project](err)
	}
	for _, m := range memberships {
		visible[m.ProjectID] = true
	}
	reports, err := e.store.ListDirectReports(ctx, actor.UserID)
	if err != nil {
		return result.Failure[[]*types.Project](err)
	}
	for _, r := range reports {
		ms, err := e.store.ListMemberships(ctx, r.ID)
		if err != nil {
			return result.Failure[[]*types.Project](err)
		}
		for _, m := range ms {
			visible[m.ProjectID] = true
		}
	}

	out := make([]*types.Project, 0, len(visible))
	for _, p := range all {
		if visible[p.ID] {
			out = append(out, p)
		}
	}
	return result.OK(out)
}

// UpdateProjectInput carries mutable project fields; nil means keep.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// UpdateProject changes a project's name, description, or active flag.
// The key is immutable after creation.
func (e *Engine) UpdateProject(ctx context.Context, actorID, projectID string, in UpdateProjectInput) (res result.Result[*types.Project]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	var updated *types.Project
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		p, err := getLiveProject(ctx, tx, projectID)
		if err != nil {
			return err
		}
		target, err := e.projectTarget(ctx, tx, actor, p, rbac.EntityProject, p.CreatedBy, "")
		if err != nil {
			return err
		}
		if d := rbac.Authorize(actor, rbac.ActionManage, target); !d.Allow {
			res = denied[*types.Project](d, "project")
			return errHandled
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				res = result.BadRequest[*types.Project]("name is required")
				return errHandled
			}
			p.Name = name
		}
		if in.Description != nil {
			p.Description = *in.Description
		}
		if in.IsActive != nil {
			p.IsActive = *in.IsActive
		}
		p.UpdatedAt = e.now()
		if err := tx.UpdateProject(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.Project]("project not found")
	case err != nil:
		return result.Failure[*types.Project](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     audit.ActionUpdated,
		EntityType: rbac.EntityProject,
		EntityID:   updated.ID,
		ProjectID:  updated.ID,
	})
	return result.OK(updated)
}

// DeleteProject soft-deletes a project. Work items, sprints, and
// tickets beneath it stay in place but become unreachable through
// project-scoped reads.
func (e *Engine) DeleteProject(ctx context.Context, actorID, projectID string) (res result.Result[*types.Project]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	var deleted *types.Project
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		p, err := getLiveProject(ctx, tx, projectID)
		if err != nil {
			return err
		}
		target, err := e.projectTarget(ctx, tx, actor, p, rbac.EntityProject, p.CreatedBy, "")
		if err != nil {
			return err
		}
		if d := rbac.Authorize(actor, rbac.ActionManage, target); !d.Allow {
			res = denied[*types.Project](d, "project")
			return errHandled
		}
		now := e.now()
		p.Delete(actor.UserID, now)
		p.UpdatedAt = now
		if err := tx.UpdateProject(ctx, p); err != nil {
			return err
		}
		deleted = p
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.Project]("project not found")
	case err != nil:
		return result.Failure[*types.Project](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     audit.ActionDeleted,
		EntityType: rbac.EntityProject,
		EntityID:   deleted.ID,
		ProjectID:  deleted.ID,
	})
	return result.OK(deleted)
}
