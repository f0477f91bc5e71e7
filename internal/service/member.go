package service

import (
	"context"
	"errors"

	"github.com/worktrack/worktrack/internal/audit"
	"github.com/worktrack/worktrack/internal/rbac"
	"github.com/worktrack/worktrack/internal/result"
	"github.com/worktrack/worktrack/internal/storage"
	"github.com/worktrack/worktrack/internal/types"
)

// AddMember adds a user to a project with the given project role.
func (e *Engine) AddMember(ctx context.Context, actorID, projectID, userID string, role types.ProjectRole) (res result.Result[*types.Membership]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	if !role.IsValid() {
		return result.BadRequest[*types.Membership]("invalid project role: %s", role)
	}

	var added *types.Membership
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
			res = denied[*types.Membership](d, "project")
			return errHandled
		}
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				res = result.BadRequest[*types.Membership]("user %s does not exist", userID)
				return errHandled
			}
			return err
		}
		if u.IsDeleted || u.CompanyID != p.CompanyID {
			res = result.BadRequest[*types.Membership]("user %s does not exist", userID)
			return errHandled
		}
		m := &types.Membership{
			ProjectID: projectID,
			UserID:    userID,
			Role:      role,
			CreatedAt: e.now(),
		}
		if err := tx.AddMember(ctx, m); err != nil {
			return err
		}
		added = m
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.Membership]("project not found")
	case errors.Is(err, storage.ErrDuplicate):
		return result.BadRequest[*types.Membership]("user is already a member of the project")
	case err != nil:
		return result.Failure[*types.Membership](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:      actor.UserID,
		Action:      audit.ActionMemberAdded,
		EntityType:  rbac.EntityProject,
		EntityID:    projectID,
		NewValue:    string(role),
		Description: userID,
		ProjectID:   projectID,
	})
	return result.Created(added)
}

// UpdateMemberRole changes a member's project role. Demoting the last
// project manager (or admin) is rejected: every project keeps at least
// one member who can administer it.
func (e *Engine) UpdateMemberRole(ctx context.Context, actorID, projectID, userID string, role types.ProjectRole) (res result.Result[*types.Membership]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	if !role.IsValid() {
		return result.BadRequest[*types.Membership]("invalid project role: %s", role)
	}

	var updated *types.Membership
	var oldRole types.ProjectRole
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
			res = denied[*types.Membership](d, "project")
			return errHandled
		}
		m, err := tx.GetMember(ctx, projectID, userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				res = result.NotFound[*types.Membership]("member not found")
				return errHandled
			}
			return err
		}
		if m.Role.AtLeast(types.ProjectManager) && !role.AtLeast(types.ProjectManager) {
			lone, err := isLastSteward(ctx, tx, projectID, userID)
			if err != nil {
				return err
			}
			if lone {
				res = result.BadRequest[*types.Membership]("cannot demote the last project manager")
				return errHandled
			}
		}
		oldRole = m.Role
		m.Role = role
		if err := tx.UpdateMember(ctx, m); err != nil {
			return err
		}
		updated = m
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.Membership]("project not found")
	case err != nil:
		return result.Failure[*types.Membership](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:      actor.UserID,
		Action:      audit.ActionRoleChanged,
		EntityType:  rbac.EntityProject,
		EntityID:    projectID,
		OldValue:    string(oldRole),
		NewValue:    string(updated.Role),
		Description: userID,
		ProjectID:   projectID,
	})
	return result.OK(updated)
}

// RemoveMember removes a user from a project. Removing the last member
// who holds a project manager or admin role is rejected.
func (e *Engine) RemoveMember(ctx context.Context, actorID, projectID, userID string) (res result.Result[struct{}]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
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
			res = denied[struct{}](d, "project")
			return errHandled
		}
		m, err := tx.GetMember(ctx, projectID, userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				res = result.NotFound[struct{}]("member not found")
				return errHandled
			}
			return err
		}
		if m.Role.AtLeast(types.ProjectManager) {
			lone, err := isLastSteward(ctx, tx, projectID, userID)
			if err != nil {
				return err
			}
			if lone {
				res = result.BadRequest[struct{}]("cannot remove the last project manager")
				return errHandled
			}
		}
		return tx.RemoveMember(ctx, projectID, userID)
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[struct{}]("project not found")
	case err != nil:
		return result.Failure[struct{}](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:      actor.UserID,
		Action:      audit.ActionMemberRemoved,
		EntityType:  rbac.EntityProject,
		EntityID:    projectID,
		Description: userID,
		ProjectID:   projectID,
	})
	return result.OK(struct{}{})
}

// ListMembers returns the members of a project the actor can view.
func (e *Engine) ListMembers(ctx context.Context, actorID, projectID string) (res result.Result[[]*types.Membership]) {
	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	p, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return result.NotFound[[]*types.Membership]("project not found")
		}
		return result.Failure[[]*types.Membership](err)
	}
	target, err := e.projectTarget(ctx, e.store, actor, p, rbac.EntityProject, p.CreatedBy, "")
	if err != nil {
		return result.Failure[[]*types.Membership](err)
	}
	if d := rbac.Authorize(actor, rbac.ActionView, target); !d.Allow {
		return denied[[]*types.Membership](d, "project")
	}
	if p.IsDeleted {
		return result.NotFound[[]*types.Membership]("project not found")
	}
	members, err := e.store.ListMembers(ctx, projectID)
	if err != nil {
		return result.Failure[[]*types.Membership](err)
	}
	return result.OK(members)
}

// isLastSteward reports whether userID is the only member who can
// administer the project. A remaining member counts as a steward when
// they hold a manager-or-above project role, or when their system role
// is manager or above (those users carry manage rights regardless of
// their project role).
func isLastSteward(ctx context.Context, tx storage.Tx, projectID, userID string) (bool, error) {
	members, err := tx.ListMembers(ctx, projectID)
	if err != nil {
		return false, err
	}
	for _, m := range members {
		if m.UserID == userID {
			continue
		}
		if m.Role.AtLeast(types.ProjectManager) {
			return false, nil
		}
		u, err := tx.GetUser(ctx, m.UserID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return false, err
		}
		if !u.IsDeleted && u.Role.AtLeast(types.RoleManager) {
			return false, nil
		}
	}
	return true, nil
}
