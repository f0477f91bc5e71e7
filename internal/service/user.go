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

// RegisterUserInput creates a user in the actor's company.
type RegisterUserInput struct {
	Email     string
	Name      string
	Role      types.SystemRole
	ManagerID string
}

// RegisterUser creates a user account. The actor may only grant roles
// strictly below their own; Member and QA accounts must name a manager
// in the same company.
func (e *Engine) RegisterUser(ctx context.Context, actorID string, in RegisterUserInput) (res result.Result[*types.User]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	if !in.Role.IsValid() {
		return result.BadRequest[*types.User]("invalid system role: %s", in.Role)
	}
	if !rbac.CanAssignRole(actor.Role, in.Role) {
		return result.Forbidden[*types.User]("%s cannot grant the %s role", actor.Role, in.Role)
	}

	now := e.now()
	u := &types.User{
		ID:        e.newID(),
		CompanyID: actor.CompanyID,
		Email:     strings.TrimSpace(in.Email),
		Name:      strings.TrimSpace(in.Name),
		Role:      in.Role,
		ManagerID: in.ManagerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.Validate(); err != nil {
		return result.BadRequest[*types.User]("%v", err)
	}

	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if u.ManagerID != "" {
			mgr, err := tx.GetUser(ctx, u.ManagerID)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					res = result.BadRequest[*types.User]("manager %s does not exist", u.ManagerID)
					return errHandled
				}
				return err
			}
			if mgr.IsDeleted || mgr.CompanyID != actor.CompanyID {
				res = result.BadRequest[*types.User]("manager %s does not exist", u.ManagerID)
				return errHandled
			}
		}
		return tx.CreateUser(ctx, u)
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrDuplicate):
		return result.BadRequest[*types.User]("email %s is already registered", u.Email)
	case err != nil:
		return result.Failure[*types.User](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     audit.ActionCreated,
		EntityType: rbac.EntityUser,
		EntityID:   u.ID,
		NewValue:   string(u.Role),
	})
	return result.Created(u)
}

// GetUser returns a user in the actor's company.
func (e *Engine) GetUser(ctx context.Context, actorID, userID string) (res result.Result[*types.User]) {
	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	u, err := e.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return result.NotFound[*types.User]("user not found")
		}
		return result.Failure[*types.User](err)
	}
	if u.CompanyID != actor.CompanyID || u.IsDeleted {
		return result.NotFound[*types.User]("user not found")
	}
	return result.OK(u)
}

// ListUsers returns the live users of the actor's company.
func (e *Engine) ListUsers(ctx context.Context, actorID string) (res result.Result[[]*types.User]) {
	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	users, err := e.store.ListUsers(ctx, actor.CompanyID)
	if err != nil {
		return result.Failure[[]*types.User](err)
	}
	return result.OK(users)
}

// UpdateUserRole changes a user's system role. The actor must be able
// to grant the new role and must outrank the user's current role.
// SuperAdmin moves only through TransferSuperAdmin.
func (e *Engine) UpdateUserRole(ctx context.Context, actorID, userID string, role types.SystemRole, managerID string) (res result.Result[*types.User]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	if !role.IsValid() {
		return result.BadRequest[*types.User]("invalid system role: %s", role)
	}

	var updated *types.User
	var oldRole types.SystemRole
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if u.CompanyID != actor.CompanyID || u.IsDeleted {
			return storage.ErrNotFound
		}
		if u.Role == types.RoleSuperAdmin {
			res = result.Forbidden[*types.User]("the superadmin role can only move via transfer")
			return errHandled
		}
		if !rbac.CanAssignRole(actor.Role, role) || u.Role.Rank() >= actor.Role.Rank() {
			res = result.Forbidden[*types.User]("%s cannot change this user to %s", actor.Role, role)
			return errHandled
		}
		oldRole = u.Role
		u.Role = role
		if managerID != "" {
			u.ManagerID = managerID
		}
		if err := u.Validate(); err != nil {
			res = result.BadRequest[*types.User]("%v", err)
			return errHandled
		}
		u.UpdatedAt = e.now()
		if err := tx.UpdateUser(ctx, u); err != nil {
			return err
		}
		updated = u
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.User]("user not found")
	case err != nil:
		return result.Failure[*types.User](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     audit.ActionRoleChanged,
		EntityType: rbac.EntityUser,
		EntityID:   updated.ID,
		OldValue:   string(oldRole),
		NewValue:   string(updated.Role),
	})
	return result.OK(updated)
}

// DeleteUser soft-deletes a user. Only strictly-lower roles may be
// deleted; the SuperAdmin account is never deletable.
func (e *Engine) DeleteUser(ctx context.Context, actorID, userID string) (res result.Result[*types.User]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	var deleted *types.User
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if u.CompanyID != actor.CompanyID || u.IsDeleted {
			return storage.ErrNotFound
		}
		if !rbac.CanDeleteUser(actor.Role, u.Role) {
			res = result.Forbidden[*types.User]("%s cannot delete a %s user", actor.Role, u.Role)
			return errHandled
		}
		u.Delete(actor.UserID, e.now())
		u.UpdatedAt = e.now()
		if err := tx.UpdateUser(ctx, u); err != nil {
			return err
		}
		deleted = u
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.User]("user not found")
	case err != nil:
		return result.Failure[*types.User](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     audit.ActionDeleted,
		EntityType: rbac.EntityUser,
		EntityID:   deleted.ID,
	})
	return result.OK(deleted)
}

// TransferSuperAdmin atomically demotes the current SuperAdmin to Admin
// and promotes the target Admin to SuperAdmin. Only the current
// SuperAdmin may initiate the transfer.
func (e *Engine) TransferSuperAdmin(ctx context.Context, actorID, targetID string) (res result.Result[*types.User]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	if actor.Role != types.RoleSuperAdmin {
		return result.Forbidden[*types.User]("only the superadmin can transfer the superadmin role")
	}
	if targetID == actorID {
		return result.BadRequest[*types.User]("cannot transfer the superadmin role to yourself")
	}

	var promoted *types.User
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		current, err := tx.GetUser(ctx, actorID)
		if err != nil {
			return err
		}
		target, err := tx.GetUser(ctx, targetID)
		if err != nil {
			return err
		}
		if target.CompanyID != actor.CompanyID || target.IsDeleted {
			return storage.ErrNotFound
		}
		if target.Role != types.RoleAdmin {
			res = result.BadRequest[*types.User]("superadmin can only be transferred to an admin (target is %s)", target.Role)
			return errHandled
		}
		now := e.now()
		current.Role = types.RoleAdmin
		current.UpdatedAt = now
		target.Role = types.RoleSuperAdmin
		target.UpdatedAt = now
		if err := tx.UpdateUser(ctx, current); err != nil {
			return err
		}
		if err := tx.UpdateUser(ctx, target); err != nil {
			return err
		}
		promoted = target
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.User]("user not found")
	case err != nil:
		return result.Failure[*types.User](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:      actor.UserID,
		Action:      audit.ActionRoleChanged,
		EntityType:  rbac.EntityUser,
		EntityID:    promoted.ID,
		OldValue:    string(types.RoleAdmin),
		NewValue:    string(types.RoleSuperAdmin),
		Description: "superadmin transfer",
	})
	return result.OK(promoted)
}
