// Package rbac implements the authorization engine: pure decision
// functions over an actor, an action, and a target's metadata.
//
// Decisions are re-derived per request from role + tenancy + project
// membership + ownership. Nothing is cached, so role and membership
// changes take effect immediately. The package never touches storage;
// callers fetch the membership/ownership metadata and pass it in.
package rbac

import (
	"fmt"

	"github.com/worktrack/worktrack/internal/types"
)

// Action is the class of operation being authorized.
type Action string

// Action constants
const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage" // membership and board/status administration
)

// Entity type names used on targets and in the audit trail.
const (
	EntityCompany    = "company"
	EntityUser       = "user"
	EntityProject    = "project"
	EntityStatus     = "workflow_status"
	EntityWorkItem   = "work_item"
	EntitySprint     = "sprint"
	EntityFileTicket = "file_ticket"
	EntityBoard      = "board"
)

// Actor is the authenticated caller, as resolved by the identity
// context collaborator.
type Actor struct {
	UserID    string
	CompanyID string
	Role      types.SystemRole
	ManagerID string
}

// Valid reports whether the actor can be treated as authenticated.
func (a Actor) Valid() bool {
	return a.UserID != "" && a.CompanyID != "" && a.Role.IsValid()
}

// Target carries the entity metadata a decision needs. CompanyID is
// derived directly or via the owning project. Membership is the actor's
// project role in the target's project, nil when the actor is not a
// member. SubordinateVisible is set by the caller when a direct report
// of the actor can see the target (one hop only).
type Target struct {
	Entity             string
	CompanyID          string
	ProjectID          string
	CreatedBy          string
	AssignedTo         string
	Membership         *types.ProjectRole
	SubordinateVisible bool
}

// Decision is the outcome of an authorization check. When Hidden is
// set, the caller should report NotFound instead of Forbidden so that
// entity existence does not leak across the tenancy boundary.
type Decision struct {
	Allow  bool
	Hidden bool
	Reason string
}

func allow() Decision { return Decision{Allow: true} }

func deny(format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

func denyHidden(format string, args ...any) Decision {
	return Decision{Hidden: true, Reason: fmt.Sprintf(format, args...)}
}

// Authorize decides whether actor may perform action on target.
//
// Precedence:
//  1. tenancy: no role, SuperAdmin included, crosses company lines
//  2. SuperAdmin / Admin: allowed within their company
//  3. Manager: writes require explicit project membership; reads only
//     need a matching company
//  4. Member/QA: visibility limited to created-or-assigned entities,
//     with entity-specific create/delete restrictions
//  5. one-hop manager inheritance of a subordinate's read access
func Authorize(actor Actor, action Action, target Target) Decision {
	if !actor.Valid() {
		return deny("actor is not authenticated")
	}
	if target.CompanyID != actor.CompanyID {
		return denyHidden("entity belongs to another company")
	}

	switch actor.Role {
	case types.RoleSuperAdmin, types.RoleAdmin:
		return allow()
	case types.RoleManager:
		return authorizeManager(actor, action, target)
	case types.RoleMember, types.RoleQA:
		return authorizeBaseline(actor, action, target)
	}
	return deny("unknown role %q", actor.Role)
}

func authorizeManager(actor Actor, action Action, target Target) Decision {
	if action == ActionView {
		return allow()
	}
	// Company-scoped entities with no owning project (companies, users)
	// stay admin-only for writes.
	if target.ProjectID == "" {
		return deny("managers cannot modify %s entities", target.Entity)
	}
	if target.Membership == nil {
		return deny("not a member of the project")
	}
	if action == ActionManage && !target.Membership.AtLeast(types.ProjectManager) {
		return deny("requires a project manager role")
	}
	return allow()
}

func authorizeBaseline(actor Actor, action Action, target Target) Decision {
	switch action {
	case ActionView:
		// Company-scoped entities (the company itself, users) are
		// visible tenant-wide; tenancy was already checked above.
		if target.ProjectID == "" {
			return allow()
		}
		// Work items and file tickets are visible only when the actor
		// created them or holds them. Container entities (project,
		// statuses, sprints, boards) are visible to any project member.
		if target.Entity != EntityWorkItem && target.Entity != EntityFileTicket && target.Membership != nil {
			return allow()
		}
		if target.CreatedBy == actor.UserID || target.AssignedTo == actor.UserID {
			return allow()
		}
		if target.SubordinateVisible {
			return allow()
		}
		return deny("entity is not created by or assigned to you")
	case ActionCreate:
		if target.Entity == EntityWorkItem && actor.Role == types.RoleMember {
			return deny("members cannot create work items")
		}
		if target.Membership == nil {
			return deny("not a member of the project")
		}
		return allow()
	case ActionUpdate:
		if target.Membership == nil {
			return deny("not a member of the project")
		}
		if target.CreatedBy == actor.UserID || target.AssignedTo == actor.UserID {
			return allow()
		}
		return deny("entity is not created by or assigned to you")
	case ActionDelete:
		if target.Entity == EntityWorkItem {
			if actor.Role == types.RoleMember {
				return deny("members cannot delete work items")
			}
			// QA may delete only their own items.
			if target.CreatedBy != actor.UserID {
				return deny("qa users can delete only work items they created")
			}
			return allow()
		}
		return deny("%s users cannot delete %s entities", actor.Role, target.Entity)
	case ActionManage:
		return deny("requires a manager or admin role")
	}
	return deny("unknown action %q", action)
}

// CanAssignRole reports whether a user with the granter role may assign
// the granted role to another user. A granter can only grant roles
// strictly below their own; SuperAdmin can grant anything except
// SuperAdmin itself, which moves only via TransferSuperAdmin.
func CanAssignRole(granter, granted types.SystemRole) bool {
	if !granter.IsValid() || !granted.IsValid() {
		return false
	}
	if granted == types.RoleSuperAdmin {
		return false
	}
	if granter == types.RoleSuperAdmin {
		return true
	}
	return granted.Rank() < granter.Rank()
}

// CanDeleteUser reports whether deleter may delete a user holding
// target. Only strictly-lower roles may be deleted; SuperAdmin is never
// deletable.
func CanDeleteUser(deleter, target types.SystemRole) bool {
	if !deleter.IsValid() || !target.IsValid() {
		return false
	}
	if target == types.RoleSuperAdmin {
		return false
	}
	return target.Rank() < deleter.Rank()
}
