package service

import (
	"context"
	"errors"

	"github.com/worktrack/worktrack/internal/rbac"
	"github.com/worktrack/worktrack/internal/result"
	"github.com/worktrack/worktrack/internal/storage"
	"github.com/worktrack/worktrack/internal/types"
)

// ListActivity returns audit trail entries, newest first. A project
// filter is required so reads stay inside a project the actor can see.
func (e *Engine) ListActivity(ctx context.Context, actorID string, filter types.ActivityFilter) (res result.Result[[]*types.ActivityLog]) {
	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	if filter.ProjectID == "" {
		return result.BadRequest[[]*types.ActivityLog]("a project filter is required")
	}
	p, err := e.store.GetProject(ctx, filter.ProjectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return result.NotFound[[]*types.ActivityLog]("project not found")
		}
		return result.Failure[[]*types.ActivityLog](err)
	}
	target, err := e.projectTarget(ctx, e.store, actor, p, rbac.EntityProject, p.CreatedBy, "")
	if err != nil {
		return result.Failure[[]*types.ActivityLog](err)
	}
	if d := rbac.Authorize(actor, rbac.ActionView, target); !d.Allow {
		return denied[[]*types.ActivityLog](d, "project")
	}
	entries, err := e.store.ListActivity(ctx, filter)
	if err != nil {
		return result.Failure[[]*types.ActivityLog](err)
	}
	return result.OK(entries)
}
