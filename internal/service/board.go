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

// BoardView is a board with its ordered columns.
type BoardView struct {
	Board   *types.Board
	Columns []*types.BoardColumn
}

// GetDefaultBoard returns a project's default board and columns.
func (e *Engine) GetDefaultBoard(ctx context.Context, actorID, projectID string) (res result.Result[*BoardView]) {
	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	p, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return result.NotFound[*BoardView]("project not found")
		}
		return result.Failure[*BoardView](err)
	}
	target, err := e.projectTarget(ctx, e.store, actor, p, rbac.EntityBoard, "", "")
	if err != nil {
		return result.Failure[*BoardView](err)
	}
	if d := rbac.Authorize(actor, rbac.ActionView, target); !d.Allow {
		return denied[*BoardView](d, "project")
	}
	if p.IsDeleted {
		return result.NotFound[*BoardView]("project not found")
	}
	b, err := e.store.GetDefaultBoard(ctx, projectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return result.NotFound[*BoardView]("board not found")
		}
		return result.Failure[*BoardView](err)
	}
	cols, err := e.store.ListBoardColumns(ctx, b.ID)
	if err != nil {
		return result.Failure[*BoardView](err)
	}
	return result.OK(&BoardView{Board: b, Columns: cols})
}

// GetBoard returns a board with its columns.
func (e *Engine) GetBoard(ctx context.Context, actorID, boardID string) (res result.Result[*BoardView]) {
	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	b, err := e.store.GetBoard(ctx, boardID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return result.NotFound[*BoardView]("board not found")
		}
		return result.Failure[*BoardView](err)
	}
	p, err := e.store.GetProject(ctx, b.ProjectID)
	if err != nil {
		return result.Failure[*BoardView](err)
	}
	target, err := e.projectTarget(ctx, e.store, actor, p, rbac.EntityBoard, b.OwnerID, "")
	if err != nil {
		return result.Failure[*BoardView](err)
	}
	if d := rbac.Authorize(actor, rbac.ActionView, target); !d.Allow {
		return denied[*BoardView](d, "board")
	}
	if b.IsDeleted || p.IsDeleted {
		return result.NotFound[*BoardView]("board not found")
	}
	cols, err := e.store.ListBoardColumns(ctx, b.ID)
	if err != nil {
		return result.Failure[*BoardView](err)
	}
	return result.OK(&BoardView{Board: b, Columns: cols})
}

// ListBoards returns a project's live boards.
func (e *Engine) ListBoards(ctx context.Context, actorID, projectID string) (res result.Result[[]*types.Board]) {
	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	p, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return result.NotFound[[]*types.Board]("project not found")
		}
		return result.Failure[[]*types.Board](err)
	}
	target, err := e.projectTarget(ctx, e.store, actor, p, rbac.EntityBoard, "", "")
	if err != nil {
		return result.Failure[[]*types.Board](err)
	}
	if d := rbac.Authorize(actor, rbac.ActionView, target); !d.Allow {
		return denied[[]*types.Board](d, "project")
	}
	if p.IsDeleted {
		return result.NotFound[[]*types.Board]("project not found")
	}
	boards, err := e.store.ListBoards(ctx, projectID)
	if err != nil {
		return result.Failure[[]*types.Board](err)
	}
	return result.OK(boards)
}

// CreatePersonalBoard creates a board owned by the actor, forking the
// default board's columns as the starting layout. The fork then
// evolves independently of the default.
func (e *Engine) CreatePersonalBoard(ctx context.Context, actorID, projectID, name string) (res result.Result[*BoardView]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return result.BadRequest[*BoardView]("board name is required")
	}

	var view *BoardView
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		p, err := getLiveProject(ctx, tx, projectID)
		if err != nil {
			return err
		}
		target, err := e.projectTarget(ctx, tx, actor, p, rbac.EntityBoard, "", "")
		if err != nil {
			return err
		}
		if d := rbac.Authorize(actor, rbac.ActionCreate, target); !d.Allow {
			res = denied[*BoardView](d, "project")
			return errHandled
		}

		def, err := tx.GetDefaultBoard(ctx, projectID)
		if err != nil {
			return err
		}
		defCols, err := tx.ListBoardColumns(ctx, def.ID)
		if err != nil {
			return err
		}

		now := e.now()
		b := &types.Board{
			ID:        e.newID(),
			ProjectID: projectID,
			Name:      name,
			OwnerID:   actor.UserID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.CreateBoard(ctx, b); err != nil {
			return err
		}
		cols := make([]*types.BoardColumn, 0, len(defCols))
		for _, c := range defCols {
			cols = append(cols, &types.BoardColumn{
				ID:       e.newID(),
				BoardID:  b.ID,
				StatusID: c.StatusID,
				Order:    c.Order,
			})
		}
		if err := tx.SetBoardColumns(ctx, b.ID, cols); err != nil {
			return err
		}
		view = &BoardView{Board: b, Columns: cols}
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*BoardView]("project not found")
	case err != nil:
		return result.Failure[*BoardView](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     audit.ActionCreated,
		EntityType: rbac.EntityBoard,
		EntityID:   view.Board.ID,
		NewValue:   view.Board.Name,
		ProjectID:  projectID,
	})
	return result.Created(view)
}

// SetBoardColumns replaces a board's column layout with the given
// status ids, in order. The default board needs manage rights; a
// personal board can be changed only by its owner (or an admin).
func (e *Engine) SetBoardColumns(ctx context.Context, actorID, boardID string, statusIDs []string) (res result.Result[*BoardView]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	if len(statusIDs) == 0 {
		return result.BadRequest[*BoardView]("at least one column is required")
	}

	var view *BoardView
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		b, err := tx.GetBoard(ctx, boardID)
		if err != nil {
			return err
		}
		if b.IsDeleted {
			return storage.ErrNotFound
		}
		p, err := getLiveProject(ctx, tx, b.ProjectID)
		if err != nil {
			return err
		}
		if err := e.authorizeBoardWrite(ctx, tx, actor, p, b, &res); err != nil {
			return err
		}

		seen := map[string]bool{}
		cols := make([]*types.BoardColumn, 0, len(statusIDs))
		for i, id := range statusIDs {
			if seen[id] {
				res = result.BadRequest[*BoardView]("status %s listed twice", id)
				return errHandled
			}
			seen[id] = true
			s, err := tx.GetStatus(ctx, id)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			if err != nil || s.IsDeleted || s.ProjectID != b.ProjectID {
				res = result.BadRequest[*BoardView]("status %s does not exist in the project", id)
				return errHandled
			}
			cols = append(cols, &types.BoardColumn{
				ID:       e.newID(),
				BoardID:  b.ID,
				StatusID: id,
				Order:    i + 1,
			})
		}
		if err := tx.SetBoardColumns(ctx, b.ID, cols); err != nil {
			return err
		}
		b.UpdatedAt = e.now()
		if err := tx.UpdateBoard(ctx, b); err != nil {
			return err
		}
		view = &BoardView{Board: b, Columns: cols}
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*BoardView]("board not found")
	case err != nil:
		return result.Failure[*BoardView](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     audit.ActionReordered,
		EntityType: rbac.EntityBoard,
		EntityID:   view.Board.ID,
		ProjectID:  view.Board.ProjectID,
	})
	return result.OK(view)
}

// DeleteBoard soft-deletes a personal board. The default board cannot
// be deleted.
func (e *Engine) DeleteBoard(ctx context.Context, actorID, boardID string) (res result.Result[*types.Board]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	var deleted *types.Board
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		b, err := tx.GetBoard(ctx, boardID)
		if err != nil {
			return err
		}
		if b.IsDeleted {
			return storage.ErrNotFound
		}
		p, err := getLiveProject(ctx, tx, b.ProjectID)
		if err != nil {
			return err
		}
		if b.IsDefault {
			if p.CompanyID != actor.CompanyID {
				return storage.ErrNotFound
			}
			res = result.BadRequest[*types.Board]("the default board cannot be deleted")
			return errHandled
		}
		var boardRes result.Result[*BoardView]
		if err := e.authorizeBoardWrite(ctx, tx, actor, p, b, &boardRes); err != nil {
			if errors.Is(err, errHandled) {
				res = result.Result[*types.Board]{Kind: boardRes.Kind, Reason: boardRes.Reason, Err: boardRes.Err}
			}
			return err
		}
		now := e.now()
		b.Delete(actor.UserID, now)
		b.UpdatedAt = now
		if err := tx.UpdateBoard(ctx, b); err != nil {
			return err
		}
		deleted = b
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.Board]("board not found")
	case err != nil:
		return result.Failure[*types.Board](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     audit.ActionDeleted,
		EntityType: rbac.EntityBoard,
		EntityID:   deleted.ID,
		OldValue:   deleted.Name,
		ProjectID:  deleted.ProjectID,
	})
	return result.OK(deleted)
}

// authorizeBoardWrite enforces board write rules: the default board
// needs manage rights on the project; a personal board is writable by
// its owner, with manage rights overriding.
func (e *Engine) authorizeBoardWrite(ctx context.Context, tx storage.Tx, actor rbac.Actor, p *types.Project, b *types.Board, res *result.Result[*BoardView]) error {
	target, err := e.projectTarget(ctx, tx, actor, p, rbac.EntityBoard, b.OwnerID, "")
	if err != nil {
		return err
	}
	if !b.IsDefault && b.OwnerID == actor.UserID {
		// Owner edits their own board; tenancy still applies.
		if p.CompanyID != actor.CompanyID {
			return storage.ErrNotFound
		}
		return nil
	}
	if d := rbac.Authorize(actor, rbac.ActionManage, target); !d.Allow {
		*res = denied[*BoardView](d, "board")
		return errHandled
	}
	return nil
}
