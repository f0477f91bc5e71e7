package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/worktrack/worktrack/internal/audit"
	"github.com/worktrack/worktrack/internal/rbac"
	"github.com/worktrack/worktrack/internal/result"
	"github.com/worktrack/worktrack/internal/storage"
	"github.com/worktrack/worktrack/internal/types"
)

// CreateTicketInput creates a file ticket.
type CreateTicketInput struct {
	ProjectID   string
	Title       string
	Description string
}

// CreateTicket creates a file ticket numbered FT-{year}-{seq}. The
// sequence restarts at 0001 each calendar year; numbers are never
// reused, deleted tickets included. The creator is the first holder.
func (e *Engine) CreateTicket(ctx context.Context, actorID string, in CreateTicketInput) (res result.Result[*types.FileTicket]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return result.BadRequest[*types.FileTicket]("title is required")
	}

	var created *types.FileTicket
	attempt := func() error {
		return e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
			p, err := getLiveProject(ctx, tx, in.ProjectID)
			if err != nil {
				return backoff.Permanent(err)
			}
			target, err := e.projectTarget(ctx, tx, actor, p, rbac.EntityFileTicket, "", "")
			if err != nil {
				return backoff.Permanent(err)
			}
			if d := rbac.Authorize(actor, rbac.ActionCreate, target); !d.Allow {
				res = denied[*types.FileTicket](d, "project")
				return backoff.Permanent(errHandled)
			}

			now := e.now()
			year := now.Year()
			seq, err := tx.MaxTicketSequence(ctx, year)
			if err != nil {
				return backoff.Permanent(err)
			}
			t := &types.FileTicket{
				ID:            e.newID(),
				ProjectID:     in.ProjectID,
				TicketNumber:  fmt.Sprintf("FT-%d-%04d", year, seq+1),
				Title:         title,
				Description:   in.Description,
				Status:        types.TicketCreated,
				CurrentHolder: actor.UserID,
				CreatedBy:     actor.UserID,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.CreateTicket(ctx, t); err != nil {
				if errors.Is(err, storage.ErrDuplicate) {
					return err // retryable: ticket number race lost
				}
				return backoff.Permanent(err)
			}
			created = t
			return nil
		})
	}
	err := backoff.Retry(attempt, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), numberRetries), ctx))
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.FileTicket]("project not found")
	case err != nil:
		return result.Failure[*types.FileTicket](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:       actor.UserID,
		Action:       audit.ActionCreated,
		EntityType:   rbac.EntityFileTicket,
		EntityID:     created.ID,
		NewValue:     created.TicketNumber,
		ProjectID:    created.ProjectID,
		FileTicketID: created.ID,
	})
	return result.Created(created)
}

// TransferTicket hands a ticket to another user in the same company.
// The transfer appends a custody ledger row, moves the holder, and
// sets the status to in_transit, all in one transaction. Only the
// current holder (or a manager-and-above) may transfer.
func (e *Engine) TransferTicket(ctx context.Context, actorID, ticketID, toUserID string) (res result.Result[*types.FileTicket]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	if toUserID == "" {
		return result.BadRequest[*types.FileTicket]("recipient is required")
	}

	var updated *types.FileTicket
	var fromUser string
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		t, err := tx.GetTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		if t.IsDeleted {
			return storage.ErrNotFound
		}
		p, err := getLiveProject(ctx, tx, t.ProjectID)
		if err != nil {
			return err
		}
		target, err := e.projectTarget(ctx, tx, actor, p, rbac.EntityFileTicket, t.CreatedBy, t.CurrentHolder)
		if err != nil {
			return err
		}
		if d := rbac.Authorize(actor, rbac.ActionUpdate, target); !d.Allow {
			res = denied[*types.FileTicket](d, "file ticket")
			return errHandled
		}
		if t.Status.IsTerminal() {
			res = result.BadRequest[*types.FileTicket]("ticket %s is %s and cannot be transferred", t.TicketNumber, t.Status)
			return errHandled
		}
		if toUserID == t.CurrentHolder {
			res = result.BadRequest[*types.FileTicket]("ticket is already held by that user")
			return errHandled
		}
		to, err := tx.GetUser(ctx, toUserID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if err != nil || to.IsDeleted || to.CompanyID != p.CompanyID {
			res = result.BadRequest[*types.FileTicket]("recipient %s does not exist", toUserID)
			return errHandled
		}

		now := e.now()
		fromUser = t.CurrentHolder
		if err := tx.AddTransfer(ctx, &types.FileTicketTransfer{
			FileTicketID:  t.ID,
			FromUserID:    t.CurrentHolder,
			ToUserID:      toUserID,
			TransferredAt: now,
		}); err != nil {
			return err
		}
		t.CurrentHolder = toUserID
		t.Status = types.TicketInTransit
		t.UpdatedAt = now
		if err := tx.UpdateTicket(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.FileTicket]("file ticket not found")
	case err != nil:
		return result.Failure[*types.FileTicket](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:       actor.UserID,
		Action:       audit.ActionTransferred,
		EntityType:   rbac.EntityFileTicket,
		EntityID:     updated.ID,
		OldValue:     fromUser,
		NewValue:     updated.CurrentHolder,
		ProjectID:    updated.ProjectID,
		FileTicketID: updated.ID,
	})
	return result.OK(updated)
}

// ReceiveTicket acknowledges custody. Only the current holder may
// receive. The matching open ledger row, when one exists, is stamped
// with the receipt time; the status moves to received either way, so a
// holder can regularize a ticket whose ledger row was already closed.
func (e *Engine) ReceiveTicket(ctx context.Context, actorID, ticketID string) (res result.Result[*types.FileTicket]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	var updated *types.FileTicket
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		t, err := tx.GetTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		if t.IsDeleted {
			return storage.ErrNotFound
		}
		p, err := getLiveProject(ctx, tx, t.ProjectID)
		if err != nil {
			return err
		}
		if p.CompanyID != actor.CompanyID {
			return storage.ErrNotFound
		}
		if t.CurrentHolder != actor.UserID {
			res = result.Forbidden[*types.FileTicket]("only the current holder can receive the ticket")
			return errHandled
		}
		if t.Status.IsTerminal() {
			res = result.BadRequest[*types.FileTicket]("ticket %s is %s and cannot be received", t.TicketNumber, t.Status)
			return errHandled
		}

		now := e.now()
		tr, err := tx.LatestOpenTransfer(ctx, t.ID, actor.UserID)
		if err == nil {
			if err := tx.MarkTransferReceived(ctx, tr.ID, now); err != nil {
				return err
			}
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		t.Status = types.TicketReceived
		t.UpdatedAt = now
		if err := tx.UpdateTicket(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.FileTicket]("file ticket not found")
	case err != nil:
		return result.Failure[*types.FileTicket](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:       actor.UserID,
		Action:       audit.ActionReceived,
		EntityType:   rbac.EntityFileTicket,
		EntityID:     updated.ID,
		NewValue:     string(updated.Status),
		ProjectID:    updated.ProjectID,
		FileTicketID: updated.ID,
	})
	return result.OK(updated)
}

// UpdateTicketStatus sets the ticket's processing status. The field is
// flat: any valid status is accepted, including lost from anywhere.
func (e *Engine) UpdateTicketStatus(ctx context.Context, actorID, ticketID string, status types.TicketStatus) (res result.Result[*types.FileTicket]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	if !status.IsValid() {
		return result.BadRequest[*types.FileTicket]("invalid ticket status: %s", status)
	}

	var updated *types.FileTicket
	var oldStatus types.TicketStatus
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		t, err := tx.GetTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		if t.IsDeleted {
			return storage.ErrNotFound
		}
		p, err := getLiveProject(ctx, tx, t.ProjectID)
		if err != nil {
			return err
		}
		target, err := e.projectTarget(ctx, tx, actor, p, rbac.EntityFileTicket, t.CreatedBy, t.CurrentHolder)
		if err != nil {
			return err
		}
		if d := rbac.Authorize(actor, rbac.ActionUpdate, target); !d.Allow {
			res = denied[*types.FileTicket](d, "file ticket")
			return errHandled
		}
		oldStatus = t.Status
		t.Status = status
		t.UpdatedAt = e.now()
		if err := tx.UpdateTicket(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.FileTicket]("file ticket not found")
	case err != nil:
		return result.Failure[*types.FileTicket](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:       actor.UserID,
		Action:       audit.ActionStatusChanged,
		EntityType:   rbac.EntityFileTicket,
		EntityID:     updated.ID,
		OldValue:     string(oldStatus),
		NewValue:     string(updated.Status),
		ProjectID:    updated.ProjectID,
		FileTicketID: updated.ID,
	})
	return result.OK(updated)
}

// MarkTicketLost flags a ticket as lost.
func (e *Engine) MarkTicketLost(ctx context.Context, actorID, ticketID string) (res result.Result[*types.FileTicket]) {
	return e.UpdateTicketStatus(ctx, actorID, ticketID, types.TicketLost)
}

// GetTicket returns a file ticket visible to the actor.
func (e *Engine) GetTicket(ctx context.Context, actorID, ticketID string) (res result.Result[*types.FileTicket]) {
	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	t, err := e.store.GetTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return result.NotFound[*types.FileTicket]("file ticket not found")
		}
		return result.Failure[*types.FileTicket](err)
	}
	p, err := e.store.GetProject(ctx, t.ProjectID)
	if err != nil {
		return result.Failure[*types.FileTicket](err)
	}
	target, err := e.projectTarget(ctx, e.store, actor, p, rbac.EntityFileTicket, t.CreatedBy, t.CurrentHolder)
	if err != nil {
		return result.Failure[*types.FileTicket](err)
	}
	if d := rbac.Authorize(actor, rbac.ActionView, target); !d.Allow {
		return denied[*types.FileTicket](d, "file ticket")
	}
	if t.IsDeleted || p.IsDeleted {
		return result.NotFound[*types.FileTicket]("file ticket not found")
	}
	return result.OK(t)
}

// TicketLedger returns the full custody ledger of a ticket, oldest
// transfer first.
func (e *Engine) TicketLedger(ctx context.Context, actorID, ticketID string) (res result.Result[[]*types.FileTicketTransfer]) {
	ticket := e.GetTicket(ctx, actorID, ticketID)
	if !ticket.IsSuccess() {
		return result.Result[[]*types.FileTicketTransfer]{Kind: ticket.Kind, Reason: ticket.Reason, Err: ticket.Err}
	}
	transfers, err := e.store.ListTransfers(ctx, ticketID)
	if err != nil {
		return result.Failure[[]*types.FileTicketTransfer](err)
	}
	return result.OK(transfers)
}

// ListTickets returns the tickets matching the filter that the actor
// can see. Member/QA actors see tickets they created or currently hold.
func (e *Engine) ListTickets(ctx context.Context, actorID string, filter types.TicketFilter) (res result.Result[[]*types.FileTicket]) {
	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	if filter.ProjectID == "" {
		return result.BadRequest[[]*types.FileTicket]("a project filter is required")
	}
	p, err := e.store.GetProject(ctx, filter.ProjectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return result.NotFound[[]*types.FileTicket]("project not found")
		}
		return result.Failure[[]*types.FileTicket](err)
	}
	target, err := e.projectTarget(ctx, e.store, actor, p, rbac.EntityProject, p.CreatedBy, "")
	if err != nil {
		return result.Failure[[]*types.FileTicket](err)
	}
	if d := rbac.Authorize(actor, rbac.ActionView, target); !d.Allow {
		return denied[[]*types.FileTicket](d, "project")
	}
	if p.IsDeleted {
		return result.NotFound[[]*types.FileTicket]("project not found")
	}
	tickets, err := e.store.ListTickets(ctx, filter)
	if err != nil {
		return result.Failure[[]*types.FileTicket](err)
	}
	if actor.Role.AtLeast(types.RoleManager) {
		return result.OK(tickets)
	}
	var visible []*types.FileTicket
	for _, t := range tickets {
		if t.CreatedBy == actor.UserID || t.CurrentHolder == actor.UserID {
			visible = append(visible, t)
		}
	}
	return result.OK(visible)
}
