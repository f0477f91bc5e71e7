// Package service implements the worktrack engine: every public
// operation authorizes the actor, validates the state transition inside
// one storage transaction, applies the mutation, and emits an audit
// entry. Results are returned as typed outcomes, never raw errors.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/worktrack/worktrack/internal/audit"
	"github.com/worktrack/worktrack/internal/rbac"
	"github.com/worktrack/worktrack/internal/result"
	"github.com/worktrack/worktrack/internal/storage"
	"github.com/worktrack/worktrack/internal/types"
)

// Engine is the work-tracking core. All fields are set at construction
// and never mutated, so an Engine is safe for concurrent use.
type Engine struct {
	store storage.Store
	audit audit.Sink
	clock func() time.Time
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source (tests use fixed clocks).
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithIDGenerator overrides entity id generation.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithAuditSink overrides the audit sink.
func WithAuditSink(sink audit.Sink) Option {
	return func(e *Engine) { e.audit = sink }
}

// New creates an Engine over the given store. By default audit entries
// are appended to the same store.
func New(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		clock: time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.audit == nil {
		e.audit = audit.NewStoreSink(store, e.clock)
	}
	return e
}

// now returns the current engine time in UTC.
func (e *Engine) now() time.Time {
	return e.clock().UTC()
}

// recoverTo converts a panic escaping an operation into a Failure
// result, so no raw panic reaches the transport layer.
func recoverTo[T any](res *result.Result[T]) {
	if r := recover(); r != nil {
		*res = result.Failure[T](fmt.Errorf("panic: %v", r))
	}
}

// resolveActor loads the acting user and builds the rbac actor.
func (e *Engine) resolveActor(ctx context.Context, actorID string) (rbac.Actor, error) {
	if actorID == "" {
		return rbac.Actor{}, errActorMissing
	}
	u, err := e.store.GetUser(ctx, actorID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return rbac.Actor{}, errActorMissing
		}
		return rbac.Actor{}, err
	}
	if u.IsDeleted || u.CompanyID == "" {
		return rbac.Actor{}, errActorMissing
	}
	return rbac.Actor{
		UserID:    u.ID,
		CompanyID: u.CompanyID,
		Role:      u.Role,
		ManagerID: u.ManagerID,
	}, nil
}

var errActorMissing = errors.New("actor cannot be resolved")

// actorOr resolves the actor or fills res with the appropriate
// Unauthorized/Failure outcome. The bool reports success.
func actorOr[T any](e *Engine, ctx context.Context, actorID string, res *result.Result[T]) (rbac.Actor, bool) {
	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		if errors.Is(err, errActorMissing) {
			*res = result.Unauthorized[T]("actor cannot be resolved")
		} else {
			*res = result.Failure[T](err)
		}
		return rbac.Actor{}, false
	}
	return actor, true
}

// denied maps an rbac denial onto a result. Hidden denials surface as
// NotFound so cross-tenant existence does not leak.
func denied[T any](d rbac.Decision, entity string) result.Result[T] {
	if d.Hidden {
		return result.NotFound[T]("%s not found", entity)
	}
	return result.Forbidden[T]("%s", d.Reason)
}

// projectTarget assembles the rbac target for a project-scoped entity,
// resolving the actor's membership and the one-hop subordinate
// visibility used by the manager-inheritance rule. Callers inside a
// transaction pass their tx so authorization reads the same snapshot;
// read paths pass the store itself.
func (e *Engine) projectTarget(ctx context.Context, tx storage.Tx, actor rbac.Actor, project *types.Project, entity, createdBy, assignedTo string) (rbac.Target, error) {
	target := rbac.Target{
		Entity:     entity,
		CompanyID:  project.CompanyID,
		ProjectID:  project.ID,
		CreatedBy:  createdBy,
		AssignedTo: assignedTo,
	}
	member, err := tx.GetMember(ctx, project.ID, actor.UserID)
	if err == nil {
		role := member.Role
		target.Membership = &role
	} else if !errors.Is(err, storage.ErrNotFound) {
		return target, err
	}

	// One hop only: the target is visible to the actor when its creator
	// or assignee reports directly to the actor.
	for _, id := range []string{createdBy, assignedTo} {
		if id == "" || id == actor.UserID {
			continue
		}
		u, err := tx.GetUser(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return target, err
		}
		if u.ManagerID == actor.UserID {
			target.SubordinateVisible = true
			break
		}
	}
	return target, nil
}

// getLiveProject fetches a project, treating soft-deleted as absent.
func getLiveProject(ctx context.Context, tx storage.Tx, id string) (*types.Project, error) {
	p, err := tx.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsDeleted {
		return nil, storage.ErrNotFound
	}
	return p, nil
}
