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

// RegisterCompanyInput creates a company together with its first user,
// who becomes the company's SuperAdmin.
type RegisterCompanyInput struct {
	Name       string
	AdminEmail string
	AdminName  string
}

// RegisterCompanyOutput is the result payload of RegisterCompany.
type RegisterCompanyOutput struct {
	Company *types.Company
	Admin   *types.User
}

// RegisterCompany bootstraps a new tenant. It needs no actor: this is
// the registration surface, and the created user is the tenant's first
// identity. Company names are unique across the system.
func (e *Engine) RegisterCompany(ctx context.Context, in RegisterCompanyInput) (res result.Result[*RegisterCompanyOutput]) {
	defer recoverTo(&res)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return result.BadRequest[*RegisterCompanyOutput]("company name is required")
	}
	if strings.TrimSpace(in.AdminEmail) == "" {
		return result.BadRequest[*RegisterCompanyOutput]("admin email is required")
	}

	now := e.now()
	company := &types.Company{
		ID:        e.newID(),
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	admin := &types.User{
		ID:        e.newID(),
		CompanyID: company.ID,
		Email:     strings.TrimSpace(in.AdminEmail),
		Name:      strings.TrimSpace(in.AdminName),
		Role:      types.RoleSuperAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := admin.Validate(); err != nil {
		return result.BadRequest[*RegisterCompanyOutput]("%v", err)
	}

	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.CreateCompany(ctx, company); err != nil {
			return err
		}
		return tx.CreateUser(ctx, admin)
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return result.BadRequest[*RegisterCompanyOutput]("company name %q is already taken", name)
		}
		return result.Failure[*RegisterCompanyOutput](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     admin.ID,
		Action:     audit.ActionCreated,
		EntityType: rbac.EntityCompany,
		EntityID:   company.ID,
		NewValue:   company.Name,
	})
	return result.Created(&RegisterCompanyOutput{Company: company, Admin: admin})
}

// GetCompany returns the actor's own company. Other companies report
// NotFound regardless of role.
func (e *Engine) GetCompany(ctx context.Context, actorID, companyID string) (res result.Result[*types.Company]) {
	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	c, err := e.store.GetCompany(ctx, companyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return result.NotFound[*types.Company]("company not found")
		}
		return result.Failure[*types.Company](err)
	}
	d := rbac.Authorize(actor, rbac.ActionView, rbac.Target{Entity: rbac.EntityCompany, CompanyID: c.ID})
	if !d.Allow {
		return denied[*types.Company](d, "company")
	}
	if c.IsDeleted {
		return result.NotFound[*types.Company]("company not found")
	}
	return result.OK(c)
}

// UpdateCompanyInput carries mutable company fields; nil means keep.
type UpdateCompanyInput struct {
	Name     *string
	IsActive *bool
}

// UpdateCompany renames or (de)activates the actor's company.
func (e *Engine) UpdateCompany(ctx context.Context, actorID, companyID string, in UpdateCompanyInput) (res result.Result[*types.Company]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	var updated *types.Company
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		c, err := tx.GetCompany(ctx, companyID)
		if err != nil {
			return err
		}
		d := rbac.Authorize(actor, rbac.ActionUpdate, rbac.Target{Entity: rbac.EntityCompany, CompanyID: c.ID})
		if !d.Allow {
			res = denied[*types.Company](d, "company")
			return errHandled
		}
		if c.IsDeleted {
			return storage.ErrNotFound
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				res = result.BadRequest[*types.Company]("company name is required")
				return errHandled
			}
			c.Name = name
		}
		if in.IsActive != nil {
			c.IsActive = *in.IsActive
		}
		c.UpdatedAt = e.now()
		if err := tx.UpdateCompany(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.Company]("company not found")
	case errors.Is(err, storage.ErrDuplicate):
		return result.BadRequest[*types.Company]("company name is already taken")
	case err != nil:
		return result.Failure[*types.Company](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     audit.ActionUpdated,
		EntityType: rbac.EntityCompany,
		EntityID:   updated.ID,
	})
	return result.OK(updated)
}

// DeleteCompany soft-deletes the actor's company. Only the superadmin
// may close a tenant. Contained records keep their rows; they become
// unreachable once the company reads NotFound.
func (e *Engine) DeleteCompany(ctx context.Context, actorID, companyID string) (res result.Result[*types.Company]) {
	defer recoverTo(&res)

	actor, ok := actorOr(e, ctx, actorID, &res)
	if !ok {
		return res
	}
	var deleted *types.Company
	err := e.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		c, err := tx.GetCompany(ctx, companyID)
		if err != nil {
			return err
		}
		d := rbac.Authorize(actor, rbac.ActionDelete, rbac.Target{Entity: rbac.EntityCompany, CompanyID: c.ID})
		if !d.Allow {
			res = denied[*types.Company](d, "company")
			return errHandled
		}
		if actor.Role != types.RoleSuperAdmin {
			res = result.Forbidden[*types.Company]("only the superadmin can delete the company")
			return errHandled
		}
		if c.IsDeleted {
			return storage.ErrNotFound
		}
		now := e.now()
		c.Delete(actor.UserID, now)
		c.UpdatedAt = now
		if err := tx.UpdateCompany(ctx, c); err != nil {
			return err
		}
		deleted = c
		return nil
	})
	switch {
	case errors.Is(err, errHandled):
		return res
	case errors.Is(err, storage.ErrNotFound):
		return result.NotFound[*types.Company]("company not found")
	case err != nil:
		return result.Failure[*types.Company](err)
	}

	e.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID,
		Action:     audit.ActionDeleted,
		EntityType: rbac.EntityCompany,
		EntityID:   deleted.ID,
		OldValue:   deleted.Name,
	})
	return result.OK(deleted)
}

// errHandled signals that res has already been populated inside a
// transaction closure; the transaction is rolled back and res returned.
var errHandled = errors.New("result already set")
