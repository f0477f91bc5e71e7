package sqlite

import (
	"context"
	"database/sql"

	"github.com/worktrack/worktrack/internal/types"
)

const projectCols = `id, company_id, key, name, description, is_active, created_by, created_at, updated_at, is_deleted, deleted_at, deleted_by`

func scanProject(row interface{ Scan(...any) error }) (*types.Project, error) {
	var p types.Project
	var isActive, isDeleted int
	var createdAt, updatedAt int64
	var deletedAt sql.NullInt64
	err := row.Scan(&p.ID, &p.CompanyID, &p.Key, &p.Name, &p.Description, &isActive,
		&p.CreatedBy, &createdAt, &updatedAt, &isDeleted, &deletedAt, &p.DeletedBy)
	if err != nil {
		return nil, mapErr(err)
	}
	p.IsActive = isActive != 0
	p.IsDeleted = isDeleted != 0
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	p.DeletedAt = fromNullMillis(deletedAt)
	return &p, nil
}

func (q *queries) CreateProject(ctx context.Context, p *types.Project) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO projects (`+projectCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CompanyID, p.Key, p.Name, p.Description, boolToInt(p.IsActive), p.CreatedBy,
		toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
		boolToInt(p.IsDeleted), toNullMillis(p.DeletedAt), p.DeletedBy)
	return mapErr(err)
}

func (q *queries) GetProject(ctx context.Context, id string) (*types.Project, error) {
	return scanProject(q.db.QueryRowContext(ctx,
		`SELECT `+projectCols+` FROM projects WHERE id = ?`, id))
}

func (q *queries) GetProjectByKey(ctx context.Context, companyID, key string) (*types.Project, error) {
	return scanProject(q.db.QueryRowContext(ctx,
		`SELECT `+projectCols+` FROM projects WHERE company_id = ? AND key = ? AND is_deleted = 0`,
		companyID, key))
}

func (q *queries) ListProjects(ctx context.Context, companyID string) ([]*types.Project, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+projectCols+` FROM projects WHERE company_id = ? AND is_deleted = 0 ORDER BY created_at, id`,
		companyID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []*types.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, mapErr(rows.Err())
}

func (q *queries) UpdateProject(ctx context.Context, p *types.Project) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE projects SET key = ?, name = ?, description = ?, is_active = ?,
		 updated_at = ?, is_deleted = ?, deleted_at = ?, deleted_by = ? WHERE id = ?`,
		p.Key, p.Name, p.Description, boolToInt(p.IsActive),
		toMillis(p.UpdatedAt), boolToInt(p.IsDeleted), toNullMillis(p.DeletedAt), p.DeletedBy, p.ID)
	if err != nil {
		return mapErr(err)
	}
	return requireRow(res)
}

// --- Project members ---

func scanMember(row interface{ Scan(...any) error }) (*types.Membership, error) {
	var m types.Membership
	var role string
	var createdAt int64
	if err := row.Scan(&m.ProjectID, &m.UserID, &role, &createdAt); err != nil {
		return nil, mapErr(err)
	}
	m.Role = types.ProjectRole(role)
	m.CreatedAt = fromMillis(createdAt)
	return &m, nil
}

func (q *queries) AddMember(ctx context.Context, m *types.Membership) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO project_members (project_id, user_id, role, created_at) VALUES (?, ?, ?, ?)`,
		m.ProjectID, m.UserID, string(m.Role), toMillis(m.CreatedAt))
	return mapErr(err)
}

func (q *queries) GetMember(ctx context.Context, projectID, userID string) (*types.Membership, error) {
	return scanMember(q.db.QueryRowContext(ctx,
		`SELECT project_id, user_id, role, created_at FROM project_members WHERE project_id = ? AND user_id = ?`,
		projectID, userID))
}

func (q *queries) listMembers(ctx context.Context, where string, args ...any) ([]*types.Membership, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT project_id, user_id, role, created_at FROM project_members WHERE `+where+` ORDER BY created_at`,
		args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []*types.Membership
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, mapErr(rows.Err())
}

func (q *queries) ListMembers(ctx context.Context, projectID string) ([]*types.Membership, error) {
	return q.listMembers(ctx, `project_id = ?`, projectID)
}

func (q *queries) ListMemberships(ctx context.Context, userID string) ([]*types.Membership, error) {
	return q.listMembers(ctx, `user_id = ?`, userID)
}

func (q *queries) UpdateMember(ctx context.Context, m *types.Membership) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE project_members SET role = ? WHERE project_id = ? AND user_id = ?`,
		string(m.Role), m.ProjectID, m.UserID)
	if err != nil {
		return mapErr(err)
	}
	return requireRow(res)
}

func (q *queries) RemoveMember(ctx context.Context, projectID, userID string) error {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, userID)
	if err != nil {
		return mapErr(err)
	}
	return requireRow(res)
}
