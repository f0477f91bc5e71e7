package sqlite

import (
	"context"
	"database/sql"

	"github.com/worktrack/worktrack/internal/types"
)

const userCols = `id, company_id, email, name, role, manager_id, created_at, updated_at, is_deleted, deleted_at, deleted_by`

func scanUser(row interface{ Scan(...any) error }) (*types.User, error) {
	var u types.User
	var role string
	var isDeleted int
	var createdAt, updatedAt int64
	var deletedAt sql.NullInt64
	err := row.Scan(&u.ID, &u.CompanyID, &u.Email, &u.Name, &role, &u.ManagerID,
		&createdAt, &updatedAt, &isDeleted, &deletedAt, &u.DeletedBy)
	if err != nil {
		return nil, mapErr(err)
	}
	u.Role = types.SystemRole(role)
	u.IsDeleted = isDeleted != 0
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	u.DeletedAt = fromNullMillis(deletedAt)
	return &u, nil
}

func (q *queries) CreateUser(ctx context.Context, u *types.User) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO users (`+userCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.CompanyID, u.Email, u.Name, string(u.Role), u.ManagerID,
		toMillis(u.CreatedAt), toMillis(u.UpdatedAt),
		boolToInt(u.IsDeleted), toNullMillis(u.DeletedAt), u.DeletedBy)
	return mapErr(err)
}

func (q *queries) GetUser(ctx context.Context, id string) (*types.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE id = ?`, id))
}

func (q *queries) GetUserByEmail(ctx context.Context, companyID, email string) (*types.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE company_id = ? AND email = ? AND is_deleted = 0`,
		companyID, email))
}

func (q *queries) listUsers(ctx context.Context, where string, args ...any) ([]*types.User, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+userCols+` FROM users WHERE `+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []*types.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, mapErr(rows.Err())
}

func (q *queries) ListUsers(ctx context.Context, companyID string) ([]*types.User, error) {
	return q.listUsers(ctx, `company_id = ? AND is_deleted = 0`, companyID)
}

func (q *queries) ListDirectReports(ctx context.Context, managerID string) ([]*types.User, error) {
	return q.listUsers(ctx, `manager_id = ? AND is_deleted = 0`, managerID)
}

func (q *queries) UpdateUser(ctx context.Context, u *types.User) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE users SET company_id = ?, email = ?, name = ?, role = ?, manager_id = ?,
		 updated_at = ?, is_deleted = ?, deleted_at = ?, deleted_by = ? WHERE id = ?`,
		u.CompanyID, u.Email, u.Name, string(u.Role), u.ManagerID,
		toMillis(u.UpdatedAt), boolToInt(u.IsDeleted), toNullMillis(u.DeletedAt), u.DeletedBy, u.ID)
	if err != nil {
		return mapErr(err)
	}
	return requireRow(res)
}
