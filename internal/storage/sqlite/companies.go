package sqlite

import (
	"context"
	"database/sql"

	"github.com/worktrack/worktrack/internal/types"
)

const companyCols = `id, name, is_active, created_at, updated_at, is_deleted, deleted_at, deleted_by`

func scanCompany(row interface{ Scan(...any) error }) (*types.Company, error) {
	var c types.Company
	var isActive, isDeleted int
	var createdAt, updatedAt int64
	var deletedAt sql.NullInt64
	err := row.Scan(&c.ID, &c.Name, &isActive, &createdAt, &updatedAt, &isDeleted, &deletedAt, &c.DeletedBy)
	if err != nil {
		return nil, mapErr(err)
	}
	c.IsActive = isActive != 0
	c.IsDeleted = isDeleted != 0
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	c.DeletedAt = fromNullMillis(deletedAt)
	return &c, nil
}

func (q *queries) CreateCompany(ctx context.Context, c *types.Company) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO companies (`+companyCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, boolToInt(c.IsActive), toMillis(c.CreatedAt), toMillis(c.UpdatedAt),
		boolToInt(c.IsDeleted), toNullMillis(c.DeletedAt), c.DeletedBy)
	return mapErr(err)
}

func (q *queries) GetCompany(ctx context.Context, id string) (*types.Company, error) {
	return scanCompany(q.db.QueryRowContext(ctx,
		`SELECT `+companyCols+` FROM companies WHERE id = ?`, id))
}

func (q *queries) GetCompanyByName(ctx context.Context, name string) (*types.Company, error) {
	return scanCompany(q.db.QueryRowContext(ctx,
		`SELECT `+companyCols+` FROM companies WHERE name = ? AND is_deleted = 0`, name))
}

func (q *queries) ListCompanies(ctx context.Context) ([]*types.Company, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+companyCols+` FROM companies WHERE is_deleted = 0 ORDER BY created_at, id`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []*types.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, mapErr(rows.Err())
}

func (q *queries) UpdateCompany(ctx context.Context, c *types.Company) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE companies SET name = ?, is_active = ?, updated_at = ?, is_deleted = ?, deleted_at = ?, deleted_by = ?
		 WHERE id = ?`,
		c.Name, boolToInt(c.IsActive), toMillis(c.UpdatedAt),
		boolToInt(c.IsDeleted), toNullMillis(c.DeletedAt), c.DeletedBy, c.ID)
	if err != nil {
		return mapErr(err)
	}
	return requireRow(res)
}
