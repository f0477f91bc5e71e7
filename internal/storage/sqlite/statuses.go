package sqlite

import (
	"context"
	"database/sql"

	"github.com/worktrack/worktrack/internal/types"
)

const statusCols = `id, project_id, name, description, color, ord, is_core, core_type, created_at, updated_at, is_deleted, deleted_at, deleted_by`

func scanStatus(row interface{ Scan(...any) error }) (*types.WorkflowStatus, error) {
	var s types.WorkflowStatus
	var isCore, isDeleted int
	var coreType string
	var createdAt, updatedAt int64
	var deletedAt sql.NullInt64
	err := row.Scan(&s.ID, &s.ProjectID, &s.Name, &s.Description, &s.Color, &s.Order,
		&isCore, &coreType, &createdAt, &updatedAt, &isDeleted, &deletedAt, &s.DeletedBy)
	if err != nil {
		return nil, mapErr(err)
	}
	s.IsCore = isCore != 0
	s.CoreType = types.CoreStatusType(coreType)
	s.IsDeleted = isDeleted != 0
	s.CreatedAt = fromMillis(createdAt)
	s.UpdatedAt = fromMillis(updatedAt)
	s.DeletedAt = fromNullMillis(deletedAt)
	return &s, nil
}

func (q *queries) CreateStatus(ctx context.Context, s *types.WorkflowStatus) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO workflow_statuses (`+statusCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.ProjectID, s.Name, s.Description, s.Color, s.Order,
		boolToInt(s.IsCore), string(s.CoreType), toMillis(s.CreatedAt), toMillis(s.UpdatedAt),
		boolToInt(s.IsDeleted), toNullMillis(s.DeletedAt), s.DeletedBy)
	return mapErr(err)
}

func (q *queries) GetStatus(ctx context.Context, id string) (*types.WorkflowStatus, error) {
	return scanStatus(q.db.QueryRowContext(ctx,
		`SELECT `+statusCols+` FROM workflow_statuses WHERE id = ?`, id))
}

func (q *queries) GetStatusByName(ctx context.Context, projectID, name string) (*types.WorkflowStatus, error) {
	return scanStatus(q.db.QueryRowContext(ctx,
		`SELECT `+statusCols+` FROM workflow_statuses WHERE project_id = ? AND name = ? AND is_deleted = 0`,
		projectID, name))
}

func (q *queries) ListStatuses(ctx context.Context, projectID string) ([]*types.WorkflowStatus, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+statusCols+` FROM workflow_statuses WHERE project_id = ? AND is_deleted = 0 ORDER BY ord, id`,
		projectID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []*types.WorkflowStatus
	for rows.Next() {
		s, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, mapErr(rows.Err())
}

func (q *queries) UpdateStatus(ctx context.Context, s *types.WorkflowStatus) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE workflow_statuses SET name = ?, description = ?, color = ?, ord = ?,
		 updated_at = ?, is_deleted = ?, deleted_at = ?, deleted_by = ? WHERE id = ?`,
		s.Name, s.Description, s.Color, s.Order,
		toMillis(s.UpdatedAt), boolToInt(s.IsDeleted), toNullMillis(s.DeletedAt), s.DeletedBy, s.ID)
	if err != nil {
		return mapErr(err)
	}
	return requireRow(res)
}

func (q *queries) CountItemsWithStatus(ctx context.Context, statusID string) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM work_items WHERE status_id = ? AND is_deleted = 0`, statusID).Scan(&n)
	if err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}
