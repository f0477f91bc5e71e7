package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/worktrack/worktrack/internal/types"
)

const itemCols = `id, project_id, item_number, title, description, type, priority, status_id, assigned_to, sprint_id, is_in_backlog, parent_id, created_by, created_at, updated_at, is_deleted, deleted_at, deleted_by`

func scanItem(row interface{ Scan(...any) error }) (*types.WorkItem, error) {
	var w types.WorkItem
	var typ string
	var inBacklog, isDeleted int
	var createdAt, updatedAt int64
	var deletedAt sql.NullInt64
	err := row.Scan(&w.ID, &w.ProjectID, &w.ItemNumber, &w.Title, &w.Description, &typ,
		&w.Priority, &w.StatusID, &w.AssignedTo, &w.SprintID, &inBacklog, &w.ParentID,
		&w.CreatedBy, &createdAt, &updatedAt, &isDeleted, &deletedAt, &w.DeletedBy)
	if err != nil {
		return nil, mapErr(err)
	}
	w.Type = types.WorkItemType(typ)
	w.IsInBacklog = inBacklog != 0
	w.IsDeleted = isDeleted != 0
	w.CreatedAt = fromMillis(createdAt)
	w.UpdatedAt = fromMillis(updatedAt)
	w.DeletedAt = fromNullMillis(deletedAt)
	return &w, nil
}

func (q *queries) CreateItem(ctx context.Context, w *types.WorkItem) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO work_items (`+itemCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.ProjectID, w.ItemNumber, w.Title, w.Description, string(w.Type),
		w.Priority, w.StatusID, w.AssignedTo, w.SprintID, boolToInt(w.IsInBacklog), w.ParentID,
		w.CreatedBy, toMillis(w.CreatedAt), toMillis(w.UpdatedAt),
		boolToInt(w.IsDeleted), toNullMillis(w.DeletedAt), w.DeletedBy)
	return mapErr(err)
}

func (q *queries) GetItem(ctx context.Context, id string) (*types.WorkItem, error) {
	return scanItem(q.db.QueryRowContext(ctx,
		`SELECT `+itemCols+` FROM work_items WHERE id = ?`, id))
}

func (q *queries) ListItems(ctx context.Context, filter types.WorkItemFilter) ([]*types.WorkItem, error) {
	where := []string{"is_deleted = 0"}
	var args []any
	add := func(clause string, arg any) {
		where = append(where, clause)
		args = append(args, arg)
	}
	if filter.ProjectID != "" {
		add("project_id = ?", filter.ProjectID)
	}
	if filter.StatusID != "" {
		add("status_id = ?", filter.StatusID)
	}
	if filter.SprintID != "" {
		add("sprint_id = ?", filter.SprintID)
	}
	if filter.Backlog != nil {
		add("is_in_backlog = ?", boolToInt(*filter.Backlog))
	}
	if filter.Type != nil {
		add("type = ?", string(*filter.Type))
	}
	if filter.Priority != nil {
		add("priority = ?", *filter.Priority)
	}
	if filter.AssignedTo != "" {
		add("assigned_to = ?", filter.AssignedTo)
	}
	if filter.CreatedBy != "" {
		add("created_by = ?", filter.CreatedBy)
	}
	if filter.ParentID != "" {
		add("parent_id = ?", filter.ParentID)
	}

	query := `SELECT ` + itemCols + ` FROM work_items WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY project_id, item_number`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []*types.WorkItem
	for rows.Next() {
		w, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, mapErr(rows.Err())
}

func (q *queries) UpdateItem(ctx context.Context, w *types.WorkItem) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE work_items SET title = ?, description = ?, type = ?, priority = ?, status_id = ?,
		 assigned_to = ?, sprint_id = ?, is_in_backlog = ?, parent_id = ?,
		 updated_at = ?, is_deleted = ?, deleted_at = ?, deleted_by = ? WHERE id = ?`,
		w.Title, w.Description, string(w.Type), w.Priority, w.StatusID,
		w.AssignedTo, w.SprintID, boolToInt(w.IsInBacklog), w.ParentID,
		toMillis(w.UpdatedAt), boolToInt(w.IsDeleted), toNullMillis(w.DeletedAt), w.DeletedBy, w.ID)
	if err != nil {
		return mapErr(err)
	}
	return requireRow(res)
}

// MaxItemNumber includes soft-deleted rows: numbers are never reused.
func (q *queries) MaxItemNumber(ctx context.Context, projectID string) (int, error) {
	var n sql.NullInt64
	err := q.db.QueryRowContext(ctx,
		`SELECT MAX(item_number) FROM work_items WHERE project_id = ?`, projectID).Scan(&n)
	if err != nil {
		return 0, mapErr(err)
	}
	return int(n.Int64), nil
}
