package sqlite

import (
	"context"
	"strings"

	"github.com/worktrack/worktrack/internal/types"
)

func (q *queries) AppendActivity(ctx context.Context, entry *types.ActivityLog) error {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO activity_log (user_id, action, entity_type, entity_id, old_value, new_value,
		 description, project_id, work_item_id, file_ticket_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.UserID, entry.Action, entry.EntityType, entry.EntityID, entry.OldValue, entry.NewValue,
		entry.Description, entry.ProjectID, entry.WorkItemID, entry.FileTicketID, toMillis(entry.CreatedAt))
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = id
	return nil
}

func (q *queries) ListActivity(ctx context.Context, filter types.ActivityFilter) ([]*types.ActivityLog, error) {
	where := []string{"1 = 1"}
	var args []any
	if filter.ProjectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.WorkItemID != "" {
		where = append(where, "work_item_id = ?")
		args = append(args, filter.WorkItemID)
	}
	if filter.FileTicketID != "" {
		where = append(where, "file_ticket_id = ?")
		args = append(args, filter.FileTicketID)
	}
	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}

	query := `SELECT id, user_id, action, entity_type, entity_id, old_value, new_value,
		 description, project_id, work_item_id, file_ticket_id, created_at
		 FROM activity_log WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []*types.ActivityLog
	for rows.Next() {
		var e types.ActivityLog
		var createdAt int64
		err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.EntityType, &e.EntityID,
			&e.OldValue, &e.NewValue, &e.Description, &e.ProjectID, &e.WorkItemID,
			&e.FileTicketID, &createdAt)
		if err != nil {
			return nil, mapErr(err)
		}
		e.CreatedAt = fromMillis(createdAt)
		out = append(out, &e)
	}
	return out, mapErr(rows.Err())
}
