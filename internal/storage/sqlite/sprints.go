package sqlite

import (
	"context"
	"database/sql"

	"github.com/worktrack/worktrack/internal/types"
)

const sprintCols = `id, project_id, name, goal, status, start_date, end_date, created_at, updated_at, is_deleted, deleted_at, deleted_by`

func scanSprint(row interface{ Scan(...any) error }) (*types.Sprint, error) {
	var s types.Sprint
	var status string
	var isDeleted int
	var startDate, endDate, createdAt, updatedAt int64
	var deletedAt sql.NullInt64
	err := row.Scan(&s.ID, &s.ProjectID, &s.Name, &s.Goal, &status,
		&startDate, &endDate, &createdAt, &updatedAt, &isDeleted, &deletedAt, &s.DeletedBy)
	if err != nil {
		return nil, mapErr(err)
	}
	s.Status = types.SprintStatus(status)
	s.StartDate = fromMillis(startDate)
	s.EndDate = fromMillis(endDate)
	s.CreatedAt = fromMillis(createdAt)
	s.UpdatedAt = fromMillis(updatedAt)
	s.IsDeleted = isDeleted != 0
	s.DeletedAt = fromNullMillis(deletedAt)
	return &s, nil
}

func (q *queries) CreateSprint(ctx context.Context, s *types.Sprint) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO sprints (`+sprintCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.ProjectID, s.Name, s.Goal, string(s.Status),
		toMillis(s.StartDate), toMillis(s.EndDate), toMillis(s.CreatedAt), toMillis(s.UpdatedAt),
		boolToInt(s.IsDeleted), toNullMillis(s.DeletedAt), s.DeletedBy)
	return mapErr(err)
}

func (q *queries) GetSprint(ctx context.Context, id string) (*types.Sprint, error) {
	return scanSprint(q.db.QueryRowContext(ctx,
		`SELECT `+sprintCols+` FROM sprints WHERE id = ?`, id))
}

func (q *queries) ListSprints(ctx context.Context, projectID string) ([]*types.Sprint, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+sprintCols+` FROM sprints WHERE project_id = ? AND is_deleted = 0 ORDER BY created_at, id`,
		projectID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []*types.Sprint
	for rows.Next() {
		s, err := scanSprint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, mapErr(rows.Err())
}

func (q *queries) UpdateSprint(ctx context.Context, s *types.Sprint) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE sprints SET name = ?, goal = ?, status = ?, start_date = ?, end_date = ?,
		 updated_at = ?, is_deleted = ?, deleted_at = ?, deleted_by = ? WHERE id = ?`,
		s.Name, s.Goal, string(s.Status), toMillis(s.StartDate), toMillis(s.EndDate),
		toMillis(s.UpdatedAt), boolToInt(s.IsDeleted), toNullMillis(s.DeletedAt), s.DeletedBy, s.ID)
	if err != nil {
		return mapErr(err)
	}
	return requireRow(res)
}
