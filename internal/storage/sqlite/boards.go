package sqlite

import (
	"context"
	"database/sql"

	"github.com/worktrack/worktrack/internal/types"
)

const boardCols = `id, project_id, name, is_default, owner_id, created_at, updated_at, is_deleted, deleted_at, deleted_by`

func scanBoard(row interface{ Scan(...any) error }) (*types.Board, error) {
	var b types.Board
	var isDefault, isDeleted int
	var createdAt, updatedAt int64
	var deletedAt sql.NullInt64
	err := row.Scan(&b.ID, &b.ProjectID, &b.Name, &isDefault, &b.OwnerID,
		&createdAt, &updatedAt, &isDeleted, &deletedAt, &b.DeletedBy)
	if err != nil {
		return nil, mapErr(err)
	}
	b.IsDefault = isDefault != 0
	b.IsDeleted = isDeleted != 0
	b.CreatedAt = fromMillis(createdAt)
	b.UpdatedAt = fromMillis(updatedAt)
	b.DeletedAt = fromNullMillis(deletedAt)
	return &b, nil
}

func (q *queries) CreateBoard(ctx context.Context, b *types.Board) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO boards (`+boardCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.ProjectID, b.Name, boolToInt(b.IsDefault), b.OwnerID,
		toMillis(b.CreatedAt), toMillis(b.UpdatedAt),
		boolToInt(b.IsDeleted), toNullMillis(b.DeletedAt), b.DeletedBy)
	return mapErr(err)
}

func (q *queries) GetBoard(ctx context.Context, id string) (*types.Board, error) {
	return scanBoard(q.db.QueryRowContext(ctx,
		`SELECT `+boardCols+` FROM boards WHERE id = ?`, id))
}

func (q *queries) GetDefaultBoard(ctx context.Context, projectID string) (*types.Board, error) {
	return scanBoard(q.db.QueryRowContext(ctx,
		`SELECT `+boardCols+` FROM boards WHERE project_id = ? AND is_default = 1 AND is_deleted = 0`,
		projectID))
}

func (q *queries) ListBoards(ctx context.Context, projectID string) ([]*types.Board, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+boardCols+` FROM boards WHERE project_id = ? AND is_deleted = 0 ORDER BY created_at, id`,
		projectID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []*types.Board
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, mapErr(rows.Err())
}

func (q *queries) UpdateBoard(ctx context.Context, b *types.Board) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE boards SET name = ?, updated_at = ?, is_deleted = ?, deleted_at = ?, deleted_by = ? WHERE id = ?`,
		b.Name, toMillis(b.UpdatedAt), boolToInt(b.IsDeleted), toNullMillis(b.DeletedAt), b.DeletedBy, b.ID)
	if err != nil {
		return mapErr(err)
	}
	return requireRow(res)
}

// SetBoardColumns replaces the board's column set wholesale.
func (q *queries) SetBoardColumns(ctx context.Context, boardID string, cols []*types.BoardColumn) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM board_columns WHERE board_id = ?`, boardID); err != nil {
		return mapErr(err)
	}
	for _, c := range cols {
		_, err := q.db.ExecContext(ctx,
			`INSERT INTO board_columns (id, board_id, status_id, ord) VALUES (?, ?, ?, ?)`,
			c.ID, boardID, c.StatusID, c.Order)
		if err != nil {
			return mapErr(err)
		}
	}
	return nil
}

func (q *queries) ListBoardColumns(ctx context.Context, boardID string) ([]*types.BoardColumn, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, board_id, status_id, ord FROM board_columns WHERE board_id = ? ORDER BY ord, id`,
		boardID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []*types.BoardColumn
	for rows.Next() {
		var c types.BoardColumn
		if err := rows.Scan(&c.ID, &c.BoardID, &c.StatusID, &c.Order); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, &c)
	}
	return out, mapErr(rows.Err())
}
