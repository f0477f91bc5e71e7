package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/worktrack/worktrack/internal/types"
)

const ticketCols = `id, project_id, ticket_number, title, description, status, current_holder, created_by, created_at, updated_at, is_deleted, deleted_at, deleted_by`

func scanTicket(row interface{ Scan(...any) error }) (*types.FileTicket, error) {
	var t types.FileTicket
	var status string
	var isDeleted int
	var createdAt, updatedAt int64
	var deletedAt sql.NullInt64
	err := row.Scan(&t.ID, &t.ProjectID, &t.TicketNumber, &t.Title, &t.Description, &status,
		&t.CurrentHolder, &t.CreatedBy, &createdAt, &updatedAt, &isDeleted, &deletedAt, &t.DeletedBy)
	if err != nil {
		return nil, mapErr(err)
	}
	t.Status = types.TicketStatus(status)
	t.IsDeleted = isDeleted != 0
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	t.DeletedAt = fromNullMillis(deletedAt)
	return &t, nil
}

func (q *queries) CreateTicket(ctx context.Context, t *types.FileTicket) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO file_tickets (`+ticketCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.TicketNumber, t.Title, t.Description, string(t.Status),
		t.CurrentHolder, t.CreatedBy, toMillis(t.CreatedAt), toMillis(t.UpdatedAt),
		boolToInt(t.IsDeleted), toNullMillis(t.DeletedAt), t.DeletedBy)
	return mapErr(err)
}

func (q *queries) GetTicket(ctx context.Context, id string) (*types.FileTicket, error) {
	return scanTicket(q.db.QueryRowContext(ctx,
		`SELECT `+ticketCols+` FROM file_tickets WHERE id = ?`, id))
}

func (q *queries) ListTickets(ctx context.Context, filter types.TicketFilter) ([]*types.FileTicket, error) {
	where := []string{"is_deleted = 0"}
	var args []any
	if filter.ProjectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Holder != "" {
		where = append(where, "current_holder = ?")
		args = append(args, filter.Holder)
	}
	if filter.Year != 0 {
		where = append(where, "ticket_number LIKE ?")
		args = append(args, fmt.Sprintf("FT-%d-%%", filter.Year))
	}

	query := `SELECT ` + ticketCols + ` FROM file_tickets WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []*types.FileTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, mapErr(rows.Err())
}

func (q *queries) UpdateTicket(ctx context.Context, t *types.FileTicket) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE file_tickets SET title = ?, description = ?, status = ?, current_holder = ?,
		 updated_at = ?, is_deleted = ?, deleted_at = ?, deleted_by = ? WHERE id = ?`,
		t.Title, t.Description, string(t.Status), t.CurrentHolder,
		toMillis(t.UpdatedAt), boolToInt(t.IsDeleted), toNullMillis(t.DeletedAt), t.DeletedBy, t.ID)
	if err != nil {
		return mapErr(err)
	}
	return requireRow(res)
}

// MaxTicketSequence extracts the highest sequence among tickets
// numbered for the given year. Deleted tickets keep their numbers.
func (q *queries) MaxTicketSequence(ctx context.Context, year int) (int, error) {
	prefix := fmt.Sprintf("FT-%d-", year)
	var n sql.NullInt64
	err := q.db.QueryRowContext(ctx,
		`SELECT MAX(CAST(substr(ticket_number, ?) AS INTEGER)) FROM file_tickets WHERE ticket_number LIKE ?`,
		len(prefix)+1, prefix+"%").Scan(&n)
	if err != nil {
		return 0, mapErr(err)
	}
	return int(n.Int64), nil
}

// --- Custody ledger ---

func scanTransfer(row interface{ Scan(...any) error }) (*types.FileTicketTransfer, error) {
	var tr types.FileTicketTransfer
	var transferredAt int64
	var receivedAt sql.NullInt64
	err := row.Scan(&tr.ID, &tr.FileTicketID, &tr.FromUserID, &tr.ToUserID, &transferredAt, &receivedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	tr.TransferredAt = fromMillis(transferredAt)
	tr.ReceivedAt = fromNullMillis(receivedAt)
	return &tr, nil
}

func (q *queries) AddTransfer(ctx context.Context, tr *types.FileTicketTransfer) error {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO file_ticket_transfers (file_ticket_id, from_user_id, to_user_id, transferred_at, received_at)
		 VALUES (?, ?, ?, ?, ?)`,
		tr.FileTicketID, tr.FromUserID, tr.ToUserID, toMillis(tr.TransferredAt), toNullMillis(tr.ReceivedAt))
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tr.ID = id
	return nil
}

func (q *queries) ListTransfers(ctx context.Context, ticketID string) ([]*types.FileTicketTransfer, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, file_ticket_id, from_user_id, to_user_id, transferred_at, received_at
		 FROM file_ticket_transfers WHERE file_ticket_id = ? ORDER BY id`, ticketID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []*types.FileTicketTransfer
	for rows.Next() {
		tr, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, mapErr(rows.Err())
}

func (q *queries) LatestOpenTransfer(ctx context.Context, ticketID, toUserID string) (*types.FileTicketTransfer, error) {
	return scanTransfer(q.db.QueryRowContext(ctx,
		`SELECT id, file_ticket_id, from_user_id, to_user_id, transferred_at, received_at
		 FROM file_ticket_transfers
		 WHERE file_ticket_id = ? AND to_user_id = ? AND received_at IS NULL
		 ORDER BY id DESC LIMIT 1`, ticketID, toUserID))
}

func (q *queries) MarkTransferReceived(ctx context.Context, transferID int64, at time.Time) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE file_ticket_transfers SET received_at = ? WHERE id = ?`, toMillis(at), transferID)
	if err != nil {
		return mapErr(err)
	}
	return requireRow(res)
}
