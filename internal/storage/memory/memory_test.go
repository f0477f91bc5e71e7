package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/worktrack/worktrack/internal/storage"
	"github.com/worktrack/worktrack/internal/types"
)

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.CreateCompany(ctx, &types.Company{ID: "c1", Name: "Acme", CreatedAt: base}))

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.CreateUser(ctx, &types.User{ID: "u1", CompanyID: "c1", Email: "a@x", CreatedAt: base}); err != nil {
			return err
		}
		c, err := tx.GetCompany(ctx, "c1")
		if err != nil {
			return err
		}
		c.Name = "Renamed"
		if err := tx.UpdateCompany(ctx, c); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Nothing from the failed transaction is visible.
	if _, err := s.GetUser(ctx, "u1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetUser after rollback: %v", err)
	}
	c, err := s.GetCompany(ctx, "c1")
	require.NoError(t, err)
	if c.Name != "Acme" {
		t.Errorf("company name = %q, want Acme", c.Name)
	}

	// A successful transaction lands atomically.
	err = s.RunInTransaction(ctx, func(tx storage.Tx) error {
		return tx.CreateUser(ctx, &types.User{ID: "u1", CompanyID: "c1", Email: "a@x", CreatedAt: base})
	})
	require.NoError(t, err)
	if _, err := s.GetUser(ctx, "u1"); err != nil {
		t.Errorf("GetUser after commit: %v", err)
	}
}

func TestCaseInsensitiveUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.CreateCompany(ctx, &types.Company{ID: "c1", Name: "Acme", CreatedAt: base}))
	if err := s.CreateCompany(ctx, &types.Company{ID: "c2", Name: "ACME"}); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate company name: %v", err)
	}

	require.NoError(t, s.CreateUser(ctx, &types.User{ID: "u1", CompanyID: "c1", Email: "Jo@acme.test", CreatedAt: base}))
	if err := s.CreateUser(ctx, &types.User{ID: "u2", CompanyID: "c1", Email: "jo@ACME.test"}); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate email: %v", err)
	}
	// Uniqueness is scoped to the company.
	require.NoError(t, s.CreateCompany(ctx, &types.Company{ID: "c3", Name: "Other", CreatedAt: base}))
	require.NoError(t, s.CreateUser(ctx, &types.User{ID: "u3", CompanyID: "c3", Email: "jo@acme.test", CreatedAt: base}))

	require.NoError(t, s.CreateStatus(ctx, &types.WorkflowStatus{ID: "s1", ProjectID: "p1", Name: "Blocked"}))
	if err := s.CreateStatus(ctx, &types.WorkflowStatus{ID: "s2", ProjectID: "p1", Name: "blocked"}); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate status name: %v", err)
	}
	require.NoError(t, s.CreateStatus(ctx, &types.WorkflowStatus{ID: "s3", ProjectID: "p2", Name: "Blocked"}))

	// Lookups match case-insensitively too.
	u, err := s.GetUserByEmail(ctx, "c1", "JO@acme.test")
	require.NoError(t, err)
	if u.ID != "u1" {
		t.Errorf("GetUserByEmail = %s, want u1", u.ID)
	}
	st, err := s.GetStatusByName(ctx, "p1", "BLOCKED")
	require.NoError(t, err)
	if st.ID != "s1" {
		t.Errorf("GetStatusByName = %s, want s1", st.ID)
	}
}

func TestMaxItemNumberCountsDeleted(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i, id := range []string{"w1", "w2", "w3"} {
		require.NoError(t, s.CreateItem(ctx, &types.WorkItem{
			ID: id, ProjectID: "p1", ItemNumber: i + 1, Title: id, Type: types.TypeTask,
		}))
	}
	w3, err := s.GetItem(ctx, "w3")
	require.NoError(t, err)
	w3.Delete("u1", base)
	require.NoError(t, s.UpdateItem(ctx, w3))

	max, err := s.MaxItemNumber(ctx, "p1")
	require.NoError(t, err)
	if max != 3 {
		t.Errorf("max = %d, want 3 (deleted numbers stay reserved)", max)
	}

	// The number is the duplicate key within a project.
	err = s.CreateItem(ctx, &types.WorkItem{ID: "w4", ProjectID: "p1", ItemNumber: 2, Title: "w4", Type: types.TypeTask})
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate item number: %v", err)
	}
	require.NoError(t, s.CreateItem(ctx, &types.WorkItem{ID: "w5", ProjectID: "p2", ItemNumber: 2, Title: "w5", Type: types.TypeTask}))
}

func TestMaxTicketSequence(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i, num := range []string{"FT-2026-0001", "FT-2026-0007", "FT-2025-0042"} {
		require.NoError(t, s.CreateTicket(ctx, &types.FileTicket{
			ID: string(rune('a' + i)), ProjectID: "p1", TicketNumber: num, Title: num,
		}))
	}

	seq, err := s.MaxTicketSequence(ctx, 2026)
	require.NoError(t, err)
	if seq != 7 {
		t.Errorf("2026 sequence = %d, want 7", seq)
	}
	seq, err = s.MaxTicketSequence(ctx, 2025)
	require.NoError(t, err)
	if seq != 42 {
		t.Errorf("2025 sequence = %d, want 42", seq)
	}
	seq, err = s.MaxTicketSequence(ctx, 2024)
	require.NoError(t, err)
	if seq != 0 {
		t.Errorf("2024 sequence = %d, want 0", seq)
	}

	if err := s.CreateTicket(ctx, &types.FileTicket{ID: "z", TicketNumber: "FT-2026-0007"}); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate ticket number: %v", err)
	}
}

func TestTransferLedger(t *testing.T) {
	ctx := context.Background()
	s := New()

	first := &types.FileTicketTransfer{FileTicketID: "t1", FromUserID: "u1", ToUserID: "u2", TransferredAt: base}
	require.NoError(t, s.AddTransfer(ctx, first))
	second := &types.FileTicketTransfer{FileTicketID: "t1", FromUserID: "u2", ToUserID: "u3", TransferredAt: base.Add(time.Hour)}
	require.NoError(t, s.AddTransfer(ctx, second))
	if first.ID == 0 || second.ID <= first.ID {
		t.Fatalf("ids not assigned in order: %d, %d", first.ID, second.ID)
	}

	// Only the open row for the right recipient matches.
	if _, err := s.LatestOpenTransfer(ctx, "t1", "u2"); err != nil {
		t.Errorf("open transfer for u2: %v", err)
	}
	require.NoError(t, s.MarkTransferReceived(ctx, first.ID, base.Add(time.Minute)))
	if _, err := s.LatestOpenTransfer(ctx, "t1", "u2"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("received transfer should no longer be open: %v", err)
	}
	tr, err := s.LatestOpenTransfer(ctx, "t1", "u3")
	require.NoError(t, err)
	if tr.ID != second.ID {
		t.Errorf("open transfer = %d, want %d", tr.ID, second.ID)
	}

	all, err := s.ListTransfers(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	if all[0].ReceivedAt == nil || !all[0].ReceivedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("receipt stamp = %v", all[0].ReceivedAt)
	}

	if err := s.MarkTransferReceived(ctx, 999, base); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unknown transfer id: %v", err)
	}
}

func TestListActivityNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i, action := range []string{"created", "updated", "deleted"} {
		require.NoError(t, s.AppendActivity(ctx, &types.ActivityLog{
			ProjectID: "p1", Action: action, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.AppendActivity(ctx, &types.ActivityLog{ProjectID: "p2", Action: "created", CreatedAt: base}))

	got, err := s.ListActivity(ctx, types.ActivityFilter{ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	want := []string{"deleted", "updated", "created"}
	for i, e := range got {
		if e.Action != want[i] {
			t.Errorf("entry %d = %s, want %s", i, e.Action, want[i])
		}
	}

	got, err = s.ListActivity(ctx, types.ActivityFilter{ProjectID: "p1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
}
