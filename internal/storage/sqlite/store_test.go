package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/worktrack/worktrack/internal/storage"
	"github.com/worktrack/worktrack/internal/types"
)

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()
	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}

	// Reopening an existing database applies the schema idempotently.
	require.NoError(t, s.Close())
	s, err = Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestCompanyRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	c := &types.Company{ID: "c1", Name: "Acme", IsActive: true, CreatedAt: base, UpdatedAt: base}
	require.NoError(t, s.CreateCompany(ctx, c))

	got, err := s.GetCompany(ctx, "c1")
	require.NoError(t, err)
	if got.Name != "Acme" || !got.IsActive || !got.CreatedAt.Equal(base) {
		t.Errorf("roundtrip mismatch: %+v", got)
	}

	// NOCASE collation backs the uniqueness rule.
	err = s.CreateCompany(ctx, &types.Company{ID: "c2", Name: "ACME", CreatedAt: base, UpdatedAt: base})
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate company: %v", err)
	}
	byName, err := s.GetCompanyByName(ctx, "acme")
	require.NoError(t, err)
	if byName.ID != "c1" {
		t.Errorf("GetCompanyByName = %s, want c1", byName.ID)
	}

	// Soft deletion frees the name for reuse.
	got.Delete("u1", base)
	require.NoError(t, s.UpdateCompany(ctx, got))
	require.NoError(t, s.CreateCompany(ctx, &types.Company{ID: "c3", Name: "Acme", CreatedAt: base, UpdatedAt: base}))

	if _, err := s.GetCompany(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing company: %v", err)
	}
}

func TestItemRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	w := &types.WorkItem{
		ID: "w1", ProjectID: "p1", ItemNumber: 1, Title: "fix the build",
		Type: types.TypeBug, Priority: 1, StatusID: "s1", AssignedTo: "u2",
		IsInBacklog: true, CreatedBy: "u1", CreatedAt: base, UpdatedAt: base,
	}
	require.NoError(t, s.CreateItem(ctx, w))

	got, err := s.GetItem(ctx, "w1")
	require.NoError(t, err)
	if got.Title != w.Title || got.Type != w.Type || !got.IsInBacklog || got.AssignedTo != "u2" {
		t.Errorf("roundtrip mismatch: %+v", got)
	}

	// The (project, number) pair is unique even across deletions.
	err = s.CreateItem(ctx, &types.WorkItem{
		ID: "w2", ProjectID: "p1", ItemNumber: 1, Title: "clash",
		Type: types.TypeTask, StatusID: "s1", CreatedAt: base, UpdatedAt: base,
	})
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate number: %v", err)
	}

	got.Delete("u1", base)
	got.UpdatedAt = base.Add(time.Minute)
	require.NoError(t, s.UpdateItem(ctx, got))

	max, err := s.MaxItemNumber(ctx, "p1")
	require.NoError(t, err)
	if max != 1 {
		t.Errorf("max = %d, want 1 (deleted rows keep their numbers)", max)
	}
	deleted, err := s.GetItem(ctx, "w1")
	require.NoError(t, err)
	if !deleted.IsDeleted || deleted.DeletedAt == nil || !deleted.DeletedAt.Equal(base) {
		t.Errorf("tombstone mismatch: %+v", deleted)
	}

	list, err := s.ListItems(ctx, types.WorkItemFilter{ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, list, 0)

	err = s.UpdateItem(ctx, &types.WorkItem{ID: "missing", Title: "x", Type: types.TypeTask, CreatedAt: base, UpdatedAt: base})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("update of missing item: %v", err)
	}
}

func TestListItemFilters(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	backlog := true
	inSprint := false
	seed := []*types.WorkItem{
		{ID: "w1", ProjectID: "p1", ItemNumber: 1, Title: "a", Type: types.TypeTask, Priority: 2, StatusID: "s1", IsInBacklog: true, CreatedBy: "u1"},
		{ID: "w2", ProjectID: "p1", ItemNumber: 2, Title: "b", Type: types.TypeBug, Priority: 1, StatusID: "s2", SprintID: "sp1", AssignedTo: "u2", CreatedBy: "u1"},
		{ID: "w3", ProjectID: "p2", ItemNumber: 1, Title: "c", Type: types.TypeTask, Priority: 2, StatusID: "s3", IsInBacklog: true, CreatedBy: "u2"},
	}
	for _, w := range seed {
		w.CreatedAt, w.UpdatedAt = base, base
		require.NoError(t, s.CreateItem(ctx, w))
	}

	cases := []struct {
		name   string
		filter types.WorkItemFilter
		want   []string
	}{
		{"by project", types.WorkItemFilter{ProjectID: "p1"}, []string{"w1", "w2"}},
		{"by sprint", types.WorkItemFilter{SprintID: "sp1"}, []string{"w2"}},
		{"backlog only", types.WorkItemFilter{ProjectID: "p1", Backlog: &backlog}, []string{"w1"}},
		{"in sprint only", types.WorkItemFilter{ProjectID: "p1", Backlog: &inSprint}, []string{"w2"}},
		{"by assignee", types.WorkItemFilter{AssignedTo: "u2"}, []string{"w2"}},
		{"by creator", types.WorkItemFilter{CreatedBy: "u2"}, []string{"w3"}},
		{"with limit", types.WorkItemFilter{ProjectID: "p1", Limit: 1}, []string{"w1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.ListItems(ctx, tc.filter)
			require.NoError(t, err)
			require.Len(t, got, len(tc.want))
			for i, w := range got {
				if w.ID != tc.want[i] {
					t.Errorf("item %d = %s, want %s", i, w.ID, tc.want[i])
				}
			}
		})
	}
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.CreateCompany(ctx, &types.Company{ID: "c1", Name: "Acme", CreatedAt: base, UpdatedAt: base}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	if _, err := s.GetCompany(ctx, "c1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("company visible after rollback: %v", err)
	}

	err = s.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.CreateCompany(ctx, &types.Company{ID: "c1", Name: "Acme", CreatedAt: base, UpdatedAt: base}); err != nil {
			return err
		}
		return tx.CreateUser(ctx, &types.User{
			ID: "u1", CompanyID: "c1", Email: "a@acme.test", Role: types.RoleSuperAdmin,
			CreatedAt: base, UpdatedAt: base,
		})
	})
	require.NoError(t, err)
	u, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	if u.Role != types.RoleSuperAdmin {
		t.Errorf("role = %s", u.Role)
	}
}

func TestTransferLedger(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	tr := &types.FileTicketTransfer{FileTicketID: "t1", FromUserID: "u1", ToUserID: "u2", TransferredAt: base}
	require.NoError(t, s.AddTransfer(ctx, tr))
	if tr.ID == 0 {
		t.Fatal("transfer id not assigned")
	}

	open, err := s.LatestOpenTransfer(ctx, "t1", "u2")
	require.NoError(t, err)
	if open.ID != tr.ID || open.ReceivedAt != nil {
		t.Errorf("open transfer: %+v", open)
	}

	stamp := base.Add(time.Minute)
	require.NoError(t, s.MarkTransferReceived(ctx, tr.ID, stamp))
	if _, err := s.LatestOpenTransfer(ctx, "t1", "u2"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("transfer still open after receipt: %v", err)
	}

	all, err := s.ListTransfers(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	if all[0].ReceivedAt == nil || !all[0].ReceivedAt.Equal(stamp) {
		t.Errorf("receipt stamp = %v, want %v", all[0].ReceivedAt, stamp)
	}
}

func TestBoardColumnsReplace(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	b := &types.Board{ID: "b1", ProjectID: "p1", Name: "Default", IsDefault: true, CreatedAt: base, UpdatedAt: base}
	require.NoError(t, s.CreateBoard(ctx, b))

	// One default board per project.
	err := s.CreateBoard(ctx, &types.Board{ID: "b2", ProjectID: "p1", Name: "Second", IsDefault: true, CreatedAt: base, UpdatedAt: base})
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("second default board: %v", err)
	}

	cols := []*types.BoardColumn{
		{ID: "c1", BoardID: "b1", StatusID: "s1", Order: 1},
		{ID: "c2", BoardID: "b1", StatusID: "s2", Order: 2},
	}
	require.NoError(t, s.SetBoardColumns(ctx, "b1", cols))

	// Replacement drops the old layout entirely.
	require.NoError(t, s.SetBoardColumns(ctx, "b1", []*types.BoardColumn{
		{ID: "c3", BoardID: "b1", StatusID: "s3", Order: 1},
	}))
	got, err := s.ListBoardColumns(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	if got[0].StatusID != "s3" {
		t.Errorf("column status = %s, want s3", got[0].StatusID)
	}

	def, err := s.GetDefaultBoard(ctx, "p1")
	require.NoError(t, err)
	if def.ID != "b1" {
		t.Errorf("default board = %s, want b1", def.ID)
	}
}

func TestActivityLog(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	for i, action := range []string{"created", "updated", "deleted"} {
		require.NoError(t, s.AppendActivity(ctx, &types.ActivityLog{
			UserID: "u1", Action: action, EntityType: "work_item", EntityID: "w1",
			ProjectID: "p1", WorkItemID: "w1", CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := s.ListActivity(ctx, types.ActivityFilter{ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	if got[0].Action != "deleted" {
		t.Errorf("first entry = %s, want deleted (newest first)", got[0].Action)
	}

	got, err = s.ListActivity(ctx, types.ActivityFilter{ProjectID: "p1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
}
