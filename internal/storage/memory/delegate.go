package memory

// Single-call operations on the Store auto-commit: each delegate takes
// the lock and applies the operation to the live state directly.

import (
	"context"
	"time"

	"github.com/worktrack/worktrack/internal/types"
)

func (s *Store) live() *view {
	return &view{st: s.st}
}

func withLock[T any](s *Store, fn func(v *view) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.live())
}

func withLockErr(s *Store, fn func(v *view) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.live())
}

func (s *Store) CreateCompany(ctx context.Context, c *types.Company) error {
	return withLockErr(s, func(v *view) error { return v.CreateCompany(ctx, c) })
}

func (s *Store) GetCompany(ctx context.Context, id string) (*types.Company, error) {
	return withLock(s, func(v *view) (*types.Company, error) { return v.GetCompany(ctx, id) })
}

func (s *Store) GetCompanyByName(ctx context.Context, name string) (*types.Company, error) {
	return withLock(s, func(v *view) (*types.Company, error) { return v.GetCompanyByName(ctx, name) })
}

func (s *Store) ListCompanies(ctx context.Context) ([]*types.Company, error) {
	return withLock(s, func(v *view) ([]*types.Company, error) { return v.ListCompanies(ctx) })
}

func (s *Store) UpdateCompany(ctx context.Context, c *types.Company) error {
	return withLockErr(s, func(v *view) error { return v.UpdateCompany(ctx, c) })
}

func (s *Store) CreateUser(ctx context.Context, u *types.User) error {
	return withLockErr(s, func(v *view) error { return v.CreateUser(ctx, u) })
}

func (s *Store) GetUser(ctx context.Context, id string) (*types.User, error) {
	return withLock(s, func(v *view) (*types.User, error) { return v.GetUser(ctx, id) })
}

func (s *Store) GetUserByEmail(ctx context.Context, companyID, email string) (*types.User, error) {
	return withLock(s, func(v *view) (*types.User, error) { return v.GetUserByEmail(ctx, companyID, email) })
}

func (s *Store) ListUsers(ctx context.Context, companyID string) ([]*types.User, error) {
	return withLock(s, func(v *view) ([]*types.User, error) { return v.ListUsers(ctx, companyID) })
}

func (s *Store) ListDirectReports(ctx context.Context, managerID string) ([]*types.User, error) {
	return withLock(s, func(v *view) ([]*types.User, error) { return v.ListDirectReports(ctx, managerID) })
}

func (s *Store) UpdateUser(ctx context.Context, u *types.User) error {
	return withLockErr(s, func(v *view) error { return v.UpdateUser(ctx, u) })
}

func (s *Store) CreateProject(ctx context.Context, p *types.Project) error {
	return withLockErr(s, func(v *view) error { return v.CreateProject(ctx, p) })
}

func (s *Store) GetProject(ctx context.Context, id string) (*types.Project, error) {
	return withLock(s, func(v *view) (*types.Project, error) { return v.GetProject(ctx, id) })
}

func (s *Store) GetProjectByKey(ctx context.Context, companyID, key string) (*types.Project, error) {
	return withLock(s, func(v *view) (*types.Project, error) { return v.GetProjectByKey(ctx, companyID, key) })
}

func (s *Store) ListProjects(ctx context.Context, companyID string) ([]*types.Project, error) {
	return withLock(s, func(v *view) ([]*types.Project, error) { return v.ListProjects(ctx, companyID) })
}

func (s *Store) UpdateProject(ctx context.Context, p *types.Project) error {
	return withLockErr(s, func(v *view) error { return v.UpdateProject(ctx, p) })
}

func (s *Store) AddMember(ctx context.Context, m *types.Membership) error {
	return withLockErr(s, func(v *view) error { return v.AddMember(ctx, m) })
}

func (s *Store) GetMember(ctx context.Context, projectID, userID string) (*types.Membership, error) {
	return withLock(s, func(v *view) (*types.Membership, error) { return v.GetMember(ctx, projectID, userID) })
}

func (s *Store) ListMembers(ctx context.Context, projectID string) ([]*types.Membership, error) {
	return withLock(s, func(v *view) ([]*types.Membership, error) { return v.ListMembers(ctx, projectID) })
}

func (s *Store) ListMemberships(ctx context.Context, userID string) ([]*types.Membership, error) {
	return withLock(s, func(v *view) ([]*types.Membership, error) { return v.ListMemberships(ctx, userID) })
}

func (s *Store) UpdateMember(ctx context.Context, m *types.Membership) error {
	return withLockErr(s, func(v *view) error { return v.UpdateMember(ctx, m) })
}

func (s *Store) RemoveMember(ctx context.Context, projectID, userID string) error {
	return withLockErr(s, func(v *view) error { return v.RemoveMember(ctx, projectID, userID) })
}

func (s *Store) CreateStatus(ctx context.Context, st *types.WorkflowStatus) error {
	return withLockErr(s, func(v *view) error { return v.CreateStatus(ctx, st) })
}

func (s *Store) GetStatus(ctx context.Context, id string) (*types.WorkflowStatus, error) {
	return withLock(s, func(v *view) (*types.WorkflowStatus, error) { return v.GetStatus(ctx, id) })
}

func (s *Store) GetStatusByName(ctx context.Context, projectID, name string) (*types.WorkflowStatus, error) {
	return withLock(s, func(v *view) (*types.WorkflowStatus, error) { return v.GetStatusByName(ctx, projectID, name) })
}

func (s *Store) ListStatuses(ctx context.Context, projectID string) ([]*types.WorkflowStatus, error) {
	return withLock(s, func(v *view) ([]*types.WorkflowStatus, error) { return v.ListStatuses(ctx, projectID) })
}

func (s *Store) UpdateStatus(ctx context.Context, st *types.WorkflowStatus) error {
	return withLockErr(s, func(v *view) error { return v.UpdateStatus(ctx, st) })
}

func (s *Store) CountItemsWithStatus(ctx context.Context, statusID string) (int, error) {
	return withLock(s, func(v *view) (int, error) { return v.CountItemsWithStatus(ctx, statusID) })
}

func (s *Store) CreateItem(ctx context.Context, w *types.WorkItem) error {
	return withLockErr(s, func(v *view) error { return v.CreateItem(ctx, w) })
}

func (s *Store) GetItem(ctx context.Context, id string) (*types.WorkItem, error) {
	return withLock(s, func(v *view) (*types.WorkItem, error) { return v.GetItem(ctx, id) })
}

func (s *Store) ListItems(ctx context.Context, filter types.WorkItemFilter) ([]*types.WorkItem, error) {
	return withLock(s, func(v *view) ([]*types.WorkItem, error) { return v.ListItems(ctx, filter) })
}

func (s *Store) UpdateItem(ctx context.Context, w *types.WorkItem) error {
	return withLockErr(s, func(v *view) error { return v.UpdateItem(ctx, w) })
}

func (s *Store) MaxItemNumber(ctx context.Context, projectID string) (int, error) {
	return withLock(s, func(v *view) (int, error) { return v.MaxItemNumber(ctx, projectID) })
}

func (s *Store) CreateSprint(ctx context.Context, sp *types.Sprint) error {
	return withLockErr(s, func(v *view) error { return v.CreateSprint(ctx, sp) })
}

func (s *Store) GetSprint(ctx context.Context, id string) (*types.Sprint, error) {
	return withLock(s, func(v *view) (*types.Sprint, error) { return v.GetSprint(ctx, id) })
}

func (s *Store) ListSprints(ctx context.Context, projectID string) ([]*types.Sprint, error) {
	return withLock(s, func(v *view) ([]*types.Sprint, error) { return v.ListSprints(ctx, projectID) })
}

func (s *Store) UpdateSprint(ctx context.Context, sp *types.Sprint) error {
	return withLockErr(s, func(v *view) error { return v.UpdateSprint(ctx, sp) })
}

func (s *Store) CreateTicket(ctx context.Context, t *types.FileTicket) error {
	return withLockErr(s, func(v *view) error { return v.CreateTicket(ctx, t) })
}

func (s *Store) GetTicket(ctx context.Context, id string) (*types.FileTicket, error) {
	return withLock(s, func(v *view) (*types.FileTicket, error) { return v.GetTicket(ctx, id) })
}

func (s *Store) ListTickets(ctx context.Context, filter types.TicketFilter) ([]*types.FileTicket, error) {
	return withLock(s, func(v *view) ([]*types.FileTicket, error) { return v.ListTickets(ctx, filter) })
}

func (s *Store) UpdateTicket(ctx context.Context, t *types.FileTicket) error {
	return withLockErr(s, func(v *view) error { return v.UpdateTicket(ctx, t) })
}

func (s *Store) MaxTicketSequence(ctx context.Context, year int) (int, error) {
	return withLock(s, func(v *view) (int, error) { return v.MaxTicketSequence(ctx, year) })
}

func (s *Store) AddTransfer(ctx context.Context, tr *types.FileTicketTransfer) error {
	return withLockErr(s, func(v *view) error { return v.AddTransfer(ctx, tr) })
}

func (s *Store) ListTransfers(ctx context.Context, ticketID string) ([]*types.FileTicketTransfer, error) {
	return withLock(s, func(v *view) ([]*types.FileTicketTransfer, error) { return v.ListTransfers(ctx, ticketID) })
}

func (s *Store) LatestOpenTransfer(ctx context.Context, ticketID, toUserID string) (*types.FileTicketTransfer, error) {
	return withLock(s, func(v *view) (*types.FileTicketTransfer, error) {
		return v.LatestOpenTransfer(ctx, ticketID, toUserID)
	})
}

func (s *Store) MarkTransferReceived(ctx context.Context, transferID int64, at time.Time) error {
	return withLockErr(s, func(v *view) error { return v.MarkTransferReceived(ctx, transferID, at) })
}

func (s *Store) CreateBoard(ctx context.Context, b *types.Board) error {
	return withLockErr(s, func(v *view) error { return v.CreateBoard(ctx, b) })
}

func (s *Store) GetBoard(ctx context.Context, id string) (*types.Board, error) {
	return withLock(s, func(v *view) (*types.Board, error) { return v.GetBoard(ctx, id) })
}

func (s *Store) GetDefaultBoard(ctx context.Context, projectID string) (*types.Board, error) {
	return withLock(s, func(v *view) (*types.Board, error) { return v.GetDefaultBoard(ctx, projectID) })
}

func (s *Store) ListBoards(ctx context.Context, projectID string) ([]*types.Board, error) {
	return withLock(s, func(v *view) ([]*types.Board, error) { return v.ListBoards(ctx, projectID) })
}

func (s *Store) UpdateBoard(ctx context.Context, b *types.Board) error {
	return withLockErr(s, func(v *view) error { return v.UpdateBoard(ctx, b) })
}

func (s *Store) SetBoardColumns(ctx context.Context, boardID string, cols []*types.BoardColumn) error {
	return withLockErr(s, func(v *view) error { return v.SetBoardColumns(ctx, boardID, cols) })
}

func (s *Store) ListBoardColumns(ctx context.Context, boardID string) ([]*types.BoardColumn, error) {
	return withLock(s, func(v *view) ([]*types.BoardColumn, error) { return v.ListBoardColumns(ctx, boardID) })
}

func (s *Store) AppendActivity(ctx context.Context, entry *types.ActivityLog) error {
	return withLockErr(s, func(v *view) error { return v.AppendActivity(ctx, entry) })
}

func (s *Store) ListActivity(ctx context.Context, filter types.ActivityFilter) ([]*types.ActivityLog, error) {
	return withLock(s, func(v *view) ([]*types.ActivityLog, error) { return v.ListActivity(ctx, filter) })
}
