// Package memory implements the storage interface in process memory.
//
// The backend exists for tests and ephemeral usage. Transactions clone
// the whole state up front and swap it back in on success, so a failed
// callback leaves no partial writes behind.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/worktrack/worktrack/internal/storage"
	"github.com/worktrack/worktrack/internal/types"
)

// Store is an in-memory storage backend.
type Store struct {
	mu sync.Mutex
	st *state
}

// Verify interface compliance at compile time.
var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{st: newState()}
}

// Close is a no-op for the memory backend.
func (s *Store) Close() error { return nil }

// RunInTransaction executes fn against a clone of the state and swaps
// the clone in only if fn succeeds. Panics roll back and re-raise.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := s.st.clone()
	if err := fn(&view{st: clone}); err != nil {
		return err
	}
	s.st = clone
	return nil
}

type state struct {
	companies map[string]types.Company
	users     map[string]types.User
	projects  map[string]types.Project
	members   map[string]types.Membership
	statuses  map[string]types.WorkflowStatus
	items     map[string]types.WorkItem
	sprints   map[string]types.Sprint
	tickets   map[string]types.FileTicket
	transfers []types.FileTicketTransfer
	boards    map[string]types.Board
	columns   map[string][]types.BoardColumn
	activity  []types.ActivityLog

	nextTransferID int64
	nextActivityID int64
}

func newState() *state {
	return &state{
		companies: map[string]types.Company{},
		users:     map[string]types.User{},
		projects:  map[string]types.Project{},
		members:   map[string]types.Membership{},
		statuses:  map[string]types.WorkflowStatus{},
		items:     map[string]types.WorkItem{},
		sprints:   map[string]types.Sprint{},
		tickets:   map[string]types.FileTicket{},
		boards:    map[string]types.Board{},
		columns:   map[string][]types.BoardColumn{},
	}
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (st *state) clone() *state {
	cols := make(map[string][]types.BoardColumn, len(st.columns))
	for k, v := range st.columns {
		cols[k] = append([]types.BoardColumn(nil), v...)
	}
	return &state{
		companies:      cloneMap(st.companies),
		users:          cloneMap(st.users),
		projects:       cloneMap(st.projects),
		members:        cloneMap(st.members),
		statuses:       cloneMap(st.statuses),
		items:          cloneMap(st.items),
		sprints:        cloneMap(st.sprints),
		tickets:        cloneMap(st.tickets),
		transfers:      append([]types.FileTicketTransfer(nil), st.transfers...),
		boards:         cloneMap(st.boards),
		columns:        cols,
		activity:       append([]types.ActivityLog(nil), st.activity...),
		nextTransferID: st.nextTransferID,
		nextActivityID: st.nextActivityID,
	}
}

// view implements storage.Tx over a state. The Store's own Tx methods
// delegate here under the lock, making single calls auto-committing.
type view struct {
	st *state
}

var _ storage.Tx = (*view)(nil)

func memberKey(projectID, userID string) string {
	return projectID + "/" + userID
}

// --- Companies ---

func (v *view) CreateCompany(ctx context.Context, c *types.Company) error {
	for _, existing := range v.st.companies {
		if !existing.IsDeleted && strings.EqualFold(existing.Name, c.Name) {
			return storage.ErrDuplicate
		}
	}
	v.st.companies[c.ID] = *c
	return nil
}

func (v *view) GetCompany(ctx context.Context, id string) (*types.Company, error) {
	c, ok := v.st.companies[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &c, nil
}

func (v *view) GetCompanyByName(ctx context.Context, name string) (*types.Company, error) {
	for _, c := range v.st.companies {
		if !c.IsDeleted && strings.EqualFold(c.Name, name) {
			out := c
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (v *view) ListCompanies(ctx context.Context) ([]*types.Company, error) {
	var out []*types.Company
	for _, c := range v.st.companies {
		if c.IsDeleted {
			continue
		}
		cc := c
		out = append(out, &cc)
	}
	sortByCreated(out, func(c *types.Company) (time.Time, string) { return c.CreatedAt, c.ID })
	return out, nil
}

func (v *view) UpdateCompany(ctx context.Context, c *types.Company) error {
	if _, ok := v.st.companies[c.ID]; !ok {
		return storage.ErrNotFound
	}
	v.st.companies[c.ID] = *c
	return nil
}

// --- Users ---

func (v *view) CreateUser(ctx context.Context, u *types.User) error {
	for _, existing := range v.st.users {
		if !existing.IsDeleted && existing.CompanyID == u.CompanyID && strings.EqualFold(existing.Email, u.Email) {
			return storage.ErrDuplicate
		}
	}
	v.st.users[u.ID] = *u
	return nil
}

func (v *view) GetUser(ctx context.Context, id string) (*types.User, error) {
	u, ok := v.st.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (v *view) GetUserByEmail(ctx context.Context, companyID, email string) (*types.User, error) {
	for _, u := range v.st.users {
		if !u.IsDeleted && u.CompanyID == companyID && strings.EqualFold(u.Email, email) {
			out := u
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (v *view) ListUsers(ctx context.Context, companyID string) ([]*types.User, error) {
	var out []*types.User
	for _, u := range v.st.users {
		if u.IsDeleted || u.CompanyID != companyID {
			continue
		}
		uu := u
		out = append(out, &uu)
	}
	sortByCreated(out, func(u *types.User) (time.Time, string) { return u.CreatedAt, u.ID })
	return out, nil
}

func (v *view) ListDirectReports(ctx context.Context, managerID string) ([]*types.User, error) {
	var out []*types.User
	for _, u := range v.st.users {
		if u.IsDeleted || u.ManagerID != managerID {
			continue
		}
		uu := u
		out = append(out, &uu)
	}
	sortByCreated(out, func(u *types.User) (time.Time, string) { return u.CreatedAt, u.ID })
	return out, nil
}

func (v *view) UpdateUser(ctx context.Context, u *types.User) error {
	if _, ok := v.st.users[u.ID]; !ok {
		return storage.ErrNotFound
	}
	v.st.users[u.ID] = *u
	return nil
}

// --- Projects ---

func (v *view) CreateProject(ctx context.Context, p *types.Project) error {
	for _, existing := range v.st.projects {
		if !existing.IsDeleted && existing.CompanyID == p.CompanyID && existing.Key == p.Key {
			return storage.ErrDuplicate
		}
	}
	v.st.projects[p.ID] = *p
	return nil
}

func (v *view) GetProject(ctx context.Context, id string) (*types.Project, error) {
	p, ok := v.st.projects[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

func (v *view) GetProjectByKey(ctx context.Context, companyID, key string) (*types.Project, error) {
	for _, p := range v.st.projects {
		if !p.IsDeleted && p.CompanyID == companyID && p.Key == key {
			out := p
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (v *view) ListProjects(ctx context.Context, companyID string) ([]*types.Project, error) {
	var out []*types.Project
	for _, p := range v.st.projects {
		if p.IsDeleted || p.CompanyID != companyID {
			continue
		}
		pp := p
		out = append(out, &pp)
	}
	sortByCreated(out, func(p *types.Project) (time.Time, string) { return p.CreatedAt, p.ID })
	return out, nil
}

func (v *view) UpdateProject(ctx context.Context, p *types.Project) error {
	if _, ok := v.st.projects[p.ID]; !ok {
		return storage.ErrNotFound
	}
	v.st.projects[p.ID] = *p
	return nil
}

// --- Project members ---

func (v *view) AddMember(ctx context.Context, m *types.Membership) error {
	key := memberKey(m.ProjectID, m.UserID)
	if _, ok := v.st.members[key]; ok {
		return storage.ErrDuplicate
	}
	v.st.members[key] = *m
	return nil
}

func (v *view) GetMember(ctx context.Context, projectID, userID string) (*types.Membership, error) {
	m, ok := v.st.members[memberKey(projectID, userID)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &m, nil
}

func (v *view) ListMembers(ctx context.Context, projectID string) ([]*types.Membership, error) {
	var out []*types.Membership
	for _, m := range v.st.members {
		if m.ProjectID != projectID {
			continue
		}
		mm := m
		out = append(out, &mm)
	}
	sortByCreated(out, func(m *types.Membership) (time.Time, string) { return m.CreatedAt, m.UserID })
	return out, nil
}

func (v *view) ListMemberships(ctx context.Context, userID string) ([]*types.Membership, error) {
	var out []*types.Membership
	for _, m := range v.st.members {
		if m.UserID != userID {
			continue
		}
		mm := m
		out = append(out, &mm)
	}
	sortByCreated(out, func(m *types.Membership) (time.Time, string) { return m.CreatedAt, m.ProjectID })
	return out, nil
}

func (v *view) UpdateMember(ctx context.Context, m *types.Membership) error {
	key := memberKey(m.ProjectID, m.UserID)
	if _, ok := v.st.members[key]; !ok {
		return storage.ErrNotFound
	}
	v.st.members[key] = *m
	return nil
}

func (v *view) RemoveMember(ctx context.Context, projectID, userID string) error {
	key := memberKey(projectID, userID)
	if _, ok := v.st.members[key]; !ok {
		return storage.ErrNotFound
	}
	delete(v.st.members, key)
	return nil
}

// --- Workflow statuses ---

func (v *view) CreateStatus(ctx context.Context, s *types.WorkflowStatus) error {
	for _, existing := range v.st.statuses {
		if !existing.IsDeleted && existing.ProjectID == s.ProjectID && strings.EqualFold(existing.Name, s.Name) {
			return storage.ErrDuplicate
		}
	}
	v.st.statuses[s.ID] = *s
	return nil
}

func (v *view) GetStatus(ctx context.Context, id string) (*types.WorkflowStatus, error) {
	s, ok := v.st.statuses[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &s, nil
}

func (v *view) GetStatusByName(ctx context.Context, projectID, name string) (*types.WorkflowStatus, error) {
	for _, s := range v.st.statuses {
		if !s.IsDeleted && s.ProjectID == projectID && strings.EqualFold(s.Name, name) {
			out := s
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (v *view) ListStatuses(ctx context.Context, projectID string) ([]*types.WorkflowStatus, error) {
	var out []*types.WorkflowStatus
	for _, s := range v.st.statuses {
		if s.IsDeleted || s.ProjectID != projectID {
			continue
		}
		ss := s
		out = append(out, &ss)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (v *view) UpdateStatus(ctx context.Context, s *types.WorkflowStatus) error {
	if _, ok := v.st.statuses[s.ID]; !ok {
		return storage.ErrNotFound
	}
	v.st.statuses[s.ID] = *s
	return nil
}

func (v *view) CountItemsWithStatus(ctx context.Context, statusID string) (int, error) {
	n := 0
	for _, w := range v.st.items {
		if !w.IsDeleted && w.StatusID == statusID {
			n++
		}
	}
	return n, nil
}

// --- Work items ---

func (v *view) CreateItem(ctx context.Context, w *types.WorkItem) error {
	for _, existing := range v.st.items {
		if existing.ProjectID == w.ProjectID && existing.ItemNumber == w.ItemNumber {
			return storage.ErrDuplicate
		}
	}
	v.st.items[w.ID] = *w
	return nil
}

func (v *view) GetItem(ctx context.Context, id string) (*types.WorkItem, error) {
	w, ok := v.st.items[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &w, nil
}

func (v *view) ListItems(ctx context.Context, filter types.WorkItemFilter) ([]*types.WorkItem, error) {
	var out []*types.WorkItem
	for _, w := range v.st.items {
		if w.IsDeleted || !matchItem(w, filter) {
			continue
		}
		ww := w
		out = append(out, &ww)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProjectID != out[j].ProjectID {
			return out[i].ProjectID < out[j].ProjectID
		}
		return out[i].ItemNumber < out[j].ItemNumber
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matchItem(w types.WorkItem, f types.WorkItemFilter) bool {
	if f.ProjectID != "" && w.ProjectID != f.ProjectID {
		return false
	}
	if f.StatusID != "" && w.StatusID != f.StatusID {
		return false
	}
	if f.SprintID != "" && w.SprintID != f.SprintID {
		return false
	}
	if f.Backlog != nil && w.IsInBacklog != *f.Backlog {
		return false
	}
	if f.Type != nil && w.Type != *f.Type {
		return false
	}
	if f.Priority != nil && w.Priority != *f.Priority {
		return false
	}
	if f.AssignedTo != "" && w.AssignedTo != f.AssignedTo {
		return false
	}
	if f.CreatedBy != "" && w.CreatedBy != f.CreatedBy {
		return false
	}
	if f.ParentID != "" && w.ParentID != f.ParentID {
		return false
	}
	return true
}

func (v *view) UpdateItem(ctx context.Context, w *types.WorkItem) error {
	if _, ok := v.st.items[w.ID]; !ok {
		return storage.ErrNotFound
	}
	v.st.items[w.ID] = *w
	return nil
}

func (v *view) MaxItemNumber(ctx context.Context, projectID string) (int, error) {
	max := 0
	for _, w := range v.st.items {
		// Deleted items keep their numbers reserved.
		if w.ProjectID == projectID && w.ItemNumber > max {
			max = w.ItemNumber
		}
	}
	return max, nil
}

// --- Sprints ---

func (v *view) CreateSprint(ctx context.Context, s *types.Sprint) error {
	v.st.sprints[s.ID] = *s
	return nil
}

func (v *view) GetSprint(ctx context.Context, id string) (*types.Sprint, error) {
	s, ok := v.st.sprints[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &s, nil
}

func (v *view) ListSprints(ctx context.Context, projectID string) ([]*types.Sprint, error) {
	var out []*types.Sprint
	for _, s := range v.st.sprints {
		if s.IsDeleted || s.ProjectID != projectID {
			continue
		}
		ss := s
		out = append(out, &ss)
	}
	sortByCreated(out, func(s *types.Sprint) (time.Time, string) { return s.CreatedAt, s.ID })
	return out, nil
}

func (v *view) UpdateSprint(ctx context.Context, s *types.Sprint) error {
	if _, ok := v.st.sprints[s.ID]; !ok {
		return storage.ErrNotFound
	}
	v.st.sprints[s.ID] = *s
	return nil
}

// --- File tickets ---

func (v *view) CreateTicket(ctx context.Context, t *types.FileTicket) error {
	for _, existing := range v.st.tickets {
		if existing.TicketNumber == t.TicketNumber {
			return storage.ErrDuplicate
		}
	}
	v.st.tickets[t.ID] = *t
	return nil
}

func (v *view) GetTicket(ctx context.Context, id string) (*types.FileTicket, error) {
	t, ok := v.st.tickets[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &t, nil
}

func (v *view) ListTickets(ctx context.Context, filter types.TicketFilter) ([]*types.FileTicket, error) {
	var out []*types.FileTicket
	for _, t := range v.st.tickets {
		if t.IsDeleted {
			continue
		}
		if filter.ProjectID != "" && t.ProjectID != filter.ProjectID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Holder != "" && t.CurrentHolder != filter.Holder {
			continue
		}
		if filter.Year != 0 && t.CreatedAt.Year() != filter.Year {
			continue
		}
		tt := t
		out = append(out, &tt)
	}
	sortByCreated(out, func(t *types.FileTicket) (time.Time, string) { return t.CreatedAt, t.ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (v *view) UpdateTicket(ctx context.Context, t *types.FileTicket) error {
	if _, ok := v.st.tickets[t.ID]; !ok {
		return storage.ErrNotFound
	}
	v.st.tickets[t.ID] = *t
	return nil
}

func (v *view) MaxTicketSequence(ctx context.Context, year int) (int, error) {
	prefix := fmt.Sprintf("FT-%d-", year)
	max := 0
	for _, t := range v.st.tickets {
		if !strings.HasPrefix(t.TicketNumber, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(t.TicketNumber, prefix))
		if err == nil && n > max {
			max = n
		}
	}
	return max, nil
}

// --- Custody ledger ---

func (v *view) AddTransfer(ctx context.Context, tr *types.FileTicketTransfer) error {
	v.st.nextTransferID++
	tr.ID = v.st.nextTransferID
	v.st.transfers = append(v.st.transfers, *tr)
	return nil
}

func (v *view) ListTransfers(ctx context.Context, ticketID string) ([]*types.FileTicketTransfer, error) {
	var out []*types.FileTicketTransfer
	for i := range v.st.transfers {
		if v.st.transfers[i].FileTicketID == ticketID {
			tr := v.st.transfers[i]
			out = append(out, &tr)
		}
	}
	return out, nil
}

func (v *view) LatestOpenTransfer(ctx context.Context, ticketID, toUserID string) (*types.FileTicketTransfer, error) {
	for i := len(v.st.transfers) - 1; i >= 0; i-- {
		tr := v.st.transfers[i]
		if tr.FileTicketID == ticketID && tr.ToUserID == toUserID && tr.ReceivedAt == nil {
			return &tr, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (v *view) MarkTransferReceived(ctx context.Context, transferID int64, at time.Time) error {
	for i := range v.st.transfers {
		if v.st.transfers[i].ID == transferID {
			stamped := at
			v.st.transfers[i].ReceivedAt = &stamped
			return nil
		}
	}
	return storage.ErrNotFound
}

// --- Boards ---

func (v *view) CreateBoard(ctx context.Context, b *types.Board) error {
	if b.IsDefault {
		for _, existing := range v.st.boards {
			if !existing.IsDeleted && existing.ProjectID == b.ProjectID && existing.IsDefault {
				return storage.ErrDuplicate
			}
		}
	}
	v.st.boards[b.ID] = *b
	return nil
}

func (v *view) GetBoard(ctx context.Context, id string) (*types.Board, error) {
	b, ok := v.st.boards[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &b, nil
}

func (v *view) GetDefaultBoard(ctx context.Context, projectID string) (*types.Board, error) {
	for _, b := range v.st.boards {
		if !b.IsDeleted && b.ProjectID == projectID && b.IsDefault {
			out := b
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (v *view) ListBoards(ctx context.Context, projectID string) ([]*types.Board, error) {
	var out []*types.Board
	for _, b := range v.st.boards {
		if b.IsDeleted || b.ProjectID != projectID {
			continue
		}
		bb := b
		out = append(out, &bb)
	}
	sortByCreated(out, func(b *types.Board) (time.Time, string) { return b.CreatedAt, b.ID })
	return out, nil
}

func (v *view) UpdateBoard(ctx context.Context, b *types.Board) error {
	if _, ok := v.st.boards[b.ID]; !ok {
		return storage.ErrNotFound
	}
	v.st.boards[b.ID] = *b
	return nil
}

func (v *view) SetBoardColumns(ctx context.Context, boardID string, cols []*types.BoardColumn) error {
	out := make([]types.BoardColumn, len(cols))
	for i, c := range cols {
		out[i] = *c
	}
	v.st.columns[boardID] = out
	return nil
}

func (v *view) ListBoardColumns(ctx context.Context, boardID string) ([]*types.BoardColumn, error) {
	cols := v.st.columns[boardID]
	out := make([]*types.BoardColumn, len(cols))
	for i := range cols {
		c := cols[i]
		out[i] = &c
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// --- Audit trail ---

func (v *view) AppendActivity(ctx context.Context, entry *types.ActivityLog) error {
	v.st.nextActivityID++
	entry.ID = v.st.nextActivityID
	v.st.activity = append(v.st.activity, *entry)
	return nil
}

func (v *view) ListActivity(ctx context.Context, filter types.ActivityFilter) ([]*types.ActivityLog, error) {
	var out []*types.ActivityLog
	for i := len(v.st.activity) - 1; i >= 0; i-- {
		e := v.st.activity[i]
		if filter.ProjectID != "" && e.ProjectID != filter.ProjectID {
			continue
		}
		if filter.WorkItemID != "" && e.WorkItemID != filter.WorkItemID {
			continue
		}
		if filter.FileTicketID != "" && e.FileTicketID != filter.FileTicketID {
			continue
		}
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		ee := e
		out = append(out, &ee)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func sortByCreated[T any](items []*T, key func(*T) (time.Time, string)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return idi < idj
	})
}
