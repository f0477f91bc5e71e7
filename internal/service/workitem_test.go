package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/worktrack/worktrack/internal/result"
	"github.com/worktrack/worktrack/internal/types"
)

func TestCreateItemNumbering(t *testing.T) {
	f := newFixture(t)

	first := f.item(f.manager.ID, CreateItemInput{Title: "one"})
	second := f.item(f.manager.ID, CreateItemInput{Title: "two"})
	if first.ItemNumber != 1 || second.ItemNumber != 2 {
		t.Fatalf("numbers = %d, %d, want 1, 2", first.ItemNumber, second.ItemNumber)
	}
	if got := second.DisplayKey(f.project.Key); got != "AP-2" {
		t.Errorf("display key = %q, want AP-2", got)
	}

	// Numbers are never reused, deleted items included.
	wantKind(t, f.eng.DeleteItem(f.ctx, f.manager.ID, second.ID), result.KindOK)
	third := f.item(f.manager.ID, CreateItemInput{Title: "three"})
	if third.ItemNumber != 3 {
		t.Errorf("number after delete = %d, want 3", third.ItemNumber)
	}

	// Numbering is per project.
	other := f.eng.CreateProject(f.ctx, f.admin.ID, CreateProjectInput{Name: "Gemini", Key: "GM"})
	wantKind(t, other, result.KindCreated)
	elsewhere := f.item(f.admin.ID, CreateItemInput{ProjectID: other.Data.ID, Title: "fresh"})
	if elsewhere.ItemNumber != 1 {
		t.Errorf("new project starts at %d, want 1", elsewhere.ItemNumber)
	}
}

func TestCreateItemInitialStatus(t *testing.T) {
	f := newFixture(t)

	w := f.item(f.manager.ID, CreateItemInput{Title: "task"})
	statuses := f.eng.ListStatuses(f.ctx, f.admin.ID, f.project.ID)
	wantKind(t, statuses, result.KindOK)
	if w.StatusID != statuses.Data[0].ID {
		t.Errorf("initial status = %s, want the core New status %s", w.StatusID, statuses.Data[0].ID)
	}
	if !w.IsInBacklog {
		t.Error("new items without a sprint should sit in the backlog")
	}
}

func TestCreateItemPermissions(t *testing.T) {
	f := newFixture(t)

	// Members never create work items, membership notwithstanding.
	f.addMember(f.member.ID, types.ProjectMember)
	res := f.eng.CreateItem(f.ctx, f.member.ID, CreateItemInput{
		ProjectID: f.project.ID, Title: "nope", Type: types.TypeTask, Priority: 2,
	})
	wantKind(t, res, result.KindForbidden)

	// QA users with membership can.
	f.addMember(f.qa.ID, types.ProjectMember)
	res = f.eng.CreateItem(f.ctx, f.qa.ID, CreateItemInput{
		ProjectID: f.project.ID, Title: "found a bug", Type: types.TypeBug, Priority: 1,
	})
	wantKind(t, res, result.KindCreated)

	// Without membership a QA user cannot.
	other := f.eng.CreateProject(f.ctx, f.admin.ID, CreateProjectInput{Name: "Gemini", Key: "GM"})
	wantKind(t, other, result.KindCreated)
	res = f.eng.CreateItem(f.ctx, f.qa.ID, CreateItemInput{
		ProjectID: other.Data.ID, Title: "outside", Type: types.TypeBug, Priority: 1,
	})
	wantKind(t, res, result.KindForbidden)
}

func TestCreateItemReferences(t *testing.T) {
	f := newFixture(t)

	// Assignee must exist in the company.
	res := f.eng.CreateItem(f.ctx, f.manager.ID, CreateItemInput{
		ProjectID: f.project.ID, Title: "x", Type: types.TypeTask, Priority: 2, AssignedTo: "ghost",
	})
	wantKind(t, res, result.KindBadRequest)

	rival := f.rival()
	res = f.eng.CreateItem(f.ctx, f.manager.ID, CreateItemInput{
		ProjectID: f.project.ID, Title: "x", Type: types.TypeTask, Priority: 2, AssignedTo: rival.ID,
	})
	wantKind(t, res, result.KindBadRequest)

	// Sprint must belong to the project and not be completed.
	sp := f.eng.CreateSprint(f.ctx, f.manager.ID, CreateSprintInput{ProjectID: f.project.ID, Name: "S1"})
	wantKind(t, sp, result.KindCreated)
	wantKind(t, f.eng.StartSprint(f.ctx, f.manager.ID, sp.Data.ID), result.KindOK)
	wantKind(t, f.eng.CompleteSprint(f.ctx, f.manager.ID, sp.Data.ID), result.KindOK)
	res = f.eng.CreateItem(f.ctx, f.manager.ID, CreateItemInput{
		ProjectID: f.project.ID, Title: "late", Type: types.TypeTask, Priority: 2, SprintID: sp.Data.ID,
	})
	wantKind(t, res, result.KindBadRequest)

	// Validation failures surface as bad requests.
	res = f.eng.CreateItem(f.ctx, f.manager.ID, CreateItemInput{
		ProjectID: f.project.ID, Title: strings.Repeat("x", 501), Type: types.TypeTask, Priority: 2,
	})
	wantKind(t, res, result.KindBadRequest)
}

func TestItemHierarchy(t *testing.T) {
	f := newFixture(t)

	epic := f.item(f.manager.ID, CreateItemInput{Title: "epic", Type: types.TypeEpic, Priority: 2})
	story := f.item(f.manager.ID, CreateItemInput{Title: "story", Type: types.TypeStory, Priority: 2, ParentID: epic.ID})
	if story.ParentID != epic.ID {
		t.Fatalf("parent = %q, want %q", story.ParentID, epic.ID)
	}

	// Illegal pairings name both types.
	res := f.eng.CreateItem(f.ctx, f.manager.ID, CreateItemInput{
		ProjectID: f.project.ID, Title: "bad", Type: types.TypeEpic, Priority: 2, ParentID: story.ID,
	})
	wantKind(t, res, result.KindBadRequest)
	if !strings.Contains(res.Reason, "epic") || !strings.Contains(res.Reason, "story") {
		t.Errorf("reason %q should name both types", res.Reason)
	}

	// Re-parenting through update obeys the same rules.
	task := f.item(f.manager.ID, CreateItemInput{Title: "task", Type: types.TypeTask, Priority: 2})
	pid := story.ID
	wantKind(t, f.eng.UpdateItem(f.ctx, f.manager.ID, task.ID, UpdateItemInput{ParentID: &pid}), result.KindOK)

	self := task.ID
	wantKind(t, f.eng.UpdateItem(f.ctx, f.manager.ID, task.ID, UpdateItemInput{ParentID: &self}), result.KindBadRequest)

	detach := DetachParent
	upd := f.eng.UpdateItem(f.ctx, f.manager.ID, task.ID, UpdateItemInput{ParentID: &detach})
	wantKind(t, upd, result.KindOK)
	if upd.Data.ParentID != "" {
		t.Errorf("parent after detach = %q, want empty", upd.Data.ParentID)
	}

	// Deleting a parent leaves the children's links dangling on purpose.
	wantKind(t, f.eng.DeleteItem(f.ctx, f.manager.ID, epic.ID), result.KindOK)
	got := f.eng.GetItem(f.ctx, f.manager.ID, story.ID)
	wantKind(t, got, result.KindOK)
	if got.Data.ParentID != epic.ID {
		t.Errorf("child parent link = %q, want %q", got.Data.ParentID, epic.ID)
	}
}

func TestUpdateItemTypeKeepsHierarchyLegal(t *testing.T) {
	f := newFixture(t)

	epic := f.item(f.manager.ID, CreateItemInput{Title: "epic", Type: types.TypeEpic, Priority: 2})
	story := f.item(f.manager.ID, CreateItemInput{Title: "story", Type: types.TypeStory, Priority: 2, ParentID: epic.ID})

	// A story under an epic cannot quietly become a task.
	task := types.TypeTask
	res := f.eng.UpdateItem(f.ctx, f.manager.ID, story.ID, UpdateItemInput{Type: &task})
	wantKind(t, res, result.KindBadRequest)
	if !strings.Contains(res.Reason, "task") || !strings.Contains(res.Reason, "epic") {
		t.Errorf("reason %q should name both types", res.Reason)
	}

	// Detaching in the same update makes the change legal.
	detach := DetachParent
	upd := f.eng.UpdateItem(f.ctx, f.manager.ID, story.ID, UpdateItemInput{Type: &task, ParentID: &detach})
	wantKind(t, upd, result.KindOK)
	if upd.Data.Type != types.TypeTask {
		t.Errorf("type = %s, want %s", upd.Data.Type, types.TypeTask)
	}

	// A parent cannot change to a type its live children forbid.
	feature := f.item(f.manager.ID, CreateItemInput{Title: "feature", Type: types.TypeFeature, Priority: 2})
	f.item(f.manager.ID, CreateItemInput{Title: "child", Type: types.TypeTask, Priority: 2, ParentID: feature.ID})
	subtask := types.TypeSubtask
	wantKind(t, f.eng.UpdateItem(f.ctx, f.manager.ID, feature.ID, UpdateItemInput{Type: &subtask}), result.KindBadRequest)

	// A change the children accept goes through.
	storyType := types.TypeStory
	wantKind(t, f.eng.UpdateItem(f.ctx, f.manager.ID, feature.ID, UpdateItemInput{Type: &storyType}), result.KindOK)
}

func TestUpdateItemSprintBacklog(t *testing.T) {
	f := newFixture(t)

	sp := f.eng.CreateSprint(f.ctx, f.manager.ID, CreateSprintInput{ProjectID: f.project.ID, Name: "S1"})
	wantKind(t, sp, result.KindCreated)
	w := f.item(f.manager.ID, CreateItemInput{Title: "task"})

	// Assigning a sprint pulls the item out of the backlog.
	res := f.eng.MoveToSprint(f.ctx, f.manager.ID, w.ID, sp.Data.ID)
	wantKind(t, res, result.KindOK)
	if res.Data.IsInBacklog || res.Data.SprintID != sp.Data.ID {
		t.Errorf("after sprint assignment: %+v", res.Data)
	}

	// Sending it back to the backlog clears the sprint.
	res = f.eng.MoveToBacklog(f.ctx, f.manager.ID, w.ID)
	wantKind(t, res, result.KindOK)
	if !res.Data.IsInBacklog || res.Data.SprintID != "" {
		t.Errorf("after backlog move: %+v", res.Data)
	}
}

func TestUpdateItemOwnership(t *testing.T) {
	f := newFixture(t)
	f.addMember(f.member.ID, types.ProjectMember)
	f.addMember(f.qa.ID, types.ProjectMember)

	mine := f.item(f.manager.ID, CreateItemInput{Title: "mine", AssignedTo: f.member.ID})
	theirs := f.item(f.manager.ID, CreateItemInput{Title: "theirs", AssignedTo: f.qa.ID})

	// Assignees may update their own items, nobody else's.
	title := "renamed"
	wantKind(t, f.eng.UpdateItem(f.ctx, f.member.ID, mine.ID, UpdateItemInput{Title: &title}), result.KindOK)
	got := f.eng.UpdateItem(f.ctx, f.member.ID, theirs.ID, UpdateItemInput{Title: &title})
	wantKind(t, got, result.KindForbidden)

	// Members never delete; QA deletes only what they created.
	wantKind(t, f.eng.DeleteItem(f.ctx, f.member.ID, mine.ID), result.KindForbidden)
	wantKind(t, f.eng.DeleteItem(f.ctx, f.qa.ID, theirs.ID), result.KindForbidden)
	owned := f.item(f.qa.ID, CreateItemInput{Title: "qa owned"})
	wantKind(t, f.eng.DeleteItem(f.ctx, f.qa.ID, owned.ID), result.KindOK)
}

func TestItemVisibility(t *testing.T) {
	f := newFixture(t)
	f.addMember(f.member.ID, types.ProjectMember)

	visible := f.item(f.manager.ID, CreateItemInput{Title: "visible", AssignedTo: f.member.ID})
	hidden := f.item(f.manager.ID, CreateItemInput{Title: "hidden", AssignedTo: f.qa.ID})

	wantKind(t, f.eng.GetItem(f.ctx, f.member.ID, visible.ID), result.KindOK)
	wantKind(t, f.eng.GetItem(f.ctx, f.member.ID, hidden.ID), result.KindForbidden)

	list := f.eng.ListItems(f.ctx, f.member.ID, types.WorkItemFilter{ProjectID: f.project.ID})
	wantKind(t, list, result.KindOK)
	require.Len(t, list.Data, 1)
	if list.Data[0].ID != visible.ID {
		t.Errorf("member sees %s, want %s", list.Data[0].ID, visible.ID)
	}

	// One hop up: a direct report's items are visible to their manager.
	report := f.user("report@acme.test", types.RoleMember, f.member.ID)
	assigned := f.item(f.manager.ID, CreateItemInput{Title: "report work", AssignedTo: report.ID})
	wantKind(t, f.eng.GetItem(f.ctx, f.member.ID, assigned.ID), result.KindOK)
	list = f.eng.ListItems(f.ctx, f.member.ID, types.WorkItemFilter{ProjectID: f.project.ID})
	wantKind(t, list, result.KindOK)
	require.Len(t, list.Data, 2)

	// Managers and above see everything in the project.
	list = f.eng.ListItems(f.ctx, f.manager.ID, types.WorkItemFilter{ProjectID: f.project.ID})
	wantKind(t, list, result.KindOK)
	require.Len(t, list.Data, 3)

	// Tenancy hides items entirely.
	rival := f.rival()
	wantKind(t, f.eng.GetItem(f.ctx, rival.ID, visible.ID), result.KindNotFound)

	// The project filter is mandatory.
	wantKind(t, f.eng.ListItems(f.ctx, f.manager.ID, types.WorkItemFilter{}), result.KindBadRequest)
}

func TestItemAuditTrail(t *testing.T) {
	f := newFixture(t)

	w := f.item(f.manager.ID, CreateItemInput{Title: "tracked"})
	statuses := f.eng.ListStatuses(f.ctx, f.admin.ID, f.project.ID)
	wantKind(t, statuses, result.KindOK)
	done := statuses.Data[3]
	wantKind(t, f.eng.UpdateItem(f.ctx, f.manager.ID, w.ID, UpdateItemInput{StatusID: &done.ID}), result.KindOK)
	wantKind(t, f.eng.AssignItem(f.ctx, f.manager.ID, w.ID, f.qa.ID), result.KindOK)

	log := f.eng.ListActivity(f.ctx, f.admin.ID, types.ActivityFilter{ProjectID: f.project.ID, WorkItemID: w.ID})
	wantKind(t, log, result.KindOK)

	var sawCreate, sawStatus, sawAssign bool
	for _, entry := range log.Data {
		switch entry.Action {
		case "created":
			sawCreate = true
		case "status_changed":
			sawStatus = true
			if entry.OldValue != "New" || entry.NewValue != "Done" {
				t.Errorf("status change logged %q -> %q, want New -> Done", entry.OldValue, entry.NewValue)
			}
		case "assigned":
			sawAssign = true
			if entry.NewValue != f.qa.ID {
				t.Errorf("assignment logged %q, want %q", entry.NewValue, f.qa.ID)
			}
		}
	}
	if !sawCreate || !sawStatus || !sawAssign {
		t.Errorf("missing audit entries: create=%v status=%v assign=%v", sawCreate, sawStatus, sawAssign)
	}
}
