package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/worktrack/worktrack/internal/result"
	"github.com/worktrack/worktrack/internal/types"
)

func TestCreateStatus(t *testing.T) {
	f := newFixture(t)

	res := f.eng.CreateStatus(f.ctx, f.manager.ID, CreateStatusInput{
		ProjectID: f.project.ID, Name: "Blocked", Color: "#ef4444",
	})
	wantKind(t, res, result.KindCreated)
	// Appended after the four core statuses.
	if res.Data.Order != 5 {
		t.Errorf("order = %d, want 5", res.Data.Order)
	}

	// Names are unique per project, case-insensitively.
	wantKind(t, f.eng.CreateStatus(f.ctx, f.manager.ID, CreateStatusInput{
		ProjectID: f.project.ID, Name: "blocked",
	}), result.KindBadRequest)
	wantKind(t, f.eng.CreateStatus(f.ctx, f.manager.ID, CreateStatusInput{
		ProjectID: f.project.ID, Name: "  ",
	}), result.KindBadRequest)

	// Creating statuses is project administration.
	f.addMember(f.member.ID, types.ProjectMember)
	wantKind(t, f.eng.CreateStatus(f.ctx, f.member.ID, CreateStatusInput{
		ProjectID: f.project.ID, Name: "Member Lane",
	}), result.KindForbidden)
}

func TestUpdateStatusCoreRules(t *testing.T) {
	f := newFixture(t)

	statuses := f.eng.ListStatuses(f.ctx, f.admin.ID, f.project.ID)
	wantKind(t, statuses, result.KindOK)
	core := statuses.Data[0] // New

	// Core statuses keep their names but stay stylable.
	rename := "Fresh"
	wantKind(t, f.eng.UpdateStatus(f.ctx, f.admin.ID, core.ID, UpdateStatusInput{Name: &rename}), result.KindBadRequest)

	color := "#000000"
	res := f.eng.UpdateStatus(f.ctx, f.admin.ID, core.ID, UpdateStatusInput{Color: &color})
	wantKind(t, res, result.KindOK)
	if res.Data.Color != "#000000" {
		t.Errorf("color = %q, want #000000", res.Data.Color)
	}

	// Same-name updates (case shifts) are not renames.
	same := "NEW"
	res = f.eng.UpdateStatus(f.ctx, f.admin.ID, core.ID, UpdateStatusInput{Name: &same})
	wantKind(t, res, result.KindOK)
}

func TestDeleteStatus(t *testing.T) {
	f := newFixture(t)

	statuses := f.eng.ListStatuses(f.ctx, f.admin.ID, f.project.ID)
	wantKind(t, statuses, result.KindOK)
	wantKind(t, f.eng.DeleteStatus(f.ctx, f.admin.ID, statuses.Data[0].ID), result.KindBadRequest)

	custom := f.eng.CreateStatus(f.ctx, f.admin.ID, CreateStatusInput{ProjectID: f.project.ID, Name: "Blocked"})
	wantKind(t, custom, result.KindCreated)

	// A status referenced by live items cannot go.
	item := f.item(f.manager.ID, CreateItemInput{Title: "stuck"})
	move := f.eng.UpdateItem(f.ctx, f.manager.ID, item.ID, UpdateItemInput{StatusID: &custom.Data.ID})
	wantKind(t, move, result.KindOK)
	wantKind(t, f.eng.DeleteStatus(f.ctx, f.admin.ID, custom.Data.ID), result.KindBadRequest)

	// Deleting the item frees the status.
	wantKind(t, f.eng.DeleteItem(f.ctx, f.manager.ID, item.ID), result.KindOK)
	wantKind(t, f.eng.DeleteStatus(f.ctx, f.admin.ID, custom.Data.ID), result.KindOK)
	wantKind(t, f.eng.DeleteStatus(f.ctx, f.admin.ID, custom.Data.ID), result.KindNotFound)
}

func TestReorderStatuses(t *testing.T) {
	f := newFixture(t)

	statuses := f.eng.ListStatuses(f.ctx, f.admin.ID, f.project.ID)
	wantKind(t, statuses, result.KindOK)
	require.Len(t, statuses.Data, 4)

	// Reverse the board.
	ids := make([]string, 0, 4)
	for i := len(statuses.Data) - 1; i >= 0; i-- {
		ids = append(ids, statuses.Data[i].ID)
	}
	res := f.eng.ReorderStatuses(f.ctx, f.admin.ID, f.project.ID, ids)
	wantKind(t, res, result.KindOK)

	after := f.eng.ListStatuses(f.ctx, f.admin.ID, f.project.ID)
	wantKind(t, after, result.KindOK)
	for i, s := range after.Data {
		if s.ID != ids[i] {
			t.Errorf("position %d = %s, want %s", i, s.ID, ids[i])
		}
		if s.Order != i+1 {
			t.Errorf("status %s order = %d, want %d", s.Name, s.Order, i+1)
		}
	}

	// Duplicates and foreign statuses are rejected.
	wantKind(t, f.eng.ReorderStatuses(f.ctx, f.admin.ID, f.project.ID, []string{ids[0], ids[0]}), result.KindBadRequest)
	wantKind(t, f.eng.ReorderStatuses(f.ctx, f.admin.ID, f.project.ID, []string{"ghost"}), result.KindBadRequest)
	wantKind(t, f.eng.ReorderStatuses(f.ctx, f.admin.ID, f.project.ID, nil), result.KindBadRequest)

	other := f.eng.CreateProject(f.ctx, f.admin.ID, CreateProjectInput{Name: "Gemini", Key: "GM"})
	wantKind(t, other, result.KindCreated)
	foreign := f.eng.ListStatuses(f.ctx, f.admin.ID, other.Data.ID)
	wantKind(t, foreign, result.KindOK)
	wantKind(t, f.eng.ReorderStatuses(f.ctx, f.admin.ID, f.project.ID, []string{foreign.Data[0].ID}), result.KindBadRequest)
}
