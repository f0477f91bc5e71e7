package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/worktrack/worktrack/internal/result"
	"github.com/worktrack/worktrack/internal/types"
)

func (f *fixture) sprint(name string) *types.Sprint {
	f.t.Helper()
	res := f.eng.CreateSprint(f.ctx, f.manager.ID, CreateSprintInput{ProjectID: f.project.ID, Name: name})
	require.True(f.t, res.IsSuccess(), res.Reason)
	return res.Data
}

func TestCreateSprint(t *testing.T) {
	f := newFixture(t)

	sp := f.sprint("Sprint 1")
	if sp.Status != types.SprintPlanning {
		t.Errorf("status = %s, want %s", sp.Status, types.SprintPlanning)
	}

	wantKind(t, f.eng.CreateSprint(f.ctx, f.manager.ID, CreateSprintInput{
		ProjectID: f.project.ID, Name: "  ",
	}), result.KindBadRequest)

	start := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	wantKind(t, f.eng.CreateSprint(f.ctx, f.manager.ID, CreateSprintInput{
		ProjectID: f.project.ID, Name: "Backwards", StartDate: start, EndDate: start.AddDate(0, 0, -7),
	}), result.KindBadRequest)

	// Sprint management is above plain membership.
	f.addMember(f.member.ID, types.ProjectMember)
	wantKind(t, f.eng.CreateSprint(f.ctx, f.member.ID, CreateSprintInput{
		ProjectID: f.project.ID, Name: "Nope",
	}), result.KindForbidden)
}

func TestSprintLifecycle(t *testing.T) {
	f := newFixture(t)
	sp := f.sprint("Sprint 1")

	// Planning never jumps straight to completed.
	wantKind(t, f.eng.CompleteSprint(f.ctx, f.manager.ID, sp.ID), result.KindBadRequest)

	res := f.eng.StartSprint(f.ctx, f.manager.ID, sp.ID)
	wantKind(t, res, result.KindOK)
	if res.Data.Status != types.SprintActive {
		t.Errorf("status = %s, want %s", res.Data.Status, types.SprintActive)
	}
	// No going back, no double start.
	wantKind(t, f.eng.StartSprint(f.ctx, f.manager.ID, sp.ID), result.KindBadRequest)

	res = f.eng.CompleteSprint(f.ctx, f.manager.ID, sp.ID)
	wantKind(t, res, result.KindOK)
	if res.Data.Status != types.SprintCompleted {
		t.Errorf("status = %s, want %s", res.Data.Status, types.SprintCompleted)
	}
	// Completed is terminal.
	wantKind(t, f.eng.StartSprint(f.ctx, f.manager.ID, sp.ID), result.KindBadRequest)

	// A completed sprint no longer accepts items.
	w := f.item(f.manager.ID, CreateItemInput{Title: "late"})
	res2 := f.eng.UpdateItem(f.ctx, f.manager.ID, w.ID, UpdateItemInput{SprintID: &sp.ID})
	wantKind(t, res2, result.KindBadRequest)
}

func TestUpdateSprint(t *testing.T) {
	f := newFixture(t)
	sp := f.sprint("Sprint 1")

	name := "Sprint 1 (extended)"
	goal := "ship the board view"
	end := time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC)
	res := f.eng.UpdateSprint(f.ctx, f.manager.ID, sp.ID, UpdateSprintInput{Name: &name, Goal: &goal, EndDate: &end})
	wantKind(t, res, result.KindOK)
	if res.Data.Name != name || res.Data.Goal != goal || !res.Data.EndDate.Equal(end) {
		t.Errorf("unexpected sprint after update: %+v", res.Data)
	}

	// Date updates are re-validated against each other.
	late := end.AddDate(0, 1, 0)
	wantKind(t, f.eng.UpdateSprint(f.ctx, f.manager.ID, sp.ID, UpdateSprintInput{StartDate: &late}), result.KindBadRequest)

	blank := "  "
	wantKind(t, f.eng.UpdateSprint(f.ctx, f.manager.ID, sp.ID, UpdateSprintInput{Name: &blank}), result.KindBadRequest)
}

func TestDeleteSprintMovesItemsToBacklog(t *testing.T) {
	f := newFixture(t)
	sp := f.sprint("Sprint 1")

	a := f.item(f.manager.ID, CreateItemInput{Title: "a", SprintID: sp.ID})
	b := f.item(f.manager.ID, CreateItemInput{Title: "b", SprintID: sp.ID})
	loose := f.item(f.manager.ID, CreateItemInput{Title: "loose"})
	if a.IsInBacklog || b.IsInBacklog {
		t.Fatal("sprint items should not start in the backlog")
	}

	wantKind(t, f.eng.DeleteSprint(f.ctx, f.manager.ID, sp.ID), result.KindOK)
	wantKind(t, f.eng.GetSprint(f.ctx, f.manager.ID, sp.ID), result.KindNotFound)
	wantKind(t, f.eng.DeleteSprint(f.ctx, f.manager.ID, sp.ID), result.KindNotFound)

	for _, id := range []string{a.ID, b.ID} {
		got := f.eng.GetItem(f.ctx, f.manager.ID, id)
		wantKind(t, got, result.KindOK)
		if !got.Data.IsInBacklog || got.Data.SprintID != "" {
			t.Errorf("item %s not returned to backlog: %+v", id, got.Data)
		}
	}
	got := f.eng.GetItem(f.ctx, f.manager.ID, loose.ID)
	wantKind(t, got, result.KindOK)
	if !got.Data.IsInBacklog {
		t.Error("unrelated item should be untouched")
	}
}

func TestListSprints(t *testing.T) {
	f := newFixture(t)
	f.sprint("Sprint 1")
	f.sprint("Sprint 2")

	list := f.eng.ListSprints(f.ctx, f.manager.ID, f.project.ID)
	wantKind(t, list, result.KindOK)
	require.Len(t, list.Data, 2)

	// Sprints are visible through plain membership.
	f.addMember(f.member.ID, types.ProjectMember)
	list = f.eng.ListSprints(f.ctx, f.member.ID, f.project.ID)
	wantKind(t, list, result.KindOK)
	require.Len(t, list.Data, 2)

	rival := f.rival()
	wantKind(t, f.eng.ListSprints(f.ctx, rival.ID, f.project.ID), result.KindNotFound)
	wantKind(t, f.eng.GetSprint(f.ctx, rival.ID, list.Data[0].ID), result.KindNotFound)
}
