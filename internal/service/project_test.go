package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/worktrack/worktrack/internal/result"
	"github.com/worktrack/worktrack/internal/types"
)

func TestCreateProjectSeeds(t *testing.T) {
	f := newFixture(t)

	statuses := f.eng.ListStatuses(f.ctx, f.admin.ID, f.project.ID)
	wantKind(t, statuses, result.KindOK)
	require.Len(t, statuses.Data, 4)
	wantNames := []string{"New", "In Progress", "Review", "Done"}
	for i, s := range statuses.Data {
		if s.Name != wantNames[i] {
			t.Errorf("status %d = %q, want %q", i, s.Name, wantNames[i])
		}
		if !s.IsCore {
			t.Errorf("seeded status %q should be core", s.Name)
		}
		if s.Order != i+1 {
			t.Errorf("status %q order = %d, want %d", s.Name, s.Order, i+1)
		}
	}

	board := f.eng.GetDefaultBoard(f.ctx, f.admin.ID, f.project.ID)
	wantKind(t, board, result.KindOK)
	if !board.Data.Board.IsDefault {
		t.Error("seeded board should be the default")
	}
	require.Len(t, board.Data.Columns, 4)
	for i, col := range board.Data.Columns {
		if col.StatusID != statuses.Data[i].ID {
			t.Errorf("column %d maps to status %s, want %s", i, col.StatusID, statuses.Data[i].ID)
		}
	}

	members := f.eng.ListMembers(f.ctx, f.admin.ID, f.project.ID)
	wantKind(t, members, result.KindOK)
	roles := map[string]types.ProjectRole{}
	for _, m := range members.Data {
		roles[m.UserID] = m.Role
	}
	if roles[f.admin.ID] != types.ProjectAdmin {
		t.Errorf("creator role = %s, want %s", roles[f.admin.ID], types.ProjectAdmin)
	}
	if roles[f.manager.ID] != types.ProjectManager {
		t.Errorf("manager role = %s, want %s", roles[f.manager.ID], types.ProjectManager)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	f := newFixture(t)

	// Key is upper-cased before validation.
	res := f.eng.CreateProject(f.ctx, f.admin.ID, CreateProjectInput{Name: "Gemini", Key: "gm"})
	wantKind(t, res, result.KindCreated)
	if res.Data.Key != "GM" {
		t.Errorf("key = %q, want GM", res.Data.Key)
	}

	wantKind(t, f.eng.CreateProject(f.ctx, f.admin.ID, CreateProjectInput{Name: "Bad", Key: "1X"}), result.KindBadRequest)
	wantKind(t, f.eng.CreateProject(f.ctx, f.admin.ID, CreateProjectInput{Key: "OK"}), result.KindBadRequest)

	// Keys are unique per company.
	wantKind(t, f.eng.CreateProject(f.ctx, f.admin.ID, CreateProjectInput{Name: "Clash", Key: "AP"}), result.KindBadRequest)

	// Members cannot create projects.
	wantKind(t, f.eng.CreateProject(f.ctx, f.member.ID, CreateProjectInput{Name: "Nope", Key: "NP"}), result.KindForbidden)

	// An unknown manager is rejected before anything is written.
	res = f.eng.CreateProject(f.ctx, f.admin.ID, CreateProjectInput{Name: "Argo", Key: "AR", ManagerID: "ghost"})
	wantKind(t, res, result.KindBadRequest)
	wantKind(t, f.eng.CreateProject(f.ctx, f.admin.ID, CreateProjectInput{Name: "Argo", Key: "AR"}), result.KindCreated)
}

func TestProjectTenancy(t *testing.T) {
	f := newFixture(t)
	rival := f.rival()

	// Existence never leaks across companies, even to a superadmin.
	wantKind(t, f.eng.GetProject(f.ctx, rival.ID, f.project.ID), result.KindNotFound)
	wantKind(t, f.eng.ListStatuses(f.ctx, rival.ID, f.project.ID), result.KindNotFound)
	wantKind(t, f.eng.UpdateProject(f.ctx, rival.ID, f.project.ID, UpdateProjectInput{}), result.KindNotFound)
	wantKind(t, f.eng.DeleteProject(f.ctx, rival.ID, f.project.ID), result.KindNotFound)
}

func TestListProjectsVisibility(t *testing.T) {
	f := newFixture(t)

	// A second project the member belongs to, and a third they do not.
	second := f.eng.CreateProject(f.ctx, f.admin.ID, CreateProjectInput{Name: "Gemini", Key: "GM"})
	wantKind(t, second, result.KindCreated)
	third := f.eng.CreateProject(f.ctx, f.admin.ID, CreateProjectInput{Name: "Orion", Key: "OR"})
	wantKind(t, third, result.KindCreated)
	res := f.eng.AddMember(f.ctx, f.admin.ID, second.Data.ID, f.member.ID, types.ProjectMember)
	wantKind(t, res, result.KindCreated)

	list := f.eng.ListProjects(f.ctx, f.member.ID)
	wantKind(t, list, result.KindOK)
	require.Len(t, list.Data, 1)
	if list.Data[0].ID != second.Data.ID {
		t.Errorf("member sees project %s, want %s", list.Data[0].ID, second.Data.ID)
	}

	// Managers see every company project.
	list = f.eng.ListProjects(f.ctx, f.manager.ID)
	wantKind(t, list, result.KindOK)
	require.Len(t, list.Data, 3)

	// A member inherits visibility of a direct report's projects.
	report := f.user("report@acme.test", types.RoleMember, f.member.ID)
	res = f.eng.AddMember(f.ctx, f.admin.ID, third.Data.ID, report.ID, types.ProjectMember)
	wantKind(t, res, result.KindCreated)
	list = f.eng.ListProjects(f.ctx, f.member.ID)
	wantKind(t, list, result.KindOK)
	require.Len(t, list.Data, 2)
}

func TestUpdateAndDeleteProject(t *testing.T) {
	f := newFixture(t)

	name := "Apollo II"
	active := false
	res := f.eng.UpdateProject(f.ctx, f.manager.ID, f.project.ID, UpdateProjectInput{Name: &name, IsActive: &active})
	wantKind(t, res, result.KindOK)
	if res.Data.Name != "Apollo II" || res.Data.IsActive {
		t.Errorf("unexpected project after update: %+v", res.Data)
	}

	// Manage rights are required: a plain member cannot update.
	f.addMember(f.member.ID, types.ProjectMember)
	wantKind(t, f.eng.UpdateProject(f.ctx, f.member.ID, f.project.ID, UpdateProjectInput{Name: &name}), result.KindForbidden)

	wantKind(t, f.eng.DeleteProject(f.ctx, f.admin.ID, f.project.ID), result.KindOK)
	wantKind(t, f.eng.GetProject(f.ctx, f.admin.ID, f.project.ID), result.KindNotFound)
	wantKind(t, f.eng.ListStatuses(f.ctx, f.admin.ID, f.project.ID), result.KindNotFound)
}

func TestMemberManagement(t *testing.T) {
	f := newFixture(t)

	res := f.eng.AddMember(f.ctx, f.manager.ID, f.project.ID, f.member.ID, types.ProjectMember)
	wantKind(t, res, result.KindCreated)
	wantKind(t, f.eng.AddMember(f.ctx, f.manager.ID, f.project.ID, f.member.ID, types.ProjectViewer), result.KindBadRequest)
	wantKind(t, f.eng.AddMember(f.ctx, f.manager.ID, f.project.ID, "ghost", types.ProjectMember), result.KindBadRequest)

	// A user from another company does not exist here.
	rival := f.rival()
	wantKind(t, f.eng.AddMember(f.ctx, f.manager.ID, f.project.ID, rival.ID, types.ProjectMember), result.KindBadRequest)

	res = f.eng.UpdateMemberRole(f.ctx, f.admin.ID, f.project.ID, f.member.ID, types.ProjectManager)
	wantKind(t, res, result.KindOK)
	if res.Data.Role != types.ProjectManager {
		t.Errorf("role = %s, want %s", res.Data.Role, types.ProjectManager)
	}

	wantKind(t, f.eng.RemoveMember(f.ctx, f.admin.ID, f.project.ID, f.member.ID), result.KindOK)
	wantKind(t, f.eng.RemoveMember(f.ctx, f.admin.ID, f.project.ID, f.member.ID), result.KindNotFound)
}

func TestLastProjectManagerGuard(t *testing.T) {
	f := newFixture(t)

	// A project whose only steward is its creator.
	res := f.eng.CreateProject(f.ctx, f.admin.ID, CreateProjectInput{Name: "Solo", Key: "SO"})
	wantKind(t, res, result.KindCreated)
	solo := res.Data

	down := f.eng.UpdateMemberRole(f.ctx, f.admin.ID, solo.ID, f.admin.ID, types.ProjectMember)
	wantKind(t, down, result.KindBadRequest)
	wantKind(t, f.eng.RemoveMember(f.ctx, f.admin.ID, solo.ID, f.admin.ID), result.KindBadRequest)

	// With a second manager aboard the demotion goes through.
	add := f.eng.AddMember(f.ctx, f.admin.ID, solo.ID, f.manager.ID, types.ProjectManager)
	wantKind(t, add, result.KindCreated)
	wantKind(t, f.eng.UpdateMemberRole(f.ctx, f.admin.ID, solo.ID, f.admin.ID, types.ProjectMember), result.KindOK)

	// A plain member whose system role is manager or above also counts
	// as a steward, so the sole project manager may leave.
	res = f.eng.CreateProject(f.ctx, f.admin.ID, CreateProjectInput{Name: "Duo", Key: "DU", ManagerID: f.manager.ID})
	wantKind(t, res, result.KindCreated)
	duo := res.Data
	wantKind(t, f.eng.RemoveMember(f.ctx, f.root.ID, duo.ID, f.admin.ID), result.KindOK)

	add = f.eng.AddMember(f.ctx, f.root.ID, duo.ID, f.member.ID, types.ProjectMember)
	wantKind(t, add, result.KindCreated)
	wantKind(t, f.eng.RemoveMember(f.ctx, f.root.ID, duo.ID, f.manager.ID), result.KindBadRequest)

	chief := f.user("chief@acme.test", types.RoleAdmin, "")
	add = f.eng.AddMember(f.ctx, f.root.ID, duo.ID, chief.ID, types.ProjectMember)
	wantKind(t, add, result.KindCreated)
	wantKind(t, f.eng.RemoveMember(f.ctx, f.root.ID, duo.ID, f.manager.ID), result.KindOK)
}
