package types

import "testing"

func TestSystemRoleRank(t *testing.T) {
	ordered := []SystemRole{RoleMember, RoleQA, RoleManager, RoleAdmin, RoleSuperAdmin}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Errorf("expected %s to rank below %s", ordered[i-1], ordered[i])
		}
	}
	if SystemRole("intern").Rank() != 0 {
		t.Errorf("unknown role should rank 0, got %d", SystemRole("intern").Rank())
	}
}

func TestSystemRoleAtLeast(t *testing.T) {
	tests := []struct {
		r, other SystemRole
		want     bool
	}{
		{RoleAdmin, RoleManager, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleManager, RoleAdmin, false},
		{RoleQA, RoleMember, true},
		{RoleMember, RoleQA, false},
		{RoleSuperAdmin, RoleAdmin, true},
	}
	for _, tt := range tests {
		if got := tt.r.AtLeast(tt.other); got != tt.want {
			t.Errorf("%s.AtLeast(%s) = %v, want %v", tt.r, tt.other, got, tt.want)
		}
	}
}

func TestSystemRoleRequiresManager(t *testing.T) {
	tests := []struct {
		role SystemRole
		want bool
	}{
		{RoleMember, true},
		{RoleQA, true},
		{RoleManager, false},
		{RoleAdmin, false},
		{RoleSuperAdmin, false},
	}
	for _, tt := range tests {
		if got := tt.role.RequiresManager(); got != tt.want {
			t.Errorf("%s.RequiresManager() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestSystemRoleIsValid(t *testing.T) {
	for _, r := range []SystemRole{RoleMember, RoleQA, RoleManager, RoleAdmin, RoleSuperAdmin} {
		if !r.IsValid() {
			t.Errorf("%s should be valid", r)
		}
	}
	for _, r := range []SystemRole{"", "root", "Member"} {
		if r.IsValid() {
			t.Errorf("%q should be invalid", r)
		}
	}
}

func TestProjectRoleRank(t *testing.T) {
	ordered := []ProjectRole{ProjectViewer, ProjectMember, ProjectManager, ProjectAdmin}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Errorf("expected %s to rank below %s", ordered[i-1], ordered[i])
		}
	}
	if !ProjectAdmin.AtLeast(ProjectManager) {
		t.Error("project admin should rank at least manager")
	}
	if ProjectMember.AtLeast(ProjectManager) {
		t.Error("project member should not rank at least manager")
	}
}
