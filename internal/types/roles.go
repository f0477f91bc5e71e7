package types

// SystemRole is a user's company-wide role.
type SystemRole string

// System role constants
const (
	RoleMember     SystemRole = "member"
	RoleQA         SystemRole = "qa"
	RoleManager    SystemRole = "manager"
	RoleAdmin      SystemRole = "admin"
	RoleSuperAdmin SystemRole = "superadmin"
)

// IsValid checks if the system role value is valid
func (r SystemRole) IsValid() bool {
	switch r {
	case RoleMember, RoleQA, RoleManager, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Rank returns the role's position in the ordering
// Member < QA < Manager < Admin < SuperAdmin. The ordering contract
// lives here, not in declaration order, so it is testable on its own.
// Unknown roles rank below Member.
func (r SystemRole) Rank() int {
	switch r {
	case RoleMember:
		return 1
	case RoleQA:
		return 2
	case RoleManager:
		return 3
	case RoleAdmin:
		return 4
	case RoleSuperAdmin:
		return 5
	}
	return 0
}

// AtLeast reports whether r ranks at or above other.
func (r SystemRole) AtLeast(other SystemRole) bool {
	return r.Rank() >= other.Rank()
}

// RequiresManager reports whether users with this role must have a
// manager assigned at creation.
func (r SystemRole) RequiresManager() bool {
	return r == RoleMember || r == RoleQA
}

// ProjectRole is a user's role within a single project.
type ProjectRole string

// Project role constants
const (
	ProjectViewer  ProjectRole = "viewer"
	ProjectMember  ProjectRole = "member"
	ProjectManager ProjectRole = "manager"
	ProjectAdmin   ProjectRole = "admin"
)

// IsValid checks if the project role value is valid
func (r ProjectRole) IsValid() bool {
	switch r {
	case ProjectViewer, ProjectMember, ProjectManager, ProjectAdmin:
		return true
	}
	return false
}

// Rank returns the role's position in the ordering
// Viewer < Member < Manager < Admin. Unknown roles rank below Viewer.
func (r ProjectRole) Rank() int {
	switch r {
	case ProjectViewer:
		return 1
	case ProjectMember:
		return 2
	case ProjectManager:
		return 3
	case ProjectAdmin:
		return 4
	}
	return 0
}

// AtLeast reports whether r ranks at or above other.
func (r ProjectRole) AtLeast(other ProjectRole) bool {
	return r.Rank() >= other.Rank()
}
