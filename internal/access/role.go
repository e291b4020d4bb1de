package access

import "strings"

// Role enumerates the identities the platform knows about.
type Role string

// Supported roles. Anything else is treated as RoleApplicant.
const (
	RoleApplicant       Role = "applicant"
	RolePanelist        Role = "panelist"
	RoleRecruitingAdmin Role = "recruiting_admin"
	RoleSuperAdmin      Role = "super_admin"
)

// Role-home dashboards.
const (
	HomeApplicant  = "/dashboard"
	HomePanelist   = "/panelist"
	HomeAdmin      = "/admin"
	HomeSuperAdmin = "/super-admin"
)

// ParseRole maps a free-form role claim onto the closed Role set. Unknown or
// empty claims resolve to the least privileged role.
func ParseRole(claim string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(claim))) {
	case RolePanelist:
		return RolePanelist
	case RoleRecruitingAdmin:
		return RoleRecruitingAdmin
	case RoleSuperAdmin:
		return RoleSuperAdmin
	default:
		return RoleApplicant
	}
}

// Home returns the dashboard path for the role.
func (r Role) Home() string {
	return RoleHome(string(r))
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsAdmin reports whether the role may manage jobs and candidates.
func (r Role) IsAdmin() bool {
	return r == RoleRecruitingAdmin || r == RoleSuperAdmin
}

// RoleHome returns the dashboard for an arbitrary role claim.
func RoleHome(claim string) string {
	switch Role(strings.ToLower(strings.TrimSpace(claim))) {
	case RoleRecruitingAdmin:
		return HomeAdmin
	case RolePanelist:
		return HomePanelist
	case RoleSuperAdmin:
		return HomeSuperAdmin
	default:
		return HomeApplicant
	}
}

// Identity is the resolved caller of a request.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
