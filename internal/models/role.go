package models

import "strings"

// Role is the closed set of account roles the platform knows about. The zero
// value is RoleNone, which never maps to a dashboard.
type Role int

const (
	RoleNone Role = iota
	RoleSuperAdmin
	RoleVendor
	RoleKoperasi
	RoleAffiliator
	RoleReseller
)

const DashboardRoot = "/dashboard"

// AllRoles lists every assignable role. The gate derives its protected
// prefixes from this list.
func AllRoles() []Role {
	return []Role{RoleSuperAdmin, RoleVendor, RoleKoperasi, RoleAffiliator, RoleReseller}
}

// ParseRole is exact and case-sensitive.
func ParseRole(value string) (Role, bool) {
	switch value {
	case "super_admin":
		return RoleSuperAdmin, true
	case "vendor":
		return RoleVendor, true
	case "koperasi":
		return RoleKoperasi, true
	case "affiliator":
		return RoleAffiliator, true
	case "reseller":
		return RoleReseller, true
	default:
		return RoleNone, false
	}
}

func (r Role) String() string {
	switch r {
	case RoleSuperAdmin:
		return "super_admin"
	case RoleVendor:
		return "vendor"
	case RoleKoperasi:
		return "koperasi"
	case RoleAffiliator:
		return "affiliator"
	case RoleReseller:
		return "reseller"
	default:
		return ""
	}
}

func (r Role) Valid() bool {
	return r.Segment() != ""
}

// Segment is the dashboard path segment owned by the role. Affiliators use the
// promotor section.
func (r Role) Segment() string {
	switch r {
	case RoleSuperAdmin:
		return "super_admin"
	case RoleVendor:
		return "vendor"
	case RoleKoperasi:
		return "koperasi"
	case RoleAffiliator:
		return "promotor"
	case RoleReseller:
		return "reseller"
	default:
		return ""
	}
}

// DashboardPath returns the canonical dashboard prefix, or "" for RoleNone.
func (r Role) DashboardPath() string {
	segment := r.Segment()
	if segment == "" {
		return ""
	}
	return DashboardRoot + "/" + segment
}

// RoleForSegment resolves a dashboard path segment back to its owning role.
func RoleForSegment(segment string) (Role, bool) {
	for _, role := range AllRoles() {
		if role.Segment() == segment {
			return role, true
		}
	}
	return RoleNone, false
}

// RoleForPath returns the role owning the dashboard section that path falls
// under, e.g. "/dashboard/promotor/links" resolves to RoleAffiliator.
func RoleForPath(path string) (Role, bool) {
	rest := strings.TrimPrefix(path, DashboardRoot+"/")
	if rest == path || rest == "" {
		return RoleNone, false
	}
	segment, _, _ := strings.Cut(rest, "/")
	return RoleForSegment(segment)
}
