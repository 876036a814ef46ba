package gate

import "koperasihub/internal/models"

// SectionCheck is the display-time result for a dashboard section. It is not a
// security boundary; the routing gate is.
type SectionCheck struct {
	Allowed  bool
	Required models.Role
	// Home is the caller's own dashboard, or the login page when the caller
	// has no usable role.
	Home string
}

// CheckSection compares the hydrated identity with the role owning the
// dashboard section that path belongs to. Paths outside any section are
// allowed.
func CheckSection(path string, user models.User, hydrated bool) SectionCheck {
	required, ok := models.RoleForPath(path)
	if !ok {
		return SectionCheck{Allowed: true}
	}
	check := SectionCheck{Required: required, Home: LoginPath}
	if !hydrated {
		return check
	}
	own := user.ParsedRole()
	if own.Valid() {
		check.Home = own.DashboardPath()
	}
	check.Allowed = own == required
	return check
}
