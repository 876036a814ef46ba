package models

type Session struct {
	Token   string `json:"-"`
	Role    Role   `json:"-"`
	RoleRaw string `json:"role"`
	UserID  string `json:"user_id"`
}

// Authenticated reports whether an access token is present. A token without a
// known role is still authenticated but has no dashboard.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

func (s Session) HasRole() bool {
	return s.Authenticated() && s.Role.Valid()
}
