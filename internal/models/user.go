package models

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u User) ParsedRole() Role {
	role, _ := ParseRole(u.Role)
	return role
}
