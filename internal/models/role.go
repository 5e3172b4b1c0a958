package models

// Role is fixed when the user is created.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleTenant Role = "tenant"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTenant
}
