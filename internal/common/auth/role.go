package auth

// Role is the account-level role resolved from an access token.
type Role string

const (
	RoleGuest Role = "guest"
	RoleHost  Role = "host"
	RoleBoth  Role = "both"
)

// IsValid returns true if the role is one of the recognised roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleGuest, RoleHost, RoleBoth:
		return true
	}
	return false
}

// CanHost reports whether the role may act as a listing host.
func (r Role) CanHost() bool {
	return r == RoleHost || r == RoleBoth
}
