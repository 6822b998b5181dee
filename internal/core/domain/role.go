package domain

import "strings"

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleFarm       Role = "farm"
	RoleFarmUser   Role = "farm_user"
	RoleConsultant Role = "consultant"
)

var knownRoles = map[Role]struct{}{
	RoleAdmin:      {},
	RoleUser:       {},
	RoleFarm:       {},
	RoleFarmUser:   {},
	RoleConsultant: {},
}

// ParseRole normalises s and reports whether it names a known role.
// An empty string parses as RoleUser.
func ParseRole(s string) (Role, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RoleUser, true
	}
	r := Role(s)
	_, ok := knownRoles[r]
	return r, ok
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := knownRoles[r]
	return ok
}

func (r Role) String() string { return string(r) }

// SelfRegistrable reports whether an account with this role may be created
// through public sign-up.
func (r Role) SelfRegistrable() bool {
	return r == RoleUser || r == RoleFarm || r == RoleConsultant
}
