package auth

// UserRole is the user's role. The set is closed: route allow lists are
// declared against these constants, never against free form strings.
type UserRole string

const (
	// RoleStudent is the default role for self registered and OAuth accounts
	RoleStudent UserRole = "student"
	// RoleModerator can review and approve submitted sessions
	RoleModerator UserRole = "moderator"
	// RoleAdmin has full access to the platform
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleStudent, RoleModerator, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAtLeast checks if the role meets the minimum required level
func (r UserRole) IsAtLeast(minRole UserRole) bool {
	roleHierarchy := map[UserRole]int{
		RoleStudent:   0,
		RoleModerator: 1,
		RoleAdmin:     2,
	}

	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// In reports whether the role appears in the given allow list.
func (r UserRole) In(allowed ...UserRole) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleStudent,
		RoleModerator,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}
