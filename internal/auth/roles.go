package auth

import "strings"

// Built-in role labels.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// legacyRolePrefix is the prefix older account rows carry ("ROLE_ADMIN").
const legacyRolePrefix = "ROLE_"

// NormalizeRoles trims the legacy prefix, upper-cases, and drops blanks and
// duplicates while preserving the original order.
func NormalizeRoles(roles []string) []string {
	if len(roles) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(roles))
	normalized := make([]string, 0, len(roles))
	for _, role := range roles {
		role = strings.ToUpper(strings.TrimSpace(role))
		role = strings.TrimPrefix(role, legacyRolePrefix)
		if role == "" {
			continue
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		normalized = append(normalized, role)
	}
	return normalized
}
