package githubapi

import "strings"

// OwnerType distinguishes repositories owned by the authenticated user from organization repositories.
type OwnerType string

const (
	// UserOwnerType identifies repositories owned by the authenticated user.
	UserOwnerType         OwnerType = "user"
	// OrganizationOwnerType identifies organization-owned repositories.
	OrganizationOwnerType OwnerType = "org"
)

// ResolveOwnerType treats a workspace that differs from the authenticated username as an organization.
func ResolveOwnerType(workspace string, username string) OwnerType {
	if strings.TrimSpace(workspace) != strings.TrimSpace(username) {
		return OrganizationOwnerType
	}
	return UserOwnerType
}

// IsOrganization reports whether the owner is an organization.
func (ownerType OwnerType) IsOrganization() bool {
	return ownerType == OrganizationOwnerType
}
