// Package githubapi wraps the GitHub REST API calls used to publish migrated
// repositories: creation under a user or an organization, team grants, branch
// listing and protection, and archiving.
package githubapi
