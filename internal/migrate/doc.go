// Package migrate implements the repository migration workflow that lists a
// Bitbucket workspace, mirrors every repository to GitHub, applies access and
// protection policy, and removes the Bitbucket copy once the GitHub copy exists.
package migrate
