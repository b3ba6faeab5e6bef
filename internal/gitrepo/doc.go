// Package gitrepo drives the git command line on local working copies.
//
// RepositoryManager clones a remote as a bare mirror and converts it into a
// working tree, tests branch existence, replaces a restricted branch name with
// a placeholder orphan commit, and mirrors every reference to a new remote.
// BuildAuthenticatedRemoteURL produces the credentialed HTTPS remotes those
// operations consume.
package gitrepo
