package testsupport

import (
	"context"
	"fmt"
	"iter"
	"os"
	"slices"

	"github.com/temirov/repomove/internal/bitbucket"
	"github.com/temirov/repomove/internal/githubapi"
	"github.com/temirov/repomove/internal/gitrepo"
)

// CallLog records operations across stubs in invocation order.
type CallLog struct {
	Entries []string
}

// Add appends a formatted entry.
func (log *CallLog) Add(format string, arguments ...any) {
	if log == nil {
		return
	}
	log.Entries = append(log.Entries, fmt.Sprintf(format, arguments...))
}

// SourceStub serves a fixed repository listing and records deletions.
type SourceStub struct {
	Log          *CallLog
	Summaries    []bitbucket.RepositorySummary
	ListingError error
	DeleteErrors map[string]error
	Requested    int
}

// Repositories yields the configured summaries and then the listing error, if any.
func (source *SourceStub) Repositories(_ context.Context) iter.Seq2[bitbucket.RepositorySummary, error] {
	return func(yield func(bitbucket.RepositorySummary, error) bool) {
		for _, summary := range source.Summaries {
			source.Requested++
			if !yield(summary, nil) {
				return
			}
		}
		if source.ListingError != nil {
			yield(bitbucket.RepositorySummary{}, source.ListingError)
		}
	}
}

// DeleteRepository records the deletion and returns the configured error for slug.
func (source *SourceStub) DeleteRepository(_ context.Context, slug string, redirectTo string) error {
	source.Log.Add("delete %s redirect=%s", slug, redirectTo)
	return source.DeleteErrors[slug]
}

// DestinationStub records GitHub operations.
type DestinationStub struct {
	Log             *CallLog
	HTMLURLTemplate string
	Branches        map[string][]string
	CreateErrors    map[string]error
	Created         []githubapi.RepositoryCreation
}

// CreateRepository records the creation and returns a URL built from HTMLURLTemplate.
func (destination *DestinationStub) CreateRepository(_ context.Context, creation githubapi.RepositoryCreation) (string, error) {
	destination.Log.Add("create %s/%s", creation.Owner, creation.Name)
	destination.Created = append(destination.Created, creation)
	if createError := destination.CreateErrors[creation.Name]; createError != nil {
		return "", createError
	}
	return fmt.Sprintf(destination.HTMLURLTemplate, creation.Owner, creation.Name), nil
}

// GrantTeamPermission records the grant.
func (destination *DestinationStub) GrantTeamPermission(_ context.Context, organization string, teamSlug string, owner string, repository string, permission string) error {
	destination.Log.Add("grant %s/%s %s/%s %s", organization, teamSlug, owner, repository, permission)
	return nil
}

// ListBranchNames returns the configured branches of repository.
func (destination *DestinationStub) ListBranchNames(_ context.Context, owner string, repository string) ([]string, error) {
	destination.Log.Add("list-branches %s/%s", owner, repository)
	return slices.Clone(destination.Branches[repository]), nil
}

// ProtectBranch records the protection request.
func (destination *DestinationStub) ProtectBranch(_ context.Context, owner string, repository string, branch string, allowDeletion bool) error {
	destination.Log.Add("protect %s/%s %s allow_deletion=%t", owner, repository, branch, allowDeletion)
	return nil
}

// ArchiveRepository records the archive request.
func (destination *DestinationStub) ArchiveRepository(_ context.Context, owner string, repository string) error {
	destination.Log.Add("archive %s/%s", owner, repository)
	return nil
}

// TransportStub emulates git working copies with plain directories and an in-memory branch set.
type TransportStub struct {
	Log      *CallLog
	Branches map[string][]string
	Failures map[string]error
}

// RemovePath deletes path from disk.
func (transport *TransportStub) RemovePath(_ context.Context, path string) error {
	transport.Log.Add("rm %s", path)
	if failure := transport.Failures["rm"]; failure != nil {
		return failure
	}
	return os.RemoveAll(path)
}

// CloneWorkingCopy creates the working directory.
func (transport *TransportStub) CloneWorkingCopy(_ context.Context, remoteURL string, workingDirectory string) error {
	transport.Log.Add("clone %s %s", remoteURL, workingDirectory)
	if failure := transport.Failures["clone"]; failure != nil {
		return failure
	}
	return os.MkdirAll(workingDirectory, 0o755)
}

// BranchExists consults the in-memory branch set.
func (transport *TransportStub) BranchExists(_ context.Context, workingDirectory string, branch string) (bool, error) {
	transport.Log.Add("branch-exists %s", branch)
	return slices.Contains(transport.Branches[workingDirectory], branch), nil
}

// RenameBranchWithPlaceholder renames the source branch and recreates it as a placeholder.
func (transport *TransportStub) RenameBranchWithPlaceholder(_ context.Context, request gitrepo.PlaceholderRequest) error {
	transport.Log.Add("rename %s->%s as %s <%s>", request.SourceBranch, request.TargetBranch, request.Identity.Name, request.Identity.Email)
	if transport.Branches == nil {
		transport.Branches = map[string][]string{}
	}
	transport.Branches[request.WorkingDirectory] = append(transport.Branches[request.WorkingDirectory], request.TargetBranch)
	return nil
}

// PushMirror records the push.
func (transport *TransportStub) PushMirror(_ context.Context, _ string, remoteURL string) error {
	transport.Log.Add("push %s", remoteURL)
	if failure := transport.Failures["push"]; failure != nil {
		return failure
	}
	return nil
}
