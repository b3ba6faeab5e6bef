package migrate

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/temirov/repomove/internal/githubapi"
	"github.com/temirov/repomove/internal/gitrepo"
	textutils "github.com/temirov/repomove/internal/utils/text"
)

// Stage names in execution order.
const (
	FetchSourceStageName            = "fetch-source"
	NormalizeDefaultBranchStageName = "normalize-default-branch"
	PublishDestinationStageName     = "publish-destination"
	GrantTeamAccessStageName        = "grant-team-access"
	ProtectBranchesStageName        = "protect-branches"
	ArchiveStaleStageName           = "archive-stale"
	DecommissionSourceStageName     = "decommission-source"
)

// Branch names handled by the default branch normalization.
const (
	MainBranchName   = "main"
	MasterBranchName = "master"
)

const (
	placeholderFileNameConstant         = "README.md"
	placeholderContentConstant          = "# Restricted branch name"
	placeholderCommitMessageConstant    = "Initial commit"
	placeholderEmailTemplateConstant    = "%s@example.com"
	sourceURLErrorTemplateConstant      = "build source url: %w"
	destinationURLErrorTemplateConstant = "build destination url: %w"
	notOrganizationSkipReasonConstant   = "destination is not an organization"
	noTeamSkipReasonConstant            = "no team configured"
	recentlyUpdatedSkipReasonConstant   = "repository updated recently"
	processingRepositoryMessageConstant = "Processing repository"
	mainExistsSkipMessageConstant       = "Skipping branch rename: main already exists"
	masterMissingSkipMessageConstant    = "Skipping branch rename: master does not exist"
	branchRenamedMessageConstant        = "Renamed master to main"
	repositoryCreatedMessageConstant    = "Repository created on destination"
	mirrorPushedMessageConstant         = "All branches pushed to destination"
	teamGrantedMessageConstant          = "Write permissions granted"
	branchProtectedMessageConstant      = "Branch protected"
	repositoryArchivedMessageConstant   = "Repository archived"
	sourceDeletedMessageConstant        = "Source repository deleted"
	workingCopyRemovedMessageConstant   = "Working copy removed"
	destinationURLLogFieldConstant      = "destination_url"
	teamLogFieldConstant                = "team"
	branchLogFieldConstant              = "branch"
	updatedDaysAgoLogFieldConstant      = "updated_days_ago"
	workingDirectoryLogFieldConstant    = "working_directory"
)

// RepositoryTransport moves repository content between the hosts and the local working copy.
type RepositoryTransport interface {
	RemovePath(executionContext context.Context, path string) error
	CloneWorkingCopy(executionContext context.Context, remoteURL string, workingDirectory string) error
	BranchExists(executionContext context.Context, workingDirectory string, branch string) (bool, error)
	RenameBranchWithPlaceholder(executionContext context.Context, request gitrepo.PlaceholderRequest) error
	PushMirror(executionContext context.Context, workingDirectory string, remoteURL string) error
}

// SourceHost removes repositories from the source provider.
type SourceHost interface {
	DeleteRepository(executionContext context.Context, slug string, redirectTo string) error
}

// DestinationHost manages repositories on the destination provider.
type DestinationHost interface {
	CreateRepository(executionContext context.Context, creation githubapi.RepositoryCreation) (string, error)
	GrantTeamPermission(executionContext context.Context, organization string, teamSlug string, owner string, repository string, permission string) error
	ListBranchNames(executionContext context.Context, owner string, repository string) ([]string, error)
	ProtectBranch(executionContext context.Context, owner string, repository string, branch string, allowDeletion bool) error
	ArchiveRepository(executionContext context.Context, owner string, repository string) error
}

// StepSettings carries the run-wide values the steps need.
type StepSettings struct {
	SourceWebBaseURL       string
	SourceWorkspace        string
	SourceCredentials      gitrepo.RemoteCredentials
	DestinationCredentials gitrepo.RemoteCredentials
	Team                   string
}

// NewMigrationPipeline wires the seven migration stages.
func NewMigrationPipeline(transport RepositoryTransport, settings StepSettings, observer StageObserver) *Pipeline {
	identity := gitrepo.CommitIdentity{
		Name:  settings.DestinationCredentials.Username,
		Email: fmt.Sprintf(placeholderEmailTemplateConstant, settings.DestinationCredentials.Username),
	}

	preparation := []Step[PreparedRepository]{
		fetchSourceStep{transport: transport, settings: settings},
		normalizeDefaultBranchStep{transport: transport, identity: identity},
	}
	publication := publishDestinationStep{transport: transport, credentials: settings.DestinationCredentials}
	finalization := []Step[MigratedRepository]{
		grantTeamAccessStep{team: NormalizeTeam(settings.Team)},
		protectBranchesStep{},
		archiveStaleStep{},
		decommissionSourceStep{transport: transport},
	}
	return NewPipeline(preparation, publication, finalization, observer)
}

type fetchSourceStep struct {
	transport RepositoryTransport
	settings  StepSettings
}

func (fetchSourceStep) Name() string { return FetchSourceStageName }

func (step fetchSourceStep) Apply(executionContext context.Context, prepared PreparedRepository) (PreparedRepository, error) {
	sourceURL, urlError := gitrepo.BuildAuthenticatedRemoteURL(gitrepo.RemoteLocation{
		BaseURL:      step.settings.SourceWebBaseURL,
		PathSegments: []string{step.settings.SourceWorkspace, prepared.Slug},
		Credentials:  step.settings.SourceCredentials,
		SlugSuffix:   prepared.SlugSuffix,
	})
	if urlError != nil {
		return prepared, fmt.Errorf(sourceURLErrorTemplateConstant, urlError)
	}

	loggerOf(prepared).Debug(processingRepositoryMessageConstant, zap.Int(updatedDaysAgoLogFieldConstant, prepared.UpdatedDaysAgo), zap.String(workingDirectoryLogFieldConstant, prepared.WorkingDirectory))
	if removeError := step.transport.RemovePath(executionContext, prepared.WorkingDirectory); removeError != nil {
		return prepared, removeError
	}
	if cloneError := step.transport.CloneWorkingCopy(executionContext, sourceURL, prepared.WorkingDirectory); cloneError != nil {
		return prepared, cloneError
	}
	return prepared, nil
}

type normalizeDefaultBranchStep struct {
	transport RepositoryTransport
	identity  gitrepo.CommitIdentity
}

func (normalizeDefaultBranchStep) Name() string { return NormalizeDefaultBranchStageName }

func (step normalizeDefaultBranchStep) Apply(executionContext context.Context, prepared PreparedRepository) (PreparedRepository, error) {
	logger := loggerOf(prepared)

	mainExists, mainError := step.transport.BranchExists(executionContext, prepared.WorkingDirectory, MainBranchName)
	if mainError != nil {
		return prepared, mainError
	}
	if mainExists {
		logger.Debug(mainExistsSkipMessageConstant)
		return prepared, nil
	}

	masterExists, masterError := step.transport.BranchExists(executionContext, prepared.WorkingDirectory, MasterBranchName)
	if masterError != nil {
		return prepared, masterError
	}
	if !masterExists {
		logger.Debug(masterMissingSkipMessageConstant)
		return prepared, nil
	}

	renameError := step.transport.RenameBranchWithPlaceholder(executionContext, gitrepo.PlaceholderRequest{
		WorkingDirectory:    prepared.WorkingDirectory,
		SourceBranch:        MasterBranchName,
		TargetBranch:        MainBranchName,
		Identity:            step.identity,
		PlaceholderFileName: placeholderFileNameConstant,
		PlaceholderContent:  placeholderContentConstant,
		CommitMessage:       placeholderCommitMessageConstant,
	})
	if renameError != nil {
		return prepared, renameError
	}
	logger.Debug(branchRenamedMessageConstant)
	return prepared, nil
}

type publishDestinationStep struct {
	transport   RepositoryTransport
	credentials gitrepo.RemoteCredentials
}

func (publishDestinationStep) Name() string { return PublishDestinationStageName }

func (step publishDestinationStep) Apply(executionContext context.Context, prepared PreparedRepository) (MigratedRepository, error) {
	logger := loggerOf(prepared)

	ownerType := githubapi.UserOwnerType
	if prepared.OrganizationOwned {
		ownerType = githubapi.OrganizationOwnerType
	}
	destinationURL, createError := prepared.DestinationClient.CreateRepository(executionContext, githubapi.RepositoryCreation{
		Owner:       prepared.DestinationOwner,
		OwnerType:   ownerType,
		Name:        prepared.Slug,
		Description: textutils.StripControlCharacters(prepared.Description),
		Private:     prepared.Private,
	})
	if createError != nil {
		return MigratedRepository{}, createError
	}
	logger.Debug(repositoryCreatedMessageConstant, zap.String(destinationURLLogFieldConstant, destinationURL))

	pushURL, urlError := gitrepo.BuildAuthenticatedRemoteURL(gitrepo.RemoteLocation{
		BaseURL:     destinationURL,
		Credentials: step.credentials,
		SlugSuffix:  prepared.SlugSuffix,
	})
	if urlError != nil {
		return MigratedRepository{}, fmt.Errorf(destinationURLErrorTemplateConstant, urlError)
	}
	if pushError := step.transport.PushMirror(executionContext, prepared.WorkingDirectory, pushURL); pushError != nil {
		return MigratedRepository{}, pushError
	}
	logger.Debug(mirrorPushedMessageConstant)

	return MigratedRepository{PreparedRepository: prepared, DestinationURL: destinationURL}, nil
}

type grantTeamAccessStep struct {
	team string
}

func (grantTeamAccessStep) Name() string { return GrantTeamAccessStageName }

func (step grantTeamAccessStep) SkipReason(migrated MigratedRepository) string {
	if !migrated.OrganizationOwned {
		return notOrganizationSkipReasonConstant
	}
	if !teamConfigured(step.team) {
		return noTeamSkipReasonConstant
	}
	return ""
}

func (step grantTeamAccessStep) Apply(executionContext context.Context, migrated MigratedRepository) (MigratedRepository, error) {
	grantError := migrated.DestinationClient.GrantTeamPermission(executionContext, migrated.DestinationOwner, step.team, migrated.DestinationOwner, migrated.Slug, githubapi.PushPermission)
	if grantError != nil {
		return migrated, grantError
	}
	loggerOf(migrated.PreparedRepository).Debug(teamGrantedMessageConstant, zap.String(teamLogFieldConstant, step.team))
	return migrated, nil
}

type protectBranchesStep struct{}

func (protectBranchesStep) Name() string { return ProtectBranchesStageName }

func (protectBranchesStep) SkipReason(migrated MigratedRepository) string {
	if !migrated.OrganizationOwned {
		return notOrganizationSkipReasonConstant
	}
	return ""
}

func (protectBranchesStep) Apply(executionContext context.Context, migrated MigratedRepository) (MigratedRepository, error) {
	branchNames, listError := migrated.DestinationClient.ListBranchNames(executionContext, migrated.DestinationOwner, migrated.Slug)
	if listError != nil {
		return migrated, listError
	}

	protections := []struct {
		branch        string
		allowDeletion bool
	}{
		{branch: MainBranchName, allowDeletion: false},
		{branch: MasterBranchName, allowDeletion: true},
	}
	for _, protection := range protections {
		if !slices.Contains(branchNames, protection.branch) {
			continue
		}
		if protectError := migrated.DestinationClient.ProtectBranch(executionContext, migrated.DestinationOwner, migrated.Slug, protection.branch, protection.allowDeletion); protectError != nil {
			return migrated, protectError
		}
		loggerOf(migrated.PreparedRepository).Debug(branchProtectedMessageConstant, zap.String(branchLogFieldConstant, protection.branch))
	}
	return migrated, nil
}

type archiveStaleStep struct{}

func (archiveStaleStep) Name() string { return ArchiveStaleStageName }

func (archiveStaleStep) SkipReason(migrated MigratedRepository) string {
	if !migrated.ShouldArchive {
		return recentlyUpdatedSkipReasonConstant
	}
	return ""
}

func (archiveStaleStep) Apply(executionContext context.Context, migrated MigratedRepository) (MigratedRepository, error) {
	if archiveError := migrated.DestinationClient.ArchiveRepository(executionContext, migrated.DestinationOwner, migrated.Slug); archiveError != nil {
		return migrated, archiveError
	}
	loggerOf(migrated.PreparedRepository).Debug(repositoryArchivedMessageConstant, zap.Int(updatedDaysAgoLogFieldConstant, migrated.UpdatedDaysAgo))
	return migrated, nil
}

type decommissionSourceStep struct {
	transport RepositoryTransport
}

func (decommissionSourceStep) Name() string { return DecommissionSourceStageName }

// Apply removes the working copy even when the source deletion fails.
func (step decommissionSourceStep) Apply(executionContext context.Context, migrated MigratedRepository) (MigratedRepository, error) {
	logger := loggerOf(migrated.PreparedRepository)

	deleteError := migrated.SourceClient.DeleteRepository(executionContext, migrated.Slug, migrated.DestinationURL)
	if deleteError == nil {
		logger.Debug(sourceDeletedMessageConstant)
	}

	removeError := step.transport.RemovePath(context.WithoutCancel(executionContext), migrated.WorkingDirectory)
	if removeError == nil {
		logger.Debug(workingCopyRemovedMessageConstant)
	}

	return migrated, errors.Join(deleteError, removeError)
}
