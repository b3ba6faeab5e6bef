package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/temirov/repomove/internal/execshell"
)

const (
	gitDirectoryNameConstant             = ".git"
	gitCloneSubcommandConstant           = "clone"
	gitConfigSubcommandConstant          = "config"
	gitResetSubcommandConstant           = "reset"
	gitShowRefSubcommandConstant         = "show-ref"
	gitBranchSubcommandConstant          = "branch"
	gitCheckoutSubcommandConstant        = "checkout"
	gitCleanSubcommandConstant           = "clean"
	gitAddSubcommandConstant             = "add"
	gitCommitSubcommandConstant          = "commit"
	gitPushSubcommandConstant            = "push"
	gitQuietFlagConstant                 = "--quiet"
	gitBareFlagConstant                  = "--bare"
	gitBoolFlagConstant                  = "--bool"
	gitHardFlagConstant                  = "--hard"
	gitVerifyFlagConstant                = "--verify"
	gitMoveFlagConstant                  = "-m"
	gitMessageFlagConstant               = "-m"
	gitOrphanFlagConstant                = "--orphan"
	gitForceFlagConstant                 = "-f"
	gitCleanAllFlagsConstant             = "-xdf"
	gitMirrorFlagConstant                = "--mirror"
	gitCoreBareKeyConstant               = "core.bare"
	gitFalseValueConstant                = "false"
	gitUserEmailKeyConstant              = "user.email"
	gitUserNameKeyConstant               = "user.name"
	gitHeadsReferencePrefixConstant      = "refs/heads/"
	removeRecursiveForceFlagConstant     = "-rf"
	showRefMissingExitCodeConstant       = 1
	placeholderFilePermissionsConstant   = 0o644
	placeholderLineTerminatorConstant    = "\n"
	managerErrorTemplateConstant         = "%s: %w"
	removePathOperationConstant          = "remove path"
	cloneOperationConstant               = "clone working copy"
	branchExistsOperationConstant        = "check branch"
	renameBranchOperationConstant        = "rename branch"
	writePlaceholderOperationConstant    = "write placeholder"
	pushMirrorOperationConstant          = "push mirror"
	emptyWorkingDirectoryMessageConstant = "working directory must be provided"
	emptyRemoteURLMessageConstant        = "remote url must be provided"
	emptyBranchNameMessageConstant       = "branch name must be provided"
)

// ErrGitExecutorNotConfigured indicates a manager was constructed without an executor.
var ErrGitExecutorNotConfigured = errors.New("gitrepo: git executor not configured")

// GitExecutor runs git and rm on behalf of the manager.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteRemove(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// InvalidInputError reports a missing argument.
type InvalidInputError struct {
	Message string
}

// Error returns the validation message.
func (inputError InvalidInputError) Error() string {
	return inputError.Message
}

// CommitIdentity names the author of commits created by the manager.
type CommitIdentity struct {
	Name  string
	Email string
}

// PlaceholderRequest describes a branch rename that leaves an orphan placeholder behind.
type PlaceholderRequest struct {
	WorkingDirectory    string
	SourceBranch        string
	TargetBranch        string
	Identity            CommitIdentity
	PlaceholderFileName string
	PlaceholderContent  string
	CommitMessage       string
}

// RepositoryManager performs working-copy operations through git.
type RepositoryManager struct {
	executor   GitExecutor
	fileSystem FileSystem
}

// NewRepositoryManager constructs a manager backed by the operating system filesystem.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	return NewRepositoryManagerWithFileSystem(executor, OSFileSystem{})
}

// NewRepositoryManagerWithFileSystem constructs a manager with an explicit filesystem.
func NewRepositoryManagerWithFileSystem(executor GitExecutor, fileSystem FileSystem) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if fileSystem == nil {
		fileSystem = OSFileSystem{}
	}
	return &RepositoryManager{executor: executor, fileSystem: fileSystem}, nil
}

// RemovePath deletes a directory tree; a missing path is not an error.
func (manager *RepositoryManager) RemovePath(executionContext context.Context, path string) error {
	if len(path) == 0 {
		return InvalidInputError{Message: emptyWorkingDirectoryMessageConstant}
	}
	_, removeError := manager.executor.ExecuteRemove(executionContext, execshell.CommandDetails{
		Arguments: []string{removeRecursiveForceFlagConstant, path},
	})
	if removeError != nil {
		return fmt.Errorf(managerErrorTemplateConstant, removePathOperationConstant, removeError)
	}
	return nil
}

// CloneWorkingCopy clones every reference of remoteURL as a bare repository stored at
// <workingDirectory>/.git and converts it into a checked out working tree.
func (manager *RepositoryManager) CloneWorkingCopy(executionContext context.Context, remoteURL string, workingDirectory string) error {
	if len(remoteURL) == 0 {
		return InvalidInputError{Message: emptyRemoteURLMessageConstant}
	}
	if len(workingDirectory) == 0 {
		return InvalidInputError{Message: emptyWorkingDirectoryMessageConstant}
	}

	steps := []execshell.CommandDetails{
		{Arguments: []string{gitCloneSubcommandConstant, gitQuietFlagConstant, gitBareFlagConstant, remoteURL, filepath.Join(workingDirectory, gitDirectoryNameConstant)}},
		{Arguments: []string{gitConfigSubcommandConstant, gitBoolFlagConstant, gitCoreBareKeyConstant, gitFalseValueConstant}, WorkingDirectory: workingDirectory},
		{Arguments: []string{gitResetSubcommandConstant, gitQuietFlagConstant, gitHardFlagConstant}, WorkingDirectory: workingDirectory},
	}
	return manager.runSequence(executionContext, cloneOperationConstant, steps)
}

// BranchExists reports whether refs/heads/<branch> exists in the working copy.
func (manager *RepositoryManager) BranchExists(executionContext context.Context, workingDirectory string, branch string) (bool, error) {
	if len(workingDirectory) == 0 {
		return false, InvalidInputError{Message: emptyWorkingDirectoryMessageConstant}
	}
	if len(branch) == 0 {
		return false, InvalidInputError{Message: emptyBranchNameMessageConstant}
	}

	_, showError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitShowRefSubcommandConstant, gitVerifyFlagConstant, gitQuietFlagConstant, gitHeadsReferencePrefixConstant + branch},
		WorkingDirectory: workingDirectory,
	})
	if showError == nil {
		return true, nil
	}

	var failedError execshell.CommandFailedError
	if errors.As(showError, &failedError) && failedError.Result.ExitCode == showRefMissingExitCodeConstant {
		return false, nil
	}
	return false, fmt.Errorf(managerErrorTemplateConstant, branchExistsOperationConstant, showError)
}

// RenameBranchWithPlaceholder renames SourceBranch to TargetBranch, recreates SourceBranch as an
// orphan holding a single placeholder commit, and checks TargetBranch out again.
func (manager *RepositoryManager) RenameBranchWithPlaceholder(executionContext context.Context, request PlaceholderRequest) error {
	if len(request.WorkingDirectory) == 0 {
		return InvalidInputError{Message: emptyWorkingDirectoryMessageConstant}
	}
	if len(request.SourceBranch) == 0 || len(request.TargetBranch) == 0 {
		return InvalidInputError{Message: emptyBranchNameMessageConstant}
	}

	workingDirectory := request.WorkingDirectory
	preparation := []execshell.CommandDetails{
		{Arguments: []string{gitBranchSubcommandConstant, gitMoveFlagConstant, request.SourceBranch, request.TargetBranch}, WorkingDirectory: workingDirectory},
		{Arguments: []string{gitConfigSubcommandConstant, gitUserEmailKeyConstant, request.Identity.Email}, WorkingDirectory: workingDirectory},
		{Arguments: []string{gitConfigSubcommandConstant, gitUserNameKeyConstant, request.Identity.Name}, WorkingDirectory: workingDirectory},
		{Arguments: []string{gitCheckoutSubcommandConstant, gitOrphanFlagConstant, request.SourceBranch}, WorkingDirectory: workingDirectory},
		{Arguments: []string{gitResetSubcommandConstant, gitQuietFlagConstant, gitHardFlagConstant}, WorkingDirectory: workingDirectory},
		{Arguments: []string{gitCleanSubcommandConstant, gitCleanAllFlagsConstant, gitQuietFlagConstant}, WorkingDirectory: workingDirectory},
	}
	if sequenceError := manager.runSequence(executionContext, renameBranchOperationConstant, preparation); sequenceError != nil {
		return sequenceError
	}

	placeholderPath := filepath.Join(workingDirectory, request.PlaceholderFileName)
	placeholderContent := []byte(request.PlaceholderContent + placeholderLineTerminatorConstant)
	if writeError := manager.fileSystem.WriteFile(placeholderPath, placeholderContent, placeholderFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(managerErrorTemplateConstant, writePlaceholderOperationConstant, writeError)
	}

	completion := []execshell.CommandDetails{
		{Arguments: []string{gitAddSubcommandConstant, request.PlaceholderFileName}, WorkingDirectory: workingDirectory},
		{Arguments: []string{gitCommitSubcommandConstant, gitQuietFlagConstant, gitMessageFlagConstant, request.CommitMessage}, WorkingDirectory: workingDirectory},
		{Arguments: []string{gitCheckoutSubcommandConstant, gitForceFlagConstant, request.TargetBranch}, WorkingDirectory: workingDirectory},
	}
	return manager.runSequence(executionContext, renameBranchOperationConstant, completion)
}

// PushMirror pushes every reference of the working copy to remoteURL.
func (manager *RepositoryManager) PushMirror(executionContext context.Context, workingDirectory string, remoteURL string) error {
	if len(workingDirectory) == 0 {
		return InvalidInputError{Message: emptyWorkingDirectoryMessageConstant}
	}
	if len(remoteURL) == 0 {
		return InvalidInputError{Message: emptyRemoteURLMessageConstant}
	}
	return manager.runSequence(executionContext, pushMirrorOperationConstant, []execshell.CommandDetails{
		{Arguments: []string{gitPushSubcommandConstant, gitQuietFlagConstant, gitMirrorFlagConstant, remoteURL}, WorkingDirectory: workingDirectory},
	})
}

func (manager *RepositoryManager) runSequence(executionContext context.Context, operation string, steps []execshell.CommandDetails) error {
	for _, details := range steps {
		if _, executionError := manager.executor.ExecuteGit(executionContext, details); executionError != nil {
			return fmt.Errorf(managerErrorTemplateConstant, operation, executionError)
		}
	}
	return nil
}
