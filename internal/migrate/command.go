package migrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repomove/internal/bitbucket"
	"github.com/temirov/repomove/internal/execshell"
	"github.com/temirov/repomove/internal/githubapi"
	"github.com/temirov/repomove/internal/githubauth"
	"github.com/temirov/repomove/internal/gitrepo"
	"github.com/temirov/repomove/internal/journal"
	"github.com/temirov/repomove/internal/utils"
)

const (
	commandUseConstant                             = "migrate"
	commandShortDescriptionConstant                = "Migrate Bitbucket repositories to GitHub"
	commandLongDescriptionConstant                 = "migrate lists the repositories of a Bitbucket workspace, mirrors each one to GitHub, applies team access, branch protection and archiving, and deletes the Bitbucket copy once the GitHub copy is live. Repositories are processed one at a time and the first failure stops the run."
	dryRunFlagNameConstant                         = "dry-run"
	dryRunFlagUsageConstant                        = "List the repositories that would be migrated without changing anything"
	excludeFlagNameConstant                        = "exclude"
	excludeFlagUsageConstant                       = "Repository slugs to skip (repeatable or comma separated)"
	maxRepositoriesFlagNameConstant                = "max-repositories"
	maxRepositoriesFlagUsageConstant               = "Maximum number of repositories to process"
	runIdentifierLogFieldConstant                  = "run_id"
	workspaceLogFieldConstant                      = "workspace"
	journalPathLogFieldConstant                    = "journal"
	lockPathLogFieldConstant                       = "lock"
	workingRootLockedMessageConstant               = "Working root locked"
	journalOpenedMessageConstant                   = "Journal opened"
	dryRunCompletedMessageConstant                 = "Dry run completed"
	plannedCountLogFieldConstant                   = "planned"
	lockReleaseFailedMessageConstant               = "Working root lock release failed"
	journalFinishFailedMessageConstant             = "Journal run finalization failed"
	journalCloseFailedMessageConstant              = "Journal close failed"
	sourceClientCreationErrorTemplateConstant      = "unable to construct Bitbucket client: %w"
	destinationClientCreationErrorTemplateConstant = "unable to construct GitHub client: %w"
	repositoryManagerCreationErrorTemplateConstant = "unable to construct repository manager: %w"
	journalOpenErrorTemplateConstant               = "unable to open journal: %w"
	journalStartErrorTemplateConstant              = "unable to record run start: %w"
	migrationRunErrorTemplateConstant              = "migration failed: %w"
	configurationSourcesMessageConstant            = "Configuration sources"
	configurationFileLogFieldConstant              = "config_file"
	environmentFileLogFieldConstant                = "env_file"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// SourceClient lists and deletes source repositories.
type SourceClient interface {
	RepositorySource
	SourceHost
}

// SourceClientFactory builds the source client for a run.
type SourceClientFactory func(configuration CommandConfiguration, logger *zap.Logger) (SourceClient, error)

// DestinationClientFactory builds the destination client for a run.
type DestinationClientFactory func(executionContext context.Context, configuration CommandConfiguration, logger *zap.Logger) (DestinationHost, error)

type commandOptions struct {
	dryRun        bool
	configuration CommandConfiguration
}

// CommandBuilder assembles the migrate Cobra command.
type CommandBuilder struct {
	LoggerProvider           LoggerProvider
	ConfigurationProvider    func() CommandConfiguration
	Executor                 gitrepo.GitExecutor
	Transport                RepositoryTransport
	SourceClientFactory      SourceClientFactory
	DestinationClientFactory DestinationClientFactory
	TokenResolver            func(configuredToken string) (string, error)
	RunIdentifierProvider    func() string
	Clock                    Clock
}

// Build constructs the migrate command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runMigrate,
	}

	command.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagUsageConstant)
	command.Flags().StringSlice(excludeFlagNameConstant, nil, excludeFlagUsageConstant)
	command.Flags().Int(maxRepositoriesFlagNameConstant, defaultMaxRepositoriesConstant, maxRepositoriesFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runMigrate(command *cobra.Command, _ []string) (runError error) {
	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}
	configuration := options.configuration
	executionContext := command.Context()
	if executionContext == nil {
		executionContext = context.Background()
	}

	runID := builder.resolveRunIdentifier()
	logger := builder.resolveLogger().With(zap.String(runIdentifierLogFieldConstant, runID))
	clock := builder.resolveClock()
	if sources, available := utils.NewCommandContextAccessor().ConfigurationSources(executionContext); available {
		logger.Debug(configurationSourcesMessageConstant, zap.String(configurationFileLogFieldConstant, sources.ConfigurationFile), zap.String(environmentFileLogFieldConstant, sources.EnvironmentFile))
	}

	sourceClient, sourceError := builder.resolveSourceClient(configuration, logger)
	if sourceError != nil {
		return fmt.Errorf(sourceClientCreationErrorTemplateConstant, sourceError)
	}
	destinationClient, destinationError := builder.resolveDestinationClient(executionContext, configuration, logger)
	if destinationError != nil {
		return fmt.Errorf(destinationClientCreationErrorTemplateConstant, destinationError)
	}

	contextBuilder := NewContextBuilder(ContextSettings{
		WorkingRoot:          configuration.WorkingRoot,
		DestinationWorkspace: configuration.Destination.Workspace,
		DestinationUsername:  configuration.Destination.Username,
		ArchiveAfterDays:     configuration.ArchiveAfterDays,
	}, sourceClient, destinationClient, logger, clock)

	flow := FlowSettings{
		MaxRepositories:      configuration.MaxRepositories,
		ExcludedRepositories: configuration.ExcludedRepositories,
		ItemDelay:            configuration.ItemDelay,
	}

	if options.dryRun {
		runner, runnerError := NewRunner(RunnerDependencies{Source: sourceClient, ContextBuilder: contextBuilder, Flow: flow, Logger: logger})
		if runnerError != nil {
			return runnerError
		}
		plan, planError := runner.Plan(executionContext)
		if planError != nil {
			return planError
		}
		RenderPlan(command.OutOrStdout(), plan)
		logger.Info(dryRunCompletedMessageConstant, zap.Int(plannedCountLogFieldConstant, len(plan)))
		return nil
	}

	transport, transportError := builder.resolveTransport(logger)
	if transportError != nil {
		return transportError
	}

	workingRootLock, lockError := AcquireWorkingRoot(configuration.WorkingRoot)
	if lockError != nil {
		return lockError
	}
	logger.Debug(workingRootLockedMessageConstant, zap.String(lockPathLogFieldConstant, workingRootLock.Path()))
	defer func() {
		if releaseError := workingRootLock.Release(); releaseError != nil {
			logger.Warn(lockReleaseFailedMessageConstant, zap.Error(releaseError))
		}
	}()

	observer, finishJournal, journalError := builder.openJournal(executionContext, configuration, runID, logger, clock)
	if journalError != nil {
		return journalError
	}
	defer func() {
		finishJournal(runError)
	}()

	pipeline := NewMigrationPipeline(transport, StepSettings{
		SourceWebBaseURL:       configuration.Source.WebBaseURL,
		SourceWorkspace:        configuration.Source.Workspace,
		SourceCredentials:      gitrepo.RemoteCredentials{Username: configuration.Source.Username, Secret: configuration.Source.Password},
		DestinationCredentials: gitrepo.RemoteCredentials{Username: configuration.Destination.Username, Secret: configuration.Destination.Token},
		Team:                   configuration.Destination.Team,
	}, observer)

	runner, runnerError := NewRunner(RunnerDependencies{
		Source:         sourceClient,
		ContextBuilder: contextBuilder,
		Pipeline:       pipeline,
		Flow:           flow,
		Logger:         logger,
	})
	if runnerError != nil {
		return runnerError
	}

	summary, migrationError := runner.Run(executionContext)
	if len(summary.Migrated) > 0 {
		RenderReport(command.OutOrStdout(), summary)
	}
	if migrationError != nil {
		return fmt.Errorf(migrationRunErrorTemplateConstant, migrationError)
	}
	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (commandOptions, error) {
	configuration := builder.resolveConfiguration()

	dryRun, _ := command.Flags().GetBool(dryRunFlagNameConstant)
	if command.Flags().Changed(excludeFlagNameConstant) {
		exclusions, _ := command.Flags().GetStringSlice(excludeFlagNameConstant)
		configuration.ExcludedRepositories = append(configuration.ExcludedRepositories, exclusions...)
	}
	if command.Flags().Changed(maxRepositoriesFlagNameConstant) {
		configuration.MaxRepositories, _ = command.Flags().GetInt(maxRepositoriesFlagNameConstant)
	}

	if len(configuration.Destination.Token) == 0 {
		resolvedToken, resolveError := builder.resolveToken(configuration.Destination.Token)
		if resolveError == nil {
			configuration.Destination.Token = resolvedToken
		}
	}

	configuration = configuration.Sanitize()
	if validationError := configuration.Validate(); validationError != nil {
		return commandOptions{}, validationError
	}

	return commandOptions{dryRun: dryRun, configuration: configuration}, nil
}

func (builder *CommandBuilder) openJournal(executionContext context.Context, configuration CommandConfiguration, runID string, logger *zap.Logger, clock Clock) (StageObserver, func(error), error) {
	if len(configuration.JournalPath) == 0 {
		return nil, func(error) {}, nil
	}

	runJournal, openError := journal.Open(executionContext, configuration.JournalPath)
	if openError != nil {
		return nil, nil, fmt.Errorf(journalOpenErrorTemplateConstant, openError)
	}
	if startError := runJournal.StartRun(executionContext, runID, configuration.Source.Workspace, false, clock()); startError != nil {
		_ = runJournal.Close()
		return nil, nil, fmt.Errorf(journalStartErrorTemplateConstant, startError)
	}
	logger.Debug(journalOpenedMessageConstant, zap.String(journalPathLogFieldConstant, runJournal.Path()), zap.String(workspaceLogFieldConstant, configuration.Source.Workspace))

	finish := func(runError error) {
		outcome := journal.RunSucceeded
		detail := ""
		if runError != nil {
			outcome = journal.RunFailed
			detail = runError.Error()
		}
		if finishError := runJournal.FinishRun(context.WithoutCancel(executionContext), runID, outcome, detail, clock()); finishError != nil {
			logger.Warn(journalFinishFailedMessageConstant, zap.Error(finishError))
		}
		if closeError := runJournal.Close(); closeError != nil {
			logger.Warn(journalCloseFailedMessageConstant, zap.Error(closeError))
		}
	}
	return NewJournalObserver(runJournal, runID, logger, clock), finish, nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveToken(configuredToken string) (string, error) {
	if builder.TokenResolver != nil {
		return builder.TokenResolver(configuredToken)
	}
	return githubauth.ResolveToken(configuredToken)
}

func (builder *CommandBuilder) resolveRunIdentifier() string {
	if builder.RunIdentifierProvider != nil {
		return builder.RunIdentifierProvider()
	}
	return uuid.NewString()
}

func (builder *CommandBuilder) resolveClock() Clock {
	if builder.Clock != nil {
		return builder.Clock
	}
	return time.Now
}

func (builder *CommandBuilder) resolveSourceClient(configuration CommandConfiguration, logger *zap.Logger) (SourceClient, error) {
	if builder.SourceClientFactory != nil {
		return builder.SourceClientFactory(configuration, logger)
	}
	return bitbucket.NewClient(bitbucket.ClientConfiguration{
		APIBaseURL:     configuration.Source.APIBaseURL,
		Workspace:      configuration.Source.Workspace,
		Username:       configuration.Source.Username,
		Password:       configuration.Source.Password,
		SortKey:        configuration.Source.Sort,
		RequestTimeout: configuration.RequestTimeout,
	}, bitbucket.WithLogger(logger))
}

func (builder *CommandBuilder) resolveDestinationClient(executionContext context.Context, configuration CommandConfiguration, logger *zap.Logger) (DestinationHost, error) {
	if builder.DestinationClientFactory != nil {
		return builder.DestinationClientFactory(executionContext, configuration, logger)
	}
	return githubapi.NewClient(executionContext, githubapi.ClientConfiguration{
		APIBaseURL:     configuration.Destination.APIBaseURL,
		Token:          configuration.Destination.Token,
		RequestTimeout: configuration.RequestTimeout,
	}, githubapi.WithLogger(logger))
}

func (builder *CommandBuilder) resolveTransport(logger *zap.Logger) (RepositoryTransport, error) {
	if builder.Transport != nil {
		return builder.Transport, nil
	}

	executor := builder.Executor
	if executor == nil {
		shellExecutor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
		if executorError != nil {
			return nil, executorError
		}
		executor = shellExecutor
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(executor)
	if managerError != nil {
		return nil, fmt.Errorf(repositoryManagerCreationErrorTemplateConstant, managerError)
	}
	return repositoryManager, nil
}

// IsConfigurationError reports whether err stems from invalid configuration.
func IsConfigurationError(err error) bool {
	var configurationError InvalidConfigurationError
	return errors.As(err, &configurationError)
}
