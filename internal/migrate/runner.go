package migrate

import (
	"context"
	"errors"
	"iter"

	"go.uber.org/zap"

	"github.com/temirov/repomove/internal/bitbucket"
	"github.com/temirov/repomove/internal/execshell"
	"github.com/temirov/repomove/internal/githubapi"
)

const (
	migrationStartedMessageConstant   = "Starting migrations"
	repositoryMigratedMessageConstant = "Repository migrated"
	allRepositoriesMigratedConstant   = "All repositories migrated successfully"
	listingFailedMessageConstant      = "Repository listing failed"
	migrationFailedMessageConstant    = "Repository migration failed"
	migratedCountLogFieldConstant     = "migrated"
	statusCodeLogFieldConstant        = "status_code"
	detailsLogFieldConstant           = "details"
	payloadLogFieldConstant           = "payload"
	responseBodyLogFieldConstant      = "response_body"
	exitCodeLogFieldConstant          = "exit_code"
	standardErrorLogFieldConstant     = "stderr"
)

// RepositorySource lists the repositories of the source workspace.
type RepositorySource interface {
	Repositories(executionContext context.Context) iter.Seq2[bitbucket.RepositorySummary, error]
}

// MigrationRecord describes one migrated repository.
type MigrationRecord struct {
	Slug              string
	DestinationURL    string
	Archived          bool
	OrganizationOwned bool
}

// RunSummary collects the outcome of a run.
type RunSummary struct {
	Migrated []MigrationRecord
}

// RunnerDependencies describes the collaborators of a Runner.
type RunnerDependencies struct {
	Source         RepositorySource
	ContextBuilder *ContextBuilder
	Pipeline       *Pipeline
	Flow           FlowSettings
	Logger         *zap.Logger
}

// Runner pulls repositories through flow control, the context builder and the pipeline one at a time.
type Runner struct {
	source         RepositorySource
	contextBuilder *ContextBuilder
	pipeline       *Pipeline
	flow           FlowSettings
	logger         *zap.Logger
}

var (
	errRepositorySourceMissing = errors.New("repository source not configured")
	errContextBuilderMissing   = errors.New("context builder not configured")
	errPipelineMissing         = errors.New("pipeline not configured")
)

// NewRunner validates the dependencies and constructs a Runner.
func NewRunner(dependencies RunnerDependencies) (*Runner, error) {
	if dependencies.Source == nil {
		return nil, errRepositorySourceMissing
	}
	if dependencies.ContextBuilder == nil {
		return nil, errContextBuilderMissing
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		source:         dependencies.Source,
		contextBuilder: dependencies.ContextBuilder,
		pipeline:       dependencies.Pipeline,
		flow:           dependencies.Flow,
		logger:         logger,
	}, nil
}

// Run migrates every repository and stops at the first failure.
func (runner *Runner) Run(executionContext context.Context) (RunSummary, error) {
	if runner.pipeline == nil {
		return RunSummary{}, errPipelineMissing
	}

	runner.logger.Info(migrationStartedMessageConstant)
	summary := RunSummary{Migrated: []MigrationRecord{}}
	for repository, listingError := range runner.repositories(executionContext) {
		if listingError != nil {
			runner.logger.Error(listingFailedMessageConstant, zap.Error(listingError))
			return summary, listingError
		}

		prepared := runner.contextBuilder.Build(repository)
		migrated, migrationError := runner.pipeline.Process(executionContext, prepared)
		if migrationError != nil {
			runner.logger.Error(migrationFailedMessageConstant, failureFields(repository.Slug, migrationError)...)
			return summary, migrationError
		}

		loggerOf(prepared).Info(repositoryMigratedMessageConstant, zap.String(destinationURLLogFieldConstant, migrated.DestinationURL))
		summary.Migrated = append(summary.Migrated, MigrationRecord{
			Slug:              migrated.Slug,
			DestinationURL:    migrated.DestinationURL,
			Archived:          migrated.ShouldArchive,
			OrganizationOwned: migrated.OrganizationOwned,
		})
	}

	runner.logger.Info(allRepositoriesMigratedConstant, zap.Int(migratedCountLogFieldConstant, len(summary.Migrated)))
	return summary, nil
}

// Plan lists the repositories a run would migrate without executing any stage.
func (runner *Runner) Plan(executionContext context.Context) ([]PreparedRepository, error) {
	plan := []PreparedRepository{}
	for repository, listingError := range runner.repositories(executionContext) {
		if listingError != nil {
			runner.logger.Error(listingFailedMessageConstant, zap.Error(listingError))
			return plan, listingError
		}
		plan = append(plan, runner.contextBuilder.Build(repository))
	}
	return plan, nil
}

func (runner *Runner) repositories(executionContext context.Context) RepositorySequence {
	return ApplyFlowControl(executionContext, runner.source.Repositories(executionContext), runner.flow)
}

func failureFields(repository string, failure error) []zap.Field {
	fields := []zap.Field{zap.String(repositoryLogFieldConstant, repository), zap.Error(failure)}

	var stageError StageError
	if errors.As(failure, &stageError) {
		fields = append(fields, zap.String(stageLogFieldConstant, stageError.Stage))
	}

	var operationError githubapi.OperationError
	if errors.As(failure, &operationError) {
		fields = append(fields,
			zap.Int(statusCodeLogFieldConstant, operationError.StatusCode),
			zap.String(detailsLogFieldConstant, operationError.Details),
			zap.Any(payloadLogFieldConstant, operationError.Payload),
		)
	}

	var responseError bitbucket.ResponseError
	if errors.As(failure, &responseError) {
		fields = append(fields,
			zap.Int(statusCodeLogFieldConstant, responseError.StatusCode),
			zap.String(responseBodyLogFieldConstant, responseError.Body),
		)
	}

	var commandError execshell.CommandFailedError
	if errors.As(failure, &commandError) {
		fields = append(fields,
			zap.Int(exitCodeLogFieldConstant, commandError.Result.ExitCode),
			zap.String(standardErrorLogFieldConstant, execshell.RedactText(commandError.Result.StandardError)),
		)
	}
	return fields
}
