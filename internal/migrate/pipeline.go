package migrate

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	stageErrorTemplateConstant       = "%s: stage %s failed: %v"
	stageLogFieldConstant            = "stage"
	skipReasonLogFieldConstant       = "reason"
	stageSkippedLogMessageConstant   = "Stage skipped"
	stageStartedLogMessageConstant   = "Stage started"
	stageCompletedLogMessageConstant = "Stage completed"
)

// Transition is a named pipeline stage turning In into Out.
type Transition[In any, Out any] interface {
	Name() string
	Apply(executionContext context.Context, input In) (Out, error)
}

// Step is a stage that keeps the context type.
type Step[C any] interface {
	Transition[C, C]
}

// SkipEvaluator is implemented by steps whose skip decision is a pure predicate.
// An empty reason means the step runs.
type SkipEvaluator[C any] interface {
	SkipReason(input C) string
}

// StageObserver is notified about stage progress.
type StageObserver interface {
	StageStarted(executionContext context.Context, repository string, stage string)
	StageSkipped(executionContext context.Context, repository string, stage string, reason string)
	StageCompleted(executionContext context.Context, repository string, stage string)
	StageFailed(executionContext context.Context, repository string, stage string, failure error)
}

// StageError identifies the repository and stage a failure happened in.
type StageError struct {
	Repository string
	Stage      string
	Cause      error
}

// Error describes the failed stage.
func (stageError StageError) Error() string {
	return fmt.Sprintf(stageErrorTemplateConstant, stageError.Repository, stageError.Stage, stageError.Cause)
}

// Unwrap exposes the stage failure.
func (stageError StageError) Unwrap() error {
	return stageError.Cause
}

// Pipeline runs the preparation steps, the publication transition and the finalization steps in order.
type Pipeline struct {
	preparation  []Step[PreparedRepository]
	publication  Transition[PreparedRepository, MigratedRepository]
	finalization []Step[MigratedRepository]
	observer     StageObserver
}

// NewPipeline assembles a pipeline. A nil observer ignores progress notifications.
func NewPipeline(preparation []Step[PreparedRepository], publication Transition[PreparedRepository, MigratedRepository], finalization []Step[MigratedRepository], observer StageObserver) *Pipeline {
	if observer == nil {
		observer = noopStageObserver{}
	}
	return &Pipeline{
		preparation:  append([]Step[PreparedRepository]{}, preparation...),
		publication:  publication,
		finalization: append([]Step[MigratedRepository]{}, finalization...),
		observer:     observer,
	}
}

// StageNames lists the stages in execution order.
func (pipeline *Pipeline) StageNames() []string {
	names := make([]string, 0, len(pipeline.preparation)+len(pipeline.finalization)+1)
	for _, step := range pipeline.preparation {
		names = append(names, step.Name())
	}
	names = append(names, pipeline.publication.Name())
	for _, step := range pipeline.finalization {
		names = append(names, step.Name())
	}
	return names
}

// Process runs every stage for one repository and stops at the first failure.
func (pipeline *Pipeline) Process(executionContext context.Context, prepared PreparedRepository) (MigratedRepository, error) {
	prepared, preparationError := runSteps(executionContext, pipeline.observer, prepared.Slug, loggerOf(prepared), pipeline.preparation, prepared)
	if preparationError != nil {
		return MigratedRepository{}, preparationError
	}

	migrated, publicationError := runTransition(executionContext, pipeline.observer, prepared.Slug, loggerOf(prepared), pipeline.publication, prepared)
	if publicationError != nil {
		return MigratedRepository{}, publicationError
	}

	return runSteps(executionContext, pipeline.observer, prepared.Slug, loggerOf(prepared), pipeline.finalization, migrated)
}

func runSteps[C any](executionContext context.Context, observer StageObserver, repository string, logger *zap.Logger, steps []Step[C], input C) (C, error) {
	current := input
	for _, step := range steps {
		if evaluator, evaluates := step.(SkipEvaluator[C]); evaluates {
			if reason := evaluator.SkipReason(current); len(reason) > 0 {
				logger.Debug(stageSkippedLogMessageConstant, zap.String(stageLogFieldConstant, step.Name()), zap.String(skipReasonLogFieldConstant, reason))
				observer.StageSkipped(executionContext, repository, step.Name(), reason)
				continue
			}
		}

		next, stepError := runTransition[C, C](executionContext, observer, repository, logger, step, current)
		if stepError != nil {
			return current, stepError
		}
		current = next
	}
	return current, nil
}

func runTransition[In any, Out any](executionContext context.Context, observer StageObserver, repository string, logger *zap.Logger, transition Transition[In, Out], input In) (Out, error) {
	if contextError := executionContext.Err(); contextError != nil {
		var empty Out
		return empty, StageError{Repository: repository, Stage: transition.Name(), Cause: contextError}
	}

	logger.Debug(stageStartedLogMessageConstant, zap.String(stageLogFieldConstant, transition.Name()))
	observer.StageStarted(executionContext, repository, transition.Name())

	output, applyError := transition.Apply(executionContext, input)
	if applyError != nil {
		observer.StageFailed(executionContext, repository, transition.Name(), applyError)
		var empty Out
		return empty, StageError{Repository: repository, Stage: transition.Name(), Cause: applyError}
	}

	logger.Debug(stageCompletedLogMessageConstant, zap.String(stageLogFieldConstant, transition.Name()))
	observer.StageCompleted(executionContext, repository, transition.Name())
	return output, nil
}

func loggerOf(prepared PreparedRepository) *zap.Logger {
	if prepared.Logger == nil {
		return zap.NewNop()
	}
	return prepared.Logger
}

type noopStageObserver struct{}

func (noopStageObserver) StageStarted(context.Context, string, string)         {}
func (noopStageObserver) StageSkipped(context.Context, string, string, string) {}
func (noopStageObserver) StageCompleted(context.Context, string, string)       {}
func (noopStageObserver) StageFailed(context.Context, string, string, error)   {}
