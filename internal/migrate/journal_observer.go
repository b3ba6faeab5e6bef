package migrate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/repomove/internal/journal"
)

const journalWriteFailedMessageConstant = "Journal write failed"

// StageRecorder persists stage events.
type StageRecorder interface {
	RecordStage(executionContext context.Context, event journal.StageEvent) error
}

// JournalObserver forwards pipeline progress to the run journal. Write failures are logged, never fatal.
type JournalObserver struct {
	recorder StageRecorder
	runID    string
	logger   *zap.Logger
	clock    Clock
}

// NewJournalObserver constructs a JournalObserver for runID.
func NewJournalObserver(recorder StageRecorder, runID string, logger *zap.Logger, clock Clock) *JournalObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &JournalObserver{recorder: recorder, runID: runID, logger: logger, clock: clock}
}

// StageStarted records a started event.
func (observer *JournalObserver) StageStarted(executionContext context.Context, repository string, stage string) {
	observer.record(executionContext, repository, stage, journal.StageStarted, "")
}

// StageSkipped records a skipped event with its reason.
func (observer *JournalObserver) StageSkipped(executionContext context.Context, repository string, stage string, reason string) {
	observer.record(executionContext, repository, stage, journal.StageSkipped, reason)
}

// StageCompleted records a completed event.
func (observer *JournalObserver) StageCompleted(executionContext context.Context, repository string, stage string) {
	observer.record(executionContext, repository, stage, journal.StageCompleted, "")
}

// StageFailed records a failed event with the failure text.
func (observer *JournalObserver) StageFailed(executionContext context.Context, repository string, stage string, failure error) {
	detail := ""
	if failure != nil {
		detail = failure.Error()
	}
	observer.record(executionContext, repository, stage, journal.StageFailed, detail)
}

func (observer *JournalObserver) record(executionContext context.Context, repository string, stage string, status journal.StageStatus, detail string) {
	if observer.recorder == nil {
		return
	}
	event := journal.StageEvent{
		RunID:      observer.runID,
		Repository: repository,
		Stage:      stage,
		Status:     status,
		Detail:     detail,
		OccurredAt: observer.clock(),
	}
	if recordError := observer.recorder.RecordStage(context.WithoutCancel(executionContext), event); recordError != nil {
		observer.logger.Warn(journalWriteFailedMessageConstant, zap.String(repositoryLogFieldConstant, repository), zap.String(stageLogFieldConstant, stage), zap.Error(recordError))
	}
}
