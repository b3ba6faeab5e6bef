// Package journal records migration runs and their per-stage events in SQLite.
//
// The journal is write-mostly: operators inspect it after an aborted run to see
// which repository and stage stopped the run. It is never consulted to resume.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	sqliteDriverNameConstant            = "sqlite"
	journalDirectoryPermissionsConstant = 0o755
	timestampLayoutConstant             = time.RFC3339Nano
	ensureDirectoryTemplateConstant     = "journal: ensure directory: %w"
	openDatabaseTemplateConstant        = "journal: open sqlite db: %w"
	applyPragmaTemplateConstant         = "journal: apply pragma %q: %w"
	applySchemaTemplateConstant         = "journal: apply schema: %w"
	startRunTemplateConstant            = "journal: start run %s: %w"
	finishRunTemplateConstant           = "journal: finish run %s: %w"
	recordStageTemplateConstant         = "journal: record %s/%s: %w"
	queryEventsTemplateConstant         = "journal: query events for run %s: %w"
	queryRunTemplateConstant            = "journal: query run %s: %w"
)

// ErrPathRequired indicates Open was called without a database path.
var ErrPathRequired = errors.New("journal: database path required")

// ErrRunNotFound indicates the requested run has no record.
var ErrRunNotFound = errors.New("journal: run not found")

// StageStatus describes what happened to a stage of one repository.
type StageStatus string

// Stage statuses.
const (
	StageStarted   StageStatus = "started"
	StageSkipped   StageStatus = "skipped"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
)

// RunOutcome is the terminal state of a run.
type RunOutcome string

// Run outcomes.
const (
	RunInProgress RunOutcome = "running"
	RunSucceeded  RunOutcome = "succeeded"
	RunFailed     RunOutcome = "failed"
)

// StageEvent is one journal row.
type StageEvent struct {
	RunID      string
	Repository string
	Stage      string
	Status     StageStatus
	Detail     string
	OccurredAt time.Time
}

// RunRecord summarizes a stored run.
type RunRecord struct {
	RunID      string
	Workspace  string
	DryRun     bool
	Outcome    RunOutcome
	Detail     string
	StartedAt  time.Time
	FinishedAt time.Time
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS runs (
        run_id TEXT PRIMARY KEY,
        workspace TEXT NOT NULL,
        dry_run INTEGER NOT NULL DEFAULT 0,
        outcome TEXT NOT NULL,
        detail TEXT,
        started_at TEXT NOT NULL,
        finished_at TEXT
    )`,
	`CREATE TABLE IF NOT EXISTS stage_events (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
        repository TEXT NOT NULL,
        stage TEXT NOT NULL,
        status TEXT NOT NULL,
        detail TEXT,
        occurred_at TEXT NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_stage_events_run ON stage_events(run_id, id)`,
}

// Journal is a SQLite-backed run journal.
type Journal struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the journal database at path and ensures its schema.
func Open(executionContext context.Context, path string) (*Journal, error) {
	trimmedPath := strings.TrimSpace(path)
	if len(trimmedPath) == 0 {
		return nil, ErrPathRequired
	}

	if directoryError := os.MkdirAll(filepath.Dir(trimmedPath), journalDirectoryPermissionsConstant); directoryError != nil {
		return nil, fmt.Errorf(ensureDirectoryTemplateConstant, directoryError)
	}

	db, openError := sql.Open(sqliteDriverNameConstant, trimmedPath)
	if openError != nil {
		return nil, fmt.Errorf(openDatabaseTemplateConstant, openError)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execError := db.ExecContext(executionContext, pragma); execError != nil {
			_ = db.Close()
			return nil, fmt.Errorf(applyPragmaTemplateConstant, pragma, execError)
		}
	}

	for _, statement := range schemaStatements {
		if _, execError := db.ExecContext(executionContext, statement); execError != nil {
			_ = db.Close()
			return nil, fmt.Errorf(applySchemaTemplateConstant, execError)
		}
	}

	return &Journal{db: db, path: trimmedPath}, nil
}

// Path returns the database location.
func (journal *Journal) Path() string {
	return journal.path
}

// Close releases the database handle.
func (journal *Journal) Close() error {
	if journal == nil || journal.db == nil {
		return nil
	}
	return journal.db.Close()
}

// StartRun inserts a run in the running state.
func (journal *Journal) StartRun(executionContext context.Context, runID string, workspace string, dryRun bool, startedAt time.Time) error {
	_, execError := journal.db.ExecContext(
		executionContext,
		`INSERT INTO runs (run_id, workspace, dry_run, outcome, started_at) VALUES (?, ?, ?, ?, ?)`,
		runID,
		workspace,
		boolToInt(dryRun),
		string(RunInProgress),
		formatTimestamp(startedAt),
	)
	if execError != nil {
		return fmt.Errorf(startRunTemplateConstant, runID, execError)
	}
	return nil
}

// FinishRun stores the terminal outcome of a run.
func (journal *Journal) FinishRun(executionContext context.Context, runID string, outcome RunOutcome, detail string, finishedAt time.Time) error {
	result, execError := journal.db.ExecContext(
		executionContext,
		`UPDATE runs SET outcome = ?, detail = ?, finished_at = ? WHERE run_id = ?`,
		string(outcome),
		nullableString(detail),
		formatTimestamp(finishedAt),
		runID,
	)
	if execError != nil {
		return fmt.Errorf(finishRunTemplateConstant, runID, execError)
	}
	affected, affectedError := result.RowsAffected()
	if affectedError != nil {
		return fmt.Errorf(finishRunTemplateConstant, runID, affectedError)
	}
	if affected == 0 {
		return fmt.Errorf(finishRunTemplateConstant, runID, ErrRunNotFound)
	}
	return nil
}

// RecordStage appends a stage event.
func (journal *Journal) RecordStage(executionContext context.Context, event StageEvent) error {
	_, execError := journal.db.ExecContext(
		executionContext,
		`INSERT INTO stage_events (run_id, repository, stage, status, detail, occurred_at) VALUES (?, ?, ?, ?, ?, ?)`,
		event.RunID,
		event.Repository,
		event.Stage,
		string(event.Status),
		nullableString(event.Detail),
		formatTimestamp(event.OccurredAt),
	)
	if execError != nil {
		return fmt.Errorf(recordStageTemplateConstant, event.Repository, event.Stage, execError)
	}
	return nil
}

// Run loads a stored run.
func (journal *Journal) Run(executionContext context.Context, runID string) (RunRecord, error) {
	var (
		record     RunRecord
		dryRun     int
		outcome    string
		detail     sql.NullString
		startedAt  string
		finishedAt sql.NullString
	)
	row := journal.db.QueryRowContext(
		executionContext,
		`SELECT run_id, workspace, dry_run, outcome, detail, started_at, finished_at FROM runs WHERE run_id = ?`,
		runID,
	)
	scanError := row.Scan(&record.RunID, &record.Workspace, &dryRun, &outcome, &detail, &startedAt, &finishedAt)
	if errors.Is(scanError, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf(queryRunTemplateConstant, runID, ErrRunNotFound)
	}
	if scanError != nil {
		return RunRecord{}, fmt.Errorf(queryRunTemplateConstant, runID, scanError)
	}

	record.DryRun = dryRun != 0
	record.Outcome = RunOutcome(outcome)
	record.Detail = detail.String
	record.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		record.FinishedAt = parseTimestamp(finishedAt.String)
	}
	return record, nil
}

// StageEvents returns the events of a run in insertion order.
func (journal *Journal) StageEvents(executionContext context.Context, runID string) ([]StageEvent, error) {
	rows, queryError := journal.db.QueryContext(
		executionContext,
		`SELECT run_id, repository, stage, status, detail, occurred_at FROM stage_events WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if queryError != nil {
		return nil, fmt.Errorf(queryEventsTemplateConstant, runID, queryError)
	}
	defer rows.Close()

	events := []StageEvent{}
	for rows.Next() {
		var (
			event      StageEvent
			status     string
			detail     sql.NullString
			occurredAt string
		)
		if scanError := rows.Scan(&event.RunID, &event.Repository, &event.Stage, &status, &detail, &occurredAt); scanError != nil {
			return nil, fmt.Errorf(queryEventsTemplateConstant, runID, scanError)
		}
		event.Status = StageStatus(status)
		event.Detail = detail.String
		event.OccurredAt = parseTimestamp(occurredAt)
		events = append(events, event)
	}
	if iterationError := rows.Err(); iterationError != nil {
		return nil, fmt.Errorf(queryEventsTemplateConstant, runID, iterationError)
	}
	return events, nil
}

func formatTimestamp(moment time.Time) string {
	return moment.UTC().Format(timestampLayoutConstant)
}

func parseTimestamp(value string) time.Time {
	parsed, parseError := time.Parse(timestampLayoutConstant, value)
	if parseError != nil {
		return time.Time{}
	}
	return parsed
}

func nullableString(value string) any {
	if len(strings.TrimSpace(value)) == 0 {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
