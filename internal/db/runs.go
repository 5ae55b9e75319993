package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/cv-search/internal/types"
)

// ErrRunNotFound is returned when a run id has no audit row.
var ErrRunNotFound = errors.New("run not found")

// ErrRunNotTerminal is returned when feedback is submitted for a run that
// has not finished yet.
var ErrRunNotTerminal = errors.New("run is still running")

// ErrRunAlreadyFinished is returned when a terminal run is finished again.
var ErrRunAlreadyFinished = errors.New("run already finished")

// CreateSearchRun inserts the initial running audit row.
func (db *DB) CreateSearchRun(ctx context.Context, run *types.SearchRun) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO search_runs
			(run_id, run_kind, status, created_at, criteria_json, raw_text, top_k, seat_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.RunID, run.RunKind, types.RunStatusRunning, run.CreatedAt,
		run.CriteriaJSON, run.RawText, run.TopK, run.SeatCount,
	)
	if err != nil {
		return fmt.Errorf("failed to create search run: %w", err)
	}
	return nil
}

// FinishSearchRun records the terminal status. The WHERE clause only matches
// running rows, so a run can transition to a terminal status exactly once.
func (db *DB) FinishSearchRun(ctx context.Context, run *types.SearchRun) error {
	if !run.Status.Terminal() {
		return fmt.Errorf("status %q is not terminal", run.Status)
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE search_runs
		 SET status = $1, completed_at = $2, duration_ms = $3, result_count = $4,
		     note = $5, run_dir = $6, error_type = $7, error_message = $8, error_stage = $9
		 WHERE run_id = $10 AND status = 'running'`,
		run.Status, run.CompletedAt, run.DurationMS, run.ResultCount,
		run.Note, run.RunDir, run.ErrorType, run.ErrorMessage, run.ErrorStage,
		run.RunID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish search run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRunAlreadyFinished
	}
	return nil
}

const runColumns = `run_id, run_kind, status, created_at, completed_at, duration_ms,
	result_count, criteria_json, raw_text, top_k, seat_count, note, run_dir,
	error_type, error_message, error_stage,
	feedback_sentiment, feedback_comment, feedback_submitted_at`

// GetSearchRun fetches one audit row by run id.
func (db *DB) GetSearchRun(ctx context.Context, runID string) (*types.SearchRun, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM search_runs WHERE run_id = $1`, runID)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get search run: %w", err)
	}
	return run, nil
}

// RunFilters narrow a runs listing.
type RunFilters struct {
	Status types.RunStatus
	Kind   types.RunKind
	Limit  int
}

// ListSearchRuns returns audit rows newest first, optionally filtered by
// status and kind.
func (db *DB) ListSearchRuns(ctx context.Context, filters RunFilters) ([]types.SearchRun, error) {
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	query := `SELECT ` + runColumns + ` FROM search_runs WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}
	if filters.Kind != "" {
		query += fmt.Sprintf(" AND run_kind = $%d", argNum)
		args = append(args, filters.Kind)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list search runs: %w", err)
	}
	defer rows.Close()

	var runs []types.SearchRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// UpdateSearchRunFeedback records user feedback on a finished run. Only the
// feedback fields are mutable after a run reaches a terminal status.
func (db *DB) UpdateSearchRunFeedback(ctx context.Context, runID, sentiment, comment string) error {
	now := time.Now().UTC()
	tag, err := db.pool.Exec(ctx,
		`UPDATE search_runs
		 SET feedback_sentiment = $1, feedback_comment = $2, feedback_submitted_at = $3
		 WHERE run_id = $4 AND status <> 'running'`,
		sentiment, comment, now, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing run from one still running.
		if _, err := db.GetSearchRun(ctx, runID); err != nil {
			return err
		}
		return ErrRunNotTerminal
	}
	return nil
}

// scanRun reads one audit row; works for both QueryRow and Query rows.
func scanRun(row pgx.Row) (*types.SearchRun, error) {
	var run types.SearchRun
	err := row.Scan(
		&run.RunID, &run.RunKind, &run.Status, &run.CreatedAt, &run.CompletedAt, &run.DurationMS,
		&run.ResultCount, &run.CriteriaJSON, &run.RawText, &run.TopK, &run.SeatCount, &run.Note, &run.RunDir,
		&run.ErrorType, &run.ErrorMessage, &run.ErrorStage,
		&run.FeedbackSentiment, &run.FeedbackComment, &run.FeedbackSubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
