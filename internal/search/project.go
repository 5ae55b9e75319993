package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/cv-search/internal/config"
	"github.com/jonathan/cv-search/internal/llm"
	"github.com/jonathan/cv-search/internal/types"
)

// RunRecorder persists run audit rows. The Postgres implementation lives in
// internal/db.
type RunRecorder interface {
	CreateSearchRun(ctx context.Context, run *types.SearchRun) error
	FinishSearchRun(ctx context.Context, run *types.SearchRun) error
}

// ArtifactSink persists per-run artifacts and returns the run directory.
type ArtifactSink interface {
	WriteRun(run *types.SearchRun, criteria []types.Criteria, seats []types.SeatResult) (string, error)
}

// Service is the entry point for seat and project searches. Every invocation
// creates an audit run record, including skipped and failed ones.
type Service struct {
	seats         *SeatSearcher
	runs          RunRecorder
	artifacts     ArtifactSink
	maxConcurrent int
	defaultTopK   int
}

// NewService wires the pipeline against a store, an LLM client, the run
// recorder and the artifact sink.
func NewService(store Store, cfg *config.Config, client llm.Client, runs RunRecorder, artifacts ArtifactSink) *Service {
	return &Service{
		seats:         NewSeatSearcher(store, cfg.Search, client),
		runs:          runs,
		artifacts:     artifacts,
		maxConcurrent: cfg.Search.MaxConcurrentSeats,
		defaultTopK:   cfg.Search.DefaultTopK,
	}
}

// SearchSeat searches a single seat and records a run of kind "seat".
func (s *Service) SearchSeat(ctx context.Context, crit types.Criteria, rawText string, topK int) (*types.ProjectResult, error) {
	return s.search(ctx, types.RunKindSeat, []types.Criteria{crit}, rawText, topK)
}

// SearchProject searches all seats of a project and records a run of kind
// "project". Seat output order always matches input order.
func (s *Service) SearchProject(ctx context.Context, criteria []types.Criteria, rawText string, topK int) (*types.ProjectResult, error) {
	return s.search(ctx, types.RunKindProject, criteria, rawText, topK)
}

func (s *Service) search(ctx context.Context, kind types.RunKind, criteria []types.Criteria, rawText string, topK int) (*types.ProjectResult, error) {
	if len(criteria) == 0 {
		return nil, fmt.Errorf("at least one seat is required")
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}

	start := time.Now()
	run := &types.SearchRun{
		RunID:     uuid.NewString(),
		RunKind:   kind,
		Status:    types.RunStatusRunning,
		CreatedAt: start.UTC(),
		RawText:   rawText,
		TopK:      topK,
		SeatCount: len(criteria),
	}
	if data, err := json.Marshal(criteria); err == nil {
		run.CriteriaJSON = string(data)
	}

	if err := s.runs.CreateSearchRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}

	log.Printf("[search] run %s started: kind=%s seats=%d top_k=%d", run.RunID, kind, len(criteria), topK)

	if IsLowSignalBrief(rawText, criteria) {
		run.Status = types.RunStatusSkipped
		run.Note = LowSignalNote
		run.ErrorType = "" // a skip is not an error
		result := &types.ProjectResult{
			RunID:    run.RunID,
			Status:   types.RunStatusSkipped,
			Criteria: criteria,
			Seats:    skippedSeats(criteria),
			Gaps:     []int{},
			Note:     LowSignalNote,
			Reason:   LowSignalReason,
		}
		s.finishRun(ctx, run, start, result)
		return result, nil
	}

	seats := s.runSeats(ctx, criteria, rawText, topK)

	result := &types.ProjectResult{
		RunID:    run.RunID,
		Criteria: criteria,
		Seats:    seats,
		Gaps:     []int{},
	}

	failedCount := 0
	for i, seat := range seats {
		result.Seats[i].Index = i
		if seat.Gap {
			result.Gaps = append(result.Gaps, i)
		}
		if seat.State == types.SeatStateFailed {
			failedCount++
		}
		run.ResultCount += len(seat.Results)
	}

	switch {
	case ctx.Err() != nil:
		result.Status = types.RunStatusFailed
		result.Reason = "cancelled"
		run.ErrorType = "cancelled"
		run.ErrorMessage = ctx.Err().Error()
	case failedCount == len(seats):
		result.Status = types.RunStatusFailed
		result.Reason = seats[0].ErrorMessage
		run.ErrorType = seats[0].ErrorType
		run.ErrorMessage = seats[0].ErrorMessage
		run.ErrorStage = seats[0].ErrorStage
	default:
		result.Status = types.RunStatusOK
		if len(result.Gaps) > 0 {
			result.Note = fmt.Sprintf("No matches for %d of %d seats.", len(result.Gaps), len(seats))
			run.Note = result.Note
		}
	}
	run.Status = result.Status

	s.finishRun(ctx, run, start, result)
	return result, nil
}

// runSeats executes the seats with bounded parallelism, preserving input
// order. On caller abort, in-flight seats complete and persist; seats not
// yet started are marked failed as cancelled.
func (s *Service) runSeats(ctx context.Context, criteria []types.Criteria, rawText string, topK int) []types.SeatResult {
	seats := make([]types.SeatResult, len(criteria))

	// In-flight LLM calls are allowed to complete even if the caller aborts;
	// only new seats stop being scheduled.
	seatCtx := context.WithoutCancel(ctx)

	g := new(errgroup.Group)
	g.SetLimit(s.maxConcurrent)
	for i := range criteria {
		if ctx.Err() != nil {
			seats[i] = cancelledSeat(criteria[i], ctx.Err())
			continue
		}
		g.Go(func() error {
			seats[i] = s.seats.Search(seatCtx, criteria[i], rawText, topK)
			return nil
		})
	}
	_ = g.Wait()
	return seats
}

// finishRun stamps the terminal status, writes artifacts and persists the
// final audit row. Artifact or persistence failures are logged, never
// surfaced to the caller holding the search result.
func (s *Service) finishRun(ctx context.Context, run *types.SearchRun, start time.Time, result *types.ProjectResult) {
	completed := time.Now().UTC()
	duration := completed.Sub(start).Milliseconds()
	run.CompletedAt = &completed
	run.DurationMS = &duration

	if s.artifacts != nil {
		dir, err := s.artifacts.WriteRun(run, result.Criteria, result.Seats)
		if err != nil {
			log.Printf("[search] run %s: failed to write artifacts: %v", run.RunID, err)
		} else {
			run.RunDir = dir
		}
	}

	// Use a detached context so a cancelled search still gets its audit row.
	if err := s.runs.FinishSearchRun(context.WithoutCancel(ctx), run); err != nil {
		log.Printf("[search] run %s: failed to finish run record: %v", run.RunID, err)
	}

	log.Printf("[search] run %s finished: status=%s results=%d duration=%dms",
		run.RunID, run.Status, run.ResultCount, duration)
}

// skippedSeats builds the zero-work seat results for a guarded run.
func skippedSeats(criteria []types.Criteria) []types.SeatResult {
	seats := make([]types.SeatResult, len(criteria))
	for i, crit := range criteria {
		seats[i] = types.SeatResult{
			Index:    i,
			Criteria: crit.Normalized(),
			State:    types.SeatStateSkipped,
			Results:  []types.CandidateResult{},
			Reason:   LowSignalReason,
		}
	}
	return seats
}

// cancelledSeat marks a seat that was never started because the caller
// aborted the run.
func cancelledSeat(crit types.Criteria, cause error) types.SeatResult {
	return types.SeatResult{
		Criteria:     crit.Normalized(),
		State:        types.SeatStateFailed,
		Results:      []types.CandidateResult{},
		ErrorType:    "cancelled",
		ErrorStage:   StageGating,
		ErrorMessage: cause.Error(),
	}
}
