package search

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jonathan/cv-search/internal/config"
	"github.com/jonathan/cv-search/internal/llm"
	"github.com/jonathan/cv-search/internal/types"
)

// SeatSearcher runs the full pipeline for one seat: gating, fan-in planning,
// lexical retrieval, LLM verdict.
type SeatSearcher struct {
	store   Store
	gating  *GatingFilter
	planner FanInPlanner
	lexical *LexicalRetriever
	verdict *VerdictRanker
}

// NewSeatSearcher wires the pipeline stages from the search tunables.
func NewSeatSearcher(store Store, cfg config.SearchConfig, client llm.Client) *SeatSearcher {
	return &SeatSearcher{
		store:   store,
		gating:  NewGatingFilter(store, cfg.SeniorityWindow, cfg.RoleSynonyms),
		planner: FanInPlanner{Multiplier: cfg.FanInMultiplier, Max: cfg.FanInMax},
		lexical: NewLexicalRetriever(store, cfg.Weights),
		verdict: NewVerdictRanker(client, cfg),
	}
}

// Search runs one seat through the pipeline. It always returns a SeatResult:
// an empty gate is a gap (DONE, no results), a store failure is FAILED, and
// an LLM failure degrades to lexical ordering rather than failing the seat.
func (s *SeatSearcher) Search(ctx context.Context, crit types.Criteria, rawText string, topK int) types.SeatResult {
	start := time.Now()
	result := types.SeatResult{
		Criteria: crit.Normalized(),
		State:    types.SeatStateGating,
		Results:  []types.CandidateResult{},
	}
	defer func() {
		result.Metrics.DurationMS = time.Since(start).Milliseconds()
	}()

	gated, err := s.gating.Filter(ctx, result.Criteria)
	if err != nil {
		return failSeat(result, err)
	}
	result.Metrics.GateCount = len(gated)

	if len(gated) == 0 {
		// Nobody passes the hard constraints: a gap, not an error.
		result.State = types.SeatStateDone
		result.Gap = true
		result.Reason = "no candidates passed gating"
		return result
	}

	result.State = types.SeatStateFanIn
	lexFanIn := s.planner.LexFanIn(topK, len(gated))
	result.Metrics.LexFanIn = lexFanIn

	result.State = types.SeatStateLexical
	pool, err := s.lexical.Retrieve(ctx, result.Criteria, gated, rawText, lexFanIn)
	if err != nil {
		return failSeat(result, err)
	}
	result.Metrics.PoolSize = len(pool)

	poolIDs := make([]string, len(pool))
	for i, sc := range pool {
		poolIDs[i] = sc.CandidateID
	}
	docs, err := s.store.CandidateDocs(ctx, poolIDs)
	if err != nil {
		return failSeat(result, &RetrievalError{Stage: StageVerdict, Op: "candidate docs", Err: err})
	}

	result.State = types.SeatStateVerdict
	results, degraded := s.verdict.Rank(ctx, result.Criteria, pool, docs, topK)
	if results == nil {
		results = []types.CandidateResult{}
	}

	result.State = types.SeatStateDone
	result.Results = results
	result.Degraded = degraded
	result.Gap = len(results) == 0
	return result
}

// failSeat marks a seat FAILED with the error's stage and type recorded.
func failSeat(result types.SeatResult, err error) types.SeatResult {
	stageAtFailure := stageName(result.State)
	result.State = types.SeatStateFailed
	result.ErrorMessage = err.Error()

	var retrieval *RetrievalError
	if errors.As(err, &retrieval) {
		result.ErrorType = "retrieval_error"
		result.ErrorStage = retrieval.Stage
	} else {
		result.ErrorType = "unexpected_error"
		result.ErrorStage = stageAtFailure
	}

	log.Printf("[seat] search failed at %s: %v", result.ErrorStage, err)
	return result
}

// stageName maps a pipeline state to its stage label for error records.
func stageName(state types.SeatState) string {
	switch state {
	case types.SeatStateGating:
		return StageGating
	case types.SeatStateFanIn:
		return StageFanIn
	case types.SeatStateLexical:
		return StageLexical
	case types.SeatStateVerdict:
		return StageVerdict
	}
	return string(state)
}
