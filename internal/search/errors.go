// Package search implements the candidate search pipeline: low-signal
// guarding, gating, fan-in planning, lexical retrieval, LLM verdict ranking
// and seat/project orchestration.
package search

import "fmt"

// Pipeline stage names used in error records and run audit rows.
const (
	StageGating  = "gating"
	StageFanIn   = "fan_in_planning"
	StageLexical = "lexical_retrieval"
	StageVerdict = "llm_verdict"
)

// RetrievalError reports a candidate store failure. It always fails the
// seat; store calls are not retried.
type RetrievalError struct {
	Stage string
	Op    string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed at %s (%s): %v", e.Stage, e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// VerdictSchemaError reports a single LLM verdict entry that did not match
// the expected schema. It degrades only that candidate, never the seat.
type VerdictSchemaError struct {
	CandidateID string
	Err         error
}

func (e *VerdictSchemaError) Error() string {
	return fmt.Sprintf("verdict for candidate %s failed schema validation: %v", e.CandidateID, e.Err)
}

func (e *VerdictSchemaError) Unwrap() error { return e.Err }

// VerdictTransportError reports that the LLM verdict call failed after
// exhausting its retry. The seat falls back to lexical ordering.
type VerdictTransportError struct {
	Attempts int
	Err      error
}

func (e *VerdictTransportError) Error() string {
	return fmt.Sprintf("verdict call failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *VerdictTransportError) Unwrap() error { return e.Err }
