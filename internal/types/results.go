package types

// SeatState tracks a seat's progress through the search pipeline.
type SeatState string

// Seat pipeline states. GATING through DONE is the normal progression;
// SKIPPED is reachable only from the low-signal guard, FAILED only from a
// retrieval or unexpected error.
const (
	SeatStateGating  SeatState = "GATING"
	SeatStateFanIn   SeatState = "FAN_IN_PLANNING"
	SeatStateLexical SeatState = "LEXICAL_RETRIEVAL"
	SeatStateVerdict SeatState = "LLM_VERDICT"
	SeatStateDone    SeatState = "DONE"
	SeatStateSkipped SeatState = "SKIPPED"
	SeatStateFailed  SeatState = "FAILED"
)

// SeatMetrics records population sizes and timing for one seat search.
type SeatMetrics struct {
	GateCount  int   `json:"gate_count"`
	LexFanIn   int   `json:"lex_fanin"`
	PoolSize   int   `json:"pool_size"`
	DurationMS int64 `json:"duration_ms"`
}

// LexicalBreakdown exposes the components behind a lexical score so that
// rankings stay explainable.
type LexicalBreakdown struct {
	Score        float64 `json:"score"`
	Coverage     float64 `json:"coverage"`
	MustHitCount int     `json:"must_hit_count"`
	NiceHitCount int     `json:"nice_hit_count"`
	MustIDFCov   float64 `json:"must_idf_cov"`
	NiceIDFCov   float64 `json:"nice_idf_cov"`
	DomainHit    bool    `json:"domain_hit"`
	FTSRank      float64 `json:"fts_rank"`
}

// Verdict is the structured LLM assessment of one candidate against one seat.
type Verdict struct {
	CandidateID         string          `json:"candidate_id"`
	OverallMatchScore   float64         `json:"overall_match_score"`
	MatchSummary        string          `json:"match_summary"`
	Strengths           []string        `json:"strengths"`
	Gaps                []string        `json:"gaps"`
	MustHaveConfirmed   map[string]bool `json:"must_have_confirmed,omitempty"`
	NiceToHaveConfirmed map[string]bool `json:"nice_to_have_confirmed,omitempty"`
}

// CandidateResult is one ranked candidate within a seat result.
type CandidateResult struct {
	CandidateID        string           `json:"candidate_id"`
	Score              float64          `json:"score"`
	Rank               int              `json:"rank"`
	Lexical            LexicalBreakdown `json:"lexical"`
	MustHave           map[string]bool  `json:"must_have,omitempty"`
	NiceToHave         map[string]bool  `json:"nice_to_have,omitempty"`
	Verdict            *Verdict         `json:"verdict,omitempty"`
	VerdictUnavailable bool             `json:"verdict_unavailable,omitempty"`
	LastUpdated        string           `json:"last_updated,omitempty"`
}

// SeatResult is the outcome of searching one seat.
type SeatResult struct {
	Index        int               `json:"index"`
	Criteria     Criteria          `json:"criteria"`
	State        SeatState         `json:"state"`
	Gap          bool              `json:"gap"`
	Degraded     bool              `json:"degraded,omitempty"`
	Metrics      SeatMetrics       `json:"metrics"`
	Results      []CandidateResult `json:"results"`
	Reason       string            `json:"reason,omitempty"`
	ErrorType    string            `json:"error_type,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	ErrorStage   string            `json:"error_stage,omitempty"`
}

// ProjectResult is the outcome of a multi-seat project search.
type ProjectResult struct {
	RunID    string       `json:"run_id"`
	Status   RunStatus    `json:"status"`
	Criteria []Criteria   `json:"criteria"`
	Seats    []SeatResult `json:"seats"`
	Gaps     []int        `json:"gaps"`
	Note     string       `json:"note,omitempty"`
	Reason   string       `json:"reason,omitempty"`
}
