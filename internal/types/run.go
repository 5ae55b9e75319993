package types

import "time"

// RunStatus is the lifecycle status of a search run record.
type RunStatus string

// Run statuses. A run starts as running and moves exactly once to one of
// the terminal statuses.
const (
	RunStatusRunning RunStatus = "running"
	RunStatusOK      RunStatus = "ok"
	RunStatusSkipped RunStatus = "skipped"
	RunStatusFailed  RunStatus = "failed"
)

// Terminal reports whether the status is final.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusOK, RunStatusSkipped, RunStatusFailed:
		return true
	}
	return false
}

// RunKind distinguishes the entry points that create run records.
type RunKind string

// Run kinds.
const (
	RunKindSeat    RunKind = "seat"
	RunKindProject RunKind = "project"
	RunKindPresale RunKind = "presale"
)

// ValidRunKind reports whether k is a known run kind.
func ValidRunKind(k RunKind) bool {
	switch k {
	case RunKindSeat, RunKindProject, RunKindPresale:
		return true
	}
	return false
}

// SearchRun is the audit record kept for every search invocation, including
// skipped and failed ones. CompletedAt is set exactly when the status is
// terminal; after that only the feedback fields may change.
type SearchRun struct {
	RunID        string     `json:"run_id"`
	RunKind      RunKind    `json:"run_kind"`
	Status       RunStatus  `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	DurationMS   *int64     `json:"duration_ms,omitempty"`
	ResultCount  int        `json:"result_count"`
	CriteriaJSON string     `json:"criteria_json,omitempty"`
	RawText      string     `json:"raw_text,omitempty"`
	TopK         int        `json:"top_k"`
	SeatCount    int        `json:"seat_count"`
	Note         string     `json:"note,omitempty"`
	RunDir       string     `json:"run_dir,omitempty"`
	ErrorType    string     `json:"error_type,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ErrorStage   string     `json:"error_stage,omitempty"`

	FeedbackSentiment   *string    `json:"feedback_sentiment,omitempty"`
	FeedbackComment     *string    `json:"feedback_comment,omitempty"`
	FeedbackSubmittedAt *time.Time `json:"feedback_submitted_at,omitempty"`
}
