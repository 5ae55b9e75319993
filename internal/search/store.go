package search

import "context"

// CandidateDoc is the searchable document kept per candidate.
type CandidateDoc struct {
	CandidateID    string
	Seniority      string
	SummaryText    string
	ExperienceText string
	TagsText       string
	// LastUpdated is an ISO date string, used as a recency tie-break.
	LastUpdated string
}

// Store is the read-only candidate store the pipeline queries. The Postgres
// implementation lives in internal/db; tests use in-memory fakes.
type Store interface {
	// GateCandidates returns ids of candidates carrying any of the given
	// role tags and any of the given seniority tags, ordered by id.
	GateCandidates(ctx context.Context, roles, seniorities []string) ([]string, error)

	// TagFrequencies returns, per tag, how many of the given candidates
	// carry it. Tags carried by none of them are absent from the map.
	TagFrequencies(ctx context.Context, candidateIDs []string, tagType string, tags []string) (map[string]int, error)

	// TagHits returns, per candidate, the subset of the given tags it
	// carries.
	TagHits(ctx context.Context, candidateIDs []string, tagType string, tags []string) (map[string]map[string]bool, error)

	// TextRanks returns full-text relevance of each candidate document
	// against the query. Candidates with no match are absent from the map.
	TextRanks(ctx context.Context, candidateIDs []string, query string) (map[string]float64, error)

	// CandidateDocs returns the searchable documents for the given ids.
	CandidateDocs(ctx context.Context, candidateIDs []string) (map[string]CandidateDoc, error)
}

// Tag types stored per candidate.
const (
	TagTypeRole      = "role"
	TagTypeSeniority = "seniority"
	TagTypeTech      = "tech"
	TagTypeDomain    = "domain"
)
