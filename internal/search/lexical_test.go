package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-search/internal/config"
	"github.com/jonathan/cv-search/internal/types"
)

func lexicalStore() *fakeStore {
	return &fakeStore{candidates: map[string]fakeCandidate{
		"cand-1": {tech: []string{"go", "kafka", "postgres"}, domains: []string{"fintech"}, doc: CandidateDoc{LastUpdated: "2026-05-01"}},
		"cand-2": {tech: []string{"go", "postgres"}, doc: CandidateDoc{LastUpdated: "2026-06-01"}},
		"cand-3": {tech: []string{"go"}, doc: CandidateDoc{LastUpdated: "2026-07-01"}},
		"cand-4": {tech: []string{"python"}, doc: CandidateDoc{LastUpdated: "2026-04-01"}},
	}}
}

func gatedIDs() []string {
	return []string{"cand-1", "cand-2", "cand-3", "cand-4"}
}

func TestLexicalRetrieve_CoverageOrdering(t *testing.T) {
	r := NewLexicalRetriever(lexicalStore(), config.DefaultLexicalWeights())
	crit := types.Criteria{Role: "backend", MustHave: []string{"go", "kafka"}}

	scored, err := r.Retrieve(context.Background(), crit, gatedIDs(), "", 10)
	require.NoError(t, err)
	require.Len(t, scored, 4)

	// Full must-have coverage ranks first.
	assert.Equal(t, "cand-1", scored[0].CandidateID)
	assert.Equal(t, 1.0, scored[0].Lexical.Coverage)
	assert.Equal(t, 2, scored[0].Lexical.MustHitCount)

	// No coverage ranks last.
	assert.Equal(t, "cand-4", scored[3].CandidateID)
	assert.Equal(t, 0.0, scored[3].Lexical.Coverage)
}

func TestLexicalRetrieve_RarityBreaksCoverageTies(t *testing.T) {
	store := &fakeStore{candidates: map[string]fakeCandidate{
		"cand-a": {tech: []string{"kafka"}},
		"cand-b": {tech: []string{"go"}},
		"cand-c": {tech: []string{"go"}},
		"cand-d": {tech: []string{"go"}},
	}}
	r := NewLexicalRetriever(store, config.DefaultLexicalWeights())
	crit := types.Criteria{Role: "backend", MustHave: []string{"go", "kafka"}}

	scored, err := r.Retrieve(context.Background(), crit, []string{"cand-a", "cand-b", "cand-c", "cand-d"}, "", 10)
	require.NoError(t, err)

	// Same coverage (1 of 2), but kafka is rarer in the gated set than go,
	// so the kafka holder outranks the go holders.
	assert.Equal(t, "cand-a", scored[0].CandidateID)
	assert.Greater(t, scored[0].Lexical.MustIDFCov, scored[1].Lexical.MustIDFCov)
}

func TestLexicalRetrieve_NormalizedComponents(t *testing.T) {
	store := lexicalStore()
	store.ranks = map[string]float64{"cand-1": 0.8, "cand-2": 0.2}
	r := NewLexicalRetriever(store, config.DefaultLexicalWeights())
	crit := types.Criteria{
		Role:       "backend",
		Domains:    []string{"fintech"},
		MustHave:   []string{"go", "kafka"},
		NiceToHave: []string{"postgres"},
	}

	scored, err := r.Retrieve(context.Background(), crit, gatedIDs(), "payments platform", 10)
	require.NoError(t, err)

	for _, sc := range scored {
		lex := sc.Lexical
		assert.GreaterOrEqual(t, lex.Coverage, 0.0)
		assert.LessOrEqual(t, lex.Coverage, 1.0)
		assert.GreaterOrEqual(t, lex.MustIDFCov, 0.0)
		assert.LessOrEqual(t, lex.MustIDFCov, 1.0)
		assert.GreaterOrEqual(t, lex.NiceIDFCov, 0.0)
		assert.LessOrEqual(t, lex.NiceIDFCov, 1.0)
		assert.GreaterOrEqual(t, lex.FTSRank, 0.0)
		assert.LessOrEqual(t, lex.FTSRank, 1.0)
	}

	// The domain hit contributes the bonus exactly once.
	assert.True(t, scored[0].Lexical.DomainHit)
}

func TestLexicalRetrieve_InputOrderInvariance(t *testing.T) {
	r := NewLexicalRetriever(lexicalStore(), config.DefaultLexicalWeights())
	crit := types.Criteria{Role: "backend", MustHave: []string{"go", "kafka"}, NiceToHave: []string{"postgres"}}

	forward, err := r.Retrieve(context.Background(), crit, gatedIDs(), "", 10)
	require.NoError(t, err)

	shuffled := []string{"cand-3", "cand-1", "cand-4", "cand-2"}
	backward, err := r.Retrieve(context.Background(), crit, shuffled, "", 10)
	require.NoError(t, err)

	require.Equal(t, len(forward), len(backward))
	for i := range forward {
		assert.Equal(t, forward[i].CandidateID, backward[i].CandidateID)
		assert.InDelta(t, forward[i].Lexical.Score, backward[i].Lexical.Score, 1e-12)
	}
}

func TestLexicalRetrieve_TieBreaksByRecencyThenID(t *testing.T) {
	store := &fakeStore{candidates: map[string]fakeCandidate{
		"cand-b": {tech: []string{"go"}, doc: CandidateDoc{LastUpdated: "2026-01-01"}},
		"cand-a": {tech: []string{"go"}, doc: CandidateDoc{LastUpdated: "2026-01-01"}},
		"cand-c": {tech: []string{"go"}, doc: CandidateDoc{LastUpdated: "2026-03-01"}},
	}}
	r := NewLexicalRetriever(store, config.DefaultLexicalWeights())
	crit := types.Criteria{Role: "backend", MustHave: []string{"go"}}

	scored, err := r.Retrieve(context.Background(), crit, []string{"cand-a", "cand-b", "cand-c"}, "", 10)
	require.NoError(t, err)

	// Equal scores: most recent first, then id ascending.
	assert.Equal(t, "cand-c", scored[0].CandidateID)
	assert.Equal(t, "cand-a", scored[1].CandidateID)
	assert.Equal(t, "cand-b", scored[2].CandidateID)
}

func TestLexicalRetrieve_LimitApplied(t *testing.T) {
	r := NewLexicalRetriever(lexicalStore(), config.DefaultLexicalWeights())
	crit := types.Criteria{Role: "backend", MustHave: []string{"go"}}

	scored, err := r.Retrieve(context.Background(), crit, gatedIDs(), "", 2)
	require.NoError(t, err)
	assert.Len(t, scored, 2)
}

func TestLexicalRetrieve_NiceNeverDoubleCountsMust(t *testing.T) {
	r := NewLexicalRetriever(lexicalStore(), config.DefaultLexicalWeights())
	crit := types.Criteria{Role: "backend", MustHave: []string{"go"}, NiceToHave: []string{"go", "postgres"}}

	scored, err := r.Retrieve(context.Background(), crit, gatedIDs(), "", 10)
	require.NoError(t, err)

	for _, sc := range scored {
		_, inNice := sc.NiceHits["go"]
		assert.False(t, inNice, "go must not be counted under nice-to-have")
	}
}

func TestLexicalRetrieve_StoreFailure(t *testing.T) {
	store := lexicalStore()
	store.failOp = "hits"
	r := NewLexicalRetriever(store, config.DefaultLexicalWeights())
	crit := types.Criteria{Role: "backend", MustHave: []string{"go"}}

	_, err := r.Retrieve(context.Background(), crit, gatedIDs(), "", 10)
	require.Error(t, err)

	var retrieval *RetrievalError
	require.ErrorAs(t, err, &retrieval)
	assert.Equal(t, StageLexical, retrieval.Stage)
}
