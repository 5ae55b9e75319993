package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-search/internal/types"
)

func gatingStore() *fakeStore {
	return &fakeStore{candidates: map[string]fakeCandidate{
		"cand-a": {roles: []string{"backend"}, seniorities: []string{"senior"}},
		"cand-b": {roles: []string{"backend"}, seniorities: []string{"middle"}},
		"cand-c": {roles: []string{"frontend"}, seniorities: []string{"senior"}},
		"cand-d": {roles: []string{"golang developer"}, seniorities: []string{"lead"}},
		"cand-e": {roles: []string{"backend"}, seniorities: []string{"junior"}},
	}}
}

func TestGatingFilter_ExactWindow(t *testing.T) {
	g := NewGatingFilter(gatingStore(), 0, nil)

	ids, err := g.Filter(context.Background(), types.Criteria{Role: "backend", Seniority: "senior"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cand-a"}, ids)
}

func TestGatingFilter_AdjacencyWindow(t *testing.T) {
	g := NewGatingFilter(gatingStore(), 1, nil)

	ids, err := g.Filter(context.Background(), types.Criteria{Role: "backend", Seniority: "senior"})
	require.NoError(t, err)
	// Window 1 around senior admits middle and lead, not junior.
	assert.Equal(t, []string{"cand-a", "cand-b"}, ids)
}

func TestGatingFilter_SeniorityAliases(t *testing.T) {
	g := NewGatingFilter(gatingStore(), 0, nil)

	ids, err := g.Filter(context.Background(), types.Criteria{Role: "backend", Seniority: "sr"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cand-a"}, ids)
}

func TestGatingFilter_RoleSynonyms(t *testing.T) {
	synonyms := map[string][]string{"backend": {"golang developer"}}
	g := NewGatingFilter(gatingStore(), 1, synonyms)

	ids, err := g.Filter(context.Background(), types.Criteria{Role: "backend", Seniority: "lead"})
	require.NoError(t, err)
	assert.Contains(t, ids, "cand-d")
	assert.Contains(t, ids, "cand-a")
}

func TestGatingFilter_UnknownSeniorityDefaultsToSenior(t *testing.T) {
	g := NewGatingFilter(gatingStore(), 0, nil)

	ids, err := g.Filter(context.Background(), types.Criteria{Role: "backend", Seniority: "wizard"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cand-a"}, ids)
}

func TestGatingFilter_EmptyGateIsNotError(t *testing.T) {
	g := NewGatingFilter(gatingStore(), 0, nil)

	ids, err := g.Filter(context.Background(), types.Criteria{Role: "devops", Seniority: "senior"})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestGatingFilter_StoreFailure(t *testing.T) {
	store := gatingStore()
	store.failOp = "gate"
	g := NewGatingFilter(store, 0, nil)

	_, err := g.Filter(context.Background(), types.Criteria{Role: "backend", Seniority: "senior"})
	require.Error(t, err)

	var retrieval *RetrievalError
	require.ErrorAs(t, err, &retrieval)
	assert.Equal(t, StageGating, retrieval.Stage)
}

func TestAllowedSeniorities_FullLadderWindow(t *testing.T) {
	got := allowedSeniorities("senior", 10)
	assert.Equal(t, types.SeniorityLadder, got)
}

func TestAllowedSeniorities_EdgeOfLadder(t *testing.T) {
	got := allowedSeniorities("junior", 1)
	assert.Equal(t, []string{"junior", "middle"}, got)

	got = allowedSeniorities("manager", 1)
	assert.Equal(t, []string{"lead", "manager"}, got)
}
