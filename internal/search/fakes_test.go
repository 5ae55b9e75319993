package search

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/jonathan/cv-search/internal/llm"
	"github.com/jonathan/cv-search/internal/types"
)

// fakeCandidate is one record in the in-memory store.
type fakeCandidate struct {
	roles       []string
	seniorities []string
	tech        []string
	domains     []string
	doc         CandidateDoc
}

// fakeStore is an in-memory Store for pipeline tests. Setting failOp makes
// the named operation return an error.
type fakeStore struct {
	candidates map[string]fakeCandidate
	ranks      map[string]float64
	failOp     string
}

var errStore = errors.New("store unavailable")

func (f *fakeStore) GateCandidates(_ context.Context, roles, seniorities []string) ([]string, error) {
	if f.failOp == "gate" {
		return nil, errStore
	}
	var ids []string
	for id, cand := range f.candidates {
		if containsAny(cand.roles, roles) && containsAny(cand.seniorities, seniorities) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeStore) TagFrequencies(_ context.Context, candidateIDs []string, tagType string, tags []string) (map[string]int, error) {
	if f.failOp == "frequencies" {
		return nil, errStore
	}
	freqs := make(map[string]int)
	for _, id := range candidateIDs {
		cand := f.candidates[id]
		for _, tag := range tags {
			if contains(f.tagsOf(cand, tagType), tag) {
				freqs[tag]++
			}
		}
	}
	return freqs, nil
}

func (f *fakeStore) TagHits(_ context.Context, candidateIDs []string, tagType string, tags []string) (map[string]map[string]bool, error) {
	if f.failOp == "hits" {
		return nil, errStore
	}
	hits := make(map[string]map[string]bool)
	for _, id := range candidateIDs {
		cand := f.candidates[id]
		for _, tag := range tags {
			if contains(f.tagsOf(cand, tagType), tag) {
				if hits[id] == nil {
					hits[id] = make(map[string]bool)
				}
				hits[id][tag] = true
			}
		}
	}
	return hits, nil
}

func (f *fakeStore) TextRanks(_ context.Context, candidateIDs []string, _ string) (map[string]float64, error) {
	if f.failOp == "ranks" {
		return nil, errStore
	}
	ranks := make(map[string]float64)
	for _, id := range candidateIDs {
		if r, ok := f.ranks[id]; ok {
			ranks[id] = r
		}
	}
	return ranks, nil
}

func (f *fakeStore) CandidateDocs(_ context.Context, candidateIDs []string) (map[string]CandidateDoc, error) {
	if f.failOp == "docs" {
		return nil, errStore
	}
	docs := make(map[string]CandidateDoc)
	for _, id := range candidateIDs {
		if cand, ok := f.candidates[id]; ok {
			doc := cand.doc
			doc.CandidateID = id
			docs[id] = doc
		}
	}
	return docs, nil
}

func (f *fakeStore) tagsOf(cand fakeCandidate, tagType string) []string {
	switch tagType {
	case TagTypeTech:
		return cand.tech
	case TagTypeDomain:
		return cand.domains
	case TagTypeRole:
		return cand.roles
	case TagTypeSeniority:
		return cand.seniorities
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func containsAny(values, candidates []string) bool {
	for _, c := range candidates {
		if contains(values, c) {
			return true
		}
	}
	return false
}

// fakeLLM replays canned responses or errors, in order, one per call.
type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	if len(f.responses) > 0 {
		return f.responses[len(f.responses)-1], nil
	}
	return "[]", nil
}

func (f *fakeLLM) GetModel(llm.ModelTier) string { return "fake-model" }

func (f *fakeLLM) Close() error { return nil }

// fakeRecorder captures run audit calls.
type fakeRecorder struct {
	mu       sync.Mutex
	created  []*types.SearchRun
	finished []*types.SearchRun
	failOn   string
}

func (f *fakeRecorder) CreateSearchRun(_ context.Context, run *types.SearchRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn == "create" {
		return errors.New("insert failed")
	}
	copied := *run
	f.created = append(f.created, &copied)
	return nil
}

func (f *fakeRecorder) FinishSearchRun(_ context.Context, run *types.SearchRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn == "finish" {
		return errors.New("update failed")
	}
	copied := *run
	f.finished = append(f.finished, &copied)
	return nil
}

// fakeSink captures artifact writes.
type fakeSink struct {
	mu     sync.Mutex
	writes int
	seats  []types.SeatResult
}

func (f *fakeSink) WriteRun(_ *types.SearchRun, _ []types.Criteria, seats []types.SeatResult) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.seats = append([]types.SeatResult(nil), seats...)
	return "runs/fake", nil
}
