package search

import (
	"context"
	"sort"
	"strings"

	"github.com/jonathan/cv-search/internal/types"
)

// GatingFilter narrows the corpus to candidates whose role and seniority
// tags fit a seat before any scoring happens.
type GatingFilter struct {
	store    Store
	window   int
	synonyms map[string][]string
}

// NewGatingFilter builds a filter with the configured ladder window and
// role synonym map.
func NewGatingFilter(store Store, window int, synonyms map[string][]string) *GatingFilter {
	return &GatingFilter{store: store, window: window, synonyms: synonyms}
}

// Filter returns the ids of candidates passing the seat's hard constraints,
// sorted ascending. An empty result is a gap, not an error.
func (g *GatingFilter) Filter(ctx context.Context, crit types.Criteria) ([]string, error) {
	roles := g.acceptedRoles(crit.Role)
	seniorities := allowedSeniorities(crit.Seniority, g.window)

	ids, err := g.store.GateCandidates(ctx, roles, seniorities)
	if err != nil {
		return nil, &RetrievalError{Stage: StageGating, Op: "gate candidates", Err: err}
	}

	sort.Strings(ids)
	return ids, nil
}

// acceptedRoles expands a role through the synonym map. The requested role
// always matches itself.
func (g *GatingFilter) acceptedRoles(role string) []string {
	role = strings.ToLower(strings.TrimSpace(role))
	roles := []string{role}
	seen := map[string]bool{role: true}
	for _, syn := range g.synonyms[role] {
		syn = strings.ToLower(strings.TrimSpace(syn))
		if syn == "" || seen[syn] {
			continue
		}
		seen[syn] = true
		roles = append(roles, syn)
	}
	return roles
}

// allowedSeniorities returns the ladder levels within window steps of the
// requested seniority. An empty or unrecognized request falls back to the
// senior band; a window covering the whole ladder admits every level.
func allowedSeniorities(requested string, window int) []string {
	center := types.SeniorityIndex(types.NormalizeSeniority(requested))
	if center < 0 {
		center = types.SeniorityIndex("senior")
	}
	if window >= len(types.SeniorityLadder) {
		return append([]string(nil), types.SeniorityLadder...)
	}

	var out []string
	for i, level := range types.SeniorityLadder {
		if i >= center-window && i <= center+window {
			out = append(out, level)
		}
	}
	return out
}
