package search

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/jonathan/cv-search/internal/config"
	"github.com/jonathan/cv-search/internal/types"
)

// ScoredCandidate is one gated candidate with its lexical evidence. The tag
// hit maps are kept so the verdict stage and result assembly do not query
// the store again.
type ScoredCandidate struct {
	CandidateID string
	Lexical     types.LexicalBreakdown
	MustHits    map[string]bool
	NiceHits    map[string]bool
	LastUpdated string
}

// LexicalRetriever scores the gated population deterministically: rarity
// weighted must/nice tag coverage, a domain bonus and a full-text blend.
type LexicalRetriever struct {
	store   Store
	weights config.LexicalWeights
}

// NewLexicalRetriever builds a retriever with the configured weight blend.
func NewLexicalRetriever(store Store, weights config.LexicalWeights) *LexicalRetriever {
	return &LexicalRetriever{store: store, weights: weights}
}

// Retrieve scores every gated candidate against the seat and returns the top
// limit of them ordered by score descending, recency descending, id
// ascending. Rarity weights are computed over the gated population only, so
// a tag every gated candidate carries contributes the same low weight to
// each of them.
func (r *LexicalRetriever) Retrieve(ctx context.Context, crit types.Criteria, gatedIDs []string, rawText string, limit int) ([]ScoredCandidate, error) {
	if len(gatedIDs) == 0 || limit <= 0 {
		return nil, nil
	}
	crit = crit.Normalized()

	allTags := append(append([]string{}, crit.MustHave...), crit.NiceToHave...)

	var (
		freqs map[string]int
		hits  map[string]map[string]bool
		err   error
	)
	if len(allTags) > 0 {
		freqs, err = r.store.TagFrequencies(ctx, gatedIDs, TagTypeTech, allTags)
		if err != nil {
			return nil, &RetrievalError{Stage: StageLexical, Op: "tag frequencies", Err: err}
		}
		hits, err = r.store.TagHits(ctx, gatedIDs, TagTypeTech, allTags)
		if err != nil {
			return nil, &RetrievalError{Stage: StageLexical, Op: "tag hits", Err: err}
		}
	}

	var domainHits map[string]map[string]bool
	if len(crit.Domains) > 0 {
		domainHits, err = r.store.TagHits(ctx, gatedIDs, TagTypeDomain, crit.Domains)
		if err != nil {
			return nil, &RetrievalError{Stage: StageLexical, Op: "domain hits", Err: err}
		}
	}

	ftsRanks, err := r.store.TextRanks(ctx, gatedIDs, buildTextQuery(crit, rawText))
	if err != nil {
		return nil, &RetrievalError{Stage: StageLexical, Op: "text ranks", Err: err}
	}
	normalizeRanks(ftsRanks)

	docs, err := r.store.CandidateDocs(ctx, gatedIDs)
	if err != nil {
		return nil, &RetrievalError{Stage: StageLexical, Op: "candidate docs", Err: err}
	}

	idf := rarityWeights(freqs, allTags, len(gatedIDs))
	mustTotal := sumWeights(idf, crit.MustHave)
	niceTotal := sumWeights(idf, crit.NiceToHave)

	scored := make([]ScoredCandidate, 0, len(gatedIDs))
	for _, id := range gatedIDs {
		sc := r.scoreCandidate(id, crit, hits[id], domainHits[id], ftsRanks[id], idf, mustTotal, niceTotal)
		if doc, ok := docs[id]; ok {
			sc.LastUpdated = doc.LastUpdated
		}
		scored = append(scored, sc)
	}

	sort.Slice(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Lexical.Score != b.Lexical.Score {
			return a.Lexical.Score > b.Lexical.Score
		}
		if a.LastUpdated != b.LastUpdated {
			return a.LastUpdated > b.LastUpdated
		}
		return a.CandidateID < b.CandidateID
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// scoreCandidate computes the weighted lexical score for one candidate.
func (r *LexicalRetriever) scoreCandidate(id string, crit types.Criteria, tagHits, domHits map[string]bool, ftsRank float64, idf map[string]float64, mustTotal, niceTotal float64) ScoredCandidate {
	mustHits := make(map[string]bool, len(crit.MustHave))
	var mustIDFSum float64
	mustHitCount := 0
	for _, tag := range crit.MustHave {
		hit := tagHits[tag]
		mustHits[tag] = hit
		if hit {
			mustHitCount++
			mustIDFSum += idf[tag]
		}
	}

	niceHits := make(map[string]bool, len(crit.NiceToHave))
	var niceIDFSum float64
	niceHitCount := 0
	for _, tag := range crit.NiceToHave {
		hit := tagHits[tag]
		niceHits[tag] = hit
		if hit {
			niceHitCount++
			niceIDFSum += idf[tag]
		}
	}

	coverage := 0.0
	if len(crit.MustHave) > 0 {
		coverage = float64(mustHitCount) / float64(len(crit.MustHave))
	}
	mustIDFCov := 0.0
	if mustTotal > 0 {
		mustIDFCov = mustIDFSum / mustTotal
	}
	niceIDFCov := 0.0
	if niceTotal > 0 {
		niceIDFCov = niceIDFSum / niceTotal
	}

	domainHit := false
	for _, hit := range domHits {
		if hit {
			domainHit = true
			break
		}
	}

	score := r.weights.Coverage*coverage +
		r.weights.MustIDF*mustIDFCov +
		r.weights.NiceIDF*niceIDFCov +
		r.weights.FTSRank*ftsRank
	if domainHit {
		score += r.weights.DomainBonus
	}

	return ScoredCandidate{
		CandidateID: id,
		MustHits:    mustHits,
		NiceHits:    niceHits,
		Lexical: types.LexicalBreakdown{
			Score:        score,
			Coverage:     coverage,
			MustHitCount: mustHitCount,
			NiceHitCount: niceHitCount,
			MustIDFCov:   mustIDFCov,
			NiceIDFCov:   niceIDFCov,
			DomainHit:    domainHit,
			FTSRank:      ftsRank,
		},
	}
}

// rarityWeights computes idf(tag) = ln((N+1)/(df+1)) + 1 over the gated
// population of size n. Tags absent from the population get the maximum
// weight; tags carried by everyone still contribute a weight of 1.
func rarityWeights(freqs map[string]int, tags []string, n int) map[string]float64 {
	idf := make(map[string]float64, len(tags))
	for _, tag := range tags {
		df := freqs[tag]
		idf[tag] = math.Log(float64(n+1)/float64(df+1)) + 1
	}
	return idf
}

// sumWeights totals the rarity weights of a tag set.
func sumWeights(idf map[string]float64, tags []string) float64 {
	var total float64
	for _, tag := range tags {
		total += idf[tag]
	}
	return total
}

// normalizeRanks rescales full-text ranks into [0, 1] in place so the FTS
// weight is comparable across seats.
func normalizeRanks(ranks map[string]float64) {
	var max float64
	for _, r := range ranks {
		if r > max {
			max = r
		}
	}
	if max <= 0 {
		return
	}
	for id, r := range ranks {
		ranks[id] = r / max
	}
}

// buildTextQuery assembles the full-text query from the seat fields and the
// brief free text.
func buildTextQuery(crit types.Criteria, rawText string) string {
	parts := []string{crit.Role}
	parts = append(parts, crit.Domains...)
	parts = append(parts, crit.MustHave...)
	parts = append(parts, crit.NiceToHave...)
	if crit.Rationale != "" {
		parts = append(parts, crit.Rationale)
	}
	if rawText != "" {
		parts = append(parts, rawText)
	}
	return strings.Join(parts, " ")
}
