package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/cv-search/internal/config"
	"github.com/jonathan/cv-search/internal/llm"
	"github.com/jonathan/cv-search/internal/prompts"
	"github.com/jonathan/cv-search/internal/schemas"
	"github.com/jonathan/cv-search/internal/types"
)

// VerdictRanker asks the LLM for one structured verdict per candidate in a
// single batched call, validates each entry independently, and falls back to
// lexical ordering when the call cannot be completed.
type VerdictRanker struct {
	client           llm.Client
	tier             llm.ModelTier
	timeout          time.Duration
	retryDelay       time.Duration
	evidenceMaxChars int
}

// NewVerdictRanker builds a ranker from the search tunables.
func NewVerdictRanker(client llm.Client, cfg config.SearchConfig) *VerdictRanker {
	return &VerdictRanker{
		client:           client,
		tier:             llm.TierStandard,
		timeout:          time.Duration(cfg.VerdictTimeoutSeconds) * time.Second,
		retryDelay:       time.Duration(cfg.VerdictRetryDelayMS) * time.Millisecond,
		evidenceMaxChars: cfg.EvidenceMaxChars,
	}
}

// Rank produces the final ordering for a seat: verdict score descending,
// lexical score descending, candidate id ascending, capped at topK. The
// second return value reports whether the seat degraded to pure lexical
// ordering because the LLM call failed.
//
// A candidate whose verdict entry is missing or fails schema validation is
// kept with verdict_unavailable set and ranked after every candidate with a
// valid verdict.
func (v *VerdictRanker) Rank(ctx context.Context, crit types.Criteria, pool []ScoredCandidate, docs map[string]CandidateDoc, topK int) ([]types.CandidateResult, bool) {
	if len(pool) == 0 {
		return nil, false
	}

	prompt := v.buildPrompt(crit, pool, docs)
	raw, err := v.generateWithRetry(ctx, prompt)
	if err != nil {
		log.Printf("[verdict] %v; falling back to lexical ordering", err)
		return v.lexicalFallback(pool, topK), true
	}

	verdicts, err := v.parseVerdicts(raw, pool)
	if err != nil {
		log.Printf("[verdict] unparseable response: %v; falling back to lexical ordering", err)
		return v.lexicalFallback(pool, topK), true
	}

	results := make([]types.CandidateResult, 0, len(pool))
	for _, sc := range pool {
		res := candidateResult(sc)
		if verdict, ok := verdicts[sc.CandidateID]; ok {
			res.Verdict = verdict
			res.Score = verdict.OverallMatchScore
		} else {
			res.VerdictUnavailable = true
			res.Score = sc.Lexical.Score
		}
		results = append(results, res)
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		// Valid verdicts always outrank unavailable ones.
		if a.VerdictUnavailable != b.VerdictUnavailable {
			return !a.VerdictUnavailable
		}
		if !a.VerdictUnavailable && a.Verdict.OverallMatchScore != b.Verdict.OverallMatchScore {
			return a.Verdict.OverallMatchScore > b.Verdict.OverallMatchScore
		}
		if a.Lexical.Score != b.Lexical.Score {
			return a.Lexical.Score > b.Lexical.Score
		}
		return a.CandidateID < b.CandidateID
	})

	return capAndRank(results, topK), false
}

// generateWithRetry issues the verdict call with a per-attempt timeout and
// one retry after a short delay. Caller cancellation is never retried.
func (v *VerdictRanker) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	const attempts = 2

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, v.timeout)
		raw, err := v.client.GenerateJSON(callCtx, prompt, v.tier)
		cancel()
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", &VerdictTransportError{Attempts: attempt, Err: ctx.Err()}
		}
		if attempt < attempts {
			select {
			case <-time.After(v.retryDelay):
			case <-ctx.Done():
				return "", &VerdictTransportError{Attempts: attempt, Err: ctx.Err()}
			}
		}
	}
	return "", &VerdictTransportError{Attempts: attempts, Err: lastErr}
}

// parseVerdicts decodes the response array and schema-validates each entry
// on its own. Invalid entries and ids outside the pool are dropped.
func (v *VerdictRanker) parseVerdicts(raw string, pool []ScoredCandidate) (map[string]*types.Verdict, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(raw)), &entries); err != nil {
		return nil, fmt.Errorf("expected JSON array: %w", err)
	}

	inPool := make(map[string]bool, len(pool))
	for _, sc := range pool {
		inPool[sc.CandidateID] = true
	}

	verdicts := make(map[string]*types.Verdict, len(entries))
	for _, entry := range entries {
		if err := schemas.ValidateVerdictEntry(string(entry)); err != nil {
			var verdict types.Verdict
			_ = json.Unmarshal(entry, &verdict)
			log.Printf("[verdict] %v", &VerdictSchemaError{CandidateID: verdict.CandidateID, Err: err})
			continue
		}

		var verdict types.Verdict
		if err := json.Unmarshal(entry, &verdict); err != nil {
			log.Printf("[verdict] %v", &VerdictSchemaError{Err: err})
			continue
		}
		if !inPool[verdict.CandidateID] {
			log.Printf("[verdict] dropping verdict for unknown candidate %q", verdict.CandidateID)
			continue
		}
		verdict.OverallMatchScore = clamp01(verdict.OverallMatchScore)
		verdicts[verdict.CandidateID] = &verdict
	}
	return verdicts, nil
}

// lexicalFallback keeps the pool's lexical order and marks no verdicts.
func (v *VerdictRanker) lexicalFallback(pool []ScoredCandidate, topK int) []types.CandidateResult {
	results := make([]types.CandidateResult, 0, len(pool))
	for _, sc := range pool {
		res := candidateResult(sc)
		res.VerdictUnavailable = true
		res.Score = sc.Lexical.Score
		results = append(results, res)
	}
	return capAndRank(results, topK)
}

// candidateResult copies the lexical evidence into a result shell.
func candidateResult(sc ScoredCandidate) types.CandidateResult {
	return types.CandidateResult{
		CandidateID: sc.CandidateID,
		Lexical:     sc.Lexical,
		MustHave:    sc.MustHits,
		NiceToHave:  sc.NiceHits,
		LastUpdated: sc.LastUpdated,
	}
}

// capAndRank trims to topK and assigns 1-based ranks.
func capAndRank(results []types.CandidateResult, topK int) []types.CandidateResult {
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// buildPrompt renders the batched verdict prompt with one compact evidence
// block per candidate.
func (v *VerdictRanker) buildPrompt(crit types.Criteria, pool []ScoredCandidate, docs map[string]CandidateDoc) string {
	var blocks []string
	for _, sc := range pool {
		blocks = append(blocks, v.evidenceBlock(crit, sc, docs[sc.CandidateID]))
	}

	template := prompts.MustGet("search.json", "candidate-verdict")
	return prompts.Format(template, map[string]string{
		"Role":       orUnspecified(crit.Role),
		"Seniority":  orUnspecified(crit.Seniority),
		"Domains":    orUnspecified(strings.Join(crit.Domains, ", ")),
		"MustHave":   orUnspecified(strings.Join(crit.MustHave, ", ")),
		"NiceToHave": orUnspecified(strings.Join(crit.NiceToHave, ", ")),
		"Rationale":  orUnspecified(crit.Rationale),
		"Candidates": strings.Join(blocks, "\n"),
	})
}

// evidenceBlock compacts one candidate's profile into the few lines the
// verdict model actually needs, bounded by the configured character budget.
func (v *VerdictRanker) evidenceBlock(crit types.Criteria, sc ScoredCandidate, doc CandidateDoc) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- candidate_id: %s\n", sc.CandidateID)
	fmt.Fprintf(&b, "  lexical_score: %.3f (must-have coverage %.2f)\n", sc.Lexical.Score, sc.Lexical.Coverage)

	if snippet := firstSentences(doc.SummaryText, 1, 120); snippet != "" {
		fmt.Fprintf(&b, "  summary: %s\n", snippet)
	}
	if missing := missingTags(crit.MustHave, sc.MustHits); len(missing) > 0 {
		fmt.Fprintf(&b, "  missing_must_have: %s\n", strings.Join(missing, ", "))
	}
	if matched := matchedTags(crit.NiceToHave, sc.NiceHits); len(matched) > 0 {
		fmt.Fprintf(&b, "  matched_nice_to_have: %s\n", strings.Join(matched, ", "))
	}
	if evidence := firstSentences(doc.ExperienceText, 2, 150); evidence != "" {
		fmt.Fprintf(&b, "  experience: %s\n", evidence)
	}

	block := b.String()
	if len(block) > v.evidenceMaxChars {
		block = block[:v.evidenceMaxChars] + "\n"
	}
	return block
}

func missingTags(tags []string, hits map[string]bool) []string {
	var out []string
	for _, tag := range tags {
		if !hits[tag] {
			out = append(out, tag)
		}
	}
	return out
}

func matchedTags(tags []string, hits map[string]bool) []string {
	var out []string
	for _, tag := range tags {
		if hits[tag] {
			out = append(out, tag)
		}
	}
	return out
}

// firstSentences returns up to maxSentences leading sentences, each clipped
// to maxChars.
func firstSentences(text string, maxSentences, maxChars int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	var sentences []string
	remaining := text
	for len(sentences) < maxSentences && remaining != "" {
		idx := strings.IndexAny(remaining, ".!?")
		var sentence string
		if idx < 0 {
			sentence, remaining = remaining, ""
		} else {
			sentence, remaining = remaining[:idx+1], strings.TrimSpace(remaining[idx+1:])
		}
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if len(sentence) > maxChars {
			sentence = sentence[:maxChars]
		}
		sentences = append(sentences, sentence)
	}
	return strings.Join(sentences, " ")
}

func orUnspecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not specified"
	}
	return s
}
