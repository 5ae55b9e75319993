// Package types defines the shared data structures for the candidate search pipeline.
package types

import "strings"

// SeniorityLadder is the ordered seniority scale used for gating adjacency.
var SeniorityLadder = []string{"junior", "middle", "senior", "lead", "manager"}

// seniorityAliases maps common spellings onto canonical ladder levels.
var seniorityAliases = map[string]string{
	"jr":        "junior",
	"jun":       "junior",
	"mid":       "middle",
	"midlevel":  "middle",
	"mid-level": "middle",
	"sr":        "senior",
	"staff":     "lead",
	"principal": "manager",
	"head":      "manager",
}

// NormalizeSeniority lowercases a seniority label and maps known aliases
// onto the canonical ladder. Returns the empty string when the input is
// blank or unrecognized.
func NormalizeSeniority(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if canonical, ok := seniorityAliases[s]; ok {
		return canonical
	}
	for _, level := range SeniorityLadder {
		if s == level {
			return level
		}
	}
	return ""
}

// SeniorityIndex returns the position of a canonical seniority on the
// ladder, or -1 when it is not a ladder level.
func SeniorityIndex(s string) int {
	for i, level := range SeniorityLadder {
		if s == level {
			return i
		}
	}
	return -1
}

// Criteria describes the requirements for a single seat.
type Criteria struct {
	Role       string   `json:"role" validate:"required"`
	Seniority  string   `json:"seniority,omitempty"`
	Domains    []string `json:"domains,omitempty"`
	MustHave   []string `json:"must_have,omitempty"`
	NiceToHave []string `json:"nice_to_have,omitempty"`
	Rationale  string   `json:"rationale,omitempty"`
}

// Normalized returns a copy with lowercased, deduplicated tags. Nice-to-have
// tags that also appear in must-have are dropped so a tag is never counted
// under both weights.
func (c Criteria) Normalized() Criteria {
	out := c
	out.Role = strings.ToLower(strings.TrimSpace(c.Role))
	out.Seniority = NormalizeSeniority(c.Seniority)
	out.Domains = dedupeLower(c.Domains, nil)
	out.MustHave = dedupeLower(c.MustHave, nil)

	seen := make(map[string]bool, len(out.MustHave))
	for _, tag := range out.MustHave {
		seen[tag] = true
	}
	out.NiceToHave = dedupeLower(c.NiceToHave, seen)
	return out
}

// dedupeLower lowercases, trims and deduplicates values, skipping blanks and
// anything already present in exclude.
func dedupeLower(values []string, exclude map[string]bool) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] || exclude[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
