package search

import (
	"regexp"
	"strings"

	"github.com/jonathan/cv-search/internal/types"
)

// briefTokenRe matches brief tokens, keeping tech spellings like c++, c# and
// node.js intact.
var briefTokenRe = regexp.MustCompile(`[a-z0-9_+#.]+`)

// genericHiringWords are role words that carry no search signal on their own.
var genericHiringWords = map[string]bool{
	"developer":  true,
	"developers": true,
	"engineer":   true,
	"engineers":  true,
	"dev":        true,
	"coder":      true,
	"programmer": true,
}

// briefStopwords are filler words stripped before the generic-vocabulary check.
var briefStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "we": true, "i": true,
	"need": true, "needs": true, "needed": true, "want": true, "wants": true,
	"looking": true, "look": true, "for": true, "hire": true, "hiring": true,
	"some": true, "good": true, "great": true, "strong": true, "please": true,
	"urgently": true, "urgent": true, "asap": true, "to": true, "and": true,
	"or": true, "of": true, "with": true, "our": true, "team": true,
	"project": true, "on": true, "in": true, "two": true, "one": true,
	"three": true, "few": true, "several": true,
}

// LowSignalNote is the user-facing explanation attached to skipped runs.
const LowSignalNote = "The brief only contains generic hiring words. " +
	"Add a role, seniority, technologies or a domain and try again."

// LowSignalReason is the machine-readable skip reason recorded on the run.
const LowSignalReason = "low_signal_brief"

// IsLowSignalBrief reports whether a brief is too generic to search:
// every non-stopword token is generic hiring vocabulary, at least one such
// token is present, and no seat carries seniority, domains or tech tags.
// Triggering the guard skips the run; it is not an error.
func IsLowSignalBrief(rawText string, seats []types.Criteria) bool {
	tokens := briefTokenRe.FindAllString(strings.ToLower(rawText), -1)

	sawGeneric := false
	for _, tok := range tokens {
		if briefStopwords[tok] {
			continue
		}
		if !genericHiringWords[tok] {
			return false
		}
		sawGeneric = true
	}
	if !sawGeneric {
		return false
	}

	for _, seat := range seats {
		c := seat.Normalized()
		if c.Seniority != "" || len(c.Domains) > 0 || len(c.MustHave) > 0 || len(c.NiceToHave) > 0 {
			return false
		}
	}
	return true
}
