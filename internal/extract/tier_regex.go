package extract

import (
	"context"
	"strings"
)

// RegexStrategy is the dependency-free extraction floor. Each pattern-library
// rule is scored as the average of a positional-priority term (earlier rules
// score higher) and the context score around the match; the best-scoring
// candidate per field survives.
//
// This tier is also the pipeline's last-resort path, so it never consults
// state from a higher tier and its result is always independently complete.
type RegexStrategy struct{}

// NewRegexStrategy returns the regex tier. It has no external dependencies
// and never fails to construct.
func NewRegexStrategy() *RegexStrategy {
	return &RegexStrategy{}
}

func (s *RegexStrategy) Tier() Tier { return TierRegex }

// Extract scans the pattern library for every known field kind. Fields with
// no match are simply absent from the result.
func (s *RegexStrategy) Extract(_ context.Context, text string) (Result, error) {
	res := make(Result)
	for _, kind := range AllFieldKinds {
		cand, ok := s.candidateFor(kind, text)
		if !ok {
			continue
		}
		value, ok := Normalize(kind, cand.Value)
		if !ok {
			continue
		}
		res.merge(Record{Kind: kind, Value: value, Confidence: cand.Score})
	}

	if _, ok := res[VendorName]; !ok {
		if cand, ok := structuralVendorName(text); ok {
			if value, valid := Normalize(VendorName, cand.Value); valid {
				res.merge(Record{Kind: VendorName, Value: value, Confidence: cand.Score})
			}
		}
	}

	return res, nil
}

// candidateFor returns the highest-scoring raw candidate for one kind.
// Score per rule = (positional priority + context score) / 2, where the
// positional term decreases linearly with rule index. Ties keep the
// earlier-indexed rule.
func (s *RegexStrategy) candidateFor(kind FieldKind, text string) (Candidate, bool) {
	rules := RulesFor(kind)
	n := len(rules)
	if n == 0 {
		return Candidate{}, false
	}

	best := Candidate{Kind: kind, Offset: -1}
	found := false
	for i, rule := range rules {
		loc := rule.Regex.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		value := matchValue(text, loc)
		if value == "" {
			continue
		}

		positional := float64(n-i) / float64(n)
		score := (positional + ScoreContext(kind, value, text)) / 2

		if !found || score > best.Score {
			best = Candidate{
				Kind:   kind,
				Value:  value,
				Source: rule.Name,
				Score:  score,
				Offset: loc[0],
			}
			found = true
		}
	}
	return best, found
}

// matchValue extracts the first capture group (or the whole match when the
// rule has no group) from a FindStringSubmatchIndex result.
func matchValue(text string, loc []int) string {
	start, end := loc[0], loc[1]
	if len(loc) >= 4 && loc[2] >= 0 {
		start, end = loc[2], loc[3]
	}
	return strings.TrimSpace(text[start:end])
}

// structuralVendorName falls back to document structure: the first short,
// digit-free line near the top that is not a header word. Static low
// confidence since no pattern vouched for it.
func structuralVendorName(text string) (Candidate, bool) {
	lines := strings.Split(text, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) <= 3 || len(line) >= 50 {
			continue
		}
		if anyDigitRE.MatchString(line) {
			continue
		}
		if strings.Contains(strings.ToLower(line), "invoice") {
			continue
		}
		return Candidate{Kind: VendorName, Value: line, Source: "structural_top_line", Score: 0.5, Offset: -1}, true
	}
	return Candidate{}, false
}
