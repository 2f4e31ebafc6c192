package extract

import (
	"context"
	"regexp"
	"strings"
)

// LexicalStrategy is the lightweight statistical tier. It matches the
// pattern library against a lowercased, whitespace-collapsed copy of the
// text and scores each candidate from the rule's base confidence plus small
// fixed boosts and length penalties. The single highest-confidence candidate
// per field wins; ties keep the first-found.
type LexicalStrategy struct{}

// NewLexicalStrategy returns the lexical tier. It is pure Go and always
// available.
func NewLexicalStrategy() *LexicalStrategy {
	return &LexicalStrategy{}
}

func (s *LexicalStrategy) Tier() Tier { return TierLexical }

// confidenceBoost is one value-shape signal that raises a candidate's
// confidence by a fixed amount when present.
type confidenceBoost struct {
	re    *regexp.Regexp
	boost float64
}

// lexicalBoosts holds the per-kind boost signals. Each matching signal adds
// its boost once; the result is clamped to 1.0.
var lexicalBoosts = map[FieldKind][]confidenceBoost{
	InvoiceNumber: {
		{regexp.MustCompile(`(?i)inv`), 0.1},
		{regexp.MustCompile(`[0-9]{4}`), 0.1},
		{regexp.MustCompile(`-`), 0.1},
	},
	TotalAmount: {
		{regexp.MustCompile(`\.[0-9]{2}$`), 0.15},
		{regexp.MustCompile(`^[0-9,]+`), 0.15},
	},
	VendorName: {
		{regexp.MustCompile(`^[A-Za-z]`), 0.05},
		{regexp.MustCompile(`[a-z]{3,}`), 0.05},
	},
}

// Extract runs the pattern library over the cleaned text. Candidates pass
// through the shared normalizer, which applies the same per-field cleanup
// this tier's predecessors did by hand (cents re-injection, per-token
// capitalization, identifier uppercasing).
func (s *LexicalStrategy) Extract(_ context.Context, text string) (Result, error) {
	clean := spaceRunRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")

	res := make(Result)
	for _, kind := range AllFieldKinds {
		best := ""
		bestConf := 0.0
		for _, rule := range RulesFor(kind) {
			m := rule.Regex.FindStringSubmatch(clean)
			if m == nil {
				continue
			}
			value := strings.TrimSpace(submatch(m))
			if value == "" {
				continue
			}
			conf := scoreLexical(kind, value, rule.Base)
			if conf > bestConf {
				best = value
				bestConf = conf
			}
		}
		if best == "" {
			continue
		}
		value, ok := Normalize(kind, best)
		if !ok {
			continue
		}
		res.merge(Record{Kind: kind, Value: value, Confidence: bestConf})
	}
	return res, nil
}

// scoreLexical applies the fixed boost and penalty schedule to a rule's base
// confidence. The constants are part of the scoring contract.
func scoreLexical(kind FieldKind, value string, base float64) float64 {
	conf := base
	for _, b := range lexicalBoosts[kind] {
		if b.re.MatchString(value) {
			conf += b.boost
		}
	}

	trimmed := strings.TrimSpace(value)
	if len(trimmed) < 2 {
		conf *= 0.5
	} else if len(trimmed) > 100 {
		conf *= 0.7
	}

	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}

func submatch(m []string) string {
	if len(m) > 1 {
		return m[1]
	}
	return m[0]
}
