package extract

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/docsift/docsift/internal/model"
)

const (
	// nerChunkSize bounds each entity-recognition pass to the model's
	// usable sequence length.
	nerChunkSize = 512
	// qaContextLimit bounds the question-answering pass to a fixed prefix
	// of the document, so a single call's work is bounded.
	qaContextLimit = 2000
	// qaMinScore is the floor below which QA answers are discarded.
	qaMinScore = 0.1
	// cardinalDiscount lowers confidence for amounts tagged as a generic
	// numeric category instead of a dedicated money category.
	cardinalDiscount = 0.8
)

// EntityTagger is the entity-recognition capability the model tier consumes.
type EntityTagger interface {
	Tag(text string) ([]model.Entity, error)
}

// SpanAnswerer is the question-answering capability the model tier consumes.
type SpanAnswerer interface {
	Answer(question, context string) (string, float64, error)
}

// qaQuestions holds the fixed natural-language question asked per field, in
// merge-priority order.
var qaQuestions = []struct {
	kind     FieldKind
	question string
}{
	{InvoiceNumber, "What is the invoice number?"},
	{TotalAmount, "What is the total amount or total due?"},
	{InvoiceDate, "What is the invoice date?"},
	{DueDate, "What is the due date or payment due date?"},
	{VendorName, "What is the company name or vendor name?"},
	{VendorAddress, "What is the company address?"},
}

var (
	amountCharsRE    = regexp.MustCompile(`[\d,]+\.?\d*`)
	nonAmountDecorRE = regexp.MustCompile(`[^\d,.]`)
	identifierSpanRE = regexp.MustCompile(`[A-Z0-9\-_]{3,20}`)
	plainAmountRE    = regexp.MustCompile(`\d+\.?\d*`)
)

// ModelStrategy is the capability-rich tier: an entity-recognition pass and
// a targeted question-answering pass, with the regex tier supplementing
// fields neither pass populated. At least one of the two model passes must
// be available.
type ModelStrategy struct {
	tagger   EntityTagger
	answerer SpanAnswerer
	regex    *RegexStrategy
}

// NewModelStrategy wires the model tier. Either capability may be nil, but
// not both.
func NewModelStrategy(tagger EntityTagger, answerer SpanAnswerer) (*ModelStrategy, error) {
	if tagger == nil && answerer == nil {
		return nil, fmt.Errorf("%w: no model capability loaded", ErrStrategyUnavailable)
	}
	return &ModelStrategy{tagger: tagger, answerer: answerer, regex: NewRegexStrategy()}, nil
}

func (s *ModelStrategy) Tier() Tier { return TierModel }

// Methods reports which passes this tier will run, for diagnostics.
func (s *ModelStrategy) Methods() []string {
	var m []string
	if s.tagger != nil {
		m = append(m, "ner")
	}
	if s.answerer != nil {
		m = append(m, "qa")
	}
	return append(m, "regex-supplement")
}

// Extract runs the entity pass, the QA pass, and the regex supplement, in
// that order. The supplement covers only fields neither model pass proposed
// a raw candidate for; normalization runs after that decision, so a model
// candidate that fails validation leaves its field absent rather than
// handing it to the supplement. Per field the highest-confidence survivor
// wins and ties keep the first-found.
func (s *ModelStrategy) Extract(_ context.Context, text string) (Result, error) {
	candidates := s.entityCandidates(text)
	candidates = append(candidates, s.answerCandidates(text)...)

	proposed := make(map[FieldKind]bool, len(candidates))
	for _, cand := range candidates {
		proposed[cand.Kind] = true
	}

	for _, kind := range AllFieldKinds {
		if proposed[kind] {
			continue
		}
		if cand, ok := s.regex.candidateFor(kind, text); ok {
			candidates = append(candidates, cand)
		}
	}

	res := make(Result)
	for _, cand := range candidates {
		mergeCandidate(res, cand)
	}
	return res, nil
}

// mergeCandidate normalizes one candidate and folds it into the result.
// Candidates that fail validation are dropped silently.
func mergeCandidate(res Result, cand Candidate) {
	value, ok := Normalize(cand.Kind, cand.Value)
	if !ok {
		return
	}
	res.merge(Record{Kind: cand.Kind, Value: value, Confidence: cand.Score})
}

// entityCandidates maps recognized entities onto invoice fields:
// organizations become the vendor name, money-like values the total amount,
// dates the invoice date. Generic numeric entities are discounted since the
// model did not commit to a money category.
func (s *ModelStrategy) entityCandidates(text string) []Candidate {
	if s.tagger == nil {
		return nil
	}

	var out []Candidate
	for off := 0; off < len(text); {
		end := off + nerChunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			// Never hand the tokenizer a chunk ending mid-rune.
			for end > off+1 && !utf8.RuneStart(text[end]) {
				end--
			}
		}
		entities, err := s.tagger.Tag(text[off:end])
		if err != nil {
			// Soft failure: later chunks and the other passes still run.
			fmt.Fprintf(os.Stderr, "docsift: entity pass failed: %v\n", err)
			off = end
			continue
		}

		for _, e := range entities {
			src := "ner:" + e.Label
			switch e.Label {
			case "ORG", "ORGANIZATION":
				out = append(out, Candidate{Kind: VendorName, Value: e.Text, Source: src, Score: e.Score, Offset: off})
			case "MONEY":
				out = append(out, Candidate{Kind: TotalAmount, Value: nonAmountDecorRE.ReplaceAllString(e.Text, ""), Source: src, Score: e.Score, Offset: off})
			case "CARDINAL":
				if amountCharsRE.MatchString(e.Text) {
					out = append(out, Candidate{Kind: TotalAmount, Value: nonAmountDecorRE.ReplaceAllString(e.Text, ""), Source: src, Score: e.Score * cardinalDiscount, Offset: off})
				}
			case "DATE":
				out = append(out, Candidate{Kind: InvoiceDate, Value: e.Text, Source: src, Score: e.Score, Offset: off})
			}
		}
		off = end
	}
	return out
}

// answerCandidates asks one fixed question per field against a bounded
// prefix of the document. Answers below the score floor or empty after
// cleanup are discarded.
func (s *ModelStrategy) answerCandidates(text string) []Candidate {
	if s.answerer == nil {
		return nil
	}

	passage := text
	if len(passage) > qaContextLimit {
		passage = passage[:qaContextLimit]
	}

	var out []Candidate
	for _, q := range qaQuestions {
		answer, score, err := s.answerer.Answer(q.question, passage)
		if err != nil {
			fmt.Fprintf(os.Stderr, "docsift: qa pass failed for %s: %v\n", q.kind, err)
			continue
		}
		if score <= qaMinScore || strings.TrimSpace(answer) == "" {
			continue
		}
		cleaned, ok := cleanAnswer(q.kind, answer)
		if !ok {
			continue
		}
		out = append(out, Candidate{Kind: q.kind, Value: cleaned, Source: "qa", Score: score, Offset: -1})
	}
	return out
}

// cleanAnswer trims a raw QA answer down to the portion that can possibly be
// the field value, rejecting answers with no usable shape at all.
func cleanAnswer(kind FieldKind, answer string) (string, bool) {
	answer = strings.TrimSpace(answer)
	switch kind {
	case InvoiceNumber, PoNumber:
		m := identifierSpanRE.FindString(strings.ToUpper(answer))
		return m, m != ""
	case TotalAmount, Subtotal, TaxAmount:
		m := plainAmountRE.FindString(strings.ReplaceAll(answer, ",", ""))
		return m, m != ""
	case InvoiceDate, DueDate:
		if numericDateRE.MatchString(answer) || verbalDateRE.MatchString(answer) {
			return answer, true
		}
		return "", false
	case VendorName, VendorAddress, BillToName, BillToAddress:
		if len(answer) > 2 && len(answer) < 100 {
			return answer, true
		}
		return "", false
	default:
		return answer, answer != ""
	}
}
