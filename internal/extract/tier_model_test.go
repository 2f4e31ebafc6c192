package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/docsift/docsift/internal/model"
)

type fakeTagger struct {
	entities []model.Entity
	err      error
}

func (f fakeTagger) Tag(string) ([]model.Entity, error) {
	return f.entities, f.err
}

type fakeAnswerer struct {
	answers map[string]struct {
		text  string
		score float64
	}
	err error
}

func (f fakeAnswerer) Answer(question, _ string) (string, float64, error) {
	if f.err != nil {
		return "", 0, f.err
	}
	a, ok := f.answers[question]
	if !ok {
		return "", 0, nil
	}
	return a.text, a.score, nil
}

func TestNewModelStrategy_RequiresACapability(t *testing.T) {
	if _, err := NewModelStrategy(nil, nil); !errors.Is(err, ErrStrategyUnavailable) {
		t.Fatalf("expected ErrStrategyUnavailable, got %v", err)
	}
	if _, err := NewModelStrategy(fakeTagger{}, nil); err != nil {
		t.Fatalf("tagger alone should suffice: %v", err)
	}
	if _, err := NewModelStrategy(nil, fakeAnswerer{}); err != nil {
		t.Fatalf("answerer alone should suffice: %v", err)
	}
}

func TestModelStrategy_EntityMapping(t *testing.T) {
	tagger := fakeTagger{entities: []model.Entity{
		{Text: "Acme Supplies Inc", Label: "ORG", Score: 0.92},
		{Text: "$2,165.00", Label: "MONEY", Score: 0.88},
		{Text: "01/15/2024", Label: "DATE", Score: 0.90},
		{Text: "ignore me", Label: "PERSON", Score: 0.99},
	}}
	s, err := NewModelStrategy(tagger, nil)
	if err != nil {
		t.Fatalf("NewModelStrategy: %v", err)
	}

	res, err := s.Extract(context.Background(), "short doc")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if rec := res[VendorName]; rec.Value != "Acme Supplies Inc" || rec.Confidence != 0.92 {
		t.Errorf("vendor: %+v", rec)
	}
	if rec := res[TotalAmount]; rec.Value != "2165.00" || rec.Confidence != 0.88 {
		t.Errorf("total: %+v", rec)
	}
	if rec := res[InvoiceDate]; rec.Value != "01/15/2024" {
		t.Errorf("date: %+v", rec)
	}
}

func TestModelStrategy_CardinalDiscount(t *testing.T) {
	tagger := fakeTagger{entities: []model.Entity{
		{Text: "2165.00", Label: "CARDINAL", Score: 0.9},
	}}
	s, err := NewModelStrategy(tagger, nil)
	if err != nil {
		t.Fatalf("NewModelStrategy: %v", err)
	}

	res, err := s.Extract(context.Background(), "short doc")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	rec, ok := res[TotalAmount]
	if !ok {
		t.Fatal("expected a total from the cardinal entity")
	}
	want := 0.9 * cardinalDiscount
	if rec.Confidence != want {
		t.Errorf("confidence = %f, want %f", rec.Confidence, want)
	}
}

func TestModelStrategy_AnswerFiltering(t *testing.T) {
	answerer := fakeAnswerer{answers: map[string]struct {
		text  string
		score float64
	}{
		"What is the invoice number?":              {"INV-2024-001", 0.7},
		"What is the total amount or total due?":   {"2,165.00", 0.05}, // below floor
		"What is the company name or vendor name?": {"Acme Supplies", 0.6},
	}}
	s, err := NewModelStrategy(nil, answerer)
	if err != nil {
		t.Fatalf("NewModelStrategy: %v", err)
	}

	res, err := s.Extract(context.Background(), "plain prose with no patterns")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if rec := res[InvoiceNumber]; rec.Value != "INV-2024-001" {
		t.Errorf("invoice number: %+v", rec)
	}
	if rec := res[VendorName]; rec.Value != "Acme Supplies" {
		t.Errorf("vendor name: %+v", rec)
	}
	if _, ok := res[TotalAmount]; ok {
		t.Error("expected below-floor answer to be discarded")
	}
}

func TestModelStrategy_EntityOutranksEqualAnswer(t *testing.T) {
	tagger := fakeTagger{entities: []model.Entity{
		{Text: "Acme Supplies Inc", Label: "ORG", Score: 0.8},
	}}
	answerer := fakeAnswerer{answers: map[string]struct {
		text  string
		score float64
	}{
		"What is the company name or vendor name?": {"Widget Corp", 0.8},
	}}
	s, err := NewModelStrategy(tagger, answerer)
	if err != nil {
		t.Fatalf("NewModelStrategy: %v", err)
	}

	res, err := s.Extract(context.Background(), "short doc")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if rec := res[VendorName]; rec.Value != "Acme Supplies Inc" {
		t.Errorf("expected entity pass to win the tie, got %+v", rec)
	}
}

func TestModelStrategy_RegexSupplement(t *testing.T) {
	// The model passes produce nothing; the supplement should still pull
	// labeled fields out of the text.
	s, err := NewModelStrategy(fakeTagger{}, nil)
	if err != nil {
		t.Fatalf("NewModelStrategy: %v", err)
	}

	text := "Invoice Number: INV-777\nTotal: $99.00\n"
	res, err := s.Extract(context.Background(), text)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if rec := res[InvoiceNumber]; rec.Value != "INV-777" {
		t.Errorf("invoice number: %+v", rec)
	}
	if rec := res[TotalAmount]; rec.Value != "99.00" {
		t.Errorf("total: %+v", rec)
	}
}

func TestModelStrategy_InvalidCandidateBlocksSupplement(t *testing.T) {
	// The entity pass proposes a date that cannot pass validation. The
	// field counts as proposed, so the regex supplement must not backfill
	// it from the labeled date sitting in the text.
	tagger := fakeTagger{entities: []model.Entity{
		{Text: "sometime soon", Label: "DATE", Score: 0.95},
	}}
	s, err := NewModelStrategy(tagger, nil)
	if err != nil {
		t.Fatalf("NewModelStrategy: %v", err)
	}

	res, err := s.Extract(context.Background(), "Invoice Date: 01/15/2024\n")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec, ok := res[InvoiceDate]; ok {
		t.Errorf("expected invoice date absent after failed validation, got %+v", rec)
	}
}

// recordingTagger captures each chunk it is handed.
type recordingTagger struct {
	chunks []string
}

func (r *recordingTagger) Tag(text string) ([]model.Entity, error) {
	r.chunks = append(r.chunks, text)
	return nil, nil
}

func TestEntityCandidates_ChunksOnRuneBoundaries(t *testing.T) {
	rec := &recordingTagger{}
	s, err := NewModelStrategy(rec, nil)
	if err != nil {
		t.Fatalf("NewModelStrategy: %v", err)
	}

	// A two-byte rune straddles the chunk boundary.
	text := strings.Repeat("a", nerChunkSize-1) + "é" + strings.Repeat("b", 40)
	if _, err := s.Extract(context.Background(), text); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if len(rec.chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(rec.chunks))
	}
	total := 0
	for _, chunk := range rec.chunks {
		if !utf8.ValidString(chunk) {
			t.Errorf("chunk ends mid-rune: %q", chunk)
		}
		total += len(chunk)
	}
	if total != len(text) {
		t.Errorf("chunks cover %d bytes, want %d", total, len(text))
	}
}

// flakyTagger fails its first call and succeeds afterwards.
type flakyTagger struct {
	calls    int
	entities []model.Entity
}

func (f *flakyTagger) Tag(string) ([]model.Entity, error) {
	f.calls++
	if f.calls == 1 {
		return nil, errors.New("transient session failure")
	}
	return f.entities, nil
}

func TestEntityCandidates_BadChunkDoesNotAbortPass(t *testing.T) {
	tagger := &flakyTagger{entities: []model.Entity{
		{Text: "Acme Supplies Inc", Label: "ORG", Score: 0.9},
	}}
	s, err := NewModelStrategy(tagger, nil)
	if err != nil {
		t.Fatalf("NewModelStrategy: %v", err)
	}

	text := strings.Repeat("x ", nerChunkSize) // spans two chunks
	res, err := s.Extract(context.Background(), text)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if tagger.calls < 2 {
		t.Fatalf("expected the pass to continue past the failing chunk, got %d calls", tagger.calls)
	}
	if rec := res[VendorName]; rec.Value != "Acme Supplies Inc" {
		t.Errorf("expected vendor from the surviving chunk, got %+v", rec)
	}
}

func TestModelStrategy_TaggerFailureIsSoft(t *testing.T) {
	tagger := fakeTagger{err: errors.New("session crashed")}
	answerer := fakeAnswerer{answers: map[string]struct {
		text  string
		score float64
	}{
		"What is the invoice number?": {"INV-555", 0.9},
	}}
	s, err := NewModelStrategy(tagger, answerer)
	if err != nil {
		t.Fatalf("NewModelStrategy: %v", err)
	}

	res, err := s.Extract(context.Background(), "plain prose")
	if err != nil {
		t.Fatalf("Extract should not surface a pass failure: %v", err)
	}
	if rec := res[InvoiceNumber]; rec.Value != "INV-555" {
		t.Errorf("expected qa result to survive tagger failure, got %+v", rec)
	}
}

func TestModelStrategy_Methods(t *testing.T) {
	s, err := NewModelStrategy(fakeTagger{}, fakeAnswerer{})
	if err != nil {
		t.Fatalf("NewModelStrategy: %v", err)
	}
	got := s.Methods()
	want := []string{"ner", "qa", "regex-supplement"}
	if len(got) != len(want) {
		t.Fatalf("methods = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("methods[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
