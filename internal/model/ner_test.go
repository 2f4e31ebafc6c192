package model

import (
	"math"
	"testing"
)

func TestSoftmaxRow(t *testing.T) {
	probs := softmaxRow([]float64{1, 1, 1, 1})
	sum := 0.0
	for _, p := range probs {
		if math.Abs(p-0.25) > 1e-9 {
			t.Errorf("expected uniform 0.25, got %f", p)
		}
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("probabilities sum to %f", sum)
	}

	probs = softmaxRow([]float64{10, 0})
	if probs[0] <= probs[1] {
		t.Errorf("larger logit should dominate: %v", probs)
	}
}

func TestSoftmaxRows(t *testing.T) {
	rows := softmaxRows([]float32{1, 2, 3, 4, 5, 6}, 3)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for _, row := range rows {
		sum := 0.0
		for _, p := range row {
			sum += p
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("row sums to %f", sum)
		}
	}
}

func TestSplitBIO(t *testing.T) {
	cases := []struct {
		in, prefix, name string
	}{
		{"B-ORG", "B", "ORG"},
		{"I-MONEY", "I", "MONEY"},
		{"O", "", ""},
		{"", "", ""},
		{"DATE", "B", "DATE"},
	}
	for _, tc := range cases {
		p, n := splitBIO(tc.in)
		if p != tc.prefix || n != tc.name {
			t.Errorf("splitBIO(%q) = (%q, %q), want (%q, %q)", tc.in, p, n, tc.prefix, tc.name)
		}
	}
}

func TestJoinWordpieces(t *testing.T) {
	got := joinWordpieces([]string{"Ac", "##me", "Supplies", "Inc"})
	if got != "Acme Supplies Inc" {
		t.Errorf("joinWordpieces = %q", got)
	}
}

// onehot builds a probability row with all mass on one class.
func onehot(classes, idx int) []float64 {
	row := make([]float64, classes)
	row[idx] = 1.0
	return row
}

func TestAggregateEntities_GroupsBIOSpans(t *testing.T) {
	labels := []string{"O", "B-ORG", "I-ORG", "B-MONEY", "I-MONEY"}
	tokens := []string{"[CLS]", "Ac", "##me", "Inc", "owes", "$", "##2165", "[SEP]"}
	specialMask := []int{1, 0, 0, 0, 0, 0, 0, 1}
	probs := [][]float64{
		onehot(5, 0), // [CLS], ignored
		onehot(5, 1), // B-ORG
		onehot(5, 2), // I-ORG
		onehot(5, 2), // I-ORG
		onehot(5, 0), // O
		onehot(5, 3), // B-MONEY
		onehot(5, 4), // I-MONEY
		onehot(5, 0), // [SEP], ignored
	}

	entities := aggregateEntities(tokens, specialMask, probs, labels)
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities, got %v", entities)
	}
	if entities[0].Label != "ORG" || entities[0].Text != "Acme Inc" {
		t.Errorf("first entity: %+v", entities[0])
	}
	if entities[1].Label != "MONEY" || entities[1].Text != "$2165" {
		t.Errorf("second entity: %+v", entities[1])
	}
	if entities[0].Score != 1.0 {
		t.Errorf("expected mean score 1.0, got %f", entities[0].Score)
	}
}

func TestAggregateEntities_NewBStartsNewSpan(t *testing.T) {
	labels := []string{"O", "B-ORG", "I-ORG"}
	tokens := []string{"Acme", "Widget"}
	specialMask := []int{0, 0}
	probs := [][]float64{
		onehot(3, 1), // B-ORG
		onehot(3, 1), // B-ORG again: a new span, not a continuation
	}

	entities := aggregateEntities(tokens, specialMask, probs, labels)
	if len(entities) != 2 {
		t.Fatalf("expected 2 separate entities, got %v", entities)
	}
}

func TestAggregateEntities_Empty(t *testing.T) {
	if got := aggregateEntities(nil, nil, nil, defaultNERLabels); len(got) != 0 {
		t.Errorf("expected no entities, got %v", got)
	}
}
