package extract

import "strings"

// contextWindow is the number of characters inspected on each side of a
// candidate match when scoring its surrounding context.
const contextWindow = 50

// neutralContextScore is returned when a kind has no keyword set or the
// candidate cannot be located in the source text.
const neutralContextScore = 0.5

// contextKeywords holds the per-kind keyword sets used to adjust confidence
// based on the text surrounding a match. Kinds without an entry always score
// neutral.
var contextKeywords = map[FieldKind][]string{
	InvoiceNumber: {"invoice", "number", "inv", "#"},
	TotalAmount:   {"total", "amount", "due", "$", "sum"},
	InvoiceDate:   {"date", "invoice", "issued"},
	DueDate:       {"due", "payment", "deadline"},
	VendorName:    {"from", "company", "vendor"},
	Subtotal:      {"subtotal", "sub", "total"},
	TaxAmount:     {"tax", "vat", "%"},
	PoNumber:      {"po", "purchase", "order"},
}

// ScoreContext computes a contextual confidence adjustment for a candidate
// value by counting field-relevant keywords in a fixed window around the
// first case-insensitive occurrence of the value. The score starts at the
// neutral 0.5, gains 0.2 per keyword present, and is clamped to 1.0.
func ScoreContext(kind FieldKind, value, text string) float64 {
	keywords, ok := contextKeywords[kind]
	if !ok || value == "" {
		return neutralContextScore
	}

	pos := strings.Index(strings.ToLower(text), strings.ToLower(value))
	if pos < 0 {
		return neutralContextScore
	}

	start := pos - contextWindow
	if start < 0 {
		start = 0
	}
	end := pos + len(value) + contextWindow
	if end > len(text) {
		end = len(text)
	}
	window := strings.ToLower(text[start:end])

	hits := 0
	for _, kw := range keywords {
		if strings.Contains(window, kw) {
			hits++
		}
	}

	score := neutralContextScore + 0.2*float64(hits)
	if score > 1.0 {
		score = 1.0
	}
	return score
}
