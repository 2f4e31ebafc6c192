// Package extract implements the cascading field-extraction core for docsift.
//
// Raw document text goes in; a map of typed invoice fields with per-field
// confidence scores comes out. Three interchangeable strategies of decreasing
// capability implement the same contract:
//   - model: local ONNX entity recognition + targeted question answering
//   - lexical: weighted pattern scoring with fixed confidence boosts
//   - regex: pure pattern matching scored by rule position + context keywords
//
// The Coordinator picks the best strategy available at construction time and
// falls back to the regex tier when a higher tier fails mid-call. Every
// candidate value passes through per-field normalization before it can appear
// in a result; candidates that fail validation are dropped silently.
package extract

// FieldKind identifies one category of information extracted from a document.
type FieldKind string

const (
	InvoiceNumber FieldKind = "invoice_number"
	InvoiceDate   FieldKind = "invoice_date"
	DueDate       FieldKind = "due_date"
	TotalAmount   FieldKind = "total_amount"
	Subtotal      FieldKind = "subtotal"
	TaxAmount     FieldKind = "tax_amount"
	VendorName    FieldKind = "vendor_name"
	VendorAddress FieldKind = "vendor_address"
	VendorEmail   FieldKind = "vendor_email"
	VendorPhone   FieldKind = "vendor_phone"
	BillToName    FieldKind = "bill_to_name"
	BillToAddress FieldKind = "bill_to_address"
	PoNumber      FieldKind = "po_number"
	PaymentTerms  FieldKind = "payment_terms"
)

// SemanticType is the value shape a FieldKind carries. It drives
// normalization, validation, and heuristic confidence scoring.
type SemanticType string

const (
	ShortText SemanticType = "short_text"
	LongText  SemanticType = "long_text"
	DateText  SemanticType = "date"
	Currency  SemanticType = "currency"
	Email     SemanticType = "email"
	Phone     SemanticType = "phone"
)

// semanticTypes maps every known FieldKind to its fixed semantic type.
// Kinds missing from this map (future extensions) pass through normalization
// untouched.
var semanticTypes = map[FieldKind]SemanticType{
	InvoiceNumber: ShortText,
	InvoiceDate:   DateText,
	DueDate:       DateText,
	TotalAmount:   Currency,
	Subtotal:      Currency,
	TaxAmount:     Currency,
	VendorName:    ShortText,
	VendorAddress: LongText,
	VendorEmail:   Email,
	VendorPhone:   Phone,
	BillToName:    ShortText,
	BillToAddress: LongText,
	PoNumber:      ShortText,
	PaymentTerms:  ShortText,
}

// identifierKinds are the kinds normalized as document identifiers
// (uppercase, whitespace stripped, minimum length three) rather than by
// their nominal semantic type.
var identifierKinds = map[FieldKind]bool{
	InvoiceNumber: true,
	PoNumber:      true,
}

// AllFieldKinds lists every known kind in a stable order. Strategies iterate
// this slice so that results are deterministic across runs.
var AllFieldKinds = []FieldKind{
	InvoiceNumber,
	InvoiceDate,
	DueDate,
	TotalAmount,
	Subtotal,
	TaxAmount,
	VendorName,
	VendorAddress,
	VendorEmail,
	VendorPhone,
	BillToName,
	BillToAddress,
	PoNumber,
	PaymentTerms,
}

// SemanticTypeOf returns the semantic type for a kind, or ShortText with
// ok=false when the kind is unknown.
func SemanticTypeOf(kind FieldKind) (SemanticType, bool) {
	st, ok := semanticTypes[kind]
	return st, ok
}

// Candidate is a provisional extraction that has not passed normalization.
type Candidate struct {
	Kind   FieldKind
	Value  string  // raw substring lifted from the source text
	Source string  // rule name or entity label that produced it
	Score  float64 // raw method confidence in [0,1]
	Offset int     // byte offset of the match in the source text, -1 if unknown
}

// Record is one validated output field. Confidence is always in [0,1];
// a Record is never partially constructed.
type Record struct {
	Kind       FieldKind `json:"field"`
	Value      string    `json:"value"`
	Confidence float64   `json:"confidence"`
}

// Result maps each found FieldKind to its validated record. An absent key
// means the field was not found; there are no null or empty records.
type Result map[FieldKind]Record

// merge folds one validated record into the result, keeping the
// higher-confidence record per field. Equal confidence keeps the record that
// arrived first, so callers must merge in priority order.
func (r Result) merge(rec Record) {
	if rec.Value == "" {
		return
	}
	if rec.Confidence > 1.0 {
		rec.Confidence = 1.0
	}
	if rec.Confidence < 0 {
		rec.Confidence = 0
	}
	cur, ok := r[rec.Kind]
	if !ok || rec.Confidence > cur.Confidence {
		r[rec.Kind] = rec
	}
}

// Values flattens the result to field values, dropping confidences.
func (r Result) Values() map[FieldKind]string {
	out := make(map[FieldKind]string, len(r))
	for k, rec := range r {
		out[k] = rec.Value
	}
	return out
}

// Confidences flattens the result to per-field confidence scores.
func (r Result) Confidences() map[FieldKind]float64 {
	out := make(map[FieldKind]float64, len(r))
	for k, rec := range r {
		out[k] = rec.Confidence
	}
	return out
}
