package extract

import "regexp"

// MatchRule is one pattern bound to a FieldKind. Rules for a kind are tried
// in priority order: index 0 is the most specific, most trusted rule. Base
// confidence feeds the lexical tier; the regex tier scores by position
// instead.
type MatchRule struct {
	Regex *regexp.Regexp
	Name  string
	Base  float64
}

// library is the static pattern library. Built once at package init and
// never mutated, so it is safe to share across concurrent extractions.
var library = map[FieldKind][]MatchRule{
	InvoiceNumber: {
		{regexp.MustCompile(`(?i)invoice\s+(?:number|#|no\.?)[:\s]*([A-Za-z0-9][\w\-]{2,19})`), "invoice_label", 0.9},
		{regexp.MustCompile(`(?i)\binv\.?\s*#?[:\s]*([A-Za-z0-9][\w\-]{2,19})`), "inv_abbrev", 0.8},
		{regexp.MustCompile(`(?i)#\s*(INV[\w\-]+)`), "hash_inv", 0.9},
		{regexp.MustCompile(`\b([A-Z]{2,4}-\d{3,8})\b`), "prefix_dash_digits", 0.75},
	},
	PoNumber: {
		{regexp.MustCompile(`(?i)(?:p\.?o\.?|purchase\s+order)\s*(?:number|#|no\.?)?[:\s]+([A-Za-z0-9][\w\-]{2,19})`), "po_label", 0.85},
	},
	InvoiceDate: {
		{regexp.MustCompile(`(?i)invoice\s+date[:\s]*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`), "invoice_date_label", 0.9},
		{regexp.MustCompile(`(?i)invoice\s+date[:\s]*([A-Za-z]+\s+\d{1,2},?\s+\d{4})`), "invoice_date_verbal", 0.85},
		{regexp.MustCompile(`(?i)\bdate[:\s]*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`), "date_label", 0.7},
		{regexp.MustCompile(`\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\b`), "bare_date", 0.6},
		{regexp.MustCompile(`\b([A-Za-z]+\s+\d{1,2},\s+\d{4})\b`), "bare_verbal_date", 0.55},
	},
	DueDate: {
		{regexp.MustCompile(`(?i)due\s+date[:\s]*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`), "due_date_label", 0.9},
		{regexp.MustCompile(`(?i)due\s+date[:\s]*([A-Za-z]+\s+\d{1,2},?\s+\d{4})`), "due_date_verbal", 0.85},
		{regexp.MustCompile(`(?i)(?:payment\s+)?due[:\s]*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`), "due_label", 0.8},
	},
	TotalAmount: {
		{regexp.MustCompile(`(?i)total\s*amount\s*(?:due)?[:\s]*\$?\s*([0-9,]+\.?[0-9]*)`), "total_amount_label", 0.9},
		{regexp.MustCompile(`(?i)amount\s+due[:\s]*\$?\s*([0-9,]+\.?[0-9]*)`), "amount_due_label", 0.8},
		{regexp.MustCompile(`(?i)(?:grand\s+)?total[:\s]*\$?\s*([0-9,]+\.?[0-9]*)`), "total_label", 0.7},
		{regexp.MustCompile(`(?m)\$([0-9,]+\.[0-9]{2})\s*$`), "trailing_dollar", 0.6},
	},
	Subtotal: {
		{regexp.MustCompile(`(?i)sub\s*-?\s*total[:\s]*\$?\s*([0-9,]+\.?[0-9]*)`), "subtotal_label", 0.85},
	},
	TaxAmount: {
		{regexp.MustCompile(`(?i)(?:sales\s+)?tax(?:\s*\([^)]*\))?[:\s]*\$?\s*([0-9,]+\.?[0-9]*)`), "tax_label", 0.8},
		{regexp.MustCompile(`(?i)\bvat[:\s]*\$?\s*([0-9,]+\.?[0-9]*)`), "vat_label", 0.75},
	},
	VendorName: {
		{regexp.MustCompile(`(?i)(?:from|vendor|company)[:\s]+([A-Za-z][A-Za-z&.,' ]{2,49})`), "vendor_label", 0.8},
		{regexp.MustCompile(`(?m)^\s*([A-Z][A-Za-z&.,' ]{2,40}(?:LLC|Inc\.?|Ltd\.?|Corp\.?|Co\.))\s*$`), "company_suffix_line", 0.75},
		{regexp.MustCompile(`(?m)^([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,3})\s*$`), "title_case_line", 0.6},
	},
	VendorAddress: {
		{regexp.MustCompile(`([A-Za-z .]+,\s*[A-Z]{2}\s*\d{5})`), "city_state_zip", 0.9},
		{regexp.MustCompile(`(?i)\b(\d+\s+[A-Za-z0-9 .]+(?:street|st|avenue|ave|road|rd|drive|dr|lane|ln|boulevard|blvd)\b\.?)`), "street_suffix", 0.7},
		{regexp.MustCompile(`(?i)address[:\s]*([^\n]{5,80})`), "address_label", 0.65},
	},
	VendorEmail: {
		{regexp.MustCompile(`\b([A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})\b`), "email_shape", 0.9},
	},
	VendorPhone: {
		{regexp.MustCompile(`(?i)(?:phone|tel|telephone)[:\s]*(\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4})`), "phone_label", 0.9},
		{regexp.MustCompile(`\b(\d{3}[-.]\d{3}[-.]\d{4})\b`), "phone_shape", 0.8},
	},
	BillToName: {
		{regexp.MustCompile(`(?i)bill(?:ed)?\s+to[:\s]*\n?\s*([A-Za-z][A-Za-z.,' ]{2,39})`), "bill_to_label", 0.8},
	},
	BillToAddress: {
		{regexp.MustCompile(`(?i)bill(?:ed)?\s+to[:\s]*\n(?:[^\n0-9]*\n)?\s*(\d+\s+[^\n]{4,60})`), "bill_to_street", 0.7},
	},
	PaymentTerms: {
		{regexp.MustCompile(`(?i)payment\s+terms?[:\s]*([^\n]{2,60})`), "payment_terms_label", 0.85},
		{regexp.MustCompile(`(?i)\b(net\s+\d{1,3}(?:\s+days)?)\b`), "net_days", 0.8},
	},
}

// RulesFor returns the ordered rule set for a kind. The returned slice is
// shared and must not be modified. Kinds with no rules return nil, which
// simply means no pattern match for that field.
func RulesFor(kind FieldKind) []MatchRule {
	return library[kind]
}
