package extract

import "regexp"

// Field-shape patterns backing the heuristic confidence table. These mirror
// the validation shapes in normalize.go but score well-formedness instead of
// gating validity.
var (
	strongIdentifierRE = regexp.MustCompile(`^[A-Z]{2,4}-?\d{3,8}$`)
	looseIdentifierRE  = regexp.MustCompile(`^[A-Z0-9\-]{5,}$`)
	groupedAmountRE    = regexp.MustCompile(`^\d{1,6}(,\d{3})*\.\d{2}$`)
	bareAmountRE       = regexp.MustCompile(`^\d+\.?\d*$`)
	strictDateRE       = regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}[/-]\d{4}$`)
	anyDigitRE         = regexp.MustCompile(`\d`)
)

// HeuristicConfidence derives a confidence score from a field value's shape
// alone. The Coordinator uses it when the active strategy did not propose a
// value for a field the caller already holds. The constants are pinned
// contract values, not tunables.
func HeuristicConfidence(kind FieldKind, value string) float64 {
	switch kind {
	case InvoiceNumber, PoNumber:
		switch {
		case strongIdentifierRE.MatchString(value):
			return 0.95
		case looseIdentifierRE.MatchString(value):
			return 0.85
		default:
			return 0.70
		}
	case TotalAmount, Subtotal, TaxAmount:
		switch {
		case groupedAmountRE.MatchString(value):
			return 0.90
		case bareAmountRE.MatchString(value):
			return 0.80
		default:
			return 0.60
		}
	case InvoiceDate, DueDate:
		switch {
		case strictDateRE.MatchString(value):
			return 0.88
		case verbalDateRE.MatchString(value):
			return 0.85
		default:
			return 0.70
		}
	case VendorName, BillToName:
		switch {
		case len(value) > 15 && !anyDigitRE.MatchString(value):
			return 0.85
		case len(value) > 5:
			return 0.75
		default:
			return 0.60
		}
	case VendorEmail:
		if emailShapeRE.MatchString(value) {
			return 0.90
		}
		return 0.70
	case VendorPhone:
		if phoneShapeRE.MatchString(value) {
			return 0.90
		}
		return 0.70
	default:
		return 0.75
	}
}
