package extract

import "testing"

func TestHeuristicConfidence(t *testing.T) {
	cases := []struct {
		kind  FieldKind
		value string
		want  float64
	}{
		{InvoiceNumber, "INV-12345", 0.95},
		{InvoiceNumber, "A1B2C3D4E", 0.85},
		{InvoiceNumber, "x1", 0.70},
		{PoNumber, "PO-4521", 0.95},
		{TotalAmount, "2,165.00", 0.90},
		{TotalAmount, "2165.5", 0.80},
		{TotalAmount, "about 2000", 0.60},
		{InvoiceDate, "01/15/2024", 0.88},
		{InvoiceDate, "January 15, 2024", 0.85},
		{DueDate, "soon", 0.70},
		{VendorName, "Acme Industrial Supplies", 0.85},
		{VendorName, "Acme Co", 0.75},
		{VendorName, "AC", 0.60},
		{VendorEmail, "billing@acme.example.com", 0.90},
		{VendorEmail, "broken", 0.70},
		{VendorPhone, "555-123-4567", 0.90},
		{VendorPhone, "n/a", 0.70},
		{PaymentTerms, "Net 30", 0.75},
	}

	for _, tc := range cases {
		got := HeuristicConfidence(tc.kind, tc.value)
		if got != tc.want {
			t.Errorf("HeuristicConfidence(%s, %q) = %f, want %f", tc.kind, tc.value, got, tc.want)
		}
	}
}
