package extract

import "testing"

func TestNormalizeAmount(t *testing.T) {
	cases := []struct {
		in    string
		want  string
		valid bool
	}{
		{"$2,165.00", "2165.00", true},
		{"1,234.50", "1234.50", true},
		{"123450", "1234.50", true},
		{"500", "5.00", true},
		{"1234.50", "1234.50", true},
		{"USD 99.95", "99.95", true},
		{"no digits here", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := Normalize(TotalAmount, tc.in)
		if ok != tc.valid {
			t.Errorf("Normalize(TotalAmount, %q) valid = %v, want %v", tc.in, ok, tc.valid)
			continue
		}
		if got != tc.want {
			t.Errorf("Normalize(TotalAmount, %q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeAmount_Idempotent(t *testing.T) {
	first, ok := Normalize(TotalAmount, "$2,165.00")
	if !ok {
		t.Fatal("first normalization rejected")
	}
	second, ok := Normalize(TotalAmount, first)
	if !ok {
		t.Fatal("second normalization rejected")
	}
	if first != second {
		t.Errorf("normalization not idempotent: %q then %q", first, second)
	}
}

func TestNormalizeIdentifier(t *testing.T) {
	cases := []struct {
		in    string
		want  string
		valid bool
	}{
		{"inv-2024-12345", "INV-2024-12345", true},
		{"  po 4521  ", "PO4521", true},
		{"ab", "", false},
		{"a!", "", false},
	}

	for _, tc := range cases {
		got, ok := Normalize(InvoiceNumber, tc.in)
		if ok != tc.valid {
			t.Errorf("Normalize(InvoiceNumber, %q) valid = %v, want %v", tc.in, ok, tc.valid)
			continue
		}
		if got != tc.want {
			t.Errorf("Normalize(InvoiceNumber, %q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeShortText(t *testing.T) {
	got, ok := Normalize(VendorName, "  acme   supplies inc.  ")
	if !ok {
		t.Fatal("expected valid short text")
	}
	if got != "Acme Supplies Inc." {
		t.Errorf("unexpected short text: %q", got)
	}

	if _, ok := Normalize(VendorName, "x"); ok {
		t.Error("expected single-character name to be rejected")
	}
}

func TestNormalizeDate(t *testing.T) {
	if v, ok := Normalize(InvoiceDate, "01/15/2024"); !ok || v != "01/15/2024" {
		t.Errorf("numeric date: got %q, %v", v, ok)
	}
	if v, ok := Normalize(DueDate, "February 14, 2024"); !ok || v != "February 14, 2024" {
		t.Errorf("verbal date: got %q, %v", v, ok)
	}
	if _, ok := Normalize(InvoiceDate, "sometime soon"); ok {
		t.Error("expected shapeless date to be rejected")
	}
}

func TestNormalizeEmailAndPhone(t *testing.T) {
	if _, ok := Normalize(VendorEmail, "billing@acme.example.com"); !ok {
		t.Error("expected valid email to pass")
	}
	if _, ok := Normalize(VendorEmail, "not-an-email"); ok {
		t.Error("expected malformed email to be rejected")
	}
	if _, ok := Normalize(VendorPhone, "(555) 123-4567"); !ok {
		t.Error("expected valid phone to pass")
	}
	if _, ok := Normalize(VendorPhone, "call me maybe"); ok {
		t.Error("expected malformed phone to be rejected")
	}
}

func TestNormalizeLongTextCollapsesWhitespace(t *testing.T) {
	got, ok := Normalize(VendorAddress, "123 Industrial   Way\n Springfield")
	if !ok {
		t.Fatal("expected valid address")
	}
	if got != "123 Industrial Way Springfield" {
		t.Errorf("unexpected address: %q", got)
	}
}
