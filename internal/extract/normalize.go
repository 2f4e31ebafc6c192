package extract

import (
	"regexp"
	"strings"
)

var (
	spaceRunRE       = regexp.MustCompile(`\s+`)
	nonAmountCharRE  = regexp.MustCompile(`[^0-9.]`)
	amountShapeRE    = regexp.MustCompile(`^\d{1,10}(,\d{3})*(\.\d{2})?$`)
	numericDateRE    = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
	verbalDateRE     = regexp.MustCompile(`\b[A-Za-z]+\s+\d{1,2},?\s+\d{4}\b`)
	identifierJunkRE = regexp.MustCompile(`[^A-Z0-9_\-]`)
	emailShapeRE     = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	phoneShapeRE     = regexp.MustCompile(`^\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}$`)
)

// Normalize applies per-field cleanup and validation to a raw candidate
// value. It returns the canonical value and true, or "" and false when the
// value fails the kind's validity rule. Rejected candidates never reach a
// Result; the field is simply absent.
//
// Normalization is idempotent: feeding an accepted value back in yields the
// same value.
func Normalize(kind FieldKind, raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", false
	}

	// Document identifiers share one rule regardless of nominal type.
	if identifierKinds[kind] {
		return normalizeIdentifier(v)
	}

	st, known := semanticTypes[kind]
	if !known {
		// Unknown kinds pass through unnormalized.
		return v, true
	}

	switch st {
	case Currency:
		return normalizeAmount(v)
	case DateText:
		if numericDateRE.MatchString(v) || verbalDateRE.MatchString(v) {
			return v, true
		}
		return "", false
	case ShortText:
		return normalizeShortText(v)
	case LongText:
		return spaceRunRE.ReplaceAllString(v, " "), true
	case Email:
		if emailShapeRE.MatchString(v) {
			return v, true
		}
		return "", false
	case Phone:
		if phoneShapeRE.MatchString(v) {
			return v, true
		}
		return "", false
	default:
		return v, true
	}
}

// normalizeAmount strips currency decoration and canonicalizes to a
// digits-and-cents form. A bare digit string longer than two characters is
// treated as cents-suffixed: "123450" becomes "1234.50".
func normalizeAmount(v string) (string, bool) {
	v = nonAmountCharRE.ReplaceAllString(v, "")
	if !strings.Contains(v, ".") && len(v) > 2 {
		v = v[:len(v)-2] + "." + v[len(v)-2:]
	}
	if !amountShapeRE.MatchString(v) {
		return "", false
	}
	return v, true
}

// normalizeShortText collapses whitespace and title-cases each token.
func normalizeShortText(v string) (string, bool) {
	v = spaceRunRE.ReplaceAllString(v, " ")
	v = strings.TrimSpace(v)
	if len(v) < 2 {
		return "", false
	}
	words := strings.Split(v, " ")
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " "), true
}

// normalizeIdentifier uppercases, strips whitespace and stray punctuation,
// and requires at least three remaining characters.
func normalizeIdentifier(v string) (string, bool) {
	v = strings.ToUpper(v)
	v = identifierJunkRE.ReplaceAllString(v, "")
	if len(v) < 3 {
		return "", false
	}
	return v, true
}

// capitalize uppercases the first byte of an ASCII token and lowercases the
// rest. Non-letter leading characters are left alone.
func capitalize(w string) string {
	if w == "" {
		return w
	}
	lower := strings.ToLower(w)
	c := lower[0]
	if c < 'a' || c > 'z' {
		return lower
	}
	return string(c-'a'+'A') + lower[1:]
}
