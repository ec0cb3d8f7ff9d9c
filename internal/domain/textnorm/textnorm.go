// Package textnorm holds the normalisation helpers shared by the
// reconciliation and flight-audit engines.
//
// Raw values arrive from spreadsheets and PDF extracts typed by hand, so the
// same passenger can show up as "Mohammed  Ali", "mohammed ali" or with
// diacritics on one side only. Everything that compares names, booking
// references or amounts goes through this package first.
package textnorm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold trims s, collapses inner whitespace, strips combining marks and
// lower-cases the result.
func Fold(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}

	// Chains keep per-call state, so one is built for every call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Key folds s and removes all whitespace, upper-cased. Used for booking
// references and other codes where spacing carries no meaning.
func Key(s string) string {
	folded := Fold(s)
	return strings.ToUpper(strings.ReplaceAll(folded, " ", ""))
}

// EqualFold reports whether a and b are equal after folding.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// ParseNumber converts a raw cell value into a float. Strings may carry
// thousands separators, currency codes or symbols, Arabic-Indic digits and
// accounting-style parentheses for negatives.
func ParseNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		return parseNumberString(n)
	default:
		return parseNumberString(fmt.Sprint(n))
	}
}

func parseNumberString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r >= '٠' && r <= '٩':
			b.WriteRune('0' + (r - '٠'))
		case r == '٫': // Arabic decimal separator
			b.WriteRune('.')
		case r == '-' && b.Len() == 0:
			negative = !negative
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		f = -f
	}
	return f, true
}

// String renders a raw cell value as trimmed text. Whole numbers render
// without a fractional part.
func String(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case json.Number:
		return s.String()
	case fmt.Stringer:
		return strings.TrimSpace(s.String())
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}
