package reconciler

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/eshaffer321/travel-backoffice/internal/domain/textnorm"
)

// epsilon absorbs float noise when comparing amounts.
const epsilon = 0.0000001

// levenshteinOptions counts a substitution as a single edit so that the
// distance reads as "characters changed".
var levenshteinOptions = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// outcome is the result of evaluating one field on a candidate pair.
type outcome int

const (
	outcomeFail outcome = iota
	outcomeExact
	outcomePartial
)

type fieldResult struct {
	outcome   outcome
	detail    string
	priceDiff *float64
}

// evaluateField compares a company and supplier value under the field's rule.
func evaluateField(f MatchingField, company, supplier Record) fieldResult {
	switch f.Rule.Type {
	case RuleFuzzy:
		return evaluateFuzzy(f, valueString(company, f), valueString(supplier, f))
	case RuleNumericDiff:
		return evaluateNumeric(f, valueNumber(company, f), valueNumber(supplier, f))
	default:
		return evaluateExact(f, company, supplier)
	}
}

func evaluateExact(f MatchingField, company, supplier Record) fieldResult {
	if f.DataType == DataTypeNumber {
		if math.Abs(valueNumber(company, f)-valueNumber(supplier, f)) <= epsilon {
			return fieldResult{outcome: outcomeExact}
		}
		return fieldResult{outcome: outcomeFail}
	}
	if strings.EqualFold(valueString(company, f), valueString(supplier, f)) {
		return fieldResult{outcome: outcomeExact}
	}
	return fieldResult{outcome: outcomeFail}
}

func evaluateFuzzy(f MatchingField, company, supplier string) fieldResult {
	if strings.EqualFold(company, supplier) {
		return fieldResult{outcome: outcomeExact}
	}
	if company == "" || supplier == "" {
		return fieldResult{outcome: outcomeFail}
	}

	score := Similarity(company, supplier)
	if score < f.Rule.Tolerance/100 {
		return fieldResult{outcome: outcomeFail}
	}
	return fieldResult{
		outcome: outcomePartial,
		detail: fmt.Sprintf("%s: %.0f%% similar (%q vs %q)",
			f.displayName(), math.Floor(score*100), company, supplier),
	}
}

func evaluateNumeric(f MatchingField, company, supplier float64) fieldResult {
	diff := decimal.NewFromFloat(company).Sub(decimal.NewFromFloat(supplier))
	absDiff := diff.Abs().InexactFloat64()

	if absDiff > f.Rule.MaxDiff+epsilon {
		return fieldResult{outcome: outcomeFail}
	}

	res := fieldResult{outcome: outcomeExact}
	if f.ID == PriceFieldID {
		signed := diff.InexactFloat64()
		res.priceDiff = &signed
	}
	if absDiff > epsilon {
		res.outcome = outcomePartial
		res.detail = fmt.Sprintf("%s: difference %s (%s vs %s)",
			f.displayName(),
			diff.StringFixed(2),
			decimal.NewFromFloat(company).StringFixed(2),
			decimal.NewFromFloat(supplier).StringFixed(2))
	}
	return res
}

// Similarity returns a 0-1 score between two strings based on the
// case-insensitive Levenshtein distance relative to the longer string.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}

	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}

	distance := levenshtein.DistanceForStrings([]rune(a), []rune(b), levenshteinOptions)
	return 1 - float64(distance)/float64(longest)
}

// valueString reads a field as text regardless of its normalised type.
func valueString(r Record, f MatchingField) string {
	return textnorm.String(r[f.ID])
}

// valueNumber reads a field as a number; text that does not parse is zero.
func valueNumber(r Record, f MatchingField) float64 {
	n, _ := textnorm.ParseNumber(r[f.ID])
	return n
}
