package audit

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountType tags the active shape of a ManualDiscount.
type DiscountType string

const (
	DiscountFixed        DiscountType = "fixed"
	DiscountPerPassenger DiscountType = "per_passenger"
)

// PerPassengerRates is the amount discounted for each passenger type.
type PerPassengerRates struct {
	Adult  float64 `json:"per_adult"`
	Child  float64 `json:"per_child"`
	Infant float64 `json:"per_infant"`
}

// ManualDiscount is either a fixed amount or per-passenger rates, never both.
// Build one with FixedDiscount or PerPassengerDiscount.
type ManualDiscount struct {
	kind  DiscountType
	value float64
	rates PerPassengerRates
}

// FixedDiscount discounts a flat amount from a report.
func FixedDiscount(value float64) ManualDiscount {
	return ManualDiscount{kind: DiscountFixed, value: value}
}

// PerPassengerDiscount discounts per passenger according to type.
func PerPassengerDiscount(rates PerPassengerRates) ManualDiscount {
	return ManualDiscount{kind: DiscountPerPassenger, rates: rates}
}

// Type returns the active shape.
func (d ManualDiscount) Type() DiscountType {
	return d.kind
}

// Fixed returns the flat amount when the discount is fixed.
func (d ManualDiscount) Fixed() (float64, bool) {
	return d.value, d.kind == DiscountFixed
}

// Rates returns the per-passenger rates when the discount is per passenger.
func (d ManualDiscount) Rates() (PerPassengerRates, bool) {
	return d.rates, d.kind == DiscountPerPassenger
}

// Amount is the total discount for a report with the given passenger counts.
func (d ManualDiscount) Amount(counts PaxCounts) float64 {
	switch d.kind {
	case DiscountFixed:
		return d.value
	case DiscountPerPassenger:
		total := decimal.NewFromFloat(d.rates.Adult).Mul(decimal.NewFromInt(int64(counts.Adult))).
			Add(decimal.NewFromFloat(d.rates.Child).Mul(decimal.NewFromInt(int64(counts.Child)))).
			Add(decimal.NewFromFloat(d.rates.Infant).Mul(decimal.NewFromInt(int64(counts.Infant))))
		return total.InexactFloat64()
	default:
		return 0
	}
}

type manualDiscountJSON struct {
	Type      DiscountType `json:"type"`
	Value     *float64     `json:"value,omitempty"`
	PerAdult  *float64     `json:"per_adult,omitempty"`
	PerChild  *float64     `json:"per_child,omitempty"`
	PerInfant *float64     `json:"per_infant,omitempty"`
}

// MarshalJSON writes the tagged form, e.g. {"type":"fixed","value":50}.
func (d ManualDiscount) MarshalJSON() ([]byte, error) {
	out := manualDiscountJSON{Type: d.kind}
	switch d.kind {
	case DiscountFixed:
		out.Value = &d.value
	case DiscountPerPassenger:
		out.PerAdult = &d.rates.Adult
		out.PerChild = &d.rates.Child
		out.PerInfant = &d.rates.Infant
	default:
		return nil, fmt.Errorf("manual discount has no type")
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the tagged form and rejects unknown types.
func (d *ManualDiscount) UnmarshalJSON(data []byte) error {
	var in manualDiscountJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	deref := func(f *float64) float64 {
		if f == nil {
			return 0
		}
		return *f
	}

	switch DiscountType(strings.ToLower(string(in.Type))) {
	case DiscountFixed:
		*d = FixedDiscount(deref(in.Value))
	case DiscountPerPassenger:
		*d = PerPassengerDiscount(PerPassengerRates{
			Adult:  deref(in.PerAdult),
			Child:  deref(in.PerChild),
			Infant: deref(in.PerInfant),
		})
	default:
		return fmt.Errorf("unknown manual discount type %q", in.Type)
	}
	return nil
}

// PaxCounts tallies passengers per type.
type PaxCounts struct {
	Adult  int `json:"adult"`
	Child  int `json:"child"`
	Infant int `json:"infant"`
}

// CountPassengers tallies passenger types. Unset or unrecognised types count
// as adults.
func CountPassengers(passengers []Passenger) PaxCounts {
	var counts PaxCounts
	for _, p := range passengers {
		switch normalizePassengerType(p.PassengerType) {
		case PassengerChild:
			counts.Child++
		case PassengerInfant:
			counts.Infant++
		default:
			counts.Adult++
		}
	}
	return counts
}

func normalizePassengerType(t PassengerType) PassengerType {
	switch strings.ToLower(strings.TrimSpace(string(t))) {
	case "child", "chd", "cnn":
		return PassengerChild
	case "infant", "inf":
		return PassengerInfant
	default:
		return PassengerAdult
	}
}

// DiscountFromInput resolves the discount-update entry point arguments.
// Explicit details win; otherwise a non-zero value becomes a fixed discount
// and zero clears the discount.
func DiscountFromInput(value float64, details *ManualDiscount) *ManualDiscount {
	if details != nil && details.kind != "" {
		d := *details
		return &d
	}
	if value == 0 {
		return nil
	}
	d := FixedDiscount(value)
	return &d
}

// ApplyManualDiscount sets a new manual discount on a report and recomputes
// the manual discount value and net revenue. The automatic return-leg
// discount from the last audit is kept as is, so the result equals a full
// re-audit of an unchanged report set.
func ApplyManualDiscount(report FlightReport, discount *ManualDiscount, notes string) FlightReport {
	out := report.Clone()
	if discount != nil {
		d := *discount
		out.ManualDiscount = &d
	} else {
		out.ManualDiscount = nil
		out.ManualDiscountValue = 0
	}
	out.ManualDiscountNotes = notes
	out.ManualDiscountValue = manualDiscountValue(out)
	out.FilteredRevenue = netRevenue(out.TotalRevenue, out.TotalDiscount, out.ManualDiscountValue)
	return out
}

// manualDiscountValue computes the manual part for a report. Reports carrying
// only a legacy value and no discount shape keep that value.
func manualDiscountValue(r FlightReport) float64 {
	if r.ManualDiscount == nil {
		return r.ManualDiscountValue
	}
	return r.ManualDiscount.Amount(CountPassengers(r.Passengers))
}

func netRevenue(total, autoDiscount, manualDiscount float64) float64 {
	return decimal.NewFromFloat(total).
		Sub(decimal.NewFromFloat(autoDiscount)).
		Sub(decimal.NewFromFloat(manualDiscount)).
		InexactFloat64()
}
