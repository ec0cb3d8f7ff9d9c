// Package audit checks the flight reports uploaded from supplier manifests.
//
// A run looks at the whole report collection at once and:
//   - flags booking references booked on more than one flight (DUPLICATE_PNR)
//   - flags manifests uploaded twice under different names (DUPLICATE_FILE)
//   - links a traveler's legs across flights; the earliest leg is the
//     DEPARTURE, later legs are RETURN and their fare is discounted
//   - applies the manual discount and computes net revenue
//
// RunAudit is pure: it works on copies, keeps no state between calls and
// returns the same annotations for the same input.
//
// Example usage:
//
//	audited := audit.RunAudit(reports)
//	for _, r := range audited {
//		fmt.Println(r.ID, r.FilteredRevenue, len(r.Issues))
//	}
package audit

import (
	"sort"

	"github.com/shopspring/decimal"
)

// RunAudit annotates every report with issues, trip classifications and
// discounts, and returns the copies sorted by flight date, most recent first.
func RunAudit(reports []FlightReport) []FlightReport {
	if len(reports) == 0 {
		return []FlightReport{}
	}

	working := make([]FlightReport, len(reports))
	for i, r := range reports {
		working[i] = prepare(r)
	}

	issues := newIssueSet(len(working))
	detectDuplicatePNRs(working, issues)
	detectDuplicateFiles(working, issues)
	classifyTrips(working, issues)

	for i := range working {
		r := &working[i]
		r.Issues = issues.forReport(i)
		r.ManualDiscountValue = manualDiscountValue(*r)
		r.FilteredRevenue = netRevenue(r.TotalRevenue, r.TotalDiscount, r.ManualDiscountValue)
	}

	sort.SliceStable(working, func(a, b int) bool {
		return mostRecentFirst(working[a], working[b])
	})
	return working
}

// mostRecentFirst orders dated reports newest first; undated ones go last.
func mostRecentFirst(a, b FlightReport) bool {
	_, aok := flightTimestamp(a.FlightDate, a.FlightTime)
	_, bok := flightTimestamp(b.FlightDate, b.FlightTime)
	if aok != bok {
		return aok
	}
	return flightBefore(b.FlightDate, b.FlightTime, a.FlightDate, a.FlightTime)
}

// prepare copies a report and clears everything the audit computes.
func prepare(r FlightReport) FlightReport {
	out := r.Clone()
	out.Issues = nil
	out.TotalDiscount = 0
	out.TripTypeCounts = TripTypeCounts{}

	if len(out.Passengers) == 0 {
		for _, g := range out.PnrGroups {
			for _, p := range g.Passengers {
				if p.BookingReference == "" {
					p.BookingReference = g.BookingReference
				}
				out.Passengers = append(out.Passengers, p)
			}
		}
	}
	for i := range out.Passengers {
		resetPassenger(&out.Passengers[i])
	}
	for g := range out.PnrGroups {
		for i := range out.PnrGroups[g].Passengers {
			p := &out.PnrGroups[g].Passengers[i]
			if p.BookingReference == "" {
				p.BookingReference = out.PnrGroups[g].BookingReference
			}
			resetPassenger(p)
		}
	}

	out.PayDistribution = payDistribution(out.Passengers)
	return out
}

func resetPassenger(p *Passenger) {
	p.TripType = ""
	p.ActualPrice = nil
	p.DepartureDate = ""
}

func payDistribution(passengers []Passenger) PayDistribution {
	adult, child, infant := decimal.Zero, decimal.Zero, decimal.Zero
	for _, p := range passengers {
		amount := decimal.NewFromFloat(p.Payable)
		switch normalizePassengerType(p.PassengerType) {
		case PassengerChild:
			child = child.Add(amount)
		case PassengerInfant:
			infant = infant.Add(amount)
		default:
			adult = adult.Add(amount)
		}
	}
	return PayDistribution{
		Adult:  adult.InexactFloat64(),
		Child:  child.InexactFloat64(),
		Infant: infant.InexactFloat64(),
	}
}
