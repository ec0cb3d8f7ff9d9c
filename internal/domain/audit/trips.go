package audit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/travel-backoffice/internal/domain/textnorm"
)

// TravelerKey identifies one traveler on one booking across reports.
func TravelerKey(p Passenger) string {
	return textnorm.Key(p.BookingReference) + "|" + textnorm.Fold(p.Name) + "|" + strings.TrimSpace(p.PassportNumber)
}

// tripLeg is one distinct flight (date and route) a traveler was on.
type tripLeg struct {
	legKey     string
	reportIdx  int
	reportID   string
	fileName   string
	route      string
	flightDate string
	flightTime string
	name       string
	payable    float64
}

// tripIndex groups every traveler's legs across all reports. It is built per
// audit run and discarded afterwards.
type tripIndex struct {
	legs      map[string][]tripLeg
	position  map[string]map[string]int
	reports   map[string][]int
	bookingOf map[string]string
	order     []string
}

func buildTripIndex(reports []FlightReport) *tripIndex {
	idx := &tripIndex{
		legs:      make(map[string][]tripLeg),
		position:  make(map[string]map[string]int),
		reports:   make(map[string][]int),
		bookingOf: make(map[string]string),
	}

	for i, r := range reports {
		leg := flightKey(r.Route, r.FlightDate)
		for _, p := range r.Passengers {
			if !trackable(p) {
				continue
			}
			key := TravelerKey(p)
			if _, ok := idx.legs[key]; !ok {
				idx.order = append(idx.order, key)
				idx.bookingOf[key] = textnorm.Key(p.BookingReference)
			}
			idx.addReport(key, i)
			if idx.hasLeg(key, leg) {
				continue
			}
			idx.legs[key] = append(idx.legs[key], tripLeg{
				legKey:     leg,
				reportIdx:  i,
				reportID:   r.ID,
				fileName:   r.FileName,
				route:      r.Route,
				flightDate: r.FlightDate,
				flightTime: r.FlightTime,
				name:       p.Name,
				payable:    p.Payable,
			})
		}
	}

	for key, legs := range idx.legs {
		sort.SliceStable(legs, func(a, b int) bool {
			return flightBefore(legs[a].flightDate, legs[a].flightTime, legs[b].flightDate, legs[b].flightTime)
		})
		pos := make(map[string]int, len(legs))
		for n, l := range legs {
			pos[l.legKey] = n
		}
		idx.position[key] = pos
	}

	return idx
}

// trackable reports whether a passenger carries enough identity to be
// matched across flights.
func trackable(p Passenger) bool {
	return strings.TrimSpace(p.BookingReference) != "" || strings.TrimSpace(p.Name) != ""
}

func (idx *tripIndex) hasLeg(key, leg string) bool {
	for _, l := range idx.legs[key] {
		if l.legKey == leg {
			return true
		}
	}
	return false
}

func (idx *tripIndex) addReport(key string, reportIdx int) {
	list := idx.reports[key]
	if len(list) > 0 && list[len(list)-1] == reportIdx {
		return
	}
	idx.reports[key] = append(list, reportIdx)
}

// classification is the trip decision for one passenger on one report.
type classification struct {
	tripType      TripType
	departureDate string
	multiLeg      bool
}

func (idx *tripIndex) classify(p Passenger, route, date string) classification {
	if !trackable(p) {
		return classification{tripType: TripSingle}
	}
	key := TravelerKey(p)
	legs := idx.legs[key]
	if len(legs) <= 1 {
		return classification{tripType: TripSingle}
	}
	if idx.position[key][flightKey(route, date)] == 0 {
		return classification{tripType: TripDeparture, multiLeg: true}
	}
	return classification{tripType: TripReturn, departureDate: legs[0].flightDate, multiLeg: true}
}

// annotate applies a classification to a passenger and returns the fare that
// the report discounts for it.
func annotate(p *Passenger, c classification) float64 {
	p.TripType = c.tripType
	p.DepartureDate = c.departureDate
	price := p.Payable
	discount := 0.0
	if c.tripType == TripReturn {
		price = 0
		discount = p.Payable
	}
	p.ActualPrice = &price
	return discount
}

// classifyTrips marks every passenger DEPARTURE, RETURN or SINGLE, discounts
// return fares, updates trip counts and raises one issue per multi-leg
// traveler. A round trip is counted once, on the report carrying its
// departure leg.
func classifyTrips(reports []FlightReport, issues *issueSet) {
	idx := buildTripIndex(reports)

	for i := range reports {
		r := &reports[i]
		counted := make(map[string]bool)
		discount := decimal.Zero

		for j := range r.Passengers {
			p := &r.Passengers[j]
			c := idx.classify(*p, r.Route, r.FlightDate)
			discount = discount.Add(decimal.NewFromFloat(annotate(p, c)))

			key := TravelerKey(*p)
			if counted[key] {
				continue
			}
			switch c.tripType {
			case TripSingle:
				counted[key] = true
				r.TripTypeCounts.OneWay++
			case TripDeparture:
				counted[key] = true
				r.TripTypeCounts.RoundTrip++
			}
		}

		for g := range r.PnrGroups {
			for j := range r.PnrGroups[g].Passengers {
				p := &r.PnrGroups[g].Passengers[j]
				annotate(p, idx.classify(*p, r.Route, r.FlightDate))
			}
		}

		r.TotalDiscount = discount.InexactFloat64()
	}

	for _, key := range idx.order {
		legs := idx.legs[key]
		if len(legs) < 2 {
			continue
		}

		details := make([]IssueDetail, len(legs))
		for n, l := range legs {
			tripType := TripReturn
			if n == 0 {
				tripType = TripDeparture
			}
			details[n] = IssueDetail{
				ReportID:      l.reportID,
				FileName:      l.fileName,
				Route:         l.route,
				FlightDate:    l.flightDate,
				FlightTime:    l.flightTime,
				PassengerName: l.name,
				Payable:       l.payable,
				TripType:      tripType,
			}
		}

		booking := idx.bookingOf[key]
		issue := DataAuditIssue{
			ID:   string(IssueUnmatchedReturn) + ":" + key,
			Type: IssueUnmatchedReturn,
			PNR:  booking,
			Description: fmt.Sprintf("%s (%s) travels on %d flights; return fare discounted from %d later leg(s)",
				legs[0].name, booking, len(legs), len(legs)-1),
			Details: details,
			Link:    "/flight-reports/" + legs[len(legs)-1].reportID,
		}
		for _, reportIdx := range idx.reports[key] {
			issues.attach(reportIdx, issue)
		}
	}
}
