package audit

// PassengerType is the fare category of a passenger.
type PassengerType string

const (
	PassengerAdult  PassengerType = "Adult"
	PassengerChild  PassengerType = "Child"
	PassengerInfant PassengerType = "Infant"
)

// TripType is computed by the audit from cross-report trip matching.
type TripType string

const (
	TripDeparture TripType = "DEPARTURE"
	TripReturn    TripType = "RETURN"
	TripSingle    TripType = "SINGLE"
)

// IssueType categorises a data-audit issue.
type IssueType string

const (
	IssueDuplicatePNR    IssueType = "DUPLICATE_PNR"
	IssueDuplicateFile   IssueType = "DUPLICATE_FILE"
	IssueUnmatchedReturn IssueType = "UNMATCHED_RETURN"
)

// Passenger is one traveler on a flight manifest.
type Passenger struct {
	Name             string        `json:"name"`
	PassportNumber   string        `json:"passport_number,omitempty"`
	BookingReference string        `json:"booking_reference"`
	Payable          float64       `json:"payable"`
	PassengerType    PassengerType `json:"passenger_type,omitempty"`

	// Set by the audit.
	TripType      TripType `json:"trip_type,omitempty"`
	ActualPrice   *float64 `json:"actual_price,omitempty"`
	DepartureDate string   `json:"departure_date,omitempty"`
}

// PnrGroup is the set of passengers booked under one reservation.
type PnrGroup struct {
	BookingReference string      `json:"booking_reference"`
	PNR              string      `json:"pnr"`
	PaxCount         int         `json:"pax_count"`
	Passengers       []Passenger `json:"passengers"`
}

// PayDistribution is the payable total per passenger type.
type PayDistribution struct {
	Adult  float64 `json:"adult"`
	Child  float64 `json:"child"`
	Infant float64 `json:"infant"`
}

// TripTypeCounts tallies travelers by trip shape.
type TripTypeCounts struct {
	OneWay    int `json:"one_way"`
	RoundTrip int `json:"round_trip"`
}

// IssueDetail is one occurrence referenced by an issue. Which fields are set
// depends on the issue type.
type IssueDetail struct {
	ReportID      string   `json:"report_id"`
	FileName      string   `json:"file_name,omitempty"`
	Route         string   `json:"route,omitempty"`
	FlightDate    string   `json:"flight_date,omitempty"`
	FlightTime    string   `json:"flight_time,omitempty"`
	PNR           string   `json:"pnr,omitempty"`
	PaxCount      int      `json:"pax_count,omitempty"`
	PassengerName string   `json:"passenger_name,omitempty"`
	Payable       float64  `json:"payable,omitempty"`
	TripType      TripType `json:"trip_type,omitempty"`
}

// DataAuditIssue is a data-quality finding attached to every report it
// implicates.
type DataAuditIssue struct {
	ID          string        `json:"id"`
	Type        IssueType     `json:"type"`
	PNR         string        `json:"pnr,omitempty"`
	Description string        `json:"description"`
	Details     []IssueDetail `json:"details"`
	Link        string        `json:"link"`
}

// FlightReport is one ingested flight manifest.
type FlightReport struct {
	ID           string      `json:"id"`
	FileName     string      `json:"file_name"`
	FlightDate   string      `json:"flight_date"`
	FlightTime   string      `json:"flight_time"`
	Route        string      `json:"route"`
	SupplierName string      `json:"supplier_name"`
	PaxCount     int         `json:"pax_count"`
	TotalRevenue float64     `json:"total_revenue"`
	Passengers   []Passenger `json:"passengers"`
	PnrGroups    []PnrGroup  `json:"pnr_groups"`

	PayDistribution     PayDistribution  `json:"pay_distribution"`
	TripTypeCounts      TripTypeCounts   `json:"trip_type_counts"`
	ManualDiscount      *ManualDiscount  `json:"manual_discount,omitempty"`
	ManualDiscountValue float64          `json:"manual_discount_value"`
	ManualDiscountNotes string           `json:"manual_discount_notes,omitempty"`
	TotalDiscount       float64          `json:"total_discount"`
	FilteredRevenue     float64          `json:"filtered_revenue"`
	Issues              []DataAuditIssue `json:"issues"`
}

// Clone returns a deep copy so the audit never touches caller-owned data.
func (r FlightReport) Clone() FlightReport {
	out := r
	out.Passengers = clonePassengers(r.Passengers)
	if r.PnrGroups != nil {
		out.PnrGroups = make([]PnrGroup, len(r.PnrGroups))
		for i, g := range r.PnrGroups {
			g.Passengers = clonePassengers(g.Passengers)
			out.PnrGroups[i] = g
		}
	}
	if r.ManualDiscount != nil {
		d := *r.ManualDiscount
		out.ManualDiscount = &d
	}
	if r.Issues != nil {
		out.Issues = make([]DataAuditIssue, len(r.Issues))
		for i, issue := range r.Issues {
			issue.Details = append([]IssueDetail(nil), issue.Details...)
			out.Issues[i] = issue
		}
	}
	return out
}

func clonePassengers(in []Passenger) []Passenger {
	if in == nil {
		return nil
	}
	out := make([]Passenger, len(in))
	for i, p := range in {
		if p.ActualPrice != nil {
			price := *p.ActualPrice
			p.ActualPrice = &price
		}
		out[i] = p
	}
	return out
}
