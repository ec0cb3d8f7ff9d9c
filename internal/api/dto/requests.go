package dto

import (
	"github.com/eshaffer321/travel-backoffice/internal/domain/audit"
	"github.com/eshaffer321/travel-backoffice/internal/domain/reconciler"
)

// PassengerRequest is one passenger line of an uploaded manifest.
type PassengerRequest struct {
	Name             string              `json:"name" validate:"required"`
	PassportNumber   string              `json:"passport_number"`
	BookingReference string              `json:"booking_reference"`
	Payable          float64             `json:"payable" validate:"gte=0"`
	PassengerType    audit.PassengerType `json:"passenger_type"`
}

// PnrGroupRequest groups passengers booked under one PNR.
type PnrGroupRequest struct {
	BookingReference string             `json:"booking_reference"`
	PNR              string             `json:"pnr"`
	PaxCount         int                `json:"pax_count" validate:"gte=0"`
	Passengers       []PassengerRequest `json:"passengers" validate:"dive"`
}

// CreateReportRequest is the body of POST /api/reports. Computed audit
// fields are not accepted; the audit fills them.
type CreateReportRequest struct {
	ID                  string                `json:"id"`
	FileName            string                `json:"file_name" validate:"required"`
	FlightDate          string                `json:"flight_date" validate:"required"`
	FlightTime          string                `json:"flight_time"`
	Route               string                `json:"route" validate:"required"`
	SupplierName        string                `json:"supplier_name"`
	PaxCount            int                   `json:"pax_count" validate:"gte=0"`
	TotalRevenue        float64               `json:"total_revenue" validate:"gte=0"`
	Passengers          []PassengerRequest    `json:"passengers" validate:"dive"`
	PnrGroups           []PnrGroupRequest     `json:"pnr_groups" validate:"dive"`
	ManualDiscount      *audit.ManualDiscount `json:"manual_discount"`
	ManualDiscountNotes string                `json:"manual_discount_notes" validate:"max=500"`
}

// ToReport converts the request to a domain report.
func (r CreateReportRequest) ToReport() audit.FlightReport {
	report := audit.FlightReport{
		ID:                  r.ID,
		FileName:            r.FileName,
		FlightDate:          r.FlightDate,
		FlightTime:          r.FlightTime,
		Route:               r.Route,
		SupplierName:        r.SupplierName,
		PaxCount:            r.PaxCount,
		TotalRevenue:        r.TotalRevenue,
		Passengers:          toPassengers(r.Passengers),
		ManualDiscount:      r.ManualDiscount,
		ManualDiscountNotes: r.ManualDiscountNotes,
	}
	for _, g := range r.PnrGroups {
		report.PnrGroups = append(report.PnrGroups, audit.PnrGroup{
			BookingReference: g.BookingReference,
			PNR:              g.PNR,
			PaxCount:         g.PaxCount,
			Passengers:       toPassengers(g.Passengers),
		})
	}
	return report
}

func toPassengers(in []PassengerRequest) []audit.Passenger {
	if len(in) == 0 {
		return nil
	}
	out := make([]audit.Passenger, len(in))
	for i, p := range in {
		out[i] = audit.Passenger{
			Name:             p.Name,
			PassportNumber:   p.PassportNumber,
			BookingReference: p.BookingReference,
			Payable:          p.Payable,
			PassengerType:    p.PassengerType,
		}
	}
	return out
}

// UpdateDiscountRequest is the body of PUT /api/reports/{id}/discount.
// Discount, when present, wins over Value.
type UpdateDiscountRequest struct {
	Value    float64               `json:"value" validate:"gte=0"`
	Notes    string                `json:"notes" validate:"max=500"`
	Discount *audit.ManualDiscount `json:"discount"`
}

// FilterRuleRequest is one filter of a reconcile request.
type FilterRuleRequest struct {
	Field     string `json:"field" validate:"required"`
	Condition string `json:"condition" validate:"required,oneof=equals contains greater_than less_than"`
	Value     string `json:"value"`
}

// ReconcileRequest is the body of POST /api/reconcile. Rows are raw
// spreadsheet rows keyed by header. Omitted filters use the configured
// defaults; an empty list disables them.
type ReconcileRequest struct {
	CompanyRows  []map[string]any    `json:"company_rows" validate:"required"`
	SupplierRows []map[string]any    `json:"supplier_rows" validate:"required"`
	Filters      []FilterRuleRequest `json:"filters" validate:"omitempty,dive"`
}

// FilterRules converts the request filters, keeping nil as nil.
func (r ReconcileRequest) FilterRules() []reconciler.FilterRule {
	if r.Filters == nil {
		return nil
	}
	out := make([]reconciler.FilterRule, len(r.Filters))
	for i, f := range r.Filters {
		out[i] = reconciler.FilterRule{
			Field:     f.Field,
			Condition: reconciler.FilterCondition(f.Condition),
			Value:     f.Value,
		}
	}
	return out
}

// ReportListParams represents query parameters for listing reports.
type ReportListParams struct {
	PNR   string `json:"pnr"`
	Route string `json:"route"`
}

// RunListParams represents query parameters for listing reconciliation runs.
type RunListParams struct {
	Limit int `json:"limit"`
}

// DefaultRunListParams returns default values for run list params.
func DefaultRunListParams() RunListParams {
	return RunListParams{
		Limit: 20,
	}
}
