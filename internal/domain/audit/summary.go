package audit

import "github.com/shopspring/decimal"

// Summary totals a set of audited reports.
type Summary struct {
	Reports        int               `json:"reports"`
	Issues         map[IssueType]int `json:"issues"`
	TotalRevenue   float64           `json:"total_revenue"`
	TotalDiscount  float64           `json:"total_discount"`
	ManualDiscount float64           `json:"manual_discount"`
	NetRevenue     float64           `json:"net_revenue"`
}

// Summarize totals audited reports. An issue shared by several reports is
// counted once.
func Summarize(reports []FlightReport) Summary {
	summary := Summary{Reports: len(reports), Issues: make(map[IssueType]int)}
	revenue, auto, manual, net := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	seen := make(map[string]bool)

	for _, r := range reports {
		revenue = revenue.Add(decimal.NewFromFloat(r.TotalRevenue))
		auto = auto.Add(decimal.NewFromFloat(r.TotalDiscount))
		manual = manual.Add(decimal.NewFromFloat(r.ManualDiscountValue))
		net = net.Add(decimal.NewFromFloat(r.FilteredRevenue))
		for _, issue := range r.Issues {
			if seen[issue.ID] {
				continue
			}
			seen[issue.ID] = true
			summary.Issues[issue.Type]++
		}
	}

	summary.TotalRevenue = revenue.InexactFloat64()
	summary.TotalDiscount = auto.InexactFloat64()
	summary.ManualDiscount = manual.InexactFloat64()
	summary.NetRevenue = net.InexactFloat64()
	return summary
}
