package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/eshaffer321/travel-backoffice/internal/domain/audit"
	"github.com/eshaffer321/travel-backoffice/internal/infrastructure/storage"
)

// PrintHeader prints the application header
func PrintHeader(w io.Writer, command string) {
	fmt.Fprintf(w, "backoffice: %s\n", command)
	fmt.Fprintln(w, strings.Repeat("-", 60))
}

// PrintAuditSummary prints totals and every distinct issue.
func PrintAuditSummary(w io.Writer, reports []audit.FlightReport, summary audit.Summary) {
	fmt.Fprintf(w, "Reports=%d Revenue=%.2f Discount=%.2f Manual=%.2f Net=%.2f\n",
		summary.Reports,
		summary.TotalRevenue,
		summary.TotalDiscount,
		summary.ManualDiscount,
		summary.NetRevenue)

	types := make([]string, 0, len(summary.Issues))
	for t := range summary.Issues {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(w, "  %-18s %d\n", t, summary.Issues[audit.IssueType(t)])
	}

	seen := make(map[string]bool)
	var lines []string
	for _, r := range reports {
		for _, issue := range r.Issues {
			if seen[issue.ID] {
				continue
			}
			seen[issue.ID] = true
			lines = append(lines, fmt.Sprintf("  - [%s] %s", issue.Type, issue.Description))
		}
	}
	if len(lines) == 0 {
		fmt.Fprintln(w, "\nNo issues found.")
		return
	}
	fmt.Fprintln(w, "\nIssues:")
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

// PrintReconcileSummary prints the summary of a recorded reconciliation run.
func PrintReconcileSummary(w io.Writer, run *storage.ReconciliationRun) {
	s := run.Summary
	fmt.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "Company=%d Supplier=%d (after filters and aggregation)\n",
		s.TotalCompanyRecords, s.TotalSupplierRecords)
	fmt.Fprintf(w, "Matched=%d Partial=%d MissingInCompany=%d MissingInSupplier=%d\n",
		s.Matched, s.PartialMatch, s.MissingInCompany, s.MissingInSupplier)
	fmt.Fprintf(w, "Total price difference: %.2f\n", s.TotalPriceDifference)
}
