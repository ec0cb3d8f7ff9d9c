package audit

import (
	"fmt"
	"strings"

	"github.com/eshaffer321/travel-backoffice/internal/domain/textnorm"
)

// issueSet collects issues per report, keeping each issue id at most once
// per report and in detection order.
type issueSet struct {
	byReport [][]DataAuditIssue
	seen     []map[string]bool
}

func newIssueSet(n int) *issueSet {
	s := &issueSet{
		byReport: make([][]DataAuditIssue, n),
		seen:     make([]map[string]bool, n),
	}
	for i := range s.seen {
		s.seen[i] = make(map[string]bool)
	}
	return s
}

func (s *issueSet) attach(reportIdx int, issue DataAuditIssue) {
	if s.seen[reportIdx][issue.ID] {
		return
	}
	s.seen[reportIdx][issue.ID] = true
	s.byReport[reportIdx] = append(s.byReport[reportIdx], issue)
}

func (s *issueSet) forReport(reportIdx int) []DataAuditIssue {
	if s.byReport[reportIdx] == nil {
		return []DataAuditIssue{}
	}
	return s.byReport[reportIdx]
}

type pnrOccurrence struct {
	reportIdx int
	detail    IssueDetail
}

// detectDuplicatePNRs flags booking references that appear on more than one
// distinct (route, date) flight.
func detectDuplicatePNRs(reports []FlightReport, issues *issueSet) {
	occurrences := make(map[string][]pnrOccurrence)
	var order []string

	for i, r := range reports {
		for _, g := range r.PnrGroups {
			ref := g.BookingReference
			if strings.TrimSpace(ref) == "" {
				ref = g.PNR
			}
			key := textnorm.Key(ref)
			if key == "" {
				continue
			}
			if _, ok := occurrences[key]; !ok {
				order = append(order, key)
			}
			occurrences[key] = append(occurrences[key], pnrOccurrence{
				reportIdx: i,
				detail: IssueDetail{
					ReportID:   r.ID,
					FileName:   r.FileName,
					Route:      r.Route,
					FlightDate: r.FlightDate,
					FlightTime: r.FlightTime,
					PNR:        g.PNR,
					PaxCount:   groupPaxCount(g),
				},
			})
		}
	}

	for _, key := range order {
		occ := occurrences[key]
		flights := make(map[string]bool)
		for _, o := range occ {
			flights[flightKey(o.detail.Route, o.detail.FlightDate)] = true
		}
		if len(flights) < 2 {
			continue
		}

		details := make([]IssueDetail, len(occ))
		for i, o := range occ {
			details[i] = o.detail
		}

		issue := DataAuditIssue{
			ID:          string(IssueDuplicatePNR) + ":" + key,
			Type:        IssueDuplicatePNR,
			PNR:         key,
			Description: fmt.Sprintf("Booking reference %s appears on %d different flights", key, len(flights)),
			Details:     details,
			Link:        "/flight-reports?pnr=" + key,
		}
		for _, o := range occ {
			issues.attach(o.reportIdx, issue)
		}
	}
}

func groupPaxCount(g PnrGroup) int {
	if g.PaxCount > 0 {
		return g.PaxCount
	}
	return len(g.Passengers)
}

func flightKey(route, date string) string {
	return textnorm.Key(route) + "|" + strings.TrimSpace(date)
}

// Fingerprint identifies a flight manifest independent of its file name.
func Fingerprint(r FlightReport) string {
	return fmt.Sprintf("%s|%s|%s|%d|%.2f",
		r.FlightDate, r.FlightTime, r.Route, r.PaxCount, r.TotalRevenue)
}

// detectDuplicateFiles flags reports sharing a fingerprint.
func detectDuplicateFiles(reports []FlightReport, issues *issueSet) {
	groups := make(map[string][]int)
	var order []string

	for i, r := range reports {
		fp := Fingerprint(r)
		if _, ok := groups[fp]; !ok {
			order = append(order, fp)
		}
		groups[fp] = append(groups[fp], i)
	}

	for _, fp := range order {
		idx := groups[fp]
		if len(idx) < 2 {
			continue
		}

		names := make([]string, len(idx))
		details := make([]IssueDetail, len(idx))
		for n, i := range idx {
			r := reports[i]
			names[n] = r.FileName
			details[n] = IssueDetail{
				ReportID:   r.ID,
				FileName:   r.FileName,
				Route:      r.Route,
				FlightDate: r.FlightDate,
				FlightTime: r.FlightTime,
				PaxCount:   r.PaxCount,
			}
		}

		issue := DataAuditIssue{
			ID:          string(IssueDuplicateFile) + ":" + fp,
			Type:        IssueDuplicateFile,
			Description: "Possible duplicate upload of the same flight: " + strings.Join(names, ", "),
			Details:     details,
			Link:        "/flight-reports/" + reports[idx[0]].ID,
		}
		for _, i := range idx {
			issues.attach(i, issue)
		}
	}
}
