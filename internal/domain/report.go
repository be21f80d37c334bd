package domain

import (
	"sort"
	"time"
)

// Report statuses assigned by moderators.
const (
	ReportStatusVerified      = "verified"
	ReportStatusInvestigating = "investigating"
)

// ReportSummary is one community incident report as supplied by the report
// store. The engine only aggregates what it receives.
type ReportSummary struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	Severity    string    `json:"severity"` // low, medium, high, critical
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ReportGroup is the set of community reports aggregated for one location.
// It is append-only while open and frozen once an assessment is produced.
type ReportGroup struct {
	LocationKey string          `json:"locationKey"`
	Reports     []ReportSummary `json:"reports"`

	closed bool
}

// Append adds a report to an open group. Appending to a closed group is a
// transition error: the group was frozen when its assessment was produced.
func (g *ReportGroup) Append(r ReportSummary) error {
	if g.closed {
		return &InvalidTransitionError{Entity: "report group", From: "closed", Action: "append to"}
	}
	g.Reports = append(g.Reports, r)
	return nil
}

// Close freezes the group. Closing is idempotent.
func (g *ReportGroup) Close() { g.closed = true }

// Closed reports whether the group has been frozen.
func (g *ReportGroup) Closed() bool { return g.closed }

// Count returns the number of reports in the group.
func (g *ReportGroup) Count() int { return len(g.Reports) }

// CountByStatus returns how many reports carry the given status.
func (g *ReportGroup) CountByStatus(status string) int {
	n := 0
	for _, r := range g.Reports {
		if r.Status == status {
			n++
		}
	}
	return n
}

// CountBySeverity returns how many reports carry the given severity.
func (g *ReportGroup) CountBySeverity(severity string) int {
	n := 0
	for _, r := range g.Reports {
		if r.Severity == severity {
			n++
		}
	}
	return n
}

// VerifiedRatio returns the percentage (0-100) of verified reports.
// An empty group has ratio 0.
func (g *ReportGroup) VerifiedRatio() float64 {
	if len(g.Reports) == 0 {
		return 0
	}
	return float64(g.CountByStatus(ReportStatusVerified)) / float64(len(g.Reports)) * 100
}

// LatestReportAt returns the creation time of the most recent report,
// or the zero time for an empty group.
func (g *ReportGroup) LatestReportAt() time.Time {
	var latest time.Time
	for _, r := range g.Reports {
		if r.CreatedAt.After(latest) {
			latest = r.CreatedAt
		}
	}
	return latest
}

// CompileReports groups raw report summaries by location key. Reports with
// an empty location are grouped under "Unknown". Groups are returned open,
// ordered by report count descending then location key ascending so the
// busiest locations surface first.
func CompileReports(reports []ReportSummary) []*ReportGroup {
	byLocation := make(map[string]*ReportGroup)
	for _, r := range reports {
		key := r.Location
		if key == "" {
			key = "Unknown"
		}
		g, ok := byLocation[key]
		if !ok {
			g = &ReportGroup{LocationKey: key}
			byLocation[key] = g
		}
		g.Reports = append(g.Reports, r)
	}

	groups := make([]*ReportGroup, 0, len(byLocation))
	for _, g := range byLocation {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Reports) != len(groups[j].Reports) {
			return len(groups[i].Reports) > len(groups[j].Reports)
		}
		return groups[i].LocationKey < groups[j].LocationKey
	})
	return groups
}
