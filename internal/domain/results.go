package domain

import "math"

// KPI is one headline metric for a table under the active filters.
// Variation is the signed percentage against the immediately preceding
// equal-length period, nil when no comparable prior period exists or the
// prior count is zero.
type KPI struct {
	Label     string   `json:"label"`
	Table     Table    `json:"table"`
	Count     int      `json:"count"`
	Variation *float64 `json:"variation"`
}

// Variation computes a signed percentage change rounded to one decimal
// place. A zero prior period yields nil rather than infinity.
func Variation(current, prior int) *float64 {
	if prior == 0 {
		return nil
	}
	v := math.Round(float64(current-prior)/float64(prior)*1000) / 10
	return &v
}

// TimelinePoint is one (period label, value) pair; labels are "YYYY-MM" for
// monthly buckets and "YYYY" for yearly ones.
type TimelinePoint struct {
	Period string `json:"period"`
	Value  int    `json:"value"`
}

// TimelineSeries is a named, period-ordered sequence of points.
type TimelineSeries struct {
	Name   string          `json:"name"`
	Points []TimelinePoint `json:"points"`
}

// RankingEntry is one group in a group-by ranking. ReducedWorkload annotates
// person labels present on the reduced-workload roster.
type RankingEntry struct {
	Label           string `json:"label"`
	Count           int    `json:"count"`
	ReducedWorkload bool   `json:"reducedWorkload,omitempty"`
}

// Page is a server-side listing page.
type Page struct {
	Items      []map[string]any `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}

// SubjectNode is one node of the subject taxonomy.
type SubjectNode struct {
	Code       int    `json:"code"`
	ParentCode *int   `json:"parentCode"`
	Name       string `json:"name"`
	Level      int    `json:"level"`
}

// SubjectChildCount is one direct child with its rolled-up count (the child
// plus all of its descendants).
type SubjectChildCount struct {
	Code        int    `json:"code"`
	Name        string `json:"name"`
	Count       int    `json:"count"`
	HasChildren bool   `json:"hasChildren"`
}

// NodeSummary aggregates one subject node and its whole subtree.
type NodeSummary struct {
	Code        int                 `json:"code"`
	Name        string              `json:"name"`
	KPIs        []KPI               `json:"kpis"`
	TopChildren []SubjectChildCount `json:"topChildren"`
	Timeline    []TimelineSeries    `json:"timeline"`
}

// EntityKind selects what compareEntities compares.
type EntityKind string

const (
	EntityKindUnit   EntityKind = "unit"
	EntityKindPerson EntityKind = "person"
)

// ParseEntityKind validates a caller-supplied comparison kind.
func ParseEntityKind(raw string) (EntityKind, error) {
	switch EntityKind(raw) {
	case EntityKindUnit, EntityKindPerson:
		return EntityKind(raw), nil
	}
	return "", invalidFilterValuef("unknown entity kind %q", raw)
}

// Comparison is one entity's metric row in an entity comparison. Total is
// materialized for sorting.
type Comparison struct {
	Entity  string `json:"entity"`
	Metrics []KPI  `json:"metrics"`
	Total   int    `json:"total"`
}

// PeriodMetrics is one date range's KPI block in a period comparison.
type PeriodMetrics struct {
	Range   DateRange `json:"range"`
	Metrics []KPI     `json:"metrics"`
}

// PeriodComparison holds both ranges' blocks side by side.
type PeriodComparison struct {
	PeriodA PeriodMetrics `json:"periodA"`
	PeriodB PeriodMetrics `json:"periodB"`
}

// FilterOptions lists the distinct values the filter dropdowns offer.
type FilterOptions struct {
	Units      []string `json:"units"`
	Persons    []string `json:"persons"`
	Categories []string `json:"categories"`
	Areas      []string `json:"areas"`
	Years      []int    `json:"years"`
}

// RosterEntry is one reduced-workload roster row, maintained by the admin
// surface and read-only here.
type RosterEntry struct {
	Name            string `json:"name"`
	Role            string `json:"role"`
	ReducedWorkload bool   `json:"reducedWorkload"`
}
