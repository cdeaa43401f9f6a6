package domain

import (
	"sort"
	"time"
)

// Granularity is the timeline bucket size.
type Granularity string

const (
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// ParseGranularity validates a caller-supplied granularity, defaulting to
// monthly buckets.
func ParseGranularity(raw string) (Granularity, error) {
	switch raw {
	case "", string(GranularityMonth):
		return GranularityMonth, nil
	case string(GranularityYear):
		return GranularityYear, nil
	}
	return "", invalidFilterValuef("unknown granularity %q", raw)
}

// SortDirection orders listing results.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection validates a caller-supplied direction, defaulting to
// descending (newest first).
func ParseSortDirection(raw string) (SortDirection, error) {
	switch raw {
	case "", string(SortDesc):
		return SortDesc, nil
	case string(SortAsc):
		return SortAsc, nil
	}
	return "", invalidFilterValuef("unknown sort direction %q", raw)
}

// DateRange is an inclusive calendar-date window. From/To carry date
// precision; To covers the whole closing day.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Days returns the window length in calendar days (inclusive).
func (r DateRange) Days() int {
	return int(r.To.Sub(r.From).Hours()/24) + 1
}

// Overlaps reports whether two inclusive ranges share at least one day.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.From.After(other.To) && !other.From.After(r.To)
}

// Previous returns the immediately preceding window of equal length.
func (r DateRange) Previous() DateRange {
	to := r.From.AddDate(0, 0, -1)
	return DateRange{From: to.AddDate(0, 0, -(r.Days() - 1)), To: to}
}

// FilterSet is the request-scoped logical filter vocabulary. It is immutable
// for the duration of one aggregation call: engines derive modified copies
// instead of mutating it, and no ambient filter state exists anywhere.
type FilterSet struct {
	Years      []int
	Month      int // 1-12, 0 = unset
	Range      *DateRange
	Units      []string
	Persons    []string
	Categories []string
	Areas      []string
	MinValue   *float64
	MaxValue   *float64
	// Subjects are tree node codes; descendants are implied unless
	// IncludeDescendants is explicitly disabled.
	Subjects           []int
	IncludeDescendants bool
}

// Validate rejects semantically malformed values before any query executes.
func (f FilterSet) Validate() error {
	if f.Month < 0 || f.Month > 12 {
		return invalidFilterValuef("month %d out of range", f.Month)
	}
	for _, year := range f.Years {
		if year < 1900 || year > 2200 {
			return invalidFilterValuef("year %d out of range", year)
		}
	}
	if f.Range != nil && f.Range.From.After(f.Range.To) {
		return invalidFilterValuef("date range start after end")
	}
	if f.MinValue != nil && f.MaxValue != nil && *f.MinValue > *f.MaxValue {
		return invalidFilterValuef("minValue greater than maxValue")
	}
	return nil
}

// IsZero reports whether the set filters nothing (identity predicate).
func (f FilterSet) IsZero() bool {
	return len(f.Years) == 0 && f.Month == 0 && f.Range == nil &&
		len(f.Units) == 0 && len(f.Persons) == 0 &&
		len(f.Categories) == 0 && len(f.Areas) == 0 &&
		f.MinValue == nil && f.MaxValue == nil && len(f.Subjects) == 0
}

// ActiveWindow derives the concrete date window the filters select, used to
// compute the prior comparable period for KPI variation. An explicit range is
// the most specific and wins over year+month. Returns false whenever the date
// selection is not exactly one contiguous range — no years at all, a month
// across several years, or gapped years — since a prior period computed from
// a wider window would not be comparable to the filtered count.
func (f FilterSet) ActiveWindow() (DateRange, bool) {
	if f.Range != nil {
		return *f.Range, true
	}
	if len(f.Years) == 0 {
		return DateRange{}, false
	}
	years := append([]int(nil), f.Years...)
	sort.Ints(years)
	for i := 1; i < len(years); i++ {
		if years[i]-years[i-1] > 1 {
			return DateRange{}, false
		}
	}
	minYear, maxYear := years[0], years[len(years)-1]
	if f.Month != 0 {
		if minYear != maxYear {
			return DateRange{}, false
		}
		from := time.Date(minYear, time.Month(f.Month), 1, 0, 0, 0, 0, time.UTC)
		return DateRange{From: from, To: from.AddDate(0, 1, -1)}, true
	}
	return DateRange{
		From: time.Date(minYear, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(maxYear, time.December, 31, 0, 0, 0, 0, time.UTC),
	}, true
}

// WithRange returns a copy scoped to an explicit window, dropping the
// year/month vocabulary the window supersedes.
func (f FilterSet) WithRange(r DateRange) FilterSet {
	out := f
	out.Range = &r
	out.Years = nil
	out.Month = 0
	return out
}

// WithUnits returns a copy scoped to the given units.
func (f FilterSet) WithUnits(units ...string) FilterSet {
	out := f
	out.Units = units
	return out
}

// WithPersons returns a copy scoped to the given responsible persons.
func (f FilterSet) WithPersons(persons ...string) FilterSet {
	out := f
	out.Persons = persons
	return out
}

// WithoutSubjects returns a copy with the subject selection cleared. The
// hierarchy engine applies subject scoping itself and must not have the
// builder apply it a second time.
func (f FilterSet) WithoutSubjects() FilterSet {
	out := f
	out.Subjects = nil
	return out
}

// Pagination carries server-side listing parameters. Page is 1-based.
type Pagination struct {
	Page     int
	PageSize int
	SortBy   Dimension
	SortDir  SortDirection
	Search   string
}
