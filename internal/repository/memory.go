package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"caseboard/internal/domain"
	"caseboard/internal/query"
)

// MemoryStore is an in-process implementation of the repository interfaces.
// It evaluates the same predicate clauses the Postgres repositories render to
// SQL, so engines can be exercised without a database.
type MemoryStore struct {
	mu           sync.RWMutex
	events       map[domain.Table][]domain.EventRow
	subjects     []domain.SubjectNode
	caseSubjects map[int64][]int
	caseValues   map[int64]*float64
	roster       []domain.RosterEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:       make(map[domain.Table][]domain.EventRow),
		caseSubjects: make(map[int64][]int),
		caseValues:   make(map[int64]*float64),
	}
}

// AddNewCases loads new-case rows and records their monetary values for
// value-range filtering on the other tables.
func (s *MemoryStore) AddNewCases(cases ...domain.NewCase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cases {
		s.events[domain.TableNewCases] = append(s.events[domain.TableNewCases], c)
		s.caseValues[c.CaseNumber] = c.CaseValue
	}
}

// AddDraftedItems loads drafted-item rows.
func (s *MemoryStore) AddDraftedItems(items ...domain.DraftedItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range items {
		s.events[domain.TableDraftedItems] = append(s.events[domain.TableDraftedItems], d)
	}
}

// AddFinalizedItems loads finalized-item rows.
func (s *MemoryStore) AddFinalizedItems(items ...domain.FinalizedItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range items {
		s.events[domain.TableFinalizedItems] = append(s.events[domain.TableFinalizedItems], f)
	}
}

// AddPendingItems loads pending-item rows.
func (s *MemoryStore) AddPendingItems(items ...domain.PendingItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range items {
		s.events[domain.TablePendingItems] = append(s.events[domain.TablePendingItems], p)
	}
}

// LinkCaseSubject attaches a subject code to a case.
func (s *MemoryStore) LinkCaseSubject(caseNumber int64, subjectCode int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caseSubjects[caseNumber] = append(s.caseSubjects[caseNumber], subjectCode)
}

// SetRoster replaces the roster.
func (s *MemoryStore) SetRoster(entries ...domain.RosterEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = append([]domain.RosterEntry(nil), entries...)
}

// matches evaluates a predicate against one row. Clause semantics mirror the
// SQL renderer exactly.
func (s *MemoryStore) matches(row domain.EventRow, pred query.Predicate) bool {
	for _, clause := range pred.Clauses {
		switch c := clause.(type) {
		case query.DateWindow:
			ts, ok := fieldTime(row, c.Column)
			if !ok {
				return false
			}
			if !c.From.IsZero() && ts.Before(c.From) {
				return false
			}
			if !c.To.IsZero() && !ts.Before(c.To.AddDate(0, 0, 1)) {
				return false
			}
		case query.YearIn:
			ts, ok := fieldTime(row, c.Column)
			if !ok {
				return false
			}
			if !containsInt(c.Years, ts.Year()) {
				return false
			}
		case query.MonthEquals:
			ts, ok := fieldTime(row, c.Column)
			if !ok || int(ts.Month()) != c.Month {
				return false
			}
		case query.ValueIn:
			value, _ := row.Field(c.Column).(string)
			if c.PersonNames {
				value = domain.NormalizePersonName(value)
			}
			matched := false
			for _, want := range c.Values {
				if c.PersonNames {
					want = domain.NormalizePersonName(want)
				}
				if value == want {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		case query.CaseKeyInSubjects:
			caseNumber, ok := fieldInt64(row, c.Column)
			if !ok {
				return false
			}
			matched := false
			for _, code := range s.caseSubjects[caseNumber] {
				if containsInt(c.Codes, code) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		case query.CaseValueRange:
			var value *float64
			if c.Direct {
				value, _ = row.Field("case_value").(*float64)
			} else {
				caseNumber, ok := fieldInt64(row, c.CaseKeyColumn)
				if !ok {
					return false
				}
				value = s.caseValues[caseNumber]
			}
			if !valueInRange(value, c.Min, c.Max) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// valueInRange applies the monetary-value rule: an upper bound alone keeps
// rows with no recorded value, any lower bound excludes them.
func valueInRange(value, min, max *float64) bool {
	if value == nil {
		return min == nil
	}
	if min != nil && *value < *min {
		return false
	}
	if max != nil && *value > *max {
		return false
	}
	return true
}

func (s *MemoryStore) selectRows(table domain.Table, pred query.Predicate) []domain.EventRow {
	var out []domain.EventRow
	for _, row := range s.events[table] {
		if s.matches(row, pred) {
			out = append(out, row)
		}
	}
	return out
}

func (s *MemoryStore) Count(_ context.Context, table domain.Table, pred query.Predicate) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selectRows(table, pred)), nil
}

func (s *MemoryStore) CountByPeriod(_ context.Context, table domain.Table, pred query.Predicate, gran domain.Granularity) ([]domain.TimelinePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, row := range s.selectRows(table, pred) {
		ts := row.EventDate()
		period := ts.Format("2006-01")
		if gran == domain.GranularityYear {
			period = ts.Format("2006")
		}
		counts[period]++
	}

	points := make([]domain.TimelinePoint, 0, len(counts))
	for period, value := range counts {
		points = append(points, domain.TimelinePoint{Period: period, Value: value})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })
	return points, nil
}

func (s *MemoryStore) CountByGroup(_ context.Context, table domain.Table, column string, normalizePerson bool, pred query.Predicate, limit int) ([]domain.RankingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, row := range s.selectRows(table, pred) {
		label, _ := row.Field(column).(string)
		if normalizePerson {
			label = domain.NormalizePersonName(label)
		}
		if label == "" {
			continue
		}
		counts[label]++
	}

	entries := make([]domain.RankingEntry, 0, len(counts))
	for label, count := range counts {
		entries = append(entries, domain.RankingEntry{Label: label, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Label < entries[j].Label
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *MemoryStore) List(_ context.Context, table domain.Table, pred query.Predicate, sortColumn string, dir domain.SortDirection, search string, limit, offset int) ([]domain.EventRow, int, error) {
	if !validSortColumn(table, sortColumn) {
		return nil, 0, fmt.Errorf("%w: %q", domain.ErrInvalidSortColumn, sortColumn)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.selectRows(table, pred)
	if term := strings.TrimSpace(search); term != "" {
		folded := domain.FoldText(term)
		var kept []domain.EventRow
		for _, row := range rows {
			for _, column := range domain.TextSearchColumns(table) {
				value, _ := row.Field(column).(string)
				if strings.Contains(domain.FoldText(value), folded) {
					kept = append(kept, row)
					break
				}
			}
		}
		rows = kept
	}

	sort.SliceStable(rows, func(i, j int) bool {
		cmp := compareValues(rows[i].Field(sortColumn), rows[j].Field(sortColumn))
		if dir == domain.SortDesc {
			return cmp > 0
		}
		return cmp < 0
	})

	total := len(rows)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return rows[offset:end], total, nil
}

func (s *MemoryStore) DistinctValues(_ context.Context, table domain.Table, column string, normalizePerson bool) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for _, row := range s.events[table] {
		value, _ := row.Field(column).(string)
		if normalizePerson {
			value = domain.NormalizePersonName(value)
		}
		if value != "" {
			seen[value] = true
		}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values, nil
}

func (s *MemoryStore) DistinctYears(_ context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int]bool)
	for _, table := range domain.AllTables() {
		for _, row := range s.events[table] {
			seen[row.EventDate().Year()] = true
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years, nil
}

func (s *MemoryStore) LastEventDate(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last time.Time
	for _, table := range domain.AllTables() {
		for _, row := range s.events[table] {
			if ts := row.EventDate(); ts.After(last) {
				last = ts
			}
		}
	}
	return last, nil
}

func (s *MemoryStore) LoadAll(_ context.Context) ([]domain.SubjectNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.SubjectNode(nil), s.subjects...), nil
}

func (s *MemoryStore) DirectCaseCounts(_ context.Context, codes []int, pred query.Predicate) (map[int]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Scope to cases the predicate selects on new_cases; an empty predicate
	// counts every linked case.
	inScope := func(int64) bool { return true }
	if !pred.IsEmpty() {
		selected := make(map[int64]bool)
		for _, row := range s.selectRows(domain.TableNewCases, pred) {
			caseNumber, _ := fieldInt64(row, "case_number")
			selected[caseNumber] = true
		}
		inScope = func(caseNumber int64) bool { return selected[caseNumber] }
	}

	counts := make(map[int]int, len(codes))
	for caseNumber, linked := range s.caseSubjects {
		if !inScope(caseNumber) {
			continue
		}
		for _, code := range linked {
			if containsInt(codes, code) {
				counts[code]++
			}
		}
	}
	return counts, nil
}

func (s *MemoryStore) ReplaceAll(_ context.Context, nodes []domain.SubjectNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects = append([]domain.SubjectNode(nil), nodes...)
	return nil
}

func (s *MemoryStore) ListRoster(_ context.Context) ([]domain.RosterEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.RosterEntry(nil), s.roster...), nil
}

func (s *MemoryStore) ReducedWorkloadNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for _, e := range s.roster {
		if e.ReducedWorkload {
			names = append(names, e.Name)
		}
	}
	return names, nil
}

func (s *MemoryStore) SetReducedWorkload(_ context.Context, name string, reduced bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.roster {
		if e.Name == name {
			s.roster[i].ReducedWorkload = reduced
			return nil
		}
	}
	s.roster = append(s.roster, domain.RosterEntry{Name: name, ReducedWorkload: reduced})
	return nil
}

func fieldTime(row domain.EventRow, column string) (time.Time, bool) {
	ts, ok := row.Field(column).(time.Time)
	return ts, ok && !ts.IsZero()
}

func fieldInt64(row domain.EventRow, column string) (int64, bool) {
	n, ok := row.Field(column).(int64)
	return n, ok
}

func containsInt(haystack []int, needle int) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

// compareValues orders heterogeneous listing fields for in-memory sorting.
func compareValues(a, b any) int {
	switch av := a.(type) {
	case time.Time:
		bv, _ := b.(time.Time)
		switch {
		case av.Before(bv):
			return -1
		case av.After(bv):
			return 1
		}
		return 0
	case int64:
		bv, _ := b.(int64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case string:
		bv, _ := b.(string)
		return strings.Compare(domain.FoldText(av), domain.FoldText(bv))
	case *float64:
		bv, _ := b.(*float64)
		switch {
		case av == nil && bv == nil:
			return 0
		case av == nil:
			return -1
		case bv == nil:
			return 1
		case *av < *bv:
			return -1
		case *av > *bv:
			return 1
		}
		return 0
	case bool:
		bv, _ := b.(bool)
		switch {
		case !av && bv:
			return -1
		case av && !bv:
			return 1
		}
		return 0
	}
	return 0
}
