package query

import (
	"errors"
	"testing"
	"time"

	"caseboard/internal/domain"
)

type stubExpander struct {
	calls  int
	result []int
}

func (s *stubExpander) ExpandSubjects(codes []int, includeDescendants bool) []int {
	s.calls++
	if s.result != nil {
		return s.result
	}
	return codes
}

func TestPredicateEmptyFilterIsIdentity(t *testing.T) {
	prepared, err := NewBuilder(nil).Prepare(domain.FilterSet{})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	for _, table := range domain.AllTables() {
		pred, err := prepared.Predicate(table)
		if err != nil {
			t.Fatalf("Predicate(%s): %v", table, err)
		}
		if !pred.IsEmpty() {
			t.Errorf("empty filters must build the identity predicate for %s, got %d clauses", table, len(pred.Clauses))
		}
	}
}

func TestPredicateRangeBeatsYearMonth(t *testing.T) {
	r := domain.DateRange{
		From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	f := domain.FilterSet{Years: []int{2022}, Month: 7, Range: &r}
	prepared, err := NewBuilder(nil).Prepare(f)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	pred, err := prepared.Predicate(domain.TableNewCases)
	if err != nil {
		t.Fatalf("Predicate: %v", err)
	}

	var windows, years, months int
	for _, clause := range pred.Clauses {
		switch clause.(type) {
		case DateWindow:
			windows++
		case YearIn:
			years++
		case MonthEquals:
			months++
		}
	}
	if windows != 1 || years != 0 || months != 0 {
		t.Fatalf("explicit range must supersede year+month: windows=%d years=%d months=%d", windows, years, months)
	}
}

func TestPredicatePersonColumnPerTable(t *testing.T) {
	f := domain.FilterSet{Persons: []string{"Maria Souza"}}
	prepared, err := NewBuilder(nil).Prepare(f)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	want := map[domain.Table]string{
		domain.TableNewCases:       "responsible",
		domain.TableDraftedItems:   "created_by",
		domain.TableFinalizedItems: "finalized_by",
		domain.TablePendingItems:   "responsible",
	}
	for table, column := range want {
		pred, err := prepared.Predicate(table)
		if err != nil {
			t.Fatalf("Predicate(%s): %v", table, err)
		}
		found := false
		for _, clause := range pred.Clauses {
			if v, ok := clause.(ValueIn); ok && v.PersonNames {
				found = true
				if v.Column != column {
					t.Errorf("%s person filter hit %q, want %q", table, v.Column, column)
				}
			}
		}
		if !found {
			t.Errorf("%s: no person clause built", table)
		}
	}
}

func TestPredicateCategorySkippedWhereAbsent(t *testing.T) {
	f := domain.FilterSet{Categories: []string{"Contratos"}}
	prepared, err := NewBuilder(nil).Prepare(f)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	pred, err := prepared.Predicate(domain.TableNewCases)
	if err != nil {
		t.Fatalf("Predicate(new_cases): %v", err)
	}
	if !pred.IsEmpty() {
		t.Fatalf("category filter must skip silently on new_cases, got %d clauses", len(pred.Clauses))
	}

	pred, err = prepared.Predicate(domain.TableDraftedItems)
	if err != nil {
		t.Fatalf("Predicate(drafted_items): %v", err)
	}
	if len(pred.Clauses) != 1 {
		t.Fatalf("drafted_items must carry the category clause, got %d clauses", len(pred.Clauses))
	}
}

func TestPrepareExpandsSubjectsOnce(t *testing.T) {
	expander := &stubExpander{result: []int{10, 11, 12}}
	f := domain.FilterSet{Subjects: []int{10}, IncludeDescendants: true}
	prepared, err := NewBuilder(expander).Prepare(f)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	for _, table := range domain.AllTables() {
		if _, err := prepared.Predicate(table); err != nil {
			t.Fatalf("Predicate(%s): %v", table, err)
		}
	}
	if expander.calls != 1 {
		t.Fatalf("subject expansion ran %d times, want once per request", expander.calls)
	}

	pred, _ := prepared.Predicate(domain.TableFinalizedItems)
	found := false
	for _, clause := range pred.Clauses {
		if c, ok := clause.(CaseKeyInSubjects); ok {
			found = true
			if len(c.Codes) != 3 {
				t.Errorf("clause carries %d codes, want the expanded 3", len(c.Codes))
			}
		}
	}
	if !found {
		t.Fatal("no subject clause built")
	}
}

func TestPredicateValueRangeDirectOnlyOnNewCases(t *testing.T) {
	min := 1000.0
	f := domain.FilterSet{MinValue: &min}
	prepared, err := NewBuilder(nil).Prepare(f)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	for _, table := range domain.AllTables() {
		pred, err := prepared.Predicate(table)
		if err != nil {
			t.Fatalf("Predicate(%s): %v", table, err)
		}
		for _, clause := range pred.Clauses {
			if c, ok := clause.(CaseValueRange); ok {
				if c.Direct != (table == domain.TableNewCases) {
					t.Errorf("%s: Direct = %v", table, c.Direct)
				}
			}
		}
	}
}

func TestPrepareRejectsInvalidFilters(t *testing.T) {
	_, err := NewBuilder(nil).Prepare(domain.FilterSet{Month: 14})
	if !errors.Is(err, domain.ErrInvalidFilterValue) {
		t.Fatalf("err = %v, want ErrInvalidFilterValue", err)
	}
}
