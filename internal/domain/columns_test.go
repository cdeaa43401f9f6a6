package domain

import (
	"errors"
	"testing"
)

func TestCheckResolverIsTotal(t *testing.T) {
	if err := CheckResolver(); err != nil {
		t.Fatalf("resolver incomplete: %v", err)
	}
}

func TestResolvePersonColumnsPerTable(t *testing.T) {
	cases := []struct {
		table Table
		dim   Dimension
		want  string
	}{
		// Person filters on authored/completed work must hit the event
		// actor, not the case owner.
		{TableDraftedItems, DimensionResponsiblePerson, "created_by"},
		{TableFinalizedItems, DimensionResponsiblePerson, "finalized_by"},
		{TableNewCases, DimensionResponsiblePerson, "responsible"},
		{TablePendingItems, DimensionResponsiblePerson, "responsible"},
		{TablePendingItems, DimensionActorPerson, "fulfilled_by"},
		{TableNewCases, DimensionDate, "assigned_at"},
		{TableFinalizedItems, DimensionDate, "finalized_at"},
		{TablePendingItems, DimensionCategory, "pending_category"},
	}
	for _, tc := range cases {
		got, err := ResolveColumn(tc.table, tc.dim)
		if err != nil {
			t.Fatalf("ResolveColumn(%s, %s): %v", tc.table, tc.dim, err)
		}
		if got != tc.want {
			t.Errorf("ResolveColumn(%s, %s) = %q, want %q", tc.table, tc.dim, got, tc.want)
		}
	}
}

func TestResolveNotApplicable(t *testing.T) {
	cases := []struct {
		table Table
		dim   Dimension
	}{
		{TableNewCases, DimensionActorPerson},
		{TableNewCases, DimensionCategory},
		{TableNewCases, DimensionArea},
		{TableDraftedItems, DimensionArea},
		{TableFinalizedItems, DimensionArea},
	}
	for _, tc := range cases {
		_, err := ResolveColumn(tc.table, tc.dim)
		if !errors.Is(err, ErrNotApplicableDimension) {
			t.Errorf("ResolveColumn(%s, %s) err = %v, want ErrNotApplicableDimension", tc.table, tc.dim, err)
		}
	}
}

func TestParseDimensionUnknown(t *testing.T) {
	if _, err := ParseDimension("responsable"); !errors.Is(err, ErrInvalidSortColumn) {
		t.Fatalf("expected ErrInvalidSortColumn, got %v", err)
	}
}

func TestParseTableUnknown(t *testing.T) {
	if _, err := ParseTable("closed_cases"); !errors.Is(err, ErrInvalidFilterValue) {
		t.Fatalf("expected ErrInvalidFilterValue, got %v", err)
	}
}
