package domain

import (
	"time"
)

// Table identifies one of the four workflow event tables.
type Table string

const (
	TableNewCases       Table = "new_cases"
	TableDraftedItems   Table = "drafted_items"
	TableFinalizedItems Table = "finalized_items"
	TablePendingItems   Table = "pending_items"
)

// AllTables returns the event tables in their canonical reporting order.
func AllTables() []Table {
	return []Table{TableNewCases, TableDraftedItems, TableFinalizedItems, TablePendingItems}
}

// ParseTable validates a table name supplied by a caller.
func ParseTable(raw string) (Table, error) {
	switch Table(raw) {
	case TableNewCases, TableDraftedItems, TableFinalizedItems, TablePendingItems:
		return Table(raw), nil
	}
	return "", invalidFilterValuef("unknown table %q", raw)
}

// DisplayName returns the label used for KPI cards and timeline series.
func (t Table) DisplayName() string {
	switch t {
	case TableNewCases:
		return "New Cases"
	case TableDraftedItems:
		return "Drafted Items"
	case TableFinalizedItems:
		return "Finalized Items"
	case TablePendingItems:
		return "Pending Items"
	}
	return string(t)
}

// NewCase is a case assigned to an organizational unit.
type NewCase struct {
	ID         int64
	CaseNumber int64
	CaseCode   string
	Unit       string
	AssignedAt time.Time
	// Responsible is the case owner.
	Responsible string
	CaseValue   *float64
}

// DraftedItem is an instrument authored for a case.
type DraftedItem struct {
	ID         int64
	CaseNumber int64
	Unit       string
	CreatedAt  time.Time
	// CreatedBy is the author; Responsible is the case owner. They often
	// differ, which is why person filters must resolve per table.
	CreatedBy   string
	Responsible string
	Category    string
	Template    string
}

// FinalizedItem is an instrument completed for a case.
type FinalizedItem struct {
	ID          int64
	CaseNumber  int64
	Unit        string
	FinalizedAt time.Time
	// FinalizedBy is the finisher; Responsible is the case owner.
	FinalizedBy string
	Responsible string
	Category    string
	Template    string
}

// PendingItem is an open obligation attached to a case.
type PendingItem struct {
	ID          int64
	CaseNumber  int64
	Unit        string
	CreatedAt   time.Time
	Responsible string
	FulfilledBy string
	Area        string
	// PendingCategory classifies the obligation itself.
	PendingCategory string
	Mandatory       bool
}

// EventRow exposes column-addressed access to an event record. The in-memory
// store evaluates predicates through it and listings serialize through it.
type EventRow interface {
	Field(column string) any
	EventDate() time.Time
}

func (c NewCase) EventDate() time.Time       { return c.AssignedAt }
func (d DraftedItem) EventDate() time.Time   { return d.CreatedAt }
func (f FinalizedItem) EventDate() time.Time { return f.FinalizedAt }
func (p PendingItem) EventDate() time.Time   { return p.CreatedAt }

func (c NewCase) Field(column string) any {
	switch column {
	case "id":
		return c.ID
	case "case_number":
		return c.CaseNumber
	case "case_code":
		return c.CaseCode
	case "unit":
		return c.Unit
	case "assigned_at":
		return c.AssignedAt
	case "responsible":
		return c.Responsible
	case "case_value":
		return c.CaseValue
	}
	return nil
}

func (d DraftedItem) Field(column string) any {
	switch column {
	case "id":
		return d.ID
	case "case_number":
		return d.CaseNumber
	case "unit":
		return d.Unit
	case "created_at":
		return d.CreatedAt
	case "created_by":
		return d.CreatedBy
	case "responsible":
		return d.Responsible
	case "category":
		return d.Category
	case "template":
		return d.Template
	}
	return nil
}

func (f FinalizedItem) Field(column string) any {
	switch column {
	case "id":
		return f.ID
	case "case_number":
		return f.CaseNumber
	case "unit":
		return f.Unit
	case "finalized_at":
		return f.FinalizedAt
	case "finalized_by":
		return f.FinalizedBy
	case "responsible":
		return f.Responsible
	case "category":
		return f.Category
	case "template":
		return f.Template
	}
	return nil
}

func (p PendingItem) Field(column string) any {
	switch column {
	case "id":
		return p.ID
	case "case_number":
		return p.CaseNumber
	case "unit":
		return p.Unit
	case "created_at":
		return p.CreatedAt
	case "responsible":
		return p.Responsible
	case "fulfilled_by":
		return p.FulfilledBy
	case "area":
		return p.Area
	case "pending_category":
		return p.PendingCategory
	case "mandatory":
		return p.Mandatory
	}
	return nil
}

// ListingColumns returns the ordered physical columns a listing exposes for a
// table. The same order drives CSV export headers.
func ListingColumns(table Table) []string {
	switch table {
	case TableNewCases:
		return []string{"id", "case_number", "case_code", "unit", "assigned_at", "responsible", "case_value"}
	case TableDraftedItems:
		return []string{"id", "case_number", "unit", "created_at", "created_by", "responsible", "category", "template"}
	case TableFinalizedItems:
		return []string{"id", "case_number", "unit", "finalized_at", "finalized_by", "responsible", "category", "template"}
	case TablePendingItems:
		return []string{"id", "case_number", "unit", "created_at", "responsible", "fulfilled_by", "area", "pending_category", "mandatory"}
	}
	return nil
}

// TextSearchColumns returns the fixed textual columns free-text listing
// search matches against, per table.
func TextSearchColumns(table Table) []string {
	switch table {
	case TableNewCases:
		return []string{"case_code", "unit", "responsible"}
	case TableDraftedItems:
		return []string{"unit", "created_by", "responsible", "category", "template"}
	case TableFinalizedItems:
		return []string{"unit", "finalized_by", "responsible", "category", "template"}
	case TablePendingItems:
		return []string{"unit", "responsible", "fulfilled_by", "area", "pending_category"}
	}
	return nil
}

// RowMap converts an event row to a column-keyed map for listing responses.
func RowMap(table Table, row EventRow) map[string]any {
	out := make(map[string]any, 9)
	for _, column := range ListingColumns(table) {
		value := row.Field(column)
		if ts, ok := value.(time.Time); ok {
			if ts.IsZero() {
				value = nil
			} else {
				value = ts.Format(time.RFC3339)
			}
		}
		out[column] = value
	}
	return out
}
