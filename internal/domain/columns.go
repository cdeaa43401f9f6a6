package domain

import "fmt"

// Dimension is a logical filter/group axis shared by every engine operation.
// Physical column names differ per table; the resolver below is the only
// place that mapping lives.
type Dimension string

const (
	DimensionDate              Dimension = "date"
	DimensionUnit              Dimension = "unit"
	DimensionResponsiblePerson Dimension = "responsiblePerson"
	DimensionActorPerson       Dimension = "actorPerson"
	DimensionCategory          Dimension = "category"
	DimensionArea              Dimension = "area"
	DimensionCaseKey           Dimension = "caseKey"
)

// AllDimensions returns every logical dimension the engine queries.
func AllDimensions() []Dimension {
	return []Dimension{
		DimensionDate,
		DimensionUnit,
		DimensionResponsiblePerson,
		DimensionActorPerson,
		DimensionCategory,
		DimensionArea,
		DimensionCaseKey,
	}
}

// ParseDimension validates a dimension name supplied by a caller.
func ParseDimension(raw string) (Dimension, error) {
	for _, d := range AllDimensions() {
		if string(d) == raw {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: unknown dimension %q", ErrInvalidSortColumn, raw)
}

// notApplicable marks a (table, dimension) pair that is deliberately absent
// from a table's vocabulary, as opposed to a missing mapping.
const notApplicable = "-"

// columnTable is the exhaustive (table × dimension) → physical column map.
// Every pair must have an explicit entry; CheckResolver enforces that at
// startup. "responsiblePerson" deliberately points at the event actor on
// drafted and finalized items: filtering finalized work by a person must
// match the finisher, not the case owner.
var columnTable = map[Table]map[Dimension]string{
	TableNewCases: {
		DimensionDate:              "assigned_at",
		DimensionUnit:              "unit",
		DimensionResponsiblePerson: "responsible",
		DimensionActorPerson:       notApplicable,
		DimensionCategory:          notApplicable,
		DimensionArea:              notApplicable,
		DimensionCaseKey:           "case_number",
	},
	TableDraftedItems: {
		DimensionDate:              "created_at",
		DimensionUnit:              "unit",
		DimensionResponsiblePerson: "created_by",
		DimensionActorPerson:       "created_by",
		DimensionCategory:          "category",
		DimensionArea:              notApplicable,
		DimensionCaseKey:           "case_number",
	},
	TableFinalizedItems: {
		DimensionDate:              "finalized_at",
		DimensionUnit:              "unit",
		DimensionResponsiblePerson: "finalized_by",
		DimensionActorPerson:       "finalized_by",
		DimensionCategory:          "category",
		DimensionArea:              notApplicable,
		DimensionCaseKey:           "case_number",
	},
	TablePendingItems: {
		DimensionDate:              "created_at",
		DimensionUnit:              "unit",
		DimensionResponsiblePerson: "responsible",
		DimensionActorPerson:       "fulfilled_by",
		DimensionCategory:          "pending_category",
		DimensionArea:              "area",
		DimensionCaseKey:           "case_number",
	},
}

// ResolveColumn maps a logical dimension onto the physical column for one
// table. It distinguishes a dimension that does not exist for the table
// (ErrNotApplicableDimension, callers may skip) from a pair with no mapping
// at all (ErrNoResolverEntry, a programming error callers must fail on).
func ResolveColumn(table Table, dim Dimension) (string, error) {
	dims, ok := columnTable[table]
	if !ok {
		return "", fmt.Errorf("%w: table %q", ErrNoResolverEntry, table)
	}
	column, ok := dims[dim]
	if !ok {
		return "", fmt.Errorf("%w: %s.%s", ErrNoResolverEntry, table, dim)
	}
	if column == notApplicable {
		return "", fmt.Errorf("%w: %s has no %s", ErrNotApplicableDimension, table, dim)
	}
	return column, nil
}

// PersonDimension reports whether values of the dimension are person names,
// which are normalized (parenthesised suffixes stripped) before comparison
// and grouping.
func (d Dimension) PersonDimension() bool {
	return d == DimensionResponsiblePerson || d == DimensionActorPerson
}

// CheckResolver verifies that every (table, dimension) pair has an explicit
// entry. Run once at startup; a gap here is exactly the class of bug the
// resolver exists to prevent.
func CheckResolver() error {
	for _, table := range AllTables() {
		dims, ok := columnTable[table]
		if !ok {
			return fmt.Errorf("column resolver: missing table %s", table)
		}
		for _, dim := range AllDimensions() {
			if _, ok := dims[dim]; !ok {
				return fmt.Errorf("column resolver: missing entry %s.%s", table, dim)
			}
		}
	}
	return nil
}
