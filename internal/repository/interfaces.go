package repository

import (
	"context"
	"time"

	"caseboard/internal/domain"
	"caseboard/internal/query"
)

// EventRepository defines the aggregation operations over the four event
// tables. Every method takes a fully built predicate; repositories never
// interpret the logical filter vocabulary themselves.
type EventRepository interface {
	// Count returns the number of rows the predicate selects.
	Count(ctx context.Context, table domain.Table, pred query.Predicate) (int, error)

	// CountByPeriod buckets matching rows by calendar period on the table's
	// date column. Only periods with at least one row come back, ordered by
	// period label; callers zero-fill.
	CountByPeriod(ctx context.Context, table domain.Table, pred query.Predicate, gran domain.Granularity) ([]domain.TimelinePoint, error)

	// CountByGroup groups matching rows by a physical column and returns the
	// top groups by count (ties broken by label). normalizePerson strips
	// parenthesised suffixes before grouping. limit <= 0 means no limit.
	CountByGroup(ctx context.Context, table domain.Table, column string, normalizePerson bool, pred query.Predicate, limit int) ([]domain.RankingEntry, error)

	// List returns one page of matching rows ordered by sortColumn plus the
	// total matching count. search matches the table's text columns,
	// accent- and case-insensitively.
	List(ctx context.Context, table domain.Table, pred query.Predicate, sortColumn string, dir domain.SortDirection, search string, limit, offset int) ([]domain.EventRow, int, error)

	// DistinctValues returns the sorted distinct non-empty values of a
	// physical column across the whole table.
	DistinctValues(ctx context.Context, table domain.Table, column string, normalizePerson bool) ([]string, error)

	// DistinctYears returns the sorted distinct calendar years present on
	// any event table's date column.
	DistinctYears(ctx context.Context) ([]int, error)

	// LastEventDate returns the most recent event date across all tables,
	// the freshness stamp of the underlying load.
	LastEventDate(ctx context.Context) (time.Time, error)
}

// SubjectRepository defines persistence for the subject taxonomy and its
// case links.
type SubjectRepository interface {
	// LoadAll returns every taxonomy node. The tree engine indexes them in
	// memory at startup.
	LoadAll(ctx context.Context) ([]domain.SubjectNode, error)

	// DirectCaseCounts counts, per subject code, the cases linked directly
	// to that code among the cases the predicate selects on new_cases.
	// Codes absent from the result have a zero count.
	DirectCaseCounts(ctx context.Context, codes []int, pred query.Predicate) (map[int]int, error)

	// ReplaceAll swaps the stored taxonomy for the given nodes in one
	// transaction. Case links are keyed by code and survive the swap.
	ReplaceAll(ctx context.Context, nodes []domain.SubjectNode) error
}

// RosterRepository defines reads and the single admin write on the person
// roster.
type RosterRepository interface {
	ListRoster(ctx context.Context) ([]domain.RosterEntry, error)
	ReducedWorkloadNames(ctx context.Context) ([]string, error)
	SetReducedWorkload(ctx context.Context, name string, reduced bool) error
}
