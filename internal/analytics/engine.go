// Package analytics computes the dashboard aggregates: headline KPIs,
// time-bucketed series, group rankings, and paginated listings. All methods
// take the caller's filter set explicitly and never share filter state.
package analytics

import (
	"context"
	"fmt"
	"time"

	"caseboard/internal/domain"
	"caseboard/internal/query"
	"caseboard/internal/repository"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
	maxRankingLimit = 100
)

// RosterProvider supplies the reduced-workload names used to annotate person
// rankings. Optional; a nil provider disables the annotation.
type RosterProvider interface {
	ReducedWorkloadNames(ctx context.Context) ([]string, error)
}

// Engine answers aggregation requests against the event repository.
type Engine struct {
	events  repository.EventRepository
	builder *query.Builder
	roster  RosterProvider
}

// NewEngine creates an aggregation engine. roster may be nil.
func NewEngine(events repository.EventRepository, builder *query.Builder, roster RosterProvider) *Engine {
	return &Engine{events: events, builder: builder, roster: roster}
}

// KPIs returns one count per event table under the filters, each with its
// variation against the immediately preceding equal-length window. Variation
// is nil when the filters anchor no window or the prior count is zero.
func (e *Engine) KPIs(ctx context.Context, f domain.FilterSet) ([]domain.KPI, error) {
	prepared, err := e.builder.Prepare(f)
	if err != nil {
		return nil, err
	}

	var priorPrepared *query.Prepared
	if window, ok := f.ActiveWindow(); ok {
		priorPrepared, err = e.builder.Prepare(f.WithRange(window.Previous()))
		if err != nil {
			return nil, err
		}
	}

	kpis := make([]domain.KPI, 0, len(domain.AllTables()))
	for _, table := range domain.AllTables() {
		pred, err := prepared.Predicate(table)
		if err != nil {
			return nil, err
		}
		count, err := e.events.Count(ctx, table, pred)
		if err != nil {
			return nil, err
		}

		kpi := domain.KPI{Label: table.DisplayName(), Table: table, Count: count}
		if priorPrepared != nil {
			priorPred, err := priorPrepared.Predicate(table)
			if err != nil {
				return nil, err
			}
			prior, err := e.events.Count(ctx, table, priorPred)
			if err != nil {
				return nil, err
			}
			kpi.Variation = domain.Variation(count, prior)
		}
		kpis = append(kpis, kpi)
	}
	return kpis, nil
}

// Timeline returns one period-bucketed series per requested table (all
// tables when none given). Series share one period axis: contiguous periods
// from the earliest to the latest bucket any series populates, zeros filled
// in between and nothing beyond either end.
func (e *Engine) Timeline(ctx context.Context, f domain.FilterSet, gran domain.Granularity, tables []domain.Table) ([]domain.TimelineSeries, error) {
	if len(tables) == 0 {
		tables = domain.AllTables()
	}
	prepared, err := e.builder.Prepare(f)
	if err != nil {
		return nil, err
	}

	sparse := make([][]domain.TimelinePoint, len(tables))
	var first, last string
	for i, table := range tables {
		pred, err := prepared.Predicate(table)
		if err != nil {
			return nil, err
		}
		points, err := e.events.CountByPeriod(ctx, table, pred, gran)
		if err != nil {
			return nil, err
		}
		sparse[i] = points
		if len(points) == 0 {
			continue
		}
		if first == "" || points[0].Period < first {
			first = points[0].Period
		}
		if end := points[len(points)-1].Period; end > last {
			last = end
		}
	}

	axis, err := periodAxis(first, last, gran)
	if err != nil {
		return nil, err
	}

	series := make([]domain.TimelineSeries, len(tables))
	for i, table := range tables {
		byPeriod := make(map[string]int, len(sparse[i]))
		for _, p := range sparse[i] {
			byPeriod[p.Period] = p.Value
		}
		points := make([]domain.TimelinePoint, len(axis))
		for j, period := range axis {
			points[j] = domain.TimelinePoint{Period: period, Value: byPeriod[period]}
		}
		series[i] = domain.TimelineSeries{Name: table.DisplayName(), Points: points}
	}
	return series, nil
}

// periodAxis enumerates contiguous calendar periods from first to last
// inclusive. Empty when no series had data.
func periodAxis(first, last string, gran domain.Granularity) ([]string, error) {
	if first == "" {
		return nil, nil
	}
	layout := "2006-01"
	step := func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
	if gran == domain.GranularityYear {
		layout = "2006"
		step = func(t time.Time) time.Time { return t.AddDate(1, 0, 0) }
	}
	from, err := time.Parse(layout, first)
	if err != nil {
		return nil, fmt.Errorf("malformed period %q: %w", first, err)
	}
	to, err := time.Parse(layout, last)
	if err != nil {
		return nil, fmt.Errorf("malformed period %q: %w", last, err)
	}

	var axis []string
	for t := from; !t.After(to); t = step(t) {
		axis = append(axis, t.Format(layout))
	}
	return axis, nil
}

// Ranking groups one table by a logical dimension and returns the top groups
// by count. Unlike filter dimensions, an explicitly requested grouping that
// the table does not carry is an error, never a silent skip. Person rankings
// are annotated against the reduced-workload roster.
func (e *Engine) Ranking(ctx context.Context, f domain.FilterSet, table domain.Table, dim domain.Dimension, limit int) ([]domain.RankingEntry, error) {
	column, err := domain.ResolveColumn(table, dim)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxRankingLimit {
		limit = maxRankingLimit
	}

	prepared, err := e.builder.Prepare(f)
	if err != nil {
		return nil, err
	}
	pred, err := prepared.Predicate(table)
	if err != nil {
		return nil, err
	}

	entries, err := e.events.CountByGroup(ctx, table, column, dim.PersonDimension(), pred, limit)
	if err != nil {
		return nil, err
	}

	if dim.PersonDimension() && e.roster != nil {
		names, err := e.roster.ReducedWorkloadNames(ctx)
		if err != nil {
			return nil, err
		}
		reduced := make(map[string]bool, len(names))
		for _, name := range names {
			reduced[domain.NormalizePersonName(name)] = true
		}
		for i := range entries {
			entries[i].ReducedWorkload = reduced[domain.NormalizePersonName(entries[i].Label)]
		}
	}
	return entries, nil
}

// Listing returns one page of matching event rows. Sorting resolves through
// the column resolver so a sort key the table does not carry fails rather
// than silently reordering by something else.
func (e *Engine) Listing(ctx context.Context, f domain.FilterSet, table domain.Table, p domain.Pagination) (domain.Page, error) {
	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = domain.DimensionDate
	}
	sortColumn, err := domain.ResolveColumn(table, sortBy)
	if err != nil {
		return domain.Page{}, err
	}
	dir := p.SortDir
	if dir == "" {
		dir = domain.SortDesc
	}

	page := p.Page
	if page < 1 {
		page = 1
	}
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	prepared, err := e.builder.Prepare(f)
	if err != nil {
		return domain.Page{}, err
	}
	pred, err := prepared.Predicate(table)
	if err != nil {
		return domain.Page{}, err
	}

	rows, total, err := e.events.List(ctx, table, pred, sortColumn, dir, p.Search, pageSize, (page-1)*pageSize)
	if err != nil {
		return domain.Page{}, err
	}

	items := make([]map[string]any, len(rows))
	for i, row := range rows {
		items[i] = domain.RowMap(table, row)
	}
	totalPages := (total + pageSize - 1) / pageSize
	return domain.Page{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}
